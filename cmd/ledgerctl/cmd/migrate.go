package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"honoraires/internal/backend"
	"honoraires/internal/config"
	"honoraires/internal/storage"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	var statusOnly bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQLite migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cfg.DataBackend != string(backend.SQLiteBackend) {
				return fmt.Errorf("migrate needs DATA_BACKEND=sqlite, got %q", cfg.DataBackend)
			}
			if !statusOnly {
				if err := storage.RunMigrations(cfg.SQLiteDBPath); err != nil {
					return err
				}
			}
			version, dirty, err := storage.MigrationVersion(cfg.SQLiteDBPath)
			if err != nil {
				return err
			}
			out := struct {
				Path    string `json:"path" yaml:"path"`
				Version uint   `json:"version" yaml:"version"`
				Dirty   bool   `json:"dirty" yaml:"dirty"`
			}{cfg.SQLiteDBPath, version, dirty}
			return render(cmd.OutOrStdout(), opts.output, out, func(w io.Writer) {
				fmt.Fprintf(w, "%s\tschema version %d\tdirty=%t\n", out.Path, out.Version, out.Dirty)
			})
		},
	}
	cmd.Flags().BoolVar(&statusOnly, "status", false, "only report the current schema version")
	return cmd
}
