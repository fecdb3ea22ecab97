package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"honoraires/internal/cache"
	"honoraires/internal/core"
)

const (
	defaultClientCacheSize = 512
	defaultClientCacheTTL  = 10 * time.Minute
)

// ClientStore is the part of the ledger store the directory reads.
type ClientStore interface {
	CreateClient(ctx context.Context, c core.Client) (core.Client, error)
	GetClient(ctx context.Context, id int64) (core.Client, error)
	ListClients(ctx context.Context) ([]core.Client, error)
}

// ClientDirectory serves client lookups through an LRU cache. Clients are
// never mutated by the ledger, so entries only leave by expiry or eviction.
type ClientDirectory struct {
	store ClientStore
	byID  *cache.LRUCache[int64, core.Client]
	all   *cache.LRUCache[string, []core.Client]
}

// NewClientDirectory uses defaults for a non-positive size or ttl.
func NewClientDirectory(store ClientStore, size int, ttl time.Duration) *ClientDirectory {
	if size <= 0 {
		size = defaultClientCacheSize
	}
	if ttl <= 0 {
		ttl = defaultClientCacheTTL
	}
	return &ClientDirectory{
		store: store,
		byID:  cache.NewLRUCache[int64, core.Client](size, ttl),
		all:   cache.NewLRUCache[string, []core.Client](1, ttl),
	}
}

// Register hands the directory's caches to a cleanup manager.
func (d *ClientDirectory) Register(m *cache.Manager) {
	m.Register(d.byID)
	m.Register(d.all)
}

func (d *ClientDirectory) Get(ctx context.Context, id int64) (core.Client, error) {
	if id <= 0 {
		return core.Client{}, fmt.Errorf("%w: client %d", core.ErrMissingClient, id)
	}
	if c, ok := d.byID.Get(id); ok {
		return c, nil
	}
	c, err := d.store.GetClient(ctx, id)
	if err != nil {
		return core.Client{}, err
	}
	d.byID.Set(id, c)
	return c, nil
}

func (d *ClientDirectory) List(ctx context.Context) ([]core.Client, error) {
	if list, ok := d.all.Get("all"); ok {
		return append([]core.Client(nil), list...), nil
	}
	list, err := d.store.ListClients(ctx)
	if err != nil {
		return nil, err
	}
	d.all.Set("all", list)
	for _, c := range list {
		d.byID.Set(c.ID, c)
	}
	return append([]core.Client(nil), list...), nil
}

func (d *ClientDirectory) Create(ctx context.Context, c core.Client) (core.Client, error) {
	c.ID = 0
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return core.Client{}, err
	}
	saved, err := d.store.CreateClient(ctx, c)
	if err != nil {
		return core.Client{}, fmt.Errorf("save client: %w", err)
	}
	d.all.Purge()
	d.byID.Set(saved.ID, saved)

	slog.InfoContext(ctx, "Client created", "client_id", saved.ID, "name", saved.Name)
	return saved, nil
}
