package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Component: ComponentLedger, Output: &buf})

	l.InfoContext(context.Background(), "Expense recorded", FieldExpenseID, 4)
	out := buf.String()
	if !strings.Contains(out, "component=ledger") || !strings.Contains(out, "expense_id=4") {
		t.Fatalf("unexpected output: %s", out)
	}

	buf.Reset()
	l.WithComponent(ComponentHTTP).DebugContext(context.Background(), "hello")
	if !strings.Contains(buf.String(), "component=http") {
		t.Fatalf("unexpected output: %s", buf.String())
	}
}

func TestMiddlewareAttachesRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Component: ComponentHTTP, Output: &buf})

	type key struct{}
	extract := func(ctx context.Context) string {
		id, _ := ctx.Value(key{}).(string)
		return id
	}
	h := Middleware(base, extract)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		LogError(r.Context(), "Statement failed", errors.New("boom"), ErrorTypeNotFound, OpStatement,
			NewFields().WithClient(7).WithPeriod(2024, 0))
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), key{}, "req-1"))
	h.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	for _, want := range []string{"level=WARN", "request_id=req-1", "client_id=7", "year=2024", "error_type=not_found_error", "operation=statement"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %s", want, out)
		}
	}
	if strings.Contains(out, "month=") {
		t.Errorf("zero month must be omitted: %s", out)
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	if l := FromContext(context.Background()); l.Component() != "unknown" {
		t.Fatalf("component = %q", l.Component())
	}
}
