package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"

	"github.com/unclebandit/suno-approvals/internal/config"
	"github.com/unclebandit/suno-approvals/internal/db"
)

var seq atomic.Int64

// NewTestDB opens a private in-memory SQLite database with the schema
// applied. The connection is closed when the test finishes.
func NewTestDB(t *testing.T) *db.Database {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", name, seq.Add(1))

	d, err := db.Open(context.Background(), config.DatabaseConfig{Driver: "sqlite", DSN: dsn}, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	if err := db.Migrate(context.Background(), d); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return d
}
