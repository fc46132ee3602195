//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/virtualclinic/api/internal/platform/db"
	"github.com/virtualclinic/api/migrations"
)

// globalPool is the shared database, migrated once in TestMain.
var globalPool *pgxpool.Pool

func TestMain(m *testing.M) {
	ctx := context.Background()

	pool, cleanup, err := setupDatabase(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up database: %v\n", err)
		os.Exit(1)
	}

	globalPool = pool
	code := m.Run()
	cleanup()
	os.Exit(code)
}

// setupDatabase uses TEST_DATABASE_URL when set, otherwise starts a
// disposable postgres:16-alpine container. The schema is reset and
// migrated from scratch either way.
func setupDatabase(ctx context.Context) (*pgxpool.Pool, func(), error) {
	connStr := os.Getenv("TEST_DATABASE_URL")
	stop := func() {}
	if connStr == "" {
		var err error
		connStr, stop, err = startPostgresContainer(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("start postgres container: %w", err)
		}
	}

	pool, err := db.NewPool(ctx, db.PoolConfig{URL: connStr, MaxConns: 5})
	if err != nil {
		stop()
		return nil, nil, err
	}

	m := db.NewMigrator(pool, migrations.FS)
	if err := m.Reset(ctx); err != nil {
		pool.Close()
		stop()
		return nil, nil, err
	}
	if _, err := m.Up(ctx); err != nil {
		pool.Close()
		stop()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}

	return pool, func() {
		pool.Close()
		stop()
	}, nil
}

// truncate empties every application table between tests.
func truncate(t *testing.T, ctx context.Context) {
	t.Helper()
	_, err := globalPool.Exec(ctx, `TRUNCATE messages, conversations, careplans, immunizations,
		procedures, allergies, observations, medications, conditions, encounters, patients CASCADE`)
	if err != nil {
		t.Fatalf("truncate: %v", err)
	}
}

func staticSource() db.Source { return db.StaticSource(globalPool) }

func ptrStr(s string) *string { return &s }
