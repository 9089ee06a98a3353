package database

import (
	"context"
	"os"
	"testing"

	"github.com/deppfellow/demo-backend/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPostgresConfig(t *testing.T) *config.Config {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	t.Setenv("DATABASE_URL", url)
	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	return cfg
}

func TestPostgresMigrateOpenPing(t *testing.T) {
	cfg := newPostgresConfig(t)
	logger := zerolog.Nop()
	ctx := context.Background()

	require.NoError(t, Migrate(ctx, &logger, cfg))
	require.NoError(t, Migrate(ctx, &logger, cfg))

	db, err := New(cfg, &logger, nil)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, config.DriverPostgres, db.Driver)
	assert.Nil(t, db.SQL)
	require.NoError(t, db.Ping(ctx))

	var version int32
	require.NoError(t, db.Pool.QueryRow(ctx, "SELECT version FROM schema_version").Scan(&version))
	assert.EqualValues(t, 1, version)

	var exists bool
	require.NoError(t, db.Pool.QueryRow(ctx, "SELECT to_regclass('data_items') IS NOT NULL").Scan(&exists))
	assert.True(t, exists)
}

// In the local env the slow query log and the statement log are both on,
// so queries go through multiTracer.
func TestPostgresTracerChain(t *testing.T) {
	cfg := newPostgresConfig(t)
	cfg.Primary.Env = "local"
	logger := zerolog.Nop()
	ctx := context.Background()

	db, err := New(cfg, &logger, nil)
	require.NoError(t, err)
	defer db.Close()

	_, ok := db.Pool.Config().ConnConfig.Tracer.(*multiTracer)
	assert.True(t, ok, "expected chained tracers, got %T", db.Pool.Config().ConnConfig.Tracer)

	var one int
	require.NoError(t, db.Pool.QueryRow(ctx, "SELECT 1").Scan(&one))
	assert.Equal(t, 1, one)
}

func TestPostgresSingleTracerIsNotChained(t *testing.T) {
	cfg := newPostgresConfig(t)
	logger := zerolog.Nop()

	db, err := New(cfg, &logger, nil)
	require.NoError(t, err)
	defer db.Close()

	_, ok := db.Pool.Config().ConnConfig.Tracer.(*slowQueryTracer)
	assert.True(t, ok, "expected the slow query tracer, got %T", db.Pool.Config().ConnConfig.Tracer)
}
