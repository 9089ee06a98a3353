// Package database contains the logic for establishing
// connections to the storage backend.
//
// PostgreSQL goes through a pgx connection pool with query
// tracing wired to zerolog (and New Relic when enabled). SQLite
// goes through database/sql with the pure-Go modernc driver and
// is meant for local runs and tests.
//
// It handles:
//   - picking the driver from the database URL
//   - creating the pool (pgxpool) or *sql.DB
//   - wiring query tracing/logging (pgx tracelog, slow query log)
//   - the round-trip check behind the health endpoints
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/deppfellow/demo-backend/internal/config"
	loggerConfig "github.com/deppfellow/demo-backend/internal/logger"
	pgxzero "github.com/jackc/pgx-zerolog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/newrelic/go-agent/v3/integrations/nrpgx5"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// Database wraps whichever handle the configured driver uses.
//
// Exactly one of Pool (postgres) or SQL (sqlite) is set.
type Database struct {
	Driver config.Driver
	Pool   *pgxpool.Pool
	SQL    *sql.DB
	log    *zerolog.Logger
}

// multiTracer chains several pgx tracers into the single Tracer slot of
// ConnConfig. Tracers that do not implement a hook are skipped for it.
type multiTracer struct {
	tracers []any
}

func (mt *multiTracer) TraceQueryStart(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	for _, tracer := range mt.tracers {
		if t, ok := tracer.(interface {
			TraceQueryStart(context.Context, *pgx.Conn, pgx.TraceQueryStartData) context.Context
		}); ok {
			ctx = t.TraceQueryStart(ctx, conn, data)
		}
	}
	return ctx
}

func (mt *multiTracer) TraceQueryEnd(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryEndData) {
	for _, tracer := range mt.tracers {
		if t, ok := tracer.(interface {
			TraceQueryEnd(context.Context, *pgx.Conn, pgx.TraceQueryEndData)
		}); ok {
			t.TraceQueryEnd(ctx, conn, data)
		}
	}
}

// DatabasePingTimeout is how long startup waits for the first round trip.
const DatabasePingTimeout = 10 * time.Second

// sqlitePragmas are applied to every SQLite connection. WAL lets readers run
// next to the single writer; busy_timeout makes writers queue instead of
// failing with SQLITE_BUSY.
const sqlitePragmas = "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_txlock=immediate"

// New opens the storage backend selected by cfg.Database.URL and verifies it
// with a ping.
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerConfig.LoggerService) (*Database, error) {
	driver, err := cfg.Database.Driver()
	if err != nil {
		return nil, err
	}

	var database *Database
	switch driver {
	case config.DriverPostgres:
		database, err = newPostgres(cfg, logger, loggerService)
	case config.DriverSQLite:
		database, err = newSQLite(cfg, logger)
	}
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), DatabasePingTimeout)
	defer cancel()
	if err := database.Ping(ctx); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info().
		Str("driver", string(driver)).
		Str("url", cfg.Database.RedactedURL()).
		Msg("connected to the database")

	return database, nil
}

func newPostgres(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerConfig.LoggerService) (*Database, error) {
	pgxPoolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pgx pool config: %w", err)
	}

	pgxPoolConfig.MaxConns = cfg.Database.MaxConns
	pgxPoolConfig.MinConns = cfg.Database.MinConns
	pgxPoolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	pgxPoolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	var tracers []any

	// New Relic datastore segments, only when an agent is running.
	if loggerService.GetApplication() != nil {
		tracers = append(tracers, nrpgx5.NewTracer())
	}

	if threshold := cfg.Observability.Logging.SlowQueryThreshold; threshold > 0 {
		tracers = append(tracers, &slowQueryTracer{threshold: threshold, log: logger})
	}

	// Every statement is logged in the local env only; it is very noisy.
	if cfg.Primary.Env == "local" {
		globalLevel := logger.GetLevel()
		pgxLogger := loggerConfig.NewPgxLogger(globalLevel)
		tracers = append(tracers, &tracelog.TraceLog{
			Logger:   pgxzero.NewLogger(pgxLogger),
			LogLevel: loggerConfig.GetPgxTraceLogLevel(globalLevel),
		})
	}

	switch len(tracers) {
	case 0:
	case 1:
		if tracer, ok := tracers[0].(pgx.QueryTracer); ok {
			pgxPoolConfig.ConnConfig.Tracer = tracer
		}
	default:
		pgxPoolConfig.ConnConfig.Tracer = &multiTracer{tracers: tracers}
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), pgxPoolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	return &Database{
		Driver: config.DriverPostgres,
		Pool:   pool,
		log:    logger,
	}, nil
}

func newSQLite(cfg *config.Config, logger *zerolog.Logger) (*Database, error) {
	dsn := fmt.Sprintf("%s?%s", cfg.Database.SQLitePath(), sqlitePragmas)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	db.SetMaxOpenConns(int(cfg.Database.MaxConns))
	db.SetMaxIdleConns(int(cfg.Database.MaxConns))
	db.SetConnMaxLifetime(cfg.Database.MaxConnLifetime)
	db.SetConnMaxIdleTime(cfg.Database.MaxConnIdleTime)

	return &Database{
		Driver: config.DriverSQLite,
		SQL:    db,
		log:    logger,
	}, nil
}

// Ping checks out a dedicated connection, runs a trivial round-trip query
// and hands the connection back.
func (db *Database) Ping(ctx context.Context) error {
	switch {
	case db.Pool != nil:
		conn, err := db.Pool.Acquire(ctx)
		if err != nil {
			return err
		}
		defer conn.Release()

		_, err = conn.Exec(ctx, "SELECT 1")
		return err

	case db.SQL != nil:
		conn, err := db.SQL.Conn(ctx)
		if err != nil {
			return err
		}
		defer conn.Close()

		_, err = conn.ExecContext(ctx, "SELECT 1")
		return err

	default:
		return errors.New("database is not initialized")
	}
}

// Close releases the pool or the *sql.DB.
func (db *Database) Close() error {
	db.log.Info().Msg("closing database connection pool")

	if db.Pool != nil {
		db.Pool.Close()
	}
	if db.SQL != nil {
		return db.SQL.Close()
	}
	return nil
}

// slowQueryTracer logs statements that take longer than threshold.
type slowQueryTracer struct {
	threshold time.Duration
	log       *zerolog.Logger
}

type slowQueryKey struct{}

type slowQueryStart struct {
	sql   string
	start time.Time
}

func (t *slowQueryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, slowQueryKey{}, slowQueryStart{sql: data.SQL, start: time.Now()})
}

func (t *slowQueryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	started, ok := ctx.Value(slowQueryKey{}).(slowQueryStart)
	if !ok {
		return
	}

	if elapsed := time.Since(started.start); elapsed >= t.threshold {
		t.log.Warn().
			Str("sql", started.sql).
			Dur("duration", elapsed).
			Dur("threshold", t.threshold).
			Err(data.Err).
			Msg("slow query")
	}
}
