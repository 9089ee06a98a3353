package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	"github.com/deppfellow/demo-backend/internal/config"
	"github.com/jackc/pgx/v5"
	tern "github.com/jackc/tern/v2/migrate"
	"github.com/rs/zerolog"
)

// The schema files ship inside the binary, one directory per driver.
//
//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrations embed.FS

// Migrate creates the data_items table if it is absent.
//
// PostgreSQL goes through jackc/tern on a single dedicated connection and
// records the version in schema_version. SQLite runs the embedded files in
// one transaction each and records them in schema_migrations.
func Migrate(ctx context.Context, logger *zerolog.Logger, cfg *config.Config) error {
	driver, err := cfg.Database.Driver()
	if err != nil {
		return err
	}

	switch driver {
	case config.DriverPostgres:
		return migratePostgres(ctx, logger, cfg.Database.URL)
	case config.DriverSQLite:
		db, err := newSQLite(cfg, logger)
		if err != nil {
			return err
		}
		defer db.SQL.Close()
		return db.migrateSQLite(ctx)
	default:
		return fmt.Errorf("no migrations for driver %q", driver)
	}
}

func migratePostgres(ctx context.Context, logger *zerolog.Logger, dsn string) error {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	m, err := tern.NewMigrator(ctx, conn, "schema_version")
	if err != nil {
		return fmt.Errorf("constructing database migrator: %w", err)
	}

	subtree, err := fs.Sub(migrations, "migrations/postgres")
	if err != nil {
		return fmt.Errorf("retrieving database migrations subtree: %w", err)
	}

	if err := m.LoadMigrations(subtree); err != nil {
		return fmt.Errorf("loading database migrations: %w", err)
	}

	from, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("retrieving current database migration version: %w", err)
	}

	if err := m.Migrate(ctx); err != nil {
		return err
	}

	if from == int32(len(m.Migrations)) {
		logger.Info().Msgf("database schema up to date, version %d", len(m.Migrations))
	} else {
		logger.Info().Msgf("migrated database schema, from %d to %d", from, len(m.Migrations))
	}
	return nil
}

type sqliteMigration struct {
	version int
	name    string
	sql     string
}

func loadSQLiteMigrations() ([]sqliteMigration, error) {
	entries, err := fs.ReadDir(migrations, "migrations/sqlite")
	if err != nil {
		return nil, fmt.Errorf("reading sqlite migrations: %w", err)
	}

	var out []sqliteMigration
	for _, entry := range entries {
		name := entry.Name()
		prefix, _, ok := strings.Cut(name, "_")
		if !ok || !strings.HasSuffix(name, ".sql") {
			continue
		}

		version, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, fmt.Errorf("invalid migration file name %q: %w", name, err)
		}

		body, err := fs.ReadFile(migrations, "migrations/sqlite/"+name)
		if err != nil {
			return nil, err
		}

		out = append(out, sqliteMigration{version: version, name: name, sql: string(body)})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

func (db *Database) migrateSQLite(ctx context.Context) error {
	if _, err := db.SQL.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	var current int
	if err := db.SQL.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	pending, err := loadSQLiteMigrations()
	if err != nil {
		return err
	}

	applied := 0
	for _, migration := range pending {
		if migration.version <= current {
			continue
		}

		if err := db.applySQLiteMigration(ctx, migration); err != nil {
			return err
		}
		applied++
	}

	if applied == 0 {
		db.log.Info().Msgf("database schema up to date, version %d", current)
	} else {
		db.log.Info().Msgf("migrated database schema, from %d to %d", current, pending[len(pending)-1].version)
	}
	return nil
}

func (db *Database) applySQLiteMigration(ctx context.Context, migration sqliteMigration) error {
	tx, err := db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration %d: %w", migration.version, err)
	}
	defer tx.Rollback()

	for i, stmt := range splitSQLStatements(migration.sql) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d statement %d failed: %w", migration.version, i+1, err)
		}
	}

	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", migration.version); err != nil {
		return fmt.Errorf("failed to record migration %d: %w", migration.version, err)
	}

	return tx.Commit()
}

// splitSQLStatements splits a script on statement-ending semicolons,
// dropping blank lines and "--" comments.
func splitSQLStatements(script string) []string {
	var statements []string
	var current strings.Builder

	for line := range strings.SplitSeq(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")

		if strings.HasSuffix(trimmed, ";") {
			if stmt := strings.TrimSpace(current.String()); stmt != "" && stmt != ";" {
				statements = append(statements, stmt)
			}
			current.Reset()
		}
	}

	if remaining := strings.TrimSpace(current.String()); remaining != "" {
		statements = append(statements, remaining)
	}

	return statements
}
