package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/deppfellow/obsrecords/internal/config"
	"github.com/jackc/pgx/v5"
	tern "github.com/jackc/tern/v2/migrate"
	"github.com/rs/zerolog"
)

// Embed all SQL files under migrations/ at compile time so the binary
// carries its own schema.
//
//go:embed migrations/*.sql
var migrations embed.FS

// Migrate brings the postgres schema up to date using jackc/tern.
//
// SQLite databases get their schema when opened (see OpenSQLite), so this is
// a no-op for the sqlite driver.
func Migrate(ctx context.Context, logger *zerolog.Logger, cfg *config.Config) error {
	if cfg.Database.Driver == DriverSQLite {
		db, err := OpenSQLite(ctx, cfg.Database.SQLitePath)
		if err != nil {
			return err
		}
		logger.Info().Str("path", cfg.Database.SQLitePath).Msg("sqlite schema applied")
		return db.Close()
	}

	// A single connection is enough for a one-time action.
	conn, err := pgx.Connect(ctx, DSN(cfg))
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	m, err := tern.NewMigrator(ctx, conn, "schema_version")
	if err != nil {
		return fmt.Errorf("constructing database migrator: %w", err)
	}

	subtree, err := fs.Sub(migrations, "migrations")
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
