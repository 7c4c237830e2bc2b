// Package database opens the records store and hands out one
// single-connection Session per request to the persistence core.
//
// Postgres goes through a pgx pool with tracelog and optional New Relic
// tracing; SQLite goes through modernc.org/sqlite on database/sql.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/deppfellow/obsrecords/internal/config"
	loggerConfig "github.com/deppfellow/obsrecords/internal/logger"
	pgxzero "github.com/jackc/pgx-zerolog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/newrelic/go-agent/v3/integrations/nrpgx5"
	"github.com/rs/zerolog"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Database wraps the storage handle and a logger.
//
// Exactly one of Pool (postgres) or SQL (sqlite) is set.
type Database struct {
	Pool *pgxpool.Pool
	SQL  *sql.DB
	log  *zerolog.Logger
}

// Compile-time check: Database hands out sessions to the services.
var _ SessionSource = (*Database)(nil)

// multiTracer allows chaining multiple tracers.
//
// pgx supports a single Tracer in ConnConfig, so New Relic and the local
// tracelog output share the slot through this adapter.
type multiTracer struct {
	tracers []any
}

// TraceQueryStart implements pgx tracer interface.
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

// TraceQueryEnd implements pgx tracer interface.
func (mt *multiTracer) TraceQueryEnd(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryEndData) {
	for _, tracer := range mt.tracers {
		if t, ok := tracer.(interface {
			TraceQueryEnd(context.Context, *pgx.Conn, pgx.TraceQueryEndData)
		}); ok {
			t.TraceQueryEnd(ctx, conn, data)
		}
	}
}

// DatabasePingTimeout defines the number of seconds to wait for a ping
// before considering the database "unreachable".
const DatabasePingTimeout = 10

// DSN builds the postgres URL for cfg, URL-escaping the password.
func DSN(cfg *config.Config) string {
	hostPort := net.JoinHostPort(cfg.Database.Host, strconv.Itoa(cfg.Database.Port))
	encodedPassword := url.QueryEscape(cfg.Database.Password)

	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=%s",
		cfg.Database.User,
		encodedPassword,
		hostPort,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)
}

// New opens the configured store.
//
// For postgres it creates a pgx pool with instrumentation and pings it.
// For sqlite it opens the file at cfg.Database.SQLitePath and applies the
// embedded schema.
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerConfig.LoggerService) (*Database, error) {
	if cfg.Database.Driver == DriverSQLite {
		ctx, cancel := context.WithTimeout(context.Background(), DatabasePingTimeout*time.Second)
		defer cancel()

		db, err := OpenSQLite(ctx, cfg.Database.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		logger.Info().Str("path", cfg.Database.SQLitePath).Msg("opened sqlite database")
		return &Database{SQL: db, log: logger}, nil
	}

	pgxPoolConfig, err := pgxpool.ParseConfig(DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pgx pool config: %w", err)
	}

	if cfg.Database.MaxOpenConns > 0 {
		pgxPoolConfig.MaxConns = int32(cfg.Database.MaxOpenConns)
	}
	if cfg.Database.MaxIdleConns > 0 {
		pgxPoolConfig.MinConns = int32(min(cfg.Database.MaxIdleConns, cfg.Database.MaxOpenConns))
	}
	if cfg.Database.ConnMaxLifetime > 0 {
		pgxPoolConfig.MaxConnLifetime = time.Duration(cfg.Database.ConnMaxLifetime) * time.Second
	}
	if cfg.Database.ConnMaxIdleTime > 0 {
		pgxPoolConfig.MaxConnIdleTime = time.Duration(cfg.Database.ConnMaxIdleTime) * time.Second
	}

	// New Relic PostgreSQL instrumentation takes the single tracer slot.
	if loggerService != nil && loggerService.GetApplication() != nil {
		pgxPoolConfig.ConnConfig.Tracer = nrpgx5.NewTracer()
	}

	// In local env, log every statement through zerolog. Very noisy.
	if cfg.Primary.Env == "local" {
		globalLevel := logger.GetLevel()
		pgxLogger := loggerConfig.NewPgxLogger(globalLevel)
		localTracer := &tracelog.TraceLog{
			Logger:   pgxzero.NewLogger(pgxLogger),
			LogLevel: tracelog.LogLevel(loggerConfig.GetPgxTraceLogLevel(globalLevel)),
		}

		if pgxPoolConfig.ConnConfig.Tracer != nil {
			pgxPoolConfig.ConnConfig.Tracer = &multiTracer{
				tracers: []any{pgxPoolConfig.ConnConfig.Tracer, localTracer},
			}
		} else {
			pgxPoolConfig.ConnConfig.Tracer = localTracer
		}
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), pgxPoolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	database := &Database{
		Pool: pool,
		log:  logger,
	}

	// Fail fast at startup if the DB is down.
	ctx, cancel := context.WithTimeout(context.Background(), DatabasePingTimeout*time.Second)
	defer cancel()
	if err = pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info().Msg("connected to the database")

	return database, nil
}

// Session pins one connection for the caller. Release it when done.
func (db *Database) Session(ctx context.Context) (Session, error) {
	if db.Pool != nil {
		return NewPgSession(ctx, db.Pool)
	}
	return NewSQLSession(ctx, db.SQL, SQLiteDialect)
}

// Ping checks connectivity of whichever backend is configured.
func (db *Database) Ping(ctx context.Context) error {
	if db.Pool != nil {
		return db.Pool.Ping(ctx)
	}
	return db.SQL.PingContext(ctx)
}

// Close closes the database connection pool.
func (db *Database) Close() error {
	db.log.Info().Msg("closing database connection pool")
	if db.Pool != nil {
		db.Pool.Close()
		return nil
	}
	return db.SQL.Close()
}
