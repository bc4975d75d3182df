package client

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/dmitrijs2005/webkech/internal/client/config"
	"github.com/dmitrijs2005/webkech/internal/client/migrations"
	"github.com/dmitrijs2005/webkech/internal/client/repositories/kv"
	"github.com/dmitrijs2005/webkech/internal/common"
	"github.com/dmitrijs2005/webkech/internal/filex"
	"github.com/dmitrijs2005/webkech/internal/logging"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// Dialect pairs a database/sql driver with its goose dialect and migration
// directory.
type Dialect struct {
	Driver       string
	GooseDialect string
	Dir          string
}

var (
	SQLite   = Dialect{Driver: "sqlite", GooseDialect: "sqlite3", Dir: migrations.SQLiteDir}
	Postgres = Dialect{Driver: "pgx", GooseDialect: "postgres", Dir: migrations.PostgresDir}
)

// goose keeps its base FS, dialect and logger in package globals.
var gooseMu sync.Mutex

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded migrations of dialect d to db.
// Running it again on an up-to-date schema is a no-op.
func RunMigrations(ctx context.Context, db *sql.DB, d Dialect, logger logging.Logger) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(&gooseLogger{ctx: ctx, l: logger})
	if err := goose.SetDialect(d.GooseDialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := gooseUpContext(ctx, db, d.Dir); err != nil {
		return fmt.Errorf("failed to migrate %s schema: %w", d.Driver, err)
	}
	return nil
}

// InitStore opens the backend selected by cfg and returns it as a key/value
// repository. The caller owns the result and must Close it.
func InitStore(ctx context.Context, cfg *config.Config, logger logging.Logger) (kv.Repository, error) {
	logger = logger.With("backend", cfg.Backend)

	switch cfg.Backend {
	case config.BackendSQLite:
		if _, err := filex.EnsureParentDir(cfg.DatabasePath); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
		}
		db, err := openDatabase(ctx, SQLite, cfg.DatabasePath, logger)
		if err != nil {
			return nil, err
		}
		// SQLite serialises writers; one connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
		logger.Debug(ctx, "storage ready", "path", cfg.DatabasePath)
		return kv.NewSQLiteRepository(db), nil

	case config.BackendPostgres:
		db, err := openDatabase(ctx, Postgres, cfg.PostgresDSN, logger)
		if err != nil {
			return nil, err
		}
		logger.Debug(ctx, "storage ready")
		return kv.NewPostgresRepository(db), nil

	case config.BackendRedis:
		repo, err := kv.NewRedisRepository(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("%w: redis: %w", ErrStorageUnavailable, err)
		}
		logger.Debug(ctx, "storage ready")
		return repo, nil

	case config.BackendMemory:
		logger.Warn(ctx, "memory backend selected, nothing will be persisted")
		return kv.NewMemoryRepository(), nil
	}

	return nil, fmt.Errorf("%w: %q", common.ErrorUnsupportedBackend, cfg.Backend)
}

func openDatabase(ctx context.Context, d Dialect, dsn string, logger logging.Logger) (*sql.DB, error) {
	db, err := sql.Open(d.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: db open error: %w", ErrStorageUnavailable, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %s ping: %w", ErrStorageUnavailable, d.Driver, err)
	}
	if err := RunMigrations(ctx, db, d, logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return db, nil
}

// gooseLogger routes goose output into the structured logger.
type gooseLogger struct {
	ctx context.Context
	l   logging.Logger
}

func (g *gooseLogger) Printf(format string, v ...any) {
	g.l.Debug(g.ctx, strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (g *gooseLogger) Fatalf(format string, v ...any) {
	g.l.Error(g.ctx, strings.TrimSpace(fmt.Sprintf(format, v...)))
	os.Exit(1)
}
