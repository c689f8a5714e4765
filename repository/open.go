package repository

import (
	"context"
	"database/sql"

	"github.com/caarlos0/env/v11"
	goerrors "github.com/goliatone/go-errors"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// Supported drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DBConfig describes the database connection
type DBConfig struct {
	Driver       string `env:"DRIVER" envDefault:"sqlite"`
	DSN          string `env:"DSN" envDefault:"file::memory:?cache=shared"`
	MaxOpenConns int    `env:"MAX_OPEN_CONNS" envDefault:"0"`
	// Migrate runs the embedded migrations after connecting
	Migrate bool `env:"MIGRATE" envDefault:"false"`
}

// LoadDBConfig reads the database configuration from the environment,
// e.g. PERSONA_DB_DSN for prefix PERSONA_DB_.
func LoadDBConfig(prefix string, environment map[string]string) (DBConfig, error) {
	cfg := DBConfig{}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: prefix, Environment: environment}); err != nil {
		return DBConfig{}, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse database configuration")
	}
	return cfg, nil
}

// Open connects to the configured database and returns a bun handle
func Open(ctx context.Context, cfg DBConfig) (*bun.DB, error) {
	var db *bun.DB

	switch cfg.Driver {
	case DriverSQLite, "":
		sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DSN)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open sqlite database")
		}
		db = bun.NewDB(sqldb, sqlitedialect.New())
	case DriverPostgres:
		sqldb, err := sql.Open("pgx", cfg.DSN)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open postgres database")
		}
		db = bun.NewDB(sqldb, pgdialect.New())
	default:
		return nil, goerrors.New("unsupported database driver", goerrors.CategoryBadInput).
			WithMetadata(map[string]any{"driver": cfg.Driver})
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to reach database")
	}

	if cfg.Migrate {
		if err := Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return db, nil
}
