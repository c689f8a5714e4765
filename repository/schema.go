package repository

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-persona"
	"github.com/pressly/goose/v3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// CreateSchema creates the account and token tables from the models.
// Use Migrate for versioned schemas.
func CreateSchema(ctx context.Context, db bun.IDB) error {
	if _, err := db.NewCreateTable().
		Model((*persona.Account)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create accounts table")
	}

	if _, err := db.NewCreateTable().
		Model((*persona.Token)(nil)).
		IfNotExists().
		ForeignKey(`("account_id") REFERENCES "users" ("id") ON DELETE CASCADE`).
		Exec(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create tokens table")
	}

	if _, err := db.NewCreateIndex().
		Model((*persona.Token)(nil)).
		Index("idx_tokens_account_type").
		IfNotExists().
		Column("account_id", "type").
		Exec(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create tokens index")
	}

	return nil
}

// Migrate runs the embedded goose migrations for the database dialect
func Migrate(ctx context.Context, db *bun.DB) error {
	name, gooseDialect, err := migrationDialect(db.Dialect().Name())
	if err != nil {
		return err
	}

	fsys, err := persona.MigrationsFor(name)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load migrations")
	}

	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(gooseDialect); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to set migration dialect")
	}

	if err := goose.UpContext(ctx, db.DB, "."); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to run migrations")
	}

	return nil
}

func migrationDialect(name dialect.Name) (string, string, error) {
	switch name {
	case dialect.PG:
		return "postgres", "postgres", nil
	case dialect.SQLite:
		return "sqlite", "sqlite3", nil
	}
	return "", "", goerrors.New("unsupported database dialect", goerrors.CategoryBadInput).
		WithMetadata(map[string]any{"dialect": name.String()})
}
