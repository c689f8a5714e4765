package repository

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-persona"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const metadataColumn = "metadata"

// uidColumns are the account columns that can identify an account
var uidColumns = map[string]struct{}{
	persona.FieldID:       {},
	persona.FieldEmail:    {},
	persona.FieldUsername: {},
}

// Accounts implements persona.AccountRepository on top of the generic
// bun repository.
type Accounts struct {
	repository.Repository[*persona.Account]
	db  bun.IDB
	now func() time.Time
}

var (
	_ persona.AccountRepository = (*Accounts)(nil)
	_ persona.UIDChecker        = (*Accounts)(nil)
)

// NewAccounts creates a new repository.
func NewAccounts(db bun.IDB) *Accounts {
	handlers := repository.ModelHandlers[*persona.Account]{
		NewRecord: func() *persona.Account {
			return &persona.Account{}
		},
		GetID: func(record *persona.Account) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *persona.Account, id uuid.UUID) {
			if record != nil {
				record.ID = id
			}
		},
		GetIdentifier: func() string {
			return persona.FieldEmail
		},
	}

	return &Accounts{
		Repository: repository.NewRepository(db, handlers),
		db:         db,
		now:        time.Now,
	}
}

// Create implements persona.AccountRepository.
func (r *Accounts) Create(ctx context.Context, account *persona.Account) (*persona.Account, error) {
	now := r.now()
	if account.CreatedAt == nil {
		account.CreatedAt = &now
	}
	account.UpdatedAt = &now

	record, err := r.Repository.CreateTx(ctx, r.db, account)
	if err != nil {
		return nil, err
	}

	return record, nil
}

// Update implements persona.AccountRepository. Every column but
// created_at is written, emptied nullable columns are set to NULL.
func (r *Accounts) Update(ctx context.Context, account *persona.Account) (*persona.Account, error) {
	now := r.now()
	account.UpdatedAt = &now

	record, err := r.Repository.UpdateTx(ctx, r.db, account,
		repository.UpdateByID(account.ID.String()),
		repository.UpdateExcludeColumns(persona.FieldCreatedAt),
		clearEmptyColumns(account),
	)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, notFound(err, map[string]any{"id": account.ID.String()})
		}
		return nil, err
	}

	return record, nil
}

// GetByID implements persona.AccountRepository.
func (r *Accounts) GetByID(ctx context.Context, id uuid.UUID) (*persona.Account, error) {
	record, err := r.Repository.GetByIDTx(ctx, r.db, id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, notFound(err, map[string]any{"id": id.String()})
		}
		return nil, err
	}

	return record, nil
}

// FindByUID implements persona.AccountRepository. Columns are OR'ed, the
// oldest matching account wins.
func (r *Accounts) FindByUID(ctx context.Context, fields []string, value string) (*persona.Account, error) {
	if err := checkColumns(fields...); err != nil {
		return nil, err
	}

	record, err := r.Repository.GetTx(ctx, r.db,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
				for _, field := range fields {
					q = q.WhereOr("?TableAlias.? = ?", bun.Ident(field), value)
				}
				return q
			})
		}),
		repository.SelectOrderAsc(persona.FieldCreatedAt),
	)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, notFound(err, map[string]any{"fields": fields})
		}
		return nil, err
	}

	return record, nil
}

// Exists implements persona.AccountRepository.
func (r *Accounts) Exists(ctx context.Context, field, value string, exclude uuid.UUID) (bool, error) {
	if err := checkColumns(field); err != nil {
		return false, err
	}

	criteria := []repository.SelectCriteria{
		repository.SelectColumns(persona.FieldID),
		repository.SelectBy(field, "=", value),
	}
	if exclude != uuid.Nil {
		criteria = append(criteria, repository.SelectBy(persona.FieldID, "!=", exclude.String()))
	}

	_, err := r.Repository.GetTx(ctx, r.db, criteria...)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

// SupportsUID implements persona.UIDChecker. Only real columns can
// identify an account, metadata keys can not.
func (r *Accounts) SupportsUID(column string) bool {
	_, ok := uidColumns[column]
	return ok
}

// clearEmptyColumns writes NULL for nullable columns left empty. The
// generic update omits zero values, which would keep the stored ones.
func clearEmptyColumns(account *persona.Account) repository.UpdateCriteria {
	return repository.UpdateRawProcessor(func(q *bun.UpdateQuery) *bun.UpdateQuery {
		if account.Username == "" {
			q = q.Value(persona.FieldUsername, "NULL")
		}
		if len(account.Metadata) == 0 {
			q = q.Value(metadataColumn, "NULL")
		}
		return q
	})
}

func checkColumns(fields ...string) error {
	if len(fields) == 0 {
		return goerrors.New("at least one uid column is required", goerrors.CategoryBadInput).
			WithTextCode(persona.TextCodeInvalidAttribute)
	}

	for _, f := range fields {
		if _, ok := uidColumns[f]; !ok {
			return goerrors.New("column can not identify an account", goerrors.CategoryBadInput).
				WithTextCode(persona.TextCodeInvalidAttribute).
				WithMetadata(map[string]any{"column": f})
		}
	}

	return nil
}

func notFound(source error, meta map[string]any) error {
	if source == nil {
		source = repository.ErrRecordNotFound
	}
	return goerrors.Wrap(source, goerrors.CategoryNotFound, "record not found").
		WithTextCode(persona.TextCodeRecordNotFound).
		WithCode(goerrors.CodeNotFound).
		WithMetadata(meta)
}
