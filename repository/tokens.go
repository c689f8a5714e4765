package repository

import (
	"context"
	"time"

	"github.com/goliatone/go-persona"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Tokens implements persona.TokenRepository on top of the generic bun
// repository.
type Tokens struct {
	repository.Repository[*persona.Token]
	db  bun.IDB
	now func() time.Time
}

var _ persona.TokenRepository = (*Tokens)(nil)

// NewTokens creates a new repository.
func NewTokens(db bun.IDB) *Tokens {
	handlers := repository.ModelHandlers[*persona.Token]{
		NewRecord: func() *persona.Token {
			return &persona.Token{}
		},
		GetID: func(record *persona.Token) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *persona.Token, id uuid.UUID) {
			record.ID = id
		},
		GetIdentifier: func() string {
			return "token"
		},
	}

	return &Tokens{
		Repository: repository.NewRepository(db, handlers),
		db:         db,
		now:        time.Now,
	}
}

// FindLive implements persona.TokenRepository. The most recently updated
// match is returned with its account.
func (r *Tokens) FindLive(ctx context.Context, q persona.TokenQuery) (*persona.Token, error) {
	criteria := []repository.SelectCriteria{
		repository.SelectRawProcessor(func(sel *bun.SelectQuery) *bun.SelectQuery {
			return sel.
				Relation("Account").
				Where("?TableAlias.is_revoked = ?", false).
				Where("?TableAlias.updated_at >= ?", cutoff(q)).
				OrderExpr("?TableAlias.updated_at DESC")
		}),
		repository.SelectBy("type", "=", string(q.Type)),
	}

	if q.AccountID != uuid.Nil {
		criteria = append(criteria, repository.SelectBy("account_id", "=", q.AccountID.String()))
	}

	if q.Value != "" {
		criteria = append(criteria, repository.SelectBy("token", "=", q.Value))
	}

	record, err := r.Repository.GetTx(ctx, r.db, criteria...)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, notFound(err, map[string]any{"type": string(q.Type)})
		}
		return nil, err
	}

	if record.Account != nil && record.Account.ID == uuid.Nil {
		record.Account = nil
	}

	return record, nil
}

// Create implements persona.TokenRepository.
func (r *Tokens) Create(ctx context.Context, token *persona.Token) (*persona.Token, error) {
	now := r.now()
	if token.CreatedAt == nil {
		token.CreatedAt = &now
	}
	if token.UpdatedAt == nil {
		token.UpdatedAt = &now
	}

	record, err := r.Repository.CreateTx(ctx, r.db, token)
	if err != nil {
		return nil, err
	}

	return record, nil
}

// Delete implements persona.TokenRepository.
func (r *Tokens) Delete(ctx context.Context, value string, tokenType persona.TokenType) error {
	return r.Repository.DeleteWhereTx(ctx, r.db,
		repository.DeleteBy("token", "=", value),
		repository.DeleteBy("type", "=", string(tokenType)),
	)
}

// cutoff renders the liveness bound with the configured layout. Stores
// keep timestamps in UTC.
func cutoff(q persona.TokenQuery) any {
	if q.DateFormat == "" {
		return q.UpdatedSince.UTC()
	}
	return q.UpdatedSince.UTC().Format(q.DateFormat)
}
