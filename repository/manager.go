package repository

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-persona"
	"github.com/uptrace/bun"
)

// Manager exposes the bun repositories bound to a database or transaction
type Manager struct {
	db       bun.IDB
	accounts *Accounts
	tokens   *Tokens
}

var _ persona.RepositoryManager = (*Manager)(nil)

// NewManager creates a manager bound to db
func NewManager(db bun.IDB) *Manager {
	return &Manager{
		db:       db,
		accounts: NewAccounts(db),
		tokens:   NewTokens(db),
	}
}

func (m *Manager) Validate() error {
	if m.db == nil {
		return errors.New("repository database should be initialized")
	}

	if m.accounts == nil {
		return errors.New("repository accounts should be initialized")
	}

	if m.tokens == nil {
		return errors.New("repository tokens should be initialized")
	}

	return nil
}

func (m *Manager) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m *Manager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m *Manager) Accounts() persona.AccountRepository {
	return m.accounts
}

func (m *Manager) Tokens() persona.TokenRepository {
	return m.tokens
}

// WithTx returns a manager whose repositories run on tx
func (m *Manager) WithTx(tx bun.IDB) persona.RepositoryManager {
	return NewManager(tx)
}
