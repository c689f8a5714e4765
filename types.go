package persona

import (
	"context"
	"database/sql"
	"sort"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Payload is the raw input of a lifecycle operation, keyed by field name
type Payload map[string]any

// String returns the value under key when it is a string
func (p Payload) String(key string) (string, bool) {
	if p == nil {
		return "", false
	}
	v, ok := p[key].(string)
	return v, ok
}

// Has reports whether key is present, regardless of its value
func (p Payload) Has(key string) bool {
	if p == nil {
		return false
	}
	_, ok := p[key]
	return ok
}

// Keys returns the payload keys in lexical order
func (p Payload) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy
func (p Payload) Clone() Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// AccountRepository is the storage contract for accounts
type AccountRepository interface {
	Create(ctx context.Context, account *Account) (*Account, error)
	Update(ctx context.Context, account *Account) (*Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	// FindByUID returns the first account where any of fields equals value.
	// Returns ErrRecordNotFound when none match.
	FindByUID(ctx context.Context, fields []string, value string) (*Account, error)
	// Exists reports whether another account, other than exclude, holds
	// value in field.
	Exists(ctx context.Context, field, value string, exclude uuid.UUID) (bool, error)
}

// UIDChecker is implemented by account stores that can only look accounts
// up by some columns. New rejects uid fields the store can not serve.
type UIDChecker interface {
	SupportsUID(column string) bool
}

// TokenRepository is the storage contract for tokens
type TokenRepository interface {
	// FindLive returns the first token matching q with its Account loaded.
	// Returns ErrRecordNotFound when none match.
	FindLive(ctx context.Context, q TokenQuery) (*Token, error)
	Create(ctx context.Context, token *Token) (*Token, error)
	// Delete removes every token with the given value and type.
	Delete(ctx context.Context, value string, tokenType TokenType) error
}

// Hasher hashes and verifies passwords
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) (bool, error)
}

// Encrypter shapes random bytes into stored token values
type Encrypter interface {
	Encrypt(data []byte) (string, error)
}

// TxManager runs a function inside a database transaction
type TxManager interface {
	RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error
}

// RepositoryManager exposes transaction-bound repositories
type RepositoryManager interface {
	TxManager
	Accounts() AccountRepository
	Tokens() TokenRepository
	WithTx(tx bun.IDB) RepositoryManager
}
