// Package memstore keeps accounts and tokens in memory. It is meant for
// tests and prototypes, data is lost with the process.
package memstore

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-persona"
	"github.com/google/uuid"
)

const textCodeDuplicate = "DUPLICATE_RECORD"

// Store holds accounts and tokens behind a single lock so tokens can
// resolve their owning account.
type Store struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]*persona.Account
	order    []uuid.UUID
	tokens   []*persona.Token
	now      func() time.Time
}

// New creates an empty store
func New() *Store {
	return &Store{
		accounts: make(map[uuid.UUID]*persona.Account),
		now:      time.Now,
	}
}

// Accounts returns the account repository view of the store
func (s *Store) Accounts() *Accounts {
	return &Accounts{store: s}
}

// Tokens returns the token repository view of the store
func (s *Store) Tokens() *Tokens {
	return &Tokens{store: s}
}

// TokensFor returns copies of every token owned by accountID
func (s *Store) TokensFor(accountID uuid.UUID) []persona.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []persona.Token{}
	for _, t := range s.tokens {
		if t.AccountID == accountID {
			out = append(out, *t)
		}
	}
	return out
}

// Accounts implements persona.AccountRepository
type Accounts struct {
	store *Store
}

var _ persona.AccountRepository = (*Accounts)(nil)

// Create implements persona.AccountRepository.
func (r *Accounts) Create(_ context.Context, account *persona.Account) (*persona.Account, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}

	if _, ok := s.accounts[account.ID]; ok {
		return nil, duplicate(persona.FieldID, account.ID.String())
	}

	if err := s.checkUnique(account); err != nil {
		return nil, err
	}

	now := s.now()
	if account.CreatedAt == nil {
		account.CreatedAt = &now
	}
	account.UpdatedAt = &now

	s.accounts[account.ID] = cloneAccount(account)
	s.order = append(s.order, account.ID)

	return account, nil
}

// Update implements persona.AccountRepository.
func (r *Accounts) Update(_ context.Context, account *persona.Account) (*persona.Account, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.accounts[account.ID]
	if !ok {
		return nil, notFound(map[string]any{"id": account.ID.String()})
	}

	if err := s.checkUnique(account); err != nil {
		return nil, err
	}

	now := s.now()
	account.CreatedAt = existing.CreatedAt
	account.UpdatedAt = &now
	s.accounts[account.ID] = cloneAccount(account)

	return account, nil
}

// GetByID implements persona.AccountRepository.
func (r *Accounts) GetByID(_ context.Context, id uuid.UUID) (*persona.Account, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, notFound(map[string]any{"id": id.String()})
	}
	return cloneAccount(account), nil
}

// FindByUID implements persona.AccountRepository. The oldest match wins.
func (r *Accounts) FindByUID(_ context.Context, fields []string, value string) (*persona.Account, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.order {
		account := s.accounts[id]
		for _, field := range fields {
			if value != "" && account.Field(field) == value {
				return cloneAccount(account), nil
			}
		}
	}

	return nil, notFound(map[string]any{"fields": fields})
}

// Exists implements persona.AccountRepository.
func (r *Accounts) Exists(_ context.Context, field, value string, exclude uuid.UUID) (bool, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.taken(field, value, exclude), nil
}

// Tokens implements persona.TokenRepository
type Tokens struct {
	store *Store
}

var _ persona.TokenRepository = (*Tokens)(nil)

// FindLive implements persona.TokenRepository. The most recently updated
// match is returned with a copy of its account.
func (r *Tokens) FindLive(_ context.Context, q persona.TokenQuery) (*persona.Token, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *persona.Token
	for _, t := range s.tokens {
		if !q.Matches(t) {
			continue
		}
		if found == nil || t.UpdatedAt.After(*found.UpdatedAt) {
			found = t
		}
	}

	if found == nil {
		return nil, notFound(map[string]any{"type": string(q.Type)})
	}

	out := *found
	if account, ok := s.accounts[found.AccountID]; ok {
		out.Account = cloneAccount(account)
	}
	return &out, nil
}

// Create implements persona.TokenRepository.
func (r *Tokens) Create(_ context.Context, token *persona.Token) (*persona.Token, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[token.AccountID]; !ok {
		return nil, notFound(map[string]any{"account_id": token.AccountID.String()})
	}

	for _, t := range s.tokens {
		if t.Value == token.Value {
			return nil, duplicate("token", token.Value)
		}
	}

	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}

	now := s.now()
	if token.CreatedAt == nil {
		token.CreatedAt = &now
	}
	if token.UpdatedAt == nil {
		token.UpdatedAt = &now
	}

	stored := *token
	stored.Account = nil
	s.tokens = append(s.tokens, &stored)

	return token, nil
}

// Delete implements persona.TokenRepository.
func (r *Tokens) Delete(_ context.Context, value string, tokenType persona.TokenType) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens = slices.DeleteFunc(s.tokens, func(t *persona.Token) bool {
		return t.Value == value && t.Type == tokenType
	})
	return nil
}

func (s *Store) checkUnique(account *persona.Account) error {
	for _, field := range []string{persona.FieldEmail, persona.FieldUsername} {
		value := account.Field(field)
		if value != "" && s.taken(field, value, account.ID) {
			return duplicate(field, value)
		}
	}
	return nil
}

func (s *Store) taken(field, value string, exclude uuid.UUID) bool {
	for id, account := range s.accounts {
		if id == exclude {
			continue
		}
		if account.Field(field) == value {
			return true
		}
	}
	return false
}

func cloneAccount(a *persona.Account) *persona.Account {
	out := *a
	out.Metadata = maps.Clone(a.Metadata)
	return &out
}

func notFound(meta map[string]any) error {
	return goerrors.New("record not found", goerrors.CategoryNotFound).
		WithTextCode(persona.TextCodeRecordNotFound).
		WithCode(goerrors.CodeNotFound).
		WithMetadata(meta)
}

func duplicate(field, value string) error {
	return goerrors.New("duplicate record", goerrors.CategoryConflict).
		WithTextCode(textCodeDuplicate).
		WithCode(goerrors.CodeConflict).
		WithMetadata(map[string]any{"field": field, "value": value})
}
