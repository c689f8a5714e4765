package persona

import (
	"context"
	"crypto/rand"
	"io"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

const tokenEntropy = 20

// tokenStore mints, looks up and removes single-use tokens.
// Lookups only ever see live tokens, see TokenLifetime.
type tokenStore struct {
	tokens     TokenRepository
	encrypter  Encrypter
	now        func() time.Time
	dateFormat string
	logger     Logger
}

func (s *tokenStore) liveQuery(tokenType TokenType) TokenQuery {
	return TokenQuery{
		Type:         tokenType,
		UpdatedSince: s.now().Add(-TokenLifetime),
		DateFormat:   s.dateFormat,
	}
}

// GenerateToken returns the live token of tokenType for account, minting
// a new one when none exists.
func (s *tokenStore) GenerateToken(ctx context.Context, account *Account, tokenType TokenType) (string, error) {
	if account == nil || account.ID == uuid.Nil {
		return "", goerrors.New("token requires a persisted account", goerrors.CategoryInternal)
	}

	q := s.liveQuery(tokenType)
	q.AccountID = account.ID

	existing, err := s.tokens.FindLive(ctx, q)
	if err == nil && existing != nil {
		s.logger.Debug("reusing live token", "account_id", account.ID, "type", tokenType)
		return existing.Value, nil
	}
	if err != nil && !IsRecordNotFound(err) {
		return "", err
	}

	raw := make([]byte, tokenEntropy)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read token entropy")
	}

	value, err := s.encrypter.Encrypt(raw)
	if err != nil {
		return "", err
	}

	now := s.now()
	token := &Token{
		ID:        uuid.New(),
		AccountID: account.ID,
		Value:     value,
		Type:      tokenType,
		CreatedAt: &now,
		UpdatedAt: &now,
	}

	if _, err := s.tokens.Create(ctx, token); err != nil {
		return "", err
	}

	s.logger.Debug("minted token", "account_id", account.ID, "type", tokenType)
	return value, nil
}

// GetToken returns the live token matching value and tokenType with its
// account loaded. A nil token and nil error mean no live match.
func (s *tokenStore) GetToken(ctx context.Context, value string, tokenType TokenType) (*Token, error) {
	if value == "" {
		return nil, nil
	}

	q := s.liveQuery(tokenType)
	q.Value = value

	token, err := s.tokens.FindLive(ctx, q)
	if err != nil {
		if IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	if token == nil || token.Account == nil {
		return nil, nil
	}

	return token, nil
}

// RemoveToken deletes every token with value and tokenType
func (s *tokenStore) RemoveToken(ctx context.Context, value string, tokenType TokenType) error {
	return s.tokens.Delete(ctx, value, tokenType)
}
