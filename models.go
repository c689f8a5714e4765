package persona

import (
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Core account columns
const (
	FieldID            = "id"
	FieldEmail         = "email"
	FieldUsername      = "username"
	FieldPassword      = "password"
	FieldAccountStatus = "account_status"
	FieldCreatedAt     = "created_at"
	FieldUpdatedAt     = "updated_at"
)

// Account is the user model
type Account struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email         string         `bun:"email,notnull,unique" json:"email,omitempty"`
	Username      string         `bun:"username,nullzero,unique" json:"username,omitempty"`
	Password      string         `bun:"password,notnull" json:"-"`
	AccountStatus string         `bun:"account_status,notnull" json:"account_status,omitempty"`
	Metadata      map[string]any `bun:"metadata,type:jsonb" json:"metadata,omitempty"`
	CreatedAt     *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time     `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Field returns the string value stored under the given column name.
// Unknown names are looked up in Metadata.
func (a *Account) Field(name string) string {
	if a == nil {
		return ""
	}

	switch name {
	case FieldID:
		if a.ID == uuid.Nil {
			return ""
		}
		return a.ID.String()
	case FieldEmail:
		return a.Email
	case FieldUsername:
		return a.Username
	case FieldPassword:
		return a.Password
	case FieldAccountStatus:
		return a.AccountStatus
	}

	if a.Metadata == nil {
		return ""
	}

	switch v := a.Metadata[name].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Set assigns value to the named attribute. Core string columns only
// accept strings, id and timestamps are managed by the store.
func (a *Account) Set(name string, value any) error {
	switch name {
	case FieldID, FieldCreatedAt, FieldUpdatedAt:
		return goerrors.New("attribute is managed by the store", goerrors.CategoryBadInput).
			WithTextCode(TextCodeInvalidAttribute).
			WithMetadata(map[string]any{"field": name})
	case FieldEmail, FieldUsername, FieldPassword, FieldAccountStatus:
		s, ok := value.(string)
		if !ok && value != nil {
			return goerrors.New("attribute expects a string value", goerrors.CategoryBadInput).
				WithTextCode(TextCodeInvalidAttribute).
				WithMetadata(map[string]any{"field": name, "type": fmt.Sprintf("%T", value)})
		}
		a.setString(name, s)
		return nil
	}

	a.AddMetadata(name, value)
	return nil
}

func (a *Account) setString(name, value string) {
	switch name {
	case FieldEmail:
		a.Email = value
	case FieldUsername:
		a.Username = value
	case FieldPassword:
		a.Password = value
	case FieldAccountStatus:
		a.AccountStatus = value
	}
}

// Merge applies every payload entry through Set, payload wins on conflicts.
func (a *Account) Merge(payload Payload) error {
	for _, key := range payload.Keys() {
		if err := a.Set(key, payload[key]); err != nil {
			return err
		}
	}
	return nil
}

// AddMetadata will append information to a metadata attribute
func (a *Account) AddMetadata(key string, val any) *Account {
	if a.Metadata == nil {
		a.Metadata = make(map[string]any)
	}
	a.Metadata[key] = val
	return a
}

// TokenType tags what a token can be redeemed for
type TokenType string

const (
	// TokenTypeEmail verifies an email address
	TokenTypeEmail TokenType = "email"
	// TokenTypePassword recovers a forgotten password
	TokenTypePassword TokenType = "password"
)

// TokenLifetime is the rolling freshness window of a token, measured
// from its last update.
const TokenLifetime = 24 * time.Hour

// Token is a single-use token owned by an account
type Token struct {
	bun.BaseModel `bun:"table:tokens,alias:tok"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	AccountID     uuid.UUID  `bun:"account_id,notnull,type:uuid" json:"account_id,omitempty"`
	Account       *Account   `bun:"rel:belongs-to,join:account_id=id" json:"account,omitempty"`
	Value         string     `bun:"token,notnull,unique" json:"token,omitempty"`
	Type          TokenType  `bun:"type,notnull" json:"type,omitempty"`
	IsRevoked     bool       `bun:"is_revoked,notnull,default:false" json:"is_revoked"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// IsLive reports whether the token passes the liveness predicate at now.
func (t *Token) IsLive(now time.Time) bool {
	if t == nil || t.IsRevoked || t.UpdatedAt == nil {
		return false
	}
	return !t.UpdatedAt.Before(now.Add(-TokenLifetime))
}

// TokenQuery selects a live token. Zero AccountID or empty Value are
// not used as filters.
type TokenQuery struct {
	AccountID    uuid.UUID
	Value        string
	Type         TokenType
	UpdatedSince time.Time
	// DateFormat, when set, is the layout used to render UpdatedSince
	// for the store comparison.
	DateFormat string
}

// Matches applies the query to a token in memory.
func (q TokenQuery) Matches(t *Token) bool {
	if t == nil || t.IsRevoked || t.Type != q.Type {
		return false
	}
	if q.AccountID != uuid.Nil && t.AccountID != q.AccountID {
		return false
	}
	if q.Value != "" && t.Value != q.Value {
		return false
	}
	if t.UpdatedAt == nil {
		return false
	}
	return !t.UpdatedAt.Before(q.UpdatedSince)
}
