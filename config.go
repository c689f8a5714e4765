package persona

import (
	"slices"

	"github.com/caarlos0/env/v11"
	goerrors "github.com/goliatone/go-errors"
)

// Default configuration values
const (
	DefaultTable                = "users"
	DefaultModel                = "User"
	DefaultNewAccountState      = "pending"
	DefaultVerifiedAccountState = "active"
	DefaultDateFormat           = "2006-01-02 15:04:05-07:00"
	DefaultBcryptCost           = 12
)

// Config holds the lifecycle options. It is fixed once a Persona is built.
type Config struct {
	// UIDs are the fields that can identify an account, in lookup order
	UIDs []string `env:"UIDS" envSeparator:"," envDefault:"email"`
	// Email is the uid treated as an email address
	Email string `env:"EMAIL_FIELD" envDefault:"email"`
	// Password is the credential field name
	Password string `env:"PASSWORD_FIELD" envDefault:"password"`
	// Table is the account table referenced by unique rules
	Table string `env:"TABLE" envDefault:"users"`
	// Model names the account entity
	Model                string `env:"MODEL" envDefault:"User"`
	NewAccountState      string `env:"NEW_ACCOUNT_STATE" envDefault:"pending"`
	VerifiedAccountState string `env:"VERIFIED_ACCOUNT_STATE" envDefault:"active"`
	// DateFormat is the Go layout used when comparing token timestamps
	DateFormat string `env:"DATE_FORMAT" envDefault:"2006-01-02 15:04:05-07:00"`
	// EncryptionKey seeds the token encrypter. A random key is used when empty.
	EncryptionKey string `env:"ENCRYPTION_KEY"`
	// UseHashid derives account ids from the email at registration
	UseHashid  bool `env:"USE_HASHID" envDefault:"false"`
	BcryptCost int  `env:"BCRYPT_COST" envDefault:"12"`
}

// DefaultConfig returns the configuration used when no options are given
func DefaultConfig() Config {
	return Config{
		UIDs:                 []string{FieldEmail},
		Email:                FieldEmail,
		Password:             FieldPassword,
		Table:                DefaultTable,
		Model:                DefaultModel,
		NewAccountState:      DefaultNewAccountState,
		VerifiedAccountState: DefaultVerifiedAccountState,
		DateFormat:           DefaultDateFormat,
		BcryptCost:           DefaultBcryptCost,
	}
}

// LoadConfig reads the configuration from the process environment.
// Variables are looked up with the given prefix, e.g. PERSONA_UIDS.
func LoadConfig(prefix string) (Config, error) {
	return LoadConfigFrom(prefix, nil)
}

// LoadConfigFrom reads the configuration from the given environment map.
// A nil map reads the process environment.
func LoadConfigFrom(prefix string, environment map[string]string) (Config, error) {
	cfg := Config{}
	opts := env.Options{
		Prefix:      prefix,
		Environment: environment,
	}

	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse persona configuration").
			WithTextCode(TextCodeInvalidConfig)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the configuration invariants
func (c Config) Validate() error {
	var reason string
	switch {
	case len(c.UIDs) == 0:
		reason = "at least one uid field is required"
	case c.Email == "":
		reason = "email field is required"
	case !slices.Contains(c.UIDs, c.Email):
		reason = "email field must be one of the uid fields"
	case c.Password == "":
		reason = "password field is required"
	case slices.Contains(c.UIDs, c.Password):
		reason = "password field can not be a uid field"
	case c.NewAccountState == "" || c.VerifiedAccountState == "":
		reason = "account states are required"
	case c.NewAccountState == c.VerifiedAccountState:
		reason = "new and verified account states must differ"
	default:
		return nil
	}

	return goerrors.New("invalid persona configuration", goerrors.CategoryBadInput).
		WithTextCode(TextCodeInvalidConfig).
		WithMetadata(map[string]any{"reason": reason})
}

// OldPasswordField is the field holding the current password on updates
func (c Config) OldPasswordField() string {
	return "old_" + c.Password
}

// PasswordConfirmationField is the field repeating the new password
func (c Config) PasswordConfirmationField() string {
	return c.Password + "_confirmation"
}

func (c Config) clone() Config {
	c.UIDs = slices.Clone(c.UIDs)
	return c
}
