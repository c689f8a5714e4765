package persona_test

import (
	"testing"

	"github.com/goliatone/go-persona"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := persona.DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"email"}, cfg.UIDs)
	assert.Equal(t, "old_password", cfg.OldPasswordField())
	assert.Equal(t, "password_confirmation", cfg.PasswordConfirmationField())
}

func TestLoadConfigFrom(t *testing.T) {
	cfg, err := persona.LoadConfigFrom("PERSONA_", map[string]string{
		"PERSONA_UIDS":                   "email,username",
		"PERSONA_PASSWORD_FIELD":         "secret",
		"PERSONA_TABLE":                  "accounts",
		"PERSONA_NEW_ACCOUNT_STATE":      "unverified",
		"PERSONA_VERIFIED_ACCOUNT_STATE": "verified",
		"PERSONA_USE_HASHID":             "true",
		"PERSONA_BCRYPT_COST":            "4",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"email", "username"}, cfg.UIDs)
	assert.Equal(t, "email", cfg.Email)
	assert.Equal(t, "secret", cfg.Password)
	assert.Equal(t, "old_secret", cfg.OldPasswordField())
	assert.Equal(t, "accounts", cfg.Table)
	assert.Equal(t, persona.DefaultModel, cfg.Model)
	assert.Equal(t, "unverified", cfg.NewAccountState)
	assert.Equal(t, "verified", cfg.VerifiedAccountState)
	assert.Equal(t, persona.DefaultDateFormat, cfg.DateFormat)
	assert.True(t, cfg.UseHashid)
	assert.Equal(t, 4, cfg.BcryptCost)
}

func TestLoadConfigFromDefaults(t *testing.T) {
	cfg, err := persona.LoadConfigFrom("PERSONA_", map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, persona.DefaultConfig(), cfg)
}

func TestLoadConfigFromErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "bad bool", env: map[string]string{"PERSONA_USE_HASHID": "maybe"}},
		{name: "email not a uid", env: map[string]string{"PERSONA_UIDS": "username"}},
		{name: "same states", env: map[string]string{"PERSONA_NEW_ACCOUNT_STATE": "active"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := persona.LoadConfigFrom("PERSONA_", tt.env)
			require.Error(t, err)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*persona.Config)
	}{
		{name: "no uids", mutate: func(c *persona.Config) { c.UIDs = nil }},
		{name: "no email", mutate: func(c *persona.Config) { c.Email = "" }},
		{name: "no password", mutate: func(c *persona.Config) { c.Password = "" }},
		{name: "password as uid", mutate: func(c *persona.Config) { c.UIDs = append(c.UIDs, c.Password) }},
		{name: "empty state", mutate: func(c *persona.Config) { c.NewAccountState = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := persona.DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
