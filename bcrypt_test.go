package persona_test

import (
	"testing"

	"github.com/goliatone/go-persona"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBcryptHasherHash(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{
			name:     "valid password",
			password: "securePassword123!",
		},
		{
			name:     "empty password",
			password: "",
			wantErr:  persona.ErrNoEmptyString,
		},
	}

	hasher := persona.NewBcryptHasher(4)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := hasher.Hash(tt.password)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, hash)
			assert.NotEqual(t, tt.password, hash)

			ok, err := hasher.Verify(tt.password, hash)
			assert.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestBcryptHasherVerify(t *testing.T) {
	hasher := persona.NewBcryptHasher(4)
	hash, err := hasher.Hash("testPassword123!")
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
		hash     string
		want     bool
	}{
		{name: "correct password", password: "testPassword123!", hash: hash, want: true},
		{name: "incorrect password", password: "wrongPassword123!", hash: hash, want: false},
		{name: "empty password", password: "", hash: hash, want: false},
		{name: "short hash", password: "testPassword123!", hash: "abc", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := hasher.Verify(tt.password, tt.hash)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestNewBcryptHasherClampsCost(t *testing.T) {
	hash, err := persona.NewBcryptHasher(1000).Hash("secret")
	require.NoError(t, err)
	assert.Contains(t, hash, "$10$")
}
