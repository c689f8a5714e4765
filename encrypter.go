package persona

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"io"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/crypto/pbkdf2"
)

const (
	encrypterSalt       = "persona-token-salt"
	encrypterIterations = 10000
	encrypterKeyLen     = 32
)

// AESEncrypter seals token material with AES-256-GCM. Output is URL safe
// base64 so it can travel in links.
type AESEncrypter struct {
	key []byte
}

// NewAESEncrypter derives a 32 byte key from secret using PBKDF2.
// An empty secret produces a random, process local key.
func NewAESEncrypter(secret string) (*AESEncrypter, error) {
	if secret == "" {
		key := make([]byte, encrypterKeyLen)
		if _, err := io.ReadFull(rand.Reader, key); err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate encryption key")
		}
		return &AESEncrypter{key: key}, nil
	}

	key := pbkdf2.Key([]byte(secret), []byte(encrypterSalt), encrypterIterations, encrypterKeyLen, sha256.New)
	return &AESEncrypter{key: key}, nil
}

// Encrypt implements Encrypter.
func (e *AESEncrypter) Encrypt(data []byte) (string, error) {
	if len(data) == 0 {
		return "", goerrors.New("nothing to encrypt", goerrors.CategoryBadInput)
	}

	block, err := aes.NewCipher(e.key)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create cipher")
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create GCM")
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate nonce")
	}

	sealed := gcm.Seal(nonce, nonce, data, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Persona never needs it, callers that embed
// data in tokens can.
func (e *AESEncrypter) Decrypt(token string) ([]byte, error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to decode token")
	}

	block, err := aes.NewCipher(e.key)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create cipher")
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create GCM")
	}

	if len(data) < gcm.NonceSize() {
		return nil, goerrors.New("token too short", goerrors.CategoryBadInput)
	}

	nonce, sealed := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to decrypt token")
	}

	return plain, nil
}
