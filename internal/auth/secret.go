package auth

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"

	"github.com/draftwire/draftwire/internal/store"
)

const secretStoreKey = "auth:webhook-secret"

// secretLength is the number of random bytes in a generated webhook
// secret (hex-encoded before use, so 64 characters of keyspace).
const secretLength = 32

// SecretKeeper owns the webhook signing secret. The secret never sits
// in the store in plaintext: it is sealed with AES-256-GCM under a key
// derived by hashing two process-wide secret materials, and decrypted
// only transiently for signing and comparison.
type SecretKeeper struct {
	kv     store.KeyValue
	aead   cipher.AEAD
	logger *slog.Logger
}

// NewSecretKeeper derives the sealing key from the two secret
// materials and prepares the AEAD. Returns an error only if the
// cipher cannot be constructed.
func NewSecretKeeper(kv store.KeyValue, material, salt string, logger *slog.Logger) (*SecretKeeper, error) {
	key := sha256.Sum256([]byte(material + salt))

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("failed to construct cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to construct GCM: %w", err)
	}

	return &SecretKeeper{kv: kv, aead: aead, logger: logger}, nil
}

// Secret returns the current webhook secret, generating and persisting
// a fresh one on first use. Self-initialization is the normal path for
// a new deployment, not an error condition.
func (k *SecretKeeper) Secret(ctx context.Context) (string, error) {
	sealed, err := k.kv.Get(ctx, secretStoreKey)
	if err == nil {
		return k.open(sealed)
	}
	if !store.IsNotFoundError(err) {
		return "", fmt.Errorf("failed to load webhook secret: %w", err)
	}

	secret, err := k.generate(ctx)
	if err != nil {
		return "", err
	}

	k.logger.Info("initialized new webhook signing secret")
	return secret, nil
}

// generate creates a high-entropy secret, seals it, and persists it
// without expiry.
func (k *SecretKeeper) generate(ctx context.Context) (string, error) {
	raw := make([]byte, secretLength)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	secret := hex.EncodeToString(raw)

	sealed, err := k.seal([]byte(secret))
	if err != nil {
		return "", err
	}

	if err := k.kv.Set(ctx, secretStoreKey, sealed, 0); err != nil {
		return "", fmt.Errorf("failed to persist webhook secret: %w", err)
	}

	return secret, nil
}

// seal encrypts plaintext with a random nonce prepended to the output.
func (k *SecretKeeper) seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, k.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return k.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// open decrypts a sealed secret.
func (k *SecretKeeper) open(sealed []byte) (string, error) {
	if len(sealed) < k.aead.NonceSize() {
		return "", fmt.Errorf("sealed secret too short")
	}

	nonce, ciphertext := sealed[:k.aead.NonceSize()], sealed[k.aead.NonceSize():]
	plaintext, err := k.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt webhook secret: %w", err)
	}
	return string(plaintext), nil
}
