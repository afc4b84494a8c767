// Package crypto provides the cryptographic primitives for the vault.
//
// This package implements AES-256-GCM authenticated encryption and Argon2id
// key derivation. Encrypted blobs carry their nonce prepended, so a single
// []byte is enough to store or transmit a ciphertext.
//
// # Security Features
//
//   - AES-256-GCM authenticated encryption
//   - Argon2id key derivation (64MB memory, 3 iterations, 4 threads by default)
//   - Cryptographically secure random nonce generation
//   - Secure memory wiping for sensitive data
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/crypto/argon2"
)

const (
	// SaltLength is the length of KDF salts in bytes (128 bits).
	SaltLength = 16

	// KeyLength is the length of encryption keys in bytes (256 bits).
	KeyLength = 32

	// NonceLength is the length of GCM nonces in bytes (96 bits).
	NonceLength = 12
)

// Sentinel errors returned by crypto functions.
var (
	// ErrInvalidKeyLength indicates the key is not 32 bytes.
	ErrInvalidKeyLength = errors.New("crypto: invalid key length, must be 32 bytes")

	// ErrDecryptionFailed indicates authentication tag verification failed:
	// wrong key, tampering, or corruption.
	ErrDecryptionFailed = errors.New("crypto: decryption failed, authentication tag verification failed")

	// ErrCiphertextTooShort indicates the blob is shorter than the nonce.
	ErrCiphertextTooShort = errors.New("crypto: ciphertext too short")
)

// Params holds Argon2id cost parameters. They are recorded alongside the
// salt at vault creation so that future unlocks reproduce the same key even
// if the defaults change in a later release.
type Params struct {
	MemoryKiB   uint32 `json:"memory_kib"`
	Iterations  uint32 `json:"iterations"`
	Parallelism uint8  `json:"parallelism"`
}

// DefaultParams returns the Argon2id parameters used for new vaults,
// following OWASP recommendations: 64 MB memory, 3 iterations, 4 threads.
func DefaultParams() Params {
	return Params{
		MemoryKiB:   64 * 1024,
		Iterations:  3,
		Parallelism: 4,
	}
}

// DeriveKey derives a 256-bit encryption key from a password using Argon2id
// with the given salt and cost parameters. Deterministic for fixed inputs;
// the cost is governed by p regardless of the password content.
func DeriveKey(password, salt []byte, p Params) []byte {
	return argon2.IDKey(password, salt, p.Iterations, p.MemoryKiB, p.Parallelism, KeyLength)
}

// Encrypt encrypts plaintext using AES-256-GCM with a fresh random 12-byte
// nonce from crypto/rand. The returned blob layout is nonce || ciphertext
// with the authentication tag appended by GCM.
func Encrypt(key, plaintext []byte) ([]byte, error) {
	if len(key) != KeyLength {
		return nil, ErrInvalidKeyLength
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypto: failed to create GCM: %w", err)
	}

	nonce := make([]byte, NonceLength)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("crypto: failed to generate nonce: %w", err)
	}

	// Seal appends ciphertext+tag directly after the nonce.
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt decrypts a nonce-prepended blob produced by Encrypt. It verifies
// the authentication tag before returning the plaintext; tag verification
// failure is the sole mechanism for detecting a wrong key or corrupted data.
func Decrypt(key, blob []byte) ([]byte, error) {
	if len(key) != KeyLength {
		return nil, ErrInvalidKeyLength
	}
	if len(blob) < NonceLength {
		return nil, ErrCiphertextTooShort
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypto: failed to create GCM: %w", err)
	}

	nonce := blob[:NonceLength]
	ciphertext := blob[NonceLength:]

	if len(ciphertext) < gcm.Overhead() {
		return nil, ErrCiphertextTooShort
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	return plaintext, nil
}

// SecureWipe overwrites a byte slice with zeros in a way that prevents
// compiler optimization from removing the operation. This is critical for
// securely destroying sensitive data like the session key.
func SecureWipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
	// runtime.KeepAlive ensures the write operations are not optimized away
	// by the compiler since b is still "in use" after the loop.
	runtime.KeepAlive(b)
}
