// Package backup implements the whole-vault backup codec: the full
// plaintext entry list is serialized to JSON and sealed into a single
// opaque blob with the same authenticated encryption used for individual
// fields. The wire layout is 12-byte nonce || AEAD ciphertext-and-tag; the
// blob is decryptable only with the key that produced it.
package backup

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/m1rageLA/password-vault/pkg/crypto"
)

// FormatVersion is the current payload version recorded inside the sealed
// JSON object.
const FormatVersion = 1

// Backup errors
var (
	// ErrWrongKey indicates the blob was sealed under a different key or is
	// corrupt; the caller should treat it like a bad master password.
	ErrWrongKey = errors.New("backup: wrong key or corrupted backup")

	// ErrMalformedPayload indicates the decrypted payload is not a valid
	// entry list.
	ErrMalformedPayload = errors.New("backup: malformed payload")

	// ErrUnsupportedVersion indicates the payload version is newer than this
	// build understands.
	ErrUnsupportedVersion = errors.New("backup: unsupported payload version")
)

// Item is one exported entry in plaintext. Ids and timestamps are carried
// for reference but are reassigned on import.
type Item struct {
	ID        int64  `json:"id"`
	Site      string `json:"site"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	Notes     string `json:"notes,omitempty"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// payload is the versioned envelope around the entry list.
type payload struct {
	Version int    `json:"version"`
	Entries []Item `json:"entries"`
}

// Seal serializes items and encrypts the whole blob under key.
func Seal(key []byte, items []Item) ([]byte, error) {
	plaintext, err := json.Marshal(payload{Version: FormatVersion, Entries: items})
	if err != nil {
		return nil, fmt.Errorf("backup: failed to marshal payload: %w", err)
	}
	defer crypto.SecureWipe(plaintext)

	blob, err := crypto.Encrypt(key, plaintext)
	if err != nil {
		return nil, fmt.Errorf("backup: failed to encrypt payload: %w", err)
	}
	return blob, nil
}

// Open decrypts a sealed blob and decodes the entry list. Both the current
// versioned object and the historical bare-array payload (produced before
// the version tag existed) are accepted.
func Open(key, blob []byte) ([]Item, error) {
	plaintext, err := crypto.Decrypt(key, blob)
	if err != nil {
		if errors.Is(err, crypto.ErrDecryptionFailed) {
			return nil, ErrWrongKey
		}
		return nil, err
	}
	defer crypto.SecureWipe(plaintext)

	trimmed := bytes.TrimLeft(plaintext, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		// Legacy payload: a bare entry array with no version tag.
		var items []Item
		if err := json.Unmarshal(plaintext, &items); err != nil {
			return nil, ErrMalformedPayload
		}
		return items, nil
	}

	var p payload
	if err := json.Unmarshal(plaintext, &p); err != nil {
		return nil, ErrMalformedPayload
	}
	if p.Version > FormatVersion {
		return nil, fmt.Errorf("%w: got %d, max supported %d",
			ErrUnsupportedVersion, p.Version, FormatVersion)
	}
	return p.Entries, nil
}
