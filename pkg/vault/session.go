package vault

import (
	"sync"

	"github.com/m1rageLA/password-vault/pkg/crypto"
)

// session is the exclusive in-memory owner of the derived key. The slot is
// shared by all concurrent operations: readers take a copy under the read
// lock, install/clear take the write lock for the swap only. The key is
// never persisted; on clear the buffer is overwritten before release.
type session struct {
	mu  sync.RWMutex
	key []byte
}

// install places a new key into the slot, wiping any prior one. The session
// takes ownership of the slice.
func (s *session) install(key []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.key != nil {
		crypto.SecureWipe(s.key)
	}
	s.key = key
}

// clear wipes and releases the key. Idempotent: clearing an empty slot is a
// no-op, never an error.
func (s *session) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.key != nil {
		crypto.SecureWipe(s.key)
		s.key = nil
	}
}

// unlocked reports whether a key is present.
func (s *session) unlocked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key != nil
}

// require returns ErrLocked when no key is loaded. Operations that never
// touch ciphertext still gate on the session this way.
func (s *session) require() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.key == nil {
		return ErrLocked
	}
	return nil
}

// copyKey returns a copy of the key for use by a single operation. Callers
// must wipe the copy when done and must not retain it across operations.
func (s *session) copyKey() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.key == nil {
		return nil, ErrLocked
	}
	key := make([]byte, len(s.key))
	copy(key, s.key)
	return key, nil
}
