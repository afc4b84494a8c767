package vault

import "errors"

// Errors
var (
	// ErrNotInitialized indicates no vault configuration exists yet.
	ErrNotInitialized = errors.New("vault: vault is not initialized")

	// ErrAlreadyInitialized indicates a vault configuration already exists.
	ErrAlreadyInitialized = errors.New("vault: vault is already initialized")

	// ErrLocked indicates the operation needs a key but none is loaded.
	ErrLocked = errors.New("vault: vault is locked")

	// ErrBadMasterPassword indicates the key-check verification failed.
	ErrBadMasterPassword = errors.New("vault: invalid master password")

	// ErrNotFound indicates the referenced entry id does not exist.
	ErrNotFound = errors.New("vault: entry not found")

	// ErrConfigCorrupted indicates the persisted configuration record is
	// malformed (bad salt length or unreadable KDF parameters).
	ErrConfigCorrupted = errors.New("vault: configuration record is corrupted")
)
