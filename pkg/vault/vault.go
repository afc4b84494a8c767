// Package vault implements the encrypted secret store: master-password key
// derivation, lock/unlock state, entry storage with AES-256-GCM field
// encryption, and whole-vault encrypted backup.
//
// A Vault is safe for use by multiple concurrent callers. The derived key
// lives in a single in-memory slot owned by the vault instance; every
// operation that touches ciphertext borrows a copy of the key for its own
// duration. Nothing sensitive is ever written to storage in plaintext.
package vault

import (
	"bytes"
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/m1rageLA/password-vault/pkg/audit"
	"github.com/m1rageLA/password-vault/pkg/crypto"

	_ "modernc.org/sqlite"
)

// keyCheckPlaintext is the fixed constant encrypted under the derived key at
// initialization. Decrypting it is how a candidate password is verified
// without ever storing the password or the raw key.
const keyCheckPlaintext = "passvault-key-check-v1"

// Vault manages the encrypted secret store backed by a single SQLite file.
type Vault struct {
	db        *sql.DB
	session   *session
	kdfParams crypto.Params
	audit     *audit.Logger
}

// Option configures a Vault created by Open.
type Option func(*Vault)

// WithKDFParams overrides the Argon2id parameters used when initializing a
// new vault. Unlock always uses the parameters stored at creation time.
func WithKDFParams(p crypto.Params) Option {
	return func(v *Vault) { v.kdfParams = p }
}

// WithAuditLogger attaches an audit logger. Audit writes are best-effort and
// never fail vault operations.
func WithAuditLogger(l *audit.Logger) Option {
	return func(v *Vault) { v.audit = l }
}

// Open opens (creating if necessary) the vault database at path and ensures
// the schema exists. The returned vault starts locked.
func Open(path string, opts ...Option) (*Vault, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("vault: failed to open database: %w", err)
	}

	v := &Vault{
		db:        db,
		session:   &session{},
		kdfParams: crypto.DefaultParams(),
	}
	for _, opt := range opts {
		opt(v)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("vault: failed to create tables: %w", err)
	}

	return v, nil
}

// Close locks the vault and closes the database.
func (v *Vault) Close() error {
	v.Lock()
	return v.db.Close()
}

// createTables creates the required SQLite tables.
func createTables(db *sql.DB) error {
	// vault_config is a singleton row: created once at initialization and
	// only ever read afterwards.
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS vault_config (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			kdf_salt BLOB NOT NULL,
			kdf_params TEXT NOT NULL,
			key_check BLOB NOT NULL,
			created_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Sensitive fields are ciphertext columns (nonce prepended); site and
	// username stay plaintext for search.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			site TEXT NOT NULL,
			username TEXT NOT NULL,
			password_ct BLOB NOT NULL,
			notes_ct BLOB,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)
	`)
	return err
}

// vaultConfig mirrors the persisted singleton configuration row.
type vaultConfig struct {
	Salt      []byte
	Params    crypto.Params
	KeyCheck  []byte
	CreatedAt int64
}

// loadConfig reads the configuration row, or ErrNotInitialized if absent.
func (v *Vault) loadConfig() (*vaultConfig, error) {
	var cfg vaultConfig
	var paramsJSON string
	err := v.db.QueryRow(`
		SELECT kdf_salt, kdf_params, key_check, created_at
		FROM vault_config WHERE id = 1`,
	).Scan(&cfg.Salt, &paramsJSON, &cfg.KeyCheck, &cfg.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotInitialized
		}
		return nil, fmt.Errorf("vault: failed to read configuration: %w", err)
	}

	if len(cfg.Salt) != crypto.SaltLength {
		return nil, ErrConfigCorrupted
	}
	if err := json.Unmarshal([]byte(paramsJSON), &cfg.Params); err != nil {
		return nil, ErrConfigCorrupted
	}

	return &cfg, nil
}

// Initialized reports whether a configuration row exists.
func (v *Vault) Initialized() (bool, error) {
	var n int
	err := v.db.QueryRow("SELECT COUNT(*) FROM vault_config WHERE id = 1").Scan(&n)
	if err != nil {
		return false, fmt.Errorf("vault: failed to read configuration: %w", err)
	}
	return n > 0, nil
}

// Initialize creates the vault configuration from a master password:
// generate a random salt, derive the key, encrypt the key-check constant,
// and persist the record atomically. On success the derived key is installed
// and the vault is unlocked.
func (v *Vault) Initialize(password string) error {
	if ok, err := v.Initialized(); err != nil {
		return err
	} else if ok {
		return ErrAlreadyInitialized
	}

	salt := make([]byte, crypto.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("vault: failed to generate salt: %w", err)
	}

	// KDF runs outside the session lock; only the final install takes it.
	key := crypto.DeriveKey([]byte(password), salt, v.kdfParams)

	keyCheck, err := crypto.Encrypt(key, []byte(keyCheckPlaintext))
	if err != nil {
		crypto.SecureWipe(key)
		return fmt.Errorf("vault: failed to encrypt key check: %w", err)
	}

	paramsJSON, err := json.Marshal(v.kdfParams)
	if err != nil {
		crypto.SecureWipe(key)
		return fmt.Errorf("vault: failed to marshal KDF parameters: %w", err)
	}

	_, err = v.db.Exec(`
		INSERT INTO vault_config (id, kdf_salt, kdf_params, key_check, created_at)
		VALUES (1, ?, ?, ?, ?)`,
		salt, string(paramsJSON), keyCheck, time.Now().Unix())
	if err != nil {
		crypto.SecureWipe(key)
		// A concurrent Initialize may have won the id=1 insert.
		if ok, checkErr := v.Initialized(); checkErr == nil && ok {
			return ErrAlreadyInitialized
		}
		return fmt.Errorf("vault: failed to store configuration: %w", err)
	}

	v.installKey(key)
	v.logAudit(audit.OpInit, 0, nil)
	return nil
}

// Unlock re-derives the key from the supplied password and the stored
// salt/parameters, verifies it against the key-check ciphertext, and
// installs it, replacing any prior key.
func (v *Vault) Unlock(password string) error {
	cfg, err := v.loadConfig()
	if err != nil {
		return err
	}

	key := crypto.DeriveKey([]byte(password), cfg.Salt, cfg.Params)

	plain, err := crypto.Decrypt(key, cfg.KeyCheck)
	if err != nil || !bytes.Equal(plain, []byte(keyCheckPlaintext)) {
		crypto.SecureWipe(key)
		crypto.SecureWipe(plain)
		v.logAudit(audit.OpUnlockFailed, 0, ErrBadMasterPassword)
		return ErrBadMasterPassword
	}
	crypto.SecureWipe(plain)

	v.installKey(key)
	v.logAudit(audit.OpUnlock, 0, nil)
	return nil
}

// Lock securely destroys the in-memory key. Locking an already-locked vault
// is a no-op.
func (v *Vault) Lock() {
	if v.session.unlocked() {
		v.logAudit(audit.OpLock, 0, nil)
	}
	v.session.clear()
	if v.audit != nil {
		v.audit.ClearKey()
	}
}

// IsUnlocked reports whether a key is currently loaded.
func (v *Vault) IsUnlocked() bool {
	return v.session.unlocked()
}

// installKey places the key into the session slot and hands a derived HMAC
// key to the audit logger.
func (v *Vault) installKey(key []byte) {
	v.session.install(key)
	if v.audit != nil {
		_ = v.audit.SetKey(key)
	}
}

// AuditVerify checks the audit log's HMAC chain. Requires an attached
// audit logger and an unlocked vault (the chain key derives from the
// session key).
func (v *Vault) AuditVerify() (*audit.VerifyResult, error) {
	if v.audit == nil {
		return nil, errors.New("vault: no audit logger configured")
	}
	return v.audit.Verify()
}

// logAudit records an operation outcome. Best-effort: audit failures are
// never surfaced to the caller.
func (v *Vault) logAudit(op string, entryID int64, opErr error) {
	if v.audit == nil {
		return
	}
	_ = v.audit.Log(op, entryID, opErr)
}
