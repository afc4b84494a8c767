package vault

import (
	"fmt"
	"os"
	"time"

	"github.com/m1rageLA/password-vault/pkg/audit"
	"github.com/m1rageLA/password-vault/pkg/backup"
	"github.com/m1rageLA/password-vault/pkg/crypto"
)

// ExportBackup reads every entry, decrypts its fields, and seals the full
// plaintext list into a single opaque blob under the current key.
func (v *Vault) ExportBackup() ([]byte, error) {
	key, err := v.session.copyKey()
	if err != nil {
		return nil, err
	}
	defer crypto.SecureWipe(key)

	rows, err := v.db.Query(`
		SELECT id, site, username, password_ct, notes_ct, created_at, updated_at
		FROM entries ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("vault: failed to query entries: %w", err)
	}
	defer rows.Close()

	var items []backup.Item
	for rows.Next() {
		var item backup.Item
		var passwordCT, notesCT []byte
		if err := rows.Scan(&item.ID, &item.Site, &item.Username,
			&passwordCT, &notesCT, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("vault: failed to scan row: %w", err)
		}

		password, err := crypto.Decrypt(key, passwordCT)
		if err != nil {
			return nil, fmt.Errorf("vault: failed to decrypt password for entry %d: %w", item.ID, err)
		}
		item.Password = string(password)

		if len(notesCT) > 0 {
			notes, err := crypto.Decrypt(key, notesCT)
			if err != nil {
				return nil, fmt.Errorf("vault: failed to decrypt notes for entry %d: %w", item.ID, err)
			}
			item.Notes = string(notes)
		}

		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vault: error iterating rows: %w", err)
	}

	blob, err := backup.Seal(key, items)
	if err != nil {
		return nil, err
	}

	v.logAudit(audit.OpExport, 0, nil)
	return blob, nil
}

// ImportBackup decrypts a backup blob and inserts every contained entry in
// a single transaction, all-or-nothing. Imported entries receive fresh ids
// and fresh timestamps; the originals in the blob are ignored. Returns the
// number of entries inserted.
func (v *Vault) ImportBackup(blob []byte) (int, error) {
	key, err := v.session.copyKey()
	if err != nil {
		return 0, err
	}
	defer crypto.SecureWipe(key)

	items, err := backup.Open(key, blob)
	if err != nil {
		v.logAudit(audit.OpImport, 0, err)
		return 0, err
	}

	tx, err := v.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("vault: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO entries (site, username, password_ct, notes_ct, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("vault: failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, item := range items {
		passwordCT, err := crypto.Encrypt(key, []byte(item.Password))
		if err != nil {
			return 0, fmt.Errorf("vault: failed to encrypt password: %w", err)
		}

		var notesCT []byte
		if item.Notes != "" {
			notesCT, err = crypto.Encrypt(key, []byte(item.Notes))
			if err != nil {
				return 0, fmt.Errorf("vault: failed to encrypt notes: %w", err)
			}
		}

		if _, err := stmt.Exec(item.Site, item.Username, passwordCT, notesCT, now, now); err != nil {
			return 0, fmt.Errorf("vault: failed to insert entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("vault: failed to commit transaction: %w", err)
	}

	v.logAudit(audit.OpImport, 0, nil)
	return len(items), nil
}

// ExportBackupFile writes an encrypted backup to path with owner-only
// permissions. I/O failures surface as distinct wrapped errors, not crypto
// errors.
func (v *Vault) ExportBackupFile(path string) error {
	blob, err := v.ExportBackup()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, blob, 0600); err != nil {
		return fmt.Errorf("vault: failed to write backup file: %w", err)
	}
	return nil
}

// ImportBackupFile reads an encrypted backup from path and imports it.
func (v *Vault) ImportBackupFile(path string) (int, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("vault: failed to read backup file: %w", err)
	}
	return v.ImportBackup(blob)
}
