package vault

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/m1rageLA/password-vault/pkg/audit"
	"github.com/m1rageLA/password-vault/pkg/crypto"
)

// Entry is a fully decrypted secret record. Notes is empty when the entry
// has no notes; the empty string and absence are one representation.
type Entry struct {
	ID        int64     `json:"id"`
	Site      string    `json:"site"`
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EntryListItem is the listing view of an entry: plaintext metadata only,
// no sensitive fields.
type EntryListItem struct {
	ID        int64     `json:"id"`
	Site      string    `json:"site"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AddEntry encrypts and stores a new entry, returning its assigned id.
// Empty notes are stored as absent.
func (v *Vault) AddEntry(site, username, password, notes string) (int64, error) {
	key, err := v.session.copyKey()
	if err != nil {
		return 0, err
	}
	defer crypto.SecureWipe(key)

	passwordCT, err := crypto.Encrypt(key, []byte(password))
	if err != nil {
		return 0, fmt.Errorf("vault: failed to encrypt password: %w", err)
	}

	var notesCT []byte
	if notes != "" {
		notesCT, err = crypto.Encrypt(key, []byte(notes))
		if err != nil {
			return 0, fmt.Errorf("vault: failed to encrypt notes: %w", err)
		}
	}

	now := time.Now().Unix()
	res, err := v.db.Exec(`
		INSERT INTO entries (site, username, password_ct, notes_ct, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		site, username, passwordCT, notesCT, now, now)
	if err != nil {
		return 0, fmt.Errorf("vault: failed to insert entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("vault: failed to get entry id: %w", err)
	}

	v.logAudit(audit.OpEntryAdd, id, nil)
	return id, nil
}

// GetEntry retrieves and decrypts a single entry. A missing row is
// ErrNotFound; a decryption failure (wrong key or corrupted row) propagates
// the crypto error and is never silently swallowed.
func (v *Vault) GetEntry(id int64) (*Entry, error) {
	key, err := v.session.copyKey()
	if err != nil {
		return nil, err
	}
	defer crypto.SecureWipe(key)

	var e Entry
	var passwordCT, notesCT []byte
	var createdAt, updatedAt int64
	err = v.db.QueryRow(`
		SELECT id, site, username, password_ct, notes_ct, created_at, updated_at
		FROM entries WHERE id = ?`, id,
	).Scan(&e.ID, &e.Site, &e.Username, &passwordCT, &notesCT, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("vault: failed to read entry: %w", err)
	}

	password, err := crypto.Decrypt(key, passwordCT)
	if err != nil {
		return nil, fmt.Errorf("vault: failed to decrypt password: %w", err)
	}
	e.Password = string(password)

	if len(notesCT) > 0 {
		notes, err := crypto.Decrypt(key, notesCT)
		if err != nil {
			return nil, fmt.Errorf("vault: failed to decrypt notes: %w", err)
		}
		e.Notes = string(notes)
	}

	e.CreatedAt = time.Unix(createdAt, 0)
	e.UpdatedAt = time.Unix(updatedAt, 0)

	v.logAudit(audit.OpEntryGet, id, nil)
	return &e, nil
}

// ListEntries returns the listing view of all entries ordered by updated_at
// descending, ties broken by id descending. A non-empty search term is
// trimmed and matched as a literal substring against site or username.
func (v *Vault) ListEntries(search string) ([]EntryListItem, error) {
	if err := v.session.require(); err != nil {
		return nil, err
	}

	query := `
		SELECT id, site, username, created_at, updated_at
		FROM entries`
	var args []any

	if term := strings.TrimSpace(search); term != "" {
		query += ` WHERE site LIKE ? ESCAPE '\' OR username LIKE ? ESCAPE '\'`
		pattern := "%" + escapeLike(term) + "%"
		args = append(args, pattern, pattern)
	}
	query += " ORDER BY updated_at DESC, id DESC"

	rows, err := v.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("vault: failed to query entries: %w", err)
	}
	defer rows.Close()

	var items []EntryListItem
	for rows.Next() {
		var item EntryListItem
		var createdAt, updatedAt int64
		if err := rows.Scan(&item.ID, &item.Site, &item.Username, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("vault: failed to scan row: %w", err)
		}
		item.CreatedAt = time.Unix(createdAt, 0)
		item.UpdatedAt = time.Unix(updatedAt, 0)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vault: error iterating rows: %w", err)
	}

	v.logAudit(audit.OpEntryList, 0, nil)
	return items, nil
}

// UpdateEntry overwrites site and username and refreshes updated_at. A nil
// password or notes preserves the stored ciphertext; non-nil password
// re-encrypts and replaces it wholesale; non-nil empty notes clears them to
// absent. ErrNotFound if the row does not exist.
func (v *Vault) UpdateEntry(id int64, site, username string, password, notes *string) error {
	key, err := v.session.copyKey()
	if err != nil {
		return err
	}
	defer crypto.SecureWipe(key)

	set := []string{"site = ?", "username = ?", "updated_at = ?"}
	args := []any{site, username, time.Now().Unix()}

	if password != nil {
		ct, err := crypto.Encrypt(key, []byte(*password))
		if err != nil {
			return fmt.Errorf("vault: failed to encrypt password: %w", err)
		}
		set = append(set, "password_ct = ?")
		args = append(args, ct)
	}

	if notes != nil {
		if *notes == "" {
			set = append(set, "notes_ct = NULL")
		} else {
			ct, err := crypto.Encrypt(key, []byte(*notes))
			if err != nil {
				return fmt.Errorf("vault: failed to encrypt notes: %w", err)
			}
			set = append(set, "notes_ct = ?")
			args = append(args, ct)
		}
	}

	args = append(args, id)
	res, err := v.db.Exec("UPDATE entries SET "+strings.Join(set, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("vault: failed to update entry: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("vault: failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	v.logAudit(audit.OpEntryUpdate, id, nil)
	return nil
}

// DeleteEntry removes an entry. Deleting a nonexistent id is not an error.
func (v *Vault) DeleteEntry(id int64) error {
	if err := v.session.require(); err != nil {
		return err
	}

	if _, err := v.db.Exec("DELETE FROM entries WHERE id = ?", id); err != nil {
		return fmt.Errorf("vault: failed to delete entry: %w", err)
	}

	v.logAudit(audit.OpEntryDelete, id, nil)
	return nil
}

// escapeLike escapes LIKE wildcards so a search term always matches
// literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}
