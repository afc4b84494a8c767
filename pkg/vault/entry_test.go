package vault

import (
	"errors"
	"testing"
	"time"
)

// unlockedVault returns an initialized, unlocked vault.
func unlockedVault(t *testing.T) *Vault {
	t.Helper()
	v := testVault(t)
	if err := v.Initialize("master123"); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	return v
}

func TestEntryLifecycle(t *testing.T) {
	v := unlockedVault(t)

	id, err := v.AddEntry("example.com", "alice", "p@ss", "the note")
	if err != nil {
		t.Fatalf("AddEntry failed: %v", err)
	}
	if id <= 0 {
		t.Fatalf("expected positive id, got %d", id)
	}

	entry, err := v.GetEntry(id)
	if err != nil {
		t.Fatalf("GetEntry failed: %v", err)
	}
	if entry.Site != "example.com" || entry.Username != "alice" {
		t.Errorf("unexpected metadata: %s / %s", entry.Site, entry.Username)
	}
	if entry.Password != "p@ss" {
		t.Errorf("expected password %q, got %q", "p@ss", entry.Password)
	}
	if entry.Notes != "the note" {
		t.Errorf("expected notes %q, got %q", "the note", entry.Notes)
	}
	if entry.CreatedAt.IsZero() || entry.UpdatedAt.IsZero() {
		t.Error("timestamps not set")
	}

	// Update site and password; notes left untouched must survive
	newPassword := "n3w-p@ss"
	if err := v.UpdateEntry(id, "example.org", "alice", &newPassword, nil); err != nil {
		t.Fatalf("UpdateEntry failed: %v", err)
	}

	entry, err = v.GetEntry(id)
	if err != nil {
		t.Fatalf("GetEntry after update failed: %v", err)
	}
	if entry.Site != "example.org" {
		t.Errorf("expected site example.org, got %s", entry.Site)
	}
	if entry.Password != newPassword {
		t.Errorf("expected updated password, got %q", entry.Password)
	}
	if entry.Notes != "the note" {
		t.Errorf("notes not preserved across update: %q", entry.Notes)
	}

	// Clearing notes with an explicit empty string removes them
	empty := ""
	if err := v.UpdateEntry(id, entry.Site, entry.Username, nil, &empty); err != nil {
		t.Fatalf("UpdateEntry (clear notes) failed: %v", err)
	}
	entry, err = v.GetEntry(id)
	if err != nil {
		t.Fatalf("GetEntry failed: %v", err)
	}
	if entry.Notes != "" {
		t.Errorf("notes not cleared: %q", entry.Notes)
	}

	// Delete and verify gone
	if err := v.DeleteEntry(id); err != nil {
		t.Fatalf("DeleteEntry failed: %v", err)
	}
	if _, err := v.GetEntry(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	// Deleting again is not an error
	if err := v.DeleteEntry(id); err != nil {
		t.Errorf("repeated delete failed: %v", err)
	}
}

func TestEntryEmptyNotesStoredAbsent(t *testing.T) {
	v := unlockedVault(t)

	id, err := v.AddEntry("example.com", "alice", "p@ss", "")
	if err != nil {
		t.Fatalf("AddEntry failed: %v", err)
	}

	// The notes column must be NULL, not an encryption of ""
	var notesCT []byte
	err = v.db.QueryRow("SELECT notes_ct FROM entries WHERE id = ?", id).Scan(&notesCT)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if notesCT != nil {
		t.Errorf("empty notes stored as %d-byte ciphertext, want NULL", len(notesCT))
	}
}

func TestEntryNoPlaintextAtRest(t *testing.T) {
	v := unlockedVault(t)

	password := "super-secret-p@ssword-value"
	notes := "confidential note text"
	id, err := v.AddEntry("example.com", "alice", password, notes)
	if err != nil {
		t.Fatalf("AddEntry failed: %v", err)
	}

	var passwordCT, notesCT []byte
	err = v.db.QueryRow("SELECT password_ct, notes_ct FROM entries WHERE id = ?", id).
		Scan(&passwordCT, &notesCT)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}

	if string(passwordCT) == password {
		t.Error("password stored in plaintext")
	}
	if string(notesCT) == notes {
		t.Error("notes stored in plaintext")
	}
}

func TestUpdateEntryNotFound(t *testing.T) {
	v := unlockedVault(t)

	if err := v.UpdateEntry(999, "s", "u", nil, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListEntriesOrdering(t *testing.T) {
	v := unlockedVault(t)

	id1, err := v.AddEntry("alpha.com", "a", "p1", "")
	if err != nil {
		t.Fatalf("AddEntry failed: %v", err)
	}
	id2, err := v.AddEntry("beta.com", "b", "p2", "")
	if err != nil {
		t.Fatalf("AddEntry failed: %v", err)
	}

	items, err := v.ListEntries("")
	if err != nil {
		t.Fatalf("ListEntries failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(items))
	}
	// Same updated_at second: ties break by id descending
	if items[0].ID != id2 || items[1].ID != id1 {
		t.Errorf("expected order [%d %d], got [%d %d]", id2, id1, items[0].ID, items[1].ID)
	}

	// Touching the older entry moves it to the front
	time.Sleep(1100 * time.Millisecond) // updated_at has second resolution
	if err := v.UpdateEntry(id1, "alpha.com", "a", nil, nil); err != nil {
		t.Fatalf("UpdateEntry failed: %v", err)
	}

	items, err = v.ListEntries("")
	if err != nil {
		t.Fatalf("ListEntries failed: %v", err)
	}
	if items[0].ID != id1 {
		t.Errorf("expected updated entry %d first, got %d", id1, items[0].ID)
	}
}

func TestListEntriesSearch(t *testing.T) {
	v := unlockedVault(t)

	mustAdd := func(site, username string) {
		t.Helper()
		if _, err := v.AddEntry(site, username, "p", ""); err != nil {
			t.Fatalf("AddEntry failed: %v", err)
		}
	}
	mustAdd("github.com", "alice")
	mustAdd("gitlab.com", "bob")
	mustAdd("example.com", "carol_git")
	mustAdd("100%.example", "dave")

	tests := []struct {
		search string
		want   int
	}{
		{"git", 3},     // matches site or username
		{"GIT", 3},     // LIKE collation: ASCII case-insensitive
		{"  git  ", 3}, // leading/trailing whitespace trimmed
		{"alice", 1},
		{"nomatch", 0},
		{"", 4},     // empty term returns everything
		{"   ", 4},  // whitespace-only term returns everything
		{"100%", 1}, // wildcard characters match literally
		{"_git", 1},
	}

	for _, tt := range tests {
		items, err := v.ListEntries(tt.search)
		if err != nil {
			t.Fatalf("ListEntries(%q) failed: %v", tt.search, err)
		}
		if len(items) != tt.want {
			t.Errorf("search %q: expected %d entries, got %d", tt.search, tt.want, len(items))
		}
	}
}

func TestListEntriesExcludesSecrets(t *testing.T) {
	v := unlockedVault(t)

	if _, err := v.AddEntry("example.com", "alice", "p@ss", "note"); err != nil {
		t.Fatalf("AddEntry failed: %v", err)
	}

	items, err := v.ListEntries("")
	if err != nil {
		t.Fatalf("ListEntries failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(items))
	}
	// EntryListItem carries no password or notes fields at all; verify the
	// metadata that is exposed.
	if items[0].Site != "example.com" || items[0].Username != "alice" {
		t.Errorf("unexpected listing metadata: %+v", items[0])
	}
}
