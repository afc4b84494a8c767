package vault

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/m1rageLA/password-vault/pkg/backup"
)

func TestBackupRoundtrip(t *testing.T) {
	v := unlockedVault(t)

	if _, err := v.AddEntry("example.com", "alice", "p@ss", "note"); err != nil {
		t.Fatalf("AddEntry failed: %v", err)
	}
	if _, err := v.AddEntry("example.org", "bob", "hunter2", ""); err != nil {
		t.Fatalf("AddEntry failed: %v", err)
	}

	blob, err := v.ExportBackup()
	if err != nil {
		t.Fatalf("ExportBackup failed: %v", err)
	}

	// Import into a fresh vault unlocked with the same password
	v2 := testVault(t)
	if err := v2.Initialize("master123"); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	count, err := v2.ImportBackup(blob)
	if err != nil {
		t.Fatalf("ImportBackup failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 imported entries, got %d", count)
	}

	items, err := v2.ListEntries("")
	if err != nil {
		t.Fatalf("ListEntries failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(items))
	}

	// Decrypted contents must match the originals
	found := map[string]string{}
	for _, item := range items {
		entry, err := v2.GetEntry(item.ID)
		if err != nil {
			t.Fatalf("GetEntry failed: %v", err)
		}
		found[entry.Site] = entry.Password
		if entry.Site == "example.com" && entry.Notes != "note" {
			t.Errorf("notes not restored: %q", entry.Notes)
		}
	}
	if found["example.com"] != "p@ss" || found["example.org"] != "hunter2" {
		t.Errorf("restored passwords mismatch: %v", found)
	}
}

func TestImportBackupWrongKey(t *testing.T) {
	v := unlockedVault(t)
	if _, err := v.AddEntry("example.com", "alice", "p@ss", ""); err != nil {
		t.Fatalf("AddEntry failed: %v", err)
	}
	blob, err := v.ExportBackup()
	if err != nil {
		t.Fatalf("ExportBackup failed: %v", err)
	}

	// A vault initialized with a different password derives a different key
	v2 := testVault(t)
	if err := v2.Initialize("completely-different"); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	if _, err := v2.ImportBackup(blob); !errors.Is(err, backup.ErrWrongKey) {
		t.Errorf("expected ErrWrongKey, got %v", err)
	}

	// Failed import must not leave partial rows behind
	items, err := v2.ListEntries("")
	if err != nil {
		t.Fatalf("ListEntries failed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("failed import inserted %d entries", len(items))
	}
}

func TestImportBackupFreshIDs(t *testing.T) {
	v := unlockedVault(t)

	id, err := v.AddEntry("example.com", "alice", "p@ss", "")
	if err != nil {
		t.Fatalf("AddEntry failed: %v", err)
	}
	blob, err := v.ExportBackup()
	if err != nil {
		t.Fatalf("ExportBackup failed: %v", err)
	}

	// Importing into the same vault duplicates the entry under a new id
	count, err := v.ImportBackup(blob)
	if err != nil {
		t.Fatalf("ImportBackup failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 imported entry, got %d", count)
	}

	items, err := v.ListEntries("")
	if err != nil {
		t.Fatalf("ListEntries failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(items))
	}
	// Ties break by id descending, so the imported copy lists first
	if items[0].ID <= id {
		t.Errorf("imported entry id %d not greater than original %d", items[0].ID, id)
	}
}

func TestBackupFileRoundtrip(t *testing.T) {
	v := unlockedVault(t)
	if _, err := v.AddEntry("example.com", "alice", "p@ss", ""); err != nil {
		t.Fatalf("AddEntry failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "backup.bin")
	if err := v.ExportBackupFile(path); err != nil {
		t.Fatalf("ExportBackupFile failed: %v", err)
	}

	count, err := v.ImportBackupFile(path)
	if err != nil {
		t.Fatalf("ImportBackupFile failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 imported entry, got %d", count)
	}
}

func TestImportBackupFileMissing(t *testing.T) {
	v := unlockedVault(t)

	_, err := v.ImportBackupFile(filepath.Join(t.TempDir(), "missing.bin"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if errors.Is(err, backup.ErrWrongKey) {
		t.Error("I/O failure surfaced as a crypto error")
	}
}
