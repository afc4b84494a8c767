package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m1rageLA/password-vault/pkg/crypto"
)

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.VaultPath == "" {
		t.Error("defaults missing vault path")
	}
	if cfg.KDFParams() != crypto.DefaultParams() {
		t.Error("expected default KDF params without overrides")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `vault_path: /tmp/custom/vault.db
audit_path: ""
kdf:
  memory_kib: 32768
  iterations: 2
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.VaultPath != "/tmp/custom/vault.db" {
		t.Errorf("unexpected vault path: %s", cfg.VaultPath)
	}
	if cfg.AuditPath != "" {
		t.Errorf("audit path not cleared: %s", cfg.AuditPath)
	}

	p := cfg.KDFParams()
	if p.MemoryKiB != 32768 || p.Iterations != 2 {
		t.Errorf("overrides not applied: %+v", p)
	}
	// Unset fields keep the defaults
	if p.Parallelism != crypto.DefaultParams().Parallelism {
		t.Errorf("parallelism should default, got %d", p.Parallelism)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("vault_path: [broken"), 0600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
