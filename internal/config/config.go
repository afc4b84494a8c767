// Package config loads process configuration from a YAML file, falling
// back to sensible defaults under the user's home directory when no file
// exists.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/m1rageLA/password-vault/pkg/crypto"
)

// KDF holds optional Argon2id cost overrides applied when a new vault is
// initialized. Unlock always uses the parameters stored in the vault.
type KDF struct {
	MemoryKiB   uint32 `yaml:"memory_kib"`
	Iterations  uint32 `yaml:"iterations"`
	Parallelism uint8  `yaml:"parallelism"`
}

// Config is the process configuration.
type Config struct {
	VaultPath string `yaml:"vault_path"`
	AuditPath string `yaml:"audit_path"` // empty disables audit logging
	KDF       *KDF   `yaml:"kdf,omitempty"`
}

// Default returns the configuration used when no config file exists: a
// vault database and audit log under ~/.passvault/.
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	dir := filepath.Join(home, ".passvault")
	return &Config{
		VaultPath: filepath.Join(dir, "vault.db"),
		AuditPath: filepath.Join(dir, "audit.jsonl"),
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".passvault", "config.yaml")
}

// Load reads configuration from path. A missing file is not an error; the
// defaults are returned. Fields absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	if cfg.VaultPath == "" {
		cfg.VaultPath = Default().VaultPath
	}
	return cfg, nil
}

// KDFParams resolves the effective Argon2id parameters: file overrides when
// present, library defaults otherwise. Zero-valued fields fall back
// individually.
func (c *Config) KDFParams() crypto.Params {
	p := crypto.DefaultParams()
	if c.KDF == nil {
		return p
	}
	if c.KDF.MemoryKiB > 0 {
		p.MemoryKiB = c.KDF.MemoryKiB
	}
	if c.KDF.Iterations > 0 {
		p.Iterations = c.KDF.Iterations
	}
	if c.KDF.Parallelism > 0 {
		p.Parallelism = c.KDF.Parallelism
	}
	return p
}

// EnsureDirs creates the directories holding the vault database and audit
// log with owner-only permissions.
func (c *Config) EnsureDirs() error {
	if err := os.MkdirAll(filepath.Dir(c.VaultPath), 0700); err != nil {
		return fmt.Errorf("config: failed to create vault directory: %w", err)
	}
	if c.AuditPath != "" {
		if err := os.MkdirAll(filepath.Dir(c.AuditPath), 0700); err != nil {
			return fmt.Errorf("config: failed to create audit directory: %w", err)
		}
	}
	return nil
}
