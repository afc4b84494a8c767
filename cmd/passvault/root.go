package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/m1rageLA/password-vault/internal/config"
	"github.com/m1rageLA/password-vault/pkg/audit"
	"github.com/m1rageLA/password-vault/pkg/vault"
)

var (
	cfgPath   string
	vaultPath string

	cfg *config.Config
	v   *vault.Vault
)

var rootCmd = &cobra.Command{
	Use:   "passvault",
	Short: "passvault is a local encrypted password vault",
	Long:  `A local password vault: entries are encrypted with a key derived from your master password and never stored in plaintext.`,
	// PersistentPreRunE opens the vault database for every subcommand. The
	// vault starts locked; commands that need the key unlock it themselves.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		if vaultPath != "" {
			cfg.VaultPath = vaultPath
		}
		if err := cfg.EnsureDirs(); err != nil {
			return err
		}

		opts := []vault.Option{vault.WithKDFParams(cfg.KDFParams())}
		if cfg.AuditPath != "" {
			opts = append(opts, vault.WithAuditLogger(audit.NewLogger(cfg.AuditPath)))
		}

		v, err = vault.Open(cfg.VaultPath, opts...)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if v != nil {
			return v.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", config.DefaultPath(), "Config file path")
	rootCmd.PersistentFlags().StringVar(&vaultPath, "vault", "", "Vault database path (overrides config)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(auditCmd)
}

// ensureUnlocked prompts for the master password and unlocks the vault.
func ensureUnlocked() error {
	if v.IsUnlocked() {
		return nil
	}
	password, err := readPassword("Enter master password: ")
	if err != nil {
		return err
	}
	if err := v.Unlock(password); err != nil {
		return fmt.Errorf("failed to unlock vault: %w", err)
	}
	return nil
}

// readPassword reads a password without echo when stdin is a terminal,
// falling back to a plain line read for piped input.
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	if term.IsTerminal(int(syscall.Stdin)) {
		b, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}
	return readLine()
}

// readLine reads a single line from stdin, trimming trailing newline
func readLine() (string, error) {
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	value := strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(value, "\r"), nil
}

// initCmd initializes a new vault
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initializes a new vault",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("Initializing new vault...")

		password1, err := readPassword("Enter master password: ")
		if err != nil {
			return err
		}
		password2, err := readPassword("Confirm master password: ")
		if err != nil {
			return err
		}
		if password1 != password2 {
			return fmt.Errorf("passwords do not match")
		}

		result := vault.ValidateMasterPassword(password1)
		if !result.Valid {
			// Hard errors (length requirements)
			return fmt.Errorf("password validation failed: %s", result.Warnings[0])
		}

		// Warnings are advisory, not blocking
		fmt.Printf("Password strength: %s\n", result.Strength)
		for _, warning := range result.Warnings {
			fmt.Printf("Warning: %s\n", warning)
		}

		if err := v.Initialize(password1); err != nil {
			return fmt.Errorf("failed to initialize vault: %w", err)
		}
		defer v.Lock()

		fmt.Printf("Vault initialized successfully at %s\n", cfg.VaultPath)
		return nil
	},
}

// statusCmd reports vault location and initialization state
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Shows vault location and state",
	RunE: func(cmd *cobra.Command, args []string) error {
		initialized, err := v.Initialized()
		if err != nil {
			return err
		}

		fmt.Printf("Vault: %s\n", cfg.VaultPath)
		if cfg.AuditPath != "" {
			fmt.Printf("Audit log: %s\n", cfg.AuditPath)
		}
		if initialized {
			fmt.Println("State: initialized")
		} else {
			fmt.Println("State: not initialized (run 'passvault init')")
		}
		return nil
	},
}
