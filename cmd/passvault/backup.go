package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// exportCmd writes an encrypted backup of the whole vault
var exportCmd = &cobra.Command{
	Use:   "export [path]",
	Short: "Exports an encrypted backup of all entries",
	Long: `Exports every entry into a single encrypted blob sealed under the
current master password's key. Without a path the blob is written to
standard output.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureUnlocked(); err != nil {
			return err
		}
		defer v.Lock()

		if len(args) == 1 {
			if err := v.ExportBackupFile(args[0]); err != nil {
				return fmt.Errorf("failed to export backup: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Backup exported to %s\n", args[0])
			return nil
		}

		blob, err := v.ExportBackup()
		if err != nil {
			return fmt.Errorf("failed to export backup: %w", err)
		}
		if _, err := os.Stdout.Write(blob); err != nil {
			return fmt.Errorf("failed to write backup: %w", err)
		}
		return nil
	},
}

// importCmd restores entries from an encrypted backup
var importCmd = &cobra.Command{
	Use:   "import [path]",
	Short: "Imports entries from an encrypted backup",
	Long: `Imports every entry from a backup blob, decrypted with the current
master password's key. Imported entries receive fresh ids and timestamps.
Without a path the blob is read from standard input.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureUnlocked(); err != nil {
			return err
		}
		defer v.Lock()

		var count int
		var err error
		if len(args) == 1 {
			count, err = v.ImportBackupFile(args[0])
		} else {
			var blob []byte
			blob, err = io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("failed to read backup: %w", err)
			}
			count, err = v.ImportBackup(blob)
		}
		if err != nil {
			return fmt.Errorf("failed to import backup: %w", err)
		}

		fmt.Printf("Imported %d entries\n", count)
		return nil
	},
}
