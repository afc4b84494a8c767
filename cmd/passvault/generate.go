package main

import (
	"fmt"
	"os"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/m1rageLA/password-vault/pkg/crypto"
)

const (
	minGenerateLength     = 1
	maxGenerateLength     = 256
	defaultGenerateLength = 20
)

// Generate command flags
var (
	generateLength    int
	generateNoDigits  bool
	generateNoUpper   bool
	generateNoSymbols bool
	generateCopy      bool
)

func init() {
	generateCmd.Flags().IntVarP(&generateLength, "length", "l", defaultGenerateLength, "Password length")
	generateCmd.Flags().BoolVar(&generateNoDigits, "no-digits", false, "Exclude digits")
	generateCmd.Flags().BoolVar(&generateNoUpper, "no-upper", false, "Exclude uppercase letters")
	generateCmd.Flags().BoolVar(&generateNoSymbols, "no-symbols", false, "Exclude symbols")
	generateCmd.Flags().BoolVarP(&generateCopy, "copy", "c", false, "Copy password to clipboard (accessible to all processes)")
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generates a secure random password",
	Long: `Generates a cryptographically secure random password.

Examples:
  # Generate a 20-character password (default)
  passvault generate

  # Generate a 32-character password without symbols
  passvault generate -l 32 --no-symbols

  # Generate and copy to clipboard
  passvault generate -c`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if generateLength < minGenerateLength || generateLength > maxGenerateLength {
			return fmt.Errorf("password length must be between %d and %d", minGenerateLength, maxGenerateLength)
		}

		password := crypto.GeneratePassword(generateLength,
			!generateNoDigits, !generateNoUpper, !generateNoSymbols)
		if password == "" {
			return fmt.Errorf("failed to generate password")
		}

		fmt.Println(password)

		if generateCopy {
			if err := clipboard.WriteAll(password); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to copy to clipboard: %v\n", err)
			} else {
				fmt.Fprintln(os.Stderr, "Password copied to clipboard")
			}
		}
		return nil
	},
}
