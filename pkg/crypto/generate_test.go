package crypto

import (
	"strings"
	"testing"
)

func TestGeneratePasswordLength(t *testing.T) {
	for _, length := range []int{1, 8, 20, 64, 256} {
		password := GeneratePassword(length, true, true, true)
		if len(password) != length {
			t.Errorf("length %d: got %d characters", length, len(password))
		}
	}

	if GeneratePassword(0, true, true, true) != "" {
		t.Error("zero length should produce empty string")
	}
	if GeneratePassword(-5, true, true, true) != "" {
		t.Error("negative length should produce empty string")
	}
}

func TestGeneratePasswordCharsets(t *testing.T) {
	tests := []struct {
		name    string
		digits  bool
		upper   bool
		symbols bool
		allowed string
	}{
		{"lowercase only", false, false, false, charsetLowercase},
		{"with digits", true, false, false, charsetLowercase + charsetDigits},
		{"with upper", false, true, false, charsetLowercase + charsetUppercase},
		{"with symbols", false, false, true, charsetLowercase + charsetSymbols},
		{"all classes", true, true, true, charsetLowercase + charsetUppercase + charsetDigits + charsetSymbols},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			password := GeneratePassword(200, tt.digits, tt.upper, tt.symbols)
			for _, c := range password {
				if !strings.ContainsRune(tt.allowed, c) {
					t.Fatalf("character %q outside allowed charset", c)
				}
			}
		})
	}
}

func TestGeneratePasswordUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		p := GeneratePassword(24, true, true, true)
		if seen[p] {
			t.Fatalf("duplicate password generated: %q", p)
		}
		seen[p] = true
	}
}
