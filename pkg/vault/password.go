package vault

import (
	"fmt"
	"regexp"
)

// Master password length limits enforced at initialization.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 128
)

// PasswordStrength represents the strength level of a master password.
type PasswordStrength int

const (
	PasswordWeak PasswordStrength = iota
	PasswordFair
	PasswordGood
	PasswordStrong
)

// String returns a human-readable representation of password strength.
func (s PasswordStrength) String() string {
	switch s {
	case PasswordWeak:
		return "weak"
	case PasswordFair:
		return "fair"
	case PasswordGood:
		return "good"
	case PasswordStrong:
		return "strong"
	default:
		return "unknown"
	}
}

// PasswordValidationResult contains the result of master password validation.
type PasswordValidationResult struct {
	Valid    bool             // Whether the password meets minimum requirements
	Strength PasswordStrength // Estimated strength
	Warnings []string         // Suggestions for improvement (not errors)
}

var (
	upperRegex   = regexp.MustCompile(`[A-Z]`)
	lowerRegex   = regexp.MustCompile(`[a-z]`)
	digitRegex   = regexp.MustCompile(`\d`)
	specialRegex = regexp.MustCompile(`[^a-zA-Z0-9]`)
)

// ValidateMasterPassword checks length requirements (errors) and complexity
// (warnings only) for a candidate master password.
func ValidateMasterPassword(password string) *PasswordValidationResult {
	result := &PasswordValidationResult{
		Valid:    true,
		Strength: PasswordFair,
	}

	if len(password) < MinPasswordLength {
		result.Valid = false
		result.Strength = PasswordWeak
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
		return result
	}
	if len(password) > MaxPasswordLength {
		result.Valid = false
		result.Strength = PasswordWeak
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Password must be at most %d characters", MaxPasswordLength))
		return result
	}

	complexity := 0
	for _, re := range []*regexp.Regexp{upperRegex, lowerRegex, digitRegex, specialRegex} {
		if re.MatchString(password) {
			complexity++
		}
	}

	if complexity < 2 {
		result.Warnings = append(result.Warnings,
			"Consider using a mix of uppercase, lowercase, numbers, and symbols")
	}
	if len(password) < 12 {
		result.Warnings = append(result.Warnings,
			"Longer passwords (12+ characters) are more secure")
	}

	switch {
	case complexity >= 3 && len(password) >= 16:
		result.Strength = PasswordStrong
	case complexity >= 2 && len(password) >= 12:
		result.Strength = PasswordGood
	case complexity >= 2 || len(password) >= 12:
		result.Strength = PasswordFair
	default:
		result.Strength = PasswordWeak
	}

	return result
}
