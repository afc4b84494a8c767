package crypto

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// Character set constants
const (
	charsetLowercase = "abcdefghijklmnopqrstuvwxyz"
	charsetUppercase = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	charsetDigits    = "0123456789"
	charsetSymbols   = "!@#$%^&*()_+-=[]{}|;:,.<>?"
)

// GeneratePassword returns a random password of the given length drawn
// uniformly from a charset built from lowercase letters plus the optional
// classes, in that concatenation order. Selection uses crypto/rand; an
// empty charset or non-positive length yields an empty string.
func GeneratePassword(length int, useDigits, useUpper, useSymbols bool) string {
	var charset strings.Builder
	charset.WriteString(charsetLowercase)
	if useUpper {
		charset.WriteString(charsetUppercase)
	}
	if useDigits {
		charset.WriteString(charsetDigits)
	}
	if useSymbols {
		charset.WriteString(charsetSymbols)
	}

	return generateFromCharset(charset.String(), length)
}

// generateFromCharset draws each character independently and uniformly from
// charset using a cryptographically secure source.
func generateFromCharset(charset string, length int) string {
	if length <= 0 || len(charset) == 0 {
		return ""
	}

	charsetLen := big.NewInt(int64(len(charset)))
	password := make([]byte, length)

	for i := 0; i < length; i++ {
		idx, err := rand.Int(rand.Reader, charsetLen)
		if err != nil {
			return ""
		}
		password[i] = charset[idx.Int64()]
	}

	return string(password)
}
