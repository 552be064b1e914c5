/*
Package randx provides functions for generating cryptographically secure random strings and unique identifiers.

It is used for connection and message ids and for the random part of stored object names.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	// Base62Chars defines the character set used for Base62 encoding (0-9, A-Z, a-z).
	Base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// Base62Len is the total number of characters in the Base62 character set (62).
	Base62Len = int64(len(Base62Chars))

	// ObjectNameLength is the length of a generated object name.
	ObjectNameLength = 16
)

// Base62 returns n characters drawn from Base62Chars using crypto/rand.
func Base62(n int) (string, error) {
	result := make([]byte, n)

	for i := range n {
		num, err := rand.Int(rand.Reader, big.NewInt(Base62Len))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %v", err)
		}

		result[i] = Base62Chars[num.Int64()]
	}

	return string(result), nil
}

// ObjectName returns a random Base62 object name of ObjectNameLength characters.
// It falls back to a dashless UUID if the system random source fails.
func ObjectName() string {
	name, err := Base62(ObjectNameLength)
	if err != nil {
		return strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	return name
}

// IsBase62 reports whether s is non-empty and made only of Base62Chars.
func IsBase62(s string) bool {
	if s == "" {
		return false
	}

	for _, char := range s {
		if !strings.ContainsRune(Base62Chars, char) {
			return false
		}
	}

	return true
}

// ConnectionID generates a UUID v4 string identifying one live connection.
func ConnectionID() string {
	return uuid.New().String()
}

// MessageID generates a standard UUID v4 string to serve as a unique identifier for a message.
func MessageID() string {
	return uuid.New().String()
}
