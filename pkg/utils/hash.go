package utils

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashOrRead returns secret unchanged when it already is a bcrypt hash, otherwise its bcrypt hash.
// Operators may configure ADMIN_PASSWORD either way.
func HashOrRead(secret string) ([]byte, error) {
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(secret, prefix) {
			return []byte(secret), nil
		}
	}
	return bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
}
