package store

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// HashCost is the bcrypt cost for new password hashes. Tests lower it.
var HashCost = bcrypt.DefaultCost

// HashPassword hashes the password
func HashPassword(password string) (string, error) {
	if len(password) > 72 {
		return "", invalid("password must be at most 72 bytes")
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), HashCost)
	return string(bytes), err
}

// CheckPasswordHash checks if the password matches the hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func validatePassword(password string) error {
	switch {
	case len(password) < 6:
		return invalid("password must be at least 6 characters")
	case len(password) > 72:
		return invalid("password must be at most 72 bytes")
	}
	return nil
}

var errNoRole = errors.New("role not seeded")
