package utils

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword generates a bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// CheckPassword compares a bcrypt hashed password with its possible plaintext equivalent.
func CheckPassword(password, hashedPassword string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}

// Credentials is a login e-mail with its bcrypt password hash.
type Credentials struct {
	Email        string
	PasswordHash string
}

// NewCredentials uses hash when given, otherwise hashes password.
func NewCredentials(email, password, hash string) (Credentials, error) {
	if hash == "" && password != "" {
		var err error
		if hash, err = HashPassword(password); err != nil {
			return Credentials{}, err
		}
	}
	return Credentials{Email: strings.TrimSpace(email), PasswordHash: hash}, nil
}

// Matches reports whether email (case-insensitive) and password are these credentials.
func (c Credentials) Matches(email, password string) bool {
	if c.Email == "" || c.PasswordHash == "" {
		return false
	}
	if !strings.EqualFold(strings.TrimSpace(email), c.Email) {
		return false
	}
	return CheckPassword(password, c.PasswordHash)
}
