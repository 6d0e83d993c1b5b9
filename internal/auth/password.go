package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"campus-events/internal/apperr"
)

// PasswordCost matches the 10 rounds the existing accounts were hashed with.
const PasswordCost = bcrypt.DefaultCost

func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), PasswordCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword returns apperr.ErrInvalidCredentials on mismatch.
func CheckPassword(hash, plain string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return apperr.ErrInvalidCredentials
	}
	return fmt.Errorf("compare password: %w", err)
}
