package config

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
)

// Accepted bcrypt cost range.
const (
	MinBcryptCost     = 10
	MaxBcryptCost     = 14
	DefaultBcryptCost = 12
)

// MaxPasswordBytes is the longest input bcrypt hashes, pepper included.
const MaxPasswordBytes = 72

// ErrPasswordTooLong is returned by HashPassword when the peppered password
// does not fit into bcrypt's input.
var ErrPasswordTooLong = errors.New("password too long")

// PasswordConfig hashes and verifies account passwords. A non-empty Pepper
// is appended to every password before hashing.
type PasswordConfig struct {
	BcryptCost int
	Pepper     string
}

// NewPasswordConfig reads BCRYPT_COST and PASSWORD_PEPPER.
func NewPasswordConfig() (*PasswordConfig, error) {
	cost, err := intFromEnv("BCRYPT_COST", DefaultBcryptCost)
	if err != nil {
		return nil, err
	}
	if cost < MinBcryptCost || cost > MaxBcryptCost {
		return nil, fmt.Errorf("BCRYPT_COST out of range: %d (must be %d-%d)", cost, MinBcryptCost, MaxBcryptCost)
	}
	pepper := os.Getenv("PASSWORD_PEPPER")
	if len(pepper) >= MaxPasswordBytes {
		return nil, fmt.Errorf("PASSWORD_PEPPER must be shorter than %d bytes", MaxPasswordBytes)
	}
	return &PasswordConfig{BcryptCost: cost, Pepper: pepper}, nil
}

// MaxLength is the longest password, in bytes, that HashPassword accepts.
func (c *PasswordConfig) MaxLength() int {
	return MaxPasswordBytes - len(c.Pepper)
}

// HashPassword hashes pw with the configured cost.
func (c *PasswordConfig) HashPassword(pw string) (string, error) {
	if len(pw) > c.MaxLength() {
		return "", fmt.Errorf("%w: at most %d bytes", ErrPasswordTooLong, c.MaxLength())
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pw+c.Pepper), c.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether pw matches storedHash.
func (c *PasswordConfig) VerifyPassword(pw, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(pw+c.Pepper)) == nil
}

// NeedsRehash reports whether storedHash was made with a different cost than
// the configured one. Unparseable hashes need a rehash too.
func (c *PasswordConfig) NeedsRehash(storedHash string) bool {
	cost, err := bcrypt.Cost([]byte(storedHash))
	return err != nil || cost != c.BcryptCost
}
