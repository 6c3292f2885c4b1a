package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"

	"github.com/jrjohn/arcana-commerce-go/internal/config"
)

const (
	// DefaultCost is the default bcrypt cost
	DefaultCost = 12
)

// PasswordHasher hashes passwords, reset codes and reset link tokens.
// Inputs are peppered with the configured hash secret through HMAC-SHA256
// before bcrypt, which keeps them under bcrypt's 72 byte limit.
type PasswordHasher struct {
	cost   int
	pepper []byte
}

// NewPasswordHasher creates a new PasswordHasher instance
func NewPasswordHasher(cfg *config.SecurityConfig) *PasswordHasher {
	cost := cfg.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &PasswordHasher{cost: cost, pepper: []byte(cfg.HashSecret)}
}

func (h *PasswordHasher) peppered(secret string) []byte {
	if len(h.pepper) == 0 {
		return []byte(secret)
	}
	mac := hmac.New(sha256.New, h.pepper)
	mac.Write([]byte(secret))
	return []byte(hex.EncodeToString(mac.Sum(nil)))
}

// Hash generates a bcrypt hash of the password
func (h *PasswordHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword(h.peppered(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Verify checks if the password matches the hash. An empty password never matches.
func (h *PasswordHasher) Verify(password, hash string) bool {
	if password == "" || hash == "" {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), h.peppered(password))
	return err == nil
}
