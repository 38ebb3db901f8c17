package service

import "golang.org/x/crypto/bcrypt"

// PasswordHasher wraps bcrypt with a tunable cost. Hashing salts per call, so
// the same plaintext never produces the same digest twice.
type PasswordHasher struct {
	cost int
}

func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = 12
	}
	return &PasswordHasher{cost: cost}
}

func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify returns false on any mismatch, including malformed digests.
func (h *PasswordHasher) Verify(plaintext string, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
