package auth

import "golang.org/x/crypto/bcrypt"

// PasswordVerifier abstracts how secrets are hashed and compared. Raw
// secrets never reach the repository; only hashes are stored.
type PasswordVerifier interface {
	Hash(secret string) (string, error)
	Verify(supplied, storedHash string) bool
}

// BcryptVerifier implements PasswordVerifier using bcrypt.
type BcryptVerifier struct {
	cost int
}

// NewBcryptVerifier constructs a verifier with the given cost. Costs
// outside the bcrypt range fall back to the library default.
func NewBcryptVerifier(cost int) *BcryptVerifier {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptVerifier{cost: cost}
}

// Hash derives a salted one-way hash of the secret.
func (v *BcryptVerifier) Hash(secret string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), v.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify compares a supplied secret against a stored hash.
func (v *BcryptVerifier) Verify(supplied, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(supplied)) == nil
}

var _ PasswordVerifier = (*BcryptVerifier)(nil)
