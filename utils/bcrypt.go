package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes an employee password at bcrypt's default cost. Each
// hash records the cost it was generated with, so raising the cost later
// only affects newly set passwords.
func HashPassword(plain string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
}

// ComparePassword returns nil only when plain matches the stored hash.
func ComparePassword(hashed string, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}
