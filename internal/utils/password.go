package utils

import "golang.org/x/crypto/bcrypt"

// HashAccessCode returns the bcrypt hash of an access code.  Used by the
// seeding tool to print values for ACCESS_CODE_HASH.
func HashAccessCode(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyAccessCode compares a bcrypt hash with a plain code.  An empty
// hash never matches.
func VerifyAccessCode(hash, plain string) bool {
	if hash == "" || plain == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
