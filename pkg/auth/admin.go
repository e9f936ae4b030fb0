package auth

import (
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrForbidden is returned for any missing or wrong admin credential.
	// Deliberately generic: callers learn nothing about which check failed.
	ErrForbidden = errors.New("forbidden")

	// ErrNotConfigured is returned when a required secret is missing from
	// the environment. This is a deployment mistake, not a caller error.
	ErrNotConfigured = errors.New("admin credentials not configured")
)

// BcryptCost is the cost factor used when hashing admin passwords
const BcryptCost = 12

// AdminAuthenticator verifies the two admin credentials: the username and
// pre-hashed password pair used by the login endpoint, and the shared secret
// that gates every administrative operation.
type AdminAuthenticator struct {
	username     string
	passwordHash string
	secretKey    string
}

// NewAdminAuthenticator creates an authenticator from operator-configured
// values. Empty values are allowed here; the corresponding checks fail
// closed with ErrNotConfigured when exercised.
func NewAdminAuthenticator(username, passwordHash, secretKey string) *AdminAuthenticator {
	return &AdminAuthenticator{
		username:     username,
		passwordHash: passwordHash,
		secretKey:    secretKey,
	}
}

// VerifyLogin checks an admin username/password pair against the configured
// bcrypt hash. Returns ErrNotConfigured when no hash is set (fail closed).
func (a *AdminAuthenticator) VerifyLogin(username, password string) (bool, error) {
	if a.passwordHash == "" {
		return false, ErrNotConfigured
	}

	if subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) != 1 {
		// Burn a bcrypt comparison anyway so a wrong username costs the
		// same as a wrong password.
		bcrypt.CompareHashAndPassword([]byte(a.passwordHash), []byte(password))
		return false, nil
	}

	err := bcrypt.CompareHashAndPassword([]byte(a.passwordHash), []byte(password))
	return err == nil, nil
}

// VerifySecret checks the admin shared secret in constant time
func (a *AdminAuthenticator) VerifySecret(secret string) error {
	if a.secretKey == "" {
		return ErrNotConfigured
	}
	if subtle.ConstantTimeCompare([]byte(secret), []byte(a.secretKey)) != 1 {
		return ErrForbidden
	}
	return nil
}

// HashPassword produces the bcrypt hash an operator stores in the
// environment for VerifyLogin
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
