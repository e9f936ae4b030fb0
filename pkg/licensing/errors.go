package licensing

import (
	"errors"
	"fmt"
)

var (
	// ErrLicenseNotFound is returned when a referenced license key does not exist
	ErrLicenseNotFound = errors.New("license not found")

	// ErrForbidden is returned when an admin credential or shared secret is
	// missing or wrong. Deliberately carries no detail about which check failed.
	ErrForbidden = errors.New("forbidden")
)

// ValidationError indicates malformed administrative input (caller error)
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ConfigurationError indicates a required secret or setting is missing from
// the operating environment. It surfaces as a server-side failure, not a
// caller error.
type ConfigurationError struct {
	Setting string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", e.Setting)
}

// IsNotFound reports whether err wraps ErrLicenseNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrLicenseNotFound)
}
