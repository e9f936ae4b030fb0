package validation

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// Validation constants
	MaxFeatureNames   = 100
	MaxFeatureNameLen = 100
	MaxOwnerIDLen     = 200

	featureNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
)

func init() {
	validate = validator.New()
}

// Struct validates a request struct by its validate tags
func Struct(req any) error {
	if req == nil {
		return errors.New("request cannot be nil")
	}
	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// ValidateFeatureNames checks a feature grant list beyond what struct tags
// can express
func ValidateFeatureNames(names []string) error {
	if len(names) > MaxFeatureNames {
		return fmt.Errorf("features: maximum %d feature names allowed, got %d", MaxFeatureNames, len(names))
	}
	for _, name := range names {
		if len(name) > MaxFeatureNameLen {
			return fmt.Errorf("features: name '%s' exceeds maximum length of %d characters", name, MaxFeatureNameLen)
		}
		if !featureNamePattern.MatchString(name) {
			return fmt.Errorf("features: name '%s' contains invalid characters (lowercase alphanumeric and underscore, starting with a letter)", name)
		}
	}
	return nil
}

// formatValidationError converts validator errors into readable messages
func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, fieldErr := range validationErrors {
			return fmt.Errorf("%s: failed '%s' validation", fieldErr.Field(), fieldErr.Tag())
		}
	}
	return err
}
