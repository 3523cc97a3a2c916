package utils

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/blipk/worksetsd/internal/shared/types"
)

// String length limits
const (
	MaxWorksetNameLength = 128
	MaxSessionNameLength = 128
	MaxAppIDLength       = 256
)

// ValidateWorksetName validates a workset name before any mutation.
// Names are trimmed by callers; an empty or malformed name is rejected.
func ValidateWorksetName(name string) error {
	return validateName(name, "workset name", MaxWorksetNameLength)
}

// ValidateSessionName validates a session name.
func ValidateSessionName(name string) error {
	return validateName(name, "session name", MaxSessionNameLength)
}

// ValidateAppID validates a favorite-application identifier.
func ValidateAppID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: app id is required", types.ErrValidation)
	}
	if utf8.RuneCountInString(id) > MaxAppIDLength {
		return fmt.Errorf("%w: app id must not exceed %d characters", types.ErrValidation, MaxAppIDLength)
	}
	if strings.Contains(id, "\x00") {
		return fmt.Errorf("%w: app id contains invalid characters", types.ErrValidation)
	}
	return nil
}

func validateName(name, field string, maxLen int) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: %s is required", types.ErrValidation, field)
	}
	if utf8.RuneCountInString(name) > maxLen {
		return fmt.Errorf("%w: %s must not exceed %d characters", types.ErrValidation, field, maxLen)
	}
	if strings.Contains(name, "\x00") {
		return fmt.Errorf("%w: %s contains invalid characters", types.ErrValidation, field)
	}
	return nil
}
