package utils

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 80
	MaxEmailLength    = 120

	MaxMoodDescriptionLength = 100
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)
	emailRegex    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// ValidateUsername validates username format
// Rules: 3-80 characters; letters, numbers, underscores, dots and dashes;
// must start with a letter or number
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)

	if len(username) < MinUsernameLength {
		return &ValidationError{Field: "username", Message: "Username must be at least 3 characters"}
	}
	if len(username) > MaxUsernameLength {
		return &ValidationError{Field: "username", Message: "Username must be at most 80 characters"}
	}
	if !usernameRegex.MatchString(username) {
		return &ValidationError{Field: "username", Message: "Username can only contain letters, numbers, underscores, dots and dashes"}
	}
	if first := rune(username[0]); !unicode.IsLetter(first) && !unicode.IsNumber(first) {
		return &ValidationError{Field: "username", Message: "Username must start with a letter or number"}
	}
	return nil
}

func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return &ValidationError{Field: "email", Message: "Email is required"}
	}
	if len(email) > MaxEmailLength {
		return &ValidationError{Field: "email", Message: "Email must be at most 120 characters"}
	}
	if !emailRegex.MatchString(email) {
		return &ValidationError{Field: "email", Message: "Email is not valid"}
	}
	return nil
}

// ValidateMoodDescription caps the description at the column width,
// counted in characters.
func ValidateMoodDescription(desc string) error {
	if utf8.RuneCountInString(desc) > MaxMoodDescriptionLength {
		return &ValidationError{Field: "mood_description", Message: "Mood description must be at most 100 characters"}
	}
	return nil
}

// NormalizeUsername converts username to lowercase for storage
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
