package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a record does not exist or is outside the caller's scope
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the caller may see a record but not change it
	ErrForbidden = errors.New("not allowed")
	// ErrConflict is returned when a change clashes with the record's current state
	ErrConflict = errors.New("conflict")
	// ErrInvalid is returned for input the sandbox refuses to store
	ErrInvalid = errors.New("invalid input")
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// notFound maps gorm's missing-record error onto ErrNotFound
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %w", what, ErrNotFound)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}
