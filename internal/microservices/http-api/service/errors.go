package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Error taxonomy shared by every service; handlers map them to status codes with errors.Is
var (
	ErrUnauthenticated  = errors.New("authentication required")
	ErrForbidden        = errors.New("only the creator may modify this prompt")
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("not found")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// storeErr classifies a repository error: a missing row becomes ErrNotFound,
// anything else is a store failure. The driver error is kept in the message only.
func storeErr(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %v", op, ErrStoreUnavailable, err)
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// validID reports whether id can name a row; malformed ids never reach the store
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
