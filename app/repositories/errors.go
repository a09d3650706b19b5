package repositories

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/carby/pkg/orm"
)

var (
	// ErrNotFound is returned when a referenced row does not exist.
	ErrNotFound = orm.ErrNotFound

	// ErrDuplicateIdentity is matched by every *DuplicateError.
	ErrDuplicateIdentity = errors.New("identity already registered")

	// ErrInconsistentConfiguration is returned when an order names a
	// configuration that belongs to a different car.
	ErrInconsistentConfiguration = errors.New("configuration does not belong to car")
)

// DuplicateError names the unique field that collided at registration.
type DuplicateError struct {
	Field string // "email", "phone" or "username"
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s already registered", e.Field)
}

// Is lets errors.Is(err, ErrDuplicateIdentity) match any field.
func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicateIdentity
}

// isUniqueViolation recognises unique-index failures across drivers. gorm
// translates most of them to ErrDuplicatedKey; the message checks cover
// drivers without a translator.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}
