// Package apperr: таксономия ошибок ядра. Все ошибки локальные: отклоняем одну операцию,
// процесс продолжает работу. HTTP-слой сопоставляет их с 4xx через errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidRange        = errors.New("invalid range")
	ErrInvalidInput        = errors.New("invalid input")
	ErrNotFound            = errors.New("not found")
	ErrConcurrencyConflict = errors.New("concurrency conflict")
	ErrForbidden           = errors.New("forbidden")
)

// Wrap добавляет пояснение к sentinel-ошибке, сохраняя errors.Is.
func Wrap(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

// IsClient: ошибка по вине вызывающего (не требует алерта).
func IsClient(err error) bool {
	for _, k := range []error{ErrInvalidAmount, ErrInvalidRange, ErrInvalidInput, ErrNotFound, ErrConcurrencyConflict, ErrForbidden} {
		if errors.Is(err, k) {
			return true
		}
	}
	return false
}
