package calculator

import (
	"errors"
	"fmt"
)

// Kind classifies calculation failures.
type Kind string

const (
	// KindInvalidInput means the caller supplied an order or pack-size set that cannot be normalized.
	KindInvalidInput Kind = "InvalidInput"
	// KindInfeasible means no combination of the pack sizes covers the order within the search horizon.
	KindInfeasible Kind = "Infeasible"
)

var (
	// ErrInvalidInput is matched by every InvalidInput failure.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInfeasible is matched by every Infeasible failure.
	ErrInfeasible = errors.New("order cannot be fulfilled with the provided pack sizes")
)

// Error is a typed calculation failure carrying a human-readable message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap lets errors.Is match the sentinel for the error's kind.
func (e *Error) Unwrap() error {
	switch e.Kind {
	case KindInvalidInput:
		return ErrInvalidInput
	case KindInfeasible:
		return ErrInfeasible
	default:
		return nil
	}
}

// KindOf reports the kind of a calculation error, if err is one.
func KindOf(err error) (Kind, bool) {
	var calcErr *Error
	if errors.As(err, &calcErr) {
		return calcErr.Kind, true
	}
	return "", false
}

func invalidInput(format string, args ...any) error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func infeasible(format string, args ...any) error {
	return &Error{Kind: KindInfeasible, Message: fmt.Sprintf(format, args...)}
}
