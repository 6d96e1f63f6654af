// Package content contains modifiers that post-process editor output, and the
// processor that runs them as an ordered chain.
package content

import "fmt"

const (
	// ErrInvalidOption is returned when a modifier is constructed with an
	// unusable option value.
	ErrInvalidOption = Error("invalid modifier option")
	// ErrUnknownVariable is returned by [ParseVariables] configured with
	// [MissingError] when a token has no value.
	ErrUnknownVariable = Error("unknown variable")
)

// Error is an error type for modifier construction and transformation
// failures.
type Error string

// Error satisfies [error].
func (e Error) Error() string { return string(e) }

func invalidOption(modifier, option string, format string, args ...any) error {
	return fmt.Errorf("%w: %s %s: %s", ErrInvalidOption, modifier, option, fmt.Sprintf(format, args...))
}
