package content

import (
	"fmt"
	"unicode/utf8"
)

// maxErrorExcerpt bounds how much of the failing input is kept in a
// [ModifierError].
const maxErrorExcerpt = 64

// ModifierError reports which modifier in a chain failed and on what input.
type ModifierError struct {
	// Index is the zero-based position of the modifier in the chain.
	Index int
	// Modifier is the modifier's name, or its Go type if it is not [Named].
	Modifier string
	// Input is an excerpt of the text the modifier received.
	Input string
	// Err is the underlying failure.
	Err error
}

func (e *ModifierError) Error() string {
	return fmt.Sprintf("modifier %d (%s) failed on input %q: %v", e.Index, e.Modifier, e.Input, e.Err)
}

func (e *ModifierError) Unwrap() error { return e.Err }

// Chain chains together a set of modifiers, failing fast if any modifier in
// the chain errors. The returned function holds no state and is safe for
// concurrent use when the modifiers are.
func Chain(modifiers ...Modifier) ModifierFunc {
	return func(input string) (string, error) {
		for idx, modifier := range modifiers {
			output, err := modifier.Modify(input)
			if err != nil {
				return "", &ModifierError{
					Index:    idx,
					Modifier: modifierName(modifier),
					Input:    excerpt(input),
					Err:      err,
				}
			}
			input = output
		}
		return input, nil
	}
}

func modifierName(modifier Modifier) string {
	if n, ok := modifier.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", modifier)
}

// excerpt truncates s to at most maxErrorExcerpt runes.
func excerpt(s string) string {
	if utf8.RuneCountInString(s) <= maxErrorExcerpt {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxErrorExcerpt]) + "..."
}
