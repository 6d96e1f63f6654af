package content

// Modifier transforms text, returning the modified text or an error.
type Modifier interface {
	// Modify transforms input, returning modified text or an error.
	Modify(input string) (string, error)
}

// Named is implemented by modifiers that describe themselves in errors and
// logs. Modifiers without a name are reported by their Go type.
type Named interface {
	Name() string
}

// ModifierFunc is a [Modifier] that can be represented just by the
// [Modifier.Modify] method.
type ModifierFunc func(input string) (string, error)

// Modify satisfies [Modifier].
func (fn ModifierFunc) Modify(input string) (string, error) { return fn(input) }

// SimpleFunc is a [Modifier] for transforms that cannot fail.
type SimpleFunc func(input string) string

// Modify satisfies [Modifier].
func (fn SimpleFunc) Modify(input string) (string, error) { return fn(input), nil }

// named attaches a name to a modifier without changing its behavior.
type named struct {
	Modifier

	name string
}

func (n named) Name() string { return n.name }

// WithName returns a [Modifier] that behaves like mod and reports name in
// errors and logs.
func WithName(name string, mod Modifier) Modifier {
	return named{Modifier: mod, name: name}
}
