package content

import (
	"log/slog"
	"sync"
)

// Processor runs text through an ordered list of modifiers. Modifiers run in
// exactly the order they were added; they are never reordered or
// deduplicated.
//
// A Processor may be reused: each call to [Processor.Process] reruns the full
// chain from scratch on its input. It is safe for concurrent use, and every
// Process call returns its own result, so callers sharing a Processor should
// prefer that value over [Processor.Output].
type Processor struct {
	mu        sync.Mutex
	modifiers []Modifier
	output    string
}

// NewProcessor creates a Processor with the given modifiers registered in
// order.
func NewProcessor(modifiers ...Modifier) *Processor {
	proc := &Processor{}
	for _, mod := range modifiers {
		proc.AddModifier(mod)
	}
	return proc
}

// AddModifier appends mod to the chain and returns the Processor for
// chaining. It panics if mod is nil.
func (p *Processor) AddModifier(mod Modifier) *Processor {
	if mod == nil {
		panic("content: nil modifier")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.modifiers = append(p.modifiers, mod)
	return p
}

// AddFunc appends a bare transform function to the chain and returns the
// Processor for chaining. It panics if fn is nil.
func (p *Processor) AddFunc(fn func(string) string) *Processor {
	if fn == nil {
		panic("content: nil modifier func")
	}
	return p.AddModifier(SimpleFunc(fn))
}

// Len returns the number of registered modifiers.
func (p *Processor) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.modifiers)
}

// Process runs input through every registered modifier and returns the final
// text, which also becomes the value of [Processor.Output]. With no modifiers
// the input is returned unchanged.
//
// If a modifier fails, the remaining modifiers are skipped, the stored output
// is reset to the empty string and a [*ModifierError] is returned.
func (p *Processor) Process(input string) (string, error) {
	p.mu.Lock()
	modifiers := make([]Modifier, len(p.modifiers))
	copy(modifiers, p.modifiers)
	p.mu.Unlock()

	slog.Debug("processing text",
		slog.Int("modifiers", len(modifiers)),
		slog.Int("input_bytes", len(input)))

	output, err := Chain(modifiers...)(input)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.output = ""
		return "", err
	}
	p.output = output
	return output, nil
}

// Output returns the result of the most recent successful call to
// [Processor.Process]. Before any call, or after a failed one, it returns the
// empty string.
func (p *Processor) Output() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.output
}

// Modify satisfies [Modifier], allowing processors to be nested.
func (p *Processor) Modify(input string) (string, error) {
	return p.Process(input)
}
