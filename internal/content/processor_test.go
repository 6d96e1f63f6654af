package content

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appendSuffix(suffix string) Modifier {
	return SimpleFunc(func(input string) string { return input + suffix })
}

func rot13(input string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return 'a' + (r-'a'+13)%26
		case r >= 'A' && r <= 'Z':
			return 'A' + (r-'A'+13)%26
		}
		return r
	}, input)
}

type rot13Modifier struct{}

func (rot13Modifier) Modify(input string) (string, error) { return rot13(input), nil }

func TestProcessor_Order(t *testing.T) {
	t.Parallel()

	proc := NewProcessor().
		AddModifier(appendSuffix("1")).
		AddModifier(appendSuffix("2")).
		AddModifier(appendSuffix("3"))

	got, err := proc.Process("x")
	require.NoError(t, err)
	assert.Equal(t, "x123", got)
	assert.Equal(t, "x123", proc.Output())
}

func TestProcessor_OrderMatters(t *testing.T) {
	t.Parallel()

	nl := NlToBr(NlToBrOptions{})
	strip, err := StripTags(StripTagsOptions{})
	require.NoError(t, err)

	forward, err := NewProcessor(nl, strip).Process("a\nb")
	require.NoError(t, err)
	reversed, err := NewProcessor(strip, nl).Process("a\nb")
	require.NoError(t, err)

	assert.Equal(t, "ab", forward)
	assert.Equal(t, "a<br>b", reversed)
	assert.NotEqual(t, forward, reversed)
}

func TestProcessor_Composition(t *testing.T) {
	t.Parallel()

	bb, err := BBCode(BBCodeOptions{})
	require.NoError(t, err)
	words, err := WordsFilter(WordsFilterOptions{Words: []string{"darn"}})
	require.NoError(t, err)
	mods := []Modifier{bb, words, NlToBr(NlToBrOptions{}), URLToLink(URLToLinkOptions{})}

	input := "[b]darn[/b]\nsee https://example.com"
	want := input
	for _, mod := range mods {
		want, err = mod.Modify(want)
		require.NoError(t, err)
	}

	got, err := NewProcessor(mods...).Process(input)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t,
		`<strong>[censored]</strong><br>see <a href="https://example.com">https://example.com</a>`,
		got)
}

func TestProcessor_EmptyChain(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "plain", "<p>html</p>", "héllo\n"} {
		proc := NewProcessor()
		got, err := proc.Process(input)
		require.NoError(t, err)
		assert.Equal(t, input, got)
		assert.Equal(t, input, proc.Output())
	}
}

func TestProcessor_OutputBeforeProcess(t *testing.T) {
	t.Parallel()

	proc := NewProcessor(appendSuffix("!"))
	assert.Empty(t, proc.Output())
	assert.Equal(t, 1, proc.Len())
}

func TestProcessor_CallableEquivalence(t *testing.T) {
	t.Parallel()

	byFunc := NewProcessor().AddFunc(rot13)
	byObject := NewProcessor().AddModifier(rot13Modifier{})

	for _, input := range []string{"PHP 4.3.0", "", "Hello, World"} {
		fromFunc, err := byFunc.Process(input)
		require.NoError(t, err)
		fromObject, err := byObject.Process(input)
		require.NoError(t, err)
		assert.Equal(t, fromObject, fromFunc)
	}
	got, err := NewProcessor().AddFunc(rot13).Process("PHP 4.3.0")
	require.NoError(t, err)
	assert.Equal(t, "CUC 4.3.0", got)
}

func TestProcessor_NoCarryOver(t *testing.T) {
	t.Parallel()

	proc := NewProcessor(appendSuffix("!"))
	first, err := proc.Process("a")
	require.NoError(t, err)
	second, err := proc.Process("b")
	require.NoError(t, err)

	assert.Equal(t, "a!", first)
	assert.Equal(t, "b!", second)
	assert.Equal(t, "b!", proc.Output())
}

func TestProcessor_AddBetweenCalls(t *testing.T) {
	t.Parallel()

	proc := NewProcessor(appendSuffix("1"))
	_, err := proc.Process("x")
	require.NoError(t, err)
	proc.AddModifier(appendSuffix("1"))
	got, err := proc.Process("x")
	require.NoError(t, err)
	assert.Equal(t, "x11", got, "duplicates are kept")
}

func TestProcessor_ErrorAbortsChain(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	ran := false

	proc := NewProcessor(appendSuffix("1"))
	_, err := proc.Process("prior")
	require.NoError(t, err)
	assert.Equal(t, "prior1", proc.Output())

	proc.
		AddModifier(WithName("failing", ModifierFunc(func(string) (string, error) { return "", cause }))).
		AddFunc(func(input string) string {
			ran = true
			return input
		})

	got, err := proc.Process("input")
	require.Error(t, err)
	assert.Empty(t, got)
	assert.Empty(t, proc.Output(), "no partial output is published")
	assert.False(t, ran)
	require.ErrorIs(t, err, cause)

	var modErr *ModifierError
	require.ErrorAs(t, err, &modErr)
	assert.Equal(t, 1, modErr.Index)
	assert.Equal(t, "failing", modErr.Modifier)
	assert.Equal(t, "input1", modErr.Input)
	assert.Contains(t, err.Error(), "modifier 1 (failing)")
}

func TestChain_ErrorNamesUnnamedModifier(t *testing.T) {
	t.Parallel()

	_, err := Chain(ModifierFunc(func(string) (string, error) {
		return "", errors.New("nope")
	}))(strings.Repeat("x", 200))

	var modErr *ModifierError
	require.ErrorAs(t, err, &modErr)
	assert.Equal(t, "content.ModifierFunc", modErr.Modifier)
	assert.Equal(t, strings.Repeat("x", maxErrorExcerpt)+"...", modErr.Input)
}

func TestProcessor_Nested(t *testing.T) {
	t.Parallel()

	inner := NewProcessor(appendSuffix("b"), appendSuffix("c"))
	outer := NewProcessor(appendSuffix("a"), inner, appendSuffix("d"))

	got, err := outer.Process("")
	require.NoError(t, err)
	assert.Equal(t, "abcd", got)
}

func TestProcessor_Concurrent(t *testing.T) {
	t.Parallel()

	proc := NewProcessor(NlToBr(NlToBrOptions{}), appendSuffix("."))
	var wg sync.WaitGroup
	for idx := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			input := strings.Repeat("line\n", idx)
			got, err := proc.Process(input)
			assert.NoError(t, err)
			assert.Equal(t, strings.Repeat("line<br>", idx)+".", got)
		}()
	}
	wg.Wait()
}

func TestProcessor_NilModifierPanics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { NewProcessor().AddModifier(nil) })
	assert.Panics(t, func() { NewProcessor().AddFunc(nil) })
}
