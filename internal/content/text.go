package content

import (
	"fmt"
	"html"
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// NlToBrOptions configures [NlToBr].
type NlToBrOptions struct {
	// Search is the literal text to replace. Defaults to "\n".
	Search string
	// Replace is the text inserted in its place. Defaults to "<br>".
	Replace string
}

// NlToBr replaces line breaks (or any configured literal) with HTML breaks.
func NlToBr(opts NlToBrOptions) Modifier {
	search, replace := opts.Search, opts.Replace
	if search == "" {
		search = "\n"
	}
	if replace == "" {
		replace = "<br>"
	}
	return WithName("nl_to_br", SimpleFunc(func(input string) string {
		return strings.ReplaceAll(input, search, replace)
	}))
}

// MissingPolicy controls what [ParseVariables] does with tokens that have no
// value.
type MissingPolicy int

const (
	// MissingKeep leaves unknown tokens untouched.
	MissingKeep MissingPolicy = iota
	// MissingRemove replaces unknown tokens with the empty string.
	MissingRemove
	// MissingError fails the modifier with [ErrUnknownVariable].
	MissingError
)

// ParseVariablesOptions configures [ParseVariables].
type ParseVariablesOptions struct {
	// Accept maps variable names to their values.
	Accept map[string]string
	// In is the delimiter wrapping variable names. Defaults to "%".
	In string
	// OnMissing controls unknown tokens. Defaults to [MissingKeep].
	OnMissing MissingPolicy
	// Escape HTML-escapes values before insertion.
	Escape bool
}

type parseVariables struct {
	pattern   *regexp.Regexp
	accept    map[string]string
	onMissing MissingPolicy
	escape    bool
}

// ParseVariables replaces delimiter-wrapped tokens such as %name% with values
// from the accept map.
func ParseVariables(opts ParseVariablesOptions) (Modifier, error) {
	delim := opts.In
	if delim == "" {
		delim = "%"
	}
	if utf8.RuneCountInString(delim) != 1 {
		return nil, invalidOption("parse_variables", "in", "must be a single character, got %q", delim)
	}
	if r, _ := utf8.DecodeRuneInString(delim); unicode.IsSpace(r) || unicode.IsLetter(r) || unicode.IsDigit(r) {
		return nil, invalidOption("parse_variables", "in", "must be punctuation or a symbol, got %q", delim)
	}
	if opts.OnMissing < MissingKeep || opts.OnMissing > MissingError {
		return nil, invalidOption("parse_variables", "on_missing", "unknown policy %d", opts.OnMissing)
	}

	quoted := regexp.QuoteMeta(delim)
	accept := make(map[string]string, len(opts.Accept))
	for key, value := range opts.Accept {
		accept[key] = value
	}
	return &parseVariables{
		pattern:   regexp.MustCompile(quoted + `([\p{L}\p{N}_.-]+)` + quoted),
		accept:    accept,
		onMissing: opts.OnMissing,
		escape:    opts.Escape,
	}, nil
}

func (p *parseVariables) Name() string { return "parse_variables" }

func (p *parseVariables) Modify(input string) (string, error) {
	var missing []string
	output := p.pattern.ReplaceAllStringFunc(input, func(token string) string {
		name := p.pattern.FindStringSubmatch(token)[1]
		value, ok := p.accept[name]
		if !ok {
			switch p.onMissing {
			case MissingRemove:
				return ""
			case MissingError:
				missing = append(missing, name)
			}
			return token
		}
		if p.escape {
			return html.EscapeString(value)
		}
		return value
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s", ErrUnknownVariable, strings.Join(missing, ", "))
	}
	return output, nil
}

// defaultCensorReplacement is what [WordsFilter] writes over a filtered word.
const defaultCensorReplacement = "[censored]"

// WordsFilterOptions configures [WordsFilter].
type WordsFilterOptions struct {
	// Words are matched case insensitively as whole words.
	Words []string
	// Replacement is written in place of each match. Defaults to
	// "[censored]".
	Replacement string
}

type wordsFilter struct {
	// pattern finds candidate positions for any word.
	pattern *regexp.Regexp
	// words match a single word at a candidate position, longest first.
	words       []*regexp.Regexp
	replacement string
}

// WordsFilter replaces whole-word occurrences of the configured words. Words
// are delimited by anything that is not a Unicode letter, digit or
// underscore. Where several words start at the same position the longest
// whole word wins. With no words configured it leaves input unchanged.
func WordsFilter(opts WordsFilterOptions) (Modifier, error) {
	replacement := opts.Replacement
	if replacement == "" {
		replacement = defaultCensorReplacement
	}

	quoted := make([]string, 0, len(opts.Words))
	for _, word := range opts.Words {
		word = strings.TrimSpace(word)
		if word == "" {
			return nil, invalidOption("words_filter", "words", "empty word")
		}
		quoted = append(quoted, regexp.QuoteMeta(word))
	}

	filter := &wordsFilter{replacement: replacement}
	if len(quoted) == 0 {
		return filter, nil
	}
	// longest first, so "assassin" wins over "ass"
	slices.SortFunc(quoted, func(a, b string) int { return len(b) - len(a) })
	filter.pattern = regexp.MustCompile(`(?i)(?:` + strings.Join(quoted, "|") + `)`)
	for _, word := range quoted {
		filter.words = append(filter.words, regexp.MustCompile(`(?i)^(?:`+word+`)`))
	}
	return filter, nil
}

func (w *wordsFilter) Name() string { return "words_filter" }

func (w *wordsFilter) Modify(input string) (string, error) {
	if w.pattern == nil {
		return input, nil
	}

	var out strings.Builder
	out.Grow(len(input))
	last, pos := 0, 0
	for pos < len(input) {
		loc := w.pattern.FindStringIndex(input[pos:])
		if loc == nil {
			break
		}
		start := pos + loc[0]
		end, ok := w.wholeWordAt(input, start)
		if !ok {
			_, size := utf8.DecodeRuneInString(input[start:])
			pos = start + size
			continue
		}
		out.WriteString(input[last:start])
		out.WriteString(w.replacement)
		last, pos = end, end
	}
	if last == 0 {
		return input, nil
	}
	out.WriteString(input[last:])
	return out.String(), nil
}

// wholeWordAt returns the end of the longest configured word starting at
// start that is not glued to other word characters.
func (w *wordsFilter) wholeWordAt(input string, start int) (int, bool) {
	for _, word := range w.words {
		loc := word.FindStringIndex(input[start:])
		if loc != nil && isWordBoundary(input, start, start+loc[1]) {
			return start + loc[1], true
		}
	}
	return 0, false
}

// isWordBoundary reports whether input[start:end] is not glued to a word
// character on either side.
func isWordBoundary(input string, start, end int) bool {
	if start > 0 {
		if r, _ := utf8.DecodeLastRuneInString(input[:start]); isWordRune(r) {
			return false
		}
	}
	if end < len(input) {
		if r, _ := utf8.DecodeRuneInString(input[end:]); isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
