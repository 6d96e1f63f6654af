package content

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// nbspPattern matches both the HTML entity &nbsp; (case insensitive) and
	// the actual unicode non-breaking space character (U+00A0).
	nbspPattern = regexp.MustCompile("(?i)&nbsp;|\xc2\xa0")

	// htmlName matches element names in option values such as "em" or
	// "<em><strong>".
	htmlName = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9]*`)

	// validHTMLName matches a single element name.
	validHTMLName = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9]*$`)
)

// NormalizeNBSP replaces non-breaking space entities and characters with
// regular spaces.
func NormalizeNBSP() Modifier {
	return WithName("normalize_nbsp", SimpleFunc(func(input string) string {
		return nbspPattern.ReplaceAllString(input, " ")
	}))
}

// StripTagsOptions configures [StripTags].
type StripTagsOptions struct {
	// Allow lists elements to keep, as bare names ("em") or tags ("<em>").
	// A single entry may hold several tags, e.g. "<em><strong>".
	Allow []string
}

// StripTags removes every tag not in the allow list, keeping the text
// between them as written. The contents of script, style and similar elements
// are dropped, and attributes are removed from allowed tags. A stray "<" in
// text becomes "&lt;", so applying it twice gives the same result as applying
// it once.
func StripTags(opts StripTagsOptions) (Modifier, error) {
	tags := make(map[string]tagRule)
	for _, entry := range opts.Allow {
		names := htmlName.FindAllString(entry, -1)
		if len(names) == 0 {
			return nil, invalidOption("strip_tags", "allow", "no element name in %q", entry)
		}
		for _, name := range names {
			tags[strings.ToLower(name)] = tagRule{}
		}
	}
	return WithName("strip_tags", &treatTags{tags: tags}), nil
}

// SanitizeHTML applies sanitization rules to HTML input, stripping unsupported
// tags and attributes.
func SanitizeHTML() Modifier {
	return WithName("sanitize_html", SimpleFunc(sanitizer().Sanitize))
}

// sanitizer is a modification of [bluemonday.UGCPolicy].
// Differences:
//
//   - Target _blank and noreferrer for links
//   - No map/area elements
//   - No meter/progress elements
//   - Images only with http(s) sources
func sanitizer() *bluemonday.Policy {
	policy := bluemonday.NewPolicy()

	policy.AllowStandardAttributes()

	policy.AllowStandardURLs()
	policy.RequireNoReferrerOnLinks(true)
	policy.AddTargetBlankToFullyQualifiedLinks(true)

	policy.AllowElements(
		"abbr", "acronym", "article", "aside",
		"b", "bdi", "bdo", "br",
		"cite", "code",
		"del", "dfn", "div",
		"em",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"hgroup", "hr",
		"i", "ins",
		"mark",
		"p", "pre",
		"rp", "rt", "ruby",
		"s", "samp", "section", "small", "span", "strike", "strong", "sub", "summary", "sup",
		"tt",
		"u",
		"var",
		"wbr",
	)

	policy.AllowAttrs("cite").
		OnElements("blockquote", "q")
	policy.AllowAttrs("cite").
		Matching(bluemonday.Paragraph).
		OnElements("del", "ins")
	policy.AllowElements("blockquote", "q")

	policy.AllowAttrs("href").
		OnElements("a")

	policy.AllowAttrs("src").
		OnElements("img")
	policy.AllowAttrs("alt", "width", "height").
		OnElements("img")
	policy.AllowURLSchemes("http", "https", "mailto")

	policy.AllowAttrs("datetime").
		Matching(bluemonday.ISO8601).
		OnElements("del", "ins", "time")

	policy.AllowLists()
	policy.AllowTables()

	return policy
}

// EmptyParagraphsOptions configures [EmptyParagraphs].
type EmptyParagraphsOptions struct {
	// Tags lists the elements treated as paragraphs. Defaults to "p".
	Tags []string
}

// blankContent matches whitespace and non-breaking spaces in any spelling,
// including the &nbsp form without a semicolon that editors emit.
const blankContent = `(?:\s|&nbsp;?|&#160;|&#x0*a0;|\x{00A0})*`

// EmptyParagraphs removes paragraphs that contain nothing but whitespace and
// non-breaking spaces.
func EmptyParagraphs(opts EmptyParagraphsOptions) (Modifier, error) {
	tags := opts.Tags
	if len(tags) == 0 {
		tags = []string{"p"}
	}

	patterns := make([]*regexp.Regexp, 0, len(tags))
	for _, tag := range tags {
		if !validHTMLName.MatchString(tag) {
			return nil, invalidOption("empty_paragraphs", "tags", "invalid element name %q", tag)
		}
		name := regexp.QuoteMeta(strings.ToLower(tag))
		patterns = append(patterns,
			regexp.MustCompile(`(?is)<`+name+`(?:\s[^>]*)?>`+blankContent+`</`+name+`\s*>`))
	}

	return WithName("empty_paragraphs", SimpleFunc(func(input string) string {
		for _, pattern := range patterns {
			input = pattern.ReplaceAllString(input, "")
		}
		return input
	})), nil
}
