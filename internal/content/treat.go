package content

import (
	"errors"
	"fmt"
	"html"
	"io"
	"regexp"
	"slices"
	"strings"

	nethtml "golang.org/x/net/html"
)

// validAttrName matches attribute names accepted in [TagRule].
var validAttrName = regexp.MustCompile(`^[a-zA-Z_:][-a-zA-Z0-9_:.]*$`)

// dropsContent lists elements whose contents are removed along with the tag
// when the element is not allowed.
var dropsContent = map[string]bool{
	"iframe":   true,
	"noembed":  true,
	"noframes": true,
	"noscript": true,
	"object":   true,
	"script":   true,
	"style":    true,
	"template": true,
	"textarea": true,
	"title":    true,
	"xmp":      true,
}

// AttrRule restricts the values of an allowed attribute.
type AttrRule struct {
	// AllowPrefixes lists accepted value prefixes, compared case
	// insensitively after trimming whitespace. Empty accepts any value.
	AllowPrefixes []string
}

// TagRule describes how an allowed element is rewritten.
type TagRule struct {
	// AllowAttrs lists the attributes kept on the element.
	AllowAttrs map[string]AttrRule
	// InsertAttrs are set on every occurrence of the element, overriding any
	// value from the input.
	InsertAttrs map[string]string
}

// TreatTagsOptions configures [TreatTags].
type TreatTagsOptions struct {
	// Tags maps allowed element names to their rules. Defaults to basic
	// inline formatting, paragraphs, lists and links restricted to http(s)
	// and mailto.
	Tags map[string]TagRule
}

func defaultTreatTags() map[string]TagRule {
	rules := map[string]TagRule{
		"a": {
			AllowAttrs: map[string]AttrRule{
				"href":  {AllowPrefixes: []string{"http://", "https://", "mailto:", "/", "#"}},
				"title": {},
			},
		},
	}
	for _, name := range []string{"b", "blockquote", "br", "em", "i", "li", "ol", "p", "strong", "u", "ul"} {
		rules[name] = TagRule{}
	}
	return rules
}

type attrRule struct {
	prefixes []string
}

type tagRule struct {
	allow      map[string]attrRule
	insertKeys []string
	insert     map[string]string
}

type treatTags struct {
	tags map[string]tagRule
}

// TreatTags rewrites markup against a per-element allow list. Elements that
// are not allowed are removed, keeping their text except for script-like
// elements whose contents are dropped too. Allowed elements keep only their
// allowed attributes, then get their inserted attributes. Comments and
// doctypes are removed, and stray "<" in text is escaped.
func TreatTags(opts TreatTagsOptions) (Modifier, error) {
	source := opts.Tags
	if len(source) == 0 {
		source = defaultTreatTags()
	}

	tags := make(map[string]tagRule, len(source))
	for name, rule := range source {
		if !validHTMLName.MatchString(name) {
			return nil, invalidOption("treat_tags", "tags", "invalid element name %q", name)
		}
		compiled, err := compileTagRule(name, rule)
		if err != nil {
			return nil, err
		}
		tags[strings.ToLower(name)] = compiled
	}
	return &treatTags{tags: tags}, nil
}

func compileTagRule(name string, rule TagRule) (tagRule, error) {
	compiled := tagRule{
		allow:  make(map[string]attrRule, len(rule.AllowAttrs)),
		insert: make(map[string]string, len(rule.InsertAttrs)),
	}
	for attr, ar := range rule.AllowAttrs {
		if !validAttrName.MatchString(attr) {
			return tagRule{}, invalidOption("treat_tags", "allow_attr", "invalid attribute %q on %q", attr, name)
		}
		prefixes := make([]string, len(ar.AllowPrefixes))
		for idx, prefix := range ar.AllowPrefixes {
			prefixes[idx] = strings.ToLower(strings.TrimSpace(prefix))
		}
		compiled.allow[strings.ToLower(attr)] = attrRule{prefixes: prefixes}
	}
	for attr, value := range rule.InsertAttrs {
		if !validAttrName.MatchString(attr) {
			return tagRule{}, invalidOption("treat_tags", "insert_attr", "invalid attribute %q on %q", attr, name)
		}
		attr = strings.ToLower(attr)
		compiled.insert[attr] = value
		compiled.insertKeys = append(compiled.insertKeys, attr)
	}
	slices.Sort(compiled.insertKeys)
	return compiled, nil
}

func (t *treatTags) Name() string { return "treat_tags" }

func (t *treatTags) Modify(input string) (string, error) {
	tokenizer := nethtml.NewTokenizer(strings.NewReader(input))
	var out strings.Builder
	out.Grow(len(input))

	// skipping holds the name of a disallowed element whose contents are
	// being dropped, and depth how many of them are open.
	skipping, depth := "", 0

	for {
		tokenType := tokenizer.Next()
		switch tokenType {
		case nethtml.ErrorToken:
			if err := tokenizer.Err(); !errors.Is(err, io.EOF) {
				return "", fmt.Errorf("failed to tokenize HTML: %w", err)
			}
			return out.String(), nil

		case nethtml.TextToken:
			if skipping == "" {
				out.WriteString(strings.ReplaceAll(string(tokenizer.Raw()), "<", "&lt;"))
			}

		case nethtml.StartTagToken, nethtml.SelfClosingTagToken:
			token := tokenizer.Token()
			if skipping != "" {
				if tokenType == nethtml.StartTagToken && token.Data == skipping {
					depth++
				}
				continue
			}
			rule, ok := t.tags[token.Data]
			if !ok {
				if tokenType == nethtml.StartTagToken && dropsContent[token.Data] {
					skipping, depth = token.Data, 1
				}
				continue
			}
			writeStartTag(&out, token, rule, tokenType == nethtml.SelfClosingTagToken)

		case nethtml.EndTagToken:
			token := tokenizer.Token()
			if skipping != "" {
				if token.Data == skipping {
					depth--
				}
				if depth == 0 {
					skipping = ""
				}
				continue
			}
			if _, ok := t.tags[token.Data]; ok {
				out.WriteString("</" + token.Data + ">")
			}

		case nethtml.CommentToken, nethtml.DoctypeToken:
			// dropped
		}
	}
}

func writeStartTag(out *strings.Builder, token nethtml.Token, rule tagRule, selfClosing bool) {
	type attr struct{ key, value string }
	attrs := make([]attr, 0, len(token.Attr)+len(rule.insertKeys))
	seen := make(map[string]int, len(token.Attr))

	for _, a := range token.Attr {
		ar, ok := rule.allow[a.Key]
		if !ok || !ar.accepts(a.Val) {
			continue
		}
		if _, dup := seen[a.Key]; dup {
			continue
		}
		seen[a.Key] = len(attrs)
		attrs = append(attrs, attr{a.Key, a.Val})
	}
	for _, key := range rule.insertKeys {
		if idx, ok := seen[key]; ok {
			attrs[idx].value = rule.insert[key]
			continue
		}
		attrs = append(attrs, attr{key, rule.insert[key]})
	}

	out.WriteString("<" + token.Data)
	for _, a := range attrs {
		out.WriteString(" " + a.key + `="` + html.EscapeString(a.value) + `"`)
	}
	if selfClosing {
		out.WriteString(" /")
	}
	out.WriteString(">")
}

func (r attrRule) accepts(value string) bool {
	if len(r.prefixes) == 0 {
		return true
	}
	value = strings.ToLower(strings.TrimSpace(stripControl(value)))
	for _, prefix := range r.prefixes {
		if strings.HasPrefix(value, prefix) {
			return true
		}
	}
	return false
}

// stripControl removes ASCII control characters, which browsers ignore
// inside URL schemes ("java\tscript:").
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}
