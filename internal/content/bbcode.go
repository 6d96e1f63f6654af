package content

import (
	"html"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// maxBBCodeDepth bounds how many times each tag pass is repeated to unwrap
// nested tags of the same name.
const maxBBCodeDepth = 8

var (
	// bbcodeTagName matches valid keys of [BBCodeOptions.Tags]. A trailing "="
	// marks a tag that takes an argument, e.g. [color=red].
	bbcodeTagName = regexp.MustCompile(`^[a-z][a-z0-9]*=?$`)

	// templateGroup matches group references ($1 or ${1}) in a replacement
	// template.
	templateGroup = regexp.MustCompile(`\$\{?(\d+)\}?`)

	// bareGroup matches $1 style references so they can be braced; Go would
	// otherwise read "$1st" as a group named "1st".
	bareGroup = regexp.MustCompile(`\$(\d+)`)

	// bracedGroup matches the ${1} references left after bracing.
	bracedGroup = regexp.MustCompile(`\$\{(\d+)\}`)
)

// defaultBBCodeTags maps tag keys to replacement templates. For plain tags $1
// is the body; for argument tags (key ending in "=") $1 is the argument and
// $2 is the body.
var defaultBBCodeTags = map[string]string{
	"b":      "<strong>$1</strong>",
	"i":      "<em>$1</em>",
	"u":      "<u>$1</u>",
	"s":      "<del>$1</del>",
	"strike": "<del>$1</del>",
	"code":   "<code>$1</code>",
	"quote":  "<blockquote>$1</blockquote>",
	"quote=": "<blockquote><cite>$1</cite>$2</blockquote>",
	"url":    `<a href="$1">$1</a>`,
	"url=":   `<a href="$1">$2</a>`,
	"img":    `<img src="$1" alt="" />`,
	"email":  `<a href="mailto:$1">$1</a>`,
	"color=": `<span style="color: $1">$2</span>`,
	"size=":  `<span style="font-size: $1">$2</span>`,
}

// BBCodeOptions configures [BBCode].
type BBCodeOptions struct {
	// Tags adds to or overrides the default tag templates. Keys are lower
	// case tag names; append "=" for tags taking an argument.
	Tags map[string]string
}

type bbcodeRule struct {
	pattern     *regexp.Regexp
	replacement string
}

type bbcode struct {
	rules []bbcodeRule
}

// BBCode converts BBCode markup into HTML. Tags are matched case
// insensitively and converted in sorted key order. Unknown tags are left as
// is. Captured text landing inside a tag, such as an href, is HTML-escaped.
func BBCode(opts BBCodeOptions) (Modifier, error) {
	tags := make(map[string]string, len(defaultBBCodeTags)+len(opts.Tags))
	for key, tmpl := range defaultBBCodeTags {
		tags[key] = tmpl
	}
	for key, tmpl := range opts.Tags {
		tags[strings.ToLower(key)] = tmpl
	}

	keys := make([]string, 0, len(tags))
	for key := range tags {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	rules := make([]bbcodeRule, 0, len(keys))
	for _, key := range keys {
		rule, err := compileBBCodeRule(key, tags[key])
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return &bbcode{rules: rules}, nil
}

func compileBBCodeRule(key, tmpl string) (bbcodeRule, error) {
	if !bbcodeTagName.MatchString(key) {
		return bbcodeRule{}, invalidOption("bbcode", "tags", "invalid tag name %q", key)
	}
	if tmpl == "" {
		return bbcodeRule{}, invalidOption("bbcode", "tags", "empty template for %q", key)
	}

	name, hasArg := strings.CutSuffix(key, "=")
	groups := 1
	var expr string
	if hasArg {
		groups = 2
		expr = `(?is)\[` + regexp.QuoteMeta(name) + `=([^\]"'<>]+)\](.*?)\[/` + regexp.QuoteMeta(name) + `\]`
	} else {
		expr = `(?is)\[` + regexp.QuoteMeta(name) + `\](.*?)\[/` + regexp.QuoteMeta(name) + `\]`
	}

	for _, match := range templateGroup.FindAllStringSubmatch(tmpl, -1) {
		group, err := strconv.Atoi(match[1])
		if err != nil || group > groups {
			return bbcodeRule{}, invalidOption("bbcode", "tags",
				"template for %q references $%s but the tag has %d group(s)", key, match[1], groups)
		}
	}

	return bbcodeRule{
		pattern:     regexp.MustCompile(expr),
		replacement: escapeTagRefs(bareGroup.ReplaceAllString(tmpl, "$${${1}}"), groups+1),
	}, nil
}

// escapeTagRefs points group references that sit inside a tag of tmpl, such
// as an href value, at their HTML-escaped copies, which are numbered from
// offset.
func escapeTagRefs(tmpl string, offset int) string {
	var out strings.Builder
	last := 0
	for _, loc := range bracedGroup.FindAllStringSubmatchIndex(tmpl, -1) {
		out.WriteString(tmpl[last:loc[0]])
		last = loc[1]
		if !insideTag(tmpl[:loc[0]]) {
			out.WriteString(tmpl[loc[0]:loc[1]])
			continue
		}
		group, _ := strconv.Atoi(tmpl[loc[2]:loc[3]])
		out.WriteString("${" + strconv.Itoa(group+offset) + "}")
	}
	out.WriteString(tmpl[last:])
	return out.String()
}

// insideTag reports whether markup ends inside an open tag.
func insideTag(markup string) bool {
	var quote rune
	inTag := false
	for _, r := range markup {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case inTag && (r == '"' || r == '\''):
			quote = r
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		}
	}
	return inTag
}

// expand fills the replacement template for one match. Groups are available
// both raw and, for references inside tags, HTML-escaped.
func (r bbcodeRule) expand(match string) string {
	groups := r.pattern.FindStringSubmatch(match)
	var src strings.Builder
	indices := make([]int, 0, 4*len(groups))
	for _, escape := range []bool{false, true} {
		for _, group := range groups {
			if escape {
				group = html.EscapeString(group)
			}
			start := src.Len()
			src.WriteString(group)
			indices = append(indices, start, src.Len())
		}
	}
	return string(r.pattern.ExpandString(nil, r.replacement, src.String(), indices))
}

func (b *bbcode) Name() string { return "bbcode" }

func (b *bbcode) Modify(input string) (string, error) {
	for _, rule := range b.rules {
		for range maxBBCodeDepth {
			output := rule.pattern.ReplaceAllStringFunc(input, rule.expand)
			if output == input {
				break
			}
			input = output
		}
	}
	return input, nil
}
