package content

import (
	"html"
	"regexp"
	"strings"
)

var (
	// markupOrAnchor matches anchors (with their contents) and any other tag.
	// Text between matches is safe to auto-link.
	markupOrAnchor = regexp.MustCompile(`(?is)<a\b.*?</a\s*>|<[^>]*>`)

	// bareURL matches http(s), ftp and www. URLs at the start of the text or
	// after whitespace or an opening bracket.
	bareURL = regexp.MustCompile(`(?i)(^|[\s(\[])((?:(?:https?|ftp)://|www\.)[^\s<>"']+)`)

	// bareEmail matches e-mail addresses at the start of the text or after
	// whitespace, an opening bracket, or a list separator.
	bareEmail = regexp.MustCompile(`(^|[\s(\[,;])([\w.%+-]+@[\w-]+(?:\.[\w-]+)*\.\p{L}{2,})`)

	// relativeRef matches href and src attributes whose value starts with a
	// chain of ./ or ../ segments, in double or single quotes.
	relativeRef = regexp.MustCompile(`(?i)\b(href|src)\s*=\s*(?:"((?:\.\.?/)+)([^"]*)"|'((?:\.\.?/)+)([^']*)')`)
)

// trailingURLPunct are characters that usually end a sentence rather than a
// URL.
const trailingURLPunct = ".,;:!?"

// eachText applies fn to the text outside tags and anchors, leaving markup
// untouched.
func eachText(input string, fn func(string) string) string {
	var out strings.Builder
	out.Grow(len(input))
	last := 0
	for _, loc := range markupOrAnchor.FindAllStringIndex(input, -1) {
		out.WriteString(fn(input[last:loc[0]]))
		out.WriteString(input[loc[0]:loc[1]])
		last = loc[1]
	}
	out.WriteString(fn(input[last:]))
	return out.String()
}

// anchorAttrs renders optional class and target attributes.
func anchorAttrs(class, target string) string {
	var attrs strings.Builder
	if class != "" {
		attrs.WriteString(` class="` + html.EscapeString(class) + `"`)
	}
	if target != "" {
		attrs.WriteString(` target="` + html.EscapeString(target) + `"`)
	}
	return attrs.String()
}

// URLToLinkOptions configures [URLToLink].
type URLToLinkOptions struct {
	// Class is set as the class attribute of generated links.
	Class string
	// Target is set as the target attribute of generated links.
	Target string
}

// URLToLink wraps bare URLs in anchors. URLs inside tags or existing anchors
// are not touched, and trailing sentence punctuation stays outside the link.
func URLToLink(opts URLToLinkOptions) Modifier {
	attrs := anchorAttrs(opts.Class, opts.Target)
	link := func(text string) string {
		return bareURL.ReplaceAllStringFunc(text, func(match string) string {
			sub := bareURL.FindStringSubmatch(match)
			lead, url := sub[1], sub[2]
			url, tail := splitTrailingPunct(url)
			href := url
			if strings.HasPrefix(strings.ToLower(href), "www.") {
				href = "http://" + href
			}
			return lead + `<a href="` + href + `"` + attrs + `>` + url + `</a>` + tail
		})
	}
	return WithName("url_to_link", SimpleFunc(func(input string) string {
		return eachText(input, link)
	}))
}

// splitTrailingPunct moves trailing punctuation and unbalanced closing
// parentheses off the end of url.
func splitTrailingPunct(url string) (string, string) {
	end := len(url)
	for end > 0 {
		c := url[end-1]
		if strings.IndexByte(trailingURLPunct, c) >= 0 {
			end--
			continue
		}
		if c == ')' && strings.Count(url[:end], "(") < strings.Count(url[:end], ")") {
			end--
			continue
		}
		break
	}
	return url[:end], url[end:]
}

// MailToLinkOptions configures [MailToLink].
type MailToLinkOptions struct {
	// Class is set as the class attribute of generated links.
	Class string
}

// MailToLink wraps bare e-mail addresses in mailto: anchors. Addresses
// inside tags or existing anchors are not touched.
func MailToLink(opts MailToLinkOptions) Modifier {
	attrs := anchorAttrs(opts.Class, "")
	link := func(text string) string {
		return bareEmail.ReplaceAllString(text, `${1}<a href="mailto:${2}"`+strings.ReplaceAll(attrs, "$", "$$")+`>${2}</a>`)
	}
	return WithName("mail_to_link", SimpleFunc(func(input string) string {
		return eachText(input, link)
	}))
}

// defaultPathPrefix is where [AbsolutePath] anchors relative references.
const defaultPathPrefix = "/"

// AbsolutePathOptions configures [AbsolutePath].
type AbsolutePathOptions struct {
	// Prefix replaces the leading ./ and ../ segments. A trailing slash is
	// added when missing. Defaults to "/".
	Prefix string
}

// AbsolutePath rewrites relative href and src attribute values into absolute
// ones, always emitting double-quoted values.
func AbsolutePath(opts AbsolutePathOptions) (Modifier, error) {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = defaultPathPrefix
	}
	if strings.ContainsAny(prefix, "\"'<> \t\r\n") {
		return nil, invalidOption("absolute_path", "prefix", "must not contain quotes, brackets or whitespace: %q", prefix)
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	return WithName("absolute_path", SimpleFunc(func(input string) string {
		return relativeRef.ReplaceAllStringFunc(input, func(match string) string {
			sub := relativeRef.FindStringSubmatch(match)
			rest := sub[3]
			if sub[2] == "" {
				rest = strings.ReplaceAll(sub[5], `"`, "&quot;")
			}
			return sub[1] + `="` + prefix + rest + `"`
		})
	})), nil
}
