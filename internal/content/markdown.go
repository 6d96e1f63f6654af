package content

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// MarkdownToHTMLOptions configures [MarkdownToHTML].
type MarkdownToHTMLOptions struct {
	// Unsafe passes raw HTML in the Markdown through to the output instead of
	// replacing it with a comment.
	Unsafe bool
}

// MarkdownToHTML converts CommonMark Markdown into HTML, with tables,
// strikethrough, autolinks and typographic quotes. Note that the produced
// HTML is _not_ sanitized.
func MarkdownToHTML(opts MarkdownToHTMLOptions) Modifier {
	var rendererOpts []goldmark.Option
	if opts.Unsafe {
		rendererOpts = append(rendererOpts, goldmark.WithRendererOptions(html.WithUnsafe()))
	}
	markdown := goldmark.New(append(rendererOpts,
		goldmark.WithExtensions(
			extension.Linkify,
			extension.Table,
			extension.Strikethrough,
			extension.Typographer,
			extension.CJK,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)...)

	return WithName("markdown_to_html", ModifierFunc(func(input string) (string, error) {
		output := &bytes.Buffer{}
		if err := markdown.Convert([]byte(input), output); err != nil {
			return "", fmt.Errorf("failed to convert markdown to HTML: %w", err)
		}
		return output.String(), nil
	}))
}
