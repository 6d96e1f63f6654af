package content

import (
	"regexp"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// soupPieces are fragments of hostile and malformed markup.
var soupPieces = []string{
	"<em>", "</em>", "<strong>", "</strong>", "<b", "<<", ">", "</",
	"<script>alert(1)</script>", "<script>", "</script>", "<style>p{}</style>",
	`<a href="javascript:alert(1)">`, `<a href=" JaVaScRiPt:alert(1)">`, `<a href="https://ok.example">`, "</a>",
	`<img src=x onerror=alert(1)>`, `<p class="x" onclick="y">`, "</p>", "<br>", "<br/>",
	"<!-- comment -->", "<!--", "&nbsp;", "&amp;", "<EM>", "<iframe src=//evil>",
}

// tagSoup builds random markup from soupPieces and fake words.
func tagSoup(faker *gofakeit.Faker) string {
	var soup strings.Builder
	for range 5 + faker.IntN(40) {
		if faker.IntN(3) == 0 {
			soup.WriteString(faker.Word() + " ")
			continue
		}
		soup.WriteString(soupPieces[faker.IntN(len(soupPieces))])
	}
	return soup.String()
}

func TestNormalizeNBSP(t *testing.T) {
	t.Parallel()
	normalize := NormalizeNBSP()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "replaces nbsp entity", input: "hello&nbsp;world", want: "hello world"},
		{name: "replaces nbsp entity case insensitive", input: "hello&NBSP;world&Nbsp;test", want: "hello world test"},
		{name: "replaces unicode nbsp character", input: "hello\u00A0world", want: "hello world"},
		{name: "handles mixed entities and unicode", input: "a&nbsp;\u00A0b", want: "a  b"},
		{name: "no nbsp unchanged", input: "hello world", want: "hello world"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := normalize.Modify(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStripTags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		allow []string
		input string
		want  string
	}{
		{name: "default strips everything", input: "<em>Hello</em>", want: "Hello"},
		{name: "allowed tag kept", allow: []string{"<em>"}, input: "<em>Hello</em>", want: "<em>Hello</em>"},
		{name: "bare names", allow: []string{"em", "strong"}, input: "<p><em>a</em><strong>b</strong></p>", want: "<em>a</em><strong>b</strong>"},
		{name: "several tags in one entry", allow: []string{"<em><strong>"}, input: "<em>a</em><i>b</i><strong>c</strong>", want: "<em>a</em>b<strong>c</strong>"},
		{name: "attributes dropped", allow: []string{"em"}, input: `<em onclick="x" class="y">a</em>`, want: "<em>a</em>"},
		{name: "script content dropped", input: "a<script>alert(1)</script>b", want: "ab"},
		{name: "empty", input: "", want: ""},
		{name: "text kept as written", input: `Tom & Jerry's "show" <b>x</b>`, want: `Tom & Jerry's "show" x`},
		{name: "greater than kept", input: "5 > 3", want: "5 > 3"},
		{name: "entities kept", input: "a&nbsp;b &amp; c", want: "a&nbsp;b &amp; c"},
		{name: "stray less than escaped", input: "1 < 2", want: "1 &lt; 2"},
		{name: "comments dropped", input: "a<!-- note -->b", want: "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			strip, err := StripTags(StripTagsOptions{Allow: tt.allow})
			require.NoError(t, err)
			got, err := NewProcessor(strip).Process(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStripTags_InvalidOptions(t *testing.T) {
	t.Parallel()

	_, err := StripTags(StripTagsOptions{Allow: []string{"<>"}})
	require.ErrorIs(t, err, ErrInvalidOption)
}

func TestStripTags_IdempotentAndSafe(t *testing.T) {
	t.Parallel()

	strip, err := StripTags(StripTagsOptions{Allow: []string{"em"}})
	require.NoError(t, err)
	tagName := regexp.MustCompile(`<\s*/?\s*([a-zA-Z][a-zA-Z0-9]*)`)

	faker := gofakeit.New(42)
	for range 500 {
		soup := tagSoup(faker)
		once, err := strip.Modify(soup)
		require.NoError(t, err)
		twice, err := strip.Modify(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice, "input: %q", soup)

		for _, match := range tagName.FindAllStringSubmatch(once, -1) {
			assert.Equal(t, "em", match[1], "input: %q, output: %q", soup, once)
		}
	}
}

func TestSanitizeHTML(t *testing.T) {
	t.Parallel()
	sanitize := SanitizeHTML()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "allows safe elements",
			input: "<p><strong>Hello</strong> <em>World</em></p>",
			want:  "<p><strong>Hello</strong> <em>World</em></p>",
		},
		{
			name:  "strips script tags",
			input: "<p>Hello</p><script>alert('xss')</script><p>World</p>",
			want:  "<p>Hello</p><p>World</p>",
		},
		{
			name:  "strips onclick attributes",
			input: `<p onclick="alert('xss')">Hello</p>`,
			want:  "<p>Hello</p>",
		},
		{
			name:  "allows href on anchors",
			input: `<a href="https://example.com">Link</a>`,
			want:  `<a href="https://example.com" rel="nofollow noreferrer noopener" target="_blank">Link</a>`,
		},
		{
			name:  "strips javascript hrefs",
			input: `<a href="javascript:alert(1)">Link</a>`,
			want:  "Link",
		},
		{
			name:  "allows lists",
			input: "<ul><li>Item 1</li><li>Item 2</li></ul>",
			want:  "<ul><li>Item 1</li><li>Item 2</li></ul>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := sanitize.Modify(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEmptyParagraphs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		opts  EmptyParagraphsOptions
		input string
		want  string
	}{
		{
			name:  "default",
			input: "<p>  </p><p> &nbsp; </p><p>&nbsp</p><p>Hello world</p>",
			want:  "<p>Hello world</p>",
		},
		{
			name:  "numeric entities and attributes",
			input: "<p class=\"x\">&#160; &#xA0;\n</p><P></P>text",
			want:  "text",
		},
		{
			name:  "content kept",
			input: "<p>&nbsp;a</p><p><br></p>",
			want:  "<p>&nbsp;a</p><p><br></p>",
		},
		{
			name:  "default leaves divs",
			input: "<div> </div><p> </p>",
			want:  "<div> </div>",
		},
		{
			name:  "custom tags",
			opts:  EmptyParagraphsOptions{Tags: []string{"p", "div"}},
			input: "<div> </div><p> </p><div>x</div>",
			want:  "<div>x</div>",
		},
		{
			name:  "prefix tag names do not match",
			input: "<pre> </pre>",
			want:  "<pre> </pre>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mod, err := EmptyParagraphs(tt.opts)
			require.NoError(t, err)
			got, err := NewProcessor(mod).Process(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEmptyParagraphs_InvalidOptions(t *testing.T) {
	t.Parallel()

	_, err := EmptyParagraphs(EmptyParagraphsOptions{Tags: []string{"p>"}})
	require.ErrorIs(t, err, ErrInvalidOption)
}
