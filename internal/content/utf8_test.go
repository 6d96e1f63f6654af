package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func TestDecodeCharset(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		contentType string
		input       []byte
		want        string
	}{
		{
			name:        "UTF-8 unchanged",
			contentType: "text/html; charset=utf-8",
			input:       []byte("<p>Héllo wörld</p>"),
			want:        "<p>Héllo wörld</p>",
		},
		{
			name:        "BOM stripped",
			contentType: "text/plain; charset=utf-8",
			input:       []byte{0xEF, 0xBB, 0xBF, 'H', 'i'},
			want:        "Hi",
		},
		{
			name:        "windows-1252 curly quotes",
			contentType: "text/plain; charset=windows-1252",
			input:       []byte{0x93, 'H', 'i', 0x94},
			want:        "“Hi”",
		},
		{
			name:        "iso-8859-1 html",
			contentType: "text/html; charset=iso-8859-1",
			input:       []byte{'<', 'p', '>', 'c', 'a', 'f', 0xe9, '<', '/', 'p', '>'},
			want:        "<p>café</p>",
		},
		{
			name:        "meta tag",
			contentType: "text/html",
			input:       append([]byte(`<meta charset="iso-8859-1"><p>`), 0xe9),
			want:        `<meta charset="iso-8859-1"><p>é`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := DecodeCharset(tt.contentType).Modify(string(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeCharset_StatisticalDetection(t *testing.T) {
	t.Parallel()

	encoder := charmap.Windows1252.NewEncoder()
	input, err := encoder.String(`"This is a story," she said. "It has 'curly quotes' and em-dashes—like this."

The café was quiet. "Would you like some more?" asked the maître d'.

"Yes, please," I replied. The résumé lay on the table.

She smiled. "That'll be €5.00."`)
	require.NoError(t, err)

	proc := NewProcessor(DecodeCharset("text/plain"), NlToBr(NlToBrOptions{}))
	got, err := proc.Process(input)
	require.NoError(t, err)
	assert.Contains(t, got, "café")
	assert.Contains(t, got, "résumé")
	assert.Contains(t, got, "<br>")
}
