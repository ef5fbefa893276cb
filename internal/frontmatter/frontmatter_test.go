package frontmatter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("Some '''wiki''' text\n")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.False(t, had)
	require.Empty(t, fm)
	require.Equal(t, input, body)
}

func TestSplit_YAMLFrontmatter_SplitsFrontmatterAndBody(t *testing.T) {
	fm, body, had, err := Split([]byte("---\ntitle: Home\n---\nBody\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("title: Home\n"), fm)
	require.Equal(t, []byte("Body\n"), body)
}

func TestSplit_CRLF(t *testing.T) {
	fm, body, had, err := Split([]byte("---\r\ntitle: Home\r\n---\r\nBody\r\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("title: Home\r\n"), fm)
	require.Equal(t, []byte("Body\r\n"), body)
}

func TestSplit_EmptyBlock(t *testing.T) {
	fm, body, had, err := Split([]byte("---\n---\nBody\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Empty(t, fm)
	require.Equal(t, []byte("Body\n"), body)
}

func TestSplit_ClosingDelimiterAtEOF(t *testing.T) {
	fm, body, had, err := Split([]byte("---\ntitle: Empty\n---"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("title: Empty\n"), fm)
	require.Empty(t, body)
}

func TestSplit_MissingClosingDelimiter(t *testing.T) {
	_, _, had, err := Split([]byte("---\ntitle: Home\nBody\n"))
	require.False(t, had)
	require.True(t, errors.Is(err, ErrMissingClosingDelimiter))
}

func TestParse_Header(t *testing.T) {
	h, body, err := Parse([]byte("---\ntitle: ' Help:Start '\nuser: Alice\nsummary: imported\ntags: [a]\n---\nText\n"))
	require.NoError(t, err)
	require.Equal(t, Header{Title: "Help:Start", User: "Alice", Summary: "imported"}, h)
	require.Equal(t, []byte("Text\n"), body)
}

func TestParse_NoHeader(t *testing.T) {
	h, body, err := Parse([]byte("Text"))
	require.NoError(t, err)
	require.Equal(t, Header{}, h)
	require.Equal(t, []byte("Text"), body)
}

func TestParse_InvalidYAML(t *testing.T) {
	_, _, err := Parse([]byte("---\n: not yaml\n---\nText\n"))
	require.Error(t, err)
}
