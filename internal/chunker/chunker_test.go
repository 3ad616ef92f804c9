package chunker

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/pdfchat/internal/model"
)

func TestNewValidates(t *testing.T) {
	_, err := New(0, 0)
	require.Error(t, err)
	_, err = New(10, 10)
	require.Error(t, err)
	_, err = New(10, -1)
	require.Error(t, err)
	c, err := New(10, 2)
	require.NoError(t, err)
	require.NotNil(t, c)
}

func TestSplitShortPagesAreWholeChunks(t *testing.T) {
	c, err := New(100, 10)
	require.NoError(t, err)
	chunks := c.Split(context.Background(), []model.PageRecord{
		{Index: 1, Text: "first page"},
		{Index: 3, Text: "  third page  "},
	})
	require.Equal(t, []model.Chunk{
		{ID: 0, SourcePage: 1, Text: "first page"},
		{ID: 1, SourcePage: 3, Text: "third page"},
	}, chunks)
}

func TestSplitLongPageOverlaps(t *testing.T) {
	c, err := New(20, 5)
	require.NoError(t, err)
	var sb strings.Builder
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&sb, "w%02d ", i)
	}
	chunks := c.Split(context.Background(), []model.PageRecord{{Index: 2, Text: sb.String()}})
	require.Equal(t, []string{
		"w00 w01 w02 w03",
		"w03 w04 w05 w06",
		"w06 w07 w08 w09",
		"w09 w10 w11",
	}, texts(chunks))
	for i, ch := range chunks {
		require.Equal(t, i, ch.ID)
		require.Equal(t, 2, ch.SourcePage)
	}
}

func TestSplitCutsAtWhitespace(t *testing.T) {
	c, err := New(10, 0)
	require.NoError(t, err)
	chunks := c.Split(context.Background(), []model.PageRecord{{Index: 1, Text: "aaaa bbbb cccc dddd"}})
	require.Equal(t, "aaaa bbbb", chunks[0].Text)
	require.Equal(t, "cccc dddd", chunks[1].Text)
}

func TestSplitWithoutWhitespaceHardCuts(t *testing.T) {
	c, err := New(4, 1)
	require.NoError(t, err)
	chunks := c.Split(context.Background(), []model.PageRecord{{Index: 1, Text: "abcdefghij"}})
	require.Equal(t, []string{"abcd", "defg", "ghij"}, texts(chunks))
}

func texts(chunks []model.Chunk) []string {
	out := make([]string, 0, len(chunks))
	for _, ch := range chunks {
		out = append(out, ch.Text)
	}
	return out
}
