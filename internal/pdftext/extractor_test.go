package pdftext

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/pdfchat/internal/model"
	"github.com/xxxsen/pdfchat/internal/pdftext/pdftest"
	appErr "github.com/xxxsen/pdfchat/internal/pkg/errors"
)

func TestExtractReaderPages(t *testing.T) {
	data := pdftest.Build("Hello world from page one", "", "Second page has five words")
	pages, err := New().ExtractReader(context.Background(), bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, pages, 2)
	require.Equal(t, 1, pages[0].Index)
	require.Contains(t, pages[0].Text, "Hello world")
	require.Equal(t, 5, pages[0].WordCount)
	require.Equal(t, 3, pages[1].Index)
	require.Equal(t, 5, pages[1].WordCount)
}

func TestExtractAllBlankPages(t *testing.T) {
	data := pdftest.Build("", "")
	pages, err := New().ExtractReader(context.Background(), bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Empty(t, pages)
	require.Equal(t, model.Statistics{}, model.ComputeStatistics(pages))
}

func TestExtractFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(path, pdftest.Build("alpha beta"), 0o644))
	pages, err := New().Extract(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	require.Equal(t, 2, pages[0].WordCount)
}

func TestExtractErrors(t *testing.T) {
	_, err := New().Extract(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	require.ErrorIs(t, err, appErr.ErrExtraction)

	junk := []byte("this is not a pdf at all")
	_, err = New().ExtractReader(context.Background(), bytes.NewReader(junk), int64(len(junk)))
	require.ErrorIs(t, err, appErr.ErrExtraction)
}

func TestSummary(t *testing.T) {
	long := strings.Repeat("x", 600)
	pages := []model.PageRecord{
		{Index: 1, Text: long},
		{Index: 2, Text: "b"},
		{Index: 3, Text: "c"},
		{Index: 4, Text: "d"},
	}
	got := Summary(pages)
	require.Equal(t, strings.Repeat("x", 500)+" b c", got)
	require.Equal(t, "", Summary(nil))
}
