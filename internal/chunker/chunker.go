package chunker

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/pdfchat/internal/model"
)

const (
	DefaultSize    = 1000
	DefaultOverlap = 200
)

// Chunker splits page text into overlapping windows measured in runes.
type Chunker struct {
	size    int
	overlap int
}

func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive")
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d)", size)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Split returns chunks in page order with ids numbered from 0. A page no
// longer than one window becomes a single chunk.
func (c *Chunker) Split(ctx context.Context, pages []model.PageRecord) []model.Chunk {
	logger := logutil.GetLogger(ctx)
	var chunks []model.Chunk
	emit := func(page int, text string) {
		text = strings.TrimSpace(text)
		if text == "" {
			return
		}
		chunks = append(chunks, model.Chunk{ID: len(chunks), SourcePage: page, Text: text})
	}
	for _, p := range pages {
		runes := []rune(p.Text)
		if len(runes) <= c.size {
			emit(p.Index, p.Text)
			continue
		}
		start := 0
		for start < len(runes) {
			end := start + c.size
			if end >= len(runes) {
				emit(p.Index, string(runes[start:]))
				break
			}
			end = c.cleanBreak(runes, start, end)
			emit(p.Index, string(runes[start:end]))
			next := end - c.overlap
			if next <= start {
				next = end
			}
			start = next
		}
	}
	logger.Debug("pages chunked",
		zap.Int("pages", len(pages)),
		zap.Int("chunks", len(chunks)),
		zap.Int("size", c.size),
		zap.Int("overlap", c.overlap),
	)
	return chunks
}

// cleanBreak moves end back to just after the last whitespace found in the
// trailing fifth of the window.
func (c *Chunker) cleanBreak(runes []rune, start, end int) int {
	floor := end - c.size/5
	if floor <= start {
		floor = start + 1
	}
	for i := end - 1; i >= floor; i-- {
		if unicode.IsSpace(runes[i]) {
			return i + 1
		}
	}
	return end
}
