// Package index embeds document chunks and answers nearest-neighbour queries
// over them. A Snapshot is immutable once built; a new document gets a new
// Snapshot instead of mutating the old one.
package index

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xxxsen/pdfchat/internal/ai"
	"github.com/xxxsen/pdfchat/internal/model"
	appErr "github.com/xxxsen/pdfchat/internal/pkg/errors"
)

const (
	BackendFlat    = "flat"
	BackendChromem = "chromem"

	defaultConcurrency = 4
)

type searcher interface {
	// search returns positions into the snapshot chunk slice, best first.
	search(ctx context.Context, query []float32, topK int) ([]int, error)
}

type options struct {
	backend     string
	concurrency int
}

type Option func(*options)

func WithBackend(name string) Option {
	return func(o *options) {
		o.backend = strings.ToLower(strings.TrimSpace(name))
	}
}

func WithConcurrency(n int) Option {
	return func(o *options) {
		o.concurrency = n
	}
}

type Snapshot struct {
	chunks  []model.Chunk
	dim     int
	backend string
	s       searcher
}

// Build embeds every chunk and returns a ready snapshot. Chunks are copied,
// the caller's slice is not modified.
func Build(ctx context.Context, embedder ai.IEmbedder, chunks []model.Chunk, opts ...Option) (*Snapshot, error) {
	o := options{backend: BackendFlat, concurrency: defaultConcurrency}
	for _, opt := range opts {
		opt(&o)
	}
	if o.concurrency <= 0 {
		o.concurrency = defaultConcurrency
	}
	if embedder == nil {
		return nil, appErr.Wrap(appErr.ErrModelUnavailable, fmt.Errorf("no embedder configured"))
	}
	logger := logutil.GetLogger(ctx).With(zap.String("backend", o.backend), zap.Int("chunks", len(chunks)))
	start := time.Now()

	items := make([]model.Chunk, len(chunks))
	copy(items, chunks)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for i := range items {
		i := i
		g.Go(func() error {
			vec, err := embedder.Embed(gctx, items[i].Text, ai.TaskRetrievalDocument)
			if err != nil {
				return fmt.Errorf("embed chunk %d: %w", items[i].ID, err)
			}
			items[i].Embedding = vec
			logger.Debug("chunk embedded", zap.Int("chunk_id", items[i].ID), zap.Int("dim", len(vec)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, appErr.Wrap(appErr.ErrModelUnavailable, err)
	}

	dim, err := checkDimensions(items)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{chunks: items, dim: dim, backend: o.backend}
	switch o.backend {
	case BackendFlat, "":
		snap.backend = BackendFlat
		snap.s = newFlatSearcher(items)
	case BackendChromem:
		s, err := newChromemSearcher(ctx, items)
		if err != nil {
			return nil, err
		}
		snap.s = s
	default:
		return nil, appErr.Wrap(appErr.ErrInvalid, fmt.Errorf("unknown index backend %q", o.backend))
	}
	logger.Info("index built", zap.Int("dim", dim), zap.Duration("cost", time.Since(start)))
	return snap, nil
}

func checkDimensions(chunks []model.Chunk) (int, error) {
	dim := 0
	for i, c := range chunks {
		if len(c.Embedding) == 0 {
			return 0, appErr.Wrap(appErr.ErrInternal, fmt.Errorf("chunk %d has an empty embedding", c.ID))
		}
		if i == 0 {
			dim = len(c.Embedding)
			continue
		}
		if len(c.Embedding) != dim {
			return 0, appErr.Wrap(appErr.ErrInternal,
				fmt.Errorf("embedding dimension mismatch: chunk %d has %d, want %d", c.ID, len(c.Embedding), dim))
		}
	}
	return dim, nil
}

// Search returns up to topK chunks nearest to query. Calling it on a nil
// snapshot reports ErrIndexNotBuilt.
func (s *Snapshot) Search(ctx context.Context, embedder ai.IEmbedder, query string, topK int) ([]model.Chunk, error) {
	if s == nil {
		return nil, appErr.ErrIndexNotBuilt
	}
	if topK <= 0 {
		return nil, appErr.Wrap(appErr.ErrInvalid, fmt.Errorf("top_k must be positive, got %d", topK))
	}
	if len(s.chunks) == 0 {
		return []model.Chunk{}, nil
	}
	if embedder == nil {
		return nil, appErr.Wrap(appErr.ErrModelUnavailable, fmt.Errorf("no embedder configured"))
	}
	vec, err := embedder.Embed(ctx, query, ai.TaskRetrievalQuery)
	if err != nil {
		return nil, appErr.Wrap(appErr.ErrModelUnavailable, fmt.Errorf("embed query: %w", err))
	}
	if len(vec) != s.dim {
		return nil, appErr.Wrap(appErr.ErrInternal,
			fmt.Errorf("query dimension %d does not match index dimension %d", len(vec), s.dim))
	}
	if topK > len(s.chunks) {
		topK = len(s.chunks)
	}
	positions, err := s.s.search(ctx, vec, topK)
	if err != nil {
		return nil, err
	}
	out := make([]model.Chunk, 0, len(positions))
	for _, p := range positions {
		out = append(out, s.chunks[p])
	}
	return out, nil
}

func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.chunks)
}

func (s *Snapshot) Dim() int {
	if s == nil {
		return 0
	}
	return s.dim
}

func (s *Snapshot) Backend() string {
	if s == nil {
		return ""
	}
	return s.backend
}

// Chunks returns a copy of the indexed chunks in id order.
func (s *Snapshot) Chunks() []model.Chunk {
	if s == nil {
		return nil
	}
	out := make([]model.Chunk, len(s.chunks))
	copy(out, s.chunks)
	return out
}

// JoinContext concatenates retrieved chunk texts with single spaces.
func JoinContext(chunks []model.Chunk) string {
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		parts = append(parts, c.Text)
	}
	return strings.Join(parts, " ")
}
