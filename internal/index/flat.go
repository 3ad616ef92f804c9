package index

import (
	"context"
	"sort"

	"github.com/xxxsen/pdfchat/internal/model"
)

// flatSearcher is an exact brute-force scan over squared L2 distance.
type flatSearcher struct {
	chunks []model.Chunk
}

func newFlatSearcher(chunks []model.Chunk) *flatSearcher {
	return &flatSearcher{chunks: chunks}
}

type scored struct {
	pos  int
	id   int
	dist float64
}

func (f *flatSearcher) search(ctx context.Context, query []float32, topK int) ([]int, error) {
	items := make([]scored, 0, len(f.chunks))
	for i, c := range f.chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		items = append(items, scored{pos: i, id: c.ID, dist: squaredL2(query, c.Embedding)})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].dist != items[j].dist {
			return items[i].dist < items[j].dist
		}
		return items[i].id < items[j].id
	})
	if topK > len(items) {
		topK = len(items)
	}
	out := make([]int, 0, topK)
	for _, it := range items[:topK] {
		out = append(out, it.pos)
	}
	return out, nil
}

func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
