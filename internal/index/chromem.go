package index

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/philippgille/chromem-go"

	"github.com/xxxsen/pdfchat/internal/model"
	appErr "github.com/xxxsen/pdfchat/internal/pkg/errors"
)

const chromemCollection = "chunks"

// chromemSearcher keeps the chunks in a private in-memory chromem collection
// and ranks them by cosine similarity.
type chromemSearcher struct {
	collection *chromem.Collection
	positions  map[string]int
	ids        map[string]int
}

func newChromemSearcher(ctx context.Context, chunks []model.Chunk) (*chromemSearcher, error) {
	db := chromem.NewDB()
	// every document carries its embedding, so the collection never embeds on its own
	noEmbed := func(context.Context, string) ([]float32, error) {
		return nil, errors.New("chunk embeddings must be precomputed")
	}
	collection, err := db.CreateCollection(chromemCollection, nil, noEmbed)
	if err != nil {
		return nil, appErr.Wrap(appErr.ErrInternal, fmt.Errorf("create chromem collection: %w", err))
	}
	s := &chromemSearcher{
		collection: collection,
		positions:  make(map[string]int, len(chunks)),
		ids:        make(map[string]int, len(chunks)),
	}
	if len(chunks) == 0 {
		return s, nil
	}
	docs := make([]chromem.Document, 0, len(chunks))
	for i, c := range chunks {
		key := strconv.Itoa(c.ID)
		s.positions[key] = i
		s.ids[key] = c.ID
		docs = append(docs, chromem.Document{
			ID:        key,
			Content:   c.Text,
			Metadata:  map[string]string{"page": strconv.Itoa(c.SourcePage)},
			Embedding: append([]float32(nil), c.Embedding...),
		})
	}
	if err := collection.AddDocuments(ctx, docs, defaultConcurrency); err != nil {
		return nil, appErr.Wrap(appErr.ErrInternal, fmt.Errorf("add chromem documents: %w", err))
	}
	return s, nil
}

func (c *chromemSearcher) search(ctx context.Context, query []float32, topK int) ([]int, error) {
	count := c.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if topK > count {
		topK = count
	}
	results, err := c.collection.QueryEmbedding(ctx, append([]float32(nil), query...), topK, nil, nil)
	if err != nil {
		return nil, appErr.Wrap(appErr.ErrInternal, fmt.Errorf("query chromem: %w", err))
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return c.ids[results[i].ID] < c.ids[results[j].ID]
	})
	out := make([]int, 0, len(results))
	for _, r := range results {
		pos, ok := c.positions[r.ID]
		if !ok {
			return nil, appErr.Wrap(appErr.ErrInternal, fmt.Errorf("chromem returned unknown id %q", r.ID))
		}
		out = append(out, pos)
	}
	return out, nil
}
