package embedcache

import (
	"context"
	"time"

	"github.com/xxxsen/pdfchat/internal/model"
	"github.com/xxxsen/pdfchat/internal/repo"
)

type dbStore struct {
	repo *repo.EmbeddingCacheRepo
}

func NewDBStore(r *repo.EmbeddingCacheRepo) Store {
	if r == nil {
		return nil
	}
	return &dbStore{repo: r}
}

func (d *dbStore) Name() string {
	return "db"
}

func (d *dbStore) Get(ctx context.Context, key Key) ([]float32, bool, error) {
	return d.repo.Get(ctx, key.ModelName, key.TaskType, key.ContentHash)
}

func (d *dbStore) Save(ctx context.Context, key Key, values []float32) error {
	return d.repo.Save(ctx, &model.EmbeddingCache{
		ModelName:   key.ModelName,
		TaskType:    key.TaskType,
		ContentHash: key.ContentHash,
		Embedding:   values,
		Ctime:       time.Now().Unix(),
	})
}
