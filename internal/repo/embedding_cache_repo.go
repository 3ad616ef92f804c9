package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/didi/gendry/builder"
	"github.com/pgvector/pgvector-go"

	"github.com/xxxsen/pdfchat/internal/model"
	"github.com/xxxsen/pdfchat/internal/pkg/dbutil"
)

const embeddingCacheTable = "embedding_cache"

// gendry has no portable upsert, so the write stays hand-written.
const embeddingCacheUpsert = `INSERT INTO embedding_cache (model_name, task_type, content_hash, embedding, ctime)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (model_name, task_type, content_hash)
DO UPDATE SET embedding = EXCLUDED.embedding, ctime = EXCLUDED.ctime`

// EmbeddingCacheRepo persists chunk and query vectors across restarts so a
// re-uploaded document does not pay for embedding twice.
type EmbeddingCacheRepo struct {
	db *sql.DB
}

func NewEmbeddingCacheRepo(db *sql.DB) *EmbeddingCacheRepo {
	return &EmbeddingCacheRepo{db: db}
}

func embeddingLookupQuery(modelName, taskType, contentHash string) (string, []interface{}, error) {
	where := map[string]interface{}{
		"model_name":   modelName,
		"task_type":    taskType,
		"content_hash": contentHash,
		"_limit":       []uint{0, 1},
	}
	return dbutil.Postgres(builder.BuildSelect(embeddingCacheTable, where, []string{"embedding"}))
}

func embeddingExpireQuery(cutoff int64) (string, []interface{}, error) {
	return dbutil.Postgres(builder.BuildDelete(embeddingCacheTable, map[string]interface{}{"ctime <": cutoff}))
}

func (r *EmbeddingCacheRepo) Get(ctx context.Context, modelName, taskType, contentHash string) ([]float32, bool, error) {
	query, args, err := embeddingLookupQuery(modelName, taskType, contentHash)
	if err != nil {
		return nil, false, err
	}
	var vec pgvector.Vector
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&vec); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return vec.Slice(), true, nil
}

func (r *EmbeddingCacheRepo) Save(ctx context.Context, item *model.EmbeddingCache) error {
	if len(item.Embedding) == 0 {
		return fmt.Errorf("refuse to cache empty embedding for %s", item.ModelName)
	}
	_, err := r.db.ExecContext(ctx, embeddingCacheUpsert,
		item.ModelName, item.TaskType, item.ContentHash, pgvector.NewVector(item.Embedding), item.Ctime)
	return err
}

// DeleteBefore drops entries created before cutoff (unix seconds).
func (r *EmbeddingCacheRepo) DeleteBefore(ctx context.Context, cutoff int64) (int64, error) {
	query, args, err := embeddingExpireQuery(cutoff)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
