package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const defaultCacheRetentionDays = 30

type CacheCleaner interface {
	DeleteBefore(ctx context.Context, cutoff int64) (int64, error)
}

// EmbeddingCacheCleanupJob drops persisted embeddings older than the
// retention window.
type EmbeddingCacheCleanupJob struct {
	cleaner       CacheCleaner
	retentionDays int
	now           func() time.Time
}

func NewEmbeddingCacheCleanupJob(cleaner CacheCleaner, retentionDays int) *EmbeddingCacheCleanupJob {
	if retentionDays <= 0 {
		retentionDays = defaultCacheRetentionDays
	}
	return &EmbeddingCacheCleanupJob{cleaner: cleaner, retentionDays: retentionDays, now: time.Now}
}

func (j *EmbeddingCacheCleanupJob) Name() string {
	return "embedding_cache_cleanup"
}

func (j *EmbeddingCacheCleanupJob) Run(ctx context.Context) error {
	if j.cleaner == nil {
		return nil
	}
	cutoff := j.now().Add(-time.Duration(j.retentionDays) * 24 * time.Hour).Unix()
	removed, err := j.cleaner.DeleteBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if removed > 0 {
		logutil.GetLogger(ctx).Info("embedding cache trimmed", zap.Int64("removed", removed))
	}
	return nil
}
