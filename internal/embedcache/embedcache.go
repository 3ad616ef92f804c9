// Package embedcache layers caches in front of an embedder. Lookups walk the
// stores in order and a hit in a lower store is copied into the ones above it.
package embedcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/pdfchat/internal/ai"
)

type Key struct {
	ModelName   string
	TaskType    string
	ContentHash string
}

func NewKey(modelName, taskType, text string) Key {
	modelName = strings.TrimSpace(modelName)
	if modelName == "" {
		modelName = "unknown"
	}
	hash := sha256.Sum256([]byte(text))
	return Key{ModelName: modelName, TaskType: taskType, ContentHash: hex.EncodeToString(hash[:])}
}

func (k Key) String() string {
	return "embed:" + k.ModelName + ":" + k.TaskType + ":" + k.ContentHash
}

type Store interface {
	Name() string
	Get(ctx context.Context, key Key) ([]float32, bool, error)
	Save(ctx context.Context, key Key, values []float32) error
}

// Wrap returns e unchanged when there is no store to consult.
func Wrap(e ai.IEmbedder, stores ...Store) ai.IEmbedder {
	var active []Store
	for _, s := range stores {
		if s != nil {
			active = append(active, s)
		}
	}
	if e == nil || len(active) == 0 {
		return e
	}
	return &cachedEmbedder{next: e, stores: active}
}

type cachedEmbedder struct {
	next   ai.IEmbedder
	stores []Store
}

func (c *cachedEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	logger := logutil.GetLogger(ctx)
	key := NewKey(c.next.ModelName(), taskType, text)
	for i, s := range c.stores {
		values, ok, err := s.Get(ctx, key)
		if err != nil {
			logger.Warn("embedding cache read failed", zap.String("store", s.Name()), zap.Error(err))
			continue
		}
		if !ok {
			continue
		}
		logger.Debug("embedding cache hit", zap.String("store", s.Name()), zap.String("task_type", taskType))
		c.fill(ctx, key, values, c.stores[:i])
		return cloneEmbedding(values), nil
	}
	res, err := c.next.Embed(ctx, text, taskType)
	if err != nil {
		return nil, err
	}
	c.fill(ctx, key, res, c.stores)
	return res, nil
}

func (c *cachedEmbedder) fill(ctx context.Context, key Key, values []float32, stores []Store) {
	for _, s := range stores {
		if err := s.Save(ctx, key, cloneEmbedding(values)); err != nil {
			logutil.GetLogger(ctx).Warn("failed to cache embedding", zap.String("store", s.Name()), zap.Error(err))
		}
	}
}

func (c *cachedEmbedder) ModelName() string {
	return c.next.ModelName()
}

func cloneEmbedding(values []float32) []float32 {
	if len(values) == 0 {
		return nil
	}
	clone := make([]float32, len(values))
	copy(clone, values)
	return clone
}
