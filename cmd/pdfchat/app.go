package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/pdfchat/internal/ai"
	"github.com/xxxsen/pdfchat/internal/chunker"
	"github.com/xxxsen/pdfchat/internal/config"
	"github.com/xxxsen/pdfchat/internal/db"
	"github.com/xxxsen/pdfchat/internal/embedcache"
	"github.com/xxxsen/pdfchat/internal/filestore"
	"github.com/xxxsen/pdfchat/internal/pdftext"
	"github.com/xxxsen/pdfchat/internal/prompt"
	"github.com/xxxsen/pdfchat/internal/repo"
	"github.com/xxxsen/pdfchat/internal/service"
	"github.com/xxxsen/pdfchat/internal/session"
)

type app struct {
	cfg       *config.Config
	db        *sql.DB
	cacheRepo *repo.EmbeddingCacheRepo
	manager   *ai.Manager
	sessions  *session.Store
	chat      *service.ChatService
}

func (a *app) Close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}

func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logger := logutil.GetLogger(ctx)
	a := &app{cfg: cfg}

	tokenizer, err := ai.NewTokenizer(cfg.AI.Tokenizer)
	if err != nil {
		logger.Warn("tokenizer unavailable, counting whitespace tokens instead", zap.String("tokenizer", cfg.AI.Tokenizer), zap.Error(err))
		tokenizer, _ = ai.NewTokenizer(ai.TokenizerWhitespace)
	}
	a.manager = ai.NewManager(generatorLoader(cfg.AI.Generators), tokenizer, ai.ManagerConfig{
		Timeout:    time.Duration(cfg.AI.Timeout) * time.Second,
		Generation: cfg.Generation,
	})

	embedder, err := buildEmbedder(cfg.AI.Embedders)
	if err != nil {
		return nil, err
	}

	var opts []service.ChatOption
	if cfg.Database.Enabled() {
		conn, err := db.Open(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		if err := db.ApplyMigrations(ctx, conn); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
		a.db = conn
		a.cacheRepo = repo.NewEmbeddingCacheRepo(conn)
		opts = append(opts, service.WithIngestRecorder(repo.NewIngestRecordRepo(conn)))
		logger.Info("database enabled")
	}
	embedder = embedcache.Wrap(embedder,
		embedcache.NewLRUStore(cfg.EmbedCache.LRUSize, time.Duration(cfg.EmbedCache.LRUTTLMinutes)*time.Minute),
		embedcache.NewDBStore(a.cacheRepo),
	)

	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init file store: %w", err)
	}
	if store != nil {
		opts = append(opts, service.WithArchive(store))
	}
	opts = append(opts, service.WithAnswerCache(cfg.AnswerCache.Size, time.Duration(cfg.AnswerCache.TTLMinutes)*time.Minute))

	locale, err := prompt.LookupLocale(cfg.Conversation.Locale)
	if err != nil {
		a.Close()
		return nil, err
	}
	splitter, err := chunker.New(cfg.Retrieval.ChunkSize, cfg.Retrieval.ChunkOverlap)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.sessions = session.NewStore(session.StoreConfig{
		MaxSessions: cfg.Session.MaxSessions,
		MaxTurns:    cfg.Conversation.MaxTurns,
		Labels:      locale.History,
	})
	a.chat = service.NewChatService(
		a.sessions,
		pdftext.New(pdftext.WithStrictValidation(cfg.Extractor.StrictValidation)),
		splitter,
		embedder,
		a.manager,
		prompt.New(locale),
		service.ChatConfig{
			TopK:             cfg.Retrieval.TopK,
			Backend:          cfg.Retrieval.Backend,
			EmbedConcurrency: cfg.Retrieval.EmbedConcurrency,
			MaxContextChars:  cfg.Generation.MaxContextChars,
		},
		opts...,
	)
	logger.Info("pipeline ready",
		zap.String("embedder", embedder.ModelName()),
		zap.String("tokenizer", tokenizer.Name()),
		zap.String("index_backend", cfg.Retrieval.Backend),
		zap.String("locale", locale.Name),
	)
	return a, nil
}

func entryName(p config.AIProviderConfig) string {
	if p.Name != "" {
		return p.Name
	}
	return strings.Trim(p.Provider+"/"+p.Model, "/")
}

// generatorLoader defers provider construction to the model manager so a
// provider that cannot start yet leaves the service up in the failed state.
func generatorLoader(items []config.AIProviderConfig) ai.Loader {
	return func(ctx context.Context) (ai.IGenerator, error) {
		entries := make([]ai.GeneratorEntry, 0, len(items))
		for _, item := range items {
			provider, err := ai.NewProvider(item.Provider, item.Data)
			if err != nil {
				logutil.GetLogger(ctx).Warn("skip generator", zap.String("name", entryName(item)), zap.Error(err))
				continue
			}
			entries = append(entries, ai.GeneratorEntry{Name: entryName(item), Generator: ai.NewGenerator(provider, item.Model)})
		}
		gen := ai.NewGroupGenerator(entries)
		if gen == nil {
			return nil, fmt.Errorf("no usable generator among %d configured", len(items))
		}
		return gen, nil
	}
}

func buildEmbedder(items []config.AIProviderConfig) (ai.IEmbedder, error) {
	entries := make([]ai.EmbedderEntry, 0, len(items))
	for _, item := range items {
		provider, err := ai.NewEmbedProvider(item.Provider, item.Data)
		if err != nil {
			return nil, fmt.Errorf("init embedder %s: %w", entryName(item), err)
		}
		entries = append(entries, ai.EmbedderEntry{Name: entryName(item), Embedder: ai.NewEmbedder(provider, item.Model)})
	}
	emb := ai.NewGroupEmbedder(entries)
	if emb == nil {
		return nil, fmt.Errorf("no embedder configured")
	}
	return emb, nil
}
