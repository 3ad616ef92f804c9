package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"go.uber.org/zap"

	"github.com/xxxsen/pdfchat/internal/ai"
	"github.com/xxxsen/pdfchat/internal/chunker"
	"github.com/xxxsen/pdfchat/internal/filestore"
	"github.com/xxxsen/pdfchat/internal/index"
	"github.com/xxxsen/pdfchat/internal/model"
	"github.com/xxxsen/pdfchat/internal/pdftext"
	appErr "github.com/xxxsen/pdfchat/internal/pkg/errors"
	"github.com/xxxsen/pdfchat/internal/prompt"
	"github.com/xxxsen/pdfchat/internal/session"
)

// Generator turns a finished prompt into an answer. *ai.Manager implements it.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type IngestRecorder interface {
	Create(ctx context.Context, rec *model.IngestRecord) error
}

type ChatConfig struct {
	TopK             int
	Backend          string
	EmbedConcurrency int
	MaxContextChars  int
}

type ChatOption func(*ChatService)

// WithArchive stores every successfully ingested upload.
func WithArchive(store filestore.Store) ChatOption {
	return func(s *ChatService) {
		s.archive = store
	}
}

func WithIngestRecorder(r IngestRecorder) ChatOption {
	return func(s *ChatService) {
		s.records = r
	}
}

// WithAnswerCache memoizes answers by prompt. size <= 0 disables it.
func WithAnswerCache(size int, ttl time.Duration) ChatOption {
	return func(s *ChatService) {
		if size <= 0 {
			s.answers = nil
			return
		}
		s.answers = expirable.NewLRU[string, string](size, nil, ttl)
	}
}

type ChatService struct {
	sessions  *session.Store
	extractor *pdftext.Extractor
	chunker   *chunker.Chunker
	embedder  ai.IEmbedder
	generator Generator
	assembler *prompt.Assembler
	cfg       ChatConfig

	archive filestore.Store
	records IngestRecorder
	answers *expirable.LRU[string, string]
	md      goldmark.Markdown
}

func NewChatService(
	sessions *session.Store,
	extractor *pdftext.Extractor,
	splitter *chunker.Chunker,
	embedder ai.IEmbedder,
	generator Generator,
	assembler *prompt.Assembler,
	cfg ChatConfig,
	opts ...ChatOption,
) *ChatService {
	if cfg.TopK <= 0 {
		cfg.TopK = 3
	}
	s := &ChatService{
		sessions:  sessions,
		extractor: extractor,
		chunker:   splitter,
		embedder:  embedder,
		generator: generator,
		assembler: assembler,
		cfg:       cfg,
		md:        goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ChatService) Sessions() *session.Store {
	return s.sessions
}

// Ingest replaces the session's document with the one in r. On failure the
// previous document stays loaded; UserMessage explains extraction errors.
func (s *ChatService) Ingest(ctx context.Context, sessionID, fileName string, r io.ReaderAt, size int64) (*model.IngestResult, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("session_id", sessionID), zap.String("file", fileName))
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	unlock := sess.LockIngest()
	defer unlock()

	start := time.Now()
	pages, err := s.extractor.ExtractReader(ctx, r, size)
	if err != nil {
		logger.Error("extract pdf failed", zap.Error(err))
		return nil, err
	}
	chunks := s.chunker.Split(ctx, pages)
	snap, err := index.Build(ctx, s.embedder, chunks,
		index.WithBackend(s.cfg.Backend),
		index.WithConcurrency(s.cfg.EmbedConcurrency),
	)
	if err != nil {
		logger.Error("build index failed", zap.Error(err))
		return nil, err
	}
	stats := model.ComputeStatistics(pages)
	sess.Publish(session.Document{
		FileName:   fileName,
		Pages:      pages,
		Statistics: stats,
		Snapshot:   snap,
	})
	logger.Info("document ingested",
		zap.Int("pages", stats.TotalPages),
		zap.Int("words", stats.TotalWords),
		zap.Int("chunks", snap.Len()),
		zap.Duration("cost", time.Since(start)),
	)
	s.persistUpload(ctx, sessionID, fileName, r, size, stats, snap.Len())

	return &model.IngestResult{
		Success:    true,
		Message:    s.assembler.StatisticsMessage(stats),
		Statistics: stats,
	}, nil
}

// persistUpload archives the file and records the ingestion. Both are
// optional and their failures only get logged.
func (s *ChatService) persistUpload(ctx context.Context, sessionID, fileName string, r io.ReaderAt, size int64, stats model.Statistics, chunkCount int) {
	if s.archive == nil && s.records == nil {
		return
	}
	logger := logutil.GetLogger(ctx).With(zap.String("session_id", sessionID))
	id := uuid.NewString()
	fileKey := ""
	if s.archive != nil {
		key := id + ".pdf"
		if err := s.archive.Save(ctx, key, io.NewSectionReader(r, 0, size), size); err != nil {
			logger.Warn("archive upload failed", zap.String("store", s.archive.Type()), zap.Error(err))
		} else {
			fileKey = key
		}
	}
	if s.records == nil {
		return
	}
	rec := &model.IngestRecord{
		ID:        id,
		SessionID: sessionID,
		FileName:  fileName,
		FileKey:   fileKey,
		Pages:     stats.TotalPages,
		Words:     stats.TotalWords,
		Chunks:    chunkCount,
		Ctime:     time.Now().Unix(),
	}
	if err := s.records.Create(ctx, rec); err != nil {
		logger.Warn("save ingest record failed", zap.Error(err))
	}
}

func (s *ChatService) Ask(ctx context.Context, sessionID, question string) (*model.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, appErr.Wrap(appErr.ErrInvalid, fmt.Errorf("question is empty"))
	}
	logger := logutil.GetLogger(ctx).With(zap.String("session_id", sessionID))
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	view := sess.View()
	if !view.Loaded {
		return nil, appErr.ErrNoDocumentLoaded
	}

	sources, err := view.Snapshot.Search(ctx, s.embedder, question, s.cfg.TopK)
	if err != nil {
		logger.Error("search failed", zap.Error(err))
		return nil, err
	}
	contextText := index.JoinContext(sources)
	if strings.TrimSpace(contextText) == "" {
		contextText = pdftext.Summary(view.Pages)
		if strings.TrimSpace(contextText) == "" {
			contextText = s.assembler.NoContentMessage()
		}
		logger.Debug("retrieval empty, using document summary", zap.Int("summary_chars", len(contextText)))
	}
	text := s.assembler.Assemble(contextText, view.History, question, s.cfg.MaxContextChars)

	answer, err := s.generate(ctx, text)
	if err != nil {
		logger.Error("generate answer failed", zap.Error(err))
		return nil, err
	}
	if !sess.AppendTurn(view.Snapshot, question, answer) {
		logger.Info("document replaced while answering, turn not recorded")
	}
	html, err := s.renderHTML(answer)
	if err != nil {
		logger.Warn("render answer html failed", zap.Error(err))
	}
	return &model.Answer{Text: answer, HTML: html, Sources: sources}, nil
}

func (s *ChatService) generate(ctx context.Context, text string) (string, error) {
	if s.answers == nil {
		return s.generator.Generate(ctx, text)
	}
	sum := sha256.Sum256([]byte(text))
	key := hex.EncodeToString(sum[:])
	if cached, ok := s.answers.Get(key); ok {
		logutil.GetLogger(ctx).Debug("answer cache hit")
		return cached, nil
	}
	answer, err := s.generator.Generate(ctx, text)
	if err != nil {
		return "", err
	}
	s.answers.Add(key, answer)
	return answer, nil
}

func (s *ChatService) renderHTML(answer string) (string, error) {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(answer), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type DocumentStatus struct {
	Loaded     bool             `json:"is_loaded"`
	FileName   string           `json:"file_name,omitempty"`
	Chunks     int              `json:"chunks"`
	Statistics model.Statistics `json:"statistics"`
}

func (s *ChatService) Statistics(ctx context.Context, sessionID string) (*DocumentStatus, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	view := sess.View()
	return &DocumentStatus{
		Loaded:     view.Loaded,
		FileName:   view.FileName,
		Chunks:     view.Snapshot.Len(),
		Statistics: view.Statistics,
	}, nil
}

func (s *ChatService) History(ctx context.Context, sessionID string) ([]model.Turn, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.History().Turns(), nil
}

func (s *ChatService) ResetHistory(ctx context.Context, sessionID string) error {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	sess.History().Clear()
	logutil.GetLogger(ctx).Info("history cleared", zap.String("session_id", sessionID))
	return nil
}

// UserMessage gives the localized text shown to users for errors that have
// one, or "" otherwise.
func (s *ChatService) UserMessage(err error) string {
	switch {
	case errors.Is(err, appErr.ErrNoDocumentLoaded):
		return s.assembler.NoDocumentMessage()
	case errors.Is(err, appErr.ErrExtraction):
		return s.assembler.ExtractionFailedMessage()
	default:
		return ""
	}
}

func (s *ChatService) ExtractionFailedMessage() string {
	return s.assembler.ExtractionFailedMessage()
}
