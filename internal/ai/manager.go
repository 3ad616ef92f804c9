package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/pdfchat/internal/model"
	appErr "github.com/xxxsen/pdfchat/internal/pkg/errors"
)

const defaultLoadTimeout = 10 * time.Minute

type State int32

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Loader builds the generator. It may block for a long time, for example
// while a model server pulls weights.
type Loader func(ctx context.Context) (IGenerator, error)

type ManagerConfig struct {
	Timeout    time.Duration
	Generation model.GenerationConfig
}

// Manager owns the generation model lifecycle. Loading happens at most once
// at a time; callers arriving during a load wait for its outcome.
type Manager struct {
	loader    Loader
	tokenizer Tokenizer
	cfg       ManagerConfig

	mu      sync.Mutex
	state   State
	gen     IGenerator
	lastErr error
	loading chan struct{}
}

func NewManager(loader Loader, tokenizer Tokenizer, cfg ManagerConfig) *Manager {
	if tokenizer == nil {
		tokenizer = whitespaceTokenizer{}
	}
	return &Manager{
		loader:    loader,
		tokenizer: tokenizer,
		cfg:       cfg,
	}
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// LastError returns the failure of the most recent load, if any.
func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

func (m *Manager) Config() model.GenerationConfig {
	return m.cfg.Generation
}

func (m *Manager) Init(ctx context.Context) error {
	m.mu.Lock()
	if m.state == StateReady {
		m.mu.Unlock()
		return nil
	}
	if ch := m.loading; ch != nil {
		m.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
		return m.LastError()
	}
	ch := make(chan struct{})
	m.loading = ch
	m.state = StateLoading
	m.mu.Unlock()

	// the load is detached from ctx; cancelling ctx only ends this wait
	go m.runLoad(context.WithoutCancel(ctx), ch)
	select {
	case <-ch:
		return m.LastError()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) runLoad(ctx context.Context, done chan struct{}) {
	ctx, cancel := context.WithTimeout(ctx, defaultLoadTimeout)
	defer cancel()

	logger := logutil.GetLogger(ctx)
	start := time.Now()
	logger.Info("loading generation model")
	gen, err := m.load(ctx)

	m.mu.Lock()
	if err != nil {
		m.state = StateFailed
		m.gen = nil
		m.lastErr = err
	} else {
		m.state = StateReady
		m.gen = gen
		m.lastErr = nil
	}
	m.loading = nil
	close(done)
	m.mu.Unlock()

	if err != nil {
		logger.Error("load generation model failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return
	}
	logger.Info("generation model ready", zap.Duration("duration", time.Since(start)))
}

func (m *Manager) load(ctx context.Context) (gen IGenerator, err error) {
	if m.loader == nil {
		return nil, fmt.Errorf("generation model loader not configured")
	}
	defer func() {
		if rec := recover(); rec != nil {
			gen, err = nil, fmt.Errorf("load generation model: %v", rec)
		}
	}()
	gen, err = m.loader(ctx)
	if err == nil && gen == nil {
		err = fmt.Errorf("generation model loader returned nothing")
	}
	return gen, err
}

// Reload drops the current generator and loads a fresh one. A load already
// in flight is joined instead of restarted.
func (m *Manager) Reload(ctx context.Context) error {
	m.mu.Lock()
	if m.loading == nil {
		m.state = StateUninitialized
		m.gen = nil
	}
	m.mu.Unlock()
	return m.Init(ctx)
}

func (m *Manager) generator() IGenerator {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gen
}

// Generate runs one inference with the configured sampling parameters and
// returns only the continuation. A failed attempt triggers exactly one model
// reload and retry.
func (m *Manager) Generate(ctx context.Context, prompt string) (string, error) {
	logger := logutil.GetLogger(ctx)
	if m.State() != StateReady {
		if err := m.Init(ctx); err != nil {
			return "", appErr.Wrap(appErr.ErrModelUnavailable, err)
		}
	}
	out, err := m.generateOnce(ctx, prompt)
	if err == nil {
		return out, nil
	}
	if ctx.Err() != nil {
		return "", appErr.Wrap(appErr.ErrGeneration, err)
	}
	logger.Warn("generation failed, reloading model", zap.Error(err))
	if rerr := m.Reload(ctx); rerr != nil {
		return "", appErr.Wrap(appErr.ErrModelUnavailable, errors.Join(err, rerr))
	}
	out, err = m.generateOnce(ctx, prompt)
	if err != nil {
		logger.Error("generation failed after reload", zap.Error(err))
		return "", appErr.Wrap(appErr.ErrGeneration, err)
	}
	return out, nil
}

func (m *Manager) generateOnce(ctx context.Context, prompt string) (string, error) {
	gen := m.generator()
	if gen == nil {
		return "", ErrUnavailable
	}
	cfg := m.cfg.Generation
	input := m.tokenizer.TruncateTail(prompt, cfg.MaxLength)
	if len(input) != len(prompt) {
		logutil.GetLogger(ctx).Debug("prompt truncated",
			zap.Int("max_tokens", cfg.MaxLength),
			zap.Int("prompt_chars", len(prompt)),
			zap.Int("kept_chars", len(input)),
		)
	}
	if m.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.Timeout)
		defer cancel()
	}
	resp, err := gen.Generate(ctx, input, GenerateOptions{
		MaxTokens:         cfg.MaxNewTokens,
		Temperature:       cfg.Temperature,
		TopP:              cfg.TopP,
		TopK:              cfg.TopK,
		RepetitionPenalty: cfg.RepetitionPenalty,
	})
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("generation timed out after %s: %w", m.cfg.Timeout, err)
		}
		return "", err
	}
	text := StripEcho(resp, input, prompt)
	if text == "" {
		return "", fmt.Errorf("empty ai response")
	}
	return text, nil
}

// StripEcho removes a leading copy of the prompt from a model output and
// trims the rest.
func StripEcho(output string, prompts ...string) string {
	for _, p := range prompts {
		if p != "" && strings.HasPrefix(output, p) {
			output = output[len(p):]
			break
		}
	}
	return strings.TrimSpace(output)
}
