package ai

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

const defaultOllamaURL = "http://127.0.0.1:11434"

type ollamaConfig struct {
	ServerURL string `json:"server_url"`
}

// ollamaProvider keeps one langchaingo client per model name.
type ollamaProvider struct {
	serverURL string

	mu      sync.Mutex
	clients map[string]*ollama.LLM
}

func (p *ollamaProvider) Name() string {
	return "ollama"
}

func (p *ollamaProvider) llm(model string) (*ollama.LLM, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.clients[model]; ok {
		return c, nil
	}
	c, err := ollama.New(
		ollama.WithServerURL(p.serverURL),
		ollama.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("init ollama client: %w", err)
	}
	p.clients[model] = c
	return c, nil
}

func (p *ollamaProvider) Generate(ctx context.Context, model string, prompt string, opts GenerateOptions) (string, error) {
	llm, err := p.llm(model)
	if err != nil {
		return "", err
	}
	callOpts := []llms.CallOption{
		llms.WithTemperature(opts.Temperature),
		llms.WithTopP(opts.TopP),
		llms.WithTopK(opts.TopK),
		llms.WithRepetitionPenalty(opts.RepetitionPenalty),
	}
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(opts.MaxTokens))
	}
	out, err := llms.GenerateFromSinglePrompt(ctx, llm, prompt, callOpts...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (p *ollamaProvider) Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error) {
	llm, err := p.llm(model)
	if err != nil {
		return nil, err
	}
	emb, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("init ollama embedder: %w", err)
	}
	return emb.EmbedQuery(ctx, text)
}

func newOllamaProvider(args interface{}) (*ollamaProvider, error) {
	cfg := &ollamaConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	serverURL := strings.TrimSpace(cfg.ServerURL)
	if serverURL == "" {
		serverURL = defaultOllamaURL
	}
	return &ollamaProvider{serverURL: serverURL, clients: make(map[string]*ollama.LLM)}, nil
}

func init() {
	Register("ollama", func(args interface{}) (IProvider, error) {
		p, err := newOllamaProvider(args)
		if err != nil {
			return nil, err
		}
		return p, nil
	})
	RegisterEmbed("ollama", func(args interface{}) (IEmbedProvider, error) {
		p, err := newOllamaProvider(args)
		if err != nil {
			return nil, err
		}
		return p, nil
	})
}
