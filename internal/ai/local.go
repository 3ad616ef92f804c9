package ai

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

const defaultLocalDimension = 256

type localConfig struct {
	Dimension int  `json:"dimension"`
	Echo      bool `json:"echo"`
}

// localProvider runs without any model server. Generation is extractive: it
// answers with the sentence of the prompt that shares the most words with the
// prompt's closing lines. Embeddings are hashed bag-of-words vectors.
type localProvider struct {
	dimension int
	echo      bool
}

func (p *localProvider) Name() string {
	return "local"
}

func (p *localProvider) Generate(ctx context.Context, model string, prompt string, opts GenerateOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	answer := bestSentence(prompt)
	if opts.MaxTokens > 0 {
		words := strings.Fields(answer)
		if len(words) > opts.MaxTokens {
			answer = strings.Join(words[:opts.MaxTokens], " ")
		}
	}
	if p.echo {
		// mimic causal models that return the prompt followed by the continuation
		return prompt + " " + answer, nil
	}
	return answer, nil
}

func (p *localProvider) Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vec := make([]float32, p.dimension)
	for _, tok := range tokenize(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		sum := h.Sum32()
		idx := int(sum % uint32(p.dimension))
		if sum&(1<<31) != 0 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}
	normalize(vec)
	return vec, nil
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) > 1 {
			out = append(out, f)
		}
	}
	return out
}

func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}

// bestSentence scores every sentence of the prompt body against the last two
// non-empty lines, which hold the question and the answer cue. Words shared
// by many sentences, such as section labels, weigh less.
func bestSentence(prompt string) string {
	lines := strings.Split(prompt, "\n")
	var tail []string
	cut := len(lines)
	for i := len(lines) - 1; i >= 0 && len(tail) < 2; i-- {
		if strings.TrimSpace(lines[i]) == "" {
			continue
		}
		tail = append(tail, lines[i])
		cut = i
	}
	query := map[string]struct{}{}
	for _, line := range tail {
		for _, tok := range tokenize(line) {
			query[tok] = struct{}{}
		}
	}
	body := strings.Join(lines[:cut], "\n")
	sentences := strings.FieldsFunc(body, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	})
	df := map[string]int{}
	sentenceTokens := make([][]string, len(sentences))
	for i, s := range sentences {
		seen := map[string]struct{}{}
		for _, tok := range tokenize(s) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			sentenceTokens[i] = append(sentenceTokens[i], tok)
			df[tok]++
		}
	}
	best, bestScore := "", 0.0
	for i, s := range sentences {
		score := 0.0
		for _, tok := range sentenceTokens[i] {
			if _, ok := query[tok]; ok {
				score += 1 / float64(df[tok])
			}
		}
		if score > bestScore {
			best, bestScore = strings.TrimSpace(s), score
		}
	}
	if best == "" {
		return "I could not find an answer in the document."
	}
	return best + "."
}

func newLocalProvider(args interface{}) (*localProvider, error) {
	cfg := &localConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = defaultLocalDimension
	}
	return &localProvider{dimension: cfg.Dimension, echo: cfg.Echo}, nil
}

func init() {
	Register("local", func(args interface{}) (IProvider, error) {
		p, err := newLocalProvider(args)
		if err != nil {
			return nil, err
		}
		return p, nil
	})
	RegisterEmbed("local", func(args interface{}) (IEmbedProvider, error) {
		p, err := newLocalProvider(args)
		if err != nil {
			return nil, err
		}
		return p, nil
	})
}
