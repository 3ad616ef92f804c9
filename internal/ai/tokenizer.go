package ai

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

const (
	TokenizerTiktoken   = "cl100k_base"
	TokenizerWhitespace = "whitespace"
)

// Tokenizer measures prompts and cuts them down to a token budget. Cutting
// always keeps the tail so the question at the end of a prompt survives.
type Tokenizer interface {
	Name() string
	Count(text string) int
	TruncateTail(text string, maxTokens int) string
}

func NewTokenizer(name string) (Tokenizer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", TokenizerWhitespace:
		return whitespaceTokenizer{}, nil
	default:
		enc, err := tiktoken.GetEncoding(name)
		if err != nil {
			return nil, fmt.Errorf("load tokenizer %s: %w", name, err)
		}
		return &tiktokenTokenizer{name: name, enc: enc}, nil
	}
}

type tiktokenTokenizer struct {
	name string
	enc  *tiktoken.Tiktoken
}

func (t *tiktokenTokenizer) Name() string {
	return t.name
}

func (t *tiktokenTokenizer) Count(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}

func (t *tiktokenTokenizer) TruncateTail(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return text
	}
	tokens := t.enc.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}
	return t.enc.Decode(tokens[len(tokens)-maxTokens:])
}

var wordPattern = regexp.MustCompile(`\S+`)

// whitespaceTokenizer treats each run of non-space characters as a token.
type whitespaceTokenizer struct{}

func (whitespaceTokenizer) Name() string {
	return TokenizerWhitespace
}

func (whitespaceTokenizer) Count(text string) int {
	return len(strings.Fields(text))
}

func (whitespaceTokenizer) TruncateTail(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return text
	}
	locs := wordPattern.FindAllStringIndex(text, -1)
	if len(locs) <= maxTokens {
		return text
	}
	return text[locs[len(locs)-maxTokens][0]:]
}
