package model

// GenerationConfig holds the decoding parameters shared by every generation
// call. MaxLength bounds the prompt in tokens; MaxNewTokens bounds the output.
type GenerationConfig struct {
	MaxLength         int     `json:"max_length" validate:"min=1"`
	MaxNewTokens      int     `json:"max_new_tokens" validate:"min=1"`
	Temperature       float64 `json:"temperature" validate:"gte=0,lte=2"`
	TopP              float64 `json:"top_p" validate:"gt=0,lte=1"`
	TopK              int     `json:"top_k" validate:"min=1"`
	RepetitionPenalty float64 `json:"repetition_penalty" validate:"gte=1"`
	MaxContextChars   int     `json:"max_context_chars" validate:"min=1"`
}

func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		MaxLength:         2048,
		MaxNewTokens:      512,
		Temperature:       0.7,
		TopP:              0.95,
		TopK:              50,
		RepetitionPenalty: 1.1,
		MaxContextChars:   2000,
	}
}
