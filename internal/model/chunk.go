package model

type Chunk struct {
	ID         int       `json:"id"`
	SourcePage int       `json:"source_page"`
	Text       string    `json:"text"`
	Embedding  []float32 `json:"-"`
}

type EmbeddingCache struct {
	ModelName   string    `json:"model_name"`
	TaskType    string    `json:"task_type"`
	ContentHash string    `json:"content_hash"`
	Embedding   []float32 `json:"embedding"`
	Ctime       int64     `json:"ctime"`
}
