package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/xxxsen/common/logger"
	"gopkg.in/yaml.v3"

	"github.com/xxxsen/pdfchat/internal/model"
)

type Config struct {
	Port            int              `json:"port" validate:"required,min=1,max=65535"`
	JWTSecret       string           `json:"jwt_secret" validate:"required"`
	SessionTTLHours int              `json:"session_ttl_hours" validate:"min=0"`
	AccessKeyHash   string           `json:"access_key_hash"`
	CORSOrigins     []string         `json:"cors_origins"`
	LogConfig       logger.LogConfig `json:"log_config"`

	AI           AIConfig               `json:"ai"`
	Generation   model.GenerationConfig `json:"generation"`
	Retrieval    RetrievalConfig        `json:"retrieval"`
	Conversation ConversationConfig     `json:"conversation"`
	Session      SessionConfig          `json:"session"`
	Extractor    ExtractorConfig        `json:"extractor"`
	RateLimit    RateLimitConfig        `json:"rate_limit"`
	FileStore    FileStoreConfig        `json:"file_store"`
	Database     DatabaseConfig         `json:"database"`
	EmbedCache   EmbedCacheConfig       `json:"embed_cache"`
	AnswerCache  AnswerCacheConfig      `json:"answer_cache"`
	Schedule     ScheduleConfig         `json:"schedule"`
}

type AIProviderConfig struct {
	Name     string      `json:"name"`
	Provider string      `json:"provider" validate:"required"`
	Model    string      `json:"model"`
	Data     interface{} `json:"data"`
}

type AIConfig struct {
	// Timeout bounds one generation attempt, in seconds.
	Timeout    int                `json:"timeout" validate:"min=0"`
	Tokenizer  string             `json:"tokenizer"`
	Generators []AIProviderConfig `json:"generators" validate:"required,min=1,dive"`
	Embedders  []AIProviderConfig `json:"embedders" validate:"required,min=1,dive"`
}

type RetrievalConfig struct {
	ChunkSize        int    `json:"chunk_size" validate:"min=1"`
	ChunkOverlap     int    `json:"chunk_overlap" validate:"min=0,ltfield=ChunkSize"`
	TopK             int    `json:"top_k" validate:"min=1"`
	Backend          string `json:"backend" validate:"oneof=flat chromem"`
	EmbedConcurrency int    `json:"embed_concurrency" validate:"min=1"`
}

type ConversationConfig struct {
	MaxTurns int    `json:"max_turns" validate:"min=1"`
	Locale   string `json:"locale" validate:"oneof=en pt"`
}

type SessionConfig struct {
	MaxSessions int `json:"max_sessions" validate:"min=1"`
	IdleMinutes int `json:"idle_minutes" validate:"min=0"`
}

type ExtractorConfig struct {
	StrictValidation bool `json:"strict_validation"`
	MaxUploadMB      int  `json:"max_upload_mb" validate:"min=1"`
}

type RateLimitConfig struct {
	AskPerMinute int `json:"ask_per_minute" validate:"min=0"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type DatabaseConfig struct {
	DSN          string `json:"dsn"`
	Host         string `json:"host"`
	Port         int    `json:"port"`
	User         string `json:"user"`
	Password     string `json:"password"`
	DBName       string `json:"dbname"`
	SSLMode      string `json:"sslmode"`
	MaxOpenConns int    `json:"max_open_conns"`
}

// Enabled reports whether any connection parameters were given.
func (d DatabaseConfig) Enabled() bool {
	return d.DSN != "" || d.Host != ""
}

type EmbedCacheConfig struct {
	LRUSize       int `json:"lru_size" validate:"min=0"`
	LRUTTLMinutes int `json:"lru_ttl_minutes" validate:"min=0"`
	// RetentionDays bounds rows in the persistent cache; 0 keeps them forever.
	RetentionDays int `json:"retention_days" validate:"min=0"`
}

type AnswerCacheConfig struct {
	Size       int `json:"size" validate:"min=0"`
	TTLMinutes int `json:"ttl_minutes" validate:"min=0"`
}

type ScheduleConfig struct {
	SessionPurge      string `json:"session_purge"`
	EmbedCacheCleanup string `json:"embed_cache_cleanup"`
	ModelRecover      string `json:"model_recover"`
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv only touches the ${VAR} form; bare "$" sequences such as the
// ones in bcrypt hashes are kept.
func expandEnv(raw []byte) []byte {
	return envRef.ReplaceAllFunc(raw, func(m []byte) []byte {
		name := envRef.FindSubmatch(m)[1]
		return []byte(os.Getenv(string(name)))
	})
}

func loadDotEnv(configPath string) error {
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if _, err := os.Stat(envPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := godotenv.Load(envPath); err != nil {
		return fmt.Errorf("load %s: %w", envPath, err)
	}
	return nil
}

func decode(path string, raw []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var tree map[string]interface{}
		if err := yaml.Unmarshal(raw, &tree); err != nil {
			return err
		}
		data, err := json.Marshal(tree)
		if err != nil {
			return err
		}
		raw = data
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	return dec.Decode(cfg)
}

func Load(path string) (*Config, error) {
	if err := loadDotEnv(path); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	cfg := defaultConfig()
	if err := decode(path, expandEnv(raw), cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// defaultConfig is the base the file is decoded over, so keys absent from
// the file keep these values while explicit zeros are honoured.
func defaultConfig() *Config {
	return &Config{
		SessionTTLHours: 24,
		LogConfig:       logger.LogConfig{Level: "info"},
		AI: AIConfig{
			Timeout:   120,
			Tokenizer: "cl100k_base",
		},
		Generation: model.DefaultGenerationConfig(),
		Retrieval: RetrievalConfig{
			ChunkSize:        1000,
			ChunkOverlap:     200,
			TopK:             3,
			Backend:          "flat",
			EmbedConcurrency: 4,
		},
		Conversation: ConversationConfig{MaxTurns: 5, Locale: "en"},
		Session:      SessionConfig{MaxSessions: 1000, IdleMinutes: 60},
		Extractor:    ExtractorConfig{MaxUploadMB: 50},
		RateLimit:    RateLimitConfig{AskPerMinute: 30},
		EmbedCache:   EmbedCacheConfig{LRUSize: 4096, LRUTTLMinutes: 60},
		Schedule: ScheduleConfig{
			SessionPurge:      "@every 5m",
			EmbedCacheCleanup: "@daily",
			ModelRecover:      "@every 1m",
		},
	}
}
