package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port      int              `json:"port"`
	JWTSecret string           `json:"jwt_secret"`
	LogConfig logger.LogConfig `json:"log_config"`
	Database  DatabaseConfig   `json:"database"`
	FileStore FileStoreConfig  `json:"file_store"`
	Queue     QueueConfig      `json:"queue"`
	AI        AIConfig         `json:"ai"`
	Ingest    IngestConfig     `json:"ingest"`
	Retrieval RetrievalConfig  `json:"retrieval"`
	Cleanup   CleanupConfig    `json:"cleanup"`
	CORS      []string         `json:"cors_allow_origins"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type QueueConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type AIConfig struct {
	Provider      string      `json:"provider"`
	Data          interface{} `json:"data"`
	ChatModel     string      `json:"chat_model"`
	EmbedModel    string      `json:"embed_model"`
	MaxInputChars int         `json:"max_input_chars"`
	Timeout       int         `json:"timeout"`
}

type IngestConfig struct {
	ChunkSize     int   `json:"chunk_size"`
	ChunkOverlap  int   `json:"chunk_overlap"`
	ExtractWindow int   `json:"extract_window"`
	MaxUploadSize int64 `json:"max_upload_size"`
	Workers       int   `json:"workers"`
}

type RetrievalConfig struct {
	KeywordLimit    int  `json:"keyword_limit"`
	GraphLimit      int  `json:"graph_limit"`
	ChunksPerEntity int  `json:"chunks_per_entity"`
	FallbackLimit   int  `json:"fallback_limit"`
	EnableVector    bool `json:"enable_vector"`
	VectorLimit     int  `json:"vector_limit"`
}

type CleanupConfig struct {
	JobMaxAgeHours     int `json:"job_max_age_hours"`
	ChatKeepDays       int `json:"chat_keep_days"`
	EmbedCacheKeepDays int `json:"embed_cache_keep_days"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.AI.Provider == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
	}
	if cfg.Queue.Type == "" {
		cfg.Queue.Type = "memory"
	}
	if cfg.AI.ChatModel == "" {
		cfg.AI.ChatModel = "gpt-4o-mini"
	}
	if cfg.AI.EmbedModel == "" {
		cfg.AI.EmbedModel = "text-embedding-3-small"
	}
	if cfg.Ingest.ChunkSize <= 0 {
		cfg.Ingest.ChunkSize = 1000
	}
	if cfg.Ingest.ChunkOverlap < 0 || cfg.Ingest.ChunkOverlap >= cfg.Ingest.ChunkSize {
		return nil, fmt.Errorf("ingest.chunk_overlap must be in [0, chunk_size)")
	}
	if cfg.Ingest.ExtractWindow <= 0 {
		cfg.Ingest.ExtractWindow = 8000
	}
	if cfg.Ingest.Workers <= 0 {
		cfg.Ingest.Workers = 1
	}
	if cfg.Retrieval.KeywordLimit <= 0 {
		cfg.Retrieval.KeywordLimit = 3
	}
	if cfg.Retrieval.GraphLimit <= 0 {
		cfg.Retrieval.GraphLimit = 3
	}
	if cfg.Retrieval.ChunksPerEntity <= 0 {
		cfg.Retrieval.ChunksPerEntity = 2
	}
	if cfg.Retrieval.FallbackLimit <= 0 {
		cfg.Retrieval.FallbackLimit = 5
	}
	if cfg.Retrieval.VectorLimit <= 0 {
		cfg.Retrieval.VectorLimit = 3
	}
	if cfg.Cleanup.JobMaxAgeHours <= 0 {
		cfg.Cleanup.JobMaxAgeHours = 6
	}
	if cfg.Cleanup.ChatKeepDays <= 0 {
		cfg.Cleanup.ChatKeepDays = 30
	}
	if cfg.Cleanup.EmbedCacheKeepDays <= 0 {
		cfg.Cleanup.EmbedCacheKeepDays = 30
	}
	return &cfg, nil
}
