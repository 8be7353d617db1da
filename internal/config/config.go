package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config defines application configuration.
type Config struct {
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	AI        AIConfig        `yaml:"ai"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Index     IndexConfig     `yaml:"index"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// AIConfig selects the LLM backend. Provider is one of "anthropic",
// "ollama", or "none".
type AIConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
}

// EmbeddingConfig selects the embedding backend. Provider is one of
// "voyage", "ollama", or "none".
type EmbeddingConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
}

type IndexConfig struct {
	BatchLimit int `yaml:"batch_limit"`
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Config{
		DB: DBConfig{
			Path: "flowd.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		AI: AIConfig{
			Provider: "none",
		},
		Embedding: EmbeddingConfig{
			Provider: "none",
		},
		Index: IndexConfig{
			BatchLimit: 20,
		},
	}

	if path := os.Getenv("FLOWD_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if dbPath := os.Getenv("FLOWD_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("FLOWD_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if provider := os.Getenv("FLOWD_AI_PROVIDER"); provider != "" {
		cfg.AI.Provider = provider
	}
	if model := os.Getenv("FLOWD_AI_MODEL"); model != "" {
		cfg.AI.Model = model
	}
	if provider := os.Getenv("FLOWD_EMBEDDING_PROVIDER"); provider != "" {
		cfg.Embedding.Provider = provider
	}
	if model := os.Getenv("FLOWD_EMBEDDING_MODEL"); model != "" {
		cfg.Embedding.Model = model
	}
	if limitStr := os.Getenv("FLOWD_INDEX_BATCH_LIMIT"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid FLOWD_INDEX_BATCH_LIMIT: %w", err)
		}
		cfg.Index.BatchLimit = limit
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
