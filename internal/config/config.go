// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	// DefaultConfigDir is the default configuration directory.
	DefaultConfigDir = ".rook/configs"
	// DefaultConfigFile is the default configuration filename.
	DefaultConfigFile = "config.json"
)

// Load reads configuration from ~/.rook/configs/config.json, falling back
// to defaults when the file does not exist.
func Load() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}

	configPath := filepath.Join(homeDir, DefaultConfigDir)

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(configPath)
	v.SetEnvPrefix("rook")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return loadFromDefaults(v)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadFromPath loads configuration from a specific file path.
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8420)

	v.SetDefault("database.type", "sqlite")
	homeDir, _ := os.UserHomeDir()
	v.SetDefault("database.sqlite_path", filepath.Join(homeDir, ".rook/db/rook.db"))

	v.SetDefault("embeddings.provider", EmbeddingProviderOpenAI)
	v.SetDefault("embeddings.model", "text-embedding-3-small")
	v.SetDefault("embeddings.dimensions", 1536)
	v.SetDefault("embeddings.batch_size", 32)
	v.SetDefault("embeddings.api_key_env", "OPENAI_API_KEY")

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.temperature", 0.1)
	v.SetDefault("llm.max_tokens", 2000)
	v.SetDefault("llm.api_key_env", "OPENAI_API_KEY")

	v.SetDefault("ingestion.skip_threshold", 0.95)
	v.SetDefault("ingestion.revise_low_threshold", 0.80)
	v.SetDefault("ingestion.base_stability", 2.0)
	v.SetDefault("ingestion.surprise_boost", 1.5)

	v.SetDefault("fsrs.archival_retrievability", 0.1)
	v.SetDefault("fsrs.archival_min_age_days", 30)

	v.SetDefault("retrieval.default_mode", "standard")
	v.SetDefault("retrieval.default_limit", 10)
	v.SetDefault("retrieval.dedup_threshold", 0.95)
	v.SetDefault("retrieval.activation_decay", 0.8)
	v.SetDefault("retrieval.firing_threshold", 0.1)
	v.SetDefault("retrieval.max_depth", 3)
	v.SetDefault("retrieval.fan_out_penalty", 0.0)

	v.SetDefault("consolidation.sweep_interval_minutes", 60)
	v.SetDefault("consolidation.synaptic_tau_minutes", 60.0)
	v.SetDefault("consolidation.validity_threshold", 0.1)
	v.SetDefault("consolidation.novelty_threshold", 0.7)

	v.SetDefault("events.webhook_timeout_seconds", 10)
	v.SetDefault("events.webhook_max_retries", 3)
	v.SetDefault("events.hmac_secret_env", "ROOK_WEBHOOK_SECRET")

	v.SetDefault("vector.provider", "embedded")
	v.SetDefault("vector.host", "localhost")
	v.SetDefault("vector.port", 6334)
	v.SetDefault("vector.api_key_env", "QDRANT_API_KEY")
	v.SetDefault("vector.collection", "rook_memories")

	v.SetDefault("graph.provider", "embedded")
	v.SetDefault("graph.uri", "neo4j://localhost:7687")
	v.SetDefault("graph.username", "neo4j")

	v.SetDefault("security.encryption_key_env", "ROOK_ENCRYPTION_KEY")
}

func loadFromDefaults(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal default config: %w", err)
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Database.Type != "sqlite" && cfg.Database.Type != "postgres" {
		return fmt.Errorf("database.type must be 'sqlite' or 'postgres', got '%s'", cfg.Database.Type)
	}
	if cfg.Database.Type == "sqlite" && cfg.Database.SQLitePath == "" {
		return fmt.Errorf("database.sqlite_path is required when type is 'sqlite'")
	}
	if cfg.Database.Type == "postgres" && cfg.Database.PostgresDSN == "" {
		return fmt.Errorf("database.postgres_dsn is required when type is 'postgres'")
	}

	if cfg.Server.Port != 0 && (cfg.Server.Port < 1 || cfg.Server.Port > 65535) {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}

	if cfg.Embeddings.Provider != "" && !IsValidEmbeddingProvider(cfg.Embeddings.Provider) {
		return fmt.Errorf("embeddings.provider must be one of %v, got '%s'", ValidEmbeddingProviders(), cfg.Embeddings.Provider)
	}

	if cfg.Ingestion.SkipThreshold <= cfg.Ingestion.ReviseLowThreshold {
		return fmt.Errorf("ingestion.skip_threshold must be greater than ingestion.revise_low_threshold")
	}

	if cfg.Consolidation.SweepIntervalMinutes < 1 {
		return fmt.Errorf("consolidation.sweep_interval_minutes must be at least 1, got %d", cfg.Consolidation.SweepIntervalMinutes)
	}

	return nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist.
func EnsureConfigDir() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get user home directory: %w", err)
	}

	configPath := filepath.Join(homeDir, DefaultConfigDir)
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return nil
}

// DefaultConfig returns a configuration with sensible defaults, useful for
// tests and for embedding Rook as a library without a config file.
func DefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, _ := loadFromDefaults(v)
	return cfg
}
