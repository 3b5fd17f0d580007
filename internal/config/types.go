// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package config

// Config represents the complete engine configuration.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Embeddings   EmbeddingConfig    `mapstructure:"embeddings"`
	LLM          LLMConfig          `mapstructure:"llm"`
	Ingestion    IngestionConfig    `mapstructure:"ingestion"`
	FSRS         FSRSConfig         `mapstructure:"fsrs"`
	Retrieval    RetrievalConfig    `mapstructure:"retrieval"`
	Consolidation ConsolidationConfig `mapstructure:"consolidation"`
	Events       EventsConfig       `mapstructure:"events"`
	Vector       VectorConfig       `mapstructure:"vector"`
	Graph        GraphConfig        `mapstructure:"graph"`
	Security     SecurityConfig     `mapstructure:"security"`
}

// VectorConfig selects and configures the VectorStore implementation.
// Provider "embedded" (default) uses the sqlite-vec-backed store
// sharing the main database; "qdrant" connects to a standalone Qdrant
// deployment for larger corpora.
type VectorConfig struct {
	Provider   string `mapstructure:"provider"` // "embedded" or "qdrant"
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	APIKeyEnv  string `mapstructure:"api_key_env"`
	Collection string `mapstructure:"collection"`
}

// GraphConfig selects and configures the GraphStore implementation.
// Provider "embedded" (default) uses the gorm-backed store sharing the
// main database; "neo4j" connects to a standalone Neo4j deployment.
type GraphConfig struct {
	Provider string `mapstructure:"provider"` // "embedded" or "neo4j"
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// SecurityConfig configures optional at-rest content encryption.
// EncryptionKeyEnv names an environment variable holding a base64-encoded
// key (see internal/crypto.KeyToString); when unset, content is stored
// in the clear.
type SecurityConfig struct {
	EncryptionKeyEnv string `mapstructure:"encryption_key_env"`
}

// ServerConfig holds the optional MCP/HTTP server surface configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DatabaseConfig holds default-adapter storage settings.
type DatabaseConfig struct {
	Type        string `mapstructure:"type"` // "sqlite" or "postgres"
	SQLitePath  string `mapstructure:"sqlite_path"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

// EmbeddingConfig configures the default Embedder adapter.
type EmbeddingConfig struct {
	Provider   string `mapstructure:"provider"` // "openai", "azure", "local"
	BaseURL    string `mapstructure:"base_url"`
	Model      string `mapstructure:"model"`
	APIKeyEnv  string `mapstructure:"api_key_env"`
	Dimensions int    `mapstructure:"dimensions"`
	BatchSize  int    `mapstructure:"batch_size"`
}

// EmbeddingProviders defines valid embedding providers.
const (
	EmbeddingProviderOpenAI = "openai"
	EmbeddingProviderAzure  = "azure"
	EmbeddingProviderLocal  = "local"
)

// ValidEmbeddingProviders returns all valid embedding provider values.
func ValidEmbeddingProviders() []string {
	return []string{EmbeddingProviderOpenAI, EmbeddingProviderAzure, EmbeddingProviderLocal}
}

// IsValidEmbeddingProvider checks if a provider is valid.
func IsValidEmbeddingProvider(provider string) bool {
	return isValidType(provider, ValidEmbeddingProviders())
}

// LLMConfig configures the default LanguageModel adapter used for fact
// extraction, layer-4 contradiction judgement, and content merges.
type LLMConfig struct {
	Provider  string  `mapstructure:"provider"` // "openai", "azure", "local"
	BaseURL   string  `mapstructure:"base_url"`
	Model     string  `mapstructure:"model"`
	APIKeyEnv string  `mapstructure:"api_key_env"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens int     `mapstructure:"max_tokens"`
}

// IngestionConfig holds the gate thresholds from spec.md §4.F.
type IngestionConfig struct {
	SkipThreshold      float64 `mapstructure:"skip_threshold"`
	ReviseLowThreshold float64 `mapstructure:"revise_low_threshold"`
	BaseStability      float64 `mapstructure:"base_stability"`
	SurpriseBoost      float64 `mapstructure:"surprise_boost"`
}

// FSRSConfig holds the strength scheduler's tunables from spec.md §4.C.
type FSRSConfig struct {
	ArchivalRetrievability float64 `mapstructure:"archival_retrievability"`
	ArchivalMinAgeDays     int     `mapstructure:"archival_min_age_days"`
}

// RetrievalConfig holds the hybrid retriever's mode and fusion defaults.
type RetrievalConfig struct {
	DefaultMode      string  `mapstructure:"default_mode"` // quick|standard|precise|cognitive
	DefaultLimit     int     `mapstructure:"default_limit"`
	DedupThreshold   float64 `mapstructure:"dedup_threshold"`
	ActivationDecay  float64 `mapstructure:"activation_decay"`
	FiringThreshold  float64 `mapstructure:"firing_threshold"`
	MaxDepth         int     `mapstructure:"max_depth"`
	FanOutPenalty    float64 `mapstructure:"fan_out_penalty"`
}

// ConsolidationConfig holds the sweep's timing and threshold tunables.
type ConsolidationConfig struct {
	SweepIntervalMinutes int     `mapstructure:"sweep_interval_minutes"`
	SynapticTauMinutes   float64 `mapstructure:"synaptic_tau_minutes"`
	ValidityThreshold    float64 `mapstructure:"validity_threshold"`
	NoveltyThreshold     float64 `mapstructure:"novelty_threshold"`
}

// EventsConfig configures the event bus's async webhook delivery.
type EventsConfig struct {
	WebhookTimeoutSeconds int    `mapstructure:"webhook_timeout_seconds"`
	WebhookMaxRetries     int    `mapstructure:"webhook_max_retries"`
	HMACSecretEnv         string `mapstructure:"hmac_secret_env"`
	RedisAddr             string `mapstructure:"redis_addr"` // optional, enables the Redis-backed transport
}

func isValidType(aType string, validTypes []string) bool {
	for _, valid := range validTypes {
		if aType == valid {
			return true
		}
	}
	return false
}
