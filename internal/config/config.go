package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AppInfo holds basic application metadata.
type AppInfo struct {
	Name        string `yaml:"name"`        // application name
	Version     string `yaml:"version"`     // application version
	Environment string `yaml:"environment"` // "development", "production", ...
}

// LoggerConfig configures the structured logger.
type LoggerConfig struct {
	Level string `yaml:"level"` // "debug", "info", "warn", "error"
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Address        string `yaml:"address"`        // listen address, e.g. ":8080"
	MaxUploadBytes int64  `yaml:"maxUploadBytes"` // per-file upload cap
}

// GeminiConfig holds credentials for the Google GenAI APIs.
type GeminiConfig struct {
	APIKey string `yaml:"apiKey"`
	Model  string `yaml:"model"`
}

// OpenAIConfig holds credentials for the OpenAI embedding API.
type OpenAIConfig struct {
	APIKey string `yaml:"apiKey"`
	Model  string `yaml:"model"`
}

// OllamaConfig points at a local Ollama instance.
type OllamaConfig struct {
	BaseURL string `yaml:"baseURL"`
	Model   string `yaml:"model"`
}

// RetryConfig bounds the retry loop around transient embedding failures.
type RetryConfig struct {
	MaxAttempts int    `yaml:"maxAttempts"` // total attempts, including the first
	BaseBackoff string `yaml:"baseBackoff"` // first delay, doubled per attempt, e.g. "500ms"
}

// RateLimitConfig throttles outbound calls to the embedding provider.
type RateLimitConfig struct {
	Enabled  bool    `yaml:"enabled"`
	Rate     float64 `yaml:"rate"`     // requests per second
	Capacity int     `yaml:"capacity"` // burst size
}

// EmbeddingConfig selects and configures the embedding provider.
// Dimension is fixed per deployment: every vector written to or queried from
// the vector store must have exactly this many components.
type EmbeddingConfig struct {
	Provider  string          `yaml:"provider"` // "gemini", "openai" or "ollama"
	Dimension int             `yaml:"dimension"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Ollama    OllamaConfig    `yaml:"ollama"`
	Retry     RetryConfig     `yaml:"retry"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
}

// LLMConfig configures the answer-generation model.
type LLMConfig struct {
	Provider string       `yaml:"provider"` // only "gemini" is wired today
	Gemini   GeminiConfig `yaml:"gemini"`
}

// ChunkingProfile is one chunk-size/overlap pairing for the splitter.
type ChunkingProfile struct {
	ChunkSize    int `yaml:"chunkSize"`
	ChunkOverlap int `yaml:"chunkOverlap"`
}

// ChunkingConfig holds the splitter profiles. Document ingestion uses the
// profile named by Active.
type ChunkingConfig struct {
	Active   string                     `yaml:"active"`
	Profiles map[string]ChunkingProfile `yaml:"profiles"`
}

// RetrievalConfig holds the query-time defaults.
type RetrievalConfig struct {
	Threshold float32 `yaml:"threshold"` // minimum similarity, exclusive
	TopK      int     `yaml:"topK"`      // maximum results returned
}

// MilvusIndexConfig configures the ANN index on the embedding column.
type MilvusIndexConfig struct {
	Type           string `yaml:"type"` // "HNSW", "IVF_FLAT" or "AUTOINDEX"
	M              int    `yaml:"m"`
	EfConstruction int    `yaml:"efConstruction"`
	Ef             int    `yaml:"ef"` // search beam width
}

// MilvusConfig configures the Milvus vector database connection.
type MilvusConfig struct {
	Address    string            `yaml:"address"`
	Collection string            `yaml:"collection"`
	Index      MilvusIndexConfig `yaml:"index"`
}

// VectorStoreConfig selects the vector store backend.
type VectorStoreConfig struct {
	Provider string       `yaml:"provider"` // "milvus" or "memory"
	Milvus   MilvusConfig `yaml:"milvus"`
}

// MySQLConfig configures the document registry database.
type MySQLConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Address         string `yaml:"address"`
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	Database        string `yaml:"database"`
	MaxOpenConns    int    `yaml:"maxOpenConns"`
	MaxIdleConns    int    `yaml:"maxIdleConns"`
	ConnMaxLifetime int    `yaml:"connMaxLifetime"` // seconds
}

// MinIOConfig configures the raw upload archive.
type MinIOConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Secure    bool   `yaml:"secure"`
}

// RedisConfig configures the query-embedding cache.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TTL      string `yaml:"ttl"` // cache entry lifetime, e.g. "10m"
}

// KafkaConfig configures the ingestion status event stream.
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// CircuitBreakerConfig guards the retrieval path against a dead embedding
// provider so chat can fall back to answering without context.
type CircuitBreakerConfig struct {
	Enabled          bool   `yaml:"enabled"`
	FailureThreshold uint32 `yaml:"failureThreshold"`
	SuccessThreshold uint32 `yaml:"successThreshold"`
	Timeout          string `yaml:"timeout"` // e.g. "30s"
}

// DatabaseConfigs groups all backend connections.
type DatabaseConfigs struct {
	MySQL MySQLConfig `yaml:"mysql"`
	MinIO MinIOConfig `yaml:"minio"`
	Redis RedisConfig `yaml:"redis"`
	Kafka KafkaConfig `yaml:"kafka"`
}

// AppConfig is the root of the YAML configuration file.
type AppConfig struct {
	App            AppInfo              `yaml:"app"`
	Logger         LoggerConfig         `yaml:"logger"`
	Server         ServerConfig         `yaml:"server"`
	Embedding      EmbeddingConfig      `yaml:"embedding"`
	LLM            LLMConfig            `yaml:"llm"`
	Chunking       ChunkingConfig       `yaml:"chunking"`
	Retrieval      RetrievalConfig      `yaml:"retrieval"`
	VectorStore    VectorStoreConfig    `yaml:"vectorStore"`
	Databases      DatabaseConfigs      `yaml:"databases"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker"`
}

// LoadConfig reads and parses the YAML configuration file at path, then
// validates it. Misconfiguration is a startup failure, not a query-time one.
func LoadConfig(path string) (*AppConfig, error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	// Secrets stay out of the file: ${VAR} references are resolved from the
	// environment before parsing.
	expanded := os.ExpandEnv(string(yamlFile))
	var cfg AppConfig
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the invariants the pipelines rely on. In particular the
// embedding dimension is fixed at schema-creation time, so a bad value here
// would otherwise only surface as corrupt similarity scores much later.
func (c *AppConfig) Validate() error {
	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("embedding.dimension must be positive, got %d", c.Embedding.Dimension)
	}
	switch c.Embedding.Provider {
	case "gemini", "openai", "ollama":
	default:
		return fmt.Errorf("unsupported embedding provider: %q", c.Embedding.Provider)
	}
	if len(c.Chunking.Profiles) == 0 {
		return fmt.Errorf("chunking.profiles must not be empty")
	}
	if _, ok := c.Chunking.Profiles[c.Chunking.Active]; !ok {
		return fmt.Errorf("chunking.active %q does not name a configured profile", c.Chunking.Active)
	}
	for name, p := range c.Chunking.Profiles {
		if p.ChunkSize <= 0 {
			return fmt.Errorf("chunking profile %q: chunkSize must be positive", name)
		}
		if p.ChunkOverlap < 0 || p.ChunkOverlap >= p.ChunkSize {
			return fmt.Errorf("chunking profile %q: chunkOverlap must satisfy 0 <= overlap < chunkSize", name)
		}
	}
	if c.Retrieval.Threshold < -1 || c.Retrieval.Threshold > 1 {
		return fmt.Errorf("retrieval.threshold must be within [-1, 1], got %v", c.Retrieval.Threshold)
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval.topK must be positive, got %d", c.Retrieval.TopK)
	}
	switch c.VectorStore.Provider {
	case "milvus", "memory":
	default:
		return fmt.Errorf("unsupported vector store provider: %q", c.VectorStore.Provider)
	}
	if c.VectorStore.Provider == "milvus" {
		if c.VectorStore.Milvus.Address == "" {
			return fmt.Errorf("vectorStore.milvus.address is required")
		}
		if c.VectorStore.Milvus.Collection == "" {
			return fmt.Errorf("vectorStore.milvus.collection is required")
		}
	}
	if c.Server.MaxUploadBytes <= 0 {
		c.Server.MaxUploadBytes = 10 << 20
	}
	return nil
}

// ActiveChunking returns the chunking profile selected for ingestion.
// Validate has already checked that the profile exists.
func (c *AppConfig) ActiveChunking() ChunkingProfile {
	return c.Chunking.Profiles[c.Chunking.Active]
}
