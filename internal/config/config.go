package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/faqdex/internal/domain"
	"github.com/kailas-cloud/faqdex/internal/domain/search/threshold"
)

// Config holds the faqdex configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Index     IndexConfig     `yaml:"index"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Lexical   LexicalConfig   `yaml:"lexical"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Sync      SyncConfig      `yaml:"sync"`
	Auth      AuthConfig      `yaml:"auth"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error (default: determined by env)
	Format string `yaml:"format"` // json or console (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeoutSec  int      `yaml:"read_timeout_sec"`
	WriteTimeoutSec int      `yaml:"write_timeout_sec"`
	ShutdownSec     int      `yaml:"shutdown_timeout_sec"`
	CORSOrigins     []string `yaml:"cors_origins"`
}

// Database drivers.
const (
	DriverValkey = "valkey"
	DriverRedis  = "redis"
	DriverLocal  = "local"
)

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis, local (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	LocalPath        string   `yaml:"local_path"`     // badger directory for the local driver, empty = in-memory
	FallbackLocal    bool     `yaml:"fallback_local"` // serve from the local driver when valkey/redis is unreachable
}

// EmbeddingConfig holds the OpenAI-compatible embedding provider settings.
type EmbeddingConfig struct {
	APIKey           string `yaml:"api_key"`
	BaseURL          string `yaml:"base_url"`
	Model            string `yaml:"model"`
	Dimensions       int    `yaml:"dimensions"`
	QueryInstruction string `yaml:"query_instruction"`
	TimeoutMs        int    `yaml:"timeout_ms"`
	MaxBatch         int    `yaml:"max_batch"`     // texts per provider call
	CacheTTLSec      int    `yaml:"cache_ttl_sec"` // 0 disables the query embedding cache
}

// IndexConfig holds HNSW index settings.
type IndexConfig struct {
	Name            string `yaml:"name"`
	HNSWM           int    `yaml:"hnsw_m"`
	HNSWEFConstruct int    `yaml:"hnsw_ef_construction"`
	TimeoutMs       int    `yaml:"timeout_ms"`
}

// RetrievalConfig holds cascade thresholds and result limits.
type RetrievalConfig struct {
	VectorThreshold    *float64 `yaml:"vector_threshold"`
	LexicalThreshold   *float64 `yaml:"lexical_threshold"`
	EmergencyThreshold *float64 `yaml:"emergency_threshold"`
	TopK               int      `yaml:"top_k"`
	DefaultResults     int      `yaml:"default_results"`
	MaxResults         int      `yaml:"max_results"`
}

// LexicalConfig holds n-gram matcher settings.
type LexicalConfig struct {
	NgramSize    int      `yaml:"ngram_size"`
	Mode         string   `yaml:"mode"` // char, word (default: char)
	AnswerWeight *float64 `yaml:"answer_weight"`
}

// CorpusConfig holds corpus snapshot settings.
type CorpusConfig struct {
	RefreshIntervalSec int    `yaml:"refresh_interval_sec"` // 0 disables periodic reload
	SeedFile           string `yaml:"seed_file"`            // synced on startup when set
}

// SyncConfig holds FAQ ingestion settings.
type SyncConfig struct {
	BatchSize int `yaml:"batch_size"`
	Workers   int `yaml:"workers"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// Thresholds returns validated cascade thresholds.
func (r RetrievalConfig) Thresholds() (threshold.Thresholds, error) {
	return threshold.New(*r.VectorThreshold, *r.LexicalThreshold, *r.EmergencyThreshold)
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverValkey
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	vc := domain.DefaultVectorConfig()
	if c.Embedding.Model == "" {
		c.Embedding.Model = vc.Model
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = vc.Dimensions
	}
	if c.Embedding.TimeoutMs <= 0 {
		c.Embedding.TimeoutMs = 2000
	}
	if c.Embedding.MaxBatch <= 0 {
		c.Embedding.MaxBatch = 256
	}
	if c.Index.Name == "" {
		c.Index.Name = "faq:idx"
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 16
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 200
	}
	if c.Index.TimeoutMs <= 0 {
		c.Index.TimeoutMs = 1000
	}
	if c.Retrieval.VectorThreshold == nil {
		c.Retrieval.VectorThreshold = ptr(threshold.DefaultVector)
	}
	if c.Retrieval.LexicalThreshold == nil {
		c.Retrieval.LexicalThreshold = ptr(threshold.DefaultLexical)
	}
	if c.Retrieval.EmergencyThreshold == nil {
		c.Retrieval.EmergencyThreshold = ptr(threshold.DefaultEmergency)
	}
	if c.Retrieval.TopK <= 0 {
		c.Retrieval.TopK = 10
	}
	if c.Retrieval.DefaultResults <= 0 {
		c.Retrieval.DefaultResults = 3
	}
	if c.Retrieval.MaxResults <= 0 {
		c.Retrieval.MaxResults = 20
	}
	if c.Lexical.NgramSize <= 0 {
		c.Lexical.NgramSize = 3
	}
	if c.Lexical.Mode == "" {
		c.Lexical.Mode = "char"
	}
	if c.Lexical.AnswerWeight == nil {
		c.Lexical.AnswerWeight = ptr(0.5)
	}
	if c.Sync.BatchSize <= 0 {
		c.Sync.BatchSize = 32
	}
	if c.Sync.Workers <= 0 {
		c.Sync.Workers = 4
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "faqdex:"
	}
}

// Validate checks the configuration for correctness.
// Threshold and dimension errors wrap domain.ErrConfiguration.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	return c.ValidateEngine()
}

// ValidateEngine checks everything except the HTTP section. Embedded
// clients that never serve HTTP validate with it.
func (c *Config) ValidateEngine() error {
	switch c.Database.Driver {
	case DriverValkey, DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required")
		}
	case DriverLocal:
	default:
		return fmt.Errorf("database.driver must be valkey, redis or local, got %q", c.Database.Driver)
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("%w: embedding.dimensions must be positive", domain.ErrConfiguration)
	}
	if _, err := c.Retrieval.Thresholds(); err != nil {
		return fmt.Errorf("retrieval: %w", err)
	}
	if c.Retrieval.DefaultResults > c.Retrieval.MaxResults {
		return fmt.Errorf("retrieval.default_results (%d) exceeds max_results (%d)",
			c.Retrieval.DefaultResults, c.Retrieval.MaxResults)
	}
	if c.Lexical.Mode != "char" && c.Lexical.Mode != "word" {
		return fmt.Errorf("lexical.mode must be \"char\" or \"word\", got %q", c.Lexical.Mode)
	}
	if w := *c.Lexical.AnswerWeight; !(w >= 0 && w <= 1) {
		return fmt.Errorf("%w: lexical.answer_weight must be in [0, 1], got %v", domain.ErrConfiguration, w)
	}
	if !strings.HasSuffix(c.Storage.KeyPrefix, ":") {
		return errors.New("storage.key_prefix must end with ':'")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}

func ptr[T any](v T) *T { return &v }
