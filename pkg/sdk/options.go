package faqdex

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/faqdex/internal/config"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver    string // "valkey", "redis" or "local"
	addrs     []string
	password  string
	localPath string

	embedder         Embedder
	openAIKey        string
	openAIBaseURL    string
	model            string
	queryInstruction string

	vectorDimensions int
	hnswM            int
	hnswEFConstruct  int
	keyPrefix        string

	vectorThreshold    *float64
	lexicalThreshold   *float64
	emergencyThreshold *float64
	defaultResults     int
	maxResults         int
	ngramSize          int
	ngramMode          NgramMode
	answerWeight       *float64

	syncWorkers     int
	refreshInterval time.Duration

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithValkey configures the client to connect to a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = config.DriverValkey
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis configures the client to connect to a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = config.DriverRedis
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithLocal stores FAQs in an embedded BadgerDB directory.
func WithLocal(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = config.DriverLocal
		c.localPath = path
	})
}

// WithInMemory keeps FAQs in an in-memory store that is lost on Close.
// This is the default when no store option is given.
func WithInMemory() Option {
	return WithLocal("")
}

// WithEmbedder sets the text embedding provider.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithOpenAI uses an OpenAI-compatible embeddings endpoint.
// An empty baseURL targets api.openai.com.
func WithOpenAI(apiKey, baseURL, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.openAIKey = apiKey
		c.openAIBaseURL = baseURL
		c.model = model
	})
}

// WithQueryInstruction prepends an instruction to queries before embedding.
func WithQueryInstruction(instruction string) Option {
	return optionFunc(func(c *clientConfig) {
		c.queryInstruction = instruction
	})
}

// WithVectorDimensions sets the embedding dimensionality. Defaults to 384.
func WithVectorDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.vectorDimensions = dim
	})
}

// WithHNSW configures HNSW index parameters (M and EF construction).
// Defaults: M=16, EFConstruct=200.
func WithHNSW(m, efConstruct int) Option {
	return optionFunc(func(c *clientConfig) {
		c.hnswM = m
		c.hnswEFConstruct = efConstruct
	})
}

// WithKeyPrefix namespaces every stored key. Must end with ':'.
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithThresholds sets the minimum confidence of each tier.
// They must satisfy vector >= lexical >= emergency. Defaults: 0.5, 0.3, 0.1.
func WithThresholds(vector, lexical, emergency float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.vectorThreshold = &vector
		c.lexicalThreshold = &lexical
		c.emergencyThreshold = &emergency
	})
}

// WithResultLimits sets the default and maximum number of hits per query.
func WithResultLimits(defaultResults, maxResults int) Option {
	return optionFunc(func(c *clientConfig) {
		c.defaultResults = defaultResults
		c.maxResults = maxResults
	})
}

// WithNgram configures the lexical tier's gram size and unit.
func WithNgram(n int, mode NgramMode) Option {
	return optionFunc(func(c *clientConfig) {
		c.ngramSize = n
		c.ngramMode = mode
	})
}

// WithAnswerWeight sets how much a query contained in an answer counts, in [0, 1].
func WithAnswerWeight(w float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.answerWeight = &w
	})
}

// WithSyncWorkers sets the number of concurrent embedding batches during Sync.
func WithSyncWorkers(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.syncWorkers = n
	})
}

// WithRefreshInterval reloads the corpus from the store periodically.
// Useful when another process syncs the same store. Zero disables it (default).
func WithRefreshInterval(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.refreshInterval = d
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

// toConfig maps options onto the service configuration and applies defaults.
func (c *clientConfig) toConfig() config.Config {
	driver := c.driver
	if driver == "" {
		driver = config.DriverLocal
	}
	cfg := config.Config{
		Database: config.DatabaseConfig{
			Driver:    driver,
			Addrs:     c.addrs,
			Password:  c.password,
			LocalPath: c.localPath,
		},
		Embedding: config.EmbeddingConfig{
			APIKey:           c.openAIKey,
			BaseURL:          c.openAIBaseURL,
			Model:            c.model,
			Dimensions:       c.vectorDimensions,
			QueryInstruction: c.queryInstruction,
		},
		Index: config.IndexConfig{
			HNSWM:           c.hnswM,
			HNSWEFConstruct: c.hnswEFConstruct,
		},
		Retrieval: config.RetrievalConfig{
			VectorThreshold:    c.vectorThreshold,
			LexicalThreshold:   c.lexicalThreshold,
			EmergencyThreshold: c.emergencyThreshold,
			DefaultResults:     c.defaultResults,
			MaxResults:         c.maxResults,
		},
		Lexical: config.LexicalConfig{
			NgramSize:    c.ngramSize,
			Mode:         string(c.ngramMode),
			AnswerWeight: c.answerWeight,
		},
		Sync:    config.SyncConfig{Workers: c.syncWorkers},
		Storage: config.StorageConfig{KeyPrefix: c.keyPrefix},
	}
	cfg.ApplyDefaults()
	return cfg
}
