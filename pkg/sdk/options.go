package abekm

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addrs    []string
	username string
	password string

	permissionsDSN string
	migrate        bool

	embedder       Embedder
	visionEmbedder Embedder

	textDimensions  int
	imageDimensions int
	autoCreateIndex bool

	weights          *Weights
	retrieverTimeout time.Duration

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// Weights are the per-signal fusion weights.
type Weights struct {
	Vector   float64
	Keyword  float64
	Fulltext float64
	Image    float64
}

// WithRedis configures the chunk store address.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedisACL sets the ACL user for the chunk store.
func WithRedisACL(username string) Option {
	return optionFunc(func(c *clientConfig) {
		c.username = username
	})
}

// WithPermissionsDB configures the SQLite permission database.
// When migrate is true, missing tables are created on New.
func WithPermissionsDB(dsn string, migrate bool) Option {
	return optionFunc(func(c *clientConfig) {
		c.permissionsDSN = dsn
		c.migrate = migrate
	})
}

// WithEmbedder sets the text embedding provider.
// Without it, dense retrieval is skipped and search runs on lexical signals only.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithVisionEmbedder sets the CLIP text-tower provider used to search image chunks.
func WithVisionEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.visionEmbedder = e
	})
}

// WithIndex creates the chunk index on New when it is missing.
// Dimensions must match the vectors written by ingestion.
func WithIndex(textDim, imageDim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.autoCreateIndex = true
		c.textDimensions = textDim
		c.imageDimensions = imageDim
	})
}

// WithWeights overrides the fusion weights.
// Defaults: vector 0.4, keyword 0.5, fulltext 0.1, image 0.4.
func WithWeights(w Weights) Option {
	return optionFunc(func(c *clientConfig) {
		c.weights = &w
	})
}

// WithRetrieverTimeout bounds each retriever. Default: 3.5s.
func WithRetrieverTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.retrieverTimeout = d
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK and engine metrics on the given registerer.
// Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
