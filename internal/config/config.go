package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arkwith7/abekm/internal/domain"
)

// Config holds the abekm search service configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Database    DatabaseConfig    `yaml:"database"`
	Permissions PermissionsConfig `yaml:"permissions"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Index       IndexConfig       `yaml:"index"`
	Search      SearchConfig      `yaml:"search"`
	Access      AccessConfig      `yaml:"access"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds chunk store connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// PermissionsConfig holds the access/permission database settings.
type PermissionsConfig struct {
	DSN      string `yaml:"dsn"`
	ReadOnly bool   `yaml:"read_only"`
	Migrate  bool   `yaml:"migrate"`
}

// EmbeddingConfig holds embedding settings.
type EmbeddingConfig struct {
	Providers map[string]ProviderConfig `yaml:"providers"`
	Text      VectorizerConfig          `yaml:"text"`
	Vision    VectorizerConfig          `yaml:"vision"`
	TimeoutMs int                       `yaml:"timeout_ms"`
	Cache     EmbeddingCacheConfig      `yaml:"cache"`
}

// Timeout returns the per-call embedding timeout.
func (e EmbeddingConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutMs) * time.Millisecond
}

// EmbeddingCacheConfig holds the two cache tiers.
type EmbeddingCacheConfig struct {
	TTLSec      int `yaml:"ttl_sec"`
	LocalSize   int `yaml:"local_size"`
	LocalTTLSec int `yaml:"local_ttl_sec"`
}

// ProviderConfig holds embedding provider settings.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// VectorizerConfig holds vectorizer settings. An empty provider disables the vectorizer.
type VectorizerConfig struct {
	Provider         string `yaml:"provider"`
	Model            string `yaml:"model"`
	Dimensions       int    `yaml:"dimensions"`
	SendDimensions   bool   `yaml:"send_dimensions"`
	QueryInstruction string `yaml:"query_instruction"`
}

// Enabled reports whether a provider is configured.
func (v VectorizerConfig) Enabled() bool { return v.Provider != "" }

// IndexConfig holds chunk index settings.
type IndexConfig struct {
	Name            string  `yaml:"name"`
	KeyPrefix       string  `yaml:"key_prefix"`
	Language        string  `yaml:"language"`
	Algorithm       string  `yaml:"algorithm"` // hnsw, flat
	HNSWM           int     `yaml:"hnsw_m"`
	HNSWEFConstruct int     `yaml:"hnsw_ef_construction"`
	EFRuntime       int     `yaml:"ef_runtime"`
	TitleWeight     float64 `yaml:"title_weight"`
	ContentWeight   float64 `yaml:"content_weight"`
	AutoCreate      bool    `yaml:"auto_create"`
}

// WeightsConfig holds per-method fusion weights.
type WeightsConfig struct {
	Vector   float64 `yaml:"vector"`
	Keyword  float64 `yaml:"keyword"`
	Fulltext float64 `yaml:"fulltext"`
	Image    float64 `yaml:"image"`
}

// LexicalProfile maps a query language to the store's stemming language and scorer.
type LexicalProfile struct {
	Language string `yaml:"language"`
	Scorer   string `yaml:"scorer"`
}

// SearchConfig holds retrieval and ranking heuristics.
type SearchConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
	// CandidateMultiplier sizes each retriever's top-K as limit * multiplier.
	CandidateMultiplier int           `yaml:"candidate_multiplier"`
	Weights             WeightsConfig `yaml:"weights"`
	// VectorThresholds holds the base floor per language tag; "default" covers the rest
	// and "vision" is the floor for CLIP image-space hits.
	VectorThresholds   map[string]float64        `yaml:"vector_thresholds"`
	ShortQueryTerms    int                       `yaml:"short_query_terms"`
	ShortQueryRelax    float64                   `yaml:"short_query_relax"`
	MinThreshold       float64                   `yaml:"min_threshold"`
	TextOnlyCutoff     float64                   `yaml:"text_only_cutoff"`
	RetrieverTimeoutMs int                       `yaml:"retriever_timeout_ms"`
	PreviewLength      int                       `yaml:"preview_length"`
	HighlightPre       string                    `yaml:"highlight_pre"`
	HighlightPost      string                    `yaml:"highlight_post"`
	LexicalProfiles    map[string]LexicalProfile `yaml:"lexical_profiles"`
}

// RetrieverTimeout returns the per-retriever timeout.
func (s SearchConfig) RetrieverTimeout() time.Duration {
	return time.Duration(s.RetrieverTimeoutMs) * time.Millisecond
}

// AccessConfig holds Access Resolver settings.
type AccessConfig struct {
	CacheTTLSec int `yaml:"cache_ttl_sec"`
}

// CacheTTL returns the container metadata TTL.
func (a AccessConfig) CacheTTL() time.Duration {
	return time.Duration(a.CacheTTLSec) * time.Second
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands env variables, decodes YAML, applies defaults and validates.
func Parse(data []byte) (Config, error) {
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

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
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
	c.applyServerDefaults()
	c.applyEmbeddingDefaults()
	c.applyIndexDefaults()
	c.applySearchDefaults()
	if c.Access.CacheTTLSec <= 0 {
		c.Access.CacheTTLSec = 300
	}
}

func (c *Config) applyServerDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Permissions.DSN == "" {
		c.Permissions.DSN = "file:abekm.db"
	}
}

func (c *Config) applyEmbeddingDefaults() {
	if c.Embedding.TimeoutMs <= 0 {
		c.Embedding.TimeoutMs = 3000
	}
	text, vision := domain.DefaultTextVectorConfig(), domain.DefaultImageVectorConfig()
	if c.Embedding.Text.Model == "" {
		c.Embedding.Text.Model = text.Model
	}
	if c.Embedding.Text.Dimensions <= 0 {
		c.Embedding.Text.Dimensions = text.Dimensions
	}
	if c.Embedding.Vision.Model == "" {
		c.Embedding.Vision.Model = vision.Model
	}
	if c.Embedding.Vision.Dimensions <= 0 {
		c.Embedding.Vision.Dimensions = vision.Dimensions
	}
	if c.Embedding.Cache.TTLSec <= 0 {
		c.Embedding.Cache.TTLSec = 3600
	}
	if c.Embedding.Cache.LocalSize <= 0 {
		c.Embedding.Cache.LocalSize = 1000
	}
	if c.Embedding.Cache.LocalTTLSec <= 0 {
		c.Embedding.Cache.LocalTTLSec = 300
	}
}

func (c *Config) applyIndexDefaults() {
	if c.Index.Name == "" {
		c.Index.Name = "abekm:chunks:idx"
	}
	if c.Index.KeyPrefix == "" {
		c.Index.KeyPrefix = "abekm:"
	}
	if c.Index.Algorithm == "" {
		c.Index.Algorithm = "hnsw"
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 32
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 400
	}
	if c.Index.EFRuntime <= 0 {
		c.Index.EFRuntime = 100
	}
	if c.Index.TitleWeight <= 0 {
		c.Index.TitleWeight = 2
	}
	if c.Index.ContentWeight <= 0 {
		c.Index.ContentWeight = 1
	}
}

func (c *Config) applySearchDefaults() {
	s := &c.Search
	if s.DefaultLimit <= 0 {
		s.DefaultLimit = 20
	}
	if s.MaxLimit <= 0 {
		s.MaxLimit = 100
	}
	if s.CandidateMultiplier <= 0 {
		s.CandidateMultiplier = 3
	}
	if s.Weights == (WeightsConfig{}) {
		s.Weights = WeightsConfig{Vector: 0.4, Keyword: 0.5, Fulltext: 0.1, Image: 0.4}
	}
	if len(s.VectorThresholds) == 0 {
		s.VectorThresholds = map[string]float64{"default": 0.5, "ko": 0.45, "vision": 0.2}
	}
	if s.ShortQueryTerms <= 0 {
		s.ShortQueryTerms = 2
	}
	if s.ShortQueryRelax <= 0 {
		s.ShortQueryRelax = 0.1
	}
	if s.MinThreshold <= 0 {
		s.MinThreshold = 0.3
	}
	if s.TextOnlyCutoff <= 0 {
		s.TextOnlyCutoff = 0.8
	}
	if s.RetrieverTimeoutMs <= 0 {
		s.RetrieverTimeoutMs = 3500
	}
	if s.PreviewLength <= 0 {
		s.PreviewLength = 300
	}
	if s.HighlightPre == "" && s.HighlightPost == "" {
		s.HighlightPre, s.HighlightPost = "<mark>", "</mark>"
	}
	if len(s.LexicalProfiles) == 0 {
		s.LexicalProfiles = map[string]LexicalProfile{
			"ko": {Scorer: "TFIDF.DOCNORM"},
			"en": {Language: "english", Scorer: "BM25STD"},
		}
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	for name, v := range map[string]VectorizerConfig{"text": c.Embedding.Text, "vision": c.Embedding.Vision} {
		if !v.Enabled() {
			continue
		}
		if _, ok := c.Embedding.Providers[v.Provider]; !ok {
			return fmt.Errorf("embedding.%s.provider %q is not defined in embedding.providers", name, v.Provider)
		}
	}
	return c.Search.validate()
}

func (s *SearchConfig) validate() error {
	w := s.Weights
	for name, v := range map[string]float64{
		"vector": w.Vector, "keyword": w.Keyword, "fulltext": w.Fulltext, "image": w.Image,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("search.weights.%s must be in [0,1], got %v", name, v)
		}
	}
	for lang, th := range s.VectorThresholds {
		if th < 0 || th > 1 {
			return fmt.Errorf("search.vector_thresholds.%s must be in [0,1], got %v", lang, th)
		}
	}
	if s.MinThreshold > 1 || s.TextOnlyCutoff > 1 {
		return fmt.Errorf("search.min_threshold and search.text_only_cutoff must be <= 1")
	}
	if s.DefaultLimit > s.MaxLimit {
		return fmt.Errorf("search.default_limit %d exceeds search.max_limit %d", s.DefaultLimit, s.MaxLimit)
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
