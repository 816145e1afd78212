// Package config provides configuration management for cognigraph
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the complete configuration for the orchestrator and its
// default collaborators
type Config struct {
	// Graph store configuration
	Graph GraphConfig `yaml:"graph" json:"graph"`

	// Data processing configuration
	Processing ProcessingConfig `yaml:"processing" json:"processing"`

	// Embedding generator configuration
	Embedding EmbeddingConfig `yaml:"embedding" json:"embedding"`

	// Semantic search configuration
	Search SearchConfig `yaml:"search" json:"search"`

	// Cache configuration
	Cache CacheConfig `yaml:"cache" json:"cache"`

	// Performance optimizer configuration
	Optimizer OptimizerConfig `yaml:"optimizer" json:"optimizer"`

	// Health monitoring configuration
	Health HealthConfig `yaml:"health" json:"health"`

	// Metrics collection configuration
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`

	// Tracing configuration
	Tracing TracingConfig `yaml:"tracing" json:"tracing"`

	// HTTP API server configuration
	Server ServerConfig `yaml:"server" json:"server"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// DynamicConfig enables host-profile-driven tuning before
	// subsystem initialization
	DynamicConfig bool `yaml:"dynamic_config" json:"dynamic_config"`
}

// GraphConfig holds graph store configuration
type GraphConfig struct {
	Type string `yaml:"type" json:"type"` // "memory" or "badger"
	Path string `yaml:"path" json:"path"` // data directory for embedded stores
}

// ProcessingConfig holds data processing configuration
type ProcessingConfig struct {
	Workers      int `yaml:"workers" json:"workers"`
	MaxBatchSize int `yaml:"max_batch_size" json:"max_batch_size"`
}

// EmbeddingConfig holds embedding generator configuration
type EmbeddingConfig struct {
	Dimensions int `yaml:"dimensions" json:"dimensions"`
	BatchSize  int `yaml:"batch_size" json:"batch_size"`
}

// SearchConfig holds semantic search configuration
type SearchConfig struct {
	Collection    string  `yaml:"collection" json:"collection"`
	PersistPath   string  `yaml:"persist_path" json:"persist_path"`
	DefaultLimit  int     `yaml:"default_limit" json:"default_limit"`
	MinSimilarity float32 `yaml:"min_similarity" json:"min_similarity"`
}

// CacheConfig holds cache configuration
type CacheConfig struct {
	Type    string        `yaml:"type" json:"type"` // "lru" or "badger"
	Path    string        `yaml:"path" json:"path"` // data directory for badger cache
	MaxSize int           `yaml:"max_size" json:"max_size"`
	TTL     time.Duration `yaml:"ttl" json:"ttl"`
}

// OptimizerConfig holds performance optimizer configuration
type OptimizerConfig struct {
	OptimizationInterval time.Duration `yaml:"optimization_interval" json:"optimization_interval"`
	HeapThresholdBytes   uint64        `yaml:"heap_threshold_bytes" json:"heap_threshold_bytes"`
}

// HealthConfig holds health monitoring configuration
type HealthConfig struct {
	CheckInterval time.Duration `yaml:"check_interval" json:"check_interval"`
	CheckTimeout  time.Duration `yaml:"check_timeout" json:"check_timeout"`
}

// MetricsConfig holds metrics collection configuration
type MetricsConfig struct {
	CollectionInterval time.Duration `yaml:"collection_interval" json:"collection_interval"`
	Namespace          string        `yaml:"namespace" json:"namespace"`
	Subsystem          string        `yaml:"subsystem" json:"subsystem"`
}

// TracingConfig holds OpenTelemetry tracing configuration
type TracingConfig struct {
	Enabled      bool          `yaml:"enabled" json:"enabled"`
	Endpoint     string        `yaml:"endpoint" json:"endpoint"`
	ServiceName  string        `yaml:"service_name" json:"service_name"`
	SampleRate   float64       `yaml:"sample_rate" json:"sample_rate"`
	BatchTimeout time.Duration `yaml:"batch_timeout" json:"batch_timeout"`
}

// ServerConfig holds HTTP API server configuration
type ServerConfig struct {
	Host         string        `yaml:"host" json:"host"`
	Port         int           `yaml:"port" json:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	CORSEnabled  bool          `yaml:"cors_enabled" json:"cors_enabled"`

	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
	Auth      AuthConfig      `yaml:"auth" json:"auth"`
}

// RateLimitConfig holds token-bucket rate limiting configuration
type RateLimitConfig struct {
	Enabled bool          `yaml:"enabled" json:"enabled"`
	Limit   int           `yaml:"limit" json:"limit"`
	Window  time.Duration `yaml:"window" json:"window"`
}

// AuthConfig holds JWT bearer authentication configuration
type AuthConfig struct {
	Enabled   bool          `yaml:"enabled" json:"enabled"`
	SecretKey string        `yaml:"secret_key" json:"secret_key"`
	Issuer    string        `yaml:"issuer" json:"issuer"`
	Expiry    time.Duration `yaml:"expiry" json:"expiry"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`
	Format   string `yaml:"format" json:"format"`
	Output   string `yaml:"output" json:"output"`
	FilePath string `yaml:"file_path" json:"file_path"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Graph: GraphConfig{
			Type: "memory",
			Path: "./cognigraph-data/graph",
		},
		Processing: ProcessingConfig{
			Workers:      4,
			MaxBatchSize: 64,
		},
		Embedding: EmbeddingConfig{
			Dimensions: 256,
			BatchSize:  32,
		},
		Search: SearchConfig{
			Collection:    "knowledge",
			DefaultLimit:  10,
			MinSimilarity: 0.0,
		},
		Cache: CacheConfig{
			Type:    "lru",
			Path:    "./cognigraph-data/cache",
			MaxSize: 1024,
			TTL:     10 * time.Minute,
		},
		Optimizer: OptimizerConfig{
			OptimizationInterval: time.Minute,
			HeapThresholdBytes:   512 * 1024 * 1024,
		},
		Health: HealthConfig{
			CheckInterval: 30 * time.Second,
			CheckTimeout:  5 * time.Second,
		},
		Metrics: MetricsConfig{
			CollectionInterval: 15 * time.Second,
			Namespace:          "cognigraph",
			Subsystem:          "core",
		},
		Tracing: TracingConfig{
			Enabled:      false,
			ServiceName:  "cognigraph",
			SampleRate:   0.1,
			BatchTimeout: 5 * time.Second,
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
			CORSEnabled:  true,
			RateLimit: RateLimitConfig{
				Enabled: false,
				Limit:   100,
				Window:  time.Minute,
			},
			Auth: AuthConfig{
				Enabled: false,
				Expiry:  24 * time.Hour,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		DynamicConfig: false,
	}
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if configPath != "" {
		if err := loadConfigFromFile(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	loadConfigFromEnv(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// loadConfigFromFile loads configuration from a YAML or JSON file
func loadConfigFromFile(config *Config, configPath string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(configPath))
	switch ext {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, config)
	case ".json":
		return json.Unmarshal(data, config)
	default:
		return fmt.Errorf("unsupported config file format: %s", ext)
	}
}

// loadConfigFromEnv overrides configuration from environment variables
func loadConfigFromEnv(config *Config) {
	if val := os.Getenv("COGNIGRAPH_GRAPH_TYPE"); val != "" {
		config.Graph.Type = val
	}
	if val := os.Getenv("COGNIGRAPH_GRAPH_PATH"); val != "" {
		config.Graph.Path = val
	}
	if val := os.Getenv("COGNIGRAPH_CACHE_TYPE"); val != "" {
		config.Cache.Type = val
	}
	if val := os.Getenv("COGNIGRAPH_CACHE_PATH"); val != "" {
		config.Cache.Path = val
	}
	if val := os.Getenv("COGNIGRAPH_SEARCH_PERSIST_PATH"); val != "" {
		config.Search.PersistPath = val
	}
	if val := os.Getenv("COGNIGRAPH_HTTP_HOST"); val != "" {
		config.Server.Host = val
	}
	if val := os.Getenv("COGNIGRAPH_HTTP_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			config.Server.Port = port
		}
	}
	if val := os.Getenv("COGNIGRAPH_METRICS_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			config.Metrics.CollectionInterval = d
		}
	}
	if val := os.Getenv("COGNIGRAPH_HEALTH_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			config.Health.CheckInterval = d
		}
	}
	if val := os.Getenv("COGNIGRAPH_OPTIMIZER_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			config.Optimizer.OptimizationInterval = d
		}
	}
	if val := os.Getenv("COGNIGRAPH_TRACING_ENABLED"); val != "" {
		config.Tracing.Enabled = strings.ToLower(val) == "true"
	}
	if val := os.Getenv("COGNIGRAPH_TRACING_ENDPOINT"); val != "" {
		config.Tracing.Endpoint = val
	}
	if val := os.Getenv("COGNIGRAPH_LOG_LEVEL"); val != "" {
		config.Logging.Level = val
	}
	if val := os.Getenv("COGNIGRAPH_LOG_FORMAT"); val != "" {
		config.Logging.Format = val
	}
	if val := os.Getenv("COGNIGRAPH_AUTH_ENABLED"); val != "" {
		config.Server.Auth.Enabled = strings.ToLower(val) == "true"
	}
	if val := os.Getenv("COGNIGRAPH_JWT_SECRET_KEY"); val != "" {
		config.Server.Auth.SecretKey = val
	}
	if val := os.Getenv("COGNIGRAPH_RATE_LIMIT_ENABLED"); val != "" {
		config.Server.RateLimit.Enabled = strings.ToLower(val) == "true"
	}
	if val := os.Getenv("COGNIGRAPH_DYNAMIC_CONFIG"); val != "" {
		config.DynamicConfig = strings.ToLower(val) == "true"
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	validGraphTypes := []string{"memory", "badger"}
	if !contains(validGraphTypes, c.Graph.Type) {
		return fmt.Errorf("invalid graph type: %s, must be one of %v", c.Graph.Type, validGraphTypes)
	}

	validCacheTypes := []string{"lru", "badger"}
	if !contains(validCacheTypes, c.Cache.Type) {
		return fmt.Errorf("invalid cache type: %s, must be one of %v", c.Cache.Type, validCacheTypes)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.Port)
	}

	if c.Metrics.CollectionInterval <= 0 {
		return fmt.Errorf("metrics collection interval must be positive")
	}
	if c.Health.CheckInterval <= 0 {
		return fmt.Errorf("health check interval must be positive")
	}
	if c.Optimizer.OptimizationInterval <= 0 {
		return fmt.Errorf("optimization interval must be positive")
	}

	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding dimensions must be positive")
	}

	if c.Server.Auth.Enabled && c.Server.Auth.SecretKey == "" {
		return fmt.Errorf("JWT secret key must be specified when auth is enabled")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, strings.ToLower(c.Logging.Level)) {
		return fmt.Errorf("invalid log level: %s, must be one of %v", c.Logging.Level, validLogLevels)
	}

	validLogFormats := []string{"json", "text"}
	if !contains(validLogFormats, strings.ToLower(c.Logging.Format)) {
		return fmt.Errorf("invalid log format: %s, must be one of %v", c.Logging.Format, validLogFormats)
	}

	return nil
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	data, _ := yaml.Marshal(c)
	return string(data)
}

// SaveToFile saves the configuration to a file
func (c *Config) SaveToFile(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	var data []byte
	var err error

	switch ext {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	case ".json":
		data, err = json.MarshalIndent(c, "", "  ")
	default:
		return fmt.Errorf("unsupported config file format: %s", ext)
	}

	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// contains checks if a slice contains a string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
