package domain

import (
	"time"
)

// Config represents the main application configuration
type Config struct {
	Environment    string           `mapstructure:"environment"`
	Server         ServerConfig     `mapstructure:"server"`
	Storage        StorageConfig    `mapstructure:"storage"`
	Database       DatabaseConfig   `mapstructure:"database"`
	Cache          CacheConfig      `mapstructure:"cache"`
	Models         ModelsConfig     `mapstructure:"models"`
	Prediction     PredictionConfig `mapstructure:"prediction"`
	RiskThresholds ThresholdConfig  `mapstructure:"risk_thresholds"`
	Events         EventsConfig     `mapstructure:"events"`
	Logging        LoggingConfig    `mapstructure:"logging"`
	MCP            MCPConfig        `mapstructure:"mcp"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StorageConfig selects the persistence backend
type StorageConfig struct {
	Driver     string `mapstructure:"driver"` // "sqlite", "postgres"
	SQLitePath string `mapstructure:"sqlite_path"`
}

// DatabaseConfig represents Postgres connection configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// CacheConfig represents latest-prediction cache configuration
type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Backend  string        `mapstructure:"backend"` // "memory", "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
	MaxItems int           `mapstructure:"max_items"`
	Prefix   string        `mapstructure:"prefix"`
}

// ModelsConfig describes where model artifacts come from
type ModelsConfig struct {
	Source       string      `mapstructure:"source"` // "dir", "s3"
	Dir          string      `mapstructure:"dir"`
	S3           S3Config    `mapstructure:"s3"`
	Diabetes     ModelConfig `mapstructure:"diabetes"`
	Liver        ModelConfig `mapstructure:"liver"`
	Heart        ModelConfig `mapstructure:"heart"`
	MentalHealth ModelConfig `mapstructure:"mental_health"`
}

// For returns the model configuration for disease.
func (m ModelsConfig) For(disease Disease) ModelConfig {
	switch disease {
	case Diabetes:
		return m.Diabetes
	case Liver:
		return m.Liver
	case Heart:
		return m.Heart
	case MentalHealth:
		return m.MentalHealth
	}
	return ModelConfig{}
}

// S3Config locates model artifacts in an S3 compatible bucket
type S3Config struct {
	Bucket       string `mapstructure:"bucket"`
	Prefix       string `mapstructure:"prefix"`
	Region       string `mapstructure:"region"`
	Endpoint     string `mapstructure:"endpoint"`
	UsePathStyle bool   `mapstructure:"use_path_style"`
}

// ModelConfig configures the classifier for one disease
type ModelConfig struct {
	Kind      string        `mapstructure:"kind"` // "logistic", "remote", "none"
	Artifact  string        `mapstructure:"artifact"`
	Endpoint  string        `mapstructure:"endpoint"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit float64       `mapstructure:"rate_limit"`
}

// PredictionConfig holds orchestrator settings
type PredictionConfig struct {
	ModelVersion string `mapstructure:"model_version"`
}

// ThresholdConfig holds the tier cut points
type ThresholdConfig struct {
	Medium float64 `mapstructure:"medium"`
	High   float64 `mapstructure:"high"`
}

// EventsConfig configures prediction event publishing
type EventsConfig struct {
	Kafka KafkaConfig `mapstructure:"kafka"`
}

// KafkaConfig configures the Kafka writer
type KafkaConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MCPConfig represents MCP server configuration
type MCPConfig struct {
	ServerName    string `mapstructure:"server_name"`
	ServerVersion string `mapstructure:"server_version"`
}
