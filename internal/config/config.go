package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/medml-risk-server/internal/domain"
	"github.com/medml-risk-server/internal/risk"
)

// EnvPrefix is prepended to every environment override, e.g.
// MEDML_RISK_THRESHOLDS_HIGH.
const EnvPrefix = "MEDML"

// Manager implements the ConfigManager interface using Viper
type Manager struct {
	v    *viper.Viper
	file string

	mu     sync.RWMutex
	config *domain.Config
}

var _ domain.ConfigManager = (*Manager)(nil)

// NewManager creates a new configuration manager. configFile may be empty,
// in which case config.yaml is looked up in the default search paths.
func NewManager(configFile string) (*Manager, error) {
	m := &Manager{v: viper.New(), file: configFile}
	m.setup()
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

func (m *Manager) setup() {
	if m.file != "" {
		m.v.SetConfigFile(m.file)
	} else {
		m.v.SetConfigName("config")
		m.v.SetConfigType("yaml")
		m.v.AddConfigPath(".")
		m.v.AddConfigPath("./config")
		m.v.AddConfigPath("/etc/medml-risk-server/")
	}

	m.v.SetEnvPrefix(EnvPrefix)
	m.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	m.v.AutomaticEnv()

	m.setDefaults()
}

// loadConfig reads the file (optional) and unmarshals it over the defaults
func (m *Manager) loadConfig() error {
	if err := m.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &domain.Config{}
	if err := m.v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()
	return nil
}

// setDefaults sets default configuration values
func (m *Manager) setDefaults() {
	v := m.v
	v.SetDefault("environment", "development")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "15s")

	// Storage defaults
	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.sqlite_path", "./data/medml.db")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "medml")
	v.SetDefault("database.username", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.conn_max_idle_time", "30m")
	v.SetDefault("database.migrations_path", "migrations")

	// Cache defaults
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.redis_url", "redis://localhost:6379/0")
	v.SetDefault("cache.ttl", "10m")
	v.SetDefault("cache.max_items", 10000)
	v.SetDefault("cache.prefix", "medml:latest:")

	// Model defaults
	v.SetDefault("models.source", "dir")
	v.SetDefault("models.dir", "./models")
	v.SetDefault("models.s3.bucket", "")
	v.SetDefault("models.s3.prefix", "")
	v.SetDefault("models.s3.region", "")
	v.SetDefault("models.s3.endpoint", "")
	v.SetDefault("models.s3.use_path_style", false)
	for _, d := range domain.Diseases {
		key := "models." + string(d)
		v.SetDefault(key+".kind", "logistic")
		v.SetDefault(key+".artifact", string(d)+".json")
		v.SetDefault(key+".endpoint", "")
		v.SetDefault(key+".timeout", "5s")
		v.SetDefault(key+".rate_limit", 0)
	}

	// Prediction defaults
	v.SetDefault("prediction.model_version", "1.0")
	v.SetDefault("risk_thresholds.medium", risk.DefaultMedium)
	v.SetDefault("risk_thresholds.high", risk.DefaultHigh)

	// Event defaults
	v.SetDefault("events.kafka.enabled", false)
	v.SetDefault("events.kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("events.kafka.topic", "medml.predictions")
	v.SetDefault("events.kafka.write_timeout", "10s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	// MCP defaults
	v.SetDefault("mcp.server_name", "medml-risk-server")
	v.SetDefault("mcp.server_version", "1.0.0")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.GetConfig().Server
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Watch reloads the configuration whenever the config file changes and
// passes each successfully validated result to fn. Invalid files are logged
// and the previous configuration stays active.
func (m *Manager) Watch(logger *logrus.Logger, fn func(*domain.Config)) {
	m.v.OnConfigChange(func(e fsnotify.Event) {
		previous := m.GetConfig()
		if err := m.loadConfig(); err != nil {
			logger.WithError(err).WithField("file", e.Name).Warn("Failed to reload configuration")
			return
		}
		if err := m.Validate(); err != nil {
			m.mu.Lock()
			m.config = previous
			m.mu.Unlock()
			logger.WithError(err).WithField("file", e.Name).Warn("Reloaded configuration is invalid, keeping previous")
			return
		}
		logger.WithField("file", e.Name).Info("Configuration reloaded")
		fn(m.GetConfig())
	})
	m.v.WatchConfig()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	return Validate(m.GetConfig())
}

var (
	validLogLevels   = map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true}
	validModelKinds  = map[string]bool{"": true, "logistic": true, "remote": true, "none": true}
	validCacheStores = map[string]bool{"": true, "memory": true, "redis": true}
)

// Validate checks a configuration for values the server cannot start with
func Validate(config *domain.Config) error {
	// Validate server configuration
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	// Validate storage configuration
	switch config.Storage.Driver {
	case "sqlite":
		if config.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path is required for the sqlite driver")
		}
	case "postgres":
		if config.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if config.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if config.Database.Username == "" {
			return fmt.Errorf("database username is required")
		}
	default:
		return fmt.Errorf("invalid storage driver: %q", config.Storage.Driver)
	}

	// Validate thresholds
	if err := risk.FromConfig(config.RiskThresholds).Validate(); err != nil {
		return err
	}

	// Validate models
	switch config.Models.Source {
	case "", "dir":
	case "s3":
		if config.Models.S3.Bucket == "" {
			return fmt.Errorf("models.s3.bucket is required for the s3 source")
		}
	default:
		return fmt.Errorf("invalid models source: %q", config.Models.Source)
	}
	for _, d := range domain.Diseases {
		mc := config.Models.For(d)
		if !validModelKinds[mc.Kind] {
			return fmt.Errorf("invalid model kind for %s: %q", d, mc.Kind)
		}
		if mc.Kind == "remote" && mc.Endpoint == "" {
			return fmt.Errorf("models.%s.endpoint is required for remote models", d)
		}
		if mc.RateLimit < 0 {
			return fmt.Errorf("models.%s.rate_limit cannot be negative", d)
		}
	}

	// Validate cache configuration
	if config.Cache.Enabled {
		if !validCacheStores[config.Cache.Backend] {
			return fmt.Errorf("invalid cache backend: %q", config.Cache.Backend)
		}
		if config.Cache.Backend == "redis" && config.Cache.RedisURL == "" {
			return fmt.Errorf("Redis URL is required")
		}
	}

	// Validate events
	if config.Events.Kafka.Enabled {
		if len(config.Events.Kafka.Brokers) == 0 {
			return fmt.Errorf("events.kafka.brokers is required when kafka is enabled")
		}
		if config.Events.Kafka.Topic == "" {
			return fmt.Errorf("events.kafka.topic is required when kafka is enabled")
		}
	}

	// Validate logging configuration
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}

// IsProduction returns true if running in production mode
func (m *Manager) IsProduction() bool {
	return strings.EqualFold(m.GetConfig().Environment, "production")
}
