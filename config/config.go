package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the query translation service
type Config struct {
	General    GeneralConfig    `mapstructure:"general"`
	Server     ServerConfig     `mapstructure:"server"`
	Provider   ProviderConfig   `mapstructure:"provider"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Session    SessionConfig    `mapstructure:"session"`
	Translator TranslatorConfig `mapstructure:"translator"`
	Display    DisplayConfig    `mapstructure:"display"`
	Exports    ExportsConfig    `mapstructure:"exports"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// ProviderConfig selects and configures the generation backend
type ProviderConfig struct {
	Kind        string        `mapstructure:"kind"` // gemini, openai, local
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Endpoint    string        `mapstructure:"endpoint"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

func (p ProviderConfig) Validate() error {
	switch p.Kind {
	case "", "gemini":
		if strings.TrimSpace(p.APIKey) == "" {
			return fmt.Errorf("provider.api_key required for gemini")
		}
	case "openai":
		if strings.TrimSpace(p.APIKey) == "" {
			return fmt.Errorf("provider.api_key required for openai")
		}
	case "local":
		// endpoint and model have defaults, nothing required
	default:
		return fmt.Errorf("provider.kind must be one of gemini, openai, local")
	}
	return nil
}

// StorageConfig contains document store settings
type StorageConfig struct {
	Driver     string         `mapstructure:"driver"` // postgres, sqlite
	Collection string         `mapstructure:"collection"`
	Postgres   PostgresConfig `mapstructure:"postgres"`
	SQLite     SQLiteConfig   `mapstructure:"sqlite"`
	Redis      RedisConfig    `mapstructure:"redis"`
}

func (s StorageConfig) Validate() error {
	switch s.Driver {
	case "", "postgres":
		return s.Postgres.Validate()
	case "sqlite":
		return nil
	default:
		return fmt.Errorf("storage.driver must be postgres or sqlite")
	}
}

// PostgresConfig contains Postgres connection settings
type PostgresConfig struct {
	URL      string        `mapstructure:"url"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	DBName   string        `mapstructure:"dbname"`
	SSLMode  string        `mapstructure:"sslmode"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (p PostgresConfig) Validate() error {
	if strings.TrimSpace(p.URL) != "" {
		return nil
	}
	if strings.TrimSpace(p.Host) == "" {
		return fmt.Errorf("storage.postgres.host required when url is not provided")
	}
	if strings.TrimSpace(p.DBName) == "" {
		return fmt.Errorf("storage.postgres.dbname required when url is not provided")
	}
	return nil
}

// DSN assembles the connection string, preferring an explicit url.
func (p PostgresConfig) DSN() string {
	if strings.TrimSpace(p.URL) != "" {
		return p.URL
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl)
}

// SQLiteConfig contains embedded store settings
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// RedisConfig contains Redis connection settings for session storage
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (r RedisConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("storage.redis.host required")
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.redis.port required")
	}
	return nil
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// SessionConfig controls per-session state (query counters for exports)
type SessionConfig struct {
	Backend string        `mapstructure:"backend"` // memory, redis
	TTL     time.Duration `mapstructure:"ttl"`
}

func (s SessionConfig) Validate() error {
	switch s.Backend {
	case "", "memory", "redis":
		return nil
	default:
		return fmt.Errorf("session.backend must be memory or redis")
	}
}

// TranslatorConfig tunes the model invoker retry loop
type TranslatorConfig struct {
	Attempts   int           `mapstructure:"attempts"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

// Normalize applies the invoker defaults for unset values.
func (t TranslatorConfig) Normalize() TranslatorConfig {
	if t.Attempts <= 0 {
		t.Attempts = 3
	}
	if t.RetryDelay <= 0 {
		t.RetryDelay = 5 * time.Second
	}
	return t
}

// DisplayConfig controls tabular output
type DisplayConfig struct {
	MaxRows int `mapstructure:"max_rows"`
}

// Normalize applies display defaults.
func (d DisplayConfig) Normalize() DisplayConfig {
	if d.MaxRows <= 0 {
		d.MaxRows = 3
	}
	return d
}

// ExportsConfig controls CSV export output
type ExportsConfig struct {
	Dir string `mapstructure:"dir"`
}

// Normalize applies export defaults.
func (e ExportsConfig) Normalize() ExportsConfig {
	if strings.TrimSpace(e.Dir) == "" {
		e.Dir = "exports"
	}
	return e
}

// Load reads configuration from file and environment. A missing config file
// is fine when no explicit path was given; the environment (ASKDB_*) and
// defaults carry the rest.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Every key gets a default so environment-only values bind on Unmarshal.
	v.SetDefault("general.debug", false)
	v.SetDefault("general.default_timeout", 30*time.Second)
	v.SetDefault("server.address", ":10010")
	v.SetDefault("provider.kind", "gemini")
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.model", "")
	v.SetDefault("provider.endpoint", "")
	v.SetDefault("provider.temperature", 0.0)
	v.SetDefault("provider.max_tokens", 0)
	v.SetDefault("provider.timeout", 30*time.Second)
	v.SetDefault("storage.driver", "postgres")
	v.SetDefault("storage.collection", "products")
	v.SetDefault("storage.postgres.url", "")
	v.SetDefault("storage.postgres.host", "")
	v.SetDefault("storage.postgres.port", "5432")
	v.SetDefault("storage.postgres.user", "")
	v.SetDefault("storage.postgres.password", "")
	v.SetDefault("storage.postgres.dbname", "")
	v.SetDefault("storage.postgres.sslmode", "disable")
	v.SetDefault("storage.sqlite.path", "")
	v.SetDefault("storage.redis.host", "")
	v.SetDefault("storage.redis.port", "6379")
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("session.backend", "memory")
	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("translator.attempts", 3)
	v.SetDefault("translator.retry_delay", 5*time.Second)
	v.SetDefault("display.max_rows", 3)
	v.SetDefault("exports.dir", "exports")

	if path == "" {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("ASKDB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Translator = cfg.Translator.Normalize()
	cfg.Display = cfg.Display.Normalize()
	cfg.Exports = cfg.Exports.Normalize()

	if err := cfg.Storage.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Provider.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Session.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
