// Package config provides application configuration with multi-source
// priority: environment variables override the config file
// (~/.khetrent/config.yaml), which overrides defaults.
//
// Sensitive values (the Postgres password, the admin trigger key) are
// never logged and are masked in MarshalJSON.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates the embedding provider API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrMissingAdminKey indicates the queue-trigger admin key is not set.
	ErrMissingAdminKey = errors.New("missing admin key")

	// ErrInvalidAdminKey indicates the admin key is too short.
	ErrInvalidAdminKey = errors.New("invalid admin key")

	// ErrInvalidThreshold indicates the similarity threshold is out of range.
	ErrInvalidThreshold = errors.New("invalid similarity threshold")
)

const (
	// DefaultEmbedderModel is the default Gemini embedder model.
	// gemini-embedding-001 supports truncation to 768 dimensions via
	// OutputDimensionality, matching the pgvector schema.
	DefaultEmbedderModel = "gemini-embedding-001"

	// MinAdminKeyLength guards against trivially guessable trigger keys.
	MinAdminKeyLength = 16
)

// Config stores application configuration.
type Config struct {
	// Embedding provider
	EmbedderModel string `mapstructure:"embedder_model" json:"embedder_model"`

	// HTTP server
	ServerAddr string `mapstructure:"server_addr" json:"server_addr"`

	// AdminKey authenticates queue-processing triggers (X-Admin-Key).
	AdminKey string `mapstructure:"admin_key" json:"-"`

	// Retrieval parameters
	RAGThreshold  float64 `mapstructure:"rag_threshold" json:"rag_threshold"`
	RAGMaxResults int32   `mapstructure:"rag_max_results" json:"rag_max_results"`
	RAGMaxTokens  int     `mapstructure:"rag_max_tokens" json:"rag_max_tokens"`

	// PostgreSQL connection
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"-"`
	PostgresDBName   string `mapstructure:"postgres_dbname" json:"postgres_dbname"`
	PostgresSSLMode  string `mapstructure:"postgres_sslmode" json:"postgres_sslmode"`
}

// MarshalJSON masks sensitive fields.
func (c *Config) MarshalJSON() ([]byte, error) {
	type alias Config
	return json.Marshal(&struct {
		*alias
		AdminKey         string `json:"admin_key"`
		PostgresPassword string `json:"postgres_password"`
	}{
		alias:            (*alias)(c),
		AdminKey:         mask(c.AdminKey),
		PostgresPassword: mask(c.PostgresPassword),
	})
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}

// Load reads configuration from defaults, the config file and environment
// variables, in ascending priority.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("embedder_model", DefaultEmbedderModel)
	v.SetDefault("server_addr", "127.0.0.1:8480")
	v.SetDefault("rag_threshold", 0.7)
	v.SetDefault("rag_max_results", 10)
	v.SetDefault("rag_max_tokens", 2000)
	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "khetrent")
	v.SetDefault("postgres_dbname", "khetrent")
	v.SetDefault("postgres_sslmode", "disable")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".khetrent"))
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix("KHETRENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// No config file is fine; defaults + env carry the day.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the configuration for the batch-processing and CLI
// paths (no admin key needed — the CLI is already privileged).
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}
	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder model must not be empty", ErrInvalidEmbedderModel)
	}
	if c.PostgresHost == "" {
		return fmt.Errorf("%w: host must not be empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: port %d out of range 1-65535", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if c.PostgresDBName == "" {
		return fmt.Errorf("%w: database name must not be empty", ErrInvalidPostgresDBName)
	}
	if c.RAGThreshold < 0 || c.RAGThreshold > 1 {
		return fmt.Errorf("%w: threshold %g out of range 0-1", ErrInvalidThreshold, c.RAGThreshold)
	}
	return nil
}

// ValidateServe checks the configuration for the HTTP server path, which
// additionally requires a usable admin key for the trigger endpoint.
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.AdminKey == "" {
		return fmt.Errorf("%w: set KHETRENT_ADMIN_KEY", ErrMissingAdminKey)
	}
	if len(c.AdminKey) < MinAdminKeyLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrInvalidAdminKey, MinAdminKeyLength)
	}
	return nil
}
