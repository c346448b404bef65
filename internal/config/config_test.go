package config

import (
	"errors"
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		EmbedderModel:   DefaultEmbedderModel,
		ServerAddr:      "127.0.0.1:8480",
		AdminKey:        "0123456789abcdef0123",
		RAGThreshold:    0.7,
		RAGMaxResults:   10,
		RAGMaxTokens:    2000,
		PostgresHost:    "localhost",
		PostgresPort:    5432,
		PostgresUser:    "khetrent",
		PostgresDBName:  "khetrent",
		PostgresSSLMode: "disable",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid", func(c *Config) {}, nil},
		{"empty embedder model", func(c *Config) { c.EmbedderModel = "" }, ErrInvalidEmbedderModel},
		{"empty host", func(c *Config) { c.PostgresHost = "" }, ErrInvalidPostgresHost},
		{"port zero", func(c *Config) { c.PostgresPort = 0 }, ErrInvalidPostgresPort},
		{"port too big", func(c *Config) { c.PostgresPort = 70000 }, ErrInvalidPostgresPort},
		{"empty dbname", func(c *Config) { c.PostgresDBName = "" }, ErrInvalidPostgresDBName},
		{"threshold above one", func(c *Config) { c.RAGThreshold = 1.5 }, ErrInvalidThreshold},
		{"threshold negative", func(c *Config) { c.RAGThreshold = -0.1 }, ErrInvalidThreshold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("nil config", func(t *testing.T) {
		var cfg *Config
		if !errors.Is(cfg.Validate(), ErrConfigNil) {
			t.Error("nil config should fail with ErrConfigNil")
		}
	})
}

func TestValidateServe(t *testing.T) {
	t.Run("missing admin key", func(t *testing.T) {
		cfg := validConfig()
		cfg.AdminKey = ""
		if !errors.Is(cfg.ValidateServe(), ErrMissingAdminKey) {
			t.Error("empty admin key should fail with ErrMissingAdminKey")
		}
	})

	t.Run("short admin key", func(t *testing.T) {
		cfg := validConfig()
		cfg.AdminKey = "short"
		if !errors.Is(cfg.ValidateServe(), ErrInvalidAdminKey) {
			t.Error("short admin key should fail with ErrInvalidAdminKey")
		}
	})

	t.Run("valid", func(t *testing.T) {
		if err := validConfig().ValidateServe(); err != nil {
			t.Errorf("ValidateServe() error = %v", err)
		}
	})
}

func TestPostgresConnectionString(t *testing.T) {
	cfg := validConfig()
	got := cfg.PostgresConnectionString()
	for _, want := range []string{"host=localhost", "port=5432", "user=khetrent", "dbname=khetrent", "sslmode=disable"} {
		if !strings.Contains(got, want) {
			t.Errorf("DSN missing %q: %q", want, got)
		}
	}
	if strings.Contains(got, "password=") {
		t.Errorf("DSN should omit empty password: %q", got)
	}

	cfg.PostgresPassword = "s3cret"
	if !strings.Contains(cfg.PostgresConnectionString(), "password=s3cret") {
		t.Error("DSN missing password")
	}
}

func TestPostgresConnectionStringQuoting(t *testing.T) {
	cfg := validConfig()
	cfg.PostgresPassword = "with space"
	got := cfg.PostgresConnectionString()
	if !strings.Contains(got, "password='with space'") {
		t.Errorf("DSN value with space must be quoted: %q", got)
	}
}

func TestPostgresURL(t *testing.T) {
	cfg := validConfig()
	cfg.PostgresPassword = "p@ss/word"
	got := cfg.PostgresURL()

	if !strings.HasPrefix(got, "postgres://") {
		t.Errorf("URL = %q, want postgres:// scheme", got)
	}
	if !strings.Contains(got, "khetrent:") {
		t.Errorf("URL missing user: %q", got)
	}
	if strings.Contains(got, "p@ss/word") {
		t.Errorf("special characters in password must be escaped: %q", got)
	}
	if !strings.Contains(got, "sslmode=disable") {
		t.Errorf("URL missing sslmode: %q", got)
	}
}

func TestMarshalJSONMasksSecrets(t *testing.T) {
	cfg := validConfig()
	cfg.PostgresPassword = "super-secret"

	data, err := cfg.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	if strings.Contains(string(data), "super-secret") {
		t.Errorf("serialized config leaks the password: %s", data)
	}
	if strings.Contains(string(data), cfg.AdminKey) {
		t.Errorf("serialized config leaks the admin key: %s", data)
	}
}
