package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const longSecret = "0123456789abcdef0123456789abcdef"

func TestLoadFrom_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	cfg, err := LoadFrom("")

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 30*24*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, "shop7883@gmail.com", cfg.Bootstrap.Email)
	assert.Equal(t, "1234", cfg.Bootstrap.Secret)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
	assert.False(t, cfg.Orders.StrictTransitions)
	assert.True(t, cfg.DevMode())
}

func TestLoadFrom_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shopwise.yaml")
	yamlDoc := `
env: production
server:
  addr: ":9000"
jwt:
  secret: "` + longSecret + `"
  ttl: 48h
storage:
  backend: postgres
kafka:
  brokers: ["kafka-1:9092"]
orders:
  strict_transitions: true
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o600))

	t.Setenv("APP_ENV", "")
	t.Setenv("HTTP_ADDR", ":9100")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092")

	cfg, err := LoadFrom(path)

	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.Server.Addr)
	assert.Equal(t, 48*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, BackendPostgres, cfg.Storage.Backend)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Orders.StrictTransitions)
	assert.False(t, cfg.DevMode())
	// untouched keys keep defaults
	assert.Equal(t, "shopwise-events", cfg.Kafka.Topic)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"dev without secret", func(c *Config) {}, false},
		{"prod without secret", func(c *Config) { c.Env = "production" }, true},
		{"prod short secret", func(c *Config) { c.Env = "production"; c.JWT.Secret = "short" }, true},
		{"prod long secret", func(c *Config) { c.Env = "production"; c.JWT.Secret = longSecret }, false},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "sqlite" }, true},
		{"missing bootstrap secret", func(c *Config) { c.Bootstrap.Secret = "" }, true},
		{"kafka on memory store", func(c *Config) { c.Kafka.Enabled = true }, true},
		{"kafka on postgres", func(c *Config) { c.Kafka.Enabled = true; c.Storage.Backend = BackendPostgres }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadFrom_MissingFile(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
