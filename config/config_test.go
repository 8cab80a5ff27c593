package config

import (
	"testing"
	"time"

	"github.com/bayramdkmn/notepad-intern/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GO_ENV", "test")
	t.Setenv("ACCESS_TOKEN_SECRET_KEY", "")
	t.Setenv("REFRESH_TOKEN_SECRET_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Server.Env)
	assert.Equal(t, 20*time.Minute, cfg.Auth.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.RefreshTTL)
	assert.Equal(t, 15*time.Minute, cfg.Auth.ResetTTL)
	assert.Equal(t, 10*24*time.Hour, cfg.Retention.Window)
	assert.Equal(t, 24*time.Hour, cfg.Retention.SweepInterval)
	assert.Equal(t, "", cfg.Redis.URL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GO_ENV", "test")
	t.Setenv("ACCESS_TOKEN_SECRET_KEY", "access")
	t.Setenv("REFRESH_TOKEN_SECRET_KEY", "refresh")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("MONGO_DB", "notes_test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.Auth.AccessTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "notes_test", cfg.Mongo.DatabaseName)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing secrets outside test", mutate: func(c *Config) {
			c.Server.Env = "production"
			c.Auth.AccessSecret = ""
		}, wantErr: true},
		{name: "shared secret", mutate: func(c *Config) {
			c.Auth.RefreshSecret = c.Auth.AccessSecret
		}, wantErr: true},
		{name: "zero retention window", mutate: func(c *Config) {
			c.Retention.Window = 0
		}, wantErr: true},
		{name: "short argon2 key", mutate: func(c *Config) {
			c.Auth.Argon2.KeyLen = 8
		}, wantErr: true},
		{name: "argon2 threads above uint8", mutate: func(c *Config) {
			c.Auth.Argon2.Threads = 256
		}, wantErr: true},
		{name: "zero argon2 threads", mutate: func(c *Config) {
			c.Auth.Argon2.Threads = 0
		}, wantErr: true},
		{name: "max argon2 threads", mutate: func(c *Config) {
			c.Auth.Argon2.Threads = 255
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Env: "development"},
		Mongo:  DatabaseConfig{URI: "mongodb://localhost:27017"},
		Auth: AuthConfig{
			AccessSecret:  "a",
			RefreshSecret: "b",
			AccessTTL:     time.Minute,
			RefreshTTL:    time.Hour,
			ResetTTL:      time.Minute,
			Argon2:        Argon2Config{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32},
		},
		Retention: RetentionConfig{Window: time.Hour, SweepInterval: time.Hour},
	}
}

func TestArgon2ThreadsOutOfRangeIsReported(t *testing.T) {
	t.Setenv("GO_ENV", "test")
	t.Setenv("ARGON2_THREADS", "256")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ARGON2_THREADS must be between 1 and 255")
}

func TestArgon2DefaultsMatchHasher(t *testing.T) {
	t.Setenv("GO_ENV", "test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, services.DefaultArgon2Params, cfg.Auth.Argon2.Params())
}
