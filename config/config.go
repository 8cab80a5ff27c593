package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/bayramdkmn/notepad-intern/services"
	"github.com/bayramdkmn/notepad-intern/utils"
	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Mongo     DatabaseConfig
	Auth      AuthConfig
	Redis     RedisConfig
	Broker    BrokerConfig
	AI        AIConfig
	Retention RetentionConfig
}

type ServerConfig struct {
	Port            string
	Env             string
	DevMode         bool
	LogLevel        string
	AllowedOrigins  []string
	MaxBodyBytes    int64
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	URI             string
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
	DatabaseName    string
	RetryWrites     bool
	ConnectTimeout  time.Duration
}

type AuthConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	ResetTTL      time.Duration
	Argon2        Argon2Config
}

// Argon2Config is the argon2id cost. Memory is in KiB. Threads is read as an
// int so out-of-range values are reported instead of wrapping.
type Argon2Config struct {
	Time    uint32
	Memory  uint32
	Threads int
	KeyLen  uint32
}

// Params converts a validated config into hasher parameters.
func (a Argon2Config) Params() services.Argon2Params {
	return services.Argon2Params{
		Time:    a.Time,
		Memory:  a.Memory,
		Threads: uint8(a.Threads),
		KeyLen:  a.KeyLen,
	}
}

type RedisConfig struct {
	URL string
}

// BrokerConfig is only reported by the detailed health endpoint.
type BrokerConfig struct {
	URL string
}

type AIConfig struct {
	APIKey         string
	BaseURL        string
	EmbeddingModel string
	ChatModel      string
	Timeout        time.Duration
}

type RetentionConfig struct {
	Window        time.Duration
	SweepInterval time.Duration
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	env := utils.GetEnvAsString("GO_ENV", "development")
	if env != "test" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load .env: %w", err)
		}
		env = utils.GetEnvAsString("GO_ENV", env)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            utils.GetEnvAsString("PORT", "8080"),
			Env:             env,
			DevMode:         utils.GetEnvAsBool("DEV_MODE", env == "development"),
			LogLevel:        utils.GetEnvAsString("LOG_LEVEL", "info"),
			AllowedOrigins:  utils.GetEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			MaxBodyBytes:    utils.GetEnvAsInt64("MAX_BODY_BYTES", 1<<20),
			ShutdownTimeout: utils.GetEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Mongo: LoadDatabaseConfig(),
		Auth: AuthConfig{
			AccessSecret:  utils.GetEnvAsString("ACCESS_TOKEN_SECRET_KEY", ""),
			RefreshSecret: utils.GetEnvAsString("REFRESH_TOKEN_SECRET_KEY", ""),
			AccessTTL:     utils.GetEnvAsDuration("ACCESS_TOKEN_TTL", 20*time.Minute),
			RefreshTTL:    utils.GetEnvAsDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
			ResetTTL:      utils.GetEnvAsDuration("PASSWORD_RESET_TTL", 15*time.Minute),
			Argon2: Argon2Config{
				Time:    utils.GetEnvAsUint32("ARGON2_TIME", services.DefaultArgon2Params.Time),
				Memory:  utils.GetEnvAsUint32("ARGON2_MEMORY_KIB", services.DefaultArgon2Params.Memory),
				Threads: utils.GetEnvAsInt("ARGON2_THREADS", int(services.DefaultArgon2Params.Threads)),
				KeyLen:  utils.GetEnvAsUint32("ARGON2_KEY_LEN", services.DefaultArgon2Params.KeyLen),
			},
		},
		Redis:  RedisConfig{URL: utils.GetEnvAsString("REDIS_URL", "")},
		Broker: BrokerConfig{URL: utils.GetEnvAsString("BROKER_URL", "")},
		AI: AIConfig{
			APIKey:         utils.GetEnvAsString("OPENAI_API_KEY", ""),
			BaseURL:        utils.GetEnvAsString("OPENAI_BASE_URL", ""),
			EmbeddingModel: utils.GetEnvAsString("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
			ChatModel:      utils.GetEnvAsString("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
			Timeout:        utils.GetEnvAsDuration("OPENAI_TIMEOUT", 30*time.Second),
		},
		Retention: RetentionConfig{
			Window:        utils.GetEnvAsDuration("RETENTION_WINDOW", 10*24*time.Hour),
			SweepInterval: utils.GetEnvAsDuration("RETENTION_SWEEP_INTERVAL", 24*time.Hour),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URI:             utils.GetEnvAsString("MONGO_URI", "mongodb://localhost:27017"),
		MaxPoolSize:     utils.GetEnvAsUint64("MONGO_MAX_POOL_SIZE", 100),
		MinPoolSize:     utils.GetEnvAsUint64("MONGO_MIN_POOL_SIZE", 10),
		MaxConnIdleTime: time.Duration(utils.GetEnvAsInt("MONGO_MAX_CONN_IDLE_TIME", 60)) * time.Second,
		DatabaseName:    utils.GetEnvAsString("MONGO_DB", "notepad"),
		RetryWrites:     utils.GetEnvAsBool("MONGO_RETRY_WRITES", true),
		ConnectTimeout:  utils.GetEnvAsDuration("MONGO_CONNECT_TIMEOUT", 10*time.Second),
	}
}

// Validate fails on settings the process cannot run without.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Env != "test" {
		if c.Auth.AccessSecret == "" {
			errs = append(errs, errors.New("ACCESS_TOKEN_SECRET_KEY is not set"))
		}
		if c.Auth.RefreshSecret == "" {
			errs = append(errs, errors.New("REFRESH_TOKEN_SECRET_KEY is not set"))
		}
	}
	if c.Auth.AccessSecret != "" && c.Auth.AccessSecret == c.Auth.RefreshSecret {
		errs = append(errs, errors.New("access and refresh secrets must differ"))
	}
	if c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL <= 0 || c.Auth.ResetTTL <= 0 {
		errs = append(errs, errors.New("token lifetimes must be positive"))
	}
	if c.Auth.Argon2.Time == 0 {
		errs = append(errs, errors.New("ARGON2_TIME must be positive"))
	}
	if c.Auth.Argon2.Memory == 0 {
		errs = append(errs, errors.New("ARGON2_MEMORY_KIB must be positive"))
	}
	if c.Auth.Argon2.Threads < 1 || c.Auth.Argon2.Threads > math.MaxUint8 {
		errs = append(errs, fmt.Errorf("ARGON2_THREADS must be between 1 and %d, got %d", math.MaxUint8, c.Auth.Argon2.Threads))
	}
	if c.Auth.Argon2.KeyLen < 16 {
		errs = append(errs, errors.New("ARGON2_KEY_LEN must be at least 16"))
	}
	if c.Retention.Window <= 0 || c.Retention.SweepInterval <= 0 {
		errs = append(errs, errors.New("retention window and sweep interval must be positive"))
	}
	if c.Mongo.URI == "" {
		errs = append(errs, errors.New("MONGO_URI is not set"))
	}
	return errors.Join(errs...)
}
