package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
)

// Config holds the full application configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Log         LogConfig         `mapstructure:"log"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Kafka       KafkaConfig       `mapstructure:"kafka"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Compliance  ComplianceConfig  `mapstructure:"compliance"`
	Relay       RelayConfig       `mapstructure:"relay"`
	Idempotency IdempotencyConfig `mapstructure:"idempotency"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
}

// ServerConfig captures HTTP server level configuration.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or text
}

// DatabaseConfig configures Postgres. An empty URL runs the service on
// in-memory stores.
type DatabaseConfig struct {
	URL       string        `mapstructure:"url"`
	MaxConns  int32         `mapstructure:"max_conns"`
	TxTimeout time.Duration `mapstructure:"tx_timeout"`
}

// RedisConfig configures the idempotency key store. An empty URL keeps keys
// in process memory.
type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// KafkaConfig configures the compliance event topic.
type KafkaConfig struct {
	Brokers           []string `mapstructure:"brokers"`
	Topic             string   `mapstructure:"topic"`
	Partitions        int32    `mapstructure:"partitions"`
	ReplicationFactor int16    `mapstructure:"replication_factor"`
}

// AuthConfig configures bearer token validation.
type AuthConfig struct {
	JWTSigningKey string        `mapstructure:"jwt_signing_key"`
	Issuer        string        `mapstructure:"issuer"`
	Audience      string        `mapstructure:"audience"`
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
}

// ComplianceConfig is stamped on every compliance event.
type ComplianceConfig struct {
	Realm       string `mapstructure:"realm"`
	LegalEntity string `mapstructure:"legal_entity"`
}

// RelayConfig tunes the outbox relay.
type RelayConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	BatchSize int    `mapstructure:"batch_size"`
	Sweep     string `mapstructure:"sweep"` // cron schedule
	Channel   string `mapstructure:"channel"`
}

// IdempotencyConfig controls Idempotency-Key retention.
type IdempotencyConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig sets per-caller request budgets over a sliding window.
type RateLimitConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Read    int           `mapstructure:"read"`
	Write   int           `mapstructure:"write"`
	Window  time.Duration `mapstructure:"window"`
}

// InMemory reports whether the service runs without Postgres.
func (c *Config) InMemory() bool {
	return c.Database.URL == ""
}

// Load reads config.yaml (optional) and CONTRACTPAY_* environment variables.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CONTRACTPAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.tx_timeout", 5*time.Second)
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "compliance-events")
	v.SetDefault("kafka.partitions", 3)
	v.SetDefault("kafka.replication_factor", 1)
	v.SetDefault("auth.jwt_signing_key", "dev-secret-key-change-in-production")
	v.SetDefault("auth.issuer", "contractpay")
	v.SetDefault("auth.audience", "contractpay-api")
	v.SetDefault("auth.token_ttl", time.Hour)
	v.SetDefault("compliance.realm", "marketplace")
	v.SetDefault("compliance.legal_entity", "Contractpay Payments LLC")
	v.SetDefault("relay.enabled", true)
	v.SetDefault("relay.batch_size", 100)
	v.SetDefault("relay.sweep", "@every 30s")
	v.SetDefault("relay.channel", "compliance_events")
	v.SetDefault("idempotency.ttl", 24*time.Hour)
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.read", 300)
	v.SetDefault("rate_limit.write", 60)
	v.SetDefault("rate_limit.window", time.Minute)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	if c.Auth.JWTSigningKey == "" {
		return eris.New("config: auth.jwt_signing_key is required")
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return eris.Errorf("config: unknown log.format %q", c.Log.Format)
	}
	if c.RateLimit.Enabled && (c.RateLimit.Read <= 0 || c.RateLimit.Write <= 0 || c.RateLimit.Window <= 0) {
		return eris.New("config: rate_limit budgets and window must be positive")
	}
	if c.Relay.BatchSize <= 0 {
		return eris.New("config: relay.batch_size must be positive")
	}
	return nil
}
