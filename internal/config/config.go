package config

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// DefaultUserAgent is sent to the metadata service and the backend unless user_agent overrides it.
const DefaultUserAgent = "MovieMatch/1.0 (+https://github.com/Belphemur/MovieMatch)"

// DefaultClientTimeout bounds a single upstream call when client_timeout is unset or invalid.
const DefaultClientTimeout = 10 * time.Second

type MetadataConfig struct {
	URL    string `mapstructure:"url"`
	APIKey string `mapstructure:"api_key"`
}

type BackendConfig struct {
	URL string `mapstructure:"url"`
}

type ServerConfig struct {
	Port     int    `mapstructure:"port"`
	GRPCPort int    `mapstructure:"grpc_port"`
	Address  string `mapstructure:"address"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CacheConfig selects where sessions live. Provider is "memory" or "redis".
type CacheConfig struct {
	Provider string      `mapstructure:"provider"`
	Size     int         `mapstructure:"size"`
	TTL      string      `mapstructure:"ttl"` // idle lifetime of a session, e.g. "24h"
	Redis    RedisConfig `mapstructure:"redis"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// DashboardConfig tunes the home screen aggregation.
type DashboardConfig struct {
	MinLiked           int    `mapstructure:"min_liked"`
	MaxRecommendations int    `mapstructure:"max_recommendations"`
	DetailConcurrency  int    `mapstructure:"detail_concurrency"`
	DetailAttempts     int    `mapstructure:"detail_attempts"`
	RetryDelay         string `mapstructure:"retry_delay"`
}

type SentryConfig struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

type Config struct {
	Metadata              MetadataConfig  `mapstructure:"metadata"`
	Backend               BackendConfig   `mapstructure:"backend"`
	ProxyConnectionString string          `mapstructure:"proxy_connection_string"`
	ClientTimeout         string          `mapstructure:"client_timeout"`
	UserAgent             string          `mapstructure:"user_agent"`
	Server                ServerConfig    `mapstructure:"server"`
	LogLevel              string          `mapstructure:"log_level"`
	Cache                 CacheConfig     `mapstructure:"cache"`
	Metrics               MetricsConfig   `mapstructure:"metrics"`
	Dashboard             DashboardConfig `mapstructure:"dashboard"`
	Sentry                SentryConfig    `mapstructure:"sentry"`
}

// Every key needs a default, even an empty one, for AutomaticEnv to reach it through Unmarshal.
var defaults = map[string]any{
	"metadata.url":                  "https://api.themoviedb.org/3",
	"backend.url":                   "http://localhost:8000",
	"client_timeout":                "10s",
	"user_agent":                    "",
	"proxy_connection_string":       "",
	"server.address":                "localhost",
	"server.port":                   8080,
	"server.grpc_port":              9091,
	"cache.provider":                "memory",
	"cache.size":                    10000,
	"cache.ttl":                     "24h",
	"cache.redis.address":           "",
	"cache.redis.password":          "",
	"cache.redis.db":                0,
	"metrics.enabled":               true,
	"metrics.port":                  9090,
	"dashboard.min_liked":           5,
	"dashboard.max_recommendations": 20,
	"dashboard.detail_concurrency":  8,
	"dashboard.detail_attempts":     2,
	"dashboard.retry_delay":         "200ms",
	"sentry.environment":            "",
}

var (
	globalConfig *Config
	logger       zerolog.Logger
)

func init() {
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

	cfg, err := LoadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load config")
	}

	level := parseLevel(cfg.LogLevel)
	zerolog.SetGlobalLevel(level)
	logger = logger.Level(level)

	globalConfig = cfg
	logger.Info().Str("level", level.String()).Str("cache", cfg.Cache.Provider).Msg("Configuration loaded")
}

func parseLevel(raw string) zerolog.Level {
	if raw == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(raw)
	if err != nil {
		logger.Warn().Str("invalid_level", raw).Msg("Invalid log level, using default 'info'")
		return zerolog.InfoLevel
	}
	return level
}

// LoadConfig reads config.yaml from . or ./config, then applies APP_* environment overrides
// (APP_METADATA_API_KEY, APP_CACHE_REDIS_ADDRESS, ...).
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	_ = viper.BindEnv("log_level", "LOG_LEVEL")
	_ = viper.BindEnv("metadata.api_key", "APP_METADATA_API_KEY", "TMDB_API_KEY")
	_ = viper.BindEnv("sentry.dsn", "APP_SENTRY_DSN", "SENTRY_DSN")

	for key, value := range defaults {
		viper.SetDefault(key, value)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, missing := err.(viper.ConfigFileNotFoundError); !missing {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	return cfg, nil
}

func GetConfig() *Config {
	return globalConfig
}

func GetUserAgent() string {
	if globalConfig == nil || globalConfig.UserAgent == "" {
		return DefaultUserAgent
	}
	return globalConfig.UserAgent
}

func GetLogger() zerolog.Logger {
	return logger
}

// Timeout returns the per-call network timeout. Non-positive or invalid values fall back to DefaultClientTimeout.
func (c *Config) Timeout() time.Duration {
	d := ParseDuration(c.ClientTimeout, DefaultClientTimeout)
	if d <= 0 {
		return DefaultClientTimeout
	}
	return d
}

// ParseDuration parses value and returns fallback when it is empty or invalid.
func ParseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		logger.Warn().Err(err).Str("duration", value).Msg("Invalid duration, using default")
		return fallback
	}
	return parsed
}
