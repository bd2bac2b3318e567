package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Backend BackendConfig
	Redis   RedisConfig
	Cache   CacheConfig
	Session SessionConfig
	CORS    CORSConfig
	Log     LogConfig
	Events  EventsConfig
	Feeds   FeedsConfig
	Metrics MetricsConfig
}

// BackendConfig points the gateway at the events REST collaborator.
type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig controls the published-events snapshot cache.
type CacheConfig struct {
	Enabled  bool
	EventTTL time.Duration
}

// SessionConfig controls how long a forwarded bearer token is remembered when
// the token itself carries no expiry.
type SessionConfig struct {
	TTL time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// EventsConfig tunes the listing view.
type EventsConfig struct {
	PageSize      int
	FeaturedCount int
	Timezone      string
	Collation     string
}

// FeedsConfig configures signed calendar subscription links.
type FeedsConfig struct {
	SigningSecret string
	TTL           time.Duration
	PublicURL     string
}

type MetricsConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Backend = BackendConfig{
		BaseURL: strings.TrimRight(v.GetString("BACKEND_BASE_URL"), "/"),
		Timeout: parseDuration(v.GetString("BACKEND_TIMEOUT"), 10*time.Second),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Cache = CacheConfig{
		Enabled:  v.GetBool("ENABLE_CACHE"),
		EventTTL: parseDuration(v.GetString("EVENTS_CACHE_TTL"), time.Minute),
	}

	cfg.Session = SessionConfig{
		TTL: parseDuration(v.GetString("SESSION_TTL"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	pageSize := v.GetInt("EVENTS_PAGE_SIZE")
	if pageSize <= 0 {
		pageSize = 8
	}
	featured := v.GetInt("EVENTS_FEATURED_COUNT")
	if featured <= 0 {
		featured = 3
	}
	cfg.Events = EventsConfig{
		PageSize:      pageSize,
		FeaturedCount: featured,
		Timezone:      v.GetString("EVENTS_TIMEZONE"),
		Collation:     v.GetString("EVENTS_COLLATION"),
	}

	cfg.Feeds = FeedsConfig{
		SigningSecret: v.GetString("FEEDS_SIGNING_SECRET"),
		TTL:           parseDuration(v.GetString("FEEDS_TTL"), 30*24*time.Hour),
		PublicURL:     strings.TrimRight(v.GetString("FEEDS_PUBLIC_URL"), "/"),
	}

	cfg.Metrics = MetricsConfig{Enabled: v.GetBool("ENABLE_METRICS")}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("BACKEND_BASE_URL", "https://alfaisalbackend.vercel.app/api")
	v.SetDefault("BACKEND_TIMEOUT", "10s")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("EVENTS_CACHE_TTL", "1m")
	v.SetDefault("SESSION_TTL", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("EVENTS_PAGE_SIZE", 8)
	v.SetDefault("EVENTS_FEATURED_COUNT", 3)
	v.SetDefault("EVENTS_TIMEZONE", "UTC")
	v.SetDefault("EVENTS_COLLATION", "en")

	v.SetDefault("FEEDS_SIGNING_SECRET", "dev_feeds_secret")
	v.SetDefault("FEEDS_TTL", "720h")
	v.SetDefault("FEEDS_PUBLIC_URL", "http://localhost:8080")

	v.SetDefault("ENABLE_METRICS", true)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
