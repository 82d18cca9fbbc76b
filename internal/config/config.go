package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ainews/newsroom/backend/content-services/internal/storage"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Locale sink kinds.
const (
	SinkCollection = "collection"
	SinkObject     = "object"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	MinIO     storage.MinIOConfig
	Keycloak  KeycloakConfig
	RateLimit RateLimitConfig
	Content   ContentConfig
	Migration MigrationConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func (s ServerConfig) Addr() string { return s.Host + ":" + s.Port }

// MongoDBConfig: an empty URI selects the in-memory store.
type MongoDBConfig struct {
	URI            string
	Database       string
	Timeout        time.Duration
	ConnectRetries int
	RetryWait      time.Duration
}

// RedisConfig: an empty Host disables the Redis lease.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func (r RedisConfig) Addr() string { return r.Host + ":" + r.Port }

// KeycloakConfig: with Insecure set, bearer tokens are parsed without
// signature verification (integration environments only).
type KeycloakConfig struct {
	URL       string
	Realm     string
	ClientID  string
	Insecure  bool
	AdminRole string
}

func (k KeycloakConfig) Issuer() string {
	return strings.TrimRight(k.URL, "/") + "/realms/" + k.Realm
}

type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
}

type ContentConfig struct {
	MasterCollection string
	Collections      []string
	Languages        []string
	LocaleSink       string
}

type MigrationConfig struct {
	LeaseTTL    time.Duration
	LeasePrefix string
}

type LogConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "5002")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_ENVIRONMENT", "development")
	v.SetDefault("MONGODB_DATABASE", "newsroom")
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("MONGODB_CONNECT_RETRIES", 5)
	v.SetDefault("MONGODB_RETRY_WAIT", 2)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("MINIO_BUCKET", "newsroom-locales")
	v.SetDefault("KEYCLOAK_REALM", "newsroom")
	v.SetDefault("KEYCLOAK_CLIENT_ID", "content-admin")
	v.SetDefault("KEYCLOAK_ADMIN_ROLE", "content-admin")
	v.SetDefault("RATE_LIMIT_ENABLED", true)
	v.SetDefault("RATE_LIMIT_RPS", 5.0)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("CONTENT_MASTER_COLLECTION", "news")
	v.SetDefault("CONTENT_COLLECTIONS", "news,articles")
	v.SetDefault("CONTENT_LANGUAGES", "zh,en")
	v.SetDefault("CONTENT_LOCALE_SINK", SinkCollection)
	v.SetDefault("MIGRATION_LEASE_TTL", 30)
	v.SetDefault("MIGRATION_LEASE_PREFIX", "content:lease:")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("SERVER_PORT"),
			Host:         v.GetString("SERVER_HOST"),
			Environment:  v.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 5 * time.Minute,
		},
		MongoDB: MongoDBConfig{
			URI:            v.GetString("MONGODB_URI"),
			Database:       v.GetString("MONGODB_DATABASE"),
			Timeout:        time.Duration(v.GetInt("MONGODB_TIMEOUT")) * time.Second,
			ConnectRetries: v.GetInt("MONGODB_CONNECT_RETRIES"),
			RetryWait:      time.Duration(v.GetInt("MONGODB_RETRY_WAIT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		MinIO: storage.MinIOConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: v.GetString("MINIO_SECRET_KEY"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
			Bucket:    v.GetString("MINIO_BUCKET"),
		},
		Keycloak: KeycloakConfig{
			URL:       v.GetString("KEYCLOAK_URL"),
			Realm:     v.GetString("KEYCLOAK_REALM"),
			ClientID:  v.GetString("KEYCLOAK_CLIENT_ID"),
			Insecure:  v.GetBool("KEYCLOAK_INSECURE"),
			AdminRole: v.GetString("KEYCLOAK_ADMIN_ROLE"),
		},
		RateLimit: RateLimitConfig{
			Enabled: v.GetBool("RATE_LIMIT_ENABLED"),
			RPS:     v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:   v.GetInt("RATE_LIMIT_BURST"),
		},
		Content: ContentConfig{
			MasterCollection: v.GetString("CONTENT_MASTER_COLLECTION"),
			Collections:      splitList(v.GetString("CONTENT_COLLECTIONS")),
			Languages:        splitList(v.GetString("CONTENT_LANGUAGES")),
			LocaleSink:       strings.ToLower(v.GetString("CONTENT_LOCALE_SINK")),
		},
		Migration: MigrationConfig{
			LeaseTTL:    time.Duration(v.GetInt("MIGRATION_LEASE_TTL")) * time.Minute,
			LeasePrefix: v.GetString("MIGRATION_LEASE_PREFIX"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.Content.Languages) == 0 {
		return fmt.Errorf("CONTENT_LANGUAGES must name at least one language")
	}
	switch c.Content.LocaleSink {
	case SinkCollection:
	case SinkObject:
		if !c.MinIO.Enabled() {
			return fmt.Errorf("CONTENT_LOCALE_SINK=object requires MINIO_ENDPOINT")
		}
	default:
		return fmt.Errorf("CONTENT_LOCALE_SINK must be %q or %q, got %q", SinkCollection, SinkObject, c.Content.LocaleSink)
	}
	if c.RateLimit.Enabled && c.RateLimit.RPS <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be positive")
	}
	return nil
}

// AllowedCollections is the field-operation allow-list: the master
// collection followed by CONTENT_COLLECTIONS.
func (c ContentConfig) AllowedCollections() []string {
	out := []string{c.MasterCollection}
	for _, n := range c.Collections {
		if n != c.MasterCollection {
			out = append(out, n)
		}
	}
	return out
}

func splitList(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
