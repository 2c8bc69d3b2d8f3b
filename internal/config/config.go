// Package config loads server settings from an optional TOML file and
// HISTORY_* environment variables. Environment values win.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Resolver transports.
const (
	ResolverStore = "store"
	ResolverHTTP  = "http"
	ResolverGRPC  = "grpc"
)

type Config struct {
	DatabaseURL string `toml:"database_url"` // HISTORY_DATABASE_URL (required)
	GRPCAddr    string `toml:"grpc_addr"`    // HISTORY_GRPC_ADDR (default ":9090")
	HTTPAddr    string `toml:"http_addr"`    // HISTORY_HTTP_ADDR (default ":8080")
	NATSURL     string `toml:"nats_url"`     // HISTORY_NATS_URL (optional, empty = no events)
	AuthToken   string `toml:"auth_token"`   // HISTORY_AUTH_TOKEN (optional, empty = auth disabled)
	LogLevel    string `toml:"log_level"`    // HISTORY_LOG_LEVEL (default "info")

	// Quota
	QuotaLimit        int           `toml:"quota_limit"`         // HISTORY_QUOTA_LIMIT (default 5)
	QuotaWindow       time.Duration `toml:"quota_window"`        // HISTORY_QUOTA_WINDOW (default 24h)
	QuotaMaxStaleness time.Duration `toml:"quota_max_staleness"` // HISTORY_QUOTA_MAX_STALENESS (default 1m)
	QuotaTimeout      time.Duration `toml:"quota_timeout"`       // HISTORY_QUOTA_TIMEOUT (default 2s)

	// Session resolver
	ResolverTransport string        `toml:"resolver_transport"` // HISTORY_RESOLVER_TRANSPORT (store|http|grpc, default store)
	ResolverURL       string        `toml:"resolver_url"`       // HISTORY_RESOLVER_URL (base URL or host:port)
	ResolverToken     string        `toml:"resolver_token"`     // HISTORY_RESOLVER_TOKEN
	ResolverTimeout   time.Duration `toml:"resolver_timeout"`   // HISTORY_RESOLVER_TIMEOUT (default 5s)

	// Views
	DeepLinkParam   string        `toml:"deep_link_param"`   // HISTORY_DEEP_LINK_PARAM (default "research")
	ViewIdleTimeout time.Duration `toml:"view_idle_timeout"` // HISTORY_VIEW_IDLE_TIMEOUT (default 30m)
	NotificationTTL time.Duration `toml:"notification_ttl"`  // HISTORY_NOTIFICATION_TTL (default 5s)

	// Export of research tasks to S3
	ExportInterval   time.Duration `toml:"export_interval"`    // HISTORY_EXPORT_INTERVAL (default 1h; 0 = disabled)
	ExportS3Bucket   string        `toml:"export_s3_bucket"`   // HISTORY_EXPORT_S3_BUCKET (enables export when set)
	ExportS3Endpoint string        `toml:"export_s3_endpoint"` // HISTORY_EXPORT_S3_ENDPOINT (custom endpoint for MinIO)
	ExportS3Region   string        `toml:"export_s3_region"`   // HISTORY_EXPORT_S3_REGION (default "us-east-1")
	ExportS3Key      string        `toml:"export_s3_key"`      // HISTORY_EXPORT_S3_KEY (default "history/research_tasks.jsonl")
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		GRPCAddr:          ":9090",
		HTTPAddr:          ":8080",
		LogLevel:          "info",
		QuotaLimit:        5,
		QuotaWindow:       24 * time.Hour,
		QuotaMaxStaleness: time.Minute,
		QuotaTimeout:      2 * time.Second,
		ResolverTransport: ResolverStore,
		ResolverTimeout:   5 * time.Second,
		DeepLinkParam:     "research",
		ViewIdleTimeout:   30 * time.Minute,
		NotificationTTL:   5 * time.Second,
		ExportInterval:    time.Hour,
		ExportS3Region:    "us-east-1",
		ExportS3Key:       "history/research_tasks.jsonl",
	}
}

// Load builds the configuration from defaults, the TOML file named by
// HISTORY_CONFIG (if any) and the environment, then validates it.
func Load() (*Config, error) {
	c := Defaults()
	if path := os.Getenv("HISTORY_CONFIG"); path != "" {
		if _, err := toml.DecodeFile(path, c); err != nil {
			return nil, fmt.Errorf("HISTORY_CONFIG %s: %w", path, err)
		}
	}

	envString(&c.DatabaseURL, "HISTORY_DATABASE_URL")
	envString(&c.GRPCAddr, "HISTORY_GRPC_ADDR")
	envString(&c.HTTPAddr, "HISTORY_HTTP_ADDR")
	envString(&c.NATSURL, "HISTORY_NATS_URL")
	envString(&c.AuthToken, "HISTORY_AUTH_TOKEN")
	envString(&c.LogLevel, "HISTORY_LOG_LEVEL")
	envString(&c.ResolverTransport, "HISTORY_RESOLVER_TRANSPORT")
	envString(&c.ResolverURL, "HISTORY_RESOLVER_URL")
	envString(&c.ResolverToken, "HISTORY_RESOLVER_TOKEN")
	envString(&c.DeepLinkParam, "HISTORY_DEEP_LINK_PARAM")
	envString(&c.ExportS3Bucket, "HISTORY_EXPORT_S3_BUCKET")
	envString(&c.ExportS3Endpoint, "HISTORY_EXPORT_S3_ENDPOINT")
	envString(&c.ExportS3Region, "HISTORY_EXPORT_S3_REGION")
	envString(&c.ExportS3Key, "HISTORY_EXPORT_S3_KEY")

	if err := envInt(&c.QuotaLimit, "HISTORY_QUOTA_LIMIT"); err != nil {
		return nil, err
	}
	for _, d := range []struct {
		dst *time.Duration
		key string
	}{
		{&c.QuotaWindow, "HISTORY_QUOTA_WINDOW"},
		{&c.QuotaMaxStaleness, "HISTORY_QUOTA_MAX_STALENESS"},
		{&c.QuotaTimeout, "HISTORY_QUOTA_TIMEOUT"},
		{&c.ResolverTimeout, "HISTORY_RESOLVER_TIMEOUT"},
		{&c.ViewIdleTimeout, "HISTORY_VIEW_IDLE_TIMEOUT"},
		{&c.NotificationTTL, "HISTORY_NOTIFICATION_TTL"},
		{&c.ExportInterval, "HISTORY_EXPORT_INTERVAL"},
	} {
		if err := envDuration(d.dst, d.key); err != nil {
			return nil, err
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("HISTORY_DATABASE_URL is required")
	}
	if c.QuotaLimit < 0 {
		return fmt.Errorf("HISTORY_QUOTA_LIMIT must be >= 0, got %d", c.QuotaLimit)
	}
	if c.QuotaWindow <= 0 {
		return fmt.Errorf("HISTORY_QUOTA_WINDOW must be positive")
	}
	switch c.ResolverTransport {
	case ResolverStore:
	case ResolverHTTP, ResolverGRPC:
		if c.ResolverURL == "" {
			return fmt.Errorf("HISTORY_RESOLVER_URL is required for the %s resolver", c.ResolverTransport)
		}
	default:
		return fmt.Errorf("HISTORY_RESOLVER_TRANSPORT: unknown transport %q", c.ResolverTransport)
	}
	if c.DeepLinkParam == "" {
		return fmt.Errorf("HISTORY_DEEP_LINK_PARAM must not be empty")
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLogLevel maps debug|info|warn|error to a slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("HISTORY_LOG_LEVEL: %w", err)
	}
	return l, nil
}

func envString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func envDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
