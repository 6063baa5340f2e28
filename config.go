package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	awspkg "github.com/yashrajoria/inventory-service/pkg/aws"
	"github.com/yashrajoria/inventory-service/sellerdynamics"
	"go.uber.org/zap"
)

const serviceName = "inventory-service"

// Config holds all configuration for the inventory service.
type Config struct {
	Port   string
	AppEnv string

	UpstreamEndpoint       string
	UpstreamEncryptedLogin string
	UpstreamRetailerID     string
	UpstreamAPIKey         string
	UpstreamTimeout        time.Duration
	UpstreamRetryAttempts  int
	UpstreamPageSize       int
	UpstreamMaxPages       int
	UpstreamPageDelay      time.Duration

	SecondaryBaseURL     string
	SecondaryAccessToken string

	CacheBackend string
	CacheMaxAge  time.Duration

	SyncSNSTopicARN    string
	CacheArchiveBucket string
	CloudWatchEnabled  bool
	CloudWatchNS       string

	RateLimitPerMinute int
	AllowedOrigins     []string
	RequestTimeout     time.Duration
}

var defaultOrigins = []string{"http://localhost:3000", "http://localhost:3001"}

// LoadConfig reads configuration from the environment (and .env when
// present), then overrides credentials from Secrets Manager when
// AWS_USE_SECRETS=true.
func LoadConfig(ctx context.Context, log *zap.Logger) *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found, using environment variables")
	}

	cfg := &Config{
		Port:   getEnv("PORT", "8084"),
		AppEnv: getEnv("APP_ENV", "development"),

		UpstreamEndpoint:       os.Getenv("UPSTREAM_SOAP_ENDPOINT"),
		UpstreamEncryptedLogin: os.Getenv("UPSTREAM_ENCRYPTED_LOGIN"),
		UpstreamRetailerID:     os.Getenv("UPSTREAM_RETAILER_ID"),
		UpstreamAPIKey:         os.Getenv("UPSTREAM_API_KEY"),
		UpstreamTimeout:        cast.ToDuration(getEnv("UPSTREAM_TIMEOUT", "30s")),
		UpstreamRetryAttempts:  cast.ToInt(getEnv("UPSTREAM_RETRY_ATTEMPTS", "3")),
		UpstreamPageSize:       cast.ToInt(getEnv("UPSTREAM_PAGE_SIZE", "1000")),
		UpstreamMaxPages:       cast.ToInt(getEnv("UPSTREAM_MAX_PAGES", "100")),
		UpstreamPageDelay:      cast.ToDuration(getEnv("UPSTREAM_PAGE_DELAY", "100ms")),

		SecondaryBaseURL:     os.Getenv("SECONDARY_BASE_URL"),
		SecondaryAccessToken: os.Getenv("SECONDARY_ACCESS_TOKEN"),

		CacheBackend: strings.ToLower(getEnv("CACHE_BACKEND", "file")),
		CacheMaxAge:  cast.ToDuration(getEnv("CACHE_MAX_AGE", "1h")),

		SyncSNSTopicARN:    os.Getenv("SYNC_SNS_TOPIC_ARN"),
		CacheArchiveBucket: os.Getenv("CACHE_ARCHIVE_BUCKET"),
		CloudWatchEnabled:  cast.ToBool(os.Getenv("CLOUDWATCH_ENABLED")),
		CloudWatchNS:       os.Getenv("CLOUDWATCH_NAMESPACE"),

		RateLimitPerMinute: cast.ToInt(getEnv("RATE_LIMIT_PER_MINUTE", "100")),
		AllowedOrigins:     parseOrigins(os.Getenv("ALLOWED_ORIGINS")),
		RequestTimeout:     cast.ToDuration(getEnv("REQUEST_TIMEOUT", "60s")),
	}

	if os.Getenv("AWS_USE_SECRETS") == "true" {
		awsCfg, err := awspkg.LoadAWSConfig(ctx)
		if err != nil {
			log.Warn("AWS config unavailable, skipping Secrets Manager", zap.Error(err))
			return cfg
		}
		cfg.applySecrets(ctx, awspkg.NewSecretsClient(awsCfg), log)
	}
	return cfg
}

func (c *Config) applySecrets(ctx context.Context, sm awspkg.SecretGetter, log *zap.Logger) {
	missing := awspkg.ApplySecrets(ctx, sm, map[string]*string{
		"inventory/UPSTREAM_ENCRYPTED_LOGIN": &c.UpstreamEncryptedLogin,
		"inventory/UPSTREAM_RETAILER_ID":     &c.UpstreamRetailerID,
		"inventory/UPSTREAM_API_KEY":         &c.UpstreamAPIKey,
		"inventory/SECONDARY_ACCESS_TOKEN":   &c.SecondaryAccessToken,
	})
	if len(missing) > 0 {
		log.Warn("secrets not found, keeping environment values", zap.Strings("secrets", missing))
	}
}

// UpstreamConfig builds the SOAP client settings.
func (c *Config) UpstreamConfig() sellerdynamics.Config {
	return sellerdynamics.Config{
		Endpoint:       c.UpstreamEndpoint,
		EncryptedLogin: c.UpstreamEncryptedLogin,
		RetailerID:     c.UpstreamRetailerID,
		APIKey:         c.UpstreamAPIKey,
		Timeout:        c.UpstreamTimeout,
		RetryAttempts:  c.UpstreamRetryAttempts,
		PageSize:       c.UpstreamPageSize,
		MaxPages:       c.UpstreamMaxPages,
		PageDelay:      c.UpstreamPageDelay,
	}
}

func parseOrigins(v string) []string {
	v = strings.TrimSpace(v)
	if v == "" {
		return defaultOrigins
	}
	var out []string
	for _, o := range strings.Split(v, ",") {
		if o = strings.TrimSuffix(strings.TrimSpace(o), "/"); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
