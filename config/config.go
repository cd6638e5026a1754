package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/jordanlanch/leadtriage/pkg/domain"
)

// Config holds all application configuration
type Config struct {
	// API Configuration
	APIPort            string
	APIHost            string
	APIEnvironment     string
	PublicURL          string
	CORSAllowedOrigins []string

	// Smartlead
	SmartleadAPIKey        string
	SmartleadInternalToken string
	SmartleadBaseURL       string
	SmartleadInternalURL   string
	SmartleadGraphQLURL    string
	SmartleadTimeout       time.Duration
	LeadsPageMaxAttempts   int
	LeadsPageBaseDelay     time.Duration

	// OpenAI
	OpenAIAPIKey string
	OpenAIModel  string

	// Database (read-only campaign directory)
	DatabaseURL     string
	DatabaseSSLMode string

	// Redis
	RedisURL string
	CacheTTL time.Duration

	// Storage
	StorageType        string
	StorageLocalPath   string
	StorageContainer   string
	StoragePrefix      string
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	S3Endpoint         string
	ArtifactURLExpiry  time.Duration
	ArtifactFormat     string

	// Logging
	LogLevel  string
	LogFormat string

	// Sentry
	SentryDSN         string
	SentryEnvironment string

	// Slack
	SlackWebhookURL string

	// Email notifications
	NotifyEmailTo  []string
	EmailFrom      string
	EmailFromName  string
	SendGridAPIKey string

	// Operator auth
	OperatorJWTSecret string

	// Rate Limiting
	RateLimitRequestsPerMinute int
	RateLimitBurst             int

	// Jobs
	CampaignRefreshSchedule string

	// Lead import
	PhoneDefaultRegion string
	ImportMaxRows      int
	NormalizePhones    bool
}

// Load loads configuration from environment variables, reading a .env file first if present
func Load() *Config {
	// A missing .env is the normal case outside local development
	_ = godotenv.Load()

	return &Config{
		// API
		APIPort:            getEnv("API_PORT", "8080"),
		APIHost:            getEnv("API_HOST", "0.0.0.0"),
		APIEnvironment:     getEnv("API_ENVIRONMENT", "development"),
		PublicURL:          getEnv("PUBLIC_URL", "http://localhost:8080"),
		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		// Smartlead
		SmartleadAPIKey:        getEnv("SMARTLEAD_API_KEY", ""),
		SmartleadInternalToken: getEnv("SMARTLEAD_INTERNAL_API_TOKEN", ""),
		SmartleadBaseURL:       getEnv("SMARTLEAD_API_URL", "https://server.smartlead.ai/api/v1/"),
		SmartleadInternalURL:   getEnv("SMARTLEAD_INTERNAL_API_URL", "https://server.smartlead.ai/api/"),
		SmartleadGraphQLURL:    getEnv("SMARTLEAD_GRAPHQL_URL", "https://fe-gql.smartlead.ai/v1/graphql"),
		SmartleadTimeout:       getEnvAsDuration("SMARTLEAD_TIMEOUT", 30*time.Second),
		LeadsPageMaxAttempts:   getEnvAsInt("LEADS_PAGE_MAX_ATTEMPTS", 5),
		LeadsPageBaseDelay:     getEnvAsDuration("LEADS_PAGE_BASE_DELAY", 500*time.Millisecond),

		// OpenAI
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o"),

		// Database
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		DatabaseSSLMode: getEnv("DATABASE_SSL_MODE", ""),

		// Redis
		RedisURL: getEnv("REDIS_URL", ""),
		CacheTTL: getEnvAsDuration("CACHE_TTL", 5*time.Minute),

		// Storage
		StorageType:        getEnv("STORAGE_TYPE", "local"),
		StorageLocalPath:   getEnv("STORAGE_LOCAL_PATH", "./data/artifacts"),
		StorageContainer:   getEnv("SMARTLEAD_TRIAGE_CONTAINER", ""),
		StoragePrefix:      getEnv("STORAGE_PREFIX", "filtered-leads"),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		S3Endpoint:         getEnv("S3_ENDPOINT", ""),
		ArtifactURLExpiry:  getEnvAsDuration("ARTIFACT_URL_EXPIRY", 7*24*time.Hour),
		ArtifactFormat:     getEnv("ARTIFACT_FORMAT", "tsv"),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Sentry
		SentryDSN:         getEnv("SENTRY_DSN", ""),
		SentryEnvironment: getEnv("SENTRY_ENVIRONMENT", getEnv("API_ENVIRONMENT", "development")),

		// Slack
		SlackWebhookURL: getEnv("SLACK_WEBHOOK_URL", ""),

		// Email notifications
		NotifyEmailTo:  getEnvAsSlice("NOTIFY_EMAIL_TO", nil),
		EmailFrom:      getEnv("EMAIL_FROM", "triage@localhost"),
		EmailFromName:  getEnv("EMAIL_FROM_NAME", "Lead Triage"),
		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),

		// Operator auth
		OperatorJWTSecret: getEnv("OPERATOR_JWT_SECRET", ""),

		// Rate Limiting
		RateLimitRequestsPerMinute: getEnvAsInt("RATE_LIMIT_REQUESTS_PER_MINUTE", 120),
		RateLimitBurst:             getEnvAsInt("RATE_LIMIT_BURST", 20),

		// Jobs
		CampaignRefreshSchedule: getEnv("CAMPAIGN_REFRESH_SCHEDULE", "@every 10m"),

		// Lead import
		PhoneDefaultRegion: getEnv("PHONE_DEFAULT_REGION", "US"),
		ImportMaxRows:      getEnvAsInt("IMPORT_MAX_ROWS", 10000),
		NormalizePhones:    getEnvAsBool("NORMALIZE_PHONES", false),
	}
}

// Validate reports every missing required setting in a single ConfigurationError
func (c *Config) Validate() error {
	var missing []string
	if c.SmartleadAPIKey == "" {
		missing = append(missing, "SMARTLEAD_API_KEY")
	}
	if c.SmartleadInternalToken == "" {
		missing = append(missing, "SMARTLEAD_INTERNAL_API_TOKEN")
	}
	if c.OpenAIAPIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	switch c.StorageType {
	case "s3":
		if c.StorageContainer == "" {
			missing = append(missing, "SMARTLEAD_TRIAGE_CONTAINER")
		}
	case "local":
		if c.StorageLocalPath == "" {
			missing = append(missing, "STORAGE_LOCAL_PATH")
		}
	default:
		return domain.NewConfigurationError("STORAGE_TYPE must be s3 or local, got " + strconv.Quote(c.StorageType))
	}

	if len(missing) > 0 {
		return domain.NewConfigurationError("missing required configuration: " + strings.Join(missing, ", "))
	}
	return nil
}

// SecretTargets maps the secret keys that may come from a secrets manager to
// the fields they fill
func (c *Config) SecretTargets() map[string]*string {
	return map[string]*string{
		"SMARTLEAD_API_KEY":            &c.SmartleadAPIKey,
		"SMARTLEAD_INTERNAL_API_TOKEN": &c.SmartleadInternalToken,
		"OPENAI_API_KEY":               &c.OpenAIAPIKey,
		"DATABASE_URL":                 &c.DatabaseURL,
		"SLACK_WEBHOOK_URL":            &c.SlackWebhookURL,
		"SENDGRID_API_KEY":             &c.SendGridAPIKey,
		"OPERATOR_JWT_SECRET":          &c.OperatorJWTSecret,
		"AWS_SECRET_ACCESS_KEY":        &c.AWSSecretAccessKey,
	}
}

// IsProduction reports whether the API runs in production
func (c *Config) IsProduction() bool {
	return c.APIEnvironment == "production"
}

// ArtifactBaseURL is where the API serves artifacts of the local storage backend
func (c *Config) ArtifactBaseURL() string {
	return strings.TrimRight(c.PublicURL, "/") + "/api/v1/artifacts"
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var values []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
