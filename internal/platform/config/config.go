package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	Port         string
	IsProduction bool

	JWTSecret         string
	JWTExpiryDuration time.Duration
	JWTIssuer         string

	// Redis read cache for dashboard aggregates. Empty RedisAddr disables
	// caching entirely.
	RedisAddr    string
	RedisDB      int
	DashboardTTL time.Duration

	// Object storage for uploaded documents.
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3UseSSL    bool

	// Upload bounds, enforced before the request body is accepted.
	MaxUploadBytes    int64
	AllowedExtensions []string

	// External contact-management API. The key has no default: when it is
	// absent the lead routes are not mounted.
	LeadConnectorURL     string
	LeadConnectorAPIKey  string
	LeadConnectorTimeout time.Duration

	CORSAllowedOrigins []string
}

// LoadConfig loads configuration from environment variables and a .env file
// if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("JWT_EXPIRY_DURATION", "1h")
	viper.SetDefault("JWT_ISSUER", "loancrm-backend")
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("DASHBOARD_CACHE_TTL", "60s")
	viper.SetDefault("S3_ENDPOINT", "localhost:9000")
	viper.SetDefault("S3_ACCESS_KEY", "")
	viper.SetDefault("S3_SECRET_KEY", "")
	viper.SetDefault("S3_BUCKET", "loan-documents")
	viper.SetDefault("S3_USE_SSL", false)
	viper.SetDefault("MAX_UPLOAD_BYTES", int64(10<<20)) // 10 MiB
	viper.SetDefault("ALLOWED_EXTENSIONS", ".jpeg,.jpg,.png,.gif,.pdf,.doc,.docx,.xls,.xlsx")
	viper.SetDefault("LEADCONNECTOR_API_URL", "")
	viper.SetDefault("LEADCONNECTOR_API_KEY", "")
	viper.SetDefault("LEADCONNECTOR_TIMEOUT", "10s")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("PGSQL_URL environment variable is required")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}
	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")

	jwtExpiryStr := viper.GetString("JWT_EXPIRY_DURATION")
	jwtExpiry, err := time.ParseDuration(jwtExpiryStr)
	if err != nil {
		jwtExpiry = time.Hour
		log.Printf("Warning: Invalid value for JWT_EXPIRY_DURATION (%q). Defaulting to %s.\n", jwtExpiryStr, jwtExpiry)
	}
	cfg.JWTExpiryDuration = jwtExpiry

	cfg.RedisAddr = viper.GetString("REDIS_ADDR")
	cfg.RedisDB = viper.GetInt("REDIS_DB")
	cfg.DashboardTTL = parseDurationOr(viper.GetString("DASHBOARD_CACHE_TTL"), 60*time.Second)

	cfg.S3Endpoint = viper.GetString("S3_ENDPOINT")
	cfg.S3AccessKey = viper.GetString("S3_ACCESS_KEY")
	cfg.S3SecretKey = viper.GetString("S3_SECRET_KEY")
	cfg.S3Bucket = viper.GetString("S3_BUCKET")
	cfg.S3UseSSL = viper.GetBool("S3_USE_SSL")

	cfg.MaxUploadBytes = viper.GetInt64("MAX_UPLOAD_BYTES")
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}
	cfg.AllowedExtensions = splitList(viper.GetString("ALLOWED_EXTENSIONS"))

	cfg.LeadConnectorURL = viper.GetString("LEADCONNECTOR_API_URL")
	cfg.LeadConnectorAPIKey = viper.GetString("LEADCONNECTOR_API_KEY")
	cfg.LeadConnectorTimeout = parseDurationOr(viper.GetString("LEADCONNECTOR_TIMEOUT"), 10*time.Second)

	cfg.CORSAllowedOrigins = splitList(viper.GetString("CORS_ALLOWED_ORIGINS"))

	return cfg, nil
}

// LeadConnectorEnabled reports whether the external contact API is fully
// configured. Credentials are never baked in.
func (c *Config) LeadConnectorEnabled() bool {
	return c.LeadConnectorURL != "" && c.LeadConnectorAPIKey != ""
}

func parseDurationOr(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
