package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds dev server configuration loaded from environment variables.
type Config struct {
	DatabaseURL          string
	JWTSecret            string
	JWTIssuer            string
	AccessTTLSeconds     int64
	APIKeys              []string
	AdminEmail           string
	AdminPassword        string
	MediaStoragePath     string
	S3Bucket             string
	S3Region             string
	AWSAccessKeyID       string
	AWSSecretAccessKey   string
	CDNBaseURL           string
	MetricsDiskPath      string
	MetricsSampleSeconds int
	CorsOrigins          []string
	RateLimitRPS         int
	RateLimitBurst       int
	Port                 string
	Log                  LogConfig
}

// ClientConfig configures the CLI and anything else built on the SDK.
type ClientConfig struct {
	BaseURL   string
	APIKey    string
	Token     string
	Timeout   time.Duration
	SessionDB string
	Debug     bool
	Log       LogConfig
}

type LogConfig struct {
	Dir           string
	RetentionDays int
}

func Load() Config {
	return Config{
		DatabaseURL:          envOr("DATABASE_URL", "file:freeradical.db?_busy_timeout=5000"),
		JWTSecret:            mustEnv("JWT_SECRET"),
		JWTIssuer:            envOr("JWT_ISSUER", "freeradical"),
		AccessTTLSeconds:     int64(envOrInt("ACCESS_TTL_SECONDS", 14400)),
		APIKeys:              parseCSV(envOr("API_KEYS", "")),
		AdminEmail:           envOr("ADMIN_EMAIL", ""),
		AdminPassword:        envOr("ADMIN_PASSWORD", ""),
		MediaStoragePath:     envOr("MEDIA_STORAGE_PATH", "storage/media"),
		S3Bucket:             envOr("S3_BUCKET", ""),
		S3Region:             envOr("S3_REGION", "us-east-1"),
		AWSAccessKeyID:       envOr("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:   envOr("AWS_SECRET_ACCESS_KEY", ""),
		CDNBaseURL:           strings.TrimRight(envOr("CDN_BASE_URL", ""), "/"),
		MetricsDiskPath:      envOr("METRICS_DISK_PATH", "storage/media"),
		MetricsSampleSeconds: envOrInt("METRICS_SAMPLE_INTERVAL", 5),
		CorsOrigins:          parseCSV(envOr("CORS_ORIGINS", "")),
		RateLimitRPS:         envOrInt("RATE_LIMIT_RPS", 50),
		RateLimitBurst:       envOrInt("RATE_LIMIT_BURST", 100),
		Port:                 envOr("PORT", "8000"),
		Log:                  loadLog("storage/logs"),
	}
}

func LoadClient() ClientConfig {
	return ClientConfig{
		BaseURL:   envOr("FREERADICAL_URL", "http://localhost:8000"),
		APIKey:    envOr("FREERADICAL_API_KEY", ""),
		Token:     envOr("FREERADICAL_TOKEN", ""),
		Timeout:   envOrDuration("FREERADICAL_TIMEOUT_MS", 10*time.Second),
		SessionDB: envOr("FREERADICAL_SESSION_DB", defaultSessionDB()),
		Debug:     envOrBool("FREERADICAL_DEBUG", false),
		Log:       loadLog(""),
	}
}

func loadLog(defaultDir string) LogConfig {
	retention := envOrInt("LOG_RETENTION_DAYS", 7)
	if retention < 1 || retention > 7 {
		retention = 7
	}
	return LogConfig{
		Dir:           envOr("LOG_DIR", defaultDir),
		RetentionDays: retention,
	}
}

func defaultSessionDB() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "freeradical-session.db"
	}
	return home + string(os.PathSeparator) + ".freeradical.db"
}

func mustEnv(key string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		panic("missing env var: " + key)
	}
	return value
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// envOrDuration reads a millisecond count.
func envOrDuration(key string, fallback time.Duration) time.Duration {
	ms := envOrInt(key, 0)
	if ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

func envOrBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value != "" {
			items = append(items, value)
		}
	}
	return items
}
