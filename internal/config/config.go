package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds runtime configuration loaded from environment variables.
type Config struct {
	AppEnv               string
	Port                 string
	DatabaseURL          string
	JWTSecret            string
	TokenTTLHours        int
	BcryptCost           int
	CorsOrigins          []string
	TrustedProxies       []string
	LoginRatePerMinute   int
	LogDir               string
	LogRetentionDays     int
	MetricsDiskPath      string
	MetricsSampleSeconds int
	Storage              StorageConfig
	Redis                RedisConfig
	Mail                 MailConfig
	WhatsApp             WhatsAppConfig
}

type StorageConfig struct {
	Driver     string
	UploadDir  string
	S3Region   string
	S3Bucket   string
	S3Access   string
	S3Secret   string
	S3Endpoint string
	S3Public   string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type MailConfig struct {
	Host       string
	Port       int
	User       string
	Pass       string
	From       string
	StaffEmail string
}

// Enabled reports whether enough SMTP settings are present to attempt delivery.
func (m MailConfig) Enabled() bool {
	return m.Host != "" && m.User != "" && m.Pass != ""
}

type WhatsAppConfig struct {
	AccountSID string
	AuthToken  string
	From       string
}

func (w WhatsAppConfig) Enabled() bool {
	return w.AccountSID != "" && w.AuthToken != "" && w.From != ""
}

func Load() Config {
	return Config{
		AppEnv:               envOr("APP_ENV", "development"),
		Port:                 envOr("PORT", "4000"),
		DatabaseURL:          mustEnv("DATABASE_URL"),
		JWTSecret:            mustEnv("JWT_SECRET"),
		TokenTTLHours:        envOrInt("TOKEN_TTL_HOURS", 168),
		BcryptCost:           envOrInt("BCRYPT_COST", 10),
		CorsOrigins:          parseCSV(envOr("CORS_ORIGINS", "http://localhost:5173")),
		TrustedProxies:       parseCSV(envOr("TRUSTED_PROXIES", "")),
		LoginRatePerMinute:   envOrInt("LOGIN_RATE_PER_MINUTE", 20),
		LogDir:               envOr("LOG_DIR", "storage/logs"),
		LogRetentionDays:     envOrInt("LOG_RETENTION_DAYS", 7),
		MetricsDiskPath:      envOr("METRICS_DISK_PATH", "/"),
		MetricsSampleSeconds: envOrInt("METRICS_SAMPLE_INTERVAL", 60),
		Storage: StorageConfig{
			Driver:     strings.ToLower(envOr("STORAGE_DRIVER", "local")),
			UploadDir:  envOr("UPLOAD_DIR", "uploads"),
			S3Region:   envOr("S3_REGION", ""),
			S3Bucket:   envOr("S3_BUCKET", ""),
			S3Access:   envOr("S3_ACCESS_KEY", ""),
			S3Secret:   envOr("S3_SECRET_KEY", ""),
			S3Endpoint: envOr("S3_ENDPOINT", ""),
			S3Public:   strings.TrimRight(envOr("S3_PUBLIC_BASE", ""), "/"),
		},
		Redis: RedisConfig{
			Addr:     envOr("REDIS_ADDR", ""),
			Password: envOr("REDIS_PASSWORD", ""),
			DB:       envOrInt("REDIS_DB", 0),
		},
		Mail: MailConfig{
			Host:       envOr("MAILER_SMTP_HOST", ""),
			Port:       envOrInt("MAILER_SMTP_PORT", 587),
			User:       envOr("MAILER_USER", ""),
			Pass:       envOr("MAILER_PASS", ""),
			From:       envOr("MAILER_FROM", "BROSolve <noreply@brosolve.example>"),
			StaffEmail: envOr("STAFF_NOTIFY_EMAIL", ""),
		},
		WhatsApp: WhatsAppConfig{
			AccountSID: envOr("TWILIO_ACCOUNT_SID", ""),
			AuthToken:  envOr("TWILIO_AUTH_TOKEN", ""),
			From:       envOr("TWILIO_WHATSAPP_FROM", ""),
		},
	}
}

// SeedConfig drives cmd/seed. The superadmin password has no default.
type SeedConfig struct {
	DatabaseURL       string
	BcryptCost        int
	SuperadminName    string
	SuperadminEmail   string
	SuperadminPass    string
	DefaultCategories []string
}

var defaultCategories = []string{
	"Teaching Quality",
	"Infrastructure",
	"Hostel & Food",
	"Administration",
	"Technical Issue",
	"Other",
}

func LoadSeed() SeedConfig {
	categories := parseCSV(os.Getenv("SEED_CATEGORIES"))
	if len(categories) == 0 {
		categories = defaultCategories
	}
	return SeedConfig{
		DatabaseURL:       mustEnv("DATABASE_URL"),
		BcryptCost:        envOrInt("BCRYPT_COST", 10),
		SuperadminName:    envOr("SEED_SUPERADMIN_NAME", "Super Admin"),
		SuperadminEmail:   strings.ToLower(envOr("SEED_SUPERADMIN_EMAIL", "superadmin@brosolve.com")),
		SuperadminPass:    mustEnv("SEED_SUPERADMIN_PASSWORD"),
		DefaultCategories: categories,
	}
}

func (c Config) Production() bool {
	return c.AppEnv == "production"
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
