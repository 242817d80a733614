package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables
	S3BucketName   string

	// JWTSecret signs access tokens (HS256). TokenHashSecret keys the HMAC
	// fingerprints under which refresh/reset tokens and OTP codes are stored.
	// Both are required in production; Load warns loudly when they are absent.
	JWTSecret       string
	TokenHashSecret string

	AccessTokenTTL         time.Duration
	RefreshTokenExpiryDays int
	OTPTTL                 time.Duration
	ResetTokenTTL          time.Duration

	FrontendBaseURL string

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	SNSRegion string

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users           string
	RefreshTokens   string
	PasswordResets  string
	TeacherProfiles string
	Institutions    string
	Students        string
	Parents         string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users:           getEnv("DYNAMO_TABLE_USERS", "users"),
			RefreshTokens:   getEnv("DYNAMO_TABLE_REFRESH_TOKENS", "refresh_tokens"),
			PasswordResets:  getEnv("DYNAMO_TABLE_PASSWORD_RESETS", "password_resets"),
			TeacherProfiles: getEnv("DYNAMO_TABLE_TEACHER_PROFILES", "teacher_profiles"),
			Institutions:    getEnv("DYNAMO_TABLE_INSTITUTIONS", "institutions"),
			Students:        getEnv("DYNAMO_TABLE_STUDENTS", "students"),
			Parents:         getEnv("DYNAMO_TABLE_PARENTS", "parents"),
		},
		S3BucketName: getEnv("S3_BUCKET_NAME", "tutorlink-assets"),

		JWTSecret:       getEnv("JWT_SECRET", ""),
		TokenHashSecret: getEnv("TOKEN_HASH_SECRET", ""),

		AccessTokenTTL:         getEnvDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenExpiryDays: getEnvInt("REFRESH_TOKEN_EXPIRY_DAYS", 30),
		OTPTTL:                 getEnvDuration("OTP_TTL", 10*time.Minute),
		ResetTokenTTL:          getEnvDuration("RESET_TOKEN_TTL", time.Hour),

		FrontendBaseURL: getEnv("FRONTEND_BASE_URL", "http://localhost:5173"),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@tutorlink.example"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		SNSRegion: getEnv("SNS_REGION", "us-east-1"),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}

	// Missing secrets must be loud, never a silent default. Development gets a
	// predictable fallback so the server still boots locally.
	if cfg.JWTSecret == "" {
		slog.Warn("JWT_SECRET is not set; access tokens will use an insecure development key")
		cfg.JWTSecret = "dev-jwt-secret-do-not-use-in-production"
	}
	if cfg.TokenHashSecret == "" {
		slog.Warn("TOKEN_HASH_SECRET is not set; token fingerprints will use an insecure development key")
		cfg.TokenHashSecret = "dev-hash-secret-do-not-use-in-production"
	}

	return cfg
}

// IsDevelopment reports whether developer conveniences (OTP logging) are enabled.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
