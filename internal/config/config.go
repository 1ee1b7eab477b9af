package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort  string
	AppEnv   string
	LogLevel string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	ReportBucket   string // empty disables the S3 report archive
	ReportTopicARN string // empty disables the SNS report publisher
	SNSRegion      string

	JWTPublicKeyPath  string
	JWTPrivateKeyPath string
	JWTExpiry         time.Duration

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	Verification VerificationConfig
	Dispatch     DispatchConfig
	Defaults     SettingsDefaults

	SweepCron    string
	SweepTimeout time.Duration

	AllowedOrigins []string // CORS allowed origins

	// TrustProxyHeaders keys the rate limiter on X-Forwarded-For / X-Real-Ip.
	// Enable only behind a proxy that overwrites those headers.
	TrustProxyHeaders bool
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	VerificationCodes string
	Items             string
	ItemUpdates       string
	Settings          string
}

// VerificationConfig tunes code issuance.
type VerificationConfig struct {
	CodeTTL       time.Duration
	Retention     time.Duration // how long past expiry the row survives before DynamoDB TTL removes it
	EmailTimeout  time.Duration
	PublicBaseURL string
}

// DispatchConfig tunes the outbound pacing. Defaults match the SMTP provider's ceiling.
type DispatchConfig struct {
	MaxPerWindow int
	Window       time.Duration
	SendTimeout  time.Duration
}

// SettingsDefaults seed the admin settings when the settings table holds no row.
type SettingsDefaults struct {
	DistributionPolicy     string
	ReminderIntervalDays   int
	VerificationCodeLength int
	NotificationEmails     []string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:        getEnv("APP_PORT", "3000"),
		AppEnv:         getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			VerificationCodes: getEnv("DYNAMO_TABLE_VERIFICATION_CODES", "verification_codes"),
			Items:             getEnv("DYNAMO_TABLE_ITEMS", "items"),
			ItemUpdates:       getEnv("DYNAMO_TABLE_ITEM_UPDATES", "item_updates"),
			Settings:          getEnv("DYNAMO_TABLE_SETTINGS", "settings"),
		},
		ReportBucket:      getEnv("REPORT_BUCKET", ""),
		ReportTopicARN:    getEnv("REPORT_TOPIC_ARN", ""),
		SNSRegion:         getEnv("SNS_REGION", "us-east-1"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTExpiry:         getEnvDuration("JWT_EXPIRY", 12*time.Hour),
		SMTPHost:          getEnv("SMTP_HOST", "localhost"),
		SMTPPort:          getEnv("SMTP_PORT", "1025"),
		SMTPFrom:          getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
		Verification: VerificationConfig{
			CodeTTL:       getEnvDuration("VERIFICATION_CODE_TTL", 15*time.Minute),
			Retention:     getEnvDuration("VERIFICATION_CODE_RETENTION", 30*24*time.Hour),
			EmailTimeout:  getEnvDuration("VERIFICATION_EMAIL_TIMEOUT", 20*time.Second),
			PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:3000"),
		},
		Dispatch: DispatchConfig{
			MaxPerWindow: getEnvInt("DISPATCH_MAX_PER_WINDOW", 30),
			Window:       getEnvDuration("DISPATCH_WINDOW", 60*time.Second),
			SendTimeout:  getEnvDuration("DISPATCH_SEND_TIMEOUT", 20*time.Second),
		},
		Defaults: SettingsDefaults{
			DistributionPolicy:     getEnv("DISTRIBUTION_POLICY", "admin_only"),
			ReminderIntervalDays:   getEnvInt("REMINDER_INTERVAL_DAYS", 0),
			VerificationCodeLength: getEnvInt("VERIFICATION_CODE_LENGTH", 6),
			NotificationEmails:     splitList(getEnv("NOTIFICATION_EMAILS", "")),
		},
		SweepCron:      getEnv("SWEEP_CRON", "0 9 * * *"),
		SweepTimeout:   getEnvDuration("SWEEP_TIMEOUT", 2*time.Hour),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "*")),

		TrustProxyHeaders: getEnv("TRUST_PROXY_HEADERS", "false") == "true",
	}
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

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
