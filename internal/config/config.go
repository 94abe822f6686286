package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	ListenAddr  string
	BaseURL     string

	// RequirePayment gates submissions behind a confirmed checkout payment.
	RequirePayment bool

	StripeSecretKey         string
	StripeWebhookSecret     string
	StripeWebhookTolerance  time.Duration
	VisaFeeAmount           int64
	VisaFeeCurrency         string
	VisaFeeProductName      string
	VisaFeeProductDescr     string
	CheckoutSuccessPath     string
	CheckoutCancelPath      string

	UploadDir      string
	MaxUploadBytes int64

	Email EmailConfig

	SlackWebhookURL string

	AdminUser         string
	AdminPassword     string
	AdminPasswordHash string
	SessionTTL        time.Duration
	AuthCookieSecure  bool

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	environment := getenv("ENVIRONMENT", "development")
	authCookieSecure := environment == "production"
	if !authCookieSecure {
		authCookieSecure = getenvBool("AUTH_COOKIE_SECURE", false)
	}

	listenAddr := getenv("LISTEN_ADDR", ":5050")

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "visaflow"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: environment,
		ListenAddr:  listenAddr,
		BaseURL:     strings.TrimRight(getenv("BASE_URL", "http://localhost"+listenAddr), "/"),

		RequirePayment: getenvBool("REQUIRE_PAYMENT", true),

		StripeSecretKey:        strings.TrimSpace(getenv("STRIPE_SECRET_KEY", "")),
		StripeWebhookSecret:    strings.TrimSpace(getenv("STRIPE_WEBHOOK_SECRET", "")),
		StripeWebhookTolerance: getenvDuration("STRIPE_WEBHOOK_TOLERANCE", 5*time.Minute),
		VisaFeeAmount:          getenvInt64("VISA_FEE_AMOUNT", 15000),
		VisaFeeCurrency:        strings.ToLower(getenv("VISA_FEE_CURRENCY", "usd")),
		VisaFeeProductName:     getenv("VISA_FEE_PRODUCT_NAME", "Visa Application Fee"),
		VisaFeeProductDescr:    getenv("VISA_FEE_PRODUCT_DESCRIPTION", "Required for processing your visa application"),
		CheckoutSuccessPath:    getenv("CHECKOUT_SUCCESS_PATH", "/success.html"),
		CheckoutCancelPath:     getenv("CHECKOUT_CANCEL_PATH", "/application.html"),

		UploadDir:      getenv("UPLOAD_DIR", "uploads"),
		MaxUploadBytes: getenvInt64("MAX_UPLOAD_BYTES", 5<<20),

		Email: EmailConfig{
			SMTPHost:     getenv("SMTP_HOST", ""),
			SMTPPort:     int(getenvInt64("SMTP_PORT", 587)),
			SMTPUsername: getenv("SMTP_USERNAME", ""),
			SMTPPassword: getenv("SMTP_PASSWORD", ""),
			SMTPFrom:     getenv("SMTP_FROM", "EasyVisa <no-reply@easyvisa.example>"),
		},

		SlackWebhookURL: strings.TrimSpace(getenv("SLACK_WEBHOOK_URL", "")),

		AdminUser:         strings.TrimSpace(getenv("ADMIN_USER", "")),
		AdminPassword:     getenv("ADMIN_PASS", ""),
		AdminPasswordHash: strings.TrimSpace(getenv("ADMIN_PASS_HASH", "")),
		SessionTTL:        getenvDuration("SESSION_TTL", 12*time.Hour),
		AuthCookieSecure:  authCookieSecure,

		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),

		DBType:            getenv("DATABASE_TYPE", "sqlite"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "visaflow"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     int(getenvInt64("DATABASE_MAX_IDLE_CONN", 5)),
		DBMaxOpenConn:     int(getenvInt64("DATABASE_MAX_OPEN_CONN", 20)),
		DBConnMaxLifetime: int(getenvInt64("DATABASE_CONN_MAX_LIFETIME", 3600)),
	}

	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
