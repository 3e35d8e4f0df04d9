package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultJWTSecret is the development fallback. Any real deployment must override it.
const DefaultJWTSecret = "dev-insecure-secret-change-me"

// Config centralizes settings loaded from the environment.
type Config struct {
	Env             string
	Port            int
	JWTSecret       string
	DoctorTokenTTL  time.Duration
	Doctor          DoctorConfig
	RequireApproval bool
	StoreDriver     string
	DBDSN           string
	RedisURL        string
	AllowOrigins    []string
	RateLimitPublic RateLimitConfig
	RateLimitAuth   RateLimitConfig
	Firebase        FirebaseConfig
	SMTP            SMTPConfig
	SlackWebhookURL string
}

// DoctorConfig holds the single administrator credential.
type DoctorConfig struct {
	Email        string
	Password     string
	PasswordHash string
}

// FirebaseConfig describes the service account used by the Admin SDK.
type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
	CredentialsJSON string
}

// Enabled reports whether any Firebase setting was provided.
func (f FirebaseConfig) Enabled() bool {
	return f.ProjectID != "" || f.CredentialsFile != "" || f.CredentialsJSON != ""
}

// SMTPConfig mirrors the SMTP_* and MAIL_* variables.
type SMTPConfig struct {
	Host     string
	Port     int
	Secure   bool
	User     string
	Pass     string
	MailTo   string
	MailFrom string
	MailAck  bool
}

// Enabled reports whether host and credentials are all present.
func (s SMTPConfig) Enabled() bool {
	return s.Host != "" && s.User != "" && s.Pass != ""
}

// RateLimitConfig represents simple throttling limits.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// Load reads the environment and applies defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.Env = strings.ToLower(strings.TrimSpace(getEnv("APP_ENV", "development")))

	port, err := strconv.Atoi(getEnv("PORT", "5174"))
	if err != nil || port <= 0 {
		return nil, errors.New("invalid PORT")
	}
	cfg.Port = port

	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", DefaultJWTSecret))
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = DefaultJWTSecret
	}
	if cfg.Production() && (cfg.JWTSecret == DefaultJWTSecret || len(cfg.JWTSecret) < 32) {
		return nil, errors.New("JWT_SECRET must be set to at least 32 characters in production")
	}

	ttl, err := parseDurationEnv("DOCTOR_TOKEN_TTL", 8*time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.DoctorTokenTTL = ttl

	cfg.Doctor = DoctorConfig{
		Email:        strings.ToLower(strings.TrimSpace(getEnv("DOCTOR_EMAIL", ""))),
		Password:     getEnv("DOCTOR_PASSWORD", ""),
		PasswordHash: strings.TrimSpace(getEnv("DOCTOR_PASSWORD_HASH", "")),
	}

	approval := getEnv("REQUIRE_APPROVAL", "")
	if approval == "" {
		approval = getEnv("VITE_REQUIRE_APPROVAL", "false")
	}
	cfg.RequireApproval = parseBool(approval)

	cfg.Firebase = FirebaseConfig{
		ProjectID:       strings.TrimSpace(getEnv("FIREBASE_PROJECT_ID", "")),
		CredentialsFile: strings.TrimSpace(getEnv("FIREBASE_CREDENTIALS_FILE", getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""))),
		CredentialsJSON: strings.TrimSpace(getEnv("FIREBASE_CREDENTIALS_JSON", "")),
	}

	cfg.DBDSN = strings.TrimSpace(getEnv("DB_DSN", ""))
	cfg.RedisURL = strings.TrimSpace(getEnv("REDIS_URL", ""))

	driver := strings.ToLower(strings.TrimSpace(getEnv("STORE_DRIVER", "auto")))
	switch driver {
	case "", "auto":
		switch {
		case cfg.Firebase.Enabled():
			driver = "firestore"
		case cfg.DBDSN != "":
			driver = "postgres"
		default:
			driver = "memory"
		}
	case "firestore":
		if !cfg.Firebase.Enabled() {
			return nil, errors.New("STORE_DRIVER=firestore requires Firebase credentials")
		}
	case "postgres":
		if cfg.DBDSN == "" {
			return nil, errors.New("STORE_DRIVER=postgres requires DB_DSN")
		}
	case "memory":
	default:
		return nil, errors.New("invalid STORE_DRIVER " + driver)
	}
	cfg.StoreDriver = driver

	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil || smtpPort <= 0 {
		return nil, errors.New("invalid SMTP_PORT")
	}
	cfg.SMTP = SMTPConfig{
		Host:    strings.TrimSpace(getEnv("SMTP_HOST", "")),
		Port:    smtpPort,
		Secure:  parseBool(getEnv("SMTP_SECURE", "false")),
		User:    strings.TrimSpace(getEnv("SMTP_USER", "")),
		Pass:    getEnv("SMTP_PASS", ""),
		MailAck: parseBool(getEnv("MAIL_ACK", "false")),
	}
	cfg.SMTP.MailTo = firstNonEmpty(getEnv("MAIL_TO", ""), cfg.SMTP.User)
	cfg.SMTP.MailFrom = firstNonEmpty(getEnv("MAIL_FROM", ""), cfg.SMTP.User)

	cfg.SlackWebhookURL = strings.TrimSpace(getEnv("SLACK_WEBHOOK_URL", ""))

	for _, origin := range strings.Split(getEnv("ALLOW_ORIGINS", ""), ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			cfg.AllowOrigins = append(cfg.AllowOrigins, origin)
		}
	}

	cfg.RateLimitPublic = RateLimitConfig{RequestsPerSecond: 5, Burst: 20}
	cfg.RateLimitAuth = RateLimitConfig{RequestsPerSecond: 1, Burst: 5}

	return cfg, nil
}

// Production reports whether APP_ENV selects production.
func (c *Config) Production() bool {
	return c.Env == "production" || c.Env == "prod"
}

// InsecureSecret reports whether the development JWT secret is in use.
func (c *Config) InsecureSecret() bool {
	return c.JWTSecret == DefaultJWTSecret
}

func getEnv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return def
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func parseBool(val string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(val))
	return err == nil && b
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	val := getEnv(key, "")
	if val == "" {
		return def, nil
	}
	dur, err := time.ParseDuration(val)
	if err != nil || dur <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return dur, nil
}
