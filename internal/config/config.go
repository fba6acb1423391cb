package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"

	MailLog      = "log"
	MailSMTP     = "smtp"
	MailRabbitMQ = "rabbitmq"
)

type Config struct {
	//App
	Env string // dev / staging / prod
	//HTTP
	HTTPAddr string

	//Auth / Security
	JWTSecret       string
	JWTIssuer       string
	SessionTTL      time.Duration
	OTPTTL          time.Duration
	MaskDenyReasons bool
	BcryptCost      int

	// Storage
	StoreDriver   string
	DBAddr        string
	RunMigrations bool

	// Seed admin; empty email disables seeding.
	SeedAdminEmail    string
	SeedAdminPassword string

	// Email dispatch
	MailDriver      string
	DispatchTimeout time.Duration
	MailFrom        string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPInsecure bool

	RabbitURL      string
	RabbitExchange string

	// Redis-backed rate limiting. Empty REDIS_ADDR disables it.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RLAuthLimit   int
	RLAuthWindow  time.Duration
	RLOTPLimit    int
	RLOTPWindow   time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// Load reads the environment. A .env file in the working directory, if present,
// is applied first without overriding variables that are already set.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "dev"),
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
	}

	// required values
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("missing required env var: JWT_SECRET")
	}
	cfg.JWTIssuer = getEnv("JWT_ISSUER", "identity-service")

	var err error
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.OTPTTL, err = getDuration("OTP_TTL", 600*time.Second); err != nil {
		return nil, err
	}
	if cfg.MaskDenyReasons, err = getBool("MASK_DENY_REASONS", false); err != nil {
		return nil, err
	}
	if cfg.BcryptCost, err = getInt("BCRYPT_COST", 0); err != nil {
		return nil, err
	}

	// Storage
	cfg.StoreDriver = strings.ToLower(getEnv("STORE_DRIVER", StoreMemory))
	switch cfg.StoreDriver {
	case StoreMemory:
	case StorePostgres:
		cfg.DBAddr = os.Getenv("DB_ADDR")
		if cfg.DBAddr == "" {
			return nil, fmt.Errorf("missing required env var: DB_ADDR")
		}
		if err := validatePostgresDSN(cfg.DBAddr); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	if cfg.RunMigrations, err = getBool("DB_MIGRATE", true); err != nil {
		return nil, err
	}
	cfg.SeedAdminEmail = getEnv("SEED_ADMIN_EMAIL", "")
	cfg.SeedAdminPassword = getEnv("SEED_ADMIN_PASSWORD", "")

	// Email dispatch
	cfg.MailDriver = strings.ToLower(getEnv("MAIL_DRIVER", MailLog))
	cfg.MailFrom = getEnv("MAIL_FROM", "no-reply@edu-quiz.local")
	if cfg.DispatchTimeout, err = getDuration("DISPATCH_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	switch cfg.MailDriver {
	case MailLog:
	case MailSMTP:
		cfg.SMTPHost = getEnv("SMTP_HOST", "")
		if cfg.SMTPHost == "" {
			return nil, fmt.Errorf("smtp mailer selected but missing SMTP_HOST")
		}
		if cfg.SMTPPort, err = getInt("SMTP_PORT", 587); err != nil {
			return nil, err
		}
		cfg.SMTPUsername = getEnv("SMTP_USERNAME", "")
		cfg.SMTPPassword = os.Getenv("SMTP_PASSWORD")
		if cfg.SMTPInsecure, err = getBool("SMTP_INSECURE", false); err != nil {
			return nil, err
		}
	case MailRabbitMQ:
		cfg.RabbitURL = os.Getenv("RABBIT_URL")
		if cfg.RabbitURL == "" {
			return nil, fmt.Errorf("missing required env var: RABBIT_URL")
		}
		cfg.RabbitExchange = getEnv("RABBIT_EXCHANGE", "identity.events")
	default:
		return nil, fmt.Errorf("unknown MAIL_DRIVER %q", cfg.MailDriver)
	}

	// Rate limiting
	cfg.RedisAddr = getEnv("REDIS_ADDR", "")
	if strings.Contains(cfg.RedisAddr, " ") {
		return nil, fmt.Errorf("bad REDIS_ADDR (contains spaces): %q", cfg.RedisAddr)
	}
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.RLAuthLimit, err = getInt("RL_AUTH_LIMIT", 20); err != nil {
		return nil, err
	}
	if cfg.RLAuthWindow, err = getDuration("RL_AUTH_WINDOW", time.Minute); err != nil {
		return nil, err
	}
	if cfg.RLOTPLimit, err = getInt("RL_OTP_LIMIT", 5); err != nil {
		return nil, err
	}
	if cfg.RLOTPWindow, err = getDuration("RL_OTP_WINDOW", 10*time.Minute); err != nil {
		return nil, err
	}

	//Timeout values are optional and have a default value if not
	if cfg.HTTPReadTimeout, err = getDuration("HTTP_READ_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.HTTPWriteTimeout, err = getDuration("HTTP_WRITE_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.HTTPIdleTimeout, err = getDuration("HTTP_IDLE_TIMEOUT", time.Minute); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validatePostgresDSN(dsn string) error {
	u, err := url.Parse(dsn)
	if err != nil {
		return fmt.Errorf("invalid DB_ADDR: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return fmt.Errorf("DB_ADDR must use postgres:// scheme, got %q", u.Scheme)
	}
	if strings.Trim(u.Path, "/") == "" {
		return fmt.Errorf("DB_ADDR must name a database")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %q: %w", key, v, err)
	}
	return d, nil
}

func getInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid int for %s: %q: %w", key, v, err)
	}
	return n, nil
}

func getBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid bool for %s: %q: %w", key, v, err)
	}
	return b, nil
}
