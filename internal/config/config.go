package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreFile     = "file"
	StoreMemory   = "memory"
	StorePostgres = "postgres"

	NotifyAsync = "async"
	NotifySync  = "sync"

	NotifierLog  = "log"
	NotifierSMTP = "smtp"
	NotifierSES  = "ses"

	QueueMemory = "memory"
	QueueRedis  = "redis"
)

type Config struct {
	Env  string
	Port int

	// record store
	StoreDriver string
	DataDir     string
	DBURL       string

	// notifications
	NotifyMode       string
	Notifier         string
	MailFrom         string
	NotifyTo         string
	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	AWSRegion        string
	NotifyTimeout    time.Duration
	BreakerThreshold int
	BreakerCooldown  time.Duration
	MaxAttempts      int

	// outbox queue + worker
	QueueDriver         string
	RedisAddr           string
	RedisPassword       string
	RedisDB             int
	QueuePrefix         string
	WorkerInProcess     bool
	WorkerConcurrency   int
	WorkerPollInterval  time.Duration
	WorkerShutdownGrace time.Duration
	WorkerHealthPort    int

	// http
	AllowedOrigins     []string
	MaxBodyBytes       int64
	RateLimitPerMinute int
	CacheTTL           time.Duration

	// tracing
	TracingEnabled bool
	OTLPEndpoint   string

	// admin
	AdminEmail          string
	AdminPasswordHash   string
	JWTSecret           string
	JWTAccessTTLMinutes int
}

func Load() Config {
	return Config{
		Env:  getEnv("APP_ENV", "dev"),
		Port: getEnvInt("PORT", 5000),

		StoreDriver: getEnv("STORE_DRIVER", StoreFile),
		DataDir:     getEnv("DATA_DIR", "."),
		DBURL:       buildDBURL(),

		NotifyMode:       getEnv("NOTIFY_MODE", NotifyAsync),
		Notifier:         getEnv("NOTIFIER", NotifierLog),
		MailFrom:         getEnv("MAIL_FROM", "itechteamservices@gmail.com"),
		NotifyTo:         getEnv("NOTIFY_TO", "itechteamservices@gmail.com"),
		SMTPHost:         getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:         getEnvInt("SMTP_PORT", 587),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		AWSRegion:        getEnv("AWS_REGION", "us-east-1"),
		NotifyTimeout:    getEnvDuration("NOTIFY_TIMEOUT", 10*time.Second),
		BreakerThreshold: getEnvInt("NOTIFY_BREAKER_THRESHOLD", 5),
		BreakerCooldown:  getEnvDuration("NOTIFY_BREAKER_COOLDOWN", 30*time.Second),
		MaxAttempts:      getEnvInt("NOTIFY_MAX_ATTEMPTS", 8),

		QueueDriver:         getEnv("QUEUE_DRIVER", QueueMemory),
		RedisAddr:           getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RedisDB:             getEnvInt("REDIS_DB", 0),
		QueuePrefix:         getEnv("QUEUE_PREFIX", "formdesk:notifications"),
		WorkerInProcess:     getEnvBool("WORKER_IN_PROCESS", true),
		WorkerConcurrency:   getEnvInt("WORKER_CONCURRENCY", 2),
		WorkerPollInterval:  getEnvDuration("WORKER_POLL_INTERVAL", 500*time.Millisecond),
		WorkerShutdownGrace: getEnvDuration("WORKER_SHUTDOWN_GRACE", 10*time.Second),
		WorkerHealthPort:    getEnvInt("WORKER_HEALTH_PORT", 5001),

		AllowedOrigins:     getEnvList("CORS_ALLOWED_ORIGINS", nil),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		CacheTTL:           getEnvDuration("CACHE_TTL", 30*time.Second),

		TracingEnabled: getEnvBool("TRACING_ENABLED", false),
		OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		AdminEmail:          getEnv("ADMIN_EMAIL", "itechteamservices@gmail.com"),
		AdminPasswordHash:   getEnv("ADMIN_PASSWORD_HASH", ""),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		JWTAccessTTLMinutes: getEnvInt("JWT_ACCESS_TTL_MINUTES", 60),
	}
}

// Validate rejects driver and mode names the process cannot wire.
func (c Config) Validate() error {
	var errs []error

	switch c.StoreDriver {
	case StoreFile, StoreMemory, StorePostgres:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER %q: want file, memory or postgres", c.StoreDriver))
	}

	switch c.NotifyMode {
	case NotifyAsync, NotifySync:
	default:
		errs = append(errs, fmt.Errorf("NOTIFY_MODE %q: want async or sync", c.NotifyMode))
	}

	switch c.Notifier {
	case NotifierLog, NotifierSMTP, NotifierSES:
	default:
		errs = append(errs, fmt.Errorf("NOTIFIER %q: want log, smtp or ses", c.Notifier))
	}

	switch c.QueueDriver {
	case QueueMemory, QueueRedis:
	default:
		errs = append(errs, fmt.Errorf("QUEUE_DRIVER %q: want memory or redis", c.QueueDriver))
	}

	// nothing else can drain an in-memory queue
	if c.NotifyMode == NotifyAsync && c.QueueDriver == QueueMemory && !c.WorkerInProcess {
		errs = append(errs, errors.New("WORKER_IN_PROCESS=false requires QUEUE_DRIVER=redis"))
	}

	if c.MaxAttempts < 1 {
		errs = append(errs, errors.New("NOTIFY_MAX_ATTEMPTS must be at least 1"))
	}

	return errors.Join(errs...)
}

// AdminEnabled reports whether the admin API can authenticate anyone.
func (c Config) AdminEnabled() bool {
	return c.JWTSecret != "" && c.AdminPasswordHash != ""
}

func buildDBURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "formdesk")
	pass := getEnv("DB_PASSWORD", "formdesk")
	name := getEnv("DB_NAME", "formdesk")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			slog.Warn("invalid integer in environment, using default", "key", key, "value", v)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)

		if err != nil {
			slog.Warn("invalid boolean in environment, using default", "key", key, "value", v)
			return fallback
		}

		return b
	}
	return fallback
}

// accepts Go durations ("750ms", "2m") or bare seconds ("30")
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	if d, err := time.ParseDuration(v); err == nil {
		return d
	}

	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}

	slog.Warn("invalid duration in environment, using default", "key", key, "value", v)
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
