package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	platformstrings "examreg/pkg/platform/strings"
)

const devJWTSigningKey = "dev-secret-key-change-in-production"

// Server captures process-level configuration.
type Server struct {
	Addr          string
	Environment   string
	LogLevel      string
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string

	Database     DatabaseConfig
	Redis        RedisConfig
	Kafka        KafkaConfig
	SMTP         SMTPConfig
	Registration RegistrationConfig
}

// DatabaseConfig configures the Postgres pool. An empty URL selects the
// in-memory stores.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrateOnStart  bool
}

// RedisConfig configures the exam catalog cache. An empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	ExamCacheTTL time.Duration
}

// KafkaConfig configures the audit outbox relay. No brokers disables it.
type KafkaConfig struct {
	Brokers        []string
	AuditTopic     string
	RelayInterval  time.Duration
	RelayBatchSize int
}

// SMTPConfig configures the confirmation mailer. An empty host logs mail
// instead of sending it.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// RegistrationConfig holds the knobs of the registration engine.
type RegistrationConfig struct {
	TxTimeout       time.Duration
	NotifyTimeout   time.Duration
	InstitutionName string
}

// IsProduction reports whether the process runs with production settings.
func (s Server) IsProduction() bool {
	return s.Environment == "production"
}

// FromEnv builds a Server config from environment variables so main stays lean.
// A .env file in the working directory is loaded first when present; real
// environment variables take precedence over it.
func FromEnv() Server {
	_ = godotenv.Load()

	return Server{
		Addr:          getEnv("EXAMREG_ADDR", ":8080"),
		Environment:   getEnv("APP_ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		JWTSigningKey: getEnv("JWT_SIGNING_KEY", devJWTSigningKey),
		JWTIssuer:     getEnv("JWT_ISSUER", "examreg-identity"),
		JWTAudience:   getEnv("JWT_AUDIENCE", "examreg"),
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			MigrateOnStart:  getBool("DB_MIGRATE_ON_START", true),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 2*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 500*time.Millisecond),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 500*time.Millisecond),
			ExamCacheTTL: getDuration("EXAM_CACHE_TTL", 2*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:        getList("KAFKA_BROKERS"),
			AuditTopic:     getEnv("KAFKA_AUDIT_TOPIC", "examreg.audit"),
			RelayInterval:  getDuration("AUDIT_RELAY_INTERVAL", 2*time.Second),
			RelayBatchSize: getInt("AUDIT_RELAY_BATCH_SIZE", 100),
		},
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getEnv("SMTP_FROM", "exams@example.edu"),
			Timeout:  getDuration("SMTP_TIMEOUT", 10*time.Second),
		},
		Registration: RegistrationConfig{
			TxTimeout:       getDuration("REGISTRATION_TX_TIMEOUT", 5*time.Second),
			NotifyTimeout:   getDuration("REGISTRATION_NOTIFY_TIMEOUT", 15*time.Second),
			InstitutionName: getEnv("INSTITUTION_NAME", "Alliance University"),
		},
	}
}

// Validate rejects settings that are only acceptable in development.
func (s Server) Validate() error {
	if !s.IsProduction() {
		return nil
	}
	var errs []error
	if s.JWTSigningKey == devJWTSigningKey {
		errs = append(errs, errors.New("JWT_SIGNING_KEY must be set in production"))
	}
	if s.Database.URL == "" {
		errs = append(errs, errors.New("DATABASE_URL must be set in production"))
	}
	if s.SMTP.Host == "" {
		errs = append(errs, errors.New("SMTP_HOST must be set in production"))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key))); err == nil {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key))); err == nil {
		return v
	}
	return fallback
}

func getList(key string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	return platformstrings.DedupeAndTrim(strings.Split(raw, ","))
}
