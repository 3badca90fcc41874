// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment  string
	Server       ServerConfig
	Database     DatabaseConfig
	JWT          JWTConfig
	Redis        RedisConfig
	Kafka        KafkaConfig
	Email        EmailConfig
	Logging      LoggingConfig
	Workflow     WorkflowConfig
	Scheduler    SchedulerConfig
	Notification NotificationConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
	// AllowedOrigins feeds CORS and the WebSocket origin check.
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
	SeedData     bool
}

type JWTConfig struct {
	SecretKey      string
	AccessTokenTTL int // in hours
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type EmailConfig struct {
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	FromEmail     string
	FromName      string
	SkipTLSVerify bool
}

type LoggingConfig struct {
	Level  string
	Format string
}

// WorkflowConfig holds the day/month/year offsets used by the deadline
// calculator and the issuance flows.
type WorkflowConfig struct {
	InspectionDeadlineDays     int
	FollowUpDeadlineDays       int
	LicenseRenewalReminderDays int
	NOCValidityMonths          int
	LicenseValidityYears       int
}

type SchedulerConfig struct {
	Enabled           bool
	Timezone          string
	ExpirySweepHour   int
	ReminderSweepHour int
	LockTTL           time.Duration
}

type NotificationConfig struct {
	Timeout      time.Duration
	InAppEnabled bool
	EmailEnabled bool
	// SequenceBackend selects where document numbers are allocated: "database" or "redis".
	SequenceBackend string
}

const (
	DefaultInspectionDeadlineDays     = 7
	DefaultFollowUpDeadlineDays       = 5
	DefaultLicenseRenewalReminderDays = 30
	DefaultNOCValidityMonths          = 12
	DefaultLicenseValidityYears       = 1
)

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),

			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "fire_noc"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "warn"),
			SeedData:     getEnvAsBool("DB_SEED", true),
		},
		JWT: JWTConfig{
			SecretKey:      getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			AccessTokenTTL: getEnvAsInt("JWT_ACCESS_TTL", 24),
		},
		Redis: RedisConfig{
			URL:          getEnv("REDIS_URL", ""),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getEnvAsDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvAsDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvAsDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvAsList("KAFKA_BROKERS"),
			Topic:   getEnv("KAFKA_NOTIFICATIONS_TOPIC", "fire-noc.notifications"),
		},
		Email: EmailConfig{
			SMTPHost:      getEnv("SMTP_HOST", ""),
			SMTPPort:      getEnvAsInt("SMTP_PORT", 587),
			SMTPUsername:  getEnv("SMTP_USERNAME", ""),
			SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
			FromEmail:     getEnv("FROM_EMAIL", "noreply@firenoc.local"),
			FromName:      getEnv("FROM_NAME", "Fire NOC Office"),
			SkipTLSVerify: getEnvAsBool("SMTP_SKIP_TLS_VERIFY", false),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		Workflow: WorkflowConfig{
			InspectionDeadlineDays:     getEnvAsPositiveInt("INSPECTION_DEADLINE_DAYS", DefaultInspectionDeadlineDays),
			FollowUpDeadlineDays:       getEnvAsPositiveInt("FOLLOWUP_DEADLINE_DAYS", DefaultFollowUpDeadlineDays),
			LicenseRenewalReminderDays: getEnvAsPositiveInt("LICENSE_RENEWAL_REMINDER_DAYS", DefaultLicenseRenewalReminderDays),
			NOCValidityMonths:          getEnvAsPositiveInt("NOC_VALIDITY_MONTHS", DefaultNOCValidityMonths),
			LicenseValidityYears:       getEnvAsPositiveInt("LICENSE_VALIDITY_YEARS", DefaultLicenseValidityYears),
		},
		Scheduler: SchedulerConfig{
			Enabled:           getEnvAsBool("SCHEDULER_ENABLED", true),
			Timezone:          getEnv("SCHEDULER_TIMEZONE", "Local"),
			ExpirySweepHour:   getEnvAsHour("EXPIRY_SWEEP_HOUR", 0),
			ReminderSweepHour: getEnvAsHour("REMINDER_SWEEP_HOUR", 9),
			LockTTL:           time.Duration(getEnvAsPositiveInt("SWEEP_LOCK_TTL_SECONDS", 300)) * time.Second,
		},
		Notification: NotificationConfig{
			Timeout:         time.Duration(getEnvAsPositiveInt("NOTIFY_TIMEOUT_SECONDS", 5)) * time.Second,
			InAppEnabled:    getEnvAsBool("NOTIFY_IN_APP", true),
			EmailEnabled:    getEnvAsBool("NOTIFY_EMAIL", false),
			SequenceBackend: getEnv("SEQUENCE_BACKEND", "database"),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == "your-secret-key-change-in-production" && c.Environment == "production" {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	if c.Database.Password == "" && c.Environment == "production" {
		return fmt.Errorf("database password is required in production")
	}

	if c.Notification.SequenceBackend != "database" && c.Notification.SequenceBackend != "redis" {
		return fmt.Errorf("unknown sequence backend %q", c.Notification.SequenceBackend)
	}

	if c.Notification.SequenceBackend == "redis" && c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required when SEQUENCE_BACKEND=redis")
	}

	if _, err := c.Scheduler.Location(); err != nil {
		return fmt.Errorf("invalid scheduler timezone: %w", err)
	}

	return nil
}

// Location resolves the scheduler timezone.
func (s SchedulerConfig) Location() (*time.Location, error) {
	if s.Timezone == "" || s.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(s.Timezone)
}

// DefaultWorkflow returns the documented defaults.
func DefaultWorkflow() WorkflowConfig {
	return WorkflowConfig{
		InspectionDeadlineDays:     DefaultInspectionDeadlineDays,
		FollowUpDeadlineDays:       DefaultFollowUpDeadlineDays,
		LicenseRenewalReminderDays: DefaultLicenseRenewalReminderDays,
		NOCValidityMonths:          DefaultNOCValidityMonths,
		LicenseValidityYears:       DefaultLicenseValidityYears,
	}
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsPositiveInt falls back to the default for missing, malformed and
// non-positive values.
func getEnvAsPositiveInt(key string, defaultValue int) int {
	if v := getEnvAsInt(key, defaultValue); v > 0 {
		return v
	}
	return defaultValue
}

func getEnvAsHour(key string, defaultValue int) int {
	if v := getEnvAsInt(key, defaultValue); v >= 0 && v < 24 {
		return v
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
