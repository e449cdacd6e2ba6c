package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Lock backends accepted by BATCH_LOCK_BACKEND.
const (
	LockBackendMemory = "memory"
	LockBackendRedis  = "redis"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Scheduling    SchedulingConfig
	Batch         BatchConfig
	Notifications NotificationConfig
	DelaySweeper  DelaySweeperConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SchedulingConfig tunes slot generation and availability caching.
type SchedulingConfig struct {
	SlotGranularity      int
	LegacyClock          bool
	AvailabilityCacheTTL time.Duration
}

// BatchConfig governs batch capacity defaults and the per-batch lock.
type BatchConfig struct {
	DefaultMaxStudents int
	LockBackend        string
	LockTTL            time.Duration
	LockTimeout        time.Duration
}

// NotificationConfig configures the asynchronous e-mail and SMS channels.
type NotificationConfig struct {
	Enabled          bool
	Workers          int
	Retries          int
	SendGridAPIKey   string
	SendGridFrom     string
	SendGridFromName string
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFrom       string
}

// DelaySweeperConfig toggles the periodic delayed-batch scan.
type DelaySweeperConfig struct {
	Enabled  bool
	Schedule string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	granularity := v.GetInt("SCHEDULING_SLOT_GRANULARITY")
	if granularity <= 0 || 60%granularity != 0 {
		granularity = 30
	}
	cfg.Scheduling = SchedulingConfig{
		SlotGranularity:      granularity,
		LegacyClock:          v.GetBool("SCHEDULING_LEGACY_CLOCK"),
		AvailabilityCacheTTL: parseDuration(v.GetString("AVAILABILITY_CACHE_TTL"), 5*time.Minute),
	}

	backend := strings.ToLower(strings.TrimSpace(v.GetString("BATCH_LOCK_BACKEND")))
	if backend != LockBackendRedis {
		backend = LockBackendMemory
	}
	maxStudents := v.GetInt("BATCH_DEFAULT_MAX_STUDENTS")
	if maxStudents <= 0 {
		maxStudents = 10
	}
	cfg.Batch = BatchConfig{
		DefaultMaxStudents: maxStudents,
		LockBackend:        backend,
		LockTTL:            parseDuration(v.GetString("BATCH_LOCK_TTL"), 10*time.Second),
		LockTimeout:        parseDuration(v.GetString("BATCH_LOCK_TIMEOUT"), 5*time.Second),
	}

	cfg.Notifications = NotificationConfig{
		Enabled:          v.GetBool("ENABLE_NOTIFICATIONS"),
		Workers:          v.GetInt("NOTIFY_WORKERS"),
		Retries:          v.GetInt("NOTIFY_RETRIES"),
		SendGridAPIKey:   v.GetString("SENDGRID_API_KEY"),
		SendGridFrom:     v.GetString("SENDGRID_FROM_EMAIL"),
		SendGridFromName: v.GetString("SENDGRID_FROM_NAME"),
		TwilioAccountSID: v.GetString("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  v.GetString("TWILIO_AUTH_TOKEN"),
		TwilioFrom:       v.GetString("TWILIO_FROM_NUMBER"),
	}

	cfg.DelaySweeper = DelaySweeperConfig{
		Enabled:  v.GetBool("ENABLE_DELAY_SWEEPER"),
		Schedule: v.GetString("DELAY_SWEEPER_SCHEDULE"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "course_batches")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SCHEDULING_SLOT_GRANULARITY", 30)
	v.SetDefault("SCHEDULING_LEGACY_CLOCK", false)
	v.SetDefault("AVAILABILITY_CACHE_TTL", "5m")

	v.SetDefault("BATCH_DEFAULT_MAX_STUDENTS", 10)
	v.SetDefault("BATCH_LOCK_BACKEND", LockBackendMemory)
	v.SetDefault("BATCH_LOCK_TTL", "10s")
	v.SetDefault("BATCH_LOCK_TIMEOUT", "5s")

	v.SetDefault("ENABLE_NOTIFICATIONS", false)
	v.SetDefault("NOTIFY_WORKERS", 2)
	v.SetDefault("NOTIFY_RETRIES", 3)
	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("SENDGRID_FROM_EMAIL", "")
	v.SetDefault("SENDGRID_FROM_NAME", "Course Batches")
	v.SetDefault("TWILIO_ACCOUNT_SID", "")
	v.SetDefault("TWILIO_AUTH_TOKEN", "")
	v.SetDefault("TWILIO_FROM_NUMBER", "")

	v.SetDefault("ENABLE_DELAY_SWEEPER", false)
	v.SetDefault("DELAY_SWEEPER_SCHEDULE", "@every 1h")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
