package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"dripmail/models"

	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var (
	DB        *gorm.DB
	AppConfig Config
	envLoaded bool

	initOnce sync.Once
	initErr  error
)

// Send ledger backends.
const (
	LedgerDB    = "db"
	LedgerRedis = "redis"
	LedgerNone  = "none"
)

type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"-"`
	DB       int    `json:"db"`
}

type SMTPConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"-"`
}

type Config struct {
	Environment    string `json:"environment"`
	ServerPort     string `json:"server_port"`
	DBHost         string `json:"db_host"`
	DBPort         string `json:"db_port"`
	DBUser         string `json:"db_user"`
	DBPassword     string `json:"-"`
	DBName         string `json:"db_name"`
	DBSSLMode      string `json:"db_ssl_mode"`
	DBMaxIdleConns int    `json:"db_max_idle_conns"`
	DBMaxOpenConns int    `json:"db_max_open_conns"`

	JWTSecret     string   `json:"-"`
	PublicBaseURL string   `json:"public_base_url"`
	CORSOrigins   []string `json:"cors_origins"`
	SentryDSN     string   `json:"-"`

	ResendAPIKey     string     `json:"-"`
	SMTP             SMTPConfig `json:"smtp"`
	DefaultFromName  string     `json:"default_from_name"`
	DefaultFromEmail string     `json:"default_from_email"`

	Redis RedisConfig `json:"redis"`

	DripSchedule    string        `json:"drip_schedule"`
	DripLockTTL     time.Duration `json:"drip_lock_ttl"`
	SendLedger      string        `json:"send_ledger"`
	RateLimitPublic int           `json:"rate_limit_public"`
}

func init() {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()
	envLoaded = true
}

// Init loads configuration, sets up logging and Sentry, and connects the
// database. Only the first call does any work; later calls return the
// result of the first one.
func Init() error {
	initOnce.Do(func() {
		if initErr = LoadConfig(); initErr != nil {
			return
		}
		SetupLogging()
		if initErr = initSentry(); initErr != nil {
			return
		}
		initErr = ConnectDB()
	})
	return initErr
}

func LoadConfig() error {
	AppConfig = Config{
		Environment:    getEnv("ENVIRONMENT", "development"),
		ServerPort:     getEnv("SERVER_PORT", "5000"),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", ""),
		DBName:         getEnv("DB_NAME", "dripmail"),
		DBSSLMode:      getEnv("DB_SSL_MODE", "disable"),
		DBMaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
		DBMaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 100),

		JWTSecret:     getEnv("JWT_SECRET", ""),
		PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", ""), "/"),
		CORSOrigins:   getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		SentryDSN:     getEnv("SENTRY_DSN", ""),

		ResendAPIKey: getEnv("RESEND_API_KEY", ""),
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
		},
		DefaultFromName:  getEnv("DEFAULT_FROM_NAME", ""),
		DefaultFromEmail: getEnv("DEFAULT_FROM_EMAIL", ""),

		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Address:  getEnv("REDIS_ADDRESS", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},

		DripSchedule:    getEnv("DRIP_SCHEDULE", "0 0 * * *"),
		DripLockTTL:     getEnvAsDuration("DRIP_LOCK_TTL", 6*time.Hour),
		SendLedger:      strings.ToLower(getEnv("SEND_LEDGER", LedgerDB)),
		RateLimitPublic: getEnvAsInt("RATE_LIMIT_PUBLIC", 20),
	}

	return AppConfig.Validate()
}

// Validate checks the settings the process cannot start without. Mail
// credentials are not checked here, the drip job reports them per run.
func (c Config) Validate() error {
	if c.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.SendLedger {
	case LedgerDB, LedgerNone:
	case LedgerRedis:
		if !c.Redis.Enabled {
			return fmt.Errorf("SEND_LEDGER=redis requires REDIS_ENABLED=true")
		}
	default:
		return fmt.Errorf("SEND_LEDGER must be one of db, redis, none (got %q)", c.SendLedger)
	}
	if c.Environment == "production" && c.PublicBaseURL == "" {
		logrus.Warn("PUBLIC_BASE_URL is not set, unsubscribe links will be relative")
	}
	return nil
}

// SetupLogging configures the global logrus logger for the environment.
func SetupLogging() {
	if AppConfig.Environment == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		logrus.SetLevel(logrus.InfoLevel)
		return
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logrus.SetLevel(logrus.DebugLevel)
}

func initSentry() error {
	if AppConfig.SentryDSN == "" {
		logrus.Info("Sentry DSN not set, error reporting disabled")
		return nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         AppConfig.SentryDSN,
		Environment: AppConfig.Environment,
	}); err != nil {
		return fmt.Errorf("failed to initialize sentry: %w", err)
	}
	return nil
}

func ConnectDB() error {
	log.Println("Attempting to connect to database...")

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		AppConfig.DBHost,
		AppConfig.DBPort,
		AppConfig.DBUser,
		AppConfig.DBPassword,
		AppConfig.DBName,
		AppConfig.DBSSLMode,
	)
	log.Println("Using connection string:", maskPassword(dsn))

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get DB instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(AppConfig.DBMaxIdleConns)
	sqlDB.SetMaxOpenConns(AppConfig.DBMaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	log.Println("✅ Successfully connected to the database")
	log.Println("🔄 Starting database migration...")
	if err := Migrate(DB); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	log.Println("✅ Database migration completed")
	logConfig()
	return nil
}

// ConnectRedis returns a client for the configured redis, or nil when redis
// is disabled.
func ConnectRedis(ctx context.Context) (*redis.Client, error) {
	if !AppConfig.Redis.Enabled {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     AppConfig.Redis.Address,
		Password: AppConfig.Redis.Password,
		DB:       AppConfig.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	logrus.WithField("address", AppConfig.Redis.Address).Info("Connected to redis")
	return client, nil
}

// Migrate creates or updates every table the application owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(models.All()...)
}

// Helper functions
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	if !envLoaded && fallback == "" {
		log.Printf("⚠️ Environment variable %s not found and no fallback provided", key)
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return fallback
	}
	return value
}

// getEnvAsList splits a comma separated value, dropping empty items.
func getEnvAsList(key string, fallback []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return fallback
	}
	return value
}

func maskPassword(dsn string) string {
	const passwordMarker = "password="
	startIdx := strings.Index(dsn, passwordMarker)
	if startIdx == -1 {
		return dsn
	}

	startIdx += len(passwordMarker)
	endIdx := strings.IndexAny(dsn[startIdx:], " ")
	if endIdx == -1 {
		return dsn[:startIdx] + "*****"
	}
	return dsn[:startIdx] + "*****" + dsn[startIdx+endIdx:]
}

func logConfig() {
	logrus.WithFields(logrus.Fields{
		"environment":   AppConfig.Environment,
		"server_port":   AppConfig.ServerPort,
		"database":      fmt.Sprintf("%s@%s:%s/%s", AppConfig.DBUser, AppConfig.DBHost, AppConfig.DBPort, AppConfig.DBName),
		"resend":        AppConfig.ResendAPIKey != "",
		"smtp":          AppConfig.SMTP.Host != "",
		"redis":         AppConfig.Redis.Enabled,
		"send_ledger":   AppConfig.SendLedger,
		"drip_schedule": AppConfig.DripSchedule,
	}).Info("🔧 Loaded configuration")
}
