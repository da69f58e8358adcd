package config

import (
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var envLoaded bool

type RedisConfig struct {
	Address  string `json:"address"`
	Password string `json:"-"`
	DB       int    `json:"db"`
}

type SMTPConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"-"`
	From     string `json:"from"`
}

type StorageConfig struct {
	Backend       string `json:"backend"` // local or s3
	ExportDir     string `json:"export_dir"`
	S3Bucket      string `json:"s3_bucket"`
	S3Region      string `json:"s3_region"`
	S3Endpoint    string `json:"s3_endpoint"`
	S3AccessKey   string `json:"-"`
	S3SecretKey   string `json:"-"`
	S3UsePathStyle bool  `json:"s3_use_path_style"`
}

// Config holds all process configuration. It is built once at startup and
// passed by reference into each component; nothing mutates it afterwards.
type Config struct {
	Environment         string        `json:"environment"`
	Version             string        `json:"version"`
	ServerPort          string        `json:"server_port"`
	JWTSecret           string        `json:"-"`
	EncryptionKey       string        `json:"-"`
	DBHost              string        `json:"db_host"`
	DBPort              string        `json:"db_port"`
	DBUser              string        `json:"db_user"`
	DBPassword          string        `json:"-"`
	DBName              string        `json:"db_name"`
	DBSSLMode           string        `json:"db_ssl_mode"`
	DBMaxIdleConns      int           `json:"db_max_idle_conns"`
	DBMaxOpenConns      int           `json:"db_max_open_conns"`
	StripeSecretKey     string        `json:"-"`
	StripeWebhookSecret string        `json:"-"`
	OpenRouterAPIKey    string        `json:"-"`
	OpenRouterBaseURL   string        `json:"openrouter_base_url"`
	LLMModel            string        `json:"llm_model"`
	SentryDSN           string        `json:"-"`
	RateLimitPerMinute  int           `json:"rate_limit_per_minute"`
	TaskMaxAttempts     int           `json:"task_max_attempts"`
	TaskBackoffBase     time.Duration `json:"task_backoff_base"`
	Redis               RedisConfig   `json:"redis"`
	SMTP                SMTPConfig    `json:"smtp"`
	Storage             StorageConfig `json:"storage"`
}

func init() {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()
	envLoaded = true
}

func Load() (*Config, error) {
	cfg := &Config{
		Environment:         getEnv("ENVIRONMENT", "development"),
		Version:             getEnv("APP_VERSION", "1.0.0"),
		ServerPort:          getEnv("SERVER_PORT", "5000"),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		EncryptionKey:       getEnv("ENCRYPTION_KEY", ""),
		DBHost:              getEnv("DB_HOST", "localhost"),
		DBPort:              getEnv("DB_PORT", "5432"),
		DBUser:              getEnv("DB_USER", "postgres"),
		DBPassword:          getEnv("DB_PASSWORD", ""),
		DBName:              getEnv("DB_NAME", "finflow"),
		DBSSLMode:           getEnv("DB_SSL_MODE", "disable"),
		DBMaxIdleConns:      getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
		DBMaxOpenConns:      getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		OpenRouterAPIKey:    getEnv("OPENROUTER_API_KEY", ""),
		OpenRouterBaseURL:   getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		LLMModel:            getEnv("DEFAULT_LLM_MODEL", "openai/gpt-4o"),
		SentryDSN:           getEnv("SENTRY_DSN", ""),
		RateLimitPerMinute:  getEnvAsInt("RATE_LIMIT_PER_MINUTE", 100),
		TaskMaxAttempts:     getEnvAsInt("TASK_MAX_ATTEMPTS", 3),
		TaskBackoffBase:     time.Duration(getEnvAsInt("TASK_BACKOFF_BASE_SECONDS", 60)) * time.Second,
		Redis: RedisConfig{
			Address:  getEnv("REDIS_ADDRESS", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("FROM_EMAIL", "no-reply@finflow.app"),
		},
		Storage: StorageConfig{
			Backend:        getEnv("EXPORT_STORAGE_BACKEND", "local"),
			ExportDir:      getEnv("EXPORT_DIR", "exports"),
			S3Bucket:       getEnv("EXPORT_S3_BUCKET", ""),
			S3Region:       getEnv("EXPORT_S3_REGION", "us-east-1"),
			S3Endpoint:     getEnv("EXPORT_S3_ENDPOINT", ""),
			S3AccessKey:    getEnv("EXPORT_S3_ACCESS_KEY", ""),
			S3SecretKey:    getEnv("EXPORT_S3_SECRET_KEY", ""),
			S3UsePathStyle: getEnv("EXPORT_S3_USE_PATH_STYLE", "") == "true",
		},
	}

	// Validate required configurations
	if cfg.DBPassword == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.EncryptionKey == "" {
		return nil, fmt.Errorf("ENCRYPTION_KEY is required")
	}
	// The audit encryptor rejects malformed keys too, but failing here keeps
	// the process from serving a single request with a bad key.
	if raw, err := base64.StdEncoding.DecodeString(cfg.EncryptionKey); err != nil || len(raw) != 32 {
		return nil, fmt.Errorf("ENCRYPTION_KEY must be a base64 encoded 32-byte key")
	}
	if cfg.StripeSecretKey == "" {
		return nil, fmt.Errorf("STRIPE_SECRET_KEY is required for billing")
	}
	if cfg.StripeWebhookSecret == "" {
		return nil, fmt.Errorf("STRIPE_WEBHOOK_SECRET is required for billing webhooks")
	}
	if cfg.Storage.Backend == "s3" && cfg.Storage.S3Bucket == "" {
		return nil, fmt.Errorf("EXPORT_S3_BUCKET is required when EXPORT_STORAGE_BACKEND=s3")
	}

	logConfig(cfg)
	return cfg, nil
}

func ConnectDB(cfg *Config) (*gorm.DB, error) {
	log.Println("Attempting to connect to database...")

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBName,
		cfg.DBSSLMode,
	)
	log.Println("Using connection string:", maskPassword(dsn))

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get DB instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	log.Println("✅ Successfully connected to the database")
	return db, nil
}

func ConnectRedis(cfg *Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
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
	var value int
	_, err := fmt.Sscanf(valueStr, "%d", &value)
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

func logConfig(cfg *Config) {
	log.Println("🔧 Loaded configuration:")
	log.Printf("Environment: %s", cfg.Environment)
	log.Printf("Server Port: %s", cfg.ServerPort)
	log.Printf("Database: %s@%s:%s/%s",
		cfg.DBUser,
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName)
	log.Printf("Redis: %s (db %d)", cfg.Redis.Address, cfg.Redis.DB)
	log.Printf("Export storage: %s", cfg.Storage.Backend)
}
