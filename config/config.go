package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Vision   VisionConfig
	Storage  StorageConfig
	Firebase FirebaseConfig
	Quota    QuotaConfig
	App      AppConfig
}

type ServerConfig struct {
	Port            string
	MaxUploadBytes  int64
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

type DatabaseConfig struct {
	DSN      string
	MaxConns int
	MinConns int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type VisionConfig struct {
	Provider          string
	APIKey            string
	BaseURL           string
	Model             string
	MaxTokens         int
	Temperature       float64
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

type StorageConfig struct {
	Bucket        string
	Region        string
	Endpoint      string
	PublicBaseURL string
	PublicRead    bool
}

type FirebaseConfig struct {
	CredentialsPath string
	CredentialsJSON string
	ProjectID       string
}

// Enabled reports whether token verification is configured.
func (f FirebaseConfig) Enabled() bool {
	return f.CredentialsPath != "" || f.CredentialsJSON != ""
}

// Quota store backends.
const (
	QuotaStorePostgres = "postgres"
	QuotaStoreRedis    = "redis"
)

type QuotaConfig struct {
	Store     string
	Timezone  string
	ResetCron string
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
	ServiceName string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			MaxUploadBytes:  int64(getEnvAsInt("MAX_UPLOAD_BYTES", 20*1024*1024)),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
			AllowedOrigins:  getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			DSN:      getEnv("DB_DSN", ""),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns: getEnvAsInt("DB_MIN_CONNS", 2),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Vision: VisionConfig{
			Provider:          getEnv("VISION_PROVIDER", "openai"),
			APIKey:            getEnv("OPENAI_API_KEY", ""),
			BaseURL:           getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:             getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			MaxTokens:         getEnvAsInt("OPENAI_MAX_TOKENS", 2000),
			Temperature:       getEnvAsFloat("OPENAI_TEMPERATURE", 0.7),
			Timeout:           getEnvAsDuration("VISION_TIMEOUT", 30*time.Second),
			RequestsPerSecond: getEnvAsFloat("VISION_RATE_LIMIT", 5),
			Burst:             getEnvAsInt("VISION_RATE_BURST", 10),
		},
		Storage: StorageConfig{
			Bucket:        getEnv("S3_BUCKET", ""),
			Region:        getEnv("S3_REGION", getEnv("AWS_REGION", "ap-northeast-2")),
			Endpoint:      getEnv("S3_ENDPOINT", ""),
			PublicBaseURL: getEnv("S3_PUBLIC_BASE_URL", ""),
			PublicRead:    getEnvAsBool("S3_PUBLIC_READ", false),
		},
		Firebase: FirebaseConfig{
			CredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
			CredentialsJSON: getEnv("FIREBASE_CREDENTIALS_JSON", ""),
			ProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		},
		Quota: QuotaConfig{
			Store:     strings.ToLower(getEnv("QUOTA_STORE", QuotaStorePostgres)),
			Timezone:  getEnv("QUOTA_TIMEZONE", "Asia/Seoul"),
			ResetCron: getEnv("QUOTA_RESET_CRON", "0 0 0 * * *"),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			ServiceName: getEnv("SERVICE_NAME", "bloomi-backend"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Database.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}

	switch c.Quota.Store {
	case QuotaStorePostgres:
	case QuotaStoreRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required when QUOTA_STORE=redis")
		}
	default:
		return fmt.Errorf("QUOTA_STORE must be %q or %q, got %q", QuotaStorePostgres, QuotaStoreRedis, c.Quota.Store)
	}

	if _, err := c.Quota.Location(); err != nil {
		return err
	}

	if c.Vision.Timeout <= 0 {
		return fmt.Errorf("VISION_TIMEOUT must be positive")
	}

	return nil
}

// Location resolves the zone whose calendar day the quota follows.
func (q QuotaConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(q.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid QUOTA_TIMEZONE %q: %w", q.Timezone, err)
	}
	return loc, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid number for %s, using default: %g", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean for %s, using default: %t", key, defaultValue)
		return defaultValue
	}

	return value
}

// getEnvAsDuration accepts Go durations ("30s") or plain milliseconds ("30000").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	if ms, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
