package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// Every environment variable is read here and nowhere else.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External services
	Ollama    OllamaConfig
	Retriever RetrieverConfig
	SEC       SECConfig
	News      NewsConfig

	// Refresh pipeline
	Refresh RefreshConfig

	// Scoring
	Scoring ScoringConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
	MetricsPort    string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	URL      string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// OllamaConfig holds the text-generation service configuration
type OllamaConfig struct {
	Model   string
	BaseURL string
	Timeout time.Duration
}

// RetrieverConfig holds the vector-retrieval sidecar configuration
type RetrieverConfig struct {
	BaseURL string
	TopK    int
	Timeout time.Duration
}

// SECConfig holds SEC EDGAR configuration
type SECConfig struct {
	BaseURL   string
	UserAgent string
}

// NewsConfig holds news scraping configuration
type NewsConfig struct {
	MaxArticles    int
	UserAgent      string
	RequestTimeout time.Duration
}

// RefreshConfig holds cache refresh configuration
type RefreshConfig struct {
	Times           []string // "HH:MM" local times, e.g. 09:00,15:00
	StalenessWindow time.Duration
	Workers         int
	SeedSymbols     []string
}

// ScoringConfig holds scoring engine configuration
type ScoringConfig struct {
	ConfigFile         string // optional YAML thresholds/weights file
	BatchPrefilterSize int
}

// Load reads configuration from environment variables.
// Only this function calls os.Getenv().
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			Name:            getEnv("DB_NAME", "duallens"),
			User:            getEnv("DB_USER", "duallens"),
			Password:        getEnv("DB_PASSWORD", ""),
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},

		// External services
		Ollama: OllamaConfig{
			Model:   getEnv("OLLAMA_MODEL", "phi3:mini"),
			BaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			Timeout: getEnvAsDuration("OLLAMA_TIMEOUT", "120s"),
		},

		Retriever: RetrieverConfig{
			BaseURL: getEnv("RETRIEVER_BASE_URL", "http://localhost:8091"),
			TopK:    getEnvAsInt("RETRIEVER_TOP_K", 8),
			Timeout: getEnvAsDuration("RETRIEVER_TIMEOUT", "30s"),
		},

		SEC: SECConfig{
			BaseURL:   getEnv("SEC_BASE_URL", "https://data.sec.gov"),
			UserAgent: getEnv("SEC_USER_AGENT", "DualLens Analytics contact@duallens.local"),
		},

		News: NewsConfig{
			MaxArticles:    getEnvAsInt("NEWS_MAX_ARTICLES", 8),
			UserAgent:      getEnv("NEWS_USER_AGENT", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"),
			RequestTimeout: getEnvAsDuration("NEWS_REQUEST_TIMEOUT", "10s"),
		},

		// Refresh pipeline
		Refresh: RefreshConfig{
			Times:           getEnvAsList("REFRESH_TIMES", "09:00,15:00"),
			StalenessWindow: getEnvAsDuration("STALENESS_WINDOW", "12h"),
			Workers:         getEnvAsInt("REFRESH_WORKERS", 5),
			SeedSymbols:     getEnvAsList("SEED_SYMBOLS", "GOOGL,MSFT,IBM,NVDA,AMZN"),
		},

		// Scoring
		Scoring: ScoringConfig{
			ConfigFile:         getEnv("SCORING_CONFIG_FILE", ""),
			BatchPrefilterSize: getEnvAsInt("BATCH_PREFILTER_SIZE", 30),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		MetricsPort:    getEnv("METRICS_PORT", "9090"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Refresh.StalenessWindow <= 0 {
		return fmt.Errorf("STALENESS_WINDOW must be positive")
	}

	if c.Scoring.BatchPrefilterSize < 1 {
		return fmt.Errorf("BATCH_PREFILTER_SIZE must be >= 1")
	}

	for _, t := range c.Refresh.Times {
		if _, _, err := ParseClock(t); err != nil {
			return fmt.Errorf("REFRESH_TIMES: %w", err)
		}
	}

	return nil
}

// ParseClock parses an "HH:MM" clock time into hour and minute.
func ParseClock(s string) (hour, minute int, err error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid clock time %q (want HH:MM)", s)
	}

	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in clock time %q", s)
	}

	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in clock time %q", s)
	}

	return hour, minute, nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
			filepath.Join(exeDir, "..", "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
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
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

func getEnvAsList(key string, defaultValue string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
