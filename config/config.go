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
	// Server
	Port        string
	Environment string

	// Database
	Database DatabaseConfig

	// Disease prediction backend
	Prediction PredictionConfig

	// WhatsApp channel
	WhatsApp WhatsAppConfig

	// Guided triage
	Triage TriageConfig

	Log LogConfig

	// Security
	Security SecurityConfig
}

type DatabaseConfig struct {
	Type     string // only "mongodb" is supported
	URI      string
	Name     string
	Host     string
	Port     string
	Username string
	Password string

	// Connection pool settings
	MaxConnections int
	MinConnections int
	MaxIdleTime    time.Duration
}

type PredictionConfig struct {
	BaseURL string
	Path    string
	Timeout time.Duration
	Retries int
}

type WhatsAppConfig struct {
	APIURL        string
	APIVersion    string
	AccessToken   string
	PhoneNumberID string
	VerifyToken   string
	AppSecret     string
}

// Enabled reports whether outbound WhatsApp messages can be sent.
func (w WhatsAppConfig) Enabled() bool {
	return w.AccessToken != "" && w.PhoneNumberID != ""
}

// TriageConfig holds the catalog location and the pacing of bot messages.
type TriageConfig struct {
	CatalogPath   string
	IntroDelay    time.Duration
	PromptDelay   time.Duration
	QuestionDelay time.Duration
	ClarifyDelay  time.Duration
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // console, json
}

type SecurityConfig struct {
	AllowedOrigins []string
}

var cfg *Config

// Load initializes the configuration
func Load() error {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg = FromEnv()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	return nil
}

// FromEnv builds a Config from the current environment without touching
// the package-level instance.
func FromEnv() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		Database: DatabaseConfig{
			Type:     getEnv("DB_TYPE", "mongodb"),
			URI:      getEnv("DATABASE_URL", ""),
			Name:     getEnv("DB_NAME", "pawmi"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "27017"),
			Username: getEnv("DB_USERNAME", ""),
			Password: getEnv("DB_PASSWORD", ""),

			MaxConnections: getEnvAsInt("DB_MAX_CONNECTIONS", 100),
			MinConnections: getEnvAsInt("DB_MIN_CONNECTIONS", 10),
			MaxIdleTime:    getEnvAsDuration("DB_MAX_IDLE_TIME", "30m"),
		},

		Prediction: PredictionConfig{
			BaseURL: getEnv("PREDICTION_API_URL", "http://localhost:8000/api/v1"),
			Path:    getEnv("PREDICTION_API_PATH", "/disease/predict"),
			Timeout: getEnvAsDuration("PREDICTION_TIMEOUT", "30s"),
			Retries: getEnvAsInt("PREDICTION_RETRIES", 1),
		},

		WhatsApp: WhatsAppConfig{
			APIURL:        getEnv("WHATSAPP_API_URL", "https://graph.facebook.com"),
			APIVersion:    getEnv("WHATSAPP_API_VERSION", "v18.0"),
			AccessToken:   getEnv("WHATSAPP_ACCESS_TOKEN", ""),
			PhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
			VerifyToken:   getEnv("WHATSAPP_VERIFY_TOKEN", ""),
			AppSecret:     getEnv("WHATSAPP_APP_SECRET", ""),
		},

		Triage: TriageConfig{
			CatalogPath:   getEnv("TRIAGE_CATALOG_PATH", ""),
			IntroDelay:    getEnvAsDuration("TRIAGE_INTRO_DELAY", "200ms"),
			PromptDelay:   getEnvAsDuration("TRIAGE_PROMPT_DELAY", "350ms"),
			QuestionDelay: getEnvAsDuration("TRIAGE_QUESTION_DELAY", "0s"),
			ClarifyDelay:  getEnvAsDuration("TRIAGE_CLARIFY_DELAY", "200ms"),
		},

		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},

		Security: SecurityConfig{
			AllowedOrigins: getEnvAsSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:8081"}),
		},
	}
}

// Get returns the loaded configuration
func Get() *Config {
	if cfg == nil {
		log.Fatal("Configuration not loaded. Call Load() first")
	}
	return cfg
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks the fields the server cannot run without.
func (c *Config) Validate() error {
	if c.Database.Type != "mongodb" {
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}
	if c.Database.URI == "" && (c.Database.Host == "" || c.Database.Port == "") {
		return fmt.Errorf("database URI or host/port must be provided")
	}

	if c.Prediction.BaseURL == "" {
		return fmt.Errorf("prediction API URL is required")
	}
	if c.Prediction.Timeout <= 0 {
		return fmt.Errorf("prediction timeout must be positive")
	}

	return nil
}

// BuildDatabaseURI constructs the database URI if not provided
func (c *Config) BuildDatabaseURI() string {
	if c.Database.URI != "" {
		return c.Database.URI
	}

	if c.Database.Username != "" && c.Database.Password != "" {
		return fmt.Sprintf("mongodb://%s:%s@%s:%s/%s",
			c.Database.Username,
			c.Database.Password,
			c.Database.Host,
			c.Database.Port,
			c.Database.Name,
		)
	}
	return fmt.Sprintf("mongodb://%s:%s/%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}
