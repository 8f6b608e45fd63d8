package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port            string        `json:"port"`
	Env             string        `json:"env"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	HTTPTimeout     time.Duration `json:"http_timeout"`

	// Redis configuration
	RedisURL string        `json:"redis_url"`
	CacheTTL time.Duration `json:"cache_ttl"`

	// AI text generation
	AIApiKey    string        `json:"ai_api_key"`
	AIModel     string        `json:"ai_model"`
	AITimeout   time.Duration `json:"ai_timeout"`
	AIMaxTokens int           `json:"ai_max_tokens"`
	Temperature float64       `json:"temperature"`

	// Image acquisition
	ImageSearchAPIKey string        `json:"image_search_api_key"`
	ImageGenAPIKey    string        `json:"image_gen_api_key"`
	ImageGenModel     string        `json:"image_gen_model"`
	ImageSize         string        `json:"image_size"`
	DownloadTimeout   time.Duration `json:"download_timeout"`
	GenerateImages    bool          `json:"generate_images"`

	// WordPress target
	WPSiteURL     string `json:"wp_site_url"`
	WPUsername    string `json:"wp_username"`
	WPAppPassword string `json:"-"`
	WPPostStatus  string `json:"wp_post_status"`

	// Publication retry policy
	MaxRetries int `json:"max_retries"`

	// Storage
	DataPath string `json:"data_path"`

	// R2 media archive (optional)
	R2Endpoint  string `json:"r2_endpoint"`
	R2AccessKey string `json:"r2_access_key"`
	R2SecretKey string `json:"-"`
	R2Bucket    string `json:"r2_bucket"`

	// Worker
	WorkerSchedule string `json:"worker_schedule"`

	// Logging
	LogLevel string `json:"log_level"`
	LogFile  string `json:"log_file"`

	// Security
	AdminAPIKey string `json:"admin_api_key"`
}

// Load loads configuration from environment variables and validates it
func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	cfg := &Config{
		// Server configuration
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("APP_ENV", "development"),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		HTTPTimeout:     getEnvAsDuration("HTTP_TIMEOUT", 30*time.Second),

		// Redis configuration
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),
		CacheTTL: getEnvAsDuration("CACHE_TTL", 720*time.Hour), // 30 days

		// AI text generation
		AIApiKey:    getEnv("AI_API_KEY", ""),
		AIModel:     getEnv("AI_MODEL", "gemini-pro"),
		AITimeout:   getEnvAsDuration("AI_TIMEOUT", 60*time.Second),
		AIMaxTokens: getEnvAsInt("AI_MAX_TOKENS", 4000),
		Temperature: getEnvAsFloat("AI_TEMPERATURE", 0.7),

		// Image acquisition
		ImageSearchAPIKey: getEnv("IMAGE_SEARCH_API_KEY", ""),
		ImageGenAPIKey:    getEnv("IMAGE_GEN_API_KEY", ""),
		ImageGenModel:     getEnv("IMAGE_GEN_MODEL", "dall-e-3"),
		ImageSize:         getEnv("IMAGE_SIZE", "1024x1024"),
		DownloadTimeout:   getEnvAsDuration("IMAGE_DOWNLOAD_TIMEOUT", 30*time.Second),
		GenerateImages:    getEnvAsBool("GENERATE_IMAGES", true),

		// WordPress target
		WPSiteURL:     getEnv("WP_SITE_URL", ""),
		WPUsername:    getEnv("WP_USERNAME", ""),
		WPAppPassword: getEnv("WP_APP_PASSWORD", ""),
		WPPostStatus:  getEnv("WP_POST_STATUS", "draft"),

		// Publication retry policy
		MaxRetries: getEnvAsInt("PUBLISH_MAX_RETRIES", 3),

		// Storage
		DataPath: getEnv("DATA_PATH", "./data"),

		// R2 media archive
		R2Endpoint:  getEnv("R2_ENDPOINT", ""),
		R2AccessKey: getEnv("R2_ACCESS_KEY", ""),
		R2SecretKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2Bucket:    getEnv("R2_BUCKET", "pressgen-media"),

		// Worker
		WorkerSchedule: getEnv("WORKER_SCHEDULE", "@every 1m"),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),

		// Security
		AdminAPIKey: getEnv("ADMIN_API_KEY", ""),
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	return cfg
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.MaxRetries < 0 {
		return fmt.Errorf("PUBLISH_MAX_RETRIES must be >= 0, got %d", c.MaxRetries)
	}
	if c.DownloadTimeout <= 0 {
		return fmt.Errorf("IMAGE_DOWNLOAD_TIMEOUT must be positive, got %v", c.DownloadTimeout)
	}
	if c.WPSiteURL != "" && c.WPUsername == "" {
		return fmt.Errorf("WP_USERNAME is required when WP_SITE_URL is set")
	}
	return nil
}

// HasWordPressTarget reports whether a publish target is configured.
func (c *Config) HasWordPressTarget() bool {
	return c.WPSiteURL != ""
}

// HasR2Archive reports whether the optional media archive is configured.
func (c *Config) HasR2Archive() bool {
	return c.R2Endpoint != "" && c.R2AccessKey != "" && c.R2SecretKey != ""
}

// Helper functions for environment variable handling
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(name string, defaultVal int) int {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %d", name, err, defaultVal)
		return defaultVal
	}
	return value
}

func getEnvAsFloat(name string, defaultVal float64) float64 {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %v", name, err, defaultVal)
		return defaultVal
	}
	return value
}

func getEnvAsBool(name string, defaultVal bool) bool {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %v", name, err, defaultVal)
		return defaultVal
	}
	return value
}

func getEnvAsDuration(name string, defaultVal time.Duration) time.Duration {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %v", name, err, defaultVal)
		return defaultVal
	}
	return value
}
