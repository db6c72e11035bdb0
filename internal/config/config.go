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

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// JWT configuration
	JWT JWTConfig

	// CORS configuration
	CORS CORSConfig

	// Payment gateway configuration
	Payment PaymentConfig

	// SMS gateway configuration
	SMS SMSConfig

	// Scheduler configuration
	Scheduler SchedulerConfig

	// Booking configuration
	Booking BookingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret             string
	RefreshSecret      string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// PaymentConfig holds Razorpay gateway configuration
type PaymentConfig struct {
	Environment string // "sandbox" or "production"
	BaseURL     string
	KeyID       string
	KeySecret   string // SECRET - never expose to client
	Currency    string
}

// SMSConfig holds SMS gateway configuration. When disabled, notifications
// go to the structured log instead.
type SMSConfig struct {
	Enabled  bool
	APIURL   string
	Username string
	Password string // SECRET - never expose to client
	Mask     string
}

// SchedulerConfig holds cron schedules for the background sweeps
type SchedulerConfig struct {
	Enabled            bool
	PaymentRequestSpec string
	PastRideSpec       string
	OneHourWarningSpec string
	FundReleaseSpec    string
}

// BookingConfig holds booking lifecycle tuning
type BookingConfig struct {
	PaymentDueBefore    time.Duration // how long before departure payment is requested
	OTPExpiry           time.Duration
	SelfStartBefore     time.Duration // passenger self-start window opens
	SelfStartAfter      time.Duration // passenger self-start window closes
	PastRideGracePeriod time.Duration // departure + grace before forced completion
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", ""),
			RefreshSecret:      getEnv("JWT_REFRESH_SECRET", ""),
			AccessTokenExpiry:  time.Duration(getEnvAsInt("JWT_ACCESS_TOKEN_EXPIRY", 3600)) * time.Second,
			RefreshTokenExpiry: time.Duration(getEnvAsInt("JWT_REFRESH_TOKEN_EXPIRY", 604800)) * time.Second,
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
		},
		Payment: PaymentConfig{
			Environment: getEnv("RAZORPAY_ENVIRONMENT", "sandbox"),
			BaseURL:     getEnv("RAZORPAY_BASE_URL", "https://api.razorpay.com/v1"),
			KeyID:       getEnv("RAZORPAY_KEY_ID", ""),
			KeySecret:   getEnv("RAZORPAY_KEY_SECRET", ""),
			Currency:    getEnv("RAZORPAY_CURRENCY", "INR"),
		},
		SMS: SMSConfig{
			Enabled:  getEnvAsBool("SMS_ENABLED", false),
			APIURL:   getEnv("SMS_API_URL", ""),
			Username: getEnv("SMS_USERNAME", ""),
			Password: getEnv("SMS_PASSWORD", ""),
			Mask:     getEnv("SMS_MASK", "RIDEHUB"),
		},
		Scheduler: SchedulerConfig{
			Enabled:            getEnvAsBool("SCHEDULER_ENABLED", true),
			PaymentRequestSpec: getEnv("SCHEDULER_PAYMENT_REQUEST_SPEC", "0 */2 * * * *"),
			PastRideSpec:       getEnv("SCHEDULER_PAST_RIDE_SPEC", "0 0 * * * *"),
			OneHourWarningSpec: getEnv("SCHEDULER_ONE_HOUR_WARNING_SPEC", "0 */10 * * * *"),
			FundReleaseSpec:    getEnv("SCHEDULER_FUND_RELEASE_SPEC", "0 */5 * * * *"),
		},
		Booking: BookingConfig{
			PaymentDueBefore:    time.Duration(getEnvAsInt("BOOKING_PAYMENT_DUE_HOURS", 24)) * time.Hour,
			OTPExpiry:           time.Duration(getEnvAsInt("BOARDING_OTP_EXPIRY_MINUTES", 15)) * time.Minute,
			SelfStartBefore:     time.Duration(getEnvAsInt("SELF_START_BEFORE_MINUTES", 60)) * time.Minute,
			SelfStartAfter:      time.Duration(getEnvAsInt("SELF_START_AFTER_MINUTES", 120)) * time.Minute,
			PastRideGracePeriod: time.Duration(getEnvAsInt("PAST_RIDE_GRACE_HOURS", 2)) * time.Hour,
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.JWT.RefreshSecret == "" {
		return fmt.Errorf("JWT_REFRESH_SECRET is required")
	}

	if c.SMS.Enabled {
		if c.SMS.APIURL == "" {
			return fmt.Errorf("SMS_API_URL is required when SMS is enabled")
		}
		if c.SMS.Username == "" || c.SMS.Password == "" {
			return fmt.Errorf("SMS_USERNAME and SMS_PASSWORD are required when SMS is enabled")
		}
	}

	// Gateway credentials are only mandatory outside the sandbox
	if c.Payment.Environment == "production" {
		if c.Payment.KeyID == "" {
			return fmt.Errorf("RAZORPAY_KEY_ID is required in production mode")
		}
		if c.Payment.KeySecret == "" {
			return fmt.Errorf("RAZORPAY_KEY_SECRET is required in production mode")
		}
	}

	return nil
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
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
		log.Printf("Invalid boolean value for %s, using default: %t", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
