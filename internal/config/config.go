package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrMissingConfig is returned by Load when a required setting is absent.
// It is not recoverable; the process should exit.
var ErrMissingConfig = errors.New("missing required configuration")

// ErrInvalidConfig is returned by Load when a setting cannot be parsed.
var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	App       *AppConfig       `yaml:"app"`
	Database  *DatabaseConfig  `yaml:"database"`
	Redis     *RedisConfig     `yaml:"redis"`
	SMS       *SMSConfig       `yaml:"sms"`
	Maps      *MapsConfig      `yaml:"maps"`
	WebSocket *WebSocketConfig `yaml:"websocket"`
	Security  *SecurityConfig  `yaml:"security"`
	Booking   *BookingConfig   `yaml:"booking"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
	Port        int    `yaml:"port"`
	Host        string `yaml:"host"`
	Debug       bool   `yaml:"debug"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	Timezone    string `yaml:"timezone"`
	Currency    string `yaml:"currency"`
	StoreDriver string `yaml:"store_driver"`
}

type SecurityConfig struct {
	JWTSecret          string        `yaml:"jwt_secret"`
	SessionTTL         time.Duration `yaml:"session_ttl"`
	PasswordMinLength  int           `yaml:"password_min_length"`
	OTPLengthBooking   int           `yaml:"otp_length_booking"`
	OTPLengthSignup    int           `yaml:"otp_length_signup"`
	OTPExpiry          time.Duration `yaml:"otp_expiry"`
	OTPMaxAttempts     int           `yaml:"otp_max_attempts"`
	OTPSource          string        `yaml:"otp_source"` // local, remote
	CORSAllowedOrigins []string      `yaml:"cors_allowed_origins"`
}

// Load reads the configuration from the environment. Settings without a
// sensible default are checked here so a misconfigured process fails at
// startup instead of on the first request.
func Load() (*Config, error) {
	config := &Config{
		App:       loadAppConfig(),
		Database:  loadDatabaseConfig(),
		Redis:     loadRedisConfig(),
		SMS:       loadSMSConfig(),
		Maps:      loadMapsConfig(),
		WebSocket: loadWebSocketConfig(),
		Security:  loadSecurityConfig(),
		Booking:   loadBookingConfig(),
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	var missing []string
	if c.Booking.BaseURL == "" {
		missing = append(missing, "BOOKING_API_BASE_URL")
	}
	if c.Booking.AuthToken == "" {
		missing = append(missing, "BOOKING_API_AUTH")
	}
	if c.App.Environment == "production" && c.Security.JWTSecret == defaultJWTSecret {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(missing, ", "))
	}

	location, err := time.LoadLocation(c.Booking.TimeZone)
	if err != nil {
		return fmt.Errorf("%w: BOOKING_TIME_ZONE %q: %v", ErrInvalidConfig, c.Booking.TimeZone, err)
	}
	c.Booking.Location = location
	return nil
}

// IsProduction reports whether development conveniences (such as echoing
// OTP codes back to the caller) must be disabled.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

const defaultJWTSecret = "driverhire-dev-secret"

func loadAppConfig() *AppConfig {
	return &AppConfig{
		Name:        getEnv("APP_NAME", "DriverHire"),
		Version:     getEnv("APP_VERSION", "1.0.0"),
		Environment: getEnv("APP_ENV", "development"),
		Port:        getEnvAsInt("APP_PORT", 8080),
		Host:        getEnv("APP_HOST", "localhost"),
		Debug:       getEnvAsBool("APP_DEBUG", true),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "json"),
		Timezone:    getEnv("APP_TIMEZONE", "Asia/Kolkata"),
		Currency:    getEnv("APP_CURRENCY", "INR"),
		StoreDriver: getEnv("STORE_DRIVER", "memory"),
	}
}

func loadSecurityConfig() *SecurityConfig {
	return &SecurityConfig{
		JWTSecret:          getEnv("JWT_SECRET", defaultJWTSecret),
		SessionTTL:         getEnvAsDuration("SESSION_TTL", 30*24*time.Hour),
		PasswordMinLength:  getEnvAsInt("PASSWORD_MIN_LENGTH", 8),
		OTPLengthBooking:   getEnvAsInt("OTP_LENGTH_BOOKING", 4),
		OTPLengthSignup:    getEnvAsInt("OTP_LENGTH_SIGNUP", 6),
		OTPExpiry:          getEnvAsDuration("OTP_EXPIRY", 5*time.Minute),
		OTPMaxAttempts:     getEnvAsInt("OTP_MAX_ATTEMPTS", 3),
		OTPSource:          getEnv("OTP_SOURCE", "local"),
		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}
}

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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
