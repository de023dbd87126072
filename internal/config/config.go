package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/Tesseract-Nexus/go-shared/secrets"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Portal   PortalConfig   `mapstructure:"portal"`
}

type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           string   `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret            string `mapstructure:"secret"`
	RefreshSecret     string `mapstructure:"refresh_secret"`
	AccessExpiryMins  int    `mapstructure:"access_expiry_mins"`
	RefreshExpiryDays int    `mapstructure:"refresh_expiry_days"`
}

// PortalConfig holds business settings for the partner portal.
type PortalConfig struct {
	// DefaultConversionAmount is the commission owed to a partner when one
	// of their leads converts.
	DefaultConversionAmount float64 `mapstructure:"default_conversion_amount"`
	// PaymentDueDays is the number of days after conversion that the
	// derived payment falls due.
	PaymentDueDays int `mapstructure:"payment_due_days"`
}

// ConversionAmount returns the payout owed per converted lead.
func (p PortalConfig) ConversionAmount() float64 {
	return p.DefaultConversionAmount
}

// DueDays returns how many days after conversion a payment falls due.
func (p PortalConfig) DueDays() int {
	return p.PaymentDueDays
}

func LoadConfig() *Config {
	config := &Config{}

	// Set default values
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", "3090")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("server.allowed_origins", []string{
		"http://localhost:3000", // Portal frontend
		"http://localhost:80",   // Nginx proxy
	})

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", "5432")
	viper.SetDefault("database.user", "dev")
	viper.SetDefault("database.password", "devpass")
	viper.SetDefault("database.name", "partner_portal")
	viper.SetDefault("database.sslmode", "disable")

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", "6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("jwt.secret", "your-super-secret-jwt-key-change-in-production")
	viper.SetDefault("jwt.refresh_secret", "your-refresh-token-secret-here")
	viper.SetDefault("jwt.access_expiry_mins", 15)
	viper.SetDefault("jwt.refresh_expiry_days", 7)

	viper.SetDefault("portal.default_conversion_amount", 10000.0)
	viper.SetDefault("portal.payment_due_days", 15)

	// Read from environment variables
	viper.AutomaticEnv()

	// Override with environment variables if they exist
	if host := os.Getenv("SERVER_HOST"); host != "" {
		viper.Set("server.host", host)
	}
	if port := os.Getenv("PORT"); port != "" {
		viper.Set("server.port", port)
	}
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		viper.Set("server.mode", mode)
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		viper.Set("server.allowed_origins", strings.Split(origins, ","))
	}

	// Database environment variables
	if dbHost := os.Getenv("DB_HOST"); dbHost != "" {
		viper.Set("database.host", dbHost)
	}
	if dbPort := os.Getenv("DB_PORT"); dbPort != "" {
		viper.Set("database.port", dbPort)
	}
	if dbUser := os.Getenv("DB_USER"); dbUser != "" {
		viper.Set("database.user", dbUser)
	}
	// Get DB password from GCP Secret Manager (if enabled) or env var
	dbPassword := secrets.GetDBPassword()
	viper.Set("database.password", dbPassword)
	if dbName := os.Getenv("DB_NAME"); dbName != "" {
		viper.Set("database.name", dbName)
	}
	if dbSSLMode := os.Getenv("DB_SSLMODE"); dbSSLMode != "" {
		viper.Set("database.sslmode", dbSSLMode)
	}

	// Redis environment variables
	if redisHost := os.Getenv("REDIS_HOST"); redisHost != "" {
		viper.Set("redis.host", redisHost)
	}
	if redisPort := os.Getenv("REDIS_PORT"); redisPort != "" {
		viper.Set("redis.port", redisPort)
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		viper.Set("redis.password", redisPassword)
	}

	// JWT environment variables - fetch from GCP Secret Manager if enabled
	jwtSecret := secrets.GetJWTSecret()
	viper.Set("jwt.secret", jwtSecret)
	if refreshSecret := os.Getenv("JWT_REFRESH_SECRET"); refreshSecret != "" {
		viper.Set("jwt.refresh_secret", refreshSecret)
	}

	// Business settings. The conversion amount is operator-set and read at
	// payment-derivation time, never cached by callers.
	if raw := os.Getenv("DEFAULT_CONVERSION_AMOUNT"); raw != "" {
		amount, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			log.Fatalf("Invalid DEFAULT_CONVERSION_AMOUNT %q: %v", raw, err)
		}
		viper.Set("portal.default_conversion_amount", amount)
	}
	if raw := os.Getenv("PAYMENT_DUE_DAYS"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil {
			log.Fatalf("Invalid PAYMENT_DUE_DAYS %q: %v", raw, err)
		}
		viper.Set("portal.payment_due_days", days)
	}

	// Unmarshal into config struct
	if err := viper.Unmarshal(config); err != nil {
		log.Fatalf("Unable to decode config: %v", err)
	}

	return config
}
