package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all configuration for our application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Business BusinessConfig `mapstructure:"business"`
	Health   HealthConfig   `mapstructure:"health"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"SERVER_PORT"`
	Host         string        `mapstructure:"SERVER_HOST"`
	Env          string        `mapstructure:"ENV"`
	ReadTimeout  time.Duration `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"SERVER_WRITE_TIMEOUT"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"DATABASE_HOST"`
	Port            string        `mapstructure:"DATABASE_PORT"`
	Name            string        `mapstructure:"DATABASE_NAME"`
	User            string        `mapstructure:"DATABASE_USER"`
	Password        string        `mapstructure:"DATABASE_PASSWORD"`
	SSLMode         string        `mapstructure:"DATABASE_SSLMODE"`
	MaxOpenConns    int           `mapstructure:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `mapstructure:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `mapstructure:"DATABASE_CONN_MAX_LIFETIME"`
}

type RedisConfig struct {
	Host     string `mapstructure:"REDIS_HOST"`
	Port     string `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
}

type BusinessConfig struct {
	FlatDailyLateFee  string `mapstructure:"FLAT_DAILY_LATE_FEE"`
	DailyPercentFee   string `mapstructure:"DAILY_PERCENT_LATE_FEE"`
	PaymentTolerance  string `mapstructure:"PAYMENT_TOLERANCE"`
	CardValidityYears int    `mapstructure:"CARD_VALIDITY_YEARS"`
	OTPValiditySecs   int    `mapstructure:"OTP_VALIDITY_SECONDS"`
}

type HealthConfig struct {
	Timeout string `mapstructure:"HEALTH_CHECK_TIMEOUT"`
}

// Load reads configuration from environment variables and files
func Load() (*Config, error) {
	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_READ_TIMEOUT", "15s")
	viper.SetDefault("SERVER_WRITE_TIMEOUT", "15s")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("DATABASE_HOST", "localhost")
	viper.SetDefault("DATABASE_PORT", "5432")
	viper.SetDefault("DATABASE_NAME", "bnpl_engine")
	viper.SetDefault("DATABASE_USER", "postgres")
	viper.SetDefault("DATABASE_PASSWORD", "postgres")
	viper.SetDefault("DATABASE_SSLMODE", "disable")
	viper.SetDefault("DATABASE_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DATABASE_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DATABASE_CONN_MAX_LIFETIME", "5m")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("FLAT_DAILY_LATE_FEE", "1.00")
	viper.SetDefault("DAILY_PERCENT_LATE_FEE", "0.005")
	viper.SetDefault("PAYMENT_TOLERANCE", "0.01")
	viper.SetDefault("CARD_VALIDITY_YEARS", 5)
	viper.SetDefault("OTP_VALIDITY_SECONDS", 60)
	viper.SetDefault("HEALTH_CHECK_TIMEOUT", "5s")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read from .env file (optional)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./deployments")

	// Don't fail if .env file doesn't exist
	_ = viper.ReadInConfig()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Database.Name == "" {
		return fmt.Errorf("DATABASE_NAME is required")
	}

	if c.Business.CardValidityYears <= 0 {
		return fmt.Errorf("CARD_VALIDITY_YEARS must be greater than 0")
	}

	if c.Business.OTPValiditySecs <= 0 {
		return fmt.Errorf("OTP_VALIDITY_SECONDS must be greater than 0")
	}

	if _, err := decimal.NewFromString(c.Business.FlatDailyLateFee); err != nil {
		return fmt.Errorf("FLAT_DAILY_LATE_FEE must be a valid decimal: %w", err)
	}

	if _, err := decimal.NewFromString(c.Business.DailyPercentFee); err != nil {
		return fmt.Errorf("DAILY_PERCENT_LATE_FEE must be a valid decimal: %w", err)
	}

	if _, err := decimal.NewFromString(c.Business.PaymentTolerance); err != nil {
		return fmt.Errorf("PAYMENT_TOLERANCE must be a valid decimal: %w", err)
	}

	if _, err := time.ParseDuration(c.Health.Timeout); err != nil {
		return fmt.Errorf("HEALTH_CHECK_TIMEOUT must be a valid duration: %w", err)
	}

	return nil
}

// DSN builds the Postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

// GetPaymentTolerance returns the installment payment tolerance as decimal
func (c *Config) GetPaymentTolerance() decimal.Decimal {
	tolerance, _ := decimal.NewFromString(c.Business.PaymentTolerance)
	return tolerance
}

// GetFlatDailyFee returns the flat per-day late fee as decimal
func (c *Config) GetFlatDailyFee() decimal.Decimal {
	fee, _ := decimal.NewFromString(c.Business.FlatDailyLateFee)
	return fee
}

// GetDailyPercentFee returns the percentage-of-amount per-day late fee rate
func (c *Config) GetDailyPercentFee() decimal.Decimal {
	rate, _ := decimal.NewFromString(c.Business.DailyPercentFee)
	return rate
}

// GetOTPValidity returns the one-time-code lifetime
func (c *Config) GetOTPValidity() time.Duration {
	return time.Duration(c.Business.OTPValiditySecs) * time.Second
}

// GetHealthTimeout returns the health check timeout
func (c *Config) GetHealthTimeout() time.Duration {
	timeout, _ := time.ParseDuration(c.Health.Timeout)
	return timeout
}
