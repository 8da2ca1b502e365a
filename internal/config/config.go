package config

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Notification NotificationConfig
	Order        OrderConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Schema   string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret        string
	AccessExpiry  int // in minutes
	RefreshExpiry int // in days
}

// NotificationConfig configures the transactional email dispatcher. An empty
// APIKey disables sending; notifications are then logged and dropped.
type NotificationConfig struct {
	APIKey      string
	APIURL      string
	SenderName  string
	SenderEmail string
	AdminEmail  string
}

// OrderConfig tunes the order placement engine.
type OrderConfig struct {
	TxAttempts int // total attempts for a conflicting transaction
}

func Load() *Config {
	// Populate the process environment from .env if present, then let viper
	// pick everything up.
	_ = godotenv.Load()

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("ALLOWED_ORIGINS", []string{"http://localhost:3000"})
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SCHEMA", "public")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("JWT_ACCESS_EXPIRY", 15)
	viper.SetDefault("JWT_REFRESH_EXPIRY", 7)
	viper.SetDefault("NOTIFY_API_URL", "https://api.brevo.com/v3/smtp/email")
	viper.SetDefault("NOTIFY_SENDER_NAME", "GrocEazy Team")
	viper.SetDefault("NOTIFY_SENDER_EMAIL", "noreply@groceazy.com")
	viper.SetDefault("ORDER_TX_ATTEMPTS", 3)

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			Env:            viper.GetString("SERVER_ENV"),
			AllowedOrigins: viper.GetStringSlice("ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Database: viper.GetString("DB_DATABASE"),
			Schema:   viper.GetString("DB_SCHEMA"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:        viper.GetString("JWT_SECRET"),
			AccessExpiry:  viper.GetInt("JWT_ACCESS_EXPIRY"),
			RefreshExpiry: viper.GetInt("JWT_REFRESH_EXPIRY"),
		},
		Notification: NotificationConfig{
			APIKey:      viper.GetString("NOTIFY_API_KEY"),
			APIURL:      viper.GetString("NOTIFY_API_URL"),
			SenderName:  viper.GetString("NOTIFY_SENDER_NAME"),
			SenderEmail: viper.GetString("NOTIFY_SENDER_EMAIL"),
			AdminEmail:  viper.GetString("NOTIFY_ADMIN_EMAIL"),
		},
		Order: OrderConfig{
			TxAttempts: viper.GetInt("ORDER_TX_ATTEMPTS"),
		},
	}
}
