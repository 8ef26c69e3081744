// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Config is built once at startup and passed to the components that need it.
type Config struct {
	AppPort        string
	DatabaseDriver string
	DatabaseDSN    string

	JWTSecretUser     string
	JWTSecretAdmin    string
	AdminSecret       string
	AllowedAdminPhone string

	GoogleClientID     string
	GoogleClientSecret string
	BaseURL            string

	UploadDir   string
	RabbitMQURL string

	LogMode string
	LogFile string
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DATABASE_DRIVER", "postgres")
	v.SetDefault("DATABASE_DSN", "host=127.0.0.1 user=postgres password=postgres dbname=katalog port=5432 sslmode=disable")
	v.SetDefault("BASE_URL", "http://localhost:8080")
	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("LOG_MODE", "development")
	for _, key := range []string{
		"JWT_SECRET_USER", "JWT_SECRET_ADMIN", "ADMIN_SECRET", "ALLOWED_ADMIN_PHONE",
		"GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET", "RABBITMQ_URL", "LOG_FILE",
	} {
		v.SetDefault(key, "")
	}
}

// Load reads the configuration from v, falling back to environment variables.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		AppPort:            v.GetString("APP_PORT"),
		DatabaseDriver:     v.GetString("DATABASE_DRIVER"),
		DatabaseDSN:        v.GetString("DATABASE_DSN"),
		JWTSecretUser:      v.GetString("JWT_SECRET_USER"),
		JWTSecretAdmin:     v.GetString("JWT_SECRET_ADMIN"),
		AdminSecret:        v.GetString("ADMIN_SECRET"),
		AllowedAdminPhone:  v.GetString("ALLOWED_ADMIN_PHONE"),
		GoogleClientID:     v.GetString("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
		BaseURL:            v.GetString("BASE_URL"),
		UploadDir:          v.GetString("UPLOAD_DIR"),
		RabbitMQURL:        v.GetString("RABBITMQ_URL"),
		LogMode:            v.GetString("LOG_MODE"),
		LogFile:            v.GetString("LOG_FILE"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports missing or inconsistent settings.
func (c *Config) Validate() error {
	if c.JWTSecretUser == "" || c.JWTSecretAdmin == "" {
		return errors.New("JWT_SECRET_USER and JWT_SECRET_ADMIN must be set")
	}
	if c.JWTSecretUser == c.JWTSecretAdmin {
		return errors.New("JWT_SECRET_USER and JWT_SECRET_ADMIN must differ")
	}
	switch c.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	return nil
}

// GoogleEnabled reports whether federated login credentials are configured.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}
