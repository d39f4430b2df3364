package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
	"github.com/sushihentaime/blogsphere/internal/common"
)

type Config struct {
	Port           string `mapstructure:"PORT"`
	Environment    string `mapstructure:"ENVIRONMENT"`
	Version        string `mapstructure:"VERSION"`
	TLSCertFile    string `mapstructure:"TLS_CERT_FILE"`
	TLSKeyFile     string `mapstructure:"TLS_KEY_FILE"`
	MigrationsPath string `mapstructure:"MIGRATIONS_PATH"`
	CookieSecure   bool   `mapstructure:"COOKIE_SECURE"`

	DB struct {
		Host     string `mapstructure:"POSTGRES_HOST"`
		Port     string `mapstructure:"POSTGRES_PORT"`
		User     string `mapstructure:"POSTGRES_USER"`
		Password string `mapstructure:"POSTGRES_PASSWORD"`
		Name     string `mapstructure:"POSTGRES_DB"`
	} `mapstructure:",squash"`

	Mail struct {
		Host     string `mapstructure:"MAIL_HOST"`
		Port     int    `mapstructure:"MAIL_PORT"`
		User     string `mapstructure:"MAIL_USER"`
		Password string `mapstructure:"MAIL_PASSWORD"`
		Sender   string `mapstructure:"MAIL_SENDER"`
	} `mapstructure:",squash"`

	RabbitMQ struct {
		Host     string `mapstructure:"RABBITMQ_HOST"`
		Port     string `mapstructure:"RABBITMQ_PORT"`
		User     string `mapstructure:"RABBITMQ_USER"`
		Password string `mapstructure:"RABBITMQ_PASSWORD"`
	} `mapstructure:",squash"`

	Redis struct {
		Addr     string `mapstructure:"REDIS_ADDR"`
		Password string `mapstructure:"REDIS_PASSWORD"`
	} `mapstructure:",squash"`

	Credential struct {
		AccessSecret  string `mapstructure:"ACCESS_SECRET"`
		RefreshSecret string `mapstructure:"REFRESH_SECRET"`
	} `mapstructure:",squash"`

	Limiter struct {
		RPS     float64 `mapstructure:"LIMITER_RPS"`
		Burst   int     `mapstructure:"LIMITER_BURST"`
		Enabled bool    `mapstructure:"LIMITER_ENABLED"`
	} `mapstructure:",squash"`

	SignIn struct {
		MaxAttempts int           `mapstructure:"SIGNIN_MAX_ATTEMPTS"`
		Cooldown    time.Duration `mapstructure:"SIGNIN_COOLDOWN"`
	} `mapstructure:",squash"`
}

var configDefaults = map[string]any{
	"PORT":                ":4000",
	"ENVIRONMENT":         "development",
	"VERSION":             "1.0.0",
	"MIGRATIONS_PATH":     "file://migrations",
	"COOKIE_SECURE":       true,
	"POSTGRES_HOST":       "localhost",
	"POSTGRES_PORT":       "5432",
	"RABBITMQ_HOST":       "localhost",
	"RABBITMQ_PORT":       "5672",
	"MAIL_PORT":           587,
	"REDIS_ADDR":          "localhost:6379",
	"LIMITER_RPS":         2.0,
	"LIMITER_BURST":       4,
	"LIMITER_ENABLED":     true,
	"SIGNIN_MAX_ATTEMPTS": 5,
	"SIGNIN_COOLDOWN":     "15m",

	// registered for AutomaticEnv
	"TLS_CERT_FILE":       "",
	"TLS_KEY_FILE":        "",
	"POSTGRES_USER":       "",
	"POSTGRES_PASSWORD":   "",
	"POSTGRES_DB":         "",
	"MAIL_HOST":           "",
	"MAIL_USER":           "",
	"MAIL_PASSWORD":       "",
	"MAIL_SENDER":         "",
	"RABBITMQ_USER":       "",
	"RABBITMQ_PASSWORD":   "",
	"REDIS_PASSWORD":      "",
	"ACCESS_SECRET":       "",
	"REFRESH_SECRET":      "",
}

// loadConfig reads the env file at path. Environment variables override the file.
func loadConfig(path string) (*Config, error) {
	v := viper.New()
	for key, value := range configDefaults {
		v.SetDefault(key, value)
	}

	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config.Credential.AccessSecret == "" || config.Credential.RefreshSecret == "" {
		return nil, errors.New("ACCESS_SECRET and REFRESH_SECRET must be set")
	}

	return &config, nil
}

func (c *Config) DSN() string {
	return common.DSN(c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Name)
}

func (c *Config) AMQPURI() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", c.RabbitMQ.User, c.RabbitMQ.Password, c.RabbitMQ.Host, c.RabbitMQ.Port)
}
