package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig `json:"server"`

	// Database Configuration
	Database DatabaseConfig `json:"database"`

	// Notification delivery tuning
	Notification NotificationConfig `json:"notification"`

	Auth AuthConfig `json:"auth"`

	// Logging Configuration
	Logging LoggingConfig `json:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host         string `json:"host"`
	Port         string `json:"port"`
	GRPCPort     string `json:"grpc_port"`
	ReadTimeout  int    `json:"read_timeout"`
	WriteTimeout int    `json:"write_timeout"`
	Environment  string `json:"environment"` // development, staging, production
}

// DatabaseConfig contains database connection configuration
type DatabaseConfig struct {
	Driver       string `json:"driver"` // mysql, sqlite
	Host         string `json:"host"`
	Port         string `json:"port"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	DatabaseName string `json:"database_name"`
	MaxOpenConns int    `json:"max_open_conns"`
	MaxIdleConns int    `json:"max_idle_conns"`

	// SQLitePath is used when Driver is sqlite; ":memory:" is accepted.
	SQLitePath string `json:"sqlite_path"`
}

// NotificationConfig contains notification system configuration
type NotificationConfig struct {
	SendBuffer          int           `json:"send_buffer"`   // frames queued per live channel
	WriteTimeout        time.Duration `json:"write_timeout"` // per frame
	MaxRetries          int           `json:"max_retries"`   // fan-out retries for failed recipients
	RetryDelay          time.Duration `json:"retry_delay"`
	FanOutTimeout       time.Duration `json:"fanout_timeout"` // whole fan-out, retries included
	SyncTimeout         time.Duration `json:"sync_timeout"`
	HealthCheckInterval time.Duration `json:"health_check_interval"`
}

type AuthConfig struct {
	JWTSecret string `json:"-"`
	JWTIssuer string `json:"jwt_issuer"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, console
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "5000")
	v.SetDefault("GRPC_PORT", "7004")
	v.SetDefault("READ_TIMEOUT", 15)
	v.SetDefault("WRITE_TIMEOUT", 15)
	v.SetDefault("ENVIRONMENT", "development")

	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "3306")
	v.SetDefault("DB_USER", "root")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "clean_up_tracker")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("SQLITE_PATH", "cleanuptracker.db")

	v.SetDefault("NOTIF_SEND_BUFFER", 64)
	v.SetDefault("NOTIF_WRITE_TIMEOUT", "10s")
	v.SetDefault("NOTIF_MAX_RETRIES", 2)
	v.SetDefault("NOTIF_RETRY_DELAY", "200ms")
	v.SetDefault("NOTIF_FANOUT_TIMEOUT", "30s")
	v.SetDefault("NOTIF_SYNC_TIMEOUT", "10s")
	v.SetDefault("HEALTH_CHECK_INTERVAL", "15s")

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "cleanuptracker")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
}

// LoadConfig reads an optional config.yaml, then the environment, on top of
// built-in defaults.
func LoadConfig() *Config {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Printf("config file ignored: %v", err)
		}
	}

	return &Config{
		Server: ServerConfig{
			Host:         v.GetString("SERVER_HOST"),
			Port:         v.GetString("SERVER_PORT"),
			GRPCPort:     v.GetString("GRPC_PORT"),
			ReadTimeout:  v.GetInt("READ_TIMEOUT"),
			WriteTimeout: v.GetInt("WRITE_TIMEOUT"),
			Environment:  v.GetString("ENVIRONMENT"),
		},
		Database: DatabaseConfig{
			Driver:       v.GetString("DB_DRIVER"),
			Host:         v.GetString("DB_HOST"),
			Port:         v.GetString("DB_PORT"),
			Username:     v.GetString("DB_USER"),
			Password:     v.GetString("DB_PASSWORD"),
			DatabaseName: v.GetString("DB_NAME"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
			SQLitePath:   v.GetString("SQLITE_PATH"),
		},
		Notification: NotificationConfig{
			SendBuffer:          v.GetInt("NOTIF_SEND_BUFFER"),
			WriteTimeout:        v.GetDuration("NOTIF_WRITE_TIMEOUT"),
			MaxRetries:          v.GetInt("NOTIF_MAX_RETRIES"),
			RetryDelay:          v.GetDuration("NOTIF_RETRY_DELAY"),
			FanOutTimeout:       v.GetDuration("NOTIF_FANOUT_TIMEOUT"),
			SyncTimeout:         v.GetDuration("NOTIF_SYNC_TIMEOUT"),
			HealthCheckInterval: v.GetDuration("HEALTH_CHECK_INTERVAL"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("JWT_SECRET"),
			JWTIssuer: v.GetString("JWT_ISSUER"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}
}

func (cfg *Config) DSN() string {
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == "" {
		cfg.Database.Port = "3306"
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DatabaseName,
	)
}

func (cfg *Config) IsProduction() bool {
	return cfg.Server.Environment == "production"
}
