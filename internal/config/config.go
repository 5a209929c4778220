package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Server holds process-level configuration for the layout server.
type Server struct {
	LogLevel   string `yaml:"log_level"   env:"FRONTLINE_LOG_LEVEL"`
	LayoutFile string `yaml:"layout_file" env:"FRONTLINE_LAYOUT_FILE"`

	// Queue size of the game loop.
	QueueSize int `yaml:"queue_size" env:"FRONTLINE_QUEUE_SIZE"`

	// ShutdownTimeout bounds how long the loop drains after a stop signal.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"FRONTLINE_SHUTDOWN_TIMEOUT"`

	// Locale used for numbers in broadcast content (BCP 47).
	Locale string `yaml:"locale" env:"FRONTLINE_LOCALE"`

	Database DatabaseConfig `yaml:"database" envPrefix:"FRONTLINE_DB_"`
	Tracing  TracingConfig  `yaml:"tracing"  envPrefix:"FRONTLINE_TRACING_"`
}

// DatabaseConfig holds PostgreSQL connection parameters for match history.
type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled"  env:"ENABLED"`
	Host     string `yaml:"host"     env:"HOST"`
	Port     int    `yaml:"port"     env:"PORT"`
	User     string `yaml:"user"     env:"USER"`
	Password string `yaml:"password" env:"PASSWORD"`
	DBName   string `yaml:"dbname"   env:"NAME"`
	SSLMode  string `yaml:"sslmode"  env:"SSLMODE"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// TracingConfig enables the OTLP trace exporter.
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"      env:"ENABLED"`
	Endpoint    string `yaml:"endpoint"     env:"ENDPOINT"`
	Insecure    bool   `yaml:"insecure"     env:"INSECURE"`
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
}

// DefaultServer returns Server config with sensible defaults.
func DefaultServer() Server {
	return Server{
		LogLevel:        "info",
		LayoutFile:      "config/layout.yaml",
		QueueSize:       1024,
		ShutdownTimeout: 10 * time.Second,
		Locale:          "en",
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "frontline",
			Password: "frontline",
			DBName:   "frontline",
			SSLMode:  "disable",
		},
		Tracing: TracingConfig{
			Endpoint:    "localhost:4318",
			Insecure:    true,
			ServiceName: "frontline",
		},
	}
}

// LoadServer loads server config from a YAML file and applies FRONTLINE_*
// environment overrides on top.
// If the file doesn't exist, defaults are used.
func LoadServer(path string) (Server, error) {
	cfg := DefaultServer()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	return cfg, nil
}
