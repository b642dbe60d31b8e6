package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DB        DBConfig
	Server    ServerConfig
	Upstream  UpstreamConfig
	Dashboard DashboardConfig
}

// DBType represents database type
type DBType string

const (
	DBTypePostgreSQL DBType = "postgres"
	DBTypeMemory     DBType = "memory"
)

// DBConfig holds database configuration
type DBConfig struct {
	Type     DBType
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN returns the database connection string
func (c DBConfig) DSN() string {
	if c.Type == DBTypeMemory {
		// SQLite in-memory database
		if c.Name != "" && c.Name != "dashboard" {
			return fmt.Sprintf("file:%s?mode=memory&cache=shared", c.Name)
		}
		return "file::memory:?cache=shared"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

// IsMemory returns true if using in-memory database
func (c DBConfig) IsMemory() bool {
	return c.Type == DBTypeMemory
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
}

// UpstreamConfig holds the weather/geocoding provider settings.
// APIKey may be empty; requests then fail with a configuration error
// instead of the server refusing to start.
type UpstreamConfig struct {
	APIKey     string
	GeoURL     string
	WeatherURL string
	Timeout    time.Duration
}

// HasCredential reports whether the provider API key is set.
func (c UpstreamConfig) HasCredential() bool {
	return c.APIKey != ""
}

// DashboardConfig holds settings for the terminal dashboard client
type DashboardConfig struct {
	APIURL          string
	StateFile       string
	HTTPTimeout     time.Duration
	RefreshInterval time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbType := DBType(getEnv("DB_TYPE", "memory"))
	if dbType != DBTypePostgreSQL && dbType != DBTypeMemory {
		dbType = DBTypeMemory
	}

	config := &Config{
		DB: DBConfig{
			Type:     dbType,
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "dashboard"),
			Password: getEnv("DB_PASSWORD", "dashboard_password"),
			Name:     getEnv("DB_NAME", "dashboard"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Server: ServerConfig{
			Port: getEnv("APP_PORT", "8080"),
		},
		Upstream: UpstreamConfig{
			APIKey:     os.Getenv("OPENWEATHER_API_KEY"),
			GeoURL:     getEnv("OPENWEATHER_GEO_URL", "https://api.openweathermap.org/geo/1.0/direct"),
			WeatherURL: getEnv("OPENWEATHER_WEATHER_URL", "https://api.openweathermap.org/data/2.5/weather"),
			Timeout:    getEnvAsDuration("UPSTREAM_TIMEOUT", 10*time.Second),
		},
		Dashboard: DashboardConfig{
			APIURL:          getEnv("DASHBOARD_API_URL", "http://localhost:8080"),
			StateFile:       getEnv("DASHBOARD_STATE_FILE", defaultStateFile()),
			HTTPTimeout:     getEnvAsDuration("DASHBOARD_HTTP_TIMEOUT", 15*time.Second),
			RefreshInterval: getEnvAsDuration("DASHBOARD_REFRESH_INTERVAL", 10*time.Minute),
		},
	}

	return config, nil
}

func defaultStateFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "dashboard-state.json"
	}
	return filepath.Join(dir, "weather-dashboard", "state.json")
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

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
		// Bare numbers are read as seconds
		if secs := getEnvAsInt(key, 0); secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}
