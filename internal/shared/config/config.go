package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Events    EventsConfig
	MedBridge MedBridgeConfig
	Clinical  ClinicalConfig
	Logging   LoggingConfig
	CORS      CORSConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

type AuthConfig struct {
	JWTSecret string
}

// EventsConfig holds the EventStoreDB connection settings for the
// domain event bus. The bus is optional; the service runs without it.
type EventsConfig struct {
	Host     string
	Port     int
	Insecure bool
	Username string
	Password string
	Enabled  bool
}

// MedBridgeConfig configures the external medical-analysis service.
type MedBridgeConfig struct {
	URL     string
	Timeout time.Duration
	Enabled bool
}

// ClinicalConfig selects and configures the clinical-records adapter.
// Kind is "fhir" for the HTTP adapter or "legacy" for the SQL Server one.
type ClinicalConfig struct {
	Kind      string
	FHIRURL   string
	LegacyDSN string
	Timeout   time.Duration
	Enabled   bool
}

type LoggingConfig struct {
	Level  string
	Format string
}

type CORSConfig struct {
	AllowedOrigins []string
}

func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Port: getEnvInt("SERVER_PORT", 8080),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "healthassist"),
			Password: getEnv("DB_PASSWORD", "healthassist"),
			Database: getEnv("DB_NAME", "healthassist"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-in-prod"),
		},
		Events: EventsConfig{
			Host:     getEnv("EVENTSTORE_HOST", "localhost"),
			Port:     getEnvInt("EVENTSTORE_PORT", 2113),
			Insecure: getEnvBool("EVENTSTORE_INSECURE", true),
			Username: getEnv("EVENTSTORE_USERNAME", ""),
			Password: getEnv("EVENTSTORE_PASSWORD", ""),
			Enabled:  getEnvBool("EVENTSTORE_ENABLED", true),
		},
		MedBridge: MedBridgeConfig{
			URL:     getEnv("MEDICAL_ANALYSIS_URL", "http://localhost:5000"),
			Timeout: getEnvDuration("MEDICAL_ANALYSIS_TIMEOUT", 30*time.Second),
			Enabled: getEnvBool("MEDICAL_ANALYSIS_ENABLED", true),
		},
		Clinical: ClinicalConfig{
			Kind:      getEnv("CLINICAL_ADAPTER", "fhir"),
			FHIRURL:   getEnv("CLINICAL_FHIR_URL", "http://localhost:8090/fhir"),
			LegacyDSN: getEnv("CLINICAL_LEGACY_DSN", ""),
			Timeout:   getEnvDuration("CLINICAL_TIMEOUT", 5*time.Second),
			Enabled:   getEnvBool("CLINICAL_ENABLED", false),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvSlice("CORS_ORIGINS", []string{"*"}),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var result []string
		for _, v := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}
