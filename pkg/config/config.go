package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	GigaChat GigaChatConfig
	Catalog  CatalogConfig
	Pipeline PipelineConfig
	Auth     AuthConfig
	Logger   LoggerConfig
}

type LoggerConfig struct {
	Level string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type JWTConfig struct {
	SecretKey  string
	Expiration time.Duration
	RefreshExp time.Duration
}

type GigaChatConfig struct {
	APIKey             string
	Scope              string
	InsecureSkipVerify bool
}

// CatalogConfig controls the knowledge-base snapshot lifecycle.
type CatalogConfig struct {
	RefreshInterval time.Duration
}

// PipelineConfig carries the tunable resolution knobs. The confidence
// constants were chosen empirically, so they live in configuration rather
// than as fixed law in code.
type PipelineConfig struct {
	GenerativeTimeout time.Duration
	FuzzyThreshold    float64
}

// AuthConfig bounds account usage.
type AuthConfig struct {
	MaxDevices int
	OTPExpiry  time.Duration
}

func Load() (*Config, error) {
	// Optional .env; plain environment variables work for Docker/K8s.
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	readTimeout, _ := strconv.Atoi(getEnv("SERVER_READ_TIMEOUT", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("SERVER_WRITE_TIMEOUT", "30"))
	jwtExp, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "24"))
	refreshExp, _ := strconv.Atoi(getEnv("JWT_REFRESH_EXPIRATION_HOURS", "168"))
	refreshMinutes, _ := strconv.Atoi(getEnv("CATALOG_REFRESH_MINUTES", "30"))
	genTimeout, _ := strconv.Atoi(getEnv("PIPELINE_GENERATIVE_TIMEOUT_SECONDS", "8"))
	fuzzyThreshold, _ := strconv.ParseFloat(getEnv("PIPELINE_FUZZY_THRESHOLD", "0.7"), 64)
	maxDevices, _ := strconv.Atoi(getEnv("AUTH_MAX_DEVICES", "3"))
	otpExpiry, _ := strconv.Atoi(getEnv("AUTH_OTP_EXPIRY_MINUTES", "10"))
	insecureSkipVerify := getEnv("GIGACHAT_INSECURE_SKIP_VERIFY", "true") == "true"

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  time.Duration(readTimeout) * time.Second,
			WriteTimeout: time.Duration(writeTimeout) * time.Second,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "pedmed"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			SecretKey:  getEnv("JWT_SECRET_KEY", "your-secret-key-change-in-production"),
			Expiration: time.Duration(jwtExp) * time.Hour,
			RefreshExp: time.Duration(refreshExp) * time.Hour,
		},
		GigaChat: GigaChatConfig{
			APIKey:             getEnv("GIGACHAT_API_KEY", ""),
			Scope:              getEnv("GIGACHAT_SCOPE", "GIGACHAT_API_PERS"),
			InsecureSkipVerify: insecureSkipVerify,
		},
		Catalog: CatalogConfig{
			RefreshInterval: time.Duration(refreshMinutes) * time.Minute,
		},
		Pipeline: PipelineConfig{
			GenerativeTimeout: time.Duration(genTimeout) * time.Second,
			FuzzyThreshold:    fuzzyThreshold,
		},
		Auth: AuthConfig{
			MaxDevices: maxDevices,
			OTPExpiry:  time.Duration(otpExpiry) * time.Minute,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
