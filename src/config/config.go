package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
// The values are loaded from environment variables.
type AppConfig struct {
	// Core settings
	Port     string
	LogLevel string

	// Analysis backend
	APIURL             string
	FetchTimeout       time.Duration
	ClusterCacheExpiry time.Duration

	// Sessions
	SessionTTL time.Duration

	// Rate limiting
	RateLimitInterval time.Duration
	RateLimitBurst    int

	// Default cluster view parameters for new sessions
	DefaultNumberOfCluster          int
	DefaultMetric1                  string
	DefaultMetric2                  string
	DefaultFrequencyUniqueKey       string
	DefaultFrequencyPer             string
	DefaultDistanceMeasure          string
	DefaultLinkageMethod            string
	DefaultNumberOfClusterForString int

	// Frontend origins allowed by CORS
	AllowedOrigins []string
}

// Cfg is a global instance of the AppConfig.
var Cfg *AppConfig

// LoadConfig loads configuration from environment variables or a .env file.
func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		errEnv = godotenv.Load("../.env")
	}

	if errEnv != nil {
		if os.IsNotExist(errEnv) {
			log.Println("Info: No .env file found in current or parent directory. Relying on OS environment variables.")
		} else {
			log.Printf("Warning: Error loading .env file: %v. Relying on OS environment variables.", errEnv)
		}
	} else {
		log.Println(".env file loaded successfully.")
	}

	Cfg = fromEnv()

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, APIURL=%s, SessionTTL=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.APIURL, Cfg.SessionTTL)
}

func fromEnv() *AppConfig {
	return &AppConfig{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		APIURL:             strings.TrimRight(getEnv("API_URL", "http://localhost:8000"), "/"),
		FetchTimeout:       getEnvAsDuration("FETCH_TIMEOUT", 60*time.Second),
		ClusterCacheExpiry: getEnvAsDuration("CLUSTER_CACHE_EXPIRY", 10*time.Minute),

		SessionTTL: getEnvAsDuration("SESSION_TTL", 2*time.Hour),

		RateLimitInterval: getEnvAsDuration("RATE_LIMIT_INTERVAL", 100*time.Millisecond),
		RateLimitBurst:    getEnvAsInt("RATE_LIMIT_BURST", 30),

		DefaultNumberOfCluster:          getEnvAsInt("DEFAULT_NUMBER_OF_CLUSTER", 5),
		DefaultMetric1:                  getEnv("DEFAULT_METRIC1", "transactionAmount"),
		DefaultMetric2:                  getEnv("DEFAULT_METRIC2", "frequency"),
		DefaultFrequencyUniqueKey:       getEnv("DEFAULT_FREQUENCY_UNIQUE_KEY", "clusteredTransactionDescription"),
		DefaultFrequencyPer:             getEnv("DEFAULT_FREQUENCY_PER", "month"),
		DefaultDistanceMeasure:          getEnv("DEFAULT_DISTANCE_MEASURE", "levenshtein"),
		DefaultLinkageMethod:            getEnv("DEFAULT_LINKAGE_METHOD", "ward"),
		DefaultNumberOfClusterForString: getEnvAsInt("DEFAULT_NUMBER_OF_CLUSTER_FOR_STRING", 250),

		AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", "http://localhost:3000"),
	}
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvAsInt retrieves an environment variable as an integer or returns a fallback.
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

// getEnvAsDuration retrieves an environment variable as a time.Duration or returns a fallback.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}

// getEnvAsList splits a comma-separated variable, dropping blanks.
func getEnvAsList(key, fallback string) []string {
	parts := strings.Split(getEnv(key, fallback), ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
