package config

import (
	"fmt"     // For DSN formatting
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"time"    // For cache TTL

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort      string        // Application port
	DBUser       string        // Database user
	DBPassword   string        // Database password
	DBHost       string        // Database host
	DBPort       string        // Database port
	DBName       string        // Database name
	JWTSecret    string        // JWT secret key
	RedisAddr    string        // Redis server address, empty disables caching
	RedisPass    string        // Redis password
	RedisDB      int           // Redis database number
	IsProd       bool          // Is production environment
	LogLevel     string        // Logrus level name
	HistoryLimit int           // Transactions shown with the account view
	CacheTTL     time.Duration // Lifetime of cached reads
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	return &Config{
		AppPort:      getEnv("APP_PORT", "8080"),     // Application port
		DBUser:       os.Getenv("DB_USER"),           // Database user
		DBPassword:   os.Getenv("DB_PASSWORD"),       // Database password
		DBHost:       getEnv("DB_HOST", "127.0.0.1"), // Database host
		DBPort:       getEnv("DB_PORT", "3306"),      // Database port
		DBName:       os.Getenv("DB_NAME"),           // Database name
		JWTSecret:    os.Getenv("JWT_SECRET"),        // JWT secret key
		RedisAddr:    os.Getenv("REDIS_ADDR"),        // Redis server address
		RedisPass:    os.Getenv("REDIS_PASS"),        // Redis password
		RedisDB:      getEnvInt("REDIS_DB", 0),       // Redis database number
		IsProd:       os.Getenv("IS_PROD") == "true", // Is production environment
		LogLevel:     getEnv("LOG_LEVEL", "info"),    // Log level
		HistoryLimit: getEnvInt("HISTORY_LIMIT", 20), // Home page history size
		CacheTTL:     time.Duration(getEnvInt("CACHE_TTL_SECONDS", 60)) * time.Second,
	}
}

// DSN returns the MySQL Data Source Name for the configured database.
// clientFoundRows makes RowsAffected count matched rows, so a zero-amount update still counts.
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC&clientFoundRows=true",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// getEnv returns the variable's value or def when unset
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt parses the variable as a positive-or-zero int, falling back to def
func getEnvInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v < 0 {
		return def
	}
	return v
}
