package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays configuration from environment variables, loading a
// .env file first when one exists. The token TTL variable names follow the
// deployment environment of the admin backend.
func parseEnv(config *Config) {
	_ = godotenv.Load()

	config.EndpointAddr = getEnv("ENDPOINT_ADDR", config.EndpointAddr)
	config.DatabaseDSN = getEnv("DATABASE_DSN", config.DatabaseDSN)
	config.SecretKey = getEnv("SECRET_KEY", config.SecretKey)
	config.RedisAddr = getEnv("REDIS_ADDR", config.RedisAddr)
	config.SessionCookieName = getEnv("SESSION_COOKIE_NAME", config.SessionCookieName)

	if v := getEnvAsInt("ACCESS_TOKEN_EXPIRATION", 0); v > 0 {
		config.AccessTokenValidityDuration = time.Duration(v) * time.Second
	}
	if v := getEnvAsInt("REFRESH_TOKEN_EXPIRATION", 0); v > 0 {
		config.RefreshTokenValidityDuration = time.Duration(v) * time.Second
	}
	if v := getEnvAsInt("LOGIN_MAX_ATTEMPTS", 0); v > 0 {
		config.LoginMaxAttempts = v
	}
	if v := getEnvAsInt("LOGIN_WINDOW_SECONDS", 0); v > 0 {
		config.LoginWindow = time.Duration(v) * time.Second
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
