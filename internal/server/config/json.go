package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/Rakgl/Own-Pro-Api/internal/flagx"
)

// JsonConfig is the DTO for reading JSON configuration files. Durations are
// expressed as integer seconds, matching the environment variables.
type JsonConfig struct {
	EndpointAddr          string `json:"endpoint_addr"`
	DatabaseDSN           string `json:"database_dsn"`
	SecretKey             string `json:"secret_key"`
	AccessTokenExpiration int    `json:"access_token_expiration"`
	RefreshExpiration     int    `json:"refresh_expiration"`
	LoginMaxAttempts      int    `json:"login_max_attempts"`
	LoginWindowSeconds    int    `json:"login_window_seconds"`
	RedisAddr             string `json:"redis_addr"`
	SessionCookieName     string `json:"session_cookie_name"`
}

// parseJson loads configuration values from the JSON file named by the
// -c/-config flags, if any. Missing flag means no JSON overlay. Read or
// unmarshal failures panic: a named config file that cannot be used is a
// deployment error.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddr != "" {
		config.EndpointAddr = c.EndpointAddr
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.AccessTokenExpiration > 0 {
		config.AccessTokenValidityDuration = time.Duration(c.AccessTokenExpiration) * time.Second
	}
	if c.RefreshExpiration > 0 {
		config.RefreshTokenValidityDuration = time.Duration(c.RefreshExpiration) * time.Second
	}
	if c.LoginMaxAttempts > 0 {
		config.LoginMaxAttempts = c.LoginMaxAttempts
	}
	if c.LoginWindowSeconds > 0 {
		config.LoginWindow = time.Duration(c.LoginWindowSeconds) * time.Second
	}
	if c.RedisAddr != "" {
		config.RedisAddr = c.RedisAddr
	}
	if c.SessionCookieName != "" {
		config.SessionCookieName = c.SessionCookieName
	}
}
