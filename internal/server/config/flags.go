package config

import (
	"flag"
	"os"
	"time"

	"github.com/Rakgl/Own-Pro-Api/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   access-token HMAC secret key
//	-t int      access token validity, seconds
//	-r int      refresh token validity, seconds
//	-x string   Redis address for the shared login limiter
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-t", "-r", "-x"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.RedisAddr, "x", config.RedisAddr, "redis address for shared rate limiting")

	accessTokenValidity := fs.Int("t", int(config.AccessTokenValidityDuration.Seconds()), "access token validity (in seconds)")
	refreshTokenValidity := fs.Int("r", int(config.RefreshTokenValidityDuration.Seconds()), "refresh token validity (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidity) * time.Second
	config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidity) * time.Second
}
