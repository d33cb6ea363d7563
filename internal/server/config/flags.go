package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-r string   Redis address (host:port)
//	-p string   Redis password
//	-b int      Redis database number
//	-s string   JWT HMAC secret key
//	-n string   Secrets Manager secret name (overrides -s when set)
//	-g string   AWS region
//	-t int      access token validity, minutes
//	-w int      refresh window, minutes
//	-x int      reset token validity, minutes
//	-m string   reset mail sender address
//	-e          enable sending reset mail via SES
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - Duration flags are accepted as integers in minutes and then converted
//     to time.Duration values.
//   - The API key table has no flag form; use the JSON config for that.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-r", "-p", "-b", "-s", "-n", "-g", "-t", "-w", "-x", "-m", "-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address")
	fs.StringVar(&config.RedisPassword, "p", config.RedisPassword, "redis password")
	fs.IntVar(&config.RedisDB, "b", config.RedisDB, "redis database number")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.SecretName, "n", config.SecretName, "secrets manager secret name")
	fs.StringVar(&config.AWSRegion, "g", config.AWSRegion, "AWS region")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")
	refreshWindow := fs.Int("w", int(config.RefreshWindow.Minutes()), "refresh_window (in minutes)")
	resetTokenValidityDuration := fs.Int("x", int(config.ResetTokenValidityDuration.Minutes()), "reset_token_validity_duration (in minutes)")

	fs.StringVar(&config.EmailSender, "m", config.EmailSender, "reset mail sender address")
	fs.BoolVar(&config.EmailEnabled, "e", config.EmailEnabled, "send reset mail via SES")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
	config.RefreshWindow = time.Duration(*refreshWindow) * time.Minute
	config.ResetTokenValidityDuration = time.Duration(*resetTokenValidityDuration) * time.Minute
}
