package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/flagx"
	"github.com/dmitrijs2005/gatekeeper/internal/server/tenant"
	"github.com/dmitrijs2005/gatekeeper/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "1h" and integer nanoseconds.
//
// This struct is an intermediate DTO (Data Transfer Object) used only for
// reading JSON configuration files. After unmarshalling, its fields are
// copied into the runtime Config struct which uses time.Duration.
type JsonConfig struct {
	APIKeys                     map[string]tenant.Context `json:"api_keys"`
	EndpointAddr                string                    `json:"endpoint_addr"`
	DatabaseDSN                 string                    `json:"database_dsn"`
	RedisAddr                   string                    `json:"redis_addr"`
	RedisPassword               string                    `json:"redis_password"`
	SecretKey                   string                    `json:"secret_key"`
	SecretName                  string                    `json:"secret_name"`
	AWSRegion                   string                    `json:"aws_region"`
	EmailSender                 string                    `json:"email_sender"`
	AccessTokenValidityDuration timex.Duration            `json:"access_token_validity_duration"`
	RefreshWindow               timex.Duration            `json:"refresh_window"`
	ResetTokenValidityDuration  timex.Duration            `json:"reset_token_validity_duration"`
	RedisDB                     int                       `json:"redis_db"`
	EmailEnabled                bool                      `json:"email_enabled"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The lookup order for the JSON file path is:
//
//	The -c or -config command-line flags.
//	If it is not set, no JSON file is loaded.
//
// If the file path is found, parseJson attempts to read and unmarshal it
// into a JsonConfig. The resulting values are copied into the target Config.
// If the file cannot be read or contains invalid JSON, the function panics.
//
// The caller is expected to merge these values with defaults and
// command-line flags as part of the full configuration process.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.EndpointAddr = c.EndpointAddr
	config.DatabaseDSN = c.DatabaseDSN
	config.RedisAddr = c.RedisAddr
	config.RedisPassword = c.RedisPassword
	config.RedisDB = c.RedisDB
	config.SecretKey = c.SecretKey
	config.SecretName = c.SecretName
	config.AWSRegion = c.AWSRegion
	config.AccessTokenValidityDuration = time.Duration(c.AccessTokenValidityDuration.Duration)
	config.RefreshWindow = time.Duration(c.RefreshWindow.Duration)
	config.ResetTokenValidityDuration = time.Duration(c.ResetTokenValidityDuration.Duration)
	if c.APIKeys != nil {
		config.APIKeys = c.APIKeys
	}
	config.EmailSender = c.EmailSender
	config.EmailEnabled = c.EmailEnabled
}
