// Package config loads the process configuration from the environment.
// All variables are required; absence of any of them is a fatal startup
// error (ConfigMissing), never a per-message failure.
package config

import (
	"errors"
	"fmt"
	"os"
)

// ErrMissing is wrapped with the list of unset environment variables.
var ErrMissing = errors.New("required environment variable not set")

// Config holds the process-wide configuration read once at startup.
type Config struct {
	AMQPAddress  string
	AMQPUsername string
	AMQPPassword string
	AMQPTopic    string

	DBAddress  string
	DBUsername string
	DBPassword string
}

// Load reads every required variable, collecting all missing names before
// failing so an operator sees the full list in one error, not one at a time.
func Load() (*Config, error) {
	var missing []string
	get := func(name string) string {
		v := os.Getenv(name)
		if v == "" {
			missing = append(missing, name)
		}
		return v
	}

	cfg := &Config{
		AMQPAddress:  get("AMQP_ADDRESS"),
		AMQPUsername: get("AMQP_USERNAME"),
		AMQPPassword: get("AMQP_PASSWORD"),
		AMQPTopic:    get("AMQP_TOPIC"),
		DBAddress:    get("DB_ADDRESS"),
		DBUsername:   get("DB_USERNAME"),
		DBPassword:   get("DB_PASSWORD"),
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrMissing, missing)
	}

	return cfg, nil
}
