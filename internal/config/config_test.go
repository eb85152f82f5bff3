package config

import (
	"errors"
	"testing"
)

func setAllEnv(t *testing.T) {
	t.Helper()
	vars := map[string]string{
		"AMQP_ADDRESS":  "amqp://broker:5672",
		"AMQP_USERNAME": "user",
		"AMQP_PASSWORD": "pass",
		"AMQP_TOPIC":    "cam.inbound",
		"DB_ADDRESS":    "db:5432",
		"DB_USERNAME":   "dbuser",
		"DB_PASSWORD":   "dbpass",
	}
	for k, v := range vars {
		t.Setenv(k, v)
	}
}

func TestLoadSucceedsWithAllVarsSet(t *testing.T) {
	setAllEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.AMQPTopic != "cam.inbound" {
		t.Errorf("AMQPTopic = %q, want cam.inbound", cfg.AMQPTopic)
	}
}

func TestLoadFailsWhenVarsMissing(t *testing.T) {
	setAllEnv(t)
	t.Setenv("DB_PASSWORD", "")
	t.Setenv("AMQP_TOPIC", "")

	_, err := Load()
	if !errors.Is(err, ErrMissing) {
		t.Fatalf("Load() error = %v, want ErrMissing", err)
	}
}
