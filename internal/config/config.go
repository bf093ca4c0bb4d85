package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Server holds the environment configuration for the shell server
type Server struct {
	ListenAddr  string `env:"LISTEN_ADDR" envDefault:":8080"`
	StorageType string `env:"STORAGE_TYPE" envDefault:"sqlite"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"data/lightcade.db"`
	RemoteType  string `env:"REMOTE_TYPE" envDefault:"fake"`
	RedisURL    string `env:"REDIS_URL"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses the server configuration from environment variables
func Load() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
