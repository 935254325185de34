package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mcdev12/jokenpo/go/internal/room"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port            string        `yaml:"port"`
		AllowedOrigins  []string      `yaml:"allowed_origins"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Game struct {
		RoundCooldown  time.Duration `yaml:"round_cooldown"`
		IdleTTL        time.Duration `yaml:"idle_ttl"`
		CodeLength     int           `yaml:"code_length"`
		CodeAttempts   int           `yaml:"code_attempts"`
		PersistTimeout time.Duration `yaml:"persist_timeout"`
	} `yaml:"game"`

	Redis struct {
		URL      string        `yaml:"url"`
		CacheTTL time.Duration `yaml:"cache_ttl"`
	} `yaml:"redis"`

	NATS struct {
		URL        string `yaml:"url"`
		StreamName string `yaml:"stream_name"`
	} `yaml:"nats"`

	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.Server.Port = "8080"
	cfg.Server.AllowedOrigins = []string{"*"}
	cfg.Server.ShutdownTimeout = 10 * time.Second

	game := room.DefaultConfig()
	cfg.Game.RoundCooldown = game.RoundCooldown
	cfg.Game.IdleTTL = game.IdleTTL
	cfg.Game.CodeLength = game.CodeLength
	cfg.Game.CodeAttempts = game.CodeAttempts
	cfg.Game.PersistTimeout = game.PersistTimeout

	cfg.Redis.CacheTTL = 10 * time.Minute
	cfg.NATS.StreamName = "ROOM_EVENTS"
	cfg.Log.Level = "info"
	cfg.Log.Format = "console"
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// loadConfig reads the YAML file at path on top of the defaults, then
// applies environment overrides. A missing file is not an error.
func loadConfig(path string) (*Config, error) {
	config := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	config.Server.Port = getEnv("PORT", config.Server.Port)
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		config.Server.AllowedOrigins = strings.Split(origins, ",")
	}
	config.Game.RoundCooldown = getEnvAsDuration("ROUND_COOLDOWN", config.Game.RoundCooldown)
	config.Game.IdleTTL = getEnvAsDuration("ROOM_IDLE_TTL", config.Game.IdleTTL)
	config.Game.CodeAttempts = getEnvAsInt("ROOM_CODE_ATTEMPTS", config.Game.CodeAttempts)
	config.Redis.URL = getEnv("REDIS_URL", config.Redis.URL)
	config.NATS.URL = getEnv("NATS_URL", config.NATS.URL)
	config.Auth.JWTSecret = getEnv("JWT_SECRET", config.Auth.JWTSecret)
	config.Log.Level = getEnv("LOG_LEVEL", config.Log.Level)
	config.Log.Format = getEnv("LOG_FORMAT", config.Log.Format)

	if config.Auth.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET (auth.jwt_secret) is required")
	}
	return config, nil
}

func (c *Config) roomConfig() room.Config {
	return room.Config{
		RoundCooldown:  c.Game.RoundCooldown,
		IdleTTL:        c.Game.IdleTTL,
		CodeLength:     c.Game.CodeLength,
		CodeAttempts:   c.Game.CodeAttempts,
		PersistTimeout: c.Game.PersistTimeout,
	}
}
