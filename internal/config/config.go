package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultPath is read when Load is given an empty path.
const DefaultPath = "gameanalytics.yaml"

// EnvPrefix selects the environment overlay. Nested keys use "__",
// e.g. GA_GAME__SECRET_KEY sets game.secret_key.
const EnvPrefix = "GA_"

type Config struct {
	Game      GameConfig      `koanf:"game"`
	Client    ClientConfig    `koanf:"client"`
	Storage   StorageConfig   `koanf:"storage"`
	Collector CollectorConfig `koanf:"collector"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

type GameConfig struct {
	GameKey   string `koanf:"game_key"`
	SecretKey string `koanf:"secret_key"`
	BaseURL   string `koanf:"base_url"`
}

type ClientConfig struct {
	HTTPTimeout        time.Duration `koanf:"http_timeout"`
	MaxEventsPerSecond float64       `koanf:"max_events_per_second"`
	LogLevel           string        `koanf:"log_level"`
}

type StorageConfig struct {
	Type   string       `koanf:"type"` // memory, file, sqlite, redis
	File   FileConfig   `koanf:"file"`
	SQLite SQLiteConfig `koanf:"sqlite"`
	Redis  RedisConfig  `koanf:"redis"`
}

type FileConfig struct {
	Path string `koanf:"path"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	Prefix   string `koanf:"prefix"`
}

type CollectorConfig struct {
	Port     int         `koanf:"port"`
	Disabled bool        `koanf:"disabled"`
	Keys     []KeyConfig `koanf:"keys"`
}

type KeyConfig struct {
	GameKey   string `koanf:"game_key"`
	SecretKey string `koanf:"secret_key"`
}

type TelemetryConfig struct {
	Enabled     bool   `koanf:"enabled"`
	ServiceName string `koanf:"service_name"`
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

var defaults = map[string]any{
	"game.base_url":                "https://sandbox-api.gameanalytics.com/v2",
	"client.http_timeout":          "30s",
	"client.max_events_per_second": 0,
	"client.log_level":             "warn",
	"storage.type":                 "file",
	"storage.file.path":            ".gameanalytics.json",
	"storage.sqlite.path":          "gameanalytics.db",
	"storage.redis.addr":           "localhost:6379",
	"storage.redis.prefix":         "gameanalytics:",
	"collector.port":               3000,
	"telemetry.service_name":       "gameanalytics",
}

// Load reads path (missing is fine), overlays GA_ environment variables and
// applies defaults for anything still unset.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	cfg.Game.GameKey = substituteEnvVars(cfg.Game.GameKey)
	cfg.Game.SecretKey = substituteEnvVars(cfg.Game.SecretKey)
	cfg.Storage.Redis.Password = substituteEnvVars(cfg.Storage.Redis.Password)
	for i := range cfg.Collector.Keys {
		cfg.Collector.Keys[i].SecretKey = substituteEnvVars(cfg.Collector.Keys[i].SecretKey)
	}
	return &cfg, nil
}

// CollectorKeys returns the collector key table. The client's own game is
// always included so a local collector accepts the local client.
func (c *Config) CollectorKeys() map[string]string {
	keys := make(map[string]string, len(c.Collector.Keys)+1)
	if c.Game.GameKey != "" && c.Game.SecretKey != "" {
		keys[c.Game.GameKey] = c.Game.SecretKey
	}
	for _, k := range c.Collector.Keys {
		keys[k.GameKey] = k.SecretKey
	}
	return keys
}

func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}
