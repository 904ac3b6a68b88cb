// Package config loads application settings from a YAML file or the
// environment and builds the process logger.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `yaml:"level"  env:"VOCABDEX_LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"VOCABDEX_LOG_FORMAT" env-default:"text"`
}

// Config holds all application settings.
type Config struct {
	OpenAIAPIKey string  `yaml:"openai_api_key" env:"OPENAI_API_KEY"`
	Model        string  `yaml:"model"          env:"VOCABDEX_MODEL"       env-default:"gpt-4o-mini"`
	Temperature  float64 `yaml:"temperature"    env:"VOCABDEX_TEMPERATURE" env-default:"0.4"`
	DictPath     string  `yaml:"dict_path"      env:"VOCABDEX_DICT_PATH"   env-default:"jmdict-eng-common.json"`
	DBPath       string  `yaml:"db_path"        env:"VOCABDEX_DB_PATH"     env-default:"vocabdex.db"`
	Workers      int     `yaml:"workers"        env:"VOCABDEX_WORKERS"     env-default:"0"`

	Log LogConfig `yaml:"log"`
}

// Load reads config from the YAML file at path when one is given, falling
// back to environment variables otherwise.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config: file %s not found", path)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		return &cfg, nil
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	return &cfg, nil
}

// NewLogger creates a *slog.Logger from cfg and sets it as the default
// logger via slog.SetDefault.
//
// Format "json" produces structured JSON output; "text" produces
// human-readable output with source info. Level is one of debug, info,
// warn, error (case-insensitive) and defaults to info. Output is always
// os.Stderr.
func NewLogger(cfg LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: strings.EqualFold(cfg.Format, "text"),
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
