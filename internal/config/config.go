// Package config loads service configuration from a yaml file,
// PRACTICEBANK_* environment variables, and command-line flags, in
// ascending priority.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config holds everything the service needs to run.
type Config struct {
	Addr             string  `koanf:"addr" validate:"required,hostname_port"`
	DBPath           string  `koanf:"db" validate:"required"`
	LogLevel         string  `koanf:"log_level" validate:"oneof=debug info warn error"`
	DesiredRetention float64 `koanf:"desired_retention" validate:"gt=0,lte=1"`
	SyncOnStart      bool    `koanf:"sync_on_start"`
}

// Defaults returns the baseline configuration.
func Defaults() Config {
	return Config{
		Addr:             "127.0.0.1:8791",
		DBPath:           "practicebank.db",
		LogLevel:         "info",
		DesiredRetention: 0.9,
	}
}

// Flags returns the pflag set understood by Load. Flag defaults double
// as the configuration defaults; unchanged flags never override file or
// environment values.
func Flags() *pflag.FlagSet {
	d := Defaults()
	fs := pflag.NewFlagSet("practicebank", pflag.ContinueOnError)
	fs.String("config", "", "Path to a yaml config file")
	fs.String("addr", d.Addr, "Listen address, host:port")
	fs.String("db", d.DBPath, "Path to the sqlite database file")
	fs.String("log_level", d.LogLevel, "Log level: debug, info, warn or error")
	fs.Float64("desired_retention", d.DesiredRetention, "Target recall probability, (0, 1]")
	fs.Bool("sync_on_start", false, "Run a source sync before serving")
	return fs
}

// Load merges defaults, the optional config file, environment, and
// flags, then validates the result.
func Load(fs *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	cfg := Defaults()

	if path, _ := fs.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("config: loading %s: %w", path, err)
		}
	}

	err := k.Load(env.ProviderWithValue("PRACTICEBANK_", ".", func(key, value string) (string, interface{}) {
		return strings.ToLower(strings.TrimPrefix(key, "PRACTICEBANK_")), value
	}), nil)
	if err != nil {
		return Config{}, fmt.Errorf("config: loading environment: %w", err)
	}

	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return Config{}, fmt.Errorf("config: loading flags: %w", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config: invalid configuration: %w", err)
	}
	return cfg, nil
}

// SetupLogger installs a text slog handler at the configured level.
func SetupLogger(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}
