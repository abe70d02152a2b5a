// Package config resolves process settings from an optional .env file, an
// optional YAML file and CAMPUS_ prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/example/campus-planner/internal/logging"
)

// EnvPrefix is prepended to every environment variable the loader reads.
const EnvPrefix = "CAMPUS"

// Config captures the settings shared by the server and the CLI.
type Config struct {
	HTTPPort    int
	SQLiteDSN   string
	AuthSecret  string
	TokenTTL    time.Duration
	TokenIssuer string
	Location    *time.Location
	LogLevel    slog.Level
	Focus       FocusConfig
	API         APIConfig
}

// FocusConfig holds the focus timer defaults.
type FocusConfig struct {
	Minutes          int
	BreakMinutes     int
	DailyGoalMinutes int
	SnapshotPath     string
}

// APIConfig points the CLI at a running server.
type APIConfig struct {
	BaseURL string
	Token   string
}

// Options tune a single Load call.
type Options struct {
	// ConfigFile overrides the campus.yaml lookup. A missing file is an error.
	ConfigFile string
	// EnvFile overrides the .env lookup. A missing file is an error.
	EnvFile string
	// RequireSecret makes auth.secret mandatory.
	RequireSecret bool
}

// Load resolves configuration. Missing and invalid keys are collected and
// reported together, named by their environment variable.
func Load(opts Options) (Config, error) {
	if err := loadDotEnv(opts.EnvFile); err != nil {
		return Config{}, err
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", opts.ConfigFile, err)
		}
	} else {
		v.SetConfigName("campus")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("config: read campus.yaml: %w", err)
			}
		}
	}

	cfg := Config{
		SQLiteDSN:   strings.TrimSpace(v.GetString("sqlite.dsn")),
		AuthSecret:  strings.TrimSpace(v.GetString("auth.secret")),
		TokenIssuer: strings.TrimSpace(v.GetString("auth.issuer")),
		API: APIConfig{
			BaseURL: strings.TrimSpace(v.GetString("api.base_url")),
			Token:   strings.TrimSpace(v.GetString("api.token")),
		},
	}
	cfg.Focus.SnapshotPath = strings.TrimSpace(v.GetString("focus.snapshot_path"))

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	positive := func(key string, dst *int) {
		n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
		if err != nil || n <= 0 {
			invalid = append(invalid, envName(key))
			return
		}
		*dst = n
	}
	positive("http.port", &cfg.HTTPPort)
	positive("focus.minutes", &cfg.Focus.Minutes)
	positive("focus.break_minutes", &cfg.Focus.BreakMinutes)
	positive("focus.daily_goal_minutes", &cfg.Focus.DailyGoalMinutes)

	if ttl, err := time.ParseDuration(strings.TrimSpace(v.GetString("auth.token_ttl"))); err != nil || ttl <= 0 {
		invalid = append(invalid, envName("auth.token_ttl"))
	} else {
		cfg.TokenTTL = ttl
	}

	if loc, err := time.LoadLocation(strings.TrimSpace(v.GetString("timezone"))); err != nil {
		invalid = append(invalid, envName("timezone"))
	} else {
		cfg.Location = loc
	}

	if level, err := logging.ParseLevel(v.GetString("log.level")); err != nil {
		invalid = append(invalid, envName("log.level"))
	} else {
		cfg.LogLevel = level
	}

	if cfg.SQLiteDSN == "" {
		missing = append(missing, envName("sqlite.dsn"))
	}
	if opts.RequireSecret && cfg.AuthSecret == "" {
		missing = append(missing, envName("auth.secret"))
	}

	var problems []string
	if len(missing) > 0 {
		problems = append(problems, "required settings are missing: "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		problems = append(problems, "invalid settings: "+strings.Join(invalid, ", "))
	}
	if len(problems) > 0 {
		return Config{}, fmt.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.port", 8080)
	v.SetDefault("sqlite.dsn", "campus.db")
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("auth.issuer", "campus-planner")
	v.SetDefault("timezone", "Local")
	v.SetDefault("focus.minutes", 25)
	v.SetDefault("focus.break_minutes", 5)
	v.SetDefault("focus.daily_goal_minutes", 120)
	v.SetDefault("focus.snapshot_path", DefaultSnapshotPath())
	v.SetDefault("api.base_url", "http://localhost:8080")
	v.SetDefault("api.token", "")
	v.SetDefault("log.level", "info")
}

// DefaultSnapshotPath is where the focus timer keeps its state between runs.
func DefaultSnapshotPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "campus", "focus-timer.json")
}

// DefaultTokenPath is where the CLI stores the token obtained by login.
func DefaultTokenPath() string {
	return filepath.Join(filepath.Dir(DefaultSnapshotPath()), "token.json")
}

func loadDotEnv(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("config: load %s: %w", path, err)
		}
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: load .env: %w", err)
	}
	return nil
}

func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
