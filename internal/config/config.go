package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all application configuration.
type Config struct {
	Server       ServerConfig       `toml:"server"`
	Database     DatabaseConfig     `toml:"database"`
	Log          LogConfig          `toml:"log"`
	ReadingLists ReadingListsConfig `toml:"reading_lists"`
	Session      SessionConfig      `toml:"session"`
	Locale       LocaleConfig       `toml:"locale"`
	History      HistoryConfig      `toml:"history"`
	Feeds        FeedsConfig        `toml:"feeds"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns the host:port the server listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // text or json
}

// Handler builds the slog handler described by the config.
func (l LogConfig) Handler(w io.Writer) slog.Handler {
	opts := &slog.HandlerOptions{Level: l.level()}
	if l.Format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func (l LogConfig) level() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// ReadingListsConfig holds the reading list feature flags.
type ReadingListsConfig struct {
	Sync        bool `toml:"sync_enabled"`
	ShowDefault bool `toml:"show_default_list"`
}

func (r ReadingListsConfig) SyncEnabled() bool        { return r.Sync }
func (r ReadingListsConfig) DefaultListEnabled() bool { return r.ShowDefault }

// SessionConfig identifies the signed-in user. An empty username means the
// user is anonymous.
type SessionConfig struct {
	Username string `toml:"username"`
}

func (s SessionConfig) IsLoggedIn() bool { return s.Username != "" }

// LocaleConfig holds the primary UI language.
type LocaleConfig struct {
	Language string `toml:"language"`
}

// HistoryConfig holds user history snapshot settings.
type HistoryConfig struct {
	IntervalMinutes int    `toml:"interval_minutes"`
	Sink            string `toml:"sink"` // "log" or "redis"
	RedisAddr       string `toml:"redis_addr"`
	RedisStream     string `toml:"redis_stream"`
	RedisMaxLen     int64  `toml:"redis_max_len"`
}

// Interval returns the snapshot check interval.
func (h HistoryConfig) Interval() time.Duration {
	return time.Duration(h.IntervalMinutes) * time.Minute
}

// FeedsConfig holds feed import settings.
type FeedsConfig struct {
	MaxItemsPerFeed int `toml:"max_items_per_feed"`
	LookbackDays    int `toml:"lookback_days"`
}

const defaultConfigContent = `[server]
host = "localhost"
port = 8080

[database]
path = "./data/bookshelf.db"      # or set BOOKSHELF_DB_PATH

[log]
level = "info"                    # debug, info, warn, error
format = "text"                   # text or json

[reading_lists]
sync_enabled = true
show_default_list = true

[session]
username = ""                     # empty means anonymous (or set BOOKSHELF_SESSION_USER)

[locale]
language = "en"                   # or set BOOKSHELF_LANGUAGE

[history]
interval_minutes = 30
sink = "log"                      # "log" or "redis"
redis_addr = "localhost:6379"     # or set BOOKSHELF_REDIS_ADDR
redis_stream = "bookshelf:events"
redis_max_len = 10000

[feeds]
max_items_per_feed = 50
lookback_days = 30
`

// Load reads and parses the TOML config from the given path. If the file does
// not exist, it creates a default config file at that path. Environment
// variables override values from the file with highest priority.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := createDefault(path); err != nil {
			return nil, fmt.Errorf("creating default config: %w", err)
		}
		slog.Info("created default config file", "path", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Validate explicitly-set values before applying defaults, so that
	// explicitly writing "port = 0" is an error rather than silently
	// being replaced with the default.
	if err := validateExplicit(&cfg, md); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	applyDefaults(&cfg, md)
	applyEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// createDefault writes the default config content to the given path,
// creating any parent directories as needed.
func createDefault(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigContent), 0o644); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}

// validateExplicit checks values that were explicitly set in the TOML file.
// This catches cases like "port = 0" which would otherwise be silently
// replaced by the default value.
func validateExplicit(cfg *Config, md toml.MetaData) error {
	if md.IsDefined("server", "port") {
		if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
			return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", cfg.Server.Port)
		}
	}
	if md.IsDefined("history", "interval_minutes") {
		if cfg.History.IntervalMinutes < 1 {
			return fmt.Errorf("invalid history.interval_minutes %d: must be >= 1", cfg.History.IntervalMinutes)
		}
	}
	if md.IsDefined("feeds", "lookback_days") {
		if cfg.Feeds.LookbackDays < 1 {
			return fmt.Errorf("invalid feeds.lookback_days %d: must be >= 1", cfg.Feeds.LookbackDays)
		}
	}
	return nil
}

// applyDefaults sets default values for any zero-valued fields. Boolean flags
// default to true only when the key is absent from the file, so an explicit
// false is respected.
func applyDefaults(cfg *Config, md toml.MetaData) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "./data/bookshelf.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if !md.IsDefined("reading_lists", "sync_enabled") {
		cfg.ReadingLists.Sync = true
	}
	if !md.IsDefined("reading_lists", "show_default_list") {
		cfg.ReadingLists.ShowDefault = true
	}
	if cfg.Locale.Language == "" {
		cfg.Locale.Language = "en"
	}
	if cfg.History.IntervalMinutes == 0 {
		cfg.History.IntervalMinutes = 30
	}
	if cfg.History.Sink == "" {
		cfg.History.Sink = "log"
	}
	if cfg.History.RedisAddr == "" {
		cfg.History.RedisAddr = "localhost:6379"
	}
	if cfg.History.RedisStream == "" {
		cfg.History.RedisStream = "bookshelf:events"
	}
	if cfg.Feeds.MaxItemsPerFeed == 0 {
		cfg.Feeds.MaxItemsPerFeed = 50
	}
	if cfg.Feeds.LookbackDays == 0 {
		cfg.Feeds.LookbackDays = 30
	}
}

// applyEnvOverrides applies environment variable overrides. Environment
// variables take highest priority over config file values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BOOKSHELF_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("BOOKSHELF_REDIS_ADDR"); v != "" {
		cfg.History.RedisAddr = v
	}
	if v := os.Getenv("BOOKSHELF_LANGUAGE"); v != "" {
		cfg.Locale.Language = v
	}
	if v := os.Getenv("BOOKSHELF_SESSION_USER"); v != "" {
		cfg.Session.Username = v
	}
}

// validate checks that configuration values are within acceptable ranges.
func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", cfg.Server.Port)
	}

	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("invalid log.level %q: must be debug, info, warn or error", cfg.Log.Level)
	}

	switch cfg.Log.Format {
	case "text", "json":
		// valid
	default:
		return fmt.Errorf("invalid log.format %q: must be \"text\" or \"json\"", cfg.Log.Format)
	}

	switch cfg.History.Sink {
	case "log", "redis":
		// valid
	default:
		return fmt.Errorf("invalid history.sink %q: must be \"log\" or \"redis\"", cfg.History.Sink)
	}

	if cfg.History.IntervalMinutes < 1 {
		return fmt.Errorf("invalid history.interval_minutes %d: must be >= 1", cfg.History.IntervalMinutes)
	}
	if cfg.Feeds.LookbackDays < 1 {
		return fmt.Errorf("invalid feeds.lookback_days %d: must be >= 1", cfg.Feeds.LookbackDays)
	}
	if cfg.Feeds.MaxItemsPerFeed < 0 {
		return fmt.Errorf("invalid feeds.max_items_per_feed %d: must be >= 0", cfg.Feeds.MaxItemsPerFeed)
	}

	if !cfg.Session.IsLoggedIn() {
		slog.Debug("session.username is empty: the user is treated as anonymous")
	}

	return nil
}
