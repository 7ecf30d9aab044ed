// Package config loads and exposes application configuration (TOML).
package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Default configuration values used when a field is missing in TOML.
const (
	DefaultConfigPath    = "config.toml"
	DefaultHTTPAddr      = ":8080"
	DefaultWebMode       = ModePlayer
	DefaultPGHost        = "127.0.0.1"
	DefaultPGPort        = 5432
	DefaultPGUser        = "postgres"
	DefaultPGDatabase    = "filestream"
	DefaultPGSSLMode     = "disable"
	DefaultSweepSpec     = "@hourly"
	DefaultProbeInterval = "3s"
)

// Web presentation modes for /watch links.
const (
	ModePlayer   = "player"
	ModeRedirect = "redirect"
)

// Config is the root application configuration loaded from TOML.
type Config struct {
	Log      LogConfig      `toml:"log"`
	Server   ServerConfig   `toml:"server"`
	Telegram TelegramConfig `toml:"telegram"`
	Postgres PostgresConfig `toml:"postgres"`
	Web      WebConfig      `toml:"web"`
	Sweep    SweepConfig    `toml:"sweep"`
}

// LogConfig holds logging level and format (e.g. level=info, format=text).
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// ServerConfig holds the HTTP server listen address.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// TelegramConfig holds the bot token and the optional audit log channel.
type TelegramConfig struct {
	BotToken     string `toml:"bot_token"`
	LogChannelID int64  `toml:"log_channel_id"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	SSLMode  string `toml:"sslmode"`
}

// WebConfig holds the public base URL and the link presentation mode
// ("player" renders the HTML5 page, "redirect" deep-links into Telegram).
type WebConfig struct {
	BaseURL string `toml:"base_url"`
	Mode    string `toml:"mode"`
}

// SweepConfig holds the owner-sweep cron spec and the inter-probe delay.
type SweepConfig struct {
	Enabled       bool   `toml:"enabled"`
	Spec          string `toml:"spec"`
	ProbeInterval string `toml:"probe_interval"`
}

// Load reads and parses the TOML config file at path and applies default values for missing fields.
func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Postgres: PostgresConfig{
			Host:     DefaultPGHost,
			Port:     DefaultPGPort,
			User:     DefaultPGUser,
			Database: DefaultPGDatabase,
			SSLMode:  DefaultPGSSLMode,
		},
		Web: WebConfig{
			BaseURL: "http://localhost:8080",
			Mode:    DefaultWebMode,
		},
		Sweep: SweepConfig{
			Enabled:       true,
			Spec:          DefaultSweepSpec,
			ProbeInterval: DefaultProbeInterval,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}
