// Package config provides runtime configuration for dust. Values are
// populated from dust.yaml, DUST_* env vars, and CLI flags, in that
// order of increasing precedence.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// Config holds all runtime configuration for dust.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Scan     ScanConfig     `mapstructure:"scan"`
	Pacman   PacmanConfig   `mapstructure:"pacman"`
	Proc     ProcConfig     `mapstructure:"proc"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Bind string `mapstructure:"bind"`
	Port int    `mapstructure:"port"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type ScanConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Timeout  time.Duration `mapstructure:"timeout"`
	// Watch enables rescans triggered by pacman database changes.
	Watch bool `mapstructure:"watch"`
}

type PacmanConfig struct {
	Binary string `mapstructure:"binary"`
	// LocalDB is the pacman local database directory watched for changes.
	LocalDB string `mapstructure:"local_db"`
}

type ProcConfig struct {
	Root string `mapstructure:"root"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// DefaultDBPath returns the default database location under the XDG data
// home, e.g. ~/.local/share/dust/dust.db.
func DefaultDBPath() string {
	return filepath.Join(xdg.DataHome, "dust", "dust.db")
}

// Dir returns the dust config directory under the XDG config home.
func Dir() string {
	return filepath.Join(xdg.ConfigHome, "dust")
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() (Config, error) {
	viper.SetDefault("server.bind", "127.0.0.1")
	viper.SetDefault("server.port", 8765)
	viper.SetDefault("database.path", DefaultDBPath())
	viper.SetDefault("scan.interval", 15*time.Minute)
	viper.SetDefault("scan.timeout", 30*time.Second)
	viper.SetDefault("scan.watch", true)
	viper.SetDefault("pacman.binary", "pacman")
	viper.SetDefault("pacman.local_db", "/var/lib/pacman/local")
	viper.SetDefault("proc.root", "/proc")
	viper.SetDefault("log.level", "info")

	viper.SetConfigName("dust")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(Dir())
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("DUST")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
