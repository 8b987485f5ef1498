package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config is the full runtime configuration. Defaults make every component
// runnable with no file, no env and no external services.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Server   ServerConfig   `mapstructure:"server"`
	Relay    RelayConfig    `mapstructure:"relay"`
	Game     GameConfig     `mapstructure:"game"`
	Database DatabaseConfig `mapstructure:"database"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // json or console
	File       string `mapstructure:"file"`   // empty = stdout only
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type RelayConfig struct {
	Addr string `mapstructure:"addr"`
}

type GameConfig struct {
	Players      int           `mapstructure:"players"`
	Bots         int           `mapstructure:"bots"`
	AutoEndDelay time.Duration `mapstructure:"auto_end_delay"`
	BotDeadline  time.Duration `mapstructure:"bot_deadline"`
	Seed         int64         `mapstructure:"seed"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"` // empty disables the settings store
}

// Loader reads and watches one config file.
type Loader struct {
	mu  sync.Mutex
	v   *viper.Viper
	cfg *Config
}

// NewLoader prepares a loader for the given path. The file is optional: a
// missing file yields pure defaults (plus env overrides, prefix KINGDOMS).
func NewLoader(path string) *Loader {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("KINGDOMS")
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
	}
	return &Loader{v: v}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 14)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("relay.addr", ":8081")
	v.SetDefault("game.players", 2)
	v.SetDefault("game.bots", 1)
	v.SetDefault("game.auto_end_delay", 2*time.Second)
	v.SetDefault("game.bot_deadline", 10*time.Second)
	v.SetDefault("game.seed", 0)
	v.SetDefault("database.dsn", "")
}

// Load reads the file (when present) and unmarshals the effective config.
func (l *Loader) Load() (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if file := l.v.ConfigFileUsed(); file != "" {
		if _, err := os.Stat(file); err == nil {
			if err := l.v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", file, err)
			}
		}
	}
	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	l.cfg = cfg
	return cfg, nil
}

// Watch re-loads on file changes and hands the fresh config to onChange.
// Intended for live log-level adjustment; components pick the fields they
// care to re-read.
func (l *Loader) Watch(onChange func(*Config)) {
	l.v.OnConfigChange(func(fsnotify.Event) {
		l.mu.Lock()
		cfg := &Config{}
		if err := l.v.Unmarshal(cfg); err != nil {
			l.mu.Unlock()
			return
		}
		l.cfg = cfg
		l.mu.Unlock()
		onChange(cfg)
	})
	l.v.WatchConfig()
}
