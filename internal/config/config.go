// Package config resolves runtime settings from defaults, an optional TOML
// file, a .env file and CART_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/subosito/gotenv"

	"github.com/idilsaglam/cart/internal/logging"
)

const (
	DefaultFile = "cart.toml"
	DefaultKey  = "@app:cart"
)

// DotEnvFile is loaded after the TOML file. Variables already set in the
// environment win over it.
var DotEnvFile = ".env"

var backends = map[string]bool{"json": true, "ledis": true, "redis": true, "memory": true}

type Config struct {
	Storage Storage `toml:"storage"`
	Log     Log     `toml:"log"`
	UI      UI      `toml:"ui"`
}

type Storage struct {
	Backend      string `toml:"backend"`
	Key          string `toml:"key"`
	DataDir      string `toml:"data_dir"`
	RedisAddr    string `toml:"redis_addr"`
	WriteTimeout string `toml:"write_timeout"` // e.g. "2s"; empty means no timeout
}

type Log struct {
	Level      string `toml:"level"`
	File       string `toml:"file"` // "-" is stderr; empty is cart.log in the data dir
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
}

type UI struct {
	Theme string `toml:"theme"`
}

func Default() Config {
	return Config{
		Storage: Storage{
			Backend: "json",
			Key:     DefaultKey,
			DataDir: ".",
		},
		Log: Log{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		UI: UI{Theme: "classic"},
	}
}

// Load builds the configuration. An empty path falls back to cart.toml in
// the working directory when it exists; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	if err := gotenv.Load(DotEnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("env file %s: %w", DotEnvFile, err)
	}
	applyEnv(&cfg)
	cfg.Storage.Backend = strings.ToLower(cfg.Storage.Backend)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	set := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set("CART_BACKEND", &cfg.Storage.Backend)
	set("CART_KEY", &cfg.Storage.Key)
	set("CART_DATA_DIR", &cfg.Storage.DataDir)
	set("CART_REDIS_ADDR", &cfg.Storage.RedisAddr)
	set("CART_WRITE_TIMEOUT", &cfg.Storage.WriteTimeout)
	set("CART_LOG_LEVEL", &cfg.Log.Level)
	set("CART_LOG_FILE", &cfg.Log.File)
	set("CART_THEME", &cfg.UI.Theme)
}

func (c Config) Validate() error {
	if !backends[c.Storage.Backend] {
		return fmt.Errorf("config: unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.Key == "" {
		return errors.New("config: empty storage key")
	}
	if c.Storage.Backend == "redis" && c.Storage.RedisAddr == "" {
		return errors.New("config: redis backend needs storage.redis_addr")
	}
	if _, err := c.Storage.Timeout(); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Timeout parses WriteTimeout. Zero means writes are not bounded.
func (s Storage) Timeout() (time.Duration, error) {
	if s.WriteTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s.WriteTimeout)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("config: bad write_timeout %q", s.WriteTimeout)
	}
	return d, nil
}

// LogPath is where log lines go; "-" means stderr.
func (c Config) LogPath() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(c.Storage.DataDir, "cart.log")
}
