// Package config loads smeta's settings from defaults, an optional YAML
// file, a .env file and SMETA_* environment variables, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SMETA_API_BASE_URL.
const EnvPrefix = "SMETA"

type Config struct {
	API APIConfig `mapstructure:"api"`
	DB  DBConfig  `mapstructure:"db"`
	Log LogConfig `mapstructure:"log"`
	UI  UIConfig  `mapstructure:"ui"`
}

type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	// File receives logs; empty disables logging.
	File string `mapstructure:"file"`
}

type UIConfig struct {
	PageSize       int           `mapstructure:"page_size"`
	SearchDebounce time.Duration `mapstructure:"search_debounce"`
	SearchMinChars int           `mapstructure:"search_min_chars"`
	ExportDir      string        `mapstructure:"export_dir"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		API: APIConfig{BaseURL: "http://localhost:8000", Timeout: 15 * time.Second},
		DB:  DBConfig{Path: filepath.Join("~", ".smeta", "smeta.db")},
		Log: LogConfig{Level: "info"},
		UI: UIConfig{
			PageSize:       10,
			SearchDebounce: 500 * time.Millisecond,
			SearchMinChars: 2,
			ExportDir:      ".",
		},
	}
}

// Options locate the configuration sources. Zero values use the defaults:
// ~/.smeta/config.yaml when present and .env in the working directory.
type Options struct {
	ConfigFile string
	EnvFile    string
}

// Load reads the configuration from path (may be empty) and the
// environment.
func Load(path string) (Config, error) {
	return LoadWith(Options{ConfigFile: path})
}

// LoadWith reads the configuration from the given sources.
func LoadWith(opts Options) (Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("reading %s: %w", envFile, err)
	}

	v := viper.New()
	setDefaults(v, Default())
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".smeta"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	path, err := ExpandHome(cfg.DB.Path)
	if err != nil {
		return Config{}, err
	}
	cfg.DB.Path = path
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.timeout", d.API.Timeout)
	v.SetDefault("db.path", d.DB.Path)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("ui.page_size", d.UI.PageSize)
	v.SetDefault("ui.search_debounce", d.UI.SearchDebounce)
	v.SetDefault("ui.search_min_chars", d.UI.SearchMinChars)
	v.SetDefault("ui.export_dir", d.UI.ExportDir)
}

// Validate rejects values the client cannot run with.
func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.API.BaseURL) == "":
		return fmt.Errorf("config api.base_url: must not be empty")
	case c.API.Timeout <= 0:
		return fmt.Errorf("config api.timeout: must be positive, got %s", c.API.Timeout)
	case c.UI.PageSize <= 0:
		return fmt.Errorf("config ui.page_size: must be positive, got %d", c.UI.PageSize)
	case c.UI.SearchDebounce < 0:
		return fmt.Errorf("config ui.search_debounce: must not be negative, got %s", c.UI.SearchDebounce)
	case c.UI.SearchMinChars < 0:
		return fmt.Errorf("config ui.search_min_chars: must not be negative, got %d", c.UI.SearchMinChars)
	case c.DB.Path == "":
		return fmt.Errorf("config db.path: must not be empty")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config log.level: %w", err)
	}
	return nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, "~"+string(filepath.Separator)) {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}
