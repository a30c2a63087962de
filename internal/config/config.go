// Package config loads logconsole settings from flags, environment and an
// optional config file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	envPrefix      = "LOGCONSOLE"
	configFileName = ".logconsole"

	defaultServer  = "http://localhost:8080"
	defaultTimeout = 10 * time.Second
)

var (
	ErrInvalidServer  = errors.New("invalid server url")
	ErrInvalidTimeout = errors.New("timeout must be positive")
)

// Config is the resolved client configuration.
type Config struct {
	Server   string
	Token    string
	Timeout  time.Duration
	Level    string
	Nodes    []string
	LogLevel string
}

// New returns a viper instance with defaults and env binding applied.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("server", defaultServer)
	v.SetDefault("timeout", defaultTimeout)
	v.SetDefault("level", "ERROR")
	v.SetDefault("nodes", []string{})
	v.SetDefault("log-level", "info")
	return v
}

// BindFlags registers the persistent flags shared by every command.
func BindFlags(cmd *cobra.Command, v *viper.Viper) error {
	fs := cmd.PersistentFlags()
	fs.String("config", "", "config file (default $HOME/.logconsole.yaml)")
	fs.String("server", defaultServer, "status server base url. Env: LOGCONSOLE_SERVER")
	fs.String("token", "", "bearer token sent to the status server. Env: LOGCONSOLE_TOKEN")
	fs.Duration("timeout", defaultTimeout, "request timeout. Env: LOGCONSOLE_TIMEOUT")
	fs.String("log-level", "info", "log level (debug, info, warn, error). Env: LOGCONSOLE_LOG_LEVEL")

	for _, name := range []string{"config", "server", "token", "timeout", "log-level"} {
		if err := v.BindPFlag(name, fs.Lookup(name)); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Load reads the config file, if any, and returns the validated settings.
// An explicit --config that cannot be read is an error; a missing default
// file is not.
func Load(v *viper.Viper) (*Config, error) {
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := &Config{
		Server:   strings.TrimRight(v.GetString("server"), "/"),
		Token:    v.GetString("token"),
		Timeout:  v.GetDuration("timeout"),
		Level:    v.GetString("level"),
		Nodes:    v.GetStringSlice("nodes"),
		LogLevel: v.GetString("log-level"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the server url and timeout.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidServer, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidServer, c.Server)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTimeout, c.Timeout)
	}
	return nil
}

// UsedFile returns the config file that was read, or "".
func UsedFile(v *viper.Viper) string {
	if f := v.ConfigFileUsed(); f != "" {
		if abs, err := filepath.Abs(f); err == nil {
			return abs
		}
		return f
	}
	return ""
}
