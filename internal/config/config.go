package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/dutydesk/dutydesk-console/pkg/events"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the console configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`
	Output   string `mapstructure:"output"`

	APIOrigin string `mapstructure:"api_origin"`

	SessionStore string `mapstructure:"session_store"`
	SessionPath  string `mapstructure:"session_path"`
	RedisAddr    string `mapstructure:"redis_addr"`
	RedisPrefix  string `mapstructure:"redis_prefix"`

	// EventsFile is a YAML or JSON file merged into this config; its "sinks"
	// list declares where session events go.
	EventsFile string              `mapstructure:"events_file"`
	Sinks      []events.SinkConfig `mapstructure:"sinks"`

	DevListenAddr string `mapstructure:"dev_listen_addr"`
	DevBackendURL string `mapstructure:"dev_backend_url"`
	DevStaticDir  string `mapstructure:"dev_static_dir"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "dutydesk-console")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("output", "json")
	v.SetDefault("api_origin", "http://127.0.0.1:5173")
	v.SetDefault("session_store", "bbolt")
	v.SetDefault("session_path", "./data/session.db")
	v.SetDefault("redis_addr", "127.0.0.1:6379")
	v.SetDefault("redis_prefix", "dutydesk:session:")
	v.SetDefault("events_file", "")
	v.SetDefault("dev_listen_addr", "0.0.0.0:5173")
	v.SetDefault("dev_backend_url", "http://127.0.0.1:8000")
	v.SetDefault("dev_static_dir", "./dist")

	v.AutomaticEnv()

	if path := strings.TrimSpace(v.GetString("events_file")); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read events file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	c.Output = strings.ToLower(strings.TrimSpace(c.Output))
	switch c.Output {
	case "json", "yaml":
	default:
		return fmt.Errorf("invalid output %q (expected json or yaml)", c.Output)
	}

	c.APIOrigin = strings.TrimRight(strings.TrimSpace(c.APIOrigin), "/")
	if err := requireAbsoluteURL("api_origin", c.APIOrigin); err != nil {
		return err
	}

	c.DevBackendURL = strings.TrimRight(strings.TrimSpace(c.DevBackendURL), "/")
	if err := requireAbsoluteURL("dev_backend_url", c.DevBackendURL); err != nil {
		return err
	}

	c.SessionStore = strings.ToLower(strings.TrimSpace(c.SessionStore))
	if c.SessionStore == "bbolt" && strings.TrimSpace(c.SessionPath) == "" {
		return fmt.Errorf("invalid session_path (required for bbolt session store)")
	}
	if c.SessionStore == "redis" && strings.TrimSpace(c.RedisAddr) == "" {
		return fmt.Errorf("invalid redis_addr (required for redis session store)")
	}
	return nil
}

func requireAbsoluteURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid %s %q (must be an absolute URL)", key, raw)
	}
	return nil
}
