package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName              string        `mapstructure:"app_name"`
	Env                  string        `mapstructure:"app_env"`
	LogLevel             string        `mapstructure:"log_level"`
	EndpointsFile        string        `mapstructure:"endpoints_file"`
	PublishersFile       string        `mapstructure:"publishers_file"`
	ProbeIntervalSeconds int64         `mapstructure:"probe_interval"`
	ProbeInterval        time.Duration `mapstructure:"-"`
	MetricsAddr          string        `mapstructure:"metrics_addr"`

	BaseURL            string        `mapstructure:"base_url"`
	HTTPTimeoutSeconds int64         `mapstructure:"http_timeout_seconds"`
	HTTPTimeout        time.Duration `mapstructure:"-"`
	TokenHeader        string        `mapstructure:"token_header"`
	TokenPrefix        string        `mapstructure:"token_prefix"`
	SessionToken       string        `mapstructure:"session_token" json:"-"`

	SuccessCode       string   `mapstructure:"success_code"`
	InvalidTokenCodes []string `mapstructure:"-"`
	FailCheckEnabled  bool     `mapstructure:"fail_check_enabled"`
	NormalizeEnabled  bool     `mapstructure:"normalize_enabled"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	EventTTLSeconds        int64         `mapstructure:"event_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	EventTTL               time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

// Development reports whether the app runs in development mode.
func (c *Config) Development() bool {
	if c == nil {
		return false
	}
	env := strings.ToLower(strings.TrimSpace(c.Env))
	return env == "development" || env == "dev"
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "samvad-bizclient")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("endpoints_file", "./configs/endpoints.yaml")
	v.SetDefault("publishers_file", "./configs/publishers.yaml")
	v.SetDefault("probe_interval", 60) // seconds
	v.SetDefault("metrics_addr", "")
	v.SetDefault("base_url", "")
	v.SetDefault("http_timeout_seconds", 15)
	v.SetDefault("token_header", "token")
	v.SetDefault("token_prefix", "")
	v.SetDefault("session_token", "")
	v.SetDefault("success_code", "SUCCESS")
	v.SetDefault("invalid_token_codes", "TOKEN_INVALID,TOKEN_EXPIRED,INVALID_TOKEN")
	v.SetDefault("fail_check_enabled", true)
	v.SetDefault("normalize_enabled", true)
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/state.db")
	v.SetDefault("event_ttl_seconds", int64((10*time.Minute)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64(time.Hour/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.InvalidTokenCodes = splitList(v.GetString("invalid_token_codes"))

	if cfg.ProbeIntervalSeconds <= 0 {
		return nil, fmt.Errorf("invalid probe_interval (must be positive seconds)")
	}
	cfg.ProbeInterval = time.Duration(cfg.ProbeIntervalSeconds) * time.Second

	if cfg.HTTPTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid http_timeout_seconds (must be positive seconds)")
	}
	cfg.HTTPTimeout = time.Duration(cfg.HTTPTimeoutSeconds) * time.Second

	if cfg.EventTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid event_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.EventTTL = time.Duration(cfg.EventTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	return &cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
