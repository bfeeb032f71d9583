package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	Lookup    LookupConfig    `yaml:"lookup"`
	Store     StoreConfig     `yaml:"store"`
	State     StateConfig     `yaml:"state"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type AuthConfig struct {
	BaseURL string `yaml:"base_url"`
}

type LookupConfig struct {
	BaseURL    string `yaml:"base_url"`
	DebounceMS int    `yaml:"debounce_ms"`
	MinQuery   int    `yaml:"min_query"`
	MaxResults int    `yaml:"max_results"`
}

type StoreConfig struct {
	BaseURL string `yaml:"base_url"`
}

type StateConfig struct {
	Dir string `yaml:"dir"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides. Env vars use the prefix TRAKR_ and underscore-separated paths:
//
//	TRAKR_SERVER_HOST, TRAKR_SERVER_PORT,
//	TRAKR_AUTH_BASE_URL, TRAKR_LOOKUP_BASE_URL,
//	TRAKR_STORE_BASE_URL, TRAKR_STATE_DIR
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TRAKR_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("TRAKR_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("TRAKR_AUTH_BASE_URL"); v != "" {
		cfg.Auth.BaseURL = v
	}
	if v := os.Getenv("TRAKR_LOOKUP_BASE_URL"); v != "" {
		cfg.Lookup.BaseURL = v
	}
	if v := os.Getenv("TRAKR_STORE_BASE_URL"); v != "" {
		cfg.Store.BaseURL = v
	}
	if v := os.Getenv("TRAKR_STATE_DIR"); v != "" {
		cfg.State.Dir = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Lookup.DebounceMS == 0 {
		cfg.Lookup.DebounceMS = 300
	}
	if cfg.Lookup.MinQuery == 0 {
		cfg.Lookup.MinQuery = 2
	}
	if cfg.Lookup.MaxResults == 0 {
		cfg.Lookup.MaxResults = 8
	}
	if cfg.State.Dir == "" {
		cfg.State.Dir = "state"
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Auth.BaseURL == "" {
		return fmt.Errorf("auth.base_url is required")
	}
	if c.Lookup.BaseURL == "" {
		return fmt.Errorf("lookup.base_url is required")
	}
	if c.Store.BaseURL == "" {
		return fmt.Errorf("store.base_url is required")
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	return nil
}
