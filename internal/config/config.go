package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

const (
	defaultZaptecBaseURL = "https://api.zaptec.com"
	defaultSpotBaseURL   = "https://mgrey.se"
	defaultPriceArea     = "SE3"
	defaultPageSize      = 50
	defaultCacheTTLMin   = 60
)

// Config holds everything the tool needs for one run, loaded from the config
// file with env-var overrides.
type Config struct {
	Zaptec struct {
		Username string `yaml:"username" env:"ZAPTEC_USERNAME"`
		Password string `yaml:"password" env:"ZAPTEC_PASSWORD"`
		BaseURL  string `yaml:"baseUrl" env:"ZAPTEC_BASE_URL"`
	} `yaml:"zaptec"`
	Spot struct {
		BaseURL string `yaml:"baseUrl" env:"SPOT_BASE_URL"`
		Area    string `yaml:"area" env:"SPOT_PRICE_AREA"`
	} `yaml:"spot"`
	Cache struct {
		RedisAddr     string `yaml:"redisAddr" env:"CACHE_REDIS_ADDR"`
		RedisPassword string `yaml:"redisPassword" env:"CACHE_REDIS_PASSWORD"`
		TTLMinutes    int    `yaml:"ttlMinutes" env:"CACHE_TTL_MINUTES"`
	} `yaml:"cache"`
	Report struct {
		PageSize int `yaml:"pageSize" env:"REPORT_PAGE_SIZE"`
	} `yaml:"report"`
}

// DefaultPath returns the per-user config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".charging-costs", "config.yaml")
}

// Load reads configuration from path (missing file is fine) and applies env
// overrides and defaults. Credentials are not validated here; call
// EnsureCredentials before the first authenticated request.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := hydrate(path, cfg); err != nil {
		return nil, err
	}

	if cfg.Zaptec.BaseURL == "" {
		cfg.Zaptec.BaseURL = defaultZaptecBaseURL
	}
	if cfg.Spot.BaseURL == "" {
		cfg.Spot.BaseURL = defaultSpotBaseURL
	}
	if cfg.Spot.Area == "" {
		cfg.Spot.Area = defaultPriceArea
	}
	if cfg.Report.PageSize <= 0 {
		cfg.Report.PageSize = defaultPageSize
	}
	if cfg.Cache.TTLMinutes <= 0 {
		cfg.Cache.TTLMinutes = defaultCacheTTLMin
	}

	return cfg, nil
}

// CacheTTL converts the configured cache expiry to a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLMinutes) * time.Minute
}

// EnsureCredentials prompts for missing Zaptec credentials when attached to a
// terminal and saves them back to path for the next run. Without a terminal it
// fails, so nothing network-facing ever starts with empty credentials.
func (c *Config) EnsureCredentials(path string) error {
	if c.Zaptec.Username != "" && c.Zaptec.Password != "" {
		return nil
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("config: zaptec username and password are required (set ZAPTEC_USERNAME/ZAPTEC_PASSWORD or the config file)")
	}

	fmt.Fprintln(os.Stderr, "Zaptec credentials not found.")
	if c.Zaptec.Username == "" {
		fmt.Fprint(os.Stderr, "Zaptec username: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return fmt.Errorf("config: read username: %w", err)
		}
		c.Zaptec.Username = strings.TrimSpace(line)
	}
	if c.Zaptec.Password == "" {
		fmt.Fprint(os.Stderr, "Zaptec password: ")
		secret, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return fmt.Errorf("config: read password: %w", err)
		}
		c.Zaptec.Password = strings.TrimSpace(string(secret))
	}

	if c.Zaptec.Username == "" || c.Zaptec.Password == "" {
		return errors.New("config: username and password are required")
	}

	if path == "" {
		return nil
	}
	if err := c.Save(path); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Credentials saved to %s\n", path)
	return nil
}

// Save writes the configuration to path, creating the directory if needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("config: create dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: encode yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("config: write file: %w", err)
	}
	return nil
}
