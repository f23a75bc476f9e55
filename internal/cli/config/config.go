package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const ConfigFileName = "studio.json"

const (
	DefaultAPIURL   = "http://localhost:8080/api"
	DefaultLogLevel = "warn"
	DefaultTimeout  = 30 * time.Second
)

// Token stores the CLI can persist the bearer token in.
const (
	TokenStoreKeyring = "keyring"
	TokenStoreFile    = "file"
	TokenStoreMemory  = "memory"
)

var ErrConfigNotFound = errors.New("studio.json not found")

// Config represents the CLI configuration file
type Config struct {
	APIURL     string `json:"apiUrl"`
	LogLevel   string `json:"logLevel,omitempty"`
	Timeout    string `json:"timeout,omitempty"`    // Go duration, e.g. "15s"
	TokenStore string `json:"tokenStore,omitempty"` // keyring, file, memory

	// RequestTimeout is Timeout parsed by Resolve.
	RequestTimeout time.Duration `json:"-"`
}

// DefaultConfig returns the configuration used when no studio.json exists
func DefaultConfig() *Config {
	return &Config{
		APIURL:         DefaultAPIURL,
		LogLevel:       DefaultLogLevel,
		Timeout:        DefaultTimeout.String(),
		TokenStore:     TokenStoreKeyring,
		RequestTimeout: DefaultTimeout,
	}
}

// FindConfigFile searches for studio.json in current directory and parent directories
func FindConfigFile() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	// Search upwards until we find studio.json or reach root
	dir := currentDir
	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("%w in %s or any parent directory", ErrConfigNotFound, currentDir)
}

// Load reads the configuration file. Fields it leaves out keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to a file
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Resolve builds the effective configuration: defaults, then studio.json from
// the current directory or a parent, then STUDIO_* environment variables
// (including any set in .env).
func Resolve() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := DefaultConfig()
	path, err := FindConfigFile()
	switch {
	case err == nil:
		if cfg, err = Load(path); err != nil {
			return nil, err
		}
	case !errors.Is(err, ErrConfigNotFound):
		return nil, err
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("STUDIO_API_URL"); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv("STUDIO_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("STUDIO_TIMEOUT"); v != "" {
		c.Timeout = v
	}
	if v := os.Getenv("STUDIO_TOKEN_STORE"); v != "" {
		c.TokenStore = v
	}
}

// Validate checks the configuration and fills RequestTimeout.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid apiUrl %q: must be an http(s) URL", c.APIURL)
	}
	c.APIURL = strings.TrimRight(c.APIURL, "/")

	c.RequestTimeout = DefaultTimeout
	if c.Timeout != "" {
		d, err := time.ParseDuration(c.Timeout)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid timeout %q: must be a positive duration", c.Timeout)
		}
		c.RequestTimeout = d
	}

	switch c.TokenStore {
	case "":
		c.TokenStore = TokenStoreKeyring
	case TokenStoreKeyring, TokenStoreFile, TokenStoreMemory:
	default:
		return fmt.Errorf("invalid tokenStore %q: must be keyring, file or memory", c.TokenStore)
	}
	return nil
}

// Origin is the scheme and host of the API, used to scope stored credentials.
func (c *Config) Origin() string {
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return c.APIURL
	}
	return u.Scheme + "://" + u.Host
}
