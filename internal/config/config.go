package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
)

const (
	MinTimeout = 1
	MaxTimeout = 600
)

// Config represents the main application configuration
type Config struct {
	APIKey         string       `toml:"api_key"`
	APIURL         string       `toml:"api_url"`
	Username       string       `toml:"username"`
	Password       string       `toml:"password"`
	SessionKey     string       `toml:"session_key"`
	Loglevel       string       `toml:"loglevel"`
	Timeout        int          `toml:"timeout"`
	UserAgent      string       `toml:"user_agent"`
	SpeedLimit     int          `toml:"speed_limit"`
	StrictFileSize bool         `toml:"strict_file_size"`
	Upload         UploadConfig `toml:"upload"`
}

// UploadConfig holds default upload.getinfo options
type UploadConfig struct {
	Description    string `toml:"description"`
	Password       string `toml:"password"`
	FolderID       string `toml:"folder_id"`
	RecipientEmail string `toml:"recipient_email"`
	NotifyUploader bool   `toml:"notify_uploader"`
	RedirectURL    string `toml:"redirect_url"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		APIURL:   "http://api.sendspace.com/rest/",
		Loglevel: "info",
		Timeout:  30,
	}
}

// DefaultConfigPath returns the default configuration file path
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".config", "gosendspace")

	return filepath.Join(configDir, "config.toml"), nil
}

// Load loads configuration from a TOML file
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads configPath if it exists and falls back to defaults
// otherwise, so that every setting can come from flags alone.
func LoadOrDefault(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	return Load(configPath)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("api_key is required")
	}
	if c.APIURL == "" {
		return fmt.Errorf("api_url is required")
	}
	if _, err := url.ParseRequestURI(c.APIURL); err != nil {
		return fmt.Errorf("api_url is invalid: %v", err)
	}
	if _, err := logrus.ParseLevel(c.Loglevel); err != nil {
		return fmt.Errorf("loglevel must be one of: panic, fatal, error, warn, info, debug, trace")
	}
	if c.Timeout < MinTimeout || c.Timeout > MaxTimeout {
		return fmt.Errorf("timeout must be between %d and %d seconds", MinTimeout, MaxTimeout)
	}
	if c.SpeedLimit < 0 {
		return fmt.Errorf("speed_limit cannot be negative")
	}
	if c.Upload.RedirectURL != "" {
		if _, err := url.ParseRequestURI(c.Upload.RedirectURL); err != nil {
			return fmt.Errorf("upload.redirect_url is invalid: %v", err)
		}
	}

	return nil
}

// ValidateCredentials checks that a session can be established, either from
// a stored session key or from a username.
func (c *Config) ValidateCredentials() error {
	if c.SessionKey == "" && c.Username == "" {
		return fmt.Errorf("either session_key or username is required")
	}
	return nil
}
