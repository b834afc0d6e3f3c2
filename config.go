package nativeclipboard

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config tunes how the clipboard is accessed.
type Config struct {
	// OpenRetries is how many times opening the clipboard (or the X
	// display) is attempted before giving up.
	OpenRetries int `yaml:"open_retries"`
	// RetryDelay is the pause between open attempts.
	RetryDelay time.Duration `yaml:"retry_delay"`
	// PollInterval is how often Watch and the change notification of
	// Write look at the clipboard.
	PollInterval time.Duration `yaml:"poll_interval"`
	// ReadTimeout bounds how long a read waits for the owner of an X11
	// selection to answer.
	ReadTimeout time.Duration `yaml:"read_timeout"`
	// LogLevel is used by NewLogger when building a logger from config.
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns the configuration used until Configure is called.
func DefaultConfig() Config {
	return Config{
		OpenRetries:  10,
		RetryDelay:   10 * time.Millisecond,
		PollInterval: time.Second,
		ReadTimeout:  2 * time.Second,
		LogLevel:     "info",
	}
}

var config = DefaultConfig()

// LoadConfig reads a YAML config file. Missing fields keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg.withDefaults(), nil
}

// Configure replaces the active configuration.
func Configure(cfg Config) {
	lock.Lock()
	defer lock.Unlock()
	config = cfg.withDefaults()
}

// CurrentConfig returns the active configuration.
func CurrentConfig() Config {
	lock.Lock()
	defer lock.Unlock()
	return config
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.OpenRetries <= 0 {
		c.OpenRetries = def.OpenRetries
	}
	if c.RetryDelay < 0 {
		c.RetryDelay = def.RetryDelay
	}
	if c.PollInterval <= 0 {
		c.PollInterval = def.PollInterval
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = def.ReadTimeout
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	return c
}
