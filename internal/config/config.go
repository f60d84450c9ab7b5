// Package config loads and validates netwalker's YAML configuration.
//
// Credentials never have to live in the file: the SSH username and
// password can be supplied through NETWALKER_SSH_USERNAME and
// NETWALKER_SSH_PASSWORD, which take precedence over file values.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"netwalker/internal/boundary"
)

const (
	EnvSSHUsername = "NETWALKER_SSH_USERNAME"
	EnvSSHPassword = "NETWALKER_SSH_PASSWORD"
)

var ErrNoSeeds = errors.New("config: no seeds and no sweep networks configured")

// Load reads config from path, applies environment overrides and
// defaults, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvSSHUsername); v != "" {
		c.Credentials.Username = v
	}
	if v := os.Getenv(EnvSSHPassword); v != "" {
		c.Credentials.Password = v
	}
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Walk.MaxDepth == nil {
		c.Walk.MaxDepth = intPtr(8)
	}
	if c.Walk.ConcurrentConnections == 0 {
		c.Walk.ConcurrentConnections = 8
	}
	if c.Walk.ConnectTimeout == 0 {
		c.Walk.ConnectTimeout = Duration(15 * time.Second)
	}
	if c.Walk.CommandTimeout == 0 {
		c.Walk.CommandTimeout = Duration(30 * time.Second)
	}
	if c.Walk.RetryAttempts == nil {
		c.Walk.RetryAttempts = intPtr(2)
	}
	if c.Walk.RetryBackoff == 0 {
		c.Walk.RetryBackoff = Duration(2 * time.Second)
	}
	if c.Database.Path == "" {
		c.Database.Path = "./netwalker.db"
	}
}

// Validate reports configuration that cannot produce a usable run.
func (c *Config) Validate() error {
	if len(c.Seeds) == 0 && len(c.Sweep.Networks) == 0 {
		return ErrNoSeeds
	}
	for i, s := range c.Seeds {
		if s.Name == "" && s.Address == "" {
			return fmt.Errorf("config: seed %d has neither name nor address", i)
		}
	}
	if c.Walk.MaxDepth != nil && *c.Walk.MaxDepth < 0 {
		return fmt.Errorf("config: max_depth must not be negative")
	}
	if c.Walk.ConcurrentConnections < 1 {
		return fmt.Errorf("config: concurrent_connections must be at least 1")
	}
	if c.Walk.RetryAttempts != nil && *c.Walk.RetryAttempts < 0 {
		return fmt.Errorf("config: retry_attempts must not be negative")
	}
	if c.Credentials.Username == "" {
		return fmt.Errorf("config: credentials.username is required (or set %s)", EnvSSHUsername)
	}
	if c.Credentials.Password == "" && c.Credentials.SSHKeyPath == "" {
		return fmt.Errorf("config: a password or ssh_key_path is required (or set %s)", EnvSSHPassword)
	}

	policy := boundary.Policy{Pattern: c.Boundary.SitePattern, CollectSite: c.Boundary.CollectSite}
	if err := policy.Validate(); err != nil {
		return fmt.Errorf("config: boundary.site_pattern: %w", err)
	}

	return nil
}

func intPtr(v int) *int {
	return &v
}
