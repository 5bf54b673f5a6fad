// Package config provides configuration management for the reporter.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"xwikireport/internal/models"
)

// Configuration validation errors.
var (
	ErrMissingBaseURL        = errors.New("xwiki.base_url is required")
	ErrInvalidBaseURL        = errors.New("xwiki.base_url must be an absolute http(s) URL")
	ErrInvalidTimeout        = errors.New("xwiki.timeout_sec must be at least 1")
	ErrInvalidMaxBody        = errors.New("xwiki.max_body_kb must be at least 1")
	ErrNoSpaces              = errors.New("at least one space is required")
	ErrSpaceMissingURL       = errors.New("space url is required")
	ErrNoEnabledSpaces       = errors.New("at least one space must be enabled")
	ErrInvalidSanitizeMode   = errors.New("sanitize.mode must be 'skip' or 'redirect'")
	ErrMissingRedirectLabels = errors.New("sanitize.redirect_from and sanitize.redirect_to are required in redirect mode")
	ErrInvalidCollision      = errors.New("aggregation.collision must be one of: first, last, error, disambiguate")
	ErrMissingOutputDir      = errors.New("output.dir is required")
	ErrInvalidPublishURL     = errors.New("publish.page_url must be an absolute http(s) URL when publishing is enabled")
	ErrInvalidLogLevel       = errors.New("logging.level must be one of: debug, info, warn, error")
)

// Sanitize modes.
const (
	SanitizeSkip     = "skip"
	SanitizeRedirect = "redirect"
)

// Collision policies.
const (
	CollisionError        = "error"
	CollisionFirst        = "first"
	CollisionLast         = "last"
	CollisionDisambiguate = "disambiguate"
)

// Environment variables that override credentials from the file.
const (
	EnvUsername = "XWIKI_USERNAME"
	EnvPassword = "XWIKI_PASSWORD"
	EnvToken    = "XWIKI_BEARER_TOKEN"
)

// Config represents the complete reporter configuration.
type Config struct {
	XWiki       XWikiConfig       `yaml:"xwiki"`
	Spaces      []SpaceConfig     `yaml:"spaces"`
	Sanitize    SanitizeConfig    `yaml:"sanitize"`
	Aggregation AggregationConfig `yaml:"aggregation"`
	Output      OutputConfig      `yaml:"output"`
	Publish     PublishConfig     `yaml:"publish"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// XWikiConfig describes how to reach the wiki REST API.
type XWikiConfig struct {
	BaseURL            string `yaml:"base_url"`
	Username           string `yaml:"username"`
	Password           string `yaml:"password"`
	UserAgent          string `yaml:"user_agent"`
	TimeoutSec         int    `yaml:"timeout_sec"`
	MaxBodyKb          int    `yaml:"max_body_kb"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
}

// SpaceConfig is one space to report on.
type SpaceConfig struct {
	Name    string `yaml:"name"`
	URL     string `yaml:"url"`
	Enabled bool   `yaml:"enabled"`
}

// Space converts the entry to the model type.
func (s SpaceConfig) Space() models.Space {
	return models.Space{Name: s.Name, URL: s.URL}
}

// SanitizeConfig selects what happens to pages whose URL leaf contains a
// reserved encoded character.
type SanitizeConfig struct {
	Mode         string `yaml:"mode"`
	RedirectFrom string `yaml:"redirect_from"`
	RedirectTo   string `yaml:"redirect_to"`
}

// AggregationConfig controls history aggregation.
type AggregationConfig struct {
	Collision string `yaml:"collision"`
}

// OutputConfig defines where reports go.
type OutputConfig struct {
	Dir          string `yaml:"dir"`
	Consolidated bool   `yaml:"consolidated"`
}

// PublishConfig describes the wiki page that receives the consolidated
// report.
type PublishConfig struct {
	Enabled bool   `yaml:"enabled"`
	PageURL string `yaml:"page_url"`
	Token   string `yaml:"token"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns a configuration with every optional field populated.
func Default() *Config {
	return &Config{
		XWiki: XWikiConfig{
			UserAgent:  "xwikireport/1.0",
			TimeoutSec: 30,
			MaxBodyKb:  4096,
		},
		Sanitize: SanitizeConfig{
			Mode:         SanitizeSkip,
			RedirectFrom: "xwiki",
			RedirectTo:   "xwiki-sup",
		},
		Aggregation: AggregationConfig{
			Collision: CollisionFirst,
		},
		Output: OutputConfig{
			Dir:          "data/reports",
			Consolidated: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from a YAML file on top of the defaults,
// applies environment overrides and validates the result.
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides credentials with XWIKI_USERNAME, XWIKI_PASSWORD and
// XWIKI_BEARER_TOKEN when they are set.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvUsername); v != "" {
		c.XWiki.Username = v
	}

	if v := os.Getenv(EnvPassword); v != "" {
		c.XWiki.Password = v
	}

	if v := os.Getenv(EnvToken); v != "" {
		c.Publish.Token = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.XWiki.BaseURL == "" {
		return ErrMissingBaseURL
	}

	base, err := url.Parse(c.XWiki.BaseURL)
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return ErrInvalidBaseURL
	}

	if c.XWiki.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	if c.XWiki.MaxBodyKb < 1 {
		return ErrInvalidMaxBody
	}

	if len(c.Spaces) == 0 {
		return ErrNoSpaces
	}

	enabledCount := 0

	for i, sp := range c.Spaces {
		if sp.URL == "" {
			return fmt.Errorf("%w: spaces[%d]", ErrSpaceMissingURL, i)
		}

		if sp.Enabled {
			enabledCount++
		}
	}

	if enabledCount == 0 {
		return ErrNoEnabledSpaces
	}

	switch c.Sanitize.Mode {
	case SanitizeSkip:
	case SanitizeRedirect:
		if c.Sanitize.RedirectFrom == "" || c.Sanitize.RedirectTo == "" {
			return ErrMissingRedirectLabels
		}
	default:
		return ErrInvalidSanitizeMode
	}

	switch c.Aggregation.Collision {
	case CollisionError, CollisionFirst, CollisionLast, CollisionDisambiguate:
	default:
		return ErrInvalidCollision
	}

	if c.Output.Dir == "" {
		return ErrMissingOutputDir
	}

	if c.Publish.Enabled {
		page, err := url.Parse(c.Publish.PageURL)
		if err != nil || (page.Scheme != "http" && page.Scheme != "https") || page.Host == "" {
			return ErrInvalidPublishURL
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	return nil
}

// GetEnabledSpaces returns only enabled spaces, in configuration order.
func (c *Config) GetEnabledSpaces() []SpaceConfig {
	var enabled []SpaceConfig

	for _, sp := range c.Spaces {
		if sp.Enabled {
			enabled = append(enabled, sp)
		}
	}

	return enabled
}

// FilterSpaces keeps only enabled spaces whose label is in names. An empty
// names list keeps every enabled space.
func (c *Config) FilterSpaces(names []string) []SpaceConfig {
	enabled := c.GetEnabledSpaces()
	if len(names) == 0 {
		return enabled
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	var filtered []SpaceConfig

	for _, sp := range enabled {
		if wanted[sp.Space().Label()] {
			filtered = append(filtered, sp)
		}
	}

	return filtered
}

// GetTimeout returns the per-request timeout.
func (x *XWikiConfig) GetTimeout() time.Duration {
	return time.Duration(x.TimeoutSec) * time.Second
}

// String returns a string representation of the config without secrets.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{BaseURL: %s, Spaces: %d, Sanitize: %s, Collision: %s, Output: %s, Publish: %t}",
		c.XWiki.BaseURL,
		len(c.Spaces),
		c.Sanitize.Mode,
		c.Aggregation.Collision,
		c.Output.Dir,
		c.Publish.Enabled,
	)
}
