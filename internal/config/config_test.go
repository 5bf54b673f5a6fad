package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// Helper to create a temp config file.
func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()

	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create temp config file: %v", err)
	}

	return configPath
}

// validConfigYAML is a minimal valid configuration.
const validConfigYAML = `
xwiki:
  base_url: "https://wiki.example.com"
  username: "reporter"
  password: "file-secret"
  timeout_sec: 10
spaces:
  - name: "General Knowledge"
    url: "https://wiki.example.com/rest/wikis/xwiki/spaces/VBM/spaces/General-Knowledge/pages/WebHome/children"
    enabled: true
  - url: "https://wiki.example.com/rest/wikis/xwiki/spaces/VBM/spaces/How-to/pages/WebHome/children"
    enabled: true
  - url: "https://wiki.example.com/rest/wikis/xwiki/spaces/VBM/spaces/Patch-notes/pages/WebHome/children"
    enabled: false
sanitize:
  mode: "redirect"
output:
  dir: "./out"
logging:
  level: "debug"
`

// validConfig returns a config that passes validation.
func validConfig() *Config {
	cfg := Default()
	cfg.XWiki.BaseURL = "https://wiki.example.com"
	cfg.Spaces = []SpaceConfig{
		{Name: "How to", URL: "https://wiki.example.com/rest/a/spaces/How-to/pages/WebHome/children", Enabled: true},
	}

	return cfg
}

func TestLoadConfig_Valid(t *testing.T) {
	t.Setenv(EnvUsername, "")
	t.Setenv(EnvPassword, "")
	t.Setenv(EnvToken, "")

	configPath := createTempConfigFile(t, validConfigYAML)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if len(cfg.Spaces) != 3 {
		t.Errorf("Expected 3 spaces, got %d", len(cfg.Spaces))
	}

	if cfg.XWiki.TimeoutSec != 10 {
		t.Errorf("Expected timeout 10, got %d", cfg.XWiki.TimeoutSec)
	}

	// Defaults survive partial YAML
	if cfg.XWiki.MaxBodyKb != 4096 {
		t.Errorf("Expected default max_body_kb 4096, got %d", cfg.XWiki.MaxBodyKb)
	}

	if cfg.Sanitize.RedirectTo != "xwiki-sup" {
		t.Errorf("Expected default redirect_to 'xwiki-sup', got '%s'", cfg.Sanitize.RedirectTo)
	}

	if cfg.Aggregation.Collision != CollisionFirst {
		t.Errorf("Expected default collision policy '%s', got '%s'", CollisionFirst, cfg.Aggregation.Collision)
	}

	if cfg.XWiki.Password != "file-secret" {
		t.Errorf("Expected password from file, got '%s'", cfg.XWiki.Password)
	}
}

func TestLoadConfig_EnvOverridesCredentials(t *testing.T) {
	t.Setenv(EnvUsername, "env-user")
	t.Setenv(EnvPassword, "env-secret")

	cfg, err := LoadConfig(createTempConfigFile(t, validConfigYAML))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.XWiki.Username != "env-user" || cfg.XWiki.Password != "env-secret" {
		t.Errorf("Expected env credentials, got %q/%q", cfg.XWiki.Username, cfg.XWiki.Password)
	}
}

func TestLoadConfig_EnvBearerToken(t *testing.T) {
	t.Setenv(EnvUsername, "")
	t.Setenv(EnvPassword, "")
	t.Setenv(EnvToken, "Bearer env-token")

	cfg, err := LoadConfig(createTempConfigFile(t, validConfigYAML+`
publish:
  enabled: true
  page_url: "https://wiki.example.com/rest/wikis/xwiki/spaces/VBM/pages/Inventory"
  token: "file-token"
`))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Publish.Token != "Bearer env-token" {
		t.Errorf("Expected env bearer token, got %q", cfg.Publish.Token)
	}

	if strings.Contains(cfg.String(), "env-token") {
		t.Error("String() must not contain the bearer token")
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("Expected error for nonexistent file, got nil")
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	configPath := createTempConfigFile(t, "invalid: yaml: content: [}")

	_, err := LoadConfig(configPath)
	if err == nil {
		t.Fatal("Expected error for invalid YAML, got nil")
	}
}

func TestConfig_Validate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"missing base url", func(c *Config) { c.XWiki.BaseURL = "" }, ErrMissingBaseURL},
		{"relative base url", func(c *Config) { c.XWiki.BaseURL = "/wiki" }, ErrInvalidBaseURL},
		{"zero timeout", func(c *Config) { c.XWiki.TimeoutSec = 0 }, ErrInvalidTimeout},
		{"zero body limit", func(c *Config) { c.XWiki.MaxBodyKb = 0 }, ErrInvalidMaxBody},
		{"no spaces", func(c *Config) { c.Spaces = nil }, ErrNoSpaces},
		{"space without url", func(c *Config) { c.Spaces[0].URL = "" }, ErrSpaceMissingURL},
		{"no enabled spaces", func(c *Config) { c.Spaces[0].Enabled = false }, ErrNoEnabledSpaces},
		{"unknown sanitize mode", func(c *Config) { c.Sanitize.Mode = "drop" }, ErrInvalidSanitizeMode},
		{"redirect without labels", func(c *Config) {
			c.Sanitize.Mode = SanitizeRedirect
			c.Sanitize.RedirectTo = ""
		}, ErrMissingRedirectLabels},
		{"unknown collision policy", func(c *Config) { c.Aggregation.Collision = "merge" }, ErrInvalidCollision},
		{"missing output dir", func(c *Config) { c.Output.Dir = "" }, ErrMissingOutputDir},
		{"publish without page url", func(c *Config) { c.Publish.Enabled = true }, ErrInvalidPublishURL},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, ErrInvalidLogLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Validate_Valid(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Errorf("Validate returned unexpected error: %v", err)
	}
}

func TestConfig_FilterSpaces(t *testing.T) {
	t.Setenv(EnvUsername, "")
	t.Setenv(EnvPassword, "")

	cfg, err := LoadConfig(createTempConfigFile(t, validConfigYAML))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if got := cfg.FilterSpaces(nil); len(got) != 2 {
		t.Fatalf("Expected 2 enabled spaces, got %d", len(got))
	}

	got := cfg.FilterSpaces([]string{"How To"})
	if len(got) != 1 || !strings.Contains(got[0].URL, "/How-to/") {
		t.Errorf("Expected the derived 'How To' space, got %+v", got)
	}

	// Disabled spaces never pass the filter
	if got := cfg.FilterSpaces([]string{"Patch Notes"}); len(got) != 0 {
		t.Errorf("Expected disabled space to be filtered out, got %+v", got)
	}
}

func TestXWikiConfig_GetTimeout(t *testing.T) {
	x := XWikiConfig{TimeoutSec: 15}
	if x.GetTimeout() != 15*time.Second {
		t.Errorf("Expected 15s, got %v", x.GetTimeout())
	}
}

func TestConfig_String_HidesSecrets(t *testing.T) {
	cfg := validConfig()
	cfg.XWiki.Password = "hunter2"

	if strings.Contains(cfg.String(), "hunter2") {
		t.Error("String() must not contain the password")
	}
}

func TestLoadConfig_ExampleFile(t *testing.T) {
	t.Setenv(EnvUsername, "")
	t.Setenv(EnvPassword, "")
	t.Setenv(EnvToken, "")

	cfg, err := LoadConfig(filepath.Join("..", "..", "configs", "reporter.example.yaml"))
	if err != nil {
		t.Fatalf("example config must load: %v", err)
	}

	if got := len(cfg.GetEnabledSpaces()); got != 3 {
		t.Errorf("Expected 3 enabled spaces in the example, got %d", got)
	}

	if cfg.Publish.Enabled {
		t.Error("Publishing must be off in the example config")
	}
}
