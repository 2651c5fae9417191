package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/pagecarbon/internal/carbon"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default Timeout is 30 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 30*time.Second {
			t.Errorf("expected Timeout to be 30s, got %v", cfg.Timeout)
		}
	})

	t.Run("default ResourceTimeout is 10 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.ResourceTimeout != 10*time.Second {
			t.Errorf("expected ResourceTimeout to be 10s, got %v", cfg.ResourceTimeout)
		}
	})

	t.Run("default Concurrency is 8", func(t *testing.T) {
		t.Parallel()
		if cfg.Concurrency != 8 {
			t.Errorf("expected Concurrency to be 8, got %d", cfg.Concurrency)
		}
	})

	t.Run("default BatchSize is 4", func(t *testing.T) {
		t.Parallel()
		if cfg.BatchSize != 4 {
			t.Errorf("expected BatchSize to be 4, got %d", cfg.BatchSize)
		}
	})

	t.Run("default UserID is local", func(t *testing.T) {
		t.Parallel()
		if cfg.UserID != "local" {
			t.Errorf("expected UserID to be 'local', got %q", cfg.UserID)
		}
	})

	t.Run("reports are saved to the XDG data dir", func(t *testing.T) {
		t.Parallel()
		if !cfg.SaveToDB {
			t.Error("expected SaveToDB to be true")
		}
		if cfg.DBDir != XDGDataDir() {
			t.Errorf("expected DBDir %q, got %q", XDGDataDir(), cfg.DBDir)
		}
	})

	t.Run("defaults are valid", func(t *testing.T) {
		t.Parallel()
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected default config to be valid, got %v", err)
		}
	})
}

// TestConfigValidate tests the Validate method with one broken rule per case.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{"valid", func(*Config) {}, nil},
		{"empty user", func(c *Config) { c.UserID = "" }, ErrEmptyUserID},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, ErrInvalidTimeout},
		{"negative resource timeout", func(c *Config) { c.ResourceTimeout = -time.Second }, ErrInvalidResourceTimeout},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }, ErrInvalidConcurrency},
		{"zero batch size", func(c *Config) { c.BatchSize = 0 }, ErrInvalidBatchSize},
		{"negative rate", func(c *Config) { c.RateLimit = -1 }, ErrInvalidRateLimit},
		{"zero rate is unlimited", func(c *Config) { c.RateLimit = 0 }, nil},
		{"json and markdown", func(c *Config) { c.JSONReport, c.MarkdownReport = true, true }, ErrConflictingReportFormats},
		{"negative max body size", func(c *Config) { c.MaxBodySize = -1 }, ErrInvalidMaxBodySize},
		{"zero max body size uses default", func(c *Config) { c.MaxBodySize = 0 }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected nil error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRequireTargets(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	if !errors.Is(cfg.RequireTargets(), ErrNoTarget) {
		t.Error("expected ErrNoTarget without targets")
	}
	cfg.Targets = []string{"https://example.com"}
	if err := cfg.RequireTargets(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// TestFileGetSiteConfig tests merging of site configuration over defaults.
func TestFileGetSiteConfig(t *testing.T) {
	t.Parallel()

	file := &File{
		Defaults: SiteConfig{
			Cookie:    "default=1",
			Headers:   map[string]string{"Accept-Language": "en", "X-Default": "yes"},
			UserAgent: "default-agent",
		},
		Sites: map[string]SiteConfig{
			"example.com": {
				Cookie:  "session=xyz",
				Headers: map[string]string{"Accept-Language": "ja"},
			},
		},
	}

	t.Run("unknown host gets defaults", func(t *testing.T) {
		t.Parallel()

		got := file.GetSiteConfig("other.example")
		if got.Cookie != "default=1" || got.UserAgent != "default-agent" {
			t.Errorf("unexpected config: %+v", got)
		}
	})

	t.Run("site overrides defaults", func(t *testing.T) {
		t.Parallel()

		got := file.GetSiteConfig("example.com")
		if got.Cookie != "session=xyz" {
			t.Errorf("expected site cookie, got %q", got.Cookie)
		}
		if got.UserAgent != "default-agent" {
			t.Errorf("expected default user agent, got %q", got.UserAgent)
		}
		if got.Headers["Accept-Language"] != "ja" || got.Headers["X-Default"] != "yes" {
			t.Errorf("unexpected headers: %v", got.Headers)
		}
	})

	t.Run("URL is reduced to hostname", func(t *testing.T) {
		t.Parallel()

		got := file.GetSiteConfig("https://Example.com:8443/path")
		if got.Cookie != "session=xyz" {
			t.Errorf("expected site cookie, got %q", got.Cookie)
		}
	})

	t.Run("merging does not mutate defaults", func(t *testing.T) {
		t.Parallel()

		_ = file.GetSiteConfig("example.com")
		if file.Defaults.Headers["Accept-Language"] != "en" {
			t.Error("defaults were modified")
		}
	})
}

func TestFileCarbonConfig(t *testing.T) {
	t.Parallel()

	file := &File{Carbon: CarbonOverrides{CarbonIntensity: 200}}
	got := file.CarbonConfig(carbon.DefaultConfig())

	if got.CarbonIntensity != 200 {
		t.Errorf("CarbonIntensity = %v, want 200", got.CarbonIntensity)
	}
	if got.KWhPerGB != carbon.DefaultKWhPerGB || got.BytesPerGB != carbon.DefaultBytesPerGB {
		t.Errorf("unset overrides must keep defaults: %+v", got)
	}
}

// TestLoadConfigFile tests the LoadConfigFile function.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	writeConfig := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		return path
	}

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile("/nonexistent/path/.pagecarbon")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, `defaults:
  cookie: "default=abc"
  userAgent: "custom-agent"
sites:
  Example.COM:
    cookie: "session=xyz"
    headers:
      Authorization: "Bearer token"
carbon:
  carbonIntensity: 300
  kwhPerGB: 0.81
`)

		cfg, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Defaults.Cookie != "default=abc" || cfg.Defaults.UserAgent != "custom-agent" {
			t.Errorf("unexpected defaults: %+v", cfg.Defaults)
		}

		site, ok := cfg.Sites["example.com"]
		if !ok {
			t.Fatal("expected site key to be lower-cased")
		}
		if site.Headers["Authorization"] != "Bearer token" {
			t.Error("expected Authorization header")
		}
		if cfg.Carbon.CarbonIntensity != 300 || cfg.Carbon.KWhPerGB != 0.81 {
			t.Errorf("unexpected carbon overrides: %+v", cfg.Carbon)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		if _, err := LoadConfigFile(writeConfig(t, `invalid: yaml: content: [}`)); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("rejects negative carbon overrides", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(writeConfig(t, "carbon:\n  kwhPerGB: -1\n"))
		if !errors.Is(err, ErrInvalidCarbonOverride) {
			t.Errorf("expected ErrInvalidCarbonOverride, got %v", err)
		}
	})

	t.Run("initializes nil Sites map", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile(writeConfig(t, "defaults:\n  cookie: a=b\n"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Sites == nil {
			t.Error("expected Sites map to be initialized")
		}
	})
}

// TestFindConfigFile tests the FindConfigFile function.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("defaults: {}"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		if got := FindConfigFile(configPath); got != configPath {
			t.Errorf("expected %q, got %q", configPath, got)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile("/nonexistent/path/config.yaml"); got != "" {
			t.Errorf("expected empty string, got %q", got)
		}
	})
}

// TestXDGDirs tests XDG directory functions.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	for name, dir := range map[string]string{
		"data":   XDGDataDir(),
		"config": XDGConfigDir(),
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if !strings.HasSuffix(dir, AppName) {
				t.Errorf("expected %s dir to end with %q, got %q", name, AppName, dir)
			}
		})
	}
}
