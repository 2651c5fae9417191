package config

import (
	"net/url"
	"strings"

	"github.com/nao1215/pagecarbon/internal/carbon"
)

// SiteConfig holds request settings for one host.
type SiteConfig struct {
	// Cookie is an HTTP cookie to send when fetching this site.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// UserAgent overrides the global User-Agent for this site.
	UserAgent string `yaml:"userAgent,omitempty"`
}

// CarbonOverrides replaces carbon model constants. Zero fields keep the
// built-in value.
type CarbonOverrides struct {
	CarbonIntensity float64 `yaml:"carbonIntensity,omitempty"`
	KWhPerGB        float64 `yaml:"kwhPerGB,omitempty"`
	BytesPerGB      float64 `yaml:"bytesPerGB,omitempty"`
}

// File represents the structure of the .pagecarbon configuration file.
type File struct {
	// Sites maps hostnames to their site-specific configurations.
	// Keys are bare hosts without scheme or port (e.g., "example.com").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults applies to all sites unless overridden per site.
	Defaults SiteConfig `yaml:"defaults,omitempty"`

	// Carbon overrides the carbon model constants.
	Carbon CarbonOverrides `yaml:"carbon,omitempty"`
}

// GetSiteConfig returns the configuration for host merged over the defaults.
// host may also be a full URL, in which case its hostname is used.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults
	if len(cf.Defaults.Headers) > 0 {
		result.Headers = make(map[string]string, len(cf.Defaults.Headers))
		for k, v := range cf.Defaults.Headers {
			result.Headers[k] = v
		}
	}

	siteConfig, ok := cf.Sites[hostKey(host)]
	if !ok {
		return result
	}

	if siteConfig.Cookie != "" {
		result.Cookie = siteConfig.Cookie
	}
	if siteConfig.UserAgent != "" {
		result.UserAgent = siteConfig.UserAgent
	}
	if len(siteConfig.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		for k, v := range siteConfig.Headers {
			result.Headers[k] = v
		}
	}
	return result
}

// CarbonConfig applies the file's overrides to base.
func (cf *File) CarbonConfig(base carbon.Config) carbon.Config {
	if cf.Carbon.CarbonIntensity > 0 {
		base.CarbonIntensity = cf.Carbon.CarbonIntensity
	}
	if cf.Carbon.KWhPerGB > 0 {
		base.KWhPerGB = cf.Carbon.KWhPerGB
	}
	if cf.Carbon.BytesPerGB > 0 {
		base.BytesPerGB = cf.Carbon.BytesPerGB
	}
	return base
}

// hostKey reduces a URL or host to the lower-case hostname.
func hostKey(s string) string {
	if strings.Contains(s, "://") {
		if u, err := url.Parse(s); err == nil {
			return strings.ToLower(u.Hostname())
		}
	}
	return strings.ToLower(s)
}
