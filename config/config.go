package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

// Config holds importer configuration.
type Config struct {
	APIBaseURL          string
	SiteBaseURL         string
	AllowedDomain       string
	UserAgent           string
	AcceptLanguage      string
	FetchTimeout        time.Duration
	APITimeout          time.Duration
	ProfileShelvesLimit int
	ShelfFormsLimit     int
	MaxShelfCandidates  int // 0 means no cap on fallback validation
	CacheSize           int
	CacheTTL            time.Duration
	ListenAddr          string
	MetricsAddr         string
	Verbose             bool
}

// DefaultConfig returns conservative defaults for the public Glose site.
func DefaultConfig() *Config {
	return &Config{
		APIBaseURL:          "https://api.glose.com",
		SiteBaseURL:         "https://glose.com",
		AllowedDomain:       "glose.com",
		UserAgent:           "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		AcceptLanguage:      "fr-FR,fr;q=0.9,en-US;q=0.8,en;q=0.7",
		FetchTimeout:        15 * time.Second,
		APITimeout:          10 * time.Second,
		ProfileShelvesLimit: 100,
		ShelfFormsLimit:     100,
		MaxShelfCandidates:  0,
		CacheSize:           512,
		CacheTTL:            time.Hour,
		ListenAddr:          ":8080",
		MetricsAddr:         "",
		Verbose:             false,
	}
}

// Load builds a Config from the environment on top of the defaults.
func Load() *Config {
	def := DefaultConfig()

	v := viper.New()
	v.SetEnvPrefix("importer")
	v.AutomaticEnv()
	v.SetDefault("api_base_url", def.APIBaseURL)
	v.SetDefault("site_base_url", def.SiteBaseURL)
	v.SetDefault("allowed_domain", def.AllowedDomain)
	v.SetDefault("user_agent", def.UserAgent)
	v.SetDefault("accept_language", def.AcceptLanguage)
	v.SetDefault("fetch_timeout", def.FetchTimeout)
	v.SetDefault("api_timeout", def.APITimeout)
	v.SetDefault("profile_shelves_limit", def.ProfileShelvesLimit)
	v.SetDefault("shelf_forms_limit", def.ShelfFormsLimit)
	v.SetDefault("max_shelf_candidates", def.MaxShelfCandidates)
	v.SetDefault("cache_size", def.CacheSize)
	v.SetDefault("cache_ttl", def.CacheTTL)
	v.SetDefault("listen_addr", def.ListenAddr)
	v.SetDefault("metrics_addr", def.MetricsAddr)
	v.SetDefault("verbose", def.Verbose)

	return &Config{
		APIBaseURL:          v.GetString("api_base_url"),
		SiteBaseURL:         v.GetString("site_base_url"),
		AllowedDomain:       v.GetString("allowed_domain"),
		UserAgent:           v.GetString("user_agent"),
		AcceptLanguage:      v.GetString("accept_language"),
		FetchTimeout:        v.GetDuration("fetch_timeout"),
		APITimeout:          v.GetDuration("api_timeout"),
		ProfileShelvesLimit: v.GetInt("profile_shelves_limit"),
		ShelfFormsLimit:     v.GetInt("shelf_forms_limit"),
		MaxShelfCandidates:  v.GetInt("max_shelf_candidates"),
		CacheSize:           v.GetInt("cache_size"),
		CacheTTL:            v.GetDuration("cache_ttl"),
		ListenAddr:          v.GetString("listen_addr"),
		MetricsAddr:         v.GetString("metrics_addr"),
		Verbose:             v.GetBool("verbose"),
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	for name, raw := range map[string]string{"API base URL": c.APIBaseURL, "site base URL": c.SiteBaseURL} {
		if raw == "" {
			return fmt.Errorf("%s cannot be empty", name)
		}
		parsed, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		if parsed.Host == "" {
			return fmt.Errorf("%s must include a host", name)
		}
	}

	if c.AllowedDomain == "" {
		return fmt.Errorf("allowed domain cannot be empty")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive")
	}
	if c.APITimeout <= 0 {
		return fmt.Errorf("api timeout must be positive")
	}
	if c.ProfileShelvesLimit <= 0 {
		return fmt.Errorf("profile shelves limit must be positive")
	}
	if c.ShelfFormsLimit <= 0 {
		return fmt.Errorf("shelf forms limit must be positive")
	}
	if c.MaxShelfCandidates < 0 {
		return fmt.Errorf("max shelf candidates cannot be negative")
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("cache size must be positive")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache ttl must be positive")
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("listen address cannot be empty")
	}

	return nil
}
