// Package config holds global settings for the PageWarden scanner.
// All settings can be configured via environment variables or programmatically.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Credential format rules for the remote scoring API key. The key is an
// opaque string: non-empty, a minimum length, and a fixed prefix. No other
// content restriction applies.
const (
	CredentialPrefix    = "AIza"
	CredentialMinLength = 30
)

// Credential errors are fatal: a scan is never attempted without a
// well-formed key.
var (
	ErrCredentialMissing = errors.New("scoring API credential is not configured")
	ErrCredentialInvalid = errors.New("scoring API credential is malformed")
)

// Config holds global settings for the PageWarden scanner.
type Config struct {
	// === Remote scoring ===
	APIKey      string // Scoring API key (env: PAGEWARDEN_API_KEY)
	DefaultTier string // Starting model tier identifier (env: PAGEWARDEN_DEFAULT_TIER)
	BaseURL     string // Override for the scoring API base URL (tests, proxies)

	// === Verdict thresholds (0-100) ===
	// score >= SafeThreshold    -> Legitimate
	// score >= CautionThreshold -> Uncertain
	// otherwise                 -> Phishing
	SafeThreshold    int
	CautionThreshold int

	// === Extraction ===
	BrowserPoolSize int  // Concurrent headless browser contexts (default: 2)
	EnableBrowser   bool // Allow the scripted (chromedp) extraction strategy

	// === Optional layers ===
	EnableSemantics bool   // Known-template similarity layer (chromem-go)
	RedisAddr       string // Non-empty enables the redis-backed session store
	DatabaseURL     string // Non-empty enables the durable scan history log
	LexiconFile     string // Optional YAML lexicon override

	// === Serving ===
	ListenAddr  string // HTTP host surface (default: ":3000")
	MetricsAddr string // Prometheus listener (default: ":9109", empty disables)
}

// NewDefaultConfig creates a Config with sensible defaults.
// All settings can be overridden via environment variables.
func NewDefaultConfig() *Config {
	return &Config{
		APIKey:      GetEnv("PAGEWARDEN_API_KEY", os.Getenv("GEMINI_API_KEY")),
		DefaultTier: GetEnv("PAGEWARDEN_DEFAULT_TIER", ""),
		BaseURL:     GetEnv("PAGEWARDEN_API_BASE_URL", ""),

		SafeThreshold:    GetEnvInt("PAGEWARDEN_SAFE_THRESHOLD", 80),
		CautionThreshold: GetEnvInt("PAGEWARDEN_CAUTION_THRESHOLD", 50),

		BrowserPoolSize: clampInt(GetEnvInt("PAGEWARDEN_BROWSER_POOL", 2), 1, 16),
		EnableBrowser:   GetEnvBool("PAGEWARDEN_ENABLE_BROWSER", true),

		EnableSemantics: GetEnvBool("PAGEWARDEN_ENABLE_SEMANTICS", false),
		RedisAddr:       GetEnv("PAGEWARDEN_REDIS_ADDR", ""),
		DatabaseURL:     GetEnv("PAGEWARDEN_DATABASE_URL", os.Getenv("DATABASE_URL")),
		LexiconFile:     GetEnv("PAGEWARDEN_LEXICON_FILE", ""),

		ListenAddr:  GetEnv("PAGEWARDEN_LISTEN_ADDR", ":3000"),
		MetricsAddr: GetEnv("PAGEWARDEN_METRICS_ADDR", ":9109"),
	}
}

// NewStrictConfig lowers both thresholds' tolerance: more pages land in the
// caution and phishing bands. Useful for high-risk user populations.
func NewStrictConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.SafeThreshold = 90
	cfg.CautionThreshold = 60
	return cfg
}

// NewLenientConfig minimizes warning fatigue at the cost of sensitivity.
func NewLenientConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.SafeThreshold = 70
	cfg.CautionThreshold = 40
	return cfg
}

// ValidateCredential checks the scoring API key format.
// It never logs or returns the key itself.
func (c *Config) ValidateCredential() error {
	key := strings.TrimSpace(c.APIKey)
	if key == "" {
		return ErrCredentialMissing
	}
	if len(key) < CredentialMinLength || !strings.HasPrefix(key, CredentialPrefix) {
		return ErrCredentialInvalid
	}
	return nil
}

// Validate checks the full configuration and returns the first problem found.
func (c *Config) Validate() error {
	if err := c.ValidateCredential(); err != nil {
		return err
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	return nil
}

func clampInt(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// Helper functions for environment variable parsing.

// GetEnv returns the value of an environment variable or a default value.
func GetEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// GetEnvBool returns the boolean value of an environment variable or a default value.
func GetEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

// GetEnvInt returns the integer value of an environment variable or a default value.
func GetEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return defaultValue
}
