// Package config loads and validates the abuse-prevention configuration.
// Everything here is read once at startup; a malformed config aborts the
// process rather than surfacing at request time.
package config

import (
	"fmt"
	"net/netip"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"flowtune/pkg/security/monitor"
)

// Duration decodes YAML duration strings like "15m" or "1h30m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like \"15m\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Key derivation and fail mode values accepted in scope configuration.
const (
	KeyIP   = "ip"
	KeyUser = "user"

	FailModeOpen   = "open"
	FailModeClosed = "closed"

	AlgorithmFixedWindow = "fixed_window"
	AlgorithmTokenBucket = "token_bucket"
)

// ScopeLimitConfig configures one rate limit scope.
type ScopeLimitConfig struct {
	Window    Duration `yaml:"window"`
	Max       int      `yaml:"max"`
	Key       string   `yaml:"key"`
	FailMode  string   `yaml:"fail_mode"`
	Algorithm string   `yaml:"algorithm"`
	Message   string   `yaml:"message"`
}

// MonitoringConfig configures security event alerting.
type MonitoringConfig struct {
	AlertThresholds map[string]int `yaml:"alert_thresholds"`
	AlertCooldown   Duration       `yaml:"alert_cooldown"`
}

// FileUploadConfig configures upload screening.
type FileUploadConfig struct {
	MaxFileSize      int64    `yaml:"max_file_size"`
	AllowedMIMETypes []string `yaml:"allowed_mime_types"`
}

// SecurityConfig is the full abuse-prevention configuration surface.
type SecurityConfig struct {
	RateLimits     map[string]ScopeLimitConfig `yaml:"rate_limits"`
	Monitoring     MonitoringConfig            `yaml:"monitoring"`
	FileUpload     FileUploadConfig            `yaml:"file_upload"`
	TrustedProxies []string                    `yaml:"trusted_proxies"`
}

// DefaultSecurityConfig returns the built-in policy table. A config file
// overrides individual scopes; scopes it does not mention keep these
// values.
func DefaultSecurityConfig() *SecurityConfig {
	return &SecurityConfig{
		RateLimits: map[string]ScopeLimitConfig{
			"general": {
				Window:    Duration(15 * time.Minute),
				Max:       100,
				Key:       KeyIP,
				FailMode:  FailModeOpen,
				Algorithm: AlgorithmFixedWindow,
				Message:   "Too many requests from this IP, please try again later.",
			},
			"auth": {
				Window:    Duration(15 * time.Minute),
				Max:       8,
				Key:       KeyIP,
				FailMode:  FailModeClosed,
				Algorithm: AlgorithmFixedWindow,
				Message:   "Too many authentication attempts, please try again later.",
			},
			"ai_generation": {
				Window:    Duration(1 * time.Hour),
				Max:       50,
				Key:       KeyIP,
				FailMode:  FailModeOpen,
				Algorithm: AlgorithmFixedWindow,
				Message:   "AI generation limit reached, please try again later.",
			},
			"upload": {
				Window:    Duration(5 * time.Minute),
				Max:       15,
				Key:       KeyIP,
				FailMode:  FailModeOpen,
				Algorithm: AlgorithmFixedWindow,
				Message:   "Too many uploads, please try again later.",
			},
			"blockchain": {
				Window:    Duration(1 * time.Minute),
				Max:       20,
				Key:       KeyIP,
				FailMode:  FailModeClosed,
				Algorithm: AlgorithmFixedWindow,
				Message:   "Too many blockchain operations, please try again later.",
			},
			"user": {
				Window:    Duration(15 * time.Minute),
				Max:       100,
				Key:       KeyUser,
				FailMode:  FailModeOpen,
				Algorithm: AlgorithmFixedWindow,
				Message:   "Request limit for this account reached, please try again later.",
			},
			"playlist": {
				Window:    Duration(5 * time.Minute),
				Max:       50,
				Key:       KeyIP,
				FailMode:  FailModeOpen,
				Algorithm: AlgorithmFixedWindow,
				Message:   "Too many playlist operations, please try again later.",
			},
		},
		Monitoring: MonitoringConfig{
			AlertThresholds: map[string]int{
				string(monitor.EventFailedLogin):          5,
				string(monitor.EventRateLimitExceeded):    10,
				string(monitor.EventSuspiciousFileUpload): 3,
				string(monitor.EventBlockchainError):      10,
				string(monitor.EventSuspiciousActivity):   5,
			},
			AlertCooldown: Duration(5 * time.Minute),
		},
		FileUpload: FileUploadConfig{
			MaxFileSize: 10 << 20,
			AllowedMIMETypes: []string{
				"audio/mpeg", "audio/wav", "audio/ogg",
				"image/png", "image/jpeg", "image/webp",
			},
		},
	}
}

// LoadSecurityConfig reads the YAML config at path over the defaults and
// validates the result. An empty path returns the validated defaults.
// The path comes from a trusted source (CLI flag or environment), never
// from request input.
func LoadSecurityConfig(path string) (*SecurityConfig, error) {
	config := DefaultSecurityConfig()

	if path != "" {
		// #nosec G304 -- path is provided by trusted source (CLI arg or env), not user input
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read security config: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parse security config: %w", err)
		}
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("security config validation failed: %w", err)
	}
	return config, nil
}

// Validate checks every scope, monitoring, upload, and proxy setting.
func (c *SecurityConfig) Validate() error {
	if len(c.RateLimits) == 0 {
		return fmt.Errorf("at least one rate limit scope is required")
	}
	for name, scope := range c.RateLimits {
		if scope.Window.Std() <= 0 {
			return fmt.Errorf("scope %q: window must be positive", name)
		}
		if scope.Max <= 0 {
			return fmt.Errorf("scope %q: max must be positive", name)
		}
		if scope.Key != KeyIP && scope.Key != KeyUser {
			return fmt.Errorf("scope %q: key must be %q or %q, got %q", name, KeyIP, KeyUser, scope.Key)
		}
		if scope.FailMode != FailModeOpen && scope.FailMode != FailModeClosed {
			return fmt.Errorf("scope %q: fail_mode must be %q or %q, got %q", name, FailModeOpen, FailModeClosed, scope.FailMode)
		}
		if scope.Algorithm != AlgorithmFixedWindow && scope.Algorithm != AlgorithmTokenBucket {
			return fmt.Errorf("scope %q: algorithm must be %q or %q, got %q", name, AlgorithmFixedWindow, AlgorithmTokenBucket, scope.Algorithm)
		}
	}

	if c.Monitoring.AlertCooldown.Std() <= 0 {
		return fmt.Errorf("monitoring alert_cooldown must be positive")
	}
	for event, threshold := range c.Monitoring.AlertThresholds {
		if threshold <= 0 {
			return fmt.Errorf("monitoring threshold for %q must be positive, got %d", event, threshold)
		}
	}

	if c.FileUpload.MaxFileSize <= 0 {
		return fmt.Errorf("file_upload max_file_size must be positive")
	}
	if len(c.FileUpload.AllowedMIMETypes) == 0 {
		return fmt.Errorf("file_upload allowed_mime_types must not be empty")
	}

	// Same grammar the proxy extractor accepts: a CIDR or a bare IP.
	for _, entry := range c.TrustedProxies {
		s := strings.TrimSpace(entry)
		if s == "" {
			continue
		}
		if _, err := netip.ParsePrefix(s); err == nil {
			continue
		}
		if _, err := netip.ParseAddr(s); err != nil {
			return fmt.Errorf("invalid trusted proxy %q: must be an IP or CIDR", entry)
		}
	}
	return nil
}

// MonitorConfig converts the monitoring section for the event monitor.
func (c *SecurityConfig) MonitorConfig() monitor.Config {
	thresholds := make(map[monitor.EventType]int, len(c.Monitoring.AlertThresholds))
	for event, threshold := range c.Monitoring.AlertThresholds {
		thresholds[monitor.EventType(event)] = threshold
	}
	return monitor.Config{
		Thresholds:    thresholds,
		AlertCooldown: c.Monitoring.AlertCooldown.Std(),
	}
}
