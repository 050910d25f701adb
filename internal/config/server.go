package config

import (
	"fmt"
	"time"

	"flowtune/pkg/config"
)

// ServerConfig holds the HTTP server settings, read from the environment
// at startup.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// RequestTimeout bounds end-to-end request handling.
	RequestTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown during deploys.
	ShutdownTimeout time.Duration

	// SweepInterval is how often idle limiter and alert counters are
	// evicted.
	SweepInterval time.Duration

	// SecurityConfigPath points to the optional YAML security config.
	// Empty means built-in defaults.
	SecurityConfigPath string

	// JWTSecret signs and verifies bearer tokens. Required.
	JWTSecret string

	// AdminToken gates the security admin endpoints. Empty disables them.
	AdminToken string

	// TracingEnabled toggles the OpenTelemetry middleware.
	TracingEnabled bool
}

// LoadServerConfig reads the server configuration from the environment,
// applying defaults for everything except the JWT secret.
func LoadServerConfig() (ServerConfig, error) {
	cfg := ServerConfig{
		Addr:               config.GetEnvString("FLOWTUNE_ADDR", ":8080"),
		RequestTimeout:     config.GetEnvDuration("FLOWTUNE_REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout:    config.GetEnvDuration("FLOWTUNE_SHUTDOWN_TIMEOUT", 5*time.Second),
		SweepInterval:      config.GetEnvDuration("FLOWTUNE_SWEEP_INTERVAL", 5*time.Minute),
		SecurityConfigPath: config.GetEnvString("FLOWTUNE_SECURITY_CONFIG", ""),
		JWTSecret:          config.GetEnvString("JWT_SECRET", ""),
		AdminToken:         config.GetEnvString("FLOWTUNE_ADMIN_TOKEN", ""),
		TracingEnabled:     config.GetEnvBool("FLOWTUNE_TRACING_ENABLED", false),
	}
	if err := cfg.Validate(); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

// Validate reports the first configuration problem, or nil.
func (c ServerConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("server addr must not be empty")
	}
	if err := config.ValidatePositiveDuration(c.RequestTimeout); err != nil {
		return fmt.Errorf("request timeout: %w", err)
	}
	if err := config.ValidatePositiveDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("shutdown timeout: %w", err)
	}
	if err := config.ValidatePositiveDuration(c.SweepInterval); err != nil {
		return fmt.Errorf("sweep interval: %w", err)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	return nil
}
