package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadServerConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := LoadServerConfig()
	if err != nil {
		t.Fatalf("LoadServerConfig: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Addr)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout = %s, want 30s", cfg.RequestTimeout)
	}
	if cfg.SweepInterval != 5*time.Minute {
		t.Errorf("SweepInterval = %s, want 5m", cfg.SweepInterval)
	}
	if cfg.TracingEnabled {
		t.Error("TracingEnabled = true, want false by default")
	}
}

func TestLoadServerConfig_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("FLOWTUNE_ADDR", ":9090")
	t.Setenv("FLOWTUNE_REQUEST_TIMEOUT", "10s")
	t.Setenv("FLOWTUNE_ADMIN_TOKEN", "ops-token")
	t.Setenv("FLOWTUNE_TRACING_ENABLED", "true")

	cfg, err := LoadServerConfig()
	if err != nil {
		t.Fatalf("LoadServerConfig: %v", err)
	}
	if cfg.Addr != ":9090" {
		t.Errorf("Addr = %q, want :9090", cfg.Addr)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Errorf("RequestTimeout = %s, want 10s", cfg.RequestTimeout)
	}
	if cfg.AdminToken != "ops-token" {
		t.Errorf("AdminToken = %q, want ops-token", cfg.AdminToken)
	}
	if !cfg.TracingEnabled {
		t.Error("TracingEnabled = false, want true")
	}
}

func TestLoadServerConfig_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := LoadServerConfig()
	if err == nil {
		t.Fatal("LoadServerConfig error = nil, want error for missing JWT_SECRET")
	}
	if !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Errorf("error = %v, want mention of JWT_SECRET", err)
	}
}

func TestServerConfig_Validate(t *testing.T) {
	valid := ServerConfig{
		Addr:            ":8080",
		RequestTimeout:  time.Second,
		ShutdownTimeout: time.Second,
		SweepInterval:   time.Minute,
		JWTSecret:       "s",
	}

	tests := []struct {
		name    string
		mutate  func(*ServerConfig)
		wantErr string
	}{
		{name: "valid", mutate: func(c *ServerConfig) {}},
		{name: "empty addr", mutate: func(c *ServerConfig) { c.Addr = "" }, wantErr: "addr"},
		{name: "zero request timeout", mutate: func(c *ServerConfig) { c.RequestTimeout = 0 }, wantErr: "request timeout"},
		{name: "negative sweep interval", mutate: func(c *ServerConfig) { c.SweepInterval = -time.Second }, wantErr: "sweep interval"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}
