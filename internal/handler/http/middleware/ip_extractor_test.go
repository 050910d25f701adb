package middleware

import (
	"net/http/httptest"
	"testing"
)

func TestRemoteAddrExtractor(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		want       string
		wantErr    bool
	}{
		{name: "ipv4 with port", remoteAddr: "192.168.1.1:54321", want: "192.168.1.1"},
		{name: "ipv6 with port", remoteAddr: "[2001:db8::1]:8080", want: "2001:db8::1"},
		{name: "bare ipv4", remoteAddr: "127.0.0.1", want: "127.0.0.1"},
		{name: "garbage", remoteAddr: "not-an-address", wantErr: true},
	}

	e := &RemoteAddrExtractor{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr

			got, err := e.ExtractIP(r)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ExtractIP() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractIP() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ExtractIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewTrustedProxyConfig(t *testing.T) {
	config, err := NewTrustedProxyConfig([]string{"10.0.0.0/8", "192.168.1.1", "2001:db8::/32"})
	if err != nil {
		t.Fatalf("NewTrustedProxyConfig() error = %v", err)
	}
	if !config.Enabled || len(config.AllowedCIDRs) != 3 {
		t.Errorf("config = %+v, want enabled with 3 prefixes", config)
	}

	if _, err := NewTrustedProxyConfig([]string{"garbage"}); err == nil {
		t.Error("NewTrustedProxyConfig() error = nil for invalid entry, want error")
	}

	empty, err := NewTrustedProxyConfig(nil)
	if err != nil {
		t.Fatalf("NewTrustedProxyConfig(nil) error = %v", err)
	}
	if empty.Enabled {
		t.Error("empty proxy list should disable proxy trust")
	}
}

func TestTrustedProxyExtractor(t *testing.T) {
	config, err := NewTrustedProxyConfig([]string{"10.0.0.0/8"})
	if err != nil {
		t.Fatal(err)
	}
	e := NewTrustedProxyExtractor(*config)

	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		xri        string
		want       string
	}{
		{
			name:       "trusted proxy with forwarded-for",
			remoteAddr: "10.0.0.5:443",
			xff:        "203.0.113.7, 10.0.0.5",
			want:       "203.0.113.7",
		},
		{
			name:       "trusted proxy with real-ip fallback",
			remoteAddr: "10.0.0.5:443",
			xri:        "203.0.113.9",
			want:       "203.0.113.9",
		},
		{
			name:       "untrusted peer headers ignored",
			remoteAddr: "198.51.100.4:1234",
			xff:        "1.1.1.1",
			want:       "198.51.100.4",
		},
		{
			name:       "trusted proxy without headers",
			remoteAddr: "10.0.0.5:443",
			want:       "10.0.0.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}

			got, err := e.ExtractIP(r)
			if err != nil {
				t.Fatalf("ExtractIP() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ExtractIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
