package csp

import "testing"

func TestBuilder_Build(t *testing.T) {
	tests := []struct {
		name  string
		build func() *Builder
		want  string
	}{
		{
			name:  "empty",
			build: NewBuilder,
			want:  "",
		},
		{
			name: "single directive",
			build: func() *Builder {
				return NewBuilder().DefaultSrc("'self'")
			},
			want: "default-src 'self'",
		},
		{
			name: "multiple sources",
			build: func() *Builder {
				return NewBuilder().ScriptSrc("'self'", "https://cdn.example.com")
			},
			want: "script-src 'self' https://cdn.example.com",
		},
		{
			name: "directives sorted",
			build: func() *Builder {
				return NewBuilder().
					StyleSrc("'self'").
					DefaultSrc("'self'").
					ImgSrc("data:")
			},
			want: "default-src 'self'; img-src data:; style-src 'self'",
		},
		{
			name:  "api policy",
			build: APIPolicy,
			want:  "base-uri 'none'; default-src 'none'; form-action 'none'; frame-ancestors 'none'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.build().Build(); got != tt.want {
				t.Errorf("Build() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuilder_HeaderName(t *testing.T) {
	if got := NewBuilder().HeaderName(); got != "Content-Security-Policy" {
		t.Errorf("HeaderName() = %q", got)
	}
	if got := NewBuilder().ReportOnly(true).HeaderName(); got != "Content-Security-Policy-Report-Only" {
		t.Errorf("report-only HeaderName() = %q", got)
	}
}
