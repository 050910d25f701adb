// Package csp builds Content-Security-Policy header values.
package csp

import (
	"sort"
	"strings"
)

// Builder assembles a Content-Security-Policy value directive by
// directive. Not safe for concurrent use; build once at startup and
// reuse the resulting string.
type Builder struct {
	directives map[string][]string
	reportOnly bool
}

// NewBuilder creates an empty policy builder.
func NewBuilder() *Builder {
	return &Builder{directives: make(map[string][]string)}
}

func (b *Builder) set(directive string, sources []string) *Builder {
	b.directives[directive] = sources
	return b
}

func (b *Builder) DefaultSrc(sources ...string) *Builder { return b.set("default-src", sources) }
func (b *Builder) ScriptSrc(sources ...string) *Builder  { return b.set("script-src", sources) }
func (b *Builder) StyleSrc(sources ...string) *Builder   { return b.set("style-src", sources) }
func (b *Builder) ImgSrc(sources ...string) *Builder     { return b.set("img-src", sources) }
func (b *Builder) MediaSrc(sources ...string) *Builder   { return b.set("media-src", sources) }
func (b *Builder) ConnectSrc(sources ...string) *Builder { return b.set("connect-src", sources) }
func (b *Builder) ObjectSrc(sources ...string) *Builder  { return b.set("object-src", sources) }
func (b *Builder) BaseURI(sources ...string) *Builder    { return b.set("base-uri", sources) }
func (b *Builder) FormAction(sources ...string) *Builder { return b.set("form-action", sources) }

func (b *Builder) FrameAncestors(sources ...string) *Builder {
	return b.set("frame-ancestors", sources)
}

// ReportOnly switches the header to Content-Security-Policy-Report-Only.
func (b *Builder) ReportOnly(enabled bool) *Builder {
	b.reportOnly = enabled
	return b
}

// HeaderName returns the header the built value belongs in.
func (b *Builder) HeaderName() string {
	if b.reportOnly {
		return "Content-Security-Policy-Report-Only"
	}
	return "Content-Security-Policy"
}

// Build renders the policy string with directives in sorted order, so
// the output is deterministic across restarts.
func (b *Builder) Build() string {
	names := make([]string, 0, len(b.directives))
	for name := range b.directives {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		sources := b.directives[name]
		if len(sources) == 0 {
			parts = append(parts, name)
			continue
		}
		parts = append(parts, name+" "+strings.Join(sources, " "))
	}
	return strings.Join(parts, "; ")
}

// APIPolicy is the strict default for a JSON API: nothing loads, nothing
// frames it. Media endpoints that serve audio previews relax media-src.
func APIPolicy() *Builder {
	return NewBuilder().
		DefaultSrc("'none'").
		FrameAncestors("'none'").
		BaseURI("'none'").
		FormAction("'none'")
}
