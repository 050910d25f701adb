// Package pathutil normalizes request paths for metric labels.
package pathutil

import (
	"regexp"
	"strings"
)

type pathPattern struct {
	pattern  *regexp.Regexp
	template string
}

// pathPatterns maps dynamic routes to templates, most specific first.
// Pre-compiled at initialization; normalization sits on the metrics hot
// path.
var pathPatterns = []pathPattern{
	{pattern: regexp.MustCompile(`^/api/tracks/[^/]+/share$`), template: "/api/tracks/:id/share"},
	{pattern: regexp.MustCompile(`^/api/tracks/[^/]+$`), template: "/api/tracks/:id"},
	{pattern: regexp.MustCompile(`^/api/playlists/[^/]+/tracks$`), template: "/api/playlists/:id/tracks"},
	{pattern: regexp.MustCompile(`^/api/playlists/[^/]+$`), template: "/api/playlists/:id"},
	{pattern: regexp.MustCompile(`^/api/blockchain/nft/[^/]+$`), template: "/api/blockchain/nft/:tokenId"},
	{pattern: regexp.MustCompile(`^/api/users/[^/]+$`), template: "/api/users/:id"},
}

// NormalizePath converts ID-carrying paths to their template form so
// metric label cardinality stays bounded. Static paths pass through
// unchanged, as do unknown paths.
//
//	NormalizePath("/api/tracks/8f2c")     // "/api/tracks/:id"
//	NormalizePath("/api/playlists/42")    // "/api/playlists/:id"
//	NormalizePath("/healthz")             // "/healthz"
func NormalizePath(path string) string {
	if idx := strings.IndexByte(path, '?'); idx != -1 {
		path = path[:idx]
	}
	if len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}

	for _, p := range pathPatterns {
		if p.pattern.MatchString(path) {
			return p.template
		}
	}
	return path
}
