package pathutil

import "testing"

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "track by id", path: "/api/tracks/8f2c1a", want: "/api/tracks/:id"},
		{name: "track share", path: "/api/tracks/8f2c1a/share", want: "/api/tracks/:id/share"},
		{name: "playlist by id", path: "/api/playlists/42", want: "/api/playlists/:id"},
		{name: "playlist tracks", path: "/api/playlists/42/tracks", want: "/api/playlists/:id/tracks"},
		{name: "nft token", path: "/api/blockchain/nft/0xdeadbeef", want: "/api/blockchain/nft/:tokenId"},
		{name: "static path unchanged", path: "/healthz", want: "/healthz"},
		{name: "collection unchanged", path: "/api/tracks", want: "/api/tracks"},
		{name: "query stripped", path: "/api/playlists/42?page=2", want: "/api/playlists/:id"},
		{name: "trailing slash stripped", path: "/api/tracks/8f2c1a/", want: "/api/tracks/:id"},
		{name: "unknown path unchanged", path: "/some/other/123", want: "/some/other/123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePath(tt.path); got != tt.want {
				t.Errorf("NormalizePath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
