package instagram

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUsername(t *testing.T) {
	tests := []struct {
		url  string
		want string
		ok   bool
	}{
		{"https://www.instagram.com/example.user/", "example.user", true},
		{"https://instagram.com/example_user", "example_user", true},
		{"https://www.instagram.com/example.user/tagged/", "example.user", true},
		{"https://www.instagram.com/p/ABC123/", "", false},
		{"https://www.instagram.com/reel/ABC123/", "", false},
		{"https://www.instagram.com/explore/", "", false},
		{"https://www.instagram.com/", "", false},
		{"https://www.instagram.com/example.user/followers/", "", false},
		{"https://example.com/example.user/", "", false},
		{"ftp://www.instagram.com/example.user/", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, ok := Username(tt.url)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, IsProfileURL(tt.url))
		})
	}
}

func TestIsPostURL(t *testing.T) {
	assert.True(t, IsPostURL("https://www.instagram.com/p/ABC123/"))
	assert.True(t, IsPostURL("https://www.instagram.com/reel/ABC123/"))
	assert.False(t, IsPostURL("https://www.instagram.com/example.user/"))
	assert.False(t, IsPostURL("https://example.com/p/ABC123/"))
}

func TestResolveProfileURL(t *testing.T) {
	got, err := ResolveProfileURL("@example.user")
	assert.NoError(t, err)
	assert.Equal(t, "https://www.instagram.com/example.user/", got)

	got, err = ResolveProfileURL("https://www.instagram.com/example.user/")
	assert.NoError(t, err)
	assert.Equal(t, "https://www.instagram.com/example.user/", got)

	_, err = ResolveProfileURL("https://www.instagram.com/p/ABC/")
	assert.Error(t, err)
	_, err = ResolveProfileURL("not a name")
	assert.Error(t, err)
	_, err = ResolveProfileURL("explore")
	assert.Error(t, err)
}

func TestURLBuilders(t *testing.T) {
	assert.Equal(t, "https://www.instagram.com/p/ABC123/", GetPostURL("ABC123"))
	assert.Equal(t, "", GetPostURL(""))
	assert.Equal(t, "https://www.instagram.com/someone/", GetProfileURL("@someone"))
}
