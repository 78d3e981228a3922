package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMediaURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    MediaURL
		wantErr bool
	}{
		{"strips query", "https://scontent.cdninstagram.com/v/a.jpg?stp=dst&_nc_ht=x", "https://scontent.cdninstagram.com/v/a.jpg", false},
		{"strips trailing slash", "https://cdn.example.com/media/x/", "https://cdn.example.com/media/x", false},
		{"strips fragment", "https://cdn.example.com/a.jpg#frag", "https://cdn.example.com/a.jpg", false},
		{"lowercases host", "https://CDN.Example.com/A.jpg", "https://cdn.example.com/A.jpg", false},
		{"root path", "https://cdn.example.com/?x=1", "https://cdn.example.com/", false},
		{"relative rejected", "/img/a.jpg", "", true},
		{"data uri rejected", "data:image/png;base64,AAAA", "", true},
		{"blob rejected", "blob:https://www.instagram.com/1234", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeMediaURL(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMediaSetDedup(t *testing.T) {
	s := NewMediaSet()
	assert.True(t, s.Add("https://cdn.example.com/a.jpg?sig=1"))
	assert.False(t, s.Add("https://cdn.example.com/a.jpg?sig=2"))
	assert.False(t, s.Add("https://cdn.example.com/a.jpg/"))
	assert.True(t, s.Add("https://cdn.example.com/b.jpg"))
	assert.False(t, s.Add("not a url"))

	assert.Equal(t, 2, s.Len())
	// first-seen raw form is kept for export
	assert.Equal(t, []string{"https://cdn.example.com/a.jpg?sig=1", "https://cdn.example.com/b.jpg"}, s.Items())
	assert.True(t, s.Contains("https://cdn.example.com/b.jpg?x=y"))
}

func TestMediaSetMergeIsIdempotent(t *testing.T) {
	a := NewMediaSet()
	a.Add("https://cdn.example.com/1.jpg")
	a.Add("https://cdn.example.com/2.jpg")

	b := NewMediaSet()
	b.Add("https://cdn.example.com/2.jpg?again")
	b.Add("https://cdn.example.com/3.jpg")

	assert.Equal(t, 1, a.Merge(b))
	assert.Equal(t, 0, a.Merge(b))
	assert.Equal(t, 3, a.Len())

	seen := map[MediaURL]bool{}
	for _, k := range a.Keys() {
		assert.False(t, seen[k], "duplicate key %s", k)
		seen[k] = true
	}
}

func TestMediaSetTruncate(t *testing.T) {
	s := NewMediaSet()
	for _, u := range []string{"https://c.example/1", "https://c.example/2", "https://c.example/3"} {
		s.Add(u)
	}
	s.Truncate(2)
	assert.Equal(t, 2, s.Len())
	assert.False(t, s.Contains("https://c.example/3"))
	assert.True(t, s.Add("https://c.example/3"))
}

func TestParsePostReference(t *testing.T) {
	tests := []struct {
		href   string
		base   string
		wantID string
		want   string
	}{
		{"https://www.instagram.com/p/Cx1_ab-2/?img_index=1", "", "Cx1_ab-2", "https://www.instagram.com/p/Cx1_ab-2/"},
		{"/p/ABC/", "https://www.instagram.com/someone/", "ABC", "https://www.instagram.com/p/ABC/"},
		{"/someone/p/XYZ", "https://www.instagram.com/someone/", "XYZ", "https://www.instagram.com/p/XYZ/"},
		{"https://www.instagram.com/reel/R1/", "", "R1", "https://www.instagram.com/p/R1/"},
	}
	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			ref, err := ParsePostReference(tt.href, tt.base)
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, ref.ID)
			assert.Equal(t, tt.want, ref.URL)
		})
	}

	_, err := ParsePostReference("https://www.instagram.com/someone/", "")
	assert.Error(t, err)
}

func TestCleanLink(t *testing.T) {
	assert.Equal(t, "https://www.instagram.com/p/A/", CleanLink("https://www.instagram.com/p/A//?x=1"))
	assert.Equal(t, "https://www.instagram.com/p/A/", CleanLink("https://www.instagram.com/p/A"))
}

func TestRunReport(t *testing.T) {
	r := NewRunReport(ModeFull)
	assert.NotEmpty(t, r.RunID)
	assert.Equal(t, StageIdle, r.Stage)

	r.RecordError(PostReference{ID: "A", URL: "u"}, "overlay_open_timeout", "not ready")
	require.Len(t, r.Errors, 1)
	assert.Equal(t, "A", r.Errors[0].PostID)

	m, ok := ParseMode("quick")
	assert.True(t, ok)
	assert.Equal(t, ModeQuick, m)
	_, ok = ParseMode("turbo")
	assert.False(t, ok)
}
