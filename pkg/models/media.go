package models

import (
	"fmt"
	"net/url"
	"strings"
)

// MediaURL is the normalized identity of one image or video resource.
type MediaURL string

// NormalizeMediaURL strips query and fragment and trims trailing slashes.
// Only absolute http(s) URLs are accepted.
func NormalizeMediaURL(raw string) (MediaURL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("parse media url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("media url %q is not http(s)", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("media url %q has no host", raw)
	}

	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""

	path := strings.TrimRight(u.EscapedPath(), "/")
	if path == "" {
		path = "/"
	}
	return MediaURL(u.Scheme + "://" + strings.ToLower(u.Host) + path), nil
}

// MediaSet is an insertion-ordered set of media URLs keyed by normalized form.
// The first-seen raw URL is kept because signed CDN links need their query to download.
// Not safe for concurrent use.
type MediaSet struct {
	keys []MediaURL
	raw  map[MediaURL]string
}

// NewMediaSet creates an empty set
func NewMediaSet() *MediaSet {
	return &MediaSet{raw: make(map[MediaURL]string)}
}

// Add inserts raw and reports whether it was new. Invalid URLs are rejected.
func (s *MediaSet) Add(raw string) bool {
	key, err := NormalizeMediaURL(raw)
	if err != nil {
		return false
	}
	if _, ok := s.raw[key]; ok {
		return false
	}
	s.keys = append(s.keys, key)
	s.raw[key] = strings.TrimSpace(raw)
	return true
}

// Merge adds every entry of other in order and returns how many were new
func (s *MediaSet) Merge(other *MediaSet) int {
	if other == nil {
		return 0
	}
	added := 0
	for _, k := range other.keys {
		if s.Add(other.raw[k]) {
			added++
		}
	}
	return added
}

// Contains reports whether a normalized-equal URL is present
func (s *MediaSet) Contains(raw string) bool {
	key, err := NormalizeMediaURL(raw)
	if err != nil {
		return false
	}
	_, ok := s.raw[key]
	return ok
}

// Len returns the number of unique entries
func (s *MediaSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Keys returns normalized URLs in insertion order
func (s *MediaSet) Keys() []MediaURL {
	out := make([]MediaURL, len(s.keys))
	copy(out, s.keys)
	return out
}

// Items returns the first-seen raw URLs in insertion order
func (s *MediaSet) Items() []string {
	out := make([]string, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, s.raw[k])
	}
	return out
}

// Truncate drops entries beyond n
func (s *MediaSet) Truncate(n int) {
	if n < 0 || n >= len(s.keys) {
		return
	}
	for _, k := range s.keys[n:] {
		delete(s.raw, k)
	}
	s.keys = s.keys[:n]
}
