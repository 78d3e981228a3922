package models

import (
	"fmt"
	"net/url"
	"strings"
)

// postKinds are the path prefixes that identify a single post
var postKinds = []string{"p", "reel", "tv"}

// PostReference identifies one post by the canonical path segment of its link.
type PostReference struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

func (p PostReference) String() string {
	return p.ID
}

// ParsePostReference extracts the post ID from href, resolving it against base
// when relative. The canonical URL always uses the /p/<id>/ form without query.
func ParsePostReference(href, base string) (PostReference, error) {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return PostReference{}, fmt.Errorf("parse post link: %w", err)
	}
	if !u.IsAbs() && base != "" {
		b, err := url.Parse(base)
		if err != nil {
			return PostReference{}, fmt.Errorf("parse base url: %w", err)
		}
		u = b.ResolveReference(u)
	}

	segments := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	for i := 0; i+1 < len(segments); i++ {
		for _, kind := range postKinds {
			if segments[i] == kind && segments[i+1] != "" {
				id := segments[i+1]
				canonical := "/p/" + id + "/"
				if u.Host != "" {
					canonical = u.Scheme + "://" + strings.ToLower(u.Host) + canonical
				}
				return PostReference{ID: id, URL: canonical}, nil
			}
		}
	}
	return PostReference{}, fmt.Errorf("no post id in %q", href)
}

// CleanLink strips the query and normalizes trailing slashes to exactly one.
func CleanLink(href string) string {
	if i := strings.IndexAny(href, "?#"); i >= 0 {
		href = href[:i]
	}
	return strings.TrimRight(href, "/") + "/"
}
