package instagram

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const (
	// BaseURL is the base URL for Instagram
	BaseURL = "https://www.instagram.com"

	// Referer is sent with every media fetch; the CDN rejects some requests without it
	Referer = BaseURL + "/"
)

// reservedPaths are first path segments that are never usernames
var reservedPaths = map[string]bool{
	"p": true, "reel": true, "reels": true, "tv": true, "explore": true,
	"accounts": true, "stories": true, "direct": true, "about": true,
	"developer": true, "legal": true, "web": true, "api": true,
}

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9._]{1,30}$`)

func isInstagramHost(host string) bool {
	host = strings.ToLower(host)
	return host == "instagram.com" || host == "www.instagram.com" || host == "m.instagram.com"
}

// Username returns the profile handle a URL points at, if it is a profile page.
// Tab suffixes such as /tagged/ or /reels/ are accepted.
func Username(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || !isInstagramHost(u.Host) {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}

	segments := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	if len(segments) == 0 || len(segments) > 2 {
		return "", false
	}
	name := segments[0]
	if reservedPaths[strings.ToLower(name)] || !usernamePattern.MatchString(name) {
		return "", false
	}
	if len(segments) == 2 {
		switch segments[1] {
		case "tagged", "reels", "saved":
		default:
			return "", false
		}
	}
	return name, true
}

// IsProfileURL reports whether rawURL is a profile page
func IsProfileURL(rawURL string) bool {
	_, ok := Username(rawURL)
	return ok
}

// IsPostURL reports whether rawURL is a single post page
func IsPostURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || !isInstagramHost(u.Host) {
		return false
	}
	return strings.HasPrefix(u.Path, "/p/") || strings.HasPrefix(u.Path, "/reel/") || strings.HasPrefix(u.Path, "/tv/")
}

// GetProfileURL constructs the profile page URL for a username
func GetProfileURL(username string) string {
	return fmt.Sprintf("%s/%s/", BaseURL, strings.TrimPrefix(username, "@"))
}

// GetPostURL constructs the URL for a specific post
func GetPostURL(shortcode string) string {
	if shortcode == "" {
		return ""
	}
	return fmt.Sprintf("%s/p/%s/", BaseURL, shortcode)
}

// ResolveProfileURL accepts a profile URL, a bare username or @username
func ResolveProfileURL(input string) (string, error) {
	input = strings.TrimSpace(input)
	if strings.Contains(input, "://") {
		if !IsProfileURL(input) {
			return "", fmt.Errorf("not a profile page: %s", input)
		}
		return input, nil
	}
	name := strings.TrimPrefix(input, "@")
	if !usernamePattern.MatchString(name) || reservedPaths[strings.ToLower(name)] {
		return "", fmt.Errorf("invalid username: %q", input)
	}
	return GetProfileURL(name), nil
}
