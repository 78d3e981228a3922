// Package instagram holds everything that knows about Instagram's pages.
//
// The Locator maps semantic roles (overlay, next control, media element and
// so on) to ranked CSS selector chains. The rest of the scraper only ever
// asks for roles, so markup changes are fixed here.
//
// Client fetches media files from the CDN for archive export. It sends the
// Referer the CDN expects, rate-limits requests with a token bucket and
// retries rate limits, server errors and network failures with backoff.
//
//	loc := instagram.NewLocator(page, log)
//	overlay, ok := dom.First(ctx, loc, dom.RoleOverlay, nil)
//
//	client := instagram.NewClient(instagram.ClientConfig{RequestsPerMinute: 120}, log)
//	data, err := client.Fetch(ctx, mediaURL)
package instagram
