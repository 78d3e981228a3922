package instagram

import (
	"context"
	"io"
	"net/http"
	"time"

	errs "igharvest/pkg/errors"
	"igharvest/pkg/logger"
	"igharvest/pkg/ratelimit"
	"igharvest/pkg/retry"
)

// DefaultUserAgent matches a current desktop Chrome
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

// maxMediaBytes caps a single fetched file
const maxMediaBytes = 64 << 20

// ClientConfig configures media fetches
type ClientConfig struct {
	Timeout           time.Duration
	UserAgent         string
	Referer           string
	MaxAttempts       int
	RequestsPerMinute int
	// Backoff overrides the per-error-type backoff table
	Backoff retry.BackoffStrategy
}

// Client fetches media bytes from the CDN
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	limiter    ratelimit.Limiter
	retry      *retry.Config
	logger     logger.Logger
}

// NewClient creates a media client
func NewClient(cfg ClientConfig, log logger.Logger) *Client {
	log = logger.OrDefault(log).WithField("component", "media_client")

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Referer == "" {
		cfg.Referer = Referer
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	backoff := cfg.Backoff
	if backoff == nil {
		backoff = retry.NewErrorTypeBackoff()
	}

	var limiter ratelimit.Limiter = ratelimit.Unlimited{}
	if cfg.RequestsPerMinute > 0 {
		limiter = ratelimit.NewTokenBucket(cfg.RequestsPerMinute, time.Minute)
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		headers: map[string]string{
			"User-Agent":      cfg.UserAgent,
			"Referer":         cfg.Referer,
			"Accept":          "image/avif,image/webp,image/apng,image/*,video/*,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
			"Sec-Fetch-Dest":  "image",
			"Sec-Fetch-Mode":  "no-cors",
			"Sec-Fetch-Site":  "cross-site",
		},
		limiter: limiter,
		retry: &retry.Config{
			MaxAttempts: cfg.MaxAttempts,
			Backoff:     backoff,
			RetryIf:     retry.DefaultRetryIf,
			Logger:      log,
		},
		logger: log,
	}
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// Fetch downloads one media file, retrying transient failures
func (c *Client) Fetch(ctx context.Context, mediaURL string) ([]byte, error) {
	return retry.DoWithResult(ctx, func(ctx context.Context) ([]byte, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return c.fetchOnce(ctx, mediaURL)
	}, c.retry)
}

func (c *Client) fetchOnce(ctx context.Context, mediaURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeUnknown, err, "failed to create request")
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errs.Wrap(errs.ErrorTypeNetwork, err, "network error fetching %s", mediaURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.DebugWithFields("media fetch rejected", map[string]interface{}{
			"url":    mediaURL,
			"status": resp.StatusCode,
		})
		return nil, errs.FromStatusCode(resp.StatusCode, mediaURL)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes+1))
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeNetwork, err, "failed to read %s", mediaURL)
	}
	if len(data) > maxMediaBytes {
		return nil, errs.New(errs.ErrorTypeUnknown, "%s exceeds %d bytes", mediaURL, maxMediaBytes)
	}

	c.logger.DebugWithFields("media fetched", map[string]interface{}{
		"url":      mediaURL,
		"size":     len(data),
		"duration": time.Since(start),
	})
	return data, nil
}
