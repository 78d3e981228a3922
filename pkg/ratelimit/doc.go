// Package ratelimit paces browser actions and media fetches.
//
// SlidingWindow caps how many overlay opens and carousel advances happen per
// minute. TokenBucket is shared by the export workers so CDN requests stay
// under a fixed budget regardless of pool width.
//
//	limiter := ratelimit.PerMinute(cfg.Collection.ActionsPerMinute)
//	if err := limiter.Wait(ctx); err != nil {
//		return err // cancelled
//	}
package ratelimit
