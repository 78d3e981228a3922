// Package retry provides backoff, polling and paced waits.
//
// Media fetches go through Do with the ByErrorType table, which slows down
// sharply on rate limits and gives up at once on 404s. Browser waits use
// Poll, which re-evaluates a condition at a fixed interval until a timeout,
// and Pause, which sleeps a random duration inside a jitter window:
//
//	err := retry.Poll(ctx, 8*time.Second, 100*time.Millisecond, overlayReady)
//	if errors.Is(err, retry.ErrPollTimeout) {
//		// give up on this post
//	}
//
//	_ = retry.Pause(ctx, 2*time.Second, 4*time.Second)
//
// Every wait returns early with ctx.Err() when ctx is cancelled.
package retry
