// Package scraper drives a collection run over an open profile page.
//
// A run moves through Idle, Discovering, Extracting, Finalizing and Done, or
// Failed when a precondition does not hold:
//
//   - Discovering scrolls the profile grid collecting unique post references
//     until the target is reached or two consecutive scrolls add nothing. In
//     smart mode each grid tile is classified first and single-item posts are
//     left out.
//   - Extracting handles posts strictly one at a time: open the overlay, walk
//     the carousel, close the overlay, merge the media. A failed post is
//     recorded on the report and the run moves on.
//   - Quick mode skips both and collects media from the whole page while
//     scrolling.
//
// Usage:
//
//	s := scraper.New(page, locator, cfg, log)
//	s.SetReporter(ui.NewProgressDisplay(profileURL, false))
//	report, err := s.Run(ctx, models.ModeSmart)
//	if err != nil {
//	    // precondition failure, report.Fatal holds the message
//	}
//	ui.PrintResults(os.Stdout, report)
//
// Pacing:
//
// Post openings go through a sliding window (collection.actions_per_minute) and
// a randomized 2-4s pause; scrolls wait 1.5-2.5s. Every wait honours ctx, and
// cancelling it stops the run between posts with the partial results kept.
package scraper
