package ui

import (
	"fmt"
	"io"

	"igharvest/pkg/models"
)

// PrintResults writes the one-indexed media list followed by the recorded errors
func PrintResults(w io.Writer, report *models.RunReport) {
	urls := report.URLs()

	fmt.Fprintf(w, "\n%s %d media from %d posts\n", Cyan("[RESULTS]"), len(urls), len(report.Posts))
	if report.Mode == models.ModeSmart {
		fmt.Fprintln(w, Dim("Smart mode: single-image posts were skipped."))
		if n := len(report.Skipped); n > 0 {
			fmt.Fprintln(w, Dim(fmt.Sprintf("%d posts turned out to be single-item after opening.", n)))
		}
	}
	if report.Fatal != "" {
		fmt.Fprintf(w, "%s %s\n", Red("[FAILED]"), report.Fatal)
	}

	for i, u := range urls {
		fmt.Fprintf(w, "%4d. %s\n", i+1, u)
	}

	if len(report.Errors) > 0 {
		fmt.Fprintf(w, "\n%s %d\n", Yellow("[ERRORS]"), len(report.Errors))
		for _, e := range report.Errors {
			fmt.Fprintf(w, "  %s %s: %s\n", Red(e.Type), e.PostID, e.Message)
		}
	}
}
