package cli

import (
	"fmt"
	"io"

	"github.com/FranksOps/sourcelinks/internal/serp"
)

// progress prints one line per source to w.
type progress struct {
	w io.Writer
}

func (p progress) SourceStarted(i, n int, source string) {
	fmt.Fprintf(p.w, "[%d/%d] %s ... ", i+1, n, source)
}

func (p progress) SourceDone(_, _ int, res serp.Result) {
	switch {
	case res.Failed():
		fmt.Fprintln(p.w, "failed")
	case res.Page.DetectedBot:
		fmt.Fprintf(p.w, "%d titles, %d links (%s)\n", len(res.Titles), len(res.Links), res.Page.DetectionSrc)
	default:
		fmt.Fprintf(p.w, "%d titles, %d links\n", len(res.Titles), len(res.Links))
	}
}
