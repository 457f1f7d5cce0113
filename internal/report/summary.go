package report

import (
	"fmt"
	"io"
	"sort"
	"text/template"
	"time"

	"github.com/FranksOps/sourcelinks/internal/serp"
)

// Summary aggregates what a run did across its sources.
type Summary struct {
	Sources         int
	FailedSources   []string
	EmptySources    []string
	TotalTitles     int
	TotalLinks      int
	TotalDetections int
	DetectionsBySrc map[string]int
	StatusCodes     map[int]int
	TotalBytes      int64
	Duration        time.Duration
}

// GenerateSummary walks the per-source results of a run.
func GenerateSummary(results []serp.Result) Summary {
	s := Summary{
		DetectionsBySrc: make(map[string]int),
		StatusCodes:     make(map[int]int),
	}

	for _, r := range results {
		s.Sources++
		s.TotalTitles += len(r.Titles)
		s.TotalLinks += len(r.Links)

		if r.Failed() {
			s.FailedSources = append(s.FailedSources, r.Source)
		} else if len(r.Titles) == 0 {
			s.EmptySources = append(s.EmptySources, r.Source)
		}

		p := r.Page
		if p == nil {
			continue
		}
		if p.DetectedBot {
			s.TotalDetections++
			s.DetectionsBySrc[p.DetectionSrc]++
		}
		if p.StatusCode > 0 {
			s.StatusCodes[p.StatusCode]++
		}
		s.TotalBytes += int64(len(p.Body))
		s.Duration += p.Duration
	}

	return s
}

type count struct {
	Key   string
	Count int
}

func sortedCounts[K comparable](m map[K]int) []count {
	out := make([]count, 0, len(m))
	for k, v := range m {
		out = append(out, count{Key: fmt.Sprint(k), Count: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

var summaryTmpl = template.Must(template.New("summary").Parse(`Search Summary
--------------
Sources:       {{.S.Sources}} ({{len .S.FailedSources}} failed, {{len .S.EmptySources}} empty)
Titles:        {{.S.TotalTitles}}
Links:         {{.S.TotalLinks}}
Fetch Time:    {{.S.Duration}}
Total Bytes:   {{.S.TotalBytes}} bytes
{{- if .S.FailedSources}}
Failed:        {{range $i, $s := .S.FailedSources}}{{if $i}}, {{end}}{{$s}}{{end}}
{{- end}}
{{- if .S.EmptySources}}
No matches:    {{range $i, $s := .S.EmptySources}}{{if $i}}, {{end}}{{$s}}{{end}}
{{- end}}

Status Codes:
{{- range .Codes}}
  {{.Key}}: {{.Count}}
{{- else}}
  None
{{- end}}

Detections: {{.S.TotalDetections}}
{{- range .Detections}}
  {{.Key}}: {{.Count}}
{{- end}}
`))

// WriteSummary writes a human-readable summary to w.
func WriteSummary(w io.Writer, s Summary) error {
	data := struct {
		S          Summary
		Codes      []count
		Detections []count
	}{s, sortedCounts(s.StatusCodes), sortedCounts(s.DetectionsBySrc)}

	if err := summaryTmpl.Execute(w, data); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}
