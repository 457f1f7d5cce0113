package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strings"
)

// DefaultStylesheet is the classless stylesheet linked from rendered pages.
const DefaultStylesheet = "https://cdn.simplecss.org/simple.min.css"

// Format is an output encoding for the link list.
type Format string

const (
	FormatHTML Format = "html"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat validates a format name. Empty means FormatHTML.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatHTML, nil
	case FormatHTML, FormatJSON, FormatCSV:
		return f, nil
	default:
		return "", fmt.Errorf("report: unknown format %q", s)
	}
}

// Link is one rendered entry.
type Link struct {
	Title string `json:"title"`
	Href  string `json:"href"`
}

// Pair zips titles and links positionally, dropping whatever the longer
// slice has beyond the shorter one.
func Pair(titles, links []string) []Link {
	n := min(len(titles), len(links))
	out := make([]Link, n)
	for i := 0; i < n; i++ {
		out[i] = Link{Title: titles[i], Href: links[i]}
	}
	return out
}

// Options controls the HTML page around the list.
type Options struct {
	Stylesheet    bool
	StylesheetURL string
	Title         string
	Heading       string
}

func (o Options) withDefaults() Options {
	if o.StylesheetURL == "" {
		o.StylesheetURL = DefaultStylesheet
	}
	if o.Heading == "" {
		o.Heading = "Links"
	}
	if o.Title == "" {
		o.Title = o.Heading
	}
	return o
}

// Values are escaped by html/template; a link that is not a safe URL is
// replaced with "#ZgotmplZ".
var linksTmpl = template.Must(template.New("links").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Opts.Title}}</title>
{{- if .Opts.Stylesheet}}
<link rel="stylesheet" href="{{.Opts.StylesheetURL}}">
{{- end}}
</head>
<body>
<h1>{{.Opts.Heading}}</h1>
<ul>
{{- range .Links}}
<li><a href="{{.Href}}">{{.Title}}</a></li>
{{- end}}
</ul>
</body>
</html>
`))

// WriteHTML writes the paired titles and links as an unordered list of anchors.
func WriteHTML(w io.Writer, titles, links []string, opts Options) error {
	data := struct {
		Opts  Options
		Links []Link
	}{opts.withDefaults(), Pair(titles, links)}

	if err := linksTmpl.Execute(w, data); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}

// Render returns the HTML document for titles and links, optionally linking
// the default stylesheet.
func Render(titles, links []string, stylesheet bool) string {
	var buf bytes.Buffer
	// Executing a parsed template into a bytes.Buffer only fails on
	// template bugs, which the tests cover.
	_ = WriteHTML(&buf, titles, links, Options{Stylesheet: stylesheet})
	return buf.String()
}

// WriteJSON writes the paired list as an indented JSON array.
func WriteJSON(w io.Writer, titles, links []string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Pair(titles, links)); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}

// WriteCSV writes a title,href header followed by one row per pair.
func WriteCSV(w io.Writer, titles, links []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"title", "href"}); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	for _, l := range Pair(titles, links) {
		if err := cw.Write([]string{l.Title, l.Href}); err != nil {
			return fmt.Errorf("report: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}

// Write dispatches on format.
func Write(w io.Writer, format Format, titles, links []string, opts Options) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, titles, links)
	case FormatCSV:
		return WriteCSV(w, titles, links)
	default:
		return WriteHTML(w, titles, links, opts)
	}
}
