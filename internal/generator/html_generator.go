package generator

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"github.com/natefinch/atomic"

	"github.com/Zachdehooge/crossing-dashboard/internal/page"
)

var funcs = template.FuncMap{
	"percent": func(frac float64) string {
		return fmt.Sprintf("%.1f%%", frac*100)
	},
}

var pageTmpl = template.Must(template.New("crossing").Funcs(funcs).Parse(`<!DOCTYPE html>
<html lang="en" style="font-size: {{ .FontScale }}px">
<head>
   <meta charset="UTF-8"/>
   {{ if gt .ReloadSeconds 0 }}<meta http-equiv="refresh" content="{{ .ReloadSeconds }}">{{ end }}
   <title>Level Crossing Status</title>
   <style>
      :root {
         --bg-color: #121212;
         --text-color: #e0e0e0;
         --card-bg: #1e1e1e;
         --card-border: #333;
         --open-bg: #1a3d24;
         --closing-bg: #3d2e1a;
         --closed-bg: #3d1a1a;
         --muted: #888;
      }
      body {
         font-family: Arial, sans-serif;
         max-width: 900px;
         margin: 0 auto;
         padding: 20px 20px 80px;
         background-color: var(--bg-color);
         color: var(--text-color);
      }
      .hero, .card {
         border: 1px solid var(--card-border);
         border-radius: 5px;
         background-color: var(--card-bg);
         padding: 12px;
         margin-bottom: 15px;
      }
      .hero-header { display: flex; justify-content: space-between; align-items: center; }
      .countdown { font-size: 2rem; font-weight: bold; }
      .chip { padding: 4px 10px; border-radius: 12px; }
      .chip-open { background-color: var(--open-bg); }
      .chip-closing { background-color: var(--closing-bg); }
      .chip-closed { background-color: var(--closed-bg); }
      .sr-only { position: absolute; width: 1px; height: 1px; overflow: hidden; clip: rect(0 0 0 0); }
      table { width: 100%; border-collapse: collapse; }
      th, td { text-align: left; padding: 6px; border-bottom: 1px solid var(--card-border); }
      .loading tbody { opacity: 0.5; }
      .rel, .meta { color: var(--muted); font-size: 0.85em; }
      .pagination a, .pagination span { margin-right: 8px; color: var(--text-color); }
      .pagination .current { font-weight: bold; text-decoration: underline; }
      .sticky {
         position: fixed; left: 0; right: 0; bottom: 0;
         background-color: var(--card-bg); border-top: 1px solid var(--card-border);
         padding: 8px 20px;
      }
      .progress { height: 6px; background-color: var(--card-border); margin-top: 6px; }
      .progress > div { height: 100%; background-color: #b25900; }
   </style>
</head>
<body>
   <h1>Level Crossing Status</h1>

   {{ with .Hero }}
   <section class="hero" id="hero" data-eta="{{ .ArrivalAttr }}">
      <div class="hero-header">
         <h2>Next: #{{ .TrainNo }} {{ .Name }}</h2>
         <span id="gate-status" class="chip {{ .Gate.Class }}">{{ .Gate.Icon }} {{ .Gate.Label }}</span>
      </div>
      <div class="countdown" id="countdown">{{ .Countdown }}</div>
      <div class="sr-only" id="countdown-aria" aria-live="polite">{{ .Aria }}</div>
      <p class="meta">Arrives at {{ .ETAFormatted }}</p>
   </section>
   {{ end }}

   <p class="meta">
      Auto refresh: {{ if .Controls.AutoRefresh }}on, every {{ .Controls.IntervalSeconds }}s{{ else }}off{{ end }}
      {{ if .Controls.Loading }}&middot; refreshing&hellip;{{ end }}
   </p>

   {{ if .Empty }}
   <p class="empty">{{ .Empty }}</p>
   {{ else }}
   <table class="{{ if .Controls.Loading }}loading{{ end }}">
      <thead><tr><th>Train</th><th>Name</th><th>ETA</th><th></th><th>Source</th></tr></thead>
      <tbody>
      {{ range .Rows }}
         <tr data-eta="{{ .ArrivalAttr }}">
            <td>#{{ .TrainNo }}</td>
            <td>{{ .Name }}</td>
            <td>{{ .ETAFormatted }}</td>
            <td class="rel">{{ .Relative }}</td>
            <td class="meta">{{ .Source }}</td>
         </tr>
      {{ end }}
      </tbody>
   </table>
   {{ end }}

   {{ if gt .Pagination.TotalPages 1 }}
   <nav class="pagination">
      <span class="count">{{ .Pagination.Total }} trains</span>
      {{ range .Pagination.Links }}
         {{ if .Ellipsis }}<span>&hellip;</span>
         {{ else if .Current }}<span class="current">{{ .Number }}</span>
         {{ else }}<a href="?page={{ .Number }}">{{ .Number }}</a>{{ end }}
      {{ end }}
   </nav>
   {{ end }}

   {{ if .LastUpdated }}<h4>{{ .LastUpdated }}</h4>{{ end }}

   {{ if .Sticky.Visible }}
   <div class="sticky" id="stickyNow">
      <span id="stickyCountdown">{{ .Sticky.Countdown }}</span>
      <span class="chip {{ .Sticky.Gate.Class }}">{{ .Sticky.Gate.Label }}</span>
      <div class="progress"><div id="stickyProgress" style="width: {{ percent .Sticky.Progress }}"></div></div>
   </div>
   {{ end }}
</body>
</html>
`))

type templateData struct {
	page.Snapshot
	ReloadSeconds int
}

// PageWriter renders snapshots of the crossing page to an HTML file.
type PageWriter struct {
	path          string
	reloadSeconds int
}

// NewPageWriter writes to path. A positive reloadSeconds adds a meta refresh
// so a plain browser tab follows the file.
func NewPageWriter(path string, reloadSeconds int) *PageWriter {
	return &PageWriter{path: path, reloadSeconds: reloadSeconds}
}

func (w *PageWriter) Path() string {
	return w.path
}

// Render writes the HTML for s to out.
func (w *PageWriter) Render(out io.Writer, s page.Snapshot) error {
	return pageTmpl.Execute(out, templateData{Snapshot: s, ReloadSeconds: w.reloadSeconds})
}

// Write renders s and replaces the output file atomically, so a browser or
// the preview server never reads a half-written page.
func (w *PageWriter) Write(s page.Snapshot) error {
	var buf bytes.Buffer
	if err := w.Render(&buf, s); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}
	if err := atomic.WriteFile(w.path, &buf); err != nil {
		return fmt.Errorf("failed to write %s: %w", w.path, err)
	}
	return nil
}
