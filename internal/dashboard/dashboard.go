// Package dashboard renders a static HTML index of recent capture runs.
// This is supplementary tooling, additive to the artifact layout and never
// load-bearing for pass/fail decisions: every run is equally well-formed
// with or without a dashboard rendered over it.
package dashboard

import (
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"
)

// Entry summarizes one run directory for the index page.
type Entry struct {
	RunID     string    `json:"run_id"`
	Title     string    `json:"title"`
	Lane      string    `json:"lane"`
	Status    string    `json:"status"`
	MediaGIF  string    `json:"media_gif,omitempty"`
	MediaMP4  string    `json:"media_mp4,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Dir       string    `json:"dir"`
}

// indexTemplate is inlined rather than go:embed'd: the corpus's template
// assets this was adapted from aren't part of this module, so the
// dashboard carries its own minimal markup instead of an on-disk asset.
const indexTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>terminal-demo-studio runs</title>
<style>
body { font-family: sans-serif; margin: 2rem; }
table { border-collapse: collapse; width: 100%; }
td, th { border: 1px solid #ccc; padding: 0.4rem 0.8rem; text-align: left; }
.passed { color: #1a7f37; }
.failed { color: #cf222e; }
</style>
</head>
<body>
<h1>terminal-demo-studio runs</h1>
<p>Generated {{.GeneratedAt}}</p>
<table>
<tr><th>Run</th><th>Title</th><th>Lane</th><th>Status</th><th>Created</th></tr>
{{range .Entries}}<tr>
<td>{{.RunID}}</td><td>{{.Title}}</td><td>{{.Lane}}</td>
<td class="{{.Status}}">{{.Status}}</td>
<td>{{.CreatedAt}}</td>
</tr>
<script type="application/json" id="run-metadata">{{.JSON}}</script>
{{end}}
</table>
</body>
</html>
`

var page = template.Must(template.New("index").Parse(indexTemplate))

type entryView struct {
	Entry
	JSON template.JS
}

// Render writes an HTML index of entries to outputDir/index.html. One
// <script type="application/json" id="run-metadata"> block accompanies
// each row, which ExtractEntries scans back out.
func Render(outputDir string, entries []Entry) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("creating dashboard output directory: %w", err)
	}
	path := filepath.Join(outputDir, "index.html")
	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	views := make([]entryView, 0, len(entries))
	for _, e := range entries {
		raw, err := json.Marshal(e)
		if err != nil {
			return "", fmt.Errorf("encoding run metadata for %s: %w", e.RunID, err)
		}
		views = append(views, entryView{Entry: e, JSON: template.JS(raw)})
	}

	data := struct {
		GeneratedAt time.Time
		Entries     []entryView
	}{GeneratedAt: time.Now(), Entries: views}

	if err := page.Execute(file, data); err != nil {
		return "", fmt.Errorf("rendering dashboard: %w", err)
	}
	return path, nil
}

// ExtractEntries scans an already-rendered index.html for its embedded
// run-metadata blocks, the same embed-then-extract idiom the rendering
// side uses in reverse.
func ExtractEntries(indexPath string) ([]Entry, error) {
	content, err := os.ReadFile(indexPath)
	if err != nil {
		return nil, err
	}

	const open = `<script type="application/json" id="run-metadata">`
	const closeTag = `</script>`

	var entries []Entry
	rest := string(content)
	for {
		start := indexOf(rest, open)
		if start < 0 {
			break
		}
		rest = rest[start+len(open):]
		end := indexOf(rest, closeTag)
		if end < 0 {
			break
		}
		block := rest[:end]
		rest = rest[end+len(closeTag):]

		var e Entry
		if err := json.Unmarshal([]byte(block), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
