package receiver

import (
	"bytes"
	"html/template"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leelsey/recvd/pkg/capture"
)

// viewTemplate is the log view document: entry cards, a refresh button,
// and dark-mode styling.
const viewTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <style>
        body { font-family: Arial, sans-serif; background: #f4f4f9; padding: 10px; color: #333; }
        .header, .footer { text-align: center; padding: 10px; }
        .header { font-size: 24px; font-weight: bold; }
        .log-entry { background: #fff; padding: 10px; margin: 8px 0; border-radius: 8px; }
        #log-container { max-height: 70vh; overflow-y: auto; }
        .refresh-btn { padding: 5px 10px; cursor: pointer; margin-top: 10px; }
        @media (prefers-color-scheme: dark) {
            body { background: #1e1e1e; color: #ccc; }
            .log-entry { background: #333; color: #eee; }
            .footer { color: #888; }
            .refresh-btn { background-color: #444; color: #ccc; }
            .refresh-btn:hover { background-color: #555; }
        }
    </style>
</head>
<body>
    <div class="header">{{.Title}}</div>
    <div id="log-container">
{{- range .Entries}}
        <div class="log-entry">{{.}}</div>
{{- end}}
    </div>
    <div style="text-align: center;">
        <button class="refresh-btn" onclick="location.reload();">Refresh</button>
    </div>
    <div class="footer">&copy; 2024 leelsey</div>
</body>
</html>
`

var viewTmpl = template.Must(template.New("logview").Parse(viewTemplate))

// viewData feeds the view template. Entries are pre-escaped lines with
// their breaks already turned into markup.
type viewData struct {
	Title   string
	Entries []template.HTML
}

// Renderer produces the HTML log view from the store's web-visible
// entries. Rendering is a pure read; it never mutates the store.
type Renderer struct {
	store capture.Store
	title string
}

// NewRenderer creates a Renderer titled after the server name.
func NewRenderer(store capture.Store, serverName string) *Renderer {
	if serverName == "" {
		serverName = "receiver"
	}
	return &Renderer{
		store: store,
		title: cases.Title(language.English).String(serverName) + " Web Server",
	}
}

// Title returns the rendered page title.
func (r *Renderer) Title() string {
	return r.title
}

// Page renders the view: web-visible entries in insertion order, each
// escaped before its line breaks become <br> markup.
func (r *Renderer) Page() ([]byte, error) {
	entries := r.store.WebVisible()
	lines := make([]template.HTML, 0, len(entries))
	for _, entry := range entries {
		line := template.HTMLEscapeString(capture.WebLine(entry))
		lines = append(lines, template.HTML(strings.ReplaceAll(line, "\n", "<br>")))
	}

	var buf bytes.Buffer
	if err := viewTmpl.Execute(&buf, viewData{Title: r.title, Entries: lines}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
