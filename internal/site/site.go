// Package site is the downstream consumer of the resolved page graph: it
// wraps each page's engine HTML in a minimal layout shell and writes the
// static site tree. Theming and layout proper are deliberately out of the
// engine's scope; this shell exists so builds produce a browsable result.
package site

import (
	"bytes"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	sgerrors "git.home.luguber.info/inful/sitegraph/internal/errors"
	"git.home.luguber.info/inful/sitegraph/internal/processor"
	"git.home.luguber.info/inful/sitegraph/internal/registry"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
{{if .Crumbs}}<nav class="breadcrumbs">{{range .Crumbs}}<a href="{{.URL}}">{{.Name}}</a> / {{end}}</nav>
{{end}}<main>
{{.Content}}
</main>
</body>
</html>
`))

type crumb struct {
	URL  string
	Name string
}

type pageData struct {
	Title   string
	Crumbs  []crumb
	Content template.HTML
}

// Renderer produces the final HTML document for one page.
type Renderer struct{}

// Page wraps one page's resolved content in the layout shell.
func (Renderer) Page(reg *registry.Registry, page *registry.Page, content string) ([]byte, error) {
	data := pageData{
		Title:   page.Title,
		Content: template.HTML(content),
	}
	for _, crumbURL := range page.Breadcrumbs {
		if ancestor, ok := reg.Pages[crumbURL]; ok {
			data.Crumbs = append(data.Crumbs, crumb{URL: ancestor.URL, Name: ancestor.Name})
		}
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, sgerrors.RenderFailed(page.URL, err)
	}
	return buf.Bytes(), nil
}

// Writer writes the rendered site under an output directory: each page
// becomes <output>/<url>/index.html.
type Writer struct {
	Output   string
	Renderer Renderer
}

// WriteAll writes every resolved page.
func (w *Writer) WriteAll(reg *registry.Registry, pages map[string]*processor.Rendered) error {
	for _, url := range reg.URLs() {
		rendered, ok := pages[url]
		if !ok {
			continue
		}
		doc, err := w.Renderer.Page(reg, reg.Pages[url], rendered.HTML)
		if err != nil {
			return err
		}

		dir := filepath.Join(w.Output, filepath.FromSlash(strings.TrimPrefix(url, "/")))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return sgerrors.ExportFailed("site", err)
		}
		if err := os.WriteFile(filepath.Join(dir, "index.html"), doc, 0o644); err != nil {
			return sgerrors.ExportFailed("site", err)
		}
	}
	return nil
}
