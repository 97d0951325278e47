// Package registry flattens the navigation tree into per-page records with
// canonical URLs, breadcrumbs, and titles, and builds the bidirectional
// file/URL lookup tables used by link resolution.
package registry

import (
	"log/slog"
	"path"
	"strings"

	"git.home.luguber.info/inful/sitegraph/internal/logfields"
	"git.home.luguber.info/inful/sitegraph/internal/outline"
)

// titleSeparator joins a page name with its ancestor names.
const titleSeparator = " | "

// Page is one registered document with its canonical URL and navigation
// metadata. File is relative to the content root; Breadcrumbs are ancestor
// URLs ordered root-to-parent.
type Page struct {
	File        string
	URL         string
	Name        string
	Title       string
	Section     string
	Breadcrumbs []string
	Meta        map[string]any
}

// LinkTable holds the bidirectional file/URL mappings. It is built once per
// registry and read-only afterwards.
type LinkTable struct {
	fileToURL map[string]string
	urlToFile map[string]string
}

// URLForFile returns the canonical URL registered for a content-root-relative
// file path.
func (t *LinkTable) URLForFile(file string) (string, bool) {
	url, ok := t.fileToURL[file]
	return url, ok
}

// FileForURL returns the source file registered for a canonical URL.
func (t *LinkTable) FileForURL(url string) (string, bool) {
	file, ok := t.urlToFile[url]
	return file, ok
}

// Len returns the number of registered file/URL pairs.
func (t *LinkTable) Len() int { return len(t.fileToURL) }

// Warning describes an outline node that was dropped during registry
// construction. Registry building is best-effort: a partially authored
// content tree must still build.
type Warning struct {
	Node   string
	Reason string
}

// Registry is the flattened page set plus lookup tables.
type Registry struct {
	Sitemap []*outline.Node
	Pages   map[string]*Page

	order []string
	links *LinkTable
}

// Links returns the immutable file/URL lookup tables.
func (r *Registry) Links() *LinkTable { return r.links }

// URLs returns all registered URLs in outline order.
func (r *Registry) URLs() []string {
	urls := make([]string, len(r.order))
	copy(urls, r.order)
	return urls
}

// Root returns the root page, or nil when the outline has none.
func (r *Registry) Root() *Page { return r.Pages["/"] }

// Build walks the navigation tree and produces the page registry. It never
// fails: nodes that do not match the leaf grammar, or that would collide with
// an already registered URL or file, are dropped with a warning.
func Build(nodes []*outline.Node) (*Registry, []Warning) {
	r := &Registry{
		Sitemap: nodes,
		Pages:   map[string]*Page{},
		links: &LinkTable{
			fileToURL: map[string]string{},
			urlToFile: map[string]string{},
		},
	}

	var warnings []Warning
	r.walk(nodes, "", &warnings)
	r.assignTitles()
	return r, warnings
}

func (r *Registry) walk(nodes []*outline.Node, parentURL string, warnings *[]Warning) {
	for _, node := range nodes {
		url, ok := r.register(node.Text, parentURL, warnings)
		if !ok {
			// The node's children still get a chance to register; their URLs
			// resolve against the grandparent context.
			url = parentURL
		}
		if !node.Leaf() {
			r.walk(node.Children, url, warnings)
		}
	}
}

// register parses one leaf line and stores its PageRecord. Returns the page
// URL for use as the children's parent context.
func (r *Registry) register(text, parentURL string, warnings *[]Warning) (string, bool) {
	leaf, ok := parseLeaf(text)
	if !ok {
		slog.Warn("outline line does not match leaf grammar, dropping", logfields.Target(text))
		*warnings = append(*warnings, Warning{Node: text, Reason: "malformed leaf"})
		return "", false
	}

	url := resolveURL(leaf.url, parentURL)
	file := path.Clean(leaf.file)

	if _, exists := r.Pages[url]; exists {
		slog.Warn("duplicate URL in outline, dropping later entry",
			logfields.URL(url), logfields.Target(text))
		*warnings = append(*warnings, Warning{Node: text, Reason: "duplicate url " + url})
		return "", false
	}
	if _, exists := r.links.fileToURL[file]; exists {
		slog.Warn("duplicate file in outline, dropping later entry",
			logfields.File(file), logfields.Target(text))
		*warnings = append(*warnings, Warning{Node: text, Reason: "duplicate file " + file})
		return "", false
	}

	page := &Page{
		File:        file,
		URL:         url,
		Name:        leaf.name,
		Breadcrumbs: breadcrumbs(url),
		Meta:        leaf.meta,
	}
	if segments := urlSegments(url); len(segments) > 0 {
		page.Section = segments[0]
	}

	r.Pages[url] = page
	r.order = append(r.order, url)
	r.links.fileToURL[file] = url
	r.links.urlToFile[url] = file
	return url, true
}

// assignTitles runs after the full tree walk, because title assembly needs
// ancestor PageRecords to already exist. A title is the page name followed by
// ancestor names nearest-first, suffixed with the root page's name (omitted
// for the root page itself). Section index pages whose name repeats the
// following segment drop the duplicate.
func (r *Registry) assignTitles() {
	root := r.Root()
	for _, url := range r.order {
		page := r.Pages[url]

		parts := []string{page.Name}
		for i := len(page.Breadcrumbs) - 1; i >= 0; i-- {
			if ancestor, ok := r.Pages[page.Breadcrumbs[i]]; ok {
				parts = append(parts, ancestor.Name)
			}
		}
		if root != nil && page != root {
			parts = append(parts, root.Name)
		}
		if len(page.Breadcrumbs) == 0 && page.Section != "" &&
			len(parts) >= 2 && parts[0] == parts[1] {
			parts = parts[1:]
		}

		page.Title = strings.Join(parts, titleSeparator)
	}
}
