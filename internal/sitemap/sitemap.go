// Package sitemap exports the resolved page graph for downstream link
// validators: a sitemap.xml and a queryable SQLite link index.
package sitemap

import (
	"encoding/xml"
	"io"
	"os"
	"strings"

	sgerrors "git.home.luguber.info/inful/sitegraph/internal/errors"
	"git.home.luguber.info/inful/sitegraph/internal/registry"
)

const xmlns = "http://www.sitemaps.org/schemas/sitemap/0.9"

type urlEntry struct {
	Loc string `xml:"loc"`
}

type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	Xmlns   string     `xml:"xmlns,attr"`
	URLs    []urlEntry `xml:"url"`
}

// WriteXML writes a sitemap for every registered page, in outline order.
// baseURL is the public origin the root-relative URLs are joined onto.
func WriteXML(w io.Writer, baseURL string, reg *registry.Registry) error {
	base := strings.TrimRight(baseURL, "/")

	set := urlSet{Xmlns: xmlns}
	for _, url := range reg.URLs() {
		set.URLs = append(set.URLs, urlEntry{Loc: base + url})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// Export writes sitemap.xml to the given path.
func Export(path, baseURL string, reg *registry.Registry) error {
	f, err := os.Create(path)
	if err != nil {
		return sgerrors.ExportFailed("sitemap", err)
	}
	defer f.Close()

	if err := WriteXML(f, baseURL, reg); err != nil {
		return sgerrors.ExportFailed("sitemap", err)
	}
	return nil
}
