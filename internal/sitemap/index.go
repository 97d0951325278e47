package sitemap

import (
	"database/sql"
	"sort"

	_ "modernc.org/sqlite"

	sgerrors "git.home.luguber.info/inful/sitegraph/internal/errors"
	"git.home.luguber.info/inful/sitegraph/internal/processor"
	"git.home.luguber.info/inful/sitegraph/internal/registry"
)

const indexSchema = `
CREATE TABLE IF NOT EXISTS pages (
	url     TEXT PRIMARY KEY,
	file    TEXT NOT NULL UNIQUE,
	name    TEXT NOT NULL,
	title   TEXT NOT NULL,
	section TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS anchors (
	url    TEXT NOT NULL REFERENCES pages(url),
	anchor TEXT NOT NULL,
	PRIMARY KEY (url, anchor)
);
`

// ExportIndex persists the page registry and per-page anchor tables to a
// SQLite database, so external link validators can query the resolved graph
// without re-running the build.
func ExportIndex(path string, reg *registry.Registry, pages map[string]*processor.Rendered) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return sgerrors.ExportFailed("link_index", err)
	}
	defer db.Close()

	if err := exportIndex(db, reg, pages); err != nil {
		return sgerrors.ExportFailed("link_index", err)
	}
	return nil
}

func exportIndex(db *sql.DB, reg *registry.Registry, pages map[string]*processor.Rendered) error {
	if _, err := db.Exec(indexSchema); err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insertPage, err := tx.Prepare(`INSERT OR REPLACE INTO pages (url, file, name, title, section) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer insertPage.Close()

	insertAnchor, err := tx.Prepare(`INSERT OR REPLACE INTO anchors (url, anchor) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer insertAnchor.Close()

	for _, url := range reg.URLs() {
		page := reg.Pages[url]
		if _, err := insertPage.Exec(page.URL, page.File, page.Name, page.Title, page.Section); err != nil {
			return err
		}

		rendered, ok := pages[url]
		if !ok {
			continue
		}
		anchors := make([]string, 0, len(rendered.Anchors))
		for anchor := range rendered.Anchors {
			anchors = append(anchors, anchor)
		}
		sort.Strings(anchors)
		for _, anchor := range anchors {
			if _, err := insertAnchor.Exec(url, anchor); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}
