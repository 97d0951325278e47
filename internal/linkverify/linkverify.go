// Package linkverify checks the rendered page graph after a build: every
// intra-site href must point at a registered page, and every fragment must
// match an id present in the target page's rendered HTML or anchor table.
//
// The engine already fails hard on unresolvable relative links during
// rendering; this pass additionally covers hand-written absolute hrefs and
// cross-document fragments, which the resolver passes through verbatim.
package linkverify

import (
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/sitegraph/internal/processor"
)

// Issue is one broken reference found in the rendered output.
type Issue struct {
	SourceURL string
	Href      string
	Reason    string
}

// Verify walks every rendered page and reports intra-site hrefs that do not
// resolve. External links are not checked (no remote fetching).
func Verify(pages map[string]*processor.Rendered) []Issue {
	ids := collectIDs(pages)

	var issues []Issue
	for sourceURL, rendered := range pages {
		for _, href := range extractHrefs(rendered.HTML) {
			if issue := check(sourceURL, href, pages, ids); issue != nil {
				issues = append(issues, *issue)
			}
		}
	}
	return issues
}

func check(sourceURL, href string, pages map[string]*processor.Rendered, ids map[string]map[string]struct{}) *Issue {
	if href == "" {
		return &Issue{SourceURL: sourceURL, Href: href, Reason: "empty href"}
	}
	// Only root-relative site URLs and same-page fragments are in scope.
	if !strings.HasPrefix(href, "/") && !strings.HasPrefix(href, "#") {
		return nil
	}

	targetURL := sourceURL
	fragment := ""
	if strings.HasPrefix(href, "#") {
		fragment = strings.TrimPrefix(href, "#")
	} else {
		targetURL = href
		if i := strings.IndexByte(href, '#'); i >= 0 {
			targetURL, fragment = href[:i], href[i+1:]
		}
		targetURL = strings.TrimRight(targetURL, "/")
		if targetURL == "" {
			targetURL = "/"
		}
	}

	target, ok := pages[targetURL]
	if !ok {
		return &Issue{SourceURL: sourceURL, Href: href, Reason: "target page not in build"}
	}
	if fragment == "" {
		return nil
	}
	if _, ok := target.Anchors[fragment]; ok {
		return nil
	}
	if _, ok := ids[targetURL][fragment]; ok {
		return nil
	}
	return &Issue{SourceURL: sourceURL, Href: href, Reason: "fragment matches no anchor in target"}
}

// collectIDs parses every page's HTML and gathers its id attributes. Anchor
// tables cover engine-computed heading ids; parsing catches ids embedded via
// raw HTML too.
func collectIDs(pages map[string]*processor.Rendered) map[string]map[string]struct{} {
	out := make(map[string]map[string]struct{}, len(pages))
	for url, rendered := range pages {
		out[url] = extractIDs(rendered.HTML)
	}
	return out
}

func extractIDs(source string) map[string]struct{} {
	ids := map[string]struct{}{}
	walkHTML(source, func(n *html.Node) {
		for _, attr := range n.Attr {
			if attr.Key == "id" && attr.Val != "" {
				ids[attr.Val] = struct{}{}
			}
		}
	})
	return ids
}

func extractHrefs(source string) []string {
	var hrefs []string
	walkHTML(source, func(n *html.Node) {
		if n.Data != "a" {
			return
		}
		for _, attr := range n.Attr {
			if attr.Key == "href" {
				hrefs = append(hrefs, attr.Val)
			}
		}
	})
	return hrefs
}

func walkHTML(source string, visit func(*html.Node)) {
	root, err := html.Parse(strings.NewReader(source))
	if err != nil {
		// Rendered output is engine-produced; a parse failure means there is
		// nothing meaningful to verify.
		return
	}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			visit(n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
}
