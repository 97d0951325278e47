// Package render turns one document's markdown source into HTML, delegating
// every heading and link it encounters to the anchor and link resolver.
// Markdown syntax itself is goldmark's concern; only link and anchor
// semantics live here.
package render

import (
	"bytes"
	"context"
	"path"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"

	sgerrors "git.home.luguber.info/inful/sitegraph/internal/errors"
	"git.home.luguber.info/inful/sitegraph/internal/processor"
	"git.home.luguber.info/inful/sitegraph/internal/registry"
	"git.home.luguber.info/inful/sitegraph/internal/resolver"
)

// ImageResolver maps a content-root-relative image path to its final asset
// URL. Asset hashing and copying are external concerns; the engine only
// consults the mapping.
type ImageResolver func(rel string) (string, error)

// Renderer is the goldmark-backed implementation of processor.Renderer.
type Renderer struct {
	links  *registry.LinkTable
	images ImageResolver
	strict bool
	md     goldmark.Markdown
}

// New builds a renderer over the given link table. images may be nil, in
// which case relative image targets pass through unchanged; strict enables
// cross-document fragment validation.
func New(links *registry.LinkTable, images ImageResolver, strict bool) *Renderer {
	return &Renderer{
		links:  links,
		images: images,
		strict: strict,
		md: goldmark.New(
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

// Render implements processor.Renderer: parse to AST, scan headings for
// anchors, rewrite link and image destinations, then render HTML. Headings
// must be scanned before links so same-document fragments can resolve against
// the full anchor table regardless of where in the document they appear.
func (r *Renderer) Render(ctx context.Context, page *registry.Page, source []byte, req processor.Requester) (*processor.Rendered, error) {
	root := r.md.Parser().Parse(text.NewReader(source))

	scanner := resolver.NewHeadingScanner()
	if err := r.scanHeadings(root, source, scanner); err != nil {
		return nil, err
	}

	var load resolver.TargetLoader
	if req != nil {
		load = func(url string) (map[string]struct{}, error) {
			rendered, err := req(ctx, url)
			if err != nil {
				return nil, err
			}
			return rendered.Anchors, nil
		}
	}
	links := resolver.NewLinkResolver(r.links, page.File, scanner, load, r.strict)
	if err := r.rewriteTargets(root, page, links); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, source, root); err != nil {
		return nil, sgerrors.RenderFailed(page.URL, err)
	}
	return &processor.Rendered{
		HTML:    buf.String(),
		Anchors: scanner.Anchors(),
	}, nil
}

// scanHeadings assigns hierarchical anchor ids to every heading in document
// order. Headings carrying an explicit {#custom-id} override get their
// display text rewritten so the override marker never reaches the output.
func (r *Renderer) scanHeadings(root gmast.Node, source []byte, scanner *resolver.HeadingScanner) error {
	return gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		heading, ok := n.(*gmast.Heading)
		if !ok {
			return gmast.WalkContinue, nil
		}

		raw := nodeText(heading, source)
		id := scanner.Anchor(heading.Level, raw)
		heading.SetAttributeString("id", []byte(id))

		if display := resolver.DisplayText(raw); display != raw {
			heading.RemoveChildren(heading)
			heading.AppendChild(heading, gmast.NewString([]byte(display)))
		}
		return gmast.WalkContinue, nil
	})
}

// rewriteTargets resolves every link and image destination. Resolver errors
// abort the walk and propagate with their full context.
func (r *Renderer) rewriteTargets(root gmast.Node, page *registry.Page, links *resolver.LinkResolver) error {
	return gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.Link:
			resolved, err := links.Resolve(string(node.Destination))
			if err != nil {
				return gmast.WalkStop, err
			}
			node.Destination = []byte(resolved.Href)
		case *gmast.Image:
			href, err := r.resolveImage(string(node.Destination), page)
			if err != nil {
				return gmast.WalkStop, err
			}
			node.Destination = []byte(href)
		}
		return gmast.WalkContinue, nil
	})
}

// resolveImage maps a relative image target through the injected image
// resolver. External and site-absolute targets pass through unchanged.
func (r *Renderer) resolveImage(dest string, page *registry.Page) (string, error) {
	if dest == "" || strings.TrimSpace(dest) != dest {
		return "", sgerrors.MalformedLinkTarget(dest, page.File)
	}
	if strings.HasPrefix(dest, "http://") || strings.HasPrefix(dest, "https://") ||
		strings.HasPrefix(dest, "/") {
		return dest, nil
	}
	if r.images == nil {
		return dest, nil
	}
	rel := path.Join(path.Dir(page.File), dest)
	return r.images(rel)
}

// nodeText concatenates the literal text of a node's descendants.
func nodeText(n gmast.Node, source []byte) string {
	var b strings.Builder
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *gmast.Text:
			b.Write(t.Segment.Value(source))
		case *gmast.String:
			b.Write(t.Value)
		}
		return gmast.WalkContinue, nil
	})
	return b.String()
}
