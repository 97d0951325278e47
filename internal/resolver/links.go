package resolver

import (
	"path"
	"strings"

	sgerrors "git.home.luguber.info/inful/sitegraph/internal/errors"
	"git.home.luguber.info/inful/sitegraph/internal/registry"
)

// ResolvedLink is the final href written into rendered HTML: either an
// absolute site URL with optional fragment, or an unmodified external URI.
type ResolvedLink struct {
	Href     string
	External bool
}

// TargetLoader makes sure a cross-referenced document has been processed and
// returns its computed anchor ids. Implemented by the document processor;
// calling it is what makes document processing recursive, so reference cycles
// surface here.
type TargetLoader func(url string) (map[string]struct{}, error)

// LinkResolver rewrites the link and image targets of one document. srcFile
// is the document's path relative to the content root; scanner holds the
// document's own anchor table (headings must be scanned before links are
// resolved).
type LinkResolver struct {
	links   *registry.LinkTable
	srcFile string
	scanner *HeadingScanner
	load    TargetLoader
	strict  bool
}

// NewLinkResolver builds a resolver for one document. load may be nil for
// standalone resolution (no cross-document processing); strict enables
// validation of cross-document fragments against the target's anchor table.
func NewLinkResolver(links *registry.LinkTable, srcFile string, scanner *HeadingScanner, load TargetLoader, strict bool) *LinkResolver {
	return &LinkResolver{
		links:   links,
		srcFile: srcFile,
		scanner: scanner,
		load:    load,
		strict:  strict,
	}
}

// Resolve rewrites one link target.
//
//   - External schemes (http, https, mailto) pass through unchanged.
//   - "/"-prefixed targets are already absolute site URLs and pass through,
//     fragment included.
//   - Pure "#fragment" targets resolve against the current document's own
//     anchor table.
//   - Relative document references resolve through the link table; an
//     unregistered target is a hard error, never a silent dead link.
func (r *LinkResolver) Resolve(target string) (ResolvedLink, error) {
	if target == "" || strings.TrimSpace(target) != target || strings.TrimSpace(target) == "" {
		return ResolvedLink{}, sgerrors.MalformedLinkTarget(target, r.srcFile)
	}

	if isExternal(target) {
		return ResolvedLink{Href: target, External: true}, nil
	}

	if strings.HasPrefix(target, "/") {
		return ResolvedLink{Href: target}, nil
	}

	if strings.HasPrefix(target, "#") {
		fragment := strings.TrimPrefix(target, "#")
		if fragment == "" {
			return ResolvedLink{}, sgerrors.MalformedLinkTarget(target, r.srcFile)
		}
		return ResolvedLink{Href: r.resolveOwnFragment(fragment)}, nil
	}

	return r.resolveRelative(target)
}

// resolveOwnFragment maps a same-document fragment to the document's
// hierarchical anchor. The fragment is treated as a heading-stack path already
// expressed with hyphens; a GitHub-style bare heading slug is recombined with
// the document's top-level heading prefix.
func (r *LinkResolver) resolveOwnFragment(fragment string) string {
	slug := Slugify(fragment)
	if r.scanner == nil {
		return "#" + slug
	}
	if r.scanner.Has(slug) {
		return "#" + slug
	}
	if top := r.scanner.Top(); top != "" {
		if withTop := top + "-" + slug; r.scanner.Has(withTop) {
			return "#" + withTop
		}
	}
	return "#" + slug
}

// resolveRelative rewrites a relative document reference, optionally carrying
// a fragment, into the registered absolute URL.
func (r *LinkResolver) resolveRelative(target string) (ResolvedLink, error) {
	filePart := target
	fragment := ""
	if i := strings.IndexByte(target, '#'); i >= 0 {
		filePart, fragment = target[:i], target[i+1:]
	}
	if filePart == "" {
		return ResolvedLink{}, sgerrors.MalformedLinkTarget(target, r.srcFile)
	}

	// Resolve against the source document's directory to a content-root
	// relative path; path.Join also collapses "../" segments.
	resolved := path.Join(path.Dir(r.srcFile), filePart)

	url, ok := r.links.URLForFile(resolved)
	if !ok {
		return ResolvedLink{}, sgerrors.UnknownRelativeLink(target, r.srcFile)
	}

	// Pull in the target document so its anchors exist (and cycles are
	// detected) before the link is considered resolved.
	if r.load != nil {
		anchors, err := r.load(url)
		if err != nil {
			return ResolvedLink{}, err
		}
		if r.strict && fragment != "" && !fragmentKnown(fragment, anchors) {
			return ResolvedLink{}, sgerrors.UnknownFragment(fragment, url, r.srcFile)
		}
	}

	href := url
	if fragment != "" {
		// The fragment is reattached unmodified; authors write pre-slugified
		// cross-document fragments.
		href += "#" + fragment
	}
	return ResolvedLink{Href: href}, nil
}

func fragmentKnown(fragment string, anchors map[string]struct{}) bool {
	if _, ok := anchors[fragment]; ok {
		return true
	}
	_, ok := anchors[Slugify(fragment)]
	return ok
}

func isExternal(target string) bool {
	return strings.HasPrefix(target, "http://") ||
		strings.HasPrefix(target, "https://") ||
		strings.HasPrefix(target, "mailto:")
}
