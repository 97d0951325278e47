package registry

import (
	"log/slog"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitegraph/internal/logfields"
)

// leafPattern matches the inner leaf grammar "Title [url, file, {meta}?]".
// The meta object is an optional inline flow mapping.
var leafPattern = regexp.MustCompile(`^(.+?)\s*\[\s*([^,\[\]{}\s]+)\s*,\s*([^,\[\]{}\s]+)\s*(?:,\s*(\{.*\})\s*)?\]$`)

// parsedLeaf is the decoded form of one outline leaf line.
type parsedLeaf struct {
	name string
	url  string
	file string
	meta map[string]any
}

// parseLeaf decodes "Title [url, file, {meta}?]". The boolean result is false
// when the line does not match the leaf grammar at all; a malformed meta
// object is logged and replaced with an empty map, never fatal.
func parseLeaf(text string) (parsedLeaf, bool) {
	m := leafPattern.FindStringSubmatch(text)
	if m == nil {
		return parsedLeaf{}, false
	}

	leaf := parsedLeaf{
		name: strings.TrimSpace(m[1]),
		url:  m[2],
		file: m[3],
		meta: map[string]any{},
	}

	if m[4] != "" {
		if meta, err := parseInlineMeta(m[4]); err != nil {
			slog.Warn("unparsable inline metadata, continuing with empty meta",
				logfields.Target(text), logfields.Error(err))
		} else {
			leaf.meta = meta
		}
	}

	return leaf, true
}

// parseInlineMeta parses the YAML flow-mapping dialect used for inline layout
// overrides ({layout: 'wide', sidebar: false}).
func parseInlineMeta(src string) (map[string]any, error) {
	meta := map[string]any{}
	if err := yaml.Unmarshal([]byte(src), &meta); err != nil {
		return nil, err
	}
	return meta, nil
}

// resolveURL turns a leaf URL into a canonical absolute path: already-absolute
// URLs pass through, everything else is appended to the parent URL.
func resolveURL(raw, parentURL string) string {
	if strings.HasPrefix(raw, "/") {
		return raw
	}
	return strings.TrimRight(parentURL, "/") + "/" + raw
}

// urlSegments splits a canonical URL into its path segments.
func urlSegments(url string) []string {
	trimmed := strings.Trim(url, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// breadcrumbs returns the URL prefixes of every non-final path segment,
// ordered root-to-parent. "/a/b/c" yields ["/a", "/a/b"].
func breadcrumbs(url string) []string {
	segments := urlSegments(url)
	if len(segments) < 2 {
		return nil
	}
	crumbs := make([]string, 0, len(segments)-1)
	prefix := ""
	for _, seg := range segments[:len(segments)-1] {
		prefix += "/" + seg
		crumbs = append(crumbs, prefix)
	}
	return crumbs
}
