package resolver

import (
	"regexp"
	"strings"
)

const maxHeadingLevel = 6

// numberPrefixPattern matches a numbered-list display prefix such as "2.1.3. "
// at the start of a heading. The trailing dot plus whitespace is required, so
// a bare version number ("2.4.3") never matches.
var numberPrefixPattern = regexp.MustCompile(`^\d+(?:\.\d+)*\.\s+`)

// explicitAnchorPattern matches a trailing "{#custom-id}" override.
var explicitAnchorPattern = regexp.MustCompile(`\{#([^}]+)\}\s*$`)

// HeadingStack holds the slug of the active heading at each level during one
// document's heading scan. Setting a level truncates everything deeper.
type HeadingStack struct {
	slugs [maxHeadingLevel + 1]string
}

// Set records the slug for a heading level and clears deeper levels.
func (s *HeadingStack) Set(level int, slug string) {
	s.slugs[level] = slug
	for i := level + 1; i <= maxHeadingLevel; i++ {
		s.slugs[i] = ""
	}
}

// Anchor joins the non-empty slugs from level 1 up to the given level. This
// hierarchical composition is what keeps same-named headings under different
// parents collision-free.
func (s *HeadingStack) Anchor(level int) string {
	parts := make([]string, 0, level)
	for i := 1; i <= level; i++ {
		if s.slugs[i] != "" {
			parts = append(parts, s.slugs[i])
		}
	}
	return strings.Join(parts, "-")
}

// HeadingScanner computes anchors for one document's headings in document
// order. It is transient: one scanner per document, not persisted.
type HeadingScanner struct {
	stack   HeadingStack
	top     string
	anchors map[string]struct{}
}

func NewHeadingScanner() *HeadingScanner {
	return &HeadingScanner{anchors: map[string]struct{}{}}
}

// Anchor computes the id for one heading and records it in the document's
// anchor table.
//
// A trailing {#custom-id} override is used verbatim without consulting the
// heading stack. Otherwise the display number prefix is stripped, the stack is
// updated at the heading's level, and the id is the hierarchical join of the
// active slugs.
func (s *HeadingScanner) Anchor(level int, text string) string {
	if level < 1 {
		level = 1
	}
	if level > maxHeadingLevel {
		level = maxHeadingLevel
	}
	text = strings.TrimSpace(text)

	if m := explicitAnchorPattern.FindStringSubmatch(text); m != nil {
		s.anchors[m[1]] = struct{}{}
		return m[1]
	}

	slug := Slugify(StripNumberPrefix(text))
	s.stack.Set(level, slug)
	if level == 1 {
		s.top = slug
	}

	id := s.stack.Anchor(level)
	s.anchors[id] = struct{}{}
	return id
}

// Top returns the slug of the most recent level-1 heading, used to recombine
// GitHub-style bare fragment links with the document's own hierarchy.
func (s *HeadingScanner) Top() string { return s.top }

// Anchors returns the ids computed so far.
func (s *HeadingScanner) Anchors() map[string]struct{} { return s.anchors }

// Has reports whether the given anchor id was computed for this document.
func (s *HeadingScanner) Has(id string) bool {
	_, ok := s.anchors[id]
	return ok
}

// StripNumberPrefix removes a leading numbered-list display prefix
// ("2.1.3. Title" becomes "Title"). Headings that are nothing but a version
// number ("2.4.3") are preserved verbatim.
func StripNumberPrefix(text string) string {
	loc := numberPrefixPattern.FindStringIndex(text)
	if loc == nil {
		return text
	}
	rest := strings.TrimSpace(text[loc[1]:])
	if rest == "" {
		return text
	}
	return rest
}

// DisplayText returns the heading text as it should be rendered: the explicit
// anchor override removed, the number prefix retained (it is display-only
// markup for anchors, not for readers).
func DisplayText(text string) string {
	return strings.TrimSpace(explicitAnchorPattern.ReplaceAllString(text, ""))
}
