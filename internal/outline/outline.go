// Package outline parses the indented bullet-list site outline into a
// navigation tree. It only builds tree structure; the inner leaf grammar
// ("Title [url, file]") is parsed by the registry builder.
package outline

import (
	"strings"
)

// Node is one entry of the navigation tree: either a leaf or a section
// owning an ordered list of children. A leaf has nil Children; a section
// always has a non-nil (possibly empty) child list.
type Node struct {
	Text     string
	Children []*Node
}

// Leaf reports whether the node is a plain page entry without children.
func (n *Node) Leaf() bool { return n.Children == nil }

// Warning describes an outline line that could not be interpreted and was
// skipped. The parser itself never fails; callers decide whether warnings
// are advisory (local authoring) or fatal (CI).
type Warning struct {
	Line int
	Text string
}

// Parse scans outline text top to bottom and returns the ordered list of
// top-level navigation nodes plus warnings for skipped lines.
//
// Grammar: one "-" bullet per line, two spaces of indentation per level,
// "#"-prefixed comment lines, and a single top-level "key:" wrapper line
// that is ignored. Blank and comment lines do not affect indentation
// bookkeeping.
func Parse(src string) ([]*Node, []Warning) {
	lines := strings.Split(src, "\n")

	root := &Node{Children: []*Node{}}
	type frame struct {
		level int
		node  *Node
	}
	stack := []frame{{level: -1, node: root}}

	var warnings []Warning
	for i, raw := range lines {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		indent := indentWidth(raw)
		if !strings.HasPrefix(trimmed, "-") {
			if indent == 0 && strings.HasSuffix(trimmed, ":") {
				// Top-level wrapper key, e.g. "nav:".
				continue
			}
			warnings = append(warnings, Warning{Line: i + 1, Text: trimmed})
			continue
		}

		level := indent / 2
		text := strings.TrimSpace(strings.TrimPrefix(trimmed, "-"))
		if text == "" {
			warnings = append(warnings, Warning{Line: i + 1, Text: trimmed})
			continue
		}

		for len(stack) > 1 && stack[len(stack)-1].level >= level {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1].node

		node := &Node{Text: text}
		if next, ok := nextBulletLevel(lines, i+1); ok && next > level {
			node.Children = []*Node{}
			stack = append(stack, frame{level: level, node: node})
		}
		parent.Children = append(parent.Children, node)
	}

	return root.Children, warnings
}

// indentWidth counts leading spaces. Tabs are not part of the grammar and
// terminate the count like any other non-space character.
func indentWidth(line string) int {
	n := 0
	for n < len(line) && line[n] == ' ' {
		n++
	}
	return n
}

// nextBulletLevel returns the level of the next non-blank, non-comment
// bullet line at or after index from. Used as lookahead to decide whether
// the current item becomes a section.
func nextBulletLevel(lines []string, from int) (int, bool) {
	for _, raw := range lines[from:] {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if !strings.HasPrefix(trimmed, "-") {
			continue
		}
		return indentWidth(raw) / 2, true
	}
	return 0, false
}
