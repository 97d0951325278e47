package linkverify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitegraph/internal/processor"
)

func TestVerify_CleanGraph(t *testing.T) {
	pages := map[string]*processor.Rendered{
		"/": {
			HTML:    `<p><a href="/guide#guide-setup">setup</a></p>`,
			Anchors: map[string]struct{}{},
		},
		"/guide": {
			HTML:    `<h1 id="guide">Guide</h1><h2 id="guide-setup">Setup</h2>`,
			Anchors: map[string]struct{}{"guide": {}, "guide-setup": {}},
		},
	}
	assert.Empty(t, Verify(pages))
}

func TestVerify_MissingTargetPage(t *testing.T) {
	pages := map[string]*processor.Rendered{
		"/": {HTML: `<a href="/nowhere">gone</a>`, Anchors: map[string]struct{}{}},
	}
	issues := Verify(pages)
	require.Len(t, issues, 1)
	assert.Equal(t, "/", issues[0].SourceURL)
	assert.Equal(t, "/nowhere", issues[0].Href)
	assert.Equal(t, "target page not in build", issues[0].Reason)
}

func TestVerify_UnknownFragment(t *testing.T) {
	pages := map[string]*processor.Rendered{
		"/":      {HTML: `<a href="/guide#typo">x</a>`, Anchors: map[string]struct{}{}},
		"/guide": {HTML: `<h1 id="guide">Guide</h1>`, Anchors: map[string]struct{}{"guide": {}}},
	}
	issues := Verify(pages)
	require.Len(t, issues, 1)
	assert.Equal(t, "fragment matches no anchor in target", issues[0].Reason)
}

func TestVerify_SamePageFragment(t *testing.T) {
	pages := map[string]*processor.Rendered{
		"/guide": {
			HTML:    `<h1 id="guide">Guide</h1><a href="#guide">top</a><a href="#missing">bad</a>`,
			Anchors: map[string]struct{}{"guide": {}},
		},
	}
	issues := Verify(pages)
	require.Len(t, issues, 1)
	assert.Equal(t, "#missing", issues[0].Href)
}

func TestVerify_RawHTMLIDsCount(t *testing.T) {
	pages := map[string]*processor.Rendered{
		"/":      {HTML: `<a href="/guide#hand-written">x</a>`, Anchors: map[string]struct{}{}},
		"/guide": {HTML: `<div id="hand-written"></div>`, Anchors: map[string]struct{}{}},
	}
	assert.Empty(t, Verify(pages))
}

func TestVerify_ExternalLinksSkipped(t *testing.T) {
	pages := map[string]*processor.Rendered{
		"/": {
			HTML:    `<a href="https://example.com/missing">ext</a><a href="mailto:a@b.example">mail</a>`,
			Anchors: map[string]struct{}{},
		},
	}
	assert.Empty(t, Verify(pages))
}
