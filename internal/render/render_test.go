package render

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sgerrors "git.home.luguber.info/inful/sitegraph/internal/errors"
	"git.home.luguber.info/inful/sitegraph/internal/outline"
	"git.home.luguber.info/inful/sitegraph/internal/processor"
	"git.home.luguber.info/inful/sitegraph/internal/registry"
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	nodes, warnings := outline.Parse(`nav:
- Club [/, index.md]
- Dreamer [dreamer, dreamer/index.md]
  - Tyres [tyres, dreamer/tyres.md]
- Free [free, free/index.md]
  - Tyres [tyres, free/tyres.md]
`)
	require.Empty(t, warnings)
	reg, regWarnings := registry.Build(nodes)
	require.Empty(t, regWarnings)
	return reg
}

func renderPage(t *testing.T, reg *registry.Registry, url, source string, req processor.Requester) (*processor.Rendered, error) {
	t.Helper()
	page := reg.Pages[url]
	require.NotNil(t, page)
	r := New(reg.Links(), nil, false)
	return r.Render(context.Background(), page, []byte(source), req)
}

func TestRender_HeadingAnchors(t *testing.T) {
	src := "# Yandex\n\n## Windows\n\n# One\n\n## Windows\n"
	rendered, err := renderPage(t, testRegistry(t), "/dreamer/tyres", src, nil)
	require.NoError(t, err)

	assert.Contains(t, rendered.HTML, `<h1 id="yandex">Yandex</h1>`)
	assert.Contains(t, rendered.HTML, `<h2 id="yandex-windows">Windows</h2>`)
	assert.Contains(t, rendered.HTML, `<h2 id="one-windows">Windows</h2>`)
	assert.Contains(t, rendered.Anchors, "yandex-windows")
	assert.Contains(t, rendered.Anchors, "one-windows")
}

func TestRender_ExplicitAnchorOverrideHiddenFromOutput(t *testing.T) {
	src := "# Setup\n\n## Advanced Options {#advanced}\n"
	rendered, err := renderPage(t, testRegistry(t), "/dreamer/tyres", src, nil)
	require.NoError(t, err)

	assert.Contains(t, rendered.HTML, `<h2 id="advanced">Advanced Options</h2>`)
	assert.NotContains(t, rendered.HTML, "{#advanced}")
	assert.Contains(t, rendered.Anchors, "advanced")
}

func TestRender_NumberedHeadingPrefixKeptInDisplay(t *testing.T) {
	src := "# 1. Настройки\n"
	rendered, err := renderPage(t, testRegistry(t), "/dreamer/tyres", src, nil)
	require.NoError(t, err)

	// The number prefix is display-only markup: visible text keeps it, the
	// anchor id does not.
	assert.Contains(t, rendered.HTML, `<h1 id="настройки">1. Настройки</h1>`)
}

func TestRender_RelativeLinkRewritten(t *testing.T) {
	req := func(ctx context.Context, url string) (*processor.Rendered, error) {
		return &processor.Rendered{Anchors: map[string]struct{}{}}, nil
	}
	src := "See [sensors](../free/tyres.md#датчики)."
	rendered, err := renderPage(t, testRegistry(t), "/dreamer/tyres", src, req)
	require.NoError(t, err)

	assert.Contains(t, rendered.HTML, `href="/free/tyres#датчики"`)
	assert.NotContains(t, rendered.HTML, "tyres.md")
}

func TestRender_OwnFragmentLinkRewritten(t *testing.T) {
	src := "# Yandex\n\n## Windows\n\nJump to [windows](#windows).\n"
	rendered, err := renderPage(t, testRegistry(t), "/dreamer/tyres", src, nil)
	require.NoError(t, err)

	assert.Contains(t, rendered.HTML, `href="#yandex-windows"`)
}

func TestRender_ForwardFragmentResolvesAgainstLaterHeading(t *testing.T) {
	// The link precedes the heading it points to; anchors are scanned first.
	src := "Jump to [details](#details).\n\n# Guide\n\n## Details\n"
	rendered, err := renderPage(t, testRegistry(t), "/dreamer/tyres", src, nil)
	require.NoError(t, err)

	assert.Contains(t, rendered.HTML, `href="#guide-details"`)
}

func TestRender_ExternalLinksUntouched(t *testing.T) {
	src := "[ext](https://example.com/x) and [mail](mailto:a@b.example)"
	rendered, err := renderPage(t, testRegistry(t), "/dreamer/tyres", src, nil)
	require.NoError(t, err)

	assert.Contains(t, rendered.HTML, `href="https://example.com/x"`)
	assert.Contains(t, rendered.HTML, `href="mailto:a@b.example"`)
}

func TestRender_BrokenRelativeLinkFailsLoudly(t *testing.T) {
	src := "[broken](../missing/doc.md)"
	_, err := renderPage(t, testRegistry(t), "/dreamer/tyres", src, nil)
	require.Error(t, err)
	assert.True(t, sgerrors.IsCategory(err, sgerrors.CategoryLink))
}

func TestRender_EmptyLinkTargetRejected(t *testing.T) {
	src := "[empty]()"
	_, err := renderPage(t, testRegistry(t), "/dreamer/tyres", src, nil)
	require.Error(t, err)
	assert.True(t, sgerrors.IsCategory(err, sgerrors.CategoryLink))
}

func TestRender_ImageThroughResolver(t *testing.T) {
	reg := testRegistry(t)
	images := func(rel string) (string, error) {
		return "/assets/hashed-" + rel, nil
	}
	r := New(reg.Links(), images, false)

	rendered, err := r.Render(context.Background(), reg.Pages["/dreamer/tyres"], []byte("![wheel](img/wheel.png)"), nil)
	require.NoError(t, err)
	assert.Contains(t, rendered.HTML, `src="/assets/hashed-dreamer/img/wheel.png"`)
}

func TestRender_AbsoluteAndExternalImagesUntouched(t *testing.T) {
	reg := testRegistry(t)
	images := func(rel string) (string, error) {
		t.Fatalf("image resolver must not be consulted for %q", rel)
		return "", nil
	}
	r := New(reg.Links(), images, false)

	rendered, err := r.Render(context.Background(), reg.Pages["/dreamer/tyres"],
		[]byte("![a](/static/a.png) ![b](https://cdn.example/b.png)"), nil)
	require.NoError(t, err)
	assert.Contains(t, rendered.HTML, `src="/static/a.png"`)
	assert.Contains(t, rendered.HTML, `src="https://cdn.example/b.png"`)
}

func TestRender_Idempotent(t *testing.T) {
	src := "# Guide\n\n## Details\n\nSee [t](tyres.md) and [d](#details).\n"
	reg := testRegistry(t)
	req := func(ctx context.Context, url string) (*processor.Rendered, error) {
		return &processor.Rendered{Anchors: map[string]struct{}{}}, nil
	}

	first, err := renderPage(t, reg, "/dreamer", src, req)
	require.NoError(t, err)
	second, err := renderPage(t, reg, "/dreamer", src, req)
	require.NoError(t, err)
	assert.Equal(t, first.HTML, second.HTML)
	assert.Equal(t, first.Anchors, second.Anchors)
}
