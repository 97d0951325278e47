package build

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitegraph/internal/config"
	sgerrors "git.home.luguber.info/inful/sitegraph/internal/errors"
)

// writeSite lays out an outline plus content files in a temp dir and returns
// a ready configuration.
func writeSite(t *testing.T, outlineSrc string, files map[string]string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	content := filepath.Join(dir, "content")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "outline.txt"), []byte(outlineSrc), 0o644))
	for name, body := range files {
		path := filepath.Join(content, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}

	cfg := &config.Config{
		Title:      "Club",
		ContentDir: content,
		Outline:    filepath.Join(dir, "outline.txt"),
		Output:     filepath.Join(dir, "site"),
	}
	cfg.ApplyDefaults()
	return cfg
}

const crossLinkedOutline = `nav:
- Club [/, index.md]
- Dreamer [dreamer, dreamer/index.md]
  - Tyres [tyres, dreamer/tyres.md]
- Free [free, free/index.md]
  - Tyres [tyres, free/tyres.md]
`

func crossLinkedFiles() map[string]string {
	return map[string]string{
		"index.md":         "# Club\n\nWelcome.\n",
		"dreamer/index.md": "# Dreamer\n\nSee [tyres](tyres.md).\n",
		"dreamer/tyres.md": "# Tyres\n\n## Датчики\n\nCompare [free tyres](../free/tyres.md#датчики).\n",
		"free/index.md":    "# Free\n",
		"free/tyres.md":    "# Tyres\n\n## Датчики\n\nText.\n",
	}
}

func TestRun_ResolvesWholeGraph(t *testing.T) {
	cfg := writeSite(t, crossLinkedOutline, crossLinkedFiles())
	result, err := New(cfg, nil).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Pages, 5)
	assert.Contains(t, result.Pages["/dreamer/tyres"].HTML, `href="/free/tyres#датчики"`)
	assert.Contains(t, result.Pages["/dreamer"].HTML, `href="/dreamer/tyres"`)
	assert.Contains(t, result.Pages["/free/tyres"].Anchors, "tyres-датчики")
}

func TestRun_Idempotent(t *testing.T) {
	cfg := writeSite(t, crossLinkedOutline, crossLinkedFiles())

	first, err := New(cfg, nil).Run(context.Background())
	require.NoError(t, err)
	second, err := New(cfg, nil).Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, len(first.Pages), len(second.Pages))
	for url, rendered := range first.Pages {
		require.Contains(t, second.Pages, url)
		assert.Equal(t, rendered.HTML, second.Pages[url].HTML)
		assert.Equal(t, rendered.Anchors, second.Pages[url].Anchors)
	}
	assert.Equal(t, first.Registry.URLs(), second.Registry.URLs())
}

func TestRun_ParallelMatchesSequential(t *testing.T) {
	cfg := writeSite(t, crossLinkedOutline, crossLinkedFiles())
	sequential, err := New(cfg, nil).Run(context.Background())
	require.NoError(t, err)

	cfg.Build.RenderConcurrency = 4
	parallel, err := New(cfg, nil).Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, len(sequential.Pages), len(parallel.Pages))
	for url, rendered := range sequential.Pages {
		assert.Equal(t, rendered.HTML, parallel.Pages[url].HTML)
	}
}

func TestRun_CycleAbortsBuild(t *testing.T) {
	outlineSrc := "- A [a, a.md]\n- B [b, b.md]\n"
	files := map[string]string{
		"a.md": "[to b](b.md)\n",
		"b.md": "[back to a](a.md)\n",
	}
	cfg := writeSite(t, outlineSrc, files)

	_, err := New(cfg, nil).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/a -> /b -> /a")
}

func TestRun_CycleAbortsParallelBuild(t *testing.T) {
	outlineSrc := "- A [a, a.md]\n- B [b, b.md]\n- C [c, c.md]\n"
	files := map[string]string{
		"a.md": "[to b](b.md)\n",
		"b.md": "[back to a](a.md)\n",
		"c.md": "# C\n",
	}
	cfg := writeSite(t, outlineSrc, files)
	cfg.Build.RenderConcurrency = 4

	// The worker pool may start both cycle members at once; the build must
	// still report the cycle instead of parking the workers on each other.
	_, err := New(cfg, nil).Run(context.Background())
	require.Error(t, err)
	assert.True(t, sgerrors.IsCategory(sgErrUnwrap(err), sgerrors.CategoryCycle))
}

func TestRun_BrokenLinkAbortsBuild(t *testing.T) {
	outlineSrc := "- A [a, a.md]\n"
	files := map[string]string{"a.md": "[gone](missing.md)\n"}
	cfg := writeSite(t, outlineSrc, files)

	_, err := New(cfg, nil).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build failed")
}

func TestRun_StrictOutlineEscalatesWarnings(t *testing.T) {
	outlineSrc := "- A [a, a.md]\ngarbage line\n"
	files := map[string]string{"a.md": "# A\n"}

	cfg := writeSite(t, outlineSrc, files)
	_, err := New(cfg, nil).Run(context.Background())
	require.NoError(t, err, "warnings are advisory by default")

	cfg.StrictOutline = true
	_, err = New(cfg, nil).Run(context.Background())
	require.Error(t, err)
	assert.True(t, sgerrors.IsCategory(sgErrUnwrap(err), sgerrors.CategoryOutline))
}

func TestRun_StrictFragmentsRejectsTypo(t *testing.T) {
	outlineSrc := "- A [a, a.md]\n- B [b, b.md]\n"
	files := map[string]string{
		"a.md": "# A\n\n[link](b.md#настройки)\n",
		"b.md": "# B\n\n## Настройки\n",
	}

	cfg := writeSite(t, outlineSrc, files)
	cfg.StrictFragments = true
	_, err := New(cfg, nil).Run(context.Background())
	// "настройки" alone is not the hierarchical anchor ("b-настройки" is).
	require.Error(t, err)

	files["a.md"] = "# A\n\n[link](b.md#b-настройки)\n"
	cfg = writeSite(t, outlineSrc, files)
	cfg.StrictFragments = true
	_, err = New(cfg, nil).Run(context.Background())
	require.NoError(t, err)
}

func TestRun_MissingOutlineFile(t *testing.T) {
	cfg := writeSite(t, "- A [a, a.md]\n", map[string]string{"a.md": "# A\n"})
	cfg.Outline = filepath.Join(t.TempDir(), "absent.txt")

	_, err := New(cfg, nil).Run(context.Background())
	require.Error(t, err)
}

// sgErrUnwrap digs the innermost SiteGraphError out of a stage wrapper.
func sgErrUnwrap(err error) error {
	for {
		sge, ok := err.(*sgerrors.SiteGraphError)
		if !ok || sge.Cause == nil {
			return err
		}
		if _, ok := sge.Cause.(*sgerrors.SiteGraphError); !ok {
			return err
		}
		err = sge.Cause
	}
}
