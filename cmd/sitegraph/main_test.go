package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeProject lays out a minimal config, outline, and content corpus.
func writeProject(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	content := filepath.Join(dir, "content")
	require.NoError(t, os.MkdirAll(content, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "outline.txt"),
		[]byte("nav:\n- Club [/, index.md]\n- Dreamer [dreamer, dreamer.md]\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(content, "index.md"), []byte("# Club\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(content, "dreamer.md"), []byte("# Dreamer\n"), 0o644))

	cfgYAML := "title: Club\n" +
		"base_url: https://club.example.com\n" +
		"content_dir: " + content + "\n" +
		"outline: " + filepath.Join(dir, "outline.txt") + "\n" +
		"output: " + filepath.Join(dir, "site") + "\n"
	cfgPath := filepath.Join(dir, "sitegraph.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgYAML), 0o644))
	return cfgPath, dir
}

func TestRunSitemap_ExportsWithoutWritingSite(t *testing.T) {
	cfgPath, dir := writeProject(t)

	CLI.Config = cfgPath
	CLI.Sitemap.Out = filepath.Join(dir, "exports", "sitemap.xml")
	CLI.Sitemap.Index = filepath.Join(dir, "exports", "links.db")
	t.Cleanup(func() {
		CLI.Config = "sitegraph.yaml"
		CLI.Sitemap.Out = ""
		CLI.Sitemap.Index = ""
	})

	require.NoError(t, runSitemap())

	data, err := os.ReadFile(CLI.Sitemap.Out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "https://club.example.com/dreamer")

	_, err = os.Stat(CLI.Sitemap.Index)
	assert.NoError(t, err)

	// Exports only; the static site tree stays untouched.
	_, err = os.Stat(filepath.Join(dir, "site", "index.html"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunSitemap_DefaultOutputPath(t *testing.T) {
	cfgPath, dir := writeProject(t)

	CLI.Config = cfgPath
	t.Cleanup(func() { CLI.Config = "sitegraph.yaml" })

	require.NoError(t, runSitemap())

	_, err := os.Stat(filepath.Join(dir, "site", "sitemap.xml"))
	assert.NoError(t, err)
}
