package modmeta_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bnptool/internal/modmeta"
)

func TestAssembleDefaults(t *testing.T) {
	meta := modmeta.Assemble(modmeta.Input{})

	assert.Equal(t, "Unnamed", meta.Name)
	assert.Equal(t, "1.0.0", meta.Version)
	assert.Equal(t, "", meta.Description)
	assert.Equal(t, "", meta.ImageURL)
	assert.Equal(t, "", meta.SourceURL)
	assert.NotNil(t, meta.Dependencies)
	assert.Empty(t, meta.Dependencies)
	assert.NotNil(t, meta.Options)
	assert.Empty(t, meta.Options)
	assert.False(t, meta.ShowCompare)
	assert.False(t, meta.ShowConvert)
}

func TestAssembleDefaultsFieldsIndependently(t *testing.T) {
	meta := modmeta.Assemble(modmeta.Input{Version: "3.0.0"})
	assert.Equal(t, "Unnamed", meta.Name)
	assert.Equal(t, "3.0.0", meta.Version)

	meta = modmeta.Assemble(modmeta.Input{Name: "Linkle"})
	assert.Equal(t, "Linkle", meta.Name)
	assert.Equal(t, "1.0.0", meta.Version)
}

func TestAssembleKeepsFreeFormValues(t *testing.T) {
	in := modmeta.Input{
		Name:        "  Spaced  ",
		Version:     "not-semver",
		Description: "Adds things",
		ImageURL:    "https://example.com/i.png",
		SourceURL:   "https://example.com/mod",
	}
	meta := modmeta.Assemble(in)

	assert.Equal(t, in.Name, meta.Name)
	assert.Equal(t, in.Version, meta.Version)
	assert.Equal(t, in.Description, meta.Description)
	assert.Equal(t, in.ImageURL, meta.ImageURL)
	assert.Equal(t, in.SourceURL, meta.SourceURL)
}

func TestMetadataJSONUsesEngineKeys(t *testing.T) {
	raw, err := modmeta.Assemble(modmeta.Input{Description: "d"}).JSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"name": "Unnamed",
		"version": "1.0.0",
		"desc": "d",
		"image": "",
		"url": "",
		"depends": {},
		"options": {},
		"showCompare": false,
		"showConvert": false
	}`, raw)

	raw, err = modmeta.Metadata{}.JSON()
	require.NoError(t, err)
	assert.Contains(t, raw, `"depends":{}`)
	assert.Contains(t, raw, `"options":{}`)
}

func TestDefaultOutputPath(t *testing.T) {
	dir := t.TempDir()

	assert.Equal(t, filepath.Join(dir, "Unnamed.bnp"), modmeta.DefaultOutputPath(dir, modmeta.DefaultName))
	assert.Equal(t, filepath.Join(dir, "My Mod.bnp"), modmeta.DefaultOutputPath(dir, "My Mod"))
	assert.Equal(t, filepath.Join(dir, "a-b-c.bnp"), modmeta.DefaultOutputPath(dir, "a/b\\c"))
	assert.Equal(t, filepath.Join(dir, "Unnamed.bnp"), modmeta.DefaultOutputPath(dir, ".."))
}

func TestSanitizeFileNameNormalizesUnicode(t *testing.T) {
	decomposed := "Cafe\u0301"
	assert.Equal(t, "Caf\u00e9", modmeta.SanitizeFileName(decomposed))
	assert.Equal(t, "", modmeta.SanitizeFileName("  "))
	assert.Equal(t, "Whatnow", modmeta.SanitizeFileName("What<now>?"))
}

func TestLoadManifestAndOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mod.yaml")
	content := "name: Second Wind\nversion: \" 1.9.4 \"\ndescription: |\n  Multi\n  line\nimage: https://example.com/sw.png\nurl: https://example.com/sw\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	manifest, err := modmeta.LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "Second Wind", manifest.Name)
	assert.Equal(t, "1.9.4", manifest.Version)
	assert.Equal(t, "Multi\nline\n", manifest.Description)

	merged := modmeta.Overlay(manifest.Input(), modmeta.Input{Version: "2.0.0"})
	assert.Equal(t, "Second Wind", merged.Name)
	assert.Equal(t, "2.0.0", merged.Version)
	assert.Equal(t, "https://example.com/sw.png", merged.ImageURL)
	assert.Equal(t, "https://example.com/sw", merged.SourceURL)
}

func TestLoadManifestErrors(t *testing.T) {
	_, err := modmeta.LoadManifest(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: [unterminated"), 0o644))
	_, err = modmeta.LoadManifest(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse manifest")
}

func TestNilManifestInput(t *testing.T) {
	var m *modmeta.Manifest
	assert.Equal(t, modmeta.Input{}, m.Input())
}
