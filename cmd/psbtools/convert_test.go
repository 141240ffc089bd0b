package main

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EchoTools/psbFileTools/pkg/resource"
)

type fixture struct {
	rel     string
	meta    *resource.Metadata
	data    []byte
	palette []byte
}

func writeFixture(t *testing.T, dir string, f fixture) {
	t.Helper()
	base := filepath.Join(dir, filepath.FromSlash(f.rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(base), 0755))
	require.NoError(t, resource.WriteMetadataFile(base+resource.MetadataExt, f.meta))
	if f.data != nil {
		require.NoError(t, os.WriteFile(base+resource.DataExt, f.data, 0644))
	}
	if f.palette != nil {
		require.NoError(t, os.WriteFile(base+resource.PaletteExt, f.palette, 0644))
	}
}

func fixtures() []fixture {
	rng := rand.New(rand.NewSource(7))
	rgba := make([]byte, 8*4*4)
	rng.Read(rgba)

	indices := make([]byte, 6*4)
	for i := range indices {
		indices[i] = byte(i % 3)
	}

	return []fixture{
		{
			rel:  "ui/bg",
			meta: &resource.Metadata{Part: "ui", Name: "bg", Width: 8, Height: 4, Type: "RGBA8", Spec: resource.SpecWin},
			data: rgba,
		},
		{
			rel:  "ui/icon",
			meta: &resource.Metadata{Part: "ui", Name: "icon", Index: 1, Width: 6, Height: 4, Type: "CI8", Spec: resource.SpecWin},
			data: indices,
			palette: []byte{
				0x00, 0x00, 0xFF, 0xFF,
				0xFF, 0x00, 0x00, 0xFF,
				0x00, 0x80, 0x00, 0x40,
			},
		},
		{
			rel:  "missing",
			meta: &resource.Metadata{Name: "missing", Width: 2, Height: 2, Type: "RGBA8"},
		},
	}
}

func TestExtractBuild(t *testing.T) {
	src, extracted, built := t.TempDir(), t.TempDir(), t.TempDir()
	for _, f := range fixtures() {
		writeFixture(t, src, f)
	}
	opts := options{imageExt: resource.ImageExt, workers: 2}

	st, err := extractAll(src, extracted, opts)
	require.NoError(t, err)
	assert.Equal(t, int64(2), st.converted.Load())
	assert.Equal(t, int64(1), st.skipped.Load())
	assert.Equal(t, int64(0), st.failed.Load())
	assert.FileExists(t, filepath.Join(extracted, "ui", "bg.png"))
	assert.FileExists(t, filepath.Join(extracted, "ui", "icon.png"))
	assert.NoFileExists(t, filepath.Join(extracted, "missing.png"))

	st, err = buildAll(extracted, built, opts)
	require.NoError(t, err)
	assert.Equal(t, int64(2), st.converted.Load())
	assert.Equal(t, int64(0), st.failed.Load())

	for _, f := range fixtures()[:2] {
		t.Run(f.rel, func(t *testing.T) {
			base := filepath.Join(built, filepath.FromSlash(f.rel))
			data, err := os.ReadFile(base + resource.DataExt)
			require.NoError(t, err)
			assert.Equal(t, f.data, data)

			if f.palette != nil {
				pal, err := os.ReadFile(base + resource.PaletteExt)
				require.NoError(t, err)
				assert.Equal(t, f.palette, pal)
			}

			meta, err := resource.ReadMetadataFile(base + resource.MetadataExt)
			require.NoError(t, err)
			assert.Equal(t, f.meta, meta)
		})
	}
}

func TestExtractRaster(t *testing.T) {
	src, out := t.TempDir(), t.TempDir()
	fs := fixtures()
	for _, f := range fs {
		writeFixture(t, src, f)
	}

	st, err := extractAll(src, out, options{imageExt: ".rgbz", workers: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), st.converted.Load())

	assert.FileExists(t, filepath.Join(out, "ui", "bg.rgbz"))
	// the palette would be lost in a raster
	assert.FileExists(t, filepath.Join(out, "ui", "icon.png"))

	built := t.TempDir()
	_, err = buildAll(out, built, options{workers: 1})
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(built, "ui", "bg"+resource.DataExt))
	require.NoError(t, err)
	assert.Equal(t, fs[0].data, data)
}

func TestBuildFailures(t *testing.T) {
	src, images, out := t.TempDir(), t.TempDir(), t.TempDir()
	f := fixtures()[0]
	writeFixture(t, src, f)

	_, err := extractAll(src, images, options{imageExt: ".png", workers: 1})
	require.NoError(t, err)

	f.meta.Width = 16
	require.NoError(t, resource.WriteMetadataFile(filepath.Join(images, "ui", "bg.json"), f.meta))

	st, err := buildAll(images, out, options{workers: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.failed.Load())
	assert.NoFileExists(t, filepath.Join(out, "ui", "bg"+resource.DataExt))
}

func TestIsDirEmpty(t *testing.T) {
	dir := t.TempDir()
	empty, err := isDirEmpty(dir)
	require.NoError(t, err)
	assert.True(t, empty)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "x"), nil, 0644))
	empty, err = isDirEmpty(dir)
	require.NoError(t, err)
	assert.False(t, empty)

	assert.True(t, sameDir(dir, dir+"/."))
	assert.False(t, sameDir(dir, filepath.Join(dir, "x")))
}
