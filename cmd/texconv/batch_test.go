package main

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EchoTools/psbFileTools/pkg/imagefile"
	"github.com/EchoTools/psbFileTools/pkg/texture"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestDetectBlockFormat(t *testing.T) {
	tests := []struct {
		name  string
		alpha uint8
		want  texture.PixelFormat
	}{
		{"Opaque", 255, texture.DXT1},
		{"Transparent", 0, texture.DXT1},
		{"Partial", 128, texture.DXT5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := texture.FromImage(solid(4, 4, color.NRGBA{R: 10, A: tt.alpha}))
			assert.Equal(t, tt.want, detectBlockFormat(r))
		})
	}
}

func TestBatch(t *testing.T) {
	in, dds, png := t.TempDir(), t.TempDir(), t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(in, "sub"), 0755))
	require.NoError(t, imagefile.Write(filepath.Join(in, "a.png"), solid(8, 8, color.NRGBA{R: 255, A: 255})))
	require.NoError(t, imagefile.Write(filepath.Join(in, "sub", "b.png"), solid(4, 4, color.NRGBA{B: 255, A: 128})))
	require.NoError(t, os.WriteFile(filepath.Join(in, "notes.txt"), []byte("x"), 0644))

	require.NoError(t, runBatch([]string{"encode", "-mipmaps", in, dds}))

	data, err := os.ReadFile(filepath.Join(dds, "sub", "b.dds"))
	require.NoError(t, err)
	parsed, err := texture.ParseDDS(data)
	require.NoError(t, err)
	assert.Equal(t, texture.DXT5, parsed.Format)
	assert.Equal(t, 3, parsed.MipCount)
	assert.NoFileExists(t, filepath.Join(dds, "notes.dds"))

	require.NoError(t, runBatch([]string{"decode", dds, png}))

	img, err := imagefile.Read(filepath.Join(png, "a.png"))
	require.NoError(t, err)
	r := texture.FromImage(img)
	assert.Equal(t, 8, r.Width)
	assert.Equal(t, []byte{255, 0, 0, 255}, r.Pix[:4])
}

func TestBatchArgs(t *testing.T) {
	assert.Error(t, runBatch([]string{"encode"}))
	assert.Error(t, runBatch([]string{"zip", t.TempDir(), t.TempDir()}))
}
