package imagefile

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EchoTools/psbFileTools/pkg/errkind"
	"github.com/EchoTools/psbFileTools/pkg/texture"
)

func checker(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x * 16), uint8(y * 16), 0x80, uint8(0x40 + (x+y)%2*0x80)})
		}
	}
	return img
}

func TestReadWriteExact(t *testing.T) {
	dir := t.TempDir()
	src := checker(7, 5)

	for _, name := range []string{"a.png", "a.rgbz"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, Write(path, src))

			got, err := Read(path)
			require.NoError(t, err)
			assert.Equal(t, src.Pix, texture.FromImage(got).Pix)
		})
	}
}

func TestPalettedPNG(t *testing.T) {
	pal := color.Palette{color.NRGBA{0, 0, 0, 0}, color.NRGBA{255, 0, 0, 255}, color.NRGBA{0, 0, 255, 128}}
	src := image.NewPaletted(image.Rect(0, 0, 4, 2), pal)
	for i := range src.Pix {
		src.Pix[i] = uint8(i % len(pal))
	}

	path := filepath.Join(t.TempDir(), "p.png")
	require.NoError(t, Write(path, src))

	got, err := Read(path)
	require.NoError(t, err)
	p, ok := got.(*image.Paletted)
	require.True(t, ok, "paletted PNG decoded as %T", got)
	assert.Equal(t, src.Pix, p.Pix)
	assert.Len(t, p.Palette, len(pal))
}

func TestWriteUnsupported(t *testing.T) {
	err := Write(filepath.Join(t.TempDir(), "a.tga"), checker(2, 2))
	assert.ErrorIs(t, err, errkind.ErrUnsupportedFormat)

	assert.True(t, Supported("x/Y.PNG"))
	assert.True(t, Supported("y.rgbz"))
	assert.False(t, Supported("z.tlg"))
}

func TestReadMissing(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
	_, err = Read(filepath.Join(t.TempDir(), "missing.rgbz"))
	assert.Error(t, err)
}
