package resource

import (
	"encoding/json"
	"image"
	"image/color"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EchoTools/psbFileTools/pkg/errkind"
	"github.com/EchoTools/psbFileTools/pkg/rle"
	"github.com/EchoTools/psbFileTools/pkg/texture"
)

var typeNames = []string{
	"RGBA8", "RGBA8_SW", "RGBA4444", "RGBA4444_SW", "A8L8", "A8L8_SW", "L8", "L8_SW", "A8", "A8_SW",
	"RGBA5650", "RGBA5650_SW", "RGBA5551", "RGB5A3", "DXT1", "DXT5", "BC7", "BC7_SW", "ASTC_8BPP",
	"CI4", "CI8", "CI4_SW", "CI8_SW",
}

func TestParsePixelFormat(t *testing.T) {
	tests := []struct {
		typ  string
		spec Spec
		want texture.PixelFormat
	}{
		{"RGBA8", SpecWin, texture.LeRGBA8},
		{"RGBA8", SpecKrkr, texture.LeRGBA8},
		{"RGBA8", SpecCommon, texture.BeRGBA8},
		{"rgba8", SpecVita, texture.BeRGBA8},
		{"RGBA8", SpecRevo, texture.TileBeRGBA8Rvl},
		{"RGBA8_SW", SpecVita, texture.BeRGBA8SW},
		{"RGBA8_SW", SpecNx, texture.LeRGBA8SW},
		{"RGBA8_SW", SpecPs3, texture.FlipBeRGBA8SW},
		{"RGBA8_SW", SpecPs4, texture.TileLeRGBA8SW},
		{"RGBA4444", SpecPsp, texture.BeRGBA4444},
		{"RGBA4444", SpecWin, texture.LeRGBA4444},
		{"RGBA4444_SW", SpecPs4, texture.TileLeRGBA4444SW},
		{"L8_SW", SpecPs4, texture.TileL8SW},
		{"L8_SW", SpecVita, texture.L8SW},
		{"CI4", SpecRevo, texture.TileCI4},
		{"CI8", SpecWin, texture.CI8},
		{"CI4_SW", SpecPsp, texture.CI4SWPSP},
		{"CI8_SW", SpecVita, texture.CI8SW},
		{"BC7_SW", SpecNx, texture.BC7SW},
		{"ASTC_8BPP", SpecNx, texture.ASTC8BPP},
		{"FlipLeRGBA8_SW", SpecOther, texture.FlipLeRGBA8SW},
		{"TLG6", SpecWin, texture.None},
		{"", SpecWin, texture.None},
	}

	for _, tt := range tests {
		t.Run(tt.typ+"/"+tt.spec.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePixelFormat(tt.typ, tt.spec))
		})
	}
}

func TestTypeNameInverse(t *testing.T) {
	for _, typ := range typeNames {
		for s := SpecNone; s <= SpecOther; s++ {
			f := ParsePixelFormat(typ, s)
			require.True(t, f.Valid(), "%s under %v", typ, s)
			assert.Equal(t, typ, TypeName(f), "%s under %v resolved to %v", typ, s, f)
		}
	}

	for _, f := range texture.Formats() {
		assert.NotEmpty(t, TypeName(f), f.String())
	}
}

func TestSpec(t *testing.T) {
	s, ok := ParseSpec("PS4")
	require.True(t, ok)
	assert.Equal(t, SpecPs4, s)

	_, ok = ParseSpec("dreamcast")
	assert.False(t, ok)

	for _, s := range []Spec{SpecCommon, SpecEms, SpecVita, SpecPsp} {
		assert.True(t, s.IsBigEndian(), s.String())
	}
	for _, s := range []Spec{SpecNone, SpecKrkr, SpecWin, SpecNx, SpecPs3, SpecPs4, SpecRevo, SpecCitrus, SpecOther} {
		assert.False(t, s.IsBigEndian(), s.String())
	}
}

func TestCompressionFromName(t *testing.T) {
	tests := []struct {
		name string
		want CompressionKind
	}{
		{"bg.tlg", CompressTlg},
		{"chara/face.BMP", CompressBmp},
		{"tex.rl", CompressRL},
		{"tex.png", CompressNone},
		{"noext", CompressNone},
		{"dir.rl/noext", CompressNone},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CompressionFromName(tt.name), tt.name)
	}
}

func TestMetadataNames(t *testing.T) {
	m := &Metadata{Part: "body", Name: "arm", Width: 64, Height: 32, Compress: CompressRL}
	assert.Equal(t, "body-arm", m.FriendlyName())
	assert.Equal(t, "body/arm(64*32)[RL]", m.String())

	m = &Metadata{Name: "images/title.tlg", Compress: CompressByName, Width: 1, Height: 1}
	assert.Equal(t, "title", m.FriendlyName())
	assert.Equal(t, CompressTlg, m.Compression())

	m = &Metadata{Index: 12}
	assert.Equal(t, "12", m.FriendlyName())
}

func TestMetadataJSON(t *testing.T) {
	m := &Metadata{Part: "p", Name: "n", Index: 3, Compress: CompressRL, Width: 4, Height: 2,
		Type: "RGBA8_SW", Spec: SpecPs4, PaletteType: "RGBA8"}

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"compress":"RL"`)
	assert.Contains(t, string(data), `"spec":"ps4"`)

	var back Metadata
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, *m, back)

	err = json.Unmarshal([]byte(`{"spec":"gamecube"}`), &back)
	assert.Error(t, err)
}

func TestImageRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	img := image.NewNRGBA(image.Rect(0, 0, 9, 7))
	rng.Read(img.Pix)

	tests := []struct {
		name string
		meta Metadata
	}{
		{"Plain", Metadata{Type: "RGBA8", Spec: SpecWin}},
		{"RL", Metadata{Type: "RGBA8", Spec: SpecCommon, Compress: CompressRL}},
		{"RLByName", Metadata{Name: "x.rl", Type: "RGBA8_SW", Spec: SpecPs4, Compress: CompressByName}},
		{"RLAlign1", Metadata{Type: "RGBA8_SW", Spec: SpecVita, Compress: CompressRL, Align: 1}},
		{"Bmp", Metadata{Type: "RGBA8", Compress: CompressBmp}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tt.meta
			m.Width, m.Height = 9, 7

			data, err := m.SetImage(img)
			require.NoError(t, err)

			out, err := m.ToImage(data, nil)
			require.NoError(t, err)
			got := texture.FromImage(out)
			if m.Compression() == CompressBmp {
				// bmp storage may drop alpha; only the geometry is checked
				assert.Equal(t, 9, got.Width)
				assert.Equal(t, 7, got.Height)
				return
			}
			assert.Equal(t, img.Pix, got.Pix)
		})
	}
}

func TestRLData(t *testing.T) {
	m := &Metadata{Type: "L8", Width: 16, Height: 16, Compress: CompressRL, Align: 1}
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 50, 50, 50, 255
	}

	data, err := m.SetImage(img)
	require.NoError(t, err)
	assert.Less(t, len(data), 256)

	raw, err := rle.Decompress(data, 1, 256)
	require.NoError(t, err)
	for _, v := range raw {
		require.Equal(t, byte(50), v)
	}
}

func TestIndexedImage(t *testing.T) {
	pal := color.Palette{
		color.NRGBA{R: 255, A: 255},
		color.NRGBA{B: 255, A: 255},
		color.NRGBA{G: 128, A: 64},
	}
	img := image.NewPaletted(image.Rect(0, 0, 5, 3), pal)
	for i := range img.Pix {
		img.Pix[i] = uint8(i % 3)
	}

	for _, spec := range []Spec{SpecWin, SpecPsp, SpecRevo} {
		t.Run(spec.String(), func(t *testing.T) {
			m := &Metadata{Type: "CI4_SW", Spec: spec, Width: 5, Height: 3, PaletteType: "RGBA8"}
			if spec == SpecRevo {
				m.Type = "CI8"
			}

			data, err := m.SetImage(img)
			require.NoError(t, err)
			palData, err := m.EncodePalette(pal)
			require.NoError(t, err)

			out, err := m.ToImage(data, palData)
			require.NoError(t, err)
			p, ok := out.(*image.Paletted)
			require.True(t, ok)
			assert.Equal(t, img.Pix, p.Pix)
			assert.Equal(t, pal, p.Palette)
		})
	}

	m := &Metadata{Type: "CI8", Width: 5, Height: 3}
	_, err := m.SetImage(image.NewNRGBA(image.Rect(0, 0, 5, 3)))
	assert.ErrorIs(t, err, errkind.ErrUnsupportedFormat)
}

func TestImageErrors(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))

	tests := []struct {
		name string
		meta Metadata
		want error
	}{
		{"Tlg", Metadata{Type: "RGBA8", Width: 4, Height: 4, Compress: CompressTlg}, errkind.ErrUnsupportedFormat},
		{"UnknownType", Metadata{Type: "RGBA16F", Width: 4, Height: 4}, errkind.ErrUnsupportedFormat},
		{"NoSize", Metadata{Type: "RGBA8"}, errkind.ErrInvalidParameter},
		{"DecodeOnly", Metadata{Type: "BC7", Width: 4, Height: 4}, errkind.ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.meta.SetImage(img)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	m := &Metadata{Type: "RGBA8", Width: 8, Height: 4}
	_, err := m.SetImage(img)
	assert.ErrorIs(t, err, errkind.ErrInvalidParameter)

	_, err = m.ToImage(make([]byte, 10), nil)
	assert.ErrorIs(t, err, errkind.ErrCorruptData)

	m.Compress = CompressRL
	_, err = m.ToImage([]byte{0x80}, nil)
	assert.ErrorIs(t, err, errkind.ErrCorruptData)
}

func TestScanResources(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "chara")
	require.NoError(t, os.MkdirAll(sub, 0755))

	a := &Metadata{Part: "body", Name: "arm", Width: 2, Height: 2, Type: "RGBA8"}
	b := &Metadata{Index: 7, Width: 1, Height: 1, Type: "L8", Spec: SpecVita}

	require.NoError(t, WriteMetadataFile(BaseFor(dir, a)+MetadataExt, a))
	require.NoError(t, os.WriteFile(BaseFor(dir, a)+DataExt, make([]byte, 16), 0644))
	require.NoError(t, WriteMetadataFile(BaseFor(sub, b)+MetadataExt, b))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	found, err := ScanResources(dir)
	require.NoError(t, err)
	require.Len(t, found, 2)

	assert.Equal(t, "body-arm", found[0].Rel)
	assert.Equal(t, int64(16), found[0].Size)
	assert.Equal(t, *a, *found[0].Meta)
	assert.Equal(t, filepath.Join(dir, "body-arm.png"), found[0].ImagePath())

	assert.Equal(t, "chara/7", found[1].Rel)
	assert.Equal(t, int64(0), found[1].Size)
	assert.Equal(t, SpecVita, found[1].Meta.Spec)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0644))
	_, err = ScanResources(dir)
	assert.Error(t, err)
}
