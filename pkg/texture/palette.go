package texture

import (
	"image/color"

	"github.com/pkg/errors"

	"github.com/EchoTools/psbFileTools/pkg/errkind"
)

// Options carries the companion buffers of an indexed resource.
//
// PaletteFormat None reads the palette as LeRGBA8 (32-bit ARGB words).
type Options struct {
	Palette       []byte
	PaletteFormat PixelFormat
}

func paletteInfo(f PixelFormat) (formatInfo, error) {
	if f == None {
		f = LeRGBA8
	}
	info := f.info()
	if !f.Valid() || info.block > 0 || info.channel == chIndex {
		return info, errors.Wrapf(errkind.ErrUnsupportedFormat, "palette format %v", f)
	}
	return info, nil
}

// DecodePalette normalizes up to max entries of a palette buffer to RGBA.
// Only the channel and byte-order steps of format apply.
func DecodePalette(pal []byte, format PixelFormat, max int) (color.Palette, error) {
	info, err := paletteInfo(format)
	if err != nil {
		return nil, err
	}
	bpe := info.bits / 8
	n := len(pal) / bpe
	if n > max {
		n = max
	}
	if n == 0 {
		return nil, errors.Wrapf(errkind.ErrCorruptData, "palette: %d bytes holds no %v entry", len(pal), format)
	}
	pix := expand(info.channel, pal[:n*bpe], n)
	if info.order != orderNone {
		pix = reorder(info.order, pix)
	}
	out := make(color.Palette, n)
	for i := range out {
		out[i] = color.NRGBA{R: pix[i*4], G: pix[i*4+1], B: pix[i*4+2], A: pix[i*4+3]}
	}
	return out, nil
}

// EncodePalette stores a palette in format, the inverse of DecodePalette.
func EncodePalette(pal color.Palette, format PixelFormat) ([]byte, error) {
	info, err := paletteInfo(format)
	if err != nil {
		return nil, err
	}
	pix := make([]byte, len(pal)*4)
	for i, c := range pal {
		n := color.NRGBAModel.Convert(c).(color.NRGBA)
		pix[i*4], pix[i*4+1], pix[i*4+2], pix[i*4+3] = n.R, n.G, n.B, n.A
	}
	if info.order != orderNone {
		pix = reorder(info.order.inverse(), pix)
	}
	return contract(info.channel, pix, len(pal), info.bits), nil
}

// DecodeIndexed resolves an indexed resource into unpacked indices plus
// its normalized palette. Tiled and swizzled index buffers are restored
// to row-major order first.
func DecodeIndexed(raw []byte, w, h int, f PixelFormat, opts Options) (*IndexedRaster, error) {
	if err := checkDecode(raw, w, h, f); err != nil {
		return nil, err
	}
	if !f.IsIndexed() {
		return nil, errors.Wrapf(errkind.ErrUnsupportedFormat, "%v is not indexed", f)
	}
	info := formats[f]
	depth := info.bits

	pal, err := DecodePalette(opts.Palette, opts.PaletteFormat, 1<<uint(depth))
	if err != nil {
		return nil, err
	}

	raw = raw[:RequiredSize(w, h, f)]
	var idx []byte
	switch info.layout {
	case layoutLinear:
		idx = unpackRows(raw, w, h, depth)
	case layoutSwizzlePSP:
		rowBytes := Stride(w, f)
		raw = permute(raw, orderFor(layoutSwizzlePSP, rowBytes, h, 8), 8, true)
		idx = unpackRows(raw, w, h, depth)
	default:
		idx = permute(unpackFlat(raw, w*h, depth), orderFor(info.layout, w, h, depth), 8, true)
	}

	for i, v := range idx {
		if int(v) >= len(pal) {
			return nil, errors.Wrapf(errkind.ErrCorruptData, "%v: pixel %d uses index %d, palette has %d entries",
				f, i, v, len(pal))
		}
	}
	return &IndexedRaster{Width: w, Height: h, Depth: depth, Indices: idx, Palette: pal}, nil
}

// EncodeIndexed packs indices into the native layout of f. The palette
// is not written; see EncodePalette.
func EncodeIndexed(r *IndexedRaster, f PixelFormat) ([]byte, error) {
	if r == nil {
		return nil, errors.Wrap(errkind.ErrInvalidParameter, "nil raster")
	}
	if err := errkind.CheckDimensions(r.Width, r.Height); err != nil {
		return nil, err
	}
	if !f.IsIndexed() {
		return nil, errors.Wrapf(errkind.ErrUnsupportedFormat, "%v is not indexed", f)
	}
	w, h := r.Width, r.Height
	if err := errkind.CheckLength("indices", len(r.Indices), w*h); err != nil {
		return nil, err
	}
	info := formats[f]
	depth := info.bits
	idx := r.Indices[:w*h]
	for i, v := range idx {
		if int(v) >= 1<<uint(depth) {
			return nil, errors.Wrapf(errkind.ErrInvalidParameter, "%v: pixel %d index %d exceeds %d bits", f, i, v, depth)
		}
	}

	var out []byte
	switch info.layout {
	case layoutLinear:
		out = packRows(idx, w, h, depth)
	case layoutSwizzlePSP:
		out = packRows(idx, w, h, depth)
		out = permute(out, orderFor(layoutSwizzlePSP, Stride(w, f), h, 8), 8, false)
	default:
		out = packFlat(permute(idx, orderFor(info.layout, w, h, depth), 8, false), depth)
	}
	if need := RequiredSize(w, h, f); len(out) < need {
		padded := make([]byte, need)
		copy(padded, out)
		out = padded
	}
	return out, nil
}

// unpackRows splits rows of byte-aligned packed indices.
func unpackRows(raw []byte, w, h, depth int) []byte {
	if depth == 8 {
		out := make([]byte, w*h)
		copy(out, raw[:w*h])
		return out
	}
	stride := (w*depth + 7) / 8
	out := make([]byte, w*h)
	for y := 0; y < h; y++ {
		row := raw[y*stride:]
		for x := 0; x < w; x++ {
			out[y*w+x] = nibble(row, x)
		}
	}
	return out
}

// unpackFlat splits a continuous stream of n packed indices.
func unpackFlat(raw []byte, n, depth int) []byte {
	out := make([]byte, n)
	if depth == 8 {
		copy(out, raw[:n])
		return out
	}
	for i := range out {
		out[i] = nibble(raw, i)
	}
	return out
}

func packRows(idx []byte, w, h, depth int) []byte {
	if depth == 8 {
		out := make([]byte, w*h)
		copy(out, idx)
		return out
	}
	stride := (w*depth + 7) / 8
	out := make([]byte, stride*h)
	for y := 0; y < h; y++ {
		row := out[y*stride : (y+1)*stride]
		for x := 0; x < w; x++ {
			setNibble(row, x, idx[y*w+x])
		}
	}
	return out
}

func packFlat(idx []byte, depth int) []byte {
	if depth == 8 {
		return idx
	}
	out := make([]byte, elementBytes(len(idx), 4))
	for i, v := range idx {
		setNibble(out, i, v)
	}
	return out
}
