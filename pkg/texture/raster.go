package texture

import (
	"image"
	"image/color"
	"image/draw"
)

// Raster is the canonical decoded form: Width*Height RGBA8 pixels,
// row-major, top to bottom, straight (non-premultiplied) alpha.
type Raster struct {
	Width  int
	Height int
	Pix    []byte
}

// NewRaster allocates a zeroed raster.
func NewRaster(w, h int) *Raster {
	return &Raster{Width: w, Height: h, Pix: make([]byte, w*h*4)}
}

// NRGBA wraps the pixels as an image without copying.
func (r *Raster) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    r.Pix,
		Stride: r.Width * 4,
		Rect:   image.Rect(0, 0, r.Width, r.Height),
	}
}

// FromImage copies any image into a new raster.
func FromImage(img image.Image) *Raster {
	b := img.Bounds()
	if n, ok := img.(*image.NRGBA); ok && n.Stride == b.Dx()*4 && b.Min == (image.Point{}) {
		r := NewRaster(b.Dx(), b.Dy())
		copy(r.Pix, n.Pix)
		return r
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return &Raster{Width: b.Dx(), Height: b.Dy(), Pix: dst.Pix}
}

// IndexedRaster holds one palette index per pixel. Depth is the stored
// index width (4 or 8); Indices is always unpacked to one byte each.
type IndexedRaster struct {
	Width   int
	Height  int
	Depth   int
	Indices []byte
	Palette color.Palette
}

// Expand resolves every index through the palette. Indices past the end
// of the palette become transparent black.
func (r *IndexedRaster) Expand() *Raster {
	out := NewRaster(r.Width, r.Height)
	for i, idx := range r.Indices[:r.Width*r.Height] {
		if int(idx) >= len(r.Palette) {
			continue
		}
		c := color.NRGBAModel.Convert(r.Palette[idx]).(color.NRGBA)
		copy(out.Pix[i*4:], []byte{c.R, c.G, c.B, c.A})
	}
	return out
}

// Paletted wraps the indices as an image without copying.
func (r *IndexedRaster) Paletted() *image.Paletted {
	return &image.Paletted{
		Pix:     r.Indices,
		Stride:  r.Width,
		Rect:    image.Rect(0, 0, r.Width, r.Height),
		Palette: r.Palette,
	}
}

// IndexedFromImage captures a paletted image. depth is 4 or 8.
func IndexedFromImage(img *image.Paletted, depth int) *IndexedRaster {
	b := img.Bounds()
	r := &IndexedRaster{
		Width:   b.Dx(),
		Height:  b.Dy(),
		Depth:   depth,
		Indices: make([]byte, b.Dx()*b.Dy()),
		Palette: append(color.Palette(nil), img.Palette...),
	}
	for y := 0; y < b.Dy(); y++ {
		off := img.PixOffset(b.Min.X, b.Min.Y+y)
		copy(r.Indices[y*r.Width:(y+1)*r.Width], img.Pix[off:off+r.Width])
	}
	return r
}
