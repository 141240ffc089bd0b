package texture

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/EchoTools/psbFileTools/pkg/errkind"
)

// SwizzleKind selects the swizzle addressing scheme.
type SwizzleKind int

const (
	// SwizzlePSV interleaves coordinate bits in square cells along the long axis.
	SwizzlePSV SwizzleKind = iota
	// SwizzlePSP stores 16-byte by 8-row blocks, row-major.
	SwizzlePSP
)

// TileKind selects the tile geometry.
type TileKind int

const (
	// TileDefault stores 8x8 tiles with Morton order inside each tile.
	TileDefault TileKind = iota
	// TileRvl stores row-major tiles whose size depends on bit depth.
	TileRvl
)

// An order table maps stored element s to linear element order[s]. All
// tables are permutations of the image's w*h elements: cells or tiles
// that hang over the edge are packed tightly, skipping positions outside
// the image.

type orderKey struct {
	kind layout
	w, h int
	bits int
}

var orderCache sync.Map

func orderFor(kind layout, w, h, bits int) []int {
	key := orderKey{kind, w, h, bits}
	if v, ok := orderCache.Load(key); ok {
		return v.([]int)
	}
	var order []int
	switch kind {
	case layoutSwizzle, layoutFlipSwizzle:
		order = psvOrder(w, h)
	case layoutSwizzlePSP:
		order = blockRowOrder(w, h, 16, 8)
	case layoutTile, layoutTileBlocks:
		order = mortonTileOrder(w, h, 8)
	case layoutTileRvl:
		tw, th := rvlTileSize(bits)
		order = blockRowOrder(w, h, tw, th)
	default:
		order = make([]int, w*h)
		for i := range order {
			order[i] = i
		}
	}
	v, _ := orderCache.LoadOrStore(key, order)
	return v.([]int)
}

func nextPow2(v int) int {
	p := 1
	for p < v {
		p <<= 1
	}
	return p
}

func log2(v int) int {
	n := 0
	for v > 1 {
		v >>= 1
		n++
	}
	return n
}

// compact gathers the even bits of v into the low bits.
func compact(v int) int {
	v &= 0x55555555
	v = (v | v>>1) & 0x33333333
	v = (v | v>>2) & 0x0F0F0F0F
	v = (v | v>>4) & 0x00FF00FF
	v = (v | v>>8) & 0x0000FFFF
	return v
}

func psvOrder(w, h int) []int {
	pw, ph := nextPow2(w), nextPow2(h)
	m := pw
	if ph < m {
		m = ph
	}
	k := log2(m)
	order := make([]int, 0, w*h)
	for i := 0; i < pw*ph; i++ {
		cell := i >> (2 * uint(k))
		local := i & (m*m - 1)
		x, y := compact(local>>1), compact(local)
		if pw >= ph {
			x += cell * m
		} else {
			y += cell * m
		}
		if x < w && y < h {
			order = append(order, y*w+x)
		}
	}
	return order
}

func mortonTileOrder(w, h, tile int) []int {
	order := make([]int, 0, w*h)
	for ty := 0; ty < h; ty += tile {
		for tx := 0; tx < w; tx += tile {
			for t := 0; t < tile*tile; t++ {
				x := tx + compact(t)
				y := ty + compact(t>>1)
				if x < w && y < h {
					order = append(order, y*w+x)
				}
			}
		}
	}
	return order
}

func blockRowOrder(w, h, bw, bh int) []int {
	order := make([]int, 0, w*h)
	for by := 0; by < h; by += bh {
		for bx := 0; bx < w; bx += bw {
			for y := by; y < by+bh && y < h; y++ {
				for x := bx; x < bx+bw && x < w; x++ {
					order = append(order, y*w+x)
				}
			}
		}
	}
	return order
}

func rvlTileSize(bits int) (w, h int) {
	switch bits {
	case 4:
		return 8, 8
	case 8:
		return 8, 4
	}
	return 4, 4
}

func nibble(b []byte, i int) byte {
	if i&1 == 0 {
		return b[i>>1] >> 4
	}
	return b[i>>1] & 0xF
}

func setNibble(b []byte, i int, v byte) {
	if i&1 == 0 {
		b[i>>1] = b[i>>1]&0x0F | v<<4
	} else {
		b[i>>1] = b[i>>1]&0xF0 | v&0xF
	}
}

// permute moves elements of bits each. With toLinear the stored order is
// undone; otherwise linear data is rearranged into stored order.
func permute(src []byte, order []int, bits int, toLinear bool) []byte {
	dst := make([]byte, elementBytes(len(order), bits))
	if bits == 4 {
		for s, p := range order {
			if toLinear {
				setNibble(dst, p, nibble(src, s))
			} else {
				setNibble(dst, s, nibble(src, p))
			}
		}
		return dst
	}
	sz := bits / 8
	for s, p := range order {
		if toLinear {
			copy(dst[p*sz:p*sz+sz], src[s*sz:s*sz+sz])
		} else {
			copy(dst[s*sz:s*sz+sz], src[p*sz:p*sz+sz])
		}
	}
	return dst
}

func elementBytes(n, bits int) int { return (n*bits + 7) / 8 }

func checkLayout(buf []byte, w, h, bits int) error {
	if err := errkind.CheckDimensions(w, h); err != nil {
		return err
	}
	if bits != 4 && (bits <= 0 || bits%8 != 0) {
		return errors.Wrapf(errkind.ErrInvalidParameter, "bit depth %d", bits)
	}
	return errkind.CheckLength("layout", len(buf), elementBytes(w*h, bits))
}

// Unswizzle restores row-major order from a swizzled buffer of w*h
// elements of bitDepth bits. 4-bit elements are packed high nibble first.
func Unswizzle(buf []byte, w, h, bitDepth int, kind SwizzleKind) ([]byte, error) {
	return swizzle(buf, w, h, bitDepth, kind, true)
}

// Swizzle is the inverse of Unswizzle.
func Swizzle(buf []byte, w, h, bitDepth int, kind SwizzleKind) ([]byte, error) {
	return swizzle(buf, w, h, bitDepth, kind, false)
}

func swizzle(buf []byte, w, h, bitDepth int, kind SwizzleKind, toLinear bool) ([]byte, error) {
	if kind == SwizzlePSP {
		if err := errkind.CheckDimensions(w, h); err != nil {
			return nil, err
		}
		if bitDepth <= 0 {
			return nil, errors.Wrapf(errkind.ErrInvalidParameter, "bit depth %d", bitDepth)
		}
		rowBytes := (w*bitDepth + 7) / 8
		if err := errkind.CheckLength("swizzle", len(buf), rowBytes*h); err != nil {
			return nil, err
		}
		return permute(buf, orderFor(layoutSwizzlePSP, rowBytes, h, 8), 8, toLinear), nil
	}
	if err := checkLayout(buf, w, h, bitDepth); err != nil {
		return nil, err
	}
	return permute(buf, orderFor(layoutSwizzle, w, h, bitDepth), bitDepth, toLinear), nil
}

// Untile restores row-major order from a tiled buffer.
func Untile(buf []byte, w, h, bitDepth int, kind TileKind) ([]byte, error) {
	return tile(buf, w, h, bitDepth, kind, true)
}

// Tile is the inverse of Untile.
func Tile(buf []byte, w, h, bitDepth int, kind TileKind) ([]byte, error) {
	return tile(buf, w, h, bitDepth, kind, false)
}

func tile(buf []byte, w, h, bitDepth int, kind TileKind, toLinear bool) ([]byte, error) {
	if err := checkLayout(buf, w, h, bitDepth); err != nil {
		return nil, err
	}
	l := layoutTile
	if kind == TileRvl {
		l = layoutTileRvl
	}
	return permute(buf, orderFor(l, w, h, bitDepth), bitDepth, toLinear), nil
}

// UntileBlocks untiles a grid of wBlocks x hBlocks opaque blocks of
// bytesPerBlock bytes each, using the default 8x8 tile order.
func UntileBlocks(buf []byte, wBlocks, hBlocks, bytesPerBlock int) ([]byte, error) {
	return tileBlocks(buf, wBlocks, hBlocks, bytesPerBlock, true)
}

// TileBlocks is the inverse of UntileBlocks.
func TileBlocks(buf []byte, wBlocks, hBlocks, bytesPerBlock int) ([]byte, error) {
	return tileBlocks(buf, wBlocks, hBlocks, bytesPerBlock, false)
}

func tileBlocks(buf []byte, wBlocks, hBlocks, bytesPerBlock int, toLinear bool) ([]byte, error) {
	if bytesPerBlock <= 0 {
		return nil, errors.Wrapf(errkind.ErrInvalidParameter, "block size %d", bytesPerBlock)
	}
	if err := checkLayout(buf, wBlocks, hBlocks, bytesPerBlock*8); err != nil {
		return nil, err
	}
	return permute(buf, orderFor(layoutTileBlocks, wBlocks, hBlocks, 0), bytesPerBlock*8, toLinear), nil
}

// Flip swaps row r with row w-1-r whenever both rows exist. This is the
// row reversal used by PS3 textures; it is only a true vertical flip
// when w == h, and rows without a partner are left in place.
func Flip(buf []byte, w, h, bitDepth int) ([]byte, error) {
	if err := errkind.CheckDimensions(w, h); err != nil {
		return nil, err
	}
	if bitDepth <= 0 {
		return nil, errors.Wrapf(errkind.ErrInvalidParameter, "bit depth %d", bitDepth)
	}
	rowBytes := (w*bitDepth + 7) / 8
	if err := errkind.CheckLength("flip", len(buf), rowBytes*h); err != nil {
		return nil, err
	}
	return flipRows(buf[:rowBytes*h], w, h, rowBytes), nil
}

func flipRows(buf []byte, w, h, rowBytes int) []byte {
	dst := make([]byte, len(buf))
	copy(dst, buf)
	for r := 0; r < h; r++ {
		m := w - 1 - r
		if m < 0 || m >= h {
			continue
		}
		copy(dst[r*rowBytes:(r+1)*rowBytes], buf[m*rowBytes:(m+1)*rowBytes])
	}
	return dst
}

// unlayout undoes l on w*h canonical pixels.
func unlayout(l layout, pix []byte, w, h, bits int) []byte {
	switch l {
	case layoutLinear:
		return pix
	case layoutFlipSwizzle:
		pix = permute(pix, orderFor(l, w, h, bits), 32, true)
		return flipRows(pix, w, h, w*4)
	}
	return permute(pix, orderFor(l, w, h, bits), 32, true)
}

// relayout applies l to w*h canonical pixels.
func relayout(l layout, pix []byte, w, h, bits int) []byte {
	switch l {
	case layoutLinear:
		return pix
	case layoutFlipSwizzle:
		pix = flipRows(pix, w, h, w*4)
	}
	return permute(pix, orderFor(l, w, h, bits), 32, false)
}
