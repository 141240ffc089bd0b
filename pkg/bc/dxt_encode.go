package bc

import "github.com/EchoTools/psbFileTools/pkg/errkind"

// The encoders use bounding-box endpoints and nearest-color index
// selection. They exist to re-pack edited DXT resources, not to compete
// with a full block compressor.

func to565(r, g, b byte) uint16 {
	return uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
}

// gatherBlock copies the 4x4 block at (bx, by), clamping reads at the image edge.
func gatherBlock(pix []byte, width, height, bx, by int) (block [16][4]byte) {
	for py := 0; py < 4; py++ {
		y := by*4 + py
		if y >= height {
			y = height - 1
		}
		for px := 0; px < 4; px++ {
			x := bx*4 + px
			if x >= width {
				x = width - 1
			}
			copy(block[py*4+px][:], pix[(y*width+x)*4:])
		}
	}
	return block
}

func colorBounds(block *[16][4]byte, skip func(p [4]byte) bool) (lo, hi [3]byte) {
	lo = [3]byte{255, 255, 255}
	for _, p := range block {
		if skip != nil && skip(p) {
			continue
		}
		for c := 0; c < 3; c++ {
			if p[c] < lo[c] {
				lo[c] = p[c]
			}
			if p[c] > hi[c] {
				hi[c] = p[c]
			}
		}
	}
	if lo[0] > hi[0] {
		// every pixel skipped
		lo = hi
	}
	return lo, hi
}

func nearestColor(colors *[4][4]byte, n int, p [4]byte) uint32 {
	best, bestDist := 0, 1<<30
	for i := 0; i < n; i++ {
		dist := 0
		for c := 0; c < 3; c++ {
			d := int(colors[i][c]) - int(p[c])
			dist += d * d
		}
		if dist < bestDist {
			best, bestDist = i, dist
		}
	}
	return uint32(best)
}

func putColorBlock(dst []byte, c0, c1 uint16, indices uint32) {
	dst[0], dst[1] = byte(c0), byte(c0>>8)
	dst[2], dst[3] = byte(c1), byte(c1>>8)
	dst[4], dst[5], dst[6], dst[7] = byte(indices), byte(indices>>8), byte(indices>>16), byte(indices>>24)
}

func checkPixels(name string, pix []byte, width, height int) error {
	if err := errkind.CheckDimensions(width, height); err != nil {
		return err
	}
	return errkind.CheckLength(name, len(pix), width*height*4)
}

// EncodeDXT1 compresses RGBA8 pixels to DXT1. Pixels with alpha below 128
// select the transparent 3-color mode for their block.
func EncodeDXT1(pix []byte, width, height int) ([]byte, error) {
	if err := checkPixels("dxt1", pix, width, height); err != nil {
		return nil, err
	}

	blockW := (width + 3) / 4
	blockH := (height + 3) / 4
	dst := make([]byte, blockW*blockH*DXT1BlockSize)

	transparent := func(p [4]byte) bool { return p[3] < 128 }

	offset := 0
	for by := 0; by < blockH; by++ {
		for bx := 0; bx < blockW; bx++ {
			block := gatherBlock(pix, width, height, bx, by)

			hasAlpha := false
			for _, p := range block {
				if transparent(p) {
					hasAlpha = true
					break
				}
			}

			lo, hi := colorBounds(&block, transparent)
			c0, c1 := to565(hi[0], hi[1], hi[2]), to565(lo[0], lo[1], lo[2])

			var indices uint32
			if hasAlpha {
				if c0 > c1 {
					c0, c1 = c1, c0
				}
				colors := colorTable(c0, c1, false)
				for i, p := range block {
					idx := uint32(3)
					if !transparent(p) {
						idx = nearestColor(&colors, 3, p)
					}
					indices |= idx << (2 * i)
				}
			} else {
				if c0 < c1 {
					c0, c1 = c1, c0
				}
				if c0 != c1 {
					colors := colorTable(c0, c1, true)
					for i, p := range block {
						indices |= nearestColor(&colors, 4, p) << (2 * i)
					}
				}
			}

			putColorBlock(dst[offset:], c0, c1, indices)
			offset += DXT1BlockSize
		}
	}

	return dst, nil
}

// EncodeDXT5 compresses RGBA8 pixels to DXT5 using the 8-level alpha mode.
func EncodeDXT5(pix []byte, width, height int) ([]byte, error) {
	if err := checkPixels("dxt5", pix, width, height); err != nil {
		return nil, err
	}

	blockW := (width + 3) / 4
	blockH := (height + 3) / 4
	dst := make([]byte, blockW*blockH*DXT5BlockSize)

	offset := 0
	for by := 0; by < blockH; by++ {
		for bx := 0; bx < blockW; bx++ {
			block := gatherBlock(pix, width, height, bx, by)
			out := dst[offset : offset+DXT5BlockSize]
			offset += DXT5BlockSize

			a0, a1 := byte(0), byte(255)
			for _, p := range block {
				if p[3] > a0 {
					a0 = p[3]
				}
				if p[3] < a1 {
					a1 = p[3]
				}
			}
			out[0], out[1] = a0, a1

			if a0 != a1 {
				alphas := alphaTable(a0, a1)
				var bits uint64
				for i, p := range block {
					best, bestDist := 0, 1<<30
					for j, a := range alphas {
						d := int(a) - int(p[3])
						if d < 0 {
							d = -d
						}
						if d < bestDist {
							best, bestDist = j, d
						}
					}
					bits |= uint64(best) << (3 * i)
				}
				for i := 0; i < 6; i++ {
					out[2+i] = byte(bits >> (8 * i))
				}
			}

			lo, hi := colorBounds(&block, nil)
			c0, c1 := to565(hi[0], hi[1], hi[2]), to565(lo[0], lo[1], lo[2])
			if c0 < c1 {
				c0, c1 = c1, c0
			}
			var indices uint32
			if c0 != c1 {
				colors := colorTable(c0, c1, true)
				for i, p := range block {
					indices |= nearestColor(&colors, 4, p) << (2 * i)
				}
			}
			putColorBlock(out[8:], c0, c1, indices)
		}
	}

	return dst, nil
}
