// Package bc decodes fixed-ratio 4x4 block-compressed textures.
//
// DXT1 (BC1) and DXT5 (BC3) decode with the integer rounding of the XNA
// reference decoder, so results are bit-exact with assets produced by the
// original toolchain. BC7 decodes all eight modes. Output is always RGBA8,
// row-major, width*height*4 bytes.
package bc

import (
	"github.com/pkg/errors"

	"github.com/EchoTools/psbFileTools/pkg/errkind"
)

const (
	// DXT1BlockSize is the byte size of one 4x4 DXT1 block.
	DXT1BlockSize = 8
	// DXT5BlockSize is the byte size of one 4x4 DXT5 block.
	DXT5BlockSize = 16
	// BC7BlockSize is the byte size of one 4x4 BC7 block.
	BC7BlockSize = 16
)

// BlocksSize returns the byte size of a width x height image stored in 4x4 blocks.
func BlocksSize(width, height, blockSize int) int {
	return ((width + 3) / 4) * ((height + 3) / 4) * blockSize
}

func checkInput(name string, src []byte, width, height, blockSize int) error {
	if err := errkind.CheckDimensions(width, height); err != nil {
		return err
	}
	if need := BlocksSize(width, height, blockSize); len(src) < need {
		return errors.Wrapf(errkind.ErrCorruptData, "%s: need %d bytes for %dx%d, got %d",
			name, need, width, height, len(src))
	}
	return nil
}

// rgb565 expands a 5:6:5 color with the reference decoder's rounding.
func rgb565(c uint16) (r, g, b int) {
	t := int(c>>11)*255 + 16
	r = (t/32 + t) / 32
	t = int((c&0x07E0)>>5)*255 + 32
	g = (t/64 + t) / 64
	t = int(c&0x001F)*255 + 16
	b = (t/32 + t) / 32
	return
}

// colorTable builds the four block colors. When fourColor is false the
// table uses the 3-color + transparent black mode.
func colorTable(c0, c1 uint16, fourColor bool) [4][4]byte {
	r0, g0, b0 := rgb565(c0)
	r1, g1, b1 := rgb565(c1)

	var t [4][4]byte
	t[0] = [4]byte{byte(r0), byte(g0), byte(b0), 255}
	t[1] = [4]byte{byte(r1), byte(g1), byte(b1), 255}
	if fourColor {
		t[2] = [4]byte{byte((2*r0 + r1) / 3), byte((2*g0 + g1) / 3), byte((2*b0 + b1) / 3), 255}
		t[3] = [4]byte{byte((r0 + 2*r1) / 3), byte((g0 + 2*g1) / 3), byte((b0 + 2*b1) / 3), 255}
	} else {
		t[2] = [4]byte{byte((r0 + r1) / 2), byte((g0 + g1) / 2), byte((b0 + b1) / 2), 255}
		t[3] = [4]byte{0, 0, 0, 0}
	}
	return t
}

// alphaTable builds the eight DXT5 alpha levels.
func alphaTable(a0, a1 byte) [8]byte {
	var t [8]byte
	t[0], t[1] = a0, a1
	for i := 2; i < 8; i++ {
		switch {
		case a0 > a1:
			t[i] = byte(((8-i)*int(a0) + (i-1)*int(a1)) / 7)
		case i == 6:
			t[i] = 0
		case i == 7:
			t[i] = 255
		default:
			t[i] = byte(((6-i)*int(a0) + (i-1)*int(a1)) / 5)
		}
	}
	return t
}

func le16(b []byte) uint16 { return uint16(b[0]) | uint16(b[1])<<8 }

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func le48(b []byte) uint64 {
	var v uint64
	for i := 0; i < 6; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}

// DecodeDXT1 decodes DXT1 blocks to RGBA8.
func DecodeDXT1(src []byte, width, height int) ([]byte, error) {
	if err := checkInput("dxt1", src, width, height, DXT1BlockSize); err != nil {
		return nil, err
	}

	dst := make([]byte, width*height*4)
	blockW := (width + 3) / 4
	blockH := (height + 3) / 4

	offset := 0
	for by := 0; by < blockH; by++ {
		for bx := 0; bx < blockW; bx++ {
			block := src[offset : offset+DXT1BlockSize]
			offset += DXT1BlockSize

			c0, c1 := le16(block[0:]), le16(block[2:])
			colors := colorTable(c0, c1, c0 > c1)
			indices := le32(block[4:])

			for py := 0; py < 4; py++ {
				for px := 0; px < 4; px++ {
					x, y := bx*4+px, by*4+py
					if x >= width || y >= height {
						continue
					}
					idx := (indices >> (2 * (py*4 + px))) & 3
					copy(dst[(y*width+x)*4:], colors[idx][:])
				}
			}
		}
	}

	return dst, nil
}

// DecodeDXT5 decodes DXT5 blocks to RGBA8.
// The color part always uses the 4-color mode.
func DecodeDXT5(src []byte, width, height int) ([]byte, error) {
	if err := checkInput("dxt5", src, width, height, DXT5BlockSize); err != nil {
		return nil, err
	}

	dst := make([]byte, width*height*4)
	blockW := (width + 3) / 4
	blockH := (height + 3) / 4

	offset := 0
	for by := 0; by < blockH; by++ {
		for bx := 0; bx < blockW; bx++ {
			block := src[offset : offset+DXT5BlockSize]
			offset += DXT5BlockSize

			alphas := alphaTable(block[0], block[1])
			alphaBits := le48(block[2:])
			colors := colorTable(le16(block[8:]), le16(block[10:]), true)
			indices := le32(block[12:])

			for py := 0; py < 4; py++ {
				for px := 0; px < 4; px++ {
					x, y := bx*4+px, by*4+py
					if x >= width || y >= height {
						continue
					}
					i := py*4 + px
					o := (y*width + x) * 4
					copy(dst[o:], colors[(indices>>(2*i))&3][:3])
					dst[o+3] = alphas[(alphaBits>>(3*i))&7]
				}
			}
		}
	}

	return dst, nil
}
