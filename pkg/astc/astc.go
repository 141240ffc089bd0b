// Package astc decodes 2D LDR ASTC textures to RGBA8.
//
// Every block is 16 bytes regardless of footprint. Blocks that are
// malformed, use HDR endpoints or use reserved encodings decode to opaque
// magenta, which matches reference decoders.
package astc

import (
	"math/bits"

	"github.com/pkg/errors"

	"github.com/EchoTools/psbFileTools/pkg/errkind"
)

// BlockSize is the byte size of one ASTC block.
const BlockSize = 16

const (
	maxWeights         = 64
	minWeightBits      = 24
	maxWeightBits      = 96
	partitionIndexBits = 10
	plane2Offset       = 32
)

// BlocksSize returns the byte size of a width x height image made of
// blockW x blockH footprints.
func BlocksSize(width, height, blockW, blockH int) int {
	return ((width + blockW - 1) / blockW) * ((height + blockH - 1) / blockH) * BlockSize
}

// Decode converts an ASTC block stream to width*height*4 RGBA bytes.
// Blocks are stored row-major; texels past the image edge are dropped.
func Decode(src []byte, width, height, blockW, blockH int) ([]byte, error) {
	if err := errkind.CheckDimensions(width, height); err != nil {
		return nil, err
	}
	if blockW < 4 || blockW > 12 || blockH < 4 || blockH > 12 {
		return nil, errors.Wrapf(errkind.ErrInvalidParameter, "astc: block footprint %dx%d", blockW, blockH)
	}
	need := BlocksSize(width, height, blockW, blockH)
	if len(src) < need {
		return nil, errors.Wrapf(errkind.ErrCorruptData, "astc: need %d bytes for %dx%d, got %d",
			need, width, height, len(src))
	}

	out := make([]byte, width*height*4)
	texels := make([]byte, blockW*blockH*4)
	blocksX := (width + blockW - 1) / blockW
	blocksY := (height + blockH - 1) / blockH

	off := 0
	for by := 0; by < blocksY; by++ {
		for bx := 0; bx < blocksX; bx++ {
			decodeBlock(src[off:off+BlockSize], blockW, blockH, texels)
			off += BlockSize

			for y := 0; y < blockH; y++ {
				py := by*blockH + y
				if py >= height {
					break
				}
				px := bx * blockW
				n := blockW
				if px+n > width {
					n = width - px
				}
				copy(out[(py*width+px)*4:(py*width+px+n)*4], texels[y*blockW*4:(y*blockW+n)*4])
			}
		}
	}
	return out, nil
}

func fill(dst []byte, r, g, b, a uint8) {
	for i := 0; i < len(dst); i += 4 {
		dst[i+0] = r
		dst[i+1] = g
		dst[i+2] = b
		dst[i+3] = a
	}
}

func fillError(dst []byte) { fill(dst, 0xFF, 0x00, 0xFF, 0xFF) }

// decodeBlockMode unpacks the 11-bit block mode into the weight grid
// layout.
func decodeBlockMode(mode int) (xw, yw int, dual bool, q quantMethod, weightBits int, ok bool) {
	base := (mode >> 4) & 1
	h := (mode >> 9) & 1
	d := (mode >> 10) & 1
	a := (mode >> 5) & 3

	if mode&3 != 0 {
		base |= (mode & 3) << 1
		b := (mode >> 7) & 3
		switch (mode >> 2) & 3 {
		case 0:
			xw, yw = b+4, a+2
		case 1:
			xw, yw = b+8, a+2
		case 2:
			xw, yw = a+2, b+8
		case 3:
			b &= 1
			if mode&0x100 != 0 {
				xw, yw = b+2, a+2
			} else {
				xw, yw = a+2, b+6
			}
		}
	} else {
		base |= ((mode >> 2) & 3) << 1
		if (mode>>2)&3 == 0 {
			return
		}
		b := (mode >> 9) & 3
		switch (mode >> 7) & 3 {
		case 0:
			xw, yw = 12, a+2
		case 1:
			xw, yw = a+2, 12
		case 2:
			xw, yw = a+6, b+6
			d, h = 0, 0
		case 3:
			switch (mode >> 5) & 3 {
			case 0:
				xw, yw = 6, 10
			case 1:
				xw, yw = 10, 6
			default:
				return
			}
		}
	}

	qm := base - 2 + 6*h
	if qm < 0 || qm > int(quant32) {
		return 0, 0, false, 0, 0, false
	}
	q = quantMethod(qm)
	dual = d != 0
	count := xw * yw * (d + 1)
	weightBits = iseBitCount(count, q)
	if count > maxWeights || weightBits < minWeightBits || weightBits > maxWeightBits {
		return 0, 0, false, 0, 0, false
	}
	return xw, yw, dual, q, weightBits, true
}

// reverseBlock mirrors the 128 bits of a block so the weight area, which
// grows down from bit 127, can be read LSB-first.
func reverseBlock(b []byte) [BlockSize]byte {
	var r [BlockSize]byte
	for i := 0; i < BlockSize; i++ {
		r[i] = bits.Reverse8(b[BlockSize-1-i])
	}
	return r
}

// infill resamples a weight grid of xw x yw onto a bw x bh block.
func infill(grid []int, xw, yw, bw, bh int, out []int) {
	if xw == bw && yw == bh {
		copy(out, grid[:bw*bh])
		return
	}
	xScale := (1024 + bw/2) / (bw - 1)
	yScale := (1024 + bh/2) / (bh - 1)
	n := xw * yw

	at := func(i int) int {
		if i < 0 || i >= n {
			return 0
		}
		return grid[i]
	}

	for y := 0; y < bh; y++ {
		for x := 0; x < bw; x++ {
			xWeight := (xScale*x*(xw-1) + 32) >> 6
			yWeight := (yScale*y*(yw-1) + 32) >> 6
			xFrac, yFrac := xWeight&0xF, yWeight&0xF
			q0 := (xWeight >> 4) + (yWeight>>4)*xw

			w3 := (xFrac*yFrac + 8) >> 4
			w1 := xFrac - w3
			w2 := yFrac - w3
			w0 := 16 - xFrac - yFrac + w3

			sum := 8
			if w0 != 0 {
				sum += at(q0) * w0
			}
			if w1 != 0 {
				sum += at(q0+1) * w1
			}
			if w2 != 0 {
				sum += at(q0+xw) * w2
			}
			if w3 != 0 {
				sum += at(q0+xw+1) * w3
			}
			out[y*bw+x] = sum >> 4
		}
	}
}

func decodeVoidExtent(block []byte, dst []byte) {
	if block[1]&0x02 != 0 {
		// HDR constant color
		fillError(dst)
		return
	}
	minS := readBits(13, 12, block)
	maxS := readBits(13, 25, block)
	minT := readBits(13, 38, block)
	maxT := readBits(13, 51, block)
	allOnes := minS == 0x1FFF && maxS == 0x1FFF && minT == 0x1FFF && maxT == 0x1FFF
	if !allOnes && (minS >= maxS || minT >= maxT) {
		fillError(dst)
		return
	}
	c := func(i int) uint8 { return block[8+2*i+1] }
	fill(dst, c(0), c(1), c(2), c(3))
}

// decodeBlock writes bw*bh RGBA texels for one block into dst.
func decodeBlock(block []byte, bw, bh int, dst []byte) {
	mode := readBits(11, 0, block)
	if mode&0x1FF == 0x1FC {
		decodeVoidExtent(block, dst)
		return
	}

	xw, yw, dual, wq, weightBits, ok := decodeBlockMode(mode)
	if !ok || xw > bw || yw > bh {
		fillError(dst)
		return
	}

	partitions := readBits(2, 11, block) + 1
	if dual && partitions == 4 {
		fillError(dst)
		return
	}

	var cem [4]int
	seed := 0
	belowWeights := 128 - weightBits
	highPart := 0
	if partitions == 1 {
		cem[0] = readBits(4, 13, block)
	} else {
		seed = readBits(partitionIndexBits, 13, block)
		highPart = 3*partitions - 4
		belowWeights -= highPart
		encoded := readBits(6, 13+partitionIndexBits, block) | readBits(highPart, belowWeights, block)<<6
		baseClass := encoded & 3
		if baseClass == 0 {
			for i := 0; i < partitions; i++ {
				cem[i] = (encoded >> 2) & 0xF
			}
			belowWeights += highPart
			highPart = 0
		} else {
			pos := 2
			baseClass--
			for i := 0; i < partitions; i++ {
				cem[i] = (((encoded >> pos) & 1) + baseClass) << 2
				pos++
			}
			for i := 0; i < partitions; i++ {
				cem[i] |= (encoded >> pos) & 3
				pos += 2
			}
		}
	}

	colorInts := 0
	for i := 0; i < partitions; i++ {
		colorInts += (cem[i]>>2 + 1) * 2
	}
	if colorInts > maxColorValues {
		fillError(dst)
		return
	}

	colorBits := 111
	if partitions > 1 {
		colorBits = 99
	}
	colorBits -= weightBits + highPart
	if dual {
		colorBits -= 2
	}
	cq := quantMethod(255)
	for q := quant256; q >= quant6; q-- {
		if iseBitCount(colorInts, q) <= colorBits {
			cq = q
			break
		}
	}
	if cq == 255 {
		fillError(dst)
		return
	}

	colorStart := 17
	if partitions > 1 {
		colorStart = 29
	}
	var raw [maxColorValues]uint8
	decodeISE(cq, colorInts, block, colorStart, raw[:])

	var e0, e1 [4]rgba4
	vals := make([]int, 0, maxColorValues)
	for i := 0; i < colorInts; i++ {
		vals = append(vals, int(colorUnquant[cq][raw[i]]))
	}
	pos := 0
	for p := 0; p < partitions; p++ {
		n := (cem[p]>>2 + 1) * 2
		a, b, ok := unpackEndpoints(cem[p], vals[pos:pos+n])
		if !ok {
			fillError(dst)
			return
		}
		e0[p], e1[p] = a, b
		pos += n
	}

	plane2 := -1
	if dual {
		plane2 = readBits(2, belowWeights-2, block)
	}

	// Weights
	perPlane := xw * yw
	count := perPlane
	if dual {
		count *= 2
	}
	rev := reverseBlock(block)
	var rawW [maxWeights]uint8
	decodeISE(wq, count, rev[:], 0, rawW[:])

	texels := bw * bh
	grid1 := make([]int, perPlane)
	grid2 := make([]int, perPlane)
	for i := 0; i < perPlane; i++ {
		if dual {
			grid1[i] = int(weightUnquant[wq][rawW[2*i]])
			grid2[i] = int(weightUnquant[wq][rawW[2*i+1]])
		} else {
			grid1[i] = int(weightUnquant[wq][rawW[i]])
		}
	}
	w1 := make([]int, texels)
	w2 := w1
	infill(grid1, xw, yw, bw, bh, w1)
	if dual {
		w2 = make([]int, texels)
		infill(grid2, xw, yw, bw, bh, w2)
	}

	small := texels < 31
	for t := 0; t < texels; t++ {
		p := 0
		if partitions > 1 {
			p = selectPartition(seed, t%bw, t/bw, partitions, small)
		}
		for c := 0; c < 4; c++ {
			w := w1[t]
			if c == plane2 {
				w = w2[t]
			}
			lo := e0[p][c] * 257
			hi := e1[p][c] * 257
			v := (lo*(64-w) + hi*w + 32) >> 6
			dst[t*4+c] = uint8(v >> 8)
		}
	}
}
