package bc

// bitReader reads little-endian bit fields from a 128-bit block.
type bitReader struct {
	lo, hi uint64
	pos    uint
}

func newBitReader(block []byte) *bitReader {
	var lo, hi uint64
	for i := 0; i < 8; i++ {
		lo |= uint64(block[i]) << (8 * i)
		hi |= uint64(block[8+i]) << (8 * i)
	}
	return &bitReader{lo: lo, hi: hi}
}

func (r *bitReader) read(n int) int {
	if n == 0 {
		return 0
	}
	var v uint64
	switch {
	case r.pos >= 64:
		v = r.hi >> (r.pos - 64)
	case r.pos+uint(n) <= 64:
		v = r.lo >> r.pos
	default:
		v = r.lo>>r.pos | r.hi<<(64-r.pos)
	}
	r.pos += uint(n)
	return int(v & (1<<uint(n) - 1))
}

func bc7Subset(m *bc7Mode, partition, pixel int) int {
	switch m.subsets {
	case 2:
		return int(bc7Partitions2[partition]>>pixel) & 1
	case 3:
		return int(bc7Partitions3[partition][pixel])
	}
	return 0
}

func bc7IsAnchor(m *bc7Mode, partition, pixel int) bool {
	if pixel == 0 {
		return true
	}
	switch m.subsets {
	case 2:
		return pixel == int(bc7Anchor2[partition])
	case 3:
		return pixel == int(bc7Anchor3[0][partition]) || pixel == int(bc7Anchor3[1][partition])
	}
	return false
}

func bc7Weight(bits, index int) int {
	switch bits {
	case 2:
		return bc7Weights2[index]
	case 3:
		return bc7Weights3[index]
	default:
		return bc7Weights4[index]
	}
}

func bc7Interpolate(e0, e1, weight int) byte {
	return byte(((64-weight)*e0 + weight*e1 + 32) >> 6)
}

// decodeBC7Block writes 16 RGBA8 pixels for one block.
// Reserved mode blocks decode to transparent black.
func decodeBC7Block(block []byte, out *[16][4]byte) {
	mode := 0
	for mode < 8 && block[0]&(1<<uint(mode)) == 0 {
		mode++
	}
	if mode == 8 {
		*out = [16][4]byte{}
		return
	}

	m := &bc7Modes[mode]
	r := newBitReader(block)
	r.read(mode + 1)

	partition := r.read(m.partBits)
	rotation := r.read(m.rotBits)
	indexSel := r.read(m.idxSelBits)

	nEndpoints := m.subsets * 2
	var endpoints [6][4]int
	for c := 0; c < 3; c++ {
		for e := 0; e < nEndpoints; e++ {
			endpoints[e][c] = r.read(m.colorBits)
		}
	}
	if m.alphaBits > 0 {
		for e := 0; e < nEndpoints; e++ {
			endpoints[e][3] = r.read(m.alphaBits)
		}
	}

	colorPrec, alphaPrec := m.colorBits, m.alphaBits
	if m.endpointPBit || m.sharedPBit {
		var pbits [6]int
		if m.endpointPBit {
			for e := 0; e < nEndpoints; e++ {
				pbits[e] = r.read(1)
			}
		} else {
			for s := 0; s < m.subsets; s++ {
				p := r.read(1)
				pbits[s*2], pbits[s*2+1] = p, p
			}
		}
		for e := 0; e < nEndpoints; e++ {
			for c := 0; c < 4; c++ {
				endpoints[e][c] = endpoints[e][c]<<1 | pbits[e]
			}
		}
		colorPrec++
		if alphaPrec > 0 {
			alphaPrec++
		}
	}

	for e := 0; e < nEndpoints; e++ {
		for c := 0; c < 3; c++ {
			v := endpoints[e][c] << uint(8-colorPrec)
			endpoints[e][c] = v | v>>uint(colorPrec)
		}
		if alphaPrec > 0 {
			v := endpoints[e][3] << uint(8-alphaPrec)
			endpoints[e][3] = v | v>>uint(alphaPrec)
		} else {
			endpoints[e][3] = 255
		}
	}

	var indices, indices2 [16]int
	for i := 0; i < 16; i++ {
		n := m.indexBits
		if bc7IsAnchor(m, partition, i) {
			n--
		}
		indices[i] = r.read(n)
	}
	if m.index2Bits > 0 {
		for i := 0; i < 16; i++ {
			n := m.index2Bits
			if i == 0 {
				n--
			}
			indices2[i] = r.read(n)
		}
	}

	for i := 0; i < 16; i++ {
		s := bc7Subset(m, partition, i)
		e0, e1 := &endpoints[s*2], &endpoints[s*2+1]

		colorW := bc7Weight(m.indexBits, indices[i])
		alphaW := colorW
		if m.index2Bits > 0 {
			alphaW = bc7Weight(m.index2Bits, indices2[i])
			if indexSel == 1 {
				colorW, alphaW = alphaW, colorW
			}
		}

		px := [4]byte{
			bc7Interpolate(e0[0], e1[0], colorW),
			bc7Interpolate(e0[1], e1[1], colorW),
			bc7Interpolate(e0[2], e1[2], colorW),
			bc7Interpolate(e0[3], e1[3], alphaW),
		}

		switch rotation {
		case 1:
			px[0], px[3] = px[3], px[0]
		case 2:
			px[1], px[3] = px[3], px[1]
		case 3:
			px[2], px[3] = px[3], px[2]
		}
		out[i] = px
	}
}

// DecodeBC7 decodes BC7 blocks to RGBA8.
func DecodeBC7(src []byte, width, height int) ([]byte, error) {
	if err := checkInput("bc7", src, width, height, BC7BlockSize); err != nil {
		return nil, err
	}

	dst := make([]byte, width*height*4)
	blockW := (width + 3) / 4
	blockH := (height + 3) / 4

	var pixels [16][4]byte
	offset := 0
	for by := 0; by < blockH; by++ {
		for bx := 0; bx < blockW; bx++ {
			decodeBC7Block(src[offset:offset+BC7BlockSize], &pixels)
			offset += BC7BlockSize

			for py := 0; py < 4; py++ {
				for px := 0; px < 4; px++ {
					x, y := bx*4+px, by*4+py
					if x >= width || y >= height {
						continue
					}
					copy(dst[(y*width+x)*4:], pixels[py*4+px][:])
				}
			}
		}
	}

	return dst, nil
}
