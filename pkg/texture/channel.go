package texture

// Channel converters work on a flat run of n elements and always produce
// or consume 4 bytes per pixel in R, G, B, A order. They are applied
// before layout on decode and after it on encode, so element order is
// preserved.

func le16(b []byte) uint16 { return uint16(b[0]) | uint16(b[1])<<8 }
func be16(b []byte) uint16 { return uint16(b[0])<<8 | uint16(b[1]) }

func putLE16(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}

func putBE16(b []byte, v uint16) {
	b[0] = byte(v >> 8)
	b[1] = byte(v)
}

// luminance is the truncating three-channel average used for L8 and A8L8.
func luminance(p []byte) byte {
	return byte((int(p[0]) + int(p[1]) + int(p[2])) / 3)
}

// expand converts n stored elements to RGBA8.
func expand(ch channel, src []byte, n int) []byte {
	dst := make([]byte, n*4)
	switch ch {
	case chRGBA8:
		copy(dst, src[:n*4])

	case chRGBA4444LE:
		for i := 0; i < n; i++ {
			p := le16(src[i*2:])
			o := dst[i*4 : i*4+4]
			o[0] = byte((p>>8)&0xF) * 17
			o[1] = byte((p>>4)&0xF) * 17
			o[2] = byte(p&0xF) * 17
			o[3] = byte(p>>12) * 17
		}

	case chRGBA4444BE:
		for i := 0; i < n; i++ {
			p := le16(src[i*2:])
			o := dst[i*4 : i*4+4]
			o[0] = byte(p>>12) * 17
			o[1] = byte((p>>8)&0xF) * 17
			o[2] = byte((p>>4)&0xF) * 17
			o[3] = byte(p&0xF) * 17
		}

	case chRGBA5650:
		for i := 0; i < n; i++ {
			c := le16(src[i*2:])
			o := dst[i*4 : i*4+4]
			o[0] = byte(c>>11) << 3
			o[1] = byte((c>>5)&0x3F) << 2
			o[2] = byte(c&0x1F) << 3
			o[3] = 0xFF
		}

	case chRGBA5551:
		for i := 0; i < n; i++ {
			c := le16(src[i*2:])
			o := dst[i*4 : i*4+4]
			o[0] = byte(c>>11) << 3
			o[1] = byte((c>>6)&0x1F) << 3
			o[2] = byte((c>>1)&0x1F) << 3
			// alpha stays 0 or 1
			o[3] = byte(c & 1)
		}

	case chRGB5A3:
		for i := 0; i < n; i++ {
			c := be16(src[i*2:])
			o := dst[i*4 : i*4+4]
			if c&0x8000 == 0 {
				o[3] = byte((c>>12)&0x7) * 0x20
				o[0] = byte((c>>8)&0xF) * 0x11
				o[1] = byte((c>>4)&0xF) * 0x11
				o[2] = byte(c&0xF) * 0x11
			} else {
				o[3] = 0xFF
				o[0] = byte((c>>10)&0x1F) * 8
				o[1] = byte((c>>5)&0x1F) * 8
				o[2] = byte(c&0x1F) * 8
			}
		}

	case chA8L8:
		for i := 0; i < n; i++ {
			l := src[i*2]
			dst[i*4], dst[i*4+1], dst[i*4+2], dst[i*4+3] = l, l, l, src[i*2+1]
		}

	case chL8:
		for i := 0; i < n; i++ {
			l := src[i]
			dst[i*4], dst[i*4+1], dst[i*4+2], dst[i*4+3] = l, l, l, 0xFF
		}

	case chA8:
		for i := 0; i < n; i++ {
			dst[i*4], dst[i*4+1], dst[i*4+2], dst[i*4+3] = 0xFF, 0xFF, 0xFF, src[i]
		}
	}
	return dst
}

// contract converts n RGBA8 pixels to stored elements of bits each.
func contract(ch channel, src []byte, n, bits int) []byte {
	dst := make([]byte, n*bits/8)
	switch ch {
	case chRGBA8:
		copy(dst, src[:n*4])

	case chRGBA4444LE:
		for i := 0; i < n; i++ {
			p := src[i*4 : i*4+4]
			v := uint16(p[3]>>4)<<12 | uint16(p[0]>>4)<<8 | uint16(p[1]>>4)<<4 | uint16(p[2]>>4)
			putLE16(dst[i*2:], v)
		}

	case chRGBA4444BE:
		for i := 0; i < n; i++ {
			p := src[i*4 : i*4+4]
			v := uint16(p[0]>>4)<<12 | uint16(p[1]>>4)<<8 | uint16(p[2]>>4)<<4 | uint16(p[3]>>4)
			putLE16(dst[i*2:], v)
		}

	case chRGBA5650:
		for i := 0; i < n; i++ {
			p := src[i*4 : i*4+4]
			putLE16(dst[i*2:], uint16(p[0]>>3)<<11|uint16(p[1]>>2)<<5|uint16(p[2]>>3))
		}

	case chRGBA5551:
		for i := 0; i < n; i++ {
			p := src[i*4 : i*4+4]
			v := uint16(p[0]>>3)<<11 | uint16(p[1]>>3)<<6 | uint16(p[2]>>3)<<1
			if p[3] != 0 {
				v |= 1
			}
			putLE16(dst[i*2:], v)
		}

	case chRGB5A3:
		for i := 0; i < n; i++ {
			p := src[i*4 : i*4+4]
			var v uint16
			if p[3] < 0xFF {
				v = uint16(p[3]>>5)<<12 | uint16(p[0]>>4)<<8 | uint16(p[1]>>4)<<4 | uint16(p[2]>>4)
			} else {
				v = 0x8000 | uint16(p[0]>>3)<<10 | uint16(p[1]>>3)<<5 | uint16(p[2]>>3)
			}
			putBE16(dst[i*2:], v)
		}

	case chA8L8:
		for i := 0; i < n; i++ {
			p := src[i*4 : i*4+4]
			dst[i*2] = luminance(p)
			dst[i*2+1] = p[3]
		}

	case chL8:
		for i := 0; i < n; i++ {
			dst[i] = luminance(src[i*4 : i*4+4])
		}

	case chA8:
		for i := 0; i < n; i++ {
			dst[i] = src[i*4+3]
		}
	}
	return dst
}

// reorder applies a per-pixel byte permutation, returning a new buffer.
func reorder(o byteOrder, src []byte) []byte {
	dst := make([]byte, len(src))
	for i := 0; i+3 < len(src); i += 4 {
		b0, b1, b2, b3 := src[i], src[i+1], src[i+2], src[i+3]
		switch o {
		case orderSwap02:
			b0, b2 = b2, b0
		case orderReverse:
			b0, b1, b2, b3 = b3, b2, b1, b0
		case orderRotateLeft:
			b0, b1, b2, b3 = b1, b2, b3, b0
		case orderRotateRight:
			b0, b1, b2, b3 = b3, b0, b1, b2
		}
		dst[i], dst[i+1], dst[i+2], dst[i+3] = b0, b1, b2, b3
	}
	return dst
}

func (o byteOrder) inverse() byteOrder {
	switch o {
	case orderRotateLeft:
		return orderRotateRight
	case orderRotateRight:
		return orderRotateLeft
	}
	return o
}
