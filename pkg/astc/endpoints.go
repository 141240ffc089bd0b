package astc

// Color endpoint modes. Only the LDR ones decode; the HDR modes produce
// an error block.
const (
	cemLuminance      = 0
	cemLuminanceDelta = 1
	cemLumAlpha       = 4
	cemLumAlphaDelta  = 5
	cemRGBScale       = 6
	cemRGB            = 8
	cemRGBDelta       = 9
	cemRGBScaleAlpha  = 10
	cemRGBA           = 12
	cemRGBADelta      = 13
	maxColorValues    = 18
)

type rgba4 [4]int

func clamp255(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

func blueContract(c rgba4) rgba4 {
	c[0] = (c[0] + c[2]) >> 1
	c[1] = (c[1] + c[2]) >> 1
	return c
}

// bitTransferSigned moves the top bit of each base into its delta and
// sign-extends the 6-bit delta.
func bitTransferSigned(delta, base int) (int, int) {
	base = (base >> 1) | (delta & 0x80)
	delta = (delta >> 1) & 0x3F
	if delta&0x20 != 0 {
		delta -= 0x40
	}
	return delta, base
}

// unpackEndpoints returns the two LDR endpoints (0..255 per channel) of
// one partition. ok is false for HDR or reserved modes.
func unpackEndpoints(mode int, v []int) (e0, e1 rgba4, ok bool) {
	switch mode {
	case cemLuminance:
		e0 = rgba4{v[0], v[0], v[0], 255}
		e1 = rgba4{v[1], v[1], v[1], 255}

	case cemLuminanceDelta:
		l0 := (v[0] >> 2) | (v[1] & 0xC0)
		l1 := l0 + (v[1] & 0x3F)
		if l1 > 255 {
			l1 = 255
		}
		e0 = rgba4{l0, l0, l0, 255}
		e1 = rgba4{l1, l1, l1, 255}

	case cemLumAlpha:
		e0 = rgba4{v[0], v[0], v[0], v[2]}
		e1 = rgba4{v[1], v[1], v[1], v[3]}

	case cemLumAlphaDelta:
		dl, l0 := bitTransferSigned(v[1], v[0])
		da, a0 := bitTransferSigned(v[3], v[2])
		e0 = rgba4{l0, l0, l0, a0}
		l1 := clamp255(l0 + dl)
		a1 := clamp255(a0 + da)
		e1 = rgba4{l1, l1, l1, a1}

	case cemRGBScale:
		e1 = rgba4{v[0], v[1], v[2], 255}
		e0 = rgba4{(v[0] * v[3]) >> 8, (v[1] * v[3]) >> 8, (v[2] * v[3]) >> 8, 255}

	case cemRGBScaleAlpha:
		e1 = rgba4{v[0], v[1], v[2], v[5]}
		e0 = rgba4{(v[0] * v[3]) >> 8, (v[1] * v[3]) >> 8, (v[2] * v[3]) >> 8, v[4]}

	case cemRGB, cemRGBA:
		a0, a1 := 255, 255
		if mode == cemRGBA {
			a0, a1 = v[6], v[7]
		}
		p0 := rgba4{v[0], v[2], v[4], a0}
		p1 := rgba4{v[1], v[3], v[5], a1}
		if p1[0]+p1[1]+p1[2] >= p0[0]+p0[1]+p0[2] {
			e0, e1 = p0, p1
		} else {
			e0, e1 = blueContract(p1), blueContract(p0)
		}

	case cemRGBDelta, cemRGBADelta:
		var base, delta rgba4
		n := 3
		if mode == cemRGBADelta {
			n = 4
		}
		for i := 0; i < n; i++ {
			delta[i], base[i] = bitTransferSigned(v[2*i+1], v[2*i])
		}
		if n == 3 {
			base[3], delta[3] = 255, 0
		}
		var sum rgba4
		for i := range sum {
			sum[i] = base[i] + delta[i]
		}
		if delta[0]+delta[1]+delta[2] >= 0 {
			e0, e1 = base, sum
		} else {
			e0, e1 = blueContract(sum), blueContract(base)
		}
		for i := range e0 {
			e0[i] = clamp255(e0[i])
			e1[i] = clamp255(e1[i])
		}

	default:
		return e0, e1, false
	}
	return e0, e1, true
}
