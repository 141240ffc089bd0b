package astc

// Weights only use levels 2 through 32.
var weightQuantToUnquant = [12][32]uint8{
	{0, 64},
	{0, 32, 64},
	{0, 21, 43, 64},
	{0, 16, 32, 48, 64},
	{0, 12, 25, 39, 52, 64},
	{0, 9, 18, 27, 37, 46, 55, 64},
	{0, 7, 14, 21, 28, 36, 43, 50, 57, 64},
	{0, 5, 11, 17, 23, 28, 36, 41, 47, 53, 59, 64},
	{0, 4, 8, 12, 17, 21, 25, 29, 35, 39, 43, 47, 52, 56, 60, 64},
	{0, 3, 6, 9, 13, 16, 19, 23, 26, 29, 35, 38, 41, 45, 48, 51, 55, 58, 61, 64},
	{0, 2, 5, 8, 11, 13, 16, 19, 22, 24, 27, 30, 34, 37, 40, 42, 45, 48, 51, 53, 56, 59, 62, 64},
	{0, 2, 4, 6, 8, 10, 12, 14, 16, 18, 20, 22, 24, 26, 28, 30, 34, 36, 38, 40, 42, 44, 46, 48, 50, 52, 54, 56, 58, 60, 62, 64},
}

// weightScramble maps a sorted weight level to its raw encoded value.
var weightScramble = [12][32]uint8{
	{0, 1},
	{0, 1, 2},
	{0, 1, 2, 3},
	{0, 1, 2, 3, 4},
	{0, 2, 4, 5, 3, 1},
	{0, 1, 2, 3, 4, 5, 6, 7},
	{0, 2, 4, 6, 8, 9, 7, 5, 3, 1},
	{0, 4, 8, 2, 6, 10, 11, 7, 3, 9, 5, 1},
	{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
	{0, 4, 8, 12, 16, 2, 6, 10, 14, 18, 19, 15, 11, 7, 3, 17, 13, 9, 5, 1},
	{0, 8, 16, 2, 10, 18, 4, 12, 20, 6, 14, 22, 23, 15, 7, 21, 13, 5, 19, 11, 3, 17, 9, 1},
	{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31},
}

var (
	// weightUnquant maps a raw weight to 0..64.
	weightUnquant [12][32]uint8
	// colorUnquant maps a raw endpoint value to 0..255.
	colorUnquant [21][256]uint8
)

func init() {
	for q := quant2; q <= quant32; q++ {
		for i := 0; i < q.levels(); i++ {
			weightUnquant[q][weightScramble[q][i]] = weightQuantToUnquant[q][i]
		}
	}
	for q := quant6; q <= quant256; q++ {
		for v := 0; v < q.levels(); v++ {
			colorUnquant[q][v] = unquantColor(q, v)
		}
	}
}

// replicate widens an n-bit value to 8 bits by repeating its pattern.
func replicate(v, n int) int {
	if n == 0 {
		return 0
	}
	out := 0
	for shift := 8 - n; ; shift -= n {
		if shift >= 0 {
			out |= v << uint(shift)
		} else {
			out |= v >> uint(-shift)
			break
		}
		if shift == 0 {
			break
		}
	}
	return out & 0xFF
}

// unquantColor expands one raw endpoint value using the trit/quint
// bit-mixing rules of the block format.
func unquantColor(q quantMethod, v int) uint8 {
	c := btqCounts[q]
	nb := int(c.bits)
	if !c.trits && !c.quints {
		return uint8(replicate(v, nb))
	}

	m := v & (1<<uint(nb) - 1)
	d := v >> uint(nb)
	b := func(i uint) int { return (m >> i) & 1 }

	a := 0
	if m&1 != 0 {
		a = 0x1FF
	}

	var bb, cc int
	if c.trits {
		switch nb {
		case 1:
			cc = 204
		case 2:
			bb, cc = b(1)*0x116, 93
		case 3:
			bb, cc = b(2)*0x10A+b(1)*0x085, 44
		case 4:
			bb, cc = b(3)*0x104+b(2)*0x082+b(1)*0x041, 22
		case 5:
			bb, cc = b(4)*0x102+b(3)*0x081+b(2)*0x040+b(1)*0x020, 11
		case 6:
			bb, cc = b(5)*0x101+b(4)*0x080+b(3)*0x040+b(2)*0x020+b(1)*0x010, 5
		}
	} else {
		switch nb {
		case 1:
			cc = 113
		case 2:
			bb, cc = b(1)*0x10C, 54
		case 3:
			bb, cc = b(2)*0x105+b(1)*0x082, 26
		case 4:
			bb, cc = b(3)*0x102+b(2)*0x081+b(1)*0x040, 13
		case 5:
			bb, cc = b(4)*0x101+b(3)*0x080+b(2)*0x040+b(1)*0x020, 6
		}
	}

	t := d*cc + bb
	t ^= a
	return uint8((a & 0x80) | (t >> 2))
}
