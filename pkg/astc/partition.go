package astc

func hash52(v uint32) uint32 {
	v ^= v >> 15
	v *= 0xEEDE0891
	v ^= v >> 5
	v += v << 16
	v ^= v >> 7
	v ^= v >> 3
	v ^= v << 6
	v ^= v >> 17
	return v
}

// selectPartition returns the partition of texel (x, y) for the given
// 10-bit partition seed. Blocks with fewer than 31 texels double their
// coordinates first.
func selectPartition(seed, x, y, count int, small bool) int {
	if small {
		x <<= 1
		y <<= 1
	}

	seed += (count - 1) * 1024
	rnum := hash52(uint32(seed))

	var s [8]uint8
	for i := range s {
		s[i] = uint8(rnum>>(4*uint(i))) & 0xF
		s[i] *= s[i]
	}

	var sh1, sh2 uint
	if seed&1 != 0 {
		sh1 = 5
		if seed&2 != 0 {
			sh1 = 4
		}
		sh2 = 5
		if count == 3 {
			sh2 = 6
		}
	} else {
		sh1 = 5
		if count == 3 {
			sh1 = 6
		}
		sh2 = 5
		if seed&2 != 0 {
			sh2 = 4
		}
	}
	for i := range s {
		if i&1 == 0 {
			s[i] >>= sh1
		} else {
			s[i] >>= sh2
		}
	}

	a := (int(s[0])*x + int(s[1])*y + int(rnum>>14)) & 0x3F
	b := (int(s[2])*x + int(s[3])*y + int(rnum>>10)) & 0x3F
	c := (int(s[4])*x + int(s[5])*y + int(rnum>>6)) & 0x3F
	d := (int(s[6])*x + int(s[7])*y + int(rnum>>2)) & 0x3F

	if count <= 3 {
		d = 0
	}
	if count <= 2 {
		c = 0
	}

	switch {
	case a >= b && a >= c && a >= d:
		return 0
	case b >= c && b >= d:
		return 1
	case c >= d:
		return 2
	}
	return 3
}
