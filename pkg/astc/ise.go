package astc

// quantMethod is an integer-sequence quantization level. The numeric
// values are fixed by the block format.
type quantMethod uint8

const (
	quant2   quantMethod = 0
	quant3   quantMethod = 1
	quant4   quantMethod = 2
	quant5   quantMethod = 3
	quant6   quantMethod = 4
	quant8   quantMethod = 5
	quant10  quantMethod = 6
	quant12  quantMethod = 7
	quant16  quantMethod = 8
	quant20  quantMethod = 9
	quant24  quantMethod = 10
	quant32  quantMethod = 11
	quant256 quantMethod = 20
)

// btq describes how one quant level packs its values: plain bits,
// optionally combined with a trit or quint digit.
type btq struct {
	bits   uint8
	trits  bool
	quints bool
}

var btqCounts = [...]btq{
	{bits: 1},               // 2
	{bits: 0, trits: true},  // 3
	{bits: 2},               // 4
	{bits: 0, quints: true}, // 5
	{bits: 1, trits: true},  // 6
	{bits: 3},               // 8
	{bits: 1, quints: true}, // 10
	{bits: 2, trits: true},  // 12
	{bits: 4},               // 16
	{bits: 2, quints: true}, // 20
	{bits: 3, trits: true},  // 24
	{bits: 5},               // 32
	{bits: 3, quints: true}, // 40
	{bits: 4, trits: true},  // 48
	{bits: 6},               // 64
	{bits: 4, quints: true}, // 80
	{bits: 5, trits: true},  // 96
	{bits: 7},               // 128
	{bits: 5, quints: true}, // 160
	{bits: 6, trits: true},  // 192
	{bits: 8},               // 256
}

func (q quantMethod) levels() int {
	c := btqCounts[q]
	n := 1 << c.bits
	switch {
	case c.trits:
		n *= 3
	case c.quints:
		n *= 5
	}
	return n
}

// iseBitCount returns the encoded size in bits of count values at level q.
func iseBitCount(count int, q quantMethod) int {
	if int(q) >= len(btqCounts) {
		return 1 << 10
	}
	c := btqCounts[q]
	b := int(c.bits)
	switch {
	case c.trits:
		return b*count + (8*count+4)/5
	case c.quints:
		return b*count + (7*count+2)/3
	default:
		return b * count
	}
}

var (
	tritBitsToRead  = [...]int{2, 2, 1, 2, 1}
	tritBlockShift  = [...]uint{0, 2, 4, 5, 7}
	quintBitsToRead = [...]int{3, 2, 2}
	quintBlockShift = [...]uint{0, 3, 5}
)

var (
	tritsOfInteger  [256][5]uint8
	quintsOfInteger [128][3]uint8
)

func init() {
	for t := range tritsOfInteger {
		tritsOfInteger[t] = unpackTrits(uint8(t))
	}
	for q := range quintsOfInteger {
		quintsOfInteger[q] = unpackQuints(uint8(q))
	}
}

func bit(v uint8, n uint) uint8 { return (v >> n) & 1 }

func unpackTrits(t uint8) [5]uint8 {
	var out [5]uint8
	var c uint8
	if (t>>2)&7 == 7 {
		c = (t>>5)<<2 | t&3
		out[4], out[3] = 2, 2
	} else {
		c = t & 0x1F
		if (t>>5)&3 == 3 {
			out[4] = 2
			out[3] = bit(t, 7)
		} else {
			out[4] = bit(t, 7)
			out[3] = (t >> 5) & 3
		}
	}
	switch {
	case c&3 == 3:
		out[2] = 2
		out[1] = bit(c, 4)
		out[0] = bit(c, 3)<<1 | (bit(c, 2) &^ bit(c, 3))
	case (c>>2)&3 == 3:
		out[2], out[1] = 2, 2
		out[0] = c & 3
	default:
		out[2] = bit(c, 4)
		out[1] = (c >> 2) & 3
		out[0] = bit(c, 1)<<1 | (bit(c, 0) &^ bit(c, 1))
	}
	return out
}

func unpackQuints(q uint8) [3]uint8 {
	var out [3]uint8
	if (q>>1)&3 == 3 && (q>>5)&3 == 0 {
		q0 := bit(q, 0)
		out[2] = q0<<2 | (bit(q, 4)&^q0)<<1 | (bit(q, 3) &^ q0)
		out[1], out[0] = 4, 4
		return out
	}
	var c uint8
	if (q>>1)&3 == 3 {
		out[2] = 4
		c = (q>>3)&3<<3 | (^(q>>5)&3)<<1 | q&1
	} else {
		out[2] = (q >> 5) & 3
		c = q & 0x1F
	}
	if c&7 == 5 {
		out[1] = 4
		out[0] = (c >> 3) & 3
	} else {
		out[1] = (c >> 3) & 3
		out[0] = c & 7
	}
	return out
}

// readBits reads count bits LSB-first starting at bit offset.
func readBits(count, offset int, b []byte) int {
	v := 0
	for i := 0; i < count; i++ {
		p := offset + i
		if p>>3 >= len(b) {
			break
		}
		v |= int((b[p>>3]>>(uint(p)&7))&1) << uint(i)
	}
	return v
}

// decodeISE unpacks count raw integer-sequence values of level q that
// start at bit offset of src.
func decodeISE(q quantMethod, count int, src []byte, offset int, out []uint8) {
	c := btqCounts[q]
	bits := int(c.bits)

	var tq [22]uint8
	lc, hc := 0, 0
	for i := 0; i < count; i++ {
		out[i] = uint8(readBits(bits, offset, src))
		offset += bits

		if c.trits {
			n := tritBitsToRead[lc]
			tq[hc] |= uint8(readBits(n, offset, src)) << tritBlockShift[lc]
			offset += n
			if lc++; lc == 5 {
				lc = 0
				hc++
			}
		}
		if c.quints {
			n := quintBitsToRead[lc]
			tq[hc] |= uint8(readBits(n, offset, src)) << quintBlockShift[lc]
			offset += n
			if lc++; lc == 3 {
				lc = 0
				hc++
			}
		}
	}

	switch {
	case c.trits:
		for i := 0; i < count; i++ {
			out[i] |= tritsOfInteger[tq[i/5]][i%5] << uint(bits)
		}
	case c.quints:
		for i := 0; i < count; i++ {
			out[i] |= quintsOfInteger[tq[i/3]&0x7F][i%3] << uint(bits)
		}
	}
}
