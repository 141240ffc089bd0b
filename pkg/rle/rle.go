// Package rle implements the aligned run-length scheme used for PSB image resources.
//
// The stream is a sequence of packets. Each packet starts with a control byte c:
//   - c&0x80 set: a run. The next align bytes form one unit repeated (c&0x7F)+3 times.
//   - otherwise: a literal. The next (c+1)*align bytes are copied verbatim.
//
// For example, with align 4:
//
//	[AAAA AAAA AAAA AAAA BBBB] -> [0x81 AAAA 0x00 BBBB]
package rle

import (
	"github.com/pkg/errors"

	"github.com/EchoTools/psbFileTools/pkg/errkind"
)

const (
	// DefaultAlign is the unit size used by image resources (one 32-bit pixel).
	DefaultAlign = 4

	minRun     = 3
	maxRun     = 0x7F + minRun // 130 units
	maxLiteral = 0x7F + 1      // 128 units
	runFlag    = 0x80
)

// ValidAlign reports whether align is a supported unit size.
func ValidAlign(align int) bool {
	switch align {
	case 1, 2, 4, 8:
		return true
	}
	return false
}

func checkAlign(align int) error {
	if !ValidAlign(align) {
		return errors.Wrapf(errkind.ErrInvalidParameter, "rle: unsupported align %d", align)
	}
	return nil
}

// Compress encodes src in units of align bytes.
// A trailing partial unit is zero-padded; Decompress drops the padding
// when given the original length.
func Compress(src []byte, align int) ([]byte, error) {
	if err := checkAlign(align); err != nil {
		return nil, err
	}
	if len(src) == 0 {
		return []byte{}, nil
	}

	units := (len(src) + align - 1) / align
	if rem := len(src) % align; rem != 0 {
		padded := make([]byte, units*align)
		copy(padded, src)
		src = padded
	}

	unit := func(i int) []byte {
		return src[i*align : (i+1)*align]
	}
	same := func(i, j int) bool {
		a, b := unit(i), unit(j)
		for k := range a {
			if a[k] != b[k] {
				return false
			}
		}
		return true
	}

	// Worst case: one control byte per 128 literal units
	dst := make([]byte, 0, len(src)+units/maxLiteral+1)

	literalStart := -1
	flushLiteral := func(end int) {
		for literalStart >= 0 && literalStart < end {
			n := end - literalStart
			if n > maxLiteral {
				n = maxLiteral
			}
			dst = append(dst, byte(n-1))
			dst = append(dst, src[literalStart*align:(literalStart+n)*align]...)
			literalStart += n
		}
		literalStart = -1
	}

	i := 0
	for i < units {
		runEnd := i + 1
		for runEnd < units && runEnd-i < maxRun && same(i, runEnd) {
			runEnd++
		}

		if runEnd-i >= minRun {
			flushLiteral(i)
			dst = append(dst, runFlag|byte(runEnd-i-minRun))
			dst = append(dst, unit(i)...)
			i = runEnd
			continue
		}

		if literalStart < 0 {
			literalStart = i
		}
		i++
	}
	flushLiteral(units)

	return dst, nil
}

// Decompress decodes src and returns exactly expectedLength bytes.
// Output that overshoots expectedLength by less than one unit is the padding
// written by Compress and is dropped; any other mismatch is corrupt data.
func Decompress(src []byte, align, expectedLength int) ([]byte, error) {
	if err := checkAlign(align); err != nil {
		return nil, err
	}
	if expectedLength < 0 {
		return nil, errors.Wrapf(errkind.ErrInvalidParameter, "rle: negative expected length %d", expectedLength)
	}

	limit := (expectedLength + align - 1) / align * align
	dst, err := decode(src, align, limit)
	if err != nil {
		return nil, err
	}
	if len(dst) < expectedLength {
		return nil, errors.Wrapf(errkind.ErrCorruptData, "rle: decoded %d bytes, expected %d", len(dst), expectedLength)
	}

	return dst[:expectedLength], nil
}

// DecompressAll decodes the whole stream without a known output length.
func DecompressAll(src []byte, align int) ([]byte, error) {
	if err := checkAlign(align); err != nil {
		return nil, err
	}
	return decode(src, align, -1)
}

// decode runs the packet loop. A non-negative limit caps the output size.
func decode(src []byte, align, limit int) ([]byte, error) {
	capacity := limit
	if capacity < 0 {
		capacity = len(src) * 2
	}
	dst := make([]byte, 0, capacity)

	i := 0
	for i < len(src) {
		c := src[i]
		i++

		if c&runFlag != 0 {
			count := int(c&^runFlag) + minRun
			if i+align > len(src) {
				return nil, errors.Wrapf(errkind.ErrCorruptData, "rle: truncated run at offset %d", i-1)
			}
			if limit >= 0 && len(dst)+count*align > limit {
				return nil, errors.Wrapf(errkind.ErrCorruptData, "rle: output exceeds %d bytes", limit)
			}
			u := src[i : i+align]
			for n := 0; n < count; n++ {
				dst = append(dst, u...)
			}
			i += align
			continue
		}

		n := (int(c) + 1) * align
		if i+n > len(src) {
			return nil, errors.Wrapf(errkind.ErrCorruptData, "rle: truncated literal at offset %d", i-1)
		}
		if limit >= 0 && len(dst)+n > limit {
			return nil, errors.Wrapf(errkind.ErrCorruptData, "rle: output exceeds %d bytes", limit)
		}
		dst = append(dst, src[i:i+n]...)
		i += n
	}

	return dst, nil
}
