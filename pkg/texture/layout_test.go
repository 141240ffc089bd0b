package texture

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EchoTools/psbFileTools/pkg/errkind"
)

func sequence(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

func TestOrderIsPermutation(t *testing.T) {
	kinds := []layout{layoutSwizzle, layoutSwizzlePSP, layoutTile, layoutTileRvl, layoutTileBlocks}
	sizes := []struct{ w, h int }{{1, 1}, {3, 5}, {8, 8}, {16, 4}, {4, 16}, {33, 7}, {64, 64}}

	for _, k := range kinds {
		for _, sz := range sizes {
			for _, bits := range []int{4, 8, 16, 32} {
				order := orderFor(k, sz.w, sz.h, bits)
				require.Len(t, order, sz.w*sz.h)

				seen := make([]bool, len(order))
				for _, p := range order {
					require.True(t, p >= 0 && p < len(order), "%s %dx%d: index %d", layoutNames[k], sz.w, sz.h, p)
					require.False(t, seen[p], "%s %dx%d: duplicate %d", layoutNames[k], sz.w, sz.h, p)
					seen[p] = true
				}
			}
		}
	}
}

func TestUnswizzleKnown(t *testing.T) {
	out, err := Unswizzle(sequence(16), 4, 4, 8, SwizzlePSV)
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0, 2, 8, 10,
		1, 3, 9, 11,
		4, 6, 12, 14,
		5, 7, 13, 15,
	}, out)
}

func TestUnswizzlePSPKnown(t *testing.T) {
	out, err := Unswizzle(sequence(256), 32, 8, 8, SwizzlePSP)
	require.NoError(t, err)
	assert.Equal(t, sequence(16), out[:16])
	assert.Equal(t, []byte{128, 129, 130}, out[16:19])
	assert.Equal(t, byte(16), out[32])
}

func TestUntileKnown(t *testing.T) {
	t.Run("Morton", func(t *testing.T) {
		out, err := Untile(sequence(64), 8, 8, 8, TileDefault)
		require.NoError(t, err)
		assert.Equal(t, []byte{0, 1, 4, 5, 16, 17, 20, 21}, out[:8])
		assert.Equal(t, []byte{2, 3, 6, 7, 18, 19, 22, 23}, out[8:16])
	})

	t.Run("Rvl8bpp", func(t *testing.T) {
		out, err := Untile(sequence(64), 16, 4, 8, TileRvl)
		require.NoError(t, err)
		assert.Equal(t, []byte{0, 1, 2, 3, 4, 5, 6, 7, 32, 33, 34, 35, 36, 37, 38, 39}, out[:16])
		assert.Equal(t, byte(8), out[16])
	})

	t.Run("Rvl32bpp", func(t *testing.T) {
		out, err := Untile(sequence(128), 8, 4, 32, TileRvl)
		require.NoError(t, err)
		// 4x4 tiles: the second tile starts at element 16, byte 64
		assert.Equal(t, []byte{0, 1, 2, 3}, out[:4])
		assert.Equal(t, []byte{64, 65, 66, 67}, out[16:20])
	})
}

func TestLayoutRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(17))
	sizes := []struct{ w, h int }{{1, 1}, {5, 3}, {8, 8}, {16, 4}, {7, 30}}

	for _, bits := range []int{4, 8, 16, 32} {
		for _, sz := range sizes {
			buf := randomBytes(rng, elementBytes(sz.w*sz.h, bits))
			if bits == 4 && sz.w*sz.h%2 == 1 {
				buf[len(buf)-1] &= 0xF0
			}

			for _, kind := range []SwizzleKind{SwizzlePSV, SwizzlePSP} {
				if kind == SwizzlePSP {
					buf = randomBytes(rng, (sz.w*bits+7)/8*sz.h)
				}
				lin, err := Unswizzle(buf, sz.w, sz.h, bits, kind)
				require.NoError(t, err)
				back, err := Swizzle(lin, sz.w, sz.h, bits, kind)
				require.NoError(t, err)
				assert.Equal(t, buf, back, "swizzle %d %d-bit %dx%d", kind, bits, sz.w, sz.h)
			}

			buf = randomBytes(rng, elementBytes(sz.w*sz.h, bits))
			if bits == 4 && sz.w*sz.h%2 == 1 {
				buf[len(buf)-1] &= 0xF0
			}
			for _, kind := range []TileKind{TileDefault, TileRvl} {
				lin, err := Untile(buf, sz.w, sz.h, bits, kind)
				require.NoError(t, err)
				back, err := Tile(lin, sz.w, sz.h, bits, kind)
				require.NoError(t, err)
				assert.Equal(t, buf, back, "tile %d %d-bit %dx%d", kind, bits, sz.w, sz.h)
			}
		}
	}
}

func TestTileBlocks(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	buf := randomBytes(rng, 10*3*16)

	lin, err := UntileBlocks(buf, 10, 3, 16)
	require.NoError(t, err)
	back, err := TileBlocks(lin, 10, 3, 16)
	require.NoError(t, err)
	assert.Equal(t, buf, back)

	// second stored block is the block to the right of the first
	assert.Equal(t, buf[16:32], lin[16:32])
	// third stored block is the first block of the second row
	assert.Equal(t, buf[32:48], lin[10*16:11*16])

	_, err = UntileBlocks(buf, 10, 3, 0)
	assert.ErrorIs(t, err, errkind.ErrInvalidParameter)
}

func TestFlip(t *testing.T) {
	t.Run("Square", func(t *testing.T) {
		out, err := Flip(sequence(9), 3, 3, 8)
		require.NoError(t, err)
		assert.Equal(t, []byte{6, 7, 8, 3, 4, 5, 0, 1, 2}, out)
	})

	t.Run("Involution", func(t *testing.T) {
		rng := rand.New(rand.NewSource(29))
		for _, sz := range []struct{ w, h int }{{4, 4}, {8, 3}, {3, 8}, {5, 6}} {
			buf := randomBytes(rng, sz.w*sz.h*2)
			once, err := Flip(buf, sz.w, sz.h, 16)
			require.NoError(t, err)
			twice, err := Flip(once, sz.w, sz.h, 16)
			require.NoError(t, err)
			assert.Equal(t, buf, twice, "%dx%d", sz.w, sz.h)
		}
	})

	t.Run("UnpairedRowsStay", func(t *testing.T) {
		out, err := Flip(sequence(8), 4, 2, 8)
		require.NoError(t, err)
		assert.Equal(t, sequence(8), out)
	})
}

func TestLayoutErrors(t *testing.T) {
	tests := []struct {
		name string
		fn   func() ([]byte, error)
		want error
	}{
		{"ShortSwizzle", func() ([]byte, error) { return Unswizzle(make([]byte, 15), 4, 4, 8, SwizzlePSV) }, errkind.ErrCorruptData},
		{"ShortPSP", func() ([]byte, error) { return Swizzle(make([]byte, 7), 4, 4, 4, SwizzlePSP) }, errkind.ErrCorruptData},
		{"ShortTile", func() ([]byte, error) { return Untile(make([]byte, 31), 4, 4, 16, TileRvl) }, errkind.ErrCorruptData},
		{"OddBitDepth", func() ([]byte, error) { return Untile(make([]byte, 64), 4, 4, 12, TileDefault) }, errkind.ErrInvalidParameter},
		{"ZeroHeight", func() ([]byte, error) { return Swizzle(make([]byte, 64), 4, 0, 8, SwizzlePSV) }, errkind.ErrInvalidParameter},
		{"ShortFlip", func() ([]byte, error) { return Flip(make([]byte, 3), 2, 2, 8) }, errkind.ErrCorruptData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.fn()
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
