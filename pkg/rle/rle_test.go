package rle

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EchoTools/psbFileTools/pkg/errkind"
)

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	random := make([]byte, 4099)
	rng.Read(random)

	repetitive := bytes.Repeat([]byte{0xDE, 0xAD, 0xBE, 0xEF}, 1000)

	mixed := make([]byte, 0, 2048)
	for len(mixed) < 2000 {
		if rng.Intn(2) == 0 {
			mixed = append(mixed, bytes.Repeat([]byte{byte(rng.Intn(4))}, rng.Intn(300))...)
		} else {
			chunk := make([]byte, rng.Intn(40))
			rng.Read(chunk)
			mixed = append(mixed, chunk...)
		}
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"Empty", []byte{}},
		{"SingleByte", []byte{0x42}},
		{"SevenBytes", []byte{1, 2, 3, 4, 5, 6, 7}},
		{"Zeros", make([]byte, 1024)},
		{"Repetitive", repetitive},
		{"Random", random},
		{"Mixed", mixed},
	}

	for _, tt := range tests {
		for _, align := range []int{1, 2, 4, 8} {
			t.Run(tt.name, func(t *testing.T) {
				compressed, err := Compress(tt.data, align)
				require.NoError(t, err)

				decoded, err := Decompress(compressed, align, len(tt.data))
				require.NoError(t, err)
				assert.Equal(t, tt.data, decoded, "align %d", align)
			})
		}
	}
}

func TestCompressFormat(t *testing.T) {
	a := []byte{0xAA, 0xAA, 0xAA, 0xAA}
	b := []byte{0xBB, 0xBB, 0xBB, 0xBB}
	src := bytes.Join([][]byte{a, a, a, a, b}, nil)

	got, err := Compress(src, 4)
	require.NoError(t, err)

	want := []byte{0x81, 0xAA, 0xAA, 0xAA, 0xAA, 0x00, 0xBB, 0xBB, 0xBB, 0xBB}
	assert.Equal(t, want, got)
}

func TestLongRunsSplit(t *testing.T) {
	src := make([]byte, 300)

	got, err := Compress(src, 1)
	require.NoError(t, err)

	// 130 + 130 + 40
	assert.Equal(t, []byte{0xFF, 0x00, 0xFF, 0x00, 0x80 | 37, 0x00}, got)
}

func TestLongLiteralsSplit(t *testing.T) {
	src := make([]byte, 200)
	for i := range src {
		src[i] = byte(i)
	}

	got, err := Compress(src, 1)
	require.NoError(t, err)
	require.Len(t, got, 202)
	assert.Equal(t, byte(127), got[0])
	assert.Equal(t, byte(71), got[129])
}

func TestDecompressErrors(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		align    int
		expected int
		kind     error
	}{
		{"BadAlign", []byte{0x00, 0x01}, 3, 1, errkind.ErrInvalidParameter},
		{"NegativeLength", []byte{}, 4, -1, errkind.ErrInvalidParameter},
		{"TruncatedLiteral", []byte{0x01, 1, 2, 3, 4, 5}, 4, 8, errkind.ErrCorruptData},
		{"TruncatedRun", []byte{0x80, 1, 2}, 4, 12, errkind.ErrCorruptData},
		{"TooShort", []byte{0x00, 1, 2, 3, 4}, 4, 8, errkind.ErrCorruptData},
		{"TooLong", []byte{0x80, 1, 2, 3, 4}, 4, 4, errkind.ErrCorruptData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decompress(tt.data, tt.align, tt.expected)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestCompressBadAlign(t *testing.T) {
	_, err := Compress([]byte{1, 2, 3}, 0)
	assert.ErrorIs(t, err, errkind.ErrInvalidParameter)
}

func TestDecompressAll(t *testing.T) {
	src := bytes.Repeat([]byte{1, 2, 3, 4}, 10)
	compressed, err := Compress(src, 4)
	require.NoError(t, err)

	got, err := DecompressAll(compressed, 4)
	require.NoError(t, err)
	assert.Equal(t, src, got)
}

func BenchmarkRLE(b *testing.B) {
	data := make([]byte, 256*1024)
	for i := range data {
		data[i] = byte(i / 64)
	}
	compressed, _ := Compress(data, DefaultAlign)

	b.Run("Compress", func(b *testing.B) {
		b.SetBytes(int64(len(data)))
		for i := 0; i < b.N; i++ {
			if _, err := Compress(data, DefaultAlign); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("Decompress", func(b *testing.B) {
		b.SetBytes(int64(len(data)))
		for i := 0; i < b.N; i++ {
			if _, err := Decompress(compressed, DefaultAlign, len(data)); err != nil {
				b.Fatal(err)
			}
		}
	})
}
