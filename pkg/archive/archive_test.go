package archive

import (
	"bytes"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EchoTools/psbFileTools/pkg/errkind"
	"github.com/EchoTools/psbFileTools/pkg/texture"
)

// seekBuffer is an in-memory io.WriteSeeker.
type seekBuffer struct {
	data []byte
	pos  int64
}

func (s *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		s.pos = offset
	case io.SeekCurrent:
		s.pos += offset
	case io.SeekEnd:
		s.pos = int64(len(s.data)) + offset
	}
	return s.pos, nil
}

func (s *seekBuffer) Write(p []byte) (int, error) {
	if end := s.pos + int64(len(p)); end > int64(len(s.data)) {
		s.data = append(s.data, make([]byte, end-int64(len(s.data)))...)
	}
	n := copy(s.data[s.pos:], p)
	s.pos += int64(n)
	return n, nil
}

func randomRaster(seed int64, w, h int) *texture.Raster {
	r := texture.NewRaster(w, h)
	rand.New(rand.NewSource(seed)).Read(r.Pix)
	return r
}

func TestHeader(t *testing.T) {
	t.Run("MarshalUnmarshal", func(t *testing.T) {
		original := NewHeader(640, 480)
		original.CompressedLength = 512

		data, err := original.MarshalBinary()
		require.NoError(t, err)
		require.Len(t, data, HeaderSize)
		assert.Equal(t, []byte("PSBR"), data[:4])

		decoded := &Header{}
		require.NoError(t, decoded.UnmarshalBinary(data))
		assert.Equal(t, *original, *decoded)
		assert.Equal(t, uint64(640*480*4), decoded.Length)
	})

	tests := []struct {
		name   string
		mutate func(h *Header)
	}{
		{"InvalidMagic", func(h *Header) { h.Magic = [4]byte{'Z', 'S', 'T', 'D'} }},
		{"HeaderLength", func(h *Header) { h.HeaderLength = 16 }},
		{"ZeroWidth", func(h *Header) { h.Width = 0 }},
		{"LengthMismatch", func(h *Header) { h.Length++ }},
		{"ZeroCompressed", func(h *Header) { h.CompressedLength = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHeader(8, 8)
			h.CompressedLength = 100
			tt.mutate(h)
			assert.ErrorIs(t, h.Validate(), errkind.ErrCorruptData)
		})
	}

	t.Run("Short", func(t *testing.T) {
		err := (&Header{}).UnmarshalBinary(make([]byte, HeaderSize-1))
		assert.ErrorIs(t, err, errkind.ErrCorruptData)
	})
}

func TestReadWrite(t *testing.T) {
	for _, sz := range []struct{ w, h int }{{1, 1}, {7, 3}, {64, 64}} {
		original := randomRaster(int64(sz.w), sz.w, sz.h)

		var buf seekBuffer
		require.NoError(t, Encode(&buf, original))

		var h Header
		require.NoError(t, h.UnmarshalBinary(buf.data))
		assert.Equal(t, uint64(len(buf.data)-HeaderSize), h.CompressedLength)

		decoded, err := ReadRaster(bytes.NewReader(buf.data))
		require.NoError(t, err)
		assert.Equal(t, original.Width, decoded.Width)
		assert.Equal(t, original.Height, decoded.Height)
		assert.Equal(t, original.Pix, decoded.Pix)
	}
}

func TestCompressionLevel(t *testing.T) {
	r := texture.NewRaster(128, 128)

	var fast, best seekBuffer
	require.NoError(t, Encode(&fast, r, WithCompressionLevel(1)))
	require.NoError(t, Encode(&best, r, WithCompressionLevel(19)))

	for _, buf := range []seekBuffer{fast, best} {
		decoded, err := ReadRaster(bytes.NewReader(buf.data))
		require.NoError(t, err)
		assert.Equal(t, r.Pix, decoded.Pix)
	}
}

func TestConcatenatedFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "two"+Ext)
	f, err := os.Create(path)
	require.NoError(t, err)

	a := randomRaster(1, 5, 5)
	b := randomRaster(2, 3, 9)
	require.NoError(t, Encode(f, a))
	require.NoError(t, Encode(f, b))
	require.NoError(t, f.Close())

	f, err = os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	gotA, err := ReadRaster(f)
	require.NoError(t, err)
	gotB, err := ReadRaster(f)
	require.NoError(t, err)

	assert.Equal(t, a.Pix, gotA.Pix)
	assert.Equal(t, b.Pix, gotB.Pix)
}

func TestReadErrors(t *testing.T) {
	var buf seekBuffer
	require.NoError(t, Encode(&buf, randomRaster(3, 16, 16)))

	_, err := ReadRaster(bytes.NewReader(buf.data[:HeaderSize-2]))
	assert.Error(t, err)

	_, err = ReadRaster(bytes.NewReader(buf.data[:HeaderSize+4]))
	assert.ErrorIs(t, err, errkind.ErrCorruptData)

	bad := append([]byte{}, buf.data...)
	bad[0] = 'X'
	_, err = ReadRaster(bytes.NewReader(bad))
	assert.ErrorIs(t, err, errkind.ErrCorruptData)
}

func TestEncodeErrors(t *testing.T) {
	var buf seekBuffer
	assert.ErrorIs(t, Encode(&buf, nil), errkind.ErrInvalidParameter)
	assert.ErrorIs(t, Encode(&buf, &texture.Raster{Width: 2, Height: 2, Pix: make([]byte, 15)}), errkind.ErrCorruptData)
	assert.ErrorIs(t, Encode(&buf, &texture.Raster{}), errkind.ErrInvalidParameter)
}
