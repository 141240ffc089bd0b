// Package archive stores canonical rasters as zstd-compressed files.
//
// A file is a fixed header followed by one zstd frame holding
// Width*Height RGBA8 pixels. The CLIs use it as a lossless intermediate
// between decode and encode.
package archive

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/EchoTools/psbFileTools/pkg/errkind"
)

// Magic bytes identifying a raster file.
var Magic = [4]byte{'P', 'S', 'B', 'R'}

// Ext is the file extension used by the CLIs.
const Ext = ".rgbz"

const (
	// HeaderSize is the fixed binary size of a header.
	HeaderSize = 32 // 4 + 4 + 4 + 4 + 8 + 8 bytes

	// headerLength counts the header bytes after Magic and HeaderLength.
	headerLength = HeaderSize - 8
)

// Header describes a raster file.
type Header struct {
	Magic            [4]byte
	HeaderLength     uint32
	Width            uint32
	Height           uint32
	Length           uint64 // Uncompressed size, Width*Height*4
	CompressedLength uint64
}

// NewHeader returns the header of a width x height raster. The
// compressed length is filled in by the writer.
func NewHeader(width, height int) *Header {
	return &Header{
		Magic:        Magic,
		HeaderLength: headerLength,
		Width:        uint32(width),
		Height:       uint32(height),
		Length:       uint64(width) * uint64(height) * 4,
	}
}

// Validate checks the header for validity.
func (h *Header) Validate() error {
	if h.Magic != Magic {
		return errors.Wrapf(errkind.ErrCorruptData, "invalid magic: expected %q, got %q", Magic[:], h.Magic[:])
	}
	if h.HeaderLength != headerLength {
		return errors.Wrapf(errkind.ErrCorruptData, "invalid header length: expected %d, got %d", headerLength, h.HeaderLength)
	}
	if h.Width == 0 || h.Height == 0 {
		return errors.Wrapf(errkind.ErrCorruptData, "empty raster %dx%d", h.Width, h.Height)
	}
	if want := uint64(h.Width) * uint64(h.Height) * 4; h.Length != want {
		return errors.Wrapf(errkind.ErrCorruptData, "length %d does not match %dx%d", h.Length, h.Width, h.Height)
	}
	if h.CompressedLength == 0 {
		return errors.Wrap(errkind.ErrCorruptData, "compressed size is zero")
	}
	return nil
}

// MarshalBinary encodes the header to binary format.
func (h *Header) MarshalBinary() ([]byte, error) {
	buf := make([]byte, HeaderSize)
	h.EncodeTo(buf)
	return buf, nil
}

// EncodeTo writes the header to buf, which must hold HeaderSize bytes.
func (h *Header) EncodeTo(buf []byte) {
	copy(buf[0:4], h.Magic[:])
	binary.LittleEndian.PutUint32(buf[4:8], h.HeaderLength)
	binary.LittleEndian.PutUint32(buf[8:12], h.Width)
	binary.LittleEndian.PutUint32(buf[12:16], h.Height)
	binary.LittleEndian.PutUint64(buf[16:24], h.Length)
	binary.LittleEndian.PutUint64(buf[24:32], h.CompressedLength)
}

// UnmarshalBinary decodes and validates a header.
func (h *Header) UnmarshalBinary(data []byte) error {
	if len(data) < HeaderSize {
		return errors.Wrapf(errkind.ErrCorruptData, "header data too short: need %d, got %d", HeaderSize, len(data))
	}
	h.DecodeFrom(data)
	return h.Validate()
}

// DecodeFrom reads the header from data without validating it.
func (h *Header) DecodeFrom(data []byte) {
	copy(h.Magic[:], data[0:4])
	h.HeaderLength = binary.LittleEndian.Uint32(data[4:8])
	h.Width = binary.LittleEndian.Uint32(data[8:12])
	h.Height = binary.LittleEndian.Uint32(data[12:16])
	h.Length = binary.LittleEndian.Uint64(data[16:24])
	h.CompressedLength = binary.LittleEndian.Uint64(data[24:32])
}
