package archive

import (
	"fmt"
	"io"

	"github.com/DataDog/zstd"
	"github.com/pkg/errors"

	"github.com/EchoTools/psbFileTools/pkg/errkind"
	"github.com/EchoTools/psbFileTools/pkg/texture"
)

// DefaultCompressionLevel is the zstd level used when none is given.
const DefaultCompressionLevel = zstd.BestSpeed

// Reader decompresses the pixels of a raster file.
type Reader struct {
	header    Header
	limited   io.Reader
	zReader   io.ReadCloser
	headerBuf [HeaderSize]byte
}

// NewReader reads and validates the header of r. Reads then return
// the decompressed pixels.
func NewReader(r io.Reader) (*Reader, error) {
	reader := &Reader{}

	if _, err := io.ReadFull(r, reader.headerBuf[:]); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if err := reader.header.UnmarshalBinary(reader.headerBuf[:]); err != nil {
		return nil, fmt.Errorf("parse header: %w", err)
	}

	reader.limited = io.LimitReader(r, int64(reader.header.CompressedLength))
	reader.zReader = zstd.NewReader(reader.limited)
	return reader, nil
}

// Header returns the file header.
func (r *Reader) Header() Header {
	return r.header
}

// Width returns the raster width in pixels.
func (r *Reader) Width() int { return int(r.header.Width) }

// Height returns the raster height in pixels.
func (r *Reader) Height() int { return int(r.header.Height) }

// Read reads decompressed pixel bytes into p.
func (r *Reader) Read(p []byte) (n int, err error) {
	return r.zReader.Read(p)
}

// Close closes the reader and skips any unread compressed bytes, so the
// source is left at the end of the file.
func (r *Reader) Close() error {
	if err := r.zReader.Close(); err != nil {
		return err
	}
	_, err := io.Copy(io.Discard, r.limited)
	return err
}

// ReadRaster reads a whole raster file.
func ReadRaster(src io.Reader) (*texture.Raster, error) {
	reader, err := NewReader(src)
	if err != nil {
		return nil, err
	}

	r := texture.NewRaster(reader.Width(), reader.Height())
	if _, err := io.ReadFull(reader, r.Pix); err != nil {
		reader.Close()
		return nil, errors.Wrapf(errkind.ErrCorruptData, "read pixels: %v", err)
	}
	if err := reader.Close(); err != nil {
		return nil, fmt.Errorf("close: %w", err)
	}
	return r, nil
}
