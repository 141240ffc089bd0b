package archive

import (
	"fmt"
	"io"

	"github.com/DataDog/zstd"
	"github.com/pkg/errors"

	"github.com/EchoTools/psbFileTools/pkg/errkind"
	"github.com/EchoTools/psbFileTools/pkg/texture"
)

// Writer compresses pixels into a raster file. The header is written
// first with a zero compressed length and patched by Close.
type Writer struct {
	dst     io.WriteSeeker
	start   int64
	zWriter *zstd.Writer
	header  *Header
	level   int
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithCompressionLevel sets the zstd compression level.
func WithCompressionLevel(level int) WriterOption {
	return func(w *Writer) {
		w.level = level
	}
}

// NewWriter starts a width x height raster file at the current position of dst.
func NewWriter(dst io.WriteSeeker, width, height int, opts ...WriterOption) (*Writer, error) {
	if err := errkind.CheckDimensions(width, height); err != nil {
		return nil, err
	}
	start, err := dst.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("get position: %w", err)
	}

	w := &Writer{
		dst:    dst,
		start:  start,
		level:  DefaultCompressionLevel,
		header: NewHeader(width, height),
	}
	for _, opt := range opts {
		opt(w)
	}

	headerBytes, err := w.header.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal header: %w", err)
	}
	if _, err := dst.Write(headerBytes); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	w.zWriter = zstd.NewWriterLevel(dst, w.level)
	return w, nil
}

// Write compresses pixel bytes.
func (w *Writer) Write(p []byte) (n int, err error) {
	return w.zWriter.Write(p)
}

// Close flushes the compressor and records the compressed size.
func (w *Writer) Close() error {
	if err := w.zWriter.Close(); err != nil {
		return fmt.Errorf("close compressor: %w", err)
	}

	pos, err := w.dst.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("get position: %w", err)
	}
	w.header.CompressedLength = uint64(pos - w.start - HeaderSize)

	if _, err := w.dst.Seek(w.start, io.SeekStart); err != nil {
		return fmt.Errorf("seek to header: %w", err)
	}
	headerBytes, err := w.header.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshal header: %w", err)
	}
	if _, err := w.dst.Write(headerBytes); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := w.dst.Seek(pos, io.SeekStart); err != nil {
		return fmt.Errorf("seek to end: %w", err)
	}

	return nil
}

// Encode writes r as a raster file to dst.
func Encode(dst io.WriteSeeker, r *texture.Raster, opts ...WriterOption) error {
	if r == nil {
		return errors.Wrap(errkind.ErrInvalidParameter, "nil raster")
	}
	if err := errkind.CheckLength("raster", len(r.Pix), r.Width*r.Height*4); err != nil {
		return err
	}

	w, err := NewWriter(dst, r.Width, r.Height, opts...)
	if err != nil {
		return err
	}
	if _, err := w.Write(r.Pix[:r.Width*r.Height*4]); err != nil {
		return fmt.Errorf("write pixels: %w", err)
	}
	return w.Close()
}
