package texture

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"

	"github.com/EchoTools/psbFileTools/pkg/errkind"
)

// DXGI formats that PSB payloads map onto without conversion.
const (
	DXGI_FORMAT_UNKNOWN        = 0
	DXGI_FORMAT_R8G8B8A8_UNORM = 28
	DXGI_FORMAT_BC1_UNORM      = 71
	DXGI_FORMAT_BC3_UNORM      = 77
	DXGI_FORMAT_BC7_UNORM      = 98
)

// DDS header constants
const (
	DDS_MAGIC                    = 0x20534444 // "DDS "
	DDS_HEADER_SIZE              = 124
	DDS_HEADER_FLAGS_CAPS        = 0x1
	DDS_HEADER_FLAGS_HEIGHT      = 0x2
	DDS_HEADER_FLAGS_WIDTH       = 0x4
	DDS_HEADER_FLAGS_PITCH       = 0x8
	DDS_HEADER_FLAGS_PIXELFORMAT = 0x1000
	DDS_HEADER_FLAGS_MIPMAPCOUNT = 0x20000
	DDS_HEADER_FLAGS_LINEARSIZE  = 0x80000

	DDS_SURFACE_FLAGS_COMPLEX = 0x8
	DDS_SURFACE_FLAGS_TEXTURE = 0x1000
	DDS_SURFACE_FLAGS_MIPMAP  = 0x400000

	DDS_PIXELFORMAT_SIZE = 32
	DDS_FOURCC           = 0x4

	DX10_FOURCC = 0x30315844 // "DX10"

	// DDSHeaderSize is magic + header + DX10 extension.
	DDSHeaderSize = 4 + DDS_HEADER_SIZE + 20
)

// ddsHeader mirrors DDS_HEADER followed by DDS_HEADER_DXT10.
type ddsHeader struct {
	Magic             uint32
	Size              uint32
	Flags             uint32
	Height            uint32
	Width             uint32
	PitchOrLinearSize uint32
	Depth             uint32
	MipMapCount       uint32
	Reserved1         [11]uint32
	PFSize            uint32
	PFFlags           uint32
	PFFourCC          uint32
	PFBitCount        uint32
	PFMasks           [4]uint32
	Caps              [4]uint32
	Reserved2         uint32
	DXGIFormat        uint32
	ResourceDimension uint32
	MiscFlag          uint32
	ArraySize         uint32
	MiscFlags2        uint32
}

// DXGIFormat returns the DXGI format storing f byte-for-byte.
func DXGIFormat(f PixelFormat) (uint32, bool) {
	switch f {
	case DXT1:
		return DXGI_FORMAT_BC1_UNORM, true
	case DXT5:
		return DXGI_FORMAT_BC3_UNORM, true
	case BC7:
		return DXGI_FORMAT_BC7_UNORM, true
	case BeRGBA8:
		return DXGI_FORMAT_R8G8B8A8_UNORM, true
	}
	return DXGI_FORMAT_UNKNOWN, false
}

// FormatName returns a human-readable name for a DXGI_FORMAT value.
func FormatName(format uint32) string {
	switch format {
	case DXGI_FORMAT_BC1_UNORM:
		return "BC1_UNORM"
	case DXGI_FORMAT_BC3_UNORM:
		return "BC3_UNORM"
	case DXGI_FORMAT_BC7_UNORM:
		return "BC7_UNORM"
	case DXGI_FORMAT_R8G8B8A8_UNORM:
		return "R8G8B8A8_UNORM"
	default:
		return fmt.Sprintf("UNKNOWN(0x%x)", format)
	}
}

// WrapDDS prefixes a raw payload with a DX10 DDS header, without
// decoding it. Only formats with a DXGI equivalent are accepted.
func WrapDDS(raw []byte, w, h int, f PixelFormat) ([]byte, error) {
	return WrapDDSLevels([][]byte{raw}, w, h, f)
}

// MipSize returns the dimensions of mip level i of a w x h texture.
func MipSize(w, h, level int) (int, int) {
	w, h = w>>uint(level), h>>uint(level)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// WrapDDSLevels writes a DDS file holding a mip chain. levels[0] is the
// full-size payload; each following level halves both dimensions.
func WrapDDSLevels(levels [][]byte, w, h int, f PixelFormat) ([]byte, error) {
	if err := errkind.CheckDimensions(w, h); err != nil {
		return nil, err
	}
	if len(levels) == 0 {
		return nil, errors.Wrap(errkind.ErrInvalidParameter, "dds: no mip levels")
	}
	dxgi, ok := DXGIFormat(f)
	if !ok {
		return nil, errors.Wrapf(errkind.ErrUnsupportedFormat, "%v has no DDS equivalent", f)
	}

	sizes := make([]int, len(levels))
	total := 0
	for i, raw := range levels {
		mw, mh := MipSize(w, h, i)
		sizes[i] = RequiredSize(mw, mh, f)
		if len(raw) < sizes[i] {
			return nil, errors.Wrapf(errkind.ErrCorruptData, "dds mip %d: need %d bytes, got %d", i, sizes[i], len(raw))
		}
		total += sizes[i]
	}

	hdr := ddsHeader{
		Magic:             DDS_MAGIC,
		Size:              DDS_HEADER_SIZE,
		Flags:             DDS_HEADER_FLAGS_CAPS | DDS_HEADER_FLAGS_HEIGHT | DDS_HEADER_FLAGS_WIDTH | DDS_HEADER_FLAGS_PIXELFORMAT,
		Height:            uint32(h),
		Width:             uint32(w),
		MipMapCount:       uint32(len(levels)),
		PFSize:            DDS_PIXELFORMAT_SIZE,
		PFFlags:           DDS_FOURCC,
		PFFourCC:          DX10_FOURCC,
		Caps:              [4]uint32{DDS_SURFACE_FLAGS_TEXTURE},
		DXGIFormat:        dxgi,
		ResourceDimension: 3, // TEXTURE2D
		ArraySize:         1,
	}
	if f.IsBlockCompressed() {
		hdr.Flags |= DDS_HEADER_FLAGS_LINEARSIZE
		hdr.PitchOrLinearSize = uint32(sizes[0])
	} else {
		hdr.Flags |= DDS_HEADER_FLAGS_PITCH
		hdr.PitchOrLinearSize = uint32(Stride(w, f))
	}
	if len(levels) > 1 {
		hdr.Flags |= DDS_HEADER_FLAGS_MIPMAPCOUNT
		hdr.Caps[0] |= DDS_SURFACE_FLAGS_COMPLEX | DDS_SURFACE_FLAGS_MIPMAP
	}

	var buf bytes.Buffer
	buf.Grow(DDSHeaderSize + total)
	if err := binary.Write(&buf, binary.LittleEndian, &hdr); err != nil {
		return nil, errors.Wrap(err, "dds header")
	}
	for i, raw := range levels {
		buf.Write(raw[:sizes[i]])
	}
	return buf.Bytes(), nil
}

// DDSImage is a parsed DX10 DDS file.
type DDSImage struct {
	Width      int
	Height     int
	DXGIFormat uint32
	Format     PixelFormat
	MipCount   int
	// Payload holds every mip level; the full-size image comes first.
	Payload []byte
}

// ParseDDS reads a DX10 DDS file produced by WrapDDS or compatible tools.
func ParseDDS(data []byte) (*DDSImage, error) {
	if len(data) < DDSHeaderSize {
		return nil, errors.Wrapf(errkind.ErrCorruptData, "dds: %d bytes is shorter than the header", len(data))
	}
	var hdr ddsHeader
	if err := binary.Read(bytes.NewReader(data[:DDSHeaderSize]), binary.LittleEndian, &hdr); err != nil {
		return nil, errors.Wrap(errkind.ErrCorruptData, err.Error())
	}
	if hdr.Magic != DDS_MAGIC || hdr.Size != DDS_HEADER_SIZE {
		return nil, errors.Wrap(errkind.ErrCorruptData, "dds: bad magic")
	}
	if hdr.PFFourCC != DX10_FOURCC {
		return nil, errors.Wrap(errkind.ErrUnsupportedFormat, "dds: only DX10 headers are supported")
	}

	img := &DDSImage{
		Width:      int(hdr.Width),
		Height:     int(hdr.Height),
		DXGIFormat: hdr.DXGIFormat,
		MipCount:   int(hdr.MipMapCount),
		Payload:    data[DDSHeaderSize:],
	}
	if img.MipCount == 0 {
		img.MipCount = 1
	}
	for _, f := range []PixelFormat{DXT1, DXT5, BC7, BeRGBA8} {
		if d, _ := DXGIFormat(f); d == hdr.DXGIFormat {
			img.Format = f
		}
	}
	if img.Format == None {
		return nil, errors.Wrapf(errkind.ErrUnsupportedFormat, "dds: %s", FormatName(hdr.DXGIFormat))
	}
	if err := errkind.CheckLength("dds payload", len(img.Payload), RequiredSize(img.Width, img.Height, img.Format)); err != nil {
		return nil, err
	}
	return img, nil
}
