package resource

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/image/bmp"

	"github.com/EchoTools/psbFileTools/pkg/errkind"
	"github.com/EchoTools/psbFileTools/pkg/rle"
	"github.com/EchoTools/psbFileTools/pkg/texture"
)

// NameDelimiter joins part and name in exported file names.
const NameDelimiter = "-"

// Metadata describes one image resource. It is stored next to the
// resource bytes as a JSON sidecar.
type Metadata struct {
	Part        string          `json:"part,omitempty"`
	Name        string          `json:"name,omitempty"`
	Index       uint32          `json:"index"`
	Compress    CompressionKind `json:"compress"`
	Width       int             `json:"width"`
	Height      int             `json:"height"`
	Type        string          `json:"type"`
	Spec        Spec            `json:"spec"`
	PaletteType string          `json:"paletteType,omitempty"`
	// Align is the RL element size; zero means rle.DefaultAlign.
	Align int `json:"align,omitempty"`
}

// PixelFormat resolves Type under Spec.
func (m *Metadata) PixelFormat() texture.PixelFormat {
	return ParsePixelFormat(m.Type, m.Spec)
}

// PaletteFormat resolves PaletteType under Spec. An empty palette type
// gives texture.None, which the palette decoder reads as LeRGBA8.
func (m *Metadata) PaletteFormat() texture.PixelFormat {
	if m.PaletteType == "" {
		return texture.None
	}
	return ParsePixelFormat(m.PaletteType, m.Spec)
}

// Compression returns the effective compression, resolving ByName.
func (m *Metadata) Compression() CompressionKind {
	if m.Compress == CompressByName {
		return CompressionFromName(m.Name)
	}
	return m.Compress
}

func (m *Metadata) align() int {
	if m.Align == 0 {
		return rle.DefaultAlign
	}
	return m.Align
}

// FriendlyName is the base file name used on export and import.
func (m *Metadata) FriendlyName() string {
	switch {
	case m.Part != "" && m.Name != "":
		return m.Part + NameDelimiter + m.Name
	case m.Name != "":
		return strings.TrimSuffix(path.Base(m.Name), extension(m.Name))
	}
	return strconv.FormatUint(uint64(m.Index), 10)
}

func (m *Metadata) String() string {
	s := m.Name
	if m.Part != "" {
		s = m.Part + "/" + s
	}
	s += fmt.Sprintf("(%d*%d)", m.Width, m.Height)
	if m.Compression() == CompressRL {
		s += "[RL]"
	}
	return s
}

func (m *Metadata) checkFormat() (texture.PixelFormat, error) {
	if err := errkind.CheckDimensions(m.Width, m.Height); err != nil {
		return texture.None, err
	}
	f := m.PixelFormat()
	if !f.Valid() {
		return f, errors.Wrapf(errkind.ErrUnsupportedFormat, "type %q under spec %v", m.Type, m.Spec)
	}
	return f, nil
}

// ToImage converts resource bytes to an image. Indexed formats give an
// *image.Paletted built with palette; everything else an *image.NRGBA.
func (m *Metadata) ToImage(data, palette []byte) (image.Image, error) {
	switch m.Compression() {
	case CompressTlg:
		return nil, errors.Wrap(errkind.ErrUnsupportedFormat, "tlg images")
	case CompressBmp:
		img, err := bmp.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, errors.Wrap(errkind.ErrCorruptData, err.Error())
		}
		return img, nil
	}

	f, err := m.checkFormat()
	if err != nil {
		return nil, err
	}

	if m.Compression() == CompressRL {
		data, err = rle.Decompress(data, m.align(), texture.RequiredSize(m.Width, m.Height, f))
		if err != nil {
			return nil, errors.WithMessagef(err, "resource %s", m.FriendlyName())
		}
	}

	if f.IsIndexed() {
		r, err := texture.DecodeIndexed(data, m.Width, m.Height, f, texture.Options{
			Palette:       palette,
			PaletteFormat: m.PaletteFormat(),
		})
		if err != nil {
			return nil, err
		}
		return r.Paletted(), nil
	}

	r, err := texture.Decode(data, m.Width, m.Height, f)
	if err != nil {
		return nil, err
	}
	return r.NRGBA(), nil
}

// SetImage converts an image to resource bytes, compressing them when
// the resource is RL. Indexed formats need an *image.Paletted; its
// palette is written separately by EncodePalette.
func (m *Metadata) SetImage(img image.Image) ([]byte, error) {
	switch m.Compression() {
	case CompressTlg:
		return nil, errors.Wrap(errkind.ErrUnsupportedFormat, "tlg images")
	case CompressBmp:
		var buf bytes.Buffer
		if err := bmp.Encode(&buf, img); err != nil {
			return nil, errors.Wrap(err, "bmp encode")
		}
		return buf.Bytes(), nil
	}

	f, err := m.checkFormat()
	if err != nil {
		return nil, err
	}
	if b := img.Bounds(); b.Dx() != m.Width || b.Dy() != m.Height {
		return nil, errors.Wrapf(errkind.ErrInvalidParameter, "image is %dx%d, resource is %dx%d",
			b.Dx(), b.Dy(), m.Width, m.Height)
	}

	var raw []byte
	if f.IsIndexed() {
		p, ok := img.(*image.Paletted)
		if !ok {
			return nil, errors.Wrapf(errkind.ErrUnsupportedFormat, "%v needs a paletted image", f)
		}
		raw, err = texture.EncodeIndexed(texture.IndexedFromImage(p, f.BitsPerPixel()), f)
	} else {
		raw, err = texture.Encode(texture.FromImage(img), f)
	}
	if err != nil {
		return nil, err
	}

	if m.Compression() == CompressRL {
		return rle.Compress(raw, m.align())
	}
	return raw, nil
}

// EncodePalette stores pal in the resource's palette format.
func (m *Metadata) EncodePalette(pal color.Palette) ([]byte, error) {
	return texture.EncodePalette(pal, m.PaletteFormat())
}

// ReadMetadataFile loads a JSON sidecar.
func ReadMetadataFile(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse metadata %s: %w", path, err)
	}
	return &m, nil
}

// WriteMetadataFile stores m as an indented JSON sidecar.
func WriteMetadataFile(path string, m *Metadata) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}
