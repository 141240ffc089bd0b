// Package imagefile reads and writes editable images by file extension.
// A .rgbz file holds an exact zstd-compressed RGBA raster; the other
// extensions go through bild's imgio.
package imagefile

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/pkg/errors"

	"github.com/EchoTools/psbFileTools/pkg/archive"
	"github.com/EchoTools/psbFileTools/pkg/errkind"
	"github.com/EchoTools/psbFileTools/pkg/texture"
)

// Extensions lists the writable extensions in order of preference.
var Extensions = []string{".png", archive.Ext, ".bmp", ".jpg", ".jpeg"}

// Supported reports whether path has an extension Write understands.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Read opens a PNG/JPEG/BMP image or a .rgbz raster.
func Read(path string) (image.Image, error) {
	if strings.EqualFold(filepath.Ext(path), archive.Ext) {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open: %w", err)
		}
		defer f.Close()

		r, err := archive.ReadRaster(f)
		if err != nil {
			return nil, fmt.Errorf("read raster %s: %w", path, err)
		}
		return r.NRGBA(), nil
	}

	img, err := imgio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	return img, nil
}

// Write saves img in the format named by the extension of path. Paletted
// images stay paletted in PNG output.
func Write(path string, img image.Image) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == archive.Ext {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()

		if err := archive.Encode(f, texture.FromImage(img)); err != nil {
			return fmt.Errorf("write raster: %w", err)
		}
		return f.Close()
	}

	var enc imgio.Encoder
	switch ext {
	case ".png":
		enc = imgio.PNGEncoder()
	case ".jpg", ".jpeg":
		enc = imgio.JPEGEncoder(95)
	case ".bmp":
		enc = imgio.BMPEncoder()
	default:
		return errors.Wrapf(errkind.ErrUnsupportedFormat, "output extension %q", ext)
	}
	if err := imgio.Save(path, img, enc); err != nil {
		return fmt.Errorf("save image: %w", err)
	}
	return nil
}
