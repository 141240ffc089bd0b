// Package resource ties PSB image resources to the texture engine: it
// resolves a resource's pixel type string under its platform spec,
// undoes resource-level compression and converts to and from images.
package resource

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/EchoTools/psbFileTools/pkg/errkind"
	"github.com/EchoTools/psbFileTools/pkg/texture"
)

// CompressionKind is how a resource's bytes are stored.
type CompressionKind int

const (
	CompressNone CompressionKind = iota
	CompressRL
	CompressBmp
	CompressTlg
	// CompressByName picks one of the above from the resource name's extension.
	CompressByName
)

var compressionNames = [...]string{"None", "RL", "Bmp", "Tlg", "ByName"}

func (c CompressionKind) String() string {
	if c < 0 || int(c) >= len(compressionNames) {
		return "Unknown"
	}
	return compressionNames[c]
}

func (c CompressionKind) MarshalText() ([]byte, error) {
	if c < 0 || int(c) >= len(compressionNames) {
		return nil, errors.Wrapf(errkind.ErrInvalidParameter, "compression kind %d", int(c))
	}
	return []byte(compressionNames[c]), nil
}

func (c *CompressionKind) UnmarshalText(b []byte) error {
	for i, n := range compressionNames {
		if strings.EqualFold(n, string(b)) {
			*c = CompressionKind(i)
			return nil
		}
	}
	return errors.Wrapf(errkind.ErrInvalidParameter, "compression kind %q", b)
}

// CompressionFromName maps a file extension to a compression kind.
func CompressionFromName(name string) CompressionKind {
	switch strings.ToLower(extension(name)) {
	case ".tlg":
		return CompressTlg
	case ".bmp":
		return CompressBmp
	case ".rl":
		return CompressRL
	}
	return CompressNone
}

func extension(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 && !strings.ContainsAny(name[i:], "/\\") {
		return name[i:]
	}
	return ""
}

// Spec is the platform a PSB was built for. It decides byte order and
// which layout a type string refers to.
type Spec int

const (
	SpecNone Spec = iota
	SpecKrkr
	SpecCommon
	SpecWin
	SpecEms
	SpecVita
	SpecPsp
	SpecNx
	SpecPs3
	SpecPs4
	SpecRevo
	SpecCitrus
	SpecOther
)

var specNames = [...]string{"none", "krkr", "common", "win", "ems", "vita", "psp", "nx", "ps3", "ps4", "revo", "citrus", "other"}

func (s Spec) String() string {
	if s < 0 || int(s) >= len(specNames) {
		return "other"
	}
	return specNames[s]
}

// ParseSpec looks a spec up by name, ignoring case.
func ParseSpec(name string) (Spec, bool) {
	for i, n := range specNames {
		if strings.EqualFold(n, name) {
			return Spec(i), true
		}
	}
	return SpecOther, false
}

func (s Spec) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Spec) UnmarshalText(b []byte) error {
	v, ok := ParseSpec(string(b))
	if !ok {
		return errors.Wrapf(errkind.ErrInvalidParameter, "spec %q", b)
	}
	*s = v
	return nil
}

// IsBigEndian reports whether 32-bit pixels are stored R, G, B, A.
func (s Spec) IsBigEndian() bool {
	switch s {
	case SpecCommon, SpecEms, SpecVita, SpecPsp:
		return true
	}
	return false
}

// ParsePixelFormat resolves a resource type string such as "RGBA8_SW"
// under spec. Names that are not resource types are tried as
// texture.PixelFormat names, so "FlipLeRGBA8_SW" also resolves. Unknown
// names give texture.None.
func ParsePixelFormat(typ string, spec Spec) texture.PixelFormat {
	be := spec.IsBigEndian()
	pick := func(big, little texture.PixelFormat) texture.PixelFormat {
		if be {
			return big
		}
		return little
	}

	switch strings.ToUpper(typ) {
	case "RGBA8":
		if spec == SpecRevo {
			return texture.TileBeRGBA8Rvl
		}
		return pick(texture.BeRGBA8, texture.LeRGBA8)
	case "RGBA8_SW":
		switch spec {
		case SpecPs3:
			return texture.FlipBeRGBA8SW
		case SpecPs4:
			return pick(texture.TileBeRGBA8SW, texture.TileLeRGBA8SW)
		}
		return pick(texture.BeRGBA8SW, texture.LeRGBA8SW)
	case "RGBA4444":
		return pick(texture.BeRGBA4444, texture.LeRGBA4444)
	case "RGBA4444_SW":
		if spec == SpecPs4 {
			return texture.TileLeRGBA4444SW
		}
		return texture.LeRGBA4444SW
	case "RGBA5650":
		return texture.RGBA5650
	case "RGBA5650_SW":
		if spec == SpecPs4 {
			return texture.TileRGBA5650SW
		}
		return texture.RGBA5650SW
	case "RGBA5551":
		return texture.LeRGBA5551
	case "RGB5A3":
		return texture.RGB5A3
	case "A8L8":
		return texture.A8L8
	case "A8L8_SW":
		if spec == SpecPs4 {
			return texture.TileA8L8SW
		}
		return texture.A8L8SW
	case "L8":
		return texture.L8
	case "L8_SW":
		if spec == SpecPs4 {
			return texture.TileL8SW
		}
		return texture.L8SW
	case "A8":
		return texture.A8
	case "A8_SW":
		if spec == SpecPs4 {
			return texture.TileA8SW
		}
		return texture.A8SW
	case "DXT1":
		return texture.DXT1
	case "DXT5":
		return texture.DXT5
	case "BC7":
		return texture.BC7
	case "BC7_SW":
		return texture.BC7SW
	case "ASTC_8BPP":
		return texture.ASTC8BPP
	case "CI4":
		if spec == SpecRevo {
			return texture.TileCI4
		}
		return texture.CI4
	case "CI8":
		if spec == SpecRevo {
			return texture.TileCI8
		}
		return texture.CI8
	case "CI4_SW":
		if spec == SpecPsp {
			return texture.CI4SWPSP
		}
		return texture.CI4SW
	case "CI8_SW":
		if spec == SpecPsp {
			return texture.CI8SWPSP
		}
		return texture.CI8SW
	}

	if f, ok := texture.ParseFormat(typ); ok {
		return f
	}
	return texture.None
}

// TypeName returns the resource type string that resolves to f under
// the platform spec f belongs to. It is the name written back into metadata.
func TypeName(f texture.PixelFormat) string {
	switch f {
	case texture.LeRGBA8, texture.BeRGBA8, texture.TileBeRGBA8Rvl:
		return "RGBA8"
	case texture.LeRGBA8SW, texture.BeRGBA8SW, texture.FlipLeRGBA8SW, texture.FlipBeRGBA8SW,
		texture.TileLeRGBA8SW, texture.TileBeRGBA8SW:
		return "RGBA8_SW"
	case texture.LeRGBA4444, texture.BeRGBA4444:
		return "RGBA4444"
	case texture.LeRGBA4444SW, texture.TileLeRGBA4444SW:
		return "RGBA4444_SW"
	case texture.RGBA5650SW, texture.TileRGBA5650SW:
		return "RGBA5650_SW"
	case texture.LeRGBA5551:
		return "RGBA5551"
	case texture.A8L8SW, texture.TileA8L8SW:
		return "A8L8_SW"
	case texture.L8SW, texture.TileL8SW:
		return "L8_SW"
	case texture.A8SW, texture.TileA8SW:
		return "A8_SW"
	case texture.BC7SW:
		return "BC7_SW"
	case texture.ASTC8BPP:
		return "ASTC_8BPP"
	case texture.TileCI4:
		return "CI4"
	case texture.TileCI8:
		return "CI8"
	case texture.CI4SW, texture.CI4SWPSP:
		return "CI4_SW"
	case texture.CI8SW, texture.CI8SWPSP:
		return "CI8_SW"
	case texture.None:
		return ""
	}
	// RGBA5650, RGB5A3, A8L8, L8, A8, DXT1, DXT5, BC7, CI4, CI8
	return f.String()
}
