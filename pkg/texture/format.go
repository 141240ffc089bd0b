// Package texture converts PSB pixel data between its platform-native
// layouts and a canonical RGBA8 raster.
//
// Each PixelFormat is described by a row in a static table (bit depth,
// channel encoding, per-pixel byte order and memory layout). The decode
// and encode pipelines are derived from that row once at startup; block
// compressed and palette-indexed formats take dedicated paths. Every
// operation returns freshly allocated buffers and never modifies its
// input.
package texture

import (
	"strconv"
	"strings"

	"github.com/EchoTools/psbFileTools/pkg/astc"
	"github.com/EchoTools/psbFileTools/pkg/bc"
)

// PixelFormat identifies a native pixel layout.
type PixelFormat int

const (
	None PixelFormat = iota
	LeRGBA8
	BeRGBA8
	LeRGBA4444
	BeRGBA4444
	RGBA5650
	LeRGBA5551
	RGB5A3
	A8L8
	L8
	A8
	DXT1
	DXT5
	BC7
	ASTC8BPP
	CI4
	CI8
	LeRGBA8SW
	BeRGBA8SW
	LeRGBA4444SW
	RGBA5650SW
	A8L8SW
	L8SW
	A8SW
	FlipLeRGBA8SW
	FlipBeRGBA8SW
	TileLeRGBA8SW
	TileBeRGBA8SW
	TileLeRGBA4444SW
	TileRGBA5650SW
	TileA8L8SW
	TileL8SW
	TileA8SW
	TileBeRGBA8Rvl
	TileCI4
	TileCI8
	CI4SW
	CI8SW
	CI4SWPSP
	CI8SWPSP
	BC7SW

	formatCount
)

// channel is how one stored element maps to an RGBA8 pixel.
type channel uint8

const (
	chNone channel = iota
	chRGBA8
	chRGBA4444LE
	chRGBA4444BE
	chRGBA5650
	chRGBA5551
	chRGB5A3
	chA8L8
	chL8
	chA8
	chDXT1
	chDXT5
	chBC7
	chASTC
	chIndex
)

// byteOrder is a permutation of the four bytes of a 32-bit pixel.
type byteOrder uint8

const (
	orderNone byteOrder = iota
	orderSwap02
	orderReverse
	orderRotateLeft
	orderRotateRight
)

// layout is the memory arrangement of elements.
type layout uint8

const (
	layoutLinear layout = iota
	layoutSwizzle
	layoutSwizzlePSP
	layoutTile
	layoutTileRvl
	layoutFlipSwizzle
	layoutTileBlocks
)

type formatInfo struct {
	name       string
	bits       int
	channel    channel
	order      byteOrder
	layout     layout
	block      int // bytes per compressed block
	blockW     int // texels per block, horizontally
	blockH     int
	decodeOnly bool
}

// blockCount returns how many blocks cover a w x h image.
func (i formatInfo) blockCount(w, h int) (bx, by int) {
	return (w + i.blockW - 1) / i.blockW, (h + i.blockH - 1) / i.blockH
}

var formats = [formatCount]formatInfo{
	None:       {name: "None"},
	LeRGBA8:    {name: "LeRGBA8", bits: 32, channel: chRGBA8, order: orderSwap02},
	BeRGBA8:    {name: "BeRGBA8", bits: 32, channel: chRGBA8},
	LeRGBA4444: {name: "LeRGBA4444", bits: 16, channel: chRGBA4444LE},
	BeRGBA4444: {name: "BeRGBA4444", bits: 16, channel: chRGBA4444BE},
	RGBA5650:   {name: "RGBA5650", bits: 16, channel: chRGBA5650},
	LeRGBA5551: {name: "LeRGBA5551", bits: 16, channel: chRGBA5551},
	RGB5A3:     {name: "RGB5A3", bits: 16, channel: chRGB5A3, layout: layoutTileRvl},
	A8L8:       {name: "A8L8", bits: 16, channel: chA8L8},
	L8:         {name: "L8", bits: 8, channel: chL8},
	A8:         {name: "A8", bits: 8, channel: chA8},
	DXT1:       {name: "DXT1", bits: 4, channel: chDXT1, block: bc.DXT1BlockSize, blockW: 4, blockH: 4},
	DXT5:       {name: "DXT5", bits: 8, channel: chDXT5, block: bc.DXT5BlockSize, blockW: 4, blockH: 4},
	BC7:        {name: "BC7", bits: 8, channel: chBC7, block: bc.BC7BlockSize, blockW: 4, blockH: 4, decodeOnly: true},
	ASTC8BPP:   {name: "ASTC8BPP", bits: 8, channel: chASTC, block: astc.BlockSize, blockW: 4, blockH: 4, decodeOnly: true},
	CI4:        {name: "CI4", bits: 4, channel: chIndex},
	CI8:        {name: "CI8", bits: 8, channel: chIndex},

	LeRGBA8SW:     {name: "LeRGBA8SW", bits: 32, channel: chRGBA8, order: orderSwap02, layout: layoutSwizzle},
	BeRGBA8SW:     {name: "BeRGBA8SW", bits: 32, channel: chRGBA8, layout: layoutSwizzle},
	LeRGBA4444SW:  {name: "LeRGBA4444SW", bits: 16, channel: chRGBA4444LE, layout: layoutSwizzle},
	RGBA5650SW:    {name: "RGBA5650SW", bits: 16, channel: chRGBA5650, layout: layoutSwizzle},
	A8L8SW:        {name: "A8L8SW", bits: 16, channel: chA8L8, layout: layoutSwizzle},
	L8SW:          {name: "L8SW", bits: 8, channel: chL8, layout: layoutSwizzle},
	A8SW:          {name: "A8SW", bits: 8, channel: chA8, layout: layoutSwizzle},
	FlipLeRGBA8SW: {name: "FlipLeRGBA8SW", bits: 32, channel: chRGBA8, order: orderSwap02, layout: layoutFlipSwizzle},
	FlipBeRGBA8SW: {name: "FlipBeRGBA8SW", bits: 32, channel: chRGBA8, order: orderRotateLeft, layout: layoutFlipSwizzle},

	TileLeRGBA8SW:    {name: "TileLeRGBA8SW", bits: 32, channel: chRGBA8, order: orderSwap02, layout: layoutTile},
	TileBeRGBA8SW:    {name: "TileBeRGBA8SW", bits: 32, channel: chRGBA8, order: orderReverse, layout: layoutTile},
	TileLeRGBA4444SW: {name: "TileLeRGBA4444SW", bits: 16, channel: chRGBA4444LE, layout: layoutTile},
	TileRGBA5650SW:   {name: "TileRGBA5650SW", bits: 16, channel: chRGBA5650, layout: layoutTile},
	TileA8L8SW:       {name: "TileA8L8SW", bits: 16, channel: chA8L8, layout: layoutTile},
	TileL8SW:         {name: "TileL8SW", bits: 8, channel: chL8, layout: layoutTile},
	TileA8SW:         {name: "TileA8SW", bits: 8, channel: chA8, layout: layoutTile},
	TileBeRGBA8Rvl:   {name: "TileBeRGBA8Rvl", bits: 32, channel: chRGBA8, order: orderReverse, layout: layoutTileRvl, decodeOnly: true},

	TileCI4:  {name: "TileCI4", bits: 4, channel: chIndex, layout: layoutTileRvl},
	TileCI8:  {name: "TileCI8", bits: 8, channel: chIndex, layout: layoutTileRvl},
	CI4SW:    {name: "CI4SW", bits: 4, channel: chIndex, layout: layoutSwizzle},
	CI8SW:    {name: "CI8SW", bits: 8, channel: chIndex, layout: layoutSwizzle},
	CI4SWPSP: {name: "CI4SWPSP", bits: 4, channel: chIndex, layout: layoutSwizzlePSP},
	CI8SWPSP: {name: "CI8SWPSP", bits: 8, channel: chIndex, layout: layoutSwizzlePSP},
	BC7SW:    {name: "BC7SW", bits: 8, channel: chBC7, block: bc.BC7BlockSize, blockW: 4, blockH: 4, layout: layoutTileBlocks, decodeOnly: true},
}

func (f PixelFormat) info() formatInfo {
	if f < 0 || f >= formatCount {
		return formats[None]
	}
	return formats[f]
}

// Valid reports whether f names a real pixel layout.
func (f PixelFormat) Valid() bool { return f > None && f < formatCount }

func (f PixelFormat) String() string {
	if f < 0 || f >= formatCount {
		return "PixelFormat(" + strconv.Itoa(int(f)) + ")"
	}
	return formats[f].name
}

// BitsPerPixel returns the stored bits per pixel (averaged over a block
// for compressed formats).
func (f PixelFormat) BitsPerPixel() int { return f.info().bits }

// IsBlockCompressed reports whether f stores 4x4 compressed blocks.
func (f PixelFormat) IsBlockCompressed() bool { return f.info().block > 0 }

// IsIndexed reports whether f stores palette indices.
func (f PixelFormat) IsIndexed() bool { return f.info().channel == chIndex }

// CanEncode reports whether Encode (or EncodeIndexed) accepts f.
func (f PixelFormat) CanEncode() bool {
	i := f.info()
	return f.Valid() && !i.decodeOnly
}

// Formats returns every valid format in declaration order.
func Formats() []PixelFormat {
	out := make([]PixelFormat, 0, formatCount-1)
	for f := None + 1; f < formatCount; f++ {
		out = append(out, f)
	}
	return out
}

// ParseFormat looks a format up by its String name, ignoring case and
// underscores, so "TileCI4", "tileci4" and "CI4_SW_PSP" all resolve.
func ParseFormat(name string) (PixelFormat, bool) {
	key := normalizeName(name)
	for f := None + 1; f < formatCount; f++ {
		if normalizeName(formats[f].name) == key {
			return f, true
		}
	}
	return None, false
}

func normalizeName(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "_", ""))
}

// Stride returns the bytes per stored row. Block formats count one row
// of 4x4 blocks.
func Stride(width int, f PixelFormat) int {
	i := f.info()
	if i.block > 0 {
		bx, _ := i.blockCount(width, 1)
		return bx * i.block
	}
	return (width*i.bits + 7) / 8
}

// RequiredSize returns the minimum raw length for a width x height image.
func RequiredSize(width, height int, f PixelFormat) int {
	if i := f.info(); i.block > 0 {
		_, by := i.blockCount(width, height)
		return Stride(width, f) * by
	}
	return Stride(width, f) * height
}
