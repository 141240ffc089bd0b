package texture

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/EchoTools/psbFileTools/pkg/astc"
	"github.com/EchoTools/psbFileTools/pkg/bc"
	"github.com/EchoTools/psbFileTools/pkg/errkind"
)

type stepOp uint8

const (
	opExpand stepOp = iota
	opContract
	opReorder
	opUnlayout
	opRelayout
	opUntileBlocks
	opBlockDecode
	opBlockEncode
)

// step is one stage of a pipeline. Only the fields relevant to op are set.
type step struct {
	op      stepOp
	channel channel
	order   byteOrder
	layout  layout
}

var (
	channelNames = [...]string{"none", "rgba8", "rgba4444le", "rgba4444be", "rgba5650", "rgba5551",
		"rgb5a3", "a8l8", "l8", "a8", "dxt1", "dxt5", "bc7", "astc", "index"}
	orderNames  = [...]string{"none", "swap02", "reverse", "rotl", "rotr"}
	layoutNames = [...]string{"linear", "swizzle", "swizzle-psp", "tile", "tile-rvl", "flip-swizzle", "tile-blocks"}
)

func (s step) String() string {
	switch s.op {
	case opExpand:
		return "expand(" + channelNames[s.channel] + ")"
	case opContract:
		return "contract(" + channelNames[s.channel] + ")"
	case opReorder:
		return "reorder(" + orderNames[s.order] + ")"
	case opUnlayout:
		return "un" + layoutNames[s.layout]
	case opRelayout:
		return layoutNames[s.layout]
	case opUntileBlocks:
		return "untile-blocks"
	case opBlockDecode:
		return "decode(" + channelNames[s.channel] + ")"
	case opBlockEncode:
		return "encode(" + channelNames[s.channel] + ")"
	}
	return "?"
}

type pipeline struct {
	decode []step
	encode []step
}

var pipelines [formatCount]pipeline

func init() {
	for f := None + 1; f < formatCount; f++ {
		pipelines[f] = derive(formats[f])
	}
}

// derive builds the decode and encode step lists for one table row.
// Indexed formats have no RGBA pipeline; they go through DecodeIndexed.
func derive(info formatInfo) pipeline {
	var p pipeline
	switch {
	case info.channel == chIndex:
		return p

	case info.block > 0:
		if info.layout == layoutTileBlocks {
			p.decode = append(p.decode, step{op: opUntileBlocks})
		}
		p.decode = append(p.decode, step{op: opBlockDecode, channel: info.channel})
		if !info.decodeOnly {
			p.encode = []step{{op: opBlockEncode, channel: info.channel}}
		}
		return p
	}

	p.decode = append(p.decode, step{op: opExpand, channel: info.channel})
	if info.order != orderNone {
		p.decode = append(p.decode, step{op: opReorder, order: info.order})
	}
	if info.layout != layoutLinear {
		p.decode = append(p.decode, step{op: opUnlayout, layout: info.layout})
	}

	if info.decodeOnly {
		return p
	}
	if info.layout != layoutLinear {
		p.encode = append(p.encode, step{op: opRelayout, layout: info.layout})
	}
	if info.order != orderNone {
		p.encode = append(p.encode, step{op: opReorder, order: info.order.inverse()})
	}
	p.encode = append(p.encode, step{op: opContract, channel: info.channel})
	return p
}

// Describe returns the decode pipeline of f as "a -> b -> c".
func Describe(f PixelFormat) string {
	if !f.Valid() {
		return ""
	}
	if f.IsIndexed() {
		return "palette"
	}
	names := make([]string, 0, len(pipelines[f].decode))
	for _, s := range pipelines[f].decode {
		names = append(names, s.String())
	}
	return strings.Join(names, " -> ")
}

func checkDecode(raw []byte, w, h int, f PixelFormat) error {
	if err := errkind.CheckDimensions(w, h); err != nil {
		return err
	}
	if !f.Valid() {
		return errors.Wrapf(errkind.ErrUnsupportedFormat, "pixel format %v", f)
	}
	need := RequiredSize(w, h, f)
	if len(raw) < need {
		return errors.Wrapf(errkind.ErrCorruptData, "%v %dx%d: need %d bytes, got %d", f, w, h, need, len(raw))
	}
	return nil
}

// Decode converts raw native pixels to a canonical raster. Bytes past
// RequiredSize are ignored. Indexed formats need DecodeIndexed.
func Decode(raw []byte, w, h int, f PixelFormat) (*Raster, error) {
	if err := checkDecode(raw, w, h, f); err != nil {
		return nil, err
	}
	if f.IsIndexed() {
		return nil, errors.Wrapf(errkind.ErrUnsupportedFormat, "%v needs a palette", f)
	}

	info := formats[f]
	buf := raw[:RequiredSize(w, h, f)]
	var err error
	for _, s := range pipelines[f].decode {
		switch s.op {
		case opUntileBlocks:
			bx, by := info.blockCount(w, h)
			buf, err = UntileBlocks(buf, bx, by, info.block)
		case opBlockDecode:
			buf, err = decodeBlocks(info, buf, w, h)
		case opExpand:
			buf = expand(s.channel, buf, w*h)
		case opReorder:
			buf = reorder(s.order, buf)
		case opUnlayout:
			buf = unlayout(s.layout, buf, w, h, info.bits)
		}
		if err != nil {
			return nil, errors.WithMessagef(err, "decode %v", f)
		}
	}
	return &Raster{Width: w, Height: h, Pix: buf}, nil
}

func decodeBlocks(info formatInfo, src []byte, w, h int) ([]byte, error) {
	switch info.channel {
	case chDXT1:
		return bc.DecodeDXT1(src, w, h)
	case chDXT5:
		return bc.DecodeDXT5(src, w, h)
	case chBC7:
		return bc.DecodeBC7(src, w, h)
	case chASTC:
		return astc.Decode(src, w, h, info.blockW, info.blockH)
	}
	return nil, errors.Wrap(errkind.ErrUnsupportedFormat, "block codec")
}

// Encode converts a canonical raster to native pixels of exactly
// RequiredSize bytes.
func Encode(r *Raster, f PixelFormat) ([]byte, error) {
	if r == nil {
		return nil, errors.Wrap(errkind.ErrInvalidParameter, "nil raster")
	}
	if err := errkind.CheckDimensions(r.Width, r.Height); err != nil {
		return nil, err
	}
	if !f.Valid() {
		return nil, errors.Wrapf(errkind.ErrUnsupportedFormat, "pixel format %v", f)
	}
	if f.IsIndexed() {
		return nil, errors.Wrapf(errkind.ErrUnsupportedFormat, "%v: palette construction from RGBA", f)
	}
	if !f.CanEncode() {
		return nil, errors.Wrapf(errkind.ErrUnsupportedFormat, "%v is decode-only", f)
	}
	w, h := r.Width, r.Height
	if err := errkind.CheckLength("raster", len(r.Pix), w*h*4); err != nil {
		return nil, err
	}

	info := formats[f]
	buf := r.Pix[:w*h*4]
	var err error
	for _, s := range pipelines[f].encode {
		switch s.op {
		case opRelayout:
			buf = relayout(s.layout, buf, w, h, info.bits)
		case opReorder:
			buf = reorder(s.order, buf)
		case opContract:
			buf = contract(s.channel, buf, w*h, info.bits)
		case opBlockEncode:
			buf, err = encodeBlocks(s.channel, buf, w, h)
		}
		if err != nil {
			return nil, errors.WithMessagef(err, "encode %v", f)
		}
	}
	return buf, nil
}

func encodeBlocks(ch channel, pix []byte, w, h int) ([]byte, error) {
	switch ch {
	case chDXT1:
		return bc.EncodeDXT1(pix, w, h)
	case chDXT5:
		return bc.EncodeDXT5(pix, w, h)
	}
	return nil, errors.Wrap(errkind.ErrUnsupportedFormat, "block encoder")
}
