package main

import (
	"flag"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/EchoTools/psbFileTools/pkg/archive"
	"github.com/EchoTools/psbFileTools/pkg/imagefile"
	"github.com/EchoTools/psbFileTools/pkg/resource"
	"github.com/EchoTools/psbFileTools/pkg/rle"
	"github.com/EchoTools/psbFileTools/pkg/texture"
)

func runDecode(args []string) error {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	var ff formatFlags
	ff.register(fs, true)
	palettePath := fs.String("palette", "", "Palette file for indexed formats")
	compressed := fs.Bool("rl", false, "Input is RL compressed")
	align := fs.Int("align", rle.DefaultAlign, "RL unit size")

	pos, err := parseArgs(fs, args, "<input>", "<output>")
	if err != nil {
		return err
	}
	pf, err := ff.validate()
	if err != nil {
		return err
	}
	if _, err := ff.paletteFormat(); err != nil {
		return err
	}

	meta := &resource.Metadata{
		Width:       ff.width,
		Height:      ff.height,
		Type:        ff.format,
		Spec:        ff.resolvedSpec,
		PaletteType: ff.paletteFmt,
		Align:       *align,
	}
	if *compressed {
		meta.Compress = resource.CompressRL
	}

	data, err := os.ReadFile(pos[0])
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	var palette []byte
	if pf.IsIndexed() {
		if *palettePath == "" {
			return fmt.Errorf("%v needs -palette", pf)
		}
		if palette, err = os.ReadFile(*palettePath); err != nil {
			return fmt.Errorf("read palette: %w", err)
		}
	}

	img, err := meta.ToImage(data, palette)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if err := imagefile.Write(pos[1], img); err != nil {
		return err
	}

	fmt.Printf("Decoded %s → %s (%v, %dx%d)\n", pos[0], pos[1], pf, ff.width, ff.height)
	return nil
}

func runEncode(args []string) error {
	fs := flag.NewFlagSet("encode", flag.ContinueOnError)
	var ff formatFlags
	ff.register(fs, false)
	paletteOut := fs.String("palette-out", "", "Write the palette of an indexed image here")
	compressed := fs.Bool("rl", false, "RL compress the output")
	align := fs.Int("align", rle.DefaultAlign, "RL unit size")

	pos, err := parseArgs(fs, args, "<input>", "<output>")
	if err != nil {
		return err
	}
	pf, err := ff.validate()
	if err != nil {
		return err
	}
	if _, err := ff.paletteFormat(); err != nil {
		return err
	}

	img, err := imagefile.Read(pos[0])
	if err != nil {
		return err
	}
	b := img.Bounds()

	meta := &resource.Metadata{
		Width:       b.Dx(),
		Height:      b.Dy(),
		Type:        ff.format,
		Spec:        ff.resolvedSpec,
		PaletteType: ff.paletteFmt,
		Align:       *align,
	}
	if *compressed {
		meta.Compress = resource.CompressRL
	}

	data, err := meta.SetImage(img)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if err := os.WriteFile(pos[1], data, 0644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	if p, ok := img.(*image.Paletted); ok && pf.IsIndexed() && *paletteOut != "" {
		pal, err := meta.EncodePalette(p.Palette)
		if err != nil {
			return fmt.Errorf("encode palette: %w", err)
		}
		if err := os.WriteFile(*paletteOut, pal, 0644); err != nil {
			return fmt.Errorf("write palette: %w", err)
		}
	}

	fmt.Printf("Encoded %s → %s (%v, %d bytes)\n", pos[0], pos[1], pf, len(data))
	return nil
}

func runInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	var ff formatFlags
	ff.register(fs, true)
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch {
	case fs.NArg() == 1:
		return showFileInfo(fs.Arg(0))
	case ff.format != "":
		pf, err := ff.validate()
		if err != nil {
			return err
		}
		showFormatInfo(pf, ff.width, ff.height)
		return nil
	}

	fmt.Printf("%-18s %-12s %4s  %-6s  %s\n", "Format", "Type", "BPP", "Encode", "Decode pipeline")
	for _, f := range texture.Formats() {
		enc := "yes"
		if !f.CanEncode() {
			enc = "no"
		}
		fmt.Printf("%-18s %-12s %4d  %-6s  %s\n", f, resource.TypeName(f), f.BitsPerPixel(), enc, texture.Describe(f))
	}
	return nil
}

func showFormatInfo(f texture.PixelFormat, w, h int) {
	fmt.Printf("Format: %v (type %s)\n", f, resource.TypeName(f))
	fmt.Printf("Bits per pixel: %d\n", f.BitsPerPixel())
	fmt.Printf("Block compressed: %v\n", f.IsBlockCompressed())
	fmt.Printf("Indexed: %v\n", f.IsIndexed())
	fmt.Printf("Encode: %v\n", f.CanEncode())
	fmt.Printf("Pipeline: %s\n", texture.Describe(f))
	fmt.Printf("Stride: %d bytes\n", texture.Stride(w, f))
	size := texture.RequiredSize(w, h, f)
	fmt.Printf("Data size: %d bytes (%.2f KB)\n", size, float64(size)/1024)
}

func showFileInfo(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	fmt.Printf("File: %s\n", path)
	switch strings.ToLower(filepath.Ext(path)) {
	case archive.Ext:
		r, err := archive.NewReader(f)
		if err != nil {
			return fmt.Errorf("parse header: %w", err)
		}
		defer r.Close()
		h := r.Header()
		fmt.Printf("Dimensions: %dx%d\n", h.Width, h.Height)
		fmt.Printf("Data size: %d bytes, compressed %d (%.1f%%)\n", h.Length, h.CompressedLength,
			100*float64(h.CompressedLength)/float64(h.Length))

	case ".dds":
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		img, err := texture.ParseDDS(data)
		if err != nil {
			return fmt.Errorf("parse header: %w", err)
		}
		fmt.Printf("Dimensions: %dx%d\n", img.Width, img.Height)
		fmt.Printf("Format: %s (DXGI %d) → %v\n", texture.FormatName(img.DXGIFormat), img.DXGIFormat, img.Format)
		fmt.Printf("Mip levels: %d\n", img.MipCount)
		fmt.Printf("Data size: %d bytes\n", len(img.Payload))

	default:
		return fmt.Errorf("cannot identify %s; use -format, -width and -height", path)
	}
	return nil
}

func runRLE(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: texconv rle compress|decompress [flags] <in> <out>")
	}
	mode := args[0]

	fs := flag.NewFlagSet("rle "+mode, flag.ContinueOnError)
	align := fs.Int("align", rle.DefaultAlign, "Unit size: 1, 2, 4 or 8")
	length := fs.Int("length", 0, "Expected decompressed length (0: decode the whole stream)")
	pos, err := parseArgs(fs, args[1:], "<input>", "<output>")
	if err != nil {
		return err
	}

	data, err := os.ReadFile(pos[0])
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	var out []byte
	switch mode {
	case "compress":
		out, err = rle.Compress(data, *align)
	case "decompress":
		if *length > 0 {
			out, err = rle.Decompress(data, *align, *length)
		} else {
			out, err = rle.DecompressAll(data, *align)
		}
	default:
		return fmt.Errorf("rle mode must be 'compress' or 'decompress'")
	}
	if err != nil {
		return fmt.Errorf("%s: %w", mode, err)
	}

	if err := os.WriteFile(pos[1], out, 0644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Printf("%s: %d → %d bytes\n", mode, len(data), len(out))
	return nil
}

func runDDS(args []string) error {
	fs := flag.NewFlagSet("dds", flag.ContinueOnError)
	var ff formatFlags
	ff.register(fs, true)
	pos, err := parseArgs(fs, args, "<input>", "<output>")
	if err != nil {
		return err
	}
	pf, err := ff.validate()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(pos[0])
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	out, err := texture.WrapDDS(data, ff.width, ff.height, pf)
	if err != nil {
		return fmt.Errorf("wrap: %w", err)
	}
	if err := os.WriteFile(pos[1], out, 0644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	fmt.Printf("Wrapped %s → %s (%s)\n", pos[0], pos[1], texture.FormatName(mustDXGI(pf)))
	return nil
}

func mustDXGI(f texture.PixelFormat) uint32 {
	d, _ := texture.DXGIFormat(f)
	return d
}
