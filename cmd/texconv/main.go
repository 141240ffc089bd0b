// texconv - PSB pixel data converter
//
// Converts raw PSB resource pixels to editable images and back. Decoded
// pixels can be stored as PNG or as a zstd-compressed .rgbz raster, which
// keeps the exact RGBA values for a later encode.
//
// Usage:
//   texconv decode -format RGBA8_SW -spec vita -width 256 -height 256 in.bin out.png
//   texconv encode -format DXT5 in.png out.bin
//   texconv info [-format F -width W -height H] [file]
//   texconv rle compress|decompress [-align 4] [-length N] in out
//   texconv dds -format DXT5 -width W -height H in.bin out.dds
//   texconv batch decode|encode [-mipmaps] in_dir out_dir

package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/EchoTools/psbFileTools/pkg/resource"
	"github.com/EchoTools/psbFileTools/pkg/texture"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch command, args := os.Args[1], os.Args[2:]; command {
	case "decode":
		err = runDecode(args)
	case "encode":
		err = runEncode(args)
	case "info":
		err = runInfo(args)
	case "rle":
		err = runRLE(args)
	case "dds":
		err = runDDS(args)
	case "batch":
		err = runBatch(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("texconv - PSB pixel data converter")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  texconv decode -format F -width W -height H [-spec S] [-palette P] <in.bin> <out.png|out.rgbz>")
	fmt.Println("  texconv encode -format F [-spec S] [-palette-out P] <in.png|in.rgbz> <out.bin>")
	fmt.Println("  texconv info [-format F -width W -height H] [file.dds|file.rgbz]")
	fmt.Println("  texconv rle <compress|decompress> [-align N] [-length N] <in> <out>")
	fmt.Println("  texconv dds -format F -width W -height H <in.bin> <out.dds>")
	fmt.Println("  texconv batch <decode|encode> [-mipmaps] <dir> <out>    # DDS <-> PNG")
	fmt.Println()
	fmt.Println("Formats are resource type names (RGBA8, CI4_SW, ...) resolved under -spec,")
	fmt.Println("or engine names (TileBeRGBA8Rvl, ...). Run 'texconv info' for the full list.")
}

// formatFlags are the options shared by commands that touch raw pixels.
type formatFlags struct {
	format       string
	spec         string
	width        int
	height       int
	paletteFmt   string
	needSize     bool
	resolvedSpec resource.Spec
}

func (f *formatFlags) register(fs *flag.FlagSet, needSize bool) {
	fs.StringVar(&f.format, "format", "", "Pixel format or resource type name")
	fs.StringVar(&f.spec, "spec", "win", "Platform spec used to resolve resource type names")
	fs.StringVar(&f.paletteFmt, "palette-format", "", "Palette pixel format (default LeRGBA8)")
	if needSize {
		fs.IntVar(&f.width, "width", 0, "Image width in pixels")
		fs.IntVar(&f.height, "height", 0, "Image height in pixels")
	}
	f.needSize = needSize
}

// validate resolves the format and spec names.
func (f *formatFlags) validate() (texture.PixelFormat, error) {
	if f.format == "" {
		return texture.None, fmt.Errorf("-format is required")
	}
	spec, ok := resource.ParseSpec(f.spec)
	if !ok {
		return texture.None, fmt.Errorf("unknown spec: %s", f.spec)
	}
	f.resolvedSpec = spec

	pf := resource.ParsePixelFormat(f.format, spec)
	if !pf.Valid() {
		return texture.None, fmt.Errorf("unknown format: %s", f.format)
	}
	if f.needSize && (f.width <= 0 || f.height <= 0) {
		return texture.None, fmt.Errorf("-width and -height are required")
	}
	return pf, nil
}

func (f *formatFlags) paletteFormat() (texture.PixelFormat, error) {
	if f.paletteFmt == "" {
		return texture.None, nil
	}
	pf := resource.ParsePixelFormat(f.paletteFmt, f.resolvedSpec)
	if !pf.Valid() {
		return texture.None, fmt.Errorf("unknown palette format: %s", f.paletteFmt)
	}
	return pf, nil
}

// parseArgs parses fs and checks the number of positional arguments.
func parseArgs(fs *flag.FlagSet, args []string, positional ...string) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != len(positional) {
		return nil, fmt.Errorf("usage: texconv %s [flags] %s", fs.Name(), strings.Join(positional, " "))
	}
	return fs.Args(), nil
}
