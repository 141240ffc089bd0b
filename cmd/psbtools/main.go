// Package main provides a command-line tool for converting extracted PSB
// image resources to editable images and back.
//
// An extracted resource is a JSON metadata sidecar next to its raw pixel
// data (.bin) and, for indexed formats, its palette (.pal). Extract turns
// each resource into an image; build turns edited images back into data.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/EchoTools/psbFileTools/pkg/imagefile"
)

var (
	mode           string
	inputDir       string
	outputDir      string
	imageExt       string
	workers        int
	forceOverwrite bool
	verbose        bool
)

func init() {
	flag.StringVar(&mode, "mode", "", "Operation mode: extract, build")
	flag.StringVar(&inputDir, "input", "", "Input directory")
	flag.StringVar(&outputDir, "output", "", "Output directory")
	flag.StringVar(&imageExt, "image", ".png", "Image extension for extract: .png or .rgbz")
	flag.IntVar(&workers, "workers", runtime.NumCPU(), "Number of resources converted in parallel")
	flag.BoolVar(&forceOverwrite, "force", false, "Allow non-empty output directory")
	flag.BoolVar(&verbose, "v", false, "Print every converted resource")
}

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := validateFlags(); err != nil {
		flag.Usage()
		return err
	}

	if err := prepareOutputDir(); err != nil {
		return err
	}

	opts := options{imageExt: imageExt, workers: workers, verbose: verbose}
	var st *stats
	var err error
	switch mode {
	case "extract":
		st, err = extractAll(inputDir, outputDir, opts)
	case "build":
		st, err = buildAll(inputDir, outputDir, opts)
	default:
		return fmt.Errorf("unknown mode: %s", mode)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Converted %d resources, %d skipped, %d failed. Output written to %s\n",
		st.converted.Load(), st.skipped.Load(), st.failed.Load(), outputDir)
	if st.failed.Load() > 0 {
		return fmt.Errorf("%d resources failed", st.failed.Load())
	}
	return nil
}

func validateFlags() error {
	if mode == "" {
		return fmt.Errorf("mode is required")
	}
	if inputDir == "" {
		return fmt.Errorf("input directory is required")
	}
	if outputDir == "" {
		return fmt.Errorf("output directory is required")
	}
	if sameDir(inputDir, outputDir) {
		return fmt.Errorf("input and output directories must differ")
	}
	if mode != "extract" && mode != "build" {
		return fmt.Errorf("mode must be 'extract' or 'build'")
	}
	if workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	if !imagefile.Supported("x" + imageExt) {
		return fmt.Errorf("unsupported image extension: %s", imageExt)
	}
	return nil
}

func prepareOutputDir() error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	if !forceOverwrite {
		empty, err := isDirEmpty(outputDir)
		if err != nil {
			return fmt.Errorf("check output directory: %w", err)
		}
		if !empty {
			return fmt.Errorf("output directory is not empty (use -force to override)")
		}
	}

	return nil
}

func isDirEmpty(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	_, err = f.Readdir(1)
	return err == io.EOF, nil
}
