package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/EchoTools/psbFileTools/pkg/imagefile"
	"github.com/EchoTools/psbFileTools/pkg/texture"
)

type batchJob struct {
	src, dst string
}

func runBatch(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: texconv batch decode|encode [-mipmaps] <input_dir> <output_dir>")
	}
	mode := args[0]

	fs := flag.NewFlagSet("batch "+mode, flag.ContinueOnError)
	mipmaps := fs.Bool("mipmaps", false, "Write a full mip chain when encoding")
	pos, err := parseArgs(fs, args[1:], "<input_dir>", "<output_dir>")
	if err != nil {
		return err
	}
	inputDir, outputDir := pos[0], pos[1]

	var srcExt, dstExt string
	var convert func(src, dst string) error
	switch mode {
	case "decode":
		srcExt, dstExt, convert = ".dds", ".png", decodeDDSFile
	case "encode":
		srcExt, dstExt = ".png", ".dds"
		convert = func(src, dst string) error { return encodeDDSFile(src, dst, *mipmaps) }
	default:
		return fmt.Errorf("batch mode must be 'decode' or 'encode'")
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	var done, failed atomic.Int64
	jobs := make(chan batchJob, runtime.NumCPU()*4)

	var wg sync.WaitGroup
	for i := 0; i < runtime.NumCPU(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				if err := os.MkdirAll(filepath.Dir(job.dst), 0755); err != nil {
					fmt.Fprintf(os.Stderr, "mkdir %s: %v\n", filepath.Dir(job.dst), err)
					failed.Add(1)
					continue
				}
				if err := convert(job.src, job.dst); err != nil {
					fmt.Fprintf(os.Stderr, "convert %s: %v\n", job.src, err)
					failed.Add(1)
					continue
				}
				if n := done.Add(1); n%100 == 0 {
					fmt.Printf("Processed %d files...\n", n)
				}
			}
		}()
	}

	err = filepath.Walk(inputDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.EqualFold(filepath.Ext(path), srcExt) {
			return nil
		}
		rel, err := filepath.Rel(inputDir, path)
		if err != nil {
			return err
		}
		jobs <- batchJob{
			src: path,
			dst: strings.TrimSuffix(filepath.Join(outputDir, rel), filepath.Ext(rel)) + dstExt,
		}
		return nil
	})
	close(jobs)
	wg.Wait()

	if err != nil {
		return fmt.Errorf("walk %s: %w", inputDir, err)
	}

	fmt.Printf("\nConverted %d files, %d failed\n", done.Load(), failed.Load())
	return nil
}

// decodeDDSFile converts a DDS texture to a PNG.
func decodeDDSFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	dds, err := texture.ParseDDS(data)
	if err != nil {
		return err
	}
	r, err := texture.Decode(dds.Payload, dds.Width, dds.Height, dds.Format)
	if err != nil {
		return fmt.Errorf("decode %s: %w", texture.FormatName(dds.DXGIFormat), err)
	}
	return imagefile.Write(dst, r.NRGBA())
}

// encodeDDSFile compresses an image to a DDS texture, optionally with
// every mip level.
func encodeDDSFile(src, dst string, mipmaps bool) error {
	img, err := imagefile.Read(src)
	if err != nil {
		return err
	}
	r := texture.FromImage(img)
	f := detectBlockFormat(r)

	levels := []*texture.Raster{r}
	if mipmaps {
		levels = texture.Mipmaps(r)
	}
	raw := make([][]byte, len(levels))
	for i, level := range levels {
		if raw[i], err = texture.Encode(level, f); err != nil {
			return fmt.Errorf("encode %v mip %d: %w", f, i, err)
		}
	}
	out, err := texture.WrapDDSLevels(raw, r.Width, r.Height, f)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, out, 0644)
}

// detectBlockFormat picks DXT5 when the raster has partial alpha and
// DXT1 when alpha is absent or binary.
func detectBlockFormat(r *texture.Raster) texture.PixelFormat {
	for i := 3; i < len(r.Pix); i += 4 {
		if a := r.Pix[i]; a > 0 && a < 255 {
			return texture.DXT5
		}
	}
	return texture.DXT1
}
