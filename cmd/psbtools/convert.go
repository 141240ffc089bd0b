package main

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/EchoTools/psbFileTools/pkg/errkind"
	"github.com/EchoTools/psbFileTools/pkg/imagefile"
	"github.com/EchoTools/psbFileTools/pkg/resource"
)

type options struct {
	imageExt string
	workers  int
	verbose  bool
}

type stats struct {
	converted atomic.Int64
	skipped   atomic.Int64
	failed    atomic.Int64
}

// errSkip marks a resource that is left out without counting as a failure.
var errSkip = errors.New("skipped")

// forEach runs fn over resources on a fixed number of workers and
// counts the outcomes.
func forEach(resources []resource.ScannedResource, opts options, fn func(resource.ScannedResource) error) *stats {
	st := &stats{}
	jobs := make(chan resource.ScannedResource, opts.workers*4)

	var wg sync.WaitGroup
	for i := 0; i < opts.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for res := range jobs {
				err := fn(res)
				switch {
				case err == nil:
					st.converted.Add(1)
					if opts.verbose {
						fmt.Printf("  %s\n", res.Rel)
					}
				case errors.Is(err, errSkip), errors.Is(err, errkind.ErrUnsupportedFormat):
					st.skipped.Add(1)
					if opts.verbose {
						fmt.Printf("  %s: %v\n", res.Rel, err)
					}
				default:
					st.failed.Add(1)
					fmt.Fprintf(os.Stderr, "%s: %v\n", res.Rel, err)
				}
			}
		}()
	}

	for _, res := range resources {
		jobs <- res
	}
	close(jobs)
	wg.Wait()
	return st
}

func scan(dir string) ([]resource.ScannedResource, error) {
	fmt.Println("Scanning input directory...")
	resources, err := resource.ScanResources(dir)
	if err != nil {
		return nil, fmt.Errorf("scan resources: %w", err)
	}
	fmt.Printf("Found %d resources\n", len(resources))
	return resources, nil
}

// outputBase mirrors the position of res below outDir.
func outputBase(outDir string, res resource.ScannedResource) (string, error) {
	base := filepath.Join(outDir, filepath.FromSlash(res.Rel))
	if err := os.MkdirAll(filepath.Dir(base), 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	return base, nil
}

func extractAll(inDir, outDir string, opts options) (*stats, error) {
	resources, err := scan(inDir)
	if err != nil {
		return nil, err
	}
	fmt.Println("Extracting images...")
	return forEach(resources, opts, func(res resource.ScannedResource) error {
		return extractResource(res, outDir, opts.imageExt)
	}), nil
}

// extractResource converts the data of res to an image under outDir and
// writes its metadata beside it. Indexed images are always PNG so the
// palette survives.
func extractResource(res resource.ScannedResource, outDir, ext string) error {
	data, err := os.ReadFile(res.DataPath())
	if os.IsNotExist(err) {
		return errors.Wrap(errSkip, "no data file")
	}
	if err != nil {
		return fmt.Errorf("read data: %w", err)
	}

	var palette []byte
	if res.Meta.PixelFormat().IsIndexed() {
		if palette, err = os.ReadFile(res.PalettePath()); err != nil {
			return fmt.Errorf("read palette: %w", err)
		}
	}

	img, err := res.Meta.ToImage(data, palette)
	if err != nil {
		return err
	}
	if _, ok := img.(*image.Paletted); ok {
		ext = resource.ImageExt
	}

	base, err := outputBase(outDir, res)
	if err != nil {
		return err
	}
	if err := imagefile.Write(base+ext, img); err != nil {
		return err
	}
	return resource.WriteMetadataFile(base+resource.MetadataExt, res.Meta)
}

func buildAll(inDir, outDir string, opts options) (*stats, error) {
	resources, err := scan(inDir)
	if err != nil {
		return nil, err
	}
	fmt.Println("Building resources...")
	return forEach(resources, opts, func(res resource.ScannedResource) error {
		return buildResource(res, outDir)
	}), nil
}

// findImage returns the first image next to res, in the order of
// imagefile.Extensions.
func findImage(res resource.ScannedResource) (string, bool) {
	for _, ext := range imagefile.Extensions {
		if _, err := os.Stat(res.Base + ext); err == nil {
			return res.Base + ext, true
		}
	}
	return "", false
}

// buildResource encodes the edited image of res back to resource data,
// plus a palette file for indexed formats.
func buildResource(res resource.ScannedResource, outDir string) error {
	path, ok := findImage(res)
	if !ok {
		return errors.Wrap(errSkip, "no image")
	}
	img, err := imagefile.Read(path)
	if err != nil {
		return err
	}

	data, err := res.Meta.SetImage(img)
	if err != nil {
		return errors.WithMessagef(err, "encode %s", filepath.Base(path))
	}

	base, err := outputBase(outDir, res)
	if err != nil {
		return err
	}
	if err := os.WriteFile(base+resource.DataExt, data, 0644); err != nil {
		return fmt.Errorf("write data: %w", err)
	}

	if p, ok := img.(*image.Paletted); ok && res.Meta.PixelFormat().IsIndexed() {
		pal, err := res.Meta.EncodePalette(p.Palette)
		if err != nil {
			return fmt.Errorf("encode palette: %w", err)
		}
		if err := os.WriteFile(base+resource.PaletteExt, pal, 0644); err != nil {
			return fmt.Errorf("write palette: %w", err)
		}
	}
	return resource.WriteMetadataFile(base+resource.MetadataExt, res.Meta)
}

// sameDir reports whether a and b name the same directory.
func sameDir(a, b string) bool {
	a, errA := filepath.Abs(a)
	b, errB := filepath.Abs(b)
	return errA == nil && errB == nil && a == b
}
