package resource

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// File name suffixes of the parts of an extracted resource.
const (
	MetadataExt = ".json"
	DataExt     = ".bin"
	PaletteExt  = ".pal"
	ImageExt    = ".png"
)

// ScannedResource is one resource found in an extracted directory.
type ScannedResource struct {
	Meta *Metadata
	// Base is the common path prefix of the resource files, without extension.
	Base string
	// Rel is Base relative to the scanned directory, with forward slashes.
	Rel  string
	Size int64
}

func (s ScannedResource) MetadataPath() string { return s.Base + MetadataExt }
func (s ScannedResource) DataPath() string     { return s.Base + DataExt }
func (s ScannedResource) PalettePath() string  { return s.Base + PaletteExt }
func (s ScannedResource) ImagePath() string    { return s.Base + ImageExt }

// BaseFor returns where the files of m live under dir.
func BaseFor(dir string, m *Metadata) string {
	return filepath.Join(dir, m.FriendlyName())
}

// ScanResources walks dir and returns every resource that has a
// metadata sidecar. Size is the size of the data file, or zero if only
// the sidecar exists. Results are in walk order, which is lexical.
func ScanResources(dir string) ([]ScannedResource, error) {
	var found []ScannedResource

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.EqualFold(filepath.Ext(path), MetadataExt) {
			return nil
		}

		meta, err := ReadMetadataFile(path)
		if err != nil {
			return err
		}

		base := strings.TrimSuffix(path, filepath.Ext(path))
		rel, err := filepath.Rel(dir, base)
		if err != nil {
			return fmt.Errorf("failed to get relative path: %w", err)
		}

		res := ScannedResource{
			Meta: meta,
			Base: base,
			Rel:  filepath.ToSlash(rel),
		}
		if st, err := os.Stat(res.DataPath()); err == nil {
			res.Size = st.Size()
		}
		found = append(found, res)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return found, nil
}
