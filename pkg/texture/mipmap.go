package texture

import (
	"github.com/anthonynsimon/bild/transform"
)

// Mipmaps returns r followed by successively halved copies down to 1x1.
// Levels are box filtered from the previous level.
func Mipmaps(r *Raster) []*Raster {
	levels := []*Raster{r}
	for level := 1; ; level++ {
		w, h := MipSize(r.Width, r.Height, level)
		prev := levels[len(levels)-1]
		if w == prev.Width && h == prev.Height {
			break
		}
		levels = append(levels, FromImage(transform.Resize(prev.NRGBA(), w, h, transform.Box)))
	}
	return levels
}
