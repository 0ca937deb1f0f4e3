package pipeline

import (
	"image"
	"math"
)

// Dimensions frames are sampled down to before comparison
const (
	DiffWidth  = 320
	DiffHeight = 180
)

// DiffRatio is a pure-Go Similarity. Both frames are sampled on a
// DiffWidth x DiffHeight grid and the result is sum|a-b| / (w*h*3*255) over
// the RGB channels. A nil frame counts as fully changed.
func DiffRatio(a, b image.Image) float64 {
	if a == nil || b == nil {
		return 1.0
	}
	ab, bb := a.Bounds(), b.Bounds()
	if ab.Empty() || bb.Empty() {
		return 1.0
	}

	var sum float64
	for y := 0; y < DiffHeight; y++ {
		for x := 0; x < DiffWidth; x++ {
			ar, ag, ablue := sample(a, ab, x, y)
			br, bg, bblue := sample(b, bb, x, y)
			sum += math.Abs(ar-br) + math.Abs(ag-bg) + math.Abs(ablue-bblue)
		}
	}
	return sum / float64(DiffWidth*DiffHeight*3*255)
}

// sample reads the nearest source pixel for grid cell (x, y) as 8-bit channels
func sample(img image.Image, bounds image.Rectangle, x, y int) (r, g, b float64) {
	sx := bounds.Min.X + x*bounds.Dx()/DiffWidth
	sy := bounds.Min.Y + y*bounds.Dy()/DiffHeight
	cr, cg, cb, _ := img.At(sx, sy).RGBA()
	return float64(cr >> 8), float64(cg >> 8), float64(cb >> 8)
}
