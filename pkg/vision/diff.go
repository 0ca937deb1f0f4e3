package vision

import (
	"image"

	"gocv.io/x/gocv"
)

// DiffSize is the resolution both frames are reduced to before comparing
var DiffSize = image.Point{X: 320, Y: 180}

// DiffRatio is an OpenCV implementation of pipeline.Similarity: both frames
// are resized to DiffSize and the summed absolute pixel difference is
// normalised by DiffSize.X * DiffSize.Y * 3 * 255. Conversion failures count
// as a full difference so the frame is kept.
func DiffRatio(a, b image.Image) float64 {
	if a == nil || b == nil {
		return 1.0
	}
	ma, err := downsample(a)
	if err != nil {
		return 1.0
	}
	defer ma.Close()
	mb, err := downsample(b)
	if err != nil {
		return 1.0
	}
	defer mb.Close()

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(ma, mb, &diff)

	sum := diff.Sum()
	total := sum.Val1 + sum.Val2 + sum.Val3
	return total / float64(DiffSize.X*DiffSize.Y*3*255)
}

func downsample(img image.Image) (gocv.Mat, error) {
	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.Mat{}, err
	}
	defer src.Close()
	dst := gocv.NewMat()
	gocv.Resize(src, &dst, DiffSize, 0, 0, gocv.InterpolationLinear)
	return dst, nil
}
