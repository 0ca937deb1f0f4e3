package vision

import (
	"fmt"
	"image"
	"image/draw"

	"gocv.io/x/gocv"
)

// ScaleFactor is the upscale applied to every region before OCR
const ScaleFactor = 2.0

// Preprocessor prepares frame regions for OCR using OpenCV
type Preprocessor struct{}

// NewPreprocessor creates an OpenCV backed preprocessor
func NewPreprocessor() *Preprocessor {
	return &Preprocessor{}
}

// Prepare crops region out of frame, converts it to grayscale, binarizes it
// with Otsu's threshold, denoises, upscales 2x with cubic interpolation and
// returns the result PNG encoded.
func (p *Preprocessor) Prepare(frame image.Image, region image.Rectangle, invert bool) ([]byte, error) {
	roi, err := regionMat(frame, region)
	if err != nil {
		return nil, err
	}
	defer roi.Close()

	processed := preprocess(roi, invert)
	defer processed.Close()

	buf, err := gocv.IMEncode(gocv.PNGFileExt, processed)
	if err != nil {
		return nil, fmt.Errorf("failed to encode region: %w", err)
	}
	defer buf.Close()

	out := make([]byte, len(buf.GetBytes()))
	copy(out, buf.GetBytes())
	return out, nil
}

// cropRegion copies region, given relative to the frame origin, into a new
// image anchored at (0,0)
func cropRegion(frame image.Image, region image.Rectangle) (*image.RGBA, error) {
	bounds := frame.Bounds()
	abs := region.Add(bounds.Min).Intersect(bounds)
	if abs.Empty() {
		return nil, fmt.Errorf("region %v outside frame", region)
	}
	crop := image.NewRGBA(image.Rect(0, 0, abs.Dx(), abs.Dy()))
	draw.Draw(crop, crop.Bounds(), frame, abs.Min, draw.Src)
	return crop, nil
}

// regionMat converts only the region's pixels, never the whole frame
func regionMat(frame image.Image, region image.Rectangle) (gocv.Mat, error) {
	crop, err := cropRegion(frame, region)
	if err != nil {
		return gocv.Mat{}, err
	}
	mat, err := gocv.ImageToMatRGB(crop)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("failed to convert region: %w", err)
	}
	return mat, nil
}

func preprocess(roi gocv.Mat, invert bool) gocv.Mat {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(roi, &gray, gocv.ColorBGRToGray)

	mode := gocv.ThresholdBinary
	if invert {
		mode = gocv.ThresholdBinaryInv
	}
	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(gray, &binary, 0, 255, mode|gocv.ThresholdOtsu)

	denoised := gocv.NewMat()
	defer denoised.Close()
	gocv.FastNlMeansDenoising(binary, &denoised)

	scaled := gocv.NewMat()
	gocv.Resize(denoised, &scaled, image.Point{}, ScaleFactor, ScaleFactor, gocv.InterpolationCubic)
	return scaled
}
