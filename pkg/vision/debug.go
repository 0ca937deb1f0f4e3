package vision

import (
	"fmt"
	"image/color"
	"path/filepath"

	"gocv.io/x/gocv"

	"github.com/fadedpez/pokerscribe/pkg/layout"
	"github.com/fadedpez/pokerscribe/pkg/pipeline"
)

var regionColor = color.RGBA{R: 0, G: 255, B: 0, A: 255}

// DebugWriter saves sampled frames with the layout's regions outlined, for
// calibrating a layout against a recording
type DebugWriter struct {
	dir    string
	layout *layout.RegionLayout
}

// NewDebugWriter writes frames into dir
func NewDebugWriter(dir string, l *layout.RegionLayout) *DebugWriter {
	return &DebugWriter{dir: dir, layout: l}
}

// Write saves one frame as frame_<index>.png
func (w *DebugWriter) Write(frame pipeline.Frame) error {
	mat, err := gocv.ImageToMatRGB(frame.Image)
	if err != nil {
		return fmt.Errorf("failed to convert frame %d: %w", frame.Index, err)
	}
	defer mat.Close()

	if w.layout != nil {
		width, height := mat.Cols(), mat.Rows()
		outline := func(key layout.FieldKey) {
			r, err := w.layout.Resolve(key, width, height)
			if err == nil {
				gocv.Rectangle(&mat, r, regionColor, 1)
			}
		}
		for _, seat := range w.layout.Seats() {
			for _, field := range layout.SeatFields {
				outline(layout.SeatKey(seat, field))
			}
		}
		for _, field := range layout.TableFields {
			outline(layout.TableKey(field))
		}
	}

	path := filepath.Join(w.dir, fmt.Sprintf("frame_%06d.png", frame.Index))
	if ok := gocv.IMWrite(path, mat); !ok {
		return fmt.Errorf("failed to write %s", path)
	}
	return nil
}
