package vision

import (
	"context"
	"fmt"
	"io"
	"time"

	"gocv.io/x/gocv"

	"github.com/fadedpez/pokerscribe/internal/types"
	"github.com/fadedpez/pokerscribe/pkg/pipeline"
)

// VideoFileSource decodes frames from a recorded video file
type VideoFileSource struct {
	capture *gocv.VideoCapture
	mat     gocv.Mat
	start   time.Time
	index   int
}

// OpenVideoFile opens a video file for decoding. Frame timestamps are the
// video position offset from start.
func OpenVideoFile(path string, start time.Time) (*VideoFileSource, error) {
	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, types.WrapError(types.ErrFrameSourceFailure, fmt.Sprintf("failed to open video %s", path), err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, types.NewError(types.ErrFrameSourceFailure, fmt.Sprintf("video %s could not be opened", path))
	}
	return &VideoFileSource{capture: vc, mat: gocv.NewMat(), start: start}, nil
}

// FrameCount returns the number of frames reported by the container
func (s *VideoFileSource) FrameCount() int {
	return int(s.capture.Get(gocv.VideoCaptureFrameCount))
}

// FPS returns the frame rate reported by the container
func (s *VideoFileSource) FPS() float64 {
	return s.capture.Get(gocv.VideoCaptureFPS)
}

// Size returns the frame width and height
func (s *VideoFileSource) Size() (int, int) {
	return int(s.capture.Get(gocv.VideoCaptureFrameWidth)), int(s.capture.Get(gocv.VideoCaptureFrameHeight))
}

// Next decodes the next frame, returning io.EOF at the end of the file
func (s *VideoFileSource) Next(ctx context.Context) (pipeline.Frame, error) {
	if err := ctx.Err(); err != nil {
		return pipeline.Frame{}, err
	}
	pos := s.capture.Get(gocv.VideoCapturePosMsec)
	if ok := s.capture.Read(&s.mat); !ok || s.mat.Empty() {
		return pipeline.Frame{}, io.EOF
	}
	img, err := s.mat.ToImage()
	if err != nil {
		return pipeline.Frame{}, types.WrapError(types.ErrFrameSourceFailure, "failed to convert frame", err)
	}
	frame := pipeline.Frame{
		Index:     s.index,
		Timestamp: s.start.Add(time.Duration(pos * float64(time.Millisecond))),
		Image:     img,
	}
	s.index++
	return frame, nil
}

// Skip discards n frames without converting them
func (s *VideoFileSource) Skip(n int) error {
	if n <= 0 {
		return nil
	}
	s.capture.Grab(n)
	s.index += n
	return nil
}

// Close releases the decoder
func (s *VideoFileSource) Close() error {
	s.mat.Close()
	return s.capture.Close()
}

// DeviceSource captures frames from a camera device, for example an OBS
// virtual camera
type DeviceSource struct {
	capture *gocv.VideoCapture
	mat     gocv.Mat
	index   int
	now     func() time.Time
}

// OpenDevice opens a capture device by index or name
func OpenDevice(device string) (*DeviceSource, error) {
	vc, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, types.WrapError(types.ErrFrameSourceFailure, fmt.Sprintf("failed to open capture device %s", device), err)
	}
	return &DeviceSource{capture: vc, mat: gocv.NewMat(), now: time.Now}, nil
}

// Next captures the current frame. A failed read is returned as an error so
// the caller can back off and retry.
func (s *DeviceSource) Next(ctx context.Context) (pipeline.Frame, error) {
	if err := ctx.Err(); err != nil {
		return pipeline.Frame{}, err
	}
	if ok := s.capture.Read(&s.mat); !ok || s.mat.Empty() {
		return pipeline.Frame{}, types.NewError(types.ErrFrameSourceFailure, "capture device returned no frame")
	}
	img, err := s.mat.ToImage()
	if err != nil {
		return pipeline.Frame{}, types.WrapError(types.ErrFrameSourceFailure, "failed to convert frame", err)
	}
	frame := pipeline.Frame{Index: s.index, Timestamp: s.now(), Image: img}
	s.index++
	return frame, nil
}

// Close releases the device
func (s *DeviceSource) Close() error {
	s.mat.Close()
	return s.capture.Close()
}
