package pipeline

import (
	"context"
	"image"
	"time"
)

// Frame is one decoded image from a frame source
type Frame struct {
	Index     int
	Timestamp time.Time
	Image     image.Image
}

// FrameSource yields frames in increasing order. Next returns io.EOF when a
// finite source is exhausted.
type FrameSource interface {
	Next(ctx context.Context) (Frame, error)
	Close() error
}

// Skipper is implemented by sources that can discard frames without
// decoding them
type Skipper interface {
	Skip(n int) error
}

// Similarity returns how different two frames are, from 0 (identical) to 1
type Similarity func(a, b image.Image) float64
