package mock

import (
	"image"

	"github.com/stretchr/testify/mock"

	"github.com/fadedpez/pokerscribe/pkg/extract"
)

// Preprocessor is a mock implementation of extract.Preprocessor
type Preprocessor struct {
	mock.Mock
}

// Prepare implements extract.Preprocessor
func (p *Preprocessor) Prepare(frame image.Image, region image.Rectangle, invert bool) ([]byte, error) {
	args := p.Called(frame, region, invert)
	if b := args.Get(0); b != nil {
		return b.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

// Recognizer is a mock implementation of extract.Recognizer
type Recognizer struct {
	mock.Mock
}

// Recognize implements extract.Recognizer
func (r *Recognizer) Recognize(bitmap []byte, mode extract.SegMode) (string, error) {
	args := r.Called(bitmap, mode)
	return args.String(0), args.Error(1)
}
