package extract

import (
	"fmt"
	"image"
	"strings"
	"sync/atomic"

	"github.com/fadedpez/pokerscribe/internal/logging"
	"github.com/fadedpez/pokerscribe/internal/types"
	"github.com/fadedpez/pokerscribe/pkg/entities"
	"github.com/fadedpez/pokerscribe/pkg/layout"
)

// Preprocessor crops a region out of a frame and prepares it for OCR:
// grayscale, Otsu binarization (optionally inverted), denoise and a 2x
// cubic upscale. It returns an encoded bitmap the Recognizer understands.
type Preprocessor interface {
	Prepare(frame image.Image, region image.Rectangle, invert bool) ([]byte, error)
}

// Recognizer runs OCR over a prepared bitmap
type Recognizer interface {
	Recognize(bitmap []byte, mode SegMode) (string, error)
}

// SegMode is the page segmentation hint given to the OCR engine
type SegMode int

const (
	Block      SegMode = 6
	SingleLine SegMode = 7
	SingleWord SegMode = 8
)

func (m SegMode) String() string {
	switch m {
	case Block:
		return "block"
	case SingleLine:
		return "single_line"
	case SingleWord:
		return "single_word"
	default:
		return fmt.Sprintf("psm_%d", int(m))
	}
}

// ModeTable maps field classes to segmentation modes. Fields missing from
// the table are read as a single line.
type ModeTable map[layout.FieldID]SegMode

// DefaultModes reads everything as a single line except card areas
func DefaultModes() ModeTable {
	return ModeTable{
		layout.Name:       SingleLine,
		layout.Stack:      SingleLine,
		layout.Action:     SingleLine,
		layout.Cards:      Block,
		layout.Flag:       SingleWord,
		layout.Pot:        SingleLine,
		layout.Blinds:     SingleLine,
		layout.Community:  Block,
		layout.HandNumber: SingleLine,
		layout.Dealer:     SingleWord,
	}
}

func (t ModeTable) mode(field layout.FieldID) SegMode {
	if m, ok := t[field]; ok {
		return m
	}
	return SingleLine
}

// Options tunes an Extractor
type Options struct {
	Modes ModeTable
	// Inverted lists fields rendered as light text on a dark background
	Inverted map[layout.FieldID]bool
	Logger   *logging.Logger
}

// Extractor reads one field at a time from a frame. Every read is isolated:
// a failure is logged and replaced with the field's zero value so the rest of
// the frame can still be read.
type Extractor struct {
	layout   *layout.RegionLayout
	pre      Preprocessor
	rec      Recognizer
	modes    ModeTable
	inverted map[layout.FieldID]bool
	log      *logging.Logger

	reads    atomic.Int64
	failures atomic.Int64
}

// NewExtractor creates an extractor over the given layout
func NewExtractor(l *layout.RegionLayout, pre Preprocessor, rec Recognizer, opts Options) *Extractor {
	if opts.Modes == nil {
		opts.Modes = DefaultModes()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default
	}
	return &Extractor{
		layout:   l,
		pre:      pre,
		rec:      rec,
		modes:    opts.Modes,
		inverted: opts.Inverted,
		log:      opts.Logger,
	}
}

// Layout returns the region layout the extractor reads from
func (e *Extractor) Layout() *layout.RegionLayout {
	return e.layout
}

// Failures returns how many field reads have failed so far
func (e *Extractor) Failures() int64 {
	return e.failures.Load()
}

// Reads returns how many field reads have been attempted so far
func (e *Extractor) Reads() int64 {
	return e.reads.Load()
}

// Text returns the trimmed OCR text of a field, or "" on failure
func (e *Extractor) Text(frame image.Image, key layout.FieldKey) string {
	text, err := e.read(frame, key)
	if err != nil {
		e.fail(key, err)
		return ""
	}
	return text
}

// Number reads a numeric field such as a stack or the pot
func (e *Extractor) Number(frame image.Image, key layout.FieldKey) float64 {
	return ParseNumeric(e.Text(frame, key))
}

// Name reads and sanitizes a seat's player name
func (e *Extractor) Name(frame image.Image, seat int) string {
	return SanitizeName(e.Text(frame, layout.SeatKey(seat, layout.Name)))
}

// Stack reads a seat's chip stack
func (e *Extractor) Stack(frame image.Image, seat int) float64 {
	return e.Number(frame, layout.SeatKey(seat, layout.Stack))
}

// Action reads a seat's action label, nil when nothing is recognised
func (e *Extractor) Action(frame image.Image, seat int) *entities.Action {
	return ParseAction(e.Text(frame, layout.SeatKey(seat, layout.Action)))
}

// Pot reads the table pot
func (e *Extractor) Pot(frame image.Image) float64 {
	return e.Number(frame, layout.TableKey(layout.Pot))
}

// Blinds reads the small and big blind
func (e *Extractor) Blinds(frame image.Image) (sb, bb float64) {
	return ParseBlinds(e.Text(frame, layout.TableKey(layout.Blinds)))
}

// Cards reads a card area, returning normalised tokens
func (e *Extractor) Cards(frame image.Image, key layout.FieldKey) []string {
	return ParseCards(e.Text(frame, key))
}

// Country returns the seat's country. Flag recognition is not implemented,
// so the value is always "Unknown".
func (e *Extractor) Country(frame image.Image, seat int) string {
	return "Unknown"
}

func (e *Extractor) read(frame image.Image, key layout.FieldKey) (text string, err error) {
	e.reads.Add(1)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	if frame == nil {
		return "", fmt.Errorf("nil frame")
	}
	bounds := frame.Bounds()
	region, err := e.layout.Resolve(key, bounds.Dx(), bounds.Dy())
	if err != nil {
		return "", err
	}
	region = region.Add(bounds.Min)
	if region.Empty() {
		return "", fmt.Errorf("empty region %v", region)
	}

	bitmap, err := e.pre.Prepare(frame, region, e.inverted[key.Field])
	if err != nil {
		return "", fmt.Errorf("preprocess: %w", err)
	}
	text, err = e.rec.Recognize(bitmap, e.modes.mode(key.Field))
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (e *Extractor) fail(key layout.FieldKey, err error) {
	e.failures.Add(1)
	e.log.LogError(types.WrapError(types.ErrFieldReadFailure, fmt.Sprintf("failed to read %s", key), err))
}
