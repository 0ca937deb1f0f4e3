package pipeline

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"sync"
	"time"

	"github.com/fadedpez/pokerscribe/pkg/entities"
)

var testStart = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func solid(c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 64, 36))
	for y := 0; y < 36; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// alternating returns n frames switching between black and white so every
// frame passes the diff gate
func alternating(n int) []Frame {
	black, white := solid(color.Black), solid(color.White)
	frames := make([]Frame, n)
	for i := range frames {
		img := black
		if i%2 == 1 {
			img = white
		}
		frames[i] = Frame{Index: i, Timestamp: testStart.Add(time.Duration(i) * time.Second), Image: img}
	}
	return frames
}

// sliceSource serves frames from memory, optionally failing before some reads
type sliceSource struct {
	mu       sync.Mutex
	frames   []Frame
	pos      int
	failures int
	failAt   int
	infinite bool
	closed   bool
}

func (s *sliceSource) Next(ctx context.Context) (Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 && s.pos == s.failAt {
		s.failures--
		return Frame{}, errors.New("device busy")
	}
	if s.pos >= len(s.frames) {
		if !s.infinite {
			return Frame{}, io.EOF
		}
		s.pos = 0
	}
	f := s.frames[s.pos]
	s.pos++
	return f, nil
}

func (s *sliceSource) Close() error {
	s.closed = true
	return nil
}

// skippingSource also implements Skipper
type skippingSource struct {
	sliceSource
	skipped int
}

func (s *skippingSource) Skip(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skipped += n
	s.pos += n
	return nil
}

// gatedSource waits for gates[i] to close before serving frame i
type gatedSource struct {
	sliceSource
	gates map[int]chan struct{}
}

func (s *gatedSource) Next(ctx context.Context) (Frame, error) {
	s.mu.Lock()
	gate := s.gates[s.pos]
	s.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return Frame{}, ctx.Err()
		}
	}
	return s.sliceSource.Next(ctx)
}

// scriptBuilder returns prepared game states by frame index. When entered is
// set, each call reports its frame index there before waiting on release.
type scriptBuilder struct {
	mu      sync.Mutex
	states  map[int]entities.GameState
	seen    []int
	release chan struct{}
	entered chan int
}

func (b *scriptBuilder) Build(frame image.Image, index int, timestamp time.Time) entities.GameState {
	if b.entered != nil {
		b.entered <- index
	}
	if b.release != nil {
		<-b.release
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seen = append(b.seen, index)
	state := b.states[index%len(b.states)]
	state.Index = index
	state.Timestamp = timestamp
	return state
}

func (b *scriptBuilder) indices() []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]int(nil), b.seen...)
}

func headsUp(a, b, pot float64) entities.GameState {
	return entities.GameState{
		Players: []entities.PlayerSnapshot{
			{Name: "Alice", Country: "Unknown", Stack: a, Seat: 1},
			{Name: "Bob", Country: "Unknown", Stack: b, Seat: 2},
		},
		PotSize:       pot,
		SmallBlind:    1,
		BigBlind:      2,
		CurrentStreet: entities.StreetPreflop,
	}
}

// twoHands scripts frames 0-3 as one hand and 4-6 as the next
func twoHands() map[int]entities.GameState {
	return map[int]entities.GameState{
		0: headsUp(100, 100, 10),
		1: headsUp(95, 100, 20),
		2: headsUp(90, 100, 30),
		3: headsUp(90, 110, 40),
		4: headsUp(90, 110, 0.5),
		5: headsUp(80, 110, 10),
		6: headsUp(80, 120, 20),
	}
}

// handCollector is a HandListener that keeps every record
type handCollector struct {
	mu      sync.Mutex
	records []*entities.HandRecord
}

func (c *handCollector) OnHand(ctx context.Context, record *entities.HandRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, record)
}

func (c *handCollector) all() []*entities.HandRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*entities.HandRecord(nil), c.records...)
}
