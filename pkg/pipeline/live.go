package pipeline

import (
	"context"
	"errors"
	"image"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fadedpez/pokerscribe/internal/logging"
	"github.com/fadedpez/pokerscribe/internal/types"
	"github.com/fadedpez/pokerscribe/pkg/aggregate"
	"github.com/fadedpez/pokerscribe/pkg/segment"
)

// LiveConfig controls continuous capture
type LiveConfig struct {
	SampleInterval time.Duration
	// Frames whose difference from the last accepted frame is below
	// DiffThreshold are not queued
	DiffThreshold float64
	QueueSize     int
	Similarity    Similarity
	Segment       segment.Config
	MinBackoff    time.Duration
	MaxBackoff    time.Duration
	FieldFailures func() int64
}

// DefaultLiveConfig returns the standard live capture settings
func DefaultLiveConfig() LiveConfig {
	return LiveConfig{
		SampleInterval: 2 * time.Second,
		DiffThreshold:  0.05,
		QueueSize:      10,
		Similarity:     DiffRatio,
		Segment:        segment.DefaultConfig(),
		MinBackoff:     time.Second,
		MaxBackoff:     30 * time.Second,
	}
}

// Live captures frames on one goroutine and snapshots them on another. The
// queue between them is bounded and drops frames when full.
type Live struct {
	config   LiveConfig
	builder  StateBuilder
	agg      *aggregate.Aggregator
	recorder *Recorder
	stats    *Stats
	logger   *logging.Logger
	paused   atomic.Bool
}

// NewLive creates a live runner
func NewLive(config LiveConfig, builder StateBuilder, agg *aggregate.Aggregator, recorder *Recorder, logger *logging.Logger) *Live {
	defaults := DefaultLiveConfig()
	if config.SampleInterval <= 0 {
		config.SampleInterval = defaults.SampleInterval
	}
	if config.QueueSize < 1 {
		config.QueueSize = defaults.QueueSize
	}
	if config.Similarity == nil {
		config.Similarity = defaults.Similarity
	}
	if config.MinBackoff <= 0 {
		config.MinBackoff = defaults.MinBackoff
	}
	if config.MaxBackoff < config.MinBackoff {
		config.MaxBackoff = defaults.MaxBackoff
	}
	if logger == nil {
		logger = logging.Default
	}
	return &Live{
		config:   config,
		builder:  builder,
		agg:      agg,
		recorder: recorder,
		stats:    NewStats(),
		logger:   logger,
	}
}

// Stats returns the runner's counters
func (l *Live) Stats() *Stats {
	return l.stats
}

// Pause stops capturing until Resume is called
func (l *Live) Pause() {
	l.paused.Store(true)
}

// Resume restarts capturing after Pause
func (l *Live) Resume() {
	l.paused.Store(false)
}

// Paused reports whether capture is paused
func (l *Live) Paused() bool {
	return l.paused.Load()
}

// Run captures from source until ctx is cancelled or the source returns
// io.EOF. The open hand is flushed before Run returns.
func (l *Live) Run(ctx context.Context, source FrameSource) error {
	queue := make(chan Frame, l.config.QueueSize)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		defer close(queue)
		l.produce(ctx, source, queue)
	}()
	go func() {
		defer wg.Done()
		l.consume(ctx, queue)
	}()
	wg.Wait()

	l.logger.Info("Live capture stopped")
	return nil
}

func (l *Live) produce(ctx context.Context, source FrameSource, queue chan<- Frame) {
	ticker := time.NewTicker(l.config.SampleInterval)
	defer ticker.Stop()

	var last image.Image
	backoff := l.config.MinBackoff
	for {
		if !l.paused.Load() {
			frame, err := source.Next(ctx)
			switch {
			case errors.Is(err, io.EOF):
				l.logger.Info("Frame source exhausted")
				return
			case ctx.Err() != nil:
				return
			case err != nil:
				l.stats.errors.Add(1)
				l.logger.LogError(types.WrapError(types.ErrFrameSourceFailure, "capture failed, retrying in "+backoff.String(), err))
				select {
				case <-ctx.Done():
					return
				case <-time.After(backoff):
				}
				backoff *= 2
				if backoff > l.config.MaxBackoff {
					backoff = l.config.MaxBackoff
				}
				continue
			}
			backoff = l.config.MinBackoff
			l.stats.captured.Add(1)

			if last != nil && l.config.Similarity(last, frame.Image) < l.config.DiffThreshold {
				l.stats.skipped.Add(1)
			} else {
				// the diff reference is the last queued frame, never a dropped one
				select {
				case queue <- frame:
					last = frame.Image
					l.stats.queued.Add(1)
				default:
					l.stats.dropped.Add(1)
					l.logger.Debug("Queue full, dropped frame %d", frame.Index)
				}
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (l *Live) consume(ctx context.Context, queue <-chan Frame) {
	asm := newAssembler(l.builder, l.config.Segment, l.agg, l.recorder, l.stats, l.logger, l.config.FieldFailures)
	for frame := range queue {
		if ctx.Err() != nil {
			continue
		}
		asm.process(ctx, frame)
	}
	asm.flush(context.WithoutCancel(ctx))
}
