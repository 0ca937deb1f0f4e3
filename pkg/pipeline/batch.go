package pipeline

import (
	"context"
	"errors"
	"io"

	"github.com/fadedpez/pokerscribe/internal/logging"
	"github.com/fadedpez/pokerscribe/internal/types"
	"github.com/fadedpez/pokerscribe/pkg/aggregate"
	"github.com/fadedpez/pokerscribe/pkg/entities"
	"github.com/fadedpez/pokerscribe/pkg/segment"
)

// BatchConfig controls offline processing of a finite source
type BatchConfig struct {
	// SampleRate keeps every Nth frame
	SampleRate int
	Segment    segment.Config
	// OnFrame is called for every sampled frame before it is snapshotted
	OnFrame func(Frame) error
	// FieldFailures reports the extractor's failure count for Stats
	FieldFailures func() int64
}

// DefaultBatchConfig returns the standard sampling and segmentation settings
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		SampleRate: 30,
		Segment:    segment.DefaultConfig(),
	}
}

// Batch processes a finite frame source on the calling goroutine
type Batch struct {
	config   BatchConfig
	builder  StateBuilder
	agg      *aggregate.Aggregator
	recorder *Recorder
	stats    *Stats
	logger   *logging.Logger
}

// NewBatch creates a batch runner
func NewBatch(config BatchConfig, builder StateBuilder, agg *aggregate.Aggregator, recorder *Recorder, logger *logging.Logger) *Batch {
	if config.SampleRate < 1 {
		config.SampleRate = 1
	}
	if logger == nil {
		logger = logging.Default
	}
	return &Batch{
		config:   config,
		builder:  builder,
		agg:      agg,
		recorder: recorder,
		stats:    NewStats(),
		logger:   logger,
	}
}

// Stats returns the runner's counters
func (b *Batch) Stats() *Stats {
	return b.stats
}

// Run reads source until io.EOF and returns the finalized hands in order.
// On a source failure or cancellation the open hand is still flushed and
// the hands so far are returned with the error.
func (b *Batch) Run(ctx context.Context, source FrameSource) ([]*entities.HandRecord, error) {
	asm := newAssembler(b.builder, b.config.Segment, b.agg, b.recorder, b.stats, b.logger, b.config.FieldFailures)
	skipper, canSkip := source.(Skipper)
	rate := b.config.SampleRate

	var (
		records []*entities.HandRecord
		runErr  error
	)
	for {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		frame, err := source.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			runErr = types.WrapError(types.ErrFrameSourceFailure, "failed to read frame", err)
			b.stats.errors.Add(1)
			break
		}
		b.stats.captured.Add(1)

		if !canSkip && frame.Index%rate != 0 {
			continue
		}

		if b.config.OnFrame != nil {
			if err := b.config.OnFrame(frame); err != nil {
				b.logger.Warn("Frame hook failed on frame %d: %v", frame.Index, err)
			}
		}

		if record := asm.process(ctx, frame); record != nil {
			records = append(records, record)
		}

		if canSkip && rate > 1 {
			if err := skipper.Skip(rate - 1); err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				runErr = types.WrapError(types.ErrFrameSourceFailure, "failed to skip frames", err)
				b.stats.errors.Add(1)
				break
			}
		}
	}

	if record := asm.flush(context.WithoutCancel(ctx)); record != nil {
		records = append(records, record)
	}

	snap := b.stats.Snapshot()
	b.logger.Info("Processed %d of %d frames, %d hands", snap.FramesProcessed, snap.FramesCaptured, len(records))
	return records, runErr
}
