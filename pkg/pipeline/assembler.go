package pipeline

import (
	"context"
	"image"
	"time"

	"github.com/fadedpez/pokerscribe/internal/logging"
	"github.com/fadedpez/pokerscribe/pkg/aggregate"
	"github.com/fadedpez/pokerscribe/pkg/entities"
	"github.com/fadedpez/pokerscribe/pkg/segment"
)

// StateBuilder turns a frame into a game state snapshot
type StateBuilder interface {
	Build(frame image.Image, index int, timestamp time.Time) entities.GameState
}

// assembler carries snapshots through segmentation, aggregation and
// recording. It is owned by a single goroutine.
type assembler struct {
	builder   StateBuilder
	segmenter *segment.Segmenter
	agg       *aggregate.Aggregator
	recorder  *Recorder
	stats     *Stats
	logger    *logging.Logger
	minFrames int
	failures  func() int64
}

func newAssembler(builder StateBuilder, cfg segment.Config, agg *aggregate.Aggregator, recorder *Recorder, stats *Stats, logger *logging.Logger, failures func() int64) *assembler {
	return &assembler{
		builder:   builder,
		segmenter: segment.New(cfg),
		agg:       agg,
		recorder:  recorder,
		stats:     stats,
		logger:    logger,
		minFrames: cfg.MinFramesPerHand,
		failures:  failures,
	}
}

// process snapshots one frame and returns the hand it closed, if any
func (a *assembler) process(ctx context.Context, frame Frame) *entities.HandRecord {
	state := a.builder.Build(frame.Image, frame.Index, frame.Timestamp)
	a.stats.processed.Add(1)
	if a.failures != nil {
		a.stats.SetFieldFailures(a.failures())
	}

	a.stats.track(state)

	group, ok := a.segmenter.Push(state)
	if !ok {
		return nil
	}
	return a.close(ctx, group)
}

// flush closes the open group at end of stream
func (a *assembler) flush(ctx context.Context) *entities.HandRecord {
	group, ok := a.segmenter.Flush()
	if !ok {
		return nil
	}
	return a.close(ctx, group)
}

func (a *assembler) close(ctx context.Context, group segment.Group) *entities.HandRecord {
	if len(group) <= a.minFrames {
		a.logger.Debug("Short hand group of %d frames (starting at frame %d)", len(group), group[0].Index)
	}

	record := a.agg.Aggregate(group)
	if record == nil {
		return nil
	}
	a.stats.hands.Add(1)

	if err := a.recorder.Record(ctx, record); err != nil {
		a.stats.errors.Add(1)
	}
	a.logger.Info("Hand #%d finalized: %d players, pot %.2f, %d frames", record.HandNumber, len(record.Roster), record.TotalPot, record.FrameCount)
	return record
}
