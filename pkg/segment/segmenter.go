package segment

import (
	"github.com/fadedpez/pokerscribe/pkg/entities"
)

// Group is a contiguous run of snapshots attributed to one hand
type Group []entities.GameState

// Config holds the boundary heuristics
type Config struct {
	// BoundaryThreshold is the fraction of the previous pot below which a pot
	// reading is treated as a payout
	BoundaryThreshold float64
	// MinFramesPerHand is the number of snapshots a group must exceed before
	// a boundary may close it
	MinFramesPerHand int
}

// DefaultConfig returns the standard thresholds
func DefaultConfig() Config {
	return Config{BoundaryThreshold: 0.1, MinFramesPerHand: 3}
}

// Segmenter partitions an ordered snapshot stream into hand groups. It is
// not safe for concurrent use.
type Segmenter struct {
	cfg  Config
	open Group
}

// New creates a segmenter with no open group
func New(cfg Config) *Segmenter {
	return &Segmenter{cfg: cfg}
}

// IsBoundary reports whether next looks like the start of a new hand
// relative to last. Any of these fires: the number of players changed, the
// pot collapsed below last.PotSize*threshold, or a non-zero big blind
// differs from the previous one.
func IsBoundary(last, next entities.GameState, threshold float64) bool {
	if len(next.Players) != len(last.Players) {
		return true
	}
	if next.PotSize < last.PotSize*threshold {
		return true
	}
	if next.BigBlind != last.BigBlind && next.BigBlind > 0 {
		return true
	}
	return false
}

// Push feeds the next snapshot. When it closes the open group, the closed
// group is returned with ok set and the snapshot starts a new group.
func (s *Segmenter) Push(state entities.GameState) (closed Group, ok bool) {
	if len(s.open) == 0 {
		s.open = Group{state}
		return nil, false
	}

	last := s.open[len(s.open)-1]
	if IsBoundary(last, state, s.cfg.BoundaryThreshold) && len(s.open) > s.cfg.MinFramesPerHand {
		closed = s.open
		s.open = Group{state}
		return closed, true
	}

	s.open = append(s.open, state)
	return nil, false
}

// Flush closes whatever group is open, however short
func (s *Segmenter) Flush() (Group, bool) {
	if len(s.open) == 0 {
		return nil, false
	}
	closed := s.open
	s.open = nil
	return closed, true
}

// Pending returns the number of snapshots in the open group
func (s *Segmenter) Pending() int {
	return len(s.open)
}

// All segments a finite snapshot sequence
func All(states []entities.GameState, cfg Config) []Group {
	seg := New(cfg)
	var groups []Group
	for _, state := range states {
		if g, ok := seg.Push(state); ok {
			groups = append(groups, g)
		}
	}
	if g, ok := seg.Flush(); ok {
		groups = append(groups, g)
	}
	return groups
}
