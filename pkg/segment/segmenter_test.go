package segment

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/fadedpez/pokerscribe/pkg/entities"
)

func players(names ...string) []entities.PlayerSnapshot {
	out := make([]entities.PlayerSnapshot, len(names))
	for i, n := range names {
		out[i] = entities.PlayerSnapshot{Name: n, Stack: 100, Seat: i + 1}
	}
	return out
}

func snap(index int, pot, bb float64, names ...string) entities.GameState {
	return entities.GameState{Index: index, PotSize: pot, BigBlind: bb, Players: players(names...)}
}

func indexes(g Group) []int {
	out := make([]int, len(g))
	for i, s := range g {
		out[i] = s.Index
	}
	return out
}

type SegmenterTestSuite struct {
	suite.Suite
}

func (s *SegmenterTestSuite) TestIsBoundary() {
	base := snap(0, 100, 20, "A", "B")
	tests := []struct {
		name   string
		next   entities.GameState
		expect bool
	}{
		{"same state", snap(1, 100, 20, "A", "B"), false},
		{"pot grows", snap(1, 300, 20, "A", "B"), false},
		{"player joins", snap(1, 100, 20, "A", "B", "C"), true},
		{"player leaves", snap(1, 100, 20, "A"), true},
		{"pot collapses", snap(1, 9, 20, "A", "B"), true},
		{"pot exactly at threshold", snap(1, 10, 20, "A", "B"), false},
		{"blind goes up", snap(1, 100, 40, "A", "B"), true},
		{"blind misread as zero", snap(1, 100, 0, "A", "B"), false},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.Equal(tt.expect, IsBoundary(base, tt.next, 0.1))
		})
	}
}

func (s *SegmenterTestSuite) TestFirstSnapshotOpensGroup() {
	seg := New(DefaultConfig())
	_, ok := seg.Push(snap(0, 0, 0, "A"))
	s.False(ok)
	s.Equal(1, seg.Pending())

	g, ok := seg.Flush()
	s.True(ok)
	s.Equal([]int{0}, indexes(g))

	_, ok = seg.Flush()
	s.False(ok)
}

func (s *SegmenterTestSuite) TestEmptyStream() {
	s.Empty(All(nil, DefaultConfig()))
}

// Pot drop at frame 3 is a boundary candidate but the open group only holds
// two snapshots, so everything stays in one hand.
func (s *SegmenterTestSuite) TestShortGroupSuppressesPotDrop() {
	states := []entities.GameState{
		snap(0, 0, 0, "A", "B"),
		snap(1, 20, 0, "A", "B"),
		snap(2, 0, 0, "A", "B"),
	}

	groups := All(states, Config{BoundaryThreshold: 0.1, MinFramesPerHand: 2})

	s.Require().Len(groups, 1)
	s.Equal([]int{0, 1, 2}, indexes(groups[0]))
}

func (s *SegmenterTestSuite) TestBlindChangeFromZero() {
	var states []entities.GameState
	for i, bb := range []float64{0, 0, 0, 2, 2} {
		states = append(states, snap(i, 0, bb, "A", "B"))
	}

	s.Run("fires once the group is long enough", func() {
		groups := All(states, Config{BoundaryThreshold: 0.1, MinFramesPerHand: 2})
		s.Require().Len(groups, 2)
		s.Equal([]int{0, 1, 2}, indexes(groups[0]))
		s.Equal([]int{3, 4}, indexes(groups[1]))
	})

	s.Run("suppressed by the default minimum", func() {
		groups := All(states, DefaultConfig())
		s.Require().Len(groups, 1)
		s.Equal([]int{0, 1, 2, 3, 4}, indexes(groups[0]))
	})
}

func (s *SegmenterTestSuite) TestIncrementalMatchesBatch() {
	var states []entities.GameState
	for i := 0; i < 5; i++ {
		states = append(states, snap(i, float64(10*(i+1)), 2, "A", "B"))
	}
	for i := 5; i < 10; i++ {
		states = append(states, snap(i, float64(i), 2, "A", "B", "C"))
	}

	seg := New(DefaultConfig())
	var live []Group
	for _, st := range states {
		if g, ok := seg.Push(st); ok {
			live = append(live, g)
		}
	}
	if g, ok := seg.Flush(); ok {
		live = append(live, g)
	}

	batch := All(states, DefaultConfig())
	s.Equal(batch, live)
	s.Require().Len(batch, 2)
	s.Equal([]int{0, 1, 2, 3, 4}, indexes(batch[0]))
	s.Equal([]int{5, 6, 7, 8, 9}, indexes(batch[1]))
}

func (s *SegmenterTestSuite) TestPartitionAndMinimumSize() {
	rng := rand.New(rand.NewSource(42))
	names := []string{"A", "B", "C"}

	for run := 0; run < 200; run++ {
		cfg := Config{BoundaryThreshold: 0.1, MinFramesPerHand: rng.Intn(5)}
		n := rng.Intn(60)
		states := make([]entities.GameState, n)
		for i := range states {
			pot := float64(rng.Intn(4) * 50)
			bb := float64(rng.Intn(3) * 10)
			states[i] = snap(i, pot, bb, names[:1+rng.Intn(3)]...)
		}

		groups := All(states, cfg)

		var joined []int
		for i, g := range groups {
			s.NotEmpty(g)
			if i < len(groups)-1 {
				s.Greater(len(g), cfg.MinFramesPerHand)
			}
			joined = append(joined, indexes(g)...)
		}
		expect := make([]int, n)
		for i := range expect {
			expect[i] = i
		}
		if n == 0 {
			s.Empty(joined)
			continue
		}
		s.Equal(expect, joined)
	}
}

func TestSegmenterSuite(t *testing.T) {
	suite.Run(t, new(SegmenterTestSuite))
}
