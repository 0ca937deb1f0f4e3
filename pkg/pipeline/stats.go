package pipeline

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/fadedpez/pokerscribe/pkg/entities"
)

// Stats counts pipeline activity. All methods are safe for concurrent use.
type Stats struct {
	captured      atomic.Int64
	queued        atomic.Int64
	dropped       atomic.Int64
	skipped       atomic.Int64
	processed     atomic.Int64
	hands         atomic.Int64
	fieldFailures atomic.Int64
	errors        atomic.Int64

	mu      sync.Mutex
	players map[string]*PlayerActivity
}

// PlayerActivity counts how often a player was read across processed frames
type PlayerActivity struct {
	Name        string `json:"name"`
	Appearances int64  `json:"appearances"`
	Actions     int64  `json:"actions"`
}

// StatsSnapshot is a point-in-time copy of Stats
type StatsSnapshot struct {
	FramesCaptured  int64            `json:"frames_captured"`
	FramesQueued    int64            `json:"frames_queued"`
	FramesDropped   int64            `json:"frames_dropped"`
	FramesUnchanged int64            `json:"frames_unchanged"`
	FramesProcessed int64            `json:"frames_processed"`
	HandsRecorded   int64            `json:"hands_recorded"`
	FieldFailures   int64            `json:"field_failures"`
	Errors          int64            `json:"errors"`
	Players         []string         `json:"players"`
	Activity        []PlayerActivity `json:"activity"`
}

// NewStats creates an empty Stats
func NewStats() *Stats {
	return &Stats{players: make(map[string]*PlayerActivity)}
}

// track counts each seated player of a snapshot and the actions read for them
func (s *Stats) track(state entities.GameState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range state.Players {
		s.activity(p.Name).Appearances++
	}
	for _, a := range state.Actions {
		s.activity(a.PlayerName).Actions++
	}
}

func (s *Stats) activity(name string) *PlayerActivity {
	pa, ok := s.players[name]
	if !ok {
		pa = &PlayerActivity{Name: name}
		s.players[name] = pa
	}
	return pa
}

// SetFieldFailures records the extractor's running failure count
func (s *Stats) SetFieldFailures(n int64) {
	s.fieldFailures.Store(n)
}

// Snapshot returns a copy of the counters with tracked players sorted by name
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	activity := make([]PlayerActivity, 0, len(s.players))
	for _, pa := range s.players {
		activity = append(activity, *pa)
	}
	s.mu.Unlock()
	sort.Slice(activity, func(i, j int) bool { return activity[i].Name < activity[j].Name })

	players := make([]string, len(activity))
	for i, pa := range activity {
		players[i] = pa.Name
	}

	return StatsSnapshot{
		FramesCaptured:  s.captured.Load(),
		FramesQueued:    s.queued.Load(),
		FramesDropped:   s.dropped.Load(),
		FramesUnchanged: s.skipped.Load(),
		FramesProcessed: s.processed.Load(),
		HandsRecorded:   s.hands.Load(),
		FieldFailures:   s.fieldFailures.Load(),
		Errors:          s.errors.Load(),
		Players:         players,
		Activity:        activity,
	}
}
