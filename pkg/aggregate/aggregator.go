package aggregate

import (
	"fmt"
	"sync"
	"time"

	"github.com/fadedpez/pokerscribe/pkg/entities"
	"github.com/fadedpez/pokerscribe/pkg/segment"
)

// GameIDLayout formats the run start time into a game identifier
const GameIDLayout = "VIDEO_20060102_150405"

// Aggregator reduces hand groups into finalized hand records. It owns the
// hand counter for one run.
type Aggregator struct {
	mu      sync.Mutex
	counter int
	gameID  string
	clock   func() time.Time
}

// New creates an aggregator whose game ID comes from the current time
func New() *Aggregator {
	return NewWithClock(time.Now)
}

// NewWithClock creates an aggregator reading time from clock
func NewWithClock(clock func() time.Time) *Aggregator {
	return &Aggregator{
		gameID: clock().Format(GameIDLayout),
		clock:  clock,
	}
}

// GameID returns the identifier shared by every hand of this run
func (a *Aggregator) GameID() string {
	return a.gameID
}

// HandsStarted returns how many hands have been initialized
func (a *Aggregator) HandsStarted() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.counter
}

// Hand accumulates the snapshots of one hand until it is finalized
type Hand struct {
	record *entities.HandRecord
	final  bool
}

// Initialize opens the next hand from its first snapshot
func (a *Aggregator) Initialize(first entities.GameState) *Hand {
	a.mu.Lock()
	a.counter++
	number := a.counter
	a.mu.Unlock()

	ts := first.Timestamp
	if ts.IsZero() {
		ts = a.clock()
	}

	record := &entities.HandRecord{
		HandNumber: number,
		GameID:     a.gameID,
		Timestamp:  ts,
		SmallBlind: first.SmallBlind,
		BigBlind:   first.BigBlind,
		Players:    make(map[string]*entities.PlayerHandResult, len(first.Players)),
		Actions:    []entities.ActionRecord{},
		Board:      first.CommunityCards,
		TotalPot:   first.PotSize,
		FrameCount: 1,
	}
	for _, p := range first.Players {
		if _, dup := record.Players[p.Name]; dup {
			continue
		}
		record.Players[p.Name] = &entities.PlayerHandResult{
			Name:            p.Name,
			Country:         p.Country,
			Position:        fmt.Sprintf("Seat_%d", p.Seat),
			StartingStack:   p.Stack,
			FinalStack:      p.Stack,
			Flag:            entities.FlagPending,
			ActionsByStreet: make(map[entities.Street][]entities.Action),
			CardsDealt:      p.HoleCards,
		}
		record.Roster = append(record.Roster, p.Name)
	}

	return &Hand{record: record}
}

// FoldIn applies a later snapshot of the same hand. The pot and each known
// player's stack take the latest reading. Snapshots are ignored once the
// hand is finalized.
func (h *Hand) FoldIn(state entities.GameState) {
	if h.final {
		return
	}
	h.record.FrameCount++
	h.record.TotalPot = state.PotSize
	if len(state.CommunityCards) >= len(h.record.Board) && len(state.CommunityCards) > 0 {
		h.record.Board = state.CommunityCards
	}

	for _, p := range state.Players {
		result, ok := h.record.Players[p.Name]
		if !ok {
			continue
		}
		result.FinalStack = p.Stack
		if len(result.CardsDealt) == 0 && len(p.HoleCards) > 0 {
			result.CardsDealt = p.HoleCards
		}
	}
	h.recordActions(state)
}

func (h *Hand) recordActions(state entities.GameState) {
	for _, pa := range state.Actions {
		result, ok := h.record.Players[pa.PlayerName]
		if !ok {
			continue
		}
		street := pa.Street
		if street == "" {
			street = state.CurrentStreet
		}
		if street == "" {
			street = entities.StreetPreflop
		}
		h.record.Actions = append(h.record.Actions, entities.ActionRecord{
			PlayerName: pa.PlayerName,
			Action:     string(pa.Action.Kind),
			Amount:     pa.Action.Amount,
			Street:     street,
		})
		result.ActionsByStreet[street] = append(result.ActionsByStreet[street], pa.Action)
	}
}

// Finalize settles the hand and returns its record. Calling it again returns
// the same record unchanged.
func (h *Hand) Finalize() *entities.HandRecord {
	if !h.final {
		Settle(h.record)
		h.final = true
	}
	return h.record
}

// Settle computes each player's net result and flag and picks the winner:
// the first player in roster order with a positive net. The winner stays
// empty when nobody is up. Settling a settled record changes nothing.
func Settle(record *entities.HandRecord) {
	record.Winner = ""
	for _, name := range record.Roster {
		p, ok := record.Players[name]
		if !ok {
			continue
		}
		p.NetWinLoss = p.FinalStack - p.StartingStack
		p.Flag = entities.FlagForNet(p.NetWinLoss)
		if p.NetWinLoss > 0 && record.Winner == "" {
			record.Winner = name
		}
	}
}

// Aggregate reduces one closed group to a finalized record
func (a *Aggregator) Aggregate(group segment.Group) *entities.HandRecord {
	if len(group) == 0 {
		return nil
	}
	hand := a.Initialize(group[0])
	for _, state := range group[1:] {
		hand.FoldIn(state)
	}
	return hand.Finalize()
}
