package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/fadedpez/pokerscribe/internal/logging"
	"github.com/fadedpez/pokerscribe/internal/types"
	"github.com/fadedpez/pokerscribe/pkg/entities"
	"github.com/fadedpez/pokerscribe/pkg/repositories/hand"
)

// HandListener is notified after a hand has been recorded
type HandListener interface {
	OnHand(ctx context.Context, record *entities.HandRecord)
}

// HandListenerFunc adapts a function to HandListener
type HandListenerFunc func(ctx context.Context, record *entities.HandRecord)

// OnHand calls f
func (f HandListenerFunc) OnHand(ctx context.Context, record *entities.HandRecord) {
	f(ctx, record)
}

// Recorder writes finalized hands to a sink, one transaction per player
type Recorder struct {
	sink      hand.Sink
	logger    *logging.Logger
	listeners []HandListener
	newID     func() string
}

// NewRecorder creates a recorder writing to sink. sink may be nil, in which
// case hands are only passed to listeners.
func NewRecorder(sink hand.Sink, logger *logging.Logger, listeners ...HandListener) *Recorder {
	if logger == nil {
		logger = logging.Default
	}
	return &Recorder{
		sink:      sink,
		logger:    logger,
		listeners: listeners,
		newID:     uuid.NewString,
	}
}

// AddListener registers another listener
func (r *Recorder) AddListener(l HandListener) {
	r.listeners = append(r.listeners, l)
}

// Record persists every player of the hand, then notifies listeners. A
// failure for one player does not stop the others; each is logged and all
// are returned together.
func (r *Recorder) Record(ctx context.Context, record *entities.HandRecord) error {
	if record == nil {
		return nil
	}

	var errs []error
	if r.sink != nil {
		for _, name := range record.Roster {
			player, ok := record.Players[name]
			if !ok {
				continue
			}
			if err := r.sink.UpsertPlayer(ctx, name, player.Country); err != nil {
				errs = append(errs, types.WrapError(types.ErrDatabaseError, fmt.Sprintf("failed to upsert player %s", name), err))
				continue
			}
			if err := r.sink.AppendTransaction(ctx, name, r.Transaction(record, player)); err != nil {
				errs = append(errs, types.WrapError(types.ErrDatabaseError, fmt.Sprintf("failed to store hand %d for %s", record.HandNumber, name), err))
			}
		}
	}

	for _, l := range r.listeners {
		l.OnHand(ctx, record)
	}

	for _, err := range errs {
		r.logger.LogError(err)
	}
	r.logger.Debug("Recorded hand #%d (%d players, %d errors)", record.HandNumber, len(record.Roster), len(errs))
	return errors.Join(errs...)
}

// Transaction builds the persisted row for one player of a hand
func (r *Recorder) Transaction(record *entities.HandRecord, player *entities.PlayerHandResult) *entities.Transaction {
	tx := &entities.Transaction{
		ID:            r.newID(),
		PlayerName:    player.Name,
		Country:       player.Country,
		Timestamp:     record.Timestamp,
		GameID:        record.GameID,
		HandNumber:    record.HandNumber,
		Position:      player.Position,
		StartingStack: player.StartingStack,
		BigBlind:      record.BigBlind,
		SmallBlind:    record.SmallBlind,
		ActionPreflop: entities.JoinActions(player.ActionsByStreet[entities.StreetPreflop]),
		ActionFlop:    entities.JoinActions(player.ActionsByStreet[entities.StreetFlop]),
		ActionTurn:    entities.JoinActions(player.ActionsByStreet[entities.StreetTurn]),
		ActionRiver:   entities.JoinActions(player.ActionsByStreet[entities.StreetRiver]),
		CardsDealt:    strings.Join(player.CardsDealt, " "),
		FinalStack:    player.FinalStack,
		NetWinLoss:    player.NetWinLoss,
		PotSize:       record.TotalPot,
		WinLossFlag:   player.Flag,
	}
	if record.HasWinner() {
		tx.Notes = "Winner: " + record.Winner
	}
	return tx
}
