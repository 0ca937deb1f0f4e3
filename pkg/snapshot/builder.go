package snapshot

import (
	"image"
	"time"

	"github.com/fadedpez/pokerscribe/pkg/entities"
	"github.com/fadedpez/pokerscribe/pkg/layout"
)

// FieldReader reads individual fields from a frame. Implementations never
// fail: unreadable fields come back as zero values.
type FieldReader interface {
	Name(frame image.Image, seat int) string
	Stack(frame image.Image, seat int) float64
	Country(frame image.Image, seat int) string
	Action(frame image.Image, seat int) *entities.Action
	Cards(frame image.Image, key layout.FieldKey) []string
	Pot(frame image.Image) float64
	Blinds(frame image.Image) (sb, bb float64)
}

// Builder turns one frame into one GameState. It keeps no state between
// frames.
type Builder struct {
	reader FieldReader
	seats  []int
}

// NewBuilder creates a builder reading the given seats in order
func NewBuilder(reader FieldReader, seats []int) *Builder {
	return &Builder{reader: reader, seats: seats}
}

// Build reads every configured seat and the table-wide fields of a frame.
// Seats without a readable name are left out of the snapshot.
func (b *Builder) Build(frame image.Image, index int, timestamp time.Time) entities.GameState {
	community := b.reader.Cards(frame, layout.TableKey(layout.Community))
	street := entities.StreetForBoard(len(community))

	state := entities.GameState{
		Index:          index,
		Timestamp:      timestamp,
		Players:        []entities.PlayerSnapshot{},
		Actions:        []entities.PlayerAction{},
		CurrentStreet:  street,
		CommunityCards: community,
	}

	for _, seat := range b.seats {
		name := b.reader.Name(frame, seat)
		if name == "" {
			continue
		}

		player := entities.PlayerSnapshot{
			Name:      name,
			Country:   b.reader.Country(frame, seat),
			Stack:     b.reader.Stack(frame, seat),
			Seat:      seat,
			HoleCards: b.reader.Cards(frame, layout.SeatKey(seat, layout.Cards)),
		}
		if action := b.reader.Action(frame, seat); action != nil {
			player.Action = action
			state.Actions = append(state.Actions, entities.PlayerAction{
				PlayerName: name,
				Action:     *action,
				Street:     street,
			})
		}
		state.Players = append(state.Players, player)
	}

	state.PotSize = b.reader.Pot(frame)
	state.SmallBlind, state.BigBlind = b.reader.Blinds(frame)
	return state
}
