package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/fadedpez/pokerscribe/internal/types"
	"github.com/fadedpez/pokerscribe/pkg/entities"
	"github.com/fadedpez/pokerscribe/pkg/repositories/hand"
	mock_hand "github.com/fadedpez/pokerscribe/pkg/repositories/hand/mock"
)

func testRecord() *entities.HandRecord {
	return &entities.HandRecord{
		HandNumber: 3,
		GameID:     "VIDEO_20240301_120000",
		Timestamp:  testStart,
		SmallBlind: 1,
		BigBlind:   2,
		Roster:     []string{"Alice", "Bob"},
		Players: map[string]*entities.PlayerHandResult{
			"Alice": {
				Name:          "Alice",
				Country:       "Unknown",
				Position:      "Seat_1",
				StartingStack: 100,
				FinalStack:    90,
				NetWinLoss:    -10,
				Flag:          entities.FlagLoss,
				ActionsByStreet: map[entities.Street][]entities.Action{
					entities.StreetPreflop: {{Kind: entities.ActionRaise, Amount: 6}},
					entities.StreetFlop:    {{Kind: entities.ActionCheck}, {Kind: entities.ActionFold}},
				},
				CardsDealt: []string{"Ah", "Kd"},
			},
			"Bob": {
				Name:          "Bob",
				Country:       "Unknown",
				Position:      "Seat_2",
				StartingStack: 100,
				FinalStack:    110,
				NetWinLoss:    10,
				Flag:          entities.FlagWin,
			},
		},
		TotalPot:   20,
		Winner:     "Bob",
		FrameCount: 4,
	}
}

func newTestRecorder(sink hand.Sink, listeners ...HandListener) *Recorder {
	r := NewRecorder(sink, nil, listeners...)
	n := 0
	r.newID = func() string {
		n++
		return fmt.Sprintf("tx-%d", n)
	}
	return r
}

func TestRecorderWritesEveryPlayerInRosterOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := mock_hand.NewMockSink(ctrl)
	collector := &handCollector{}
	recorder := newTestRecorder(sink, collector)

	var stored []*entities.Transaction
	capture := func(ctx context.Context, name string, tx *entities.Transaction) error {
		stored = append(stored, tx)
		return nil
	}
	gomock.InOrder(
		sink.EXPECT().UpsertPlayer(gomock.Any(), "Alice", "Unknown").Return(nil),
		sink.EXPECT().AppendTransaction(gomock.Any(), "Alice", gomock.Any()).DoAndReturn(capture),
		sink.EXPECT().UpsertPlayer(gomock.Any(), "Bob", "Unknown").Return(nil),
		sink.EXPECT().AppendTransaction(gomock.Any(), "Bob", gomock.Any()).DoAndReturn(capture),
	)

	require.NoError(t, recorder.Record(context.Background(), testRecord()))
	require.Len(t, stored, 2)

	alice := stored[0]
	assert.Equal(t, "tx-1", alice.ID)
	assert.Equal(t, "VIDEO_20240301_120000", alice.GameID)
	assert.Equal(t, 3, alice.HandNumber)
	assert.Equal(t, "Seat_1", alice.Position)
	assert.Equal(t, "Raise 6", alice.ActionPreflop)
	assert.Equal(t, "Check, Fold", alice.ActionFlop)
	assert.Empty(t, alice.ActionTurn)
	assert.Equal(t, "Ah Kd", alice.CardsDealt)
	assert.Equal(t, -10.0, alice.NetWinLoss)
	assert.Equal(t, 20.0, alice.PotSize)
	assert.Equal(t, entities.FlagLoss, alice.WinLossFlag)
	assert.Equal(t, "Winner: Bob", alice.Notes)
	assert.True(t, alice.Timestamp.Equal(testStart))

	assert.Equal(t, "tx-2", stored[1].ID)
	assert.Equal(t, entities.FlagWin, stored[1].WinLossFlag)
	assert.Len(t, collector.all(), 1)
}

func TestRecorderContinuesAfterSinkError(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := mock_hand.NewMockSink(ctrl)
	collector := &handCollector{}
	recorder := newTestRecorder(sink, collector)

	sink.EXPECT().UpsertPlayer(gomock.Any(), "Alice", "Unknown").Return(errors.New("disk full"))
	sink.EXPECT().UpsertPlayer(gomock.Any(), "Bob", "Unknown").Return(nil)
	sink.EXPECT().AppendTransaction(gomock.Any(), "Bob", gomock.Any()).Return(nil)

	err := recorder.Record(context.Background(), testRecord())
	require.Error(t, err)
	assert.True(t, types.IsError(err, types.ErrDatabaseError))
	assert.Len(t, collector.all(), 1, "listeners are still notified")
}

func TestRecorderNoWinnerLeavesNotesEmpty(t *testing.T) {
	record := testRecord()
	record.Winner = ""
	tx := newTestRecorder(nil).Transaction(record, record.Players["Alice"])
	assert.Empty(t, tx.Notes)
}

func TestRecorderWithoutSinkOnlyNotifies(t *testing.T) {
	var got *entities.HandRecord
	recorder := NewRecorder(nil, nil, HandListenerFunc(func(ctx context.Context, r *entities.HandRecord) {
		got = r
	}))
	record := testRecord()
	require.NoError(t, recorder.Record(context.Background(), record))
	assert.Same(t, record, got)
	assert.NoError(t, recorder.Record(context.Background(), nil))
}

func TestStatsSnapshotSortsPlayers(t *testing.T) {
	s := NewStats()
	s.track(entities.GameState{
		Players: []entities.PlayerSnapshot{{Name: "Bob"}, {Name: "Alice"}},
		Actions: []entities.PlayerAction{{PlayerName: "Bob", Action: entities.Action{Kind: entities.ActionCall}}},
	})
	s.track(entities.GameState{Players: []entities.PlayerSnapshot{{Name: "Bob"}}})
	s.captured.Add(2)
	s.SetFieldFailures(7)

	snap := s.Snapshot()
	assert.Equal(t, []string{"Alice", "Bob"}, snap.Players)
	assert.Equal(t, []PlayerActivity{
		{Name: "Alice", Appearances: 1},
		{Name: "Bob", Appearances: 2, Actions: 1},
	}, snap.Activity)
	assert.Equal(t, int64(2), snap.FramesCaptured)
	assert.Equal(t, int64(7), snap.FieldFailures)
}
