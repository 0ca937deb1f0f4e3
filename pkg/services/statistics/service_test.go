package statistics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/fadedpez/pokerscribe/pkg/entities"
	"github.com/fadedpez/pokerscribe/pkg/repositories/hand"
	mock_hand "github.com/fadedpez/pokerscribe/pkg/repositories/hand/mock"
)

func player(name string, hands int, winnings float64) *entities.PlayerStatistics {
	return &entities.PlayerStatistics{PlayerName: name, Country: "Unknown", HandsPlayed: hands, TotalWinnings: winnings}
}

func TestGetLeaderboard(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mock_hand.NewMockReader(ctrl)
	repo.EXPECT().ListPlayers(gomock.Any()).Return([]*entities.PlayerStatistics{
		player("Alice", 10, 50),
		player("Bob", 25, 120),
		player("Carol", 4, -30),
		player("Idle", 0, 0),
	}, nil)

	service := NewService(repo)
	fixed := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return fixed }

	board, err := service.GetLeaderboard(context.Background(), 1, 2)
	require.NoError(t, err)

	assert.Equal(t, 3, board.TotalPlayers)
	assert.Equal(t, 2, board.TotalPages)
	assert.Equal(t, fixed, board.LastUpdated)
	require.Len(t, board.Players, 2)

	assert.Equal(t, "Bob", board.Players[0].PlayerName)
	assert.Equal(t, 1, board.Players[0].Rank)
	assert.True(t, board.Players[0].IsTopWinner)
	assert.True(t, board.Players[0].IsTopPlayer)
	assert.InDelta(t, 4.8, board.Players[0].AverageNet, 1e-9)
	assert.Equal(t, "Alice", board.Players[1].PlayerName)
}

func TestGetLeaderboardClampsPage(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mock_hand.NewMockReader(ctrl)
	repo.EXPECT().ListPlayers(gomock.Any()).Return([]*entities.PlayerStatistics{
		player("Alice", 1, 5),
		player("Bob", 1, -5),
	}, nil)

	board, err := NewService(repo).GetLeaderboard(context.Background(), 9, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, board.CurrentPage)
	assert.Equal(t, 10, board.PlayersPerPage)
	assert.Len(t, board.Players, 2)
}

func TestGetPlayerSummary(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mock_hand.NewMockReader(ctrl)
	repo.EXPECT().GetPlayer(gomock.Any(), "Alice").Return(player("Alice", 4, 15), nil)
	repo.EXPECT().GetTransactions(gomock.Any(), "Alice", 0).Return([]*entities.Transaction{
		{HandNumber: 4, Position: "Seat_1", NetWinLoss: 30, WinLossFlag: entities.FlagWin},
		{HandNumber: 3, Position: "Seat_1", NetWinLoss: -20, WinLossFlag: entities.FlagLoss},
		{HandNumber: 2, Position: "Seat_2", NetWinLoss: 0, WinLossFlag: entities.FlagBreakEven},
		{HandNumber: 1, Position: "Seat_2", NetWinLoss: 5, WinLossFlag: entities.FlagWin},
	}, nil)

	summary, err := NewService(repo).GetPlayerSummary(context.Background(), "Alice", 2)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Wins)
	assert.Equal(t, 1, summary.Losses)
	assert.Equal(t, 1, summary.BreakEven)
	assert.InDelta(t, 0.5, summary.WinRate, 1e-9)
	assert.Equal(t, 30.0, summary.BiggestWin)
	assert.Equal(t, -20.0, summary.BiggestLoss)
	assert.Equal(t, map[string]float64{"Seat_1": 10, "Seat_2": 5}, summary.NetByPosition)
	require.Len(t, summary.RecentHands, 2)
	assert.Equal(t, 4, summary.RecentHands[0].HandNumber)
}

func TestGetPlayerSummaryUnknownPlayer(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mock_hand.NewMockReader(ctrl)
	repo.EXPECT().GetPlayer(gomock.Any(), "nobody").Return(nil, hand.ErrPlayerNotFound)

	_, err := NewService(repo).GetPlayerSummary(context.Background(), "nobody", 5)
	assert.ErrorIs(t, err, hand.ErrPlayerNotFound)
}
