package statistics

import (
	"context"
	"sort"
	"time"

	"github.com/fadedpez/pokerscribe/pkg/entities"
	"github.com/fadedpez/pokerscribe/pkg/repositories/hand"
)

// Service summarizes stored hands per player
type Service struct {
	repository hand.Reader
	now        func() time.Time
}

// NewService creates a new statistics service
func NewService(repository hand.Reader) *Service {
	return &Service{
		repository: repository,
		now:        time.Now,
	}
}

// PlayerRank represents a player's statistics with ranking information
type PlayerRank struct {
	*entities.PlayerStatistics
	Rank        int     `json:"rank"`
	AverageNet  float64 `json:"average_net"`
	IsTopWinner bool    `json:"is_top_winner"`
	IsTopPlayer bool    `json:"is_top_player"`
}

// Leaderboard is a paginated ranking of players by total winnings
type Leaderboard struct {
	Players        []*PlayerRank `json:"players"`
	TotalPlayers   int           `json:"total_players"`
	CurrentPage    int           `json:"current_page"`
	TotalPages     int           `json:"total_pages"`
	PlayersPerPage int           `json:"players_per_page"`
	LastUpdated    time.Time     `json:"last_updated"`
}

// GetLeaderboard ranks every player with at least one recorded hand
func (s *Service) GetLeaderboard(ctx context.Context, page, playersPerPage int) (*Leaderboard, error) {
	if page < 1 {
		page = 1
	}
	if playersPerPage < 1 {
		playersPerPage = 10
	}

	allStats, err := s.repository.ListPlayers(ctx)
	if err != nil {
		return nil, err
	}

	ranks := make([]*PlayerRank, 0, len(allStats))
	for _, stats := range allStats {
		if stats.HandsPlayed == 0 {
			continue
		}
		ranks = append(ranks, &PlayerRank{
			PlayerStatistics: stats,
			AverageNet:       stats.AverageNet(),
		})
	}

	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].TotalWinnings != ranks[j].TotalWinnings {
			return ranks[i].TotalWinnings > ranks[j].TotalWinnings
		}
		return ranks[i].PlayerName < ranks[j].PlayerName
	})

	if len(ranks) > 0 {
		ranks[0].IsTopWinner = true

		mostHands := 0
		for i := 1; i < len(ranks); i++ {
			if ranks[i].HandsPlayed > ranks[mostHands].HandsPlayed {
				mostHands = i
			}
		}
		ranks[mostHands].IsTopPlayer = true
	}

	for i := range ranks {
		ranks[i].Rank = i + 1
	}

	total := len(ranks)
	totalPages := (total + playersPerPage - 1) / playersPerPage
	if page > totalPages && totalPages > 0 {
		page = totalPages
	}

	start := (page - 1) * playersPerPage
	end := start + playersPerPage
	if end > total {
		end = total
	}
	current := []*PlayerRank{}
	if start < total {
		current = ranks[start:end]
	}

	return &Leaderboard{
		Players:        current,
		TotalPlayers:   total,
		CurrentPage:    page,
		TotalPages:     totalPages,
		PlayersPerPage: playersPerPage,
		LastUpdated:    s.now(),
	}, nil
}

// PlayerSummary breaks a player's stored hands down by outcome and seat
type PlayerSummary struct {
	Player      *entities.PlayerStatistics `json:"player"`
	Wins        int                        `json:"wins"`
	Losses      int                        `json:"losses"`
	BreakEven   int                        `json:"break_even"`
	WinRate     float64                    `json:"win_rate"`
	BiggestWin  float64                    `json:"biggest_win"`
	BiggestLoss float64                    `json:"biggest_loss"`
	// NetByPosition sums net results per seat label
	NetByPosition map[string]float64      `json:"net_by_position"`
	RecentHands   []*entities.Transaction `json:"recent_hands"`
}

// GetPlayerSummary returns the player's record plus a breakdown of every
// stored hand. recent limits how many transactions are included, newest first.
func (s *Service) GetPlayerSummary(ctx context.Context, name string, recent int) (*PlayerSummary, error) {
	player, err := s.repository.GetPlayer(ctx, name)
	if err != nil {
		return nil, err
	}

	txs, err := s.repository.GetTransactions(ctx, name, 0)
	if err != nil {
		return nil, err
	}

	summary := &PlayerSummary{
		Player:        player,
		NetByPosition: make(map[string]float64),
	}
	for _, tx := range txs {
		switch tx.WinLossFlag {
		case entities.FlagWin:
			summary.Wins++
		case entities.FlagLoss:
			summary.Losses++
		case entities.FlagBreakEven:
			summary.BreakEven++
		}
		if tx.NetWinLoss > summary.BiggestWin {
			summary.BiggestWin = tx.NetWinLoss
		}
		if tx.NetWinLoss < summary.BiggestLoss {
			summary.BiggestLoss = tx.NetWinLoss
		}
		summary.NetByPosition[tx.Position] += tx.NetWinLoss
	}
	if len(txs) > 0 {
		summary.WinRate = float64(summary.Wins) / float64(len(txs))
	}

	if recent > 0 && recent < len(txs) {
		txs = txs[:recent]
	}
	summary.RecentHands = txs
	return summary, nil
}
