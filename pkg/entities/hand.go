package entities

import "time"

// WinLossFlag classifies a player's net result in a hand
type WinLossFlag string

const (
	FlagPending   WinLossFlag = "PENDING"
	FlagWin       WinLossFlag = "WIN"
	FlagLoss      WinLossFlag = "LOSS"
	FlagBreakEven WinLossFlag = "BREAK_EVEN"
)

// FlagForNet classifies a net win/loss amount
func FlagForNet(net float64) WinLossFlag {
	switch {
	case net > 0:
		return FlagWin
	case net < 0:
		return FlagLoss
	default:
		return FlagBreakEven
	}
}

// PlayerHandResult is one player's ledger line for a hand
type PlayerHandResult struct {
	Name            string              `json:"name"`
	Country         string              `json:"country"`
	Position        string              `json:"position"`
	StartingStack   float64             `json:"starting_stack"`
	FinalStack      float64             `json:"final_stack"`
	NetWinLoss      float64             `json:"net_winloss"`
	Flag            WinLossFlag         `json:"win_loss_flag"`
	ActionsByStreet map[Street][]Action `json:"actions_by_street"`
	CardsDealt      []string            `json:"cards_dealt,omitempty"`
}

// ActionRecord is an entry in a hand's flat action log
type ActionRecord struct {
	PlayerName string  `json:"player_name"`
	Action     string  `json:"action"`
	Amount     float64 `json:"amount"`
	Street     Street  `json:"street"`
}

// HandRecord is the finalized transactional record of one hand group
type HandRecord struct {
	HandNumber int                          `json:"hand_number"`
	GameID     string                       `json:"game_id"`
	Timestamp  time.Time                    `json:"timestamp"`
	SmallBlind float64                      `json:"small_blind"`
	BigBlind   float64                      `json:"big_blind"`
	Players    map[string]*PlayerHandResult `json:"players"`
	// Roster keeps players in the order they were first seen in the hand
	Roster     []string       `json:"roster"`
	Actions    []ActionRecord `json:"actions"`
	// Board holds the most complete community cards read during the hand
	Board      []string `json:"board,omitempty"`
	TotalPot   float64  `json:"total_pot"`
	Winner     string   `json:"winner,omitempty"`
	FrameCount int      `json:"frame_count"`
}

// HasWinner reports whether a winner was assigned
func (h *HandRecord) HasWinner() bool {
	return h.Winner != ""
}
