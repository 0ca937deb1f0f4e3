package entities

import "time"

// PlayerStatistics is the master-data row for a player across all recorded hands
type PlayerStatistics struct {
	PlayerName    string    `json:"player_name"`
	Country       string    `json:"country"`
	FirstSeen     time.Time `json:"first_seen"`
	LastSeen      time.Time `json:"last_seen"`
	HandsPlayed   int       `json:"total_hands_played"`
	TotalWinnings float64   `json:"total_winnings"`
}

// AverageNet returns the player's mean net result per hand
func (s *PlayerStatistics) AverageNet() float64 {
	if s.HandsPlayed == 0 {
		return 0.0
	}
	return s.TotalWinnings / float64(s.HandsPlayed)
}

// Transaction is one player's persisted row for one hand
type Transaction struct {
	ID            string      `json:"id"`
	PlayerName    string      `json:"player_name"`
	Country       string      `json:"country,omitempty"`
	Timestamp     time.Time   `json:"timestamp"`
	GameID        string      `json:"game_id"`
	HandNumber    int         `json:"hand_number"`
	Position      string      `json:"position"`
	StartingStack float64     `json:"starting_stack"`
	BigBlind      float64     `json:"big_blind"`
	SmallBlind    float64     `json:"small_blind"`
	ActionPreflop string      `json:"action_preflop,omitempty"`
	ActionFlop    string      `json:"action_flop,omitempty"`
	ActionTurn    string      `json:"action_turn,omitempty"`
	ActionRiver   string      `json:"action_river,omitempty"`
	CardsDealt    string      `json:"cards_dealt,omitempty"`
	CardsShown    string      `json:"cards_shown,omitempty"`
	FinalStack    float64     `json:"final_stack"`
	NetWinLoss    float64     `json:"net_winloss"`
	PotSize       float64     `json:"pot_size"`
	WinLossFlag   WinLossFlag `json:"win_loss_flag"`
	Notes         string      `json:"notes,omitempty"`
}
