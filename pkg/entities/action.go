package entities

import (
	"strconv"
	"strings"
)

// ActionKind identifies what a player did in a frame
type ActionKind string

const (
	ActionFold  ActionKind = "Fold"
	ActionCall  ActionKind = "Call"
	ActionCheck ActionKind = "Check"
	ActionRaise ActionKind = "Raise"
	ActionBet   ActionKind = "Bet"
	ActionAllIn ActionKind = "All-in"
)

// Action is a classified player action. Amount is only carried by Raise and Bet.
type Action struct {
	Kind   ActionKind `json:"kind"`
	Amount float64    `json:"amount,omitempty"`
}

// HasAmount reports whether the action variant carries a chip amount
func (a Action) HasAmount() bool {
	return (a.Kind == ActionRaise || a.Kind == ActionBet) && a.Amount > 0
}

// String renders the action for display and persistence, e.g. "Raise 250"
func (a Action) String() string {
	if a.HasAmount() {
		return string(a.Kind) + " " + strconv.FormatFloat(a.Amount, 'f', -1, 64)
	}
	return string(a.Kind)
}

// JoinActions renders a list of actions the way the transaction columns store them
func JoinActions(actions []Action) string {
	parts := make([]string, len(actions))
	for i, a := range actions {
		parts[i] = a.String()
	}
	return strings.Join(parts, ", ")
}

// Street identifies the betting round
type Street string

const (
	StreetPreflop Street = "preflop"
	StreetFlop    Street = "flop"
	StreetTurn    Street = "turn"
	StreetRiver   Street = "river"
)

// Streets lists the betting rounds in order
var Streets = []Street{StreetPreflop, StreetFlop, StreetTurn, StreetRiver}

// StreetForBoard infers the street from the number of community cards on the table
func StreetForBoard(communityCards int) Street {
	switch {
	case communityCards >= 5:
		return StreetRiver
	case communityCards == 4:
		return StreetTurn
	case communityCards == 3:
		return StreetFlop
	default:
		return StreetPreflop
	}
}
