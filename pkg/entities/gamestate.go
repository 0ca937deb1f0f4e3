package entities

import "time"

// PlayerSnapshot is one seat's reading from a single frame. Players are only
// linked across frames by Name.
type PlayerSnapshot struct {
	Name      string   `json:"name"`
	Country   string   `json:"country"`
	Stack     float64  `json:"stack"`
	Seat      int      `json:"seat"`
	Action    *Action  `json:"action,omitempty"`
	HoleCards []string `json:"hole_cards,omitempty"`
}

// PlayerAction is an action attributed to a player on a street
type PlayerAction struct {
	PlayerName string `json:"player_name"`
	Action     Action `json:"action"`
	Street     Street `json:"street"`
}

// GameState is the snapshot reconstructed from one sampled frame. It carries
// no state from any other frame.
type GameState struct {
	Index          int              `json:"index"`
	Timestamp      time.Time        `json:"timestamp"`
	Players        []PlayerSnapshot `json:"players"`
	Actions        []PlayerAction   `json:"actions"`
	PotSize        float64          `json:"pot_size"`
	SmallBlind     float64          `json:"small_blind"`
	BigBlind       float64          `json:"big_blind"`
	CurrentStreet  Street           `json:"current_street"`
	CommunityCards []string         `json:"community_cards,omitempty"`
}

// Player returns the snapshot for the named player, if present
func (g *GameState) Player(name string) (PlayerSnapshot, bool) {
	for _, p := range g.Players {
		if p.Name == name {
			return p, true
		}
	}
	return PlayerSnapshot{}, false
}
