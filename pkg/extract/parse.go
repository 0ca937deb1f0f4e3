package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/paulhankin/poker"

	"github.com/fadedpez/pokerscribe/pkg/entities"
)

var (
	numericToken = regexp.MustCompile(`[\d,.]+`)
	nameStrip    = regexp.MustCompile(`[^a-zA-Z0-9_\-\s]`)
	cardToken    = regexp.MustCompile(`^(10|[2-9TJQKA])([CDHS♣♦♥♠])$`)
)

func numericTokens(text string) []string {
	return numericToken.FindAllString(text, -1)
}

func parseToken(token string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(token, ",", ""), 64)
	if err != nil {
		return 0.0, false
	}
	return v, true
}

// ParseNumeric returns the value of the first decimal-like token in text
// with thousands separators removed. It returns 0.0 when there is no token
// or the token does not parse.
func ParseNumeric(text string) float64 {
	tokens := numericTokens(text)
	if len(tokens) == 0 {
		return 0.0
	}
	v, _ := parseToken(tokens[0])
	return v
}

// ParseBlinds reads "SB/BB" style text. Both blinds are 0 unless two numeric
// tokens are present and parse.
func ParseBlinds(text string) (sb, bb float64) {
	tokens := numericTokens(text)
	if len(tokens) < 2 {
		return 0.0, 0.0
	}
	sb, okSB := parseToken(tokens[0])
	bb, okBB := parseToken(tokens[1])
	if !okSB || !okBB {
		return 0.0, 0.0
	}
	return sb, bb
}

// ParseAction classifies action text. Keywords are checked in a fixed order:
// fold, call, check, raise/bet, all-in. Nil means nothing was recognised.
func ParseAction(text string) *entities.Action {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "fold"):
		return &entities.Action{Kind: entities.ActionFold}
	case strings.Contains(t, "call"):
		return &entities.Action{Kind: entities.ActionCall}
	case strings.Contains(t, "check"):
		return &entities.Action{Kind: entities.ActionCheck}
	case strings.Contains(t, "raise"), strings.Contains(t, "bet"):
		kind := entities.ActionRaise
		if strings.Contains(t, "bet") && !strings.Contains(t, "raise") {
			kind = entities.ActionBet
		}
		return &entities.Action{Kind: kind, Amount: ParseNumeric(t)}
	case strings.Contains(t, "all") && strings.Contains(t, "in"):
		return &entities.Action{Kind: entities.ActionAllIn}
	}
	return nil
}

// SanitizeName strips everything except letters, digits, underscore, dash
// and whitespace. An empty result means the seat is unoccupied.
func SanitizeName(text string) string {
	return strings.TrimSpace(nameStrip.ReplaceAllString(text, ""))
}

var suitLetters = map[string]string{
	"C": "c", "D": "d", "H": "h", "S": "s",
	"♣": "c", "♦": "d", "♥": "h", "♠": "s",
}

var pokerSuits = map[byte]poker.Suit{
	'c': poker.Club, 'd': poker.Diamond, 'h': poker.Heart, 's': poker.Spade,
}

var pokerRanks = map[byte]poker.Rank{
	'A': 1, '2': 2, '3': 3, '4': 4, '5': 5, '6': 6, '7': 7,
	'8': 8, '9': 9, 'T': 10, 'J': 11, 'Q': 12, 'K': 13,
}

// ParseCards reads card tokens such as "Ah", "10d", "Td" or "K♠" from text
// and returns them in normalised two-character form ("Ah", "Td", "Ks").
// Unreadable tokens are skipped.
func ParseCards(text string) []string {
	var cards []string
	for _, field := range strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t' || r == '\n' || r == '|'
	}) {
		m := cardToken.FindStringSubmatch(strings.ToUpper(field))
		if m == nil {
			continue
		}
		rank := m[1]
		if rank == "10" {
			rank = "T"
		}
		card := rank + suitLetters[m[2]]
		if _, err := ToPokerCard(card); err != nil {
			continue
		}
		cards = append(cards, card)
	}
	return cards
}

// ToPokerCard converts a normalised card token into a poker.Card
func ToPokerCard(card string) (poker.Card, error) {
	var zero poker.Card
	if len(card) != 2 {
		return zero, fmt.Errorf("invalid card %q", card)
	}
	suit, ok := pokerSuits[card[1]]
	if !ok {
		return zero, fmt.Errorf("invalid suit in %q", card)
	}
	rank, ok := pokerRanks[card[0]]
	if !ok {
		return zero, fmt.Errorf("invalid rank in %q", card)
	}
	return poker.MakeCard(suit, rank)
}

// ToPokerCards converts normalised card tokens, skipping any that fail
func ToPokerCards(cards []string) []poker.Card {
	out := make([]poker.Card, 0, len(cards))
	for _, c := range cards {
		pc, err := ToPokerCard(c)
		if err != nil {
			continue
		}
		out = append(out, pc)
	}
	return out
}

// DescribeHand names the best poker hand made from hole and board cards,
// e.g. "pair of kings". It needs five or seven valid cards in total.
func DescribeHand(hole, board []string) (string, error) {
	cards := ToPokerCards(append(append([]string{}, hole...), board...))
	if len(cards) != 5 && len(cards) != 7 {
		return "", fmt.Errorf("cannot describe %d cards", len(cards))
	}
	return poker.Describe(cards)
}
