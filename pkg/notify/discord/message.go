package discord

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/fadedpez/pokerscribe/internal/types"
	"github.com/fadedpez/pokerscribe/pkg/entities"
)

// FlagEmoji maps a player's result to the emoji shown next to their name
var FlagEmoji = map[entities.WinLossFlag]string{
	entities.FlagWin:       "🟢",
	entities.FlagLoss:      "🔴",
	entities.FlagBreakEven: "⚪",
	entities.FlagPending:   "⏳",
}

// ErrorEmoji maps error codes to the emoji used in alert messages
var ErrorEmoji = map[types.ErrorCode]string{
	types.ErrFrameSourceFailure: "📹",
	types.ErrConfiguration:      "⚙️",
	types.ErrDatabaseError:      "💾",
	types.ErrIndexError:         "🔎",
	types.ErrInternalError:      "💥",
}

const (
	colorWin     = 0x2ecc71
	colorNoWin   = 0x95a5a6
	embedPlayers = 25
)

// HandEmbed renders a finalized hand as a Discord embed
func HandEmbed(record *entities.HandRecord) *discordgo.MessageEmbed {
	winner := record.Winner
	color := colorWin
	if winner == "" {
		winner = "None"
		color = colorNoWin
	}

	description := fmt.Sprintf("Blinds %s/%s · Pot %s · Winner **%s**",
		money(record.SmallBlind), money(record.BigBlind), money(record.TotalPot), winner)
	if len(record.Board) > 0 {
		description += "\nBoard: " + strings.Join(record.Board, " ")
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Hand #%d", record.HandNumber),
		Description: description,
		Color:       color,
		Timestamp:   record.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
		Footer:      &discordgo.MessageEmbedFooter{Text: record.GameID},
	}

	for _, name := range record.Roster {
		p, ok := record.Players[name]
		if !ok || len(embed.Fields) == embedPlayers {
			continue
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   fmt.Sprintf("%s %s", FlagEmoji[p.Flag], name),
			Value:  fmt.Sprintf("%s → %s (%+.2f)", money(p.StartingStack), money(p.FinalStack), p.NetWinLoss),
			Inline: true,
		})
	}
	return embed
}

// ErrorMessage renders an error as a one-line channel message
func ErrorMessage(err error) string {
	var analyzerErr *types.AnalyzerError
	if types.As(err, &analyzerErr) {
		emoji := ErrorEmoji[analyzerErr.Code]
		if emoji == "" {
			emoji = "❌"
		}
		return fmt.Sprintf("%s %s", emoji, analyzerErr.Message)
	}
	return fmt.Sprintf("❌ An error occurred: %v", err)
}

func money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}
