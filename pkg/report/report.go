package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fadedpez/pokerscribe/pkg/entities"
	"github.com/fadedpez/pokerscribe/pkg/extract"
	"github.com/fadedpez/pokerscribe/pkg/repositories/hand"
)

const (
	rule    = 80
	recentN = 5
)

// Header identifies the analyzed source in the text report
type Header struct {
	Source    string
	Generated time.Time
}

// WriteText writes the analysis report: stored player statistics with their
// most recent hands, followed by a breakdown of every hand in records.
// reader may be nil to skip the statistics section.
func WriteText(ctx context.Context, w io.Writer, header Header, records []*entities.HandRecord, reader hand.Reader) error {
	var b strings.Builder

	b.WriteString(strings.Repeat("=", rule) + "\n")
	b.WriteString("POKER VIDEO ANALYSIS REPORT\n")
	b.WriteString(strings.Repeat("=", rule) + "\n")
	fmt.Fprintf(&b, "Generated: %s\n", header.Generated.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Video: %s\n", header.Source)
	fmt.Fprintf(&b, "Total Hands Analyzed: %d\n\n", len(records))

	if reader != nil {
		if err := writePlayers(ctx, &b, reader); err != nil {
			return err
		}
	}

	b.WriteString("\n" + strings.Repeat("-", rule) + "\n")
	b.WriteString("HAND-BY-HAND BREAKDOWN\n")
	b.WriteString(strings.Repeat("-", rule) + "\n")
	for _, record := range records {
		writeHand(&b, record)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writePlayers(ctx context.Context, b *strings.Builder, reader hand.Reader) error {
	b.WriteString(strings.Repeat("-", rule) + "\n")
	b.WriteString("PLAYER STATISTICS\n")
	b.WriteString(strings.Repeat("-", rule) + "\n")

	players, err := reader.ListPlayers(ctx)
	if err != nil {
		return fmt.Errorf("error listing players: %w", err)
	}
	for _, p := range players {
		fmt.Fprintf(b, "\nPlayer: %s\n", p.PlayerName)
		fmt.Fprintf(b, "  Country: %s\n", p.Country)
		fmt.Fprintf(b, "  Hands Played: %d\n", p.HandsPlayed)
		fmt.Fprintf(b, "  Total Win/Loss: $%.2f\n", p.TotalWinnings)

		txs, err := reader.GetTransactions(ctx, p.PlayerName, recentN)
		if err != nil {
			return fmt.Errorf("error getting transactions for %s: %w", p.PlayerName, err)
		}
		if len(txs) == 0 {
			continue
		}
		b.WriteString("  Recent Hands:\n")
		for _, tx := range txs {
			fmt.Fprintf(b, "    Hand #%d: %s ($%+.2f)\n", tx.HandNumber, tx.WinLossFlag, tx.NetWinLoss)
		}
	}
	return nil
}

func writeHand(b *strings.Builder, record *entities.HandRecord) {
	fmt.Fprintf(b, "\nHand #%d\n", record.HandNumber)
	fmt.Fprintf(b, "  Blinds: $%.2f/$%.2f\n", record.SmallBlind, record.BigBlind)
	fmt.Fprintf(b, "  Pot: $%.2f\n", record.TotalPot)
	if len(record.Board) > 0 {
		fmt.Fprintf(b, "  Board: %s\n", strings.Join(record.Board, " "))
	}
	winner := record.Winner
	if winner == "" {
		winner = "None"
	}
	fmt.Fprintf(b, "  Winner: %s\n", winner)
	b.WriteString("  Players:\n")
	for _, name := range record.Roster {
		p, ok := record.Players[name]
		if !ok {
			continue
		}
		fmt.Fprintf(b, "    %s: $%.2f → $%.2f (%s)", name, p.StartingStack, p.FinalStack, p.Flag)
		if len(p.CardsDealt) > 0 {
			fmt.Fprintf(b, " [%s]", strings.Join(p.CardsDealt, " "))
			if desc, err := extract.DescribeHand(p.CardsDealt, record.Board); err == nil {
				fmt.Fprintf(b, " %s", desc)
			}
		}
		b.WriteString("\n")
	}
}

// ExportJSON writes records as an indented JSON array
func ExportJSON(w io.Writer, records []*entities.HandRecord) error {
	if records == nil {
		records = []*entities.HandRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}
