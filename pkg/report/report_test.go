package report

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fadedpez/pokerscribe/pkg/entities"
	"github.com/fadedpez/pokerscribe/pkg/repositories/hand"
)

func sampleRecord() *entities.HandRecord {
	return &entities.HandRecord{
		HandNumber: 1,
		GameID:     "VIDEO_20240301_120000",
		SmallBlind: 10,
		BigBlind:   20,
		Roster:     []string{"Alice", "Bob"},
		Players: map[string]*entities.PlayerHandResult{
			"Alice": {
				Name:          "Alice",
				StartingStack: 500,
				FinalStack:    450,
				NetWinLoss:    -50,
				Flag:          entities.FlagLoss,
			},
			"Bob": {
				Name:          "Bob",
				StartingStack: 500,
				FinalStack:    550,
				NetWinLoss:    50,
				Flag:          entities.FlagWin,
				CardsDealt:    []string{"Ah", "Ad"},
			},
		},
		Board:    []string{"Kc", "7s", "2h"},
		TotalPot: 100,
		Winner:   "Bob",
	}
}

func TestWriteText(t *testing.T) {
	ctx := context.Background()
	repo := hand.NewMemoryRepository()
	require.NoError(t, repo.UpsertPlayer(ctx, "Alice", "Unknown"))
	require.NoError(t, repo.AppendTransaction(ctx, "Alice", &entities.Transaction{
		ID: "t1", HandNumber: 1, NetWinLoss: -50, WinLossFlag: entities.FlagLoss,
	}))

	var buf bytes.Buffer
	header := Header{Source: "table.mp4", Generated: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	require.NoError(t, WriteText(ctx, &buf, header, []*entities.HandRecord{sampleRecord()}, repo))

	out := buf.String()
	assert.Contains(t, out, "POKER VIDEO ANALYSIS REPORT")
	assert.Contains(t, out, "Generated: 2024-03-01 12:00:00")
	assert.Contains(t, out, "Video: table.mp4")
	assert.Contains(t, out, "Total Hands Analyzed: 1")
	assert.Contains(t, out, "Player: Alice")
	assert.Contains(t, out, "  Total Win/Loss: $-50.00")
	assert.Contains(t, out, "    Hand #1: LOSS ($-50.00)")
	assert.Contains(t, out, "  Blinds: $10.00/$20.00")
	assert.Contains(t, out, "  Board: Kc 7s 2h")
	assert.Contains(t, out, "  Winner: Bob")
	assert.Contains(t, out, "    Alice: $500.00 → $450.00 (LOSS)\n")
	assert.Contains(t, out, "    Bob: $500.00 → $550.00 (WIN) [Ah Ad]")
}

func TestWriteTextWithoutWinnerOrReader(t *testing.T) {
	record := sampleRecord()
	record.Winner = ""

	var buf bytes.Buffer
	require.NoError(t, WriteText(context.Background(), &buf, Header{}, []*entities.HandRecord{record}, nil))
	assert.Contains(t, buf.String(), "  Winner: None")
	assert.NotContains(t, buf.String(), "PLAYER STATISTICS")
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportJSON(&buf, []*entities.HandRecord{sampleRecord()}))

	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "Bob", decoded[0]["winner"])
	players := decoded[0]["players"].(map[string]interface{})
	assert.Equal(t, 450.0, players["Alice"].(map[string]interface{})["final_stack"])

	buf.Reset()
	require.NoError(t, ExportJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}
