package hand

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fadedpez/pokerscribe/pkg/entities"
)

//go:embed postgres_schema.sql
var postgresSchema string

const pgTransactionColumns = `id, player_name, timestamp, game_id, hand_number, COALESCE(position, ''),
	starting_stack, COALESCE(big_blind, 0), COALESCE(small_blind, 0),
	COALESCE(action_preflop, ''), COALESCE(action_flop, ''), COALESCE(action_turn, ''), COALESCE(action_river, ''),
	COALESCE(cards_dealt, ''), COALESCE(cards_shown, ''), final_stack, net_winloss, COALESCE(pot_size, 0),
	win_loss_flag, COALESCE(notes, '')`

// PostgresRepository implements the Repository interface on PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository connects to dsn and creates the schema if needed
func NewPostgresRepository(ctx context.Context, dsn string) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("error connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error pinging postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error creating schema: %w", err)
	}
	return &PostgresRepository{pool: pool}, nil
}

// UpsertPlayer creates or refreshes a player's master record
func (r *PostgresRepository) UpsertPlayer(ctx context.Context, name, country string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO players (player_name, country)
		VALUES ($1, $2)
		ON CONFLICT (player_name) DO UPDATE
		   SET country = EXCLUDED.country,
		       last_seen = now()
	`, name, country)
	if err != nil {
		return fmt.Errorf("error upserting player %s: %w", name, err)
	}
	return nil
}

// AppendTransaction stores a transaction and updates the player's totals
func (r *PostgresRepository) AppendTransaction(ctx context.Context, playerName string, t *entities.Transaction) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO players (player_name) VALUES ($1)
			ON CONFLICT (player_name) DO NOTHING
		`, playerName); err != nil {
			return fmt.Errorf("error ensuring player %s: %w", playerName, err)
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO transactions (id, player_name, timestamp, game_id, hand_number, position,
				starting_stack, big_blind, small_blind, action_preflop, action_flop, action_turn,
				action_river, cards_dealt, cards_shown, final_stack, net_winloss, pot_size,
				win_loss_flag, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''), NULLIF($11, ''), NULLIF($12, ''),
				NULLIF($13, ''), NULLIF($14, ''), NULLIF($15, ''), $16, $17, $18, $19, NULLIF($20, ''))
		`, t.ID, playerName, t.Timestamp, t.GameID, t.HandNumber, t.Position,
			t.StartingStack, t.BigBlind, t.SmallBlind, t.ActionPreflop, t.ActionFlop, t.ActionTurn,
			t.ActionRiver, t.CardsDealt, t.CardsShown, t.FinalStack, t.NetWinLoss, t.PotSize,
			string(t.WinLossFlag), t.Notes)
		if err != nil {
			return fmt.Errorf("error inserting transaction: %w", err)
		}

		_, err = tx.Exec(ctx, `
			UPDATE players
			   SET total_hands_played = total_hands_played + 1,
			       total_winnings = total_winnings + $2,
			       last_seen = now()
			 WHERE player_name = $1
		`, playerName, t.NetWinLoss)
		if err != nil {
			return fmt.Errorf("error updating player totals: %w", err)
		}
		return nil
	})
}

// GetPlayer returns a player's master record
func (r *PostgresRepository) GetPlayer(ctx context.Context, name string) (*entities.PlayerStatistics, error) {
	var p entities.PlayerStatistics
	err := r.pool.QueryRow(ctx, `
		SELECT player_name, country, first_seen, last_seen, total_hands_played, total_winnings
		  FROM players WHERE player_name = $1
	`, name).Scan(&p.PlayerName, &p.Country, &p.FirstSeen, &p.LastSeen, &p.HandsPlayed, &p.TotalWinnings)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error getting player %s: %w", name, err)
	}
	return &p, nil
}

// ListPlayers returns every player ordered by total winnings, highest first
func (r *PostgresRepository) ListPlayers(ctx context.Context) ([]*entities.PlayerStatistics, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT player_name, country, first_seen, last_seen, total_hands_played, total_winnings
		  FROM players ORDER BY total_winnings DESC, player_name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("error listing players: %w", err)
	}
	defer rows.Close()

	players := []*entities.PlayerStatistics{}
	for rows.Next() {
		var p entities.PlayerStatistics
		if err := rows.Scan(&p.PlayerName, &p.Country, &p.FirstSeen, &p.LastSeen, &p.HandsPlayed, &p.TotalWinnings); err != nil {
			return nil, fmt.Errorf("error scanning player: %w", err)
		}
		players = append(players, &p)
	}
	return players, rows.Err()
}

// GetTransactions returns a player's most recent transactions first
func (r *PostgresRepository) GetTransactions(ctx context.Context, playerName string, limit int) ([]*entities.Transaction, error) {
	return r.queryTransactions(ctx, `
		SELECT `+pgTransactionColumns+`
		  FROM transactions
		 WHERE player_name = $1
		 ORDER BY timestamp DESC, seq DESC
		 LIMIT $2
	`, playerName, limitOrAll(limit))
}

// ListHands returns the most recent transactions across all players
func (r *PostgresRepository) ListHands(ctx context.Context, limit int) ([]*entities.Transaction, error) {
	return r.queryTransactions(ctx, `
		SELECT `+pgTransactionColumns+`
		  FROM transactions
		 ORDER BY timestamp DESC, seq DESC
		 LIMIT $1
	`, limitOrAll(limit))
}

// Close closes the connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

func (r *PostgresRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]*entities.Transaction, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying transactions: %w", err)
	}
	defer rows.Close()

	txs := []*entities.Transaction{}
	for rows.Next() {
		var (
			t    entities.Transaction
			flag string
		)
		err := rows.Scan(&t.ID, &t.PlayerName, &t.Timestamp, &t.GameID, &t.HandNumber, &t.Position,
			&t.StartingStack, &t.BigBlind, &t.SmallBlind, &t.ActionPreflop, &t.ActionFlop, &t.ActionTurn,
			&t.ActionRiver, &t.CardsDealt, &t.CardsShown, &t.FinalStack, &t.NetWinLoss, &t.PotSize,
			&flag, &t.Notes)
		if err != nil {
			return nil, fmt.Errorf("error scanning transaction: %w", err)
		}
		t.WinLossFlag = entities.WinLossFlag(flag)
		txs = append(txs, &t)
	}
	return txs, rows.Err()
}

// limitOrAll maps a non-positive limit to a NULL LIMIT, which Postgres
// treats as unlimited
func limitOrAll(limit int) *int {
	if limit <= 0 {
		return nil
	}
	return &limit
}
