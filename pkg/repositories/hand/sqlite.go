package hand

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/fadedpez/pokerscribe/pkg/db/migrations"
	"github.com/fadedpez/pokerscribe/pkg/entities"
)

const transactionColumns = `id, player_name, timestamp, game_id, hand_number, position,
	starting_stack, big_blind, small_blind, action_preflop, action_flop, action_turn,
	action_river, cards_dealt, cards_shown, final_stack, net_winloss, pot_size,
	win_loss_flag, notes`

// SQLiteRepository implements the Repository interface using SQLite
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepository opens the database at dbPath and applies migrations
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("error creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY between the recorder and API reads
	db.SetMaxOpenConns(1)

	migrator := migrations.NewMigrator(db, migrations.Files())
	if err := migrator.MigrateUp(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error applying migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

// UpsertPlayer creates or refreshes a player's master record
func (r *SQLiteRepository) UpsertPlayer(ctx context.Context, name, country string) error {
	now := r.now().UTC()
	query := `
		INSERT INTO players (player_name, country, first_seen, last_seen)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(player_name)
		DO UPDATE SET country = excluded.country, last_seen = excluded.last_seen`

	if _, err := r.db.ExecContext(ctx, query, name, country, now, now); err != nil {
		return fmt.Errorf("error upserting player %s: %w", name, err)
	}
	return nil
}

// AppendTransaction stores a transaction and updates the player's totals in
// one database transaction
func (r *SQLiteRepository) AppendTransaction(ctx context.Context, playerName string, t *entities.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	now := r.now().UTC()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO players (player_name, country, first_seen, last_seen)
		VALUES (?, 'Unknown', ?, ?)
		ON CONFLICT(player_name) DO NOTHING`, playerName, now, now)
	if err != nil {
		return fmt.Errorf("error ensuring player %s: %w", playerName, err)
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, playerName, t.Timestamp.UTC(), t.GameID, t.HandNumber, t.Position,
		t.StartingStack, t.BigBlind, t.SmallBlind,
		nullString(t.ActionPreflop), nullString(t.ActionFlop), nullString(t.ActionTurn), nullString(t.ActionRiver),
		nullString(t.CardsDealt), nullString(t.CardsShown),
		t.FinalStack, t.NetWinLoss, t.PotSize, string(t.WinLossFlag), nullString(t.Notes),
	)
	if err != nil {
		return fmt.Errorf("error inserting transaction: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE players
		SET total_hands_played = total_hands_played + 1,
			total_winnings = total_winnings + ?,
			last_seen = ?
		WHERE player_name = ?`, t.NetWinLoss, now, playerName)
	if err != nil {
		return fmt.Errorf("error updating player totals: %w", err)
	}

	return tx.Commit()
}

// GetPlayer returns a player's master record
func (r *SQLiteRepository) GetPlayer(ctx context.Context, name string) (*entities.PlayerStatistics, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT player_name, country, first_seen, last_seen, total_hands_played, total_winnings
		FROM players WHERE player_name = ?`, name)

	p, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error getting player %s: %w", name, err)
	}
	return p, nil
}

// ListPlayers returns every player ordered by total winnings, highest first
func (r *SQLiteRepository) ListPlayers(ctx context.Context) ([]*entities.PlayerStatistics, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT player_name, country, first_seen, last_seen, total_hands_played, total_winnings
		FROM players ORDER BY total_winnings DESC, player_name ASC`)
	if err != nil {
		return nil, fmt.Errorf("error listing players: %w", err)
	}
	defer rows.Close()

	players := []*entities.PlayerStatistics{}
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning player: %w", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// GetTransactions returns a player's most recent transactions first
func (r *SQLiteRepository) GetTransactions(ctx context.Context, playerName string, limit int) ([]*entities.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE player_name = ? ORDER BY timestamp DESC, rowid DESC`
	args := []interface{}{playerName}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return r.queryTransactions(ctx, query, args...)
}

// ListHands returns the most recent transactions across all players
func (r *SQLiteRepository) ListHands(ctx context.Context, limit int) ([]*entities.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions ORDER BY timestamp DESC, rowid DESC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return r.queryTransactions(ctx, query, args...)
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) queryTransactions(ctx context.Context, query string, args ...interface{}) ([]*entities.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying transactions: %w", err)
	}
	defer rows.Close()

	txs := []*entities.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning transaction: %w", err)
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPlayer(s scanner) (*entities.PlayerStatistics, error) {
	var p entities.PlayerStatistics
	if err := s.Scan(&p.PlayerName, &p.Country, &p.FirstSeen, &p.LastSeen, &p.HandsPlayed, &p.TotalWinnings); err != nil {
		return nil, err
	}
	return &p, nil
}

func scanTransaction(s scanner) (*entities.Transaction, error) {
	var (
		t                             entities.Transaction
		position                      sql.NullString
		bigBlind, smallBlind, potSize sql.NullFloat64
		preflop, flop, turn, river    sql.NullString
		dealt, shown, notes           sql.NullString
		flag                          string
	)
	err := s.Scan(&t.ID, &t.PlayerName, &t.Timestamp, &t.GameID, &t.HandNumber, &position,
		&t.StartingStack, &bigBlind, &smallBlind, &preflop, &flop, &turn, &river,
		&dealt, &shown, &t.FinalStack, &t.NetWinLoss, &potSize, &flag, &notes)
	if err != nil {
		return nil, err
	}
	t.Position = position.String
	t.BigBlind = bigBlind.Float64
	t.SmallBlind = smallBlind.Float64
	t.PotSize = potSize.Float64
	t.ActionPreflop = preflop.String
	t.ActionFlop = flop.String
	t.ActionTurn = turn.String
	t.ActionRiver = river.String
	t.CardsDealt = dealt.String
	t.CardsShown = shown.String
	t.Notes = notes.String
	t.WinLossFlag = entities.WinLossFlag(flag)
	return &t, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
