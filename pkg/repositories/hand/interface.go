package hand

import (
	"context"
	"errors"

	"github.com/fadedpez/pokerscribe/pkg/entities"
)

//go:generate mockgen -source=$GOFILE -destination=mock/mock.go -package=mock_hand

// ErrPlayerNotFound is returned by Reader.GetPlayer for unknown names
var ErrPlayerNotFound = errors.New("player not found")

// Sink receives finalized hands, one player at a time
type Sink interface {
	// UpsertPlayer creates the player's master record or refreshes its
	// country and last-seen time
	UpsertPlayer(ctx context.Context, name, country string) error
	// AppendTransaction stores one hand for a player and updates the
	// player's totals
	AppendTransaction(ctx context.Context, playerName string, tx *entities.Transaction) error

	// Close closes any resources used by the repository
	Close() error
}

// Reader queries stored players and hands
type Reader interface {
	GetPlayer(ctx context.Context, name string) (*entities.PlayerStatistics, error)
	ListPlayers(ctx context.Context) ([]*entities.PlayerStatistics, error)
	// GetTransactions returns the player's most recent transactions first
	GetTransactions(ctx context.Context, playerName string, limit int) ([]*entities.Transaction, error)
	// ListHands returns the most recent transactions across all players
	ListHands(ctx context.Context, limit int) ([]*entities.Transaction, error)
}

// Repository is a readable sink
type Repository interface {
	Sink
	Reader
}
