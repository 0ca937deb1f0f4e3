package hand

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fadedpez/pokerscribe/pkg/entities"
)

// MemoryRepository implements Repository with in-memory storage
type MemoryRepository struct {
	mu sync.RWMutex
	// Map of player name to master data
	players map[string]*entities.PlayerStatistics
	// Map of player name to transactions in insertion order
	transactions map[string][]*entities.Transaction
	// Every transaction in insertion order
	all []*entities.Transaction
	now func() time.Time
}

// NewMemoryRepository creates a new in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		players:      make(map[string]*entities.PlayerStatistics),
		transactions: make(map[string][]*entities.Transaction),
		now:          time.Now,
	}
}

// UpsertPlayer creates or refreshes a player's master record
func (r *MemoryRepository) UpsertPlayer(ctx context.Context, name, country string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if p, ok := r.players[name]; ok {
		p.Country = country
		p.LastSeen = now
		return nil
	}
	r.players[name] = &entities.PlayerStatistics{
		PlayerName: name,
		Country:    country,
		FirstSeen:  now,
		LastSeen:   now,
	}
	return nil
}

// AppendTransaction stores a transaction and updates the player's totals
func (r *MemoryRepository) AppendTransaction(ctx context.Context, playerName string, tx *entities.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[playerName]
	if !ok {
		now := r.now()
		p = &entities.PlayerStatistics{PlayerName: playerName, Country: "Unknown", FirstSeen: now, LastSeen: now}
		r.players[playerName] = p
	}
	p.HandsPlayed++
	p.TotalWinnings += tx.NetWinLoss

	stored := *tx
	stored.PlayerName = playerName
	r.transactions[playerName] = append(r.transactions[playerName], &stored)
	r.all = append(r.all, &stored)
	return nil
}

// GetPlayer returns a player's master record
func (r *MemoryRepository) GetPlayer(ctx context.Context, name string) (*entities.PlayerStatistics, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.players[name]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	out := *p
	return &out, nil
}

// ListPlayers returns every player ordered by total winnings, highest first
func (r *MemoryRepository) ListPlayers(ctx context.Context) ([]*entities.PlayerStatistics, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entities.PlayerStatistics, 0, len(r.players))
	for _, p := range r.players {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalWinnings != out[j].TotalWinnings {
			return out[i].TotalWinnings > out[j].TotalWinnings
		}
		return out[i].PlayerName < out[j].PlayerName
	})
	return out, nil
}

// GetTransactions returns a player's most recent transactions first
func (r *MemoryRepository) GetTransactions(ctx context.Context, playerName string, limit int) ([]*entities.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return newestFirst(r.transactions[playerName], limit), nil
}

// ListHands returns the most recent transactions across all players
func (r *MemoryRepository) ListHands(ctx context.Context, limit int) ([]*entities.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return newestFirst(r.all, limit), nil
}

// Close is a no-op for memory repository since there are no resources to close
func (r *MemoryRepository) Close() error {
	return nil
}

func newestFirst(txs []*entities.Transaction, limit int) []*entities.Transaction {
	n := len(txs)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]*entities.Transaction, 0, n)
	for i := len(txs) - 1; i >= 0 && len(out) < n; i-- {
		cp := *txs[i]
		out = append(out, &cp)
	}
	return out
}
