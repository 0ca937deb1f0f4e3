package hand

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/fadedpez/pokerscribe/internal/types"
	"github.com/fadedpez/pokerscribe/pkg/entities"
)

const indexMonthLayout = "2006-01"

const transactionMapping = `{
	"mappings": {
		"properties": {
			"id": { "type": "keyword" },
			"player_name": { "type": "keyword" },
			"timestamp": { "type": "date" },
			"game_id": { "type": "keyword" },
			"hand_number": { "type": "integer" },
			"position": { "type": "keyword" },
			"starting_stack": { "type": "double" },
			"big_blind": { "type": "double" },
			"small_blind": { "type": "double" },
			"action_preflop": { "type": "text" },
			"action_flop": { "type": "text" },
			"action_turn": { "type": "text" },
			"action_river": { "type": "text" },
			"cards_dealt": { "type": "keyword" },
			"cards_shown": { "type": "keyword" },
			"final_stack": { "type": "double" },
			"net_winloss": { "type": "double" },
			"pot_size": { "type": "double" },
			"win_loss_flag": { "type": "keyword" },
			"notes": { "type": "text" }
		}
	}
}`

const playerMapping = `{
	"mappings": {
		"properties": {
			"player_name": { "type": "keyword" },
			"country": { "type": "keyword" },
			"first_seen": { "type": "date" },
			"last_seen": { "type": "date" },
			"total_hands_played": { "type": "integer" },
			"total_winnings": { "type": "double" }
		}
	}
}`

// ElasticsearchConfig holds configuration options for the Elasticsearch repository
type ElasticsearchConfig struct {
	URL             string
	Username        string
	Password        string
	IndexPrefix     string
	RetentionPeriod time.Duration // How long monthly transaction indices are kept
	RotationPeriod  time.Duration // How often the scheduler checks for a new month
	// Transport replaces the HTTP transport, mainly for tests
	Transport http.RoundTripper
}

// DefaultElasticsearchConfig returns a default configuration for Elasticsearch
func DefaultElasticsearchConfig() *ElasticsearchConfig {
	return &ElasticsearchConfig{
		URL:             "http://localhost:9200",
		IndexPrefix:     "pokerscribe",
		RetentionPeriod: 365 * 24 * time.Hour,
		RotationPeriod:  24 * time.Hour,
	}
}

// ElasticsearchRepository mirrors a base repository into Elasticsearch.
// Reads are served by the base repository; every write also indexes the
// transaction into a monthly "<prefix>_transactions_YYYY-MM" index and the
// player's refreshed totals into "<prefix>_players".
type ElasticsearchRepository struct {
	baseRepo    Repository
	client      *elasticsearch.Client
	config      *ElasticsearchConfig
	indexPrefix string
	now         func() time.Time

	mu                      sync.Mutex
	currentTransactionIndex string
}

// NewElasticsearchRepository creates a new Elasticsearch repository
func NewElasticsearchRepository(ctx context.Context, baseRepo Repository, config *ElasticsearchConfig) (*ElasticsearchRepository, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{config.URL},
		Transport: config.Transport,
	}
	if config.Username != "" && config.Password != "" {
		cfg.Username = config.Username
		cfg.Password = config.Password
	}

	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, types.WrapError(types.ErrIndexError, "error creating Elasticsearch client", err)
	}

	if config.IndexPrefix == "" {
		config.IndexPrefix = "pokerscribe"
	}
	if config.RetentionPeriod == 0 {
		config.RetentionPeriod = 365 * 24 * time.Hour
	}
	if config.RotationPeriod == 0 {
		config.RotationPeriod = 24 * time.Hour
	}

	repo := &ElasticsearchRepository{
		baseRepo:    baseRepo,
		client:      client,
		config:      config,
		indexPrefix: config.IndexPrefix,
		now:         time.Now,
	}

	if err := repo.ensureIndex(ctx, repo.playerIndex(), playerMapping); err != nil {
		return nil, err
	}
	if err := repo.RotateIndices(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *ElasticsearchRepository) playerIndex() string {
	return r.indexPrefix + "_players"
}

func (r *ElasticsearchRepository) transactionIndex(t time.Time) string {
	return r.indexPrefix + "_transactions_" + t.Format(indexMonthLayout)
}

// ensureIndex creates index with mapping if it doesn't exist
func (r *ElasticsearchRepository) ensureIndex(ctx context.Context, index, mapping string) error {
	res, err := r.client.Indices.Exists([]string{index}, r.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return types.WrapError(types.ErrIndexError, fmt.Sprintf("error checking if index %s exists", index), err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		return nil
	}

	req := esapi.IndicesCreateRequest{
		Index: index,
		Body:  strings.NewReader(mapping),
	}
	res, err = req.Do(ctx, r.client)
	if err != nil {
		return types.WrapError(types.ErrIndexError, fmt.Sprintf("error creating index %s", index), err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return types.NewError(types.ErrIndexError, fmt.Sprintf("error creating index %s: %s", index, res.String()))
	}
	log.Printf("[ES] Created index %s", index)
	return nil
}

// RotateIndices switches writes to the current month's transaction index,
// creating it if needed
func (r *ElasticsearchRepository) RotateIndices(ctx context.Context) error {
	index := r.transactionIndex(r.now())

	r.mu.Lock()
	current := r.currentTransactionIndex
	r.mu.Unlock()
	if index == current {
		return nil
	}

	if err := r.ensureIndex(ctx, index, transactionMapping); err != nil {
		return err
	}

	r.mu.Lock()
	r.currentTransactionIndex = index
	r.mu.Unlock()
	return nil
}

// PruneOldIndices deletes monthly transaction indices older than the
// retention period
func (r *ElasticsearchRepository) PruneOldIndices(ctx context.Context) error {
	indices, err := r.GetIndices(ctx, r.indexPrefix+"_transactions_*")
	if err != nil {
		return err
	}

	cutoff := r.now().Add(-r.config.RetentionPeriod)
	for _, index := range indices {
		month, err := time.Parse(indexMonthLayout, strings.TrimPrefix(index, r.indexPrefix+"_transactions_"))
		if err != nil {
			log.Printf("[ES] Skipping index with unexpected name %s", index)
			continue
		}
		// An index holds a whole month, keep it until the month has fully aged out
		if !month.AddDate(0, 1, 0).Before(cutoff) {
			continue
		}

		req := esapi.IndicesDeleteRequest{Index: []string{index}}
		res, err := req.Do(ctx, r.client)
		if err != nil {
			log.Printf("[ES] Error deleting index %s: %v", index, err)
			continue
		}
		if res.IsError() {
			log.Printf("[ES] Error deleting index %s: %s", index, res.String())
		} else {
			log.Printf("[ES] Deleted index %s (older than %v)", index, r.config.RetentionPeriod)
		}
		res.Body.Close()
	}
	return nil
}

// GetIndices returns a sorted list of indices that match the given pattern
func (r *ElasticsearchRepository) GetIndices(ctx context.Context, pattern string) ([]string, error) {
	res, err := r.client.Indices.Get(
		[]string{pattern},
		r.client.Indices.Get.WithContext(ctx),
		r.client.Indices.Get.WithExpandWildcards("open"),
	)
	if err != nil {
		return nil, types.WrapError(types.ErrIndexError, "failed to get indices", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, types.NewError(types.ErrIndexError, fmt.Sprintf("error getting indices: %s", res.String()))
	}

	var indices map[string]json.RawMessage
	if err := json.NewDecoder(res.Body).Decode(&indices); err != nil {
		return nil, types.WrapError(types.ErrIndexError, "error parsing indices response", err)
	}

	names := make([]string, 0, len(indices))
	for name := range indices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// GetConfig returns the repository configuration
func (r *ElasticsearchRepository) GetConfig() ElasticsearchConfig {
	return *r.config
}

// GetIndexPrefix returns the prefix of every index the repository writes
func (r *ElasticsearchRepository) GetIndexPrefix() string {
	return r.indexPrefix
}

// UpsertPlayer updates the base repository and mirrors the player document
func (r *ElasticsearchRepository) UpsertPlayer(ctx context.Context, name, country string) error {
	if err := r.baseRepo.UpsertPlayer(ctx, name, country); err != nil {
		return err
	}
	return r.indexPlayer(ctx, name)
}

// AppendTransaction stores the transaction in the base repository, then
// indexes it and the player's new totals
func (r *ElasticsearchRepository) AppendTransaction(ctx context.Context, playerName string, tx *entities.Transaction) error {
	if err := r.baseRepo.AppendTransaction(ctx, playerName, tx); err != nil {
		return err
	}

	doc := *tx
	doc.PlayerName = playerName
	if err := r.index(ctx, r.activeTransactionIndex(), doc.ID, doc); err != nil {
		return err
	}
	return r.indexPlayer(ctx, playerName)
}

func (r *ElasticsearchRepository) activeTransactionIndex() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.currentTransactionIndex == "" {
		return r.transactionIndex(r.now())
	}
	return r.currentTransactionIndex
}

func (r *ElasticsearchRepository) indexPlayer(ctx context.Context, name string) error {
	p, err := r.baseRepo.GetPlayer(ctx, name)
	if err != nil {
		return err
	}
	return r.index(ctx, r.playerIndex(), name, p)
}

func (r *ElasticsearchRepository) index(ctx context.Context, index, id string, doc interface{}) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return types.WrapError(types.ErrIndexError, "error marshaling document", err)
	}

	res, err := r.client.Index(
		index,
		bytes.NewReader(body),
		r.client.Index.WithContext(ctx),
		r.client.Index.WithDocumentID(id),
	)
	if err != nil {
		return types.WrapError(types.ErrIndexError, fmt.Sprintf("error indexing into %s", index), err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return types.NewError(types.ErrIndexError, fmt.Sprintf("error indexing into %s: %s", index, res.String()))
	}
	return nil
}

// GetPlayer reads from the base repository
func (r *ElasticsearchRepository) GetPlayer(ctx context.Context, name string) (*entities.PlayerStatistics, error) {
	return r.baseRepo.GetPlayer(ctx, name)
}

// ListPlayers reads from the base repository
func (r *ElasticsearchRepository) ListPlayers(ctx context.Context) ([]*entities.PlayerStatistics, error) {
	return r.baseRepo.ListPlayers(ctx)
}

// GetTransactions reads from the base repository
func (r *ElasticsearchRepository) GetTransactions(ctx context.Context, playerName string, limit int) ([]*entities.Transaction, error) {
	return r.baseRepo.GetTransactions(ctx, playerName, limit)
}

// ListHands reads from the base repository
func (r *ElasticsearchRepository) ListHands(ctx context.Context, limit int) ([]*entities.Transaction, error) {
	return r.baseRepo.ListHands(ctx, limit)
}

// Close closes the base repository
func (r *ElasticsearchRepository) Close() error {
	return r.baseRepo.Close()
}
