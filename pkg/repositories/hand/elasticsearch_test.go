package hand

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/fadedpez/pokerscribe/pkg/entities"
	mock_hand "github.com/fadedpez/pokerscribe/pkg/repositories/hand/mock"
)

// MockBaseRepository is a mock implementation of the Repository interface for testing
type MockBaseRepository struct {
	mock.Mock
}

// UpsertPlayer implements Repository
func (m *MockBaseRepository) UpsertPlayer(ctx context.Context, name, country string) error {
	args := m.Called(ctx, name, country)
	return args.Error(0)
}

// AppendTransaction implements Repository
func (m *MockBaseRepository) AppendTransaction(ctx context.Context, playerName string, tx *entities.Transaction) error {
	args := m.Called(ctx, playerName, tx)
	return args.Error(0)
}

// GetPlayer implements Repository
func (m *MockBaseRepository) GetPlayer(ctx context.Context, name string) (*entities.PlayerStatistics, error) {
	args := m.Called(ctx, name)
	p, _ := args.Get(0).(*entities.PlayerStatistics)
	return p, args.Error(1)
}

// ListPlayers implements Repository
func (m *MockBaseRepository) ListPlayers(ctx context.Context) ([]*entities.PlayerStatistics, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*entities.PlayerStatistics), args.Error(1)
}

// GetTransactions implements Repository
func (m *MockBaseRepository) GetTransactions(ctx context.Context, playerName string, limit int) ([]*entities.Transaction, error) {
	args := m.Called(ctx, playerName, limit)
	return args.Get(0).([]*entities.Transaction), args.Error(1)
}

// ListHands implements Repository
func (m *MockBaseRepository) ListHands(ctx context.Context, limit int) ([]*entities.Transaction, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]*entities.Transaction), args.Error(1)
}

// Close implements Repository
func (m *MockBaseRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}

type recordedRequest struct {
	method string
	path   string
	body   string
}

// fakeCluster answers Elasticsearch requests in memory
type fakeCluster struct {
	mu       sync.Mutex
	indices  map[string]bool
	requests []recordedRequest
}

func newFakeCluster(existing ...string) *fakeCluster {
	c := &fakeCluster{indices: map[string]bool{}}
	for _, name := range existing {
		c.indices[name] = true
	}
	return c
}

func (c *fakeCluster) RoundTrip(req *http.Request) (*http.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var body string
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		body = string(b)
	}
	c.requests = append(c.requests, recordedRequest{method: req.Method, path: req.URL.Path, body: body})

	index := strings.Split(strings.TrimPrefix(req.URL.Path, "/"), "/")[0]
	status, payload := http.StatusOK, `{}`
	switch {
	case req.Method == http.MethodHead:
		if !c.indices[index] {
			status = http.StatusNotFound
		}
	case req.Method == http.MethodPut && !strings.Contains(req.URL.Path, "/_doc/"):
		c.indices[index] = true
		payload = `{"acknowledged":true}`
	case req.Method == http.MethodDelete:
		delete(c.indices, index)
		payload = `{"acknowledged":true}`
	case req.Method == http.MethodGet:
		names := map[string]json.RawMessage{}
		for name := range c.indices {
			if strings.Contains(name, "_transactions_") {
				names[name] = json.RawMessage(`{}`)
			}
		}
		b, _ := json.Marshal(names)
		payload = string(b)
	default:
		payload = `{"result":"created"}`
	}

	header := http.Header{}
	header.Set("X-Elastic-Product", "Elasticsearch")
	header.Set("Content-Type", "application/json")
	return &http.Response{
		StatusCode: status,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(payload)),
		Request:    req,
	}, nil
}

func (c *fakeCluster) paths(method string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, r := range c.requests {
		if r.method == method {
			out = append(out, r.path)
		}
	}
	return out
}

func (c *fakeCluster) bodyFor(path string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.requests {
		if r.path == path {
			return r.body
		}
	}
	return ""
}

func newTestESRepo(t *testing.T, base Repository, cluster *fakeCluster) *ElasticsearchRepository {
	t.Helper()
	repo, err := NewElasticsearchRepository(context.Background(), base, &ElasticsearchConfig{
		URL:         "http://localhost:9200",
		IndexPrefix: "test",
		Transport:   cluster,
	})
	require.NoError(t, err)
	return repo
}

func TestNewElasticsearchRepositoryCreatesIndices(t *testing.T) {
	cluster := newFakeCluster()
	repo := newTestESRepo(t, NewMemoryRepository(), cluster)

	month := time.Now().Format(indexMonthLayout)
	created := cluster.paths(http.MethodPut)
	assert.Contains(t, created, "/test_players")
	assert.Contains(t, created, "/test_transactions_"+month)
	assert.Equal(t, "test", repo.GetIndexPrefix())
	assert.Equal(t, 365*24*time.Hour, repo.GetConfig().RetentionPeriod)
}

func TestNewElasticsearchRepositorySkipsExistingIndices(t *testing.T) {
	month := time.Now().Format(indexMonthLayout)
	cluster := newFakeCluster("test_players", "test_transactions_"+month)
	newTestESRepo(t, NewMemoryRepository(), cluster)

	assert.Empty(t, cluster.paths(http.MethodPut))
}

func TestAppendTransactionIndexesTransactionAndPlayer(t *testing.T) {
	cluster := newFakeCluster()
	base := NewMemoryRepository()
	repo := newTestESRepo(t, base, cluster)
	ctx := context.Background()

	require.NoError(t, repo.UpsertPlayer(ctx, "Alice", "Unknown"))
	require.NoError(t, repo.AppendTransaction(ctx, "Alice", &entities.Transaction{
		ID:          "tx-1",
		GameID:      "VIDEO_20240301_120000",
		HandNumber:  1,
		NetWinLoss:  10,
		WinLossFlag: entities.FlagWin,
	}))

	month := time.Now().Format(indexMonthLayout)
	txPath := "/test_transactions_" + month + "/_doc/tx-1"
	assert.Contains(t, cluster.paths(http.MethodPut), txPath)

	var doc entities.Transaction
	require.NoError(t, json.Unmarshal([]byte(cluster.bodyFor(txPath)), &doc))
	assert.Equal(t, "Alice", doc.PlayerName)
	assert.Equal(t, entities.FlagWin, doc.WinLossFlag)

	// The player document carries the totals from the base repository
	var player entities.PlayerStatistics
	bodies := 0
	for _, r := range cluster.requests {
		if r.path == "/test_players/_doc/Alice" {
			bodies++
			require.NoError(t, json.Unmarshal([]byte(r.body), &player))
		}
	}
	assert.Equal(t, 2, bodies)
	assert.Equal(t, 1, player.HandsPlayed)
	assert.InDelta(t, 10.0, player.TotalWinnings, 1e-9)

	p, err := base.GetPlayer(ctx, "Alice")
	require.NoError(t, err)
	assert.Equal(t, 1, p.HandsPlayed)
}

func TestAppendTransactionBaseErrorSkipsIndexing(t *testing.T) {
	cluster := newFakeCluster()
	base := new(MockBaseRepository)
	repo := newTestESRepo(t, base, cluster)
	before := len(cluster.requests)

	tx := &entities.Transaction{ID: "tx-1"}
	base.On("AppendTransaction", mock.Anything, "Alice", tx).Return(assert.AnError)

	err := repo.AppendTransaction(context.Background(), "Alice", tx)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Len(t, cluster.requests, before)
	base.AssertExpectations(t)
}

func TestReadsDelegateToBase(t *testing.T) {
	ctrl := gomock.NewController(t)
	base := mock_hand.NewMockRepository(ctrl)
	repo := newTestESRepo(t, base, newFakeCluster())
	ctx := context.Background()

	want := []*entities.Transaction{{ID: "tx-1"}}
	base.EXPECT().GetTransactions(ctx, "Alice", 5).Return(want, nil)
	base.EXPECT().ListHands(ctx, 10).Return(want, nil)
	base.EXPECT().ListPlayers(ctx).Return([]*entities.PlayerStatistics{}, nil)
	base.EXPECT().Close().Return(nil)

	got, err := repo.GetTransactions(ctx, "Alice", 5)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = repo.ListHands(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	players, err := repo.ListPlayers(ctx)
	require.NoError(t, err)
	assert.Empty(t, players)

	assert.NoError(t, repo.Close())
}

func TestRotateAndPruneIndices(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	cluster := newFakeCluster("test_players", "test_transactions_2022-01", "test_transactions_2024-05")
	repo := newTestESRepo(t, NewMemoryRepository(), cluster)
	repo.now = func() time.Time { return now }

	require.NoError(t, repo.RotateIndices(context.Background()))
	assert.Equal(t, "test_transactions_2024-06", repo.activeTransactionIndex())

	require.NoError(t, repo.PruneOldIndices(context.Background()))
	assert.Equal(t, []string{"/test_transactions_2022-01"}, cluster.paths(http.MethodDelete))

	indices, err := repo.GetIndices(context.Background(), "test_transactions_*")
	require.NoError(t, err)
	assert.NotContains(t, indices, "test_transactions_2022-01")
	assert.Contains(t, indices, "test_transactions_2024-06")
}
