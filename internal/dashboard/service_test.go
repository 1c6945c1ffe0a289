package dashboard

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	mu        sync.Mutex
	leadCalls int
	leads     map[string]int
	openJobs  int
	total     decimal.Decimal
	failures  []EmailFailure
}

func (m *mockRepo) LeadCountsByStatus(ctx context.Context) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leadCalls++
	return m.leads, nil
}

func (m *mockRepo) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.leadCalls
}

func (m *mockRepo) CountOpenWorkOrders(ctx context.Context) (int, error) {
	return m.openJobs, nil
}

func (m *mockRepo) OutstandingInvoiceTotal(ctx context.Context) (decimal.Decimal, error) {
	return m.total, nil
}

func (m *mockRepo) RecentEmailFailures(ctx context.Context, limit int) ([]EmailFailure, error) {
	if len(m.failures) > limit {
		return m.failures[:limit], nil
	}
	return m.failures, nil
}

func newTestService(t *testing.T) (*Service, *mockRepo) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := &mockRepo{
		leads:    map[string]int{"new": 3, "qualified": 1},
		openJobs: 2,
		total:    decimal.RequireFromString("450.00"),
		failures: []EmailFailure{{Recipient: "dana@example.com", Subject: "Quote Q-00001", Status: "bounced", At: time.Now().UTC()}},
	}
	return NewService(repo, NewCache(client, time.Minute)), repo
}

func TestSummaryAggregates(t *testing.T) {
	svc, _ := newTestService(t)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.LeadsByStatus["new"])
	assert.Equal(t, 2, summary.OpenWorkOrders)
	assert.Equal(t, "450.00", summary.OutstandingTotal.StringFixed(2))
	require.Len(t, summary.EmailFailures, 1)
	assert.Equal(t, "bounced", summary.EmailFailures[0].Status)
}

func TestSummaryServesFromCache(t *testing.T) {
	svc, repo := newTestService(t)

	_, err := svc.Summary(context.Background())
	require.NoError(t, err)
	_, err = svc.Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, repo.calls())
}

func TestWarmBumpsVersionAndReloads(t *testing.T) {
	svc, repo := newTestService(t)

	_, err := svc.Summary(context.Background())
	require.NoError(t, err)

	repo.mu.Lock()
	repo.leads = map[string]int{"new": 7}
	repo.mu.Unlock()
	require.NoError(t, svc.Warm(context.Background()))

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, summary.LeadsByStatus["new"])
	assert.Equal(t, 2, repo.calls())
}

func TestSummaryWithoutCacheClient(t *testing.T) {
	repo := &mockRepo{leads: map[string]int{"new": 1}, total: decimal.Zero}
	svc := NewService(repo, nil)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.LeadsByStatus["new"])

	_, err = svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls())
}
