package mailer

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldline-crm/fieldline-crm/internal/shared"
)

type memoryHistoryRepo struct {
	records map[int64]*History
	nextID  int64
}

func newMemoryHistoryRepo() *memoryHistoryRepo {
	return &memoryHistoryRepo{records: make(map[int64]*History), nextID: 1}
}

func (r *memoryHistoryRepo) Insert(ctx context.Context, h History) (int64, error) {
	id := r.nextID
	r.nextID++
	h.ID = id
	r.records[id] = &h
	return id, nil
}

func (r *memoryHistoryRepo) FindByProviderEmailID(ctx context.Context, providerEmailID string) (*History, error) {
	var match *History
	for _, h := range r.records {
		if h.ProviderEmailID == providerEmailID {
			if match == nil || h.ID < match.ID {
				match = h
			}
		}
	}
	if match == nil {
		return nil, shared.ErrNotFound
	}
	copied := *match
	return &copied, nil
}

func (r *memoryHistoryRepo) ApplyPatch(ctx context.Context, id int64, patch StatusPatch) error {
	h, ok := r.records[id]
	if !ok {
		return shared.ErrNotFound
	}
	h.Status = patch.Status
	at := patch.At
	switch patch.StampColumn {
	case "delivered_at":
		h.DeliveredAt = &at
	case "opened_at":
		h.OpenedAt = &at
	case "clicked_at":
		h.ClickedAt = &at
	case "bounced_at":
		h.BouncedAt = &at
	case "complained_at":
		h.ComplainedAt = &at
	case "delayed_at":
		h.DelayedAt = &at
	}
	if patch.ErrorMessage != nil {
		h.ErrorMessage = patch.ErrorMessage
	}
	return nil
}

func (r *memoryHistoryRepo) ListForDocument(ctx context.Context, documentType string, documentID int64) ([]History, error) {
	var out []History
	for _, h := range r.records {
		if h.DocumentType == documentType && h.DocumentID == documentID {
			out = append(out, *h)
		}
	}
	return out, nil
}

func seedRecord(t *testing.T, repo *memoryHistoryRepo, providerID string) int64 {
	t.Helper()
	id, err := repo.Insert(context.Background(), History{
		DocumentType:    "invoice",
		DocumentID:      12,
		Recipient:       "client@example.com",
		Subject:         "Invoice INV-00012",
		ProviderEmailID: providerID,
		Status:          StatusSent,
		SentAt:          time.Now().UTC(),
	})
	require.NoError(t, err)
	return id
}

func TestReducerBouncedRecordsReason(t *testing.T) {
	repo := newMemoryHistoryRepo()
	id := seedRecord(t, repo, "abc123")
	reducer := NewReducer(repo, slog.Default())

	err := reducer.Apply(context.Background(), Event{
		Type: EventBounced,
		Data: EventData{EmailID: "abc123", Reason: "mailbox full"},
	})
	require.NoError(t, err)

	h := repo.records[id]
	assert.Equal(t, StatusBounced, h.Status)
	require.NotNil(t, h.BouncedAt)
	require.NotNil(t, h.ErrorMessage)
	assert.Equal(t, "mailbox full", *h.ErrorMessage)
}

func TestReducerBouncedDefaultsReason(t *testing.T) {
	repo := newMemoryHistoryRepo()
	id := seedRecord(t, repo, "abc123")
	reducer := NewReducer(repo, slog.Default())

	require.NoError(t, reducer.Apply(context.Background(), Event{
		Type: EventBounced,
		Data: EventData{EmailID: "abc123"},
	}))

	require.NotNil(t, repo.records[id].ErrorMessage)
	assert.Equal(t, defaultBounceMessage, *repo.records[id].ErrorMessage)
}

func TestReducerUnknownEmailIsNoOp(t *testing.T) {
	repo := newMemoryHistoryRepo()
	id := seedRecord(t, repo, "abc123")
	before := *repo.records[id]
	reducer := NewReducer(repo, slog.Default())

	err := reducer.Apply(context.Background(), Event{
		Type: EventDelivered,
		Data: EventData{EmailID: "never-sent"},
	})
	require.NoError(t, err)

	assert.Len(t, repo.records, 1)
	assert.Equal(t, before, *repo.records[id])
}

func TestReducerUnknownEventTypeIsSkipped(t *testing.T) {
	repo := newMemoryHistoryRepo()
	id := seedRecord(t, repo, "abc123")
	reducer := NewReducer(repo, slog.Default())

	err := reducer.Apply(context.Background(), Event{
		Type: "email.scheduled",
		Data: EventData{EmailID: "abc123"},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusSent, repo.records[id].Status)
}

func TestReducerDeliveredThenOpenedKeepsBothStamps(t *testing.T) {
	repo := newMemoryHistoryRepo()
	id := seedRecord(t, repo, "abc123")
	reducer := NewReducer(repo, slog.Default())

	require.NoError(t, reducer.Apply(context.Background(), Event{Type: EventDelivered, Data: EventData{EmailID: "abc123"}}))
	require.NoError(t, reducer.Apply(context.Background(), Event{Type: EventOpened, Data: EventData{EmailID: "abc123"}}))

	h := repo.records[id]
	assert.Equal(t, StatusOpened, h.Status)
	assert.NotNil(t, h.DeliveredAt, "delivered stamp must survive the opened event")
	assert.NotNil(t, h.OpenedAt)
}

func TestReducerLastWriteWins(t *testing.T) {
	// Events are applied in arrival order with no sequencing: a late
	// delivered event overwrites an earlier bounced status.
	repo := newMemoryHistoryRepo()
	id := seedRecord(t, repo, "abc123")
	reducer := NewReducer(repo, slog.Default())

	require.NoError(t, reducer.Apply(context.Background(), Event{Type: EventBounced, Data: EventData{EmailID: "abc123"}}))
	require.NoError(t, reducer.Apply(context.Background(), Event{Type: EventDelivered, Data: EventData{EmailID: "abc123"}}))

	assert.Equal(t, StatusDelivered, repo.records[id].Status)
	assert.NotNil(t, repo.records[id].BouncedAt)
}

func TestReducerDuplicateProviderIDUsesFirstMatch(t *testing.T) {
	repo := newMemoryHistoryRepo()
	first := seedRecord(t, repo, "dup")
	second := seedRecord(t, repo, "dup")
	reducer := NewReducer(repo, slog.Default())

	require.NoError(t, reducer.Apply(context.Background(), Event{Type: EventDelivered, Data: EventData{EmailID: "dup"}}))

	assert.Equal(t, StatusDelivered, repo.records[first].Status)
	assert.Equal(t, StatusSent, repo.records[second].Status)
}
