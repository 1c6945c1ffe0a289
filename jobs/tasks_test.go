package jobs

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldline-crm/fieldline-crm/internal/mailer"
	"github.com/fieldline-crm/fieldline-crm/internal/shared"
)

type stubDriver struct {
	sent []mailer.Outbound
}

func (d *stubDriver) Send(ctx context.Context, out mailer.Outbound) (string, error) {
	d.sent = append(d.sent, out)
	return "prov_123", nil
}

type stubHistoryRepo struct {
	inserted []mailer.History
}

func (r *stubHistoryRepo) Insert(ctx context.Context, h mailer.History) (int64, error) {
	r.inserted = append(r.inserted, h)
	return int64(len(r.inserted)), nil
}

func (r *stubHistoryRepo) FindByProviderEmailID(ctx context.Context, providerEmailID string) (*mailer.History, error) {
	return nil, shared.ErrNotFound
}

func (r *stubHistoryRepo) ApplyPatch(ctx context.Context, id int64, patch mailer.StatusPatch) error {
	return nil
}

func (r *stubHistoryRepo) ListForDocument(ctx context.Context, documentType string, documentID int64) ([]mailer.History, error) {
	return nil, nil
}

func TestSendMailTaskRoundTrip(t *testing.T) {
	task, err := NewSendMailTask(mailer.Outbound{
		DocumentType: "quote",
		DocumentID:   7,
		To:           "dana@example.com",
		Subject:      "Quote Q-00007",
		HTML:         "<p>hello</p>",
	})
	require.NoError(t, err)
	assert.Equal(t, TaskTypeSendMail, task.Type())

	var payload SendMailPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, "quote", payload.DocumentType)
	assert.Equal(t, int64(7), payload.DocumentID)
	assert.Equal(t, "dana@example.com", payload.To)
}

func TestSendMailHandlerDispatches(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	driver := &stubDriver{}
	repo := &stubHistoryRepo{}
	svc := mailer.NewService(driver, repo, logger)

	task, err := NewSendMailTask(mailer.Outbound{
		DocumentType: "invoice",
		DocumentID:   3,
		To:           "dana@example.com",
		Subject:      "Invoice INV-00003",
		HTML:         "<p>pay up</p>",
	})
	require.NoError(t, err)

	handler := NewSendMailHandler(svc, logger, nil)
	require.NoError(t, handler(context.Background(), task))

	require.Len(t, driver.sent, 1)
	assert.Equal(t, "dana@example.com", driver.sent[0].To)
	require.Len(t, repo.inserted, 1)
	assert.Equal(t, "prov_123", repo.inserted[0].ProviderEmailID)
	assert.Equal(t, mailer.StatusSent, repo.inserted[0].Status)
}

func TestSendMailHandlerSkipsBadPayload(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := mailer.NewService(&stubDriver{}, &stubHistoryRepo{}, logger)

	handler := NewSendMailHandler(svc, logger, nil)
	err := handler(context.Background(), asynq.NewTask(TaskTypeSendMail, []byte("{broken")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
