package mailer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDriver struct {
	sent []Outbound
}

func (d *recordingDriver) Send(ctx context.Context, out Outbound) (string, error) {
	d.sent = append(d.sent, out)
	return "prov_42", nil
}

type failingDriver struct{}

func (failingDriver) Send(ctx context.Context, out Outbound) (string, error) {
	return "", errors.New("relay down")
}

type failingInsertRepo struct {
	*memoryHistoryRepo
}

func (r *failingInsertRepo) Insert(ctx context.Context, h History) (int64, error) {
	return 0, errors.New("connection reset")
}

func newTestMailService(driver Driver, repo Repository) *Service {
	return NewService(driver, repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestDispatchRecordsSentHistory(t *testing.T) {
	driver := &recordingDriver{}
	repo := newMemoryHistoryRepo()
	svc := newTestMailService(driver, repo)

	h, err := svc.Dispatch(context.Background(), Outbound{
		DocumentType: "quote",
		DocumentID:   9,
		To:           "dana@example.com",
		Subject:      "Quote Q-00009",
		HTML:         "<p>hi</p>",
	})
	require.NoError(t, err)
	require.Len(t, driver.sent, 1)
	assert.Equal(t, "prov_42", h.ProviderEmailID)
	assert.Equal(t, StatusSent, h.Status)
	assert.NotZero(t, h.ID)

	stored, err := repo.FindByProviderEmailID(context.Background(), "prov_42")
	require.NoError(t, err)
	assert.Equal(t, h.ID, stored.ID)
}

func TestDispatchDriverFailure(t *testing.T) {
	repo := newMemoryHistoryRepo()
	svc := newTestMailService(failingDriver{}, repo)

	h, err := svc.Dispatch(context.Background(), Outbound{To: "dana@example.com"})
	require.Error(t, err)
	assert.Nil(t, h)
	assert.Empty(t, repo.records)
}

func TestDispatchHistoryWriteFailureDoesNotFailSend(t *testing.T) {
	driver := &recordingDriver{}
	svc := newTestMailService(driver, &failingInsertRepo{newMemoryHistoryRepo()})

	// The message already left through the driver; an error here would make
	// the job queue retry and deliver it twice.
	h, err := svc.Dispatch(context.Background(), Outbound{
		DocumentType: "invoice",
		DocumentID:   3,
		To:           "sam@example.com",
		Subject:      "Invoice INV-00003",
	})
	require.NoError(t, err)
	require.Len(t, driver.sent, 1)
	assert.Equal(t, "prov_42", h.ProviderEmailID)
	assert.Zero(t, h.ID)
}
