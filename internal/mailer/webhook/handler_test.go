package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldline-crm/fieldline-crm/internal/mailer"
	"github.com/fieldline-crm/fieldline-crm/internal/shared"
)

type stubHistoryRepo struct {
	record  *mailer.History
	patched []mailer.StatusPatch
}

func (r *stubHistoryRepo) Insert(ctx context.Context, h mailer.History) (int64, error) {
	return 0, nil
}

func (r *stubHistoryRepo) FindByProviderEmailID(ctx context.Context, providerEmailID string) (*mailer.History, error) {
	if r.record == nil || r.record.ProviderEmailID != providerEmailID {
		return nil, shared.ErrNotFound
	}
	copied := *r.record
	return &copied, nil
}

func (r *stubHistoryRepo) ApplyPatch(ctx context.Context, id int64, patch mailer.StatusPatch) error {
	r.patched = append(r.patched, patch)
	return nil
}

func (r *stubHistoryRepo) ListForDocument(ctx context.Context, documentType string, documentID int64) ([]mailer.History, error) {
	return nil, nil
}

const testSecret = "whsec_test"

func sign(t *testing.T, secret, timestamp string, body []byte) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + "."))
	mac.Write(body)
	return fmt.Sprintf("t=%s,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

func newTestHandler(repo *stubHistoryRepo) *Handler {
	logger := slog.Default()
	return NewHandler(logger, testSecret, mailer.NewReducer(repo, logger))
}

func TestHandleResendValidSignature(t *testing.T) {
	repo := &stubHistoryRepo{record: &mailer.History{ID: 7, ProviderEmailID: "abc123", Status: mailer.StatusSent}}
	h := newTestHandler(repo)

	body := []byte(`{"type":"email.delivered","data":{"email_id":"abc123"}}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/resend", strings.NewReader(string(body)))
	req.Header.Set(SignatureHeader, sign(t, testSecret, "1700000000", body))
	rec := httptest.NewRecorder()

	h.HandleResend(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, repo.patched, 1)
	assert.Equal(t, mailer.StatusDelivered, repo.patched[0].Status)
}

func TestHandleResendTamperedBody(t *testing.T) {
	repo := &stubHistoryRepo{}
	h := newTestHandler(repo)

	body := []byte(`{"type":"email.delivered","data":{"email_id":"abc123"}}`)
	sig := sign(t, testSecret, "1700000000", body)

	tampered := []byte(strings.Replace(string(body), "abc123", "abc124", 1))
	req := httptest.NewRequest(http.MethodPost, "/webhooks/resend", strings.NewReader(string(tampered)))
	req.Header.Set(SignatureHeader, sig)
	rec := httptest.NewRecorder()

	h.HandleResend(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, repo.patched)
}

func TestHandleResendWrongSecret(t *testing.T) {
	repo := &stubHistoryRepo{}
	h := newTestHandler(repo)

	body := []byte(`{"type":"email.delivered","data":{"email_id":"abc123"}}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/resend", strings.NewReader(string(body)))
	req.Header.Set(SignatureHeader, sign(t, "whsec_other", "1700000000", body))
	rec := httptest.NewRecorder()

	h.HandleResend(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleResendUnconfiguredSecret(t *testing.T) {
	repo := &stubHistoryRepo{record: &mailer.History{ID: 7, ProviderEmailID: "abc123", Status: mailer.StatusSent}}
	logger := slog.Default()
	h := NewHandler(logger, "", mailer.NewReducer(repo, logger))

	// A signature minted with the empty key must not advance any record.
	body := []byte(`{"type":"email.bounced","data":{"email_id":"abc123"}}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/resend", strings.NewReader(string(body)))
	req.Header.Set(SignatureHeader, sign(t, "", "1700000000", body))
	rec := httptest.NewRecorder()

	h.HandleResend(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, repo.patched)
}

func TestHandleResendMissingSignature(t *testing.T) {
	h := newTestHandler(&stubHistoryRepo{})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/resend", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	h.HandleResend(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "no signature")
}

func TestHandleResendRejectsNonPost(t *testing.T) {
	h := newTestHandler(&stubHistoryRepo{})

	req := httptest.NewRequest(http.MethodGet, "/webhooks/resend", nil)
	rec := httptest.NewRecorder()

	h.HandleResend(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleResendMalformedJSON(t *testing.T) {
	h := newTestHandler(&stubHistoryRepo{})

	body := []byte(`{"type":`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/resend", strings.NewReader(string(body)))
	req.Header.Set(SignatureHeader, sign(t, testSecret, "1700000000", body))
	rec := httptest.NewRecorder()

	h.HandleResend(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestVerifySignatureMalformedHeader(t *testing.T) {
	for _, header := range []string{"", "garbage", "t=123", "v1=deadbeef", "t=123,v1=nothex"} {
		err := VerifySignature([]byte(testSecret), header, []byte("{}"))
		assert.ErrorIs(t, err, ErrInvalidSignature, "header %q", header)
	}
}
