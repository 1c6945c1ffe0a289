package quotes

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldline-crm/fieldline-crm/internal/crm/contacts"
	"github.com/fieldline-crm/fieldline-crm/internal/mailer"
)

type mockRepo struct {
	quotes map[int64]*Quote
	nextID int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{quotes: make(map[int64]*Quote), nextID: 1}
}

func (m *mockRepo) Get(ctx context.Context, id int64) (*Quote, error) {
	q, ok := m.quotes[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *q
	return &copied, nil
}

func (m *mockRepo) List(ctx context.Context, req ListQuotesRequest) ([]Quote, int, error) {
	var out []Quote
	for _, q := range m.quotes {
		out = append(out, *q)
	}
	return out, len(out), nil
}

func (m *mockRepo) Create(ctx context.Context, quote Quote) (int64, error) {
	id := m.nextID
	m.nextID++
	quote.ID = id
	m.quotes[id] = &quote
	return id, nil
}

func (m *mockRepo) ReplaceHeaderAndLines(ctx context.Context, quote Quote) error {
	if _, ok := m.quotes[quote.ID]; !ok {
		return ErrNotFound
	}
	m.quotes[quote.ID] = &quote
	return nil
}

func (m *mockRepo) UpdateStatus(ctx context.Context, id int64, status string, stamp string, at time.Time) error {
	q, ok := m.quotes[id]
	if !ok {
		return ErrNotFound
	}
	q.Status = status
	switch stamp {
	case "sent_at":
		q.SentAt = &at
	case "decided_at":
		q.DecidedAt = &at
	}
	return nil
}

func (m *mockRepo) NextNumber(ctx context.Context) (string, error) {
	return "Q-00001", nil
}

func (m *mockRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.quotes[id]; !ok {
		return ErrNotFound
	}
	delete(m.quotes, id)
	return nil
}

type mockContacts struct {
	contact *contacts.Contact
}

func (m *mockContacts) Get(ctx context.Context, id int64) (*contacts.Contact, error) {
	if m.contact == nil || m.contact.ID != id {
		return nil, contacts.ErrNotFound
	}
	return m.contact, nil
}

type mockMail struct {
	sent []mailer.Outbound
}

func (m *mockMail) EnqueueMail(ctx context.Context, out mailer.Outbound) error {
	m.sent = append(m.sent, out)
	return nil
}

func strPtr(s string) *string { return &s }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestService() (*Service, *mockRepo, *mockMail) {
	repo := newMockRepo()
	mail := &mockMail{}
	dir := &mockContacts{contact: &contacts.Contact{ID: 5, FirstName: "Dana", Email: strPtr("dana@example.com")}}
	return NewService(repo, dir, mail, nil), repo, mail
}

func createDraft(t *testing.T, svc *Service) *Quote {
	t.Helper()
	quote, err := svc.Create(context.Background(), CreateQuoteRequest{
		ContactID: 5,
		Title:     "Water heater replacement",
		TaxRate:   dec("8.25"),
		Lines: []LineInput{
			{Description: "50-gal water heater", Quantity: dec("1"), UnitPrice: dec("1200.00")},
			{Description: "Labor", Quantity: dec("4"), UnitPrice: dec("95.00")},
		},
	}, 1)
	require.NoError(t, err)
	return quote
}

func TestCreateComputesTotals(t *testing.T) {
	svc, _, _ := newTestService()
	quote := createDraft(t, svc)

	assert.Equal(t, "Q-00001", quote.Number)
	assert.Equal(t, StatusDraft, quote.Status)
	assert.Equal(t, "1580.00", quote.Subtotal.StringFixed(2))
	assert.Equal(t, "130.35", quote.TaxAmount.StringFixed(2))
	assert.Equal(t, "1710.35", quote.Total.StringFixed(2))
	require.Len(t, quote.Lines, 2)
	assert.Equal(t, "380.00", quote.Lines[1].Amount.StringFixed(2))
}

func TestCreateRejectsNonPositiveQuantity(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Create(context.Background(), CreateQuoteRequest{
		ContactID: 5,
		Title:     "Bad quote",
		Lines:     []LineInput{{Description: "Nothing", Quantity: dec("0"), UnitPrice: dec("10")}},
	}, 1)
	assert.ErrorIs(t, err, ErrInvalidLine)
}

func TestSendMarksDraftSentAndEnqueuesMail(t *testing.T) {
	svc, _, mail := newTestService()
	quote := createDraft(t, svc)

	sent, err := svc.Send(context.Background(), quote.ID, 1)
	require.NoError(t, err)

	assert.Equal(t, StatusSent, sent.Status)
	assert.NotNil(t, sent.SentAt)
	require.Len(t, mail.sent, 1)
	assert.Equal(t, "quote", mail.sent[0].DocumentType)
	assert.Equal(t, quote.ID, mail.sent[0].DocumentID)
	assert.Equal(t, "dana@example.com", mail.sent[0].To)
	assert.Contains(t, mail.sent[0].Subject, "Q-00001")
}

func TestResendKeepsSentStatus(t *testing.T) {
	svc, _, mail := newTestService()
	quote := createDraft(t, svc)

	_, err := svc.Send(context.Background(), quote.ID, 1)
	require.NoError(t, err)
	again, err := svc.Send(context.Background(), quote.ID, 1)
	require.NoError(t, err)

	assert.Equal(t, StatusSent, again.Status)
	assert.Len(t, mail.sent, 2)
}

func TestSendWithoutRecipientFails(t *testing.T) {
	repo := newMockRepo()
	mail := &mockMail{}
	dir := &mockContacts{contact: &contacts.Contact{ID: 5, FirstName: "Dana"}}
	svc := NewService(repo, dir, mail, nil)

	quote := createDraft(t, svc)
	_, err := svc.Send(context.Background(), quote.ID, 1)
	assert.ErrorIs(t, err, ErrNoRecipient)
	assert.Empty(t, mail.sent)
}

func TestAcceptRequiresSentStatus(t *testing.T) {
	svc, _, _ := newTestService()
	quote := createDraft(t, svc)

	_, err := svc.Accept(context.Background(), quote.ID, 1)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.Send(context.Background(), quote.ID, 1)
	require.NoError(t, err)

	accepted, err := svc.Accept(context.Background(), quote.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, accepted.Status)
	assert.NotNil(t, accepted.DecidedAt)
}

func TestUpdateRequiresDraft(t *testing.T) {
	svc, _, _ := newTestService()
	quote := createDraft(t, svc)

	_, err := svc.Send(context.Background(), quote.ID, 1)
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), quote.ID, UpdateQuoteRequest{Title: strPtr("Changed")}, 1)
	assert.ErrorIs(t, err, ErrNotEditable)
}

func TestUpdateRecomputesTotals(t *testing.T) {
	svc, _, _ := newTestService()
	quote := createDraft(t, svc)

	rate := dec("0")
	updated, err := svc.Update(context.Background(), quote.ID, UpdateQuoteRequest{
		TaxRate: &rate,
		Lines:   []LineInput{{Description: "Labor", Quantity: dec("2"), UnitPrice: dec("95.00")}},
	}, 1)
	require.NoError(t, err)

	assert.Equal(t, "190.00", updated.Subtotal.StringFixed(2))
	assert.Equal(t, "0.00", updated.TaxAmount.StringFixed(2))
	assert.Equal(t, "190.00", updated.Total.StringFixed(2))
}

func TestDeleteRequiresDraft(t *testing.T) {
	svc, _, _ := newTestService()
	quote := createDraft(t, svc)

	_, err := svc.Send(context.Background(), quote.ID, 1)
	require.NoError(t, err)

	err = svc.Delete(context.Background(), quote.ID, 1)
	assert.ErrorIs(t, err, ErrNotEditable)
}
