package invoices

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
	invoices map[int64]*Invoice
	nextID   int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{invoices: make(map[int64]*Invoice), nextID: 1}
}

func (m *mockRepo) Get(ctx context.Context, id int64) (*Invoice, error) {
	inv, ok := m.invoices[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *inv
	return &copied, nil
}

func (m *mockRepo) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
	var out []Invoice
	for _, inv := range m.invoices {
		out = append(out, *inv)
	}
	return out, len(out), nil
}

func (m *mockRepo) Create(ctx context.Context, invoice Invoice) (int64, error) {
	id := m.nextID
	m.nextID++
	invoice.ID = id
	m.invoices[id] = &invoice
	return id, nil
}

func (m *mockRepo) ReplaceHeaderAndLines(ctx context.Context, invoice Invoice) error {
	if _, ok := m.invoices[invoice.ID]; !ok {
		return ErrNotFound
	}
	m.invoices[invoice.ID] = &invoice
	return nil
}

func (m *mockRepo) UpdateStatus(ctx context.Context, id int64, status string, stamp string, at time.Time) error {
	inv, ok := m.invoices[id]
	if !ok {
		return ErrNotFound
	}
	inv.Status = status
	switch stamp {
	case "issued_at":
		inv.IssuedAt = &at
	case "paid_at":
		inv.PaidAt = &at
	}
	return nil
}

func (m *mockRepo) SetDueAt(ctx context.Context, id int64, dueAt time.Time) error {
	inv, ok := m.invoices[id]
	if !ok {
		return ErrNotFound
	}
	inv.DueAt = &dueAt
	return nil
}

func (m *mockRepo) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	var swept int64
	for _, inv := range m.invoices {
		if inv.Status == StatusSent && inv.DueAt != nil && inv.DueAt.Before(asOf) {
			inv.Status = StatusOverdue
			swept++
		}
	}
	return swept, nil
}

func (m *mockRepo) SumOutstanding(ctx context.Context) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, inv := range m.invoices {
		if inv.Status == StatusSent || inv.Status == StatusOverdue {
			total = total.Add(inv.Total)
		}
	}
	return total, nil
}

func (m *mockRepo) NextNumber(ctx context.Context) (string, error) {
	return "INV-00001", nil
}

func (m *mockRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.invoices[id]; !ok {
		return ErrNotFound
	}
	delete(m.invoices, id)
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

func createDraft(t *testing.T, svc *Service) *Invoice {
	t.Helper()
	invoice, err := svc.Create(context.Background(), CreateInvoiceRequest{
		ContactID: 5,
		Title:     "Furnace repair",
		TaxRate:   dec("10"),
		Lines: []LineInput{
			{Description: "Labor", Quantity: dec("3"), UnitPrice: dec("90.00")},
		},
	}, 1)
	require.NoError(t, err)
	return invoice
}

func TestCreateComputesTotals(t *testing.T) {
	svc, _, _ := newTestService()
	invoice := createDraft(t, svc)

	assert.Equal(t, "INV-00001", invoice.Number)
	assert.Equal(t, StatusDraft, invoice.Status)
	assert.Equal(t, "270.00", invoice.Subtotal.StringFixed(2))
	assert.Equal(t, "27.00", invoice.TaxAmount.StringFixed(2))
	assert.Equal(t, "297.00", invoice.Total.StringFixed(2))
}

func TestCreateDraftForJobAllowsEmptyLines(t *testing.T) {
	svc, repo, _ := newTestService()

	id, err := svc.CreateDraftForJob(context.Background(), 5, nil, 42, "Furnace repair", 1)
	require.NoError(t, err)

	inv := repo.invoices[id]
	assert.Equal(t, StatusDraft, inv.Status)
	require.NotNil(t, inv.WorkOrderID)
	assert.Equal(t, int64(42), *inv.WorkOrderID)
	assert.True(t, inv.Total.IsZero())
}

func TestSendStampsIssueAndDefaultsDueDate(t *testing.T) {
	svc, _, mail := newTestService()
	invoice := createDraft(t, svc)

	sent, err := svc.Send(context.Background(), invoice.ID, 1)
	require.NoError(t, err)

	assert.Equal(t, StatusSent, sent.Status)
	require.NotNil(t, sent.IssuedAt)
	require.NotNil(t, sent.DueAt)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, DefaultTermsDays), *sent.DueAt, time.Minute)

	require.Len(t, mail.sent, 1)
	assert.Equal(t, "invoice", mail.sent[0].DocumentType)
	assert.Equal(t, "dana@example.com", mail.sent[0].To)
}

func TestSendKeepsExplicitDueDate(t *testing.T) {
	svc, _, _ := newTestService()
	due := time.Now().AddDate(0, 0, 14).UTC()
	invoice, err := svc.Create(context.Background(), CreateInvoiceRequest{
		ContactID: 5,
		Title:     "Net 14 job",
		DueAt:     &due,
		Lines:     []LineInput{{Description: "Labor", Quantity: dec("1"), UnitPrice: dec("50")}},
	}, 1)
	require.NoError(t, err)

	sent, err := svc.Send(context.Background(), invoice.ID, 1)
	require.NoError(t, err)
	require.NotNil(t, sent.DueAt)
	assert.WithinDuration(t, due, *sent.DueAt, time.Second)
}

func TestMarkPaidRequiresSentOrOverdue(t *testing.T) {
	svc, _, _ := newTestService()
	invoice := createDraft(t, svc)

	_, err := svc.MarkPaid(context.Background(), invoice.ID, 1)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.Send(context.Background(), invoice.ID, 1)
	require.NoError(t, err)

	paid, err := svc.MarkPaid(context.Background(), invoice.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, paid.Status)
	assert.NotNil(t, paid.PaidAt)
}

func TestSweepOverdue(t *testing.T) {
	svc, repo, _ := newTestService()
	invoice := createDraft(t, svc)

	_, err := svc.Send(context.Background(), invoice.ID, 1)
	require.NoError(t, err)

	// Push the due date into the past.
	past := time.Now().AddDate(0, 0, -1).UTC()
	repo.invoices[invoice.ID].DueAt = &past

	swept, err := svc.SweepOverdue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), swept)
	assert.Equal(t, StatusOverdue, repo.invoices[invoice.ID].Status)

	// Overdue invoices can still be paid.
	paid, err := svc.MarkPaid(context.Background(), invoice.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, paid.Status)
}

func TestUpdateRequiresDraft(t *testing.T) {
	svc, _, _ := newTestService()
	invoice := createDraft(t, svc)

	_, err := svc.Send(context.Background(), invoice.ID, 1)
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), invoice.ID, UpdateInvoiceRequest{Title: strPtr("Changed")}, 1)
	assert.ErrorIs(t, err, ErrNotEditable)
}

func TestOutstandingTotal(t *testing.T) {
	svc, _, _ := newTestService()
	invoice := createDraft(t, svc)

	total, err := svc.OutstandingTotal(context.Background())
	require.NoError(t, err)
	assert.True(t, total.IsZero())

	_, err = svc.Send(context.Background(), invoice.ID, 1)
	require.NoError(t, err)

	total, err = svc.OutstandingTotal(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "297.00", total.StringFixed(2))
}
