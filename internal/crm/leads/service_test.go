package leads

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldline-crm/fieldline-crm/internal/crm/accounts"
	"github.com/fieldline-crm/fieldline-crm/internal/crm/contacts"
)

type mockRepo struct {
	leads  map[int64]*Lead
	nextID int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{leads: make(map[int64]*Lead), nextID: 1}
}

func (m *mockRepo) Get(ctx context.Context, id int64) (*Lead, error) {
	l, ok := m.leads[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *l
	return &copied, nil
}

func (m *mockRepo) List(ctx context.Context, req ListLeadsRequest) ([]Lead, int, error) {
	var out []Lead
	for _, l := range m.leads {
		out = append(out, *l)
	}
	return out, len(out), nil
}

func (m *mockRepo) Create(ctx context.Context, lead Lead) (int64, error) {
	id := m.nextID
	m.nextID++
	lead.ID = id
	m.leads[id] = &lead
	return id, nil
}

func (m *mockRepo) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	l, ok := m.leads[id]
	if !ok {
		return ErrNotFound
	}
	if v, ok := updates["status"]; ok {
		l.Status = v.(string)
	}
	if v, ok := updates["name"]; ok {
		l.Name = v.(string)
	}
	return nil
}

func (m *mockRepo) MarkConverted(ctx context.Context, id, contactID int64) error {
	l, ok := m.leads[id]
	if !ok {
		return ErrNotFound
	}
	l.Status = StatusConverted
	l.ConvertedContactID = &contactID
	return nil
}

func (m *mockRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.leads[id]; !ok {
		return ErrNotFound
	}
	delete(m.leads, id)
	return nil
}

type mockContactCreator struct {
	created []contacts.CreateContactRequest
	nextID  int64
}

func (m *mockContactCreator) Create(ctx context.Context, req contacts.CreateContactRequest, createdBy int64) (*contacts.Contact, error) {
	m.created = append(m.created, req)
	m.nextID++
	return &contacts.Contact{
		ID:        m.nextID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		AccountID: req.AccountID,
	}, nil
}

type mockAccountResolver struct {
	resolved []string
	nextID   int64
}

func (m *mockAccountResolver) FindOrCreate(ctx context.Context, name string, createdBy int64) (*accounts.Account, error) {
	m.resolved = append(m.resolved, name)
	m.nextID++
	return &accounts.Account{ID: m.nextID, Name: name}, nil
}

func newTestService(repo *mockRepo) (*Service, *mockContactCreator, *mockAccountResolver) {
	cc := &mockContactCreator{}
	ar := &mockAccountResolver{}
	return NewService(repo, cc, ar, nil), cc, ar
}

func strPtr(s string) *string { return &s }

func TestCreateDefaultsToNewStatus(t *testing.T) {
	repo := newMockRepo()
	svc, _, _ := newTestService(repo)

	lead, err := svc.Create(context.Background(), CreateLeadRequest{Name: "Dana Reyes"}, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusNew, lead.Status)
}

func TestConvertWithCompanyCreatesAccountAndContact(t *testing.T) {
	repo := newMockRepo()
	svc, cc, ar := newTestService(repo)

	lead, err := svc.Create(context.Background(), CreateLeadRequest{
		Name:    "Dana Reyes",
		Company: strPtr("Reyes Plumbing"),
		Email:   strPtr("dana@reyesplumbing.test"),
	}, 1)
	require.NoError(t, err)

	result, err := svc.Convert(context.Background(), lead.ID, 1)
	require.NoError(t, err)

	require.Len(t, ar.resolved, 1)
	assert.Equal(t, "Reyes Plumbing", ar.resolved[0])
	require.NotNil(t, result.AccountID)

	require.Len(t, cc.created, 1)
	assert.Equal(t, "Dana", cc.created[0].FirstName)
	assert.Equal(t, "Reyes", cc.created[0].LastName)
	assert.Equal(t, result.AccountID, cc.created[0].AccountID)

	assert.Equal(t, StatusConverted, result.Lead.Status)
	require.NotNil(t, result.Lead.ConvertedContactID)
	assert.Equal(t, result.ContactID, *result.Lead.ConvertedContactID)
}

func TestConvertWithoutCompanySkipsAccount(t *testing.T) {
	repo := newMockRepo()
	svc, cc, ar := newTestService(repo)

	lead, err := svc.Create(context.Background(), CreateLeadRequest{Name: "Sam"}, 1)
	require.NoError(t, err)

	result, err := svc.Convert(context.Background(), lead.ID, 1)
	require.NoError(t, err)

	assert.Empty(t, ar.resolved)
	assert.Nil(t, result.AccountID)
	require.Len(t, cc.created, 1)
	assert.Equal(t, "Sam", cc.created[0].FirstName)
	assert.Equal(t, "", cc.created[0].LastName)
}

func TestConvertTwiceFails(t *testing.T) {
	repo := newMockRepo()
	svc, _, _ := newTestService(repo)

	lead, err := svc.Create(context.Background(), CreateLeadRequest{Name: "Dana Reyes"}, 1)
	require.NoError(t, err)

	_, err = svc.Convert(context.Background(), lead.ID, 1)
	require.NoError(t, err)

	_, err = svc.Convert(context.Background(), lead.ID, 1)
	assert.ErrorIs(t, err, ErrAlreadyConverted)
}

func TestUpdateConvertedLeadFails(t *testing.T) {
	repo := newMockRepo()
	svc, _, _ := newTestService(repo)

	lead, err := svc.Create(context.Background(), CreateLeadRequest{Name: "Dana Reyes"}, 1)
	require.NoError(t, err)
	_, err = svc.Convert(context.Background(), lead.ID, 1)
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), lead.ID, UpdateLeadRequest{Name: strPtr("Renamed")}, 1)
	assert.ErrorIs(t, err, ErrAlreadyConverted)
}

func TestUpdateRejectsConvertedStatus(t *testing.T) {
	repo := newMockRepo()
	svc, _, _ := newTestService(repo)

	lead, err := svc.Create(context.Background(), CreateLeadRequest{Name: "Dana Reyes"}, 1)
	require.NoError(t, err)

	status := StatusConverted
	_, err = svc.Update(context.Background(), lead.ID, UpdateLeadRequest{Status: &status}, 1)
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestConvertMissingLead(t *testing.T) {
	repo := newMockRepo()
	svc, _, _ := newTestService(repo)

	_, err := svc.Convert(context.Background(), 99, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSplitName(t *testing.T) {
	cases := []struct {
		in          string
		first, last string
	}{
		{"Dana Reyes", "Dana", "Reyes"},
		{"Sam", "Sam", ""},
		{"Ana Maria Silva", "Ana", "Maria Silva"},
		{"  Trimmed Name  ", "Trimmed", "Name"},
	}
	for _, tc := range cases {
		first, last := splitName(tc.in)
		assert.Equal(t, tc.first, first, tc.in)
		assert.Equal(t, tc.last, last, tc.in)
	}
}
