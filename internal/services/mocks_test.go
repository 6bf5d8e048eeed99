package services

import (
	"context"
	"sync"

	"rotorcharter/internal/domain"
	"rotorcharter/internal/store"
)

var _ store.Repository[domain.ContactRecord] = &contactRepoMock{}

// contactRepoMock implements store.Repository for contacts. Unset funcs
// panic when called.
type contactRepoMock struct {
	CreateFunc    func(ctx context.Context, rec *domain.ContactRecord) error
	GetFunc       func(ctx context.Context, id string) (*domain.ContactRecord, error)
	ListFunc      func(ctx context.Context, f store.ListFilter) ([]domain.ContactRecord, error)
	ReplaceFunc   func(ctx context.Context, id string, rec *domain.ContactRecord) (*domain.ContactRecord, error)
	SetStatusFunc func(ctx context.Context, id, status string) (*domain.ContactRecord, error)
	SetReadFunc   func(ctx context.Context, id string, read bool) (*domain.ContactRecord, error)
	DeleteFunc    func(ctx context.Context, id string) error
	StatsFunc     func(ctx context.Context) (*store.Stats, error)
	PingFunc      func(ctx context.Context) error

	mu    sync.Mutex
	calls map[string]int
}

func (m *contactRepoMock) record(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = map[string]int{}
	}
	m.calls[method]++
}

func (m *contactRepoMock) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *contactRepoMock) Create(ctx context.Context, rec *domain.ContactRecord) error {
	m.record("Create")
	return m.CreateFunc(ctx, rec)
}

func (m *contactRepoMock) Get(ctx context.Context, id string) (*domain.ContactRecord, error) {
	m.record("Get")
	return m.GetFunc(ctx, id)
}

func (m *contactRepoMock) List(ctx context.Context, f store.ListFilter) ([]domain.ContactRecord, error) {
	m.record("List")
	return m.ListFunc(ctx, f)
}

func (m *contactRepoMock) Replace(ctx context.Context, id string, rec *domain.ContactRecord) (*domain.ContactRecord, error) {
	m.record("Replace")
	return m.ReplaceFunc(ctx, id, rec)
}

func (m *contactRepoMock) SetStatus(ctx context.Context, id, status string) (*domain.ContactRecord, error) {
	m.record("SetStatus")
	return m.SetStatusFunc(ctx, id, status)
}

func (m *contactRepoMock) SetRead(ctx context.Context, id string, read bool) (*domain.ContactRecord, error) {
	m.record("SetRead")
	return m.SetReadFunc(ctx, id, read)
}

func (m *contactRepoMock) Delete(ctx context.Context, id string) error {
	m.record("Delete")
	return m.DeleteFunc(ctx, id)
}

func (m *contactRepoMock) Stats(ctx context.Context) (*store.Stats, error) {
	m.record("Stats")
	return m.StatsFunc(ctx)
}

func (m *contactRepoMock) Ping(ctx context.Context) error {
	m.record("Ping")
	return m.PingFunc(ctx)
}

// contactSideChannelMock implements ContactNotifier and ContactForwarder.
type contactSideChannelMock struct {
	ContactReceivedFunc func(ctx context.Context, rec *domain.ContactRecord) error
	ForwardContactFunc  func(ctx context.Context, rec *domain.ContactRecord) error

	mu       sync.Mutex
	notified []string
	forwards []string
}

func (m *contactSideChannelMock) ContactReceived(ctx context.Context, rec *domain.ContactRecord) error {
	m.mu.Lock()
	m.notified = append(m.notified, rec.ID)
	m.mu.Unlock()
	if m.ContactReceivedFunc == nil {
		return nil
	}
	return m.ContactReceivedFunc(ctx, rec)
}

func (m *contactSideChannelMock) ForwardContact(ctx context.Context, rec *domain.ContactRecord) error {
	m.mu.Lock()
	m.forwards = append(m.forwards, rec.ID)
	m.mu.Unlock()
	if m.ForwardContactFunc == nil {
		return nil
	}
	return m.ForwardContactFunc(ctx, rec)
}

func (m *contactSideChannelMock) NotifyCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.notified)
}

func (m *contactSideChannelMock) ForwardCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.forwards)
}
