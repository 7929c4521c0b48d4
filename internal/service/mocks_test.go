package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"loadboard/internal/authstate"
	"loadboard/internal/model"
	"loadboard/internal/repository"
)

// MockUserRepository is an in-memory UserRepository.
type MockUserRepository struct {
	mu    sync.Mutex
	users map[string]*model.User

	CreateCallCount int
	UpdateCallCount int
	FindError       error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: map[string]*model.User{}}
}

func (m *MockUserRepository) AddUser(u *model.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCallCount++
	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return &repository.StoreError{Op: "create user", Err: repository.ErrDuplicate}
		}
	}
	user.CreatedAt = time.Now()
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FindError != nil {
		return nil, m.FindError
	}
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, &repository.StoreError{Op: "find user by email", Err: repository.ErrNotFound}
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FindError != nil {
		return nil, m.FindError
	}
	u, ok := m.users[id]
	if !ok {
		return nil, &repository.StoreError{Op: "find user by id", Err: repository.ErrNotFound}
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserRepository) Update(ctx context.Context, id string, patch model.UserPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCallCount++
	u, ok := m.users[id]
	if !ok {
		return &repository.StoreError{Op: "update user", Err: repository.ErrNotFound}
	}
	if patch.Address != nil {
		u.Address = patch.Address
	}
	if patch.PasswordHash != nil {
		u.PasswordHash = *patch.PasswordHash
	}
	now := time.Now()
	u.UpdatedAt = &now
	return nil
}

// MockLoadRepository is an in-memory LoadRepository.
type MockLoadRepository struct {
	mu     sync.Mutex
	loads  map[string]*model.Load
	nextID int

	CreateCallCount int
	DeleteCallCount int
	ListError       error
}

func NewMockLoadRepository() *MockLoadRepository {
	return &MockLoadRepository{loads: map[string]*model.Load{}}
}

func (m *MockLoadRepository) AddLoad(l *model.Load) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads[l.ID] = l
}

func (m *MockLoadRepository) Create(ctx context.Context, f model.LoadFields) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCallCount++
	m.nextID++
	id := fmt.Sprintf("load-%d", m.nextID)
	now := time.Now()
	m.loads[id] = &model.Load{
		ID:                  id,
		CurrentLocation:     f.CurrentLocation,
		DestinationLocation: f.DestinationLocation,
		Weight:              f.Weight,
		Dimensions:          f.Dimensions,
		ContactDetails:      f.ContactDetails,
		CreatedAt:           now,
		UpdatedAt:           &now,
	}
	return id, nil
}

func (m *MockLoadRepository) FindByID(ctx context.Context, id string) (*model.Load, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.loads[id]
	if !ok {
		return nil, &repository.StoreError{Op: "find load", Err: repository.ErrNotFound}
	}
	cp := *l
	return &cp, nil
}

func (m *MockLoadRepository) FindAll(ctx context.Context) ([]model.Load, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListError != nil {
		return nil, m.ListError
	}
	var out []model.Load
	for _, l := range m.loads {
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockLoadRepository) Update(ctx context.Context, id string, p model.LoadPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.loads[id]
	if !ok {
		return &repository.StoreError{Op: "update load", Err: repository.ErrNotFound}
	}
	if p.CurrentLocation != nil {
		l.CurrentLocation = *p.CurrentLocation
	}
	if p.DestinationLocation != nil {
		l.DestinationLocation = *p.DestinationLocation
	}
	if p.Weight != nil {
		l.Weight = *p.Weight
	}
	if p.Length != nil {
		l.Dimensions.Length = *p.Length
	}
	if p.Phone != nil {
		l.ContactDetails.Phone = *p.Phone
	}
	if p.Email != nil {
		l.ContactDetails.Email = *p.Email
	}
	now := time.Now()
	l.UpdatedAt = &now
	return nil
}

func (m *MockLoadRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCallCount++
	if _, ok := m.loads[id]; !ok {
		return &repository.StoreError{Op: "delete load", Err: repository.ErrNotFound}
	}
	delete(m.loads, id)
	return nil
}

// MockAuthStateStream records published events and fans them out to
// in-process subscribers.
type MockAuthStateStream struct {
	mu          sync.Mutex
	Published   []PublishedState
	subscribers map[string][]authstate.Listener
}

type PublishedState struct {
	UID      string
	Identity *model.Identity
}

func NewMockAuthStateStream() *MockAuthStateStream {
	return &MockAuthStateStream{subscribers: map[string][]authstate.Listener{}}
}

func (m *MockAuthStateStream) Publish(ctx context.Context, uid string, identity *model.Identity) error {
	m.mu.Lock()
	m.Published = append(m.Published, PublishedState{UID: uid, Identity: identity})
	subs := append([]authstate.Listener(nil), m.subscribers[uid]...)
	m.mu.Unlock()
	for _, fn := range subs {
		fn(identity)
	}
	return nil
}

func (m *MockAuthStateStream) Subscribe(ctx context.Context, uid string, fn authstate.Listener) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers[uid] = append(m.subscribers[uid], fn)
	idx := len(m.subscribers[uid]) - 1
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.subscribers[uid][idx] = func(*model.Identity) {}
	}, nil
}

// MockTokenRevoker is an in-memory TokenRevoker.
type MockTokenRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
}

func NewMockTokenRevoker() *MockTokenRevoker {
	return &MockTokenRevoker{revoked: map[string]time.Duration{}}
}

func (m *MockTokenRevoker) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[tokenID] = ttl
	return nil
}

func (m *MockTokenRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.revoked[tokenID]
	return ok, nil
}

// MockGeocoder resolves every address to the same point.
type MockGeocoder struct{}

func (MockGeocoder) Resolve(ctx context.Context, address string) (*model.ResolvedLocation, error) {
	return &model.ResolvedLocation{Latitude: 1, Longitude: 2, FormattedAddress: address}, nil
}
