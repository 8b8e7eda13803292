// Package testutil holds in-memory fakes shared by package tests.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"learning_webapp/internal/domain"
	"learning_webapp/internal/repository"
)

// MemStore is an in-memory user store with the same error contract as
// repository.UserRepository.
type MemStore struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]domain.User

	// Err, when set, is returned by every call.
	Err error
	// ConflictOnCreate makes the next Create insert the row and report
	// ErrUserExists, simulating a concurrent first launch.
	ConflictOnCreate bool

	Creates int
}

func NewMemStore() *MemStore {
	return &MemStore{users: make(map[int64]domain.User)}
}

func (m *MemStore) Put(u domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	if u.ID == 0 {
		u.ID = m.nextID
	}
	m.users[u.TelegramID] = u
}

func (m *MemStore) FindByTelegramID(_ context.Context, telegramID int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	u, ok := m.users[telegramID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

func (m *MemStore) Create(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Creates++
	if _, ok := m.users[u.TelegramID]; ok {
		return repository.ErrUserExists
	}

	m.nextID++
	u.ID = m.nextID
	u.Name = domain.DefaultName
	u.Town = domain.DefaultTown
	u.Energy = domain.DefaultEnergy
	u.CertificatePrice = domain.DefaultCertificatePrice
	u.CreatedAt = time.Now().UTC()
	u.IsActive = true
	m.users[u.TelegramID] = *u

	if m.ConflictOnCreate {
		m.ConflictOnCreate = false
		return repository.ErrUserExists
	}
	return nil
}

func (m *MemStore) Update(_ context.Context, telegramID int64, p domain.UserPatch) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	u, ok := m.users[telegramID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Town != nil {
		u.Town = *p.Town
	}
	if p.Premium != nil {
		u.Premium = *p.Premium
	}
	if p.ProgressStep != nil {
		u.ProgressStep = *p.ProgressStep
	}
	if p.Lesson != nil {
		u.Lesson = *p.Lesson
	}
	if p.PreferredLessonTime != nil {
		slot := *p.PreferredLessonTime
		u.PreferredLessonTime = &slot
	}
	if p.Energy != nil {
		u.Energy = *p.Energy
	}
	if p.TZOffset != nil {
		u.TZOffset = *p.TZOffset
	}
	m.users[telegramID] = u
	return &u, nil
}

func (m *MemStore) List(_ context.Context, offset, limit int) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	all := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	if offset >= len(all) {
		return []domain.User{}, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (m *MemStore) Ping(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Err
}

// MemCache records cache traffic for assertions.
type MemCache struct {
	mu      sync.Mutex
	entries map[int64]domain.User
	Hits    int
	Deletes int
}

func NewMemCache() *MemCache {
	return &MemCache{entries: make(map[int64]domain.User)}
}

func (c *MemCache) Get(_ context.Context, telegramID int64) (*domain.User, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	u, ok := c.entries[telegramID]
	if ok {
		c.Hits++
	}
	return &u, ok
}

func (c *MemCache) Set(_ context.Context, u *domain.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[u.TelegramID] = *u
}

func (c *MemCache) Delete(_ context.Context, telegramID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Deletes++
	delete(c.entries, telegramID)
}
