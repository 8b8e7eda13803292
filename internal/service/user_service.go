package service

import (
	"context"
	"errors"
	"fmt"

	"learning_webapp/internal/domain"
	"learning_webapp/internal/logger"
	"learning_webapp/internal/repository"
	"learning_webapp/internal/telegram"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 100
)

// ErrForbidden means the verified caller may not touch the requested profile.
var ErrForbidden = errors.New("access denied")

// UserStore is the persistence the service needs; *repository.UserRepository
// implements it.
type UserStore interface {
	FindByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, telegramID int64, patch domain.UserPatch) (*domain.User, error)
	List(ctx context.Context, offset, limit int) ([]domain.User, error)
	Ping(ctx context.Context) error
}

// ProfileCache is satisfied by *cache.UserCache.
type ProfileCache interface {
	Get(ctx context.Context, telegramID int64) (*domain.User, bool)
	Set(ctx context.Context, u *domain.User)
	Delete(ctx context.Context, telegramID int64)
}

type UserService struct {
	store  UserStore
	cache  ProfileCache
	admins map[int64]struct{}
}

func NewUserService(store UserStore, cache ProfileCache, adminIDs []int64) *UserService {
	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &UserService{store: store, cache: cache, admins: admins}
}

// GetOrCreate returns the caller's profile, creating it on first launch.
// The boolean reports whether a new row was inserted.
func (s *UserService) GetOrCreate(ctx context.Context, caller telegram.Identity, telegramID int64, username *string) (*domain.User, bool, error) {
	if caller.ID != telegramID {
		return nil, false, ErrForbidden
	}

	existing, err := s.store.FindByTelegramID(ctx, telegramID)
	if err == nil {
		s.cache.Set(ctx, existing)
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, false, fmt.Errorf("find user: %w", err)
	}

	u := &domain.User{
		TelegramID: telegramID,
		Username:   username,
		Premium:    caller.IsPremium,
	}
	if u.Username == nil && caller.Username != "" {
		name := caller.Username
		u.Username = &name
	}

	if err := s.store.Create(ctx, u); err != nil {
		if !errors.Is(err, repository.ErrUserExists) {
			return nil, false, fmt.Errorf("create user: %w", err)
		}
		// lost a race with a concurrent first launch
		existing, err := s.store.FindByTelegramID(ctx, telegramID)
		if err != nil {
			return nil, false, fmt.Errorf("find user after conflict: %w", err)
		}
		s.cache.Set(ctx, existing)
		return existing, false, nil
	}

	logger.Info("user created", "telegram_id", u.TelegramID, "name", u.Name)
	s.cache.Set(ctx, u)
	return u, true, nil
}

// Get returns the caller's own profile.
func (s *UserService) Get(ctx context.Context, caller telegram.Identity, telegramID int64) (*domain.User, error) {
	if caller.ID != telegramID {
		return nil, ErrForbidden
	}
	if u, ok := s.cache.Get(ctx, telegramID); ok {
		return u, nil
	}
	u, err := s.store.FindByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, u)
	return u, nil
}

// Update applies patch to the caller's own profile.
func (s *UserService) Update(ctx context.Context, caller telegram.Identity, telegramID int64, patch domain.UserPatch) (*domain.User, error) {
	if caller.ID != telegramID {
		return nil, ErrForbidden
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	u, err := s.store.Update(ctx, telegramID, patch)
	if err != nil {
		return nil, err
	}
	s.cache.Delete(ctx, telegramID)

	logger.Info("user updated", "telegram_id", u.TelegramID, "name", u.Name)
	return u, nil
}

// List pages through all profiles. Only admins may call it.
func (s *UserService) List(ctx context.Context, caller telegram.Identity, skip, limit int) ([]domain.User, error) {
	if _, ok := s.admins[caller.ID]; !ok {
		return nil, ErrForbidden
	}
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return s.store.List(ctx, skip, limit)
}

// Ping reports whether storage is reachable.
func (s *UserService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
