package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type resetCode struct {
	code      string
	verified  bool
	expiresAt time.Time
}

type memoryStore struct {
	mu         sync.RWMutex
	users      []*User
	resets     map[string]*resetCode
	categories []Category
	tours      map[string]*Tour
}

// NewMemory returns a Store that lives for the process
func NewMemory() Store {
	return &memoryStore{
		resets: make(map[string]*resetCode),
		tours:  make(map[string]*Tour),
	}
}

func (s *memoryStore) CreateUser(ctx context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == u.Username {
			return ErrDuplicateUsername
		}
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrDuplicateEmail
		}
	}

	u.ID = uuid.New().String()
	u.CreatedAt = time.Now().UTC()
	clone := *u
	s.users = append(s.users, &clone)
	return nil
}

func (s *memoryStore) UserByUsername(ctx context.Context, username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memoryStore) UserByEmail(ctx context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memoryStore) UpdatePassword(ctx context.Context, email, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			u.PasswordHash = hash
			return nil
		}
	}
	return ErrNotFound
}

func (s *memoryStore) SaveResetCode(ctx context.Context, email, code string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resets[strings.ToLower(email)] = &resetCode{code: code, expiresAt: expiresAt}
	return nil
}

func (s *memoryStore) VerifyResetCode(ctx context.Context, email, code string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.resets[strings.ToLower(email)]
	if !ok || r.verified || r.code != code || !now.Before(r.expiresAt) {
		return ErrInvalidCode
	}
	r.verified = true
	r.code = ""
	return nil
}

func (s *memoryStore) ConsumeVerification(ctx context.Context, email string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(email)
	r, ok := s.resets[key]
	if !ok || !r.verified || !now.Before(r.expiresAt) {
		return ErrNotVerified
	}
	delete(s.resets, key)
	return nil
}

func (s *memoryStore) ListCategories(ctx context.Context) ([]Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Category, len(s.categories))
	copy(out, s.categories)
	return out, nil
}

func (s *memoryStore) CreateCategory(ctx context.Context, name string) (*Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := Category{ID: uuid.New().String(), Name: name}
	s.categories = append(s.categories, c)
	return &c, nil
}

func (s *memoryStore) DeleteCategory(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, c := range s.categories {
		if c.Name == name {
			s.categories = append(s.categories[:i], s.categories[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *memoryStore) CategoryExists(ctx context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.categories {
		if c.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryStore) CreateTour(ctx context.Context, t *Tour) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t.ID = uuid.New().String()
	t.CreatedAt = time.Now().UTC()
	clone := *t
	clone.Amenities = append([]string(nil), t.Amenities...)
	clone.Surroundings = append([]Surrounding(nil), t.Surroundings...)
	s.tours[t.ID] = &clone
	return nil
}

func (s *memoryStore) TourByID(ctx context.Context, id string) (*Tour, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tours[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *t
	return &clone, nil
}

func (s *memoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *memoryStore) Close() {}
