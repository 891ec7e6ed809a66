package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/geocoder89/fintrack/internal/domain/category"
	"github.com/geocoder89/fintrack/internal/domain/transaction"
	"github.com/geocoder89/fintrack/internal/domain/user"
)

// Store keeps users, categories and transactions in process memory with the same
// semantics as the postgres repos. A single lock makes every check-then-act atomic.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	users        map[int64]user.User
	categories   map[int64]category.Category
	transactions map[int64]transaction.Transaction

	nextUserID        int64
	nextCategoryID    int64
	nextTransactionID int64
}

func NewStore() *Store {
	return &Store{
		now:          time.Now,
		users:        make(map[int64]user.User),
		categories:   make(map[int64]category.Category),
		transactions: make(map[int64]transaction.Transaction),
	}
}

// users

func (s *Store) CreateUser(_ context.Context, name, email, passwordHash string) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return user.User{}, user.ErrEmailTaken
		}
	}

	s.nextUserID++
	u := user.User{
		ID:           s.nextUserID,
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    s.now().UTC(),
	}
	s.users[u.ID] = u

	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}

	return user.User{}, user.ErrNotFound
}

func (s *Store) GetUserByID(_ context.Context, id int64) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return u, nil
}

// categories

func (s *Store) CreateCategory(_ context.Context, name string) (category.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextCategoryID++
	c := category.Category{ID: s.nextCategoryID, Name: name}
	s.categories[c.ID] = c

	return c, nil
}

func (s *Store) ListCategories(_ context.Context) ([]category.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]category.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (s *Store) GetCategoryByID(_ context.Context, id int64) (category.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.categories[id]
	if !ok {
		return category.Category{}, category.ErrNotFound
	}

	return c, nil
}

// transactions

func (s *Store) CreateTransaction(_ context.Context, t transaction.Transaction) (transaction.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[t.CategoryID]; !ok {
		return transaction.Transaction{}, transaction.ErrInvalidCategory
	}

	s.nextTransactionID++
	t.ID = s.nextTransactionID
	t.Category = nil
	s.transactions[t.ID] = t

	return s.withCategory(t), nil
}

func (s *Store) ListTransactionsByUser(_ context.Context, userID int64) ([]transaction.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]transaction.Transaction, 0)
	for _, t := range s.transactions {
		if t.UserID == userID {
			out = append(out, s.withCategory(t))
		}
	}

	sortNewestFirst(out)

	return out, nil
}

func (s *Store) GetTransactionForUser(_ context.Context, userID, id int64) (transaction.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.transactions[id]
	if !ok || t.UserID != userID {
		return transaction.Transaction{}, transaction.ErrNotFound
	}

	return s.withCategory(t), nil
}

func (s *Store) UpdateTransaction(_ context.Context, userID, id int64, changes transaction.Changes) (transaction.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.transactions[id]
	if !ok {
		return transaction.Transaction{}, transaction.ErrNotFound
	}

	if t.UserID != userID {
		return transaction.Transaction{}, transaction.ErrForbidden
	}

	if _, ok := s.categories[changes.CategoryID]; !ok {
		return transaction.Transaction{}, transaction.ErrInvalidCategory
	}

	t = changes.Apply(t, s.now())
	s.transactions[id] = t

	return s.withCategory(t), nil
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.transactions[id]
	if !ok {
		return transaction.ErrNotFound
	}

	if t.UserID != userID {
		return transaction.ErrForbidden
	}

	delete(s.transactions, id)

	return nil
}

func (s *Store) ListInWindow(_ context.Context, userID int64, w transaction.Window) ([]transaction.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]transaction.Transaction, 0)
	for _, t := range s.transactions {
		if w.Matches(userID, t) {
			out = append(out, s.withCategory(t))
		}
	}

	sortNewestFirst(out)

	return out, nil
}

// DetachCategory simulates a dangling category reference; tests use it to exercise the
// uncategorized grouping.
func (s *Store) DetachCategory(categoryID int64) {
	s.mu.Lock()
	delete(s.categories, categoryID)
	s.mu.Unlock()
}

// Ping satisfies readiness checks.
func (s *Store) Ping(context.Context) error { return nil }

// caller holds s.mu
func (s *Store) withCategory(t transaction.Transaction) transaction.Transaction {
	if c, ok := s.categories[t.CategoryID]; ok {
		cc := c
		t.Category = &cc
	} else {
		t.Category = nil
	}
	return t
}

func sortNewestFirst(ts []transaction.Transaction) {
	sort.Slice(ts, func(i, j int) bool {
		if !ts[i].Date.Equal(ts[j].Date) {
			return ts[i].Date.After(ts[j].Date)
		}
		return ts[i].ID > ts[j].ID
	})
}
