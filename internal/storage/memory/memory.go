// Package memory provides an in-process Store used by the memory backend and
// by service-level tests. It mirrors the SQLite repository's semantics,
// including the unique message id constraint.
package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"expensed/internal/core"
)

type Store struct {
	mu     sync.Mutex
	users  map[string]core.User
	items  []core.Expense
	nextID int64
}

func New() *Store {
	return &Store{users: make(map[string]core.User), nextID: 1}
}

// NewFromFiles seeds users from a newline-delimited seed file under base.
// Blank lines and # comments are skipped.
func NewFromFiles(base string) *Store {
	s := New()
	ids := readLines(filepath.Join(base, "seed_users.txt"))
	if len(ids) == 0 {
		ids = []string{"demo"}
	}
	for _, id := range ids {
		s.AddUser(id)
	}
	return s
}

// AddUser registers an external user id. Adding an existing id is a no-op.
func (s *Store) AddUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; ok {
		return
	}
	s.users[userID] = core.User{
		ID:        int64(len(s.users) + 1),
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
}

func (s *Store) GetUser(_ context.Context, userID string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return core.User{}, fmt.Errorf("user %q: %w", userID, core.ErrNotFound)
	}
	return user, nil
}

func (s *Store) ListExpenses(_ context.Context, userID string, window *core.TimeWindow) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Expense
	for _, e := range s.items {
		if e.UserID != userID {
			continue
		}
		if window != nil && !window.Contains(e.Date) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[j].Date.Before(out[i].Date) })
	return out, nil
}

func (s *Store) CreateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.MessageID != "" {
		for _, existing := range s.items {
			if existing.MessageID == e.MessageID {
				return core.Expense{}, fmt.Errorf("message id %q already in use", e.MessageID)
			}
		}
	}
	e.ID = s.nextID
	s.nextID++
	s.items = append(s.items, e)
	return e, nil
}

func (s *Store) FindByMessageID(_ context.Context, messageID string) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.items {
		if e.MessageID != "" && e.MessageID == messageID {
			return e, nil
		}
	}
	return core.Expense{}, fmt.Errorf("message id %q: %w", messageID, core.ErrNotFound)
}

func (s *Store) UpdateExpense(_ context.Context, e core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == e.ID {
			s.items[i] = e
			return nil
		}
	}
	return fmt.Errorf("expense %d: %w", e.ID, core.ErrNotFound)
}

func (s *Store) DeleteByMessageID(_ context.Context, messageID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kept []core.Expense
	var deleted int64
	for _, e := range s.items {
		if e.MessageID != "" && e.MessageID == messageID {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	s.items = kept
	return deleted, nil
}

func (s *Store) SumByCategory(ctx context.Context, userID string, window core.TimeWindow) ([]core.CategoryTotal, error) {
	expenses, err := s.ListExpenses(ctx, userID, &window)
	if err != nil {
		return nil, err
	}
	return core.AggregateByCategory(expenses), nil
}

func (s *Store) SumByPeriod(ctx context.Context, userID string, g core.Granularity) ([]core.PeriodTotal, error) {
	expenses, err := s.ListExpenses(ctx, userID, nil)
	if err != nil {
		return nil, err
	}
	return core.AggregateByPeriod(expenses, g), nil
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}
