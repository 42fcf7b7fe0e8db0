// Package memory provides an in-memory store backend used for local
// development (DATA_BACKEND=memory) and as a test double.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"tempo/internal/core"
	"tempo/internal/store"
)

// Store holds sessions and expenses in memory behind a mutex. IDs are
// assigned sequentially; CreatedAt is stamped with the injected clock so
// tests can pin it.
type Store struct {
	mu       sync.Mutex
	now      func() time.Time
	nextID   int64
	sessions []core.WorkSession
	expenses []core.ExpenseRecord
}

// New returns an empty store using the wall clock.
func New() *Store {
	return &Store{now: time.Now, nextID: 1}
}

// NewWithClock returns an empty store stamping CreatedAt with now().
func NewWithClock(now func() time.Time) *Store {
	return &Store{now: now, nextID: 1}
}

// CreateWorkSession stores a session, assigning its ID and CreatedAt.
func (m *Store) CreateWorkSession(_ context.Context, s core.WorkSession) (core.WorkSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = m.nextID
	m.nextID++
	if s.CreatedAt.IsZero() {
		s.CreatedAt = m.now()
	}
	m.sessions = append(m.sessions, s)
	return s, nil
}

// ListWorkSessions returns filtered sessions, newest-created first.
func (m *Store) ListWorkSessions(_ context.Context, f core.Filter) ([]core.WorkSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.WorkSession
	for _, s := range m.sessions {
		if f.Matches(s) {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// UpdateWorkSession replaces the stored session with the same ID, keeping
// the original CreatedAt.
func (m *Store) UpdateWorkSession(_ context.Context, s core.WorkSession) (core.WorkSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.sessions {
		if m.sessions[i].ID == s.ID {
			s.CreatedAt = m.sessions[i].CreatedAt
			m.sessions[i] = s
			return s, nil
		}
	}
	return core.WorkSession{}, store.ErrNotFound
}

// DeleteWorkSession removes the session with the given ID.
func (m *Store) DeleteWorkSession(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.sessions {
		if m.sessions[i].ID == id {
			m.sessions = append(m.sessions[:i], m.sessions[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

// CreateExpense stores an expense record, assigning its ID.
func (m *Store) CreateExpense(_ context.Context, e core.ExpenseRecord) (core.ExpenseRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = m.nextID
	m.nextID++
	m.expenses = append(m.expenses, e)
	return e, nil
}

// ListExpenses returns filtered expenses, newest-dated first.
func (m *Store) ListExpenses(_ context.Context, f core.Filter) ([]core.ExpenseRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.ExpenseRecord
	for _, e := range m.expenses {
		if f.Company != "" && e.Company != f.Company {
			continue
		}
		if f.From != nil && e.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && e.Date.After(*f.To) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

// UpdateExpense replaces the stored expense with the same ID.
func (m *Store) UpdateExpense(_ context.Context, e core.ExpenseRecord) (core.ExpenseRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.expenses {
		if m.expenses[i].ID == e.ID {
			m.expenses[i] = e
			return e, nil
		}
	}
	return core.ExpenseRecord{}, store.ErrNotFound
}

// DeleteExpense removes the expense with the given ID.
func (m *Store) DeleteExpense(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.expenses {
		if m.expenses[i].ID == id {
			m.expenses = append(m.expenses[:i], m.expenses[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}
