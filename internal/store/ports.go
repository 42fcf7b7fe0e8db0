// Package store defines the outbound ports for the entry datastore and the
// error kinds adapters report. The core only reads through these interfaces;
// writes happen exclusively on explicit user action at the CRUD boundary.
package store

import (
	"context"
	"errors"

	"tempo/internal/core"
)

// Sentinel error kinds for adapter failures. Adapters wrap the underlying
// cause with errors.Join so both the kind and the driver error survive.
var (
	// ErrUnavailable means the datastore could not be reached at all.
	// Callers surface it as a failure of the whole operation, never a
	// partial result.
	ErrUnavailable = errors.New("store unavailable")

	// ErrQuery means the datastore rejected or failed a query.
	ErrQuery = errors.New("store query failed")

	// ErrNotFound means the referenced record does not exist.
	ErrNotFound = errors.New("record not found")
)

type (
	// SessionStore persists and lists work sessions. List results are
	// ordered newest-created first; the aggregation engine relies only on
	// that order being stable, not on any particular sort.
	SessionStore interface {
		CreateWorkSession(ctx context.Context, s core.WorkSession) (core.WorkSession, error)
		ListWorkSessions(ctx context.Context, f core.Filter) ([]core.WorkSession, error)
		UpdateWorkSession(ctx context.Context, s core.WorkSession) (core.WorkSession, error)
		DeleteWorkSession(ctx context.Context, id int64) error
	}

	// ExpenseStore persists and lists expense records, newest-dated first.
	ExpenseStore interface {
		CreateExpense(ctx context.Context, e core.ExpenseRecord) (core.ExpenseRecord, error)
		ListExpenses(ctx context.Context, f core.Filter) ([]core.ExpenseRecord, error)
		UpdateExpense(ctx context.Context, e core.ExpenseRecord) (core.ExpenseRecord, error)
		DeleteExpense(ctx context.Context, id int64) error
	}
)
