// Package storage implements the store ports on SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"tempo/internal/core"
	"tempo/internal/store"

	_ "modernc.org/sqlite"
)

// SQLiteRepository implements store.SessionStore and store.ExpenseStore.
// Every read and write is bounded by the configured timeout so a stuck
// datastore cannot block a request indefinitely.
type SQLiteRepository struct {
	db      *sql.DB
	timeout time.Duration
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// applies migrations. timeout bounds each individual query.
func NewSQLiteRepository(dbPath string, timeout time.Duration) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", errors.Join(store.ErrUnavailable, err))
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", errors.Join(store.ErrUnavailable, err))
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &SQLiteRepository{db: db, timeout: timeout}, nil
}

// Close releases the underlying database handle.
func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

// classify wraps a driver error with the store error kind callers match on.
func classify(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, store.ErrNotFound)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, errors.Join(store.ErrUnavailable, err))
	}
	return fmt.Errorf("%s: %w", op, errors.Join(store.ErrQuery, err))
}

// CreateWorkSession inserts a session, stamping CreatedAt.
func (r *SQLiteRepository) CreateWorkSession(ctx context.Context, s core.WorkSession) (core.WorkSession, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	s.CreatedAt = time.Now()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO work_sessions (company, start_time, end_time, duration_hours, is_submitted, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		s.Company, s.StartTime.Format(time.RFC3339), nullableTime(s.EndTime),
		s.Duration, boolToInt(s.IsSubmitted), s.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return core.WorkSession{}, classify("create work session", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.WorkSession{}, classify("create work session", err)
	}
	s.ID = id

	slog.InfoContext(ctx, "Work session saved",
		"id", s.ID, "company", s.Company, "duration_hours", s.Duration)
	return s, nil
}

// ListWorkSessions returns filtered sessions ordered newest-created first.
func (r *SQLiteRepository) ListWorkSessions(ctx context.Context, f core.Filter) ([]core.WorkSession, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	query := `SELECT id, company, start_time, end_time, duration_hours, is_submitted, created_at
		  FROM work_sessions WHERE 1=1`
	var args []any
	if f.Company != "" {
		query += " AND company = ?"
		args = append(args, f.Company)
	}
	if f.From != nil {
		query += " AND created_at >= ?"
		args = append(args, f.From.Format(time.RFC3339))
	}
	if f.To != nil {
		query += " AND created_at <= ?"
		args = append(args, f.To.Format(time.RFC3339))
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("list work sessions", err)
	}
	defer rows.Close()

	var out []core.WorkSession
	for rows.Next() {
		var (
			s         core.WorkSession
			start     string
			end       sql.NullString
			submitted int64
			created   string
		)
		if err := rows.Scan(&s.ID, &s.Company, &start, &end, &s.Duration, &submitted, &created); err != nil {
			return nil, classify("scan work session", err)
		}
		if s.StartTime, err = time.Parse(time.RFC3339, start); err != nil {
			return nil, classify("parse start time", err)
		}
		if s.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
			return nil, classify("parse created at", err)
		}
		if end.Valid {
			t, err := time.Parse(time.RFC3339, end.String)
			if err != nil {
				return nil, classify("parse end time", err)
			}
			s.EndTime = &t
		}
		s.IsSubmitted = submitted != 0
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list work sessions", err)
	}
	return out, nil
}

// UpdateWorkSession rewrites the mutable fields of the session with the
// given ID. CreatedAt is never touched.
func (r *SQLiteRepository) UpdateWorkSession(ctx context.Context, s core.WorkSession) (core.WorkSession, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx,
		`UPDATE work_sessions SET company = ?, start_time = ?, end_time = ?, duration_hours = ?, is_submitted = ?
		 WHERE id = ?`,
		s.Company, s.StartTime.Format(time.RFC3339), nullableTime(s.EndTime),
		s.Duration, boolToInt(s.IsSubmitted), s.ID)
	if err != nil {
		return core.WorkSession{}, classify("update work session", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.WorkSession{}, fmt.Errorf("update work session %d: %w", s.ID, store.ErrNotFound)
	}

	var created string
	if err := r.db.QueryRowContext(ctx, `SELECT created_at FROM work_sessions WHERE id = ?`, s.ID).Scan(&created); err != nil {
		return core.WorkSession{}, classify("reload work session", err)
	}
	if s.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
		return core.WorkSession{}, classify("parse created at", err)
	}
	return s, nil
}

// DeleteWorkSession removes the session with the given ID.
func (r *SQLiteRepository) DeleteWorkSession(ctx context.Context, id int64) error {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM work_sessions WHERE id = ?`, id)
	if err != nil {
		return classify("delete work session", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete work session %d: %w", id, store.ErrNotFound)
	}
	return nil
}

// CreateExpense inserts an expense record.
func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.ExpenseRecord) (core.ExpenseRecord, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (company, amount, description, category, subcategory, expense_date)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.Company, e.Amount, e.Description, e.Category, e.Subcategory, e.Date.Format(core.DayKeyFormat))
	if err != nil {
		return core.ExpenseRecord{}, classify("create expense", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.ExpenseRecord{}, classify("create expense", err)
	}
	e.ID = id

	slog.InfoContext(ctx, "Expense saved",
		"id", e.ID, "company", e.Company, "amount", e.Amount)
	return e, nil
}

// ListExpenses returns filtered expenses ordered newest-dated first.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, f core.Filter) ([]core.ExpenseRecord, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	query := `SELECT id, company, amount, description, category, subcategory, expense_date
		  FROM expenses WHERE 1=1`
	var args []any
	if f.Company != "" {
		query += " AND company = ?"
		args = append(args, f.Company)
	}
	if f.From != nil {
		query += " AND expense_date >= ?"
		args = append(args, f.From.Format(core.DayKeyFormat))
	}
	if f.To != nil {
		query += " AND expense_date <= ?"
		args = append(args, f.To.Format(core.DayKeyFormat))
	}
	query += " ORDER BY expense_date DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("list expenses", err)
	}
	defer rows.Close()

	var out []core.ExpenseRecord
	for rows.Next() {
		var (
			e    core.ExpenseRecord
			date string
		)
		if err := rows.Scan(&e.ID, &e.Company, &e.Amount, &e.Description, &e.Category, &e.Subcategory, &date); err != nil {
			return nil, classify("scan expense", err)
		}
		if e.Date, err = time.Parse(core.DayKeyFormat, date); err != nil {
			return nil, classify("parse expense date", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list expenses", err)
	}
	return out, nil
}

// UpdateExpense rewrites the expense with the given ID.
func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e core.ExpenseRecord) (core.ExpenseRecord, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET company = ?, amount = ?, description = ?, category = ?, subcategory = ?, expense_date = ?
		 WHERE id = ?`,
		e.Company, e.Amount, e.Description, e.Category, e.Subcategory, e.Date.Format(core.DayKeyFormat), e.ID)
	if err != nil {
		return core.ExpenseRecord{}, classify("update expense", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ExpenseRecord{}, fmt.Errorf("update expense %d: %w", e.ID, store.ErrNotFound)
	}
	return e, nil
}

// DeleteExpense removes the expense with the given ID.
func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id int64) error {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return classify("delete expense", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete expense %d: %w", id, store.ErrNotFound)
	}
	return nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
