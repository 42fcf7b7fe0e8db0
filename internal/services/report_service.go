package services

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"tempo/internal/core"
	"tempo/internal/report"
	"tempo/internal/store"
)

// ReportService assembles the combined expenses and work-hours workbook.
type ReportService struct {
	sessions store.SessionStore
	expenses store.ExpenseStore
}

func NewReportService(sessions store.SessionStore, expenses store.ExpenseStore) *ReportService {
	return &ReportService{sessions: sessions, expenses: expenses}
}

// GenerateCombined fetches both record sets and renders the workbook.
// The two reads run concurrently; a failure in either aborts the report
// with the store error intact so the caller can distinguish outage from
// generation failure.
func (s *ReportService) GenerateCombined(ctx context.Context) ([]byte, error) {
	var (
		sessions []core.WorkSession
		expenses []core.ExpenseRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sessions, err = s.sessions.ListWorkSessions(gctx, core.Filter{})
		if err != nil {
			return fmt.Errorf("load work sessions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		expenses, err = s.expenses.ListExpenses(gctx, core.Filter{})
		if err != nil {
			return fmt.Errorf("load expenses: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	data, err := report.BuildCombined(expenses, sessions)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Generated combined report",
		"expenses", len(expenses), "sessions", len(sessions), "bytes", len(data))
	return data, nil
}
