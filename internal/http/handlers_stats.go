package http

import (
	"net/http"
	"time"

	"tempo/internal/core"
)

type statsView struct {
	Date           string              `json:"date"`
	TotalHours     float64             `json:"totalHours"`
	TotalFormatted string              `json:"totalFormatted"`
	WorkingDays    int                 `json:"workingDays"`
	DailyAverage   float64             `json:"dailyAverage"`
	Productivity   int                 `json:"productivity"`
	Streak         int                 `json:"streak"`
	Weekly         []core.WeekdayHours `json:"weekly"`
	Warnings       []string            `json:"warnings,omitempty"`
}

// handleStats computes the trailing-week dashboard figures. The reference
// day defaults to now and can be pinned with ?date=YYYY-MM-DD.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	today := s.now()
	if v := r.URL.Query().Get("date"); v != "" {
		parsed, err := time.ParseInLocation(core.DayKeyFormat, v, today.Location())
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		// Anchor at end of day so the whole reference day counts.
		today = parsed.AddDate(0, 0, 1).Add(-time.Second)
	}

	// Streak needs the full 30-day window, so fetch without a range filter
	// and let the aggregations narrow as needed.
	sessions, err := s.sessions.ListWorkSessions(r.Context(), core.Filter{})
	if err != nil {
		s.storeError(w, r, "List work sessions failed", err)
		return
	}

	weekFrom := today.AddDate(0, 0, -7)
	groups := core.GroupByDay(sessions, core.Filter{From: &weekFrom, To: &today})

	total := groups.TotalHoursAll()
	average := core.DailyAverage(total, groups.WorkingDays())
	view := statsView{
		Date:           today.Format(core.DayKeyFormat),
		TotalHours:     core.Round2(total),
		TotalFormatted: core.FormatDuration(total),
		WorkingDays:    groups.WorkingDays(),
		DailyAverage:   core.Round2(average),
		Productivity:   core.ProductivityScore(average, core.TargetHoursPerDay),
		Streak:         core.Streak(sessions, today),
		Weekly:         core.WeeklyOverview(sessions, today),
	}
	for _, fault := range groups.Faults() {
		view.Warnings = append(view.Warnings, fault.Error())
	}

	writeJSON(w, http.StatusOK, view)
}
