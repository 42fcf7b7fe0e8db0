package http

import (
	"net/http"
	"time"

	"tempo/internal/core"
	"tempo/internal/log"
)

type sessionView struct {
	core.WorkSession
	DerivedEnd *time.Time `json:"derivedEnd,omitempty"`
}

type dayView struct {
	Date           string        `json:"date"`
	TotalHours     float64       `json:"totalHours"`
	TotalFormatted string        `json:"totalFormatted"`
	Intensity      int           `json:"intensity"`
	Sessions       []sessionView `json:"sessions"`
}

type historyView struct {
	Range      string    `json:"range"`
	Days       []dayView `json:"days"`
	TotalHours float64   `json:"totalHours"`
	Warnings   []string  `json:"warnings,omitempty"`
}

// handleHistory returns day-grouped sessions for the requested range.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rangeName, filter, ok := s.rangeFilter(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "range must be week, month or all")
		return
	}

	sessions, err := s.sessions.ListWorkSessions(r.Context(), filter)
	if err != nil {
		s.storeError(w, r, "List work sessions failed", err)
		return
	}

	groups := core.GroupByDay(sessions, filter)
	view := historyView{
		Range:      rangeName,
		TotalHours: core.Round2(groups.TotalHoursAll()),
		Days:       make([]dayView, 0, len(groups.Days())),
	}
	for _, day := range groups.Days() {
		bucket := groups.Sessions(day)
		views := make([]sessionView, 0, len(bucket))
		for _, session := range bucket {
			sv := sessionView{WorkSession: session}
			if session.EndTime == nil {
				if end, err := session.DerivedEnd(); err == nil {
					sv.DerivedEnd = &end
				}
			}
			views = append(views, sv)
		}
		total := groups.TotalHours(day)
		view.Days = append(view.Days, dayView{
			Date:           day,
			TotalHours:     core.Round2(total),
			TotalFormatted: core.FormatDuration(total),
			Intensity:      core.IntensityLevel(total),
			Sessions:       views,
		})
	}
	for _, fault := range groups.Faults() {
		view.Warnings = append(view.Warnings, fault.Error())
	}

	s.logger.DebugContext(r.Context(), "History computed",
		log.FieldRange, rangeName, "days", len(view.Days))
	writeJSON(w, http.StatusOK, view)
}

// rangeFilter maps ?range= onto a CreatedAt window anchored at the clock.
func (s *Server) rangeFilter(r *http.Request) (string, core.Filter, bool) {
	filter := core.Filter{Company: r.URL.Query().Get("company")}

	rangeName := r.URL.Query().Get("range")
	if rangeName == "" {
		rangeName = "all"
	}
	now := s.now()
	switch rangeName {
	case "week":
		from := now.AddDate(0, 0, -7)
		filter.From = &from
	case "month":
		from := now.AddDate(0, 0, -30)
		filter.From = &from
	case "all":
	default:
		return "", core.Filter{}, false
	}
	return rangeName, filter, true
}
