package http

import (
	"errors"
	"net/http"
	"strconv"

	"tempo/internal/core"
	"tempo/internal/report"
)

// handleReportDownload streams the combined workbook as an attachment.
// Generation happens fully in memory, so a failure yields a clean 500
// instead of a truncated document.
func (s *Server) handleReportDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	data, err := s.reports.GenerateCombined(r.Context())
	if err != nil {
		if errors.Is(err, report.ErrGeneration) {
			s.logger.ErrorContext(r.Context(), "Report generation failed", "error", err)
			writeError(w, http.StatusInternalServerError, "report generation failed")
			return
		}
		s.storeError(w, r, "Report data load failed", err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

type earningsDay struct {
	Date     string  `json:"date"`
	Hours    float64 `json:"hours"`
	Earnings float64 `json:"earnings"`
}

type summaryView struct {
	Range         string        `json:"range"`
	TotalHours    float64       `json:"totalHours"`
	TotalEarnings float64       `json:"totalEarnings"`
	Days          []earningsDay `json:"days"`
	Warnings      []string      `json:"warnings,omitempty"`
}

// handleReportSummary computes earnings over the filtered day groups.
// A company plus one of hourly_rate, contract_amount or monthly_salary
// applies a transient rate override for this view only.
func (s *Server) handleReportSummary(w http.ResponseWriter, r *http.Request) {
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

	rates, overridden, err := s.overriddenRates(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	// With a rate override the company parameter names the override target,
	// not a session filter: all companies stay in the summary and only the
	// named one is re-rated.
	if overridden {
		filter.Company = ""
	}

	sessions, err := s.sessions.ListWorkSessions(r.Context(), filter)
	if err != nil {
		s.storeError(w, r, "List work sessions failed", err)
		return
	}

	groups := core.GroupByDay(sessions, filter)
	view := summaryView{
		Range:      rangeName,
		TotalHours: core.Round2(groups.TotalHoursAll()),
		Days:       make([]earningsDay, 0, len(groups.Days())),
	}
	var total float64
	for _, day := range groups.Days() {
		earnings := rates.TotalEarnings(groups.Sessions(day))
		total += earnings
		view.Days = append(view.Days, earningsDay{
			Date:     day,
			Hours:    core.Round2(groups.TotalHours(day)),
			Earnings: core.Round2(earnings),
		})
	}
	view.TotalEarnings = core.Round2(total)
	for _, fault := range groups.Faults() {
		view.Warnings = append(view.Warnings, fault.Error())
	}

	writeJSON(w, http.StatusOK, view)
}

var rateParams = []struct {
	name string
	unit core.RateUnit
}{
	{"hourly_rate", core.UnitHourly},
	{"contract_amount", core.UnitContractTotal},
	{"monthly_salary", core.UnitMonthlySalary},
}

// overriddenRates applies at most one rate override from the query string
// and reports whether one was given. A request naming two override units is
// ambiguous and rejected rather than resolved by parameter order.
func (s *Server) overriddenRates(r *http.Request) (core.RateTable, bool, error) {
	rates := s.rates
	company := r.URL.Query().Get("company")

	var given string
	for _, p := range rateParams {
		v := r.URL.Query().Get(p.name)
		if v == "" {
			continue
		}
		if given != "" {
			return core.RateTable{}, false, core.ValidationError{
				Field: p.name, Reason: "only one rate override may be given, already have " + given,
			}
		}
		given = p.name

		if company == "" {
			return core.RateTable{}, false, core.ValidationError{Field: "company", Reason: "required with a rate override"}
		}
		amount, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return core.RateTable{}, false, core.ValidationError{Field: p.name, Reason: "must be a number"}
		}
		hourly, err := core.HourlyFrom(p.unit, amount)
		if err != nil {
			return core.RateTable{}, false, err
		}
		rates = rates.WithOverride(company, hourly)
	}
	return rates, given != "", nil
}
