package http

import (
	"encoding/json"
	"net/http"
	"time"

	"tempo/internal/core"
	"tempo/internal/log"
)

type expenseRequest struct {
	ID          int64   `json:"id"`
	Company     string  `json:"company"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Subcategory string  `json:"subcategory"`
	Date        string  `json:"date"`
}

func (req expenseRequest) toExpense() (core.ExpenseRecord, error) {
	e := core.ExpenseRecord{
		ID:          req.ID,
		Company:     req.Company,
		Amount:      req.Amount,
		Description: req.Description,
		Category:    req.Category,
		Subcategory: req.Subcategory,
	}
	if req.Date != "" {
		date, err := time.Parse(core.DayKeyFormat, req.Date)
		if err != nil {
			return core.ExpenseRecord{}, core.ValidationError{Field: "date", Reason: "expected YYYY-MM-DD"}
		}
		e.Date = date
	}
	return e, nil
}

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listExpenses(w, r)
	case http.MethodPost:
		s.createExpense(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) listExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.expenses.ListExpenses(r.Context(), core.Filter{
		Company: r.URL.Query().Get("company"),
	})
	if err != nil {
		s.storeError(w, r, "List expenses failed", err)
		return
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (s *Server) createExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	expense, err := req.toExpense()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := expense.Validate(s.companies); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.expenses.CreateExpense(r.Context(), expense)
	if err != nil {
		s.storeError(w, r, "Create expense failed", err)
		return
	}
	s.logger.InfoContext(r.Context(), "Expense created",
		log.FieldExpenseID, created.ID,
		log.FieldCompany, created.Company,
		log.FieldAmount, created.Amount)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleExpenseByID(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(r.URL.Path, "/api/expenses/")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid expense id")
		return
	}

	switch r.Method {
	case http.MethodPut:
		var req expenseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		expense, err := req.toExpense()
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		expense.ID = id
		if err := expense.Validate(s.companies); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		updated, err := s.expenses.UpdateExpense(r.Context(), expense)
		if err != nil {
			s.storeError(w, r, "Update expense failed", err)
			return
		}
		writeJSON(w, http.StatusOK, updated)

	case http.MethodDelete:
		if err := s.expenses.DeleteExpense(r.Context(), id); err != nil {
			s.storeError(w, r, "Delete expense failed", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"id": id})

	default:
		w.Header().Set("Allow", "PUT, DELETE")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}
