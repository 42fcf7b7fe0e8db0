package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tempo/internal/auth"
	"tempo/internal/core"
	"tempo/internal/services"
	"tempo/internal/store/memory"
)

var testToday = time.Date(2024, 1, 10, 18, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, gate *auth.Gate) (*Server, func(time.Time)) {
	t.Helper()
	clock := testToday
	mem := memory.NewWithClock(func() time.Time { return clock })
	s := NewServer(Options{
		Addr:      ":0",
		Sessions:  mem,
		Expenses:  mem,
		Reports:   services.NewReportService(mem, mem),
		Gate:      gate,
		Companies: core.NewCompanySet([]string{"VedaAI", "CK", "BrandSurge"}),
		Rates:     core.NewRateTable(map[string]float64{"VedaAI": 45, "CK": 35, "BrandSurge": 40}, 35),
	})
	s.now = func() time.Time { return testToday }
	t.Cleanup(func() { s.rateLimiter.stop() })
	return s, func(tm time.Time) { clock = tm }
}

func doJSON(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestCreateAndListSessions(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := doJSON(t, s, http.MethodPost, "/api/timer",
		`{"company":"CK","startTime":"2024-01-10T09:00:00Z","duration":2.5}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	env := decodeEnvelope(t, rec)
	require.True(t, env.Success)

	rec = doJSON(t, s, http.MethodGet, "/api/timer", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var sessions []core.WorkSession
	env = decodeEnvelope(t, rec)
	raw, _ := json.Marshal(env.Data)
	require.NoError(t, json.Unmarshal(raw, &sessions))
	require.Len(t, sessions, 1)
	require.Equal(t, "CK", sessions[0].Company)
	require.Equal(t, 2.5, sessions[0].Duration)
}

func TestCreateSessionDerivesDuration(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := doJSON(t, s, http.MethodPost, "/api/timer",
		`{"company":"VedaAI","startTime":"2024-01-10T09:00:00Z","endTime":"2024-01-10T12:30:00Z"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created core.WorkSession
	env := decodeEnvelope(t, rec)
	raw, _ := json.Marshal(env.Data)
	require.NoError(t, json.Unmarshal(raw, &created))
	require.Equal(t, 3.5, created.Duration)
}

func TestCreateSessionValidation(t *testing.T) {
	s, _ := newTestServer(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{"unknown company", `{"company":"Acme","startTime":"2024-01-10T09:00:00Z","duration":1}`},
		{"missing start", `{"company":"CK","duration":1}`},
		{"zero duration", `{"company":"CK","startTime":"2024-01-10T09:00:00Z","duration":0}`},
		{"garbage body", `{not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, s, http.MethodPost, "/api/timer", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			env := decodeEnvelope(t, rec)
			require.False(t, env.Success)
			require.NotEmpty(t, env.Error)
		})
	}
}

func TestUpdateAndDeleteSession(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := doJSON(t, s, http.MethodPost, "/api/timer",
		`{"company":"CK","startTime":"2024-01-10T09:00:00Z","duration":2}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, s, http.MethodPut, "/api/timer/1",
		`{"company":"CK","startTime":"2024-01-10T09:00:00Z","duration":4,"isSubmitted":true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodDelete, "/api/timer/1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodDelete, "/api/timer/1", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, s, http.MethodDelete, "/api/timer/abc", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExpenseCRUD(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := doJSON(t, s, http.MethodPost, "/api/expenses",
		`{"company":"BrandSurge","amount":42.5,"description":"ads","category":"marketing","date":"2024-01-09"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/expenses",
		`{"company":"BrandSurge","amount":-1,"date":"2024-01-09"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/expenses?company=BrandSurge", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var expenses []core.ExpenseRecord
	env := decodeEnvelope(t, rec)
	raw, _ := json.Marshal(env.Data)
	require.NoError(t, json.Unmarshal(raw, &expenses))
	require.Len(t, expenses, 1)
	require.Equal(t, 42.5, expenses[0].Amount)
}

func TestHistoryGroupsByDay(t *testing.T) {
	s, setClock := newTestServer(t, nil)
	seedWeek(t, s, setClock)

	rec := doJSON(t, s, http.MethodGet, "/api/history?range=week", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var view historyView
	env := decodeEnvelope(t, rec)
	raw, _ := json.Marshal(env.Data)
	require.NoError(t, json.Unmarshal(raw, &view))

	require.Equal(t, "week", view.Range)
	require.Len(t, view.Days, 2)
	require.Equal(t, 7.0, view.TotalHours)

	byDate := map[string]dayView{}
	for _, d := range view.Days {
		byDate[d.Date] = d
	}
	require.Equal(t, 4.0, byDate["2024-01-08"].TotalHours)
	require.Equal(t, "04:00:00", byDate["2024-01-08"].TotalFormatted)
	require.Len(t, byDate["2024-01-08"].Sessions, 2)
	require.Equal(t, 3.0, byDate["2024-01-09"].TotalHours)
}

func TestHistoryRejectsBadRange(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := doJSON(t, s, http.MethodGet, "/api/history?range=year", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStats(t *testing.T) {
	s, setClock := newTestServer(t, nil)
	seedWeek(t, s, setClock)

	rec := doJSON(t, s, http.MethodGet, "/api/stats?date=2024-01-10", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var view statsView
	env := decodeEnvelope(t, rec)
	raw, _ := json.Marshal(env.Data)
	require.NoError(t, json.Unmarshal(raw, &view))

	require.Equal(t, "2024-01-10", view.Date)
	require.Equal(t, 7.0, view.TotalHours)
	require.Equal(t, 2, view.WorkingDays)
	require.Equal(t, 3.5, view.DailyAverage)
	require.Equal(t, 44, view.Productivity) // round(3.5/8*100)
	require.Len(t, view.Weekly, 7)
	require.Equal(t, "Mon", view.Weekly[0].Day)
}

func TestReportSummaryWithOverride(t *testing.T) {
	s, setClock := newTestServer(t, nil)
	seedWeek(t, s, setClock)

	rec := doJSON(t, s, http.MethodGet, "/api/reports/summary?range=week", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var view summaryView
	env := decodeEnvelope(t, rec)
	raw, _ := json.Marshal(env.Data)
	require.NoError(t, json.Unmarshal(raw, &view))
	// 2024-01-08: 2.5h CK (35) + 1.5h VedaAI (45); 2024-01-09: 3h CK.
	require.Equal(t, 7.0, view.TotalHours)
	require.Equal(t, 2.5*35+1.5*45+3*35, view.TotalEarnings)

	// Contract override: 8000 over a 160-hour month = 50/h for CK.
	rec = doJSON(t, s, http.MethodGet, "/api/reports/summary?range=week&company=CK&contract_amount=8000", "")
	require.Equal(t, http.StatusOK, rec.Code)
	env = decodeEnvelope(t, rec)
	raw, _ = json.Marshal(env.Data)
	require.NoError(t, json.Unmarshal(raw, &view))
	require.Equal(t, 2.5*50+1.5*45+3*50, view.TotalEarnings)

	// Without an override the company parameter is a plain session filter.
	rec = doJSON(t, s, http.MethodGet, "/api/reports/summary?range=week&company=CK", "")
	require.Equal(t, http.StatusOK, rec.Code)
	env = decodeEnvelope(t, rec)
	raw, _ = json.Marshal(env.Data)
	require.NoError(t, json.Unmarshal(raw, &view))
	require.Equal(t, 5.5, view.TotalHours)
	require.Equal(t, 5.5*35, view.TotalEarnings)

	// Override without a company is rejected.
	rec = doJSON(t, s, http.MethodGet, "/api/reports/summary?hourly_rate=60", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Two override units in one request are ambiguous.
	rec = doJSON(t, s, http.MethodGet, "/api/reports/summary?range=week&company=CK&hourly_rate=60&monthly_salary=8000", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportDownloadHeaders(t *testing.T) {
	s, setClock := newTestServer(t, nil)
	seedWeek(t, s, setClock)

	rec := doJSON(t, s, http.MethodGet, "/api/reports", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Header().Get("Content-Disposition"), "combined_report.xlsx")
	require.NotEmpty(t, rec.Body.Bytes())
}

func TestAuthGate(t *testing.T) {
	hash, err := auth.HashPassword("hunter2")
	require.NoError(t, err)
	gate := auth.NewGate(auth.Config{
		Email:        "owner@example.com",
		PasswordHash: hash,
		Secret:       "test-secret",
		TokenTTL:     time.Hour,
	})
	s, _ := newTestServer(t, gate)

	rec := doJSON(t, s, http.MethodGet, "/api/timer", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/login",
		`{"email":"owner@example.com","password":"wrong"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/login",
		`{"email":"owner@example.com","password":"hunter2"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var sessionCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			sessionCookie = c
		}
	}
	require.NotNil(t, sessionCookie)

	req := httptest.NewRequest(http.MethodGet, "/api/timer", strings.NewReader(""))
	req.AddCookie(sessionCookie)
	authed := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(authed, req)
	require.Equal(t, http.StatusOK, authed.Code)
}

func TestHealthEndpoints(t *testing.T) {
	s, _ := newTestServer(t, nil)
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, s, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code, path)
	}
}

// seedWeek stores three sessions on two days inside the trailing week.
// The store clock is pinned per entry so CreatedAt lands on the intended day.
func seedWeek(t *testing.T, s *Server, setClock func(time.Time)) {
	t.Helper()
	seed := []struct {
		created time.Time
		body    string
	}{
		{time.Date(2024, 1, 8, 11, 30, 0, 0, time.UTC), `{"company":"CK","startTime":"2024-01-08T09:00:00Z","duration":2.5}`},
		{time.Date(2024, 1, 8, 14, 30, 0, 0, time.UTC), `{"company":"VedaAI","startTime":"2024-01-08T13:00:00Z","duration":1.5}`},
		{time.Date(2024, 1, 9, 12, 0, 0, 0, time.UTC), `{"company":"CK","startTime":"2024-01-09T09:00:00Z","duration":3}`},
	}
	for _, entry := range seed {
		setClock(entry.created)
		rec := doJSON(t, s, http.MethodPost, "/api/timer", entry.body)
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	setClock(testToday)
}
