package core

import (
	"math"
	"testing"
	"time"
)

func day(yyyy int, mm time.Month, dd int) time.Time {
	return time.Date(yyyy, mm, dd, 10, 0, 0, 0, time.UTC)
}

func sessionOn(id int64, company string, hours float64, created time.Time) WorkSession {
	return WorkSession{
		ID:        id,
		Company:   company,
		StartTime: created,
		Duration:  hours,
		CreatedAt: created,
	}
}

func TestGroupByDayMixedCompanies(t *testing.T) {
	sessions := []WorkSession{
		sessionOn(1, "CK", 2.5, day(2024, 1, 1)),
		sessionOn(2, "CK", 1.5, day(2024, 1, 1)),
		sessionOn(3, "VedaAI", 3, day(2024, 1, 2)),
	}

	g := GroupByDay(sessions, Filter{})

	days := g.Days()
	if len(days) != 2 || days[0] != "2024-01-01" || days[1] != "2024-01-02" {
		t.Fatalf("Days() = %v, want [2024-01-01 2024-01-02]", days)
	}
	if got := g.TotalHours("2024-01-01"); got != 4.0 {
		t.Errorf("TotalHours(2024-01-01) = %v, want 4.0", got)
	}
	if got := g.TotalHours("2024-01-02"); got != 3.0 {
		t.Errorf("TotalHours(2024-01-02) = %v, want 3.0", got)
	}
	if got := g.TotalHoursAll(); got != 7.0 {
		t.Errorf("TotalHoursAll() = %v, want 7.0", got)
	}

	rates := NewRateTable(map[string]float64{"CK": 35, "VedaAI": 45}, 35)
	if got := rates.TotalEarnings(g.Sessions("2024-01-01")); got != 140.0 {
		t.Errorf("day one earnings = %v, want 140.0", got)
	}
	if got := rates.TotalEarnings(g.Sessions("2024-01-02")); got != 135.0 {
		t.Errorf("day two earnings = %v, want 135.0", got)
	}
	if got := rates.TotalEarnings(sessions); got != 275.0 {
		t.Errorf("total earnings = %v, want 275.0", got)
	}
}

func TestGroupByDayIsAPartition(t *testing.T) {
	sessions := []WorkSession{
		sessionOn(1, "CK", 1, day(2024, 2, 1)),
		sessionOn(2, "VedaAI", 2, day(2024, 2, 3)),
		sessionOn(3, "CK", 3, day(2024, 2, 1)),
		sessionOn(4, "BrandSurge", 0.25, day(2024, 2, 5)),
	}

	g := GroupByDay(sessions, Filter{})

	seen := make(map[int64]int)
	var bucketed int
	for _, d := range g.Days() {
		for _, s := range g.Sessions(d) {
			seen[s.ID]++
			bucketed++
		}
	}
	if bucketed != len(sessions) {
		t.Fatalf("bucketed %d sessions, want %d", bucketed, len(sessions))
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("session %d appears in %d buckets, want exactly 1", id, n)
		}
	}

	// Sum of per-day totals equals the sum of all durations.
	var perDay, direct float64
	for _, d := range g.Days() {
		perDay += g.TotalHours(d)
	}
	for _, s := range sessions {
		direct += s.Duration
	}
	if math.Abs(perDay-direct) > 1e-9 {
		t.Errorf("per-day total %v != direct total %v", perDay, direct)
	}
}

func TestGroupByDayPreservesInputOrderWithinDay(t *testing.T) {
	d := day(2024, 4, 2)
	sessions := []WorkSession{
		sessionOn(30, "CK", 1, d),
		sessionOn(10, "CK", 1, d),
		sessionOn(20, "CK", 1, d),
	}
	g := GroupByDay(sessions, Filter{})
	got := g.Sessions("2024-04-02")
	if len(got) != 3 || got[0].ID != 30 || got[1].ID != 10 || got[2].ID != 20 {
		t.Fatalf("sessions not in input order: %+v", got)
	}
}

func TestGroupByDayFilter(t *testing.T) {
	from := day(2024, 3, 2)
	to := day(2024, 3, 4)
	sessions := []WorkSession{
		sessionOn(1, "CK", 1, day(2024, 3, 1)),     // before range
		sessionOn(2, "CK", 2, day(2024, 3, 2)),     // in range, matching company
		sessionOn(3, "VedaAI", 4, day(2024, 3, 3)), // in range, other company
		sessionOn(4, "CK", 8, day(2024, 3, 5)),     // after range
	}

	g := GroupByDay(sessions, Filter{From: &from, To: &to, Company: "CK"})
	if days := g.Days(); len(days) != 1 || days[0] != "2024-03-02" {
		t.Fatalf("Days() = %v, want [2024-03-02]", days)
	}
	if got := g.TotalHoursAll(); got != 2 {
		t.Errorf("TotalHoursAll() = %v, want 2", got)
	}
}

func TestGroupByDayExcludesMalformedSessions(t *testing.T) {
	sessions := []WorkSession{
		sessionOn(1, "CK", 2, day(2024, 5, 1)),
		sessionOn(2, "CK", math.NaN(), day(2024, 5, 1)),
		sessionOn(3, "CK", math.Inf(1), day(2024, 5, 2)),
	}

	g := GroupByDay(sessions, Filter{})
	if got := g.TotalHoursAll(); got != 2 {
		t.Errorf("TotalHoursAll() = %v, want 2 (malformed excluded)", got)
	}
	faults := g.Faults()
	if len(faults) != 2 {
		t.Fatalf("Faults() = %v, want 2 faults", faults)
	}
	if faults[0].SessionID != 2 || faults[1].SessionID != 3 {
		t.Errorf("fault session ids = %d, %d; want 2, 3", faults[0].SessionID, faults[1].SessionID)
	}
}

func TestGroupByDayExcludesNaNDurationWithStoredEnd(t *testing.T) {
	// A stored EndTime satisfies the derived-end check on its own, so the
	// duration must be vetted independently or NaN leaks into the totals.
	end := day(2024, 5, 1).Add(2 * time.Hour)
	bad := sessionOn(2, "CK", math.NaN(), day(2024, 5, 1))
	bad.EndTime = &end
	sessions := []WorkSession{
		sessionOn(1, "CK", 2, day(2024, 5, 1)),
		bad,
	}

	g := GroupByDay(sessions, Filter{})
	if got := g.TotalHoursAll(); got != 2 {
		t.Errorf("TotalHoursAll() = %v, want 2", got)
	}
	if got := g.TotalHours("2024-05-01"); got != 2 {
		t.Errorf("TotalHours() = %v, want 2", got)
	}
	if got := len(g.Sessions("2024-05-01")); got != 1 {
		t.Errorf("bucket has %d sessions, want 1", got)
	}
	faults := g.Faults()
	if len(faults) != 1 || faults[0].SessionID != 2 {
		t.Fatalf("Faults() = %v, want the NaN-duration session reported", faults)
	}
}

func TestDayKeysNormalizeMixedOffsets(t *testing.T) {
	// 2024-03-01 23:30 -05:00 is 2024-03-02 04:30 UTC. History grouping and
	// the streak scan must agree on which calendar day that is.
	est := time.FixedZone("EST", -5*3600)
	created := time.Date(2024, 3, 1, 23, 30, 0, 0, est)
	sessions := []WorkSession{sessionOn(1, "CK", 1, created)}

	g := GroupByDay(sessions, Filter{})
	if got := g.Days(); len(got) != 1 || got[0] != "2024-03-02" {
		t.Fatalf("Days() = %v, want [2024-03-02]", got)
	}

	today := time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)
	if got := Streak(sessions, today); got != 1 {
		t.Errorf("Streak() = %d, want 1 (same UTC day as the bucket)", got)
	}
}

func TestGroupByDayKeepsZeroDurationSessions(t *testing.T) {
	sessions := []WorkSession{
		sessionOn(1, "CK", 0, day(2024, 6, 1)),
		sessionOn(2, "CK", 1.5, day(2024, 6, 1)),
	}
	g := GroupByDay(sessions, Filter{})
	if got := len(g.Sessions("2024-06-01")); got != 2 {
		t.Fatalf("zero-duration session dropped from bucket: %d sessions", got)
	}
	if got := g.TotalHours("2024-06-01"); got != 1.5 {
		t.Errorf("TotalHours = %v, want 1.5", got)
	}
}

func TestStreak(t *testing.T) {
	today := time.Date(2024, 7, 31, 12, 0, 0, 0, time.UTC)

	t.Run("no sessions", func(t *testing.T) {
		if got := Streak(nil, today); got != 0 {
			t.Errorf("Streak() = %d, want 0", got)
		}
	})

	t.Run("every day in the window", func(t *testing.T) {
		var sessions []WorkSession
		for i := 0; i < 45; i++ {
			sessions = append(sessions, sessionOn(int64(i), "CK", 1, today.AddDate(0, 0, -i)))
		}
		if got := Streak(sessions, today); got != StreakWindowDays {
			t.Errorf("Streak() = %d, want window cap %d", got, StreakWindowDays)
		}
	})

	t.Run("stops at first gap", func(t *testing.T) {
		sessions := []WorkSession{
			sessionOn(1, "CK", 1, today),
			sessionOn(2, "CK", 1, today.AddDate(0, 0, -1)),
			// gap at -2
			sessionOn(3, "CK", 1, today.AddDate(0, 0, -3)),
		}
		if got := Streak(sessions, today); got != 2 {
			t.Errorf("Streak() = %d, want 2", got)
		}
	})

	t.Run("empty today breaks the streak", func(t *testing.T) {
		sessions := []WorkSession{
			sessionOn(1, "CK", 1, today.AddDate(0, 0, -1)),
			sessionOn(2, "CK", 1, today.AddDate(0, 0, -2)),
		}
		if got := Streak(sessions, today); got != 0 {
			t.Errorf("Streak() = %d, want 0", got)
		}
	})
}

func TestWeeklyOverview(t *testing.T) {
	// Wednesday.
	today := time.Date(2024, 7, 31, 12, 0, 0, 0, time.UTC)
	sessions := []WorkSession{
		sessionOn(1, "CK", 2, today),                     // Wed
		sessionOn(2, "CK", 1.5, today.AddDate(0, 0, -2)), // Mon
		sessionOn(3, "CK", 3, today.AddDate(0, 0, -3)),   // Sun
		sessionOn(4, "CK", 8, today.AddDate(0, 0, -10)),  // outside window
	}

	week := WeeklyOverview(sessions, today)
	if len(week) != 7 {
		t.Fatalf("WeeklyOverview() returned %d buckets, want 7", len(week))
	}
	byDay := make(map[string]float64, 7)
	for _, w := range week {
		byDay[w.Day] = w.Hours
	}
	if byDay["Wed"] != 2 || byDay["Mon"] != 1.5 || byDay["Sun"] != 3 {
		t.Errorf("weekday buckets = %v", byDay)
	}
	if byDay["Fri"] != 0 {
		t.Errorf("Fri = %v, want 0", byDay["Fri"])
	}
}
