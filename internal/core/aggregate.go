// Package core implements the time-entry aggregation and earnings engine:
// day grouping, streaks, rate-based earnings and productivity scoring.
package core

import (
	"math"
	"time"
)

// DayKeyFormat is the key format for day buckets: the ISO calendar date of
// the session's CreatedAt normalized to UTC. Keying every date calculation
// to one reference location keeps a mixed-offset record from landing in
// different calendar days across views.
const DayKeyFormat = "2006-01-02"

// dayKey formats an instant as its UTC calendar date.
func dayKey(t time.Time) string {
	return t.UTC().Format(DayKeyFormat)
}

// StreakWindowDays bounds the backward streak scan so it always terminates.
// A streak can never exceed this window.
const StreakWindowDays = 30

// Filter selects sessions by creation date range and company. Bounds are
// inclusive; a nil bound means unbounded on that side, and an empty company
// matches every company.
type Filter struct {
	From    *time.Time
	To      *time.Time
	Company string
}

// Matches reports whether the session passes the range and company filter.
// The range predicate applies to CreatedAt, the canonical grouping key.
func (f Filter) Matches(s WorkSession) bool {
	if f.Company != "" && s.Company != f.Company {
		return false
	}
	if f.From != nil && s.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && s.CreatedAt.After(*f.To) {
		return false
	}
	return true
}

// DayGroups maps ISO calendar dates to the sessions created on that day.
// Insertion order is preserved both across days and within a day, so callers
// see sessions exactly as the store delivered them. Totals accumulate raw
// durations without rounding; rounding happens at presentation time only.
type DayGroups struct {
	keys    []string
	buckets map[string][]WorkSession
	totals  map[string]float64
	faults  []DataIntegrityFault
}

// GroupByDay buckets sessions by the UTC calendar date of CreatedAt in a
// single pass. Sessions failing the filter are skipped; sessions with a
// non-finite duration or an underivable end time are excluded from the
// buckets and reported through Faults, so a single bad record can never
// poison a day total. Zero-duration sessions stay in the buckets and count
// toward totals.
func GroupByDay(sessions []WorkSession, f Filter) *DayGroups {
	g := &DayGroups{
		buckets: make(map[string][]WorkSession),
		totals:  make(map[string]float64),
	}
	for _, s := range sessions {
		if !f.Matches(s) {
			continue
		}
		// A stored EndTime satisfies DerivedEnd, so duration finiteness
		// needs its own check before anything is summed.
		if math.IsNaN(s.Duration) || math.IsInf(s.Duration, 0) {
			g.faults = append(g.faults, DataIntegrityFault{SessionID: s.ID, Reason: "non-finite duration"})
			continue
		}
		if _, err := s.DerivedEnd(); err != nil {
			var fault DataIntegrityFault
			if fa, ok := err.(DataIntegrityFault); ok {
				fault = fa
			} else {
				fault = DataIntegrityFault{SessionID: s.ID, Reason: err.Error()}
			}
			g.faults = append(g.faults, fault)
			continue
		}
		key := dayKey(s.CreatedAt)
		if _, seen := g.buckets[key]; !seen {
			g.keys = append(g.keys, key)
		}
		g.buckets[key] = append(g.buckets[key], s)
		g.totals[key] += s.Duration
	}
	return g
}

// Days returns the day keys in first-seen order.
func (g *DayGroups) Days() []string {
	return append([]string(nil), g.keys...)
}

// Sessions returns the sessions bucketed under the given day key, in input
// order. The result is nil for a day with no sessions.
func (g *DayGroups) Sessions(day string) []WorkSession {
	return g.buckets[day]
}

// TotalHours returns the summed duration for one day.
func (g *DayGroups) TotalHours(day string) float64 {
	return g.totals[day]
}

// TotalHoursAll returns the summed duration across every bucketed day.
func (g *DayGroups) TotalHoursAll() float64 {
	var sum float64
	for _, key := range g.keys {
		sum += g.totals[key]
	}
	return sum
}

// WorkingDays returns the number of distinct days holding at least one session.
func (g *DayGroups) WorkingDays() int {
	return len(g.keys)
}

// Faults returns the integrity faults collected while grouping.
func (g *DayGroups) Faults() []DataIntegrityFault {
	return append([]DataIntegrityFault(nil), g.faults...)
}

// Streak counts consecutive calendar days, scanning backward from today,
// each containing at least one session by CreatedAt date. Days are keyed in
// UTC, the same normalization GroupByDay uses. The scan stops at the first
// empty day, including today itself, and is capped at StreakWindowDays.
// The reference "today" is injected so callers and tests control it
// explicitly.
func Streak(sessions []WorkSession, today time.Time) int {
	worked := make(map[string]struct{}, len(sessions))
	for _, s := range sessions {
		worked[dayKey(s.CreatedAt)] = struct{}{}
	}
	streak := 0
	for i := 0; i < StreakWindowDays; i++ {
		key := dayKey(today.AddDate(0, 0, -i))
		if _, ok := worked[key]; !ok {
			break
		}
		streak++
	}
	return streak
}

// WeekdayHours is one Monday-first weekday bucket of the trailing-week chart.
type WeekdayHours struct {
	Day   string  `json:"day"`
	Hours float64 `json:"hours"`
}

var weekdayLabels = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// WeeklyOverview sums durations per weekday for sessions created in the
// seven days up to and including today. Buckets are Monday-first; malformed
// sessions are skipped the same way GroupByDay excludes them.
func WeeklyOverview(sessions []WorkSession, today time.Time) []WeekdayHours {
	out := make([]WeekdayHours, 7)
	for i, label := range weekdayLabels {
		out[i] = WeekdayHours{Day: label}
	}
	from := today.AddDate(0, 0, -7)
	for _, s := range sessions {
		if s.CreatedAt.Before(from) || s.CreatedAt.After(today) {
			continue
		}
		if math.IsNaN(s.Duration) || math.IsInf(s.Duration, 0) {
			continue
		}
		idx := int(s.CreatedAt.UTC().Weekday())
		if idx == 0 {
			idx = 6 // Sunday last
		} else {
			idx--
		}
		out[idx].Hours += s.Duration
	}
	return out
}
