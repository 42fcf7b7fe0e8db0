package core

import (
	"math"
	"strings"
	"time"
)

type (
	// WorkSession is one clocked interval of work for a company.
	//
	// Duration is expressed in fractional hours and is the authoritative
	// length of the session; EndTime is derivable as StartTime + Duration
	// and may be absent on input. CreatedAt is assigned by the store and is
	// the canonical grouping key for history and reports, which means a
	// back-dated StartTime never moves a session to another day bucket.
	WorkSession struct {
		ID          int64      `json:"id"`
		Company     string     `json:"company"`
		StartTime   time.Time  `json:"startTime"`
		EndTime     *time.Time `json:"endTime,omitempty"`
		Duration    float64    `json:"duration"`
		IsSubmitted bool       `json:"isSubmitted"`
		CreatedAt   time.Time  `json:"createdAt"`
	}

	// ExpenseRecord is a single expense entry. It shares the company set
	// with WorkSession but carries no other cross-entity invariant.
	ExpenseRecord struct {
		ID          int64     `json:"id"`
		Company     string    `json:"company"`
		Amount      float64   `json:"amount"`
		Description string    `json:"description"`
		Category    string    `json:"category"`
		Subcategory string    `json:"subcategory"`
		Date        time.Time `json:"date"`
	}

	// CompanySet is the closed set of companies a session or expense may
	// reference. It is built once from configuration; membership checks
	// replace per-company branching everywhere else.
	CompanySet struct {
		order   []string
		members map[string]struct{}
	}
)

// NewCompanySet builds a set from the configured company names, preserving
// order and dropping blanks and duplicates.
func NewCompanySet(names []string) CompanySet {
	set := CompanySet{members: make(map[string]struct{}, len(names))}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := set.members[name]; ok {
			continue
		}
		set.members[name] = struct{}{}
		set.order = append(set.order, name)
	}
	return set
}

// Contains reports whether name is a member of the set.
func (c CompanySet) Contains(name string) bool {
	_, ok := c.members[name]
	return ok
}

// Names returns the member names in configuration order.
func (c CompanySet) Names() []string {
	return append([]string(nil), c.order...)
}

// Len returns the number of companies in the set.
func (c CompanySet) Len() int { return len(c.order) }

// Validate checks the input contract for a work session: company membership,
// a start time, and a positive finite duration.
func (s WorkSession) Validate(companies CompanySet) error {
	if !companies.Contains(s.Company) {
		return ValidationError{Field: "company", Reason: "unknown company " + strings.TrimSpace(s.Company)}
	}
	if s.StartTime.IsZero() {
		return ValidationError{Field: "startTime", Reason: "start time is required"}
	}
	if s.Duration <= 0 {
		return ValidationError{Field: "duration", Reason: "duration must be positive"}
	}
	if math.IsNaN(s.Duration) || math.IsInf(s.Duration, 0) {
		return ValidationError{Field: "duration", Reason: "duration must be finite"}
	}
	return nil
}

// Validate checks the input contract for an expense record.
func (e ExpenseRecord) Validate(companies CompanySet) error {
	if !companies.Contains(e.Company) {
		return ValidationError{Field: "company", Reason: "unknown company " + strings.TrimSpace(e.Company)}
	}
	if e.Amount <= 0 || math.IsNaN(e.Amount) || math.IsInf(e.Amount, 0) {
		return ValidationError{Field: "amount", Reason: "amount must be positive"}
	}
	if e.Date.IsZero() {
		return ValidationError{Field: "date", Reason: "date is required"}
	}
	return nil
}

// DerivedEnd computes the session's end instant from StartTime and Duration.
// A stored EndTime takes precedence. A non-finite duration cannot yield a
// valid instant and is reported as a DataIntegrityFault.
func (s WorkSession) DerivedEnd() (time.Time, error) {
	if s.EndTime != nil {
		return *s.EndTime, nil
	}
	if math.IsNaN(s.Duration) || math.IsInf(s.Duration, 0) {
		return time.Time{}, DataIntegrityFault{SessionID: s.ID, Reason: "non-finite duration"}
	}
	return s.StartTime.Add(time.Duration(s.Duration * float64(time.Hour))), nil
}
