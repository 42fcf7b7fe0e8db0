package core

import (
	"fmt"
	"math"
)

// HoursPerMonth is the standard working month used to derive an hourly rate
// from a contract total or a monthly salary.
const HoursPerMonth = 160

// RateUnit names the unit of a user-entered rate figure.
type RateUnit string

const (
	UnitHourly        RateUnit = "hourly"
	UnitContractTotal RateUnit = "contract"
	UnitMonthlySalary RateUnit = "salary"
)

// HourlyFrom converts a user-entered figure to an hourly rate. Contract
// totals and monthly salaries divide by the standard working month.
func HourlyFrom(unit RateUnit, amount float64) (float64, error) {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, ValidationError{Field: string(unit), Reason: "rate figure must be positive"}
	}
	switch unit {
	case UnitHourly:
		return amount, nil
	case UnitContractTotal, UnitMonthlySalary:
		return amount / HoursPerMonth, nil
	default:
		return 0, ValidationError{Field: "unit", Reason: fmt.Sprintf("unknown rate unit %q", unit)}
	}
}

// RateTable maps companies to hourly rates for one report view. Overrides
// are transient: a table with overrides lives only as long as the view that
// created it, the seeded defaults are never mutated.
type RateTable struct {
	defaults  map[string]float64
	overrides map[string]float64
	fallback  float64
}

// NewRateTable seeds a table from the configured default rates and a global
// fallback used for companies without an explicit rate.
func NewRateTable(defaults map[string]float64, fallback float64) RateTable {
	copied := make(map[string]float64, len(defaults))
	for company, rate := range defaults {
		copied[company] = rate
	}
	return RateTable{defaults: copied, fallback: fallback}
}

// WithOverride returns a copy of the table with an hourly override for one
// company. The receiver is unchanged.
func (t RateTable) WithOverride(company string, hourly float64) RateTable {
	overrides := make(map[string]float64, len(t.overrides)+1)
	for c, r := range t.overrides {
		overrides[c] = r
	}
	overrides[company] = hourly
	return RateTable{defaults: t.defaults, overrides: overrides, fallback: t.fallback}
}

// Rate resolves the hourly rate for a company: view override first, then the
// seeded default, then the global fallback.
func (t RateTable) Rate(company string) float64 {
	if rate, ok := t.overrides[company]; ok {
		return rate
	}
	if rate, ok := t.defaults[company]; ok {
		return rate
	}
	return t.fallback
}

// Earnings computes duration × rate for one session at full precision.
// Rounding is a presentation concern; see Round2.
func (t RateTable) Earnings(s WorkSession) float64 {
	return s.Duration * t.Rate(s.Company)
}

// TotalEarnings sums per-session earnings at full precision so rounding
// error never compounds across many sessions.
func (t RateTable) TotalEarnings(sessions []WorkSession) float64 {
	var sum float64
	for _, s := range sessions {
		sum += t.Earnings(s)
	}
	return sum
}

// Round2 rounds a value to two decimal places for display.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
