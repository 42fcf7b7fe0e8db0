package core

import "fmt"

// ValidationError rejects malformed or out-of-range input before it reaches
// any aggregation or earnings computation. Inputs are never silently coerced.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// DataIntegrityFault marks a stored record whose derived values are invalid
// (for example a non-finite end time). Faulty records are excluded from
// aggregates and surfaced as warnings so the rest of a report still renders.
type DataIntegrityFault struct {
	SessionID int64
	Reason    string
}

func (e DataIntegrityFault) Error() string {
	return fmt.Sprintf("session %d: %s", e.SessionID, e.Reason)
}
