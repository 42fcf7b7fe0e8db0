package core

import "fmt"

// FormatDuration renders fractional hours as HH:MM:SS, flooring to whole
// seconds the way the history view displays elapsed time.
func FormatDuration(hours float64) string {
	if hours < 0 {
		hours = 0
	}
	totalSeconds := int64(hours * 3600)
	h := totalSeconds / 3600
	m := (totalSeconds % 3600) / 60
	s := totalSeconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
