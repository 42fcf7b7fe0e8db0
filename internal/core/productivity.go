package core

import "math"

// TargetHoursPerDay is the fixed daily target the productivity score
// compares against.
const TargetHoursPerDay = 8.0

// DailyAverage returns totalHours divided by the number of distinct working
// days, or 0 when there are none. Never a division fault.
func DailyAverage(totalHours float64, workingDays int) float64 {
	if workingDays <= 0 {
		return 0
	}
	return totalHours / float64(workingDays)
}

// ProductivityScore maps an average daily figure to a bounded percentage of
// the target. The result is monotonic in the average and always in [0, 100].
func ProductivityScore(dailyAverage, target float64) int {
	if target <= 0 || dailyAverage <= 0 {
		return 0
	}
	score := int(math.Round(dailyAverage / target * 100))
	if score > 100 {
		return 100
	}
	return score
}

// IntensityLevel stages hours into the visual intensity classes used by the
// weekly chart: 0 none, 1 light, 2 heavy. A zero-duration day still counts
// toward totals but carries no intensity.
func IntensityLevel(hours float64) int {
	switch {
	case hours <= 0:
		return 0
	case hours <= 1:
		return 1
	default:
		return 2
	}
}
