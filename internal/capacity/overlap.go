package capacity

import "time"

// DayCount is the number of units in use on one calendar day.
type DayCount struct {
	Day   time.Time
	InUse int
}

// DailyOverlapCounts walks every day of the window and counts how many of the
// existing ranges cover it. Both creation-time validation and the calendar
// breakdown are built on this single piece of arithmetic, so the two can never
// disagree.
func DailyOverlapCounts(existing []DateRange, window DateRange) []DayCount {
	var counts []DayCount
	for d := window.Start; d.Before(window.End); d = d.AddDate(0, 0, 1) {
		inUse := 0
		for _, r := range existing {
			if r.Covers(d) {
				inUse++
			}
		}
		counts = append(counts, DayCount{Day: d, InUse: inUse})
	}
	return counts
}

// FitsDailyLimit reports whether adding candidate on top of the existing
// ranges keeps every day of the candidate within the unit limit.
func FitsDailyLimit(existing []DateRange, candidate DateRange, limit int) bool {
	for _, c := range DailyOverlapCounts(existing, candidate) {
		if c.InUse+1 > limit {
			return false
		}
	}
	return true
}

// MaxDailyOverlap returns the highest number of simultaneously overlapping
// ranges on any single day, or zero when there are none. Used to guard
// administrative unit-count reductions.
func MaxDailyOverlap(ranges []DateRange) int {
	if len(ranges) == 0 {
		return 0
	}
	window := ranges[0]
	for _, r := range ranges[1:] {
		if r.Start.Before(window.Start) {
			window.Start = r.Start
		}
		if r.End.After(window.End) {
			window.End = r.End
		}
	}
	max := 0
	for _, c := range DailyOverlapCounts(ranges, window) {
		if c.InUse > max {
			max = c.InUse
		}
	}
	return max
}
