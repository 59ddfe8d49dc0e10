package domain

import "time"

// PeriodSummary sums daily summaries over a calendar window (current week or
// month). Start and End are inclusive date strings.
type PeriodSummary struct {
	Start               string
	End                 string
	InputTokens         int
	OutputTokens        int
	CacheCreationTokens int
	CacheReadTokens     int
	Cost                float64
	EntryCount          int
	DayCount            int
}

// WeekSummary sums the daily summaries falling in the calendar week
// containing now. weekStart is the locale's first day of the week.
func WeekSummary(daily []DailySummary, now time.Time, tz *time.Location, weekStart time.Weekday) PeriodSummary {
	local := now.In(tz)
	back := (int(local.Weekday()) - int(weekStart) + 7) % 7
	first := local.AddDate(0, 0, -back)
	last := first.AddDate(0, 0, 6)
	return sumRange(daily, first.Format("2006-01-02"), last.Format("2006-01-02"))
}

// MonthSummary sums the daily summaries falling in the calendar month
// containing now.
func MonthSummary(daily []DailySummary, now time.Time, tz *time.Location) PeriodSummary {
	local := now.In(tz)
	first := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, tz)
	last := first.AddDate(0, 1, -1)
	return sumRange(daily, first.Format("2006-01-02"), last.Format("2006-01-02"))
}

// sumRange relies on zero-padded ISO dates ordering lexically.
func sumRange(daily []DailySummary, start, end string) PeriodSummary {
	p := PeriodSummary{Start: start, End: end}
	for _, d := range daily {
		if d.Date < start || d.Date > end {
			continue
		}
		p.InputTokens += d.InputTokens
		p.OutputTokens += d.OutputTokens
		p.CacheCreationTokens += d.CacheCreationTokens
		p.CacheReadTokens += d.CacheReadTokens
		p.Cost += d.Cost
		p.EntryCount += d.EntryCount
		p.DayCount++
	}
	return p
}
