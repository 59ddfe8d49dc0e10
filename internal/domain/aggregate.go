package domain

import (
	"sort"
	"time"

	"github.com/samber/lo"
)

// DailySummary is the per-calendar-day rollup. Dates are formatted in the
// aggregation timezone as zero-padded "2006-01-02" strings.
type DailySummary struct {
	Date                string
	InputTokens         int
	OutputTokens        int
	CacheCreationTokens int
	CacheReadTokens     int
	Cost                float64
	EntryCount          int

	// PercentChange is the change versus the next older day, set only when
	// that day exists. Nil means undefined (no older day, or the older day
	// had zero cost and this one does too).
	PercentChange *float64
}

// TotalTokens returns the sum of all token types for this day.
func (d DailySummary) TotalTokens() int {
	return d.InputTokens + d.OutputTokens + d.CacheCreationTokens + d.CacheReadTokens
}

// SessionSummary is the rollup for one (project, session) pair.
type SessionSummary struct {
	Project             string
	Session             string
	InputTokens         int
	OutputTokens        int
	CacheCreationTokens int
	CacheReadTokens     int
	Cost                float64
	EntryCount          int
	Start               time.Time
	End                 time.Time
}

// ProjectSummary is the per-project rollup.
type ProjectSummary struct {
	Project             string
	InputTokens         int
	OutputTokens        int
	CacheCreationTokens int
	CacheReadTokens     int
	Cost                float64
	EntryCount          int
	SessionCount        int

	// Share is this project's percentage of the grand total cost,
	// 0 when the grand total is 0.
	Share float64
}

// AggregateDaily groups events by calendar date in tz, newest first, and sets
// each day's percent change versus the next older day.
func AggregateDaily(events []UsageEvent, tz *time.Location) []DailySummary {
	groups := make(map[string]*DailySummary)

	for _, e := range events {
		key := e.Timestamp.In(tz).Format("2006-01-02")
		agg, ok := groups[key]
		if !ok {
			agg = &DailySummary{Date: key}
			groups[key] = agg
		}
		agg.InputTokens += e.InputTokens
		agg.OutputTokens += e.OutputTokens
		agg.CacheCreationTokens += e.CacheCreationTokens
		agg.CacheReadTokens += e.CacheReadTokens
		agg.Cost += e.Cost
		agg.EntryCount++
	}

	result := make([]DailySummary, 0, len(groups))
	for _, agg := range groups {
		result = append(result, *agg)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date > result[j].Date // descending
	})

	// Walk newest to oldest; result[i+1] is the previous (older) day.
	for i := 0; i < len(result)-1; i++ {
		prev := result[i+1]
		switch {
		case prev.Cost > 0:
			pct := (result[i].Cost - prev.Cost) / prev.Cost * 100
			result[i].PercentChange = &pct
		case result[i].Cost > 0:
			// Zero-cost day followed by spend counts as a full jump.
			pct := 100.0
			result[i].PercentChange = &pct
		}
	}

	return result
}

// AggregateSessions groups events by (project, session) pair, tracking each
// group's first and last activity, sorted by total cost descending.
func AggregateSessions(events []UsageEvent) []SessionSummary {
	groups := make(map[string]*SessionSummary)

	for _, e := range events {
		key := e.Project + "\x00" + e.Session
		agg, ok := groups[key]
		if !ok {
			agg = &SessionSummary{
				Project: e.Project,
				Session: e.Session,
				Start:   e.Timestamp,
				End:     e.Timestamp,
			}
			groups[key] = agg
		}
		agg.InputTokens += e.InputTokens
		agg.OutputTokens += e.OutputTokens
		agg.CacheCreationTokens += e.CacheCreationTokens
		agg.CacheReadTokens += e.CacheReadTokens
		agg.Cost += e.Cost
		agg.EntryCount++
		if e.Timestamp.Before(agg.Start) {
			agg.Start = e.Timestamp
		}
		if e.Timestamp.After(agg.End) {
			agg.End = e.Timestamp
		}
	}

	result := make([]SessionSummary, 0, len(groups))
	for _, agg := range groups {
		result = append(result, *agg)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Cost != result[j].Cost {
			return result[i].Cost > result[j].Cost
		}
		return result[i].Project+result[i].Session < result[j].Project+result[j].Session
	})
	return result
}

// AggregateProjects groups events by project, counting distinct sessions and
// each project's share of the grand total cost, sorted by cost descending.
func AggregateProjects(events []UsageEvent) []ProjectSummary {
	groups := make(map[string]*ProjectSummary)
	sessions := make(map[string]map[string]struct{})

	for _, e := range events {
		agg, ok := groups[e.Project]
		if !ok {
			agg = &ProjectSummary{Project: e.Project}
			groups[e.Project] = agg
			sessions[e.Project] = make(map[string]struct{})
		}
		agg.InputTokens += e.InputTokens
		agg.OutputTokens += e.OutputTokens
		agg.CacheCreationTokens += e.CacheCreationTokens
		agg.CacheReadTokens += e.CacheReadTokens
		agg.Cost += e.Cost
		agg.EntryCount++
		sessions[e.Project][e.Session] = struct{}{}
	}

	grandTotal := lo.SumBy(events, func(e UsageEvent) float64 { return e.Cost })

	result := make([]ProjectSummary, 0, len(groups))
	for name, agg := range groups {
		agg.SessionCount = len(sessions[name])
		if grandTotal > 0 {
			agg.Share = agg.Cost / grandTotal * 100
		}
		result = append(result, *agg)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Cost != result[j].Cost {
			return result[i].Cost > result[j].Cost
		}
		return result[i].Project < result[j].Project
	})
	return result
}
