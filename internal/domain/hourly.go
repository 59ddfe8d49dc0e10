package domain

import (
	"sort"
	"time"
)

// DefaultHoursWindow is the trailing lookback used for the hourly series.
const DefaultHoursWindow = 24

// HourlySummary is the rollup for one hour-start slot. A full series is
// dense: every hour in the requested window has a slot, zero-valued when no
// events fell in it. Session reconstruction depends on this.
type HourlySummary struct {
	Hour                time.Time // hour start in the aggregation timezone
	Label               string    // "15:00"
	InputTokens         int
	OutputTokens        int
	CacheCreationTokens int
	CacheReadTokens     int
	Cost                float64
	EntryCount          int
}

// TruncateHour zeroes minutes and seconds in t's location. All window
// boundary math runs on hour-truncated timestamps.
func TruncateHour(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}

// AggregateHourly buckets events into a dense series of hoursLimit slots
// starting at the hour of now-hoursLimit. Events outside the window are
// ignored. The hour containing now sits just past the final slot; see
// PatchCurrentHour.
func AggregateHourly(events []UsageEvent, now time.Time, tz *time.Location, hoursLimit int) []HourlySummary {
	if hoursLimit <= 0 {
		hoursLimit = DefaultHoursWindow
	}
	local := now.In(tz)
	start := TruncateHour(local.Add(-time.Duration(hoursLimit) * time.Hour))

	buckets := bucketByHour(events, tz)

	series := make([]HourlySummary, 0, hoursLimit)
	for i := 0; i < hoursLimit; i++ {
		series = append(series, slotAt(buckets, start.Add(time.Duration(i)*time.Hour)))
	}
	return series
}

// AggregateHourlyToday buckets events already filtered to now's calendar day
// into slots from midnight through the hour containing now, at most 24.
func AggregateHourlyToday(events []UsageEvent, now time.Time, tz *time.Location) []HourlySummary {
	local := now.In(tz)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, tz)
	slots := local.Hour() + 1
	if slots > 24 {
		slots = 24
	}

	buckets := bucketByHour(events, tz)

	series := make([]HourlySummary, 0, slots)
	for i := 0; i < slots; i++ {
		series = append(series, slotAt(buckets, midnight.Add(time.Duration(i)*time.Hour)))
	}
	return series
}

// PatchCurrentHour appends the hour containing now when it has events but is
// missing from series, re-sorting ascending. This covers the window cutoff
// advancing past the last densified slot.
func PatchCurrentHour(series []HourlySummary, events []UsageEvent, now time.Time, tz *time.Location) []HourlySummary {
	current := TruncateHour(now.In(tz))
	for _, s := range series {
		if s.Hour.Equal(current) {
			return series
		}
	}

	var patch *HourlySummary
	for _, e := range events {
		local := e.Timestamp.In(tz)
		if !TruncateHour(local).Equal(current) {
			continue
		}
		if patch == nil {
			patch = &HourlySummary{Hour: current, Label: current.Format("15:00")}
		}
		patch.InputTokens += e.InputTokens
		patch.OutputTokens += e.OutputTokens
		patch.CacheCreationTokens += e.CacheCreationTokens
		patch.CacheReadTokens += e.CacheReadTokens
		patch.Cost += e.Cost
		patch.EntryCount++
	}
	if patch == nil {
		return series
	}

	series = append(series, *patch)
	sort.Slice(series, func(i, j int) bool {
		return series[i].Hour.Before(series[j].Hour)
	})
	return series
}

// bucketByHour keys by Unix seconds: equal instants always collide even when
// their time.Time representations differ.
func bucketByHour(events []UsageEvent, tz *time.Location) map[int64]*HourlySummary {
	buckets := make(map[int64]*HourlySummary)
	for _, e := range events {
		hour := TruncateHour(e.Timestamp.In(tz))
		b, ok := buckets[hour.Unix()]
		if !ok {
			b = &HourlySummary{Hour: hour, Label: hour.Format("15:00")}
			buckets[hour.Unix()] = b
		}
		b.InputTokens += e.InputTokens
		b.OutputTokens += e.OutputTokens
		b.CacheCreationTokens += e.CacheCreationTokens
		b.CacheReadTokens += e.CacheReadTokens
		b.Cost += e.Cost
		b.EntryCount++
	}
	return buckets
}

func slotAt(buckets map[int64]*HourlySummary, hour time.Time) HourlySummary {
	if b, ok := buckets[hour.Unix()]; ok {
		s := *b
		s.Hour = hour
		return s
	}
	return HourlySummary{Hour: hour, Label: hour.Format("15:00")}
}
