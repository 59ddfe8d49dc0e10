package domain

import "time"

// FilterByTimeRange returns events within the [since, until] date range.
// Both boundaries are inclusive (until includes the entire end-of-day).
// Empty date strings mean no constraint on that boundary.
func FilterByTimeRange(events []UsageEvent, since, until string, tz *time.Location) ([]UsageEvent, error) {
	if since == "" && until == "" {
		return events, nil
	}

	var sinceTime, untilTime time.Time
	if since != "" {
		t, err := time.ParseInLocation("2006-01-02", since, tz)
		if err != nil {
			return nil, err
		}
		sinceTime = t
	}
	if until != "" {
		t, err := time.ParseInLocation("2006-01-02", until, tz)
		if err != nil {
			return nil, err
		}
		untilTime = t.Add(24*time.Hour - time.Nanosecond) // end of day
	}

	filtered := make([]UsageEvent, 0, len(events))
	for _, e := range events {
		local := e.Timestamp.In(tz)
		if !sinceTime.IsZero() && local.Before(sinceTime) {
			continue
		}
		if !untilTime.IsZero() && local.After(untilTime) {
			continue
		}
		filtered = append(filtered, e)
	}
	return filtered, nil
}

// FilterByDate returns the events falling on one calendar date in tz.
func FilterByDate(events []UsageEvent, date string, tz *time.Location) []UsageEvent {
	filtered := make([]UsageEvent, 0)
	for _, e := range events {
		if e.Timestamp.In(tz).Format("2006-01-02") == date {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// MostRecentTimestamp returns the newest event timestamp, zero when the list
// is empty. Used by the most-recent-data reference date strategy.
func MostRecentTimestamp(events []UsageEvent) time.Time {
	var newest time.Time
	for _, e := range events {
		if e.Timestamp.After(newest) {
			newest = e.Timestamp
		}
	}
	return newest
}
