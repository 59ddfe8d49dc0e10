package domain

import "time"

// AggregateOptions tunes one aggregation pass. Zero values fall back to UTC,
// the default hourly window, and a Sunday week start.
type AggregateOptions struct {
	TZ          *time.Location
	HoursWindow int
	WeekStart   time.Weekday
}

// Bundle is the full summary set produced by one aggregation pass and
// consumed by the UI layer.
type Bundle struct {
	GeneratedAt        time.Time
	Daily              []DailySummary
	Sessions           []SessionSummary
	Projects           []ProjectSummary
	Hourly             []HourlySummary
	TodayHourly        []HourlySummary
	RecentSessions     []Session
	Today              *DailySummary
	ThisWeek           PeriodSummary
	ThisMonth          PeriodSummary
	RunningSessionCost float64
}

// Aggregate runs every bucketing pass over the flattened event list against
// the single reference instant now. It is pure: the same events and now
// produce an identical bundle.
func Aggregate(events []UsageEvent, now time.Time, opts AggregateOptions) *Bundle {
	tz := opts.TZ
	if tz == nil {
		tz = time.UTC
	}
	hoursWindow := opts.HoursWindow
	if hoursWindow <= 0 {
		hoursWindow = DefaultHoursWindow
	}
	local := now.In(tz)
	today := local.Format("2006-01-02")

	daily := AggregateDaily(events, tz)

	hourly := AggregateHourly(events, now, tz, hoursWindow)
	hourly = PatchCurrentHour(hourly, events, now, tz)

	todayEvents := FilterByDate(events, today, tz)
	todayHourly := AggregateHourlyToday(todayEvents, now, tz)

	b := &Bundle{
		GeneratedAt:        now,
		Daily:              daily,
		Sessions:           AggregateSessions(events),
		Projects:           AggregateProjects(events),
		Hourly:             hourly,
		TodayHourly:        todayHourly,
		RecentSessions:     ReconstructSessions(hourly),
		ThisWeek:           WeekSummary(daily, now, tz, opts.WeekStart),
		ThisMonth:          MonthSummary(daily, now, tz),
		RunningSessionCost: RunningSessionCost(todayHourly, local, nil),
	}

	for i := range daily {
		if daily[i].Date == today {
			d := daily[i]
			b.Today = &d
			break
		}
	}
	return b
}
