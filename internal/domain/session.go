package domain

import "time"

// SessionMaxHours caps a reconstructed session at five member hours,
// matching the five-hour usage window.
const SessionMaxHours = 5

// sessionBridgeHours is how far the running-cost walk looks around a quiet
// hour for neighboring activity before treating it as a real gap.
const sessionBridgeHours = 2

// Session is a contiguous run of hourly summaries reconstructed from gaps in
// activity. Sessions are derived on demand and never persisted.
type Session struct {
	StartHour time.Time
	EndHour   time.Time
	Hours     []HourlySummary
	TotalCost float64

	// IsOngoing is true only for the session containing the newest hour of
	// the input when it is still below the five-hour cap.
	IsOngoing bool
}

// ReconstructSessions partitions a chronologically ascending, dense hourly
// series into sessions. A session opens on the first hour with cost, absorbs
// interior quiet hours, and closes when it reaches five member hours. The
// result is newest first.
func ReconstructSessions(hours []HourlySummary) []Session {
	var sessions []Session
	var current *Session

	flush := func() {
		if current != nil {
			sessions = append(sessions, *current)
			current = nil
		}
	}

	for _, h := range hours {
		if current == nil {
			if h.Cost <= 0 {
				continue
			}
			current = &Session{StartHour: h.Hour}
		}

		current.Hours = append(current.Hours, h)
		current.EndHour = h.Hour
		current.TotalCost += h.Cost

		if len(current.Hours) >= SessionMaxHours {
			flush()
		}
	}
	flush()

	if len(sessions) > 0 && len(hours) > 0 {
		last := &sessions[len(sessions)-1]
		tail := hours[len(hours)-1].Hour
		if last.EndHour.Equal(tail) && len(last.Hours) < SessionMaxHours {
			last.IsOngoing = true
		}
	}

	// Newest first for callers.
	for i, j := 0, len(sessions)-1; i < j; i, j = i+1, j-1 {
		sessions[i], sessions[j] = sessions[j], sessions[i]
	}
	return sessions
}

// RunningSessionCost computes the cost of the currently active session from
// the full (non-windowed) hourly series plus any live events from the
// partially elapsed current hour that the series does not yet contain.
//
// The most recent hour with cost anchors the session; if it ended five or
// more hours before now the session has expired and only live activity
// counts. From the anchor the walk extends backward up to four hours,
// including quiet hours that bridge activity within a two-hour look on
// either side, and stops at the first true gap.
func RunningSessionCost(hours []HourlySummary, now time.Time, liveEvents []UsageEvent) float64 {
	currentHour := TruncateHour(now)

	var live float64
	for _, e := range liveEvents {
		if TruncateHour(e.Timestamp.In(now.Location())).Equal(currentHour) {
			live += e.Cost
		}
	}

	anchor := -1
	for i := len(hours) - 1; i >= 0; i-- {
		if hours[i].Cost > 0 {
			anchor = i
			break
		}
	}
	if anchor == -1 {
		return live
	}

	anchorHour := TruncateHour(hours[anchor].Hour)
	if currentHour.Sub(anchorHour) >= SessionMaxHours*time.Hour {
		return live // session expired
	}

	total := hours[anchor].Cost
	for i := anchor - 1; i >= 0 && anchor-i < SessionMaxHours; i-- {
		if hours[i].Cost > 0 {
			total += hours[i].Cost
			continue
		}
		if !bridgesActivity(hours, i) {
			break
		}
	}
	return total + live
}

// bridgesActivity reports whether the quiet hour at index i sits between
// activity within sessionBridgeHours on both sides.
func bridgesActivity(hours []HourlySummary, i int) bool {
	before := false
	for j := i - 1; j >= 0 && i-j <= sessionBridgeHours; j-- {
		if hours[j].Cost > 0 {
			before = true
			break
		}
	}
	after := false
	for j := i + 1; j < len(hours) && j-i <= sessionBridgeHours; j++ {
		if hours[j].Cost > 0 {
			after = true
			break
		}
	}
	return before && after
}
