package domain

import "time"

// UsageEvent is one recorded unit of work parsed from a JSONL log line.
// Events are immutable once parsed; the only mutation the system performs
// is dropping the whole per-file list when its source file changes.
type UsageEvent struct {
	Timestamp           time.Time
	InputTokens         int
	OutputTokens        int
	CacheCreationTokens int
	CacheReadTokens     int
	Cost                float64
	Project             string
	Session             string
	SourcePath          string
	MessageID           string
	RequestID           string
}

// TotalTokens returns input + output + cache tokens.
func (e UsageEvent) TotalTokens() int {
	return e.InputTokens + e.OutputTokens + e.CacheCreationTokens + e.CacheReadTokens
}

// DedupKey returns the unique key for deduplication.
func (e UsageEvent) DedupKey() string {
	return e.MessageID + ":" + e.RequestID
}
