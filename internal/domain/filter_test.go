package domain

import (
	"testing"
	"time"
)

func TestFilterByTimeRange(t *testing.T) {
	events := []UsageEvent{
		ev("2024-01-01T10:00:00Z", 1, "a", "s1"),
		ev("2024-01-02T10:00:00Z", 2, "a", "s1"),
		ev("2024-01-03T23:59:59Z", 3, "a", "s1"),
	}

	t.Run("no constraints", func(t *testing.T) {
		got, err := FilterByTimeRange(events, "", "", time.UTC)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 3 {
			t.Errorf("got %d events, want 3", len(got))
		}
	})

	t.Run("since only", func(t *testing.T) {
		got, err := FilterByTimeRange(events, "2024-01-02", "", time.UTC)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 {
			t.Errorf("got %d events, want 2", len(got))
		}
	})

	t.Run("until includes end of day", func(t *testing.T) {
		got, err := FilterByTimeRange(events, "", "2024-01-03", time.UTC)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 3 {
			t.Errorf("got %d events, want 3", len(got))
		}
	})

	t.Run("bad date", func(t *testing.T) {
		if _, err := FilterByTimeRange(events, "01/02/2024", "", time.UTC); err == nil {
			t.Error("expected error for malformed date")
		}
	})
}

func TestFilterByDate(t *testing.T) {
	events := []UsageEvent{
		ev("2024-01-01T10:00:00Z", 1, "a", "s1"),
		ev("2024-01-01T22:00:00Z", 2, "a", "s1"),
		ev("2024-01-02T10:00:00Z", 3, "a", "s1"),
	}
	got := FilterByDate(events, "2024-01-01", time.UTC)
	if len(got) != 2 {
		t.Errorf("got %d events, want 2", len(got))
	}
}

func TestMostRecentTimestamp(t *testing.T) {
	if !MostRecentTimestamp(nil).IsZero() {
		t.Error("empty list should yield zero time")
	}
	events := []UsageEvent{
		ev("2024-01-02T10:00:00Z", 1, "a", "s1"),
		ev("2024-01-05T10:00:00Z", 1, "a", "s1"),
		ev("2024-01-01T10:00:00Z", 1, "a", "s1"),
	}
	want, _ := time.Parse(time.RFC3339, "2024-01-05T10:00:00Z")
	if got := MostRecentTimestamp(events); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
