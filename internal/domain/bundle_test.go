package domain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestAggregate(t *testing.T) {
	now := time.Date(2024, 5, 10, 14, 30, 0, 0, time.UTC)
	events := []UsageEvent{
		ev("2024-05-10T09:15:00Z", 1.0, "alpha", "s1"),
		ev("2024-05-10T13:05:00Z", 2.0, "alpha", "s1"),
		ev("2024-05-09T11:00:00Z", 0.5, "beta", "s2"),
		ev("2024-05-06T08:00:00Z", 0.25, "beta", "s3"),
	}
	opts := AggregateOptions{TZ: time.UTC, HoursWindow: 24, WeekStart: time.Sunday}

	b := Aggregate(events, now, opts)

	if len(b.Daily) != 3 {
		t.Errorf("daily days = %d, want 3", len(b.Daily))
	}
	if b.Today == nil {
		t.Fatal("Today is nil, want 2024-05-10 summary")
	}
	if b.Today.Date != "2024-05-10" || b.Today.Cost != 3.0 {
		t.Errorf("today = %s/%.2f, want 2024-05-10/3.00", b.Today.Date, b.Today.Cost)
	}
	if len(b.Sessions) != 3 || len(b.Projects) != 2 {
		t.Errorf("sessions/projects = %d/%d, want 3/2", len(b.Sessions), len(b.Projects))
	}
	// 2024-05-10 is a Friday; the week starting Sunday 05-05 holds all events.
	if b.ThisWeek.Cost != 3.75 {
		t.Errorf("week cost = %.2f, want 3.75", b.ThisWeek.Cost)
	}
	if b.ThisMonth.Cost != 3.75 {
		t.Errorf("month cost = %.2f, want 3.75", b.ThisMonth.Cost)
	}
	if len(b.RecentSessions) == 0 {
		t.Error("expected at least one reconstructed session")
	}
	if b.RunningSessionCost != 2.0 {
		t.Errorf("running session cost = %.2f, want 2.00", b.RunningSessionCost)
	}
	if !b.GeneratedAt.Equal(now) {
		t.Errorf("GeneratedAt = %v, want %v", b.GeneratedAt, now)
	}
}

func TestAggregate_Deterministic(t *testing.T) {
	now := time.Date(2024, 5, 10, 14, 30, 0, 0, time.UTC)
	events := []UsageEvent{
		ev("2024-05-10T09:15:00Z", 1.0, "alpha", "s1"),
		ev("2024-05-10T13:05:00Z", 2.0, "alpha", "s2"),
		ev("2024-05-09T11:00:00Z", 0.5, "beta", "s2"),
		ev("2024-05-08T04:00:00Z", 0.5, "beta", "s4"),
		ev("2024-05-08T04:30:00Z", 0.5, "gamma", "s5"),
	}
	opts := AggregateOptions{TZ: time.UTC}

	first := Aggregate(events, now, opts)
	second := Aggregate(events, now, opts)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated aggregation differs (-first +second):\n%s", diff)
	}
}

func TestAggregate_Empty(t *testing.T) {
	now := time.Date(2024, 5, 10, 14, 30, 0, 0, time.UTC)
	b := Aggregate(nil, now, AggregateOptions{TZ: time.UTC})

	if b.Today != nil {
		t.Errorf("Today = %+v, want nil", b.Today)
	}
	if len(b.Daily) != 0 || len(b.Sessions) != 0 || len(b.Projects) != 0 {
		t.Error("expected empty summaries")
	}
	// Hourly series stays dense even with no events.
	if len(b.Hourly) != DefaultHoursWindow {
		t.Errorf("hourly slots = %d, want %d", len(b.Hourly), DefaultHoursWindow)
	}
	if b.RunningSessionCost != 0 {
		t.Errorf("running session cost = %.2f, want 0", b.RunningSessionCost)
	}
}
