package report

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ppe-watch/compliance/internal/compliance"
)

func ev(hour int, trackID int64, zone string, v compliance.ViolationType) compliance.Event {
	return compliance.Event{
		Version:   compliance.SchemaVersion,
		Timestamp: time.Date(2026, 3, 10, hour, 15, 0, 0, time.UTC),
		CameraID:  "cam_1",
		TrackID:   trackID,
		Zone:      zone,
		HasHelmet: v == compliance.Compliant || v == compliance.NoVest,
		HasVest:   v == compliance.Compliant || v == compliance.NoHelmet,
		Violation: v,
		FrameIdx:  1,
	}
}

func TestAggregateEmptyDay(t *testing.T) {
	agg := Aggregate("2026-03-10", nil, time.UTC, 0)

	if agg.TotalEvents != 0 || agg.UniquePersons != 0 || agg.UniqueViolators != 0 {
		t.Errorf("empty day should be all zeros: %+v", agg)
	}
	if agg.ViolationRate != 0 {
		t.Errorf("violation rate = %v, want 0 with no events", agg.ViolationRate)
	}
	if len(agg.TopViolators) != 0 || len(agg.PerZone) != 0 {
		t.Errorf("empty day should have empty tables: %+v", agg)
	}
}

func TestAggregateCounts(t *testing.T) {
	evs := []compliance.Event{
		ev(8, 1, "dock", compliance.Compliant),
		ev(8, 2, "dock", compliance.NoHelmet),
		ev(9, 2, "assembly", compliance.NoVest),
		ev(9, 3, "assembly", compliance.Compliant),
		ev(14, 4, "dock", compliance.NoHelmetNoVest),
	}
	agg := Aggregate("2026-03-10", evs, time.UTC, 0)

	if agg.TotalEvents != 5 {
		t.Errorf("total events = %d, want 5", agg.TotalEvents)
	}
	if agg.UniquePersons != 4 {
		t.Errorf("unique persons = %d, want 4", agg.UniquePersons)
	}
	if agg.UniqueViolators != 2 {
		t.Errorf("unique violators = %d, want 2", agg.UniqueViolators)
	}
	// 3 violation events out of 5 total.
	if got := agg.ViolationRate; math.Abs(got-0.6) > 1e-9 {
		t.Errorf("violation rate = %v, want 0.6", got)
	}

	wantZones := map[string]ZoneCount{
		"dock":     {Events: 3, Violations: 2},
		"assembly": {Events: 2, Violations: 1},
	}
	if diff := cmp.Diff(wantZones, agg.PerZone); diff != "" {
		t.Errorf("per-zone counts mismatch (-want +got):\n%s", diff)
	}

	if agg.Hourly.Counts[8] != 1 || agg.Hourly.Counts[9] != 1 || agg.Hourly.Counts[14] != 1 {
		t.Errorf("hourly counts = %v", agg.Hourly.Counts)
	}
	if agg.Hourly.PeakHour != 8 {
		t.Errorf("peak hour = %d, want first maximal hour 8", agg.Hourly.PeakHour)
	}
}

func TestAggregateTopViolatorsOrdering(t *testing.T) {
	evs := []compliance.Event{
		// Track 5: two violations, first at 09:15.
		ev(9, 5, "dock", compliance.NoHelmet),
		ev(11, 5, "assembly", compliance.NoHelmet),
		// Track 2: two violations, first at 08:15. Ties with track 5 on
		// count; its earlier first event ranks it higher.
		ev(8, 2, "dock", compliance.NoVest),
		ev(12, 2, "assembly", compliance.NoVest),
		// Track 9: one violation.
		ev(10, 9, "dock", compliance.NoHelmetNoVest),
	}
	agg := Aggregate("2026-03-10", evs, time.UTC, 0)

	want := []TopViolator{
		{TrackID: 2, Violations: 2, FirstSeen: time.Date(2026, 3, 10, 8, 15, 0, 0, time.UTC)},
		{TrackID: 5, Violations: 2, FirstSeen: time.Date(2026, 3, 10, 9, 15, 0, 0, time.UTC)},
		{TrackID: 9, Violations: 1, FirstSeen: time.Date(2026, 3, 10, 10, 15, 0, 0, time.UTC)},
	}
	if diff := cmp.Diff(want, agg.TopViolators); diff != "" {
		t.Errorf("top violators mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregateTieBreakUsesFirstEvent(t *testing.T) {
	evs := []compliance.Event{
		// Track 7 enters compliant at 08:15 and violates later.
		ev(8, 7, "assembly", compliance.Compliant),
		ev(10, 7, "dock", compliance.NoHelmet),
		// Track 8's only event is a violation at 09:15. Equal counts;
		// track 7's earlier first event of the day ranks it higher.
		ev(9, 8, "dock", compliance.NoVest),
	}
	agg := Aggregate("2026-03-10", evs, time.UTC, 0)

	want := []TopViolator{
		{TrackID: 7, Violations: 1, FirstSeen: time.Date(2026, 3, 10, 8, 15, 0, 0, time.UTC)},
		{TrackID: 8, Violations: 1, FirstSeen: time.Date(2026, 3, 10, 9, 15, 0, 0, time.UTC)},
	}
	if diff := cmp.Diff(want, agg.TopViolators); diff != "" {
		t.Errorf("top violators mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregateTopViolatorsLimit(t *testing.T) {
	var evs []compliance.Event
	for id := int64(1); id <= 10; id++ {
		evs = append(evs, ev(9, id, "dock", compliance.NoHelmet))
	}
	agg := Aggregate("2026-03-10", evs, time.UTC, 3)
	if len(agg.TopViolators) != 3 {
		t.Fatalf("got %d top violators, want 3", len(agg.TopViolators))
	}
	// Equal counts and timestamps fall back to track ID order.
	for i, tv := range agg.TopViolators {
		if tv.TrackID != int64(i+1) {
			t.Errorf("rank %d is track %d, want %d", i, tv.TrackID, i+1)
		}
	}
}

func TestAggregateHourlyUsesLocation(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	e := ev(14, 1, "dock", compliance.NoHelmet)
	agg := Aggregate("2026-03-10", []compliance.Event{e}, loc, 0)
	wantHour := e.Timestamp.In(loc).Hour()
	if agg.Hourly.Counts[wantHour] != 1 {
		t.Errorf("hourly counts = %v, want bucket %d", agg.Hourly.Counts, wantHour)
	}
}
