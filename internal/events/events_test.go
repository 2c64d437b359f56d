package events

import (
	"strings"
	"testing"
	"time"

	"github.com/ppe-watch/compliance/internal/compliance"
	"github.com/ppe-watch/compliance/internal/fsutil"
)

func testEvent(ts time.Time, trackID int64, zone string, v compliance.ViolationType) compliance.Event {
	return compliance.Event{
		Version:   compliance.SchemaVersion,
		Timestamp: ts,
		CameraID:  "cam_1",
		TrackID:   trackID,
		Zone:      zone,
		HasHelmet: v == compliance.Compliant || v == compliance.NoVest,
		HasVest:   v == compliance.Compliant || v == compliance.NoHelmet,
		Violation: v,
		FrameIdx:  42,
	}
}

func TestWriterHeaderOnce(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	w, err := NewWriter(fs, "logs", time.UTC)
	if err != nil {
		t.Fatal(err)
	}

	ts := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	for i := int64(1); i <= 3; i++ {
		if err := w.Append(testEvent(ts.Add(time.Duration(i)*time.Minute), i, "dock", compliance.NoHelmet)); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	lines := fs.Lines("logs/events_2026-03-10.csv")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want header + 3 rows:\n%s", len(lines), strings.Join(lines, "\n"))
	}
	if lines[0] != "timestamp,camera_id,track_id,zone,has_helmet,has_vest,violation_type,frame_idx" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], ",cam_1,1,dock,false,true,no_helmet,42") {
		t.Errorf("row = %q", lines[1])
	}
}

func TestWriterPartitionsByLocalDay(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	w, err := NewWriter(fs, "logs", time.UTC)
	if err != nil {
		t.Fatal(err)
	}

	before := time.Date(2026, 3, 10, 23, 59, 30, 0, time.UTC)
	after := time.Date(2026, 3, 11, 0, 0, 30, 0, time.UTC)
	if err := w.Append(testEvent(before, 1, "dock", compliance.Compliant)); err != nil {
		t.Fatal(err)
	}
	if err := w.Append(testEvent(after, 2, "dock", compliance.Compliant)); err != nil {
		t.Fatal(err)
	}

	if got := len(fs.Lines("logs/events_2026-03-10.csv")); got != 2 {
		t.Errorf("day one has %d lines, want header + 1 row", got)
	}
	if got := len(fs.Lines("logs/events_2026-03-11.csv")); got != 2 {
		t.Errorf("day two has %d lines, want header + 1 row", got)
	}
}

func TestWriterSurfacesPersistentFailure(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	w, err := NewWriter(fs, "logs", time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	fs.FailAppends = true

	ts := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	if err := w.Append(testEvent(ts, 1, "dock", compliance.NoVest)); err == nil {
		t.Fatal("expected append error when every write fails")
	}

	// Once the fault clears, the header still lands despite the file
	// having been created by the failed attempt.
	fs.FailAppends = false
	if err := w.Append(testEvent(ts.Add(time.Second), 1, "dock", compliance.NoVest)); err != nil {
		t.Fatal(err)
	}
	lines := fs.Lines("logs/events_2026-03-10.csv")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "timestamp,") {
		t.Fatalf("unexpected log contents: %q", lines)
	}
}

func TestReaderRoundTrip(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	w, err := NewWriter(fs, "logs", time.UTC)
	if err != nil {
		t.Fatal(err)
	}

	ts := time.Date(2026, 3, 10, 14, 30, 15, 250_000_000, time.UTC)
	want := testEvent(ts, 17, "assembly", compliance.NoHelmetNoVest)
	if err := w.Append(want); err != nil {
		t.Fatal(err)
	}

	r := NewReader(fs, "logs")
	evs, err := r.LoadDay("2026-03-10")
	if err != nil {
		t.Fatal(err)
	}
	if len(evs) != 1 {
		t.Fatalf("got %d events, want 1", len(evs))
	}
	got := evs[0]
	if !got.Timestamp.Equal(want.Timestamp) {
		t.Errorf("timestamp = %v, want %v", got.Timestamp, want.Timestamp)
	}
	if got.TrackID != 17 || got.Zone != "assembly" || got.Violation != compliance.NoHelmetNoVest {
		t.Errorf("event = %+v", got)
	}
	if got.FrameIdx != 42 || got.CameraID != "cam_1" {
		t.Errorf("event = %+v", got)
	}
}

func TestReaderRejectsBadDayString(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	r := NewReader(fs, "logs")
	if _, err := r.LoadDay("../secrets"); err == nil {
		t.Fatal("expected error for non-date day string")
	}
}

func TestReaderMissingDayIsEmpty(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	r := NewReader(fs, "logs")
	evs, err := r.LoadDay("2026-01-01")
	if err != nil {
		t.Fatalf("missing day should not error: %v", err)
	}
	if len(evs) != 0 {
		t.Errorf("got %d events, want 0", len(evs))
	}
}

func TestReaderRejectsMalformedRows(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	w, err := NewWriter(fs, "logs", time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	ts := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	if err := w.Append(testEvent(ts, 1, "dock", compliance.Compliant)); err != nil {
		t.Fatal(err)
	}

	f, _, err := fs.OpenAppend("logs/events_2026-03-10.csv", 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write([]byte("not,a,valid,row\n")); err != nil {
		t.Fatal(err)
	}
	f.Close()

	r := NewReader(fs, "logs")
	if _, err := r.LoadDay("2026-03-10"); err == nil {
		t.Fatal("expected parse error for malformed row")
	}
}

func TestReaderDays(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	w, err := NewWriter(fs, "logs", time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	for _, ts := range []time.Time{
		time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	} {
		if err := w.Append(testEvent(ts, 1, "dock", compliance.Compliant)); err != nil {
			t.Fatal(err)
		}
	}

	r := NewReader(fs, "logs")
	days, err := r.Days()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"2026-03-09", "2026-03-10", "2026-03-11"}
	if len(days) != len(want) {
		t.Fatalf("days = %v, want %v", days, want)
	}
	for i := range want {
		if days[i] != want[i] {
			t.Fatalf("days = %v, want %v", days, want)
		}
	}
}
