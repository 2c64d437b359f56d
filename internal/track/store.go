package track

import (
	"time"

	"github.com/ppe-watch/compliance/internal/monitoring"
)

// Defaults for the per-track history. 30 snapshots is about one second of
// footage at 30 fps, which matches the occlusion gap the resolver tolerates.
const (
	DefaultHistoryCapacity = 30
	DefaultMaxGapFrames    = 30
)

// Store owns the tracking state for one processing session: a lazily
// created snapshot ring per track plus the per-day set of zones already
// counted for each track. A Store must only be mutated by its session's
// processing loop; concurrent sessions each construct their own Store.
//
// Dedup sets reset when the local calendar date advances; snapshot rings
// survive rollover untouched.
type Store struct {
	historyCapacity int
	loc             *time.Location

	rings   map[int64]*SnapshotRing
	counted map[int64]map[string]bool

	// currentDay is the local date (YYYY-MM-DD) the dedup sets belong to.
	// Empty until the first event is observed.
	currentDay string
}

// NewStore creates a session-scoped store. historyCapacity <= 0 selects the
// default. loc determines local-midnight rollover; nil means time.Local.
func NewStore(historyCapacity int, loc *time.Location) *Store {
	if historyCapacity <= 0 {
		historyCapacity = DefaultHistoryCapacity
	}
	if loc == nil {
		loc = time.Local
	}
	return &Store{
		historyCapacity: historyCapacity,
		loc:             loc,
		rings:           make(map[int64]*SnapshotRing),
		counted:         make(map[int64]map[string]bool),
	}
}

// Update appends a snapshot to the track's ring, creating the ring on first
// observation of the track.
func (s *Store) Update(trackID int64, snap Snapshot) {
	ring, ok := s.rings[trackID]
	if !ok {
		ring = NewSnapshotRing(s.historyCapacity)
		s.rings[trackID] = ring
	}
	ring.Add(snap)
}

// Lookback returns the most recent snapshot for the track whose frame is
// within maxGap frames of currentFrame. The second return is false when the
// track has no recent-enough history.
func (s *Store) Lookback(trackID, currentFrame, maxGap int64) (Snapshot, bool) {
	return s.FindRecent(trackID, currentFrame, maxGap, func(Snapshot) bool { return true })
}

// FindRecent scans a track's history most-recent-first and returns the
// first snapshot within maxGap frames of currentFrame that satisfies match.
// Older snapshots past the gap are never considered.
func (s *Store) FindRecent(trackID, currentFrame, maxGap int64, match func(Snapshot) bool) (Snapshot, bool) {
	ring, ok := s.rings[trackID]
	if !ok {
		return Snapshot{}, false
	}
	for n := 1; n <= ring.Size(); n++ {
		snap, ok := ring.Previous(n)
		if !ok {
			break
		}
		if currentFrame-snap.FrameIdx > maxGap {
			// History is frame-ordered, everything older is out of range too.
			return Snapshot{}, false
		}
		if match(snap) {
			return snap, true
		}
	}
	return Snapshot{}, false
}

// History returns the snapshot ring for a track, or nil when the track has
// never been observed.
func (s *Store) History(trackID int64) *SnapshotRing {
	return s.rings[trackID]
}

// TrackCount returns the number of distinct tracks observed this session.
func (s *Store) TrackCount() int {
	return len(s.rings)
}

// RolloverIfNeeded advances the store's day marker when the event's local
// calendar date has moved past the stored one, clearing all dedup sets.
// The date is derived from the event's own timestamp, not a cached wall
// clock, so sessions spanning midnight date their events consistently.
//
// A date earlier than the stored one means the clock moved backwards; that
// is logged and the day is treated as unchanged rather than wiping dedup
// state spuriously.
func (s *Store) RolloverIfNeeded(eventTime time.Time) {
	day := eventTime.In(s.loc).Format("2006-01-02")
	switch {
	case s.currentDay == "":
		s.currentDay = day
	case day > s.currentDay:
		monitoring.Logf("track store: day rollover %s -> %s, clearing dedup state for %d tracks",
			s.currentDay, day, len(s.counted))
		s.counted = make(map[int64]map[string]bool)
		s.currentDay = day
	case day < s.currentDay:
		monitoring.Logf("track store: event date %s is before current day %s, keeping day unchanged", day, s.currentDay)
	}
}

// ShouldCount reports whether the (track, zone) pair has not yet produced an
// event today. Rollover is applied first using the event's own timestamp, so
// the check and any subsequent MarkCounted observe the same day.
func (s *Store) ShouldCount(trackID int64, zone string, eventTime time.Time) bool {
	s.RolloverIfNeeded(eventTime)
	return !s.counted[trackID][zone]
}

// MarkCounted records that the (track, zone) pair was counted today.
// Idempotent. Callers must only invoke this after the event has been
// durably written.
func (s *Store) MarkCounted(trackID int64, zone string, eventTime time.Time) {
	s.RolloverIfNeeded(eventTime)
	zones, ok := s.counted[trackID]
	if !ok {
		zones = make(map[string]bool)
		s.counted[trackID] = zones
	}
	zones[zone] = true
}

// CurrentDay returns the local date (YYYY-MM-DD) the dedup sets cover, or
// the empty string before the first event.
func (s *Store) CurrentDay() string {
	return s.currentDay
}
