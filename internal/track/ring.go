// Package track holds per-track equipment-presence history and the per-day
// deduplication bookkeeping that enforces at-most-once counting per person
// per zone per day.
package track

// Snapshot records the equipment belief for one track at one frame.
// VisibilityScore expresses how complete the detection was: 1.0 for a fully
// visible, unoccluded person, lower when presence was partially inferred.
type Snapshot struct {
	FrameIdx        int64
	HasHelmet       bool
	HasVest         bool
	VisibilityScore float64
}

// SnapshotRing is a fixed-capacity history of snapshots for one track. When
// full, adding a snapshot evicts the oldest. Snapshots are stored in the
// order they arrive, which the processing loop guarantees is ascending
// frame order.
type SnapshotRing struct {
	snapshots []Snapshot
	capacity  int
	head      int // next write position
	size      int
}

// NewSnapshotRing creates a ring with the given capacity.
func NewSnapshotRing(capacity int) *SnapshotRing {
	if capacity < 1 {
		capacity = DefaultHistoryCapacity
	}
	return &SnapshotRing{
		snapshots: make([]Snapshot, capacity),
		capacity:  capacity,
	}
}

// Add stores a snapshot, overwriting the oldest when at capacity.
func (r *SnapshotRing) Add(s Snapshot) {
	r.snapshots[r.head] = s
	r.head = (r.head + 1) % r.capacity
	if r.size < r.capacity {
		r.size++
	}
}

// Previous returns the snapshot n steps back from the most recent.
// Previous(1) is the most recently added snapshot. The second return is
// false when the requested snapshot does not exist.
func (r *SnapshotRing) Previous(n int) (Snapshot, bool) {
	if n < 1 || n > r.size {
		return Snapshot{}, false
	}
	idx := (r.head - n + r.capacity) % r.capacity
	return r.snapshots[idx], true
}

// Size returns the number of snapshots currently held.
func (r *SnapshotRing) Size() int { return r.size }

// Capacity returns the maximum number of snapshots the ring can hold.
func (r *SnapshotRing) Capacity() int { return r.capacity }
