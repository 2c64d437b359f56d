package compliance

import (
	"fmt"

	"github.com/ppe-watch/compliance/internal/track"
)

// EventSink persists confirmed events. Implementations must make the
// event durable before returning nil.
type EventSink interface {
	Append(ev Event) error
}

// Emitter gates decisions through per-day deduplication and hands the
// survivors to a sink. A (track, zone) pair is marked counted only
// after the sink accepted the event, so a failed write leaves the pair
// eligible for the next frame.
type Emitter struct {
	store    *track.Store
	sink     EventSink
	cameraID string
}

func NewEmitter(store *track.Store, sink EventSink, cameraID string) *Emitter {
	return &Emitter{store: store, sink: sink, cameraID: cameraID}
}

// Emit writes at most one event for the decision. It reports whether an
// event was persisted. Unzoned decisions and repeats of an already
// counted (track, zone, day) pair are dropped silently.
func (e *Emitter) Emit(d Decision) (bool, error) {
	if !d.Zoned {
		return false, nil
	}
	if !e.store.ShouldCount(d.TrackID, d.Zone, d.Timestamp) {
		return false, nil
	}
	ev := Event{
		Version:   SchemaVersion,
		Timestamp: d.Timestamp,
		CameraID:  e.cameraID,
		TrackID:   d.TrackID,
		Zone:      d.Zone,
		HasHelmet: d.HasHelmet,
		HasVest:   d.HasVest,
		Violation: d.Violation,
		FrameIdx:  d.FrameIdx,
	}
	if err := e.sink.Append(ev); err != nil {
		return false, fmt.Errorf("append event for track %d in %q: %w", d.TrackID, d.Zone, err)
	}
	e.store.MarkCounted(d.TrackID, d.Zone, d.Timestamp)
	return true, nil
}
