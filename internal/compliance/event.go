package compliance

import "time"

// SchemaVersion tags the event record layout. Bump when a column is
// added or changes meaning so downstream consumers can branch.
const SchemaVersion = 1

// Event is one confirmed, deduplicated compliance decision for a
// (track, zone, day) triple.
type Event struct {
	Version   int           `json:"version"`
	Timestamp time.Time     `json:"timestamp"`
	CameraID  string        `json:"camera_id"`
	TrackID   int64         `json:"track_id"`
	Zone      string        `json:"zone"`
	HasHelmet bool          `json:"has_helmet"`
	HasVest   bool          `json:"has_vest"`
	Violation ViolationType `json:"violation_type"`
	FrameIdx  int64         `json:"frame_idx"`
}
