// Package pipeline runs a processing session: it consumes per-frame
// detection records, resolves compliance for every tracked person, and
// emits deduplicated events.
package pipeline

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/ppe-watch/compliance/internal/compliance"
	"github.com/ppe-watch/compliance/internal/geom"
	"github.com/ppe-watch/compliance/internal/monitoring"
)

// Detection is one detector box in pixel coordinates, x1 y1 x2 y2.
type Detection struct {
	Box        [4]float64 `json:"box"`
	Confidence float64    `json:"confidence"`
}

// PersonDetection is a tracked person in one frame.
type PersonDetection struct {
	TrackID    int64      `json:"track_id"`
	Box        [4]float64 `json:"box"`
	Visibility float64    `json:"visibility"`
}

// FrameDetections is one line of detector output: everything seen in a
// single frame.
type FrameDetections struct {
	FrameIdx int64             `json:"frame_idx"`
	Persons  []PersonDetection `json:"persons"`
	Helmets  []Detection       `json:"helmets"`
	Vests    []Detection       `json:"vests"`
}

// Resolver is the decision half of the pipeline.
type Resolver interface {
	Resolve(obs compliance.Observation) compliance.Decision
}

// Emitter is the output half.
type Emitter interface {
	Emit(d compliance.Decision) (bool, error)
}

// Mirror receives a copy of each emitted event, typically the SQLite
// store. Mirror failures are logged, not fatal: the CSV log is the
// source of truth.
type Mirror interface {
	RecordEvent(ev compliance.Event, loc *time.Location) error
}

// Stats summarizes one session.
type Stats struct {
	SessionID     string        `json:"session_id"`
	CameraID      string        `json:"camera_id"`
	Frames        int64         `json:"frames"`
	Observations  int64         `json:"observations"`
	EventsEmitted int64         `json:"events_emitted"`
	Violations    int64         `json:"violations"`
	Unzoned       int64         `json:"unzoned"`
	WriteFailures int64         `json:"write_failures"`
	Elapsed       time.Duration `json:"elapsed"`
}

// Pipeline wires a detection stream into decisions and events.
type Pipeline struct {
	cameraID  string
	resolver  Resolver
	emitter   Emitter
	mirror    Mirror
	loc       *time.Location
	frameRate float64
	start     time.Time
}

// NewPipeline builds a session pipeline. start anchors frame timestamps
// (frame N lands at start + N/frameRate); a zero start means now.
// mirror may be nil.
func NewPipeline(cameraID string, resolver Resolver, emitter Emitter, mirror Mirror, loc *time.Location, frameRate float64, start time.Time) *Pipeline {
	if loc == nil {
		loc = time.Local
	}
	if start.IsZero() {
		start = time.Now()
	}
	return &Pipeline{
		cameraID:  cameraID,
		resolver:  resolver,
		emitter:   emitter,
		mirror:    mirror,
		loc:       loc,
		frameRate: frameRate,
		start:     start,
	}
}

// frameTime derives an event timestamp from a frame index.
func (p *Pipeline) frameTime(frameIdx int64) time.Time {
	offset := time.Duration(float64(frameIdx) / p.frameRate * float64(time.Second))
	return p.start.Add(offset)
}

// Process consumes newline-delimited frame records until EOF or context
// cancellation. A malformed line aborts the session: detector output is
// machine-generated, so corruption means something upstream is wrong.
func (p *Pipeline) Process(ctx context.Context, r io.Reader) (Stats, error) {
	stats := Stats{
		SessionID: uuid.NewString(),
		CameraID:  p.cameraID,
	}
	began := time.Now()
	defer func() { stats.Elapsed = time.Since(began) }()

	monitoring.Logf("session %s: processing camera %s", stats.SessionID, p.cameraID)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)

	for lineNo := 1; scanner.Scan(); lineNo++ {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var frame FrameDetections
		if err := json.Unmarshal(line, &frame); err != nil {
			return stats, fmt.Errorf("parse detection line %d: %w", lineNo, err)
		}
		stats.Frames++

		ts := p.frameTime(frame.FrameIdx)
		helmets := toBoxes(frame.Helmets)
		vests := toBoxes(frame.Vests)

		for _, person := range frame.Persons {
			stats.Observations++
			decision := p.resolver.Resolve(compliance.Observation{
				TrackID:    person.TrackID,
				Box:        toBox(person.Box),
				Helmets:    helmets,
				Vests:      vests,
				Visibility: person.Visibility,
				FrameIdx:   frame.FrameIdx,
				Timestamp:  ts,
			})
			if !decision.Zoned {
				stats.Unzoned++
				continue
			}

			emitted, err := p.emitter.Emit(decision)
			if err != nil {
				stats.WriteFailures++
				monitoring.Logf("session %s: %v", stats.SessionID, err)
				continue
			}
			if !emitted {
				continue
			}
			stats.EventsEmitted++
			if decision.Violation.IsViolation() {
				stats.Violations++
			}
			if p.mirror != nil {
				ev := compliance.Event{
					Version:   compliance.SchemaVersion,
					Timestamp: decision.Timestamp,
					CameraID:  p.cameraID,
					TrackID:   decision.TrackID,
					Zone:      decision.Zone,
					HasHelmet: decision.HasHelmet,
					HasVest:   decision.HasVest,
					Violation: decision.Violation,
					FrameIdx:  decision.FrameIdx,
				}
				if err := p.mirror.RecordEvent(ev, p.loc); err != nil {
					monitoring.Logf("session %s: mirror event: %v", stats.SessionID, err)
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("read detection stream: %w", err)
	}

	monitoring.Logf("session %s: %d frames, %d observations, %d events (%d violations)",
		stats.SessionID, stats.Frames, stats.Observations, stats.EventsEmitted, stats.Violations)
	return stats, nil
}

func toBox(b [4]float64) geom.BoundingBox {
	return geom.BoundingBox{X1: b[0], Y1: b[1], X2: b[2], Y2: b[3]}
}

func toBoxes(ds []Detection) []geom.BoundingBox {
	if len(ds) == 0 {
		return nil
	}
	boxes := make([]geom.BoundingBox, len(ds))
	for i, d := range ds {
		boxes[i] = toBox(d.Box)
	}
	return boxes
}
