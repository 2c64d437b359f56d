// Package events persists compliance events to day-partitioned CSV
// files and reads them back for reporting.
package events

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ppe-watch/compliance/internal/compliance"
	"github.com/ppe-watch/compliance/internal/fsutil"
)

// Columns of the event log, in order. The header is written once when a
// day's file is created and never repeated.
var csvHeader = []string{
	"timestamp", "camera_id", "track_id", "zone",
	"has_helmet", "has_vest", "violation_type", "frame_idx",
}

const appendRetries = 3

// Writer appends events to one CSV file per local day under dir. The
// target file is chosen from each event's own timestamp, so a session
// that crosses midnight lands rows in both days' files.
type Writer struct {
	fs  fsutil.FileSystem
	dir string
	loc *time.Location
}

// NewWriter creates the log directory if needed and returns a writer
// over it.
func NewWriter(fs fsutil.FileSystem, dir string, loc *time.Location) (*Writer, error) {
	if loc == nil {
		loc = time.Local
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create event log dir %s: %w", dir, err)
	}
	return &Writer{fs: fs, dir: dir, loc: loc}, nil
}

// FileForDay returns the log path for a day in YYYY-MM-DD form.
func (w *Writer) FileForDay(day string) string {
	return filepath.Join(w.dir, "events_"+day+".csv")
}

// Append writes one event row, creating the day's file with a header on
// first use. Transient failures are retried a few times before the
// error is surfaced to the caller.
func (w *Writer) Append(ev compliance.Event) error {
	day := ev.Timestamp.In(w.loc).Format("2006-01-02")
	path := w.FileForDay(day)

	var lastErr error
	for attempt := 0; attempt < appendRetries; attempt++ {
		if lastErr != nil {
			log.Printf("retrying event append to %s after error: %v", path, lastErr)
		}
		if lastErr = w.appendOnce(path, ev); lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("append event to %s: %w", path, lastErr)
}

func (w *Writer) appendOnce(path string, ev compliance.Event) error {
	f, created, err := w.fs.OpenAppend(path, 0o644)
	if err != nil {
		return err
	}
	// A failed first append can leave the file created but empty, so
	// size decides the header, not creation alone.
	writeHeader := created
	if !writeHeader {
		if fi, err := w.fs.Stat(path); err == nil && fi.Size() == 0 {
			writeHeader = true
		}
	}

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if writeHeader {
		cw.Write(csvHeader)
	}
	cw.Write(eventRow(ev))
	cw.Flush()
	if err := cw.Error(); err != nil {
		f.Close()
		return err
	}

	// One write call per row keeps concurrent-writer interleaving at
	// line granularity, matching O_APPEND semantics.
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func eventRow(ev compliance.Event) []string {
	epoch := float64(ev.Timestamp.UnixMilli()) / 1000.0
	return []string{
		strconv.FormatFloat(epoch, 'f', 3, 64),
		ev.CameraID,
		strconv.FormatInt(ev.TrackID, 10),
		ev.Zone,
		strconv.FormatBool(ev.HasHelmet),
		strconv.FormatBool(ev.HasVest),
		ev.Violation.String(),
		strconv.FormatInt(ev.FrameIdx, 10),
	}
}
