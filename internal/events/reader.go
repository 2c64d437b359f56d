package events

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ppe-watch/compliance/internal/compliance"
	"github.com/ppe-watch/compliance/internal/fsutil"
)

// Reader loads day-partitioned event logs written by Writer.
type Reader struct {
	fs  fsutil.FileSystem
	dir string
}

func NewReader(fs fsutil.FileSystem, dir string) *Reader {
	return &Reader{fs: fs, dir: dir}
}

// Days lists the days (YYYY-MM-DD) that have an event log, sorted
// ascending.
func (r *Reader) Days() ([]string, error) {
	matches, err := r.fs.Glob(filepath.Join(r.dir, "events_*.csv"))
	if err != nil {
		return nil, fmt.Errorf("list event logs in %s: %w", r.dir, err)
	}
	days := make([]string, 0, len(matches))
	for _, m := range matches {
		base := filepath.Base(m)
		day := strings.TrimSuffix(strings.TrimPrefix(base, "events_"), ".csv")
		if _, err := time.Parse("2006-01-02", day); err != nil {
			continue
		}
		days = append(days, day)
	}
	sort.Strings(days)
	return days, nil
}

// LoadDay reads all events for one day. A day with no log file yields
// an empty slice, not an error; running a report before any event has
// been recorded is a normal condition. The day string may come from an
// HTTP query parameter; the strict date format check keeps it from
// naming anything but a log file.
func (r *Reader) LoadDay(day string) ([]compliance.Event, error) {
	if _, err := time.Parse("2006-01-02", day); err != nil {
		return nil, fmt.Errorf("invalid day %q: %w", day, err)
	}
	path := filepath.Join(r.dir, "events_"+day+".csv")
	data, err := r.fs.ReadFile(path)
	if err != nil {
		if !r.fs.Exists(path) {
			return nil, nil
		}
		return nil, fmt.Errorf("read event log %s: %w", path, err)
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = len(csvHeader)

	var evs []compliance.Event
	for line := 1; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if line == 1 && row[0] == csvHeader[0] {
			continue
		}
		ev, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("parse %s line %d: %w", path, line, err)
		}
		evs = append(evs, ev)
	}
	return evs, nil
}

func parseRow(row []string) (compliance.Event, error) {
	var ev compliance.Event
	epoch, err := strconv.ParseFloat(row[0], 64)
	if err != nil {
		return ev, fmt.Errorf("timestamp %q: %w", row[0], err)
	}
	trackID, err := strconv.ParseInt(row[2], 10, 64)
	if err != nil {
		return ev, fmt.Errorf("track_id %q: %w", row[2], err)
	}
	hasHelmet, err := strconv.ParseBool(row[4])
	if err != nil {
		return ev, fmt.Errorf("has_helmet %q: %w", row[4], err)
	}
	hasVest, err := strconv.ParseBool(row[5])
	if err != nil {
		return ev, fmt.Errorf("has_vest %q: %w", row[5], err)
	}
	violation, err := compliance.ParseViolationType(row[6])
	if err != nil {
		return ev, err
	}
	frameIdx, err := strconv.ParseInt(row[7], 10, 64)
	if err != nil {
		return ev, fmt.Errorf("frame_idx %q: %w", row[7], err)
	}
	return compliance.Event{
		Version:   compliance.SchemaVersion,
		Timestamp: time.UnixMilli(int64(math.Round(epoch * 1000))).UTC(),
		CameraID:  row[1],
		TrackID:   trackID,
		Zone:      row[3],
		HasHelmet: hasHelmet,
		HasVest:   hasVest,
		Violation: violation,
		FrameIdx:  frameIdx,
	}, nil
}
