// Package report builds daily compliance summaries from recorded
// events. Aggregation is pure: it reads a slice of events and returns a
// value, with no storage or clock dependencies.
package report

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/ppe-watch/compliance/internal/compliance"
)

// DefaultTopViolators is the number of entries in the top-violators
// table when the caller does not ask for a specific count.
const DefaultTopViolators = 5

// ZoneCount summarizes one zone's day.
type ZoneCount struct {
	Events     int `json:"events"`
	Violations int `json:"violations"`
}

// TopViolator is one row of the worst-offenders table.
type TopViolator struct {
	TrackID    int64     `json:"track_id"`
	Violations int       `json:"violations"`
	FirstSeen  time.Time `json:"first_seen"`
}

// HourlyStats describes how violations spread across the day.
type HourlyStats struct {
	Counts   [24]int `json:"counts"`
	PeakHour int     `json:"peak_hour"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"`
}

// DailyAggregate is the summary for one calendar day.
type DailyAggregate struct {
	Date            string               `json:"date"`
	TotalEvents     int                  `json:"total_events"`
	UniquePersons   int                  `json:"unique_persons"`
	UniqueViolators int                  `json:"unique_violators"`
	PerZone         map[string]ZoneCount `json:"per_zone"`
	TopViolators    []TopViolator        `json:"top_violators"`
	ViolationRate   float64              `json:"violation_rate"`
	Hourly          HourlyStats          `json:"hourly"`
}

// Aggregate summarizes one day's events. loc decides which hour bucket
// an event falls in; topN bounds the top-violators table (<=0 means
// DefaultTopViolators). An empty slice yields a zero summary with a
// violation rate of 0.
func Aggregate(date string, evs []compliance.Event, loc *time.Location, topN int) DailyAggregate {
	if loc == nil {
		loc = time.Local
	}
	if topN <= 0 {
		topN = DefaultTopViolators
	}

	agg := DailyAggregate{
		Date:    date,
		PerZone: make(map[string]ZoneCount),
	}

	persons := make(map[int64]bool)
	violations := make(map[int64]int)
	firstSeen := make(map[int64]time.Time)
	violationEvents := 0

	for _, ev := range evs {
		agg.TotalEvents++
		persons[ev.TrackID] = true
		if first, ok := firstSeen[ev.TrackID]; !ok || ev.Timestamp.Before(first) {
			firstSeen[ev.TrackID] = ev.Timestamp
		}

		zc := agg.PerZone[ev.Zone]
		zc.Events++
		if ev.Violation.IsViolation() {
			zc.Violations++
			violations[ev.TrackID]++
			violationEvents++
			agg.Hourly.Counts[ev.Timestamp.In(loc).Hour()]++
		}
		agg.PerZone[ev.Zone] = zc
	}

	agg.UniquePersons = len(persons)
	agg.UniqueViolators = len(violations)
	if agg.TotalEvents > 0 {
		agg.ViolationRate = float64(violationEvents) / float64(agg.TotalEvents)
	}

	agg.TopViolators = rankViolators(violations, firstSeen, topN)
	agg.Hourly = hourlyStats(agg.Hourly.Counts)
	return agg
}

// rankViolators orders by violation count descending, breaking ties by
// the track's earliest event of the day, then by track ID so output is
// stable.
func rankViolators(violations map[int64]int, first map[int64]time.Time, topN int) []TopViolator {
	rows := make([]TopViolator, 0, len(violations))
	for id, n := range violations {
		rows = append(rows, TopViolator{TrackID: id, Violations: n, FirstSeen: first[id]})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Violations != rows[j].Violations {
			return rows[i].Violations > rows[j].Violations
		}
		if !rows[i].FirstSeen.Equal(rows[j].FirstSeen) {
			return rows[i].FirstSeen.Before(rows[j].FirstSeen)
		}
		return rows[i].TrackID < rows[j].TrackID
	})
	if len(rows) > topN {
		rows = rows[:topN]
	}
	return rows
}

func hourlyStats(counts [24]int) HourlyStats {
	hs := HourlyStats{Counts: counts}
	samples := make([]float64, len(counts))
	for h, n := range counts {
		samples[h] = float64(n)
		if n > counts[hs.PeakHour] {
			hs.PeakHour = h
		}
	}
	hs.Mean = stat.Mean(samples, nil)
	hs.StdDev = stat.StdDev(samples, nil)
	return hs
}
