// Package db mirrors the compliance event log into SQLite and keeps an
// index of generated daily reports, so history stays queryable without
// re-parsing CSV files.
package db

import (
	"compress/gzip"
	"database/sql"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/tailscale/tailsql/server/tailsql"
	_ "modernc.org/sqlite"
	"tailscale.com/tsweb"

	"github.com/ppe-watch/compliance/internal/compliance"
)

type DB struct {
	*sql.DB
}

// NewDB opens (or creates) the SQLite database at path and applies any
// pending migrations.
func NewDB(path string) (*DB, error) {
	database, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	if err := database.MigrateUp(); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

// OpenDB opens the database without touching the schema. Used by the
// migrate subcommand, which manages the schema itself.
func OpenDB(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	if _, err := sqlDB.Exec(`PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;`); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	return &DB{sqlDB}, nil
}

// RecordEvent mirrors one compliance event. The day column is derived
// in loc so SQL queries group the same way the CSV log partitions.
func (db *DB) RecordEvent(ev compliance.Event, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	epoch := float64(ev.Timestamp.UnixMilli()) / 1000.0
	day := ev.Timestamp.In(loc).Format("2006-01-02")

	_, err := db.Exec(
		`INSERT INTO compliance_events (
			schema_version, event_time, camera_id, track_id, zone,
			has_helmet, has_vest, violation_type, frame_idx, day
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.Version, epoch, ev.CameraID, ev.TrackID, ev.Zone,
		ev.HasHelmet, ev.HasVest, ev.Violation.String(), ev.FrameIdx, day,
	)
	if err != nil {
		return fmt.Errorf("record compliance event: %w", err)
	}
	return nil
}

// EventsForDay returns the mirrored events for one day, oldest first.
func (db *DB) EventsForDay(day string) ([]compliance.Event, error) {
	rows, err := db.Query(
		`SELECT schema_version, event_time, camera_id, track_id, zone,
			has_helmet, has_vest, violation_type, frame_idx
		FROM compliance_events WHERE day = ? ORDER BY event_time ASC`,
		day,
	)
	if err != nil {
		return nil, fmt.Errorf("query events for %s: %w", day, err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// RecentEvents returns the newest events across all days.
func (db *DB) RecentEvents(limit int) ([]compliance.Event, error) {
	rows, err := db.Query(
		`SELECT schema_version, event_time, camera_id, track_id, zone,
			has_helmet, has_vest, violation_type, frame_idx
		FROM compliance_events ORDER BY event_time DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]compliance.Event, error) {
	var events []compliance.Event
	for rows.Next() {
		var (
			ev        compliance.Event
			epoch     float64
			violation string
		)
		if err := rows.Scan(
			&ev.Version,
			&epoch,
			&ev.CameraID,
			&ev.TrackID,
			&ev.Zone,
			&ev.HasHelmet,
			&ev.HasVest,
			&violation,
			&ev.FrameIdx,
		); err != nil {
			return nil, fmt.Errorf("scan compliance event: %w", err)
		}
		v, err := compliance.ParseViolationType(violation)
		if err != nil {
			return nil, err
		}
		ev.Violation = v
		ev.Timestamp = time.UnixMilli(int64(math.Round(epoch * 1000))).UTC()
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// AttachAdminRoutes mounts live SQL debugging and a backup endpoint on
// the mux, under /debug/.
func (db *DB) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)
	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		log.Fatalf("failed to create tailsql server: %v", err)
	}
	tsql.SetDB("sqlite://compliance.db", db.DB, &tailsql.DBOptions{
		Label: "Compliance DB",
	})

	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())

	debug.Handle("backup", "Create and download a backup of the database now", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		unixTime := time.Now().Unix()
		backupPath := fmt.Sprintf("backup-%d.db", unixTime)
		if _, err := db.DB.Exec("VACUUM INTO ?", backupPath); err != nil {
			http.Error(w, fmt.Sprintf("Failed to create backup: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", backupPath))
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Encoding", "gzip")

		backupFile, err := os.Open(backupPath)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to open backup file: %v", err), http.StatusInternalServerError)
			return
		}
		defer func() {
			backupFile.Close()
			if err := os.Remove(backupPath); err != nil {
				log.Printf("Failed to remove backup file: %v", err)
			}
		}()

		gzipWriter := gzip.NewWriter(w)
		defer gzipWriter.Close()
		if _, err := io.Copy(gzipWriter, backupFile); err != nil {
			http.Error(w, fmt.Sprintf("Failed to write backup file: %v", err), http.StatusInternalServerError)
			return
		}
	}))
}
