package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DailyReport is one generated daily summary, indexed so past report
// runs stay discoverable.
type DailyReport struct {
	ID              int       `json:"id"`
	ReportDate      string    `json:"report_date"` // YYYY-MM-DD
	RunID           string    `json:"run_id"`
	Timezone        string    `json:"timezone"`
	TotalEvents     int       `json:"total_events"`
	UniquePersons   int       `json:"unique_persons"`
	UniqueViolators int       `json:"unique_violators"`
	ViolationRate   float64   `json:"violation_rate"`
	CreatedAt       time.Time `json:"created_at"`
}

// CreateDailyReport records a report run. An empty RunID is assigned a
// fresh UUID.
func (db *DB) CreateDailyReport(report *DailyReport) error {
	if report.RunID == "" {
		report.RunID = uuid.NewString()
	}

	query := `
		INSERT INTO daily_reports (
			report_date, run_id, timezone, total_events,
			unique_persons, unique_violators, violation_rate
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := db.DB.Exec(
		query,
		report.ReportDate,
		report.RunID,
		report.Timezone,
		report.TotalEvents,
		report.UniquePersons,
		report.UniqueViolators,
		report.ViolationRate,
	)
	if err != nil {
		return fmt.Errorf("failed to create daily report: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}

	report.ID = int(id)
	return nil
}

// GetDailyReport retrieves a report by ID.
func (db *DB) GetDailyReport(id int) (*DailyReport, error) {
	query := `
		SELECT id, report_date, run_id, timezone, total_events,
		       unique_persons, unique_violators, violation_rate, created_at
		FROM daily_reports
		WHERE id = ?
	`

	var report DailyReport
	err := db.DB.QueryRow(query, id).Scan(
		&report.ID,
		&report.ReportDate,
		&report.RunID,
		&report.Timezone,
		&report.TotalEvents,
		&report.UniquePersons,
		&report.UniqueViolators,
		&report.ViolationRate,
		&report.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("report not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get daily report: %w", err)
	}

	return &report, nil
}

// RecentDailyReports retrieves the most recent N report runs.
func (db *DB) RecentDailyReports(limit int) ([]DailyReport, error) {
	query := `
		SELECT id, report_date, run_id, timezone, total_events,
		       unique_persons, unique_violators, violation_rate, created_at
		FROM daily_reports
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := db.DB.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily reports: %w", err)
	}
	defer rows.Close()

	var reports []DailyReport
	for rows.Next() {
		var report DailyReport
		err := rows.Scan(
			&report.ID,
			&report.ReportDate,
			&report.RunID,
			&report.Timezone,
			&report.TotalEvents,
			&report.UniquePersons,
			&report.UniqueViolators,
			&report.ViolationRate,
			&report.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily report: %w", err)
		}
		reports = append(reports, report)
	}

	return reports, nil
}

// DeleteDailyReport deletes a report run by ID.
func (db *DB) DeleteDailyReport(id int) error {
	result, err := db.DB.Exec(`DELETE FROM daily_reports WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete daily report: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("report not found")
	}
	return nil
}
