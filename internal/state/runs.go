package state

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/awalsh128/orchid/pkg/models"
)

// Workflow run history. Per-step results are stored as one JSON blob;
// the history is read back for reporting, never queried per step.

// SaveWorkflowReport records the terminal outcome of one run.
func (db *DB) SaveWorkflowReport(report *models.WorkflowReport) error {
	results, err := json.Marshal(report.Results)
	if err != nil {
		return fmt.Errorf("marshal workflow results: %w", err)
	}
	_, err = db.Exec(`
		INSERT INTO workflow_runs (run_id, workflow, status, error, results, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, report.RunID, report.Workflow, string(report.Status), report.Err,
		string(results), formatTime(report.StartedAt), report.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("save workflow run: %w", err)
	}
	return nil
}

// GetWorkflowReport retrieves one run by ID. Returns nil when not found.
func (db *DB) GetWorkflowReport(runID string) (*models.WorkflowReport, error) {
	row := db.QueryRow(`
		SELECT run_id, workflow, status, error, results, started_at, duration_ms
		FROM workflow_runs WHERE run_id = ?
	`, runID)

	report, err := scanWorkflowReport(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return report, err
}

// ListWorkflowReports returns runs of one workflow, most recent first.
func (db *DB) ListWorkflowReports(workflow string, limit int) ([]*models.WorkflowReport, error) {
	rows, err := db.Query(`
		SELECT run_id, workflow, status, error, results, started_at, duration_ms
		FROM workflow_runs WHERE workflow = ?
		ORDER BY started_at DESC LIMIT ?
	`, workflow, limit)
	if err != nil {
		return nil, fmt.Errorf("list workflow runs: %w", err)
	}
	defer rows.Close()

	var reports []*models.WorkflowReport
	for rows.Next() {
		report, err := scanWorkflowReport(rows.Scan)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

// scanWorkflowReport reads one workflow_runs row.
func scanWorkflowReport(scan func(...any) error) (*models.WorkflowReport, error) {
	var report models.WorkflowReport
	var status, startedAt string
	var errMsg, results sql.NullString
	var durationMs int64

	err := scan(&report.RunID, &report.Workflow, &status, &errMsg, &results, &startedAt, &durationMs)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan workflow run: %w", err)
	}

	report.Status = models.RunStatus(status)
	report.Err = errMsg.String
	report.Duration = time.Duration(durationMs) * time.Millisecond
	if report.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, fmt.Errorf("parse run started_at: %w", err)
	}
	if results.Valid && results.String != "" {
		if err := json.Unmarshal([]byte(results.String), &report.Results); err != nil {
			return nil, fmt.Errorf("unmarshal workflow results: %w", err)
		}
	}
	return &report, nil
}
