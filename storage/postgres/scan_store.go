package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fleet-svc/app/domains"
)

// SaveScanResult parses a raw Trivy report, then stores the summary row and
// its vulnerability rows in one transaction. Returns the scan id.
func (s *Store) SaveScanResult(ctx context.Context, agentID *string, imageName string, report json.RawMessage, source string) (int64, error) {
	summary, vulns, err := domains.SummarizeScanReport(report)
	if err != nil {
		return 0, fmt.Errorf("failed to parse scan report: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var scanID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO scan_history (agent_id, image_name, total_vulns, critical_count, high_count, medium_count, low_count, scan_source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, agentID, imageName, summary.Total, summary.Critical, summary.High, summary.Medium, summary.Low, source).Scan(&scanID)
	if err != nil {
		return 0, err
	}

	for _, v := range vulns {
		_, err := tx.Exec(ctx, `
			INSERT INTO scan_vulnerabilities (scan_id, library, vulnerability, severity, installed_version, fixed_version, title)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, scanID, v.Library, v.Vulnerability, v.Severity, v.InstalledVersion, v.FixedVersion, v.Title)
		if err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return scanID, nil
}

// ScansByAgent returns recent scan records, for one agent or fleet-wide
// when agentID is nil
func (s *Store) ScansByAgent(ctx context.Context, agentID *string, limit int) ([]domains.ScanRecord, error) {
	query := `
		SELECT id, agent_id, image_name, scan_date, total_vulns, critical_count, high_count, medium_count, low_count, scan_source
		FROM scan_history
	`
	args := []interface{}{}
	if agentID != nil {
		query += ` WHERE agent_id = $1 ORDER BY scan_date DESC LIMIT $2`
		args = append(args, *agentID, limit)
	} else {
		query += ` ORDER BY scan_date DESC LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scans []domains.ScanRecord
	for rows.Next() {
		var rec domains.ScanRecord
		err := rows.Scan(
			&rec.ID, &rec.AgentID, &rec.ImageName, &rec.ScanDate, &rec.TotalVulns,
			&rec.CriticalCount, &rec.HighCount, &rec.MediumCount, &rec.LowCount, &rec.ScanSource,
		)
		if err != nil {
			return nil, err
		}
		scans = append(scans, rec)
	}
	return scans, rows.Err()
}

// AgentScanStats aggregates an agent's scan activity within the window
func (s *Store) AgentScanStats(ctx context.Context, agentID string, window time.Duration) (domains.AgentScanStats, error) {
	var stats domains.AgentScanStats
	cutoff := time.Now().Add(-window)
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(critical_count), 0), COALESCE(SUM(high_count), 0)
		FROM scan_history
		WHERE agent_id = $1 AND scan_date > $2
	`, agentID, cutoff).Scan(&stats.RecentScans, &stats.RecentCritical, &stats.RecentHigh)
	return stats, err
}
