package domains

import "time"

// ScanRecord is one stored scan result summary
type ScanRecord struct {
	ID            int64     `json:"id" db:"id"`
	AgentID       *string   `json:"agent_id,omitempty" db:"agent_id"`
	ImageName     string    `json:"image_name" db:"image_name"`
	ScanDate      time.Time `json:"scan_date" db:"scan_date"`
	TotalVulns    int       `json:"total_vulns" db:"total_vulns"`
	CriticalCount int       `json:"critical_count" db:"critical_count"`
	HighCount     int       `json:"high_count" db:"high_count"`
	MediumCount   int       `json:"medium_count" db:"medium_count"`
	LowCount      int       `json:"low_count" db:"low_count"`
	ScanSource    string    `json:"scan_source" db:"scan_source"`
}

// ScanVulnerability is one vulnerability row belonging to a scan
type ScanVulnerability struct {
	ID               int64  `json:"id" db:"id"`
	ScanID           int64  `json:"scan_id" db:"scan_id"`
	Library          string `json:"library" db:"library"`
	Vulnerability    string `json:"vulnerability" db:"vulnerability"`
	Severity         string `json:"severity" db:"severity"`
	InstalledVersion string `json:"installed_version" db:"installed_version"`
	FixedVersion     string `json:"fixed_version" db:"fixed_version"`
	Title            string `json:"title" db:"title"`
}
