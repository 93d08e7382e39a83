package domains

import "encoding/json"

// ScanSummary holds severity counts extracted from one Trivy report
type ScanSummary struct {
	Total    int
	Critical int
	High     int
	Medium   int
	Low      int
}

type trivyReport struct {
	Results []struct {
		Vulnerabilities []struct {
			VulnerabilityID  string `json:"VulnerabilityID"`
			PkgName          string `json:"PkgName"`
			Severity         string `json:"Severity"`
			InstalledVersion string `json:"InstalledVersion"`
			FixedVersion     string `json:"FixedVersion"`
			Title            string `json:"Title"`
		} `json:"Vulnerabilities"`
	} `json:"Results"`
}

// SummarizeScanReport parses a raw Trivy JSON report into severity counts
// and the flattened vulnerability list. Unknown severities count toward the
// total but none of the severity buckets. A report without a Results array
// yields an empty summary, not an error.
func SummarizeScanReport(raw json.RawMessage) (ScanSummary, []ScanVulnerability, error) {
	var report trivyReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return ScanSummary{}, nil, err
	}

	var summary ScanSummary
	var vulns []ScanVulnerability
	for _, result := range report.Results {
		for _, v := range result.Vulnerabilities {
			summary.Total++
			switch v.Severity {
			case "CRITICAL":
				summary.Critical++
			case "HIGH":
				summary.High++
			case "MEDIUM":
				summary.Medium++
			case "LOW":
				summary.Low++
			}
			vulns = append(vulns, ScanVulnerability{
				Library:          v.PkgName,
				Vulnerability:    v.VulnerabilityID,
				Severity:         v.Severity,
				InstalledVersion: v.InstalledVersion,
				FixedVersion:     v.FixedVersion,
				Title:            v.Title,
			})
		}
	}
	return summary, vulns, nil
}
