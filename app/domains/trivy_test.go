package domains_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-svc/app/domains"
)

func TestSummarizeScanReport_CountsBySeverity(t *testing.T) {
	report := json.RawMessage(`{
		"Results": [
			{"Vulnerabilities": [
				{"VulnerabilityID": "CVE-2023-0001", "PkgName": "openssl", "Severity": "CRITICAL", "InstalledVersion": "1.1.1", "FixedVersion": "3.0.8", "Title": "X.509 overflow"},
				{"VulnerabilityID": "CVE-2023-0002", "PkgName": "zlib", "Severity": "HIGH"},
				{"VulnerabilityID": "CVE-2023-0003", "PkgName": "libcurl", "Severity": "MEDIUM"}
			]},
			{"Vulnerabilities": [
				{"VulnerabilityID": "CVE-2023-0004", "PkgName": "busybox", "Severity": "LOW"},
				{"VulnerabilityID": "CVE-2023-0005", "PkgName": "musl", "Severity": "UNKNOWN"}
			]}
		]
	}`)

	summary, vulns, err := domains.SummarizeScanReport(report)
	require.NoError(t, err)

	assert.Equal(t, 5, summary.Total)
	assert.Equal(t, 1, summary.Critical)
	assert.Equal(t, 1, summary.High)
	assert.Equal(t, 1, summary.Medium)
	assert.Equal(t, 1, summary.Low)

	require.Len(t, vulns, 5)
	assert.Equal(t, "openssl", vulns[0].Library)
	assert.Equal(t, "CVE-2023-0001", vulns[0].Vulnerability)
	assert.Equal(t, "3.0.8", vulns[0].FixedVersion)
	assert.Equal(t, "X.509 overflow", vulns[0].Title)
}

func TestSummarizeScanReport_EmptyReport(t *testing.T) {
	summary, vulns, err := domains.SummarizeScanReport(json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.Zero(t, summary.Total)
	assert.Empty(t, vulns)
}

func TestSummarizeScanReport_Malformed(t *testing.T) {
	_, _, err := domains.SummarizeScanReport(json.RawMessage(`not json`))
	assert.Error(t, err)
}
