package services_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-svc/app/domains"
	"fleet-svc/app/dto"
	"fleet-svc/app/services"
	"fleet-svc/storage/memstore"
)

func newIngestFixture(t *testing.T) (*memstore.Store, *services.IngestService) {
	t.Helper()
	store := memstore.NewStore()
	registry := services.NewRegistryService(store)
	require.NoError(t, registry.UpsertAgent(context.Background(), &domains.Agent{
		AgentID:  "node-1",
		Hostname: "host-a",
	}))
	return store, services.NewIngestService(store, store)
}

func TestReport_UnregisteredAgentRejected(t *testing.T) {
	store := memstore.NewStore()
	svc := services.NewIngestService(store, store)

	_, err := svc.Report(context.Background(), "ghost", "containers", json.RawMessage(`[]`))
	assert.ErrorIs(t, err, domains.ErrNotFound)
}

func TestReport_ArrayStoresAnonymousRows(t *testing.T) {
	store, svc := newIngestFixture(t)
	ctx := context.Background()

	payload := json.RawMessage(`[{"name":"c1"},{"name":"c2"},{"name":"c3"},{"name":"c4"},{"name":"c5"}]`)
	result, err := svc.Report(ctx, "node-1", "containers", payload)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"saved": 5}, result)

	rows, err := store.GetAgentData(ctx, "node-1", nil, 100)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	for _, row := range rows {
		assert.Equal(t, "containers", row.DataType)
		assert.Nil(t, row.DataKey)
	}
}

func TestReport_ObjectStoresKeyedRows(t *testing.T) {
	store, svc := newIngestFixture(t)
	ctx := context.Background()

	payload := json.RawMessage(`{"cpu":{"usage":0.5},"memory":{"used_mb":2048}}`)
	result, err := svc.Report(ctx, "node-1", "metrics", payload)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"saved": 2}, result)

	rows, err := store.GetAgentData(ctx, "node-1", nil, 100)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	keys := map[string]bool{}
	for _, row := range rows {
		require.NotNil(t, row.DataKey)
		keys[*row.DataKey] = true
	}
	assert.True(t, keys["cpu"])
	assert.True(t, keys["memory"])
}

func TestReport_ScalarStoredAsSingleRow(t *testing.T) {
	store, svc := newIngestFixture(t)
	ctx := context.Background()

	result, err := svc.Report(ctx, "node-1", "uptime", json.RawMessage(`86400`))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"saved": 1}, result)

	rows, err := store.GetAgentData(ctx, "node-1", nil, 100)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].DataKey)
	assert.JSONEq(t, `86400`, string(rows[0].Value))
}

func TestReport_RefreshesHeartbeat(t *testing.T) {
	store, svc := newIngestFixture(t)
	ctx := context.Background()

	store.SetHeartbeat("node-1", time.Now().Add(-time.Hour), domains.AgentStatusOffline)

	_, err := svc.Report(ctx, "node-1", "containers", json.RawMessage(`[]`))
	require.NoError(t, err)

	agent, err := store.GetAgent(ctx, "node-1")
	require.NoError(t, err)
	assert.Equal(t, domains.AgentStatusOnline, agent.Status)
	assert.WithinDuration(t, time.Now(), *agent.LastHeartbeat, 5*time.Second)
}

func TestReport_TrivyScanRoutedToScanStore(t *testing.T) {
	store, svc := newIngestFixture(t)
	ctx := context.Background()

	report := `{"Results":[{"Vulnerabilities":[` +
		`{"VulnerabilityID":"CVE-2023-0001","PkgName":"openssl","Severity":"CRITICAL"},` +
		`{"VulnerabilityID":"CVE-2023-0002","PkgName":"zlib","Severity":"LOW"}]}]}`
	payload := json.RawMessage(`[{"image":"nginx:latest","result":` + report + `}]`)

	result, err := svc.Report(ctx, "node-1", "trivy_scan", payload)
	require.NoError(t, err)

	entries, ok := result.([]dto.ScanEntryResult)
	require.True(t, ok)
	require.Len(t, entries, 1)
	assert.Equal(t, "nginx:latest", entries[0].Image)
	assert.Empty(t, entries[0].Error)
	assert.Greater(t, entries[0].ScanID, int64(0))

	agentID := "node-1"
	scans, err := store.ScansByAgent(ctx, &agentID, 10)
	require.NoError(t, err)
	require.Len(t, scans, 1)
	assert.Equal(t, "nginx:latest", scans[0].ImageName)
	assert.Equal(t, 2, scans[0].TotalVulns)
	assert.Equal(t, 1, scans[0].CriticalCount)

	// Nothing should land in the generic telemetry table
	rows, err := store.GetAgentData(ctx, "node-1", nil, 100)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReport_TrivyScanBadEntryDoesNotAbortBatch(t *testing.T) {
	_, svc := newIngestFixture(t)
	ctx := context.Background()

	payload := json.RawMessage(`["not-an-object",{"image":"redis:7","result":{"Results":[]}}]`)
	result, err := svc.Report(ctx, "node-1", "trivy_scan", payload)
	require.NoError(t, err)

	entries, ok := result.([]dto.ScanEntryResult)
	require.True(t, ok)
	require.Len(t, entries, 2)
	assert.NotEmpty(t, entries[0].Error)
	assert.Equal(t, "redis:7", entries[1].Image)
	assert.Empty(t, entries[1].Error)
}

func TestReport_TrivyScanScalarRejected(t *testing.T) {
	_, svc := newIngestFixture(t)

	_, err := svc.Report(context.Background(), "node-1", "trivy_scan", json.RawMessage(`42`))
	assert.ErrorIs(t, err, domains.ErrValidation)
}
