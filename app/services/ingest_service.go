package services

import (
	"context"
	"encoding/json"
	"fmt"

	"fleet-svc/app/clients"
	"fleet-svc/app/domains"
	"fleet-svc/app/dto"
)

// DataTypeTrivyScan marks payload entries that are forwarded to the scan
// result store instead of being stored verbatim.
const DataTypeTrivyScan = "trivy_scan"

// IngestService accepts heterogeneous telemetry batches from agents
type IngestService struct {
	storage clients.StorageAdapter
	scans   clients.ScanStore
}

// NewIngestService creates a new ingest service
func NewIngestService(storage clients.StorageAdapter, scans clients.ScanStore) *IngestService {
	return &IngestService{storage: storage, scans: scans}
}

// Report persists one telemetry batch. Ingestion implies liveness, so the
// agent's heartbeat is refreshed first; an unregistered agent is rejected.
// Entries are independent best-effort operations: one malformed entry is
// reported in its result slot without aborting the rest of the batch.
func (s *IngestService) Report(ctx context.Context, agentID, dataType string, data json.RawMessage) (interface{}, error) {
	if agentID == "" || dataType == "" {
		return nil, fmt.Errorf("%w: agent_id and data_type are required", domains.ErrValidation)
	}

	matched, err := s.storage.TouchHeartbeat(ctx, agentID, domains.AgentStatusOnline)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh heartbeat for %s: %w", agentID, err)
	}
	if !matched {
		return nil, fmt.Errorf("agent %s: %w", agentID, domains.ErrNotFound)
	}

	if dataType == DataTypeTrivyScan {
		return s.ingestScans(ctx, agentID, data)
	}
	return s.ingestGeneric(ctx, agentID, dataType, data)
}

type scanEntry struct {
	Image  string          `json:"image"`
	Result json.RawMessage `json:"result"`
}

// ingestScans forwards each entry to the scan result store. An entry with
// no image key defaults to "unknown"; an entry with no result key is
// treated as the report itself.
func (s *IngestService) ingestScans(ctx context.Context, agentID string, data json.RawMessage) ([]dto.ScanEntryResult, error) {
	entries, err := splitEntries(data)
	if err != nil {
		return nil, fmt.Errorf("%w: trivy_scan data must be an object or array", domains.ErrValidation)
	}

	results := make([]dto.ScanEntryResult, 0, len(entries))
	for _, entry := range entries {
		var parsed scanEntry
		if err := json.Unmarshal(entry.value, &parsed); err != nil {
			results = append(results, dto.ScanEntryResult{Image: "unknown", Error: "malformed scan entry"})
			continue
		}
		if parsed.Image == "" {
			parsed.Image = "unknown"
		}
		report := parsed.Result
		if len(report) == 0 {
			report = entry.value
		}

		scanID, err := s.scans.SaveScanResult(ctx, &agentID, parsed.Image, report, "agent")
		if err != nil {
			results = append(results, dto.ScanEntryResult{Image: parsed.Image, Error: "failed to store scan"})
			continue
		}
		results = append(results, dto.ScanEntryResult{Image: parsed.Image, ScanID: scanID})
	}
	return results, nil
}

// ingestGeneric stores one agent_data row per entry. Keyed object entries
// are addressable by their key; positional array entries are anonymous.
func (s *IngestService) ingestGeneric(ctx context.Context, agentID, dataType string, data json.RawMessage) (map[string]int, error) {
	entries, err := splitEntries(data)
	if err != nil {
		// Scalar payloads are stored as a single anonymous entry.
		entries = []payloadEntry{{value: data}}
	}

	saved := 0
	for _, entry := range entries {
		if err := s.storage.InsertAgentData(ctx, agentID, dataType, entry.key, entry.value); err == nil {
			saved++
		}
	}
	return map[string]int{"saved": saved}, nil
}

type payloadEntry struct {
	key   *string
	value json.RawMessage
}

// splitEntries decomposes a JSON object into keyed entries or a JSON array
// into anonymous ones.
func splitEntries(data json.RawMessage) ([]payloadEntry, error) {
	var keyed map[string]json.RawMessage
	if err := json.Unmarshal(data, &keyed); err == nil {
		entries := make([]payloadEntry, 0, len(keyed))
		for k, v := range keyed {
			key := k
			entries = append(entries, payloadEntry{key: &key, value: v})
		}
		return entries, nil
	}

	var list []json.RawMessage
	if err := json.Unmarshal(data, &list); err == nil {
		entries := make([]payloadEntry, 0, len(list))
		for _, v := range list {
			entries = append(entries, payloadEntry{value: v})
		}
		return entries, nil
	}

	return nil, fmt.Errorf("payload is neither object nor array")
}
