// Package memstore provides an in-memory storage adapter with the same
// semantics as the Postgres store. It backs the "memory" storage driver for
// local development and is the test double for the service and handler
// suites.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"fleet-svc/app/domains"
)

// Store is a mutex-guarded in-memory implementation of the storage interfaces
type Store struct {
	mu sync.Mutex

	agents        map[string]*domains.Agent
	commands      map[int64]*domains.AgentCommand
	nextCommandID int64

	data       []domains.AgentData
	nextDataID int64

	groups      map[int64]domains.AssetGroup
	tags        map[int64]domains.AssetTag
	nextGroupID int64
	nextTagID   int64
	groupMap    map[string]map[int64]bool
	tagMap      map[string]map[int64]bool

	scans      []domains.ScanRecord
	vulns      []domains.ScanVulnerability
	nextScanID int64

	audits []domains.AuditEntry

	users      map[string]domains.AdminUser
	nextUserID int64
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		agents:   make(map[string]*domains.Agent),
		commands: make(map[int64]*domains.AgentCommand),
		groups:   make(map[int64]domains.AssetGroup),
		tags:     make(map[int64]domains.AssetTag),
		groupMap: make(map[string]map[int64]bool),
		tagMap:   make(map[string]map[int64]bool),
		users:    make(map[string]domains.AdminUser),
	}
}

// UpsertAgent inserts or refreshes an agent keyed on agent_id
func (s *Store) UpsertAgent(_ context.Context, agent *domains.Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	existing, ok := s.agents[agent.AgentID]
	if ok {
		existing.Hostname = agent.Hostname
		existing.IPAddress = agent.IPAddress
		existing.OSInfo = agent.OSInfo
		existing.Version = agent.Version
		existing.Config = agent.Config
		existing.Status = domains.AgentStatusOnline
		existing.LastHeartbeat = &now
		return nil
	}

	stored := *agent
	stored.ID = int64(len(s.agents) + 1)
	stored.Status = domains.AgentStatusOnline
	stored.LastHeartbeat = &now
	stored.CreatedAt = now
	s.agents[agent.AgentID] = &stored
	return nil
}

// GetAgent retrieves an agent; nil when unknown
func (s *Store) GetAgent(_ context.Context, agentID string) (*domains.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	agent, ok := s.agents[agentID]
	if !ok {
		return nil, nil
	}
	copied := *agent
	return &copied, nil
}

// ListAgents retrieves agents matching the filter
func (s *Store) ListAgents(_ context.Context, filter domains.AgentListFilter) ([]domains.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var agents []domains.Agent
	for _, agent := range s.agents {
		if filter.Status != "" && agent.Status != filter.Status {
			continue
		}
		if filter.GroupID != 0 && !s.groupMap[agent.AgentID][filter.GroupID] {
			continue
		}
		if len(filter.TagIDs) > 0 {
			matched := false
			for _, tagID := range filter.TagIDs {
				if s.tagMap[agent.AgentID][tagID] {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		agents = append(agents, *agent)
	}
	sort.Slice(agents, func(i, j int) bool { return agents[i].AgentID < agents[j].AgentID })
	return agents, nil
}

// TouchHeartbeat refreshes liveness; false when the agent never registered
func (s *Store) TouchHeartbeat(_ context.Context, agentID, status string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	agent, ok := s.agents[agentID]
	if !ok {
		return false, nil
	}
	now := time.Now()
	agent.LastHeartbeat = &now
	agent.Status = status
	return true, nil
}

// MarkOfflineAgents sweeps silent online agents to offline
func (s *Store) MarkOfflineAgents(_ context.Context, threshold time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-threshold)
	var swept int64
	for _, agent := range s.agents {
		if agent.Status == domains.AgentStatusOnline &&
			agent.LastHeartbeat != nil && agent.LastHeartbeat.Before(cutoff) {
			agent.Status = domains.AgentStatusOffline
			swept++
		}
	}
	return swept, nil
}

// DeleteAgent removes an agent and everything referencing it, atomically
// under the store lock
func (s *Store) DeleteAgent(_ context.Context, agentID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.agents[agentID]; !ok {
		return false, nil
	}
	s.cascadeLocked(agentID)
	delete(s.agents, agentID)
	return true, nil
}

// DeleteAgentsOffline removes agents offline for longer than the window
func (s *Store) DeleteAgentsOffline(_ context.Context, olderThan time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	deleted := 0
	for id, agent := range s.agents {
		if agent.Status == domains.AgentStatusOffline &&
			agent.LastHeartbeat != nil && agent.LastHeartbeat.Before(cutoff) {
			s.cascadeLocked(id)
			delete(s.agents, id)
			deleted++
		}
	}
	return deleted, nil
}

// DeleteAllAgents empties the registry and all dependent records
func (s *Store) DeleteAllAgents(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := len(s.agents)
	s.agents = make(map[string]*domains.Agent)
	s.commands = make(map[int64]*domains.AgentCommand)
	s.data = nil
	s.groupMap = make(map[string]map[int64]bool)
	s.tagMap = make(map[string]map[int64]bool)
	return deleted, nil
}

func (s *Store) cascadeLocked(agentID string) {
	for id, cmd := range s.commands {
		if cmd.AgentID == agentID {
			delete(s.commands, id)
		}
	}
	kept := s.data[:0]
	for _, rec := range s.data {
		if rec.AgentID != agentID {
			kept = append(kept, rec)
		}
	}
	s.data = kept
	delete(s.groupMap, agentID)
	delete(s.tagMap, agentID)
}

// CreateCommand queues a command; the agent need not exist yet
func (s *Store) CreateCommand(_ context.Context, agentID, commandType string, data json.RawMessage) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextCommandID++
	cmd := &domains.AgentCommand{
		ID:          s.nextCommandID,
		AgentID:     agentID,
		CommandType: commandType,
		CommandData: data,
		Status:      domains.CommandStatusPending,
		CreatedAt:   time.Now(),
	}
	s.commands[cmd.ID] = cmd
	return cmd.ID, nil
}

// PendingCommands returns non-terminal commands oldest first
func (s *Store) PendingCommands(_ context.Context, agentID string) ([]domains.AgentCommand, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []domains.AgentCommand
	for _, cmd := range s.commands {
		if cmd.AgentID == agentID && cmd.Status == domains.CommandStatusPending {
			pending = append(pending, *cmd)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].ID < pending[j].ID })
	return pending, nil
}

// UpdateCommandResult moves a command to a terminal state; idempotent
func (s *Store) UpdateCommandResult(_ context.Context, commandID int64, status string, result json.RawMessage) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cmd, ok := s.commands[commandID]
	if !ok {
		return false, nil
	}
	now := time.Now()
	cmd.Status = status
	cmd.Result = result
	cmd.CompletedAt = &now
	return true, nil
}

// RecentCommands returns the newest commands for an agent in any state
func (s *Store) RecentCommands(_ context.Context, agentID string, limit int) ([]domains.AgentCommand, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var all []domains.AgentCommand
	for _, cmd := range s.commands {
		if cmd.AgentID == agentID {
			all = append(all, *cmd)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// InsertAgentData appends one telemetry record
func (s *Store) InsertAgentData(_ context.Context, agentID, dataType string, dataKey *string, value json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextDataID++
	s.data = append(s.data, domains.AgentData{
		ID:         s.nextDataID,
		AgentID:    agentID,
		DataType:   dataType,
		DataKey:    dataKey,
		Value:      value,
		RecordedAt: time.Now(),
	})
	return nil
}

// GetAgentData returns the newest telemetry records for an agent
func (s *Store) GetAgentData(_ context.Context, agentID string, dataType *string, limit int) ([]domains.AgentData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []domains.AgentData
	for _, rec := range s.data {
		if rec.AgentID != agentID {
			continue
		}
		if dataType != nil && rec.DataType != *dataType {
			continue
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID > records[j].ID })
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// ListGroups returns all groups ordered by name
func (s *Store) ListGroups(_ context.Context) ([]domains.AssetGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var groups []domains.AssetGroup
	for _, g := range s.groups {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	return groups, nil
}

// CreateGroup inserts a group; duplicate names conflict
func (s *Store) CreateGroup(_ context.Context, group domains.AssetGroup) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, g := range s.groups {
		if g.Name == group.Name {
			return 0, fmt.Errorf("duplicate group name: %w", domains.ErrConflict)
		}
	}
	s.nextGroupID++
	group.ID = s.nextGroupID
	s.groups[group.ID] = group
	return group.ID, nil
}

// DeleteGroup removes a group and its mappings; agents survive
func (s *Store) DeleteGroup(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[id]; !ok {
		return false, nil
	}
	delete(s.groups, id)
	for _, memberships := range s.groupMap {
		delete(memberships, id)
	}
	return true, nil
}

// ListTags returns all tags ordered by name
func (s *Store) ListTags(_ context.Context) ([]domains.AssetTag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var tags []domains.AssetTag
	for _, t := range s.tags {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags, nil
}

// CreateTag inserts a tag; duplicate names conflict
func (s *Store) CreateTag(_ context.Context, tag domains.AssetTag) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.tags {
		if t.Name == tag.Name {
			return 0, fmt.Errorf("duplicate tag name: %w", domains.ErrConflict)
		}
	}
	s.nextTagID++
	tag.ID = s.nextTagID
	s.tags[tag.ID] = tag
	return tag.ID, nil
}

// DeleteTag removes a tag and its mappings; agents survive
func (s *Store) DeleteTag(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tags[id]; !ok {
		return false, nil
	}
	delete(s.tags, id)
	for _, memberships := range s.tagMap {
		delete(memberships, id)
	}
	return true, nil
}

// AssignGroup maps an agent onto a group
func (s *Store) AssignGroup(_ context.Context, agentID string, groupID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.groupMap[agentID] == nil {
		s.groupMap[agentID] = make(map[int64]bool)
	}
	s.groupMap[agentID][groupID] = true
	return nil
}

// UnassignGroup removes an agent from a group
func (s *Store) UnassignGroup(_ context.Context, agentID string, groupID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.groupMap[agentID], groupID)
	return nil
}

// AssignTag attaches a tag to an agent
func (s *Store) AssignTag(_ context.Context, agentID string, tagID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tagMap[agentID] == nil {
		s.tagMap[agentID] = make(map[int64]bool)
	}
	s.tagMap[agentID][tagID] = true
	return nil
}

// UnassignTag detaches a tag from an agent
func (s *Store) UnassignTag(_ context.Context, agentID string, tagID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tagMap[agentID], tagID)
	return nil
}

// SaveScanResult parses a raw Trivy report and stores summary plus
// vulnerability rows
func (s *Store) SaveScanResult(_ context.Context, agentID *string, imageName string, report json.RawMessage, source string) (int64, error) {
	summary, vulns, err := domains.SummarizeScanReport(report)
	if err != nil {
		return 0, fmt.Errorf("failed to parse scan report: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextScanID++
	s.scans = append(s.scans, domains.ScanRecord{
		ID:            s.nextScanID,
		AgentID:       agentID,
		ImageName:     imageName,
		ScanDate:      time.Now(),
		TotalVulns:    summary.Total,
		CriticalCount: summary.Critical,
		HighCount:     summary.High,
		MediumCount:   summary.Medium,
		LowCount:      summary.Low,
		ScanSource:    source,
	})
	for _, v := range vulns {
		v.ScanID = s.nextScanID
		s.vulns = append(s.vulns, v)
	}
	return s.nextScanID, nil
}

// ScansByAgent returns recent scan records newest first
func (s *Store) ScansByAgent(_ context.Context, agentID *string, limit int) ([]domains.ScanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var scans []domains.ScanRecord
	for _, rec := range s.scans {
		if agentID != nil && (rec.AgentID == nil || *rec.AgentID != *agentID) {
			continue
		}
		scans = append(scans, rec)
	}
	sort.Slice(scans, func(i, j int) bool { return scans[i].ID > scans[j].ID })
	if limit > 0 && len(scans) > limit {
		scans = scans[:limit]
	}
	return scans, nil
}

// AgentScanStats aggregates scan activity within the window
func (s *Store) AgentScanStats(_ context.Context, agentID string, window time.Duration) (domains.AgentScanStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-window)
	var stats domains.AgentScanStats
	for _, rec := range s.scans {
		if rec.AgentID == nil || *rec.AgentID != agentID || !rec.ScanDate.After(cutoff) {
			continue
		}
		stats.RecentScans++
		stats.RecentCritical += rec.CriticalCount
		stats.RecentHigh += rec.HighCount
	}
	return stats, nil
}

// InsertAudit appends one audit record
func (s *Store) InsertAudit(_ context.Context, entry domains.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.ID = int64(len(s.audits) + 1)
	entry.CreatedAt = time.Now()
	s.audits = append(s.audits, entry)
	return nil
}

// Audits returns a copy of all recorded audit entries
func (s *Store) Audits() []domains.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domains.AuditEntry, len(s.audits))
	copy(out, s.audits)
	return out
}

// GetAdminUser retrieves an operator account; nil when unknown
func (s *Store) GetAdminUser(_ context.Context, username string) (*domains.AdminUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return nil, nil
	}
	copied := user
	return &copied, nil
}

// CreateAdminUser inserts an operator account
func (s *Store) CreateAdminUser(_ context.Context, username, passwordHash, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[username]; ok {
		return fmt.Errorf("duplicate username: %w", domains.ErrConflict)
	}
	s.nextUserID++
	s.users[username] = domains.AdminUser{
		ID:           s.nextUserID,
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    time.Now(),
	}
	return nil
}

// CountAdminUsers returns the number of operator accounts
func (s *Store) CountAdminUsers(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users), nil
}

// Close releases nothing; present to satisfy the store interface
func (s *Store) Close() {}

// SetHeartbeat force-sets an agent's heartbeat time and status; test helper
// for exercising liveness transitions without waiting.
func (s *Store) SetHeartbeat(agentID string, at time.Time, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if agent, ok := s.agents[agentID]; ok {
		agent.LastHeartbeat = &at
		agent.Status = status
	}
}
