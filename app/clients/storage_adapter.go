package clients

import (
	"context"
	"encoding/json"
	"time"

	"fleet-svc/app/domains"
)

// StorageAdapter defines the interface for fleet state storage
type StorageAdapter interface {
	// Agents
	UpsertAgent(ctx context.Context, agent *domains.Agent) error
	GetAgent(ctx context.Context, agentID string) (*domains.Agent, error)
	ListAgents(ctx context.Context, filter domains.AgentListFilter) ([]domains.Agent, error)
	TouchHeartbeat(ctx context.Context, agentID, status string) (bool, error)
	MarkOfflineAgents(ctx context.Context, threshold time.Duration) (int64, error)
	DeleteAgent(ctx context.Context, agentID string) (bool, error)
	DeleteAgentsOffline(ctx context.Context, olderThan time.Duration) (int, error)
	DeleteAllAgents(ctx context.Context) (int, error)

	// Commands
	CreateCommand(ctx context.Context, agentID, commandType string, data json.RawMessage) (int64, error)
	PendingCommands(ctx context.Context, agentID string) ([]domains.AgentCommand, error)
	UpdateCommandResult(ctx context.Context, commandID int64, status string, result json.RawMessage) (bool, error)
	RecentCommands(ctx context.Context, agentID string, limit int) ([]domains.AgentCommand, error)

	// Telemetry
	InsertAgentData(ctx context.Context, agentID, dataType string, dataKey *string, value json.RawMessage) error
	GetAgentData(ctx context.Context, agentID string, dataType *string, limit int) ([]domains.AgentData, error)

	// Groups and tags
	ListGroups(ctx context.Context) ([]domains.AssetGroup, error)
	CreateGroup(ctx context.Context, group domains.AssetGroup) (int64, error)
	DeleteGroup(ctx context.Context, id int64) (bool, error)
	ListTags(ctx context.Context) ([]domains.AssetTag, error)
	CreateTag(ctx context.Context, tag domains.AssetTag) (int64, error)
	DeleteTag(ctx context.Context, id int64) (bool, error)
	AssignGroup(ctx context.Context, agentID string, groupID int64) error
	UnassignGroup(ctx context.Context, agentID string, groupID int64) error
	AssignTag(ctx context.Context, agentID string, tagID int64) error
	UnassignTag(ctx context.Context, agentID string, tagID int64) error

	// Operator accounts
	GetAdminUser(ctx context.Context, username string) (*domains.AdminUser, error)
	CreateAdminUser(ctx context.Context, username, passwordHash, role string) error
	CountAdminUsers(ctx context.Context) (int, error)
}

// ScanStore persists parsed scan results and answers scan queries
type ScanStore interface {
	SaveScanResult(ctx context.Context, agentID *string, imageName string, report json.RawMessage, source string) (int64, error)
	ScansByAgent(ctx context.Context, agentID *string, limit int) ([]domains.ScanRecord, error)
	AgentScanStats(ctx context.Context, agentID string, window time.Duration) (domains.AgentScanStats, error)
}

// AuditSink records operator actions; callers treat it as fire-and-forget
type AuditSink interface {
	InsertAudit(ctx context.Context, entry domains.AuditEntry) error
}

// Store is the full storage surface a backend provides
type Store interface {
	StorageAdapter
	ScanStore
	AuditSink
	Close()
}
