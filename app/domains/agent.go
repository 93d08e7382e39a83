package domains

import (
	"encoding/json"
	"time"
)

// Agent status values. Status is derived from heartbeat recency except for
// "error", which is only ever reported by the agent itself.
const (
	AgentStatusOnline  = "online"
	AgentStatusOffline = "offline"
	AgentStatusError   = "error"
)

// Agent represents a registered fleet agent
type Agent struct {
	ID            int64           `json:"-" db:"id"`
	AgentID       string          `json:"agent_id" db:"agent_id"`
	Hostname      string          `json:"hostname" db:"hostname"`
	IPAddress     string          `json:"ip_address" db:"ip_address"`
	OSInfo        string          `json:"os_info" db:"os_info"`
	Version       string          `json:"version" db:"version"`
	Config        json.RawMessage `json:"config,omitempty" db:"config"`
	Status        string          `json:"status" db:"status"`
	LastHeartbeat *time.Time      `json:"last_heartbeat" db:"last_heartbeat"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// AgentScanStats holds per-agent scan counters for the admin list view
type AgentScanStats struct {
	RecentScans    int `json:"recent_scans"`
	RecentCritical int `json:"recent_critical"`
	RecentHigh     int `json:"recent_high"`
}

// AgentListFilter narrows agent listing
type AgentListFilter struct {
	Status  string
	GroupID int64
	TagIDs  []int64
}
