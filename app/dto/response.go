package dto

import (
	"time"

	"fleet-svc/app/domains"
)

// Envelope is the uniform response shape for every API reply
type Envelope struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data"`
	Error     *string     `json:"error"`
	Timestamp string      `json:"timestamp"`
}

// NewEnvelope wraps data in a success envelope
func NewEnvelope(data interface{}) Envelope {
	return Envelope{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// NewErrorEnvelope wraps an error message in a failure envelope
func NewErrorEnvelope(message string) Envelope {
	return Envelope{
		Success:   false,
		Error:     &message,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// RegisterData is the register response payload
type RegisterData struct {
	Message         string                 `json:"message"`
	AgentID         string                 `json:"agent_id"`
	Token           string                 `json:"token,omitempty"`
	PendingCommands []domains.AgentCommand `json:"pending_commands"`
}

// HeartbeatData is the heartbeat response payload
type HeartbeatData struct {
	Commands   []domains.AgentCommand `json:"commands"`
	ServerTime string                 `json:"server_time"`
}

// ScanEntryResult reports one ingested scan entry
type ScanEntryResult struct {
	Image  string `json:"image"`
	ScanID int64  `json:"scan_id,omitempty"`
	Error  string `json:"error,omitempty"`
}

// ReportData is the report response payload
type ReportData struct {
	Results interface{} `json:"results"`
}

// CommandsData is the command poll response payload
type CommandsData struct {
	Commands []domains.AgentCommand `json:"commands"`
}

// CommandResultData acknowledges a command result
type CommandResultData struct {
	Message string `json:"message"`
}

// AgentView is an agent record decorated for admin listing
type AgentView struct {
	domains.Agent
	RecentScans    int `json:"recent_scans"`
	RecentCritical int `json:"recent_critical"`
	RecentHigh     int `json:"recent_high"`
}

// AgentListData is the agent listing payload
type AgentListData struct {
	Agents interface{} `json:"agents"`
}

// AgentInfoData is the agent detail payload
type AgentInfoData struct {
	Agent          *domains.Agent         `json:"agent"`
	RecentData     []domains.AgentData    `json:"recent_data"`
	RecentScans    []domains.ScanRecord   `json:"recent_scans,omitempty"`
	RecentCommands []domains.AgentCommand `json:"recent_commands,omitempty"`
}

// SendCommandData returns the enqueued command id
type SendCommandData struct {
	CommandID int64 `json:"command_id"`
}

// LoginData is the operator login payload
type LoginData struct {
	Token     string `json:"token"`
	Role      string `json:"role"`
	ExpiresIn int64  `json:"expires_in"`
}

// BulkDeleteData summarizes a bulk destructive operation
type BulkDeleteData struct {
	Deleted int `json:"deleted"`
}
