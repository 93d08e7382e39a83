package dto

import "encoding/json"

// RegisterRequest represents agent registration
type RegisterRequest struct {
	AgentID   string          `json:"agent_id" validate:"required"`
	Hostname  string          `json:"hostname" validate:"required"`
	IPAddress string          `json:"ip_address,omitempty"`
	OSInfo    string          `json:"os_info,omitempty"`
	Version   string          `json:"version,omitempty"`
	Config    json.RawMessage `json:"config,omitempty"`
	Tags      []string        `json:"tags,omitempty"`
}

// HeartbeatRequest represents an agent heartbeat. Status may only be set to
// "error" by the agent itself; anything else counts as a plain heartbeat.
type HeartbeatRequest struct {
	AgentID string `json:"agent_id" validate:"required"`
	Status  string `json:"status,omitempty" validate:"omitempty,oneof=online error"`
}

// ReportRequest represents a telemetry batch from one agent
type ReportRequest struct {
	AgentID  string          `json:"agent_id" validate:"required"`
	DataType string          `json:"data_type" validate:"required"`
	Data     json.RawMessage `json:"data" validate:"required"`
}

// CommandResultRequest terminal-izes one command
type CommandResultRequest struct {
	CommandID int64           `json:"command_id" validate:"required"`
	Status    string          `json:"status,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
}

// SendCommandRequest enqueues a command for an agent (admin)
type SendCommandRequest struct {
	AgentID     string          `json:"agent_id" validate:"required"`
	CommandType string          `json:"command_type" validate:"required"`
	CommandData json.RawMessage `json:"command_data,omitempty"`
}

// LoginRequest authenticates an operator
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// CreateGroupRequest creates an asset group
type CreateGroupRequest struct {
	Name        string `json:"name" validate:"required"`
	DisplayName string `json:"display_name,omitempty"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

// CreateTagRequest creates an asset tag
type CreateTagRequest struct {
	Name        string `json:"name" validate:"required"`
	DisplayName string `json:"display_name,omitempty"`
	Color       string `json:"color,omitempty"`
	Category    string `json:"category,omitempty"`
}

// GroupAssignRequest maps an agent onto a group
type GroupAssignRequest struct {
	AgentID string `json:"agent_id" validate:"required"`
	GroupID int64  `json:"group_id" validate:"required"`
}

// TagAssignRequest maps an agent onto a tag
type TagAssignRequest struct {
	AgentID string `json:"agent_id" validate:"required"`
	TagID   int64  `json:"tag_id" validate:"required"`
}
