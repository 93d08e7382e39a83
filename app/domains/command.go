package domains

import (
	"encoding/json"
	"time"
)

// Command status values. Reported status is effectively free text; these are
// the values the server itself assigns.
const (
	CommandStatusPending   = "pending"
	CommandStatusCompleted = "completed"
	CommandStatusFailed    = "failed"
)

// AgentCommand represents one queued command for one agent. Delivery does
// not dequeue: a pending command is returned on every poll until a result
// is reported.
type AgentCommand struct {
	ID          int64           `json:"id" db:"id"`
	AgentID     string          `json:"agent_id" db:"agent_id"`
	CommandType string          `json:"command_type" db:"command_type"`
	CommandData json.RawMessage `json:"command_data,omitempty" db:"command_data"`
	Status      string          `json:"status" db:"status"`
	Result      json.RawMessage `json:"result,omitempty" db:"result"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
}
