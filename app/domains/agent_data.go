package domains

import (
	"encoding/json"
	"time"
)

// AgentData is one append-only telemetry record. DataKey is set when the
// reported payload was a keyed object; positional entries carry a nil key.
type AgentData struct {
	ID         int64           `json:"id" db:"id"`
	AgentID    string          `json:"agent_id" db:"agent_id"`
	DataType   string          `json:"data_type" db:"data_type"`
	DataKey    *string         `json:"data_key" db:"data_key"`
	Value      json.RawMessage `json:"value" db:"value"`
	RecordedAt time.Time       `json:"recorded_at" db:"recorded_at"`
}
