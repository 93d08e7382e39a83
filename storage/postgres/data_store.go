package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"fleet-svc/app/domains"
)

// InsertAgentData appends one telemetry record
func (s *Store) InsertAgentData(ctx context.Context, agentID, dataType string, dataKey *string, value json.RawMessage) error {
	query := `
		INSERT INTO agent_data (agent_id, data_type, data_key, value)
		VALUES ($1, $2, $3, $4::jsonb)
	`
	_, err := s.pool.Exec(ctx, query, agentID, dataType, dataKey, string(value))
	return err
}

// GetAgentData returns the newest telemetry records for an agent,
// optionally filtered by data type
func (s *Store) GetAgentData(ctx context.Context, agentID string, dataType *string, limit int) ([]domains.AgentData, error) {
	query := `
		SELECT id, agent_id, data_type, data_key, value, recorded_at
		FROM agent_data
		WHERE agent_id = $1
	`
	args := []interface{}{agentID}
	argIdx := 2

	if dataType != nil {
		query += fmt.Sprintf(` AND data_type = $%d`, argIdx)
		args = append(args, *dataType)
		argIdx++
	}

	query += fmt.Sprintf(` ORDER BY recorded_at DESC, id DESC LIMIT $%d`, argIdx)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domains.AgentData
	for rows.Next() {
		var rec domains.AgentData
		err := rows.Scan(&rec.ID, &rec.AgentID, &rec.DataType, &rec.DataKey, &rec.Value, &rec.RecordedAt)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
