package postgres

import (
	"context"
	"encoding/json"

	"fleet-svc/app/domains"
)

// CreateCommand queues a new command for an agent. No agent existence check
// is made: commands may be pre-provisioned for agents that register later.
func (s *Store) CreateCommand(ctx context.Context, agentID, commandType string, data json.RawMessage) (int64, error) {
	var id int64
	query := `
		INSERT INTO agent_commands (agent_id, command_type, command_data, status)
		VALUES ($1, $2, $3::jsonb, 'pending')
		RETURNING id
	`
	err := s.pool.QueryRow(ctx, query, agentID, commandType, nullableJSON(data)).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// PendingCommands returns all commands for an agent not yet in a terminal
// state, oldest first. Reading does not dequeue; the same command is
// redelivered on every poll until a result is reported.
func (s *Store) PendingCommands(ctx context.Context, agentID string) ([]domains.AgentCommand, error) {
	query := `
		SELECT id, agent_id, command_type, command_data, status, result, created_at, completed_at
		FROM agent_commands
		WHERE agent_id = $1 AND status = 'pending'
		ORDER BY created_at ASC, id ASC
	`
	return s.queryCommands(ctx, query, agentID)
}

// UpdateCommandResult moves a command to a terminal state. Repeated reports
// overwrite the earlier result; returns false when the id is unknown.
func (s *Store) UpdateCommandResult(ctx context.Context, commandID int64, status string, result json.RawMessage) (bool, error) {
	query := `
		UPDATE agent_commands
		SET status = $2, result = $3::jsonb, completed_at = now()
		WHERE id = $1
	`
	tag, err := s.pool.Exec(ctx, query, commandID, status, nullableJSON(result))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// RecentCommands returns the newest commands for an agent in any state
func (s *Store) RecentCommands(ctx context.Context, agentID string, limit int) ([]domains.AgentCommand, error) {
	query := `
		SELECT id, agent_id, command_type, command_data, status, result, created_at, completed_at
		FROM agent_commands
		WHERE agent_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	return s.queryCommands(ctx, query, agentID, limit)
}

func (s *Store) queryCommands(ctx context.Context, query string, args ...interface{}) ([]domains.AgentCommand, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var commands []domains.AgentCommand
	for rows.Next() {
		var cmd domains.AgentCommand
		err := rows.Scan(
			&cmd.ID, &cmd.AgentID, &cmd.CommandType, &cmd.CommandData,
			&cmd.Status, &cmd.Result, &cmd.CreatedAt, &cmd.CompletedAt,
		)
		if err != nil {
			return nil, err
		}
		commands = append(commands, cmd)
	}
	return commands, rows.Err()
}
