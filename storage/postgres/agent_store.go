package postgres

import (
	"context"
	"fmt"
	"time"

	"fleet-svc/app/domains"

	"github.com/jackc/pgx/v5"
)

// UpsertAgent inserts or refreshes an agent keyed on agent_id. The unique
// key makes the upsert atomic under concurrent double-registration.
func (s *Store) UpsertAgent(ctx context.Context, agent *domains.Agent) error {
	query := `
		INSERT INTO agents (agent_id, hostname, ip_address, os_info, version, config, status, last_heartbeat)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, 'online', now())
		ON CONFLICT (agent_id)
		DO UPDATE SET
			hostname = EXCLUDED.hostname,
			ip_address = EXCLUDED.ip_address,
			os_info = EXCLUDED.os_info,
			version = EXCLUDED.version,
			config = EXCLUDED.config,
			status = 'online',
			last_heartbeat = now()
	`
	_, err := s.pool.Exec(ctx, query,
		agent.AgentID, agent.Hostname, agent.IPAddress, agent.OSInfo, agent.Version,
		nullableJSON(agent.Config),
	)
	return err
}

// GetAgent retrieves an agent by its agent_id
func (s *Store) GetAgent(ctx context.Context, agentID string) (*domains.Agent, error) {
	var agent domains.Agent
	query := `
		SELECT id, agent_id, hostname, ip_address, os_info, version, config, status, last_heartbeat, created_at
		FROM agents WHERE agent_id = $1
	`
	err := s.pool.QueryRow(ctx, query, agentID).Scan(
		&agent.ID, &agent.AgentID, &agent.Hostname, &agent.IPAddress, &agent.OSInfo,
		&agent.Version, &agent.Config, &agent.Status, &agent.LastHeartbeat, &agent.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &agent, nil
}

// ListAgents retrieves agents, optionally filtered by status, group
// membership, and tag membership (OR semantics across tag ids)
func (s *Store) ListAgents(ctx context.Context, filter domains.AgentListFilter) ([]domains.Agent, error) {
	query := `
		SELECT DISTINCT a.id, a.agent_id, a.hostname, a.ip_address, a.os_info, a.version,
		       a.config, a.status, a.last_heartbeat, a.created_at
		FROM agents a
	`
	args := []interface{}{}
	argIdx := 1

	if filter.GroupID != 0 {
		query += fmt.Sprintf(` JOIN agent_group_map gm ON gm.agent_id = a.agent_id AND gm.group_id = $%d`, argIdx)
		args = append(args, filter.GroupID)
		argIdx++
	}
	if len(filter.TagIDs) > 0 {
		query += fmt.Sprintf(` JOIN agent_tag_map tm ON tm.agent_id = a.agent_id AND tm.tag_id = ANY($%d)`, argIdx)
		args = append(args, filter.TagIDs)
		argIdx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(` WHERE a.status = $%d`, argIdx)
		args = append(args, filter.Status)
	}

	query += ` ORDER BY a.last_heartbeat DESC NULLS LAST`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agents []domains.Agent
	for rows.Next() {
		var agent domains.Agent
		err := rows.Scan(
			&agent.ID, &agent.AgentID, &agent.Hostname, &agent.IPAddress, &agent.OSInfo,
			&agent.Version, &agent.Config, &agent.Status, &agent.LastHeartbeat, &agent.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		agents = append(agents, agent)
	}
	return agents, rows.Err()
}

// TouchHeartbeat refreshes last_heartbeat and sets the given status.
// Returns false when no row matched, i.e. the agent never registered.
func (s *Store) TouchHeartbeat(ctx context.Context, agentID, status string) (bool, error) {
	query := `UPDATE agents SET last_heartbeat = now(), status = $2 WHERE agent_id = $1`
	tag, err := s.pool.Exec(ctx, query, agentID, status)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MarkOfflineAgents transitions online agents silent for longer than the
// threshold to offline. Idempotent.
func (s *Store) MarkOfflineAgents(ctx context.Context, threshold time.Duration) (int64, error) {
	cutoff := time.Now().Add(-threshold)
	query := `UPDATE agents SET status = 'offline' WHERE status = 'online' AND last_heartbeat < $1`
	tag, err := s.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteAgent removes an agent plus its commands, telemetry, and group/tag
// mappings in one transaction. A crash mid-cascade must never leave an
// agent row without its queued work or vice versa.
func (s *Store) DeleteAgent(ctx context.Context, agentID string) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	if err := cascadeAgentRows(ctx, tx, agentID); err != nil {
		return false, err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM agents WHERE agent_id = $1`, agentID)
	if err != nil {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteAgentsOffline removes agents offline for longer than the retention
// window, cascading each one
func (s *Store) DeleteAgentsOffline(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx,
		`SELECT agent_id FROM agents WHERE status = 'offline' AND last_heartbeat < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, id := range ids {
		if err := cascadeAgentRows(ctx, tx, id); err != nil {
			return 0, err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM agents WHERE agent_id = $1`, id); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// DeleteAllAgents removes every agent and all dependent rows
func (s *Store) DeleteAllAgents(ctx context.Context) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	for _, stmt := range []string{
		`DELETE FROM agent_data`,
		`DELETE FROM agent_commands`,
		`DELETE FROM agent_group_map`,
		`DELETE FROM agent_tag_map`,
	} {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return 0, err
		}
	}
	tag, err := tx.Exec(ctx, `DELETE FROM agents`)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func cascadeAgentRows(ctx context.Context, tx pgx.Tx, agentID string) error {
	for _, stmt := range []string{
		`DELETE FROM agent_data WHERE agent_id = $1`,
		`DELETE FROM agent_commands WHERE agent_id = $1`,
		`DELETE FROM agent_group_map WHERE agent_id = $1`,
		`DELETE FROM agent_tag_map WHERE agent_id = $1`,
	} {
		if _, err := tx.Exec(ctx, stmt, agentID); err != nil {
			return err
		}
	}
	return nil
}
