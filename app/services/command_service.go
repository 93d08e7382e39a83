package services

import (
	"context"
	"encoding/json"
	"fmt"

	"fleet-svc/app/clients"
	"fleet-svc/app/domains"
)

// CommandService handles the per-agent command queue. Delivery is
// at-least-once: pending commands are redelivered on every poll until the
// agent reports a result, so agents must consume idempotently.
type CommandService struct {
	storage clients.StorageAdapter
}

// NewCommandService creates a new command service
func NewCommandService(storage clients.StorageAdapter) *CommandService {
	return &CommandService{storage: storage}
}

// Enqueue queues a command for an agent. The agent does not have to exist
// yet; commands may be pre-provisioned for agents that register later.
func (s *CommandService) Enqueue(ctx context.Context, agentID, commandType string, data json.RawMessage) (int64, error) {
	if agentID == "" || commandType == "" {
		return 0, fmt.Errorf("%w: agent_id and command_type are required", domains.ErrValidation)
	}
	id, err := s.storage.CreateCommand(ctx, agentID, commandType, data)
	if err != nil {
		return 0, fmt.Errorf("failed to enqueue command for %s: %w", agentID, err)
	}
	return id, nil
}

// PendingFor returns all non-terminal commands for an agent, oldest first
func (s *CommandService) PendingFor(ctx context.Context, agentID string) ([]domains.AgentCommand, error) {
	commands, err := s.storage.PendingCommands(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending commands for %s: %w", agentID, err)
	}
	if commands == nil {
		commands = []domains.AgentCommand{}
	}
	return commands, nil
}

// ReportResult moves a command to a terminal state. The status string is
// not strictly constrained and defaults to completed. Reporting twice
// simply overwrites the earlier result.
func (s *CommandService) ReportResult(ctx context.Context, commandID int64, status string, result json.RawMessage) error {
	if commandID == 0 {
		return fmt.Errorf("%w: command_id is required", domains.ErrValidation)
	}
	if status == "" {
		status = domains.CommandStatusCompleted
	}
	matched, err := s.storage.UpdateCommandResult(ctx, commandID, status, result)
	if err != nil {
		return fmt.Errorf("failed to update command %d: %w", commandID, err)
	}
	if !matched {
		return fmt.Errorf("command %d: %w", commandID, domains.ErrNotFound)
	}
	return nil
}

// Recent returns the latest commands for an agent regardless of state
func (s *CommandService) Recent(ctx context.Context, agentID string, limit int) ([]domains.AgentCommand, error) {
	return s.storage.RecentCommands(ctx, agentID, limit)
}
