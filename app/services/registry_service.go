package services

import (
	"context"
	"fmt"

	"fleet-svc/app/clients"
	"fleet-svc/app/domains"
)

// RegistryService is the source of truth for agent identity and liveness
type RegistryService struct {
	storage clients.StorageAdapter
}

// NewRegistryService creates a new registry service
func NewRegistryService(storage clients.StorageAdapter) *RegistryService {
	return &RegistryService{storage: storage}
}

// UpsertAgent registers an agent or refreshes its attributes. Registration
// is keyed solely on agent_id: re-registering never creates a second row.
func (s *RegistryService) UpsertAgent(ctx context.Context, agent *domains.Agent) error {
	if agent.AgentID == "" || agent.Hostname == "" {
		return fmt.Errorf("%w: agent_id and hostname are required", domains.ErrValidation)
	}
	if agent.Version == "" {
		agent.Version = "1.0.0"
	}
	if err := s.storage.UpsertAgent(ctx, agent); err != nil {
		return fmt.Errorf("failed to upsert agent %s: %w", agent.AgentID, err)
	}
	return nil
}

// Heartbeat refreshes an agent's liveness. An unregistered agent_id fails
// with ErrNotFound so the agent knows to re-register rather than silently
// heartbeating into the void. Status "error" is accepted as agent-reported;
// anything else marks the agent online.
func (s *RegistryService) Heartbeat(ctx context.Context, agentID, status string) error {
	if agentID == "" {
		return fmt.Errorf("%w: agent_id is required", domains.ErrValidation)
	}
	if status != domains.AgentStatusError {
		status = domains.AgentStatusOnline
	}
	matched, err := s.storage.TouchHeartbeat(ctx, agentID, status)
	if err != nil {
		return fmt.Errorf("failed to update heartbeat for %s: %w", agentID, err)
	}
	if !matched {
		return fmt.Errorf("agent %s: %w", agentID, domains.ErrNotFound)
	}
	return nil
}

// Get retrieves one agent
func (s *RegistryService) Get(ctx context.Context, agentID string) (*domains.Agent, error) {
	agent, err := s.storage.GetAgent(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get agent %s: %w", agentID, err)
	}
	if agent == nil {
		return nil, fmt.Errorf("agent %s: %w", agentID, domains.ErrNotFound)
	}
	return agent, nil
}

// List retrieves agents matching the filter
func (s *RegistryService) List(ctx context.Context, filter domains.AgentListFilter) ([]domains.Agent, error) {
	return s.storage.ListAgents(ctx, filter)
}

// Delete removes an agent and, in the same transaction, its commands,
// telemetry, and group/tag mappings. A partial cascade would silently lose
// operator-issued work, so the storage layer must make this all-or-nothing.
func (s *RegistryService) Delete(ctx context.Context, agentID string) error {
	matched, err := s.storage.DeleteAgent(ctx, agentID)
	if err != nil {
		return fmt.Errorf("failed to delete agent %s: %w", agentID, err)
	}
	if !matched {
		return fmt.Errorf("agent %s: %w", agentID, domains.ErrNotFound)
	}
	return nil
}
