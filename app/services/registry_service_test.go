package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-svc/app/domains"
	"fleet-svc/app/services"
	"fleet-svc/storage/memstore"
)

func TestUpsertAgent_CreatesAndRefreshes(t *testing.T) {
	store := memstore.NewStore()
	svc := services.NewRegistryService(store)
	ctx := context.Background()

	require.NoError(t, svc.UpsertAgent(ctx, &domains.Agent{
		AgentID:  "node-1",
		Hostname: "host-a",
		Version:  "1.2.0",
	}))

	// Re-registering the same agent_id must refresh, not duplicate
	require.NoError(t, svc.UpsertAgent(ctx, &domains.Agent{
		AgentID:  "node-1",
		Hostname: "host-a-renamed",
		Version:  "1.3.0",
	}))

	agents, err := svc.List(ctx, domains.AgentListFilter{})
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, "host-a-renamed", agents[0].Hostname)
	assert.Equal(t, "1.3.0", agents[0].Version)
	assert.Equal(t, domains.AgentStatusOnline, agents[0].Status)
	assert.NotNil(t, agents[0].LastHeartbeat)
}

func TestUpsertAgent_RequiresIdentity(t *testing.T) {
	svc := services.NewRegistryService(memstore.NewStore())

	err := svc.UpsertAgent(context.Background(), &domains.Agent{Hostname: "host-a"})
	assert.ErrorIs(t, err, domains.ErrValidation)

	err = svc.UpsertAgent(context.Background(), &domains.Agent{AgentID: "node-1"})
	assert.ErrorIs(t, err, domains.ErrValidation)
}

func TestUpsertAgent_DefaultsVersion(t *testing.T) {
	store := memstore.NewStore()
	svc := services.NewRegistryService(store)
	ctx := context.Background()

	require.NoError(t, svc.UpsertAgent(ctx, &domains.Agent{AgentID: "node-1", Hostname: "host-a"}))

	agent, err := svc.Get(ctx, "node-1")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", agent.Version)
}

func TestHeartbeat_UnknownAgent(t *testing.T) {
	svc := services.NewRegistryService(memstore.NewStore())

	err := svc.Heartbeat(context.Background(), "ghost", "")
	assert.ErrorIs(t, err, domains.ErrNotFound)
}

func TestHeartbeat_RefreshesAndNormalizesStatus(t *testing.T) {
	store := memstore.NewStore()
	svc := services.NewRegistryService(store)
	ctx := context.Background()

	require.NoError(t, svc.UpsertAgent(ctx, &domains.Agent{AgentID: "node-1", Hostname: "host-a"}))
	store.SetHeartbeat("node-1", time.Now().Add(-time.Hour), domains.AgentStatusOffline)

	// A plain heartbeat brings the agent back online
	require.NoError(t, svc.Heartbeat(ctx, "node-1", ""))
	agent, err := svc.Get(ctx, "node-1")
	require.NoError(t, err)
	assert.Equal(t, domains.AgentStatusOnline, agent.Status)
	assert.WithinDuration(t, time.Now(), *agent.LastHeartbeat, 5*time.Second)

	// Agent-reported error status is preserved
	require.NoError(t, svc.Heartbeat(ctx, "node-1", domains.AgentStatusError))
	agent, err = svc.Get(ctx, "node-1")
	require.NoError(t, err)
	assert.Equal(t, domains.AgentStatusError, agent.Status)

	// Arbitrary status strings collapse to online
	require.NoError(t, svc.Heartbeat(ctx, "node-1", "degraded"))
	agent, err = svc.Get(ctx, "node-1")
	require.NoError(t, err)
	assert.Equal(t, domains.AgentStatusOnline, agent.Status)
}

func TestDeleteAgent_CascadesAndReportsMissing(t *testing.T) {
	store := memstore.NewStore()
	registry := services.NewRegistryService(store)
	commands := services.NewCommandService(store)
	ctx := context.Background()

	require.NoError(t, registry.UpsertAgent(ctx, &domains.Agent{AgentID: "node-1", Hostname: "host-a"}))
	_, err := commands.Enqueue(ctx, "node-1", "ping", nil)
	require.NoError(t, err)

	require.NoError(t, registry.Delete(ctx, "node-1"))

	_, err = registry.Get(ctx, "node-1")
	assert.ErrorIs(t, err, domains.ErrNotFound)

	pending, err := commands.PendingFor(ctx, "node-1")
	require.NoError(t, err)
	assert.Empty(t, pending)

	assert.ErrorIs(t, registry.Delete(ctx, "node-1"), domains.ErrNotFound)
}
