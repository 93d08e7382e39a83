package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-svc/app/domains"
	"fleet-svc/app/services"
	"fleet-svc/storage/memstore"
)

func TestCreateGroup_DuplicateNameConflicts(t *testing.T) {
	svc := services.NewAssetService(memstore.NewStore())
	ctx := context.Background()

	_, err := svc.CreateGroup(ctx, domains.AssetGroup{Name: "production"})
	require.NoError(t, err)

	_, err = svc.CreateGroup(ctx, domains.AssetGroup{Name: "production"})
	assert.ErrorIs(t, err, domains.ErrConflict)
}

func TestCreateGroup_DefaultsDisplayName(t *testing.T) {
	svc := services.NewAssetService(memstore.NewStore())
	ctx := context.Background()

	id, err := svc.CreateGroup(ctx, domains.AssetGroup{Name: "staging"})
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	groups, err := svc.ListGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "staging", groups[0].DisplayName)
}

func TestDeleteGroup_UnassignsButKeepsAgents(t *testing.T) {
	store := memstore.NewStore()
	assets := services.NewAssetService(store)
	registry := services.NewRegistryService(store)
	ctx := context.Background()

	require.NoError(t, registry.UpsertAgent(ctx, &domains.Agent{AgentID: "node-1", Hostname: "host-a"}))
	groupID, err := assets.CreateGroup(ctx, domains.AssetGroup{Name: "production"})
	require.NoError(t, err)
	require.NoError(t, assets.AssignGroup(ctx, "node-1", groupID))

	require.NoError(t, assets.DeleteGroup(ctx, groupID))

	agent, err := registry.Get(ctx, "node-1")
	require.NoError(t, err)
	assert.Equal(t, "node-1", agent.AgentID)

	assert.ErrorIs(t, assets.DeleteGroup(ctx, groupID), domains.ErrNotFound)
}

func TestEnsureTag_FindOrCreate(t *testing.T) {
	svc := services.NewAssetService(memstore.NewStore())
	ctx := context.Background()

	first, err := svc.EnsureTag(ctx, "docker")
	require.NoError(t, err)

	second, err := svc.EnsureTag(ctx, "docker")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	tags, err := svc.ListTags(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 1)
}

func TestGroupFilter_NarrowsListing(t *testing.T) {
	store := memstore.NewStore()
	assets := services.NewAssetService(store)
	registry := services.NewRegistryService(store)
	ctx := context.Background()

	require.NoError(t, registry.UpsertAgent(ctx, &domains.Agent{AgentID: "node-1", Hostname: "host-a"}))
	require.NoError(t, registry.UpsertAgent(ctx, &domains.Agent{AgentID: "node-2", Hostname: "host-b"}))

	groupID, err := assets.CreateGroup(ctx, domains.AssetGroup{Name: "production"})
	require.NoError(t, err)
	require.NoError(t, assets.AssignGroup(ctx, "node-1", groupID))

	agents, err := registry.List(ctx, domains.AgentListFilter{GroupID: groupID})
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, "node-1", agents[0].AgentID)
}

func TestTagFilter_NarrowsListing(t *testing.T) {
	store := memstore.NewStore()
	assets := services.NewAssetService(store)
	registry := services.NewRegistryService(store)
	ctx := context.Background()

	require.NoError(t, registry.UpsertAgent(ctx, &domains.Agent{AgentID: "node-1", Hostname: "host-a"}))
	require.NoError(t, registry.UpsertAgent(ctx, &domains.Agent{AgentID: "node-2", Hostname: "host-b"}))

	tagID, err := assets.EnsureTag(ctx, "docker")
	require.NoError(t, err)
	require.NoError(t, assets.AssignTag(ctx, "node-2", tagID))

	agents, err := registry.List(ctx, domains.AgentListFilter{TagIDs: []int64{tagID}})
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, "node-2", agents[0].AgentID)
}
