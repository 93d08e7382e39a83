package services_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-svc/app/domains"
	"fleet-svc/app/services"
	"fleet-svc/storage/memstore"
)

func TestEnqueue_UnregisteredAgentAllowed(t *testing.T) {
	svc := services.NewCommandService(memstore.NewStore())
	ctx := context.Background()

	// Commands may be queued before the agent ever registers
	id, err := svc.Enqueue(ctx, "future-node", "collect_system_info", nil)
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	pending, err := svc.PendingFor(ctx, "future-node")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "collect_system_info", pending[0].CommandType)
}

func TestEnqueue_RequiresFields(t *testing.T) {
	svc := services.NewCommandService(memstore.NewStore())

	_, err := svc.Enqueue(context.Background(), "", "ping", nil)
	assert.ErrorIs(t, err, domains.ErrValidation)

	_, err = svc.Enqueue(context.Background(), "node-1", "", nil)
	assert.ErrorIs(t, err, domains.ErrValidation)
}

func TestPendingFor_RedeliversUntilResult(t *testing.T) {
	svc := services.NewCommandService(memstore.NewStore())
	ctx := context.Background()

	id, err := svc.Enqueue(ctx, "node-1", "ping", nil)
	require.NoError(t, err)

	// Polling does not dequeue: the command comes back on every poll
	for i := 0; i < 3; i++ {
		pending, err := svc.PendingFor(ctx, "node-1")
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, id, pending[0].ID)
	}

	require.NoError(t, svc.ReportResult(ctx, id, "", json.RawMessage(`{"pong":true}`)))

	pending, err := svc.PendingFor(ctx, "node-1")
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestPendingFor_OldestFirst(t *testing.T) {
	svc := services.NewCommandService(memstore.NewStore())
	ctx := context.Background()

	first, err := svc.Enqueue(ctx, "node-1", "ping", nil)
	require.NoError(t, err)
	second, err := svc.Enqueue(ctx, "node-1", "collect_system_info", nil)
	require.NoError(t, err)

	pending, err := svc.PendingFor(ctx, "node-1")
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first, pending[0].ID)
	assert.Equal(t, second, pending[1].ID)
}

func TestReportResult_DefaultsCompletedAndOverwrites(t *testing.T) {
	store := memstore.NewStore()
	svc := services.NewCommandService(store)
	ctx := context.Background()

	id, err := svc.Enqueue(ctx, "node-1", "ping", nil)
	require.NoError(t, err)

	require.NoError(t, svc.ReportResult(ctx, id, "", json.RawMessage(`{"attempt":1}`)))

	recent, err := svc.Recent(ctx, "node-1", 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, domains.CommandStatusCompleted, recent[0].Status)
	assert.NotNil(t, recent[0].CompletedAt)

	// A duplicate report is not an error; last write wins
	require.NoError(t, svc.ReportResult(ctx, id, domains.CommandStatusFailed, json.RawMessage(`{"attempt":2}`)))

	recent, err = svc.Recent(ctx, "node-1", 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, domains.CommandStatusFailed, recent[0].Status)
	assert.JSONEq(t, `{"attempt":2}`, string(recent[0].Result))
}

func TestReportResult_UnknownCommand(t *testing.T) {
	svc := services.NewCommandService(memstore.NewStore())

	err := svc.ReportResult(context.Background(), 9999, "completed", nil)
	assert.ErrorIs(t, err, domains.ErrNotFound)
}

func TestPendingFor_EmptyQueueIsEmptySlice(t *testing.T) {
	svc := services.NewCommandService(memstore.NewStore())

	pending, err := svc.PendingFor(context.Background(), "node-1")
	require.NoError(t, err)
	assert.NotNil(t, pending)
	assert.Empty(t, pending)
}
