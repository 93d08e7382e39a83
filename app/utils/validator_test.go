package utils_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-svc/app/utils"
)

type sampleRequest struct {
	AgentID  string `json:"agent_id" validate:"required"`
	Hostname string `json:"hostname" validate:"required"`
	Status   string `json:"status" validate:"omitempty,oneof=online error"`
}

func TestValidateStruct_ReportsJSONFieldNames(t *testing.T) {
	err := utils.ValidateStruct(&sampleRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "agent_id")
	assert.Contains(t, err.Error(), "hostname")
}

func TestValidateStruct_OneOf(t *testing.T) {
	req := &sampleRequest{AgentID: "node-1", Hostname: "host-a", Status: "banana"}
	err := utils.ValidateStruct(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status")

	req.Status = "error"
	assert.NoError(t, utils.ValidateStruct(req))

	req.Status = ""
	assert.NoError(t, utils.ValidateStruct(req))
}

func TestRetryPolicy_ExponentialBackoffCapped(t *testing.T) {
	policy := &utils.RetryPolicy{
		MaxRetries: 5,
		BaseDelay:  time.Second,
		MaxDelay:   10 * time.Second,
	}

	assert.Equal(t, time.Second, policy.CalculateDelay(0))
	assert.Equal(t, 2*time.Second, policy.CalculateDelay(1))
	assert.Equal(t, 4*time.Second, policy.CalculateDelay(2))
	assert.Equal(t, 8*time.Second, policy.CalculateDelay(3))
	assert.Equal(t, 10*time.Second, policy.CalculateDelay(4))
	assert.Equal(t, 10*time.Second, policy.CalculateDelay(100))
	assert.Equal(t, time.Second, policy.CalculateDelay(-3))
}
