package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-svc/app/services"
)

func TestVerifySharedToken(t *testing.T) {
	svc := services.NewTokenService("signing-secret", "bootstrap-token", 3600)

	assert.True(t, svc.VerifySharedToken("bootstrap-token"))
	assert.False(t, svc.VerifySharedToken("wrong-token"))
	assert.False(t, svc.VerifySharedToken(""))
}

func TestAgentToken_RoundTrip(t *testing.T) {
	svc := services.NewTokenService("signing-secret", "bootstrap-token", 3600)

	token, err := svc.IssueAgentToken("node-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	agentID, err := svc.ValidateAgentToken(token)
	require.NoError(t, err)
	assert.Equal(t, "node-1", agentID)
}

func TestAgentToken_WrongSecretRejected(t *testing.T) {
	issuer := services.NewTokenService("secret-a", "bootstrap-token", 3600)
	verifier := services.NewTokenService("secret-b", "bootstrap-token", 3600)

	token, err := issuer.IssueAgentToken("node-1")
	require.NoError(t, err)

	_, err = verifier.ValidateAgentToken(token)
	assert.Error(t, err)
}

func TestAgentToken_ExpiredRejected(t *testing.T) {
	svc := services.NewTokenService("signing-secret", "bootstrap-token", -1)

	token, err := svc.IssueAgentToken("node-1")
	require.NoError(t, err)

	_, err = svc.ValidateAgentToken(token)
	assert.Error(t, err)
}

func TestAdminToken_CarriesRole(t *testing.T) {
	svc := services.NewTokenService("signing-secret", "bootstrap-token", 3600)

	token, err := svc.IssueAdminToken("alice", "operator")
	require.NoError(t, err)

	claims, err := svc.ValidateAdminToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "operator", claims.Role)
}

func TestValidateAgentToken_Garbage(t *testing.T) {
	svc := services.NewTokenService("signing-secret", "bootstrap-token", 3600)

	_, err := svc.ValidateAgentToken("not-a-jwt")
	assert.Error(t, err)
}
