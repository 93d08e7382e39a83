package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"fleet-svc/app/domains"
	"fleet-svc/app/dto"
)

func TestLogin_Success(t *testing.T) {
	f := newFixture(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, f.store.CreateAdminUser(context.Background(), "alice", string(hash), domains.RoleOperator))

	code, env := f.do(t, http.MethodPost, "/api/auth/login",
		dto.LoginRequest{Username: "alice", Password: "s3cret-pass"}, nil)
	require.Equal(t, http.StatusOK, code)
	require.True(t, env.Success)

	var data dto.LoginData
	decodeData(t, env, &data)
	assert.NotEmpty(t, data.Token)
	assert.Equal(t, domains.RoleOperator, data.Role)
	assert.Equal(t, int64(3600), data.ExpiresIn)

	claims, err := f.tokens.ValidateAdminToken(data.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, domains.RoleOperator, claims.Role)
}

func TestLogin_UniformRejection(t *testing.T) {
	f := newFixture(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, f.store.CreateAdminUser(context.Background(), "alice", string(hash), domains.RoleOperator))

	// Wrong password and unknown user produce the same response
	code, env := f.do(t, http.MethodPost, "/api/auth/login",
		dto.LoginRequest{Username: "alice", Password: "wrong"}, nil)
	require.Equal(t, http.StatusUnauthorized, code)
	require.NotNil(t, env.Error)
	wrongPassword := *env.Error

	code, env = f.do(t, http.MethodPost, "/api/auth/login",
		dto.LoginRequest{Username: "nobody", Password: "s3cret-pass"}, nil)
	require.Equal(t, http.StatusUnauthorized, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, wrongPassword, *env.Error)
}

func TestLogin_MissingFields(t *testing.T) {
	f := newFixture(t)

	code, _ := f.do(t, http.MethodPost, "/api/auth/login",
		dto.LoginRequest{Username: "alice"}, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}
