package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"fleet-svc/app/domains"
	"fleet-svc/app/handlers"
	"fleet-svc/app/services"
	"fleet-svc/storage/memstore"
)

const (
	testSharedToken = "test-bootstrap-token"
	testJWTSecret   = "test-signing-secret"
)

type fixture struct {
	store  *memstore.Store
	router *gin.Engine
	tokens *services.TokenService
}

// newFixture builds the full router against an in-memory store, mirroring
// the production wiring.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memstore.NewStore()
	registry := services.NewRegistryService(store)
	commands := services.NewCommandService(store)
	ingest := services.NewIngestService(store, store)
	assets := services.NewAssetService(store)
	audit := services.NewAuditService(store)
	liveness := services.NewLivenessService(store, 5*time.Minute)
	tokens := services.NewTokenService(testJWTSecret, testSharedToken, 3600)

	agentHandler := handlers.NewAgentHandler(registry, commands, ingest, assets, liveness, tokens, store)
	adminHandler := handlers.NewAdminHandler(registry, commands, assets, audit, liveness, store, store)
	authHandler := handlers.NewAuthHandler(tokens, store)
	auth := handlers.NewAuthMiddleware(tokens)

	router := gin.New()
	router.POST("/api/auth/login", authHandler.Login)

	agentAPI := router.Group("/api/agent", auth.AgentAuth())
	agentAPI.GET("", agentHandler.Dispatch)
	agentAPI.POST("", agentHandler.Dispatch)

	adminAPI := router.Group("/api/admin/agent", auth.AdminAuth(domains.RoleViewer))
	adminAPI.GET("", adminHandler.Dispatch)
	adminAPI.POST("", adminHandler.Dispatch)

	return &fixture{store: store, router: router, tokens: tokens}
}

// seedAdmin creates an operator account and returns a session token
func (f *fixture) seedAdmin(t *testing.T, username, role string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, f.store.CreateAdminUser(context.Background(), username, string(hash), role))

	token, err := f.tokens.IssueAdminToken(username, role)
	require.NoError(t, err)
	return token
}

type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Error     *string         `json:"error"`
	Timestamp string          `json:"timestamp"`
}

// do performs one request and decodes the envelope
func (f *fixture) do(t *testing.T, method, target string, body interface{}, headers map[string]string) (int, envelope) {
	t.Helper()

	var reader *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(data)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec.Code, env
}

func agentHeaders() map[string]string {
	return map[string]string{"X-Agent-Token": testSharedToken}
}

func bearerHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func decodeData(t *testing.T, env envelope, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, out))
}
