package handlers

import (
	"net/http"
	"strings"

	"fleet-svc/app/domains"
	"fleet-svc/app/services"

	"github.com/gin-gonic/gin"
)

// Context keys set by the auth middleware
const (
	ctxAgentID   = "auth_agent_id"
	ctxAdminUser = "auth_admin_user"
	ctxAdminRole = "auth_admin_role"
)

// AuthMiddleware gates both API surfaces
type AuthMiddleware struct {
	tokens *services.TokenService
}

// NewAuthMiddleware creates the auth middleware
func NewAuthMiddleware(tokens *services.TokenService) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// AgentAuth accepts either the shared bootstrap token (X-Agent-Token,
// constant-time compare) or a per-agent JWT issued at registration. The
// rejection is uniform: callers cannot tell a missing token from a bad one.
func (m *AuthMiddleware) AgentAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.tokens.VerifySharedToken(c.GetHeader("X-Agent-Token")) {
			c.Next()
			return
		}

		if bearer := bearerToken(c); bearer != "" {
			if agentID, err := m.tokens.ValidateAgentToken(bearer); err == nil {
				c.Set(ctxAgentID, agentID)
				c.Next()
				return
			}
		}

		respondError(c, http.StatusUnauthorized, "invalid or missing agent token")
		c.Abort()
	}
}

// AdminAuth requires an operator session token carrying at least minRole
func (m *AuthMiddleware) AdminAuth(minRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		bearer := bearerToken(c)
		if bearer == "" {
			respondError(c, http.StatusUnauthorized, "authentication required")
			c.Abort()
			return
		}

		claims, err := m.tokens.ValidateAdminToken(bearer)
		if err != nil {
			respondError(c, http.StatusUnauthorized, "authentication required")
			c.Abort()
			return
		}
		if !domains.RoleAtLeast(claims.Role, minRole) {
			respondError(c, http.StatusForbidden, "insufficient privileges")
			c.Abort()
			return
		}

		c.Set(ctxAdminUser, claims.Username)
		c.Set(ctxAdminRole, claims.Role)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}
