package services

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenService issues and validates credentials for both sides of the API:
// per-agent JWTs handed out at registration, the shared bootstrap token
// agents use before they hold one, and operator session JWTs.
type TokenService struct {
	secret      []byte
	sharedToken string
	expiration  time.Duration
}

// NewTokenService creates a new token service
func NewTokenService(secret, sharedToken string, expirationSec int64) *TokenService {
	return &TokenService{
		secret:      []byte(secret),
		sharedToken: sharedToken,
		expiration:  time.Duration(expirationSec) * time.Second,
	}
}

// AgentClaims binds an agent JWT to one agent_id
type AgentClaims struct {
	AgentID string `json:"agent_id"`
	jwt.RegisteredClaims
}

// AdminClaims carries the operator identity and role
type AdminClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// VerifySharedToken compares the presented bootstrap token in constant
// time. Hashing first keeps the comparison length-independent.
func (t *TokenService) VerifySharedToken(token string) bool {
	if token == "" {
		return false
	}
	want := sha256.Sum256([]byte(t.sharedToken))
	got := sha256.Sum256([]byte(token))
	return subtle.ConstantTimeCompare(want[:], got[:]) == 1
}

// IssueAgentToken generates a per-agent credential
func (t *TokenService) IssueAgentToken(agentID string) (string, error) {
	now := time.Now()
	claims := &AgentClaims{
		AgentID: agentID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   agentID,
			Issuer:    "fleet-svc",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.expiration)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign agent token: %w", err)
	}
	return signed, nil
}

// ValidateAgentToken validates a per-agent credential and returns its agent_id
func (t *TokenService) ValidateAgentToken(tokenString string) (string, error) {
	claims := &AgentClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, t.keyFunc)
	if err != nil {
		return "", fmt.Errorf("failed to parse agent token: %w", err)
	}
	if !token.Valid || claims.AgentID == "" {
		return "", fmt.Errorf("invalid agent token")
	}
	return claims.AgentID, nil
}

// IssueAdminToken generates an operator session token
func (t *TokenService) IssueAdminToken(username, role string) (string, error) {
	now := time.Now()
	claims := &AdminClaims{
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   username,
			Issuer:    "fleet-svc",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.expiration)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign admin token: %w", err)
	}
	return signed, nil
}

// ValidateAdminToken validates an operator session token
func (t *TokenService) ValidateAdminToken(tokenString string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, t.keyFunc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse admin token: %w", err)
	}
	if !token.Valid || claims.Username == "" {
		return nil, fmt.Errorf("invalid admin token")
	}
	return claims, nil
}

// Expiration returns the configured token lifetime
func (t *TokenService) Expiration() time.Duration {
	return t.expiration
}

func (t *TokenService) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return t.secret, nil
}
