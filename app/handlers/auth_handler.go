package handlers

import (
	"net/http"

	"fleet-svc/app/clients"
	"fleet-svc/app/dto"
	"fleet-svc/app/services"
	"fleet-svc/app/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler issues operator session tokens
type AuthHandler struct {
	tokens  *services.TokenService
	storage clients.StorageAdapter
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(tokens *services.TokenService, storage clients.StorageAdapter) *AuthHandler {
	return &AuthHandler{tokens: tokens, storage: storage}
}

// Login verifies operator credentials and returns a session token. The
// failure message is identical for unknown users and wrong passwords.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.storage.GetAdminUser(c.Request.Context(), req.Username)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "internal server error")
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		respondError(c, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.tokens.IssueAdminToken(user.Username, user.Role)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "internal server error")
		return
	}

	respondData(c, http.StatusOK, dto.LoginData{
		Token:     token,
		Role:      user.Role,
		ExpiresIn: int64(h.tokens.Expiration().Seconds()),
	})
}
