package handlers

import (
	"errors"
	"net/http"

	"github.com/PrepMaster-App/analytics-service/internal/auth"
	"github.com/PrepMaster-App/analytics-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// ===== REQUEST STRUCTURES =====

// RegisterRequest carries the credentials for a new account
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Username string `json:"username" binding:"required,min=3,max=50"`
}

// LoginRequest carries the credentials for an existing account
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest carries a refresh token to exchange for a new session
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// SessionResponse is returned on successful register, login and refresh
type SessionResponse struct {
	User    *auth.User    `json:"user,omitempty"`
	Session *auth.Session `json:"session"`
}

// ===== AUTH HANDLER =====

// AuthHandler handles account registration and session management
type AuthHandler struct {
	BaseHandler
	provider auth.Provider
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(provider auth.Provider, logger utils.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(logger),
		provider:    provider,
	}
}

// Register creates a new account and signs it in
// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	h.LogRequest(c, "Register request received")

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request format", err, err.Error())
		return
	}

	ctx := c.Request.Context()
	if _, err := h.provider.SignUp(ctx, req.Email, req.Password, req.Username); err != nil {
		if errors.Is(err, auth.ErrSignUpFailed) {
			h.RespondWithError(c, http.StatusConflict, "Registration rejected", err)
			return
		}
		h.RespondWithError(c, http.StatusBadGateway, "Identity provider unavailable", err)
		return
	}

	user, session, err := h.provider.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		// Account exists but the immediate sign-in failed; the client can
		// still log in separately.
		h.LogError(c, err, "Post-registration sign-in failed", "email", req.Email)
		c.JSON(http.StatusCreated, SuccessResponse{Message: "Account created, please log in"})
		return
	}

	h.logger.Info("User registered", "user_id", user.ID)
	c.JSON(http.StatusCreated, SessionResponse{User: user, Session: session})
}

// Login authenticates an existing account
// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	h.LogRequest(c, "Login request received")

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request format", err, err.Error())
		return
	}

	user, session, err := h.provider.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.RespondWithError(c, http.StatusUnauthorized, "Invalid email or password", nil)
			return
		}
		h.RespondWithError(c, http.StatusBadGateway, "Identity provider unavailable", err)
		return
	}

	h.logger.Info("User logged in", "user_id", user.ID)
	c.JSON(http.StatusOK, SessionResponse{User: user, Session: session})
}

// Refresh exchanges a refresh token for a new session
// POST /auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request format", err, err.Error())
		return
	}

	session, err := h.provider.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			h.RespondWithError(c, http.StatusUnauthorized, "Invalid or expired refresh token", nil)
			return
		}
		h.RespondWithError(c, http.StatusBadGateway, "Identity provider unavailable", err)
		return
	}

	c.JSON(http.StatusOK, SessionResponse{Session: session})
}

// Me returns the authenticated user resolved by the auth middleware
// GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, exists := c.Get("user")
	if !exists {
		h.RespondWithError(c, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}
