package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tillpoint/pos/internal/application/service"
	"github.com/tillpoint/pos/internal/infrastructure/remote"
	"github.com/tillpoint/pos/internal/presentation/http/dto/response"
)

// AuthHandler handles PIN login for the register
type AuthHandler struct {
	authService *service.AuthService
	sessions    *remote.CredentialStore
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, sessions *remote.CredentialStore) *AuthHandler {
	return &AuthHandler{authService: authService, sessions: sessions}
}

// ListUsers returns the cashier profiles for the login picker. It is
// unauthenticated: the device itself is the trust boundary before login.
func (h *AuthHandler) ListUsers(c *gin.Context) {
	users, err := h.authService.ListUsers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Users retrieved successfully", users)
}

// Login handles PIN login
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		UserID uuid.UUID `json:"user_id" binding:"required"`
		PIN    string    `json:"pin" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	out, err := h.authService.Login(c.Request.Context(), req.UserID, req.PIN)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.sessions.SetUser(out.User.ID.String())
	response.OK(c, "Login successful", out)
}

// Profile returns the signed-in cashier's profile
func (h *AuthHandler) Profile(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	user, err := h.authService.GetUser(c.Request.Context(), *userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Profile retrieved successfully", user)
}

// Logout ends the session. The token is discarded client-side; the server
// side closes the auto-opened shift when cash management is off.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	h.sessions.ClearUser()
	response.OK(c, "Logged out successfully", nil)
}
