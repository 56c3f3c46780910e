package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"trimgram/internal/domain"
	"trimgram/internal/service"
)

// statusTwoFactorRequired es el status no estandar que el frontend espera
// cuando la cuenta pide 2FA.
const statusTwoFactorRequired = 449

// AuthHandler mantiene dependencias para los endpoints de autenticacion.
type AuthHandler struct {
	logger   *zap.Logger
	authServ *service.AuthService
}

func NewAuthHandler(logger *zap.Logger, authServ *service.AuthService) *AuthHandler {
	return &AuthHandler{
		logger:   logger,
		authServ: authServ,
	}
}

// Login maneja POST /api/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "INVALID_REQUEST", "message": "username and password are required"})
		return
	}

	h.logger.Info("login attempt", zap.String("username", req.Username))

	session, err := h.authServ.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		var tfErr *domain.TwoFactorRequiredError
		switch {
		case errors.As(err, &tfErr):
			c.JSON(statusTwoFactorRequired, gin.H{
				"error":         "2FA_REQUIRED",
				"message":       "Two-factor authentication required. Please provide your 2FA code.",
				"session_token": tfErr.TempToken,
			})
		case errors.Is(err, domain.ErrRateLimited):
			h.logger.Warn("rate limit hit during login", zap.String("username", req.Username))
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "RATE_LIMIT", "message": err.Error()})
		case errors.Is(err, domain.ErrAuthentication):
			h.logger.Warn("authentication failed", zap.String("username", req.Username))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "AUTH_FAILED", "message": "Invalid username or password."})
		default:
			h.logger.Error("login failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "INTERNAL_ERROR", "message": "An unexpected error occurred during login"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_token": session.Token,
		"user_id":       session.UserID,
		"message":       "Login successful",
	})
}

// ResolveTwoFactor maneja POST /api/2fa.
func (h *AuthHandler) ResolveTwoFactor(c *gin.Context) {
	var req struct {
		SessionToken string `json:"session_token" binding:"required"`
		Code         string `json:"code" binding:"required,len=6"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid 2fa request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "INVALID_REQUEST", "message": "session_token and a 6-digit code are required"})
		return
	}

	session, err := h.authServ.ResolveTwoFactor(c.Request.Context(), req.SessionToken, req.Code)
	if err != nil {
		if errors.Is(err, domain.ErrAuthentication) {
			h.logger.Warn("two-factor verification failed")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "2FA_FAILED", "message": "2FA verification failed."})
			return
		}
		h.logger.Error("two-factor resolution failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "INTERNAL_ERROR", "message": "An unexpected error occurred during 2FA verification"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_token": session.Token,
		"user_id":       session.UserID,
		"message":       "2FA verification successful",
	})
}

// Logout maneja POST /api/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req struct {
		SessionToken string `json:"session_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "INVALID_REQUEST", "message": "session_token is required"})
		return
	}

	h.authServ.Logout(req.SessionToken)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}
