package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"trimgram/internal/domain"
	"trimgram/internal/service"
)

// UnfollowHandler mantiene dependencias para el endpoint de unfollow.
type UnfollowHandler struct {
	logger       *zap.Logger
	unfollowServ *service.UnfollowService
}

func NewUnfollowHandler(logger *zap.Logger, unfollowServ *service.UnfollowService) *UnfollowHandler {
	return &UnfollowHandler{
		logger:       logger,
		unfollowServ: unfollowServ,
	}
}

// Unfollow maneja POST /api/unfollow.
func (h *UnfollowHandler) Unfollow(c *gin.Context) {
	var req struct {
		SessionToken string `json:"session_token" binding:"required"`
		TargetUserID int64  `json:"target_user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid unfollow request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "INVALID_REQUEST", "message": "session_token and target_user_id are required"})
		return
	}

	success, err := h.unfollowServ.Unfollow(c.Request.Context(), req.SessionToken, req.TargetUserID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSessionNotFound):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "SESSION_EXPIRED", "message": "Session not found or expired. Please log in again."})
		case errors.Is(err, domain.ErrRateLimited):
			h.logger.Warn("rate limit hit during unfollow", zap.Int64("target_user_id", req.TargetUserID))
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "RATE_LIMIT", "message": err.Error()})
		case errors.Is(err, domain.ErrUnfollow):
			h.logger.Warn("unfollow rejected", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "UNFOLLOW_FAILED", "message": err.Error()})
		default:
			h.logger.Error("unfollow failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "INTERNAL_ERROR", "message": "An unexpected error occurred during unfollow"})
		}
		return
	}

	if !success {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "Unfollow operation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Successfully unfollowed user %d", req.TargetUserID),
	})
}
