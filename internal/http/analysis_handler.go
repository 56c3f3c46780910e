package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"trimgram/internal/domain"
	"trimgram/internal/service"
)

// sessionTokenHeader transporta el token opaco de sesion.
const sessionTokenHeader = "X-Session-Token"

// AnalysisHandler mantiene dependencias para los endpoints de analisis.
type AnalysisHandler struct {
	logger       *zap.Logger
	analysisServ *service.AnalysisService
}

func NewAnalysisHandler(logger *zap.Logger, analysisServ *service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{
		logger:       logger,
		analysisServ: analysisServ,
	}
}

// Analyze maneja GET /api/analysis.
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	token := c.GetHeader(sessionTokenHeader)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "SESSION_EXPIRED", "message": "missing session token"})
		return
	}

	result, err := h.analysisServ.Analyze(c.Request.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSessionNotFound):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "SESSION_EXPIRED", "message": "Session not found or expired. Please log in again."})
		case errors.Is(err, domain.ErrNotAuthenticated):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "NOT_AUTHENTICATED", "message": "No authenticated session found."})
		case errors.Is(err, domain.ErrRateLimited):
			h.logger.Warn("rate limit hit during analysis")
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "RATE_LIMIT", "message": err.Error()})
		default:
			h.logger.Error("analysis failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "INTERNAL_ERROR", "message": "An unexpected error occurred during analysis"})
		}
		return
	}

	h.logger.Info("analysis complete",
		zap.Int("shown", result.NonFollowersShown),
		zap.Int("total_non_followers", result.TotalNonFollowers),
	)

	c.JSON(http.StatusOK, result)
}

// History maneja GET /api/analysis/history.
func (h *AnalysisHandler) History(c *gin.Context) {
	token := c.GetHeader(sessionTokenHeader)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "SESSION_EXPIRED", "message": "missing session token"})
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	records, err := h.analysisServ.History(c.Request.Context(), token, limit)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSessionNotFound):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "SESSION_EXPIRED", "message": "Session not found or expired. Please log in again."})
		case errors.Is(err, service.ErrHistoryDisabled):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "HISTORY_DISABLED", "message": "Analysis history is not configured."})
		default:
			h.logger.Error("history listing failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "INTERNAL_ERROR", "message": "An unexpected error occurred listing history"})
		}
		return
	}

	if records == nil {
		records = []domain.AnalysisRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"results": records})
}
