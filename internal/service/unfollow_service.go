package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"trimgram/internal/domain"
)

// UnfollowService valida la sesion, aplica el rate limiter y ejecuta el
// unfollow contra Instagram. Sin reintentos: la politica de retry es del
// caller.
type UnfollowService struct {
	logger  *zap.Logger
	store   SessionStore
	limiter RateLimiter
}

func NewUnfollowService(logger *zap.Logger, store SessionStore, limiter RateLimiter) *UnfollowService {
	return &UnfollowService{
		logger:  logger,
		store:   store,
		limiter: limiter,
	}
}

// Unfollow corta la relacion con targetUserID. Puede bloquear hasta el
// proximo slot del limiter antes de tocar la red.
func (s *UnfollowService) Unfollow(ctx context.Context, token string, targetUserID int64) (bool, error) {
	entry, ok := s.store.Get(token)
	if !ok {
		return false, domain.ErrSessionNotFound
	}

	// Guarda local, antes de cualquier llamada externa.
	if targetUserID == entry.UserID {
		return false, fmt.Errorf("%w: cannot unfollow yourself", domain.ErrUnfollow)
	}

	if s.limiter != nil {
		s.limiter.Acquire()
	}

	s.logger.Info("unfollowing user", zap.Int64("target_user_id", targetUserID))

	success, err := entry.Client.Unfollow(ctx, targetUserID)
	if err != nil {
		if errors.Is(err, domain.ErrRateLimited) {
			return false, err
		}
		if errors.Is(err, domain.ErrUnfollow) {
			return false, err
		}
		return false, fmt.Errorf("%w: %v", domain.ErrUnfollow, err)
	}
	return success, nil
}
