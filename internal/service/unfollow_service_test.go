package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"trimgram/internal/domain"
	"trimgram/internal/instagram"
)

type countingLimiter struct {
	acquired int
}

func (l *countingLimiter) Acquire() {
	l.acquired++
}

func newUnfollowFixture(client *instagram.Mock, limiter RateLimiter) (*UnfollowService, string) {
	store := NewMemorySessionStore()
	store.Put("tok", client, 99, time.Minute)
	return NewUnfollowService(zap.NewNop(), store, limiter), "tok"
}

func TestUnfollowSessionChecks(t *testing.T) {
	svc := NewUnfollowService(zap.NewNop(), NewMemorySessionStore(), &countingLimiter{})

	if _, err := svc.Unfollow(context.Background(), "missing", 4); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestUnfollowSelfGuard(t *testing.T) {
	client := &instagram.Mock{UnfollowResult: true}
	limiter := &countingLimiter{}
	svc, token := newUnfollowFixture(client, limiter)

	_, err := svc.Unfollow(context.Background(), token, 99)
	if !errors.Is(err, domain.ErrUnfollow) {
		t.Fatalf("expected ErrUnfollow, got %v", err)
	}
	if client.UnfollowCalls != 0 {
		t.Fatalf("expected no upstream call on self-unfollow, got %d", client.UnfollowCalls)
	}
	if limiter.acquired != 0 {
		t.Fatalf("expected limiter untouched on self-unfollow, got %d", limiter.acquired)
	}
}

func TestUnfollowHappyPath(t *testing.T) {
	client := &instagram.Mock{UnfollowResult: true}
	limiter := &countingLimiter{}
	svc, token := newUnfollowFixture(client, limiter)

	success, err := svc.Unfollow(context.Background(), token, 4)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !success {
		t.Fatalf("expected success true")
	}
	if limiter.acquired != 1 {
		t.Fatalf("expected limiter acquired once, got %d", limiter.acquired)
	}
	if len(client.UnfollowedIDs) != 1 || client.UnfollowedIDs[0] != 4 {
		t.Fatalf("expected unfollow of user 4, got %v", client.UnfollowedIDs)
	}
}

func TestUnfollowResultPassthrough(t *testing.T) {
	client := &instagram.Mock{UnfollowResult: false}
	svc, token := newUnfollowFixture(client, &countingLimiter{})

	success, err := svc.Unfollow(context.Background(), token, 4)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if success {
		t.Fatalf("expected upstream false to pass through")
	}
}

func TestUnfollowErrorMapping(t *testing.T) {
	t.Run("upstream throttle", func(t *testing.T) {
		client := &instagram.Mock{UnfollowErr: domain.ErrRateLimited}
		svc, token := newUnfollowFixture(client, &countingLimiter{})

		if _, err := svc.Unfollow(context.Background(), token, 4); !errors.Is(err, domain.ErrRateLimited) {
			t.Fatalf("expected ErrRateLimited, got %v", err)
		}
	})

	t.Run("other upstream failure maps to unfollow error", func(t *testing.T) {
		client := &instagram.Mock{UnfollowErr: errors.New("challenge required")}
		svc, token := newUnfollowFixture(client, &countingLimiter{})

		if _, err := svc.Unfollow(context.Background(), token, 4); !errors.Is(err, domain.ErrUnfollow) {
			t.Fatalf("expected ErrUnfollow, got %v", err)
		}
	})
}
