package service

import (
	"errors"
	"testing"
	"time"
)

func TestTwoFactorTokenIssueVerify(t *testing.T) {
	svc := NewTwoFactorTokenService("test-secret", 5*time.Minute)

	token, jti, err := svc.Issue()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if token == "" || jti == "" {
		t.Fatalf("expected non-empty token and jti")
	}

	got, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("expected valid token, got %v", err)
	}
	if got != jti {
		t.Fatalf("expected jti %q, got %q", jti, got)
	}
}

func TestTwoFactorTokenVerifyRejects(t *testing.T) {
	svc := NewTwoFactorTokenService("test-secret", 5*time.Minute)

	t.Run("empty token", func(t *testing.T) {
		if _, err := svc.Verify(""); !errors.Is(err, ErrTempTokenInvalid) {
			t.Fatalf("expected ErrTempTokenInvalid, got %v", err)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		if _, err := svc.Verify("not-a-jwt"); !errors.Is(err, ErrTempTokenInvalid) {
			t.Fatalf("expected ErrTempTokenInvalid, got %v", err)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTwoFactorTokenService("other-secret", 5*time.Minute)
		token, _, err := other.Issue()
		if err != nil {
			t.Fatalf("issue failed: %v", err)
		}
		if _, err := svc.Verify(token); !errors.Is(err, ErrTempTokenInvalid) {
			t.Fatalf("expected ErrTempTokenInvalid, got %v", err)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		short := NewTwoFactorTokenService("test-secret", time.Nanosecond)
		token, _, err := short.Issue()
		if err != nil {
			t.Fatalf("issue failed: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
		if _, err := svc.Verify(token); !errors.Is(err, ErrTempTokenExpired) {
			t.Fatalf("expected ErrTempTokenExpired, got %v", err)
		}
	})
}
