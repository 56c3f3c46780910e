package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"trimgram/internal/domain"
	"trimgram/internal/instagram"
	"trimgram/internal/service"
)

func newTestRouter(client *instagram.Mock) (*gin.Engine, service.SessionStore) {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	store := service.NewMemorySessionStore()
	authServ := service.NewAuthService(
		logger,
		store,
		service.NewTwoFactorTokenService("test-secret", 5*time.Minute),
		func() instagram.API { return client },
		30*time.Minute,
	)
	analysisServ := service.NewAnalysisService(logger, store, nil, 100, 12, 2)
	unfollowServ := service.NewUnfollowService(logger, store, service.NewMemoryRateLimiter(0))

	router := NewRouter(
		logger,
		nil,
		NewAuthHandler(logger, authServ),
		NewAnalysisHandler(logger, analysisServ),
		NewUnfollowHandler(logger, unfollowServ),
		store,
	)
	return router, store
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var parsed map[string]any
	if len(rec.Body.Bytes()) > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &parsed); err != nil {
			t.Fatalf("unmarshal response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, parsed
}

func TestLoginEndpoint(t *testing.T) {
	t.Run("success returns session token", func(t *testing.T) {
		router, _ := newTestRouter(&instagram.Mock{LoginUserID: 42})

		rec, resp := doJSON(t, router, http.MethodPost, "/api/login", gin.H{"username": "alice", "password": "secret"}, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if resp["session_token"] == "" || resp["session_token"] == nil {
			t.Fatalf("expected session_token in response: %v", resp)
		}
	})

	t.Run("two-factor challenge returns 449 with temp token", func(t *testing.T) {
		router, store := newTestRouter(&instagram.Mock{LoginErr: domain.ErrTwoFactorRequired})

		rec, resp := doJSON(t, router, http.MethodPost, "/api/login", gin.H{"username": "alice", "password": "secret"}, nil)
		if rec.Code != statusTwoFactorRequired {
			t.Fatalf("expected 449, got %d", rec.Code)
		}
		temp, _ := resp["session_token"].(string)
		if temp == "" {
			t.Fatalf("expected temp token in 449 response: %v", resp)
		}

		// El token temporal no habilita operaciones protegidas.
		analysisRec, _ := doJSON(t, router, http.MethodGet, "/api/analysis", nil, map[string]string{sessionTokenHeader: temp})
		if analysisRec.Code != http.StatusUnauthorized {
			t.Fatalf("expected temp token rejected with 401, got %d", analysisRec.Code)
		}
		if got := store.Count(); got != 0 {
			t.Fatalf("expected no stored session during 2FA, got %d", got)
		}
	})

	t.Run("bad credentials return 401", func(t *testing.T) {
		router, _ := newTestRouter(&instagram.Mock{LoginErr: domain.ErrAuthentication})

		rec, _ := doJSON(t, router, http.MethodPost, "/api/login", gin.H{"username": "alice", "password": "wrong"}, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("upstream throttle returns 429", func(t *testing.T) {
		router, _ := newTestRouter(&instagram.Mock{LoginErr: domain.ErrRateLimited})

		rec, _ := doJSON(t, router, http.MethodPost, "/api/login", gin.H{"username": "alice", "password": "secret"}, nil)
		if rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429, got %d", rec.Code)
		}
	})

	t.Run("missing fields return 400", func(t *testing.T) {
		router, _ := newTestRouter(&instagram.Mock{})

		rec, _ := doJSON(t, router, http.MethodPost, "/api/login", gin.H{"username": "alice"}, nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestTwoFactorEndpoint(t *testing.T) {
	client := &instagram.Mock{LoginErr: domain.ErrTwoFactorRequired, TwoFactorUserID: 42}
	router, _ := newTestRouter(client)

	rec, resp := doJSON(t, router, http.MethodPost, "/api/login", gin.H{"username": "alice", "password": "secret"}, nil)
	if rec.Code != statusTwoFactorRequired {
		t.Fatalf("expected 449, got %d", rec.Code)
	}
	temp := resp["session_token"].(string)

	rec, resp = doJSON(t, router, http.MethodPost, "/api/2fa", gin.H{"session_token": temp, "code": "123456"}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	permanent, _ := resp["session_token"].(string)
	if permanent == "" || permanent == temp {
		t.Fatalf("expected a fresh permanent token, got %q", permanent)
	}

	// El token permanente si habilita el analisis.
	analysisRec, _ := doJSON(t, router, http.MethodGet, "/api/analysis", nil, map[string]string{sessionTokenHeader: permanent})
	if analysisRec.Code != http.StatusOK {
		t.Fatalf("expected 200 with permanent token, got %d", analysisRec.Code)
	}
}

func TestAnalysisEndpoint(t *testing.T) {
	t.Run("missing token returns 401", func(t *testing.T) {
		router, _ := newTestRouter(&instagram.Mock{})
		rec, _ := doJSON(t, router, http.MethodGet, "/api/analysis", nil, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("history disabled returns 503", func(t *testing.T) {
		router, _ := newTestRouter(&instagram.Mock{LoginUserID: 42, UserID: 42})
		_, resp := doJSON(t, router, http.MethodPost, "/api/login", gin.H{"username": "alice", "password": "secret"}, nil)
		token := resp["session_token"].(string)

		rec, _ := doJSON(t, router, http.MethodGet, "/api/analysis/history", nil, map[string]string{sessionTokenHeader: token})
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
	})
}

func TestUnfollowEndpoint(t *testing.T) {
	t.Run("self unfollow returns 400", func(t *testing.T) {
		client := &instagram.Mock{LoginUserID: 42, UserID: 42}
		router, _ := newTestRouter(client)
		_, resp := doJSON(t, router, http.MethodPost, "/api/login", gin.H{"username": "alice", "password": "secret"}, nil)
		token := resp["session_token"].(string)

		rec, _ := doJSON(t, router, http.MethodPost, "/api/unfollow", gin.H{"session_token": token, "target_user_id": 42}, nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if client.UnfollowCalls != 0 {
			t.Fatalf("expected no upstream call, got %d", client.UnfollowCalls)
		}
	})

	t.Run("success returns result", func(t *testing.T) {
		client := &instagram.Mock{LoginUserID: 42, UserID: 42, UnfollowResult: true}
		router, _ := newTestRouter(client)
		_, resp := doJSON(t, router, http.MethodPost, "/api/login", gin.H{"username": "alice", "password": "secret"}, nil)
		token := resp["session_token"].(string)

		rec, body := doJSON(t, router, http.MethodPost, "/api/unfollow", gin.H{"session_token": token, "target_user_id": 7}, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if success, _ := body["success"].(bool); !success {
			t.Fatalf("expected success true, got %v", body)
		}
	})

	t.Run("expired session returns 401", func(t *testing.T) {
		router, _ := newTestRouter(&instagram.Mock{})
		rec, _ := doJSON(t, router, http.MethodPost, "/api/unfollow", gin.H{"session_token": "stale", "target_user_id": 7}, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}
