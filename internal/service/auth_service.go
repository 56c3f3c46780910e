package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"trimgram/internal/domain"
	"trimgram/internal/instagram"
)

// AuthService maneja el ciclo login -> 2FA pendiente -> autenticado.
// Mientras un challenge 2FA esta abierto, el cliente en vuelo queda
// parqueado aca, fuera del SessionStore: el token temporal no abre nada.
type AuthService struct {
	logger     *zap.Logger
	store      SessionStore
	tempTokens *TwoFactorTokenService
	newClient  func() instagram.API
	sessionTTL time.Duration

	mu      sync.Mutex
	pending map[string]instagram.API
}

func NewAuthService(
	logger *zap.Logger,
	store SessionStore,
	tempTokens *TwoFactorTokenService,
	newClient func() instagram.API,
	sessionTTL time.Duration,
) *AuthService {
	if sessionTTL <= 0 {
		sessionTTL = 30 * time.Minute
	}
	return &AuthService{
		logger:     logger,
		store:      store,
		tempTokens: tempTokens,
		newClient:  newClient,
		sessionTTL: sessionTTL,
		pending:    make(map[string]instagram.API),
	}
}

// Login autentica contra Instagram y crea la sesion. Cuando la cuenta tiene
// 2FA devuelve *domain.TwoFactorRequiredError con el token temporal de
// correlacion; el resto de los errores se propagan sin reintento.
func (s *AuthService) Login(ctx context.Context, username, password string) (domain.Session, error) {
	client := s.newClient()

	result, err := client.Login(ctx, username, password)
	if err != nil {
		if errors.Is(err, domain.ErrTwoFactorRequired) {
			tempToken, jti, issueErr := s.tempTokens.Issue()
			if issueErr != nil {
				return domain.Session{}, fmt.Errorf("issue two-factor token: %w", issueErr)
			}
			s.mu.Lock()
			s.pending[jti] = client
			s.mu.Unlock()
			s.logger.Info("two-factor challenge pending", zap.String("username", username))
			return domain.Session{}, &domain.TwoFactorRequiredError{TempToken: tempToken}
		}
		return domain.Session{}, err
	}

	session := s.mintSession(client, result.UserID)
	s.logger.Info("login successful", zap.Int64("user_id", result.UserID))
	return session, nil
}

// ResolveTwoFactor cierra un challenge pendiente con el codigo recibido.
// Un codigo invalido deja el intento abierto para reintentar.
func (s *AuthService) ResolveTwoFactor(ctx context.Context, tempToken, code string) (domain.Session, error) {
	jti, err := s.tempTokens.Verify(tempToken)
	if err != nil {
		return domain.Session{}, fmt.Errorf("%w: %v", domain.ErrAuthentication, err)
	}

	s.mu.Lock()
	client, ok := s.pending[jti]
	s.mu.Unlock()
	if !ok {
		return domain.Session{}, fmt.Errorf("%w: no pending two-factor challenge", domain.ErrAuthentication)
	}

	result, err := client.ResolveTwoFactor(ctx, code)
	if err != nil {
		s.logger.Warn("two-factor verification failed", zap.Error(err))
		return domain.Session{}, fmt.Errorf("%w: two-factor verification failed", domain.ErrAuthentication)
	}

	s.mu.Lock()
	delete(s.pending, jti)
	s.mu.Unlock()

	session := s.mintSession(client, result.UserID)
	s.logger.Info("two-factor login successful", zap.Int64("user_id", result.UserID))
	return session, nil
}

// Logout borra la sesion; idempotente.
func (s *AuthService) Logout(token string) {
	s.store.Delete(token)
}

func (s *AuthService) mintSession(client instagram.API, userID int64) domain.Session {
	token := uuid.NewString()
	now := time.Now().UTC()
	s.store.Put(token, client, userID, s.sessionTTL)
	return domain.Session{
		Token:     token,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
}
