package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TwoFactorTokenService emite y valida los tokens temporales que
// correlacionan un challenge 2FA pendiente. No son tokens de sesion:
// nunca entran al SessionStore ni habilitan operaciones protegidas.
type TwoFactorTokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

type twoFactorClaims struct {
	Kind string `json:"typ"`
	jwt.RegisteredClaims
}

var (
	ErrTempTokenInvalid = errors.New("two-factor token invalid")
	ErrTempTokenExpired = errors.New("two-factor token expired")
)

func NewTwoFactorTokenService(secret string, ttl time.Duration) *TwoFactorTokenService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &TwoFactorTokenService{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: "trimgram",
	}
}

// Issue firma un token temporal nuevo y devuelve (token, jti).
// El jti es la clave con la que el AuthService parquea el intento en vuelo.
func (s *TwoFactorTokenService) Issue() (string, string, error) {
	if len(s.secret) == 0 {
		return "", "", ErrTempTokenInvalid
	}
	now := time.Now().UTC()
	jti := uuid.NewString()
	claims := twoFactorClaims{
		Kind: "2fa",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	return signed, jti, err
}

// Verify valida firma, expiracion y tipo, y devuelve el jti.
func (s *TwoFactorTokenService) Verify(tokenString string) (string, error) {
	if len(s.secret) == 0 || strings.TrimSpace(tokenString) == "" {
		return "", ErrTempTokenInvalid
	}
	var claims twoFactorClaims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTempTokenExpired
		}
		return "", ErrTempTokenInvalid
	}
	if claims.Kind != "2fa" || claims.Issuer != s.issuer || claims.ID == "" {
		return "", ErrTempTokenInvalid
	}
	return claims.ID, nil
}
