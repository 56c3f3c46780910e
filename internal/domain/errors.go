package domain

import "errors"

// Taxonomia de errores del dominio. Los handlers HTTP los mapean a status
// codes; los servicios nunca reintentan por su cuenta.
var (
	ErrAuthentication    = errors.New("authentication failed")
	ErrTwoFactorRequired = errors.New("two-factor authentication required")
	ErrNotAuthenticated  = errors.New("not authenticated")
	ErrSessionNotFound   = errors.New("session not found or expired")
	ErrRateLimited       = errors.New("rate limited by instagram")
	ErrUnfollow          = errors.New("unfollow failed")
	ErrUserNotFound      = errors.New("user not found")
)

// TwoFactorRequiredError es una señal de control, no una falla: transporta
// el token temporal que correlaciona el challenge 2FA pendiente.
// Ese token no otorga ningun derecho sobre operaciones protegidas.
type TwoFactorRequiredError struct {
	TempToken string
}

func (e *TwoFactorRequiredError) Error() string {
	return ErrTwoFactorRequired.Error()
}

func (e *TwoFactorRequiredError) Unwrap() error {
	return ErrTwoFactorRequired
}
