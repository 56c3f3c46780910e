package instagram

import (
	"context"

	"trimgram/internal/domain"
)

// LoginResult es el resultado de una autenticacion exitosa contra Instagram.
type LoginResult struct {
	UserID int64
}

// AuthAPI define la capacidad de autenticacion.
// Login devuelve domain.ErrTwoFactorRequired cuando la cuenta tiene 2FA;
// el cliente queda con el challenge abierto hasta ResolveTwoFactor.
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (LoginResult, error)
	ResolveTwoFactor(ctx context.Context, code string) (LoginResult, error)
	CurrentUserID() (int64, error)
}

// ReadAPI define las lecturas del grafo social. Todas pueden fallar con
// domain.ErrRateLimited. Posts devuelve slice vacio (no error) para cuentas
// privadas o sin publicaciones.
type ReadAPI interface {
	Followers(ctx context.Context, userID int64) (map[int64]domain.FollowRelationship, error)
	Following(ctx context.Context, userID int64) (map[int64]domain.FollowRelationship, error)
	Posts(ctx context.Context, userID int64, count int) ([]domain.Post, error)
	Likers(ctx context.Context, postID string) ([]int64, error)
	Comments(ctx context.Context, postID string) ([]domain.Comment, error)
}

// WriteAPI define las escrituras sensibles contra Instagram.
type WriteAPI interface {
	Unfollow(ctx context.Context, userID int64) (bool, error)
}

// API agrupa las tres capacidades; el cliente concreto implementa todas,
// los servicios dependen solo del subconjunto que usan.
type API interface {
	AuthAPI
	ReadAPI
	WriteAPI
}
