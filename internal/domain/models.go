package domain

import "time"

// FollowRelationship es la foto de una cuenta dentro de un listado de
// followers o following. Inmutable una vez obtenida.
type FollowRelationship struct {
	UserID        int64  `json:"user_id"`
	Username      string `json:"username"`
	FullName      string `json:"full_name"`
	ProfilePicURL string `json:"profile_pic_url"`
	IsVerified    bool   `json:"is_verified"`
	IsPrivate     bool   `json:"is_private"`
}

// Post representa una publicacion reciente de una cuenta analizada.
type Post struct {
	PostID    string    `json:"post_id"`
	UserID    int64     `json:"user_id"`
	Caption   string    `json:"caption"`
	CreatedAt time.Time `json:"created_at"`
}

// Comment es un comentario sobre un Post, con su autor.
type Comment struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Text     string `json:"text"`
}

// InteractionScore mide MI actividad sobre el contenido de un non-follower:
// cuantos de sus posts recientes tienen mi like y mi comentario.
type InteractionScore struct {
	UserID        int64  `json:"user_id"`
	Username      string `json:"username"`
	FullName      string `json:"full_name"`
	ProfilePicURL string `json:"profile_pic_url"`
	LikesCount    int    `json:"likes_count"`
	CommentsCount int    `json:"comments_count"`
	TotalScore    int    `json:"total_score"`
}

// ComputeTotal recalcula TotalScore a partir de los contadores.
func (s *InteractionScore) ComputeTotal() int {
	s.TotalScore = s.LikesCount + s.CommentsCount
	return s.TotalScore
}

// AnalysisResult es el resultado de un analisis de non-followers,
// ordenado de menor a mayor interaccion.
type AnalysisResult struct {
	TotalFollowing    int                `json:"total_following"`
	TotalFollowers    int                `json:"total_followers"`
	TotalNonFollowers int                `json:"total_non_followers"`
	NonFollowersShown int                `json:"non_followers_shown"`
	Results           []InteractionScore `json:"results"`
}

// Session es el vinculo vivo entre un token opaco y el cliente autenticado.
// El handle del cliente vive en el store, no aca.
type Session struct {
	Token     string    `json:"session_token"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AnalysisRecord resume una corrida de analisis para el historial opcional.
type AnalysisRecord struct {
	ID                string    `json:"id"`
	UserID            int64     `json:"user_id"`
	TotalFollowing    int       `json:"total_following"`
	TotalFollowers    int       `json:"total_followers"`
	TotalNonFollowers int       `json:"total_non_followers"`
	CreatedAt         time.Time `json:"created_at"`
}
