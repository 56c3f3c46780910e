package instagram

import (
	"context"

	"trimgram/internal/domain"
)

// Mock permite tests sin llamar a la API real. Cada campo configura la
// respuesta de la operacion correspondiente.
type Mock struct {
	LoginUserID     int64
	LoginErr        error
	TwoFactorUserID int64
	TwoFactorErr    error
	UserID          int64
	UserIDErr       error

	FollowersResult map[int64]domain.FollowRelationship
	FollowersErr    error
	FollowingResult map[int64]domain.FollowRelationship
	FollowingErr    error
	PostsByUser     map[int64][]domain.Post
	PostsErr        map[int64]error
	LikersByPost    map[string][]int64
	LikersErr       map[string]error
	CommentsByPost  map[string][]domain.Comment
	CommentsErr     map[string]error

	UnfollowResult bool
	UnfollowErr    error

	LoginCalls     int
	TwoFactorCalls int
	UnfollowCalls  int
	UnfollowedIDs  []int64
}

func (m *Mock) Login(_ context.Context, _, _ string) (LoginResult, error) {
	m.LoginCalls++
	if m.LoginErr != nil {
		return LoginResult{}, m.LoginErr
	}
	return LoginResult{UserID: m.LoginUserID}, nil
}

func (m *Mock) ResolveTwoFactor(_ context.Context, _ string) (LoginResult, error) {
	m.TwoFactorCalls++
	if m.TwoFactorErr != nil {
		return LoginResult{}, m.TwoFactorErr
	}
	return LoginResult{UserID: m.TwoFactorUserID}, nil
}

func (m *Mock) CurrentUserID() (int64, error) {
	if m.UserIDErr != nil {
		return 0, m.UserIDErr
	}
	return m.UserID, nil
}

func (m *Mock) Followers(_ context.Context, _ int64) (map[int64]domain.FollowRelationship, error) {
	return m.FollowersResult, m.FollowersErr
}

func (m *Mock) Following(_ context.Context, _ int64) (map[int64]domain.FollowRelationship, error) {
	return m.FollowingResult, m.FollowingErr
}

func (m *Mock) Posts(_ context.Context, userID int64, _ int) ([]domain.Post, error) {
	if err, ok := m.PostsErr[userID]; ok {
		return nil, err
	}
	return m.PostsByUser[userID], nil
}

func (m *Mock) Likers(_ context.Context, postID string) ([]int64, error) {
	if err, ok := m.LikersErr[postID]; ok {
		return nil, err
	}
	return m.LikersByPost[postID], nil
}

func (m *Mock) Comments(_ context.Context, postID string) ([]domain.Comment, error) {
	if err, ok := m.CommentsErr[postID]; ok {
		return nil, err
	}
	return m.CommentsByPost[postID], nil
}

func (m *Mock) Unfollow(_ context.Context, userID int64) (bool, error) {
	m.UnfollowCalls++
	m.UnfollowedIDs = append(m.UnfollowedIDs, userID)
	if m.UnfollowErr != nil {
		return false, m.UnfollowErr
	}
	return m.UnfollowResult, nil
}
