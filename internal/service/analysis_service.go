package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"trimgram/internal/domain"
	"trimgram/internal/instagram"
	"trimgram/internal/repository"
)

// ErrHistoryDisabled indica que no hay base de datos configurada para el
// historial de analisis.
var ErrHistoryDisabled = errors.New("analysis history disabled")

// AnalysisService detecta non-followers y los rankea por interaccion.
// El score mide MI actividad sobre SUS posts: menos interaccion primero,
// porque son los mejores candidatos a unfollow.
type AnalysisService struct {
	logger         *zap.Logger
	store          SessionStore
	history        repository.AnalysisHistoryRepository
	maxResults     int
	postsToAnalyze int
	workers        int
}

func NewAnalysisService(
	logger *zap.Logger,
	store SessionStore,
	history repository.AnalysisHistoryRepository,
	maxResults, postsToAnalyze, workers int,
) *AnalysisService {
	if maxResults <= 0 {
		maxResults = 100
	}
	if postsToAnalyze <= 0 {
		postsToAnalyze = 12
	}
	if workers <= 0 {
		workers = 4
	}
	return &AnalysisService{
		logger:         logger,
		store:          store,
		history:        history,
		maxResults:     maxResults,
		postsToAnalyze: postsToAnalyze,
		workers:        workers,
	}
}

// Analyze corre el pipeline completo para la sesion del token.
func (s *AnalysisService) Analyze(ctx context.Context, token string) (domain.AnalysisResult, error) {
	entry, ok := s.store.Get(token)
	if !ok {
		return domain.AnalysisResult{}, domain.ErrSessionNotFound
	}
	client := entry.Client
	myUserID := entry.UserID

	// Chequeo defensivo: sesion presente pero cliente sin login vivo.
	if _, err := client.CurrentUserID(); err != nil {
		return domain.AnalysisResult{}, err
	}

	s.logger.Info("starting analysis", zap.Int64("user_id", myUserID))

	// Las dos lecturas globales no se absorben: si fallan, falla el analisis.
	followers, err := client.Followers(ctx, myUserID)
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("fetch followers: %w", err)
	}
	following, err := client.Following(ctx, myUserID)
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("fetch following: %w", err)
	}

	nonFollowers := make([]domain.FollowRelationship, 0)
	for uid, user := range following {
		if _, follows := followers[uid]; !follows {
			nonFollowers = append(nonFollowers, user)
		}
	}
	// Orden de entrada determinista para que los empates sean estables.
	sort.Slice(nonFollowers, func(i, j int) bool {
		return nonFollowers[i].UserID < nonFollowers[j].UserID
	})

	s.logger.Info("analysis summary",
		zap.Int("following", len(following)),
		zap.Int("followers", len(followers)),
		zap.Int("non_followers", len(nonFollowers)),
	)

	scores := s.scoreCandidates(ctx, client, myUserID, nonFollowers)

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].TotalScore < scores[j].TotalScore
	})

	shown := scores
	if len(shown) > s.maxResults {
		shown = shown[:s.maxResults]
	}

	result := domain.AnalysisResult{
		TotalFollowing:    len(following),
		TotalFollowers:    len(followers),
		TotalNonFollowers: len(nonFollowers),
		NonFollowersShown: len(shown),
		Results:           shown,
	}

	s.recordRun(ctx, myUserID, result)

	return result, nil
}

// History devuelve las corridas previas del dueño de la sesion.
func (s *AnalysisService) History(ctx context.Context, token string, limit int) ([]domain.AnalysisRecord, error) {
	entry, ok := s.store.Get(token)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	return s.history.ListByUserID(ctx, entry.UserID, limit)
}

// scoreCandidates reparte candidatos sobre un pool acotado de workers.
// Cada candidato es independiente: una falla se absorbe como score cero
// y nunca aborta el resto.
func (s *AnalysisService) scoreCandidates(
	ctx context.Context,
	client instagram.ReadAPI,
	myUserID int64,
	candidates []domain.FollowRelationship,
) []domain.InteractionScore {
	scores := make([]domain.InteractionScore, len(candidates))

	workers := s.workers
	if workers > len(candidates) {
		workers = len(candidates)
	}
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				scores[i] = s.scoreCandidate(ctx, client, myUserID, candidates[i])
			}
		}()
	}
	for i := range candidates {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return scores
}

func (s *AnalysisService) scoreCandidate(
	ctx context.Context,
	client instagram.ReadAPI,
	myUserID int64,
	candidate domain.FollowRelationship,
) domain.InteractionScore {
	score := domain.InteractionScore{
		UserID:        candidate.UserID,
		Username:      candidate.Username,
		FullName:      candidate.FullName,
		ProfilePicURL: candidate.ProfilePicURL,
	}

	likes, comments, err := s.countInteractions(ctx, client, myUserID, candidate.UserID)
	if err != nil {
		// Una cuenta inanalizable reporta cero, no contadores parciales.
		s.logger.Warn("could not analyze posts",
			zap.String("username", candidate.Username),
			zap.Error(err),
		)
		score.ComputeTotal()
		return score
	}

	score.LikesCount = likes
	score.CommentsCount = comments
	score.ComputeTotal()
	return score
}

// countInteractions cuenta en binario por post: un like mio vale 1 por
// post, y cualquier cantidad de comentarios mios vale 1 por post.
func (s *AnalysisService) countInteractions(
	ctx context.Context,
	client instagram.ReadAPI,
	myUserID, targetUserID int64,
) (int, int, error) {
	posts, err := client.Posts(ctx, targetUserID, s.postsToAnalyze)
	if err != nil {
		return 0, 0, err
	}

	likes := 0
	comments := 0
	for _, post := range posts {
		likers, err := client.Likers(ctx, post.PostID)
		if err != nil {
			return 0, 0, err
		}
		for _, likerID := range likers {
			if likerID == myUserID {
				likes++
				break
			}
		}

		postComments, err := client.Comments(ctx, post.PostID)
		if err != nil {
			return 0, 0, err
		}
		for _, comment := range postComments {
			if comment.UserID == myUserID {
				comments++
				break
			}
		}
	}
	return likes, comments, nil
}

func (s *AnalysisService) recordRun(ctx context.Context, userID int64, result domain.AnalysisResult) {
	if s.history == nil {
		return
	}
	record := domain.AnalysisRecord{
		ID:                uuid.NewString(),
		UserID:            userID,
		TotalFollowing:    result.TotalFollowing,
		TotalFollowers:    result.TotalFollowers,
		TotalNonFollowers: result.TotalNonFollowers,
		CreatedAt:         time.Now().UTC(),
	}
	if err := s.history.Create(ctx, record); err != nil {
		s.logger.Warn("analysis history insert failed", zap.Error(err))
	}
}
