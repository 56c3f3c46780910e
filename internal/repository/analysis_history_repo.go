package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"trimgram/internal/domain"
)

// AnalysisHistoryRepository persiste resumenes de corridas de analisis.
// Es opcional: el core funciona sin historial cuando no hay base de datos.
type AnalysisHistoryRepository interface {
	Create(ctx context.Context, record domain.AnalysisRecord) error
	ListByUserID(ctx context.Context, userID int64, limit int) ([]domain.AnalysisRecord, error)
}

type PgAnalysisHistoryRepository struct {
	pool *pgxpool.Pool
}

func NewPgAnalysisHistoryRepository(pool *pgxpool.Pool) *PgAnalysisHistoryRepository {
	return &PgAnalysisHistoryRepository{pool: pool}
}

func (r *PgAnalysisHistoryRepository) Create(ctx context.Context, record domain.AnalysisRecord) error {
	const query = `
		INSERT INTO analysis_runs (id, user_id, total_following, total_followers, total_non_followers, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		record.ID,
		record.UserID,
		record.TotalFollowing,
		record.TotalFollowers,
		record.TotalNonFollowers,
		record.CreatedAt,
	)
	return err
}

func (r *PgAnalysisHistoryRepository) ListByUserID(ctx context.Context, userID int64, limit int) ([]domain.AnalysisRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `
		SELECT id, user_id, total_following, total_followers, total_non_followers, created_at
		FROM analysis_runs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.AnalysisRecord
	for rows.Next() {
		var rec domain.AnalysisRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.TotalFollowing,
			&rec.TotalFollowers,
			&rec.TotalNonFollowers,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
