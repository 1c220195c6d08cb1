package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/cmisapp/publishflow/internal/models"
)

type PostingHistoryRepository interface {
	Create(ctx context.Context, history *models.PostingHistory) (int64, error)
	ListByPostID(ctx context.Context, orgID, postID string) ([]*models.PostingHistory, error)
}

type postingHistoryRepository struct {
	db *sql.DB
}

func NewPostingHistoryRepository(db *sql.DB) PostingHistoryRepository {
	return &postingHistoryRepository{db: db}
}

func (r *postingHistoryRepository) Create(ctx context.Context, history *models.PostingHistory) (int64, error) {
	query := `
		INSERT INTO posting_history (org_id, post_id, account_id, error_message)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, history.OrgID, history.PostID,
		history.AccountID, history.ErrorMessage).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *postingHistoryRepository) ListByPostID(ctx context.Context, orgID, postID string) ([]*models.PostingHistory, error) {
	query := `SELECT id, org_id, post_id, account_id, error_message, created_at FROM posting_history WHERE org_id = $1 AND post_id = $2 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, orgID, postID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var history []*models.PostingHistory
	for rows.Next() {
		var h models.PostingHistory
		if err := rows.Scan(&h.ID, &h.OrgID, &h.PostID, &h.AccountID, &h.ErrorMessage, &h.CreatedAt); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		history = append(history, &h)
	}
	return history, rows.Err()
}
