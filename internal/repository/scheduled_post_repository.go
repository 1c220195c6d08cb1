package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/cmisapp/publishflow/internal/apperrors"
	"github.com/cmisapp/publishflow/internal/models"
	"github.com/lib/pq"
)

type ScheduledPostRepository interface {
	Create(ctx context.Context, tx *sql.Tx, post *models.ScheduledPost) error
	GetByID(ctx context.Context, orgID, postID string) (*models.ScheduledPost, bool, error)
	ListByOrg(ctx context.Context, orgID, status string) ([]*models.ScheduledPost, error)
	OldestQueued(ctx context.Context, accountID int64) (*models.ScheduledPost, bool, error)
	ClaimSlot(ctx context.Context, postID string, slot time.Time) error
	Reschedule(ctx context.Context, orgID, postID string, slot time.Time) error
	UpdateStatus(ctx context.Context, postID, status, lastError string) error
	CountByStatus(ctx context.Context, orgID string, accountID int64, status string) (int, error)
	Remove(ctx context.Context, orgID, postID string) error
}

type scheduledPostRepository struct {
	db *sql.DB
}

func NewScheduledPostRepository(db *sql.DB) ScheduledPostRepository {
	return &scheduledPostRepository{db: db}
}

const postColumns = `post_id, org_id, social_account_id, platform, content, title, scheduled_time, status, last_error, created_at, updated_at`

func (r *scheduledPostRepository) Create(ctx context.Context, tx *sql.Tx, post *models.ScheduledPost) error {
	query := `
		INSERT INTO scheduled_posts (post_id, org_id, social_account_id, platform, content, title, scheduled_time, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, post.PostID, post.OrgID, post.SocialAccountID,
			post.Platform, post.Content, post.Title, post.ScheduledTime, post.Status)
	} else {
		_, err = r.db.ExecContext(ctx, query, post.PostID, post.OrgID, post.SocialAccountID,
			post.Platform, post.Content, post.Title, post.ScheduledTime, post.Status)
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func scanPost(row interface{ Scan(...any) error }) (*models.ScheduledPost, error) {
	var post models.ScheduledPost
	err := row.Scan(&post.PostID, &post.OrgID, &post.SocialAccountID,
		&post.Platform, &post.Content, &post.Title, &post.ScheduledTime,
		&post.Status, &post.LastError, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *scheduledPostRepository) GetByID(ctx context.Context, orgID, postID string) (*models.ScheduledPost, bool, error) {
	query := `SELECT ` + postColumns + ` FROM scheduled_posts WHERE org_id = $1 AND post_id = $2`
	row := r.db.QueryRowContext(ctx, query, orgID, postID)

	post, err := scanPost(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		slog.Info(err.Error())
		return nil, false, err
	}
	return post, true, nil
}

func (r *scheduledPostRepository) ListByOrg(ctx context.Context, orgID, status string) ([]*models.ScheduledPost, error) {
	query := `SELECT ` + postColumns + ` FROM scheduled_posts WHERE org_id = $1`
	args := []any{orgID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY scheduled_time NULLS LAST, created_at`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.ScheduledPost
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (r *scheduledPostRepository) OldestQueued(ctx context.Context, accountID int64) (*models.ScheduledPost, bool, error) {
	query := `SELECT ` + postColumns + ` FROM scheduled_posts
		WHERE social_account_id = $1 AND status = $2
		ORDER BY created_at LIMIT 1`
	row := r.db.QueryRowContext(ctx, query, accountID, models.PostStatusQueued)

	post, err := scanPost(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		slog.Info(err.Error())
		return nil, false, err
	}
	return post, true, nil
}

// ClaimSlot binds a queued post to a slot timestamp and moves it to
// scheduled. A partial unique index on (social_account_id,
// scheduled_time) over live rows rejects double-booking; the resulting
// unique violation surfaces as apperrors.ErrSlotTaken so callers can
// advance to the next slot. A post that already left the queued state
// matches no rows and surfaces as apperrors.ErrPostNotQueued.
func (r *scheduledPostRepository) ClaimSlot(ctx context.Context, postID string, slot time.Time) error {
	query := `
		UPDATE scheduled_posts
		SET scheduled_time = $1,
			status = $2,
			updated_at = $3
		WHERE post_id = $4 AND status = $5
	`
	result, err := r.db.ExecContext(ctx, query, slot, models.PostStatusScheduled, time.Now(), postID, models.PostStatusQueued)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return apperrors.ErrSlotTaken
		}
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected == 0 {
		return apperrors.ErrPostNotQueued
	}
	return nil
}

func (r *scheduledPostRepository) Reschedule(ctx context.Context, orgID, postID string, slot time.Time) error {
	query := `
		UPDATE scheduled_posts
		SET scheduled_time = $1, updated_at = $2
		WHERE org_id = $3 AND post_id = $4
	`
	_, err := r.db.ExecContext(ctx, query, slot, time.Now(), orgID, postID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return apperrors.ErrSlotTaken
		}
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *scheduledPostRepository) UpdateStatus(ctx context.Context, postID, status, lastError string) error {
	query := `
		UPDATE scheduled_posts
		SET status = $1,
			last_error = $2,
			updated_at = $3
		WHERE post_id = $4
	`
	_, err := r.db.ExecContext(ctx, query, status, lastError, time.Now(), postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *scheduledPostRepository) CountByStatus(ctx context.Context, orgID string, accountID int64, status string) (int, error) {
	query := `SELECT COUNT(*) FROM scheduled_posts WHERE org_id = $1 AND social_account_id = $2 AND status = $3`

	var count int
	err := r.db.QueryRowContext(ctx, query, orgID, accountID, status).Scan(&count)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return count, nil
}

// Remove deletes a draft that was never assigned a slot. Posts that
// reached scheduled or later are only ever status-transitioned.
func (r *scheduledPostRepository) Remove(ctx context.Context, orgID, postID string) error {
	query := `DELETE FROM scheduled_posts WHERE org_id = $1 AND post_id = $2 AND status = $3`
	_, err := r.db.ExecContext(ctx, query, orgID, postID, models.PostStatusQueued)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
