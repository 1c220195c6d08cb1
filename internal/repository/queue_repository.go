package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/cmisapp/publishflow/internal/models"
)

type QueueRepository interface {
	Create(ctx context.Context, queue *models.PublishingQueue) error
	GetByID(ctx context.Context, orgID, queueID string) (*models.PublishingQueue, bool, error)
	GetByAccount(ctx context.Context, orgID string, accountID int64) (*models.PublishingQueue, bool, error)
	List(ctx context.Context, orgID string, activeOnly bool) ([]*models.PublishingQueue, error)
	ListActive(ctx context.Context) ([]*models.PublishingQueue, error)
	Update(ctx context.Context, queue *models.PublishingQueue) error
	SoftDelete(ctx context.Context, orgID, queueID string) (bool, error)
	SetActive(ctx context.Context, orgID, queueID string, active bool) error
}

type queueRepository struct {
	db *sql.DB
}

func NewQueueRepository(db *sql.DB) QueueRepository {
	return &queueRepository{db: db}
}

const queueColumns = `queue_id, org_id, social_account_id, weekdays_enabled, time_slots, timezone, is_active, created_at, updated_at`

func (r *queueRepository) Create(ctx context.Context, queue *models.PublishingQueue) error {
	slots, err := json.Marshal(queue.TimeSlots)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	query := `
		INSERT INTO publishing_queues (queue_id, org_id, social_account_id, weekdays_enabled, time_slots, timezone, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.db.ExecContext(ctx, query,
		queue.QueueID, queue.OrgID, queue.SocialAccountID,
		string(queue.WeekdaysEnabled), slots, queue.Timezone, queue.IsActive)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *queueRepository) scanQueue(row interface{ Scan(...any) error }) (*models.PublishingQueue, error) {
	var queue models.PublishingQueue
	var mask string
	var slots []byte

	err := row.Scan(&queue.QueueID, &queue.OrgID, &queue.SocialAccountID,
		&mask, &slots, &queue.Timezone, &queue.IsActive,
		&queue.CreatedAt, &queue.UpdatedAt)
	if err != nil {
		return nil, err
	}

	queue.WeekdaysEnabled = models.WeekdayMask(mask)
	if len(slots) > 0 {
		if err := json.Unmarshal(slots, &queue.TimeSlots); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
	}
	return &queue, nil
}

func (r *queueRepository) GetByID(ctx context.Context, orgID, queueID string) (*models.PublishingQueue, bool, error) {
	query := `SELECT ` + queueColumns + ` FROM publishing_queues
		WHERE org_id = $1 AND queue_id = $2 AND deleted_at IS NULL`
	row := r.db.QueryRowContext(ctx, query, orgID, queueID)

	queue, err := r.scanQueue(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		slog.Info(err.Error())
		return nil, false, err
	}
	return queue, true, nil
}

func (r *queueRepository) GetByAccount(ctx context.Context, orgID string, accountID int64) (*models.PublishingQueue, bool, error) {
	query := `SELECT ` + queueColumns + ` FROM publishing_queues
		WHERE org_id = $1 AND social_account_id = $2 AND deleted_at IS NULL
		ORDER BY created_at DESC LIMIT 1`
	row := r.db.QueryRowContext(ctx, query, orgID, accountID)

	queue, err := r.scanQueue(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		slog.Info(err.Error())
		return nil, false, err
	}
	return queue, true, nil
}

func (r *queueRepository) List(ctx context.Context, orgID string, activeOnly bool) ([]*models.PublishingQueue, error) {
	query := `SELECT ` + queueColumns + ` FROM publishing_queues
		WHERE org_id = $1 AND deleted_at IS NULL`
	if activeOnly {
		query += ` AND is_active = true`
	}
	query += ` ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var queues []*models.PublishingQueue
	for rows.Next() {
		queue, err := r.scanQueue(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		queues = append(queues, queue)
	}
	return queues, rows.Err()
}

// ListActive returns every live active queue across organizations. Used
// by the fill scheduler, which runs outside any request scope.
func (r *queueRepository) ListActive(ctx context.Context) ([]*models.PublishingQueue, error) {
	query := `SELECT ` + queueColumns + ` FROM publishing_queues
		WHERE is_active = true AND deleted_at IS NULL`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var queues []*models.PublishingQueue
	for rows.Next() {
		queue, err := r.scanQueue(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		queues = append(queues, queue)
	}
	return queues, rows.Err()
}

func (r *queueRepository) Update(ctx context.Context, queue *models.PublishingQueue) error {
	slots, err := json.Marshal(queue.TimeSlots)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	query := `
		UPDATE publishing_queues
		SET weekdays_enabled = $1,
			time_slots = $2,
			timezone = $3,
			is_active = $4,
			updated_at = $5
		WHERE org_id = $6 AND queue_id = $7 AND deleted_at IS NULL
	`
	_, err = r.db.ExecContext(ctx, query,
		string(queue.WeekdaysEnabled), slots, queue.Timezone, queue.IsActive,
		time.Now(), queue.OrgID, queue.QueueID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *queueRepository) SoftDelete(ctx context.Context, orgID, queueID string) (bool, error) {
	query := `
		UPDATE publishing_queues
		SET deleted_at = $1, updated_at = $1
		WHERE org_id = $2 AND queue_id = $3 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, time.Now(), orgID, queueID)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected > 0, nil
}

func (r *queueRepository) SetActive(ctx context.Context, orgID, queueID string, active bool) error {
	query := `
		UPDATE publishing_queues
		SET is_active = $1, updated_at = $2
		WHERE org_id = $3 AND queue_id = $4 AND deleted_at IS NULL
	`
	_, err := r.db.ExecContext(ctx, query, active, time.Now(), orgID, queueID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
