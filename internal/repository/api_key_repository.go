package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/cmisapp/publishflow/internal/models"
)

type ApiKeyRepository interface {
	Create(ctx context.Context, key *models.ApiKey) (int64, error)
	GetByKey(ctx context.Context, apiKey string) (string, bool, error)
	ListByOrg(ctx context.Context, orgID string) ([]*models.ApiKey, error)
	CheckByOrg(ctx context.Context, keyID int64, orgID string) (bool, error)
	Remove(ctx context.Context, keyID int64) error
}

type apiKeyRepository struct {
	db *sql.DB
}

func NewApiKeyRepository(db *sql.DB) ApiKeyRepository {
	return &apiKeyRepository{db: db}
}

func (r *apiKeyRepository) Create(ctx context.Context, key *models.ApiKey) (int64, error) {
	query := `
		INSERT INTO api_keys (org_id, api_key)
		VALUES ($1, $2)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, key.OrgID, key.ApiKey).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *apiKeyRepository) GetByKey(ctx context.Context, apiKey string) (string, bool, error) {
	query := `SELECT org_id FROM api_keys WHERE api_key = $1`

	var orgID string
	err := r.db.QueryRowContext(ctx, query, apiKey).Scan(&orgID)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		slog.Info(err.Error())
		return "", false, err
	}
	return orgID, true, nil
}

func (r *apiKeyRepository) ListByOrg(ctx context.Context, orgID string) ([]*models.ApiKey, error) {
	query := `SELECT id, org_id, api_key, created_at FROM api_keys WHERE org_id = $1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var keys []*models.ApiKey
	for rows.Next() {
		var key models.ApiKey
		if err := rows.Scan(&key.ID, &key.OrgID, &key.ApiKey, &key.CreatedAt); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		keys = append(keys, &key)
	}
	return keys, rows.Err()
}

func (r *apiKeyRepository) CheckByOrg(ctx context.Context, keyID int64, orgID string) (bool, error) {
	query := `SELECT 1 FROM api_keys WHERE id = $1 AND org_id = $2`

	var result int
	err := r.db.QueryRowContext(ctx, query, keyID, orgID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}
	return result == 1, nil
}

func (r *apiKeyRepository) Remove(ctx context.Context, keyID int64) error {
	query := `DELETE FROM api_keys WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, keyID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
