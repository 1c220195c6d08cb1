package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/cmisapp/publishflow/internal/models"
)

type SocialAccountRepository interface {
	Create(ctx context.Context, account *models.SocialAccount) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.SocialAccount, error)
	ListByOrg(ctx context.Context, orgID string) ([]*models.SocialAccount, error)
	CheckByOrg(ctx context.Context, accountID int64, orgID string) (bool, error)
	ListExpiringTokens(ctx context.Context, from, to time.Time) ([]*models.SocialAccount, error)
	SetToken(ctx context.Context, accountID int64, account *models.SocialAccount) error
	Remove(ctx context.Context, id int64) error
}

type socialAccountRepository struct {
	db *sql.DB
}

func NewSocialAccountRepository(db *sql.DB) SocialAccountRepository {
	return &socialAccountRepository{db: db}
}

const socialAccountColumns = `id, org_id, platform, account_id, account_name, account_username, profile_picture_url, access_token, refresh_token, token_expires_at, account_status, created_at, updated_at`

func scanSocialAccount(row interface{ Scan(...any) error }) (*models.SocialAccount, error) {
	var acc models.SocialAccount
	err := row.Scan(&acc.ID, &acc.OrgID, &acc.Platform, &acc.AccountID,
		&acc.AccountName, &acc.AccountUsername, &acc.ProfilePicture,
		&acc.AccessToken, &acc.RefreshToken, &acc.TokenExpiresAt,
		&acc.AccountStatus, &acc.CreatedAt, &acc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func (r *socialAccountRepository) Create(ctx context.Context, account *models.SocialAccount) (int64, error) {
	query := `
		INSERT INTO social_accounts (org_id, platform, account_id, account_name, account_username, profile_picture_url, access_token, refresh_token, token_expires_at, account_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'active')
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, account.OrgID, account.Platform,
		account.AccountID, account.AccountName, account.AccountUsername,
		account.ProfilePicture, account.AccessToken, account.RefreshToken,
		account.TokenExpiresAt).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *socialAccountRepository) GetByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	acc, err := scanSocialAccount(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return acc, nil
}

func (r *socialAccountRepository) ListByOrg(ctx context.Context, orgID string) ([]*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts WHERE org_id = $1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.SocialAccount
	for rows.Next() {
		acc, err := scanSocialAccount(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

func (r *socialAccountRepository) CheckByOrg(ctx context.Context, accountID int64, orgID string) (bool, error) {
	query := `SELECT 1 FROM social_accounts WHERE id = $1 AND org_id = $2`

	var result int
	err := r.db.QueryRowContext(ctx, query, accountID, orgID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}
	return result == 1, nil
}

func (r *socialAccountRepository) ListExpiringTokens(ctx context.Context, from, to time.Time) ([]*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts WHERE token_expires_at BETWEEN $1 AND $2`

	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.SocialAccount
	for rows.Next() {
		acc, err := scanSocialAccount(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

func (r *socialAccountRepository) SetToken(ctx context.Context, accountID int64, account *models.SocialAccount) error {
	query := `
		UPDATE social_accounts
		SET access_token = $1,
			token_expires_at = $2,
			updated_at = $3
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, account.AccessToken, account.TokenExpiresAt, time.Now(), accountID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *socialAccountRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM social_accounts WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
