package models

import (
	"database/sql"
	"time"
)

type ScheduledPost struct {
	PostID          string       `db:"post_id" json:"post_id"`
	OrgID           string       `db:"org_id" json:"org_id"`
	SocialAccountID int64        `db:"social_account_id" json:"social_account_id"`
	Platform        string       `db:"platform" json:"platform"`
	Content         string       `db:"content" json:"content"`
	Title           string       `db:"title" json:"title"`
	ScheduledTime   sql.NullTime `db:"scheduled_time" json:"scheduled_time"`
	Status          string       `db:"status" json:"status"`
	LastError       string       `db:"last_error" json:"last_error,omitempty"`
	CreatedAt       time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at" json:"updated_at"`
}

const (
	PostStatusQueued    = "queued"
	PostStatusScheduled = "scheduled"
	PostStatusPublished = "published"
	PostStatusFailed    = "failed"
)

type MediaAsset struct {
	ID           int64     `db:"id" json:"id"`
	OrgID        string    `db:"org_id" json:"org_id"`
	FileName     string    `db:"file_name" json:"file_name"`
	FileType     string    `db:"file_type" json:"file_type"`
	FileSize     int64     `db:"file_size" json:"file_size"`
	FileURL      string    `db:"file_url" json:"file_url"`
	ThumbnailURL string    `db:"thumbnail_url" json:"thumbnail_url"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type PostMedia struct {
	PostID       string    `db:"post_id" json:"post_id"`
	AssetID      int64     `db:"asset_id" json:"asset_id"`
	DisplayOrder int       `db:"display_order" json:"display_order"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
