package models

import "time"

type PostingHistory struct {
	ID           int64     `db:"id" json:"id"`
	OrgID        string    `db:"org_id" json:"org_id"`
	PostID       string    `db:"post_id" json:"post_id"`
	AccountID    int64     `db:"account_id" json:"account_id"`
	ErrorMessage string    `db:"error_message" json:"error_message"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
