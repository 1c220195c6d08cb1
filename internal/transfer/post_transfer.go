package transfer

type PostCreation struct {
	SocialAccountID int64
	Content         string
	Title           string
}

type PostReschedule struct {
	PostID       string `json:"post_id"`
	ScheduledAt  string `json:"scheduled_at"`
}
