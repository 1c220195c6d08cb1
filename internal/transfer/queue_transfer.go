package transfer

// TimeSlotInput is a submitted posting time. Enabled defaults to true
// when the field is absent.
type TimeSlotInput struct {
	Time    string `json:"time"`
	Enabled *bool  `json:"enabled"`
}

type QueueCreation struct {
	SocialAccountID int64           `json:"social_account_id"`
	WeekdaysEnabled string          `json:"weekdays_enabled"`
	TimeSlots       []TimeSlotInput `json:"time_slots"`
	Timezone        string          `json:"timezone"`
	IsActive        *bool           `json:"is_active"`
}

// QueueUpdate carries a partial update; nil fields keep their stored
// values.
type QueueUpdate struct {
	WeekdaysEnabled *string          `json:"weekdays_enabled"`
	TimeSlots       *[]TimeSlotInput `json:"time_slots"`
	Timezone        *string          `json:"timezone"`
	IsActive        *bool            `json:"is_active"`
}

type QueueStatistics struct {
	TotalQueued         int     `json:"total_queued"`
	NextSlot            *string `json:"next_slot"`
	SlotsAvailableToday int     `json:"slots_available_today"`
	PostsPerWeek        int     `json:"posts_per_week"`
}
