package models

import (
	"regexp"
	"time"
)

// WeekdayMask is a 7-character string of '0'/'1' flags, index 0 = Monday.
type WeekdayMask string

const DefaultWeekdayMask WeekdayMask = "1111111"

// IsEnabled reports whether the given day accepts posts. Day indexes
// outside [0,6] and masks shorter than 7 characters fail closed.
func (m WeekdayMask) IsEnabled(day int) bool {
	if day < 0 || day > 6 {
		return false
	}
	if len(m) != 7 {
		return false
	}
	return m[day] == '1'
}

// EnabledDays counts the '1' flags in the mask.
func (m WeekdayMask) EnabledDays() int {
	count := 0
	for i := 0; i < len(m) && i < 7; i++ {
		if m[i] == '1' {
			count++
		}
	}
	return count
}

// Valid reports whether the mask is exactly 7 characters of '0'/'1'.
func (m WeekdayMask) Valid() bool {
	if len(m) != 7 {
		return false
	}
	for i := 0; i < 7; i++ {
		if m[i] != '0' && m[i] != '1' {
			return false
		}
	}
	return true
}

// weekdayIndex maps time.Weekday (Sunday=0) onto the mask layout (Monday=0).
func weekdayIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

type TimeSlot struct {
	Time    string `db:"slot_time" json:"time"`
	Enabled bool   `db:"enabled" json:"enabled"`
}

var timeSlotPattern = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)

// ValidTimeSlot reports whether t is a 24-hour HH:MM string.
func ValidTimeSlot(t string) bool {
	return timeSlotPattern.MatchString(t)
}

// ValidateTimeSlots splits slots into accepted and rejected lists. Input
// order is preserved in both and duplicates are kept as submitted.
func ValidateTimeSlots(slots []TimeSlot) (accepted, rejected []TimeSlot) {
	for _, slot := range slots {
		if ValidTimeSlot(slot.Time) {
			accepted = append(accepted, slot)
		} else {
			rejected = append(rejected, slot)
		}
	}
	return accepted, rejected
}

type PublishingQueue struct {
	QueueID         string      `db:"queue_id" json:"queue_id"`
	OrgID           string      `db:"org_id" json:"org_id"`
	SocialAccountID int64       `db:"social_account_id" json:"social_account_id"`
	WeekdaysEnabled WeekdayMask `db:"weekdays_enabled" json:"weekdays_enabled"`
	TimeSlots       []TimeSlot  `db:"time_slots" json:"time_slots"`
	Timezone        string      `db:"timezone" json:"timezone"`
	IsActive        bool        `db:"is_active" json:"is_active"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at" json:"updated_at"`
}

func (q *PublishingQueue) IsWeekdayEnabled(day int) bool {
	return q.WeekdaysEnabled.IsEnabled(day)
}

// EnabledTimeSlotsForDay returns the enabled slots for the given day, or
// nothing at all when the weekday itself is disabled.
func (q *PublishingQueue) EnabledTimeSlotsForDay(day int) []TimeSlot {
	if !q.IsWeekdayEnabled(day) {
		return []TimeSlot{}
	}
	return q.AllEnabledTimeSlots()
}

// AllEnabledTimeSlots filters the slot list by the enabled flag,
// ignoring the weekday mask.
func (q *PublishingQueue) AllEnabledTimeSlots() []TimeSlot {
	enabled := make([]TimeSlot, 0, len(q.TimeSlots))
	for _, slot := range q.TimeSlots {
		if slot.Enabled {
			enabled = append(enabled, slot)
		}
	}
	return enabled
}

// Location resolves the queue's IANA timezone, falling back to UTC when
// the stored name does not load.
func (q *PublishingQueue) Location() *time.Location {
	loc, err := time.LoadLocation(q.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// NextAvailableTime computes the first slot strictly after the given
// instant, in the queue's timezone. It scans at most 7 calendar days
// starting from after's day: disabled weekdays are skipped, and on
// after's own day only slots later in the day qualify. Returns nil for
// an inactive queue, when no slot is enabled, or when no enabled
// weekday carries an enabled slot within the scan window.
func (q *PublishingQueue) NextAvailableTime(after time.Time) *time.Time {
	if !q.IsActive {
		return nil
	}

	slots := q.AllEnabledTimeSlots()
	if len(slots) == 0 {
		return nil
	}

	loc := q.Location()
	after = after.In(loc)

	for dayOffset := 0; dayOffset < 7; dayOffset++ {
		day := after.AddDate(0, 0, dayOffset)
		if !q.IsWeekdayEnabled(weekdayIndex(day.Weekday())) {
			continue
		}

		var best *time.Time
		for _, slot := range slots {
			slotTime, err := time.Parse("15:04", slot.Time)
			if err != nil {
				continue
			}
			candidate := time.Date(day.Year(), day.Month(), day.Day(),
				slotTime.Hour(), slotTime.Minute(), 0, 0, loc)
			if !candidate.After(after) {
				continue
			}
			if best == nil || candidate.Before(*best) {
				best = &candidate
			}
		}
		if best != nil {
			return best
		}
	}

	return nil
}

// PostsPerWeek estimates weekly capacity as enabled days times enabled
// slots. The model has no per-day slot differentiation.
func (q *PublishingQueue) PostsPerWeek() int {
	return q.WeekdaysEnabled.EnabledDays() * len(q.AllEnabledTimeSlots())
}

// SlotsRemainingToday counts enabled slots later today in the queue's
// timezone. Zero when today's weekday is disabled or the queue is off.
func (q *PublishingQueue) SlotsRemainingToday(now time.Time) int {
	if !q.IsActive {
		return 0
	}

	loc := q.Location()
	now = now.In(loc)
	if !q.IsWeekdayEnabled(weekdayIndex(now.Weekday())) {
		return 0
	}

	remaining := 0
	for _, slot := range q.AllEnabledTimeSlots() {
		slotTime, err := time.Parse("15:04", slot.Time)
		if err != nil {
			continue
		}
		candidate := time.Date(now.Year(), now.Month(), now.Day(),
			slotTime.Hour(), slotTime.Minute(), 0, 0, loc)
		if candidate.After(now) {
			remaining++
		}
	}
	return remaining
}
