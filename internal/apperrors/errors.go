package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrNoEnabledSlots marks a queue that has no enabled time slot to assign.
	ErrNoEnabledSlots = errors.New("queue has no enabled time slots")

	// ErrSlotTaken marks a scheduling slot already claimed for the account.
	ErrSlotTaken = errors.New("slot already taken for account")

	// ErrPostNotQueued marks a slot claim on a post that has already
	// left the queued state.
	ErrPostNotQueued = errors.New("post is no longer queued")
)

type QueueNotFoundError struct {
	QueueID string
}

func (e *QueueNotFoundError) Error() string {
	return fmt.Sprintf("publishing queue %s not found", e.QueueID)
}

func NewQueueNotFound(queueID string) error {
	return &QueueNotFoundError{QueueID: queueID}
}

func IsQueueNotFound(err error) bool {
	var target *QueueNotFoundError
	return errors.As(err, &target)
}

type PostNotFoundError struct {
	PostID string
}

func (e *PostNotFoundError) Error() string {
	return fmt.Sprintf("scheduled post %s not found", e.PostID)
}

func NewPostNotFound(postID string) error {
	return &PostNotFoundError{PostID: postID}
}

func IsPostNotFound(err error) bool {
	var target *PostNotFoundError
	return errors.As(err, &target)
}

type QueueExistsError struct {
	SocialAccountID int64
}

func (e *QueueExistsError) Error() string {
	return fmt.Sprintf("a publishing queue already exists for account %d", e.SocialAccountID)
}

func NewQueueExists(accountID int64) error {
	return &QueueExistsError{SocialAccountID: accountID}
}

func IsQueueExists(err error) bool {
	var target *QueueExistsError
	return errors.As(err, &target)
}

// InvalidTimeSlotsError carries the rejected entries when no submitted
// slot survives validation.
type InvalidTimeSlotsError struct {
	Rejected []string
}

func (e *InvalidTimeSlotsError) Error() string {
	return fmt.Sprintf("no valid time slots submitted, rejected: %v", e.Rejected)
}
