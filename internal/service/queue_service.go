package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmisapp/publishflow/internal/apperrors"
	"github.com/cmisapp/publishflow/internal/models"
	"github.com/cmisapp/publishflow/internal/repository"
	"github.com/cmisapp/publishflow/internal/transfer"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type QueueService interface {
	CreateQueue(ctx context.Context, orgID string, qc *transfer.QueueCreation) (*models.PublishingQueue, []models.TimeSlot, error)
	UpdateQueue(ctx context.Context, orgID, queueID string, qu *transfer.QueueUpdate) (*models.PublishingQueue, []models.TimeSlot, error)
	DeleteQueue(ctx context.Context, orgID, queueID string) (bool, error)
	ToggleQueue(ctx context.Context, orgID, queueID string) (*models.PublishingQueue, error)
	GetQueue(ctx context.Context, orgID, queueID string) (*models.PublishingQueue, error)
	GetAccountQueue(ctx context.Context, orgID string, accountID int64) (*models.PublishingQueue, error)
	ListQueues(ctx context.Context, orgID string, activeOnly bool) ([]*models.PublishingQueue, error)
	NextSlot(ctx context.Context, orgID, queueID string) (*time.Time, error)
	Statistics(ctx context.Context, orgID, queueID string) (*transfer.QueueStatistics, error)
	OptimalTimes(platform string) []models.TimeSlot
}

type queueService struct {
	qr repository.QueueRepository
	sa repository.SocialAccountRepository
	sp repository.ScheduledPostRepository
}

func NewQueueService(
	qr repository.QueueRepository,
	sa repository.SocialAccountRepository,
	sp repository.ScheduledPostRepository) QueueService {
	return &queueService{
		qr: qr,
		sa: sa,
		sp: sp,
	}
}

// optimalPostingTimes are per-platform default posting times, used as a
// starting suggestion when an account has no engagement history yet.
var optimalPostingTimes = map[string][]string{
	"facebook":  {"09:00", "13:00", "18:00"},
	"instagram": {"09:00", "12:00", "19:00"},
	"twitter":   {"08:00", "12:00", "17:00", "21:00"},
	"linkedin":  {"08:00", "12:00", "17:00"},
	"tiktok":    {"07:00", "12:00", "19:00"},
}

var genericPostingTimes = []string{"09:00", "12:00", "18:00"}

// OptimalTimes suggests posting slots for a platform. Unknown platforms
// get the generic defaults.
func (s *queueService) OptimalTimes(platform string) []models.TimeSlot {
	times, ok := optimalPostingTimes[platform]
	if !ok {
		times = genericPostingTimes
	}

	slots := make([]models.TimeSlot, 0, len(times))
	for _, t := range times {
		slots = append(slots, models.TimeSlot{Time: t, Enabled: true})
	}
	return slots
}

// convertSlots normalizes submitted slots: Enabled defaults to true,
// well-formed HH:MM entries are accepted, the rest are returned so the
// caller can report them instead of losing them silently.
func convertSlots(inputs []transfer.TimeSlotInput) (accepted, rejected []models.TimeSlot) {
	slots := make([]models.TimeSlot, 0, len(inputs))
	for _, in := range inputs {
		enabled := true
		if in.Enabled != nil {
			enabled = *in.Enabled
		}
		slots = append(slots, models.TimeSlot{Time: in.Time, Enabled: enabled})
	}
	return models.ValidateTimeSlots(slots)
}

func rejectedTimes(rejected []models.TimeSlot) []string {
	times := make([]string, 0, len(rejected))
	for _, slot := range rejected {
		times = append(times, slot.Time)
	}
	return times
}

func (s *queueService) CreateQueue(ctx context.Context, orgID string, qc *transfer.QueueCreation) (*models.PublishingQueue, []models.TimeSlot, error) {
	if qc == nil {
		err := errors.New("queue creation data is nil")
		slog.Error(err.Error())
		return nil, nil, err
	}
	if qc.SocialAccountID == 0 {
		err := errors.New("social_account_id is not valid")
		slog.Info(err.Error())
		return nil, nil, err
	}

	exists, err := s.sa.CheckByOrg(ctx, qc.SocialAccountID, orgID)
	if err != nil {
		return nil, nil, err
	}
	if !exists {
		err = fmt.Errorf("social account %d does not exist", qc.SocialAccountID)
		slog.Info(err.Error())
		return nil, nil, err
	}

	// At most one live queue per account; soft invariant, checked here
	// rather than by a DB constraint.
	if _, found, err := s.qr.GetByAccount(ctx, orgID, qc.SocialAccountID); err != nil {
		return nil, nil, err
	} else if found {
		return nil, nil, apperrors.NewQueueExists(qc.SocialAccountID)
	}

	mask := models.DefaultWeekdayMask
	if qc.WeekdaysEnabled != "" {
		mask = models.WeekdayMask(qc.WeekdaysEnabled)
		if !mask.Valid() {
			err = fmt.Errorf("weekdays_enabled %q is not a 7-character 0/1 mask", qc.WeekdaysEnabled)
			slog.Info(err.Error())
			return nil, nil, err
		}
	}

	timezone := qc.Timezone
	if timezone == "" {
		timezone = "UTC"
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		err = fmt.Errorf("invalid timezone %q: %w", timezone, err)
		slog.Info(err.Error())
		return nil, nil, err
	}

	accepted, rejected := convertSlots(qc.TimeSlots)
	if len(qc.TimeSlots) > 0 && len(accepted) == 0 {
		return nil, rejected, &apperrors.InvalidTimeSlotsError{Rejected: rejectedTimes(rejected)}
	}
	if accepted == nil {
		accepted = []models.TimeSlot{}
	}

	active := true
	if qc.IsActive != nil {
		active = *qc.IsActive
	}

	queueID, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return nil, rejected, fmt.Errorf("error generating queue id: %w", err)
	}

	queue := &models.PublishingQueue{
		QueueID:         queueID,
		OrgID:           orgID,
		SocialAccountID: qc.SocialAccountID,
		WeekdaysEnabled: mask,
		TimeSlots:       accepted,
		Timezone:        timezone,
		IsActive:        active,
	}

	if err := s.qr.Create(ctx, queue); err != nil {
		slog.Error(fmt.Sprintf("failed to create queue for account %d: %v", qc.SocialAccountID, err))
		return nil, rejected, fmt.Errorf("error creating queue: %w", err)
	}

	slog.Info(fmt.Sprintf("created publishing queue %s for account %d", queueID, qc.SocialAccountID))
	return queue, rejected, nil
}

func (s *queueService) UpdateQueue(ctx context.Context, orgID, queueID string, qu *transfer.QueueUpdate) (*models.PublishingQueue, []models.TimeSlot, error) {
	queue, found, err := s.qr.GetByID(ctx, orgID, queueID)
	if err != nil {
		return nil, nil, err
	}
	if !found {
		return nil, nil, apperrors.NewQueueNotFound(queueID)
	}

	if qu.WeekdaysEnabled != nil {
		mask := models.WeekdayMask(*qu.WeekdaysEnabled)
		if !mask.Valid() {
			err = fmt.Errorf("weekdays_enabled %q is not a 7-character 0/1 mask", *qu.WeekdaysEnabled)
			slog.Info(err.Error())
			return nil, nil, err
		}
		queue.WeekdaysEnabled = mask
	}

	if qu.Timezone != nil {
		if _, err := time.LoadLocation(*qu.Timezone); err != nil {
			err = fmt.Errorf("invalid timezone %q: %w", *qu.Timezone, err)
			slog.Info(err.Error())
			return nil, nil, err
		}
		queue.Timezone = *qu.Timezone
	}

	if qu.IsActive != nil {
		queue.IsActive = *qu.IsActive
	}

	var rejected []models.TimeSlot
	if qu.TimeSlots != nil {
		var accepted []models.TimeSlot
		accepted, rejected = convertSlots(*qu.TimeSlots)
		if len(*qu.TimeSlots) > 0 && len(accepted) == 0 {
			return nil, rejected, &apperrors.InvalidTimeSlotsError{Rejected: rejectedTimes(rejected)}
		}
		if accepted == nil {
			accepted = []models.TimeSlot{}
		}
		queue.TimeSlots = accepted
	}

	if err := s.qr.Update(ctx, queue); err != nil {
		slog.Error(fmt.Sprintf("failed to update queue %s: %v", queueID, err))
		return nil, rejected, fmt.Errorf("error updating queue: %w", err)
	}

	return queue, rejected, nil
}

func (s *queueService) DeleteQueue(ctx context.Context, orgID, queueID string) (bool, error) {
	deleted, err := s.qr.SoftDelete(ctx, orgID, queueID)
	if err != nil {
		slog.Error(fmt.Sprintf("failed to delete queue %s: %v", queueID, err))
		return false, fmt.Errorf("error deleting queue: %w", err)
	}
	return deleted, nil
}

func (s *queueService) ToggleQueue(ctx context.Context, orgID, queueID string) (*models.PublishingQueue, error) {
	queue, found, err := s.qr.GetByID(ctx, orgID, queueID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperrors.NewQueueNotFound(queueID)
	}

	queue.IsActive = !queue.IsActive
	if err := s.qr.SetActive(ctx, orgID, queueID, queue.IsActive); err != nil {
		slog.Error(fmt.Sprintf("failed to toggle queue %s: %v", queueID, err))
		return nil, fmt.Errorf("error toggling queue: %w", err)
	}

	return queue, nil
}

func (s *queueService) GetQueue(ctx context.Context, orgID, queueID string) (*models.PublishingQueue, error) {
	queue, found, err := s.qr.GetByID(ctx, orgID, queueID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperrors.NewQueueNotFound(queueID)
	}
	return queue, nil
}

// GetAccountQueue returns nil without error when the account has no
// live queue.
func (s *queueService) GetAccountQueue(ctx context.Context, orgID string, accountID int64) (*models.PublishingQueue, error) {
	queue, found, err := s.qr.GetByAccount(ctx, orgID, accountID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return queue, nil
}

func (s *queueService) ListQueues(ctx context.Context, orgID string, activeOnly bool) ([]*models.PublishingQueue, error) {
	queues, err := s.qr.List(ctx, orgID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("error listing queues: %w", err)
	}
	return queues, nil
}

func (s *queueService) NextSlot(ctx context.Context, orgID, queueID string) (*time.Time, error) {
	queue, err := s.GetQueue(ctx, orgID, queueID)
	if err != nil {
		return nil, err
	}

	next := queue.NextAvailableTime(time.Now())
	if next == nil && len(queue.AllEnabledTimeSlots()) == 0 {
		return nil, apperrors.ErrNoEnabledSlots
	}
	return next, nil
}

func (s *queueService) Statistics(ctx context.Context, orgID, queueID string) (*transfer.QueueStatistics, error) {
	queue, err := s.GetQueue(ctx, orgID, queueID)
	if err != nil {
		return nil, err
	}

	queued, err := s.sp.CountByStatus(ctx, orgID, queue.SocialAccountID, models.PostStatusScheduled)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	stats := &transfer.QueueStatistics{
		TotalQueued:         queued,
		SlotsAvailableToday: queue.SlotsRemainingToday(now),
		PostsPerWeek:        queue.PostsPerWeek(),
	}

	if next := queue.NextAvailableTime(now); next != nil {
		formatted := next.Format(time.RFC3339)
		stats.NextSlot = &formatted
	}

	return stats, nil
}
