package job

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/cmisapp/publishflow/internal/apperrors"
	"github.com/cmisapp/publishflow/internal/models"
)

type fillQueueRepo struct {
	queues []*models.PublishingQueue
}

func (m *fillQueueRepo) Create(ctx context.Context, queue *models.PublishingQueue) error { return nil }

func (m *fillQueueRepo) GetByID(ctx context.Context, orgID, queueID string) (*models.PublishingQueue, bool, error) {
	return nil, false, nil
}

func (m *fillQueueRepo) GetByAccount(ctx context.Context, orgID string, accountID int64) (*models.PublishingQueue, bool, error) {
	return nil, false, nil
}

func (m *fillQueueRepo) List(ctx context.Context, orgID string, activeOnly bool) ([]*models.PublishingQueue, error) {
	return m.queues, nil
}

func (m *fillQueueRepo) ListActive(ctx context.Context) ([]*models.PublishingQueue, error) {
	return m.queues, nil
}

func (m *fillQueueRepo) Update(ctx context.Context, queue *models.PublishingQueue) error { return nil }

func (m *fillQueueRepo) SoftDelete(ctx context.Context, orgID, queueID string) (bool, error) {
	return false, nil
}

func (m *fillQueueRepo) SetActive(ctx context.Context, orgID, queueID string, active bool) error {
	return nil
}

// fillPostRepo records claim attempts and answers each with claimErr.
type fillPostRepo struct {
	mu       sync.Mutex
	queued   *models.ScheduledPost
	claimErr error
	claimed  []time.Time
}

func (m *fillPostRepo) Create(ctx context.Context, tx *sql.Tx, post *models.ScheduledPost) error {
	return nil
}

func (m *fillPostRepo) GetByID(ctx context.Context, orgID, postID string) (*models.ScheduledPost, bool, error) {
	return nil, false, nil
}

func (m *fillPostRepo) ListByOrg(ctx context.Context, orgID, status string) ([]*models.ScheduledPost, error) {
	return nil, nil
}

func (m *fillPostRepo) OldestQueued(ctx context.Context, accountID int64) (*models.ScheduledPost, bool, error) {
	if m.queued == nil {
		return nil, false, nil
	}
	return m.queued, true, nil
}

func (m *fillPostRepo) ClaimSlot(ctx context.Context, postID string, slot time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.claimed = append(m.claimed, slot)
	return m.claimErr
}

func (m *fillPostRepo) Reschedule(ctx context.Context, orgID, postID string, slot time.Time) error {
	return nil
}

func (m *fillPostRepo) UpdateStatus(ctx context.Context, postID, status, lastError string) error {
	return nil
}

func (m *fillPostRepo) CountByStatus(ctx context.Context, orgID string, accountID int64, status string) (int, error) {
	return 0, nil
}

func (m *fillPostRepo) Remove(ctx context.Context, orgID, postID string) error { return nil }

func fillTestQueue() *models.PublishingQueue {
	return &models.PublishingQueue{
		QueueID:         "q1",
		OrgID:           "org_a",
		SocialAccountID: 1,
		WeekdaysEnabled: models.DefaultWeekdayMask,
		TimeSlots: []models.TimeSlot{
			{Time: "09:00", Enabled: true},
			{Time: "15:00", Enabled: true},
		},
		Timezone: "UTC",
		IsActive: true,
	}
}

func TestFillAdvancesPastTakenSlots(t *testing.T) {
	qr := &fillQueueRepo{queues: []*models.PublishingQueue{fillTestQueue()}}
	sp := &fillPostRepo{
		queued: &models.ScheduledPost{
			PostID: "p1", OrgID: "org_a", SocialAccountID: 1,
			Status: models.PostStatusQueued,
		},
		claimErr: apperrors.ErrSlotTaken,
	}

	j := NewQueueFillJob(qr, sp, nil)
	j.Fill()

	if len(sp.claimed) != maxClaimAttempts {
		t.Fatalf("claim attempts = %d, want %d", len(sp.claimed), maxClaimAttempts)
	}

	for i := 1; i < len(sp.claimed); i++ {
		if !sp.claimed[i].After(sp.claimed[i-1]) {
			t.Errorf("claimed[%d] = %v is not after claimed[%d] = %v",
				i, sp.claimed[i], i-1, sp.claimed[i-1])
		}
	}

	for _, slot := range sp.claimed {
		if !slot.After(time.Now().Add(-time.Minute)) {
			t.Errorf("claimed slot %v is in the past", slot)
		}
	}
}

func TestFillStopsWhenPostLeftQueuedState(t *testing.T) {
	qr := &fillQueueRepo{queues: []*models.PublishingQueue{fillTestQueue()}}
	sp := &fillPostRepo{
		queued: &models.ScheduledPost{
			PostID: "p1", OrgID: "org_a", SocialAccountID: 1,
			Status: models.PostStatusQueued,
		},
		claimErr: apperrors.ErrPostNotQueued,
	}

	// A nil asynq client would panic on enqueue, so completing proves
	// no delivery task is scheduled for the failed claim.
	j := NewQueueFillJob(qr, sp, nil)
	j.Fill()

	if len(sp.claimed) != 1 {
		t.Fatalf("claim attempts = %d, want 1", len(sp.claimed))
	}
}

func TestFillSkipsQueueWithoutQueuedPosts(t *testing.T) {
	qr := &fillQueueRepo{queues: []*models.PublishingQueue{fillTestQueue()}}
	sp := &fillPostRepo{}

	j := NewQueueFillJob(qr, sp, nil)
	j.Fill()

	if len(sp.claimed) != 0 {
		t.Fatalf("claim attempts = %d, want 0", len(sp.claimed))
	}
}
