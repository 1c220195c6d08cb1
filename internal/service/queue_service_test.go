package service_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/cmisapp/publishflow/internal/apperrors"
	"github.com/cmisapp/publishflow/internal/models"
	"github.com/cmisapp/publishflow/internal/service"
	"github.com/cmisapp/publishflow/internal/transfer"
)

// Mock repositories backed by in-memory maps.

type mockQueueRepo struct {
	queues map[string]*models.PublishingQueue
}

func newMockQueueRepo() *mockQueueRepo {
	return &mockQueueRepo{queues: make(map[string]*models.PublishingQueue)}
}

func (m *mockQueueRepo) Create(ctx context.Context, queue *models.PublishingQueue) error {
	m.queues[queue.QueueID] = queue
	return nil
}

func (m *mockQueueRepo) GetByID(ctx context.Context, orgID, queueID string) (*models.PublishingQueue, bool, error) {
	q, ok := m.queues[queueID]
	if !ok || q.OrgID != orgID {
		return nil, false, nil
	}
	copied := *q
	return &copied, true, nil
}

func (m *mockQueueRepo) GetByAccount(ctx context.Context, orgID string, accountID int64) (*models.PublishingQueue, bool, error) {
	for _, q := range m.queues {
		if q.OrgID == orgID && q.SocialAccountID == accountID {
			copied := *q
			return &copied, true, nil
		}
	}
	return nil, false, nil
}

func (m *mockQueueRepo) List(ctx context.Context, orgID string, activeOnly bool) ([]*models.PublishingQueue, error) {
	var out []*models.PublishingQueue
	for _, q := range m.queues {
		if q.OrgID != orgID {
			continue
		}
		if activeOnly && !q.IsActive {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

func (m *mockQueueRepo) ListActive(ctx context.Context) ([]*models.PublishingQueue, error) {
	var out []*models.PublishingQueue
	for _, q := range m.queues {
		if q.IsActive {
			out = append(out, q)
		}
	}
	return out, nil
}

func (m *mockQueueRepo) Update(ctx context.Context, queue *models.PublishingQueue) error {
	if _, ok := m.queues[queue.QueueID]; !ok {
		return errors.New("queue not found")
	}
	m.queues[queue.QueueID] = queue
	return nil
}

func (m *mockQueueRepo) SoftDelete(ctx context.Context, orgID, queueID string) (bool, error) {
	q, ok := m.queues[queueID]
	if !ok || q.OrgID != orgID {
		return false, nil
	}
	delete(m.queues, queueID)
	return true, nil
}

func (m *mockQueueRepo) SetActive(ctx context.Context, orgID, queueID string, active bool) error {
	q, ok := m.queues[queueID]
	if !ok || q.OrgID != orgID {
		return errors.New("queue not found")
	}
	q.IsActive = active
	return nil
}

type mockAccountRepo struct {
	accounts map[int64]string // account id -> org id
}

func (m *mockAccountRepo) Create(ctx context.Context, account *models.SocialAccount) (int64, error) {
	return 0, nil
}

func (m *mockAccountRepo) GetByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	return nil, nil
}

func (m *mockAccountRepo) ListByOrg(ctx context.Context, orgID string) ([]*models.SocialAccount, error) {
	return nil, nil
}

func (m *mockAccountRepo) CheckByOrg(ctx context.Context, accountID int64, orgID string) (bool, error) {
	return m.accounts[accountID] == orgID, nil
}

func (m *mockAccountRepo) ListExpiringTokens(ctx context.Context, from, to time.Time) ([]*models.SocialAccount, error) {
	return nil, nil
}

func (m *mockAccountRepo) SetToken(ctx context.Context, accountID int64, account *models.SocialAccount) error {
	return nil
}

func (m *mockAccountRepo) Remove(ctx context.Context, id int64) error { return nil }

type mockPostRepo struct {
	scheduledCount int
}

func (m *mockPostRepo) Create(ctx context.Context, tx *sql.Tx, post *models.ScheduledPost) error {
	return nil
}

func (m *mockPostRepo) GetByID(ctx context.Context, orgID, postID string) (*models.ScheduledPost, bool, error) {
	return nil, false, nil
}

func (m *mockPostRepo) ListByOrg(ctx context.Context, orgID, status string) ([]*models.ScheduledPost, error) {
	return nil, nil
}

func (m *mockPostRepo) OldestQueued(ctx context.Context, accountID int64) (*models.ScheduledPost, bool, error) {
	return nil, false, nil
}

func (m *mockPostRepo) ClaimSlot(ctx context.Context, postID string, slot time.Time) error {
	return nil
}

func (m *mockPostRepo) Reschedule(ctx context.Context, orgID, postID string, slot time.Time) error {
	return nil
}

func (m *mockPostRepo) UpdateStatus(ctx context.Context, postID, status, lastError string) error {
	return nil
}

func (m *mockPostRepo) CountByStatus(ctx context.Context, orgID string, accountID int64, status string) (int, error) {
	return m.scheduledCount, nil
}

func (m *mockPostRepo) Remove(ctx context.Context, orgID, postID string) error { return nil }

func newTestService(scheduledCount int) (service.QueueService, *mockQueueRepo) {
	qr := newMockQueueRepo()
	sa := &mockAccountRepo{accounts: map[int64]string{1: "org_a", 2: "org_b"}}
	sp := &mockPostRepo{scheduledCount: scheduledCount}
	return service.NewQueueService(qr, sa, sp), qr
}

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

func TestCreateQueueDefaults(t *testing.T) {
	s, _ := newTestService(0)

	queue, rejected, err := s.CreateQueue(context.Background(), "org_a", &transfer.QueueCreation{
		SocialAccountID: 1,
	})
	if err != nil {
		t.Fatalf("CreateQueue: %v", err)
	}
	if len(rejected) != 0 {
		t.Errorf("rejected = %v, want none", rejected)
	}

	if queue.WeekdaysEnabled != models.DefaultWeekdayMask {
		t.Errorf("mask = %q, want %q", queue.WeekdaysEnabled, models.DefaultWeekdayMask)
	}
	if queue.Timezone != "UTC" {
		t.Errorf("timezone = %q, want UTC", queue.Timezone)
	}
	if !queue.IsActive {
		t.Error("new queue should be active by default")
	}
	if queue.QueueID == "" {
		t.Error("queue id was not generated")
	}
}

func TestCreateQueueReportsRejectedSlots(t *testing.T) {
	s, _ := newTestService(0)

	queue, rejected, err := s.CreateQueue(context.Background(), "org_a", &transfer.QueueCreation{
		SocialAccountID: 1,
		TimeSlots: []transfer.TimeSlotInput{
			{Time: "09:30"},
			{Time: "25:99"},
		},
	})
	if err != nil {
		t.Fatalf("CreateQueue: %v", err)
	}

	if len(queue.TimeSlots) != 1 || queue.TimeSlots[0].Time != "09:30" {
		t.Errorf("accepted slots = %v, want [09:30]", queue.TimeSlots)
	}
	if len(rejected) != 1 || rejected[0].Time != "25:99" {
		t.Errorf("rejected slots = %v, want [25:99]", rejected)
	}
}

func TestCreateQueueAllSlotsRejected(t *testing.T) {
	s, _ := newTestService(0)

	_, rejected, err := s.CreateQueue(context.Background(), "org_a", &transfer.QueueCreation{
		SocialAccountID: 1,
		TimeSlots:       []transfer.TimeSlotInput{{Time: "25:99"}, {Time: "noon"}},
	})

	var invalid *apperrors.InvalidTimeSlotsError
	if !errors.As(err, &invalid) {
		t.Fatalf("err = %v, want InvalidTimeSlotsError", err)
	}
	if len(rejected) != 2 {
		t.Errorf("rejected %d slots, want 2", len(rejected))
	}
}

func TestCreateQueueUnknownAccount(t *testing.T) {
	s, _ := newTestService(0)

	_, _, err := s.CreateQueue(context.Background(), "org_a", &transfer.QueueCreation{
		SocialAccountID: 99,
	})
	if err == nil {
		t.Fatal("expected error for unknown account")
	}
}

func TestCreateQueueWrongOrgAccount(t *testing.T) {
	s, _ := newTestService(0)

	// Account 2 belongs to org_b.
	_, _, err := s.CreateQueue(context.Background(), "org_a", &transfer.QueueCreation{
		SocialAccountID: 2,
	})
	if err == nil {
		t.Fatal("expected error for foreign account")
	}
}

func TestCreateQueueDuplicateAccount(t *testing.T) {
	s, _ := newTestService(0)
	ctx := context.Background()

	if _, _, err := s.CreateQueue(ctx, "org_a", &transfer.QueueCreation{SocialAccountID: 1}); err != nil {
		t.Fatalf("first CreateQueue: %v", err)
	}

	_, _, err := s.CreateQueue(ctx, "org_a", &transfer.QueueCreation{SocialAccountID: 1})
	if !apperrors.IsQueueExists(err) {
		t.Fatalf("err = %v, want QueueExistsError", err)
	}
}

func TestCreateQueueBadMask(t *testing.T) {
	s, _ := newTestService(0)

	_, _, err := s.CreateQueue(context.Background(), "org_a", &transfer.QueueCreation{
		SocialAccountID: 1,
		WeekdaysEnabled: "11111",
	})
	if err == nil {
		t.Fatal("expected error for short weekday mask")
	}
}

func TestCreateQueueBadTimezone(t *testing.T) {
	s, _ := newTestService(0)

	_, _, err := s.CreateQueue(context.Background(), "org_a", &transfer.QueueCreation{
		SocialAccountID: 1,
		Timezone:        "Mars/Olympus_Mons",
	})
	if err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}

func TestUpdateQueue(t *testing.T) {
	s, _ := newTestService(0)
	ctx := context.Background()

	queue, _, err := s.CreateQueue(ctx, "org_a", &transfer.QueueCreation{
		SocialAccountID: 1,
		TimeSlots:       []transfer.TimeSlotInput{{Time: "09:00"}},
	})
	if err != nil {
		t.Fatalf("CreateQueue: %v", err)
	}

	updated, rejected, err := s.UpdateQueue(ctx, "org_a", queue.QueueID, &transfer.QueueUpdate{
		WeekdaysEnabled: strPtr("1111100"),
		IsActive:        boolPtr(false),
	})
	if err != nil {
		t.Fatalf("UpdateQueue: %v", err)
	}
	if len(rejected) != 0 {
		t.Errorf("rejected = %v, want none", rejected)
	}

	if updated.WeekdaysEnabled != "1111100" {
		t.Errorf("mask = %q, want 1111100", updated.WeekdaysEnabled)
	}
	if updated.IsActive {
		t.Error("queue should be inactive after update")
	}
	// Untouched fields survive a partial update.
	if len(updated.TimeSlots) != 1 || updated.TimeSlots[0].Time != "09:00" {
		t.Errorf("slots = %v, want [09:00]", updated.TimeSlots)
	}
}

func TestUpdateQueueNotFound(t *testing.T) {
	s, _ := newTestService(0)

	_, _, err := s.UpdateQueue(context.Background(), "org_a", "missing", &transfer.QueueUpdate{})
	if !apperrors.IsQueueNotFound(err) {
		t.Fatalf("err = %v, want QueueNotFoundError", err)
	}
}

func TestDeleteQueueThenUpdate(t *testing.T) {
	s, _ := newTestService(0)
	ctx := context.Background()

	queue, _, err := s.CreateQueue(ctx, "org_a", &transfer.QueueCreation{SocialAccountID: 1})
	if err != nil {
		t.Fatalf("CreateQueue: %v", err)
	}

	deleted, err := s.DeleteQueue(ctx, "org_a", queue.QueueID)
	if err != nil || !deleted {
		t.Fatalf("DeleteQueue = (%v, %v), want (true, nil)", deleted, err)
	}

	_, _, err = s.UpdateQueue(ctx, "org_a", queue.QueueID, &transfer.QueueUpdate{})
	if !apperrors.IsQueueNotFound(err) {
		t.Fatalf("update after delete: err = %v, want QueueNotFoundError", err)
	}

	deleted, err = s.DeleteQueue(ctx, "org_a", queue.QueueID)
	if err != nil || deleted {
		t.Fatalf("second DeleteQueue = (%v, %v), want (false, nil)", deleted, err)
	}
}

func TestToggleQueueTwice(t *testing.T) {
	s, _ := newTestService(0)
	ctx := context.Background()

	queue, _, err := s.CreateQueue(ctx, "org_a", &transfer.QueueCreation{SocialAccountID: 1})
	if err != nil {
		t.Fatalf("CreateQueue: %v", err)
	}

	toggled, err := s.ToggleQueue(ctx, "org_a", queue.QueueID)
	if err != nil {
		t.Fatalf("ToggleQueue: %v", err)
	}
	if toggled.IsActive {
		t.Error("first toggle should deactivate")
	}

	toggled, err = s.ToggleQueue(ctx, "org_a", queue.QueueID)
	if err != nil {
		t.Fatalf("second ToggleQueue: %v", err)
	}
	if !toggled.IsActive {
		t.Error("second toggle should restore the active state")
	}
}

func TestGetAccountQueueMissing(t *testing.T) {
	s, _ := newTestService(0)

	queue, err := s.GetAccountQueue(context.Background(), "org_a", 1)
	if err != nil {
		t.Fatalf("GetAccountQueue: %v", err)
	}
	if queue != nil {
		t.Errorf("queue = %v, want nil for account without queue", queue)
	}
}

func TestNextSlotNoEnabledSlots(t *testing.T) {
	s, _ := newTestService(0)
	ctx := context.Background()

	queue, _, err := s.CreateQueue(ctx, "org_a", &transfer.QueueCreation{SocialAccountID: 1})
	if err != nil {
		t.Fatalf("CreateQueue: %v", err)
	}

	_, err = s.NextSlot(ctx, "org_a", queue.QueueID)
	if !errors.Is(err, apperrors.ErrNoEnabledSlots) {
		t.Fatalf("err = %v, want ErrNoEnabledSlots", err)
	}
}

func TestOptimalTimes(t *testing.T) {
	s, _ := newTestService(0)

	tiktok := s.OptimalTimes("tiktok")
	if len(tiktok) != 3 || tiktok[0].Time != "07:00" {
		t.Errorf("tiktok slots = %v, want to start at 07:00", tiktok)
	}

	twitter := s.OptimalTimes("twitter")
	if len(twitter) != 4 {
		t.Errorf("twitter slots = %v, want 4 entries", twitter)
	}

	// Unknown platforms fall back to the generic defaults.
	unknown := s.OptimalTimes("myspace")
	if len(unknown) != 3 || unknown[0].Time != "09:00" || unknown[2].Time != "18:00" {
		t.Errorf("fallback slots = %v, want [09:00 12:00 18:00]", unknown)
	}

	for _, slot := range unknown {
		if !slot.Enabled {
			t.Errorf("suggested slot %s should be enabled", slot.Time)
		}
	}
}

func TestStatistics(t *testing.T) {
	s, _ := newTestService(3)
	ctx := context.Background()

	queue, _, err := s.CreateQueue(ctx, "org_a", &transfer.QueueCreation{
		SocialAccountID: 1,
		WeekdaysEnabled: "1111100",
		TimeSlots: []transfer.TimeSlotInput{
			{Time: "09:00"},
			{Time: "15:00"},
		},
	})
	if err != nil {
		t.Fatalf("CreateQueue: %v", err)
	}

	stats, err := s.Statistics(ctx, "org_a", queue.QueueID)
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}

	if stats.TotalQueued != 3 {
		t.Errorf("TotalQueued = %d, want 3", stats.TotalQueued)
	}
	if stats.PostsPerWeek != 10 {
		t.Errorf("PostsPerWeek = %d, want 10", stats.PostsPerWeek)
	}
	if stats.NextSlot == nil {
		t.Error("NextSlot should be set for a queue with enabled slots on weekdays")
	}
}
