package queue

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/cmisapp/publishflow/internal/models"
)

type workerPostRepo struct {
	posts map[string]*models.ScheduledPost
}

func (m *workerPostRepo) Create(ctx context.Context, tx *sql.Tx, post *models.ScheduledPost) error {
	return nil
}

func (m *workerPostRepo) GetByID(ctx context.Context, orgID, postID string) (*models.ScheduledPost, bool, error) {
	p, ok := m.posts[postID]
	if !ok || p.OrgID != orgID {
		return nil, false, nil
	}
	copied := *p
	return &copied, true, nil
}

func (m *workerPostRepo) ListByOrg(ctx context.Context, orgID, status string) ([]*models.ScheduledPost, error) {
	return nil, nil
}

func (m *workerPostRepo) OldestQueued(ctx context.Context, accountID int64) (*models.ScheduledPost, bool, error) {
	return nil, false, nil
}

func (m *workerPostRepo) ClaimSlot(ctx context.Context, postID string, slot time.Time) error {
	return nil
}

func (m *workerPostRepo) Reschedule(ctx context.Context, orgID, postID string, slot time.Time) error {
	return nil
}

func (m *workerPostRepo) UpdateStatus(ctx context.Context, postID, status, lastError string) error {
	p, ok := m.posts[postID]
	if !ok {
		return errors.New("post not found")
	}
	p.Status = status
	p.LastError = lastError
	return nil
}

func (m *workerPostRepo) CountByStatus(ctx context.Context, orgID string, accountID int64, status string) (int, error) {
	return 0, nil
}

func (m *workerPostRepo) Remove(ctx context.Context, orgID, postID string) error { return nil }

type workerAccountRepo struct {
	accounts map[int64]*models.SocialAccount
}

func (m *workerAccountRepo) Create(ctx context.Context, account *models.SocialAccount) (int64, error) {
	return 0, nil
}

func (m *workerAccountRepo) GetByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	return m.accounts[id], nil
}

func (m *workerAccountRepo) ListByOrg(ctx context.Context, orgID string) ([]*models.SocialAccount, error) {
	return nil, nil
}

func (m *workerAccountRepo) CheckByOrg(ctx context.Context, accountID int64, orgID string) (bool, error) {
	return false, nil
}

func (m *workerAccountRepo) ListExpiringTokens(ctx context.Context, from, to time.Time) ([]*models.SocialAccount, error) {
	return nil, nil
}

func (m *workerAccountRepo) SetToken(ctx context.Context, accountID int64, account *models.SocialAccount) error {
	return nil
}

func (m *workerAccountRepo) Remove(ctx context.Context, id int64) error { return nil }

type workerHistoryRepo struct {
	entries []*models.PostingHistory
}

func (m *workerHistoryRepo) Create(ctx context.Context, history *models.PostingHistory) (int64, error) {
	m.entries = append(m.entries, history)
	return int64(len(m.entries)), nil
}

func (m *workerHistoryRepo) ListByPostID(ctx context.Context, orgID, postID string) ([]*models.PostingHistory, error) {
	return m.entries, nil
}

// stubPublisher satisfies the platform publish interfaces.
type stubPublisher struct {
	err   error
	calls int
}

func (s *stubPublisher) Callback(ctx context.Context, code, orgID string) error { return nil }

func (s *stubPublisher) RefreshToken(ctx context.Context, accountID int64, refreshToken string) error {
	return nil
}

func (s *stubPublisher) Publish(ctx context.Context, post *models.ScheduledPost, acc *models.SocialAccount) error {
	s.calls++
	return s.err
}

func newTestWorker(sp *workerPostRepo, sa *workerAccountRepo, ph *workerHistoryRepo, pub *stubPublisher) *Worker {
	return NewWorker(sp, sa, ph, pub, pub, pub)
}

func TestPublishPostSuccess(t *testing.T) {
	sp := &workerPostRepo{posts: map[string]*models.ScheduledPost{
		"p1": {PostID: "p1", OrgID: "org_a", SocialAccountID: 1, Status: models.PostStatusScheduled},
	}}
	sa := &workerAccountRepo{accounts: map[int64]*models.SocialAccount{
		1: {ID: 1, OrgID: "org_a", Platform: "instagram"},
	}}
	ph := &workerHistoryRepo{}
	pub := &stubPublisher{}

	w := newTestWorker(sp, sa, ph, pub)
	if err := w.PublishPost(context.Background(), "org_a", "p1"); err != nil {
		t.Fatalf("PublishPost: %v", err)
	}

	if pub.calls != 1 {
		t.Errorf("publish calls = %d, want 1", pub.calls)
	}
	if sp.posts["p1"].Status != models.PostStatusPublished {
		t.Errorf("status = %q, want published", sp.posts["p1"].Status)
	}
	if len(ph.entries) != 1 || ph.entries[0].ErrorMessage != "" {
		t.Errorf("history = %+v, want one clean entry", ph.entries)
	}
}

func TestPublishPostFailure(t *testing.T) {
	sp := &workerPostRepo{posts: map[string]*models.ScheduledPost{
		"p1": {PostID: "p1", OrgID: "org_a", SocialAccountID: 1, Status: models.PostStatusScheduled},
	}}
	sa := &workerAccountRepo{accounts: map[int64]*models.SocialAccount{
		1: {ID: 1, OrgID: "org_a", Platform: "tiktok"},
	}}
	ph := &workerHistoryRepo{}
	pub := &stubPublisher{err: errors.New("upload rejected")}

	w := newTestWorker(sp, sa, ph, pub)
	if err := w.PublishPost(context.Background(), "org_a", "p1"); err != nil {
		t.Fatalf("PublishPost: %v", err)
	}

	if sp.posts["p1"].Status != models.PostStatusFailed {
		t.Errorf("status = %q, want failed", sp.posts["p1"].Status)
	}
	if sp.posts["p1"].LastError != "upload rejected" {
		t.Errorf("last_error = %q, want the delivery error", sp.posts["p1"].LastError)
	}
	if len(ph.entries) != 1 || ph.entries[0].ErrorMessage != "upload rejected" {
		t.Errorf("history = %+v, want one failed entry", ph.entries)
	}
}

func TestPublishPostSkipsNonScheduled(t *testing.T) {
	sp := &workerPostRepo{posts: map[string]*models.ScheduledPost{
		"p1": {PostID: "p1", OrgID: "org_a", SocialAccountID: 1, Status: models.PostStatusQueued},
	}}
	sa := &workerAccountRepo{accounts: map[int64]*models.SocialAccount{}}
	ph := &workerHistoryRepo{}
	pub := &stubPublisher{}

	w := newTestWorker(sp, sa, ph, pub)
	if err := w.PublishPost(context.Background(), "org_a", "p1"); err != nil {
		t.Fatalf("PublishPost: %v", err)
	}

	if pub.calls != 0 {
		t.Errorf("publish calls = %d, want 0", pub.calls)
	}
	if sp.posts["p1"].Status != models.PostStatusQueued {
		t.Errorf("status = %q, want untouched queued", sp.posts["p1"].Status)
	}
}

func TestPublishPostDropsMissing(t *testing.T) {
	sp := &workerPostRepo{posts: map[string]*models.ScheduledPost{}}
	sa := &workerAccountRepo{accounts: map[int64]*models.SocialAccount{}}
	ph := &workerHistoryRepo{}
	pub := &stubPublisher{}

	w := newTestWorker(sp, sa, ph, pub)
	if err := w.PublishPost(context.Background(), "org_a", "gone"); err != nil {
		t.Fatalf("PublishPost on missing post should not error, got %v", err)
	}
	if pub.calls != 0 {
		t.Errorf("publish calls = %d, want 0", pub.calls)
	}
}
