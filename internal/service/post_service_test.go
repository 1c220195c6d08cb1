package service_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/cmisapp/publishflow/internal/apperrors"
	"github.com/cmisapp/publishflow/internal/models"
	"github.com/cmisapp/publishflow/internal/repository"
	"github.com/cmisapp/publishflow/internal/service"
)

// statefulPostRepo keeps posts in memory for lifecycle tests.
type statefulPostRepo struct {
	posts map[string]*models.ScheduledPost
}

func newStatefulPostRepo() *statefulPostRepo {
	return &statefulPostRepo{posts: make(map[string]*models.ScheduledPost)}
}

func (m *statefulPostRepo) Create(ctx context.Context, tx *sql.Tx, post *models.ScheduledPost) error {
	m.posts[post.PostID] = post
	return nil
}

func (m *statefulPostRepo) GetByID(ctx context.Context, orgID, postID string) (*models.ScheduledPost, bool, error) {
	p, ok := m.posts[postID]
	if !ok || p.OrgID != orgID {
		return nil, false, nil
	}
	copied := *p
	return &copied, true, nil
}

func (m *statefulPostRepo) ListByOrg(ctx context.Context, orgID, status string) ([]*models.ScheduledPost, error) {
	var out []*models.ScheduledPost
	for _, p := range m.posts {
		if p.OrgID != orgID {
			continue
		}
		if status != "" && p.Status != status {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *statefulPostRepo) OldestQueued(ctx context.Context, accountID int64) (*models.ScheduledPost, bool, error) {
	return nil, false, nil
}

func (m *statefulPostRepo) ClaimSlot(ctx context.Context, postID string, slot time.Time) error {
	return nil
}

func (m *statefulPostRepo) Reschedule(ctx context.Context, orgID, postID string, slot time.Time) error {
	p := m.posts[postID]
	p.ScheduledTime = sql.NullTime{Time: slot, Valid: true}
	p.Status = models.PostStatusScheduled
	return nil
}

func (m *statefulPostRepo) UpdateStatus(ctx context.Context, postID, status, lastError string) error {
	p, ok := m.posts[postID]
	if !ok {
		return nil
	}
	p.Status = status
	p.LastError = lastError
	return nil
}

func (m *statefulPostRepo) CountByStatus(ctx context.Context, orgID string, accountID int64, status string) (int, error) {
	count := 0
	for _, p := range m.posts {
		if p.OrgID == orgID && p.SocialAccountID == accountID && p.Status == status {
			count++
		}
	}
	return count, nil
}

func (m *statefulPostRepo) Remove(ctx context.Context, orgID, postID string) error {
	delete(m.posts, postID)
	return nil
}

type stubMediaAssetRepo struct{}

func (stubMediaAssetRepo) Create(ctx context.Context, tx *sql.Tx, asset *models.MediaAsset) (int64, error) {
	return 1, nil
}

func (stubMediaAssetRepo) GetByID(ctx context.Context, id int64) (*models.MediaAsset, error) {
	return nil, nil
}

type stubPostMediaRepo struct{}

func (stubPostMediaRepo) Create(ctx context.Context, tx *sql.Tx, media *models.PostMedia) error {
	return nil
}

func (stubPostMediaRepo) ListByPostID(ctx context.Context, postID string) ([]*models.PostMedia, error) {
	return nil, nil
}

var (
	_ repository.MediaAssetRepository = stubMediaAssetRepo{}
	_ repository.PostMediaRepository  = stubPostMediaRepo{}
)

func newPostTestService(sp *statefulPostRepo) service.PostService {
	sa := &mockAccountRepo{accounts: map[int64]string{1: "org_a"}}
	return service.NewPostService(nil, sp, sa, stubMediaAssetRepo{}, stubPostMediaRepo{}, nil)
}

func TestPostInfoNotFound(t *testing.T) {
	s := newPostTestService(newStatefulPostRepo())

	_, err := s.PostInfo(context.Background(), "org_a", "missing")
	if !apperrors.IsPostNotFound(err) {
		t.Fatalf("err = %v, want PostNotFoundError", err)
	}
}

func TestPostInfoOtherOrg(t *testing.T) {
	repo := newStatefulPostRepo()
	repo.posts["p1"] = &models.ScheduledPost{PostID: "p1", OrgID: "org_b", Status: models.PostStatusQueued}
	s := newPostTestService(repo)

	_, err := s.PostInfo(context.Background(), "org_a", "p1")
	if !apperrors.IsPostNotFound(err) {
		t.Fatalf("cross-org lookup: err = %v, want PostNotFoundError", err)
	}
}

func TestReschedule(t *testing.T) {
	repo := newStatefulPostRepo()
	repo.posts["p1"] = &models.ScheduledPost{
		PostID: "p1", OrgID: "org_a", SocialAccountID: 1,
		Status: models.PostStatusQueued,
	}
	s := newPostTestService(repo)

	at := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	post, err := s.Reschedule(context.Background(), "org_a", "p1", at)
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	if !post.ScheduledTime.Valid || !post.ScheduledTime.Time.Equal(at) {
		t.Errorf("ScheduledTime = %v, want %v", post.ScheduledTime, at)
	}
	if repo.posts["p1"].Status != models.PostStatusScheduled {
		t.Errorf("stored status = %q, want scheduled", repo.posts["p1"].Status)
	}
}

func TestRescheduleRefusesPublished(t *testing.T) {
	repo := newStatefulPostRepo()
	repo.posts["p1"] = &models.ScheduledPost{
		PostID: "p1", OrgID: "org_a", SocialAccountID: 1,
		Status: models.PostStatusPublished,
	}
	s := newPostTestService(repo)

	_, err := s.Reschedule(context.Background(), "org_a", "p1", time.Now())
	if err == nil {
		t.Fatal("expected error rescheduling a published post")
	}
}

func TestRemoveOnlyQueued(t *testing.T) {
	repo := newStatefulPostRepo()
	repo.posts["queued"] = &models.ScheduledPost{
		PostID: "queued", OrgID: "org_a", Status: models.PostStatusQueued,
	}
	repo.posts["live"] = &models.ScheduledPost{
		PostID: "live", OrgID: "org_a", Status: models.PostStatusScheduled,
	}
	s := newPostTestService(repo)
	ctx := context.Background()

	if err := s.Remove(ctx, "org_a", "queued"); err != nil {
		t.Fatalf("Remove queued: %v", err)
	}
	if _, ok := repo.posts["queued"]; ok {
		t.Error("queued post was not removed")
	}

	if err := s.Remove(ctx, "org_a", "live"); err == nil {
		t.Fatal("expected error removing a scheduled post")
	}
	if _, ok := repo.posts["live"]; !ok {
		t.Error("scheduled post should not have been removed")
	}
}
