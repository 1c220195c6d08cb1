package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"time"

	"github.com/cmisapp/publishflow/internal/apperrors"
	"github.com/cmisapp/publishflow/internal/models"
	"github.com/cmisapp/publishflow/internal/repository"
	"github.com/cmisapp/publishflow/internal/transfer"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type PostService interface {
	QueuePost(ctx context.Context, orgID string, pc *transfer.PostCreation, files []*multipart.FileHeader) (string, error)
	List(ctx context.Context, orgID, status string) ([]*models.ScheduledPost, error)
	PostInfo(ctx context.Context, orgID, postID string) (*models.ScheduledPost, error)
	Reschedule(ctx context.Context, orgID, postID string, scheduledAt time.Time) (*models.ScheduledPost, error)
	Remove(ctx context.Context, orgID, postID string) error
}

type postService struct {
	db      *sql.DB
	sp      repository.ScheduledPostRepository
	sa      repository.SocialAccountRepository
	ma      repository.MediaAssetRepository
	pm      repository.PostMediaRepository
	storage *StorageService
}

func NewPostService(
	db *sql.DB,
	sp repository.ScheduledPostRepository,
	sa repository.SocialAccountRepository,
	ma repository.MediaAssetRepository,
	pm repository.PostMediaRepository,
	storage *StorageService) PostService {
	return &postService{
		db:      db,
		sp:      sp,
		sa:      sa,
		ma:      ma,
		pm:      pm,
		storage: storage,
	}
}

// QueuePost creates a content item in the queued state. Slot assignment
// happens later, when the fill scheduler claims the next available time
// for the account's queue.
func (s *postService) QueuePost(ctx context.Context, orgID string, pc *transfer.PostCreation, files []*multipart.FileHeader) (string, error) {
	if pc == nil {
		err := errors.New("post creation data is nil")
		slog.Error(err.Error())
		return "", err
	}
	if pc.Content == "" {
		err := errors.New("content cannot be empty")
		slog.Info(err.Error())
		return "", err
	}
	if pc.SocialAccountID == 0 {
		err := errors.New("social_account_id is not valid")
		slog.Info(err.Error())
		return "", err
	}

	exists, err := s.sa.CheckByOrg(ctx, pc.SocialAccountID, orgID)
	if err != nil {
		return "", err
	}
	if !exists {
		err = fmt.Errorf("social account %d does not exist", pc.SocialAccountID)
		slog.Info(err.Error())
		return "", err
	}

	account, err := s.sa.GetByID(ctx, pc.SocialAccountID)
	if err != nil || account == nil {
		return "", fmt.Errorf("error loading social account %d", pc.SocialAccountID)
	}

	postID, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("error generating post id: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		}
	}()

	post := models.ScheduledPost{
		PostID:          postID,
		OrgID:           orgID,
		SocialAccountID: pc.SocialAccountID,
		Platform:        account.Platform,
		Content:         pc.Content,
		Title:           pc.Title,
		Status:          models.PostStatusQueued,
	}

	if err = s.sp.Create(ctx, tx, &post); err != nil {
		return "", fmt.Errorf("error creating post: %w", err)
	}

	if err = s.processFiles(ctx, tx, orgID, postID, files); err != nil {
		return "", fmt.Errorf("error processing files: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	return postID, nil
}

func (s *postService) processFiles(ctx context.Context, tx *sql.Tx, orgID, postID string, files []*multipart.FileHeader) error {
	allowedTypes := map[string]struct{}{
		"mp4": {}, "mov": {}, "jpeg": {}, "png": {}, "jpg": {},
	}

	for i, file := range files {
		fileContent, err := file.Open()
		if err != nil {
			return fmt.Errorf("error opening file: %w", err)
		}
		defer fileContent.Close()

		fileBytes, err := io.ReadAll(fileContent)
		if err != nil {
			return fmt.Errorf("error reading file content: %w", err)
		}

		fileType, err := filetype.Match(fileBytes)
		if err != nil || fileType == types.Unknown {
			return fmt.Errorf("unsupported file type: %w", err)
		}
		if _, ok := allowedTypes[fileType.Extension]; !ok {
			return fmt.Errorf("file type %s is not allowed", fileType.Extension)
		}

		assetID, err := s.saveFile(ctx, tx, orgID, fileType.MIME.Value, fileBytes)
		if err != nil {
			return fmt.Errorf("error uploading file: %w", err)
		}

		postMedia := models.PostMedia{
			PostID:       postID,
			AssetID:      assetID,
			DisplayOrder: i,
		}
		if err := s.pm.Create(ctx, tx, &postMedia); err != nil {
			return fmt.Errorf("error saving media file: %w", err)
		}
	}
	return nil
}

func (s *postService) saveFile(ctx context.Context, tx *sql.Tx, orgID, fileType string, file []byte) (int64, error) {
	key, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	fileURL, err := s.storage.Upload(ctx, key, file, fileType)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	asset := models.MediaAsset{
		OrgID:    orgID,
		FileName: key,
		FileType: fileType,
		FileSize: int64(len(file)),
		FileURL:  fileURL,
	}

	return s.ma.Create(ctx, tx, &asset)
}

func (s *postService) List(ctx context.Context, orgID, status string) ([]*models.ScheduledPost, error) {
	posts, err := s.sp.ListByOrg(ctx, orgID, status)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}
	return posts, nil
}

func (s *postService) PostInfo(ctx context.Context, orgID, postID string) (*models.ScheduledPost, error) {
	post, found, err := s.sp.GetByID(ctx, orgID, postID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperrors.NewPostNotFound(postID)
	}
	return post, nil
}

func (s *postService) Reschedule(ctx context.Context, orgID, postID string, scheduledAt time.Time) (*models.ScheduledPost, error) {
	post, found, err := s.sp.GetByID(ctx, orgID, postID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperrors.NewPostNotFound(postID)
	}

	if post.Status == models.PostStatusPublished {
		err = errors.New("published posts cannot be rescheduled")
		slog.Info(err.Error())
		return nil, err
	}

	if err := s.sp.Reschedule(ctx, orgID, postID, scheduledAt); err != nil {
		return nil, err
	}

	post.ScheduledTime = sql.NullTime{Time: scheduledAt, Valid: true}
	return post, nil
}

func (s *postService) Remove(ctx context.Context, orgID, postID string) error {
	post, found, err := s.sp.GetByID(ctx, orgID, postID)
	if err != nil {
		return err
	}
	if !found {
		return apperrors.NewPostNotFound(postID)
	}

	if post.Status != models.PostStatusQueued {
		err = errors.New("only queued posts can be removed")
		slog.Info(err.Error())
		return err
	}

	return s.sp.Remove(ctx, orgID, postID)
}
