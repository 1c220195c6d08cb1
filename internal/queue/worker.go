package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/cmisapp/publishflow/internal/models"
	"github.com/hibiken/asynq"
)

func (w *Worker) HandlePublishPostTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	return w.PublishPost(ctx, payload.OrgID, payload.PostID)
}

// PublishPost delivers a scheduled post to its platform and records the
// outcome. The post moves to published or failed; failed posts keep the
// delivery error in last_error.
func (w *Worker) PublishPost(ctx context.Context, orgID, postID string) error {
	post, found, err := w.sp.GetByID(ctx, orgID, postID)
	if err != nil {
		return err
	}
	if !found {
		log.Printf("Post %s not found, dropping delivery task", postID)
		return nil
	}

	if post.Status != models.PostStatusScheduled {
		log.Printf("Post %s is %s, skipping delivery", postID, post.Status)
		return nil
	}

	account, err := w.sa.GetByID(ctx, post.SocialAccountID)
	if err != nil {
		return err
	}
	if account == nil {
		return w.markFailed(ctx, post, fmt.Sprintf("social account %d no longer exists", post.SocialAccountID))
	}

	var publishErr error
	switch account.Platform {
	case "instagram":
		publishErr = w.ig.Publish(ctx, post, account)
	case "tiktok":
		publishErr = w.tt.Publish(ctx, post, account)
	case "youtube":
		publishErr = w.yt.Publish(ctx, post, account)
	default:
		publishErr = fmt.Errorf("unsupported platform %q", account.Platform)
	}

	history := models.PostingHistory{
		OrgID:     orgID,
		PostID:    postID,
		AccountID: account.ID,
	}

	if publishErr != nil {
		history.ErrorMessage = publishErr.Error()
		log.Printf("Error publishing post %s to %s: %v", postID, account.Platform, publishErr)
	}
	if _, err := w.ph.Create(ctx, &history); err != nil {
		log.Printf("Error saving posting history for post %s: %v", postID, err)
	}

	if publishErr != nil {
		return w.markFailed(ctx, post, publishErr.Error())
	}

	return w.sp.UpdateStatus(ctx, postID, models.PostStatusPublished, "")
}

func (w *Worker) markFailed(ctx context.Context, post *models.ScheduledPost, reason string) error {
	if err := w.sp.UpdateStatus(ctx, post.PostID, models.PostStatusFailed, reason); err != nil {
		return err
	}
	return nil
}
