package job

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cmisapp/publishflow/internal/apperrors"
	"github.com/cmisapp/publishflow/internal/models"
	"github.com/cmisapp/publishflow/internal/queue"
	"github.com/cmisapp/publishflow/internal/repository"
	"github.com/hibiken/asynq"
)

// maxClaimAttempts bounds how far past contested slots a single fill
// pass will advance before giving up on a queue.
const maxClaimAttempts = 8

type QueueFillJob struct {
	qr     repository.QueueRepository
	sp     repository.ScheduledPostRepository
	client *asynq.Client
}

func NewQueueFillJob(
	qr repository.QueueRepository,
	sp repository.ScheduledPostRepository,
	client *asynq.Client) *QueueFillJob {
	return &QueueFillJob{
		qr:     qr,
		sp:     sp,
		client: client,
	}
}

// Fill walks every active queue and binds its oldest queued post to the
// next available slot. Concurrent fill processes racing on the same
// account are resolved by the slot uniqueness constraint: a lost race
// surfaces as ErrSlotTaken and the pass advances to the following slot.
func (j *QueueFillJob) Fill() {
	ctx := context.Background()

	queues, err := j.qr.ListActive(ctx)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	var wg sync.WaitGroup

	concurrencyLimit := 10
	semaphore := make(chan struct{}, concurrencyLimit)

	for _, q := range queues {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(q *models.PublishingQueue) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if err := j.fillQueue(ctx, q); err != nil {
				slog.Info(err.Error())
			}
		}(q)
	}

	wg.Wait()
}

func (j *QueueFillJob) fillQueue(ctx context.Context, q *models.PublishingQueue) error {
	post, found, err := j.sp.OldestQueued(ctx, q.SocialAccountID)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	after := time.Now()
	for attempt := 0; attempt < maxClaimAttempts; attempt++ {
		slot := q.NextAvailableTime(after)
		if slot == nil {
			return nil
		}

		err := j.sp.ClaimSlot(ctx, post.PostID, *slot)
		if errors.Is(err, apperrors.ErrSlotTaken) {
			after = *slot
			continue
		}
		if errors.Is(err, apperrors.ErrPostNotQueued) {
			// Another fill pass or a removal got here first.
			return nil
		}
		if err != nil {
			return err
		}

		payload := queue.PublishPostPayload{PostID: post.PostID, OrgID: post.OrgID}
		return queue.EnqueuePublish(j.client, payload, time.Until(*slot))
	}

	return nil
}
