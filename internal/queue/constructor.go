package queue

import (
	"github.com/cmisapp/publishflow/internal/repository"
	"github.com/cmisapp/publishflow/internal/service"
)

// Worker consumes delivery tasks and pushes due posts to their
// platform.
type Worker struct {
	sp repository.ScheduledPostRepository
	sa repository.SocialAccountRepository
	ph repository.PostingHistoryRepository
	ig service.InstagramService
	tt service.TiktokService
	yt service.YoutubeService
}

func NewWorker(
	sp repository.ScheduledPostRepository,
	sa repository.SocialAccountRepository,
	ph repository.PostingHistoryRepository,
	ig service.InstagramService,
	tt service.TiktokService,
	yt service.YoutubeService) *Worker {
	return &Worker{
		sp: sp,
		sa: sa,
		ph: ph,
		ig: ig,
		tt: tt,
		yt: yt,
	}
}

const TaskTypePublishPost = "publish:post"

type PublishPostPayload struct {
	PostID string `json:"post_id"`
	OrgID  string `json:"org_id"`
}
