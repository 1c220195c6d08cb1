package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cmisapp/publishflow/internal/models"
	"github.com/cmisapp/publishflow/internal/repository"
	"github.com/cmisapp/publishflow/internal/service"
)

type TokenRefreshJob struct {
	sa repository.SocialAccountRepository
	ig service.InstagramService
	tt service.TiktokService
	yt service.YoutubeService
}

func NewTokenRefreshJob(
	sa repository.SocialAccountRepository,
	ig service.InstagramService,
	tt service.TiktokService,
	yt service.YoutubeService) *TokenRefreshJob {
	return &TokenRefreshJob{
		sa: sa,
		ig: ig,
		tt: tt,
		yt: yt,
	}
}

// RefreshTokens refreshes platform tokens expiring within the next 30
// minutes.
func (j *TokenRefreshJob) RefreshTokens() {
	ctx := context.Background()

	now := time.Now()
	accounts, err := j.sa.ListExpiringTokens(ctx, now, now.Add(30*time.Minute))
	if err != nil {
		slog.Info(err.Error())
		return
	}

	var wg sync.WaitGroup

	concurrencyLimit := 10
	semaphore := make(chan struct{}, concurrencyLimit)

	for _, acc := range accounts {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(acc *models.SocialAccount) {
			defer wg.Done()
			defer func() { <-semaphore }()

			var err error
			switch acc.Platform {
			case "instagram":
				err = j.ig.RefreshToken(ctx, acc.ID, acc.RefreshToken)
			case "tiktok":
				err = j.tt.RefreshToken(ctx, acc.ID, acc.RefreshToken)
			case "youtube":
				err = j.yt.RefreshToken(ctx, acc.ID, acc.RefreshToken)
			}
			if err != nil {
				slog.Info("unable to refresh token", "platform", acc.Platform, "account_id", acc.ID)
			}
		}(acc)
	}

	wg.Wait()
}
