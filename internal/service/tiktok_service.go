package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	cfg "github.com/cmisapp/publishflow/configs"
	"github.com/cmisapp/publishflow/internal/models"
	"github.com/cmisapp/publishflow/internal/repository"
	"github.com/cmisapp/publishflow/internal/transfer"
	"github.com/cmisapp/publishflow/pkg/utils"
	"golang.org/x/oauth2"
)

const (
	tiktokTokenURL   = "https://open.tiktokapis.com/v2/oauth/token/"
	tiktokRevokeURL  = "https://open.tiktokapis.com/v2/oauth/revoke/"
	tiktokUserURL    = "https://open.tiktokapis.com/v2/user/info/"
	tiktokPublishURL = "https://open.tiktokapis.com/v2/post/publish/video/init/"
)

var tiktokEndpoint = oauth2.Endpoint{
	AuthURL:   tiktokAuthURL,
	TokenURL:  tiktokTokenURL,
	AuthStyle: oauth2.AuthStyleInParams,
}

type TiktokService interface {
	Callback(ctx context.Context, code, orgID string) error
	RefreshToken(ctx context.Context, accountID int64, refreshToken string) error
	Publish(ctx context.Context, post *models.ScheduledPost, acc *models.SocialAccount) error
}

type tiktokService struct {
	cfg cfg.Config
	sa  repository.SocialAccountRepository
	pm  repository.PostMediaRepository
	ma  repository.MediaAssetRepository
}

func NewTiktokService(
	cfg cfg.Config,
	sa repository.SocialAccountRepository,
	pm repository.PostMediaRepository,
	ma repository.MediaAssetRepository) TiktokService {
	return &tiktokService{
		cfg: cfg,
		sa:  sa,
		pm:  pm,
		ma:  ma,
	}
}

// TikTok names its client credential fields client_key/client_secret;
// oauth2.Config's client_id parameter is rewritten via the endpoint
// params below.
func (s *tiktokService) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.cfg.TiktokClientKey,
		ClientSecret: s.cfg.TiktokClientSecret,
		RedirectURL:  s.cfg.TiktokRedirectURI,
		Scopes:       []string{"user.info.basic", "video.publish", "video.upload"},
		Endpoint:     tiktokEndpoint,
	}
}

func (s *tiktokService) Callback(ctx context.Context, code, orgID string) error {
	if code == "" {
		err := errors.New("code is empty")
		slog.Info(err.Error())
		return err
	}

	token, err := s.oauthConfig().Exchange(ctx, code,
		oauth2.SetAuthURLParam("client_key", s.cfg.TiktokClientKey))
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	userInfo, err := TiktokUserInfo(token.AccessToken)
	if err != nil {
		return err
	}

	encryptedAccessToken, err := utils.Encrypt([]byte(token.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	encryptedRefreshToken, err := utils.Encrypt([]byte(token.RefreshToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	accountInfo := &models.SocialAccount{
		OrgID:           orgID,
		Platform:        "tiktok",
		AccountID:       userInfo.Data.User.OpenID,
		AccountName:     userInfo.Data.User.DisplayName,
		AccountUsername: userInfo.Data.User.Username,
		ProfilePicture:  userInfo.Data.User.AvatarURL,
		AccessToken:     encryptedAccessToken,
		RefreshToken:    encryptedRefreshToken,
		TokenExpiresAt:  token.Expiry,
	}

	if _, err := s.sa.Create(ctx, accountInfo); err != nil {
		return err
	}
	return nil
}

func (s *tiktokService) RefreshToken(ctx context.Context, accountID int64, refreshToken string) error {
	decrypted, err := utils.Decrypt(refreshToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	tokenSource := s.oauthConfig().TokenSource(ctx, &oauth2.Token{RefreshToken: decrypted})
	token, err := tokenSource.Token()
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	encrypted, err := utils.Encrypt([]byte(token.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	return s.sa.SetToken(ctx, accountID, &models.SocialAccount{
		AccessToken:    encrypted,
		TokenExpiresAt: token.Expiry,
	})
}

// Publish initiates a PULL_FROM_URL video upload; TikTok fetches the
// media from the asset's public URL.
func (s *tiktokService) Publish(ctx context.Context, post *models.ScheduledPost, acc *models.SocialAccount) error {
	accessToken, err := utils.Decrypt(acc.AccessToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	media, err := s.pm.ListByPostID(ctx, post.PostID)
	if err != nil {
		return err
	}
	if len(media) == 0 {
		return errors.New("tiktok posts require video content")
	}

	asset, err := s.ma.GetByID(ctx, media[0].AssetID)
	if err != nil || asset == nil {
		return fmt.Errorf("error loading media asset %d", media[0].AssetID)
	}
	if !strings.HasPrefix(asset.FileType, "video") {
		return errors.New("tiktok posts require video content")
	}

	body := map[string]any{
		"post_info": map[string]any{
			"title":         post.Content,
			"privacy_level": "PUBLIC_TO_EVERYONE",
		},
		"source_info": map[string]any{
			"source":    "PULL_FROM_URL",
			"video_url": asset.FileURL,
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tiktokPublishURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer resp.Body.Close()

	var publishResp transfer.TiktokPublishResponse
	if err := json.NewDecoder(resp.Body).Decode(&publishResp); err != nil {
		slog.Info(err.Error())
		return err
	}

	if publishResp.Error.Code != "" && publishResp.Error.Code != "ok" {
		return fmt.Errorf("tiktok publish failed: %s", publishResp.Error.Message)
	}
	return nil
}

func TiktokUserInfo(accessToken string) (*transfer.TiktokUserResponse, error) {
	params := url.Values{}
	params.Add("fields", "open_id,avatar_url,display_name,username")

	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", tiktokUserURL, params.Encode()), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	var userInfo transfer.TiktokUserResponse
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	if userInfo.Error.Code != "" && userInfo.Error.Code != "ok" {
		return nil, fmt.Errorf("tiktok user info failed: %s", userInfo.Error.Message)
	}
	return &userInfo, nil
}

func RevokeTiktokAccess(clientKey, clientSecret, accessToken string) error {
	params := url.Values{}
	params.Add("client_key", clientKey)
	params.Add("client_secret", clientSecret)
	params.Add("token", accessToken)

	resp, err := http.Post(tiktokRevokeURL, "application/x-www-form-urlencoded", strings.NewReader(params.Encode()))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to revoke token, status code: %d", resp.StatusCode)
	}
	return nil
}
