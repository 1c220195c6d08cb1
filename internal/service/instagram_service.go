package service

import (
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
	instagramGraphURL = "https://graph.instagram.com"
	instagramTokenURL = "https://api.instagram.com/oauth/access_token"
)

var instagramEndpoint = oauth2.Endpoint{
	AuthURL:  instagramAuthURL,
	TokenURL: instagramTokenURL,
}

type InstagramService interface {
	Callback(ctx context.Context, code, orgID string) error
	RefreshToken(ctx context.Context, accountID int64, refreshToken string) error
	Publish(ctx context.Context, post *models.ScheduledPost, acc *models.SocialAccount) error
}

type instagramService struct {
	cfg cfg.Config
	sa  repository.SocialAccountRepository
	pm  repository.PostMediaRepository
	ma  repository.MediaAssetRepository
}

func NewInstagramService(
	cfg cfg.Config,
	sa repository.SocialAccountRepository,
	pm repository.PostMediaRepository,
	ma repository.MediaAssetRepository) InstagramService {
	return &instagramService{
		cfg: cfg,
		sa:  sa,
		pm:  pm,
		ma:  ma,
	}
}

func (s *instagramService) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.cfg.InstagramClientID,
		ClientSecret: s.cfg.InstagramClientSecret,
		RedirectURL:  s.cfg.InstagramRedirectURI,
		Scopes:       []string{"instagram_business_basic", "instagram_business_content_publish"},
		Endpoint:     instagramEndpoint,
	}
}

func (s *instagramService) Callback(ctx context.Context, code, orgID string) error {
	if code == "" {
		err := errors.New("code is empty")
		slog.Info(err.Error())
		return err
	}

	token, err := s.oauthConfig().Exchange(ctx, code)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	longLived, err := s.exchangeLongLivedToken(token.AccessToken)
	if err != nil {
		return err
	}

	userInfo, err := instagramUserInfo(longLived.AccessToken)
	if err != nil {
		return err
	}

	encryptedAccessToken, err := utils.Encrypt([]byte(longLived.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	accountInfo := &models.SocialAccount{
		OrgID:           orgID,
		Platform:        "instagram",
		AccountID:       userInfo.UserID,
		AccountName:     userInfo.Name,
		AccountUsername: userInfo.Username,
		ProfilePicture:  userInfo.ProfilePicture,
		AccessToken:     encryptedAccessToken,
		RefreshToken:    encryptedAccessToken,
		TokenExpiresAt:  GetExpiresAt(longLived.ExpiresIn),
	}

	if _, err := s.sa.Create(ctx, accountInfo); err != nil {
		return err
	}
	return nil
}

func (s *instagramService) exchangeLongLivedToken(shortLived string) (*transfer.InstagramTokenResponse, error) {
	params := url.Values{}
	params.Add("grant_type", "ig_exchange_token")
	params.Add("client_secret", s.cfg.InstagramClientSecret)
	params.Add("access_token", shortLived)

	resp, err := http.Get(fmt.Sprintf("%s/access_token?%s", instagramGraphURL, params.Encode()))
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected response status: %d", resp.StatusCode)
	}

	var token transfer.InstagramTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return &token, nil
}

// RefreshToken extends a long-lived Instagram token before it expires.
func (s *instagramService) RefreshToken(ctx context.Context, accountID int64, refreshToken string) error {
	decrypted, err := utils.Decrypt(refreshToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	params := url.Values{}
	params.Add("grant_type", "ig_refresh_token")
	params.Add("access_token", decrypted)

	resp, err := http.Get(fmt.Sprintf("%s/refresh_access_token?%s", instagramGraphURL, params.Encode()))
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected response status: %d", resp.StatusCode)
	}

	var token transfer.InstagramTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		slog.Info(err.Error())
		return err
	}

	encrypted, err := utils.Encrypt([]byte(token.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	return s.sa.SetToken(ctx, accountID, &models.SocialAccount{
		AccessToken:    encrypted,
		TokenExpiresAt: GetExpiresAt(token.ExpiresIn),
	})
}

// Publish pushes a post through the Graph API container flow: create a
// media container, then publish it.
func (s *instagramService) Publish(ctx context.Context, post *models.ScheduledPost, acc *models.SocialAccount) error {
	accessToken, err := utils.Decrypt(acc.AccessToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	media, err := s.pm.ListByPostID(ctx, post.PostID)
	if err != nil {
		return err
	}
	if len(media) == 0 {
		return errors.New("instagram posts require media")
	}

	containerIDs := make([]string, 0, len(media))
	for _, m := range media {
		asset, err := s.ma.GetByID(ctx, m.AssetID)
		if err != nil || asset == nil {
			return fmt.Errorf("error loading media asset %d", m.AssetID)
		}

		containerID, err := s.createContainer(ctx, acc.AccountID, accessToken, post.Content, asset)
		if err != nil {
			return err
		}
		containerIDs = append(containerIDs, containerID)
	}

	// Single-media posts publish the container directly; carousels need
	// a wrapping container first.
	publishID := containerIDs[0]
	if len(containerIDs) > 1 {
		publishID, err = s.createCarousel(ctx, acc.AccountID, accessToken, post.Content, containerIDs)
		if err != nil {
			return err
		}
	}

	return s.publishContainer(ctx, acc.AccountID, accessToken, publishID)
}

func (s *instagramService) createContainer(ctx context.Context, igUserID, accessToken, caption string, asset *models.MediaAsset) (string, error) {
	params := url.Values{}
	params.Add("access_token", accessToken)
	params.Add("caption", caption)
	if strings.HasPrefix(asset.FileType, "video") {
		params.Add("media_type", "REELS")
		params.Add("video_url", asset.FileURL)
	} else {
		params.Add("image_url", asset.FileURL)
	}

	return s.graphPost(ctx, fmt.Sprintf("%s/v21.0/%s/media", instagramGraphURL, igUserID), params)
}

func (s *instagramService) createCarousel(ctx context.Context, igUserID, accessToken, caption string, children []string) (string, error) {
	params := url.Values{}
	params.Add("access_token", accessToken)
	params.Add("caption", caption)
	params.Add("media_type", "CAROUSEL")
	params.Add("children", strings.Join(children, ","))

	return s.graphPost(ctx, fmt.Sprintf("%s/v21.0/%s/media", instagramGraphURL, igUserID), params)
}

func (s *instagramService) publishContainer(ctx context.Context, igUserID, accessToken, containerID string) error {
	params := url.Values{}
	params.Add("access_token", accessToken)
	params.Add("creation_id", containerID)

	_, err := s.graphPost(ctx, fmt.Sprintf("%s/v21.0/%s/media_publish", instagramGraphURL, igUserID), params)
	return err
}

func (s *instagramService) graphPost(ctx context.Context, endpoint string, params url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("instagram api returned status %d", resp.StatusCode)
	}

	var container transfer.InstagramContainerResponse
	if err := json.NewDecoder(resp.Body).Decode(&container); err != nil {
		slog.Info(err.Error())
		return "", err
	}
	return container.ID, nil
}

func instagramUserInfo(accessToken string) (*transfer.InstagramUserInfo, error) {
	params := url.Values{}
	params.Add("fields", "id,username,name,profile_picture_url")
	params.Add("access_token", accessToken)

	resp, err := http.Get(fmt.Sprintf("%s/me?%s", instagramGraphURL, params.Encode()))
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected response status: %d", resp.StatusCode)
	}

	var userInfo transfer.InstagramUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return &userInfo, nil
}
