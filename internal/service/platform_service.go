package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	cfg "github.com/cmisapp/publishflow/configs"
	"github.com/cmisapp/publishflow/internal/models"
	"github.com/cmisapp/publishflow/internal/repository"
	"github.com/cmisapp/publishflow/pkg/utils"
)

const (
	tiktokAuthURL    = "https://www.tiktok.com/v2/auth/authorize"
	googleAuthURL    = "https://accounts.google.com/o/oauth2/v2/auth"
	instagramAuthURL = "https://www.instagram.com/oauth/authorize"
)

type PlatformService interface {
	GetAuthURL(ctx context.Context, platform, state string) string
	List(ctx context.Context, orgID string) ([]*models.SocialAccount, error)
	Delete(ctx context.Context, orgID string, accountID int64) error
}

type platformService struct {
	cfg cfg.Config
	sa  repository.SocialAccountRepository
}

func NewPlatformService(cfg cfg.Config, sa repository.SocialAccountRepository) PlatformService {
	return &platformService{
		cfg: cfg,
		sa:  sa,
	}
}

func (s *platformService) GetAuthURL(ctx context.Context, platform, state string) string {
	switch platform {
	case "instagram":
		params := url.Values{}
		params.Add("client_id", s.cfg.InstagramClientID)
		params.Add("scope", "instagram_business_basic,instagram_business_content_publish")
		params.Add("response_type", "code")
		params.Add("redirect_uri", s.cfg.InstagramRedirectURI)
		params.Add("state", state)
		return fmt.Sprintf("%s?%s", instagramAuthURL, params.Encode())

	case "tiktok":
		params := url.Values{}
		params.Add("client_key", s.cfg.TiktokClientKey)
		params.Add("scope", "user.info.basic,user.info.profile,video.publish,video.upload")
		params.Add("response_type", "code")
		params.Add("redirect_uri", s.cfg.TiktokRedirectURI)
		params.Add("state", state)
		return fmt.Sprintf("%s?%s", tiktokAuthURL, params.Encode())

	case "youtube":
		params := url.Values{}
		params.Add("client_id", s.cfg.GoogleClientID)
		params.Add("redirect_uri", s.cfg.GoogleRedirectURI)
		params.Add("response_type", "code")
		params.Add("scope", "https://www.googleapis.com/auth/userinfo.profile https://www.googleapis.com/auth/userinfo.email https://www.googleapis.com/auth/youtube.upload")
		params.Add("state", state)
		params.Add("access_type", "offline")
		return fmt.Sprintf("%s?%s", googleAuthURL, params.Encode())

	default:
		return ""
	}
}

func (s *platformService) List(ctx context.Context, orgID string) ([]*models.SocialAccount, error) {
	if orgID == "" {
		err := errors.New("org id is not valid")
		slog.Info(err.Error())
		return nil, err
	}

	accounts, err := s.sa.ListByOrg(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("error getting social accounts")
	}
	return accounts, nil
}

func (s *platformService) Delete(ctx context.Context, orgID string, accountID int64) error {
	if accountID == 0 {
		err := errors.New("account id is not valid")
		slog.Info(err.Error())
		return err
	}

	isValid, err := s.sa.CheckByOrg(ctx, accountID, orgID)
	if err != nil {
		return err
	}
	if !isValid {
		err = errors.New("social account doesn't exist")
		slog.Info(err.Error())
		return err
	}

	accountInfo, err := s.sa.GetByID(ctx, accountID)
	if err != nil || accountInfo == nil {
		return fmt.Errorf("unable to get social account info")
	}

	decryptedAccessToken, err := utils.Decrypt(accountInfo.AccessToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	switch accountInfo.Platform {
	case "tiktok":
		if err := RevokeTiktokAccess(s.cfg.TiktokClientKey, s.cfg.TiktokClientSecret, decryptedAccessToken); err != nil {
			slog.Info(err.Error())
			return fmt.Errorf("unable to revoke access")
		}
	case "youtube":
		if err := RevokeGoogleAccess(decryptedAccessToken); err != nil {
			slog.Info(err.Error())
			return fmt.Errorf("unable to revoke access")
		}
	}

	if err := s.sa.Remove(ctx, accountID); err != nil {
		return fmt.Errorf("error removing account info")
	}
	return nil
}
