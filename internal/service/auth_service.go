package service

import (
	"context"
	"errors"
	"log/slog"

	cfg "github.com/cmisapp/publishflow/configs"
	"github.com/cmisapp/publishflow/internal/models"
	"github.com/cmisapp/publishflow/internal/repository"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

type AuthService interface {
	LoginCallback(ctx context.Context, code string) (userID int64, orgID string, err error)
}

type authService struct {
	cfg cfg.Config
	u   repository.UserRepository
}

func NewAuthService(cfg cfg.Config, u repository.UserRepository) AuthService {
	return &authService{
		cfg: cfg,
		u:   u,
	}
}

// LoginCallback exchanges the Google OAuth code and resolves the user.
// First-time sign-ins create the user under a fresh organization.
func (s *authService) LoginCallback(ctx context.Context, code string) (int64, string, error) {
	if code == "" {
		err := errors.New("code is empty")
		slog.Info(err.Error())
		return 0, "", err
	}

	oauth2Config := &oauth2.Config{
		ClientID:     s.cfg.GoogleClientID,
		ClientSecret: s.cfg.GoogleClientSecret,
		RedirectURL:  s.cfg.GoogleRedirectURI,
		Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
		Endpoint:     google.Endpoint,
	}

	if oauth2Config.ClientID == "" || oauth2Config.ClientSecret == "" || oauth2Config.RedirectURL == "" {
		err := errors.New("oauth2 configuration is incomplete")
		slog.Info(err.Error())
		return 0, "", err
	}

	token, err := oauth2Config.Exchange(ctx, code)
	if err != nil {
		slog.Info(err.Error())
		return 0, "", err
	}

	userInfo, err := GetGoogleUserInfo(oauth2Config.Client(ctx, token))
	if err != nil {
		return 0, "", err
	}

	user, isExist, err := s.u.GetByEmail(ctx, userInfo.Email)
	if err != nil {
		return 0, "", err
	}

	if isExist && user.GoogleID != "" {
		return user.ID, user.OrgID, nil
	}

	orgID, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return 0, "", err
	}

	userID, err := s.u.Create(ctx, &models.User{
		OrgID:          orgID,
		GoogleID:       userInfo.ID,
		Email:          userInfo.Email,
		Name:           userInfo.Name,
		ProfilePicture: userInfo.Picture,
	})
	if err != nil {
		slog.Info(err.Error())
		return 0, "", err
	}

	return userID, orgID, nil
}
