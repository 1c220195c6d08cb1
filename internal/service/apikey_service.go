package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmisapp/publishflow/internal/models"
	"github.com/cmisapp/publishflow/internal/repository"
	"github.com/cmisapp/publishflow/pkg/utils"
)

type ApiKeyService interface {
	Create(ctx context.Context, orgID string) error
	List(ctx context.Context, orgID string) ([]*models.ApiKey, error)
	GetOrgID(ctx context.Context, apiKey string) (string, error)
	Remove(ctx context.Context, orgID string, keyID int64) error
}

type apiKeyService struct {
	k repository.ApiKeyRepository
}

func NewApiKeyService(k repository.ApiKeyRepository) ApiKeyService {
	return &apiKeyService{
		k: k,
	}
}

func (s *apiKeyService) Create(ctx context.Context, orgID string) error {
	keys, err := s.k.ListByOrg(ctx, orgID)
	if err != nil {
		return err
	}

	if len(keys) > 4 {
		err = errors.New("only 5 API keys can be created")
		slog.Info(err.Error())
		return err
	}

	key, err := utils.GenerateRandomKey(16)
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("error generating API key")
	}

	apiKey := &models.ApiKey{
		OrgID:  orgID,
		ApiKey: key,
	}

	if _, err := s.k.Create(ctx, apiKey); err != nil {
		return fmt.Errorf("error saving API key")
	}
	return nil
}

func (s *apiKeyService) GetOrgID(ctx context.Context, apiKey string) (string, error) {
	orgID, isExist, err := s.k.GetByKey(ctx, apiKey)
	if err != nil {
		return "", err
	}

	if !isExist {
		return "", errors.New("key doesn't exist")
	}
	return orgID, nil
}

func (s *apiKeyService) List(ctx context.Context, orgID string) ([]*models.ApiKey, error) {
	apiKeys, err := s.k.ListByOrg(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("error getting API keys")
	}
	return apiKeys, nil
}

func (s *apiKeyService) Remove(ctx context.Context, orgID string, keyID int64) error {
	if keyID == 0 {
		err := errors.New("key id is not valid")
		slog.Info(err.Error())
		return err
	}

	isValid, err := s.k.CheckByOrg(ctx, keyID, orgID)
	if err != nil {
		return err
	}

	if !isValid {
		err = errors.New("key doesn't exist")
		slog.Info(err.Error())
		return err
	}

	return s.k.Remove(ctx, keyID)
}
