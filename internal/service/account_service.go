package service

import (
	"context"
	"errors"
	"log/slog"

	config "github.com/socialhub-app/socialhub/configs"
	"github.com/socialhub-app/socialhub/internal/models"
	"github.com/socialhub-app/socialhub/internal/providers"
	"github.com/socialhub-app/socialhub/internal/repository"
	"github.com/socialhub-app/socialhub/internal/transfer"
	"github.com/socialhub-app/socialhub/pkg/utils"
)

type AccountService interface {
	UpsertAccount(ctx context.Context, userID int64, provider string, res *transfer.OAuthResult) (int64, error)
	List(ctx context.Context, userID int64) ([]models.SocialAccount, error)
	Disconnect(ctx context.Context, userID, accountID int64) error
}

type accountService struct {
	cfg      config.Config
	ac       repository.SocialAccountRepository
	registry providers.Registry
}

func NewAccountService(cfg config.Config, ac repository.SocialAccountRepository, registry providers.Registry) AccountService {
	return &accountService{
		cfg:      cfg,
		ac:       ac,
		registry: registry,
	}
}

// UpsertAccount reconciles a completed OAuth handshake into a social account
// row. Linking the same provider identity twice updates the existing row
// instead of creating another. Facebook additionally resolves the user's
// managed page once, at link time.
func (s *accountService) UpsertAccount(ctx context.Context, userID int64, provider string, res *transfer.OAuthResult) (int64, error) {
	if res == nil {
		err := errors.New("oauth result is nil")
		slog.Info(err.Error())
		return 0, err
	}
	if res.ProviderID == "" || res.AccessToken == "" {
		err := errors.New("oauth result is missing identity or token")
		slog.Info(err.Error())
		return 0, err
	}

	acc := &models.SocialAccount{
		UserID:         userID,
		Provider:       provider,
		ProviderID:     res.ProviderID,
		DisplayName:    res.DisplayName,
		Username:       res.Username,
		ProfilePicture: res.Avatar,
		InstanceURL:    res.InstanceURL,
	}

	var err error
	acc.Token, err = utils.Encrypt(res.AccessToken, s.cfg.EncryptionKey)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	if res.RefreshToken != "" {
		acc.RefreshToken, err = utils.Encrypt(res.RefreshToken, s.cfg.EncryptionKey)
		if err != nil {
			slog.Info(err.Error())
			return 0, err
		}
	}

	if provider == providers.ProviderFacebook {
		if fb, ok := s.registry[provider].(*providers.FacebookAdapter); ok {
			pageID, pageToken, err := fb.ManagedPage(ctx, res.AccessToken)
			if err != nil {
				slog.Info(err.Error())
			} else {
				acc.PageID = pageID
				acc.PageToken, err = utils.Encrypt(pageToken, s.cfg.EncryptionKey)
				if err != nil {
					slog.Info(err.Error())
					return 0, err
				}
			}
		}
	}

	return s.ac.Upsert(ctx, acc)
}

func (s *accountService) List(ctx context.Context, userID int64) ([]models.SocialAccount, error) {
	accounts, err := s.ac.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	// Stored tokens never leave the service layer.
	for i := range accounts {
		accounts[i].Token = ""
		accounts[i].RefreshToken = ""
		accounts[i].PageToken = ""
	}
	return accounts, nil
}

func (s *accountService) Disconnect(ctx context.Context, userID, accountID int64) error {
	owned, err := s.ac.CheckByUserID(ctx, accountID, userID)
	if err != nil {
		return err
	}
	if !owned {
		err := errors.New("account not found")
		slog.Info(err.Error())
		return err
	}
	return s.ac.Deactivate(ctx, accountID, userID)
}
