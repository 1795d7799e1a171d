package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	config "github.com/socialhub-app/socialhub/configs"
	"github.com/socialhub-app/socialhub/internal/models"
	"github.com/socialhub-app/socialhub/internal/providers"
	"github.com/socialhub-app/socialhub/internal/repository"
	"github.com/socialhub-app/socialhub/internal/transfer"
	"github.com/socialhub-app/socialhub/pkg/utils"
)

type CredentialService interface {
	Resolve(ctx context.Context, userID int64, provider string) (providers.Credentials, error)
	SaveConfig(ctx context.Context, userID int64, cc *transfer.CredentialConfig) error
	ListConfigs(ctx context.Context, userID int64) ([]models.UserSocialConfig, error)
	Verify(ctx context.Context, userID int64, provider string) (*providers.Profile, error)
	DeleteConfig(ctx context.Context, userID int64, provider string) error
}

type credentialService struct {
	cfg      config.Config
	sc       repository.SocialConfigRepository
	ac       repository.SocialAccountRepository
	registry providers.Registry
}

func NewCredentialService(
	cfg config.Config,
	sc repository.SocialConfigRepository,
	ac repository.SocialAccountRepository,
	registry providers.Registry) CredentialService {
	return &credentialService{
		cfg:      cfg,
		sc:       sc,
		ac:       ac,
		registry: registry,
	}
}

// Resolve picks the credential material for API calls against a provider.
// Users without a config row, or with uses_central_app set, get the
// application's own credentials; users who brought their own app get their
// stored (decrypted) material.
func (s *credentialService) Resolve(ctx context.Context, userID int64, provider string) (providers.Credentials, error) {
	cfg, found, err := s.sc.GetByUserAndProvider(ctx, userID, provider)
	if err != nil {
		return providers.Credentials{}, err
	}

	if !found || cfg.UsesCentralApp {
		return s.centralCredentials(provider)
	}

	creds := providers.Credentials{Source: providers.SourceUser}

	creds.ClientID = cfg.ClientID
	if cfg.ClientSecret != "" {
		secret, err := utils.Decrypt(cfg.ClientSecret, s.cfg.EncryptionKey)
		if err != nil {
			slog.Info(err.Error())
			return providers.Credentials{}, providers.ErrNoCredentials
		}
		creds.ClientSecret = secret
	}
	if cfg.APIKey != "" {
		key, err := utils.Decrypt(cfg.APIKey, s.cfg.EncryptionKey)
		if err != nil {
			slog.Info(err.Error())
			return providers.Credentials{}, providers.ErrNoCredentials
		}
		creds.APIKey = key
	}
	if cfg.BearerToken != "" {
		token, err := utils.Decrypt(cfg.BearerToken, s.cfg.EncryptionKey)
		if err != nil {
			slog.Info(err.Error())
			return providers.Credentials{}, providers.ErrNoCredentials
		}
		creds.BearerToken = token
	}

	if creds.Empty() {
		return providers.Credentials{}, providers.ErrNoCredentials
	}
	return creds, nil
}

func (s *credentialService) centralCredentials(provider string) (providers.Credentials, error) {
	creds := providers.Credentials{Source: providers.SourceCentral}

	switch provider {
	case providers.ProviderTwitter:
		creds.APIKey = s.cfg.TwitterAPIKey
		creds.ClientSecret = s.cfg.TwitterAPISecret
		creds.BearerToken = s.cfg.TwitterBearerToken
	case providers.ProviderFacebook:
		creds.ClientID = s.cfg.FacebookClientID
		creds.ClientSecret = s.cfg.FacebookClientSecret
	case providers.ProviderInstagram:
		creds.ClientID = s.cfg.InstagramClientID
		creds.ClientSecret = s.cfg.InstagramClientSecret
	case providers.ProviderLinkedIn:
		creds.ClientID = s.cfg.LinkedInClientID
		creds.ClientSecret = s.cfg.LinkedInClientSecret
	case providers.ProviderMastodon:
		creds.ClientID = s.cfg.MastodonClientID
		creds.ClientSecret = s.cfg.MastodonClientSecret
	case providers.ProviderGoogle:
		creds.ClientID = s.cfg.GoogleClientID
		creds.ClientSecret = s.cfg.GoogleClientSecret
	default:
		return providers.Credentials{}, fmt.Errorf("unknown provider: %s", provider)
	}

	if creds.Empty() {
		return providers.Credentials{}, providers.ErrNoCredentials
	}
	return creds, nil
}

// SaveConfig validates and stores a user's own provider app credentials.
// Secrets are encrypted before they touch the database.
func (s *credentialService) SaveConfig(ctx context.Context, userID int64, cc *transfer.CredentialConfig) error {
	if cc == nil {
		err := errors.New("credential config is nil")
		slog.Info(err.Error())
		return err
	}

	if _, ok := s.registry[cc.Provider]; !ok {
		err := fmt.Errorf("unknown provider: %s", cc.Provider)
		slog.Info(err.Error())
		return err
	}

	if !cc.UsesCentralApp {
		if err := validateCredentialFields(cc); err != nil {
			slog.Info(err.Error())
			return err
		}
	}

	cfg := &models.UserSocialConfig{
		UserID:         userID,
		Provider:       cc.Provider,
		UsesCentralApp: cc.UsesCentralApp,
		ClientID:       cc.ClientID,
	}

	var err error
	if cc.ClientSecret != "" {
		cfg.ClientSecret, err = utils.Encrypt(cc.ClientSecret, s.cfg.EncryptionKey)
		if err != nil {
			slog.Info(err.Error())
			return err
		}
	}
	if cc.APIKey != "" {
		cfg.APIKey, err = utils.Encrypt(cc.APIKey, s.cfg.EncryptionKey)
		if err != nil {
			slog.Info(err.Error())
			return err
		}
	}
	if cc.BearerToken != "" {
		cfg.BearerToken, err = utils.Encrypt(cc.BearerToken, s.cfg.EncryptionKey)
		if err != nil {
			slog.Info(err.Error())
			return err
		}
	}

	_, err = s.sc.Upsert(ctx, cfg)
	return err
}

func validateCredentialFields(cc *transfer.CredentialConfig) error {
	switch cc.Provider {
	case providers.ProviderTwitter:
		if cc.BearerToken == "" && (cc.APIKey == "" || cc.ClientSecret == "") {
			return errors.New("twitter requires a bearer token or an api key and secret")
		}
	case providers.ProviderMastodon:
		if cc.BearerToken == "" {
			return errors.New("mastodon requires an access token")
		}
	default:
		if cc.ClientID == "" || cc.ClientSecret == "" {
			return fmt.Errorf("%s requires client id and client secret", cc.Provider)
		}
	}
	return nil
}

func (s *credentialService) ListConfigs(ctx context.Context, userID int64) ([]models.UserSocialConfig, error) {
	return s.sc.ListByUserID(ctx, userID)
}

// Verify checks the stored credentials against the provider's identity
// endpoint and records the outcome on the config row.
func (s *credentialService) Verify(ctx context.Context, userID int64, provider string) (*providers.Profile, error) {
	adapter, ok := s.registry[provider]
	if !ok {
		err := fmt.Errorf("unknown provider: %s", provider)
		slog.Info(err.Error())
		return nil, err
	}

	cfg, found, err := s.sc.GetByUserAndProvider(ctx, userID, provider)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, providers.ErrNoCredentials
	}

	creds, err := s.Resolve(ctx, userID, provider)
	if err != nil {
		return nil, err
	}

	result := adapter.Verify(ctx, creds)
	if err := s.sc.SetVerification(ctx, cfg.ID, result.Valid, time.Now()); err != nil {
		return nil, err
	}
	if !result.Valid {
		if result.Err != "" {
			err := errors.New(result.Err)
			slog.Info(err.Error())
			return nil, err
		}
		return nil, errors.New("credential verification failed")
	}
	// Proven-working credentials also lift any refresh suspension on the
	// provider's linked accounts.
	if err := s.ac.ResetErrorCountByProvider(ctx, userID, provider); err != nil {
		slog.Info(err.Error())
	}
	return result.Profile, nil
}

// DeleteConfig removes the user's app config and deactivates the provider's
// linked accounts, since their tokens were minted against that app.
func (s *credentialService) DeleteConfig(ctx context.Context, userID int64, provider string) error {
	if err := s.sc.Deactivate(ctx, userID, provider); err != nil {
		return err
	}
	return s.ac.DeactivateByProvider(ctx, userID, provider)
}
