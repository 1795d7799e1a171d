package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	config "github.com/socialhub-app/socialhub/configs"
	"github.com/socialhub-app/socialhub/internal/models"
	"github.com/socialhub-app/socialhub/internal/providers"
	"github.com/socialhub-app/socialhub/internal/repository"
	"github.com/socialhub-app/socialhub/pkg/utils"
)

// Accounts whose refreshes keep failing stop being auto-refreshed until a
// relink or a successful verification resets the counter.
const maxRefreshErrors = 5

type TokenService interface {
	EnsureFreshToken(ctx context.Context, acc *models.SocialAccount) (string, error)
}

type tokenService struct {
	cfg      config.Config
	ac       repository.SocialAccountRepository
	cs       CredentialService
	registry providers.Registry

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewTokenService(
	cfg config.Config,
	ac repository.SocialAccountRepository,
	cs CredentialService,
	registry providers.Registry) TokenService {
	return &tokenService{
		cfg:      cfg,
		ac:       ac,
		cs:       cs,
		registry: registry,
		locks:    make(map[string]*sync.Mutex),
	}
}

func (s *tokenService) lockFor(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.locks[key]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.locks[key] = l
	return l
}

// EnsureFreshToken returns a usable access token for the account, refreshing
// it first when it has gone stale. A failed refresh falls back to the stored
// token so the caller can still attempt the request.
func (s *tokenService) EnsureFreshToken(ctx context.Context, acc *models.SocialAccount) (string, error) {
	if acc.Token == "" {
		return "", providers.ErrNoCredentials
	}

	token, err := utils.Decrypt(acc.Token, s.cfg.EncryptionKey)
	if err != nil {
		slog.Info(err.Error())
		return "", providers.ErrNoCredentials
	}

	policy := providers.PolicyFor(acc.Provider)
	if !policy.Stale(acc.UpdatedAt, time.Now()) {
		return token, nil
	}
	if !policy.Refreshable {
		// Token may be long-lived or the provider has no refresh grant.
		// Use what we have.
		return token, nil
	}

	lock := s.lockFor(fmt.Sprintf("%d:%s", acc.UserID, acc.Provider))
	lock.Lock()
	defer lock.Unlock()

	// Another caller may have refreshed while we waited on the lock.
	current, found, err := s.ac.GetByID(ctx, acc.ID)
	if err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("account %d no longer exists", acc.ID)
	}
	if !policy.Stale(current.UpdatedAt, time.Now()) {
		fresh, err := utils.Decrypt(current.Token, s.cfg.EncryptionKey)
		if err != nil {
			slog.Info(err.Error())
			return token, nil
		}
		return fresh, nil
	}

	if current.ErrorCount >= maxRefreshErrors {
		slog.Info(fmt.Sprintf("account %d: refresh suspended after %d failures", current.ID, current.ErrorCount))
		return token, nil
	}

	return s.refresh(ctx, current, token)
}

func (s *tokenService) refresh(ctx context.Context, acc *models.SocialAccount, priorToken string) (string, error) {
	adapter, ok := s.registry[acc.Provider]
	if !ok {
		return priorToken, nil
	}

	creds, err := s.cs.Resolve(ctx, acc.UserID, acc.Provider)
	if err != nil {
		slog.Info(err.Error())
		return priorToken, nil
	}

	refreshToken := priorToken
	if acc.RefreshToken != "" {
		rt, err := utils.Decrypt(acc.RefreshToken, s.cfg.EncryptionKey)
		if err == nil {
			refreshToken = rt
		}
	}

	pair, err := adapter.Refresh(ctx, creds, refreshToken)
	if err != nil {
		slog.Info((&providers.RefreshError{Provider: acc.Provider, Err: err}).Error())
		if incErr := s.ac.IncrementErrorCount(ctx, acc.ID); incErr != nil {
			slog.Info(incErr.Error())
		}
		// Stale-but-present beats nothing. The publish attempt decides.
		return priorToken, nil
	}

	newToken, err := utils.Encrypt(pair.AccessToken, s.cfg.EncryptionKey)
	if err != nil {
		slog.Info(err.Error())
		return priorToken, nil
	}

	var newRefresh string
	if pair.RefreshToken != "" {
		newRefresh, err = utils.Encrypt(pair.RefreshToken, s.cfg.EncryptionKey)
		if err != nil {
			slog.Info(err.Error())
			return priorToken, nil
		}
	}

	updated, err := s.ac.SetToken(ctx, acc.ID, acc.Token, newToken, newRefresh)
	if err != nil {
		return priorToken, nil
	}
	if !updated {
		// Lost the race to a concurrent writer; their token wins.
		current, found, err := s.ac.GetByID(ctx, acc.ID)
		if err == nil && found {
			if fresh, err := utils.Decrypt(current.Token, s.cfg.EncryptionKey); err == nil {
				return fresh, nil
			}
		}
	}
	return pair.AccessToken, nil
}
