package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/socialhub-app/socialhub/internal/models"
	"github.com/socialhub-app/socialhub/internal/providers"
	"github.com/socialhub-app/socialhub/internal/repository"
	"github.com/socialhub-app/socialhub/internal/service"
)

type TokenRefreshJob struct {
	sr repository.SocialAccountRepository
	ts service.TokenService
}

func NewTokenRefreshJob(sr repository.SocialAccountRepository, ts service.TokenService) *TokenRefreshJob {
	return &TokenRefreshJob{
		sr: sr,
		ts: ts,
	}
}

// RefreshTokens walks every refreshable provider and brings its stale
// accounts up to date ahead of their next use.
func (c *TokenRefreshJob) RefreshTokens() {
	ctx := context.Background()

	var wg sync.WaitGroup

	concurrencyLimit := 10
	semaphore := make(chan struct{}, concurrencyLimit)

	for _, provider := range []string{
		providers.ProviderFacebook,
		providers.ProviderInstagram,
		providers.ProviderLinkedIn,
		providers.ProviderGoogle,
	} {
		policy := providers.PolicyFor(provider)
		if !policy.Refreshable {
			continue
		}

		cutoff := time.Now().Add(-policy.MaxAge)
		accounts, err := c.sr.ListUpdatedBefore(ctx, provider, cutoff)
		if err != nil {
			slog.Info(err.Error())
			continue
		}

		for i := range accounts {
			wg.Add(1)
			semaphore <- struct{}{}

			go func(acc *models.SocialAccount) {
				defer wg.Done()
				defer func() { <-semaphore }()

				if _, err := c.ts.EnsureFreshToken(ctx, acc); err != nil {
					slog.Info("unable to refresh token", "provider", acc.Provider, "account_id", acc.ID)
				}
			}(&accounts[i])
		}
	}

	wg.Wait()
}
