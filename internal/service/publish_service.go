package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	config "github.com/socialhub-app/socialhub/configs"
	"github.com/socialhub-app/socialhub/internal/models"
	"github.com/socialhub-app/socialhub/internal/providers"
	"github.com/socialhub-app/socialhub/internal/repository"
	"github.com/socialhub-app/socialhub/internal/transfer"
	"github.com/socialhub-app/socialhub/pkg/utils"
)

const (
	maxConcurrentPublishes = 10
	publishTimeout         = 2 * time.Minute
)

type PublishService interface {
	Dispatch(ctx context.Context, postID int64) (*transfer.DispatchResult, error)
}

type publishService struct {
	cfg      config.Config
	pr       repository.PostRepository
	pa       repository.PostAccountRepository
	ac       repository.SocialAccountRepository
	cs       CredentialService
	ts       TokenService
	registry providers.Registry
}

func NewPublishService(
	cfg config.Config,
	pr repository.PostRepository,
	pa repository.PostAccountRepository,
	ac repository.SocialAccountRepository,
	cs CredentialService,
	ts TokenService,
	registry providers.Registry) PublishService {
	return &publishService{
		cfg:      cfg,
		pr:       pr,
		pa:       pa,
		ac:       ac,
		cs:       cs,
		ts:       ts,
		registry: registry,
	}
}

// Dispatch fans the post out to every account selected for it. Each account
// is attempted independently; one account's failure never blocks another's.
// The post ends up published only when every attempt succeeded.
func (s *publishService) Dispatch(ctx context.Context, postID int64) (*transfer.DispatchResult, error) {
	post, found, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !found {
		err := fmt.Errorf("post %d not found", postID)
		slog.Info(err.Error())
		return nil, err
	}
	if post.ScheduledAt != nil && post.ScheduledAt.After(time.Now()) {
		// Delivered ahead of schedule. Publish nothing yet.
		slog.Info("post not due yet", "post_id", postID, "scheduled_at", post.ScheduledAt)
		return &transfer.DispatchResult{PostID: postID, Status: models.PostStatusPending}, nil
	}

	entries, err := s.pa.ListByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		err := errors.New("post has no target accounts")
		slog.Info(err.Error())
		return nil, err
	}

	results := make([]transfer.AccountResult, len(entries))
	sem := make(chan struct{}, maxConcurrentPublishes)
	var wg sync.WaitGroup

	for i := range entries {
		// A redelivered task must never publish to an account twice; there
		// is no way to unpublish. Entries that already went out keep their
		// recorded outcome and only the rest are attempted.
		if entries[i].Status == models.PostStatusPublished {
			results[i] = transfer.AccountResult{
				AccountID:      entries[i].AccountID,
				Status:         models.PostStatusPublished,
				ExternalPostID: entries[i].ExternalPostID,
			}
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = s.publishOne(post, &entries[i])
		}(i)
	}
	wg.Wait()

	status := models.PostStatusPublished
	for _, r := range results {
		if r.Status != models.PostStatusPublished {
			status = models.PostStatusFailed
			break
		}
	}

	if err := s.pr.UpdateStatus(ctx, postID, status); err != nil {
		return nil, err
	}

	return &transfer.DispatchResult{
		PostID:   postID,
		Status:   status,
		Accounts: results,
	}, nil
}

// publishOne runs on a detached context so a caller abort mid-flight still
// lets the attempt finish and its outcome get recorded.
func (s *publishService) publishOne(post *models.Post, entry *models.PostAccount) transfer.AccountResult {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	result := transfer.AccountResult{AccountID: entry.AccountID}

	acc, found, err := s.ac.GetByID(ctx, entry.AccountID)
	if err != nil {
		return s.fail(ctx, entry, result, err)
	}
	if !found || !acc.IsActive {
		return s.fail(ctx, entry, result, errors.New("account is not connected"))
	}
	result.Provider = acc.Provider

	adapter, ok := s.registry[acc.Provider]
	if !ok {
		return s.fail(ctx, entry, result, fmt.Errorf("unknown provider: %s", acc.Provider))
	}

	token, err := s.ts.EnsureFreshToken(ctx, acc)
	if err != nil {
		return s.fail(ctx, entry, result, err)
	}

	creds, err := s.cs.Resolve(ctx, acc.UserID, acc.Provider)
	if err != nil {
		return s.fail(ctx, entry, result, err)
	}

	pacc, err := s.providerAccount(acc, token)
	if err != nil {
		return s.fail(ctx, entry, result, err)
	}

	externalID, err := adapter.Publish(ctx, creds, pacc, post.Content, post.ImageURL)
	if err != nil {
		return s.fail(ctx, entry, result, err)
	}

	now := time.Now()
	result.Status = models.PostStatusPublished
	result.ExternalPostID = externalID
	if err := s.pa.SetOutcome(ctx, entry.ID, result.Status, externalID, "", &now); err != nil {
		slog.Info(err.Error())
	}
	return result
}

func (s *publishService) fail(ctx context.Context, entry *models.PostAccount, result transfer.AccountResult, err error) transfer.AccountResult {
	slog.Info(err.Error())
	result.Status = models.PostStatusFailed
	result.Error = err.Error()
	if dbErr := s.pa.SetOutcome(ctx, entry.ID, result.Status, "", err.Error(), nil); dbErr != nil {
		slog.Info(dbErr.Error())
	}
	return result
}

// providerAccount maps the stored row to the adapter's view of it, with the
// secret material decrypted.
func (s *publishService) providerAccount(acc *models.SocialAccount, token string) (providers.Account, error) {
	pacc := providers.Account{
		ID:          acc.ID,
		UserID:      acc.UserID,
		Provider:    acc.Provider,
		ProviderID:  acc.ProviderID,
		Token:       token,
		PageID:      acc.PageID,
		InstanceURL: acc.InstanceURL,
	}

	if acc.PageToken != "" {
		pageToken, err := utils.Decrypt(acc.PageToken, s.cfg.EncryptionKey)
		if err != nil {
			slog.Info(err.Error())
			return providers.Account{}, err
		}
		pacc.PageToken = pageToken
	}

	// Twitter keeps its OAuth 1.0a token secret in the refresh token slot.
	if acc.Provider == providers.ProviderTwitter && acc.RefreshToken != "" {
		secret, err := utils.Decrypt(acc.RefreshToken, s.cfg.EncryptionKey)
		if err != nil {
			slog.Info(err.Error())
			return providers.Account{}, err
		}
		pacc.TokenSecret = secret
	}

	return pacc, nil
}
