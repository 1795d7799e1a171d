package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/socialhub-app/socialhub/internal/models"
	"github.com/socialhub-app/socialhub/internal/providers"
	"github.com/socialhub-app/socialhub/pkg/utils"
)

type fakeConfigRepo struct {
	mu      sync.Mutex
	nextID  int64
	configs map[string]*models.UserSocialConfig
}

func newFakeConfigRepo() *fakeConfigRepo {
	return &fakeConfigRepo{configs: make(map[string]*models.UserSocialConfig)}
}

func configKey(userID int64, provider string) string {
	return fmt.Sprintf("%d:%s", userID, provider)
}

func (f *fakeConfigRepo) GetByUserAndProvider(ctx context.Context, userID int64, provider string) (*models.UserSocialConfig, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cfg, ok := f.configs[configKey(userID, provider)]
	if !ok || !cfg.IsActive {
		return nil, false, nil
	}
	c := *cfg
	return &c, true, nil
}

func (f *fakeConfigRepo) ListByUserID(ctx context.Context, userID int64) ([]models.UserSocialConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.UserSocialConfig
	for _, cfg := range f.configs {
		if cfg.UserID == userID && cfg.IsActive {
			out = append(out, *cfg)
		}
	}
	return out, nil
}

func (f *fakeConfigRepo) Upsert(ctx context.Context, cfg *models.UserSocialConfig) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := configKey(cfg.UserID, cfg.Provider)
	if existing, ok := f.configs[key]; ok {
		c := *cfg
		c.ID = existing.ID
		c.IsActive = true
		f.configs[key] = &c
		return c.ID, nil
	}
	f.nextID++
	c := *cfg
	c.ID = f.nextID
	c.IsActive = true
	f.configs[key] = &c
	return c.ID, nil
}

func (f *fakeConfigRepo) SetVerification(ctx context.Context, id int64, verified bool, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, cfg := range f.configs {
		if cfg.ID == id {
			cfg.IsVerified = verified
			if verified {
				cfg.LastVerifiedAt = &at
				cfg.ErrorCount = 0
			} else {
				cfg.ErrorCount++
			}
		}
	}
	return nil
}

func (f *fakeConfigRepo) Deactivate(ctx context.Context, userID int64, provider string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cfg, ok := f.configs[configKey(userID, provider)]; ok {
		cfg.IsActive = false
	}
	return nil
}

type fakeAccountRepo struct {
	mu       sync.Mutex
	nextID   int64
	accounts map[int64]*models.SocialAccount
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[int64]*models.SocialAccount)}
}

func (f *fakeAccountRepo) add(acc models.SocialAccount) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	acc.ID = f.nextID
	f.accounts[acc.ID] = &acc
	return acc.ID
}

func (f *fakeAccountRepo) GetByID(ctx context.Context, id int64) (*models.SocialAccount, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.accounts[id]
	if !ok {
		return nil, false, nil
	}
	a := *acc
	return &a, true, nil
}

func (f *fakeAccountRepo) ListByUserID(ctx context.Context, userID int64) ([]models.SocialAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.SocialAccount
	for _, acc := range f.accounts {
		if acc.UserID == userID && acc.IsActive {
			out = append(out, *acc)
		}
	}
	return out, nil
}

func (f *fakeAccountRepo) ListUpdatedBefore(ctx context.Context, provider string, cutoff time.Time) ([]models.SocialAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.SocialAccount
	for _, acc := range f.accounts {
		if acc.Provider == provider && acc.IsActive && acc.UpdatedAt.Before(cutoff) {
			out = append(out, *acc)
		}
	}
	return out, nil
}

func (f *fakeAccountRepo) Upsert(ctx context.Context, acc *models.SocialAccount) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.accounts {
		if existing.Provider == acc.Provider && existing.ProviderID == acc.ProviderID {
			id := existing.ID
			a := *acc
			a.ID = id
			a.IsActive = true
			a.UpdatedAt = time.Now()
			f.accounts[id] = &a
			return id, nil
		}
	}
	f.nextID++
	a := *acc
	a.ID = f.nextID
	a.IsActive = true
	a.UpdatedAt = time.Now()
	f.accounts[a.ID] = &a
	return a.ID, nil
}

func (f *fakeAccountRepo) SetToken(ctx context.Context, id int64, oldToken, newToken, refreshToken string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.accounts[id]
	if !ok || acc.Token != oldToken {
		return false, nil
	}
	acc.Token = newToken
	if refreshToken != "" {
		acc.RefreshToken = refreshToken
	}
	acc.ErrorCount = 0
	acc.UpdatedAt = time.Now()
	return true, nil
}

// IncrementErrorCount mirrors the real query: the failure counter moves but
// UpdatedAt does not, so the account stays due for the next refresh sweep.
func (f *fakeAccountRepo) IncrementErrorCount(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if acc, ok := f.accounts[id]; ok {
		acc.ErrorCount++
	}
	return nil
}

func (f *fakeAccountRepo) ResetErrorCountByProvider(ctx context.Context, userID int64, provider string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, acc := range f.accounts {
		if acc.UserID == userID && acc.Provider == provider && acc.IsActive {
			acc.ErrorCount = 0
		}
	}
	return nil
}

func (f *fakeAccountRepo) Deactivate(ctx context.Context, id, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if acc, ok := f.accounts[id]; ok && acc.UserID == userID {
		acc.IsActive = false
		acc.Token = ""
		acc.RefreshToken = ""
		acc.PageToken = ""
	}
	return nil
}

func (f *fakeAccountRepo) DeactivateByProvider(ctx context.Context, userID int64, provider string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, acc := range f.accounts {
		if acc.UserID == userID && acc.Provider == provider {
			acc.IsActive = false
			acc.Token = ""
			acc.RefreshToken = ""
			acc.PageToken = ""
		}
	}
	return nil
}

func (f *fakeAccountRepo) CheckByUserID(ctx context.Context, id, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.accounts[id]
	return ok && acc.UserID == userID && acc.IsActive, nil
}

type fakePostRepo struct {
	mu     sync.Mutex
	nextID int64
	posts  map[int64]*models.Post
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: make(map[int64]*models.Post)}
}

func (f *fakePostRepo) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p := *post
	p.ID = f.nextID
	f.posts[p.ID] = &p
	return p.ID, nil
}

func (f *fakePostRepo) GetByID(ctx context.Context, id int64) (*models.Post, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	post, ok := f.posts[id]
	if !ok {
		return nil, false, nil
	}
	p := *post
	return &p, true, nil
}

func (f *fakePostRepo) GetByUserID(ctx context.Context, userID int64) ([]models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Post
	for _, post := range f.posts {
		if post.UserID == userID {
			out = append(out, *post)
		}
	}
	return out, nil
}

func (f *fakePostRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if post, ok := f.posts[id]; ok {
		post.Status = status
	}
	return nil
}

func (f *fakePostRepo) CheckByUserID(ctx context.Context, id, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	post, ok := f.posts[id]
	return ok && post.UserID == userID, nil
}

func (f *fakePostRepo) Remove(ctx context.Context, id, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.posts, id)
	return nil
}

type fakePostAccountRepo struct {
	mu      sync.Mutex
	nextID  int64
	entries map[int64]*models.PostAccount
}

func newFakePostAccountRepo() *fakePostAccountRepo {
	return &fakePostAccountRepo{entries: make(map[int64]*models.PostAccount)}
}

func (f *fakePostAccountRepo) Create(ctx context.Context, tx *sql.Tx, pa *models.PostAccount) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	e := *pa
	e.ID = f.nextID
	f.entries[e.ID] = &e
	return e.ID, nil
}

func (f *fakePostAccountRepo) ListByPostID(ctx context.Context, postID int64) ([]models.PostAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.PostAccount
	for i := int64(1); i <= f.nextID; i++ {
		if e, ok := f.entries[i]; ok && e.PostID == postID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakePostAccountRepo) SetOutcome(ctx context.Context, id int64, status, externalPostID, errorMessage string, publishedAt *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e, ok := f.entries[id]; ok {
		e.Status = status
		e.ExternalPostID = externalPostID
		e.ErrorMessage = errorMessage
		e.PublishedAt = publishedAt
	}
	return nil
}

func modelsAccount(userID int64, provider, providerID string) models.SocialAccount {
	token, err := utils.Encrypt("access-token-"+providerID, testEncryptionKey)
	if err != nil {
		panic(err)
	}
	return models.SocialAccount{
		UserID:     userID,
		Provider:   provider,
		ProviderID: providerID,
		Token:      token,
		IsActive:   true,
		UpdatedAt:  time.Now(),
	}
}

// fakeAdapter lets tests script provider behavior per call.
type fakeAdapter struct {
	mu           sync.Mutex
	verifyResult providers.VerifyResult
	refreshPair  *providers.TokenPair
	refreshErr   error
	refreshCalls int
	publishID    string
	publishErr   func(acc providers.Account) error
	publishCalls int
}

func (a *fakeAdapter) Verify(ctx context.Context, creds providers.Credentials) providers.VerifyResult {
	return a.verifyResult
}

func (a *fakeAdapter) Refresh(ctx context.Context, creds providers.Credentials, refreshToken string) (*providers.TokenPair, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.refreshCalls++
	if a.refreshErr != nil {
		return nil, a.refreshErr
	}
	return a.refreshPair, nil
}

func (a *fakeAdapter) Publish(ctx context.Context, creds providers.Credentials, acc providers.Account, content, imageURL string) (string, error) {
	a.mu.Lock()
	a.publishCalls++
	a.mu.Unlock()
	if a.publishErr != nil {
		if err := a.publishErr(acc); err != nil {
			return "", err
		}
	}
	return a.publishID, nil
}
