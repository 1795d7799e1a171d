package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socialhub-app/socialhub/internal/providers"
	"github.com/socialhub-app/socialhub/pkg/utils"
)

func newTokenService(ac *fakeAccountRepo, adapter *fakeAdapter, provider string) TokenService {
	registry := providers.Registry{provider: adapter}
	cs := NewCredentialService(testConfig(), newFakeConfigRepo(), ac, registry)
	return NewTokenService(testConfig(), ac, cs, registry)
}

func TestEnsureFreshTokenSkipsFresh(t *testing.T) {
	ac := newFakeAccountRepo()
	adapter := &fakeAdapter{}
	s := newTokenService(ac, adapter, providers.ProviderFacebook)

	id := ac.add(modelsAccount(1, providers.ProviderFacebook, "fb-1"))
	acc, _, _ := ac.GetByID(context.Background(), id)

	token, err := s.EnsureFreshToken(context.Background(), acc)
	require.NoError(t, err)
	assert.Equal(t, "access-token-fb-1", token)
	assert.Zero(t, adapter.refreshCalls)
}

func TestEnsureFreshTokenRefreshesStale(t *testing.T) {
	ac := newFakeAccountRepo()
	adapter := &fakeAdapter{refreshPair: &providers.TokenPair{AccessToken: "renewed-token"}}
	s := newTokenService(ac, adapter, providers.ProviderFacebook)

	id := ac.add(modelsAccount(1, providers.ProviderFacebook, "fb-1"))
	ac.accounts[id].UpdatedAt = time.Now().Add(-25 * time.Hour)
	acc, _, _ := ac.GetByID(context.Background(), id)

	token, err := s.EnsureFreshToken(context.Background(), acc)
	require.NoError(t, err)
	assert.Equal(t, "renewed-token", token)
	assert.Equal(t, 1, adapter.refreshCalls)

	// The stored token is the encrypted renewal, not the old one.
	stored, _, _ := ac.GetByID(context.Background(), id)
	plain, err := utils.Decrypt(stored.Token, testEncryptionKey)
	require.NoError(t, err)
	assert.Equal(t, "renewed-token", plain)
	assert.Zero(t, stored.ErrorCount)
}

func TestEnsureFreshTokenStaleButNotRefreshable(t *testing.T) {
	ac := newFakeAccountRepo()
	adapter := &fakeAdapter{}
	s := newTokenService(ac, adapter, providers.ProviderMastodon)

	id := ac.add(modelsAccount(1, providers.ProviderMastodon, "masto-1"))
	ac.accounts[id].UpdatedAt = time.Now().Add(-48 * time.Hour)
	acc, _, _ := ac.GetByID(context.Background(), id)

	token, err := s.EnsureFreshToken(context.Background(), acc)
	require.NoError(t, err)
	assert.Equal(t, "access-token-masto-1", token)
	assert.Zero(t, adapter.refreshCalls)
}

func TestEnsureFreshTokenFailureFallsBackToStored(t *testing.T) {
	ac := newFakeAccountRepo()
	adapter := &fakeAdapter{refreshErr: errors.New("invalid_grant")}
	s := newTokenService(ac, adapter, providers.ProviderFacebook)

	id := ac.add(modelsAccount(1, providers.ProviderFacebook, "fb-1"))
	ac.accounts[id].UpdatedAt = time.Now().Add(-25 * time.Hour)
	acc, _, _ := ac.GetByID(context.Background(), id)

	token, err := s.EnsureFreshToken(context.Background(), acc)
	require.NoError(t, err)
	assert.Equal(t, "access-token-fb-1", token)

	stored, _, _ := ac.GetByID(context.Background(), id)
	assert.Equal(t, 1, stored.ErrorCount)
}

func TestEnsureFreshTokenRetriesAfterTransientFailure(t *testing.T) {
	ac := newFakeAccountRepo()
	adapter := &fakeAdapter{refreshErr: errors.New("upstream unavailable")}
	s := newTokenService(ac, adapter, providers.ProviderFacebook)

	id := ac.add(modelsAccount(1, providers.ProviderFacebook, "fb-1"))
	staleAt := time.Now().Add(-25 * time.Hour)
	ac.accounts[id].UpdatedAt = staleAt
	acc, _, _ := ac.GetByID(context.Background(), id)

	token, err := s.EnsureFreshToken(context.Background(), acc)
	require.NoError(t, err)
	assert.Equal(t, "access-token-fb-1", token)

	// The failure must not touch the staleness clock, or the account would
	// sit out a whole window before being retried.
	stored, _, _ := ac.GetByID(context.Background(), id)
	assert.Equal(t, staleAt, stored.UpdatedAt)

	// Provider recovers: the very next call refreshes instead of waiting.
	adapter.refreshErr = nil
	adapter.refreshPair = &providers.TokenPair{AccessToken: "renewed-token"}

	token, err = s.EnsureFreshToken(context.Background(), acc)
	require.NoError(t, err)
	assert.Equal(t, "renewed-token", token)
	assert.Equal(t, 2, adapter.refreshCalls)
}

func TestEnsureFreshTokenSuspendsAfterRepeatedFailures(t *testing.T) {
	ac := newFakeAccountRepo()
	adapter := &fakeAdapter{refreshErr: errors.New("invalid_grant")}
	s := newTokenService(ac, adapter, providers.ProviderFacebook)

	id := ac.add(modelsAccount(1, providers.ProviderFacebook, "fb-1"))
	ac.accounts[id].UpdatedAt = time.Now().Add(-25 * time.Hour)
	ac.accounts[id].ErrorCount = maxRefreshErrors
	acc, _, _ := ac.GetByID(context.Background(), id)

	token, err := s.EnsureFreshToken(context.Background(), acc)
	require.NoError(t, err)
	assert.Equal(t, "access-token-fb-1", token)
	assert.Zero(t, adapter.refreshCalls)
}

func TestEnsureFreshTokenSingleRefreshUnderConcurrency(t *testing.T) {
	ac := newFakeAccountRepo()
	adapter := &fakeAdapter{refreshPair: &providers.TokenPair{AccessToken: "renewed-token"}}
	s := newTokenService(ac, adapter, providers.ProviderFacebook)

	id := ac.add(modelsAccount(1, providers.ProviderFacebook, "fb-1"))
	ac.accounts[id].UpdatedAt = time.Now().Add(-25 * time.Hour)
	acc, _, _ := ac.GetByID(context.Background(), id)

	var wg sync.WaitGroup
	tokens := make([]string, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			token, err := s.EnsureFreshToken(context.Background(), acc)
			assert.NoError(t, err)
			tokens[i] = token
		}(i)
	}
	wg.Wait()

	for _, token := range tokens {
		assert.Equal(t, "renewed-token", token)
	}
	assert.Equal(t, 1, adapter.refreshCalls)
}

func TestEnsureFreshTokenMissingToken(t *testing.T) {
	ac := newFakeAccountRepo()
	s := newTokenService(ac, &fakeAdapter{}, providers.ProviderFacebook)

	acc := modelsAccount(1, providers.ProviderFacebook, "fb-1")
	acc.Token = ""

	_, err := s.EnsureFreshToken(context.Background(), &acc)
	assert.ErrorIs(t, err, providers.ErrNoCredentials)
}
