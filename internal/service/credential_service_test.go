package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/socialhub-app/socialhub/configs"
	"github.com/socialhub-app/socialhub/internal/providers"
	"github.com/socialhub-app/socialhub/internal/transfer"
)

const testEncryptionKey = "0123456789abcdef0123456789abcdef"

func testConfig() config.Config {
	return config.Config{
		TwitterAPIKey:         "central-twitter-key",
		TwitterAPISecret:      "central-twitter-secret",
		TwitterBearerToken:    "central-twitter-bearer",
		FacebookClientID:      "central-fb-id",
		FacebookClientSecret:  "central-fb-secret",
		InstagramClientID:     "central-ig-id",
		InstagramClientSecret: "central-ig-secret",
		LinkedInClientID:      "central-li-id",
		LinkedInClientSecret:  "central-li-secret",
		MastodonClientID:      "central-masto-id",
		MastodonClientSecret:  "central-masto-secret",
		GoogleClientID:        "central-google-id",
		GoogleClientSecret:    "central-google-secret",
		EncryptionKey:         testEncryptionKey,
	}
}

func newCredentialService(sc *fakeConfigRepo, ac *fakeAccountRepo) CredentialService {
	registry := providers.Registry{
		providers.ProviderTwitter:  &fakeAdapter{},
		providers.ProviderFacebook: &fakeAdapter{},
		providers.ProviderMastodon: &fakeAdapter{},
	}
	return NewCredentialService(testConfig(), sc, ac, registry)
}

func TestResolveDefaultsToCentral(t *testing.T) {
	s := newCredentialService(newFakeConfigRepo(), newFakeAccountRepo())

	creds, err := s.Resolve(context.Background(), 1, providers.ProviderFacebook)
	require.NoError(t, err)
	assert.Equal(t, providers.SourceCentral, creds.Source)
	assert.Equal(t, "central-fb-id", creds.ClientID)
	assert.Equal(t, "central-fb-secret", creds.ClientSecret)
}

func TestResolveCentralWhenConfigSaysSo(t *testing.T) {
	sc := newFakeConfigRepo()
	s := newCredentialService(sc, newFakeAccountRepo())

	err := s.SaveConfig(context.Background(), 1, &transfer.CredentialConfig{
		Provider:       providers.ProviderTwitter,
		UsesCentralApp: true,
	})
	require.NoError(t, err)

	creds, err := s.Resolve(context.Background(), 1, providers.ProviderTwitter)
	require.NoError(t, err)
	assert.Equal(t, providers.SourceCentral, creds.Source)
	assert.Equal(t, "central-twitter-key", creds.APIKey)
	assert.Equal(t, "central-twitter-bearer", creds.BearerToken)
}

func TestResolveUserCredentialsDecrypted(t *testing.T) {
	sc := newFakeConfigRepo()
	s := newCredentialService(sc, newFakeAccountRepo())

	err := s.SaveConfig(context.Background(), 1, &transfer.CredentialConfig{
		Provider:     providers.ProviderTwitter,
		APIKey:       "my-own-key",
		ClientSecret: "my-own-secret",
		BearerToken:  "my-own-bearer",
	})
	require.NoError(t, err)

	// Stored material must not be plaintext.
	stored, found, err := sc.GetByUserAndProvider(context.Background(), 1, providers.ProviderTwitter)
	require.NoError(t, err)
	require.True(t, found)
	assert.NotEqual(t, "my-own-secret", stored.ClientSecret)
	assert.Contains(t, stored.ClientSecret, ":")

	creds, err := s.Resolve(context.Background(), 1, providers.ProviderTwitter)
	require.NoError(t, err)
	assert.Equal(t, providers.SourceUser, creds.Source)
	assert.Equal(t, "my-own-key", creds.APIKey)
	assert.Equal(t, "my-own-secret", creds.ClientSecret)
	assert.Equal(t, "my-own-bearer", creds.BearerToken)
}

func TestResolveIsDeterministic(t *testing.T) {
	sc := newFakeConfigRepo()
	s := newCredentialService(sc, newFakeAccountRepo())

	err := s.SaveConfig(context.Background(), 1, &transfer.CredentialConfig{
		Provider:     providers.ProviderTwitter,
		APIKey:       "key",
		ClientSecret: "secret",
	})
	require.NoError(t, err)

	first, err := s.Resolve(context.Background(), 1, providers.ProviderTwitter)
	require.NoError(t, err)
	second, err := s.Resolve(context.Background(), 1, providers.ProviderTwitter)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestResolveNoCredentialsAnywhere(t *testing.T) {
	s := NewCredentialService(config.Config{EncryptionKey: testEncryptionKey}, newFakeConfigRepo(), newFakeAccountRepo(), providers.Registry{})

	_, err := s.Resolve(context.Background(), 1, providers.ProviderFacebook)
	assert.ErrorIs(t, err, providers.ErrNoCredentials)
}

func TestSaveConfigValidatesRequiredFields(t *testing.T) {
	s := newCredentialService(newFakeConfigRepo(), newFakeAccountRepo())

	err := s.SaveConfig(context.Background(), 1, &transfer.CredentialConfig{
		Provider: providers.ProviderTwitter,
		APIKey:   "key-without-secret",
	})
	assert.Error(t, err)

	err = s.SaveConfig(context.Background(), 1, &transfer.CredentialConfig{
		Provider: providers.ProviderMastodon,
	})
	assert.Error(t, err)

	err = s.SaveConfig(context.Background(), 1, &transfer.CredentialConfig{
		Provider:    providers.ProviderMastodon,
		BearerToken: "masto-token",
	})
	assert.NoError(t, err)
}

func TestSaveConfigUnknownProvider(t *testing.T) {
	s := newCredentialService(newFakeConfigRepo(), newFakeAccountRepo())

	err := s.SaveConfig(context.Background(), 1, &transfer.CredentialConfig{
		Provider: "myspace",
	})
	assert.Error(t, err)
}

func TestVerifyRecordsOutcome(t *testing.T) {
	sc := newFakeConfigRepo()
	adapter := &fakeAdapter{verifyResult: providers.VerifyResult{
		Valid:   true,
		Profile: &providers.Profile{ProviderID: "42", Username: "tester"},
	}}
	registry := providers.Registry{providers.ProviderMastodon: adapter}
	s := NewCredentialService(testConfig(), sc, newFakeAccountRepo(), registry)

	err := s.SaveConfig(context.Background(), 1, &transfer.CredentialConfig{
		Provider:    providers.ProviderMastodon,
		BearerToken: "masto-token",
	})
	require.NoError(t, err)

	profile, err := s.Verify(context.Background(), 1, providers.ProviderMastodon)
	require.NoError(t, err)
	assert.Equal(t, "tester", profile.Username)

	cfg, found, err := sc.GetByUserAndProvider(context.Background(), 1, providers.ProviderMastodon)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, cfg.IsVerified)
	require.NotNil(t, cfg.LastVerifiedAt)
	assert.Zero(t, cfg.ErrorCount)
}

func TestVerifySuccessLiftsRefreshSuspension(t *testing.T) {
	sc := newFakeConfigRepo()
	ac := newFakeAccountRepo()
	adapter := &fakeAdapter{verifyResult: providers.VerifyResult{
		Valid:   true,
		Profile: &providers.Profile{ProviderID: "42"},
	}}
	registry := providers.Registry{providers.ProviderMastodon: adapter}
	s := NewCredentialService(testConfig(), sc, ac, registry)

	id := ac.add(modelsAccount(1, providers.ProviderMastodon, "m-1"))
	ac.accounts[id].ErrorCount = maxRefreshErrors

	err := s.SaveConfig(context.Background(), 1, &transfer.CredentialConfig{
		Provider:    providers.ProviderMastodon,
		BearerToken: "masto-token",
	})
	require.NoError(t, err)

	_, err = s.Verify(context.Background(), 1, providers.ProviderMastodon)
	require.NoError(t, err)

	acc, _, _ := ac.GetByID(context.Background(), id)
	assert.Zero(t, acc.ErrorCount)
}

func TestVerifyFailureIncrementsErrorCount(t *testing.T) {
	sc := newFakeConfigRepo()
	adapter := &fakeAdapter{verifyResult: providers.VerifyResult{Valid: false}}
	registry := providers.Registry{providers.ProviderMastodon: adapter}
	s := NewCredentialService(testConfig(), sc, newFakeAccountRepo(), registry)

	err := s.SaveConfig(context.Background(), 1, &transfer.CredentialConfig{
		Provider:    providers.ProviderMastodon,
		BearerToken: "masto-token",
	})
	require.NoError(t, err)

	_, err = s.Verify(context.Background(), 1, providers.ProviderMastodon)
	assert.Error(t, err)
	_, err = s.Verify(context.Background(), 1, providers.ProviderMastodon)
	assert.Error(t, err)

	cfg, _, _ := sc.GetByUserAndProvider(context.Background(), 1, providers.ProviderMastodon)
	assert.False(t, cfg.IsVerified)
	assert.Equal(t, 2, cfg.ErrorCount)
}

func TestDeleteConfigDeactivatesAccounts(t *testing.T) {
	sc := newFakeConfigRepo()
	ac := newFakeAccountRepo()
	s := newCredentialService(sc, ac)

	err := s.SaveConfig(context.Background(), 1, &transfer.CredentialConfig{
		Provider:    providers.ProviderMastodon,
		BearerToken: "masto-token",
	})
	require.NoError(t, err)

	accID := ac.add(modelsAccount(1, providers.ProviderMastodon, "masto-1"))

	err = s.DeleteConfig(context.Background(), 1, providers.ProviderMastodon)
	require.NoError(t, err)

	_, found, err := sc.GetByUserAndProvider(context.Background(), 1, providers.ProviderMastodon)
	require.NoError(t, err)
	assert.False(t, found)

	acc, found, err := ac.GetByID(context.Background(), accID)
	require.NoError(t, err)
	require.True(t, found)
	assert.False(t, acc.IsActive)
	assert.Empty(t, acc.Token)
}
