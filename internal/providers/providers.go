package providers

import (
	"context"
	"net/http"
	"time"
)

const (
	ProviderTwitter   = "twitter"
	ProviderFacebook  = "facebook"
	ProviderInstagram = "instagram"
	ProviderLinkedIn  = "linkedin"
	ProviderMastodon  = "mastodon"
	ProviderGoogle    = "google"
)

type CredentialSource string

const (
	SourceCentral CredentialSource = "central"
	SourceUser    CredentialSource = "user"
)

// Credentials is the application-level credential set resolved for one
// user+provider, either the central app's or the user's own.
type Credentials struct {
	ClientID     string
	ClientSecret string
	APIKey       string
	BearerToken  string
	Source       CredentialSource
}

func (c Credentials) Empty() bool {
	return c.ClientID == "" && c.ClientSecret == "" && c.APIKey == "" && c.BearerToken == ""
}

// Profile is the external identity a completed handshake or verify call
// reports back.
type Profile struct {
	ProviderID  string
	DisplayName string
	Username    string
	Avatar      string
	Email       string
	PageID      string
	PageToken   string
	InstanceURL string
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Account is the decrypted view of a linked social account handed to an
// adapter for a publish call. TokenSecret carries the refresh token, or the
// OAuth1 token secret for Twitter.
type Account struct {
	ID          int64
	UserID      int64
	Provider    string
	ProviderID  string
	Token       string
	TokenSecret string
	PageID      string
	PageToken   string
	InstanceURL string
}

type VerifyResult struct {
	Valid     bool
	Profile   *Profile
	RateLimit string
	Err       string
}

// Adapter is the uniform capability set every provider variant implements.
// Verify never mutates local state. Refresh returns ErrRefreshUnsupported for
// providers whose tokens cannot be renewed. Publish returns the external post
// id or a *PublishError.
type Adapter interface {
	Verify(ctx context.Context, creds Credentials) VerifyResult
	Refresh(ctx context.Context, creds Credentials, refreshToken string) (*TokenPair, error)
	Publish(ctx context.Context, creds Credentials, acc Account, content, imageURL string) (string, error)
}

type Registry map[string]Adapter

func NewRegistry(mastodonBaseURL string) Registry {
	return Registry{
		ProviderTwitter:   NewTwitter(),
		ProviderFacebook:  NewFacebook(),
		ProviderInstagram: NewInstagram(),
		ProviderLinkedIn:  NewLinkedIn(),
		ProviderMastodon:  NewMastodon(mastodonBaseURL),
		ProviderGoogle:    NewGoogle(),
	}
}

// Provider outages must not hang the dispatcher, so every adapter call goes
// through a bounded client.
var httpClient = &http.Client{Timeout: 15 * time.Second}
