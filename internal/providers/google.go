package providers

import (
	"context"
	"log/slog"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	goauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

type GoogleAdapter struct{}

func NewGoogle() *GoogleAdapter {
	return &GoogleAdapter{}
}

func (g *GoogleAdapter) Verify(ctx context.Context, creds Credentials) VerifyResult {
	if creds.BearerToken == "" {
		return VerifyResult{Err: "google requires an access token to verify"}
	}

	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: creds.BearerToken})
	svc, err := goauth2.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		slog.Info(err.Error())
		return VerifyResult{Err: err.Error()}
	}

	userInfo, err := svc.Userinfo.Get().Do()
	if err != nil {
		slog.Info(err.Error())
		return VerifyResult{Err: "invalid google credentials"}
	}

	return VerifyResult{
		Valid: true,
		Profile: &Profile{
			ProviderID:  userInfo.Id,
			DisplayName: userInfo.Name,
			Email:       userInfo.Email,
			Avatar:      userInfo.Picture,
		},
	}
}

// Refresh exchanges the stored refresh token for a new hourly access token.
func (g *GoogleAdapter) Refresh(ctx context.Context, creds Credentials, refreshToken string) (*TokenPair, error) {
	conf := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint:     google.Endpoint,
	}

	token, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		slog.Info(err.Error())
		return nil, &RefreshError{Provider: ProviderGoogle, Err: err}
	}

	newRefresh := token.RefreshToken
	if newRefresh == "" {
		newRefresh = refreshToken
	}

	return &TokenPair{
		AccessToken:  token.AccessToken,
		RefreshToken: newRefresh,
		ExpiresAt:    token.Expiry,
	}, nil
}

// Publish is not available for Google accounts; the link exists for login and
// token exercise only.
func (g *GoogleAdapter) Publish(ctx context.Context, creds Credentials, acc Account, content, imageURL string) (string, error) {
	return "", &PublishError{Provider: ProviderGoogle, Reason: ReasonUnsupported, Message: "publishing is not supported"}
}
