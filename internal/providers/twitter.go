package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/dghubble/oauth1"
)

type TwitterAdapter struct {
	APIBase string
}

func NewTwitter() *TwitterAdapter {
	return &TwitterAdapter{APIBase: "https://api.twitter.com"}
}

func (t *TwitterAdapter) Verify(ctx context.Context, creds Credentials) VerifyResult {
	if creds.BearerToken == "" {
		return VerifyResult{Err: "twitter requires a bearer token to verify"}
	}

	req, err := http.NewRequestWithContext(ctx, "GET", t.APIBase+"/2/users/me", nil)
	if err != nil {
		return VerifyResult{Err: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+creds.BearerToken)
	req.Header.Set("User-Agent", "SocialHub/1.0")

	resp, err := httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return VerifyResult{Err: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return VerifyResult{Err: "invalid twitter credentials"}
	}

	var result struct {
		Data struct {
			ID       string `json:"id"`
			Name     string `json:"name"`
			Username string `json:"username"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return VerifyResult{Err: err.Error()}
	}

	return VerifyResult{
		Valid: true,
		Profile: &Profile{
			ProviderID:  result.Data.ID,
			DisplayName: result.Data.Name,
			Username:    result.Data.Username,
		},
		RateLimit: resp.Header.Get("x-rate-limit-remaining"),
	}
}

// Refresh is unsupported: Twitter user tokens are treated as non-expiring.
func (t *TwitterAdapter) Refresh(ctx context.Context, creds Credentials, refreshToken string) (*TokenPair, error) {
	return nil, ErrRefreshUnsupported
}

// Publish tweets through the v2 endpoint using the account's OAuth1 token
// pair signed with the resolved consumer credentials.
func (t *TwitterAdapter) Publish(ctx context.Context, creds Credentials, acc Account, content, imageURL string) (string, error) {
	if acc.Token == "" || acc.TokenSecret == "" {
		return "", &PublishError{Provider: ProviderTwitter, Reason: ReasonMissingToken, Message: "twitter token pair is incomplete"}
	}

	consumerKey := creds.APIKey
	if consumerKey == "" {
		consumerKey = creds.ClientID
	}
	if consumerKey == "" || creds.ClientSecret == "" {
		return "", &PublishError{Provider: ProviderTwitter, Reason: ReasonMissingFields, Message: "consumer key pair is incomplete"}
	}

	oauthConfig := oauth1.NewConfig(consumerKey, creds.ClientSecret)
	token := oauth1.NewToken(acc.Token, acc.TokenSecret)
	client := oauthConfig.Client(ctx, token)
	client.Timeout = httpClient.Timeout

	body, err := json.Marshal(map[string]string{"text": content})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", t.APIBase+"/2/tweets", bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &PublishError{
			Provider:   ProviderTwitter,
			Reason:     ReasonUpstream,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	var result struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", err
	}

	return result.Data.ID, nil
}
