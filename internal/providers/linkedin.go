package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

type LinkedInAdapter struct {
	APIBase  string
	AuthBase string
}

func NewLinkedIn() *LinkedInAdapter {
	return &LinkedInAdapter{
		APIBase:  "https://api.linkedin.com",
		AuthBase: "https://www.linkedin.com",
	}
}

func (l *LinkedInAdapter) Verify(ctx context.Context, creds Credentials) VerifyResult {
	token := creds.BearerToken
	if token == "" {
		token = creds.ClientSecret
	}
	if token == "" {
		return VerifyResult{Err: "linkedin requires an access token to verify"}
	}

	req, err := http.NewRequestWithContext(ctx, "GET", l.APIBase+"/v2/me", nil)
	if err != nil {
		return VerifyResult{Err: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")
	req.Header.Set("cache-control", "no-cache")

	resp, err := httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return VerifyResult{Err: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return VerifyResult{Err: "invalid linkedin credentials"}
	}

	var result struct {
		ID                 string `json:"id"`
		LocalizedFirstName string `json:"localizedFirstName"`
		LocalizedLastName  string `json:"localizedLastName"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return VerifyResult{Err: err.Error()}
	}

	return VerifyResult{
		Valid: true,
		Profile: &Profile{
			ProviderID:  result.ID,
			DisplayName: strings.TrimSpace(result.LocalizedFirstName + " " + result.LocalizedLastName),
		},
	}
}

func (l *LinkedInAdapter) Refresh(ctx context.Context, creds Credentials, refreshToken string) (*TokenPair, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", creds.ClientID)
	form.Set("client_secret", creds.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, "POST", l.AuthBase+"/oauth/v2/accessToken", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &RefreshError{Provider: ProviderLinkedIn, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, &RefreshError{Provider: ProviderLinkedIn, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &RefreshError{Provider: ProviderLinkedIn, Err: fmt.Errorf("status %d: %s", resp.StatusCode, body)}
	}

	var result struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &RefreshError{Provider: ProviderLinkedIn, Err: err}
	}

	if result.RefreshToken == "" {
		result.RefreshToken = refreshToken
	}

	return &TokenPair{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		ExpiresAt:    expiresAt(result.ExpiresIn),
	}, nil
}

func (l *LinkedInAdapter) Publish(ctx context.Context, creds Credentials, acc Account, content, imageURL string) (string, error) {
	if acc.Token == "" {
		return "", &PublishError{Provider: ProviderLinkedIn, Reason: ReasonMissingToken, Message: "access token is missing"}
	}
	if acc.ProviderID == "" {
		return "", &PublishError{Provider: ProviderLinkedIn, Reason: ReasonMissingFields, Message: "member id is missing"}
	}

	payload := map[string]interface{}{
		"author":         "urn:li:person:" + acc.ProviderID,
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]interface{}{
			"com.linkedin.ugc.ShareContent": map[string]interface{}{
				"shareCommentary":    map[string]string{"text": content},
				"shareMediaCategory": "NONE",
			},
		},
		"visibility": map[string]string{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", l.APIBase+"/v2/ugcPosts", bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+acc.Token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	resp, err := httpClient.Do(req)
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
			Provider:   ProviderLinkedIn,
			Reason:     ReasonUpstream,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	if id := resp.Header.Get("x-restli-id"); id != "" {
		return id, nil
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", err
	}
	return result.ID, nil
}
