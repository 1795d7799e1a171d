package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

type FacebookAdapter struct {
	GraphBase string
}

func NewFacebook() *FacebookAdapter {
	return &FacebookAdapter{GraphBase: "https://graph.facebook.com"}
}

func (f *FacebookAdapter) Verify(ctx context.Context, creds Credentials) VerifyResult {
	token := creds.BearerToken
	if token == "" {
		token = creds.ClientSecret
	}
	if token == "" {
		return VerifyResult{Err: "facebook requires an access token to verify"}
	}

	reqURL := fmt.Sprintf("%s/me/accounts?access_token=%s", f.GraphBase, url.QueryEscape(token))
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return VerifyResult{Err: err.Error()}
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return VerifyResult{Err: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return VerifyResult{Err: "invalid facebook credentials"}
	}

	var result struct {
		Data []struct {
			ID          string `json:"id"`
			Name        string `json:"name"`
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return VerifyResult{Err: err.Error()}
	}

	profile := &Profile{}
	if len(result.Data) > 0 {
		profile.PageID = result.Data[0].ID
		profile.PageToken = result.Data[0].AccessToken
		profile.DisplayName = result.Data[0].Name
	}

	return VerifyResult{Valid: true, Profile: profile}
}

// ManagedPage looks up the first page the token administers. Called once at
// link time; the page id and page-scoped token ride on the SocialAccount from
// then on.
func (f *FacebookAdapter) ManagedPage(ctx context.Context, accessToken string) (pageID, pageToken string, err error) {
	reqURL := fmt.Sprintf("%s/me/accounts?access_token=%s", f.GraphBase, url.QueryEscape(accessToken))
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return "", "", err
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", "", fmt.Errorf("facebook pages lookup failed: %d: %s", resp.StatusCode, body)
	}

	var result struct {
		Data []struct {
			ID          string `json:"id"`
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", "", err
	}
	if len(result.Data) == 0 {
		return "", "", nil
	}

	return result.Data[0].ID, result.Data[0].AccessToken, nil
}

func (f *FacebookAdapter) Refresh(ctx context.Context, creds Credentials, refreshToken string) (*TokenPair, error) {
	params := url.Values{}
	params.Set("grant_type", "fb_exchange_token")
	params.Set("client_id", creds.ClientID)
	params.Set("client_secret", creds.ClientSecret)
	params.Set("fb_exchange_token", refreshToken)

	reqURL := fmt.Sprintf("%s/oauth/access_token?%s", f.GraphBase, params.Encode())
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, &RefreshError{Provider: ProviderFacebook, Err: err}
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, &RefreshError{Provider: ProviderFacebook, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &RefreshError{Provider: ProviderFacebook, Err: fmt.Errorf("status %d: %s", resp.StatusCode, body)}
	}

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &RefreshError{Provider: ProviderFacebook, Err: err}
	}

	return &TokenPair{
		AccessToken:  result.AccessToken,
		RefreshToken: result.AccessToken,
		ExpiresAt:    expiresAt(result.ExpiresIn),
	}, nil
}

// Publish posts to the page feed, or to the photos endpoint when an image is
// attached.
func (f *FacebookAdapter) Publish(ctx context.Context, creds Credentials, acc Account, content, imageURL string) (string, error) {
	if acc.PageID == "" || acc.PageToken == "" {
		return "", &PublishError{
			Provider: ProviderFacebook,
			Reason:   ReasonMissingFields,
			Message:  "page id and page access token are required",
		}
	}

	endpoint := fmt.Sprintf("%s/%s/feed", f.GraphBase, acc.PageID)
	form := url.Values{}
	form.Set("message", content)
	form.Set("access_token", acc.PageToken)

	if imageURL != "" {
		endpoint = fmt.Sprintf("%s/%s/photos", f.GraphBase, acc.PageID)
		form = url.Values{}
		form.Set("caption", content)
		form.Set("url", imageURL)
		form.Set("access_token", acc.PageToken)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &PublishError{
			Provider:   ProviderFacebook,
			Reason:     ReasonUpstream,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	var result struct {
		ID     string `json:"id"`
		PostID string `json:"post_id"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", err
	}
	if result.PostID != "" {
		return result.PostID, nil
	}

	return result.ID, nil
}
