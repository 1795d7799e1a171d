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
)

type InstagramAdapter struct {
	GraphBase string
}

func NewInstagram() *InstagramAdapter {
	return &InstagramAdapter{GraphBase: "https://graph.instagram.com"}
}

func (ig *InstagramAdapter) Verify(ctx context.Context, creds Credentials) VerifyResult {
	token := creds.BearerToken
	if token == "" {
		token = creds.ClientSecret
	}
	if token == "" {
		return VerifyResult{Err: "instagram requires an access token to verify"}
	}

	reqURL := fmt.Sprintf("%s/me?fields=id,username&access_token=%s", ig.GraphBase, url.QueryEscape(token))
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
		return VerifyResult{Err: "invalid instagram credentials"}
	}

	var result struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return VerifyResult{Err: err.Error()}
	}

	return VerifyResult{Valid: true, Profile: &Profile{ProviderID: result.ID, Username: result.Username}}
}

func (ig *InstagramAdapter) Refresh(ctx context.Context, creds Credentials, refreshToken string) (*TokenPair, error) {
	reqURL := fmt.Sprintf(
		"%s/refresh_access_token?grant_type=ig_refresh_token&access_token=%s",
		ig.GraphBase, url.QueryEscape(refreshToken),
	)
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, &RefreshError{Provider: ProviderInstagram, Err: err}
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, &RefreshError{Provider: ProviderInstagram, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &RefreshError{Provider: ProviderInstagram, Err: fmt.Errorf("status %d: %s", resp.StatusCode, body)}
	}

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &RefreshError{Provider: ProviderInstagram, Err: err}
	}

	// Instagram long-lived tokens refresh in place: the new token is also the
	// next refresh material.
	return &TokenPair{
		AccessToken:  result.AccessToken,
		RefreshToken: result.AccessToken,
		ExpiresAt:    expiresAt(result.ExpiresIn),
	}, nil
}

// Publish runs the two-step container flow: create a media container with
// image_url+caption, then publish it by creation_id. An image is mandatory.
func (ig *InstagramAdapter) Publish(ctx context.Context, creds Credentials, acc Account, content, imageURL string) (string, error) {
	if acc.Token == "" {
		return "", &PublishError{Provider: ProviderInstagram, Reason: ReasonMissingToken, Message: "access token is missing"}
	}
	if imageURL == "" {
		return "", &PublishError{Provider: ProviderInstagram, Reason: ReasonMissingFields, Message: "instagram requires an image"}
	}
	if acc.ProviderID == "" {
		return "", &PublishError{Provider: ProviderInstagram, Reason: ReasonMissingFields, Message: "business account id is missing"}
	}

	containerID, err := ig.createContainer(ctx, acc, content, imageURL)
	if err != nil {
		return "", err
	}

	return ig.publishContainer(ctx, acc, containerID)
}

func (ig *InstagramAdapter) createContainer(ctx context.Context, acc Account, caption, imageURL string) (string, error) {
	endpoint := fmt.Sprintf("%s/v21.0/%s/media", ig.GraphBase, acc.ProviderID)
	payload := map[string]interface{}{
		"image_url":    imageURL,
		"caption":      caption,
		"access_token": acc.Token,
	}

	id, err := ig.postForID(ctx, endpoint, payload)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", &PublishError{Provider: ProviderInstagram, Reason: ReasonUpstream, Message: "no container id returned"}
	}
	return id, nil
}

func (ig *InstagramAdapter) publishContainer(ctx context.Context, acc Account, containerID string) (string, error) {
	endpoint := fmt.Sprintf("%s/v21.0/%s/media_publish", ig.GraphBase, acc.ProviderID)
	payload := map[string]interface{}{
		"creation_id":  containerID,
		"access_token": acc.Token,
	}

	id, err := ig.postForID(ctx, endpoint, payload)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", &PublishError{Provider: ProviderInstagram, Reason: ReasonUpstream, Message: "no media id returned"}
	}
	return id, nil
}

func (ig *InstagramAdapter) postForID(ctx context.Context, endpoint string, payload map[string]interface{}) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

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

	if resp.StatusCode != http.StatusOK {
		return "", &PublishError{
			Provider:   ProviderInstagram,
			Reason:     ReasonUpstream,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", err
	}
	return result.ID, nil
}
