package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
)

type MastodonAdapter struct {
	// DefaultBase is the fallback instance when the linked account carries no
	// instance URL of its own.
	DefaultBase string
}

func NewMastodon(defaultBase string) *MastodonAdapter {
	if defaultBase == "" {
		defaultBase = "https://mastodon.social"
	}
	return &MastodonAdapter{DefaultBase: defaultBase}
}

func (m *MastodonAdapter) baseFor(acc Account) string {
	if acc.InstanceURL != "" {
		return acc.InstanceURL
	}
	return m.DefaultBase
}

func (m *MastodonAdapter) Verify(ctx context.Context, creds Credentials) VerifyResult {
	token := creds.BearerToken
	if token == "" {
		token = creds.ClientSecret
	}
	if token == "" {
		return VerifyResult{Err: "mastodon requires an access token to verify"}
	}

	req, err := http.NewRequestWithContext(ctx, "GET", m.DefaultBase+"/api/v1/accounts/verify_credentials", nil)
	if err != nil {
		return VerifyResult{Err: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return VerifyResult{Err: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return VerifyResult{Err: "invalid mastodon credentials"}
	}

	var result struct {
		ID          string `json:"id"`
		Username    string `json:"username"`
		DisplayName string `json:"display_name"`
		Avatar      string `json:"avatar"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return VerifyResult{Err: err.Error()}
	}

	return VerifyResult{
		Valid: true,
		Profile: &Profile{
			ProviderID:  result.ID,
			Username:    result.Username,
			DisplayName: result.DisplayName,
			Avatar:      result.Avatar,
		},
	}
}

// Refresh is unsupported: Mastodon access tokens do not expire.
func (m *MastodonAdapter) Refresh(ctx context.Context, creds Credentials, refreshToken string) (*TokenPair, error) {
	return nil, ErrRefreshUnsupported
}

// Publish uploads the media first when present, then posts a status
// referencing the media id.
func (m *MastodonAdapter) Publish(ctx context.Context, creds Credentials, acc Account, content, imageURL string) (string, error) {
	if acc.Token == "" {
		return "", &PublishError{Provider: ProviderMastodon, Reason: ReasonMissingToken, Message: "access token is missing"}
	}

	base := m.baseFor(acc)

	var mediaID string
	if imageURL != "" {
		id, err := m.uploadMedia(ctx, base, acc.Token, imageURL)
		if err != nil {
			return "", err
		}
		mediaID = id
	}

	payload := map[string]interface{}{"status": content}
	if mediaID != "" {
		payload["media_ids"] = []string{mediaID}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", base+"/api/v1/statuses", bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+acc.Token)
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

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &PublishError{
			Provider:   ProviderMastodon,
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

func (m *MastodonAdapter) uploadMedia(ctx context.Context, base, token, imageURL string) (string, error) {
	imgReq, err := http.NewRequestWithContext(ctx, "GET", imageURL, nil)
	if err != nil {
		return "", err
	}
	imgResp, err := httpClient.Do(imgReq)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	defer imgResp.Body.Close()

	if imgResp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching media %s: status %d", imageURL, imgResp.StatusCode)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "media")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, imgResp.Body); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", base+"/api/v2/media", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", writer.FormDataContentType())

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
			Provider:   ProviderMastodon,
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
