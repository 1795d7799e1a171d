package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMastodonPublishStatusWithoutMedia(t *testing.T) {
	var gotPayload map[string]interface{}
	var paths []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		assert.Equal(t, "Bearer toot-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.Write([]byte(`{"id":"status-1"}`))
	}))
	defer srv.Close()

	m := NewMastodon("")
	acc := Account{Provider: ProviderMastodon, Token: "toot-token", InstanceURL: srv.URL}

	id, err := m.Publish(context.Background(), Credentials{}, acc, "hello fediverse", "")

	require.NoError(t, err)
	assert.Equal(t, "status-1", id)
	assert.Equal(t, []string{"/api/v1/statuses"}, paths)
	assert.Equal(t, "hello fediverse", gotPayload["status"])
	_, hasMedia := gotPayload["media_ids"]
	assert.False(t, hasMedia)
}

func TestMastodonPublishUploadsMediaFirst(t *testing.T) {
	var paths []string
	var statusPayload map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		switch r.URL.Path {
		case "/img.png":
			w.Write([]byte("png-bytes"))
		case "/api/v2/media":
			assert.Contains(t, r.Header.Get("Content-Type"), "multipart/form-data")
			w.Write([]byte(`{"id":"media-5"}`))
		case "/api/v1/statuses":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&statusPayload))
			w.Write([]byte(`{"id":"status-2"}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	m := NewMastodon("")
	acc := Account{Provider: ProviderMastodon, Token: "toot-token", InstanceURL: srv.URL}

	id, err := m.Publish(context.Background(), Credentials{}, acc, "with image", srv.URL+"/img.png")

	require.NoError(t, err)
	assert.Equal(t, "status-2", id)
	assert.Equal(t, []string{"/img.png", "/api/v2/media", "/api/v1/statuses"}, paths)
	assert.Equal(t, []interface{}{"media-5"}, statusPayload["media_ids"])
}

func TestMastodonPublishRequiresToken(t *testing.T) {
	m := NewMastodon("")

	_, err := m.Publish(context.Background(), Credentials{}, Account{Provider: ProviderMastodon}, "hi", "")

	var pubErr *PublishError
	require.ErrorAs(t, err, &pubErr)
	assert.Equal(t, ReasonMissingToken, pubErr.Reason)
}

func TestMastodonRefreshUnsupported(t *testing.T) {
	m := NewMastodon("")

	_, err := m.Refresh(context.Background(), Credentials{}, "whatever")

	assert.ErrorIs(t, err, ErrRefreshUnsupported)
}

func TestMastodonDefaultInstanceFallback(t *testing.T) {
	m := NewMastodon("https://fosstodon.org")

	assert.Equal(t, "https://fosstodon.org", m.baseFor(Account{}))
	assert.Equal(t, "https://example.social", m.baseFor(Account{InstanceURL: "https://example.social"}))
}
