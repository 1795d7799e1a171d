package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fbAccount() Account {
	return Account{
		ID:        1,
		Provider:  ProviderFacebook,
		PageID:    "page-123",
		PageToken: "page-token",
	}
}

func TestFacebookPublishTextTargetsFeed(t *testing.T) {
	var gotPath string
	var gotForm map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotPath = r.URL.Path
		gotForm = map[string]string{
			"message":      r.PostFormValue("message"),
			"caption":      r.PostFormValue("caption"),
			"url":          r.PostFormValue("url"),
			"access_token": r.PostFormValue("access_token"),
		}
		w.Write([]byte(`{"id":"post-1"}`))
	}))
	defer srv.Close()

	fb := &FacebookAdapter{GraphBase: srv.URL}
	id, err := fb.Publish(context.Background(), Credentials{}, fbAccount(), "hello world", "")

	require.NoError(t, err)
	assert.Equal(t, "post-1", id)
	assert.Equal(t, "/page-123/feed", gotPath)
	assert.Equal(t, "hello world", gotForm["message"])
	assert.Empty(t, gotForm["caption"])
	assert.Equal(t, "page-token", gotForm["access_token"])
}

func TestFacebookPublishImageTargetsPhotos(t *testing.T) {
	var gotPath string
	var gotForm map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotPath = r.URL.Path
		gotForm = map[string]string{
			"message": r.PostFormValue("message"),
			"caption": r.PostFormValue("caption"),
			"url":     r.PostFormValue("url"),
		}
		w.Write([]byte(`{"post_id":"photo-9"}`))
	}))
	defer srv.Close()

	fb := &FacebookAdapter{GraphBase: srv.URL}
	id, err := fb.Publish(context.Background(), Credentials{}, fbAccount(), "caption text", "https://cdn.example.com/cat.png")

	require.NoError(t, err)
	assert.Equal(t, "photo-9", id)
	assert.Equal(t, "/page-123/photos", gotPath)
	assert.Equal(t, "caption text", gotForm["caption"])
	assert.Equal(t, "https://cdn.example.com/cat.png", gotForm["url"])
	assert.Empty(t, gotForm["message"])
}

func TestFacebookPublishRequiresPage(t *testing.T) {
	fb := NewFacebook()
	acc := fbAccount()
	acc.PageID = ""

	_, err := fb.Publish(context.Background(), Credentials{}, acc, "hi", "")

	var pubErr *PublishError
	require.ErrorAs(t, err, &pubErr)
	assert.Equal(t, ReasonMissingFields, pubErr.Reason)
}

func TestFacebookPublishUpstreamErrorCarriesStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"expired token"}}`))
	}))
	defer srv.Close()

	fb := &FacebookAdapter{GraphBase: srv.URL}
	_, err := fb.Publish(context.Background(), Credentials{}, fbAccount(), "hi", "")

	var pubErr *PublishError
	require.ErrorAs(t, err, &pubErr)
	assert.Equal(t, ReasonUpstream, pubErr.Reason)
	assert.Equal(t, http.StatusBadRequest, pubErr.StatusCode)
	assert.Contains(t, pubErr.Body, "expired token")
}

func TestFacebookManagedPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me/accounts", r.URL.Path)
		assert.Equal(t, "user-token", r.URL.Query().Get("access_token"))
		w.Write([]byte(`{"data":[{"id":"pg-1","access_token":"pg-token"},{"id":"pg-2","access_token":"x"}]}`))
	}))
	defer srv.Close()

	fb := &FacebookAdapter{GraphBase: srv.URL}
	pageID, pageToken, err := fb.ManagedPage(context.Background(), "user-token")

	require.NoError(t, err)
	assert.Equal(t, "pg-1", pageID)
	assert.Equal(t, "pg-token", pageToken)
}
