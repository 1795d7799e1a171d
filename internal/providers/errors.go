package providers

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCredentials means neither a central application credential nor a
	// usable user credential exists for the provider.
	ErrNoCredentials = errors.New("no usable credentials configured")

	// ErrRefreshUnsupported marks providers whose tokens are long-lived and
	// cannot be renewed (twitter, mastodon).
	ErrRefreshUnsupported = errors.New("token refresh not supported")

	// ErrDuplicateIdentity should be unreachable given upsert semantics on
	// (provider, provider_id); seeing it means the invariant broke.
	ErrDuplicateIdentity = errors.New("external identity already linked")
)

type RefreshError struct {
	Provider string
	Err      error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("refreshing %s token: %v", e.Provider, e.Err)
}

func (e *RefreshError) Unwrap() error { return e.Err }

type PublishReason string

const (
	ReasonMissingToken  PublishReason = "missing_token"
	ReasonMissingFields PublishReason = "missing_fields"
	ReasonUnsupported   PublishReason = "unsupported"
	ReasonUpstream      PublishReason = "upstream"
)

// PublishError carries enough upstream detail to diagnose a failed publish
// without re-running it.
type PublishError struct {
	Provider   string
	Reason     PublishReason
	Message    string
	StatusCode int
	Body       string
}

func (e *PublishError) Error() string {
	if e.Reason == ReasonUpstream {
		return fmt.Sprintf("%s publish failed (%s): status %d: %s", e.Provider, e.Reason, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s publish failed (%s): %s", e.Provider, e.Reason, e.Message)
}
