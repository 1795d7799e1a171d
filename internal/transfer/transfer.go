package transfer

import (
	"github.com/golang-jwt/jwt/v5"
)

type CustomClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type PostCreation struct {
	Content          string
	ScheduledAt      string
	SelectedAccounts string
}

type CredentialConfig struct {
	Provider       string `json:"provider"`
	UsesCentralApp bool   `json:"uses_central_app"`
	ClientID       string `json:"client_id"`
	ClientSecret   string `json:"client_secret"`
	APIKey         string `json:"api_key"`
	BearerToken    string `json:"bearer_token"`
}

// OAuthResult is what the external OAuth collaborator hands over after a
// completed provider handshake: a verified profile plus the token pair.
type OAuthResult struct {
	ProviderID   string `json:"provider_id"`
	DisplayName  string `json:"display_name"`
	Username     string `json:"username"`
	Avatar       string `json:"avatar"`
	Email        string `json:"email"`
	InstanceURL  string `json:"instance_url"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type AccountResult struct {
	AccountID      int64  `json:"account_id"`
	Provider       string `json:"provider"`
	Status         string `json:"status"`
	ExternalPostID string `json:"external_post_id,omitempty"`
	Error          string `json:"error,omitempty"`
}

type DispatchResult struct {
	PostID   int64           `json:"post_id"`
	Status   string          `json:"status"`
	Accounts []AccountResult `json:"accounts"`
}
