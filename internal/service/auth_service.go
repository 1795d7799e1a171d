package service

import (
	"context"
	"errors"
	"log/slog"

	config "github.com/socialhub-app/socialhub/configs"
	"github.com/socialhub-app/socialhub/internal/models"
	"github.com/socialhub-app/socialhub/internal/providers"
	"github.com/socialhub-app/socialhub/internal/repository"
	"github.com/socialhub-app/socialhub/internal/transfer"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	goauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

type AuthService interface {
	Register(ctx context.Context, req *transfer.RegisterRequest) (int64, error)
	Login(ctx context.Context, req *transfer.LoginRequest) (int64, error)
	GoogleCallback(ctx context.Context, code string) (int64, error)
}

type authService struct {
	cfg config.Config
	u   repository.UserRepository
	as  AccountService
}

func NewAuthService(cfg config.Config, u repository.UserRepository, as AccountService) AuthService {
	return &authService{
		cfg: cfg,
		u:   u,
		as:  as,
	}
}

func (s *authService) Register(ctx context.Context, req *transfer.RegisterRequest) (int64, error) {
	if req.Email == "" || req.Password == "" {
		err := errors.New("email and password are required")
		slog.Info(err.Error())
		return 0, err
	}

	_, exists, err := s.u.GetByEmail(ctx, req.Email)
	if err != nil {
		return 0, err
	}
	if exists {
		err := errors.New("email is already registered")
		slog.Info(err.Error())
		return 0, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return s.u.Create(ctx, nil, &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
	})
}

func (s *authService) Login(ctx context.Context, req *transfer.LoginRequest) (int64, error) {
	user, exists, err := s.u.GetByEmail(ctx, req.Email)
	if err != nil {
		return 0, err
	}
	if !exists || user.PasswordHash == "" {
		err := errors.New("invalid email or password")
		slog.Info(err.Error())
		return 0, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		err := errors.New("invalid email or password")
		slog.Info(err.Error())
		return 0, err
	}

	return user.ID, nil
}

func (s *authService) googleOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.cfg.GoogleClientID,
		ClientSecret: s.cfg.GoogleClientSecret,
		RedirectURL:  s.cfg.GoogleRedirectURI,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

// GoogleCallback finishes the Google sign-in handshake: it exchanges the
// code, fetches the profile, signs the user up on first visit and links
// the Google identity as a social account.
func (s *authService) GoogleCallback(ctx context.Context, code string) (int64, error) {
	if code == "" {
		err := errors.New("authorization code is empty")
		slog.Info(err.Error())
		return 0, err
	}

	conf := s.googleOAuthConfig()
	if conf.ClientID == "" || conf.ClientSecret == "" || conf.RedirectURL == "" {
		err := errors.New("google oauth configuration is incomplete")
		slog.Info(err.Error())
		return 0, err
	}

	token, err := conf.Exchange(ctx, code)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	srv, err := goauth2.NewService(ctx, option.WithTokenSource(conf.TokenSource(ctx, token)))
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	userInfo, err := srv.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	user, exists, err := s.u.GetByEmail(ctx, userInfo.Email)
	if err != nil {
		return 0, err
	}

	var userID int64
	if !exists {
		userID, err = s.u.Create(ctx, nil, &models.User{
			GoogleID:       userInfo.Id,
			Email:          userInfo.Email,
			Name:           userInfo.Name,
			ProfilePicture: userInfo.Picture,
		})
		if err != nil {
			return 0, err
		}
	} else {
		userID = user.ID
		if user.GoogleID == "" {
			user.GoogleID = userInfo.Id
			user.ProfilePicture = userInfo.Picture
			if err := s.u.Update(ctx, user); err != nil {
				return 0, err
			}
		}
	}

	_, err = s.as.UpsertAccount(ctx, userID, providers.ProviderGoogle, &transfer.OAuthResult{
		ProviderID:   userInfo.Id,
		DisplayName:  userInfo.Name,
		Username:     userInfo.Email,
		Avatar:       userInfo.Picture,
		Email:        userInfo.Email,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	})
	if err != nil {
		slog.Info(err.Error())
	}

	return userID, nil
}
