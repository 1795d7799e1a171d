package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/socialhub-app/socialhub/internal/models"
)

type SocialConfigRepository interface {
	GetByUserAndProvider(ctx context.Context, userID int64, provider string) (*models.UserSocialConfig, bool, error)
	ListByUserID(ctx context.Context, userID int64) ([]models.UserSocialConfig, error)
	Upsert(ctx context.Context, cfg *models.UserSocialConfig) (int64, error)
	SetVerification(ctx context.Context, id int64, verified bool, at time.Time) error
	Deactivate(ctx context.Context, userID int64, provider string) error
}

type socialConfigRepository struct {
	db *sql.DB
}

func NewSocialConfigRepository(db *sql.DB) SocialConfigRepository {
	return &socialConfigRepository{db: db}
}

const socialConfigColumns = `id, user_id, provider, uses_central_app, client_id, client_secret,
		api_key, bearer_token, is_verified, last_verified_at, error_count, is_active, created_at, updated_at`

func scanSocialConfig(row interface{ Scan(...any) error }, cfg *models.UserSocialConfig) error {
	return row.Scan(
		&cfg.ID, &cfg.UserID, &cfg.Provider, &cfg.UsesCentralApp, &cfg.ClientID,
		&cfg.ClientSecret, &cfg.APIKey, &cfg.BearerToken, &cfg.IsVerified,
		&cfg.LastVerifiedAt, &cfg.ErrorCount, &cfg.IsActive, &cfg.CreatedAt, &cfg.UpdatedAt)
}

func (r *socialConfigRepository) GetByUserAndProvider(ctx context.Context, userID int64, provider string) (*models.UserSocialConfig, bool, error) {
	var cfg models.UserSocialConfig
	query := `SELECT ` + socialConfigColumns + ` FROM user_social_configs WHERE user_id = $1 AND provider = $2 AND is_active = TRUE`
	err := scanSocialConfig(r.db.QueryRowContext(ctx, query, userID, provider), &cfg)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		slog.Info(err.Error())
		return nil, false, err
	}
	return &cfg, true, nil
}

func (r *socialConfigRepository) ListByUserID(ctx context.Context, userID int64) ([]models.UserSocialConfig, error) {
	query := `SELECT ` + socialConfigColumns + ` FROM user_social_configs WHERE user_id = $1 AND is_active = TRUE ORDER BY provider`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var configs []models.UserSocialConfig
	for rows.Next() {
		var cfg models.UserSocialConfig
		if err := scanSocialConfig(rows, &cfg); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		configs = append(configs, cfg)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return configs, nil
}

// Upsert stores the config for (user_id, provider), resetting verification
// state since the credential material changed.
func (r *socialConfigRepository) Upsert(ctx context.Context, cfg *models.UserSocialConfig) (int64, error) {
	query := `
		INSERT INTO user_social_configs
			(user_id, provider, uses_central_app, client_id, client_secret, api_key, bearer_token,
			 is_verified, error_count, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, 0, TRUE)
		ON CONFLICT (user_id, provider) DO UPDATE SET
			uses_central_app = EXCLUDED.uses_central_app,
			client_id = EXCLUDED.client_id,
			client_secret = EXCLUDED.client_secret,
			api_key = EXCLUDED.api_key,
			bearer_token = EXCLUDED.bearer_token,
			is_verified = FALSE,
			last_verified_at = NULL,
			error_count = 0,
			is_active = TRUE,
			updated_at = NOW()
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		cfg.UserID, cfg.Provider, cfg.UsesCentralApp, cfg.ClientID, cfg.ClientSecret,
		cfg.APIKey, cfg.BearerToken).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

// SetVerification records a verification outcome. Success resets the error
// count, failure increments it.
func (r *socialConfigRepository) SetVerification(ctx context.Context, id int64, verified bool, at time.Time) error {
	query := `
		UPDATE user_social_configs
		SET is_verified = $1,
			last_verified_at = CASE WHEN $1 THEN $2 ELSE last_verified_at END,
			error_count = CASE WHEN $1 THEN 0 ELSE error_count + 1 END,
			updated_at = NOW()
		WHERE id = $3
	`
	_, err := r.db.ExecContext(ctx, query, verified, at, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *socialConfigRepository) Deactivate(ctx context.Context, userID int64, provider string) error {
	query := `
		UPDATE user_social_configs
		SET is_active = FALSE, client_id = '', client_secret = '', api_key = '', bearer_token = '', updated_at = NOW()
		WHERE user_id = $1 AND provider = $2
	`
	_, err := r.db.ExecContext(ctx, query, userID, provider)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
