package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/socialhub-app/socialhub/internal/models"
)

type SocialAccountRepository interface {
	GetByID(ctx context.Context, id int64) (*models.SocialAccount, bool, error)
	ListByUserID(ctx context.Context, userID int64) ([]models.SocialAccount, error)
	ListUpdatedBefore(ctx context.Context, provider string, cutoff time.Time) ([]models.SocialAccount, error)
	Upsert(ctx context.Context, acc *models.SocialAccount) (int64, error)
	SetToken(ctx context.Context, id int64, oldToken, newToken, refreshToken string) (bool, error)
	IncrementErrorCount(ctx context.Context, id int64) error
	ResetErrorCountByProvider(ctx context.Context, userID int64, provider string) error
	Deactivate(ctx context.Context, id, userID int64) error
	DeactivateByProvider(ctx context.Context, userID int64, provider string) error
	CheckByUserID(ctx context.Context, id, userID int64) (bool, error)
}

type socialAccountRepository struct {
	db *sql.DB
}

func NewSocialAccountRepository(db *sql.DB) SocialAccountRepository {
	return &socialAccountRepository{db: db}
}

const socialAccountColumns = `id, user_id, provider, provider_id, display_name, username, profile_picture,
		token, refresh_token, page_id, page_token, instance_url, profile_data, error_count, is_active, created_at, updated_at`

func scanSocialAccount(row interface{ Scan(...any) error }, acc *models.SocialAccount) error {
	return row.Scan(
		&acc.ID, &acc.UserID, &acc.Provider, &acc.ProviderID, &acc.DisplayName,
		&acc.Username, &acc.ProfilePicture, &acc.Token, &acc.RefreshToken,
		&acc.PageID, &acc.PageToken, &acc.InstanceURL, &acc.ProfileData,
		&acc.ErrorCount, &acc.IsActive, &acc.CreatedAt, &acc.UpdatedAt)
}

func (r *socialAccountRepository) GetByID(ctx context.Context, id int64) (*models.SocialAccount, bool, error) {
	var acc models.SocialAccount
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts WHERE id = $1`
	err := scanSocialAccount(r.db.QueryRowContext(ctx, query, id), &acc)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		slog.Info(err.Error())
		return nil, false, err
	}
	return &acc, true, nil
}

func (r *socialAccountRepository) ListByUserID(ctx context.Context, userID int64) ([]models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts WHERE user_id = $1 AND is_active = TRUE ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []models.SocialAccount
	for rows.Next() {
		var acc models.SocialAccount
		if err := scanSocialAccount(rows, &acc); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return accounts, nil
}

func (r *socialAccountRepository) ListUpdatedBefore(ctx context.Context, provider string, cutoff time.Time) ([]models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts
		WHERE provider = $1 AND is_active = TRUE AND updated_at < $2`
	rows, err := r.db.QueryContext(ctx, query, provider, cutoff)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []models.SocialAccount
	for rows.Next() {
		var acc models.SocialAccount
		if err := scanSocialAccount(rows, &acc); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return accounts, nil
}

// Upsert inserts the account or, when a row for the same (provider, provider_id)
// already exists, replaces its tokens and profile fields and reactivates it.
func (r *socialAccountRepository) Upsert(ctx context.Context, acc *models.SocialAccount) (int64, error) {
	query := `
		INSERT INTO social_accounts
			(user_id, provider, provider_id, display_name, username, profile_picture,
			 token, refresh_token, page_id, page_token, instance_url, profile_data, error_count, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 0, TRUE)
		ON CONFLICT (provider, provider_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			username = EXCLUDED.username,
			profile_picture = EXCLUDED.profile_picture,
			token = EXCLUDED.token,
			refresh_token = EXCLUDED.refresh_token,
			page_id = EXCLUDED.page_id,
			page_token = EXCLUDED.page_token,
			instance_url = EXCLUDED.instance_url,
			profile_data = EXCLUDED.profile_data,
			error_count = 0,
			is_active = TRUE,
			updated_at = NOW()
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		acc.UserID, acc.Provider, acc.ProviderID, acc.DisplayName, acc.Username,
		acc.ProfilePicture, acc.Token, acc.RefreshToken, acc.PageID, acc.PageToken,
		acc.InstanceURL, acc.ProfileData).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

// SetToken swaps the stored token only if it still holds oldToken, so a
// concurrent refresh that already wrote a newer token is not clobbered.
// Returns false when the row was not updated.
func (r *socialAccountRepository) SetToken(ctx context.Context, id int64, oldToken, newToken, refreshToken string) (bool, error) {
	query := `
		UPDATE social_accounts
		SET token = $1,
			refresh_token = CASE WHEN $2 <> '' THEN $2 ELSE refresh_token END,
			error_count = 0,
			updated_at = NOW()
		WHERE id = $3 AND token = $4
	`
	result, err := r.db.ExecContext(ctx, query, newToken, refreshToken, id, oldToken)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return n > 0, nil
}

// IncrementErrorCount leaves updated_at alone: the staleness clock only
// resets when a new token is actually written, so a failed refresh stays
// eligible for the next attempt.
func (r *socialAccountRepository) IncrementErrorCount(ctx context.Context, id int64) error {
	query := `UPDATE social_accounts SET error_count = error_count + 1 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *socialAccountRepository) ResetErrorCountByProvider(ctx context.Context, userID int64, provider string) error {
	query := `UPDATE social_accounts SET error_count = 0 WHERE user_id = $1 AND provider = $2 AND is_active = TRUE`
	_, err := r.db.ExecContext(ctx, query, userID, provider)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// Deactivate soft-deletes the account and clears its stored tokens.
func (r *socialAccountRepository) Deactivate(ctx context.Context, id, userID int64) error {
	query := `
		UPDATE social_accounts
		SET is_active = FALSE, token = '', refresh_token = '', page_token = '', updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`
	_, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *socialAccountRepository) DeactivateByProvider(ctx context.Context, userID int64, provider string) error {
	query := `
		UPDATE social_accounts
		SET is_active = FALSE, token = '', refresh_token = '', page_token = '', updated_at = NOW()
		WHERE user_id = $1 AND provider = $2
	`
	_, err := r.db.ExecContext(ctx, query, userID, provider)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *socialAccountRepository) CheckByUserID(ctx context.Context, id, userID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM social_accounts WHERE id = $1 AND user_id = $2 AND is_active = TRUE)`
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(&exists)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return exists, nil
}
