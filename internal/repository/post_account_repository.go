package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/socialhub-app/socialhub/internal/models"
)

type PostAccountRepository interface {
	Create(ctx context.Context, tx *sql.Tx, pa *models.PostAccount) (int64, error)
	ListByPostID(ctx context.Context, postID int64) ([]models.PostAccount, error)
	SetOutcome(ctx context.Context, id int64, status, externalPostID, errorMessage string, publishedAt *time.Time) error
}

type postAccountRepository struct {
	db *sql.DB
}

func NewPostAccountRepository(db *sql.DB) PostAccountRepository {
	return &postAccountRepository{db: db}
}

func (r *postAccountRepository) Create(ctx context.Context, tx *sql.Tx, pa *models.PostAccount) (int64, error) {
	query := `
		INSERT INTO post_accounts (post_id, account_id, status)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	var err error
	var id int64

	if tx != nil {
		err = tx.QueryRowContext(ctx, query, pa.PostID, pa.AccountID, pa.Status).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, pa.PostID, pa.AccountID, pa.Status).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *postAccountRepository) ListByPostID(ctx context.Context, postID int64) ([]models.PostAccount, error) {
	query := `SELECT id, post_id, account_id, status, external_post_id, error_message, published_at, created_at, updated_at
		FROM post_accounts WHERE post_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var entries []models.PostAccount
	for rows.Next() {
		var pa models.PostAccount
		err := rows.Scan(&pa.ID, &pa.PostID, &pa.AccountID, &pa.Status,
			&pa.ExternalPostID, &pa.ErrorMessage, &pa.PublishedAt, &pa.CreatedAt, &pa.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		entries = append(entries, pa)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return entries, nil
}

func (r *postAccountRepository) SetOutcome(ctx context.Context, id int64, status, externalPostID, errorMessage string, publishedAt *time.Time) error {
	query := `
		UPDATE post_accounts
		SET status = $1, external_post_id = $2, error_message = $3, published_at = $4, updated_at = NOW()
		WHERE id = $5
	`
	_, err := r.db.ExecContext(ctx, query, status, externalPostID, errorMessage, publishedAt, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
