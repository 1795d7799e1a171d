package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"github.com/socialhub-app/socialhub/internal/models"
	"github.com/socialhub-app/socialhub/internal/repository"
	"github.com/socialhub-app/socialhub/internal/transfer"
)

type PostService interface {
	CreatePost(ctx context.Context, userID int64, pc *transfer.PostCreation, image *multipart.FileHeader) (int64, time.Duration, error)
	List(ctx context.Context, userID int64) ([]models.Post, error)
	PostInfo(ctx context.Context, postID, userID int64) (*models.Post, []models.PostAccount, error)
	Remove(ctx context.Context, userID, postID int64) error
}

type postService struct {
	db    *sql.DB
	pr    repository.PostRepository
	pa    repository.PostAccountRepository
	ac    repository.SocialAccountRepository
	media *MediaService
}

func NewPostService(
	db *sql.DB,
	pr repository.PostRepository,
	pa repository.PostAccountRepository,
	ac repository.SocialAccountRepository,
	media *MediaService) PostService {
	return &postService{
		db:    db,
		pr:    pr,
		pa:    pa,
		ac:    ac,
		media: media,
	}
}

// CreatePost validates and stores the post together with one pending entry
// per selected account. It returns the post id and how long dispatch should
// be deferred; zero means publish now.
func (s *postService) CreatePost(ctx context.Context, userID int64, pc *transfer.PostCreation, image *multipart.FileHeader) (int64, time.Duration, error) {
	if pc == nil {
		err := errors.New("post creation data is nil")
		slog.Error(err.Error())
		return 0, 0, err
	}
	if pc.Content == "" {
		err := errors.New("content cannot be empty")
		slog.Info(err.Error())
		return 0, 0, err
	}

	accountIDs, err := parseAccountIDs(pc.SelectedAccounts)
	if err != nil {
		slog.Info(err.Error())
		return 0, 0, err
	}
	if len(accountIDs) == 0 {
		err := errors.New("no accounts selected")
		slog.Info(err.Error())
		return 0, 0, err
	}

	for _, id := range accountIDs {
		owned, err := s.ac.CheckByUserID(ctx, id, userID)
		if err != nil {
			return 0, 0, err
		}
		if !owned {
			err := fmt.Errorf("account %d is not connected", id)
			slog.Info(err.Error())
			return 0, 0, err
		}
	}

	scheduledAt, delay, err := scheduleDelay(pc.ScheduledAt, time.Now())
	if err != nil {
		slog.Info(err.Error())
		return 0, 0, err
	}

	var imageURL string
	if image != nil {
		imageURL, err = s.media.UploadImage(ctx, image)
		if err != nil {
			return 0, 0, err
		}
	}

	status := models.PostStatusPending

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		slog.Info(err.Error())
		return 0, 0, err
	}
	defer tx.Rollback()

	post := &models.Post{
		UserID:      userID,
		Content:     pc.Content,
		ImageURL:    imageURL,
		ScheduledAt: scheduledAt,
		Status:      status,
	}
	postID, err := s.pr.Create(ctx, tx, post)
	if err != nil {
		return 0, 0, err
	}

	for _, accountID := range accountIDs {
		_, err := s.pa.Create(ctx, tx, &models.PostAccount{
			PostID:    postID,
			AccountID: accountID,
			Status:    models.PostStatusPending,
		})
		if err != nil {
			return 0, 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Info(err.Error())
		return 0, 0, err
	}

	return postID, delay, nil
}

// scheduleDelay parses the optional schedule timestamp and reports how long
// dispatch should wait. Past or absent timestamps mean publish now.
func scheduleDelay(raw string, now time.Time) (*time.Time, time.Duration, error) {
	if raw == "" {
		return nil, 0, nil
	}
	t, err := time.Parse("2006-01-02T15:04", raw)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid scheduled time format: %w", err)
	}
	if d := t.Sub(now); d > 0 {
		return &t, d, nil
	}
	return &t, 0, nil
}

func parseAccountIDs(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	seen := make(map[int64]bool)
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid account id %q", p)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *postService) List(ctx context.Context, userID int64) ([]models.Post, error) {
	return s.pr.GetByUserID(ctx, userID)
}

func (s *postService) PostInfo(ctx context.Context, postID, userID int64) (*models.Post, []models.PostAccount, error) {
	owned, err := s.pr.CheckByUserID(ctx, postID, userID)
	if err != nil {
		return nil, nil, err
	}
	if !owned {
		err := errors.New("post not found")
		slog.Info(err.Error())
		return nil, nil, err
	}

	post, _, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, nil, err
	}
	entries, err := s.pa.ListByPostID(ctx, postID)
	if err != nil {
		return nil, nil, err
	}
	return post, entries, nil
}

func (s *postService) Remove(ctx context.Context, userID, postID int64) error {
	owned, err := s.pr.CheckByUserID(ctx, postID, userID)
	if err != nil {
		return err
	}
	if !owned {
		err := errors.New("post not found")
		slog.Info(err.Error())
		return err
	}
	return s.pr.Remove(ctx, postID, userID)
}
