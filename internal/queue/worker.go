package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/socialhub-app/socialhub/internal/models"
)

func (j *Queue) HandleDispatchPostTask(ctx context.Context, task *asynq.Task) error {
	var payload DispatchPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	result, err := j.ps.Dispatch(ctx, payload.PostID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if result.Status == models.PostStatusPending {
		// Delivered before the post was due. Let asynq redeliver it.
		err := fmt.Errorf("post %d not due yet", result.PostID)
		slog.Info(err.Error())
		return err
	}

	slog.Info("post dispatched", "post_id", result.PostID, "status", result.Status)
	return nil
}
