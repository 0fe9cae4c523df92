package job

import (
	"context"
	"time"

	"github.com/meshmind/meshmind/internal/repo"
)

type ChatHistoryCleanupJob struct {
	history  *repo.ChatHistoryRepo
	keepDays int
}

func NewChatHistoryCleanupJob(history *repo.ChatHistoryRepo, keepDays int) *ChatHistoryCleanupJob {
	return &ChatHistoryCleanupJob{history: history, keepDays: keepDays}
}

func (j *ChatHistoryCleanupJob) Name() string {
	return "chat_history_cleanup"
}

func (j *ChatHistoryCleanupJob) Run(ctx context.Context) error {
	if j.history == nil || j.keepDays <= 0 {
		return nil
	}
	cutoff := time.Now().Add(-time.Duration(j.keepDays) * 24 * time.Hour).Unix()
	_, err := j.history.DeleteBefore(ctx, cutoff)
	return err
}
