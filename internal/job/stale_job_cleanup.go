package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/meshmind/meshmind/internal/repo"
)

// StaleJobCleanup fails ingest jobs that have been queued or processing
// for too long, typically after a worker crash lost the queue message.
// The owning documents are failed along with their jobs.
type StaleJobCleanup struct {
	jobs       *repo.JobRepo
	maxAgeHrs  int
	defaultHrs int
}

func NewStaleJobCleanup(jobs *repo.JobRepo, maxAgeHours int) *StaleJobCleanup {
	return &StaleJobCleanup{jobs: jobs, maxAgeHrs: maxAgeHours, defaultHrs: 24}
}

func (j *StaleJobCleanup) Name() string {
	return "stale_job_cleanup"
}

func (j *StaleJobCleanup) Run(ctx context.Context) error {
	if j.jobs == nil {
		return nil
	}
	maxAge := j.maxAgeHrs
	if maxAge <= 0 {
		maxAge = j.defaultHrs
	}
	now := time.Now()
	cutoff := now.Add(-time.Duration(maxAge) * time.Hour).Unix()
	reaped, err := j.jobs.FailStale(ctx, cutoff, now.Unix())
	if err != nil {
		return err
	}
	if reaped > 0 {
		logutil.GetLogger(ctx).Info("stale jobs reaped", zap.Int64("count", reaped))
	}
	return nil
}
