package repo

import (
	"context"
	"database/sql"

	"github.com/meshmind/meshmind/internal/model"
	appErr "github.com/meshmind/meshmind/internal/pkg/errors"
)

type JobRepo struct {
	db *sql.DB
}

func NewJobRepo(db *sql.DB) *JobRepo {
	return &JobRepo{db: db}
}

func (r *JobRepo) Create(ctx context.Context, job *model.Job) error {
	const query = `
		INSERT INTO jobs (id, document_id, user_id, status, step, chunks_done, chunks_total, error, ctime, mtime)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		job.ID,
		job.DocumentID,
		job.UserID,
		job.Status,
		job.Step,
		job.ChunksDone,
		job.ChunksTotal,
		job.Error,
		job.Ctime,
		job.Mtime,
	)
	return err
}

func (r *JobRepo) Get(ctx context.Context, userID, jobID string) (*model.Job, error) {
	const query = `
		SELECT id, document_id, user_id, status, step, chunks_done, chunks_total, error, ctime, mtime
		FROM jobs
		WHERE id = $1 AND user_id = $2
	`
	row := r.db.QueryRowContext(ctx, query, jobID, userID)
	var job model.Job
	if err := row.Scan(
		&job.ID,
		&job.DocumentID,
		&job.UserID,
		&job.Status,
		&job.Step,
		&job.ChunksDone,
		&job.ChunksTotal,
		&job.Error,
		&job.Ctime,
		&job.Mtime,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

func (r *JobRepo) UpdateStep(ctx context.Context, jobID, status, step string, mtime int64) error {
	const query = `UPDATE jobs SET status = $1, step = $2, mtime = $3 WHERE id = $4`
	return r.execOne(ctx, query, status, step, mtime, jobID)
}

func (r *JobRepo) UpdateProgress(ctx context.Context, jobID string, done, total int, mtime int64) error {
	const query = `UPDATE jobs SET chunks_done = $1, chunks_total = $2, mtime = $3 WHERE id = $4`
	return r.execOne(ctx, query, done, total, mtime, jobID)
}

func (r *JobRepo) MarkCompleted(ctx context.Context, jobID string, mtime int64) error {
	const query = `UPDATE jobs SET status = $1, step = $2, error = '', mtime = $3 WHERE id = $4`
	return r.execOne(ctx, query, model.JobStatusCompleted, model.JobStepDone, mtime, jobID)
}

func (r *JobRepo) MarkFailed(ctx context.Context, jobID, errText string, mtime int64) error {
	const query = `UPDATE jobs SET status = $1, error = $2, mtime = $3 WHERE id = $4`
	return r.execOne(ctx, query, model.JobStatusFailed, errText, mtime, jobID)
}

// FailStale marks jobs stuck in queued/processing since before the cutoff as
// failed, together with their documents so they do not stay in a processing
// status nothing will ever finish. The reaper job calls this on a schedule.
func (r *JobRepo) FailStale(ctx context.Context, cutoff int64, mtime int64) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()
	const docQuery = `
		UPDATE documents
		SET status = $1, error = 'stale job reaped', mtime = $2
		WHERE id IN (
			SELECT document_id FROM jobs WHERE status IN ($3, $4) AND mtime < $5
		)
	`
	if _, err := tx.ExecContext(ctx, docQuery,
		model.DocumentStatusFailed, mtime, model.JobStatusQueued, model.JobStatusProcessing, cutoff); err != nil {
		return 0, err
	}
	const jobQuery = `
		UPDATE jobs
		SET status = $1, error = 'stale job reaped', mtime = $2
		WHERE status IN ($3, $4) AND mtime < $5
	`
	res, err := tx.ExecContext(ctx, jobQuery,
		model.JobStatusFailed, mtime, model.JobStatusQueued, model.JobStatusProcessing, cutoff)
	if err != nil {
		return 0, err
	}
	reaped, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return reaped, nil
}

func (r *JobRepo) execOne(ctx context.Context, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}
