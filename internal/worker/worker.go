package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/meshmind/meshmind/internal/queue"
	"github.com/meshmind/meshmind/internal/service"
)

// Worker drains the ingest queue with a fixed pool of goroutines. Each
// job runs to completion; cancellation is only observed between jobs and
// inside the pipeline's own context checks.
type Worker struct {
	q       queue.Queue
	ingest  *service.IngestService
	workers int
	wg      sync.WaitGroup
}

func New(q queue.Queue, ingest *service.IngestService, workers int) *Worker {
	if workers <= 0 {
		workers = 1
	}
	return &Worker{q: q, ingest: ingest, workers: workers}
}

func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go func(id int) {
			defer w.wg.Done()
			w.run(ctx, id)
		}(i)
	}
}

// Wait blocks until all worker goroutines have exited.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context, id int) {
	logger := logutil.GetLogger(ctx).With(zap.Int("worker", id))
	logger.Info("ingest worker started")
	for {
		msg, err := w.q.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				logger.Info("ingest worker stopped")
				return
			}
			logger.Error("dequeue failed", zap.Error(err))
			continue
		}
		// Process reports failures on the job record; the error here is
		// only for the log.
		if err := w.ingest.Process(ctx, msg); err != nil {
			logger.Error("process job", zap.String("job_id", msg.JobID), zap.Error(err))
		}
	}
}
