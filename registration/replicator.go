package registration

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sports-festival/festival-registration/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type ReplicationTask func(ctx context.Context) error

type replicationJob struct {
	name string
	task ReplicationTask
}

// Replicator runs best-effort writes to the remote checkpoint in the
// background. Every task runs at most once: a full queue drops the task and a
// failed task is logged and not retried. Tasks run on several workers, so two
// tasks for the same email may finish in either order.
type Replicator struct {
	logger      *slog.Logger
	tracer      trace.Tracer
	jobs        chan replicationJob
	workers     int
	taskTimeout time.Duration

	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

func NewReplicator(logger *slog.Logger, workers int, queueSize int) *Replicator {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = workers * 4
	}
	return &Replicator{
		logger:      logger,
		tracer:      otel.Tracer("github.com/sports-festival/festival-registration/registration"),
		jobs:        make(chan replicationJob, queueSize),
		workers:     workers,
		taskTimeout: 10 * time.Second,
	}
}

func (r *Replicator) Start(ctx context.Context) {
	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go func(id int) {
			defer r.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case job, ok := <-r.jobs:
					if !ok {
						return
					}
					r.run(ctx, id, job)
				}
			}
		}(i)
	}
}

func (r *Replicator) run(ctx context.Context, worker int, job replicationJob) {
	ctx, span := r.tracer.Start(ctx, "replicate "+job.name, trace.WithAttributes(attribute.Int("worker", worker)))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, r.taskTimeout)
	defer cancel()

	err := job.task(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.IncReplication(job.name, "failed")
		r.logger.Warn("replication task failed",
			slog.String("task", job.name),
			slog.Int("worker", worker),
			slog.String("error", err.Error()))
		return
	}

	metrics.IncReplication(job.name, "succeeded")
}

// Enqueue hands task to the workers without waiting. It reports false when the
// task was dropped.
func (r *Replicator) Enqueue(name string, task ReplicationTask) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		metrics.IncReplication(name, "dropped")
		r.logger.Warn("replicator is closed, dropping task", slog.String("task", name))
		return false
	}

	select {
	case r.jobs <- replicationJob{name: name, task: task}:
		return true
	default:
		metrics.IncReplication(name, "dropped")
		r.logger.Warn("replication queue full, dropping task", slog.String("task", name))
		return false
	}
}

// Close stops accepting tasks and waits for the queued ones to finish.
func (r *Replicator) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.jobs)
	}
	r.mu.Unlock()

	r.wg.Wait()
}
