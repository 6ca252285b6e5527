// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"sync"
	"time"

	"dealmatch-workers/internal/common/metrics"
	"dealmatch-workers/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// JobHandler is implemented by every worker package.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

type WorkerOptions struct {
	MaxJobsActive int
	Timeout       time.Duration
}

// Job outcomes as reported to metrics.
const (
	OutcomeCompleted  = "completed"
	OutcomeFailed     = "failed"
	OutcomeBPMNError  = "bpmn_error"
	OutcomeUnreported = "unreported"
)

// OpenWorker starts polling taskType with handler wrapped by Instrument.
func OpenWorker(client zbc.Client, taskType string, opts WorkerOptions, handler JobHandler, obs *observability.Observability, log *zap.Logger) worker.JobWorker {
	jw := client.NewJobWorker().
		JobType(taskType).
		Handler(Instrument(taskType, handler, obs)).
		MaxJobsActive(opts.MaxJobsActive).
		Timeout(opts.Timeout).
		Open()

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", opts.MaxJobsActive),
		zap.Duration("timeout", opts.Timeout),
	)
	return jw
}

// Instrument wraps handler so each job is traced, timed and counted by outcome.
// The outcome is read from whichever command the handler issued on the job client.
func Instrument(taskType string, handler JobHandler, obs *observability.Observability) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		active := metrics.WorkerJobsActive.WithLabelValues(taskType)
		active.Inc()
		defer active.Dec()

		ctx, span := obs.StartSpan(context.Background(), taskType,
			attribute.Int64("job.key", job.Key),
			attribute.Int64("process.instance.key", job.ProcessInstanceKey),
			attribute.Int64("job.retries", int64(job.Retries)),
		)
		defer span.End()

		tracked := &outcomeClient{JobClient: client}
		start := time.Now()
		handler.Handle(tracked, job)
		elapsed := time.Since(start)

		outcome := tracked.outcome()
		metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())
		if outcome == OutcomeCompleted {
			metrics.WorkerJobsCompleted.WithLabelValues(taskType).Inc()
		} else {
			metrics.WorkerJobsFailed.WithLabelValues(taskType, outcome).Inc()
			span.SetStatus(codes.Error, outcome)
		}
		span.SetAttributes(attribute.String("job.outcome", outcome))

		obs.RecordJobProcessed(ctx, taskType, outcome)
		obs.RecordJobDuration(ctx, taskType, elapsed, outcome)
	}
}

type outcomeClient struct {
	worker.JobClient

	mu     sync.Mutex
	status string
}

func (c *outcomeClient) set(status string) {
	c.mu.Lock()
	c.status = status
	c.mu.Unlock()
}

func (c *outcomeClient) outcome() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == "" {
		return OutcomeUnreported
	}
	return c.status
}

func (c *outcomeClient) NewCompleteJobCommand() commands.CompleteJobCommandStep1 {
	c.set(OutcomeCompleted)
	return c.JobClient.NewCompleteJobCommand()
}

func (c *outcomeClient) NewFailJobCommand() commands.FailJobCommandStep1 {
	c.set(OutcomeFailed)
	return c.JobClient.NewFailJobCommand()
}

func (c *outcomeClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	c.set(OutcomeBPMNError)
	return c.JobClient.NewThrowErrorCommand()
}
