package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"

	"finflow/queue"
	"finflow/utils"
)

// Handler executes one task. A nil return acknowledges the task; an error
// schedules a retry until the queue's attempt cap is reached.
type Handler func(ctx context.Context, task *queue.Task) error

// Worker consumes the durable queue outside the request/response cycle,
// dispatching tasks to registered handlers by kind.
type Worker struct {
	queue    *queue.Queue
	handlers map[string]Handler
	logger   *logrus.Logger
}

func New(q *queue.Queue, logger *logrus.Logger) *Worker {
	return &Worker{
		queue:    q,
		handlers: make(map[string]Handler),
		logger:   logger,
	}
}

func (w *Worker) Register(kind string, handler Handler) {
	w.handlers[kind] = handler
}

// Start runs the consume loop until the context is cancelled.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Background worker started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Background worker shutting down...")
			return
		default:
		}

		task, err := w.queue.Dequeue(ctx, time.Second)
		if errors.Is(err, queue.ErrEmpty) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.WithError(err).Error("Failed to dequeue task")
			time.Sleep(time.Second)
			continue
		}

		w.process(ctx, task)
	}
}

func (w *Worker) process(ctx context.Context, task *queue.Task) {
	log := w.logger.WithFields(logrus.Fields{
		"task_id": task.ID,
		"kind":    task.Kind,
		"attempt": task.Attempt,
	})

	handler, ok := w.handlers[task.Kind]
	if !ok {
		log.Warn("No handler registered for task kind, dropping")
		return
	}

	err := handler(ctx, task)
	if err == nil {
		log.Info("Task processed")
		return
	}

	log.WithError(err).Error("Task failed")

	retried, retryErr := w.queue.Retry(ctx, task)
	if retryErr != nil {
		log.WithError(retryErr).Error("Failed to schedule task retry")
		return
	}

	if retried {
		utils.TaskRetriesTotal.WithLabelValues(task.Kind).Inc()
		return
	}

	// Retries exhausted; the task sits in the dead-letter list for
	// operational inspection.
	log.Error("Task moved to dead-letter queue")
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("task_kind", task.Kind)
		scope.SetExtra("task_id", task.ID)
		sentry.CaptureException(fmt.Errorf("task %s (%s) exhausted retries: %w", task.ID, task.Kind, err))
	})
}
