// Package queue provides the bounded in-process queue that carries work items
// produced by the notifiers to their asynchronous consumers, and the worker
// loop that drains it.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"stream-notify/internal/domain/entity"
)

// ErrQueueFull indicates the queue rejected a work item because its capacity
// was reached. The item is dropped; the caller decides whether that matters.
var ErrQueueFull = errors.New("work item queue full")

// ErrUnknownChannel indicates a work item named a channel key no handler is
// registered for.
var ErrUnknownChannel = errors.New("no handler for channel key")

// Handler consumes work items for one channel key.
type Handler func(ctx context.Context, item entity.WorkItem) error

// Metrics tracks queue activity.
type Metrics struct {
	Depth     prometheus.Gauge
	Dropped   prometheus.Counter
	Processed *prometheus.CounterVec
}

// NewMetrics creates and auto-registers the queue metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		Depth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "notify_work_queue_depth",
			Help: "Number of work items currently waiting in the queue",
		}),
		Dropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "notify_work_queue_dropped_total",
			Help: "Total number of work items rejected because the queue was full",
		}),
		Processed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "notify_work_queue_processed_total",
			Help: "Total number of work items processed by status (success/failure)",
		}, []string{"channel", "status"}),
	}
}

// Queue is a bounded FIFO of work items. Enqueue never blocks; when the queue
// is full the item is dropped and ErrQueueFull returned, so a slow consumer
// cannot stall the event dispatch path.
type Queue struct {
	items    chan entity.WorkItem
	handlers map[string]Handler
	metrics  *Metrics
	logger   *slog.Logger

	closeOnce sync.Once
}

// NewQueue creates a queue with the given capacity. metrics may be nil.
func NewQueue(capacity int, metrics *Metrics, logger *slog.Logger) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		items:    make(chan entity.WorkItem, capacity),
		handlers: make(map[string]Handler),
		metrics:  metrics,
		logger:   logger,
	}
}

// RegisterHandler binds a handler to a channel key. Must be called before Run.
func (q *Queue) RegisterHandler(channelKey string, handler Handler) {
	q.handlers[channelKey] = handler
}

// Enqueue adds work items to the queue. Returns ErrQueueFull for each item
// the queue had no room for; earlier items in the batch stay enqueued.
func (q *Queue) Enqueue(items ...entity.WorkItem) error {
	var errs []error
	for _, item := range items {
		select {
		case q.items <- item:
			if q.metrics != nil {
				q.metrics.Depth.Inc()
			}
		default:
			if q.metrics != nil {
				q.metrics.Dropped.Inc()
			}
			q.logger.Warn("work item dropped, queue full",
				slog.String("channel", item.ChannelKey))
			errs = append(errs, fmt.Errorf("%w: %s", ErrQueueFull, item.ChannelKey))
		}
	}
	return errors.Join(errs...)
}

// Run drains the queue until ctx is canceled and the queue is closed and
// empty. Handler failures are logged and do not stop the loop.
func (q *Queue) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			q.drain(context.WithoutCancel(ctx))
			return
		case item, ok := <-q.items:
			if !ok {
				return
			}
			q.process(ctx, item)
		}
	}
}

// Close stops accepting new work. Safe to call more than once.
func (q *Queue) Close() {
	q.closeOnce.Do(func() { close(q.items) })
}

// drain processes whatever is already buffered so shutdown does not lose
// accepted work.
func (q *Queue) drain(ctx context.Context) {
	for {
		select {
		case item, ok := <-q.items:
			if !ok {
				return
			}
			q.process(ctx, item)
		default:
			return
		}
	}
}

func (q *Queue) process(ctx context.Context, item entity.WorkItem) {
	if q.metrics != nil {
		q.metrics.Depth.Dec()
	}
	handler, ok := q.handlers[item.ChannelKey]
	if !ok {
		q.logger.Error("work item skipped",
			slog.String("channel", item.ChannelKey),
			slog.Any("error", ErrUnknownChannel))
		if q.metrics != nil {
			q.metrics.Processed.WithLabelValues(item.ChannelKey, "failure").Inc()
		}
		return
	}
	if err := handler(ctx, item); err != nil {
		q.logger.Error("work item handler failed",
			slog.String("channel", item.ChannelKey),
			slog.Any("error", err))
		if q.metrics != nil {
			q.metrics.Processed.WithLabelValues(item.ChannelKey, "failure").Inc()
		}
		return
	}
	if q.metrics != nil {
		q.metrics.Processed.WithLabelValues(item.ChannelKey, "success").Inc()
	}
}
