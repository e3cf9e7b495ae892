package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"stream-notify/internal/domain/entity"
	"stream-notify/internal/infra/queue"
	"stream-notify/internal/observability/logging"
	"stream-notify/internal/observability/tracing"
	"stream-notify/internal/repository"
)

const (
	workerPoolTimeout   = 5 * time.Second  // Timeout for acquiring a worker slot
	notificationTimeout = 30 * time.Second // Timeout for one channel's Notify
)

// Service fans a notification event out to every channel notifier, collects
// their results, and routes the work items they return to the queue.
type Service interface {
	// Dispatch notifies all channels about one event. Channels run
	// concurrently; the call returns once every channel has finished, with
	// their failures joined into one error. A channel failure never prevents
	// the other channels from delivering.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout control
	//   - kind: The event kind (must be one of the known kinds)
	//   - recipients: Recipient person IDs, at least one
	//   - properties: Per-event named values layered over process globals
	//
	// Returns:
	//   - error: ErrUnknownKind / ErrNoRecipients for invalid input, joined
	//     channel errors otherwise
	Dispatch(ctx context.Context, kind entity.Kind, recipients []int64, properties map[string]any) error

	// Shutdown waits for in-flight dispatches to finish or the context to
	// expire, then stops accepting work.
	Shutdown(ctx context.Context) error
}

// service is the concrete implementation of the Service interface.
type service struct {
	notifiers  []Notifier
	people     repository.PersonRepository
	queue      *queue.Queue
	workerPool chan struct{} // Semaphore limiting concurrent channel sends
	logger     *slog.Logger
	tracer     trace.Tracer

	wg             sync.WaitGroup
	shutdownCtx    context.Context
	shutdownCancel context.CancelFunc
}

// NewService creates the dispatcher.
//
// Parameters:
//   - notifiers: The channel notifiers to fan out to
//   - people: Recipient resolution for the shared recipient index
//   - workQueue: Destination for work items; may be nil when no channel
//     produces deferred work
//   - maxConcurrent: Maximum concurrent channel sends across all dispatches
func NewService(notifiers []Notifier, people repository.PersonRepository, workQueue *queue.Queue, maxConcurrent int, logger *slog.Logger) Service {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())
	return &service{
		notifiers:      notifiers,
		people:         people,
		queue:          workQueue,
		workerPool:     make(chan struct{}, maxConcurrent),
		logger:         logger,
		tracer:         tracing.GetTracer(),
		shutdownCtx:    shutdownCtx,
		shutdownCancel: shutdownCancel,
	}
}

// Dispatch implements Service.Dispatch.
func (s *service) Dispatch(ctx context.Context, kind entity.Kind, recipients []int64, properties map[string]any) error {
	if !slices.Contains(entity.KnownKinds(), kind) {
		return fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	if len(recipients) == 0 {
		return ErrNoRecipients
	}

	// Inherit the request ID when the caller already has one.
	requestID := logging.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.New().String()
		ctx = logging.ContextWithRequestID(ctx, requestID)
	}

	ctx, span := s.tracer.Start(ctx, "notify.Dispatch",
		trace.WithAttributes(
			attribute.String("notification.kind", string(kind)),
			attribute.Int("notification.recipients", len(recipients)),
		))
	defer span.End()

	index, err := s.people.FindByIDs(ctx, recipients)
	if err != nil {
		return fmt.Errorf("resolve recipients: %w", err)
	}

	s.logger.Info("dispatching notification event",
		slog.String("request_id", requestID),
		slog.String("kind", string(kind)),
		slog.Int("recipients", len(recipients)),
		slog.Int("resolved", len(index)),
		slog.Int("channels", len(s.notifiers)))

	var (
		mu   sync.Mutex
		errs []error
	)
	var dispatchWG sync.WaitGroup
	for _, notifier := range s.notifiers {
		dispatchWG.Add(1)
		s.wg.Add(1)
		go func(n Notifier) {
			defer dispatchWG.Done()
			defer s.wg.Done()
			if err := s.notifyChannel(ctx, requestID, n, kind, recipients, properties, index); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
				mu.Unlock()
			}
		}(notifier)
	}
	dispatchWG.Wait()
	return errors.Join(errs...)
}

// notifyChannel runs one channel's Notify with panic recovery, the worker
// pool limit, and metrics.
func (s *service) notifyChannel(ctx context.Context, requestID string, notifier Notifier, kind entity.Kind, recipients []int64, properties map[string]any, index entity.RecipientIndex) (err error) {
	IncrementActiveGoroutines()
	defer DecrementActiveGoroutines()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic in notification channel",
				slog.String("request_id", requestID),
				slog.String("channel", notifier.Name()),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			err = fmt.Errorf("panic in channel %s: %v", notifier.Name(), r)
		}
	}()

	// Acquire a worker slot, but never block the dispatch path for long.
	select {
	case s.workerPool <- struct{}{}:
		defer func() { <-s.workerPool }()
	case <-time.After(workerPoolTimeout):
		s.logger.Warn("notification dropped, worker pool full",
			slog.String("request_id", requestID),
			slog.String("channel", notifier.Name()))
		RecordDropped(notifier.Name(), "pool_full")
		return ErrNotificationDropped
	case <-s.shutdownCtx.Done():
		RecordDropped(notifier.Name(), "shutdown")
		return ErrNotificationDropped
	}

	notifyCtx, cancel := context.WithTimeout(ctx, notificationTimeout)
	defer cancel()

	RecordDispatch(notifier.Name())
	start := time.Now()
	items, err := notifier.Notify(notifyCtx, kind, recipients, properties, index)
	duration := time.Since(start)
	if err != nil {
		RecordFailure(notifier.Name(), duration)
		s.logger.Warn("channel notify failed",
			slog.String("request_id", requestID),
			slog.String("channel", notifier.Name()),
			slog.String("kind", string(kind)),
			slog.Duration("duration", duration),
			slog.Any("error", err))
		return err
	}
	RecordSuccess(notifier.Name(), duration)

	if len(items) > 0 {
		RecordWorkItems(notifier.Name(), len(items))
		if s.queue == nil {
			return fmt.Errorf("channel %s produced work items but no queue is configured", notifier.Name())
		}
		if err := s.queue.Enqueue(items...); err != nil {
			return fmt.Errorf("enqueue work items: %w", err)
		}
	}

	s.logger.Info("channel notify succeeded",
		slog.String("request_id", requestID),
		slog.String("channel", notifier.Name()),
		slog.String("kind", string(kind)),
		slog.Int("work_items", len(items)),
		slog.Duration("duration", duration))
	return nil
}

// Shutdown implements Service.Shutdown.
func (s *service) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down notification dispatcher")
	s.shutdownCancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		if s.queue != nil {
			s.queue.Close()
		}
		s.logger.Info("notification dispatcher shutdown complete")
		return nil
	case <-ctx.Done():
		s.logger.Warn("notification dispatcher shutdown timeout")
		return ctx.Err()
	}
}
