// Package notify implements the notification composition pipeline: given an
// event kind, its recipients and its properties, each notifier composes and
// delivers a notification over one channel (mail, in-app, webhook). The
// Service fans an event out to every notifier and routes the work items they
// return.
package notify

import (
	"context"

	"stream-notify/internal/domain/entity"
)

// Notifier composes and delivers notifications for one channel.
//
// Thread Safety:
//   - All methods must be safe for concurrent use by multiple goroutines
//
// Error Contract:
//   - A missing template for the kind is a silent no-op, not an error
//   - Per-recipient delivery problems are logged and skipped; Notify only
//     fails on errors that invalidate the whole batch (template render,
//     storage outage)
type Notifier interface {
	// Name returns the channel identifier (e.g. "mail", "inapp", "webhook").
	// Used for logging and metrics.
	Name() string

	// Notify composes notifications of the given kind for the recipients and
	// delivers them (or stages them for delivery).
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout control
	//   - kind: The event kind being notified about
	//   - recipients: Recipient person IDs, in notification order
	//   - properties: Per-event named values merged over the process globals
	//   - index: Recipients resolved ahead of time; IDs absent from the index
	//     could not be resolved and are skipped
	//
	// Returns:
	//   - []entity.WorkItem: Deferred work for asynchronous consumers, nil
	//     when the channel delivers inline or had nothing to do
	//   - error: Non-nil only for whole-batch failures
	Notify(ctx context.Context, kind entity.Kind, recipients []int64, properties map[string]any, index entity.RecipientIndex) ([]entity.WorkItem, error)
}
