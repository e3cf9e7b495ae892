package notify

import "errors"

// Sentinel errors for notify use case operations.
var (
	// ErrNoRecipients indicates a dispatch was requested with an empty
	// recipient list.
	ErrNoRecipients = errors.New("no recipients")

	// ErrUnknownKind indicates an event kind outside the known set.
	ErrUnknownKind = errors.New("unknown notification kind")

	// ErrNotificationDropped indicates a notification was dropped because the
	// worker pool was saturated. Non-critical, used for observability.
	ErrNotificationDropped = errors.New("notification dropped due to pool saturation")
)
