// Package entity defines the core domain entities for the notification
// pipeline: notification kinds, recipients, the properties bag contract,
// and the per-channel artifacts produced by the notifiers.
package entity

import "time"

// Kind identifies the type of event a notification was raised for.
// It is the lookup key for every per-channel template table; a kind with no
// template entry in a channel is simply not delivered on that channel.
type Kind string

// The closed set of notification kinds.
const (
	KindPostToStream     Kind = "POST_TO_STREAM"
	KindCommentOnPost    Kind = "COMMENT_ON_POST"
	KindCommentToAuthor  Kind = "COMMENT_TO_AUTHOR"
	KindMention          Kind = "MENTION"
	KindAddedToGroup     Kind = "ADDED_TO_GROUP"
	KindGroupPost        Kind = "GROUP_POST"
	KindFollowed         Kind = "FOLLOWED"
	KindLikedPost        Kind = "LIKED_POST"
)

// KnownKinds lists every valid kind, in a stable order. It is used by
// configuration loading to reject template tables keyed by unknown kinds.
func KnownKinds() []Kind {
	return []Kind{
		KindPostToStream,
		KindCommentOnPost,
		KindCommentToAuthor,
		KindMention,
		KindAddedToGroup,
		KindGroupPost,
		KindFollowed,
		KindLikedPost,
	}
}

// Well-known property keys. The properties bag is opaque to the pipeline
// except where a notifier interprets one of these.
const (
	// PropURL is the URL the notification should link to.
	PropURL = "url"

	// PropHighPriority marks the notification as high priority (bool).
	PropHighPriority = "highPriority"

	// PropSource is the entity the event happened in (stream, group, ...).
	// In-app notifications record its descriptor when the value implements
	// Identifiable.
	PropSource = "source"

	// PropActor is the entity that triggered the event. Used for avatar
	// descriptors and, for mail, the reply-to-actor policy.
	PropActor = "actor"
)

// EntityType classifies an identifiable entity referenced by a notification.
type EntityType string

const (
	EntityTypeNotSet EntityType = "NOTSET"
	EntityTypePerson EntityType = "PERSON"
	EntityTypeGroup  EntityType = "GROUP"
)

// Identifiable is the optional capability a SOURCE or ACTOR property value
// may expose. When a property value implements it, the in-app notifier
// records the corresponding descriptor fields; otherwise they are omitted.
type Identifiable interface {
	EntityType() EntityType
	UniqueID() string
	DisplayName() string
}

// HasEmail is the optional capability the mail notifier checks on the ACTOR
// property when the template's reply policy is reply-to-actor.
type HasEmail interface {
	EmailAddress() string
}

// Person is a lightweight person record. The recipient index supplies one per
// recipient for address resolution; the placeholder lookup supplies one as a
// storable reference for in-app rows and webhook payloads.
type Person struct {
	ID          int64
	AccountID   string
	DisplayName string
	Email       string
	AvatarID    string
	Locked      bool
}

// RecipientIndex maps recipient IDs to person records. It is a superset of
// the recipient set of a single notify call; lookups may still miss (deleted
// accounts), which is not an error.
type RecipientIndex map[int64]*Person

// InAppNotification is one persisted in-app alert row, one per
// (notification, recipient) pair. Created by the in-app notifier and owned
// by storage thereafter.
type InAppNotification struct {
	ID           int64
	RecipientID  int64
	Kind         Kind
	Message      string
	URL          string
	HighPriority bool

	// Source descriptor, recorded when the SOURCE property is Identifiable.
	SourceType     EntityType
	SourceUniqueID string
	SourceName     string

	// Avatar owner descriptor, recorded when the ACTOR property is Identifiable.
	AvatarOwnerType     EntityType
	AvatarOwnerUniqueID string

	// AggregationCount is the number of later events folded into this row.
	// Zero for a freshly stored alert; each aggregated event bumps it by one.
	AggregationCount int

	Read      bool
	CreatedAt time.Time
}

// CloneForRecipient returns a copy of the notification with only the
// recipient reference swapped. The in-app notifier builds the fields once per
// event and clones for each additional recipient, so content is guaranteed
// identical across all recipients of the same event.
func (n *InAppNotification) CloneForRecipient(recipientID int64) *InAppNotification {
	clone := *n
	clone.ID = 0
	clone.RecipientID = recipientID
	return &clone
}
