package notify

import (
	"context"
	"fmt"
	"log/slog"

	"stream-notify/internal/domain/entity"
	"stream-notify/internal/render"
	"stream-notify/internal/repository"
)

// InAppNotifier stores one alert row per resolved recipient and refreshes
// each recipient's cached unread count. Delivery is inline; it returns no
// work items.
//
// Kinds with an aggregate template fold repeat events into the recipient's
// existing unread row instead of stacking new ones: the row's message is
// rewritten and its aggregation count bumped.
type InAppNotifier struct {
	repo       repository.InAppNotificationRepository
	people     repository.PersonRepository
	resync     repository.UnreadCountResynchronizer
	engine     *render.Engine
	templates  map[entity.Kind]string
	aggregates map[entity.Kind]string
	globals    map[string]any
	logger     *slog.Logger
}

// NewInAppNotifier creates an in-app notifier. templates maps each kind to an
// inline message template; aggregates maps aggregating kinds to the message
// template used when folding into an existing row. Kinds present in neither
// table are skipped. resync may be nil when no unread-count cache is
// deployed.
func NewInAppNotifier(repo repository.InAppNotificationRepository, people repository.PersonRepository, resync repository.UnreadCountResynchronizer, engine *render.Engine, templates, aggregates map[entity.Kind]string, globals map[string]any, logger *slog.Logger) *InAppNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &InAppNotifier{
		repo:       repo,
		people:     people,
		resync:     resync,
		engine:     engine,
		templates:  templates,
		aggregates: aggregates,
		globals:    globals,
		logger:     logger,
	}
}

// Name implements Notifier.
func (n *InAppNotifier) Name() string { return "inapp" }

// Notify renders the alert message once, then stores a per-recipient clone so
// every recipient sees identical content. Each recipient is resolved through
// the person lookup first; recipients that no longer resolve get no row. A
// storage failure for one recipient is logged and does not block the others.
func (n *InAppNotifier) Notify(ctx context.Context, kind entity.Kind, recipients []int64, properties map[string]any, _ entity.RecipientIndex) ([]entity.WorkItem, error) {
	messageTemplate, aggregating := n.aggregates[kind]
	if !aggregating {
		var ok bool
		messageTemplate, ok = n.templates[kind]
		if !ok {
			n.logger.Debug("no in-app template for kind, skipping",
				slog.String("kind", string(kind)))
			return nil, nil
		}
	}
	if len(recipients) == 0 {
		return nil, nil
	}

	rctx := render.Layer(n.globals, properties)
	rctx[render.KindKey] = string(kind)
	rctx.WithSelf()

	message, err := n.engine.EvaluateInline(rctx, "inapp-message-"+string(kind), messageTemplate)
	if err != nil {
		return nil, fmt.Errorf("in-app message: %w", err)
	}

	base := n.buildAlert(kind, message, properties)

	stored := 0
	for _, recipientID := range recipients {
		person, err := n.people.Get(ctx, recipientID)
		if err != nil {
			n.logger.Error("in-app recipient lookup failed, skipping",
				slog.String("kind", string(kind)),
				slog.Int64("recipient_id", recipientID),
				slog.Any("error", err))
			continue
		}
		if person == nil {
			n.logger.Warn("in-app recipient not found, skipping",
				slog.String("kind", string(kind)),
				slog.Int64("recipient_id", recipientID))
			continue
		}

		alert := base.CloneForRecipient(person.ID)
		if err := n.store(ctx, alert, aggregating); err != nil {
			n.logger.Error("in-app alert store failed, continuing",
				slog.String("kind", string(kind)),
				slog.Int64("recipient_id", person.ID),
				slog.Any("error", err))
			continue
		}
		stored++
		if n.resync == nil {
			continue
		}
		if err := n.resync.Resync(ctx, person.ID); err != nil {
			n.logger.Error("unread count resync failed, continuing",
				slog.String("kind", string(kind)),
				slog.Int64("recipient_id", person.ID),
				slog.Any("error", err))
		}
	}

	n.logger.Info("in-app alerts stored",
		slog.String("kind", string(kind)),
		slog.Int("stored", stored),
		slog.Int("recipients", len(recipients)))
	return nil, nil
}

// store persists one recipient's alert. For aggregating kinds an existing
// unread row for the same event source absorbs the alert: its message is
// replaced and its aggregation count bumped. Everything else inserts fresh.
func (n *InAppNotifier) store(ctx context.Context, alert *entity.InAppNotification, aggregating bool) error {
	if aggregating {
		existing, err := n.repo.FindExisting(ctx, alert)
		if err != nil {
			return err
		}
		if existing != nil {
			existing.Message = alert.Message
			existing.AggregationCount++
			return n.repo.Update(ctx, existing)
		}
	}
	return n.repo.Insert(ctx, alert)
}

// buildAlert assembles the alert fields shared by every recipient. Descriptor
// fields stay at their NOTSET defaults when the SOURCE or ACTOR property does
// not expose the Identifiable capability.
func (n *InAppNotifier) buildAlert(kind entity.Kind, message string, properties map[string]any) *entity.InAppNotification {
	alert := &entity.InAppNotification{
		Kind:            kind,
		Message:         message,
		SourceType:      entity.EntityTypeNotSet,
		AvatarOwnerType: entity.EntityTypeNotSet,
	}
	if url, ok := properties[entity.PropURL].(string); ok {
		alert.URL = url
	}
	if high, ok := properties[entity.PropHighPriority].(bool); ok {
		alert.HighPriority = high
	}
	if source, ok := properties[entity.PropSource].(entity.Identifiable); ok {
		alert.SourceType = source.EntityType()
		alert.SourceUniqueID = source.UniqueID()
		alert.SourceName = source.DisplayName()
	}
	if actor, ok := properties[entity.PropActor].(entity.Identifiable); ok {
		alert.AvatarOwnerType = actor.EntityType()
		alert.AvatarOwnerUniqueID = actor.UniqueID()
	}
	return alert
}
