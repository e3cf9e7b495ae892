package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"stream-notify/internal/domain/entity"
	"stream-notify/internal/render"
	"stream-notify/internal/repository"
)

// Poster posts a JSON payload to a webhook endpoint. Implemented by the
// webhook HTTP client; mocked in tests.
type Poster interface {
	Post(ctx context.Context, endpoint, body string) error
}

// Endpoint is one configured webhook destination. The URL is a template:
// because template markers contain characters that are not URL-safe, it is
// stored URL-encoded and decoded before rendering.
type Endpoint struct {
	Name string
	// EncodedURL is the URL-encoded endpoint URL template.
	EncodedURL string
}

// WebhookNotifier pushes a JSON payload per recipient to every configured
// endpoint. Delivery problems never propagate: a recipient that cannot be
// resolved, a payload that cannot be posted, all of it is logged and skipped
// so one broken endpoint cannot take the channel down.
type WebhookNotifier struct {
	client    Poster
	people    repository.PersonRepository
	engine    *render.Engine
	templates map[entity.Kind]string
	endpoints []Endpoint
	globals   map[string]any
	logger    *slog.Logger
}

// NewWebhookNotifier creates a webhook notifier. templates maps each kind to
// an inline payload template; kinds without an entry are skipped.
func NewWebhookNotifier(client Poster, people repository.PersonRepository, engine *render.Engine, templates map[entity.Kind]string, endpoints []Endpoint, globals map[string]any, logger *slog.Logger) *WebhookNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookNotifier{
		client:    client,
		people:    people,
		engine:    engine,
		templates: templates,
		endpoints: endpoints,
		globals:   globals,
		logger:    logger,
	}
}

// Name implements Notifier.
func (w *WebhookNotifier) Name() string { return "webhook" }

// Notify renders and posts one payload per recipient. The recipient is looked
// up fresh for each payload so the posted reference reflects current person
// data; recipients that no longer resolve are skipped.
func (w *WebhookNotifier) Notify(ctx context.Context, kind entity.Kind, recipients []int64, properties map[string]any, _ entity.RecipientIndex) ([]entity.WorkItem, error) {
	payloadTemplate, ok := w.templates[kind]
	if !ok {
		w.logger.Debug("no webhook template for kind, skipping",
			slog.String("kind", string(kind)))
		return nil, nil
	}
	if len(w.endpoints) == 0 {
		return nil, nil
	}

	for _, recipientID := range recipients {
		person, err := w.people.Get(ctx, recipientID)
		if err != nil {
			w.logger.Error("webhook recipient lookup failed, skipping",
				slog.String("kind", string(kind)),
				slog.Int64("recipient_id", recipientID),
				slog.Any("error", err))
			continue
		}
		if person == nil {
			w.logger.Warn("webhook recipient not found, skipping",
				slog.String("kind", string(kind)),
				slog.Int64("recipient_id", recipientID))
			continue
		}

		rctx := render.Layer(w.globals, properties)
		rctx[render.KindKey] = string(kind)
		rctx[render.RecipientKey] = person
		rctx.WithSelf()

		body, err := w.engine.EvaluateInline(rctx, "webhook-payload-"+string(kind), payloadTemplate)
		if err != nil {
			return nil, fmt.Errorf("webhook payload: %w", err)
		}

		for _, endpoint := range w.endpoints {
			target, err := w.renderEndpoint(rctx, endpoint)
			if err != nil {
				w.logger.Error("webhook endpoint template failed, skipping",
					slog.String("endpoint", endpoint.Name),
					slog.Any("error", err))
				continue
			}
			if err := w.client.Post(ctx, target, body); err != nil {
				w.logger.Error("webhook post failed, continuing",
					slog.String("kind", string(kind)),
					slog.String("endpoint", endpoint.Name),
					slog.Int64("recipient_id", recipientID),
					slog.Any("error", err))
			}
		}
	}
	return nil, nil
}

func (w *WebhookNotifier) renderEndpoint(rctx render.Context, endpoint Endpoint) (string, error) {
	decoded, err := url.QueryUnescape(endpoint.EncodedURL)
	if err != nil {
		return "", fmt.Errorf("decode endpoint %s: %w", endpoint.Name, err)
	}
	return w.engine.EvaluateInline(rctx, "webhook-endpoint-"+endpoint.Name, decoded)
}
