package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"stream-notify/internal/domain/entity"
	"stream-notify/internal/render"
)

// MailTemplate is the per-kind template bundle for the mail channel.
type MailTemplate struct {
	// Subject is an inline template evaluated directly.
	Subject string

	// TextBody names the registered template resource for the plain-text body.
	TextBody string

	// HTMLBody names the registered template resource for the HTML body.
	// Empty means the message is sent without an HTML alternative.
	HTMLBody string

	// ReplyPolicy controls the Reply-To header. Defaults to NONE.
	ReplyPolicy ReplyPolicy
}

// MailNotifier composes email messages and stages them as send-mail work
// items. It never talks to SMTP itself; the queue worker does the sending.
type MailNotifier struct {
	engine         *render.Engine
	templates      map[entity.Kind]MailTemplate
	globals        map[string]any
	subjectPrefix  string
	addressBuilder AddressBuilder
	logger         *slog.Logger
}

// NewMailNotifier creates a mail notifier.
//
// Parameters:
//   - engine: Template engine with the body resources already registered
//   - templates: Per-kind template bundles; kinds without an entry are
//     silently skipped by Notify
//   - globals: Process-wide template values layered under event properties
//   - subjectPrefix: Literal prefix prepended to every rendered subject
//   - addressBuilder: Builder for COMMENT reply addresses, may be nil
func NewMailNotifier(engine *render.Engine, templates map[entity.Kind]MailTemplate, globals map[string]any, subjectPrefix string, addressBuilder AddressBuilder, logger *slog.Logger) *MailNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &MailNotifier{
		engine:         engine,
		templates:      templates,
		globals:        globals,
		subjectPrefix:  subjectPrefix,
		addressBuilder: addressBuilder,
		logger:         logger,
	}
}

// Name implements Notifier.
func (m *MailNotifier) Name() string { return "mail" }

// Notify composes email messages for the recipient batch. A single resolved
// recipient is addressed directly on To; multiple recipients are blind-copied
// so they cannot see each other. Under the COMMENT reply policy, recipients
// for whom a tokenized reply address can be built get an individual "to"
// message carrying their own token on Reply-To, and only the remainder share
// the bcc message. Recipients missing from the index or without an email
// address are skipped.
func (m *MailNotifier) Notify(ctx context.Context, kind entity.Kind, recipients []int64, properties map[string]any, index entity.RecipientIndex) ([]entity.WorkItem, error) {
	tmpl, ok := m.templates[kind]
	if !ok {
		m.logger.Debug("no mail template for kind, skipping",
			slog.String("kind", string(kind)))
		return nil, nil
	}

	// Resolve addresses in recipient order.
	var resolved []*entity.Person
	for _, id := range recipients {
		person, ok := index[id]
		if !ok || person == nil {
			m.logger.Warn("mail recipient unresolved, skipping",
				slog.String("kind", string(kind)),
				slog.Int64("recipient_id", id))
			continue
		}
		if person.Email == "" {
			m.logger.Warn("mail recipient has no email address, skipping",
				slog.String("kind", string(kind)),
				slog.Int64("recipient_id", id))
			continue
		}
		resolved = append(resolved, person)
	}
	if len(resolved) == 0 {
		m.logger.Info("no addressable mail recipients",
			slog.String("kind", string(kind)))
		return nil, nil
	}

	// Partition the audience: under the COMMENT policy every recipient with
	// a reply token gets an individual message, the rest share one.
	plain := resolved
	var tokened []*entity.Person
	var tokenAddresses []string
	if tmpl.ReplyPolicy == ReplyPolicyCommentToken && m.addressBuilder != nil {
		plain = nil
		for _, person := range resolved {
			address, err := m.addressBuilder.BuildCommentAddress(ctx, kind, properties, person.ID)
			if err != nil {
				return nil, fmt.Errorf("mail reply address: %w", err)
			}
			if address == "" {
				plain = append(plain, person)
				continue
			}
			tokened = append(tokened, person)
			tokenAddresses = append(tokenAddresses, address)
		}
	}

	rctx := render.Layer(m.globals, properties)
	rctx[render.KindKey] = string(kind)
	if len(resolved) == 1 {
		rctx[render.RecipientKey] = resolved[0]
	}
	rctx.WithSelf()

	subject, err := m.engine.EvaluateInline(rctx, "mail-subject-"+string(kind), tmpl.Subject)
	if err != nil {
		return nil, fmt.Errorf("mail subject: %w", err)
	}
	subject = m.subjectPrefix + subject

	textBody, err := m.engine.RenderNamed(rctx, tmpl.TextBody)
	if err != nil {
		return nil, fmt.Errorf("mail text body: %w", err)
	}

	var htmlBody string
	if tmpl.HTMLBody != "" {
		htmlBody, err = m.engine.RenderNamedHTML(rctx, tmpl.HTMLBody)
		if err != nil {
			return nil, fmt.Errorf("mail html body: %w", err)
		}
	}

	highPriority, _ := properties[entity.PropHighPriority].(bool)

	base := entity.EmailMessage{
		Subject:      subject,
		TextBody:     textBody,
		HTMLBody:     htmlBody,
		HighPriority: highPriority,
	}

	items := make([]entity.WorkItem, 0, len(tokened)+1)
	for i, person := range tokened {
		msg := base
		msg.To = person.Email
		msg.ReplyTo = tokenAddresses[i]
		msg.Description = fmt.Sprintf("%s with token to %s", kind, person.Email)
		item, err := entity.NewMailWorkItem(&msg)
		if err != nil {
			return nil, fmt.Errorf("mail work item: %w", err)
		}
		items = append(items, item)
	}
	if len(plain) > 0 {
		msg := base
		msg.ReplyTo = actorReply(tmpl.ReplyPolicy, properties)
		if len(plain) == 1 {
			msg.To = plain[0].Email
			msg.Description = fmt.Sprintf("%s to %s", kind, plain[0].Email)
		} else {
			emails := make([]string, len(plain))
			for i, person := range plain {
				emails[i] = person.Email
			}
			msg.Bcc = strings.Join(emails, ",")
			msg.Description = fmt.Sprintf("%s to %d recipients", kind, len(plain))
		}
		item, err := entity.NewMailWorkItem(&msg)
		if err != nil {
			return nil, fmt.Errorf("mail work item: %w", err)
		}
		items = append(items, item)
	}

	m.logger.Info("mail composed",
		slog.String("kind", string(kind)),
		slog.Int("recipients", len(resolved)),
		slog.Int("tokened", len(tokened)),
		slog.Int("messages", len(items)),
		slog.Bool("high_priority", highPriority))
	return items, nil
}
