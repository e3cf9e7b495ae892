package queue

import (
	"context"
	"fmt"

	"stream-notify/internal/domain/entity"
	"stream-notify/internal/infra/mailer"
)

// NewMailHandler builds the handler for send-mail work items. It decodes the
// composed message from the item payload and hands it to the SMTP sender.
func NewMailHandler(sender mailer.Sender) Handler {
	return func(ctx context.Context, item entity.WorkItem) error {
		msg, err := item.MailPayload()
		if err != nil {
			return fmt.Errorf("decode mail payload: %w", err)
		}
		if err := sender.Send(ctx, msg); err != nil {
			return fmt.Errorf("send mail: %w", err)
		}
		return nil
	}
}
