package entity

import "fmt"

// EmailMessage is the rendered mail artifact queued for transmission.
// Exactly one of To and Bcc is populated: a single recipient gets a direct
// "to" address, multiple recipients get a comma-joined bcc list with an empty
// "to". The mail notifier never sends; transmission is delegated to the
// mailer consuming the work-item queue.
type EmailMessage struct {
	Subject      string `json:"subject"`
	TextBody     string `json:"text_body"`
	HTMLBody     string `json:"html_body"`
	To           string `json:"to,omitempty"`
	Bcc          string `json:"bcc,omitempty"`
	ReplyTo      string `json:"reply_to,omitempty"`
	HighPriority bool   `json:"high_priority,omitempty"`

	// Description is a human-readable summary (kind + audience) used for
	// logging and audit once the message leaves the pipeline.
	Description string `json:"description"`
}

// Validate checks the artifact invariants before it is queued.
func (m *EmailMessage) Validate() error {
	if m.To == "" && m.Bcc == "" {
		return fmt.Errorf("%w: email message has no recipients", ErrInvalidInput)
	}
	if m.To != "" && m.Bcc != "" {
		return fmt.Errorf("%w: email message has both to and bcc set", ErrInvalidInput)
	}
	return nil
}
