package entity

import "encoding/json"

// Channel keys for follow-up work items.
const (
	// ChannelKeySendMail identifies a queued EmailMessage transmission.
	ChannelKeySendMail = "send-mail"
)

// WorkItem is an opaque descriptor of deferred work returned by a notifier.
// The dispatcher hands it to the work-item queue; the pipeline itself never
// executes it. The payload is serialized so consumers can live outside the
// producing call stack.
type WorkItem struct {
	ChannelKey string          `json:"channel_key"`
	Payload    json.RawMessage `json:"payload"`
}

// NewMailWorkItem wraps an EmailMessage into a send-mail work item.
func NewMailWorkItem(msg *EmailMessage) (WorkItem, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return WorkItem{}, err
	}
	return WorkItem{ChannelKey: ChannelKeySendMail, Payload: payload}, nil
}

// MailPayload decodes the work item's payload as an EmailMessage.
func (w WorkItem) MailPayload() (*EmailMessage, error) {
	var msg EmailMessage
	if err := json.Unmarshal(w.Payload, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
