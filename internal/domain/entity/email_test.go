package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailMessageValidate(t *testing.T) {
	tests := []struct {
		name    string
		msg     EmailMessage
		wantErr bool
	}{
		{name: "to only", msg: EmailMessage{To: "a@example.com"}, wantErr: false},
		{name: "bcc only", msg: EmailMessage{Bcc: "a@example.com,b@example.com"}, wantErr: false},
		{name: "neither", msg: EmailMessage{Subject: "s"}, wantErr: true},
		{name: "both", msg: EmailMessage{To: "a@example.com", Bcc: "b@example.com"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMailWorkItemRoundTrip(t *testing.T) {
	// Arrange
	msg := &EmailMessage{
		Subject:      "[Streams] Somebody commented",
		TextBody:     "plain",
		HTMLBody:     "<p>plain</p>",
		Bcc:          "a@example.com,b@example.com",
		HighPriority: true,
		Description:  "COMMENT_ON_POST to 2 recipients",
	}

	// Act
	item, err := NewMailWorkItem(msg)
	require.NoError(t, err)

	// Assert
	assert.Equal(t, ChannelKeySendMail, item.ChannelKey)
	assert.True(t, json.Valid(item.Payload))

	decoded, err := item.MailPayload()
	require.NoError(t, err)
	assert.Equal(t, msg, decoded)
}
