// Package instagram holds the Instagram messaging webhook types, request
// signing and the Graph API send client.
package instagram

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// Envelope is the webhook POST body.
type Envelope struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry groups the messaging events of one page.
type Entry struct {
	ID        string           `json:"id"`
	Time      int64            `json:"time"`
	Messaging []MessagingEvent `json:"messaging"`
}

type Party struct {
	ID string `json:"id" validate:"required"`
}

// MessagingEvent is one element of entry[].messaging. Delivery and read
// receipts arrive with Message unset.
type MessagingEvent struct {
	Sender    Party    `json:"sender"`
	Recipient Party    `json:"recipient"`
	Timestamp int64    `json:"timestamp"`
	Message   *Message `json:"message,omitempty"`
	Delivery  *Receipt `json:"delivery,omitempty"`
	Read      *Receipt `json:"read,omitempty"`
}

type Receipt struct {
	MIDs      []string `json:"mids,omitempty"`
	Watermark int64    `json:"watermark,omitempty"`
}

type Message struct {
	MID         string       `json:"mid"`
	Text        string       `json:"text,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	IsEcho      bool         `json:"is_echo,omitempty"`
}

type Attachment struct {
	Type    string            `json:"type"`
	Payload AttachmentPayload `json:"payload"`
}

type AttachmentPayload struct {
	URL string `json:"url"`
}

const AttachmentAudio = "audio"

var validate = validator.New()

// Valid reports whether the event names both parties.
func (e MessagingEvent) Valid() bool {
	return validate.Struct(e) == nil
}

// IsMessage reports whether the event carries an inbound customer message.
// Echoes of the page's own replies are not messages.
func (e MessagingEvent) IsMessage() bool {
	return e.Message != nil && !e.Message.IsEcho
}

// Text returns the trimmed message text.
func (e MessagingEvent) Text() string {
	if e.Message == nil {
		return ""
	}
	return strings.TrimSpace(e.Message.Text)
}

// AudioURL returns the URL of the first audio attachment.
func (e MessagingEvent) AudioURL() (string, bool) {
	if e.Message == nil {
		return "", false
	}
	for _, a := range e.Message.Attachments {
		if strings.EqualFold(a.Type, AttachmentAudio) && strings.TrimSpace(a.Payload.URL) != "" {
			return strings.TrimSpace(a.Payload.URL), true
		}
	}
	return "", false
}
