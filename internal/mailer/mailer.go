// Package mailer sends one personalized email per call through a single
// configured outbound transport.
package mailer

import "context"

// Attachment is binary content embedded inline in the outgoing message.
type Attachment struct {
	Filename string
	Content  []byte
}

// Message is a provider-agnostic outbound email.
type Message struct {
	From        string
	To          string
	Subject     string
	HTMLBody    string
	Attachments []Attachment
}

// Sender dispatches a single message. Implementations classify failures via
// appErrors.SendError so callers can tell transient from permanent ones.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
