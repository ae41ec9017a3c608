// Package mailer renders and sends the storefront's transactional email.
package mailer

import (
	"context"
)

// Message is a single outbound email.
type Message struct {
	From    string
	To      []string
	ReplyTo string
	Subject string
	Text    string
	HTML    string
	Tags    map[string]string
}

// Sender delivers a message and returns the provider's message id.
type Sender interface {
	Send(ctx context.Context, msg *Message) (string, error)
}

// Content is a rendered email body with its subject.
type Content struct {
	Subject string
	Text    string
	HTML    string
}

// Message builds a Message from the rendered content.
func (c *Content) Message(from string, to ...string) *Message {
	return &Message{
		From:    from,
		To:      to,
		Subject: c.Subject,
		Text:    c.Text,
		HTML:    c.HTML,
	}
}
