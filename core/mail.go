package core

import (
	"net/mail"
	"strings"
)

type (
	EmailMessage struct {
		To       []mail.Address
		Cc       []mail.Address
		Bcc      []mail.Address
		Subject  string
		BodyStr  string   // simple text/plain content
		BodyHTML string   // optional text/html alternative
		Lines    []string // joined to the text content after BodyStr

		TextContent string
		HTMLContent string
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

// Render builds the message contents.
func (m *EmailMessage) Render() error {
	parts := make([]string, 0, len(m.Lines)+1)
	if m.BodyStr != "" {
		parts = append(parts, m.BodyStr)
	}
	parts = append(parts, m.Lines...)
	m.TextContent = strings.Join(parts, "\n")
	m.HTMLContent = m.BodyHTML
	return nil
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return (m.TextContent != "") || (m.HTMLContent != "") }
