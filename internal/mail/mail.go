// Package mail sends notification emails to the site administrators.
package mail

import (
	"net/mail"
	"strings"
)

// Message is a plain email.
type Message struct {
	To          []mail.Address
	Subject     string
	TextContent string
	HTMLContent string
}

// HasRecipients reports whether the message is addressed to anyone.
func (m Message) HasRecipients() bool {
	return len(m.To) > 0
}

// HasContent reports whether the message has a body.
func (m Message) HasContent() bool {
	return strings.TrimSpace(m.TextContent) != "" || strings.TrimSpace(m.HTMLContent) != ""
}

// Mailer delivers messages. Delivery is fire and forget; failures are logged.
type Mailer interface {
	SendMessages(messages ...Message)
}

// New returns a SendGrid mailer when apiKey is set and a console mailer otherwise.
func New(apiKey, appName, fromEmail string) Mailer {
	if apiKey == "" {
		return NewConsole(appName, fromEmail)
	}
	return NewSendgrid(apiKey, appName, fromEmail)
}

// ParseAddressList parses "a@x.com, B <b@y.com>" and drops invalid entries.
func ParseAddressList(list string) []mail.Address {
	var out []mail.Address
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		addr, err := mail.ParseAddress(part)
		if err != nil {
			continue
		}
		out = append(out, *addr)
	}
	return out
}
