package mail

import (
	"net/mail"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// Console writes messages to the log instead of sending them. It keeps every
// message it handled so tests can inspect them.
type Console struct {
	from       mail.Address
	subjPrefix string
	sync       bool

	mu   sync.Mutex
	sent []Message
}

var _ Mailer = (*Console)(nil)

// NewConsole creates a console mailer that logs asynchronously.
func NewConsole(appName, fromEmail string) *Console {
	return &Console{
		from:       mail.Address{Name: appName, Address: fromEmail},
		subjPrefix: "[" + appName + "] ",
	}
}

// NewConsoleMock creates a console mailer that handles messages synchronously.
func NewConsoleMock() *Console {
	c := NewConsole("Web Empresa", "noreply@webempresa.com")
	c.sync = true
	return c
}

// SendMessages logs each deliverable message.
func (c *Console) SendMessages(messages ...Message) {
	for _, msg := range messages {
		if !msg.HasRecipients() || !msg.HasContent() {
			continue
		}
		if c.sync {
			c.send(msg)
		} else {
			go c.send(msg)
		}
	}
}

// Sent returns a copy of the messages handled so far.
func (c *Console) Sent() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.sent...)
}

func (c *Console) send(msg Message) {
	to := make([]string, 0, len(msg.To))
	for _, a := range msg.To {
		to = append(to, a.String())
	}
	log.Info().
		Str("from", c.from.String()).
		Str("to", strings.Join(to, ", ")).
		Str("subject", c.subjPrefix+msg.Subject).
		Msg(msg.TextContent)

	c.mu.Lock()
	c.sent = append(c.sent, msg)
	c.mu.Unlock()
}
