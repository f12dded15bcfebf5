package mail

import (
	"net/http"
	"net/mail"

	"github.com/rs/zerolog/log"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

var (
	host     = "https://api.sendgrid.com"
	endpoint = "/v3/mail/send"
)

// Sendgrid delivers messages through the SendGrid v3 API.
type Sendgrid struct {
	key        string
	from       *sgmail.Email
	subjPrefix string
}

var _ Mailer = (*Sendgrid)(nil)

// NewSendgrid creates a SendGrid mailer.
func NewSendgrid(key, appName, fromEmail string) *Sendgrid {
	return &Sendgrid{
		key:        key,
		from:       sgmail.NewEmail(appName, fromEmail),
		subjPrefix: "[" + appName + "] ",
	}
}

// SendMessages sends every deliverable message on its own goroutine.
func (svc *Sendgrid) SendMessages(messages ...Message) {
	for _, msg := range messages {
		msg := msg
		if !msg.HasRecipients() || !msg.HasContent() {
			continue
		}
		go svc.send(msg)
	}
}

func (svc *Sendgrid) prepare(msg Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = svc.subjPrefix + msg.Subject
	for _, to := range msg.To {
		p.AddTos(sgEmail(to))
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(svc.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", msg.TextContent))
	if msg.HTMLContent != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLContent))
	}
	return m
}

func (svc *Sendgrid) send(msg Message) {
	req := sendgrid.GetRequest(svc.key, endpoint, host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(svc.prepare(msg))

	res, err := sendgrid.API(req)
	if err != nil {
		log.Error().Err(err).Str("subject", msg.Subject).Msg("Failed to send email")
		return
	}
	if res.StatusCode >= http.StatusBadRequest {
		log.Error().Int("status", res.StatusCode).Str("body", res.Body).Str("subject", msg.Subject).Msg("SendGrid rejected email")
	}
}

func sgEmail(addr mail.Address) *sgmail.Email {
	return sgmail.NewEmail(addr.Name, addr.Address)
}
