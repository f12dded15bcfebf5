package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/isdelr/webempresa/internal/mail"
	"github.com/isdelr/webempresa/internal/models"
)

const contactColumns = `id, name, email, phone, company, subject, message, status, admin_response,
	responded_at, assigned_to_id, created_at, updated_at`

// ContactServiceProvider defines the interface for contact message services.
type ContactServiceProvider interface {
	SubmitMessage(ctx context.Context, input models.ContactInput) (models.ContactMessage, error)
	ListMessages(ctx context.Context, status string) ([]models.ContactMessage, error)
	GetMessage(ctx context.Context, id string) (models.ContactMessage, error)
	UpdateMessage(ctx context.Context, id string, update models.ContactUpdate) (models.ContactMessage, error)
	DeleteMessage(ctx context.Context, id string) error
	PendingMessages(ctx context.Context) ([]models.ContactMessage, error)
}

// ContactService provides business logic for messages sent through the contact form.
type ContactService struct {
	db       *sqlx.DB
	events   EventServiceProvider
	mailer   mail.Mailer
	notifyTo string
}

// NewContactService creates a new ContactService. New messages are mailed to notifyTo
// (a comma separated address list) when both mailer and notifyTo are set.
func NewContactService(db *sqlx.DB, events EventServiceProvider, mailer mail.Mailer, notifyTo string) *ContactService {
	return &ContactService{db: db, events: events, mailer: mailer, notifyTo: notifyTo}
}

// SubmitMessage stores a message from the public form and notifies the admins.
func (s *ContactService) SubmitMessage(ctx context.Context, input models.ContactInput) (models.ContactMessage, error) {
	msg := models.ContactMessage{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(input.Name),
		Email:     strings.TrimSpace(input.Email),
		Phone:     input.Phone,
		Company:   input.Company,
		Subject:   strings.TrimSpace(input.Subject),
		Message:   input.Message,
		Status:    models.ContactNew,
		CreatedAt: timeNow(),
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO contact_messages (id, name, email, phone, company, subject, message, status, admin_response, created_at)
		VALUES (:id, :name, :email, :phone, :company, :subject, :message, :status, '', :created_at)`, msg)
	if err != nil {
		return models.ContactMessage{}, err
	}

	record(ctx, s.events, "contact.create", "info", fmt.Sprintf("New contact message from '%s': %s", msg.Name, msg.Subject))
	s.notify(msg)
	msg.PrepareForAPI()
	return msg, nil
}

func (s *ContactService) notify(msg models.ContactMessage) {
	if s.mailer == nil || s.notifyTo == "" {
		return
	}
	body := fmt.Sprintf("Nuevo mensaje de contacto\n\nNombre: %s\nEmail: %s\nTeléfono: %s\nEmpresa: %s\nAsunto: %s\n\n%s\n",
		msg.Name, msg.Email, msg.Phone, msg.Company, msg.Subject, msg.Message)
	s.mailer.SendMessages(mail.Message{
		To:          mail.ParseAddressList(s.notifyTo),
		Subject:     "Nuevo mensaje: " + msg.Subject,
		TextContent: body,
	})
}

// reply mails the admin response back to the sender.
func (s *ContactService) reply(msg models.ContactMessage) {
	if s.mailer == nil {
		return
	}
	s.mailer.SendMessages(mail.Message{
		To:          mail.ParseAddressList(msg.Email),
		Subject:     "Re: " + msg.Subject,
		TextContent: msg.AdminResponse,
	})
}

// ListMessages returns messages newest first, optionally of one status.
func (s *ContactService) ListMessages(ctx context.Context, status string) ([]models.ContactMessage, error) {
	query := "SELECT " + contactColumns + " FROM contact_messages"
	var args []interface{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC"

	messages := []models.ContactMessage{}
	if err := s.db.SelectContext(ctx, &messages, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	for i := range messages {
		messages[i].PrepareForAPI()
	}
	return messages, nil
}

// GetMessage returns a message. Opening a new message marks it read.
func (s *ContactService) GetMessage(ctx context.Context, id string) (models.ContactMessage, error) {
	msg, err := s.load(ctx, id)
	if err != nil {
		return models.ContactMessage{}, err
	}

	if msg.Status == models.ContactNew {
		now := timeNow()
		if _, err := s.db.ExecContext(ctx, s.db.Rebind(
			"UPDATE contact_messages SET status = ?, updated_at = ? WHERE id = ?"), models.ContactRead, now, id); err != nil {
			return models.ContactMessage{}, err
		}
		msg.Status = models.ContactRead
		msg.UpdatedAt = &now
	}

	msg.PrepareForAPI()
	return msg, nil
}

// UpdateMessage applies an admin update. A non-empty response stamps responded_at
// and moves the message to responded unless it is already responded or closed.
func (s *ContactService) UpdateMessage(ctx context.Context, id string, update models.ContactUpdate) (models.ContactMessage, error) {
	msg, err := s.load(ctx, id)
	if err != nil {
		return models.ContactMessage{}, err
	}

	now := timeNow()
	if update.Status != nil {
		if _, ok := models.ContactStatusDisplay[*update.Status]; !ok {
			return models.ContactMessage{}, invalid("unknown status %q", *update.Status)
		}
		msg.Status = *update.Status
	}
	responded := false
	if update.AdminResponse != nil {
		responded = strings.TrimSpace(*update.AdminResponse) != "" && *update.AdminResponse != msg.AdminResponse
		msg.AdminResponse = *update.AdminResponse
		if strings.TrimSpace(msg.AdminResponse) != "" {
			msg.RespondedAt = &now
			if msg.Status != models.ContactResponded && msg.Status != models.ContactClosed {
				msg.Status = models.ContactResponded
			}
		}
	}
	if actor := ActorFrom(ctx); actor != nil && msg.AssignedToID == nil {
		msg.AssignedToID = actor
	}
	msg.UpdatedAt = &now

	_, err = s.db.NamedExecContext(ctx, `
		UPDATE contact_messages SET status = :status, admin_response = :admin_response, responded_at = :responded_at,
			assigned_to_id = :assigned_to_id, updated_at = :updated_at
		WHERE id = :id`, msg)
	if err != nil {
		return models.ContactMessage{}, err
	}

	record(ctx, s.events, "contact.update", "info", fmt.Sprintf("Contact message '%s' marked %s.", msg.Subject, msg.Status))
	if responded {
		s.reply(msg)
	}
	msg.PrepareForAPI()
	return msg, nil
}

// DeleteMessage removes a message.
func (s *ContactService) DeleteMessage(ctx context.Context, id string) error {
	msg, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM contact_messages WHERE id = ?"), id); err != nil {
		return err
	}
	record(ctx, s.events, "contact.delete", "warn", fmt.Sprintf("Contact message '%s' deleted.", msg.Subject))
	return nil
}

// PendingMessages returns the messages still waiting for an answer, oldest first.
func (s *ContactService) PendingMessages(ctx context.Context) ([]models.ContactMessage, error) {
	query, args, err := sqlx.In(
		"SELECT "+contactColumns+" FROM contact_messages WHERE status IN (?) ORDER BY created_at",
		[]string{models.ContactNew, models.ContactInProgress})
	if err != nil {
		return nil, err
	}

	messages := []models.ContactMessage{}
	if err := s.db.SelectContext(ctx, &messages, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	for i := range messages {
		messages[i].PrepareForAPI()
	}
	return messages, nil
}

func (s *ContactService) load(ctx context.Context, id string) (models.ContactMessage, error) {
	var msg models.ContactMessage
	if err := s.db.GetContext(ctx, &msg, s.db.Rebind("SELECT "+contactColumns+" FROM contact_messages WHERE id = ?"), id); err != nil {
		return models.ContactMessage{}, notFound(err, "contact message")
	}
	return msg, nil
}
