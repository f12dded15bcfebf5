package models

import "time"

// Contact message statuses.
const (
	ContactNew        = "new"
	ContactRead       = "read"
	ContactInProgress = "in_progress"
	ContactResponded  = "responded"
	ContactClosed     = "closed"
)

// ContactStatusDisplay maps statuses to their dashboard labels.
var ContactStatusDisplay = map[string]string{
	ContactNew:        "Nuevo",
	ContactRead:       "Leído",
	ContactInProgress: "En Proceso",
	ContactResponded:  "Respondido",
	ContactClosed:     "Cerrado",
}

// ContactMessage is a message submitted through the public contact form.
type ContactMessage struct {
	ID            string     `json:"id" db:"id"`
	Name          string     `json:"name" db:"name"`
	Email         string     `json:"email" db:"email"`
	Phone         string     `json:"phone" db:"phone"`
	Company       string     `json:"company" db:"company"`
	Subject       string     `json:"subject" db:"subject"`
	Message       string     `json:"message" db:"message"`
	Status        string     `json:"status" db:"status"`
	AdminResponse string     `json:"admin_response" db:"admin_response"`
	RespondedAt   *time.Time `json:"responded_at" db:"responded_at"`
	AssignedToID  *string    `json:"assigned_to_id" db:"assigned_to_id"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at" db:"updated_at"`

	StatusDisplay string `json:"status_display" db:"-"`
	IsPending     bool   `json:"is_pending" db:"-"`
}

// Pending reports whether the message still waits for an answer.
func (m ContactMessage) Pending() bool {
	return m.Status == ContactNew || m.Status == ContactInProgress
}

// PrepareForAPI fills the derived fields.
func (m *ContactMessage) PrepareForAPI() {
	m.StatusDisplay = ContactStatusDisplay[m.Status]
	if m.StatusDisplay == "" {
		m.StatusDisplay = ContactStatusDisplay[ContactNew]
	}
	m.IsPending = m.Pending()
}

// ContactInput is the public contact form.
type ContactInput struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email,max=254"`
	Phone   string `json:"phone" validate:"max=20"`
	Company string `json:"company" validate:"max=150"`
	Subject string `json:"subject" validate:"required,max=200"`
	Message string `json:"message" validate:"required"`
}

// ContactUpdate is the admin-side update of a message. Nil fields are left untouched.
type ContactUpdate struct {
	Status        *string `json:"status" validate:"omitempty,oneof=new read in_progress responded closed"`
	AdminResponse *string `json:"admin_response"`
}
