package models

import (
	"strings"
	"time"
)

// Testimonial is a customer quote shown on the public site.
type Testimonial struct {
	ID             string     `json:"id" db:"id"`
	ClientName     string     `json:"client_name" db:"client_name"`
	ClientPosition string     `json:"client_position" db:"client_position"`
	ClientCompany  string     `json:"client_company" db:"client_company"`
	ClientPhoto    string     `json:"client_photo" db:"client_photo"`
	Content        string     `json:"content" db:"content"`
	Rating         int        `json:"rating" db:"rating"`
	IsActive       bool       `json:"is_active" db:"is_active"`
	IsFeatured     bool       `json:"is_featured" db:"is_featured"`
	DisplayOrder   int        `json:"display_order" db:"display_order"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at" db:"updated_at"`
}

// ClientInfo joins name, position and company for display, e.g. "Ana Ruiz Directora en Colegio Sol".
func (t Testimonial) ClientInfo() string {
	parts := []string{t.ClientName}
	if t.ClientPosition != "" {
		parts = append(parts, t.ClientPosition)
	}
	if t.ClientCompany != "" {
		parts = append(parts, "en "+t.ClientCompany)
	}
	return strings.Join(parts, " ")
}

// TestimonialInput carries the editable fields of a testimonial.
type TestimonialInput struct {
	ClientName     string `json:"client_name" yaml:"client_name" validate:"required,max=100"`
	ClientPosition string `json:"client_position" yaml:"client_position" validate:"max=100"`
	ClientCompany  string `json:"client_company" yaml:"client_company" validate:"max=150"`
	ClientPhoto    string `json:"client_photo" yaml:"client_photo" validate:"max=255"`
	Content        string `json:"content" yaml:"content" validate:"required"`
	Rating         int    `json:"rating" yaml:"rating" validate:"omitempty,min=1,max=5"`
	IsActive       bool   `json:"is_active" yaml:"is_active"`
	IsFeatured     bool   `json:"is_featured" yaml:"is_featured"`
	DisplayOrder   int    `json:"display_order" yaml:"display_order"`
}
