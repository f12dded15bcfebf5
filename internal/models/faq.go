package models

import "time"

// FAQ categories.
var FAQCategories = map[string]string{
	"general":   "General",
	"pricing":   "Precios",
	"technical": "Técnico",
	"support":   "Soporte",
	"billing":   "Facturación",
}

// FAQ is a frequently asked question.
type FAQ struct {
	ID           string     `json:"id" db:"id"`
	Question     string     `json:"question" db:"question"`
	Answer       string     `json:"answer" db:"answer"`
	Category     string     `json:"category" db:"category"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	DisplayOrder int        `json:"display_order" db:"display_order"`
	ViewsCount   int        `json:"views_count" db:"views_count"`
	HelpfulVotes int        `json:"helpful_votes" db:"helpful_votes"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at" db:"updated_at"`

	CategoryDisplay string `json:"category_display" db:"-"`
}

// PrepareForAPI fills the derived fields.
func (f *FAQ) PrepareForAPI() {
	if name, ok := FAQCategories[f.Category]; ok {
		f.CategoryDisplay = name
	} else {
		f.CategoryDisplay = FAQCategories["general"]
	}
}

// FAQInput carries the editable fields of a FAQ.
type FAQInput struct {
	Question     string `json:"question" yaml:"question" validate:"required,max=300"`
	Answer       string `json:"answer" yaml:"answer" validate:"required"`
	Category     string `json:"category" yaml:"category" validate:"omitempty,oneof=general pricing technical support billing"`
	IsActive     bool   `json:"is_active" yaml:"is_active"`
	DisplayOrder int    `json:"display_order" yaml:"display_order"`
}
