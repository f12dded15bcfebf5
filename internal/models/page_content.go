package models

import "time"

// PageKeys lists the editable pages.
var PageKeys = []string{"homepage", "about", "history", "clients", "contact", "prices"}

// ValidPageKey reports whether key names an editable page.
func ValidPageKey(key string) bool {
	for _, k := range PageKeys {
		if k == key {
			return true
		}
	}
	return false
}

// PageContent holds the editable sections of a public page.
type PageContent struct {
	ID              string     `json:"id" db:"id"`
	PageKey         string     `json:"page_key" db:"page_key"`
	Title           string     `json:"title" db:"title"`
	ContentData     JSONMap    `json:"content_data" db:"content_json"`
	MetaTitle       string     `json:"meta_title" db:"meta_title"`
	MetaDescription string     `json:"meta_description" db:"meta_description"`
	MetaKeywords    string     `json:"meta_keywords" db:"meta_keywords"`
	IsActive        bool       `json:"is_active" db:"is_active"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at" db:"updated_at"`
}

// Section returns one top-level section of the content, or nil.
func (p PageContent) Section(name string) map[string]interface{} {
	if s, ok := p.ContentData[name].(map[string]interface{}); ok {
		return s
	}
	return nil
}

// PageContentCreate is the payload creating a page.
type PageContentCreate struct {
	PageKey         string                 `json:"page_key" yaml:"page_key" validate:"required"`
	Title           string                 `json:"title" yaml:"title" validate:"required,max=200"`
	ContentData     map[string]interface{} `json:"content_data" yaml:"content_data"`
	MetaTitle       string                 `json:"meta_title" yaml:"meta_title" validate:"max=200"`
	MetaDescription string                 `json:"meta_description" yaml:"meta_description" validate:"max=300"`
	MetaKeywords    string                 `json:"meta_keywords" yaml:"meta_keywords" validate:"max=255"`
	IsActive        *bool                  `json:"is_active" yaml:"is_active"`
}

// PageContentUpdate is a partial page update. Nil fields are left untouched.
type PageContentUpdate struct {
	Title           *string                `json:"title" validate:"omitempty,max=200"`
	ContentData     map[string]interface{} `json:"content_data"`
	MetaTitle       *string                `json:"meta_title" validate:"omitempty,max=200"`
	MetaDescription *string                `json:"meta_description" validate:"omitempty,max=300"`
	MetaKeywords    *string                `json:"meta_keywords" validate:"omitempty,max=255"`
	IsActive        *bool                  `json:"is_active"`
}
