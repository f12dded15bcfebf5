package models

import "time"

// Article statuses.
const (
	NewsDraft     = "draft"
	NewsPublished = "published"
	NewsArchived  = "archived"
)

// NewsArticle is a news post shown on the public site.
type NewsArticle struct {
	ID              string     `json:"id" db:"id"`
	Title           string     `json:"title" db:"title"`
	Slug            string     `json:"slug" db:"slug"`
	Content         string     `json:"content" db:"content"`
	Excerpt         string     `json:"excerpt" db:"excerpt"`
	MetaDescription string     `json:"meta_description" db:"meta_description"`
	MetaKeywords    string     `json:"meta_keywords" db:"meta_keywords"`
	Status          string     `json:"status" db:"status"`
	Featured        bool       `json:"featured" db:"featured"`
	ViewsCount      int        `json:"views_count" db:"views_count"`
	FeaturedImage   string     `json:"featured_image" db:"featured_image"`
	AuthorID        *string    `json:"author_id" db:"author_id"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at" db:"updated_at"`
	PublishedAt     *time.Time `json:"published_at" db:"published_at"`
}

// IsPublished reports whether the article is visible on the public site.
func (a NewsArticle) IsPublished() bool {
	return a.Status == NewsPublished
}

// NewsInput carries the editable fields of an article.
type NewsInput struct {
	Title           string `json:"title" yaml:"title" validate:"required,max=200"`
	Content         string `json:"content" yaml:"content" validate:"required"`
	Excerpt         string `json:"excerpt" yaml:"excerpt" validate:"max=500"`
	MetaDescription string `json:"meta_description" yaml:"meta_description" validate:"max=160"`
	MetaKeywords    string `json:"meta_keywords" yaml:"meta_keywords" validate:"max=255"`
	Status          string `json:"status" yaml:"status" validate:"omitempty,oneof=draft published archived"`
	Featured        bool   `json:"featured" yaml:"featured"`
	FeaturedImage   string `json:"featured_image" yaml:"featured_image" validate:"max=255"`
}

// NewsFilter narrows a news listing.
type NewsFilter struct {
	Status    string
	Featured  *bool
	Published bool // public listings only see published articles
	Page      int
	Limit     int
}
