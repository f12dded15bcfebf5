package models

import (
	"path"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Media kinds and storage backends.
const (
	MediaImage = "image"
	MediaVideo = "video"

	StorageLocal = "local"
	StorageURL   = "url"
)

// MediaFile is an uploaded file or an external URL usable from the site content.
type MediaFile struct {
	ID               string     `json:"id" db:"id"`
	Filename         string     `json:"filename" db:"filename"`
	OriginalFilename string     `json:"original_filename" db:"original_filename"`
	FileType         string     `json:"file_type" db:"file_type"`
	MimeType         string     `json:"mime_type" db:"mime_type"`
	FileSize         int64      `json:"file_size" db:"file_size"`
	StorageType      string     `json:"storage_type" db:"storage_type"`
	FileURL          string     `json:"file_url" db:"file_url"`
	FilePath         string     `json:"-" db:"file_path"`
	AltText          string     `json:"alt_text" db:"alt_text"`
	Description      string     `json:"description" db:"description"`
	Width            *int       `json:"width" db:"width"`
	Height           *int       `json:"height" db:"height"`
	IsActive         bool       `json:"is_active" db:"is_active"`
	IsPublic         bool       `json:"is_public" db:"is_public"`
	UploadedByID     *string    `json:"uploaded_by_id" db:"uploaded_by_id"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        *time.Time `json:"updated_at" db:"updated_at"`

	PublicURL     string   `json:"public_url" db:"-"`
	SizeFormatted string   `json:"file_size_formatted" db:"-"`
	Extension     string   `json:"file_extension" db:"-"`
	IsImage       bool     `json:"is_image" db:"-"`
	IsVideo       bool     `json:"is_video" db:"-"`
	CategoryIDs   []string `json:"category_ids" db:"-"`
}

// Decorate fills the derived fields. baseURL prefixes locally stored files.
func (m *MediaFile) Decorate(baseURL string) {
	if m.StorageType == StorageURL {
		m.PublicURL = m.FileURL
	} else {
		m.PublicURL = strings.TrimRight(baseURL, "/") + "/api/media/" + m.ID
	}
	m.SizeFormatted = humanize.IBytes(uint64(m.FileSize))
	m.Extension = strings.TrimPrefix(strings.ToLower(path.Ext(m.OriginalFilename)), ".")
	m.IsImage = m.FileType == MediaImage
	m.IsVideo = m.FileType == MediaVideo
	if m.CategoryIDs == nil {
		m.CategoryIDs = []string{}
	}
}

// MediaList is one page of a media listing.
type MediaList struct {
	Files      []MediaFile `json:"files"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	PerPage    int         `json:"per_page"`
	TotalPages int         `json:"total_pages"`
}

// MediaFilter narrows a media listing.
type MediaFilter struct {
	FileType    string
	CategoryIDs []string
	Search      string
	PublicOnly  bool
	Page        int
	PerPage     int
}

// MediaUpload describes a file received from a client.
type MediaUpload struct {
	Filename    string
	ContentType string
	AltText     string
	Description string
	IsPublic    bool
	CategoryIDs []string
}

// MediaURLInput registers an externally hosted file.
type MediaURLInput struct {
	URL         string   `json:"url" validate:"required,url,max=500"`
	Filename    string   `json:"filename" validate:"max=255"`
	FileType    string   `json:"file_type" validate:"required,oneof=image video"`
	AltText     string   `json:"alt_text" validate:"max=255"`
	Description string   `json:"description"`
	IsPublic    *bool    `json:"is_public"`
	CategoryIDs []string `json:"category_ids"`
}

// MediaUpdate changes only the fields that are set.
type MediaUpdate struct {
	AltText     *string   `json:"alt_text,omitempty" validate:"omitempty,max=255"`
	Description *string   `json:"description,omitempty"`
	IsPublic    *bool     `json:"is_public,omitempty"`
	CategoryIDs *[]string `json:"category_ids,omitempty"`
}

// MediaCategory groups media files.
type MediaCategory struct {
	ID          string     `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description" db:"description"`
	Icon        string     `json:"icon" db:"icon"`
	Color       string     `json:"color" db:"color"`
	IsActive    bool       `json:"is_active" db:"is_active"`
	FileCount   int        `json:"file_count" db:"file_count"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at" db:"updated_at"`
}

// MediaCategoryInput carries the editable fields of a category.
type MediaCategoryInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
	Icon        string `json:"icon" validate:"max=50"`
	Color       string `json:"color" validate:"omitempty,hexcolor"`
}
