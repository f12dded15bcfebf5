package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/isdelr/webempresa/internal/models"
)

const pageColumns = `id, page_key, title, content_json, meta_title, meta_description, meta_keywords,
	is_active, created_at, updated_at`

// PageContentServiceProvider defines the interface for page content services.
type PageContentServiceProvider interface {
	GetPublicPage(ctx context.Context, key string) (models.PageContent, error)
	ListPages(ctx context.Context) ([]models.PageContent, error)
	GetPage(ctx context.Context, key string) (models.PageContent, error)
	CreatePage(ctx context.Context, input models.PageContentCreate) (models.PageContent, error)
	UpdatePage(ctx context.Context, key string, input models.PageContentUpdate) (models.PageContent, error)
	UpdateSection(ctx context.Context, key, section string, data map[string]interface{}) (models.PageContent, error)
	DeletePage(ctx context.Context, key string) error
}

// PageContentService manages the editable content of the public pages.
type PageContentService struct {
	db     *sqlx.DB
	events EventServiceProvider
}

// NewPageContentService creates a new PageContentService.
func NewPageContentService(db *sqlx.DB, events EventServiceProvider) *PageContentService {
	return &PageContentService{db: db, events: events}
}

// GetPublicPage returns an active page.
func (s *PageContentService) GetPublicPage(ctx context.Context, key string) (models.PageContent, error) {
	page, err := s.GetPage(ctx, key)
	if err != nil {
		return models.PageContent{}, err
	}
	if !page.IsActive {
		return models.PageContent{}, fmt.Errorf("page %w", ErrNotFound)
	}
	return page, nil
}

// ListPages returns every page ordered by key.
func (s *PageContentService) ListPages(ctx context.Context) ([]models.PageContent, error) {
	pages := []models.PageContent{}
	if err := s.db.SelectContext(ctx, &pages, "SELECT "+pageColumns+" FROM page_contents ORDER BY page_key"); err != nil {
		return nil, err
	}
	return pages, nil
}

// GetPage returns a page by key regardless of whether it is active.
func (s *PageContentService) GetPage(ctx context.Context, key string) (models.PageContent, error) {
	var page models.PageContent
	if err := s.db.GetContext(ctx, &page, s.db.Rebind("SELECT "+pageColumns+" FROM page_contents WHERE page_key = ?"), key); err != nil {
		return models.PageContent{}, notFound(err, "page")
	}
	return page, nil
}

// CreatePage stores a page for one of the known keys.
func (s *PageContentService) CreatePage(ctx context.Context, input models.PageContentCreate) (models.PageContent, error) {
	if !models.ValidPageKey(input.PageKey) {
		return models.PageContent{}, invalid("page_key must be one of %s", strings.Join(models.PageKeys, ", "))
	}
	taken, err := exists(ctx, s.db, "SELECT id FROM page_contents WHERE page_key = ?", input.PageKey)
	if err != nil {
		return models.PageContent{}, err
	}
	if taken {
		return models.PageContent{}, fmt.Errorf("page %q %w", input.PageKey, ErrConflict)
	}

	page := models.PageContent{
		ID:              uuid.New().String(),
		PageKey:         input.PageKey,
		Title:           strings.TrimSpace(input.Title),
		ContentData:     models.JSONMap(input.ContentData),
		MetaTitle:       input.MetaTitle,
		MetaDescription: input.MetaDescription,
		MetaKeywords:    input.MetaKeywords,
		IsActive:        input.IsActive == nil || *input.IsActive,
		CreatedAt:       timeNow(),
	}
	if page.ContentData == nil {
		page.ContentData = models.JSONMap{}
	}

	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO page_contents (id, page_key, title, content_json, meta_title, meta_description, meta_keywords, is_active, created_at)
		VALUES (:id, :page_key, :title, :content_json, :meta_title, :meta_description, :meta_keywords, :is_active, :created_at)`, page)
	if err != nil {
		if isUniqueViolation(err) {
			return models.PageContent{}, fmt.Errorf("page %q %w", input.PageKey, ErrConflict)
		}
		return models.PageContent{}, err
	}

	record(ctx, s.events, "page.create", "info", fmt.Sprintf("Page '%s' created.", page.PageKey))
	return page, nil
}

// UpdatePage applies the non-nil fields of input. A content_data payload replaces the whole document.
func (s *PageContentService) UpdatePage(ctx context.Context, key string, input models.PageContentUpdate) (models.PageContent, error) {
	page, err := s.GetPage(ctx, key)
	if err != nil {
		return models.PageContent{}, err
	}

	if input.Title != nil {
		page.Title = strings.TrimSpace(*input.Title)
	}
	if input.ContentData != nil {
		page.ContentData = models.JSONMap(input.ContentData)
	}
	if input.MetaTitle != nil {
		page.MetaTitle = *input.MetaTitle
	}
	if input.MetaDescription != nil {
		page.MetaDescription = *input.MetaDescription
	}
	if input.MetaKeywords != nil {
		page.MetaKeywords = *input.MetaKeywords
	}
	if input.IsActive != nil {
		page.IsActive = *input.IsActive
	}

	if err := s.save(ctx, &page); err != nil {
		return models.PageContent{}, err
	}
	record(ctx, s.events, "page.update", "info", fmt.Sprintf("Page '%s' updated.", page.PageKey))
	return page, nil
}

// UpdateSection replaces one top-level section of content_data and leaves the others untouched.
func (s *PageContentService) UpdateSection(ctx context.Context, key, section string, data map[string]interface{}) (models.PageContent, error) {
	section = strings.TrimSpace(section)
	if section == "" {
		return models.PageContent{}, invalid("section name is required")
	}
	page, err := s.GetPage(ctx, key)
	if err != nil {
		return models.PageContent{}, err
	}

	if page.ContentData == nil {
		page.ContentData = models.JSONMap{}
	}
	if data == nil {
		data = map[string]interface{}{}
	}
	page.ContentData[section] = data

	if err := s.save(ctx, &page); err != nil {
		return models.PageContent{}, err
	}
	record(ctx, s.events, "page.section.update", "info", fmt.Sprintf("Section '%s' of page '%s' updated.", section, page.PageKey))
	return page, nil
}

// DeletePage removes a page.
func (s *PageContentService) DeletePage(ctx context.Context, key string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM page_contents WHERE page_key = ?"), key)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("page %w", ErrNotFound)
	}
	record(ctx, s.events, "page.delete", "warn", fmt.Sprintf("Page '%s' deleted.", key))
	return nil
}

func (s *PageContentService) save(ctx context.Context, page *models.PageContent) error {
	now := timeNow()
	page.UpdatedAt = &now
	_, err := s.db.NamedExecContext(ctx, `
		UPDATE page_contents SET title = :title, content_json = :content_json, meta_title = :meta_title,
			meta_description = :meta_description, meta_keywords = :meta_keywords, is_active = :is_active,
			updated_at = :updated_at
		WHERE id = :id`, page)
	return err
}
