package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/isdelr/webempresa/internal/models"
	"github.com/isdelr/webempresa/internal/slug"
)

const newsColumns = `id, title, slug, content, excerpt, meta_description, meta_keywords, status,
	featured, views_count, featured_image, author_id, created_at, updated_at, published_at`

// NewsServiceProvider defines the interface for news services.
type NewsServiceProvider interface {
	ListNews(ctx context.Context, filter models.NewsFilter) ([]models.NewsArticle, error)
	GetNewsBySlug(ctx context.Context, slug string) (models.NewsArticle, error)
	GetNews(ctx context.Context, id string) (models.NewsArticle, error)
	CreateNews(ctx context.Context, input models.NewsInput, authorID string) (models.NewsArticle, error)
	UpdateNews(ctx context.Context, id string, input models.NewsInput) (models.NewsArticle, error)
	DeleteNews(ctx context.Context, id string) error
	CountNews(ctx context.Context, status string) (int, error)
}

// NewsService provides business logic for news articles.
type NewsService struct {
	db     *sqlx.DB
	events EventServiceProvider
}

// NewNewsService creates a new NewsService.
func NewNewsService(db *sqlx.DB, events EventServiceProvider) *NewsService {
	return &NewsService{db: db, events: events}
}

// ListNews returns articles matching filter. Public listings are ordered by publication date.
func (s *NewsService) ListNews(ctx context.Context, filter models.NewsFilter) ([]models.NewsArticle, error) {
	where := []string{"1 = 1"}
	var args []interface{}
	if filter.Published {
		where = append(where, "status = ?")
		args = append(args, models.NewsPublished)
	} else if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Featured != nil {
		where = append(where, "featured = ?")
		args = append(args, *filter.Featured)
	}

	order := "created_at DESC"
	if filter.Published {
		order = "published_at DESC, created_at DESC"
	}

	query := "SELECT " + newsColumns + " FROM news_articles WHERE " + strings.Join(where, " AND ") + " ORDER BY " + order
	if filter.Limit > 0 {
		filter.Limit = clamp(filter.Limit, 1, 50)
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, pageOffset(filter.Page, filter.Limit))
	}

	articles := []models.NewsArticle{}
	if err := s.db.SelectContext(ctx, &articles, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return articles, nil
}

// GetNewsBySlug returns a published article and counts the view.
func (s *NewsService) GetNewsBySlug(ctx context.Context, articleSlug string) (models.NewsArticle, error) {
	var article models.NewsArticle
	err := s.db.GetContext(ctx, &article, s.db.Rebind(
		"SELECT "+newsColumns+" FROM news_articles WHERE slug = ? AND status = ?"), articleSlug, models.NewsPublished)
	if err != nil {
		return models.NewsArticle{}, notFound(err, "article")
	}

	if _, err := s.db.ExecContext(ctx, s.db.Rebind(
		"UPDATE news_articles SET views_count = views_count + 1 WHERE id = ?"), article.ID); err != nil {
		return models.NewsArticle{}, err
	}
	article.ViewsCount++
	return article, nil
}

// GetNews returns an article by id regardless of its status.
func (s *NewsService) GetNews(ctx context.Context, id string) (models.NewsArticle, error) {
	var article models.NewsArticle
	err := s.db.GetContext(ctx, &article, s.db.Rebind("SELECT "+newsColumns+" FROM news_articles WHERE id = ?"), id)
	if err != nil {
		return models.NewsArticle{}, notFound(err, "article")
	}
	return article, nil
}

// CreateNews stores a new article with a unique slug derived from its title.
func (s *NewsService) CreateNews(ctx context.Context, input models.NewsInput, authorID string) (models.NewsArticle, error) {
	articleSlug, err := s.uniqueSlug(ctx, input.Title, "")
	if err != nil {
		return models.NewsArticle{}, err
	}

	now := timeNow()
	article := models.NewsArticle{
		ID:        uuid.New().String(),
		Slug:      articleSlug,
		CreatedAt: now,
	}
	applyNewsInput(&article, input)
	if authorID != "" {
		article.AuthorID = &authorID
	}
	if article.IsPublished() {
		article.PublishedAt = &now
	}

	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO news_articles (id, title, slug, content, excerpt, meta_description, meta_keywords, status,
			featured, views_count, featured_image, author_id, created_at, published_at)
		VALUES (:id, :title, :slug, :content, :excerpt, :meta_description, :meta_keywords, :status,
			:featured, 0, :featured_image, :author_id, :created_at, :published_at)`, article)
	if err != nil {
		return models.NewsArticle{}, err
	}

	record(ctx, s.events, "news.create", "info", fmt.Sprintf("News article '%s' created.", article.Title))
	return article, nil
}

// UpdateNews replaces the editable fields of an article. A new title gets a new slug,
// and the first transition to published stamps published_at.
func (s *NewsService) UpdateNews(ctx context.Context, id string, input models.NewsInput) (models.NewsArticle, error) {
	article, err := s.GetNews(ctx, id)
	if err != nil {
		return models.NewsArticle{}, err
	}

	if input.Title != article.Title {
		article.Slug, err = s.uniqueSlug(ctx, input.Title, article.ID)
		if err != nil {
			return models.NewsArticle{}, err
		}
	}
	applyNewsInput(&article, input)

	now := timeNow()
	article.UpdatedAt = &now
	if article.IsPublished() && article.PublishedAt == nil {
		article.PublishedAt = &now
	}

	_, err = s.db.NamedExecContext(ctx, `
		UPDATE news_articles SET title = :title, slug = :slug, content = :content, excerpt = :excerpt,
			meta_description = :meta_description, meta_keywords = :meta_keywords, status = :status,
			featured = :featured, featured_image = :featured_image, updated_at = :updated_at, published_at = :published_at
		WHERE id = :id`, article)
	if err != nil {
		return models.NewsArticle{}, err
	}

	record(ctx, s.events, "news.update", "info", fmt.Sprintf("News article '%s' updated.", article.Title))
	return article, nil
}

// DeleteNews removes an article.
func (s *NewsService) DeleteNews(ctx context.Context, id string) error {
	article, err := s.GetNews(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM news_articles WHERE id = ?"), id); err != nil {
		return err
	}
	record(ctx, s.events, "news.delete", "warn", fmt.Sprintf("News article '%s' deleted.", article.Title))
	return nil
}

// CountNews counts articles, optionally of one status.
func (s *NewsService) CountNews(ctx context.Context, status string) (int, error) {
	var n int
	var err error
	if status == "" {
		err = s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM news_articles")
	} else {
		err = s.db.GetContext(ctx, &n, s.db.Rebind("SELECT COUNT(*) FROM news_articles WHERE status = ?"), status)
	}
	return n, err
}

func (s *NewsService) uniqueSlug(ctx context.Context, title, selfID string) (string, error) {
	return slug.Unique(slug.Make(title), func(candidate string) (bool, error) {
		return exists(ctx, s.db, "SELECT id FROM news_articles WHERE slug = ? AND id <> ?", candidate, selfID)
	})
}

func applyNewsInput(a *models.NewsArticle, in models.NewsInput) {
	a.Title = strings.TrimSpace(in.Title)
	a.Content = in.Content
	a.Excerpt = in.Excerpt
	a.MetaDescription = in.MetaDescription
	a.MetaKeywords = in.MetaKeywords
	a.Status = in.Status
	if a.Status == "" {
		a.Status = models.NewsDraft
	}
	a.Featured = in.Featured
	a.FeaturedImage = in.FeaturedImage
}
