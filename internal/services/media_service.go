package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif" // register decoders for image.DecodeConfig
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/isdelr/webempresa/internal/models"
)

// MaxUploadSize caps a single uploaded file.
const MaxUploadSize = 10 << 20

const mediaColumns = `id, filename, original_filename, file_type, mime_type, file_size, storage_type, file_url,
	file_path, alt_text, description, width, height, is_active, is_public, uploaded_by_id, created_at, updated_at`

var allowedMedia = map[string]string{
	"image/jpeg": models.MediaImage,
	"image/png":  models.MediaImage,
	"image/gif":  models.MediaImage,
	"image/webp": models.MediaImage,
	"video/mp4":  models.MediaVideo,
	"video/webm": models.MediaVideo,
	"video/ogg":  models.MediaVideo,
}

// MediaServiceProvider defines the interface for the media library.
type MediaServiceProvider interface {
	ListMedia(ctx context.Context, filter models.MediaFilter) (models.MediaList, error)
	GetMedia(ctx context.Context, id string) (models.MediaFile, error)
	Upload(ctx context.Context, upload models.MediaUpload, r io.Reader) (models.MediaFile, error)
	AddURL(ctx context.Context, input models.MediaURLInput) (models.MediaFile, error)
	UpdateMedia(ctx context.Context, id string, update models.MediaUpdate) (models.MediaFile, error)
	DeleteMedia(ctx context.Context, id string) error
	OpenMedia(ctx context.Context, id string) (models.MediaFile, *os.File, error)
	ListCategories(ctx context.Context) ([]models.MediaCategory, error)
	CreateCategory(ctx context.Context, input models.MediaCategoryInput) (models.MediaCategory, error)
}

// MediaService stores uploads on disk and their metadata in the database.
type MediaService struct {
	db      *sqlx.DB
	events  EventServiceProvider
	dir     string
	baseURL string
	client  *http.Client
}

// NewMediaService creates a MediaService writing files under dir. baseURL prefixes
// the public URL of local files.
func NewMediaService(db *sqlx.DB, events EventServiceProvider, dir, baseURL string) *MediaService {
	return &MediaService{
		db:      db,
		events:  events,
		dir:     dir,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// ListMedia returns one page of active files, newest first.
func (s *MediaService) ListMedia(ctx context.Context, filter models.MediaFilter) (models.MediaList, error) {
	where := []string{"is_active = ?"}
	args := []interface{}{true}
	if filter.PublicOnly {
		where = append(where, "is_public = ?")
		args = append(args, true)
	}
	if filter.FileType != "" {
		where = append(where, "file_type = ?")
		args = append(args, filter.FileType)
	}
	if q := strings.TrimSpace(filter.Search); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		where = append(where, "(LOWER(original_filename) LIKE ? OR LOWER(alt_text) LIKE ? OR LOWER(description) LIKE ?)")
		args = append(args, like, like, like)
	}
	if len(filter.CategoryIDs) > 0 {
		where = append(where, "id IN (SELECT media_file_id FROM media_file_categories WHERE category_id IN (?))")
		args = append(args, filter.CategoryIDs)
	}
	cond := strings.Join(where, " AND ")

	perPage := filter.PerPage
	if perPage == 0 {
		perPage = 20
	}
	perPage = clamp(perPage, 1, 100)
	page := filter.Page
	if page < 1 {
		page = 1
	}

	query, qargs, err := sqlx.In("SELECT COUNT(*) FROM media_files WHERE "+cond, args...)
	if err != nil {
		return models.MediaList{}, err
	}
	list := models.MediaList{Files: []models.MediaFile{}, Page: page, PerPage: perPage}
	if err := s.db.GetContext(ctx, &list.Total, s.db.Rebind(query), qargs...); err != nil {
		return models.MediaList{}, err
	}
	list.TotalPages = (list.Total + perPage - 1) / perPage

	query, qargs, err = sqlx.In("SELECT "+mediaColumns+" FROM media_files WHERE "+cond+
		" ORDER BY created_at DESC LIMIT ? OFFSET ?", append(args, perPage, pageOffset(page, perPage))...)
	if err != nil {
		return models.MediaList{}, err
	}
	if err := s.db.SelectContext(ctx, &list.Files, s.db.Rebind(query), qargs...); err != nil {
		return models.MediaList{}, err
	}
	if err := s.decorate(ctx, list.Files); err != nil {
		return models.MediaList{}, err
	}
	return list, nil
}

// GetMedia returns an active file by id.
func (s *MediaService) GetMedia(ctx context.Context, id string) (models.MediaFile, error) {
	var file models.MediaFile
	err := s.db.GetContext(ctx, &file, s.db.Rebind(
		"SELECT "+mediaColumns+" FROM media_files WHERE id = ? AND is_active = ?"), id, true)
	if err != nil {
		return models.MediaFile{}, notFound(err, "media file")
	}
	files := []models.MediaFile{file}
	if err := s.decorate(ctx, files); err != nil {
		return models.MediaFile{}, err
	}
	return files[0], nil
}

// Upload validates and stores a file read from r. The declared content type is
// trusted unless it is missing or generic, in which case it is sniffed.
func (s *MediaService) Upload(ctx context.Context, upload models.MediaUpload, r io.Reader) (models.MediaFile, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return models.MediaFile{}, err
	}
	if len(data) > MaxUploadSize {
		return models.MediaFile{}, fmt.Errorf("%w: maximum is %d MB", ErrTooLarge, MaxUploadSize>>20)
	}
	if len(data) == 0 {
		return models.MediaFile{}, invalid("file is empty")
	}

	mimeType := upload.ContentType
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType, _, _ = strings.Cut(http.DetectContentType(data), ";")
	}
	kind, ok := allowedMedia[mimeType]
	if !ok {
		return models.MediaFile{}, invalid("file type %s is not allowed", mimeType)
	}
	if err := s.checkCategories(ctx, upload.CategoryIDs); err != nil {
		return models.MediaFile{}, err
	}

	id := uuid.New().String()
	ext := strings.ToLower(filepath.Ext(upload.Filename))
	if ext == "" {
		if exts, _ := mime.ExtensionsByType(mimeType); len(exts) > 0 {
			ext = exts[0]
		}
	}
	name := id + ext
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return models.MediaFile{}, err
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return models.MediaFile{}, err
	}

	original := filepath.Base(upload.Filename)
	if original == "." || original == string(filepath.Separator) {
		original = name
	}
	file := models.MediaFile{
		ID:               id,
		Filename:         name,
		OriginalFilename: original,
		FileType:         kind,
		MimeType:         mimeType,
		FileSize:         int64(len(data)),
		StorageType:      models.StorageLocal,
		FilePath:         name,
		AltText:          upload.AltText,
		Description:      upload.Description,
		IsActive:         true,
		IsPublic:         upload.IsPublic,
		UploadedByID:     ActorFrom(ctx),
		CreatedAt:        timeNow(),
	}
	if kind == models.MediaImage {
		// webp has no decoder here and keeps nil dimensions
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
			file.Width, file.Height = &cfg.Width, &cfg.Height
		}
	}

	if err := s.insert(ctx, file, upload.CategoryIDs); err != nil {
		_ = os.Remove(filepath.Join(s.dir, name))
		return models.MediaFile{}, err
	}
	record(ctx, s.events, "media.upload", "info", fmt.Sprintf("Media file '%s' uploaded.", file.OriginalFilename))
	return s.GetMedia(ctx, id)
}

// AddURL registers an external file. Metadata comes from a HEAD request; when the
// remote does not answer the file is still stored with an unknown type.
func (s *MediaService) AddURL(ctx context.Context, input models.MediaURLInput) (models.MediaFile, error) {
	u, err := url.Parse(input.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return models.MediaFile{}, invalid("url must be an absolute http(s) address")
	}
	if input.FileType != models.MediaImage && input.FileType != models.MediaVideo {
		return models.MediaFile{}, invalid("file type must be image or video")
	}
	if err := s.checkCategories(ctx, input.CategoryIDs); err != nil {
		return models.MediaFile{}, err
	}

	mimeType, size := s.head(ctx, input.URL)
	if mimeType == "" {
		mimeType = input.FileType + "/unknown"
	}
	name := strings.TrimSpace(input.Filename)
	if name == "" {
		name = path.Base(u.Path)
	}
	if name == "." || name == "/" {
		name = u.Host
	}
	public := true
	if input.IsPublic != nil {
		public = *input.IsPublic
	}

	file := models.MediaFile{
		ID:               uuid.New().String(),
		Filename:         name,
		OriginalFilename: name,
		FileType:         input.FileType,
		MimeType:         mimeType,
		FileSize:         size,
		StorageType:      models.StorageURL,
		FileURL:          input.URL,
		AltText:          input.AltText,
		Description:      input.Description,
		IsActive:         true,
		IsPublic:         public,
		UploadedByID:     ActorFrom(ctx),
		CreatedAt:        timeNow(),
	}
	if err := s.insert(ctx, file, input.CategoryIDs); err != nil {
		return models.MediaFile{}, err
	}
	record(ctx, s.events, "media.url", "info", fmt.Sprintf("Media URL '%s' added.", input.URL))
	return s.GetMedia(ctx, file.ID)
}

// UpdateMedia applies the set fields of update. Category links are replaced when given.
func (s *MediaService) UpdateMedia(ctx context.Context, id string, update models.MediaUpdate) (models.MediaFile, error) {
	file, err := s.GetMedia(ctx, id)
	if err != nil {
		return models.MediaFile{}, err
	}
	if update.AltText != nil {
		file.AltText = *update.AltText
	}
	if update.Description != nil {
		file.Description = *update.Description
	}
	if update.IsPublic != nil {
		file.IsPublic = *update.IsPublic
	}
	if update.CategoryIDs != nil {
		if err := s.checkCategories(ctx, *update.CategoryIDs); err != nil {
			return models.MediaFile{}, err
		}
	}
	now := timeNow()
	file.UpdatedAt = &now

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.MediaFile{}, err
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx, `
		UPDATE media_files SET alt_text = :alt_text, description = :description, is_public = :is_public,
			updated_at = :updated_at
		WHERE id = :id`, file); err != nil {
		return models.MediaFile{}, err
	}
	if update.CategoryIDs != nil {
		if err := linkCategories(ctx, tx, id, *update.CategoryIDs, true); err != nil {
			return models.MediaFile{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return models.MediaFile{}, err
	}
	return s.GetMedia(ctx, id)
}

// DeleteMedia hides a file. The stored bytes are kept.
func (s *MediaService) DeleteMedia(ctx context.Context, id string) error {
	file, err := s.GetMedia(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(
		"UPDATE media_files SET is_active = ?, updated_at = ? WHERE id = ?"), false, timeNow(), id); err != nil {
		return err
	}
	record(ctx, s.events, "media.delete", "warn", fmt.Sprintf("Media file '%s' deleted.", file.OriginalFilename))
	return nil
}

// OpenMedia returns a public file and, for local storage, its opened content.
// The caller closes the file.
func (s *MediaService) OpenMedia(ctx context.Context, id string) (models.MediaFile, *os.File, error) {
	file, err := s.GetMedia(ctx, id)
	if err != nil {
		return models.MediaFile{}, nil, err
	}
	if !file.IsPublic {
		return models.MediaFile{}, nil, fmt.Errorf("media file %w", ErrNotFound)
	}
	if file.StorageType == models.StorageURL {
		return file, nil, nil
	}
	f, err := os.Open(filepath.Join(s.dir, filepath.Base(file.FilePath)))
	if os.IsNotExist(err) {
		return models.MediaFile{}, nil, fmt.Errorf("media file %w", ErrNotFound)
	}
	if err != nil {
		return models.MediaFile{}, nil, err
	}
	return file, f, nil
}

// ListCategories returns the active categories with their active file counts.
func (s *MediaService) ListCategories(ctx context.Context) ([]models.MediaCategory, error) {
	categories := []models.MediaCategory{}
	err := s.db.SelectContext(ctx, &categories, s.db.Rebind(`
		SELECT c.id, c.name, c.description, c.icon, c.color, c.is_active, c.created_at, c.updated_at,
			(SELECT COUNT(*) FROM media_file_categories l JOIN media_files f ON f.id = l.media_file_id
				WHERE l.category_id = c.id AND f.is_active = ?) AS file_count
		FROM media_categories c WHERE c.is_active = ? ORDER BY c.name`), true, true)
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// CreateCategory stores a category with a unique name.
func (s *MediaService) CreateCategory(ctx context.Context, input models.MediaCategoryInput) (models.MediaCategory, error) {
	category := models.MediaCategory{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Icon:        input.Icon,
		Color:       input.Color,
		IsActive:    true,
		CreatedAt:   timeNow(),
	}
	if category.Name == "" {
		return models.MediaCategory{}, invalid("name is required")
	}
	if category.Icon == "" {
		category.Icon = "Folder"
	}
	if category.Color == "" {
		category.Color = "#3B82F6"
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO media_categories (id, name, description, icon, color, is_active, created_at)
		VALUES (:id, :name, :description, :icon, :color, :is_active, :created_at)`, category)
	if isUniqueViolation(err) {
		return models.MediaCategory{}, fmt.Errorf("media category %w", ErrConflict)
	}
	if err != nil {
		return models.MediaCategory{}, err
	}
	record(ctx, s.events, "media.category.create", "info", fmt.Sprintf("Media category '%s' created.", category.Name))
	return category, nil
}

func (s *MediaService) insert(ctx context.Context, file models.MediaFile, categoryIDs []string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO media_files (id, filename, original_filename, file_type, mime_type, file_size, storage_type,
			file_url, file_path, alt_text, description, width, height, is_active, is_public, uploaded_by_id, created_at)
		VALUES (:id, :filename, :original_filename, :file_type, :mime_type, :file_size, :storage_type,
			:file_url, :file_path, :alt_text, :description, :width, :height, :is_active, :is_public, :uploaded_by_id, :created_at)`, file)
	if err != nil {
		return err
	}
	if err := linkCategories(ctx, tx, file.ID, categoryIDs, false); err != nil {
		return err
	}
	return tx.Commit()
}

func linkCategories(ctx context.Context, tx *sqlx.Tx, fileID string, categoryIDs []string, replace bool) error {
	if replace {
		if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM media_file_categories WHERE media_file_id = ?"), fileID); err != nil {
			return err
		}
	}
	for _, id := range dedupe(categoryIDs) {
		if _, err := tx.ExecContext(ctx, tx.Rebind(
			"INSERT INTO media_file_categories (media_file_id, category_id) VALUES (?, ?)"), fileID, id); err != nil {
			return err
		}
	}
	return nil
}

// checkCategories rejects ids that are not active categories.
func (s *MediaService) checkCategories(ctx context.Context, ids []string) error {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In("SELECT COUNT(*) FROM media_categories WHERE id IN (?) AND is_active = ?", ids, true)
	if err != nil {
		return err
	}
	var n int
	if err := s.db.GetContext(ctx, &n, s.db.Rebind(query), args...); err != nil {
		return err
	}
	if n != len(ids) {
		return invalid("unknown media category")
	}
	return nil
}

// decorate loads category links and derived fields for files.
func (s *MediaService) decorate(ctx context.Context, files []models.MediaFile) error {
	if len(files) == 0 {
		return nil
	}
	index := make(map[string]int, len(files))
	ids := make([]string, len(files))
	for i := range files {
		index[files[i].ID] = i
		ids[i] = files[i].ID
	}

	query, args, err := sqlx.In(
		"SELECT media_file_id, category_id FROM media_file_categories WHERE media_file_id IN (?) ORDER BY category_id", ids)
	if err != nil {
		return err
	}
	var links []struct {
		FileID     string `db:"media_file_id"`
		CategoryID string `db:"category_id"`
	}
	if err := s.db.SelectContext(ctx, &links, s.db.Rebind(query), args...); err != nil {
		return err
	}
	for _, l := range links {
		i := index[l.FileID]
		files[i].CategoryIDs = append(files[i].CategoryIDs, l.CategoryID)
	}
	for i := range files {
		files[i].Decorate(s.baseURL)
	}
	return nil
}

func (s *MediaService) head(ctx context.Context, rawURL string) (string, int64) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return "", 0
	}
	resp, err := s.client.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("url", rawURL).Msg("Media URL did not answer HEAD")
		return "", 0
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", 0
	}
	mimeType, _, _ := strings.Cut(resp.Header.Get("Content-Type"), ";")
	size := resp.ContentLength
	if size < 0 {
		size = 0
	}
	return strings.TrimSpace(mimeType), size
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
