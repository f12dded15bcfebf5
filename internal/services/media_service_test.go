package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isdelr/webempresa/internal/models"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestMediaService_UploadStoresFileAndMetadata(t *testing.T) {
	db := setup(t)
	dir := t.TempDir()
	svc := NewMediaService(db, nil, dir, "http://localhost:8000")
	adminID := createTestUser(t, NewUserService(db, nil), "admin@webempresa.com", "secreto123", true)
	ctx := WithActor(context.Background(), adminID)

	category, err := svc.CreateCategory(ctx, models.MediaCategoryInput{Name: "Logos"})
	require.NoError(t, err)
	assert.Equal(t, "Folder", category.Icon)
	assert.Equal(t, "#3B82F6", category.Color)

	// no declared type: the content is sniffed
	file, err := svc.Upload(ctx, models.MediaUpload{
		Filename:    "Logo Empresa.PNG",
		AltText:     "Logo",
		IsPublic:    true,
		CategoryIDs: []string{category.ID, category.ID},
	}, bytes.NewReader(pngBytes(t, 4, 3)))
	require.NoError(t, err)

	assert.Equal(t, models.MediaImage, file.FileType)
	assert.Equal(t, "image/png", file.MimeType)
	assert.Equal(t, "Logo Empresa.PNG", file.OriginalFilename)
	assert.Equal(t, "png", file.Extension)
	assert.True(t, file.IsImage)
	require.NotNil(t, file.Width)
	assert.Equal(t, 4, *file.Width)
	assert.Equal(t, 3, *file.Height)
	assert.Equal(t, "http://localhost:8000/api/media/"+file.ID, file.PublicURL)
	assert.Equal(t, []string{category.ID}, file.CategoryIDs)
	require.NotNil(t, file.UploadedByID)
	assert.Equal(t, adminID, *file.UploadedByID)
	assert.FileExists(t, filepath.Join(dir, file.ID+".png"))

	categories, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, 1, categories[0].FileCount)

	_, err = svc.CreateCategory(ctx, models.MediaCategoryInput{Name: "Logos"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestMediaService_UploadRejections(t *testing.T) {
	db := setup(t)
	svc := NewMediaService(db, nil, t.TempDir(), "")
	ctx := context.Background()

	_, err := svc.Upload(ctx, models.MediaUpload{Filename: "notas.txt", ContentType: "text/plain"}, strings.NewReader("hola"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Upload(ctx, models.MediaUpload{Filename: "vacio.png", ContentType: "image/png"}, strings.NewReader(""))
	assert.ErrorIs(t, err, ErrInvalidInput)

	big := io.LimitReader(zeroReader{}, MaxUploadSize+10)
	_, err = svc.Upload(ctx, models.MediaUpload{Filename: "grande.mp4", ContentType: "video/mp4"}, big)
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = svc.Upload(ctx, models.MediaUpload{Filename: "a.png", CategoryIDs: []string{"missing"}},
		bytes.NewReader(pngBytes(t, 1, 1)))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

func TestMediaService_AddURL(t *testing.T) {
	db := setup(t)
	svc := NewMediaService(db, nil, t.TempDir(), "")
	ctx := context.Background()

	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.Header().Set("Content-Type", "video/mp4; codecs=avc1")
		w.Header().Set("Content-Length", "2048")
	}))
	defer remote.Close()

	file, err := svc.AddURL(ctx, models.MediaURLInput{URL: remote.URL + "/videos/demo.mp4", FileType: models.MediaVideo})
	require.NoError(t, err)
	assert.Equal(t, "video/mp4", file.MimeType)
	assert.EqualValues(t, 2048, file.FileSize)
	assert.Equal(t, "2.0 KiB", file.SizeFormatted)
	assert.Equal(t, "demo.mp4", file.OriginalFilename)
	assert.Equal(t, remote.URL+"/videos/demo.mp4", file.PublicURL)
	assert.True(t, file.IsPublic)

	// an unreachable host still registers the file
	down := httptest.NewServer(http.NotFoundHandler())
	downURL := down.URL
	down.Close()
	file, err = svc.AddURL(ctx, models.MediaURLInput{URL: downURL + "/foto.jpg", FileType: models.MediaImage})
	require.NoError(t, err)
	assert.Equal(t, "image/unknown", file.MimeType)
	assert.Zero(t, file.FileSize)

	_, err = svc.AddURL(ctx, models.MediaURLInput{URL: "ftp://example.com/a.png", FileType: models.MediaImage})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestMediaService_ListUpdateDelete(t *testing.T) {
	db := setup(t)
	svc := NewMediaService(db, nil, t.TempDir(), "")
	ctx := context.Background()

	category, err := svc.CreateCategory(ctx, models.MediaCategoryInput{Name: "Portada"})
	require.NoError(t, err)

	var ids []string
	for _, name := range []string{"uno.png", "dos.png", "tres.png"} {
		f, err := svc.Upload(ctx, models.MediaUpload{Filename: name, IsPublic: true}, bytes.NewReader(pngBytes(t, 1, 1)))
		require.NoError(t, err)
		ids = append(ids, f.ID)
	}
	_, err = svc.AddURL(ctx, models.MediaURLInput{URL: "http://127.0.0.1:1/clip.webm", FileType: models.MediaVideo})
	require.NoError(t, err)

	list, err := svc.ListMedia(ctx, models.MediaFilter{FileType: models.MediaImage, PerPage: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, list.Total)
	assert.Equal(t, 2, list.TotalPages)
	assert.Len(t, list.Files, 2)

	list, err = svc.ListMedia(ctx, models.MediaFilter{Search: "DOS"})
	require.NoError(t, err)
	require.Len(t, list.Files, 1)
	assert.Equal(t, ids[1], list.Files[0].ID)

	alt := "Foto de portada"
	updated, err := svc.UpdateMedia(ctx, ids[0], models.MediaUpdate{AltText: &alt, CategoryIDs: &[]string{category.ID}})
	require.NoError(t, err)
	assert.Equal(t, alt, updated.AltText)
	assert.Equal(t, []string{category.ID}, updated.CategoryIDs)
	assert.True(t, updated.IsPublic, "unset fields are kept")

	list, err = svc.ListMedia(ctx, models.MediaFilter{CategoryIDs: []string{category.ID}})
	require.NoError(t, err)
	require.Len(t, list.Files, 1)
	assert.Equal(t, ids[0], list.Files[0].ID)

	require.NoError(t, svc.DeleteMedia(ctx, ids[0]))
	_, err = svc.GetMedia(ctx, ids[0])
	assert.ErrorIs(t, err, ErrNotFound)
	list, err = svc.ListMedia(ctx, models.MediaFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, list.Total)
}

func TestMediaService_OpenOnlyPublic(t *testing.T) {
	db := setup(t)
	svc := NewMediaService(db, nil, t.TempDir(), "")
	ctx := context.Background()

	content := pngBytes(t, 2, 2)
	public, err := svc.Upload(ctx, models.MediaUpload{Filename: "a.png", IsPublic: true}, bytes.NewReader(content))
	require.NoError(t, err)
	private, err := svc.Upload(ctx, models.MediaUpload{Filename: "b.png"}, bytes.NewReader(content))
	require.NoError(t, err)

	file, f, err := svc.OpenMedia(ctx, public.ID)
	require.NoError(t, err)
	defer f.Close()
	got, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, content, got)
	assert.Equal(t, "image/png", file.MimeType)

	_, _, err = svc.OpenMedia(ctx, private.ID)
	assert.True(t, errors.Is(err, ErrNotFound))

	// stored bytes gone
	require.NoError(t, os.Remove(filepath.Join(svc.dir, public.Filename)))
	_, _, err = svc.OpenMedia(ctx, public.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
