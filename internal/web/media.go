package web

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/isdelr/webempresa/internal/apiclient"
	"github.com/isdelr/webempresa/internal/models"
	"github.com/isdelr/webempresa/internal/services"
)

type mediaData struct {
	Files      []models.MediaFile
	FileType   string
	Page       int
	TotalPages int
}

// mediaOptions lists image files for the picker. The form still works without them.
func (s *Server) mediaOptions(r *http.Request) []Option {
	sess := sessionFrom(r.Context())
	if sess == nil {
		return nil
	}
	list, err := sess.Client.MediaFiles(r.Context(), models.MediaImage, 1)
	if err != nil {
		log.Warn().Err(err).Msg("Media picker unavailable")
		return nil
	}
	options := make([]Option, 0, len(list.Files))
	for _, f := range list.Files {
		options = append(options, Option{Value: f.PublicURL, Label: f.OriginalFilename})
	}
	return options
}

func (s *Server) mediaLibrary(w http.ResponseWriter, r *http.Request) {
	s.renderMedia(w, r, http.StatusOK, "")
}

func (s *Server) renderMedia(w http.ResponseWriter, r *http.Request, status int, errMsg string) {
	sess := sessionFrom(r.Context())
	fileType := r.URL.Query().Get("type")
	page := formInt(r, "page")
	list, err := sess.Client.MediaFiles(r.Context(), fileType, page)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, status, "media", pageData{Title: "Biblioteca de medios", Error: errMsg, Data: mediaData{
		Files:      list.Files,
		FileType:   fileType,
		Page:       list.Page,
		TotalPages: list.TotalPages,
	}})
}

func (s *Server) mediaUpload(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, services.MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(services.MaxUploadSize); err != nil {
		msg := "Formulario no válido"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			msg = "Archivo demasiado grande (máximo 10MB)"
		}
		s.renderMedia(w, r, http.StatusUnprocessableEntity, msg)
		return
	}
	part, header, err := r.FormFile("file")
	if err != nil {
		s.renderMedia(w, r, http.StatusUnprocessableEntity, "Selecciona un archivo")
		return
	}
	defer part.Close()

	_, err = sess.Client.UploadMedia(r.Context(), models.MediaUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		AltText:     formString(r, "alt_text"),
		Description: formString(r, "description"),
		IsPublic:    true,
	}, part)
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			s.fail(w, r, err)
			return
		}
		s.renderMedia(w, r, http.StatusUnprocessableEntity, message(err, "No se pudo subir el archivo"))
		return
	}
	http.Redirect(w, r, "/admin/media?ok="+url.QueryEscape("Archivo subido"), http.StatusSeeOther)
}

func (s *Server) mediaAddURL(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	_, err := sess.Client.AddMediaURL(r.Context(), models.MediaURLInput{
		URL:      formString(r, "url"),
		Filename: formString(r, "filename"),
		FileType: formString(r, "file_type"),
		AltText:  formString(r, "alt_text"),
	})
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			s.fail(w, r, err)
			return
		}
		s.renderMedia(w, r, http.StatusUnprocessableEntity, message(err, "No se pudo añadir la URL"))
		return
	}
	http.Redirect(w, r, "/admin/media?ok="+url.QueryEscape("URL añadida"), http.StatusSeeOther)
}

func (s *Server) mediaDelete(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	if err := sess.Client.DeleteMedia(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/admin/media?ok=Eliminado", http.StatusSeeOther)
}
