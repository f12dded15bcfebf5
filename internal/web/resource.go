package web

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/isdelr/webempresa/internal/apiclient"
)

// resource is a list + form editor over one API collection. T is the record
// type, In the payload sent to the API.
type resource[T any, In any] struct {
	path    string // under /admin
	title   string
	columns []string
	filters []Option // optional ?status= choices
	media   bool     // the form offers the media picker

	list   func(ctx context.Context, c *apiclient.Client, filter string) ([]T, error)
	get    func(ctx context.Context, c *apiclient.Client, id string) (T, error)
	create func(ctx context.Context, c *apiclient.Client, in In) error // nil disables "new"
	update func(ctx context.Context, c *apiclient.Client, id string, in In) error
	remove func(ctx context.Context, c *apiclient.Client, id string) error

	id      func(T) string
	row     func(T) []string
	fields  func(*T) []Field // nil record means a new one
	details func(T) [][2]string
	parse   func(*http.Request) In
	fill    func(In) T // rebuilds a record from a rejected payload
}

type listData struct {
	Base    string
	Columns []string
	Rows    []listRow
	Filters []Option
	Filter  string
	CanAdd  bool
}

type listRow struct {
	ID    string
	Cells []string
}

func (res resource[T, In]) base() string {
	return "/admin/" + res.path
}

func (res resource[T, In]) mount(r chi.Router, s *Server) {
	r.Route("/"+res.path, func(r chi.Router) {
		r.Get("/", res.index(s))
		if res.create != nil {
			r.Get("/new", res.edit(s))
			r.Post("/new", res.save(s))
		}
		r.Get("/{id}", res.edit(s))
		r.Post("/{id}", res.save(s))
		r.Post("/{id}/delete", res.delete(s))
	})
}

func (res resource[T, In]) index(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r.Context())
		filter := r.URL.Query().Get("status")
		items, err := res.list(r.Context(), sess.Client, filter)
		if err != nil {
			s.fail(w, r, err)
			return
		}

		data := listData{Base: res.base(), Columns: res.columns, Filters: res.filters, Filter: filter, CanAdd: res.create != nil}
		for _, item := range items {
			data.Rows = append(data.Rows, listRow{ID: res.id(item), Cells: res.row(item)})
		}
		s.render(w, r, http.StatusOK, "list", pageData{Title: res.title, Data: data})
	}
}

func (res resource[T, In]) edit(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		sess := sessionFrom(r.Context())
		if id == "" {
			s.render(w, r, http.StatusOK, "form", pageData{Title: res.title, Data: res.withMedia(r, s, res.form("", nil))})
			return
		}

		item, err := res.get(r.Context(), sess.Client, id)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.render(w, r, http.StatusOK, "form", pageData{Title: res.title, Data: res.withMedia(r, s, res.form(id, &item))})
	}
}

func (res resource[T, In]) form(id string, item *T) formData {
	fd := formData{Action: res.base() + "/new", Back: res.base(), Fields: res.fields(item)}
	if id != "" {
		fd.Action = res.base() + "/" + url.PathEscape(id)
		fd.Delete = fd.Action + "/delete"
		if res.details != nil && item != nil {
			fd.Details = res.details(*item)
		}
	}
	return fd
}

func (res resource[T, In]) withMedia(r *http.Request, s *Server, fd formData) formData {
	if res.media {
		fd.Media = s.mediaOptions(r)
	}
	return fd
}

func (res resource[T, In]) save(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r.Context())
		id := chi.URLParam(r, "id")
		in := res.parse(r)

		var err error
		if id == "" {
			err = res.create(r.Context(), sess.Client, in)
		} else {
			err = res.update(r.Context(), sess.Client, id, in)
		}
		if err != nil {
			if errors.Is(err, apiclient.ErrUnauthorized) {
				s.fail(w, r, err)
				return
			}
			item := res.fill(in)
			fd := res.withMedia(r, s, res.form(id, &item))
			s.render(w, r, http.StatusUnprocessableEntity, "form", pageData{Title: res.title, Error: message(err, "No se pudo guardar"), Data: fd})
			return
		}
		http.Redirect(w, r, res.base()+"?ok=Guardado", http.StatusSeeOther)
	}
}

func (res resource[T, In]) delete(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r.Context())
		if err := res.remove(r.Context(), sess.Client, chi.URLParam(r, "id")); err != nil {
			s.fail(w, r, err)
			return
		}
		http.Redirect(w, r, res.base()+"?ok=Eliminado", http.StatusSeeOther)
	}
}
