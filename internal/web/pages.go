package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/isdelr/webempresa/internal/apiclient"
	"github.com/isdelr/webempresa/internal/models"
)

// Section form inputs are named f.<key> for plain strings and j.<key> for
// anything else, which is edited as JSON.
const (
	stringPrefix = "f."
	jsonPrefix   = "j."
)

type sectionField struct {
	Name  string
	Key   string
	Value string
	JSON  bool
}

type sectionForm struct {
	Name   string
	Action string
	Fields []sectionField
	Error  string
}

type editorData struct {
	Page     models.PageContent
	Public   string
	Sections []sectionForm
}

// publicPaths maps page keys to where the site shows them.
var publicPaths = map[string]string{
	"homepage": "/",
	"about":    "/nosotros",
	"history":  "/historia",
	"clients":  "/clientes",
	"prices":   "/precios",
	"contact":  "/contacto",
}

func (s *Server) pageList(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	pages, err := sess.Client.Pages(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "pages", pageData{Title: "Páginas", Data: pages})
}

func (s *Server) pageEditor(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	page, err := sess.Client.GetPage(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "page_editor", pageData{Title: "Editar " + page.Title, Data: editor(page, "", nil)})
}

func (s *Server) sectionSave(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	key, section := chi.URLParam(r, "key"), chi.URLParam(r, "section")
	if err := r.ParseForm(); err != nil {
		s.render(w, r, http.StatusBadRequest, "error", pageData{Title: "Error", Error: "Formulario no válido"})
		return
	}

	data, err := sectionFromForm(r)
	if err == nil {
		_, err = sess.Client.UpdatePageSection(r.Context(), key, section, data)
		if err == nil {
			http.Redirect(w, r, "/admin/pages/"+key+"?ok=Sección+guardada", http.StatusSeeOther)
			return
		}
		if errors.Is(err, apiclient.ErrUnauthorized) {
			s.fail(w, r, err)
			return
		}
	}

	page, getErr := sess.Client.GetPage(r.Context(), key)
	if getErr != nil {
		s.fail(w, r, getErr)
		return
	}
	s.render(w, r, http.StatusUnprocessableEntity, "page_editor", pageData{
		Title: "Editar " + page.Title,
		Error: message(err, err.Error()),
		Data:  editor(page, section, r),
	})
}

// sectionFromForm rebuilds a section document from the posted inputs.
func sectionFromForm(r *http.Request) (map[string]interface{}, error) {
	data := map[string]interface{}{}
	for name, values := range r.PostForm {
		if len(values) == 0 {
			continue
		}
		switch {
		case strings.HasPrefix(name, stringPrefix):
			data[strings.TrimPrefix(name, stringPrefix)] = strings.TrimSpace(values[0])
		case strings.HasPrefix(name, jsonPrefix):
			field := strings.TrimPrefix(name, jsonPrefix)
			raw := strings.TrimSpace(values[0])
			if raw == "" {
				continue
			}
			var v interface{}
			if err := json.Unmarshal([]byte(raw), &v); err != nil {
				return nil, fmt.Errorf("el campo %s no es JSON válido: %w", field, err)
			}
			data[field] = v
		}
	}
	if k := strings.TrimSpace(r.PostForm.Get("new_key")); k != "" {
		data[k] = strings.TrimSpace(r.PostForm.Get("new_value"))
	}
	return data, nil
}

// editor builds the section forms of page. When r is set, the section named
// failed keeps the values the user posted.
func editor(page models.PageContent, failed string, r *http.Request) editorData {
	ed := editorData{Page: page, Public: publicPaths[page.PageKey]}
	for _, sec := range orderedSections(page.ContentData) {
		form := sectionForm{Name: sec.Name, Action: "/admin/pages/" + page.PageKey + "/sections/" + sec.Name}
		if sec.Name == failed && r != nil {
			form.Fields = postedFields(r)
			form.Error = "Revisa los campos de esta sección"
		} else {
			form.Fields = fieldsOf(sec.Data)
		}
		ed.Sections = append(ed.Sections, form)
	}
	return ed
}

func fieldsOf(data map[string]interface{}) []sectionField {
	fields := make([]sectionField, 0, len(data))
	for k, v := range data {
		if str, ok := v.(string); ok {
			fields = append(fields, sectionField{Name: stringPrefix + k, Key: k, Value: str})
			continue
		}
		fields = append(fields, sectionField{Name: jsonPrefix + k, Key: k, Value: prettyJSON(v), JSON: true})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Key < fields[j].Key })
	return fields
}

func postedFields(r *http.Request) []sectionField {
	var fields []sectionField
	for name, values := range r.PostForm {
		if len(values) == 0 {
			continue
		}
		switch {
		case strings.HasPrefix(name, stringPrefix):
			fields = append(fields, sectionField{Name: name, Key: strings.TrimPrefix(name, stringPrefix), Value: values[0]})
		case strings.HasPrefix(name, jsonPrefix):
			fields = append(fields, sectionField{Name: name, Key: strings.TrimPrefix(name, jsonPrefix), Value: values[0], JSON: true})
		}
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Key < fields[j].Key })
	return fields
}
