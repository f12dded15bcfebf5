package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/isdelr/webempresa/internal/apiclient"
	"github.com/isdelr/webempresa/internal/models"
)

// publicView is what the public templates receive. Any part the API could not
// deliver is left empty and the template falls back to static text.
type publicView struct {
	Key          string
	Page         models.PageContent
	Company      *models.CompanyInfo
	Homepage     models.HomepageContent
	Stats        models.PublicStats
	Testimonials []models.Testimonial
	Plans        []models.ServicePlan
	FAQs         []models.FAQ
	Articles     []models.NewsArticle
	Article      *models.NewsArticle
	Contact      models.ContactInput
	PageNum      int
	HasNext      bool
}

// Section returns one section of the page content for templates.
func (v publicView) Section(name string) map[string]interface{} {
	return v.Page.Section(name)
}

// EditLink is where an admin edits this page.
func (v publicView) EditLink() string {
	return "/admin/pages/" + v.Key
}

// optional runs fetch and logs a failure instead of returning it.
func optional(g *errgroup.Group, what string, fetch func() error) {
	g.Go(func() error {
		if err := fetch(); err != nil {
			log.Warn().Err(err).Str("part", what).Msg("Public page part unavailable")
		}
		return nil
	})
}

func (s *Server) loadPage(g *errgroup.Group, r *http.Request, v *publicView, key string) {
	v.Key = key
	optional(g, "page:"+key, func() (err error) {
		v.Page, err = s.api.PublicPage(r.Context(), key)
		return err
	})
}

func (s *Server) show(w http.ResponseWriter, r *http.Request, tmpl, fallbackTitle string, v *publicView) {
	sess, edit := s.editing(r)
	title := v.Page.Title
	if title == "" {
		title = fallbackTitle
	}
	s.render(w, r, http.StatusOK, tmpl, pageData{Title: title, Session: sess, EditMode: edit, Data: v})
}

func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	var (
		g errgroup.Group
		v publicView
	)
	s.loadPage(&g, r, &v, "homepage")
	optional(&g, "homepage", func() (err error) {
		v.Homepage, err = s.api.Homepage(r.Context())
		return err
	})
	optional(&g, "stats", func() (err error) {
		v.Stats, err = s.api.PublicStats(r.Context())
		return err
	})
	_ = g.Wait()
	v.Company = v.Homepage.CompanyInfo
	s.show(w, r, "home", "Inicio", &v)
}

var fallbackTitles = map[string]string{
	"about":   "Nosotros",
	"history": "Historia",
}

func (s *Server) publicPage(key, tmpl string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			g errgroup.Group
			v publicView
		)
		s.loadPage(&g, r, &v, key)
		_ = g.Wait()
		s.show(w, r, tmpl, fallbackTitles[key], &v)
	}
}

func (s *Server) clients(w http.ResponseWriter, r *http.Request) {
	var (
		g errgroup.Group
		v publicView
	)
	s.loadPage(&g, r, &v, "clients")
	optional(&g, "testimonials", func() (err error) {
		v.Testimonials, err = s.api.PublicTestimonials(r.Context())
		return err
	})
	_ = g.Wait()
	s.show(w, r, "clients", "Clientes", &v)
}

func (s *Server) prices(w http.ResponseWriter, r *http.Request) {
	var (
		g errgroup.Group
		v publicView
	)
	s.loadPage(&g, r, &v, "prices")
	optional(&g, "plans", func() (err error) {
		v.Plans, err = s.api.PublicPlans(r.Context())
		return err
	})
	optional(&g, "faqs", func() (err error) {
		v.FAQs, err = s.api.PublicFAQs(r.Context())
		return err
	})
	_ = g.Wait()
	s.show(w, r, "prices", "Precios", &v)
}

func (s *Server) contactView(r *http.Request) *publicView {
	var (
		g errgroup.Group
		v publicView
	)
	s.loadPage(&g, r, &v, "contact")
	optional(&g, "company", func() error {
		info, err := s.api.PublicCompany(r.Context())
		if err == nil {
			v.Company = &info
		}
		return err
	})
	_ = g.Wait()
	return &v
}

func (s *Server) contactForm(w http.ResponseWriter, r *http.Request) {
	s.show(w, r, "contact", "Contacto", s.contactView(r))
}

func (s *Server) contactSubmit(w http.ResponseWriter, r *http.Request) {
	in := models.ContactInput{
		Name:    formString(r, "name"),
		Email:   formString(r, "email"),
		Phone:   formString(r, "phone"),
		Company: formString(r, "company"),
		Subject: formString(r, "subject"),
		Message: r.FormValue("message"),
	}
	if _, err := s.api.SubmitContact(r.Context(), in); err != nil {
		v := s.contactView(r)
		v.Contact = in
		sess, edit := s.editing(r)
		s.render(w, r, http.StatusUnprocessableEntity, "contact", pageData{
			Title:    "Contacto",
			Session:  sess,
			EditMode: edit,
			Error:    message(err, "No se pudo enviar el mensaje. Inténtalo de nuevo más tarde."),
			Data:     v,
		})
		return
	}
	http.Redirect(w, r, "/contacto?ok=Mensaje+enviado.+Te+responderemos+pronto.", http.StatusSeeOther)
}

func (s *Server) newsList(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	v := publicView{Key: "news", PageNum: page}
	articles, err := s.api.PublicNews(r.Context(), page)
	if err != nil {
		log.Warn().Err(err).Msg("Public news unavailable")
	}
	v.Articles = articles
	v.HasNext = len(articles) == 10
	s.show(w, r, "news_list", "Noticias", &v)
}

func (s *Server) newsDetail(w http.ResponseWriter, r *http.Request) {
	article, err := s.api.NewsBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
			s.render(w, r, http.StatusNotFound, "error", pageData{Title: "Noticia no encontrada", Error: "La noticia que buscas no existe."})
			return
		}
		log.Error().Err(err).Msg("News article unavailable")
		s.render(w, r, http.StatusBadGateway, "error", pageData{Title: "Error", Error: "No se pudo cargar la noticia."})
		return
	}
	v := publicView{Key: "news", Article: &article}
	s.show(w, r, "news_detail", article.Title, &v)
}
