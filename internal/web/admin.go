package web

import (
	"errors"
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/webempresa/internal/apiclient"
	"github.com/isdelr/webempresa/internal/models"
)

const loginFailed = "Error al iniciar sesión"

func (s *Server) loginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "login", pageData{Title: "Iniciar sesión"})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	username, password := r.FormValue("username"), r.FormValue("password")
	if username == "" || password == "" {
		s.render(w, r, http.StatusUnprocessableEntity, "login", pageData{Title: "Iniciar sesión", Error: "Usuario y contraseña son obligatorios"})
		return
	}

	client := s.api.WithToken("")
	tok, err := client.Login(r.Context(), username, password)
	if err != nil {
		log.Warn().Err(err).Str("username", username).Msg("Admin login failed")
		s.render(w, r, http.StatusUnauthorized, "login", pageData{Title: "Iniciar sesión", Error: message(err, loginFailed)})
		return
	}
	user, err := client.Me(r.Context())
	if err != nil {
		s.render(w, r, http.StatusUnauthorized, "login", pageData{Title: "Iniciar sesión", Error: message(err, loginFailed)})
		return
	}

	s.setSession(w, tok.AccessToken, user)
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	clearSession(w)
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}

// widget is one dashboard panel. A failed panel renders its error instead of data.
type widget struct {
	Data  interface{}
	Error string
}

type dashboardData struct {
	Stats          widget
	Activity       widget
	Health         widget
	Infrastructure widget
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	ctx := r.Context()

	var (
		data    dashboardData
		wg      sync.WaitGroup
		mu      sync.Mutex
		expired bool
	)
	load := func(dst *widget, fetch func() (interface{}, error), fallback string) {
		defer wg.Done()
		v, err := fetch()
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			if errors.Is(err, apiclient.ErrUnauthorized) {
				expired = true
			}
			log.Warn().Err(err).Msg("Dashboard widget failed")
			dst.Error = message(err, fallback)
			return
		}
		dst.Data = v
	}

	wg.Add(4)
	go load(&data.Stats, func() (interface{}, error) { return sess.Client.DashboardStats(ctx) }, "No se pudieron cargar las estadísticas")
	go load(&data.Activity, func() (interface{}, error) { return sess.Client.RecentActivity(ctx, 10) }, "No se pudo cargar la actividad reciente")
	go load(&data.Health, func() (interface{}, error) { return sess.Client.SystemHealth(ctx) }, "No se pudo obtener el estado del sistema")
	go load(&data.Infrastructure, func() (interface{}, error) { return sess.Client.Infrastructure(ctx) }, "No se pudo obtener el estado de la infraestructura")
	wg.Wait()

	if expired {
		s.fail(w, r, apiclient.ErrUnauthorized)
		return
	}
	s.render(w, r, http.StatusOK, "dashboard", pageData{Title: "Panel", Data: data})
}

func (s *Server) passwordForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "password", pageData{Title: "Cambiar contraseña"})
}

func (s *Server) passwordSave(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	current, next := r.FormValue("current_password"), r.FormValue("new_password")
	if next != r.FormValue("confirm_password") {
		s.render(w, r, http.StatusUnprocessableEntity, "password", pageData{Title: "Cambiar contraseña", Error: "Las contraseñas no coinciden"})
		return
	}
	if err := sess.Client.ChangePassword(r.Context(), current, next); err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			s.fail(w, r, err)
			return
		}
		s.render(w, r, http.StatusUnprocessableEntity, "password", pageData{Title: "Cambiar contraseña", Error: message(err, "No se pudo cambiar la contraseña")})
		return
	}
	http.Redirect(w, r, "/admin?ok=Contraseña+actualizada", http.StatusSeeOther)
}

// Company editor

func (s *Server) companyForm(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	info, err := sess.Client.AdminCompany(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "form", pageData{Title: "Información de la empresa", Data: formData{
		Action: "/admin/company",
		Back:   "/admin",
		Fields: companyFields(info),
		Media:  s.mediaOptions(r),
	}})
}

func (s *Server) companySave(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	in := parseCompany(r)
	if _, err := sess.Client.UpdateCompany(r.Context(), in); err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			s.fail(w, r, err)
			return
		}
		var info models.CompanyInfo
		applyCompanyForm(&info, in)
		s.render(w, r, http.StatusUnprocessableEntity, "form", pageData{
			Title: "Información de la empresa",
			Error: message(err, "No se pudo guardar"),
			Data:  formData{Action: "/admin/company", Back: "/admin", Fields: companyFields(info), Media: s.mediaOptions(r)},
		})
		return
	}
	http.Redirect(w, r, "/admin/company?ok=Guardado", http.StatusSeeOther)
}
