package web

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/isdelr/webempresa/internal/apiclient"
	"github.com/isdelr/webempresa/internal/models"
	"github.com/isdelr/webempresa/internal/services"
)

func yesNo(b bool) string {
	if b {
		return "Sí"
	}
	return "No"
}

func newsResource() resource[models.NewsArticle, models.NewsInput] {
	statuses := []Option{{models.NewsDraft, "Borrador"}, {models.NewsPublished, "Publicado"}, {models.NewsArchived, "Archivado"}}
	return resource[models.NewsArticle, models.NewsInput]{
		path:    "news",
		title:   "Noticias",
		media:   true,
		columns: []string{"Título", "Estado", "Destacada", "Visitas", "Publicada"},
		filters: statuses,
		list: func(ctx context.Context, c *apiclient.Client, status string) ([]models.NewsArticle, error) {
			return c.AdminNews(ctx, status)
		},
		get: func(ctx context.Context, c *apiclient.Client, id string) (models.NewsArticle, error) {
			return c.GetNews(ctx, id)
		},
		create: func(ctx context.Context, c *apiclient.Client, in models.NewsInput) error {
			_, err := c.CreateNews(ctx, in)
			return err
		},
		update: func(ctx context.Context, c *apiclient.Client, id string, in models.NewsInput) error {
			_, err := c.UpdateNews(ctx, id, in)
			return err
		},
		remove: func(ctx context.Context, c *apiclient.Client, id string) error { return c.DeleteNews(ctx, id) },
		id:     func(a models.NewsArticle) string { return a.ID },
		row: func(a models.NewsArticle) []string {
			published := ""
			if a.PublishedAt != nil {
				published = a.PublishedAt.Format("02/01/2006")
			}
			return []string{a.Title, a.Status, yesNo(a.Featured), strconv.Itoa(a.ViewsCount), published}
		},
		fields: func(a *models.NewsArticle) []Field {
			if a == nil {
				a = &models.NewsArticle{Status: models.NewsDraft}
			}
			return []Field{
				text("title", "Título", a.Title),
				textarea("content", "Contenido", a.Content),
				textarea("excerpt", "Extracto", a.Excerpt),
				choice("status", "Estado", a.Status, statuses),
				checkbox("featured", "Destacada", a.Featured),
				mediaField("featured_image", "Imagen destacada", a.FeaturedImage),
				text("meta_description", "Meta descripción", a.MetaDescription),
				text("meta_keywords", "Palabras clave", a.MetaKeywords),
			}
		},
		details: func(a models.NewsArticle) [][2]string {
			return [][2]string{{"Slug", a.Slug}, {"Visitas", strconv.Itoa(a.ViewsCount)}}
		},
		parse: func(r *http.Request) models.NewsInput {
			return models.NewsInput{
				Title:           formString(r, "title"),
				Content:         r.FormValue("content"),
				Excerpt:         formString(r, "excerpt"),
				MetaDescription: formString(r, "meta_description"),
				MetaKeywords:    formString(r, "meta_keywords"),
				Status:          formString(r, "status"),
				Featured:        formBool(r, "featured"),
				FeaturedImage:   formString(r, "featured_image"),
			}
		},
		fill: func(in models.NewsInput) models.NewsArticle {
			return models.NewsArticle{Title: in.Title, Content: in.Content, Excerpt: in.Excerpt, MetaDescription: in.MetaDescription,
				MetaKeywords: in.MetaKeywords, Status: in.Status, Featured: in.Featured, FeaturedImage: in.FeaturedImage}
		},
	}
}

func planResource() resource[models.ServicePlan, models.PlanInput] {
	return resource[models.ServicePlan, models.PlanInput]{
		path:    "plans",
		title:   "Planes",
		columns: []string{"Nombre", "Mensual", "Anual", "Activo", "Popular", "Orden"},
		list: func(ctx context.Context, c *apiclient.Client, _ string) ([]models.ServicePlan, error) {
			return c.AdminPlans(ctx)
		},
		get: func(ctx context.Context, c *apiclient.Client, id string) (models.ServicePlan, error) {
			return c.GetPlan(ctx, id)
		},
		create: func(ctx context.Context, c *apiclient.Client, in models.PlanInput) error {
			_, err := c.CreatePlan(ctx, in)
			return err
		},
		update: func(ctx context.Context, c *apiclient.Client, id string, in models.PlanInput) error {
			_, err := c.UpdatePlan(ctx, id, in)
			return err
		},
		remove: func(ctx context.Context, c *apiclient.Client, id string) error { return c.DeletePlan(ctx, id) },
		id:     func(p models.ServicePlan) string { return p.ID },
		row: func(p models.ServicePlan) []string {
			yearly := "-"
			if p.PriceYearly != nil {
				yearly = fmt.Sprintf("%.2f €", *p.PriceYearly)
			}
			return []string{p.Name, fmt.Sprintf("%.2f €", p.PriceMonthly), yearly, yesNo(p.IsActive), yesNo(p.IsPopular), strconv.Itoa(p.DisplayOrder)}
		},
		fields: func(p *models.ServicePlan) []Field {
			if p == nil {
				p = &models.ServicePlan{IsActive: true, ColorPrimary: "#3B82F6", ColorSecondary: "#1E40AF"}
			}
			yearly := ""
			if p.PriceYearly != nil {
				yearly = strconv.FormatFloat(*p.PriceYearly, 'f', 2, 64)
			}
			return []Field{
				text("name", "Nombre", p.Name),
				text("slug", "Slug", p.Slug),
				textarea("description", "Descripción", p.Description),
				number("price_monthly", "Precio mensual", strconv.FormatFloat(p.PriceMonthly, 'f', 2, 64)),
				{Name: "price_yearly", Label: "Precio anual", Type: "number", Value: yearly, Help: "Vacío si no hay pago anual"},
				number("monthly_savings", "Ahorro mensual (%)", p.MonthlySavings),
				number("max_users", "Usuarios máximos", p.MaxUsers),
				number("max_courses", "Cursos máximos", p.MaxCourses),
				number("storage_gb", "Almacenamiento (GB)", p.StorageGB),
				number("api_requests_limit", "Límite de peticiones API", p.APIRequestsLimit),
				{Name: "features", Label: "Características", Type: "textarea", Value: strings.Join(p.Features, "\n"), Help: "Una por línea"},
				{Name: "color_primary", Label: "Color primario", Type: "color", Value: p.ColorPrimary},
				{Name: "color_secondary", Label: "Color secundario", Type: "color", Value: p.ColorSecondary},
				checkbox("is_active", "Activo", p.IsActive),
				checkbox("is_popular", "Popular", p.IsPopular),
				number("display_order", "Orden", p.DisplayOrder),
			}
		},
		details: func(p models.ServicePlan) [][2]string {
			return [][2]string{{"Ahorro anual", fmt.Sprintf("%.2f €", p.YearlySavings())}}
		},
		parse: func(r *http.Request) models.PlanInput {
			return models.PlanInput{
				Name:             formString(r, "name"),
				Slug:             formString(r, "slug"),
				Description:      r.FormValue("description"),
				PriceMonthly:     formFloat(r, "price_monthly"),
				PriceYearly:      formOptionalFloat(r, "price_yearly"),
				MonthlySavings:   formFloat(r, "monthly_savings"),
				MaxUsers:         formInt(r, "max_users"),
				MaxCourses:       formInt(r, "max_courses"),
				StorageGB:        formInt(r, "storage_gb"),
				APIRequestsLimit: formInt(r, "api_requests_limit"),
				Features:         formLines(r, "features"),
				ColorPrimary:     formString(r, "color_primary"),
				ColorSecondary:   formString(r, "color_secondary"),
				IsActive:         formBool(r, "is_active"),
				IsPopular:        formBool(r, "is_popular"),
				DisplayOrder:     formInt(r, "display_order"),
			}
		},
		fill: func(in models.PlanInput) models.ServicePlan {
			return models.ServicePlan{Name: in.Name, Slug: in.Slug, Description: in.Description, PriceMonthly: in.PriceMonthly,
				PriceYearly: in.PriceYearly, MonthlySavings: in.MonthlySavings, MaxUsers: in.MaxUsers, MaxCourses: in.MaxCourses,
				StorageGB: in.StorageGB, APIRequestsLimit: in.APIRequestsLimit, Features: in.Features,
				ColorPrimary: in.ColorPrimary, ColorSecondary: in.ColorSecondary, IsActive: in.IsActive,
				IsPopular: in.IsPopular, DisplayOrder: in.DisplayOrder}
		},
	}
}

func testimonialResource() resource[models.Testimonial, models.TestimonialInput] {
	return resource[models.Testimonial, models.TestimonialInput]{
		path:    "testimonials",
		title:   "Testimonios",
		media:   true,
		columns: []string{"Cliente", "Valoración", "Activo", "Destacado", "Orden"},
		list: func(ctx context.Context, c *apiclient.Client, _ string) ([]models.Testimonial, error) {
			return c.AdminTestimonials(ctx)
		},
		get: func(ctx context.Context, c *apiclient.Client, id string) (models.Testimonial, error) {
			return c.GetTestimonial(ctx, id)
		},
		create: func(ctx context.Context, c *apiclient.Client, in models.TestimonialInput) error {
			_, err := c.CreateTestimonial(ctx, in)
			return err
		},
		update: func(ctx context.Context, c *apiclient.Client, id string, in models.TestimonialInput) error {
			_, err := c.UpdateTestimonial(ctx, id, in)
			return err
		},
		remove: func(ctx context.Context, c *apiclient.Client, id string) error { return c.DeleteTestimonial(ctx, id) },
		id:     func(t models.Testimonial) string { return t.ID },
		row: func(t models.Testimonial) []string {
			return []string{t.ClientInfo(), strconv.Itoa(t.Rating), yesNo(t.IsActive), yesNo(t.IsFeatured), strconv.Itoa(t.DisplayOrder)}
		},
		fields: func(t *models.Testimonial) []Field {
			if t == nil {
				t = &models.Testimonial{Rating: 5, IsActive: true}
			}
			return []Field{
				text("client_name", "Nombre", t.ClientName),
				text("client_position", "Cargo", t.ClientPosition),
				text("client_company", "Empresa", t.ClientCompany),
				mediaField("client_photo", "Foto", t.ClientPhoto),
				textarea("content", "Testimonio", t.Content),
				choice("rating", "Valoración", strconv.Itoa(t.Rating), []Option{{"5", "5"}, {"4", "4"}, {"3", "3"}, {"2", "2"}, {"1", "1"}}),
				checkbox("is_active", "Activo", t.IsActive),
				checkbox("is_featured", "Destacado", t.IsFeatured),
				number("display_order", "Orden", t.DisplayOrder),
			}
		},
		parse: func(r *http.Request) models.TestimonialInput {
			return models.TestimonialInput{
				ClientName:     formString(r, "client_name"),
				ClientPosition: formString(r, "client_position"),
				ClientCompany:  formString(r, "client_company"),
				ClientPhoto:    formString(r, "client_photo"),
				Content:        r.FormValue("content"),
				Rating:         formInt(r, "rating"),
				IsActive:       formBool(r, "is_active"),
				IsFeatured:     formBool(r, "is_featured"),
				DisplayOrder:   formInt(r, "display_order"),
			}
		},
		fill: func(in models.TestimonialInput) models.Testimonial {
			return models.Testimonial{ClientName: in.ClientName, ClientPosition: in.ClientPosition, ClientCompany: in.ClientCompany,
				ClientPhoto: in.ClientPhoto, Content: in.Content, Rating: in.Rating, IsActive: in.IsActive,
				IsFeatured: in.IsFeatured, DisplayOrder: in.DisplayOrder}
		},
	}
}

func faqResource() resource[models.FAQ, models.FAQInput] {
	var categories []Option
	for value, label := range models.FAQCategories {
		categories = append(categories, Option{value, label})
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Label < categories[j].Label })

	return resource[models.FAQ, models.FAQInput]{
		path:    "faqs",
		title:   "Preguntas frecuentes",
		columns: []string{"Pregunta", "Categoría", "Activa", "Votos útiles", "Orden"},
		list: func(ctx context.Context, c *apiclient.Client, _ string) ([]models.FAQ, error) {
			return c.AdminFAQs(ctx)
		},
		get: func(ctx context.Context, c *apiclient.Client, id string) (models.FAQ, error) {
			return c.GetFAQ(ctx, id)
		},
		create: func(ctx context.Context, c *apiclient.Client, in models.FAQInput) error {
			_, err := c.CreateFAQ(ctx, in)
			return err
		},
		update: func(ctx context.Context, c *apiclient.Client, id string, in models.FAQInput) error {
			_, err := c.UpdateFAQ(ctx, id, in)
			return err
		},
		remove: func(ctx context.Context, c *apiclient.Client, id string) error { return c.DeleteFAQ(ctx, id) },
		id:     func(f models.FAQ) string { return f.ID },
		row: func(f models.FAQ) []string {
			return []string{f.Question, f.CategoryDisplay, yesNo(f.IsActive), strconv.Itoa(f.HelpfulVotes), strconv.Itoa(f.DisplayOrder)}
		},
		fields: func(f *models.FAQ) []Field {
			if f == nil {
				f = &models.FAQ{Category: "general", IsActive: true}
			}
			return []Field{
				text("question", "Pregunta", f.Question),
				textarea("answer", "Respuesta", f.Answer),
				choice("category", "Categoría", f.Category, categories),
				checkbox("is_active", "Activa", f.IsActive),
				number("display_order", "Orden", f.DisplayOrder),
			}
		},
		parse: func(r *http.Request) models.FAQInput {
			return models.FAQInput{
				Question:     formString(r, "question"),
				Answer:       r.FormValue("answer"),
				Category:     formString(r, "category"),
				IsActive:     formBool(r, "is_active"),
				DisplayOrder: formInt(r, "display_order"),
			}
		},
		fill: func(in models.FAQInput) models.FAQ {
			return models.FAQ{Question: in.Question, Answer: in.Answer, Category: in.Category, IsActive: in.IsActive, DisplayOrder: in.DisplayOrder}
		},
	}
}

func userResource() resource[models.User, services.UserInput] {
	roles := []Option{
		{models.RoleViewer, "Visualizador"},
		{models.RoleEditor, "Editor"},
		{models.RoleModerator, "Moderador"},
		{models.RoleAdmin, "Administrador"},
		{models.RoleSuperAdmin, "Super administrador"},
	}
	return resource[models.User, services.UserInput]{
		path:    "users",
		title:   "Usuarios",
		columns: []string{"Usuario", "Email", "Nombre", "Rol", "Activo"},
		list: func(ctx context.Context, c *apiclient.Client, _ string) ([]models.User, error) {
			list, err := c.Users(ctx, 1, "")
			return list.Users, err
		},
		get: func(ctx context.Context, c *apiclient.Client, id string) (models.User, error) {
			return c.GetUser(ctx, id)
		},
		create: func(ctx context.Context, c *apiclient.Client, in services.UserInput) error {
			_, err := c.CreateUser(ctx, in)
			return err
		},
		update: func(ctx context.Context, c *apiclient.Client, id string, in services.UserInput) error {
			_, err := c.UpdateUser(ctx, id, userUpdate(in))
			return err
		},
		remove: func(ctx context.Context, c *apiclient.Client, id string) error { return c.DeleteUser(ctx, id) },
		id:     func(u models.User) string { return u.ID },
		row: func(u models.User) []string {
			return []string{u.Username, u.Email, u.FullName, u.Role, yesNo(u.IsActive)}
		},
		fields: func(u *models.User) []Field {
			if u == nil {
				u = &models.User{Role: models.RoleViewer, IsActive: true}
			}
			return []Field{
				text("username", "Usuario", u.Username),
				{Name: "email", Label: "Email", Type: "email", Value: u.Email},
				text("first_name", "Nombre", u.FirstName),
				text("last_name", "Apellidos", u.LastName),
				{Name: "password", Label: "Contraseña", Type: "password", Help: "Déjala vacía para no cambiarla"},
				choice("role", "Rol", u.Role, roles),
				checkbox("is_active", "Activo", u.IsActive),
				checkbox("is_staff", "Acceso al panel", u.IsStaff),
			}
		},
		details: func(u models.User) [][2]string {
			last := "Nunca"
			if u.LastLogin != nil {
				last = u.LastLogin.Format("02/01/2006 15:04")
			}
			return [][2]string{{"Alta", u.DateJoined.Format("02/01/2006")}, {"Último acceso", last}}
		},
		parse: func(r *http.Request) services.UserInput {
			active := formBool(r, "is_active")
			return services.UserInput{
				Username:  formString(r, "username"),
				Email:     formString(r, "email"),
				FirstName: formString(r, "first_name"),
				LastName:  formString(r, "last_name"),
				Password:  r.FormValue("password"),
				Role:      formString(r, "role"),
				IsActive:  &active,
				IsStaff:   formBool(r, "is_staff"),
			}
		},
		fill: func(in services.UserInput) models.User {
			return models.User{Username: in.Username, Email: in.Email, FirstName: in.FirstName, LastName: in.LastName,
				Role: in.Role, IsActive: in.IsActive != nil && *in.IsActive, IsStaff: in.IsStaff}
		},
	}
}

// userUpdate carries only the fields the user form edits, so flags set
// elsewhere (is_superuser) survive a save.
func userUpdate(in services.UserInput) services.UserUpdate {
	up := services.UserUpdate{
		Username:  &in.Username,
		Email:     &in.Email,
		FirstName: &in.FirstName,
		LastName:  &in.LastName,
		Role:      &in.Role,
		IsActive:  in.IsActive,
		IsStaff:   &in.IsStaff,
	}
	if in.Password != "" {
		up.Password = &in.Password
	}
	return up
}

func contactResource() resource[models.ContactMessage, models.ContactUpdate] {
	var statuses []Option
	for _, s := range []string{models.ContactNew, models.ContactRead, models.ContactInProgress, models.ContactResponded, models.ContactClosed} {
		statuses = append(statuses, Option{s, models.ContactStatusDisplay[s]})
	}
	return resource[models.ContactMessage, models.ContactUpdate]{
		path:    "contact",
		title:   "Mensajes de contacto",
		columns: []string{"Recibido", "Nombre", "Asunto", "Estado"},
		filters: statuses,
		list: func(ctx context.Context, c *apiclient.Client, status string) ([]models.ContactMessage, error) {
			return c.ContactMessages(ctx, status)
		},
		get: func(ctx context.Context, c *apiclient.Client, id string) (models.ContactMessage, error) {
			return c.GetContactMessage(ctx, id)
		},
		update: func(ctx context.Context, c *apiclient.Client, id string, in models.ContactUpdate) error {
			_, err := c.UpdateContactMessage(ctx, id, in)
			return err
		},
		remove: func(ctx context.Context, c *apiclient.Client, id string) error {
			return c.DeleteContactMessage(ctx, id)
		},
		id: func(m models.ContactMessage) string { return m.ID },
		row: func(m models.ContactMessage) []string {
			return []string{m.CreatedAt.Format("02/01/2006 15:04"), m.Name, m.Subject, m.StatusDisplay}
		},
		fields: func(m *models.ContactMessage) []Field {
			if m == nil {
				m = &models.ContactMessage{}
			}
			return []Field{
				choice("status", "Estado", m.Status, statuses),
				textarea("admin_response", "Respuesta", m.AdminResponse),
			}
		},
		details: func(m models.ContactMessage) [][2]string {
			return [][2]string{
				{"De", m.Name + " <" + m.Email + ">"},
				{"Teléfono", m.Phone},
				{"Empresa", m.Company},
				{"Asunto", m.Subject},
				{"Mensaje", m.Message},
			}
		},
		parse: func(r *http.Request) models.ContactUpdate {
			status, response := formString(r, "status"), r.FormValue("admin_response")
			return models.ContactUpdate{Status: &status, AdminResponse: &response}
		},
		fill: func(in models.ContactUpdate) models.ContactMessage {
			var m models.ContactMessage
			if in.Status != nil {
				m.Status = *in.Status
			}
			if in.AdminResponse != nil {
				m.AdminResponse = *in.AdminResponse
			}
			return m
		},
	}
}

func companyFields(c models.CompanyInfo) []Field {
	return []Field{
		text("company_name", "Nombre", c.CompanyName),
		text("tagline", "Eslogan", c.Tagline),
		textarea("description", "Descripción", c.Description),
		{Name: "email", Label: "Email", Type: "email", Value: c.Email},
		text("phone", "Teléfono", c.Phone),
		textarea("address", "Dirección", c.Address),
		{Name: "website", Label: "Sitio web", Type: "url", Value: c.Website},
		{Name: "linkedin", Label: "LinkedIn", Type: "url", Value: c.LinkedIn},
		{Name: "twitter", Label: "Twitter", Type: "url", Value: c.Twitter},
		{Name: "facebook", Label: "Facebook", Type: "url", Value: c.Facebook},
		{Name: "instagram", Label: "Instagram", Type: "url", Value: c.Instagram},
		mediaField("logo", "Logo", c.Logo),
		mediaField("hero_image", "Imagen de portada", c.HeroImage),
		text("meta_title", "Meta título", c.MetaTitle),
		text("meta_description", "Meta descripción", c.MetaDescription),
	}
}

func parseCompany(r *http.Request) models.CompanyInput {
	return models.CompanyInput{
		CompanyName:     formString(r, "company_name"),
		Tagline:         formString(r, "tagline"),
		Description:     r.FormValue("description"),
		Email:           formString(r, "email"),
		Phone:           formString(r, "phone"),
		Address:         r.FormValue("address"),
		Website:         formString(r, "website"),
		LinkedIn:        formString(r, "linkedin"),
		Twitter:         formString(r, "twitter"),
		Facebook:        formString(r, "facebook"),
		Instagram:       formString(r, "instagram"),
		Logo:            formString(r, "logo"),
		HeroImage:       formString(r, "hero_image"),
		MetaTitle:       formString(r, "meta_title"),
		MetaDescription: formString(r, "meta_description"),
	}
}

func applyCompanyForm(c *models.CompanyInfo, in models.CompanyInput) {
	c.CompanyName, c.Tagline, c.Description = in.CompanyName, in.Tagline, in.Description
	c.Email, c.Phone, c.Address, c.Website = in.Email, in.Phone, in.Address, in.Website
	c.LinkedIn, c.Twitter, c.Facebook, c.Instagram = in.LinkedIn, in.Twitter, in.Facebook, in.Instagram
	c.Logo, c.HeroImage, c.MetaTitle, c.MetaDescription = in.Logo, in.HeroImage, in.MetaTitle, in.MetaDescription
}
