package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"

	"github.com/isdelr/webempresa/internal/models"
	"github.com/isdelr/webempresa/internal/services"
)

// Token is the login answer.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Login exchanges credentials for a token and keeps it in the store.
func (c *Client) Login(ctx context.Context, username, password string) (Token, error) {
	tok, err := Post[Token](ctx, c, "/api/v1/auth/login/", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return Token{}, err
	}
	c.tokens.SetToken(tok.AccessToken)
	return tok, nil
}

// Me returns the user behind the current token.
func (c *Client) Me(ctx context.Context) (models.User, error) {
	return Get[models.User](ctx, c, "/api/v1/auth/me/", nil)
}

// ChangePassword changes the current user's password.
func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	_, err := Put[map[string]string](ctx, c, "/api/v1/users/me/password/", map[string]string{
		"current_password": current,
		"new_password":     next,
	})
	return err
}

// Dashboard

func (c *Client) DashboardStats(ctx context.Context) ([]models.StatCard, error) {
	return Get[[]models.StatCard](ctx, c, "/api/v1/dashboard/stats/", nil)
}

func (c *Client) RecentActivity(ctx context.Context, limit int) ([]models.Event, error) {
	return Get[[]models.Event](ctx, c, "/api/v1/dashboard/activity/", url.Values{"limit": {strconv.Itoa(limit)}})
}

func (c *Client) SystemHealth(ctx context.Context) (models.HealthSnapshot, error) {
	return Get[models.HealthSnapshot](ctx, c, "/api/v1/dashboard/health/", nil)
}

func (c *Client) Infrastructure(ctx context.Context) (models.InfrastructureStatus, error) {
	return Get[models.InfrastructureStatus](ctx, c, "/api/v1/dashboard/infrastructure/", nil)
}

// News

func (c *Client) AdminNews(ctx context.Context, status string) ([]models.NewsArticle, error) {
	q := url.Values{"limit": {"50"}}
	if status != "" {
		q.Set("status_filter", status)
	}
	return Get[[]models.NewsArticle](ctx, c, "/api/admin/news/", q)
}

func (c *Client) GetNews(ctx context.Context, id string) (models.NewsArticle, error) {
	return Get[models.NewsArticle](ctx, c, "/api/admin/news/"+url.PathEscape(id)+"/", nil)
}

func (c *Client) CreateNews(ctx context.Context, in models.NewsInput) (models.NewsArticle, error) {
	return Post[models.NewsArticle](ctx, c, "/api/admin/news/", in)
}

func (c *Client) UpdateNews(ctx context.Context, id string, in models.NewsInput) (models.NewsArticle, error) {
	return Put[models.NewsArticle](ctx, c, "/api/admin/news/"+url.PathEscape(id)+"/", in)
}

func (c *Client) DeleteNews(ctx context.Context, id string) error {
	_, err := Delete[struct{}](ctx, c, "/api/admin/news/"+url.PathEscape(id)+"/")
	return err
}

// Plans

func (c *Client) AdminPlans(ctx context.Context) ([]models.ServicePlan, error) {
	return Get[[]models.ServicePlan](ctx, c, "/api/v1/plans/admin/", nil)
}

func (c *Client) GetPlan(ctx context.Context, id string) (models.ServicePlan, error) {
	return Get[models.ServicePlan](ctx, c, "/api/v1/plans/admin/"+url.PathEscape(id)+"/", nil)
}

func (c *Client) CreatePlan(ctx context.Context, in models.PlanInput) (models.ServicePlan, error) {
	return Post[models.ServicePlan](ctx, c, "/api/v1/plans/admin/", in)
}

func (c *Client) UpdatePlan(ctx context.Context, id string, in models.PlanInput) (models.ServicePlan, error) {
	return Put[models.ServicePlan](ctx, c, "/api/v1/plans/admin/"+url.PathEscape(id)+"/", in)
}

func (c *Client) DeletePlan(ctx context.Context, id string) error {
	_, err := Delete[struct{}](ctx, c, "/api/v1/plans/admin/"+url.PathEscape(id)+"/")
	return err
}

// Testimonials

func (c *Client) AdminTestimonials(ctx context.Context) ([]models.Testimonial, error) {
	return Get[[]models.Testimonial](ctx, c, "/api/admin/testimonials/", nil)
}

func (c *Client) GetTestimonial(ctx context.Context, id string) (models.Testimonial, error) {
	return Get[models.Testimonial](ctx, c, "/api/admin/testimonials/"+url.PathEscape(id)+"/", nil)
}

func (c *Client) CreateTestimonial(ctx context.Context, in models.TestimonialInput) (models.Testimonial, error) {
	return Post[models.Testimonial](ctx, c, "/api/admin/testimonials/", in)
}

func (c *Client) UpdateTestimonial(ctx context.Context, id string, in models.TestimonialInput) (models.Testimonial, error) {
	return Put[models.Testimonial](ctx, c, "/api/admin/testimonials/"+url.PathEscape(id)+"/", in)
}

func (c *Client) DeleteTestimonial(ctx context.Context, id string) error {
	_, err := Delete[struct{}](ctx, c, "/api/admin/testimonials/"+url.PathEscape(id)+"/")
	return err
}

// FAQs

func (c *Client) AdminFAQs(ctx context.Context) ([]models.FAQ, error) {
	return Get[[]models.FAQ](ctx, c, "/api/admin/faqs/", nil)
}

func (c *Client) GetFAQ(ctx context.Context, id string) (models.FAQ, error) {
	return Get[models.FAQ](ctx, c, "/api/admin/faqs/"+url.PathEscape(id)+"/", nil)
}

func (c *Client) CreateFAQ(ctx context.Context, in models.FAQInput) (models.FAQ, error) {
	return Post[models.FAQ](ctx, c, "/api/admin/faqs/", in)
}

func (c *Client) UpdateFAQ(ctx context.Context, id string, in models.FAQInput) (models.FAQ, error) {
	return Put[models.FAQ](ctx, c, "/api/admin/faqs/"+url.PathEscape(id)+"/", in)
}

func (c *Client) DeleteFAQ(ctx context.Context, id string) error {
	_, err := Delete[struct{}](ctx, c, "/api/admin/faqs/"+url.PathEscape(id)+"/")
	return err
}

// Users

func (c *Client) Users(ctx context.Context, page int, search string) (models.UserList, error) {
	q := url.Values{"page": {strconv.Itoa(page)}}
	if search != "" {
		q.Set("search", search)
	}
	return Get[models.UserList](ctx, c, "/api/v1/users/", q)
}

func (c *Client) GetUser(ctx context.Context, id string) (models.User, error) {
	return Get[models.User](ctx, c, "/api/v1/users/"+url.PathEscape(id)+"/", nil)
}

func (c *Client) CreateUser(ctx context.Context, in services.UserInput) (models.User, error) {
	return Post[models.User](ctx, c, "/api/v1/users/", in)
}

func (c *Client) UpdateUser(ctx context.Context, id string, in services.UserUpdate) (models.User, error) {
	return Put[models.User](ctx, c, "/api/v1/users/"+url.PathEscape(id)+"/", in)
}

func (c *Client) ToggleUserStatus(ctx context.Context, id string) (models.User, error) {
	return Put[models.User](ctx, c, "/api/v1/users/"+url.PathEscape(id)+"/toggle-status/", nil)
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	_, err := Delete[struct{}](ctx, c, "/api/v1/users/"+url.PathEscape(id)+"/")
	return err
}

// Contact messages

func (c *Client) ContactMessages(ctx context.Context, status string) ([]models.ContactMessage, error) {
	var q url.Values
	if status != "" {
		q = url.Values{"status_filter": {status}}
	}
	return Get[[]models.ContactMessage](ctx, c, "/api/v1/contact/admin/", q)
}

func (c *Client) GetContactMessage(ctx context.Context, id string) (models.ContactMessage, error) {
	return Get[models.ContactMessage](ctx, c, "/api/v1/contact/admin/"+url.PathEscape(id)+"/", nil)
}

func (c *Client) UpdateContactMessage(ctx context.Context, id string, in models.ContactUpdate) (models.ContactMessage, error) {
	return Put[models.ContactMessage](ctx, c, "/api/v1/contact/admin/"+url.PathEscape(id)+"/", in)
}

func (c *Client) DeleteContactMessage(ctx context.Context, id string) error {
	_, err := Delete[struct{}](ctx, c, "/api/v1/contact/admin/"+url.PathEscape(id)+"/")
	return err
}

// Company

func (c *Client) AdminCompany(ctx context.Context) (models.CompanyInfo, error) {
	return Get[models.CompanyInfo](ctx, c, "/api/admin/company/", nil)
}

func (c *Client) UpdateCompany(ctx context.Context, in models.CompanyInput) (models.CompanyInfo, error) {
	return Put[models.CompanyInfo](ctx, c, "/api/admin/company/", in)
}

// Media

func (c *Client) MediaFiles(ctx context.Context, fileType string, page int) (models.MediaList, error) {
	q := url.Values{}
	if fileType != "" {
		q.Set("file_type", fileType)
	}
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	}
	q.Set("per_page", "50")
	return Get[models.MediaList](ctx, c, "/api/media/", q)
}

// UploadMedia sends content as the multipart "file" part of an upload.
func (c *Client) UploadMedia(ctx context.Context, upload models.MediaUpload, content io.Reader) (models.MediaFile, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, upload.Filename))
	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return models.MediaFile{}, err
	}
	if _, err := io.Copy(part, content); err != nil {
		return models.MediaFile{}, err
	}
	fields := map[string]string{
		"alt_text":     upload.AltText,
		"description":  upload.Description,
		"is_public":    strconv.FormatBool(upload.IsPublic),
		"category_ids": strings.Join(upload.CategoryIDs, ","),
	}
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return models.MediaFile{}, err
		}
	}
	if err := mw.Close(); err != nil {
		return models.MediaFile{}, err
	}

	var out models.MediaFile
	err = c.send(ctx, http.MethodPost, "/api/media/upload", &buf, mw.FormDataContentType(), &out)
	return out, err
}

func (c *Client) AddMediaURL(ctx context.Context, in models.MediaURLInput) (models.MediaFile, error) {
	return Post[models.MediaFile](ctx, c, "/api/media/url", in)
}

func (c *Client) UpdateMedia(ctx context.Context, id string, in models.MediaUpdate) (models.MediaFile, error) {
	return Put[models.MediaFile](ctx, c, "/api/media/"+url.PathEscape(id), in)
}

func (c *Client) DeleteMedia(ctx context.Context, id string) error {
	_, err := Delete[struct{}](ctx, c, "/api/media/"+url.PathEscape(id))
	return err
}

func (c *Client) MediaCategories(ctx context.Context) ([]models.MediaCategory, error) {
	return Get[[]models.MediaCategory](ctx, c, "/api/media/categories/", nil)
}

// Page content

func (c *Client) Pages(ctx context.Context) ([]models.PageContent, error) {
	return Get[[]models.PageContent](ctx, c, "/api/v1/page-content/admin/", nil)
}

func (c *Client) GetPage(ctx context.Context, key string) (models.PageContent, error) {
	return Get[models.PageContent](ctx, c, "/api/v1/page-content/admin/"+url.PathEscape(key)+"/", nil)
}

func (c *Client) UpdatePageSection(ctx context.Context, key, section string, data map[string]interface{}) (models.PageContent, error) {
	return Put[models.PageContent](ctx, c,
		"/api/v1/page-content/admin/"+url.PathEscape(key)+"/sections/"+url.PathEscape(section)+"/", data)
}

// Public endpoints

func (c *Client) PublicPage(ctx context.Context, key string) (models.PageContent, error) {
	return Get[models.PageContent](ctx, c, "/api/v1/page-content/public/"+url.PathEscape(key)+"/", nil)
}

func (c *Client) PublicNews(ctx context.Context, page int) ([]models.NewsArticle, error) {
	return Get[[]models.NewsArticle](ctx, c, "/api/public/news/", url.Values{"page": {strconv.Itoa(page)}, "limit": {"10"}})
}

func (c *Client) NewsBySlug(ctx context.Context, slug string) (models.NewsArticle, error) {
	return Get[models.NewsArticle](ctx, c, "/api/public/news/"+url.PathEscape(slug)+"/", nil)
}

func (c *Client) PublicTestimonials(ctx context.Context) ([]models.Testimonial, error) {
	return Get[[]models.Testimonial](ctx, c, "/api/public/testimonials/", nil)
}

func (c *Client) PublicFAQs(ctx context.Context) ([]models.FAQ, error) {
	return Get[[]models.FAQ](ctx, c, "/api/public/faqs/", nil)
}

func (c *Client) PublicPlans(ctx context.Context) ([]models.ServicePlan, error) {
	return Get[[]models.ServicePlan](ctx, c, "/api/v1/plans/public/", nil)
}

func (c *Client) PublicCompany(ctx context.Context) (models.CompanyInfo, error) {
	return Get[models.CompanyInfo](ctx, c, "/api/public/company/", nil)
}

func (c *Client) PublicStats(ctx context.Context) (models.PublicStats, error) {
	return Get[models.PublicStats](ctx, c, "/api/public/stats/", nil)
}

func (c *Client) Homepage(ctx context.Context) (models.HomepageContent, error) {
	return Get[models.HomepageContent](ctx, c, "/api/public/homepage/", nil)
}

func (c *Client) SubmitContact(ctx context.Context, in models.ContactInput) (models.ContactMessage, error) {
	return Post[models.ContactMessage](ctx, c, "/api/v1/contact/public/", in)
}
