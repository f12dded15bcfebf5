// Package seed loads fixture content into a fresh database.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/isdelr/webempresa/internal/models"
	"github.com/isdelr/webempresa/internal/services"
)

//go:embed default.yaml
var defaultFixture []byte

// AdminFixture describes the first dashboard account.
type AdminFixture struct {
	Username  string `yaml:"username"`
	Email     string `yaml:"email"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
	Password  string `yaml:"password"`
}

// Fixture is the content of a seed file.
type Fixture struct {
	Admin        *AdminFixture              `yaml:"admin"`
	Company      *models.CompanyInput       `yaml:"company"`
	Plans        []models.PlanInput         `yaml:"plans"`
	FAQs         []models.FAQInput          `yaml:"faqs"`
	Testimonials []models.TestimonialInput  `yaml:"testimonials"`
	Pages        []models.PageContentCreate `yaml:"pages"`
}

// Services are the services the seeder writes through.
type Services struct {
	Users        services.UserServiceProvider
	Company      services.CompanyServiceProvider
	Plans        services.PlanServiceProvider
	FAQs         services.FAQServiceProvider
	Testimonials services.TestimonialServiceProvider
	Pages        services.PageContentServiceProvider
}

// Result counts the records Apply created.
type Result struct {
	Users, Company, Plans, FAQs, Testimonials, Pages int
}

// Total is the number of created records.
func (r Result) Total() int {
	return r.Users + r.Company + r.Plans + r.FAQs + r.Testimonials + r.Pages
}

// Default returns the embedded fixture.
func Default() (*Fixture, error) {
	return Parse(defaultFixture)
}

// Load reads a fixture file, or the embedded default when path is empty.
func Load(path string) (*Fixture, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML fixture. Unknown keys are rejected.
func Parse(data []byte) (*Fixture, error) {
	var f Fixture
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}
	return &f, nil
}

// Apply creates every fixture record that does not exist yet. Records are
// matched by username or email, slug, question, client name and page key.
func Apply(ctx context.Context, svc Services, f *Fixture) (Result, error) {
	var res Result

	if a := f.Admin; a != nil {
		switch {
		case a.Password == "":
			log.Info().Msg("Seed: admin password empty, skipping admin account")
		default:
			created, err := seedAdmin(ctx, svc.Users, *a)
			if err != nil {
				return res, err
			}
			res.Users += created
		}
	}

	if f.Company != nil {
		_, err := svc.Company.GetCompany(ctx)
		switch {
		case errors.Is(err, services.ErrNotFound):
			if _, err := svc.Company.UpdateCompany(ctx, *f.Company); err != nil {
				return res, fmt.Errorf("seeding company: %w", err)
			}
			res.Company++
		case err != nil:
			return res, err
		}
	}

	if len(f.Plans) > 0 {
		existing, err := svc.Plans.ListPlans(ctx, false)
		if err != nil {
			return res, err
		}
		slugs := map[string]bool{}
		for _, p := range existing {
			slugs[p.Slug] = true
		}
		for _, in := range f.Plans {
			if in.Slug != "" && slugs[in.Slug] {
				continue
			}
			if _, err := svc.Plans.CreatePlan(ctx, in); err != nil {
				return res, fmt.Errorf("seeding plan %q: %w", in.Name, err)
			}
			res.Plans++
		}
	}

	if len(f.FAQs) > 0 {
		existing, err := svc.FAQs.ListFAQs(ctx, false, "")
		if err != nil {
			return res, err
		}
		questions := map[string]bool{}
		for _, q := range existing {
			questions[q.Question] = true
		}
		for _, in := range f.FAQs {
			if questions[in.Question] {
				continue
			}
			if _, err := svc.FAQs.CreateFAQ(ctx, in); err != nil {
				return res, fmt.Errorf("seeding faq %q: %w", in.Question, err)
			}
			res.FAQs++
		}
	}

	if len(f.Testimonials) > 0 {
		existing, err := svc.Testimonials.ListTestimonials(ctx, false, nil)
		if err != nil {
			return res, err
		}
		names := map[string]bool{}
		for _, t := range existing {
			names[t.ClientName] = true
		}
		for _, in := range f.Testimonials {
			if names[in.ClientName] {
				continue
			}
			if _, err := svc.Testimonials.CreateTestimonial(ctx, in); err != nil {
				return res, fmt.Errorf("seeding testimonial %q: %w", in.ClientName, err)
			}
			res.Testimonials++
		}
	}

	for _, in := range f.Pages {
		_, err := svc.Pages.GetPage(ctx, in.PageKey)
		if err == nil {
			continue
		}
		if !errors.Is(err, services.ErrNotFound) {
			return res, err
		}
		if _, err := svc.Pages.CreatePage(ctx, in); err != nil {
			return res, fmt.Errorf("seeding page %q: %w", in.PageKey, err)
		}
		res.Pages++
	}

	log.Info().Int("created", res.Total()).Msg("Seed applied")
	return res, nil
}

func seedAdmin(ctx context.Context, users services.UserServiceProvider, a AdminFixture) (int, error) {
	for _, login := range []string{a.Username, a.Email} {
		if login == "" {
			continue
		}
		_, err := users.GetUserByLogin(ctx, login)
		if err == nil {
			return 0, nil
		}
		if !errors.Is(err, services.ErrNotFound) {
			return 0, err
		}
	}

	_, err := users.CreateUser(ctx, services.UserInput{
		Username:    a.Username,
		Email:       a.Email,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		Password:    a.Password,
		Role:        models.RoleSuperAdmin,
		IsStaff:     true,
		IsSuperuser: true,
	})
	if err != nil {
		return 0, fmt.Errorf("seeding admin: %w", err)
	}
	return 1, nil
}
