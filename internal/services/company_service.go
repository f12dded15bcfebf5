package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/isdelr/webempresa/internal/models"
)

const companyColumns = `id, company_name, tagline, description, email, phone, address, website, linkedin, twitter,
	facebook, instagram, logo, hero_image, meta_title, meta_description, created_at, updated_at`

// CompanyServiceProvider defines the interface for the company info service.
type CompanyServiceProvider interface {
	GetCompany(ctx context.Context) (models.CompanyInfo, error)
	GetOrCreateCompany(ctx context.Context) (models.CompanyInfo, error)
	UpdateCompany(ctx context.Context, input models.CompanyInput) (models.CompanyInfo, error)
}

// CompanyService manages the singleton company record.
type CompanyService struct {
	db     *sqlx.DB
	events EventServiceProvider
}

// NewCompanyService creates a new CompanyService.
func NewCompanyService(db *sqlx.DB, events EventServiceProvider) *CompanyService {
	return &CompanyService{db: db, events: events}
}

// GetCompany returns the stored record, or ErrNotFound when nothing was saved yet.
func (s *CompanyService) GetCompany(ctx context.Context) (models.CompanyInfo, error) {
	var info models.CompanyInfo
	err := s.db.GetContext(ctx, &info, "SELECT "+companyColumns+" FROM company_info ORDER BY created_at LIMIT 1")
	if err != nil {
		return models.CompanyInfo{}, notFound(err, "company info")
	}
	return info, nil
}

// GetOrCreateCompany returns the record, inserting the defaults first if it is missing.
func (s *CompanyService) GetOrCreateCompany(ctx context.Context) (models.CompanyInfo, error) {
	info, err := s.GetCompany(ctx)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return info, err
	}

	info = models.DefaultCompanyInfo()
	info.ID = uuid.New().String()
	info.CreatedAt = timeNow()
	if err := s.insert(ctx, info); err != nil {
		return models.CompanyInfo{}, err
	}
	return info, nil
}

// UpdateCompany overwrites the record, creating it when absent.
func (s *CompanyService) UpdateCompany(ctx context.Context, input models.CompanyInput) (models.CompanyInfo, error) {
	info, err := s.GetCompany(ctx)
	creating := errors.Is(err, ErrNotFound)
	if err != nil && !creating {
		return models.CompanyInfo{}, err
	}

	if creating {
		info.ID = uuid.New().String()
		info.CreatedAt = timeNow()
	}
	applyCompanyInput(&info, input)

	if creating {
		err = s.insert(ctx, info)
	} else {
		now := timeNow()
		info.UpdatedAt = &now
		_, err = s.db.NamedExecContext(ctx, `
			UPDATE company_info SET company_name = :company_name, tagline = :tagline, description = :description,
				email = :email, phone = :phone, address = :address, website = :website, linkedin = :linkedin,
				twitter = :twitter, facebook = :facebook, instagram = :instagram, logo = :logo,
				hero_image = :hero_image, meta_title = :meta_title, meta_description = :meta_description,
				updated_at = :updated_at
			WHERE id = :id`, info)
	}
	if err != nil {
		return models.CompanyInfo{}, err
	}

	record(ctx, s.events, "company.update", "info", fmt.Sprintf("Company info for '%s' updated.", info.CompanyName))
	return info, nil
}

func (s *CompanyService) insert(ctx context.Context, info models.CompanyInfo) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO company_info (id, company_name, tagline, description, email, phone, address, website, linkedin,
			twitter, facebook, instagram, logo, hero_image, meta_title, meta_description, created_at)
		VALUES (:id, :company_name, :tagline, :description, :email, :phone, :address, :website, :linkedin,
			:twitter, :facebook, :instagram, :logo, :hero_image, :meta_title, :meta_description, :created_at)`, info)
	return err
}

func applyCompanyInput(c *models.CompanyInfo, in models.CompanyInput) {
	c.CompanyName = in.CompanyName
	c.Tagline = in.Tagline
	c.Description = in.Description
	c.Email = in.Email
	c.Phone = in.Phone
	c.Address = in.Address
	c.Website = in.Website
	c.LinkedIn = in.LinkedIn
	c.Twitter = in.Twitter
	c.Facebook = in.Facebook
	c.Instagram = in.Instagram
	c.Logo = in.Logo
	c.HeroImage = in.HeroImage
	c.MetaTitle = in.MetaTitle
	c.MetaDescription = in.MetaDescription
}
