package models

import "time"

// CompanyInfo is the singleton record describing the company.
type CompanyInfo struct {
	ID              string     `json:"id" db:"id"`
	CompanyName     string     `json:"company_name" db:"company_name"`
	Tagline         string     `json:"tagline" db:"tagline"`
	Description     string     `json:"description" db:"description"`
	Email           string     `json:"email" db:"email"`
	Phone           string     `json:"phone" db:"phone"`
	Address         string     `json:"address" db:"address"`
	Website         string     `json:"website" db:"website"`
	LinkedIn        string     `json:"linkedin" db:"linkedin"`
	Twitter         string     `json:"twitter" db:"twitter"`
	Facebook        string     `json:"facebook" db:"facebook"`
	Instagram       string     `json:"instagram" db:"instagram"`
	Logo            string     `json:"logo" db:"logo"`
	HeroImage       string     `json:"hero_image" db:"hero_image"`
	MetaTitle       string     `json:"meta_title" db:"meta_title"`
	MetaDescription string     `json:"meta_description" db:"meta_description"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at" db:"updated_at"`
}

// DefaultCompanyInfo is what an admin sees before anything was saved.
func DefaultCompanyInfo() CompanyInfo {
	return CompanyInfo{
		CompanyName:     "Web Empresa",
		Tagline:         "Tu empresa digital",
		Description:     "Descripción de la empresa",
		Email:           "info@webempresa.com",
		MetaTitle:       "Web Empresa",
		MetaDescription: "Empresa digital",
	}
}

// CompanyInput carries the editable fields of the company record.
type CompanyInput struct {
	CompanyName     string `json:"company_name" yaml:"company_name" validate:"required,max=200"`
	Tagline         string `json:"tagline" yaml:"tagline" validate:"max=255"`
	Description     string `json:"description" yaml:"description"`
	Email           string `json:"email" yaml:"email" validate:"required,email"`
	Phone           string `json:"phone" yaml:"phone" validate:"max=20"`
	Address         string `json:"address" yaml:"address"`
	Website         string `json:"website" yaml:"website" validate:"omitempty,url"`
	LinkedIn        string `json:"linkedin" yaml:"linkedin" validate:"omitempty,url"`
	Twitter         string `json:"twitter" yaml:"twitter" validate:"omitempty,url"`
	Facebook        string `json:"facebook" yaml:"facebook" validate:"omitempty,url"`
	Instagram       string `json:"instagram" yaml:"instagram" validate:"omitempty,url"`
	Logo            string `json:"logo" yaml:"logo" validate:"max=255"`
	HeroImage       string `json:"hero_image" yaml:"hero_image" validate:"max=255"`
	MetaTitle       string `json:"meta_title" yaml:"meta_title" validate:"max=60"`
	MetaDescription string `json:"meta_description" yaml:"meta_description" validate:"max=160"`
}
