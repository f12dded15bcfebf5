package models

import (
	"math"
	"time"
)

// ServicePlan is a pricing plan of the SaaS product.
type ServicePlan struct {
	ID               string     `json:"id" db:"id"`
	Name             string     `json:"name" db:"name"`
	Slug             string     `json:"slug" db:"slug"`
	Description      string     `json:"description" db:"description"`
	PriceMonthly     float64    `json:"price_monthly" db:"price_monthly"`
	PriceYearly      *float64   `json:"price_yearly" db:"price_yearly"`
	MonthlySavings   float64    `json:"monthly_savings" db:"monthly_savings"`
	MaxUsers         int        `json:"max_users" db:"max_users"`
	MaxCourses       int        `json:"max_courses" db:"max_courses"`
	StorageGB        int        `json:"storage_gb" db:"storage_gb"`
	APIRequestsLimit int        `json:"api_requests_limit" db:"api_requests_limit"`
	Features         StringList `json:"features" db:"features_json"`
	ColorPrimary     string     `json:"color_primary" db:"color_primary"`
	ColorSecondary   string     `json:"color_secondary" db:"color_secondary"`
	IsActive         bool       `json:"is_active" db:"is_active"`
	IsPopular        bool       `json:"is_popular" db:"is_popular"`
	DisplayOrder     int        `json:"display_order" db:"display_order"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        *time.Time `json:"updated_at" db:"updated_at"`

	YearlySavingsAmount float64 `json:"yearly_savings_amount" db:"-"`
}

// YearlySavings is what a customer saves per year by paying yearly.
func (p ServicePlan) YearlySavings() float64 {
	if p.PriceYearly == nil || *p.PriceYearly == 0 || p.PriceMonthly == 0 {
		return 0
	}
	return math.Round((p.PriceMonthly*12-*p.PriceYearly)*100) / 100
}

// PrepareForAPI fills the derived fields.
func (p *ServicePlan) PrepareForAPI() {
	if p.Features == nil {
		p.Features = StringList{}
	}
	p.YearlySavingsAmount = p.YearlySavings()
}

// PlanInput carries the editable fields of a plan.
type PlanInput struct {
	Name             string   `json:"name" yaml:"name" validate:"required,max=100"`
	Slug             string   `json:"slug" yaml:"slug" validate:"max=120"`
	Description      string   `json:"description" yaml:"description" validate:"required"`
	PriceMonthly     float64  `json:"price_monthly" yaml:"price_monthly" validate:"gte=0"`
	PriceYearly      *float64 `json:"price_yearly" yaml:"price_yearly" validate:"omitempty,gte=0"`
	MonthlySavings   float64  `json:"monthly_savings" yaml:"monthly_savings" validate:"gte=0,lte=100"`
	MaxUsers         int      `json:"max_users" yaml:"max_users" validate:"gte=0"`
	MaxCourses       int      `json:"max_courses" yaml:"max_courses" validate:"gte=0"`
	StorageGB        int      `json:"storage_gb" yaml:"storage_gb" validate:"gte=0"`
	APIRequestsLimit int      `json:"api_requests_limit" yaml:"api_requests_limit" validate:"gte=0"`
	Features         []string `json:"features" yaml:"features"`
	ColorPrimary     string   `json:"color_primary" yaml:"color_primary" validate:"omitempty,hexcolor"`
	ColorSecondary   string   `json:"color_secondary" yaml:"color_secondary" validate:"omitempty,hexcolor"`
	IsActive         bool     `json:"is_active" yaml:"is_active"`
	IsPopular        bool     `json:"is_popular" yaml:"is_popular"`
	DisplayOrder     int      `json:"display_order" yaml:"display_order"`
}
