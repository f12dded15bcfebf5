package models

import "time"

// Change types of a stats card.
const (
	ChangePositive = "positive"
	ChangeNegative = "negative"
	ChangeNeutral  = "neutral"
)

// StatCard is one tile of the dashboard stats row.
type StatCard struct {
	Key        string `json:"key"`
	Title      string `json:"title"`
	Value      string `json:"value"`
	Change     string `json:"change"`
	ChangeType string `json:"change_type"`
	Icon       string `json:"icon"`
}

// HealthSnapshot is a sample of the host resources.
type HealthSnapshot struct {
	Hostname      string    `json:"hostname"`
	Platform      string    `json:"platform"`
	CPUPercent    float64   `json:"cpu_percent"`
	MemoryPercent float64   `json:"memory_percent"`
	MemoryUsed    string    `json:"memory_used"`
	MemoryTotal   string    `json:"memory_total"`
	DiskPercent   float64   `json:"disk_percent"`
	DiskUsed      string    `json:"disk_used"`
	DiskTotal     string    `json:"disk_total"`
	Uptime        string    `json:"uptime"`
	Status        string    `json:"status"` // healthy, degraded, critical
	SampledAt     time.Time `json:"sampled_at"`
}

// ContainerStatus is one container of the deployment.
type ContainerStatus struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Image   string    `json:"image"`
	State   string    `json:"state"`
	Status  string    `json:"status"`
	Created time.Time `json:"created"`

	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
}

// InfrastructureStatus is the answer of the infrastructure widget.
type InfrastructureStatus struct {
	Available  bool              `json:"available"`
	Running    int               `json:"running"`
	Total      int               `json:"total"`
	Containers []ContainerStatus `json:"containers"`
}

// PublicStats are the counters shown on the public site.
type PublicStats struct {
	TotalArticles     int `json:"total_articles" db:"total_articles"`
	TotalTestimonials int `json:"total_testimonials" db:"total_testimonials"`
	TotalFAQs         int `json:"total_faqs" db:"total_faqs"`
	FeaturedArticles  int `json:"featured_articles" db:"featured_articles"`
}

// HomepageContent aggregates what the landing page shows besides its page content.
type HomepageContent struct {
	FeaturedArticles     []NewsArticle `json:"featured_articles"`
	FeaturedTestimonials []Testimonial `json:"featured_testimonials"`
	CompanyInfo          *CompanyInfo  `json:"company_info"`
}
