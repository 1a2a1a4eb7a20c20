package domain

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"time"
)

// Typography is the storefront font family.
type Typography string

const (
	TypographyInter      Typography = "inter"
	TypographyRoboto     Typography = "roboto"
	TypographyPoppins    Typography = "poppins"
	TypographyMontserrat Typography = "montserrat"
	TypographyLato       Typography = "lato"
	TypographyPlayfair   Typography = "playfair"
)

// ValidTypography reports whether t is a supported family.
func ValidTypography(t Typography) bool {
	switch t {
	case TypographyInter, TypographyRoboto, TypographyPoppins, TypographyMontserrat, TypographyLato, TypographyPlayfair:
		return true
	}
	return false
}

// Theme holds the thirteen storefront colors plus typography and dark mode.
type Theme struct {
	Primary         string     `json:"primary" gorm:"size:16;default:'#1f2937'"`
	Secondary       string     `json:"secondary" gorm:"size:16;default:'#4b5563'"`
	Accent          string     `json:"accent" gorm:"size:16;default:'#f59e0b'"`
	Background      string     `json:"background" gorm:"size:16;default:'#ffffff'"`
	Surface         string     `json:"surface" gorm:"size:16;default:'#f9fafb'"`
	Text            string     `json:"text" gorm:"size:16;default:'#111827'"`
	TextMuted       string     `json:"text_muted" gorm:"size:16;default:'#6b7280'"`
	Border          string     `json:"border" gorm:"size:16;default:'#e5e7eb'"`
	Success         string     `json:"success" gorm:"size:16;default:'#16a34a'"`
	Warning         string     `json:"warning" gorm:"size:16;default:'#d97706'"`
	Error           string     `json:"error" gorm:"size:16;default:'#dc2626'"`
	Header          string     `json:"header" gorm:"size:16;default:'#ffffff'"`
	Footer          string     `json:"footer" gorm:"size:16;default:'#111827'"`
	Typography      Typography `json:"typography" gorm:"size:32;default:'inter'"`
	DarkModeEnabled bool       `json:"dark_mode_enabled"`
	DarkModeDefault bool       `json:"dark_mode_default"`
}

// Features are the per-tenant storefront toggles.
type Features struct {
	Wishlist      bool `json:"wishlist" gorm:"default:true"`
	Comparison    bool `json:"comparison" gorm:"default:true"`
	Reviews       bool `json:"reviews" gorm:"default:true"`
	Newsletter    bool `json:"newsletter" gorm:"default:true"`
	GuestCheckout bool `json:"guest_checkout" gorm:"default:true"`
}

// Tenant is a branded storefront identity.
type Tenant struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	Code   string `json:"code" gorm:"size:64;not null;index"`
	Name   string `json:"name" gorm:"not null"`
	Domain string `json:"domain" gorm:"size:255;not null;index"`
	// DomainsJSON is the stringified JSON list of additional domains.
	DomainsJSON string `json:"-" gorm:"column:domains_json;type:text"`
	Active      bool   `json:"active" gorm:"default:true;index"`

	LogoURL     string `json:"logo_url"`
	FaviconURL  string `json:"favicon_url"`
	Slogan      string `json:"slogan"`
	Description string `json:"description" gorm:"type:text"`

	Theme    Theme    `json:"theme" gorm:"embedded;embeddedPrefix:theme_"`
	Features Features `json:"features" gorm:"embedded;embeddedPrefix:feature_"`

	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`
	WhatsApp     string `json:"whatsapp"`
	// SocialLinksJSON is the stringified JSON map of network name to URL.
	SocialLinksJSON string `json:"-" gorm:"column:social_links_json;type:text"`

	SEOTitle       string `json:"seo_title"`
	SEODescription string `json:"seo_description" gorm:"type:text"`
	SEOKeywords    string `json:"seo_keywords"`

	CompanyID      *uint `json:"company_id"`
	SubscriptionID *uint `json:"subscription_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Tenant) TableName() string { return "tenants" }

var codePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidCode reports whether code uses only letters, digits, '-' and '_'.
func ValidCode(code string) bool {
	return codePattern.MatchString(code)
}

// NormalizeDomain lowercases d, strips scheme, port, path and a leading "www.".
func NormalizeDomain(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	if i := strings.Index(d, "://"); i >= 0 {
		d = d[i+3:]
	}
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	if i := strings.LastIndex(d, ":"); i >= 0 && !strings.Contains(d[i:], "]") {
		d = d[:i]
	}
	d = strings.TrimSuffix(d, ".")
	return strings.TrimPrefix(d, "www.")
}

// AdditionalDomains decodes DomainsJSON. Anything other than a JSON array
// of strings yields an empty list.
func (t *Tenant) AdditionalDomains() []string {
	if strings.TrimSpace(t.DomainsJSON) == "" {
		return []string{}
	}
	var raw []interface{}
	if err := json.Unmarshal([]byte(t.DomainsJSON), &raw); err != nil {
		return []string{}
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			return []string{}
		}
		if s = NormalizeDomain(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// SetAdditionalDomains normalizes, de-duplicates and stores domains.
func (t *Tenant) SetAdditionalDomains(domains []string) {
	seen := make(map[string]bool, len(domains))
	out := make([]string, 0, len(domains))
	for _, d := range domains {
		d = NormalizeDomain(d)
		if d == "" || seen[d] || d == NormalizeDomain(t.Domain) {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	raw, _ := json.Marshal(out)
	t.DomainsJSON = string(raw)
}

// SocialLinks decodes SocialLinksJSON. Anything other than a JSON object
// of string values yields an empty map.
func (t *Tenant) SocialLinks() map[string]string {
	out := map[string]string{}
	if strings.TrimSpace(t.SocialLinksJSON) == "" {
		return out
	}
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(t.SocialLinksJSON), &raw); err != nil {
		return out
	}
	for k, v := range raw {
		s, ok := v.(string)
		if !ok {
			return map[string]string{}
		}
		out[k] = s
	}
	return out
}

// SetSocialLinks stores links, dropping empty values.
func (t *Tenant) SetSocialLinks(links map[string]string) {
	clean := make(map[string]string, len(links))
	for k, v := range links {
		if k = strings.TrimSpace(k); k != "" && strings.TrimSpace(v) != "" {
			clean[k] = strings.TrimSpace(v)
		}
	}
	raw, _ := json.Marshal(clean)
	t.SocialLinksJSON = string(raw)
}

// ServesDomain reports whether normalized domain d belongs to t.
func (t *Tenant) ServesDomain(d string) bool {
	if NormalizeDomain(t.Domain) == d {
		return true
	}
	for _, extra := range t.AdditionalDomains() {
		if extra == d {
			return true
		}
	}
	return false
}

// Company is the legal entity provisioned for a tenant.
type Company struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

func (Company) TableName() string { return "companies" }

// SubscriptionState is the billing lifecycle state.
type SubscriptionState string

const (
	SubscriptionTrial     SubscriptionState = "trial"
	SubscriptionActive    SubscriptionState = "active"
	SubscriptionPastDue   SubscriptionState = "past_due"
	SubscriptionCancelled SubscriptionState = "cancelled"
)

// Subscription is the tenant's plan and billing schedule.
type Subscription struct {
	ID              uint              `json:"id" gorm:"primaryKey"`
	TenantID        uint              `json:"tenant_id" gorm:"index"`
	Plan            string            `json:"plan" gorm:"not null"`
	State           SubscriptionState `json:"state" gorm:"size:16;not null"`
	BillingPeriod   string            `json:"billing_period" gorm:"size:16;not null"`
	TrialEndsAt     *time.Time        `json:"trial_ends_at"`
	NextBillingDate *time.Time        `json:"next_billing_date"`
	CreatedAt       time.Time         `json:"created_at"`
}

func (Subscription) TableName() string { return "subscriptions" }

// Default provisioning values.
const (
	DefaultPlan          = "starter"
	DefaultBillingPeriod = "monthly"
	DefaultTrialDays     = 14
)

// TenantRepository defines the contract for tenant data access.
type TenantRepository interface {
	Create(ctx context.Context, t *Tenant) error
	Update(ctx context.Context, t *Tenant) error
	FindByID(ctx context.Context, id uint) (*Tenant, error)
	FindByCode(ctx context.Context, code string) (*Tenant, error)
	// FindActiveByPrimaryDomain matches the normalized primary domain case-insensitively.
	FindActiveByPrimaryDomain(ctx context.Context, domain string) (*Tenant, error)
	ListActive(ctx context.Context) ([]Tenant, error)
	List(ctx context.Context, limit, offset int) ([]Tenant, int64, error)

	CreateCompany(ctx context.Context, c *Company) error
	CreateSubscription(ctx context.Context, s *Subscription) error
	FindSubscription(ctx context.Context, id uint) (*Subscription, error)
}

// AdminProvisioner creates the first admin account of a new tenant.
type AdminProvisioner interface {
	ProvisionTenantAdmin(ctx context.Context, tenantID uint, email, name string) (login, tempPassword string, err error)
}

// DomainCollision returns the first of domains already served by an active
// tenant other than selfID, or "" when all are free.
func DomainCollision(tenants []Tenant, selfID uint, domains ...string) string {
	for _, d := range domains {
		d = NormalizeDomain(d)
		if d == "" {
			continue
		}
		for i := range tenants {
			if tenants[i].ID != selfID && tenants[i].ServesDomain(d) {
				return d
			}
		}
	}
	return ""
}
