package domain

// FrontendConfig is the public projection used to seed storefront rendering.
// It carries nothing that is not already visible on the storefront.
type FrontendConfig struct {
	Code     string            `json:"code"`
	Name     string            `json:"name"`
	Domain   string            `json:"domain"`
	Branding Branding          `json:"branding"`
	Theme    Theme             `json:"theme"`
	Contact  Contact           `json:"contact"`
	Social   map[string]string `json:"social"`
	SEO      SEO               `json:"seo"`
	Features Features          `json:"features"`
}

type Branding struct {
	LogoURL     string `json:"logo_url"`
	FaviconURL  string `json:"favicon_url"`
	Slogan      string `json:"slogan"`
	Description string `json:"description"`
}

type Contact struct {
	Email             string `json:"email"`
	Phone             string `json:"phone"`
	PhoneFormatted    string `json:"phone_formatted"`
	WhatsApp          string `json:"whatsapp"`
	WhatsAppFormatted string `json:"whatsapp_formatted"`
}

type SEO struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Keywords    string `json:"keywords"`
}

// ToFrontendConfig projects t for public consumption.
func ToFrontendConfig(t *Tenant, phones *PhoneFormatter) FrontendConfig {
	theme := t.Theme
	if !ValidTypography(theme.Typography) {
		theme.Typography = TypographyInter
	}
	title := t.SEOTitle
	if title == "" {
		title = t.Name
	}
	return FrontendConfig{
		Code:   t.Code,
		Name:   t.Name,
		Domain: t.Domain,
		Branding: Branding{
			LogoURL:     t.LogoURL,
			FaviconURL:  t.FaviconURL,
			Slogan:      t.Slogan,
			Description: t.Description,
		},
		Theme: theme,
		Contact: Contact{
			Email:             t.ContactEmail,
			Phone:             t.ContactPhone,
			PhoneFormatted:    phones.Format(t.ContactPhone),
			WhatsApp:          t.WhatsApp,
			WhatsAppFormatted: phones.Format(t.WhatsApp),
		},
		Social: t.SocialLinks(),
		SEO: SEO{
			Title:       title,
			Description: t.SEODescription,
			Keywords:    t.SEOKeywords,
		},
		Features: t.Features,
	}
}
