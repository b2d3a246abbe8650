package models

import "gorm.io/gorm"

// Fallbacks used when the settings row, or one of its fields, is missing.
const (
	DefaultFromName       = "Your Company"
	DefaultFromEmail      = "noreply@yourdomain.com"
	DefaultCompanyName    = "Your Company"
	DefaultCompanyAddress = "Your Company Address"
)

// Settings is the single row holding the sender identity and the legal
// footer details.
type Settings struct {
	gorm.Model
	FromName       string `json:"from_name"`
	FromEmail      string `json:"from_email"`
	CompanyName    string `json:"company_name"`
	CompanyAddress string `json:"company_address"`
}

// WithDefaults returns a copy with every empty field replaced by its default.
func (s Settings) WithDefaults() Settings {
	if s.FromName == "" {
		s.FromName = DefaultFromName
	}
	if s.FromEmail == "" {
		s.FromEmail = DefaultFromEmail
	}
	if s.CompanyName == "" {
		s.CompanyName = DefaultCompanyName
	}
	if s.CompanyAddress == "" {
		s.CompanyAddress = DefaultCompanyAddress
	}
	return s
}
