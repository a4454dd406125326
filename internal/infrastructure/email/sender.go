package email

import (
	"fmt"
	"strings"

	"vendorflow/internal/application/outreach/emailsender"
	"vendorflow/internal/shared/config"
)

// NewSender returns the configured outbound provider.
func NewSender(cfg *config.EmailConfig) (emailsender.EmailSender, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "resend":
		if cfg.ResendAPIKey == "" {
			return nil, fmt.Errorf("email.resend_api_key is required for the resend provider")
		}
		return NewResendSender(ResendConfig{APIKey: cfg.ResendAPIKey, BaseURL: cfg.ResendBaseURL}), nil
	case "smtp":
		return NewSMTPSender(SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
		}), nil
	default:
		return nil, fmt.Errorf("unknown email provider: %s", cfg.Provider)
	}
}
