package services

import (
	"context"
	"fmt"
	"log/slog"

	"giftlottery/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer, logger: logger}
}

// SendAdminCredentials sends the organizer their event URL and credentials
// using the "admin_credentials" template.
func (s *emailService) SendAdminCredentials(ctx context.Context, data *domain.AdminCredentialsEmailData) error {
	if data == nil {
		return fmt.Errorf("admin credentials data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("admin_credentials", data)
	if err != nil {
		return fmt.Errorf("failed to render admin_credentials template: %w", err)
	}
	if err := s.mailer.Send(data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send admin credentials email: %w", err)
	}
	s.logger.Info("admin credentials email sent", "to", data.Email, "event_url", data.EventURL)
	return nil
}

// SendRecoveryReveal sends the deduced assignment owner their name using the
// "recovery_reveal" template. This is the only channel the deduced name ever
// travels over.
func (s *emailService) SendRecoveryReveal(ctx context.Context, data *domain.RecoveryRevealEmailData) error {
	if data == nil {
		return fmt.Errorf("recovery reveal data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("recovery_reveal", data)
	if err != nil {
		return fmt.Errorf("failed to render recovery_reveal template: %w", err)
	}
	if err := s.mailer.Send(data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send recovery reveal email: %w", err)
	}
	s.logger.Info("recovery reveal email sent", "to", data.Email)
	return nil
}
