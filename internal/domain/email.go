package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// AdminCredentialsEmailData holds data for the organizer credentials email
// sent after a lottery is created.
type AdminCredentialsEmailData struct {
	Email     string
	EventName string
	EventURL  string
	Username  string
	Password  string
}

// RecoveryRevealEmailData holds data for the reveal email sent when the
// elimination condition fires. RecipientName is the deduced forgetful
// participant's own name.
type RecoveryRevealEmailData struct {
	Email         string
	EventName     string
	RecipientName string
}

// EmailService defines the contract for sending domain-level emails. Both
// sends are best-effort: a failure never rolls back the state change that
// triggered it.
type EmailService interface {
	SendAdminCredentials(ctx context.Context, data *AdminCredentialsEmailData) error
	SendRecoveryReveal(ctx context.Context, data *RecoveryRevealEmailData) error
}
