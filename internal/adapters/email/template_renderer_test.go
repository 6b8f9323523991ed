package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"giftlottery/internal/domain"
)

func TestTemplateRenderer_AdminCredentials(t *testing.T) {
	renderer := NewTemplateRenderer()

	subject, htmlBody, textBody, err := renderer.Render("admin_credentials", &domain.AdminCredentialsEmailData{
		Email:     "organizer@example.com",
		EventName: "Office Christmas",
		EventURL:  "aaaabbbbccccdddd",
		Username:  "organizer",
		Password:  "hunter2",
	})
	require.NoError(t, err)

	assert.Equal(t, `Your gift exchange "Office Christmas" is ready`, subject)
	assert.Contains(t, htmlBody, "aaaabbbbccccdddd")
	assert.Contains(t, htmlBody, "hunter2")
	assert.Contains(t, textBody, "Username: organizer")
}

func TestTemplateRenderer_RecoveryReveal(t *testing.T) {
	renderer := NewTemplateRenderer()

	subject, htmlBody, textBody, err := renderer.Render("recovery_reveal", &domain.RecoveryRevealEmailData{
		Email:         "forgot@example.com",
		EventName:     "Office Christmas",
		RecipientName: "Alice",
	})
	require.NoError(t, err)

	assert.Equal(t, `Your assignment for "Office Christmas"`, subject)
	assert.Contains(t, htmlBody, "Hi Alice")
	assert.Contains(t, textBody, "Hi Alice")
}

func TestTemplateRenderer_HTMLEscaping(t *testing.T) {
	renderer := NewTemplateRenderer()

	_, htmlBody, textBody, err := renderer.Render("recovery_reveal", &domain.RecoveryRevealEmailData{
		EventName:     `<script>alert(1)</script>`,
		RecipientName: "Alice",
	})
	require.NoError(t, err)

	assert.NotContains(t, htmlBody, "<script>")
	assert.Contains(t, textBody, "<script>")
}

func TestTemplateRenderer_UnknownTemplate(t *testing.T) {
	renderer := NewTemplateRenderer()

	_, _, _, err := renderer.Render("does_not_exist", nil)
	require.Error(t, err)
}
