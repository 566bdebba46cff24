// Package email provides the email client for sending transactional emails.
package email

import (
	"fmt"

	"github.com/resendlabs/resend-go"
	"github.com/speakaboutai/micdrop-go/internal/domain/content"
	"github.com/speakaboutai/micdrop-go/internal/infrastructure/email/templates"
	"github.com/speakaboutai/micdrop-go/pkg/config"
)

// Service defines the interface for sending emails, allowing for mock implementations in tests.
type Service interface {
	SendToolsWelcomeEmail(toEmail, visitorName string, page *content.TalkPage) error
}

// ResendClient is the concrete implementation of the email Service using the Resend API.
type ResendClient struct {
	client    *resend.Client
	fromEmail string
	fromName  string
}

// NewService creates a new email service client, returning the Service interface.
func NewService() (Service, error) {
	if config.ResendAPIKey == "" {
		return nil, fmt.Errorf("RESEND_API_KEY environment variable is required")
	}

	return &ResendClient{
		client:    resend.NewClient(config.ResendAPIKey),
		fromEmail: config.EmailFrom,
		fromName:  config.EmailFromName,
	}, nil
}

// SendToolsWelcomeEmail composes and sends the post-capture email listing the
// talk's tools and downloads.
func (c *ResendClient) SendToolsWelcomeEmail(toEmail, visitorName string, page *content.TalkPage) error {
	subject := fmt.Sprintf("Your tools from %s", page.Title)

	content := templates.GetToolsWelcomeContent(templates.ToolsWelcomeProps{
		VisitorName: visitorName,
		TalkTitle:   page.Title,
		SpeakerName: page.SpeakerName,
		PageURL:     fmt.Sprintf("%s/talk/%s", config.PublicBaseURL, page.Slug),
		Gpts:        page.CustomGpts,
		Downloads:   page.Downloads,
	})

	htmlContent := templates.GetEmailLayout(templates.EmailLayoutProps{
		Preheader: fmt.Sprintf("Everything %s shared during the talk, in one place", page.SpeakerName),
		Content:   content,
	})

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", c.fromName, c.fromEmail),
		To:      []string{toEmail},
		Subject: subject,
		Html:    htmlContent,
	}

	_, err := c.client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("failed to send tools welcome email via Resend: %w", err)
	}

	return nil
}
