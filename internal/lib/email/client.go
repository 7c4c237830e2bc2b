// Package email provides an email sending client.
//
// It uses Resend (resend-go) as the email provider and renders
// bodies from HTML templates on the filesystem.
package email

import (
	"bytes"
	"fmt"
	"html/template"
	"path/filepath"

	"github.com/deppfellow/obsrecords/internal/config"
	"github.com/pkg/errors"
	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
)

const (
	defaultTemplateDir = "templates/emails"
	defaultFrom        = "onboarding@resend.dev"
)

// Client wraps the Resend client and a logger.
type Client struct {
	client      *resend.Client
	logger      *zerolog.Logger
	from        string
	templateDir string
}

// NewClient creates an email Client from the integration config.
func NewClient(cfg *config.Config, logger *zerolog.Logger) *Client {
	from := cfg.Integration.FromAddress
	if from == "" {
		from = defaultFrom
	}
	return &Client{
		client:      resend.NewClient(cfg.Integration.ResendAPIKey),
		logger:      logger,
		from:        from,
		templateDir: defaultTemplateDir,
	}
}

// Render executes templateName with data.
func (c *Client) Render(templateName Template, data map[string]string) (string, error) {
	tmplPath := filepath.Join(c.templateDir, string(templateName)+".html")

	tmpl, err := template.ParseFiles(tmplPath)
	if err != nil {
		return "", errors.Wrapf(err, "failed to parse email template %s", templateName)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return "", errors.Wrapf(err, "failed to execute email template %s", templateName)
	}
	return body.String(), nil
}

// SendEmail renders templateName with data and sends it through Resend.
func (c *Client) SendEmail(to string, bcc []string, subject string, templateName Template, data map[string]string) error {
	html, err := c.Render(templateName, data)
	if err != nil {
		return err
	}

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", "Observatory Records", c.from),
		To:      []string{to},
		Bcc:     bcc,
		Subject: subject,
		Html:    html,
	}

	sent, err := c.client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	c.logger.Debug().Str("email_id", sent.Id).Str("template", string(templateName)).Msg("email sent")
	return nil
}
