package services

import (
	"fmt"
	"html"
	"log"
	"strings"

	"bug_track_app_go/config"
	"bug_track_app_go/models"

	"github.com/resend/resend-go/v2"
)

// Email represents an email message
type Email struct {
	To       []string
	Subject  string
	HTMLBody string
	TextBody string
}

// BuildAssignmentEmail builds the notification sent to a tester when a
// bug is created or copied onto their plate. Bug fields are stored as
// plain text, so they are escaped before interpolation into the HTML
// variant.
func BuildAssignmentEmail(toEmail string, bug *models.Bug, actor string) *Email {
	subject := fmt.Sprintf("[Bug Track] %s assigned to you: %s", bug.TCID, bug.Title)
	text := fmt.Sprintf(
		"%s assigned a bug to you.\n\nTCID: %s\nTitle: %s\nStatus: %s\nStage: %s\nDate: %s\n",
		actor, bug.TCID, bug.Title, bug.Status, bug.Stage, bug.Date,
	)
	htmlBody := fmt.Sprintf(
		"<p><strong>%s</strong> assigned a bug to you.</p><ul><li>TCID: %s</li><li>Title: %s</li><li>Status: %s</li><li>Stage: %s</li><li>Date: %s</li></ul>",
		html.EscapeString(actor), html.EscapeString(bug.TCID), html.EscapeString(bug.Title),
		html.EscapeString(bug.Status), html.EscapeString(bug.Stage), html.EscapeString(bug.Date),
	)
	return &Email{
		To:       []string{toEmail},
		Subject:  subject,
		HTMLBody: htmlBody,
		TextBody: text,
	}
}

// SendEmail sends an email using the Resend API
func SendEmail(cfg *config.Config, email *Email) error {
	// In development mode, log the email instead of sending
	if cfg.EmailTestMode {
		logEmailToConsole(email)
		return nil
	}

	if cfg.ResendAPIKey == "" {
		return fmt.Errorf("RESEND_API_KEY not configured")
	}

	client := resend.NewClient(cfg.ResendAPIKey)

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", cfg.EmailFromName, cfg.EmailFrom),
		To:      email.To,
		Subject: email.Subject,
	}
	if email.HTMLBody != "" {
		params.Html = email.HTMLBody
	}
	if email.TextBody != "" {
		params.Text = email.TextBody
	}
	if params.Html == "" && params.Text == "" {
		return fmt.Errorf("email must have either HTMLBody or TextBody")
	}

	sent, err := client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("failed to send email via Resend: %v", err)
	}

	log.Printf("Email sent successfully via Resend (ID: %s) to: %v", sent.Id, email.To)
	return nil
}

// SendEmailAsync sends an email without blocking the caller
func SendEmailAsync(cfg *config.Config, email *Email) {
	go func() {
		if err := SendEmail(cfg, email); err != nil {
			log.Printf("[WARNING] Async email send failed: %v", err)
		}
	}()
}

// logEmailToConsole logs email details in development mode
func logEmailToConsole(email *Email) {
	separator := strings.Repeat("=", 80)
	log.Printf("\n%s\nEMAIL (test mode - not actually sent)\n%s", separator, separator)
	log.Printf("To: %v", email.To)
	log.Printf("Subject: %s", email.Subject)
	if email.TextBody != "" {
		log.Printf("Body:\n%s", email.TextBody)
	}
	log.Print(separator)
}
