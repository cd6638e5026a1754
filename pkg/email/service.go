package email

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Sender delivers one message. The SendGrid client satisfies it.
type Sender interface {
	Send(email *mail.SGMailV3) (*rest.Response, error)
}

// Service emails workflow digests to the operators
type Service struct {
	fromEmail  string
	fromName   string
	recipients []string
	sender     Sender
}

// NewService creates a new email service.
// If sendGridAPIKey is provided, emails will be sent via SendGrid.
// Otherwise, emails will be logged to console (development mode).
func NewService(fromEmail, fromName, sendGridAPIKey string, recipients []string) *Service {
	s := &Service{
		fromEmail:  fromEmail,
		fromName:   fromName,
		recipients: recipients,
	}
	if sendGridAPIKey != "" {
		s.sender = sendgrid.NewSendClient(sendGridAPIKey)
		log.Printf("✅ Email notifications enabled with SendGrid (%d recipients)", len(recipients))
	} else {
		log.Printf("⚠️  Email notifications in console-only mode (set SENDGRID_API_KEY for production)")
	}
	return s
}

// WithSender replaces the delivery client
func (s *Service) WithSender(sender Sender) *Service {
	s.sender = sender
	return s
}

// IsEnabled returns true if there is anyone to notify
func (s *Service) IsEnabled() bool {
	return s != nil && len(s.recipients) > 0
}

// NotifyFollowUpsComplete emails the outcome of a follow-up batch
func (s *Service) NotifyFollowUpsComplete(ctx context.Context, successful, failed []string) error {
	if !s.IsEnabled() {
		return nil
	}

	subject := fmt.Sprintf("Follow-ups added: %d successful, %d failed", len(successful), len(failed))

	var plain strings.Builder
	fmt.Fprintf(&plain, "Successful: %d\nFailed: %d\n", len(successful), len(failed))
	writeList(&plain, "Successful campaigns", successful)
	writeList(&plain, "Failed campaigns", failed)

	body := fmt.Sprintf(`
		<html>
		<body>
			<h2>Follow-ups Added</h2>
			<p>Successful: %d<br>Failed: %d</p>
			%s
			%s
		</body>
		</html>
	`, len(successful), len(failed), htmlList("Successful campaigns", successful), htmlList("Failed campaigns", failed))

	return s.send(ctx, subject, body, plain.String())
}

// NotifyLeadsRemoved emails a summary of leads deleted from a campaign
func (s *Service) NotifyLeadsRemoved(ctx context.Context, campaignLabel string, removed int, artifactURL string) error {
	if !s.IsEnabled() {
		return nil
	}

	subject := fmt.Sprintf("%d leads removed from %s", removed, campaignLabel)
	plain := fmt.Sprintf("Campaign: %s\nLeads removed: %d\n", campaignLabel, removed)
	archive := ""
	if artifactURL != "" {
		plain += fmt.Sprintf("Filtered leads: %s\n", artifactURL)
		archive = fmt.Sprintf(`<p><a href="%s">Download the filtered leads</a></p>`, html.EscapeString(artifactURL))
	}

	body := fmt.Sprintf(`
		<html>
		<body>
			<h2>Leads Removed</h2>
			<p>Campaign: %s<br>Leads removed: %d</p>
			%s
		</body>
		</html>
	`, html.EscapeString(campaignLabel), removed, archive)

	return s.send(ctx, subject, body, plain)
}

func (s *Service) send(ctx context.Context, subject, htmlBody, plainTextBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.sender == nil {
		return s.logEmailToConsole(subject, plainTextBody)
	}

	message := mail.NewV3Mail()
	message.SetFrom(mail.NewEmail(s.fromName, s.fromEmail))
	message.Subject = subject

	p := mail.NewPersonalization()
	for _, r := range s.recipients {
		p.AddTos(mail.NewEmail("", r))
	}
	message.AddPersonalizations(p)
	message.AddContent(mail.NewContent("text/plain", plainTextBody), mail.NewContent("text/html", htmlBody))

	response, err := s.sender.Send(message)
	if err != nil {
		log.Printf("❌ SendGrid error: %v", err)
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		log.Printf("❌ SendGrid returned error status %d: %s", response.StatusCode, response.Body)
		return fmt.Errorf("sendgrid returned error status: %d", response.StatusCode)
	}

	log.Printf("✅ Email sent to %d recipients (SendGrid status: %d)", len(s.recipients), response.StatusCode)
	return nil
}

// logEmailToConsole logs email details to console (development mode)
func (s *Service) logEmailToConsole(subject, plainTextBody string) error {
	log.Printf("📧 [EMAIL] %s", subject)
	log.Printf("   To: %s", strings.Join(s.recipients, ", "))
	log.Printf("   From: %s <%s>", s.fromName, s.fromEmail)
	for _, line := range strings.Split(strings.TrimSpace(plainTextBody), "\n") {
		log.Printf("   %s", line)
	}
	log.Printf("   ---")
	log.Printf("   ⚠️  Email NOT sent (development mode)")
	return nil
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}

func htmlList(title string, items []string) string {
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "<h3>%s</h3><ul>", title)
	for _, item := range items {
		fmt.Fprintf(&b, "<li>%s</li>", html.EscapeString(item))
	}
	b.WriteString("</ul>")
	return b.String()
}
