package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"visaworkflow-backend/lib/telemetry"
	"visaworkflow-backend/lib/workflowdiff"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("visaworkflow.lib.notify")

type SmtpConfig struct {
	Server       string `json:"server"`
	Port         int    `json:"port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
}

type Config struct {
	Smtp       SmtpConfig `json:"smtp"`
	SenderName string     `json:"sender_name"`
	// Recipients are the reviewers notified of upstream changes, no mail
	// is sent when it is empty.
	Recipients []string `json:"recipients"`
}

func (c Config) Validate() error {
	if len(c.Recipients) == 0 {
		return nil
	}
	if c.Smtp.Server == "" || c.Smtp.Port == 0 {
		return fmt.Errorf("smtp server and port are required when recipients are set")
	}
	if c.Smtp.EmailAddress == "" {
		return fmt.Errorf("smtp email_address is required when recipients are set")
	}
	return nil
}

type Mailer struct {
	config Config
}

func NewMailer(config Config) Mailer {
	return Mailer{config: config}
}

func (m Mailer) Enabled() bool {
	return len(m.config.Recipients) > 0
}

// Render formats a change report as a plain text mail body.
func Render(title string, report workflowdiff.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", title)
	if report.IsEmpty() {
		b.WriteString("No changes detected.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "%d change(s) detected.\n", report.TotalChanges())
	for _, category := range report.Categories {
		fmt.Fprintf(&b, "\n%s\n", category.Category)
		for _, c := range category.Added {
			fmt.Fprintf(&b, "  + %s\n", c.NewValue)
		}
		for _, c := range category.Removed {
			fmt.Fprintf(&b, "  - %s\n", c.OldValue)
		}
		for _, c := range category.Modified {
			fmt.Fprintf(&b, "  ~ %s (%s)\n", c.NewValue, strings.Join(c.Fields, ", "))
		}
	}
	b.WriteString("\nPlease review the new content before it is published.\n")
	return b.String()
}

func (m Mailer) SendReport(ctx context.Context, subject string, report workflowdiff.Report) error {
	ctx, span := tracer.Start(ctx, "SendReport")
	defer span.End()

	if !m.Enabled() {
		slog.DebugContext(ctx, "no report recipients configured, skipping", "subject", subject)
		return nil
	}
	span.SetAttributes(
		attribute.Int("recipients", len(m.config.Recipients)),
		attribute.Int("changes", report.TotalChanges()),
	)

	sender := m.config.SenderName
	if sender == "" {
		sender = "Visa Workflow"
	}

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("%s <%s>", sender, m.config.Smtp.EmailAddress)
	mail.To = m.config.Recipients
	mail.Subject = subject
	mail.Text = []byte(Render(subject, report))

	addr := fmt.Sprintf("%s:%d", m.config.Smtp.Server, m.config.Smtp.Port)
	err := mail.Send(
		addr,
		smtp.PlainAuth("", m.config.Smtp.EmailAddress, m.config.Smtp.Password, m.config.Smtp.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return err
	}

	slog.InfoContext(ctx, "sent change report", "subject", subject, "recipients", len(m.config.Recipients))
	return nil
}
