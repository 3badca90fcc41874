// internal/notify/mail.go
package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"

	mail "github.com/go-mail/mail/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/firenoc-backend/internal/config"
	"github.com/javajoker/firenoc-backend/internal/models"
)

type mailSender interface {
	DialAndSend(m ...*mail.Message) error
}

// RecipientLookup resolves the user a notification is addressed to.
type RecipientLookup interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// MailDispatcher e-mails user notifications to recipients who opted in.
// Staff broadcasts are not mailed.
type MailDispatcher struct {
	sender    mailSender
	users     RecipientLookup
	fromEmail string
	fromName  string
}

var mailTemplate = template.Must(template.New("notification").Parse(`
<!DOCTYPE html>
<html>
<body>
	<h2>{{.Title}}</h2>
	<p>Hello {{.Name}},</p>
	<p>{{.Message}}</p>
	{{if .Reference}}<p>Reference: {{.Reference}}</p>{{end}}
	<p>Regards,<br>Fire Department NOC Office</p>
</body>
</html>`))

type mailData struct {
	Name      string
	Title     string
	Message   string
	Reference string
}

func NewMailDispatcher(cfg config.EmailConfig, users RecipientLookup) *MailDispatcher {
	d := mail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	d.TLSConfig = &tls.Config{
		ServerName:         cfg.SMTPHost,
		InsecureSkipVerify: cfg.SkipTLSVerify,
	}
	return newMailDispatcher(d, users, cfg.FromEmail, cfg.FromName)
}

func newMailDispatcher(sender mailSender, users RecipientLookup, fromEmail, fromName string) *MailDispatcher {
	return &MailDispatcher{
		sender:    sender,
		users:     users,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (d *MailDispatcher) Notify(ctx context.Context, n Notification) error {
	if n.RecipientID == nil {
		return nil
	}

	user, err := d.users.GetUser(ctx, *n.RecipientID)
	if err != nil {
		return fmt.Errorf("failed to resolve recipient: %w", err)
	}
	if !user.IsActive || !user.NotifyEmail || user.Email == "" {
		return nil
	}

	body, err := renderMail(mailData{
		Name:      user.Name,
		Title:     n.Title,
		Message:   n.Message,
		Reference: reference(n),
	})
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	m := mail.NewMessage()
	m.SetHeader("From", m.FormatAddress(d.fromEmail, d.fromName))
	m.SetHeader("To", user.Email)
	m.SetHeader("Subject", n.Title)
	m.SetBody("text/html", body)

	if err := d.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"recipient_id": user.ID,
		"kind":         n.Kind,
	}).Debug("Notification e-mailed")
	return nil
}

func reference(n Notification) string {
	if v, ok := n.Data["number"].(string); ok {
		return v
	}
	return ""
}

func renderMail(data mailData) (string, error) {
	var buf bytes.Buffer
	if err := mailTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
