package mail

import (
	"context"
	"fmt"
	"strings"

	"leave_form_bot/internal/domain/summary"

	"github.com/sirupsen/logrus"
	gomail "github.com/wneessen/go-mail"
	"golang.org/x/sync/errgroup"
)

const (
	senderDisplayName = "自動填寫劃假表單"
	summarySubject    = "自動填寫工作劃假表單總結報告"
)

var ErrIncompleteMailConfig = fmt.Errorf("mail settings incomplete: SENDER_EMAIL, RECIPIENT_EMAIL and KEY must all be set")

// Settings carries the SMTP account used for summary delivery.
type Settings struct {
	Sender     string
	Recipients string // comma or semicolon separated
	Password   string // app password for the sender account
	Host       string
	Port       int
}

// SummaryMailer delivers run summaries over SMTP with implicit TLS, the
// transport Gmail expects on port 465.
type SummaryMailer struct {
	settings Settings
	logger   *logrus.Entry
}

func NewSummaryMailer(settings Settings, logger *logrus.Entry) *SummaryMailer {
	return &SummaryMailer{settings: settings, logger: logger}
}

// Deliver renders the summary and mails it. A single recipient gets one
// direct send; several recipients are mailed concurrently and the first
// failure is reported after every send has finished.
func (m *SummaryMailer) Deliver(ctx context.Context, rec *summary.Record) error {
	if m.settings.Sender == "" || m.settings.Recipients == "" || m.settings.Password == "" {
		return ErrIncompleteMailConfig
	}

	recipients := splitRecipients(m.settings.Recipients)
	if len(recipients) == 0 {
		return fmt.Errorf("recipient list is empty")
	}

	body, err := Render(rec)
	if err != nil {
		return err
	}

	if len(recipients) == 1 {
		m.logger.WithField("recipient", recipients[0]).Info("Sending summary mail")
		return m.sendTo(ctx, recipients[0], body)
	}

	m.logger.WithField("recipients", strings.Join(recipients, ", ")).Info("Sending summary mail to several recipients concurrently")

	var eg errgroup.Group
	for _, recipient := range recipients {
		eg.Go(func() error {
			if err := m.sendTo(ctx, recipient, body); err != nil {
				m.logger.WithError(err).WithField("recipient", recipient).Error("Summary mail delivery failed")
				return err
			}
			m.logger.WithField("recipient", recipient).Info("Summary mail delivered")
			return nil
		})
	}
	return eg.Wait()
}

func (m *SummaryMailer) sendTo(ctx context.Context, recipient, body string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(senderDisplayName, m.settings.Sender); err != nil {
		return fmt.Errorf("invalid sender address %s: %w", m.settings.Sender, err)
	}
	if err := msg.To(recipient); err != nil {
		return fmt.Errorf("invalid recipient address %s: %w", recipient, err)
	}
	msg.Subject(summarySubject)
	msg.SetBodyString(gomail.TypeTextHTML, body)

	client, err := gomail.NewClient(m.settings.Host,
		gomail.WithPort(m.settings.Port),
		gomail.WithSSL(),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(m.settings.Sender),
		gomail.WithPassword(m.settings.Password),
	)
	if err != nil {
		return fmt.Errorf("failed to build SMTP client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send summary mail to %s: %w", recipient, err)
	}
	return nil
}

// splitRecipients accepts comma or semicolon separated address lists.
func splitRecipients(raw string) []string {
	var out []string
	for _, part := range strings.Split(strings.ReplaceAll(raw, ";", ","), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
