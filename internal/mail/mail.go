package mail

import (
	"context"
	"fmt"

	"github.com/bagdasarian/teamhub/internal/config"
	"github.com/bagdasarian/teamhub/internal/logger"
	"github.com/resend/resend-go/v2"
)

type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// NewMailer возвращает Resend-клиент, если задан API-ключ, иначе пишет письма в лог
func NewMailer(cfg config.MailConfig, log *logger.Logger) Mailer {
	if cfg.ResendAPIKey == "" {
		return NewLogMailer(log)
	}
	return NewResendMailer(cfg.ResendAPIKey, cfg.From)
}

type ResendMailer struct {
	client *resend.Client
	from   string
}

func NewResendMailer(apiKey, from string) *ResendMailer {
	return &ResendMailer{client: resend.NewClient(apiKey), from: from}
}

func (m *ResendMailer) Send(ctx context.Context, msg Message) error {
	_, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return fmt.Errorf("resend send: %w", err)
	}
	return nil
}

// LogMailer для разработки: ссылки из писем видны в логе
type LogMailer struct {
	log *logger.Logger
}

func NewLogMailer(log *logger.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.log.WithContext(ctx).Info("email (log mailer)",
		"to", msg.To,
		"subject", msg.Subject,
		"text", msg.Text,
	)
	return nil
}
